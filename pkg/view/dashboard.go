package view

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"carprice/entities"
	"carprice/pkg/collector"
	"carprice/pkg/estimate/service"
)

const DashboardTemplate = "dashboard.html"

type Option struct {
	Value    string
	Selected bool
}

type FeatureRow struct {
	Name  string
	Value string
}

// Dashboard is everything the page template needs. Price is empty whenever
// Error is set.
type Dashboard struct {
	Input          collector.RawInput
	ShowEngineered bool
	MinYear        int
	MaxYear        int
	FuelTypes      []Option
	SellerTypes    []Option
	Transmissions  []Option
	Owners         []Option
	Updated        string

	Price         string
	ModelUsed     string
	Latency       string
	RequestID     string
	Features      []FeatureRow
	FeatureSource string
	Importance    []entities.FeatureImportance

	Error     string
	ErrorKind string
}

func NewDashboard(in collector.RawInput, showEngineered bool, minYear, maxYear int, now time.Time) *Dashboard {
	d := &Dashboard{
		Input:          in,
		ShowEngineered: showEngineered,
		MinYear:        minYear,
		MaxYear:        maxYear,
		Updated:        now.Format("2006-01-02 15:04"),
	}
	for _, f := range entities.FuelTypes {
		d.FuelTypes = append(d.FuelTypes, option(string(f), in.FuelType))
	}
	for _, s := range entities.SellerTypes {
		d.SellerTypes = append(d.SellerTypes, option(string(s), in.SellerType))
	}
	for _, t := range entities.Transmissions {
		d.Transmissions = append(d.Transmissions, option(string(t), in.Transmission))
	}
	for o := 0; o <= entities.MaxOwners; o++ {
		d.Owners = append(d.Owners, option(strconv.Itoa(o), in.Owner))
	}
	return d
}

func option(value, current string) Option {
	return Option{Value: value, Selected: value == current}
}

// SetEstimate fills the result area.
func (d *Dashboard) SetEstimate(est *service.Estimate) {
	d.Error, d.ErrorKind = "", ""
	d.Price = decimal.NewFromFloat(est.Prediction.PredictedPrice).StringFixed(2)
	d.ModelUsed = est.Prediction.ModelUsed
	d.Latency = fmt.Sprintf("%.2f", est.Prediction.Latency.Seconds())
	d.RequestID = est.Prediction.RequestID
	d.FeatureSource = string(est.FeatureSource)

	d.Features = d.Features[:0]
	keys := make([]string, 0, len(est.EngineeredFeatures))
	for k := range est.EngineeredFeatures {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d.Features = append(d.Features, FeatureRow{Name: k, Value: fmt.Sprint(est.EngineeredFeatures[k])})
	}

	// highest importance first, ties keep server order
	d.Importance = append([]entities.FeatureImportance(nil), est.Prediction.FeatureImportance...)
	sort.SliceStable(d.Importance, func(i, j int) bool {
		return d.Importance[i].Importance > d.Importance[j].Importance
	})
}

// SetError clears any result and shows msg instead.
func (d *Dashboard) SetError(kind, msg string) {
	d.Price, d.ModelUsed, d.Latency, d.RequestID, d.FeatureSource = "", "", "", "", ""
	d.Features, d.Importance = nil, nil
	d.Error, d.ErrorKind = msg, kind
}
