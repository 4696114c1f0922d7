// Package collector turns raw user input into a validated CarAttributes record.
package collector

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"carprice/entities"
)

const (
	DefaultMinYear = 1990

	// MaxPresentPrice is the largest showroom price accepted, in lakhs.
	MaxPresentPrice = 100000
)

var (
	maxPrice = decimal.NewFromInt(MaxPresentPrice)
	minInt   = decimal.NewFromInt(math.MinInt32)
	maxInt   = decimal.NewFromInt(math.MaxInt32)
)

// RawInput carries the fields exactly as the user typed or the sheet stored
// them. Names follow the wire contract.
type RawInput struct {
	PresentPrice string `json:"present_price" form:"present_price"`
	KmsDriven    string `json:"kms_driven" form:"kms_driven"`
	Year         string `json:"year" form:"year"`
	FuelType     string `json:"fuel_type" form:"fuel_type"`
	SellerType   string `json:"seller_type" form:"seller_type"`
	Transmission string `json:"transmission" form:"transmission"`
	Owner        string `json:"owner" form:"owner"`
	Brand        string `json:"brand" form:"brand"`
}

// Defaults are the values the dashboard form starts with.
func Defaults() RawInput {
	return RawInput{
		PresentPrice: "5.59",
		KmsDriven:    "27000",
		Year:         "2014",
		FuelType:     string(entities.FuelPetrol),
		SellerType:   string(entities.SellerDealer),
		Transmission: string(entities.TransmissionManual),
		Owner:        "0",
		Brand:        "Maruti",
	}
}

type Collector struct {
	minYear int
	maxYear int // 0 = current year at collect time
	strict  bool
	now     func() time.Time
}

// New builds a collector. Out-of-range numbers are clamped into bounds unless
// strict is set, in which case they are rejected. Unparsable numbers and
// unknown enum values are always rejected.
func New(minYear, maxYear int, strict bool) *Collector {
	if minYear <= 0 {
		minYear = DefaultMinYear
	}
	return &Collector{minYear: minYear, maxYear: maxYear, strict: strict, now: time.Now}
}

// WithClock replaces the clock used to resolve an open-ended max year.
func (c *Collector) WithClock(now func() time.Time) *Collector {
	cp := *c
	cp.now = now
	return &cp
}

// YearBounds reports the accepted manufacture year range right now.
func (c *Collector) YearBounds() (int, int) {
	max := c.maxYear
	if max <= 0 {
		max = c.now().Year()
	}
	return c.minYear, max
}

func (c *Collector) Collect(in RawInput) (entities.CarAttributes, error) {
	var (
		out  entities.CarAttributes
		errs ValidationError
	)

	if price, err := parseDecimal(in.PresentPrice); err != nil {
		errs.add("present_price", in.PresentPrice, err.Error())
	} else if price.GreaterThan(maxPrice) {
		errs.add("present_price", in.PresentPrice, fmt.Sprintf("must be at most %d", MaxPresentPrice))
	} else if price.IsNegative() {
		if c.strict {
			errs.add("present_price", in.PresentPrice, "must be >= 0")
		} else {
			out.PresentPrice = decimal.Zero
		}
	} else {
		out.PresentPrice = price
	}

	if kms, err := parseInt(in.KmsDriven); err != nil {
		errs.add("kms_driven", in.KmsDriven, err.Error())
	} else if kms < 0 {
		if c.strict {
			errs.add("kms_driven", in.KmsDriven, "must be >= 0")
		}
	} else {
		out.KmsDriven = kms
	}

	minYear, maxYear := c.YearBounds()
	if year, err := parseInt(in.Year); err != nil {
		errs.add("year", in.Year, err.Error())
	} else if year < minYear || year > maxYear {
		if c.strict {
			errs.add("year", in.Year, fmt.Sprintf("must be within %d..%d", minYear, maxYear))
		} else {
			out.Year = clamp(year, minYear, maxYear)
		}
	} else {
		out.Year = year
	}

	if f, ok := entities.ParseFuelType(in.FuelType); ok {
		out.FuelType = f
	} else {
		errs.add("fuel_type", in.FuelType, "must be one of Petrol, Diesel, CNG, LPG, Other")
	}
	if s, ok := entities.ParseSellerType(in.SellerType); ok {
		out.SellerType = s
	} else {
		errs.add("seller_type", in.SellerType, "must be one of Dealer, Individual")
	}
	if t, ok := entities.ParseTransmission(in.Transmission); ok {
		out.Transmission = t
	} else {
		errs.add("transmission", in.Transmission, "must be one of Manual, Automatic")
	}

	// owner is a fixed choice list, never clamped
	if owner, err := parseInt(in.Owner); err != nil {
		errs.add("owner", in.Owner, err.Error())
	} else if owner < 0 || owner > entities.MaxOwners {
		errs.add("owner", in.Owner, fmt.Sprintf("must be one of 0..%d", entities.MaxOwners))
	} else {
		out.Owner = owner
	}

	out.Brand = strings.TrimSpace(in.Brand)
	if out.Brand == "" {
		out.Brand = entities.UnknownBrand
	}

	if len(errs.Fields) > 0 {
		return entities.CarAttributes{}, &errs
	}
	return out, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("is not a number")
	}
	return d, nil
}

// parseInt accepts integral decimals such as "27000.0", which is how
// spreadsheets often hand back whole numbers.
func parseInt(s string) (int, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("must be a whole number")
	}
	if d.LessThan(minInt) || d.GreaterThan(maxInt) {
		return 0, fmt.Errorf("is out of range")
	}
	return int(d.IntPart()), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
