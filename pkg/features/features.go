// Package features derives the engineered model inputs from a car record.
//
// The backend computes the same values before inference. Keep the two in
// lockstep: any change here must ship with the matching server change.
package features

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"carprice/entities"
)

const (
	kmPerYearPlaces    = 2
	depreciationPlaces = 4
	conditionPlaces    = 8
)

// Compute derives the engineered features of c relative to referenceYear.
// Age is clamped at zero so a car newer than the reference year never
// produces a negative age or a zero denominator.
func Compute(c entities.CarAttributes, referenceYear int) entities.EngineeredFeatures {
	age := referenceYear - c.Year
	if age < 0 {
		age = 0
	}
	denom := float64(age + 1)

	price := c.PresentPrice.InexactFloat64()
	kms := float64(c.KmsDriven)

	f := entities.EngineeredFeatures{
		PresentPrice:      price,
		KmsDriven:         c.KmsDriven,
		Age:               age,
		KMPerYear:         Round(kms/denom, kmPerYearPlaces),
		PriceDepreciation: Round(price/denom, depreciationPlaces),
		CarCondition:      Round((price/(kms+1))*(1.0/denom), conditionPlaces),
		Brand:             c.Brand,
	}
	if c.IsFirstOwner() {
		f.IsFirstOwner = 1
	}
	if c.IsDiesel() {
		f.IsDiesel = 1
	}
	return f
}

// CurrentYear is the default reference year.
func CurrentYear(now func() time.Time) int {
	if now == nil {
		now = time.Now
	}
	return now().Year()
}

// Round rounds x to places decimals on its exact binary value, ties to even.
// strconv does the correctly rounded conversion, which is what the server's
// rounding does too; decimal.Round would round the shortest representation.
func Round(x float64, places int) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', places, 64), 64)
	if err != nil {
		return x
	}
	return v
}

// Diff lists the feature names whose server-supplied value differs from the
// local computation. Keys the server did not send are ignored.
func Diff(local entities.EngineeredFeatures, server map[string]any) []string {
	var out []string
	for k, want := range local.Map() {
		got, ok := server[k]
		if !ok {
			continue
		}
		if !sameValue(want, got) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func sameValue(local, server any) bool {
	switch l := local.(type) {
	case string:
		s, ok := server.(string)
		return ok && s == l
	case int:
		f, ok := toFloat(server)
		return ok && f == float64(l)
	case float64:
		f, ok := toFloat(server)
		return ok && f == l
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
