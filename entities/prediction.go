package entities

import "time"

const UnknownModel = "unknown"

type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// PredictionResult is what the prediction backend answered for one request.
// EngineeredFeatures is kept exactly as the server sent it; nil when the
// field was absent.
type PredictionResult struct {
	PredictedPrice     float64             `json:"predicted_price"`
	ModelUsed          string              `json:"model_used"`
	EngineeredFeatures map[string]any      `json:"engineered_features,omitempty"`
	FeatureImportance  []FeatureImportance `json:"feature_importance,omitempty"`
	Latency            time.Duration       `json:"-"`
	RequestID          string              `json:"request_id,omitempty"`
}

// EngineeredFeatures mirrors the feature names the model was trained on.
type EngineeredFeatures struct {
	PresentPrice      float64 `json:"Present_Price"`
	KmsDriven         int     `json:"Kms_Driven"`
	Age               int     `json:"Age"`
	KMPerYear         float64 `json:"KM_per_Year"`
	PriceDepreciation float64 `json:"Price_Depreciation"`
	CarCondition      float64 `json:"Car_Condition"`
	IsFirstOwner      int     `json:"Is_First_Owner"`
	IsDiesel          int     `json:"Is_Diesel"`
	Brand             string  `json:"Brand"`
}

// Map returns the features keyed by their model names, the same shape a
// server-supplied engineered_features object decodes into.
func (f EngineeredFeatures) Map() map[string]any {
	return map[string]any{
		"Present_Price":      f.PresentPrice,
		"Kms_Driven":         f.KmsDriven,
		"Age":                f.Age,
		"KM_per_Year":        f.KMPerYear,
		"Price_Depreciation": f.PriceDepreciation,
		"Car_Condition":      f.CarCondition,
		"Is_First_Owner":     f.IsFirstOwner,
		"Is_Diesel":          f.IsDiesel,
		"Brand":              f.Brand,
	}
}
