package service

import (
	"context"

	"carprice/entities"
	"carprice/pkg/collector"
)

type EstimateService interface {
	// Estimate validates the input, asks the backend for a price and, when
	// requested, attaches the engineered features. No partial estimate is
	// ever returned: on error the *Estimate is nil.
	Estimate(ctx context.Context, req Request) (*Estimate, error)
	YearBounds() (min, max int)
}

type Request struct {
	Input          collector.RawInput
	ShowEngineered bool
}

type FeatureSource string

const (
	FeaturesFromServer FeatureSource = "server"
	FeaturesLocal      FeatureSource = "local"
)

type Estimate struct {
	Car        entities.CarAttributes    `json:"car"`
	Prediction entities.PredictionResult `json:"prediction"`

	// Set only when ShowEngineered was requested.
	EngineeredFeatures map[string]any `json:"engineered_features,omitempty"`
	FeatureSource      FeatureSource  `json:"feature_source,omitempty"`
	ReferenceYear      int            `json:"reference_year,omitempty"`
	// Features where the server disagrees with the local formulas.
	FeatureDrift []string `json:"feature_drift,omitempty"`
}
