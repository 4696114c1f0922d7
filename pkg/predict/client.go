// pkg/predict/client.go

package predict

import (
	"context"

	"carprice/entities"
)

// Client asks the prediction backend for a resale estimate.
// Implementations make exactly one attempt per call.
type Client interface {
	Predict(ctx context.Context, car entities.CarAttributes) (*entities.PredictionResult, error)
}
