package serviceImp

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"carprice/pkg/collector"
	"carprice/pkg/estimate/service"
	"carprice/pkg/features"
	"carprice/pkg/predict"
)

type estimateSvc struct {
	collector     *collector.Collector
	client        predict.Client
	referenceYear int // 0 = current year at call time
	now           func() time.Time
}

func New(c *collector.Collector, client predict.Client, referenceYear int) service.EstimateService {
	return &estimateSvc{collector: c, client: client, referenceYear: referenceYear, now: time.Now}
}

// NewWithClock is New with an injected clock, for deterministic reference years.
func NewWithClock(c *collector.Collector, client predict.Client, referenceYear int, now func() time.Time) service.EstimateService {
	return &estimateSvc{collector: c, client: client, referenceYear: referenceYear, now: now}
}

func (s *estimateSvc) YearBounds() (int, int) { return s.collector.YearBounds() }

func (s *estimateSvc) Estimate(ctx context.Context, req service.Request) (*service.Estimate, error) {
	car, err := s.collector.Collect(req.Input)
	if err != nil {
		return nil, err
	}

	requestID := predict.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = predict.WithRequestID(ctx, requestID)
	}

	res, err := s.client.Predict(ctx, car)
	if err != nil {
		slog.WarnContext(ctx, "prediction failed",
			"request_id", requestID,
			"kind", predict.KindOf(err),
			"error", err,
		)
		return nil, err
	}

	out := &service.Estimate{Car: car, Prediction: *res}
	if out.Prediction.RequestID == "" {
		out.Prediction.RequestID = requestID
	}
	if req.ShowEngineered {
		refYear := s.referenceYear
		if refYear <= 0 {
			refYear = features.CurrentYear(s.now)
		}
		local := features.Compute(car, refYear)
		out.ReferenceYear = refYear

		if res.EngineeredFeatures != nil {
			out.EngineeredFeatures = res.EngineeredFeatures
			out.FeatureSource = service.FeaturesFromServer
			out.FeatureDrift = features.Diff(local, res.EngineeredFeatures)
			if len(out.FeatureDrift) > 0 {
				slog.WarnContext(ctx, "server features differ from local formulas",
					"request_id", requestID,
					"features", out.FeatureDrift,
					"reference_year", refYear,
				)
			}
		} else {
			out.EngineeredFeatures = local.Map()
			out.FeatureSource = service.FeaturesLocal
		}
	}

	slog.InfoContext(ctx, "estimate served",
		"request_id", requestID,
		"model", res.ModelUsed,
		"predicted_price", res.PredictedPrice,
		"latency_ms", res.Latency.Milliseconds(),
		"feature_source", out.FeatureSource,
	)
	return out, nil
}
