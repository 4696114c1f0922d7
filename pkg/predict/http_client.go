// pkg/predict/http_client.go

package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"carprice/entities"
)

const (
	DefaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20

	maxMessageBytes = 300
)

type HTTPClient struct {
	endpoint string
	httpc    *http.Client
	now      func() time.Time
}

func NewHTTP(endpoint string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		endpoint: strings.TrimSpace(endpoint),
		httpc:    &http.Client{Timeout: timeout},
		now:      time.Now,
	}
}

func (c *HTTPClient) Endpoint() string       { return c.endpoint }
func (c *HTTPClient) Timeout() time.Duration { return c.httpc.Timeout }

// wire payload, field names fixed by the backend
type predictRequest struct {
	PresentPrice float64 `json:"present_price"`
	KmsDriven    int     `json:"kms_driven"`
	Year         int     `json:"year"`
	FuelType     string  `json:"fuel_type"`
	SellerType   string  `json:"seller_type"`
	Transmission string  `json:"transmission"`
	Owner        int     `json:"owner"`
	Brand        string  `json:"brand"`
}

type predictResponse struct {
	PredictedPrice     *float64                     `json:"predicted_price"`
	ModelUsed          *string                      `json:"model_used"`
	EngineeredFeatures map[string]any               `json:"engineered_features"`
	FeatureImportance  []entities.FeatureImportance `json:"feature_importance"`
}

func newPredictRequest(car entities.CarAttributes) predictRequest {
	brand := car.Brand
	if strings.TrimSpace(brand) == "" {
		brand = entities.UnknownBrand
	}
	return predictRequest{
		PresentPrice: car.PresentPrice.InexactFloat64(),
		KmsDriven:    car.KmsDriven,
		Year:         car.Year,
		FuelType:     string(car.FuelType),
		SellerType:   string(car.SellerType),
		Transmission: string(car.Transmission),
		Owner:        car.Owner,
		Brand:        brand,
	}
}

func (c *HTTPClient) Predict(ctx context.Context, car entities.CarAttributes) (*entities.PredictionResult, error) {
	body, err := json.Marshal(newPredictRequest(car))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: "encode request: " + err.Error(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: "build request: " + err.Error(), Err: err}
	}
	requestID := requestIDFrom(ctx)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := c.now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	latency := c.now().Sub(start)
	if err != nil {
		return nil, classifyTransport(err)
	}

	slog.DebugContext(ctx, "prediction backend responded",
		"request_id", requestID,
		"status", resp.StatusCode,
		"latency", latency,
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Kind:       KindNonSuccessStatus,
			StatusCode: resp.StatusCode,
			Message:    backendMessage(raw),
		}
	}

	var out predictResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Message: "decode body: " + err.Error(), Err: err}
	}
	if out.PredictedPrice == nil {
		return nil, &Error{Kind: KindMalformedResponse, Message: "predicted_price is missing"}
	}

	result := &entities.PredictionResult{
		PredictedPrice:     *out.PredictedPrice,
		ModelUsed:          entities.UnknownModel,
		EngineeredFeatures: out.EngineeredFeatures,
		FeatureImportance:  out.FeatureImportance,
		Latency:            latency,
		RequestID:          requestID,
	}
	if out.ModelUsed != nil && strings.TrimSpace(*out.ModelUsed) != "" {
		result.ModelUsed = *out.ModelUsed
	}
	return result, nil
}

func classifyTransport(err error) *Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{Kind: KindTimeout, Message: err.Error(), Err: err}
	}
	return &Error{Kind: KindTransport, Message: err.Error(), Err: err}
}

// backendMessage pulls the error text out of an error body. FastAPI style
// {"detail": ...} is tried first, then the common error/message keys.
func backendMessage(raw []byte) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, k := range []string{"detail", "error", "message"} {
			v, ok := obj[k]
			if !ok {
				continue
			}
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				return s
			}
			return string(v)
		}
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > maxMessageBytes {
		cut := maxMessageBytes
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut] + "..."
	}
	return msg
}

type requestIDKey struct{}

// WithRequestID attaches a correlation id that Predict forwards as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id attached with WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func requestIDFrom(ctx context.Context) string {
	if id := RequestID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

var _ Client = (*HTTPClient)(nil)

// String is used by the startup log.
func (c *HTTPClient) String() string {
	return fmt.Sprintf("POST %s (timeout %s)", c.endpoint, c.httpc.Timeout)
}
