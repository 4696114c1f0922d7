package controllerImp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/labstack/echo/v4"

	"carprice/entities"
	"carprice/pkg/collector"
	"carprice/pkg/estimate/service"
	"carprice/pkg/predict"
	"carprice/pkg/view"
)

type fakeService struct {
	got  service.Request
	est  *service.Estimate
	err  error
	hits int
}

func (f *fakeService) Estimate(_ context.Context, req service.Request) (*service.Estimate, error) {
	f.hits++
	f.got = req
	return f.est, f.err
}

func (f *fakeService) YearBounds() (int, int) { return 1990, 2025 }

func newEcho(t *testing.T) *echo.Echo {
	t.Helper()
	r, err := view.New()
	if err != nil {
		t.Fatalf("view.New() error = %v", err)
	}
	e := echo.New()
	e.Renderer = r
	return e
}

func sampleEstimate() *service.Estimate {
	return &service.Estimate{
		Prediction: entities.PredictionResult{
			PredictedPrice: 3.456,
			ModelUsed:      "xgb",
			Latency:        1500 * time.Millisecond,
			RequestID:      "req-1",
			FeatureImportance: []entities.FeatureImportance{
				{Feature: "Age", Importance: 0.1},
				{Feature: "Present_Price", Importance: 0.7},
				{Feature: "Kms_Driven", Importance: 0.2},
			},
		},
		EngineeredFeatures: map[string]any{"Age": 11, "KM_per_Year": 2250.0},
		FeatureSource:      service.FeaturesLocal,
	}
}

func parse(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func postForm(t *testing.T, h *estimateCtrl, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	e := newEcho(t)
	req := httptest.NewRequest(http.MethodPost, "/estimate", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	if err := h.SubmitForm(e.NewContext(req, rec)); err != nil {
		t.Fatalf("SubmitForm() error = %v", err)
	}
	return rec
}

func defaultForm() url.Values {
	d := collector.Defaults()
	return url.Values{
		"present_price": {d.PresentPrice},
		"kms_driven":    {d.KmsDriven},
		"year":          {d.Year},
		"fuel_type":     {d.FuelType},
		"seller_type":   {d.SellerType},
		"transmission":  {d.Transmission},
		"owner":         {d.Owner},
		"brand":         {d.Brand},
	}
}

func newCtrl(svc service.EstimateService) *estimateCtrl {
	return &estimateCtrl{svc: svc, now: func() time.Time { return time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC) }}
}

func TestDashboard_DefaultsAndNoEstimate(t *testing.T) {
	e := newEcho(t)
	svc := &fakeService{}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if err := newCtrl(svc).Dashboard(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	doc := parse(t, rec)

	if v, _ := doc.Find("#present_price").Attr("value"); v != "5.59" {
		t.Errorf("present_price = %q", v)
	}
	if v, _ := doc.Find("#year").Attr("max"); v != "2025" {
		t.Errorf("year max = %q", v)
	}
	if got := doc.Find("#fuel_type option[selected]").Text(); got != "Petrol" {
		t.Errorf("selected fuel = %q", got)
	}
	if n := doc.Find("#owner option").Length(); n != 4 {
		t.Errorf("owner options = %d, want 4", n)
	}
	if doc.Find("#price").Length() != 0 || doc.Find("#error").Length() != 0 {
		t.Error("fresh dashboard shows a result")
	}
	if !strings.Contains(doc.Find("footer").Text(), "2025-03-01 09:30") {
		t.Errorf("footer = %q", doc.Find("footer").Text())
	}
	if svc.hits != 0 {
		t.Errorf("service called %d times on GET", svc.hits)
	}
}

func TestSubmitForm_RendersEstimate(t *testing.T) {
	svc := &fakeService{est: sampleEstimate()}
	form := defaultForm()
	form.Set("show_engineered", "true")

	rec := postForm(t, newCtrl(svc), form)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !svc.got.ShowEngineered || svc.got.Input.Brand != "Maruti" {
		t.Errorf("request = %+v", svc.got)
	}

	doc := parse(t, rec)
	if got := strings.TrimSpace(doc.Find("#price").Text()); got != "₹ 3.46 lakhs" {
		t.Errorf("price = %q", got)
	}
	if got := strings.TrimSpace(doc.Find("#model").Text()); got != "Model: xgb" {
		t.Errorf("model = %q", got)
	}
	if got := strings.TrimSpace(doc.Find("#latency").Text()); got != "Latency: 1.50s" {
		t.Errorf("latency = %q", got)
	}
	if got := doc.Find("#features tr").Length(); got != 3 {
		t.Errorf("feature rows = %d, want header + 2", got)
	}

	var order []string
	doc.Find("#importance tr td:first-child").Each(func(_ int, s *goquery.Selection) {
		order = append(order, s.Text())
	})
	want := []string{"Present_Price", "Kms_Driven", "Age"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("importance order = %v, want %v", order, want)
	}
	if _, ok := doc.Find("#show_engineered").Attr("checked"); !ok {
		t.Error("show_engineered not kept checked")
	}
}

func TestSubmitForm_ErrorBannerHidesEstimate(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"validation", &collector.ValidationError{Fields: []collector.FieldError{{Field: "owner", Value: "7", Reason: "must be between 0 and 3"}}}, http.StatusBadRequest, "validation"},
		{"timeout", &predict.Error{Kind: predict.KindTimeout, Message: "deadline"}, http.StatusGatewayTimeout, "timeout"},
		{"backend 500", &predict.Error{Kind: predict.KindNonSuccessStatus, StatusCode: 500, Message: "model not loaded"}, http.StatusBadGateway, "non_success_status"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := postForm(t, newCtrl(&fakeService{err: tc.err}), defaultForm())
			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d", rec.Code, tc.status)
			}
			doc := parse(t, rec)
			banner := doc.Find("#error")
			if kind, _ := banner.Attr("data-kind"); kind != tc.kind {
				t.Errorf("kind = %q, want %q", kind, tc.kind)
			}
			if !strings.Contains(banner.Text(), tc.err.Error()) {
				t.Errorf("banner = %q", banner.Text())
			}
			if doc.Find("#price").Length() != 0 || doc.Find("#features").Length() != 0 {
				t.Error("estimate area not empty on error")
			}
		})
	}
}

func TestEstimateJSON(t *testing.T) {
	e := newEcho(t)
	svc := &fakeService{est: sampleEstimate()}
	body := `{"present_price": 5.59, "kms_driven": "27000", "year": 2014, "fuel_type": "Petrol",
		"seller_type": "Dealer", "transmission": "Manual", "owner": 0, "brand": "Maruti", "show_engineered": true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/estimate", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := newCtrl(svc).EstimateJSON(e.NewContext(req, rec)); err != nil {
		t.Fatalf("EstimateJSON() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	want := collector.Defaults()
	if svc.got.Input != want || !svc.got.ShowEngineered {
		t.Errorf("request = %+v, want %+v", svc.got, want)
	}

	var out struct {
		Prediction struct {
			PredictedPrice float64 `json:"predicted_price"`
			ModelUsed      string  `json:"model_used"`
		} `json:"prediction"`
		FeatureSource string  `json:"feature_source"`
		LatencySec    float64 `json:"latency_sec"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Prediction.PredictedPrice != 3.456 || out.Prediction.ModelUsed != "xgb" || out.FeatureSource != "local" || out.LatencySec != 1.5 {
		t.Errorf("response = %+v", out)
	}
}

func TestEstimateJSON_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		kind   string
	}{
		{"bad json", `{`, nil, http.StatusBadRequest, "validation"},
		{"object field", `{"year": {"v": 1}}`, nil, http.StatusBadRequest, "validation"},
		{"validation", `{}`, &collector.ValidationError{Fields: []collector.FieldError{{Field: "year", Reason: "is required"}}}, http.StatusBadRequest, "validation"},
		{"transport", `{}`, &predict.Error{Kind: predict.KindTransport, Message: "refused"}, http.StatusBadGateway, "transport"},
		{"malformed", `{}`, &predict.Error{Kind: predict.KindMalformedResponse, Message: "predicted_price is missing"}, http.StatusBadGateway, "malformed_response"},
		{"timeout", `{}`, &predict.Error{Kind: predict.KindTimeout, Message: "deadline"}, http.StatusGatewayTimeout, "timeout"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newEcho(t)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/estimate", strings.NewReader(tc.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			if err := newCtrl(&fakeService{err: tc.err}).EstimateJSON(e.NewContext(req, rec)); err != nil {
				t.Fatalf("EstimateJSON() error = %v", err)
			}
			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d", rec.Code, tc.status)
			}
			var out errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if out.Kind != tc.kind || out.Error == "" {
				t.Errorf("response = %+v", out)
			}
		})
	}
}
