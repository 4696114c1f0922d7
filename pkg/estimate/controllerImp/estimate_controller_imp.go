package controllerImp

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"carprice/pkg/collector"
	"carprice/pkg/estimate/controller"
	"carprice/pkg/estimate/service"
	"carprice/pkg/predict"
	"carprice/pkg/view"
)

const kindValidation = "validation"

type estimateCtrl struct {
	svc            service.EstimateService
	showEngineered bool // checkbox default on first load
	now            func() time.Time
}

func New(svc service.EstimateService, showEngineered bool) controller.EstimateController {
	return &estimateCtrl{svc: svc, showEngineered: showEngineered, now: time.Now}
}

func (h *estimateCtrl) dashboard(in collector.RawInput, showEngineered bool) *view.Dashboard {
	minYear, maxYear := h.svc.YearBounds()
	return view.NewDashboard(in, showEngineered, minYear, maxYear, h.now())
}

// GET /
func (h *estimateCtrl) Dashboard(c echo.Context) error {
	return c.Render(http.StatusOK, view.DashboardTemplate, h.dashboard(collector.Defaults(), h.showEngineered))
}

// POST /estimate
func (h *estimateCtrl) SubmitForm(c echo.Context) error {
	var in collector.RawInput
	if err := c.Bind(&in); err != nil {
		d := h.dashboard(collector.Defaults(), h.showEngineered)
		d.SetError(kindValidation, "could not read the form")
		return c.Render(http.StatusBadRequest, view.DashboardTemplate, d)
	}
	show := checked(c.FormValue("show_engineered"))
	d := h.dashboard(in, show)

	est, err := h.svc.Estimate(c.Request().Context(), service.Request{Input: in, ShowEngineered: show})
	if err != nil {
		status, kind := classify(err)
		d.SetError(kind, err.Error())
		return c.Render(status, view.DashboardTemplate, d)
	}
	d.SetEstimate(est)
	return c.Render(http.StatusOK, view.DashboardTemplate, d)
}

type errorResponse struct {
	Error  string                 `json:"error"`
	Kind   string                 `json:"kind"`
	Fields []collector.FieldError `json:"fields,omitempty"`
}

type estimateResponse struct {
	*service.Estimate
	LatencySec float64 `json:"latency_sec"`
}

// POST /api/v1/estimate
func (h *estimateCtrl) EstimateJSON(c echo.Context) error {
	in, show, err := decodeAPIRequest(c.Request())
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: kindValidation})
	}

	est, err := h.svc.Estimate(c.Request().Context(), service.Request{Input: in, ShowEngineered: show})
	if err != nil {
		status, kind := classify(err)
		resp := errorResponse{Error: err.Error(), Kind: kind}
		var verr *collector.ValidationError
		if errors.As(err, &verr) {
			resp.Fields = verr.Fields
		}
		return c.JSON(status, resp)
	}
	return c.JSON(http.StatusOK, estimateResponse{Estimate: est, LatencySec: est.Prediction.Latency.Seconds()})
}

func classify(err error) (int, string) {
	var verr *collector.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, kindValidation
	}
	switch kind := predict.KindOf(err); kind {
	case "":
		slog.Error("estimate failed", "error", err)
		return http.StatusInternalServerError, "internal"
	case predict.KindTimeout:
		return http.StatusGatewayTimeout, string(kind)
	default:
		return http.StatusBadGateway, string(kind)
	}
}

func checked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}

// decodeAPIRequest accepts numbers either as JSON numbers or as strings, so
// the collector sees the same text a form post would carry.
func decodeAPIRequest(r *http.Request) (collector.RawInput, bool, error) {
	var body map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return collector.RawInput{}, false, fmt.Errorf("bad json: %w", err)
	}

	var in collector.RawInput
	fields := map[string]*string{
		"present_price": &in.PresentPrice,
		"kms_driven":    &in.KmsDriven,
		"year":          &in.Year,
		"fuel_type":     &in.FuelType,
		"seller_type":   &in.SellerType,
		"transmission":  &in.Transmission,
		"owner":         &in.Owner,
		"brand":         &in.Brand,
	}
	for name, dst := range fields {
		switch v := body[name].(type) {
		case nil:
		case string:
			*dst = v
		case json.Number:
			*dst = v.String()
		default:
			return in, false, fmt.Errorf("%s must be a string or a number", name)
		}
	}

	show := false
	switch v := body["show_engineered"].(type) {
	case nil:
	case bool:
		show = v
	case string:
		show = checked(v)
	case json.Number:
		n, _ := strconv.ParseFloat(v.String(), 64)
		show = n != 0
	default:
		return in, false, errors.New("show_engineered must be a boolean")
	}
	return in, show, nil
}
