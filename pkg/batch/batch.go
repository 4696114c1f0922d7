// Package batch prices every car listed in an .xlsx workbook.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"carprice/pkg/collector"
	"carprice/pkg/estimate/service"
	"carprice/pkg/features"
)

const OutputSheet = "Estimates"

var inputColumns = []string{
	"present_price", "kms_driven", "year", "fuel_type",
	"seller_type", "transmission", "owner", "brand",
}

var resultColumns = []string{"predicted_price", "model_used", "latency_sec", "error"}

// Row is one workbook line after estimation. Exactly one of Estimate and Err
// is set.
type Row struct {
	Line     int // 1-based sheet row
	Input    collector.RawInput
	Estimate *service.Estimate
	Err      error
}

type Summary struct {
	Rows   int
	OK     int
	Failed int
}

type Runner struct {
	svc service.EstimateService
}

func NewRunner(svc service.EstimateService) *Runner { return &Runner{svc: svc} }

// Run reads the first sheet of in, estimates each row one at a time and
// writes the result workbook to out. Row failures are recorded in the output;
// only unreadable input, cancellation or a write failure abort the run.
func (r *Runner) Run(ctx context.Context, in io.Reader, out io.Writer) (Summary, error) {
	src, err := excelize.OpenReader(in)
	if err != nil {
		return Summary{}, fmt.Errorf("open workbook: %w", err)
	}
	defer src.Close()

	inputs, err := ReadInputs(src)
	if err != nil {
		return Summary{}, err
	}

	rows := make([]Row, 0, len(inputs))
	var sum Summary
	for _, row := range inputs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		row.Estimate, row.Err = r.svc.Estimate(ctx, service.Request{Input: row.Input})
		sum.Rows++
		if row.Err != nil {
			sum.Failed++
			slog.WarnContext(ctx, "batch row failed", "line", row.Line, "error", row.Err)
		} else {
			sum.OK++
		}
		rows = append(rows, row)
	}

	dst, err := WriteResults(rows)
	if err != nil {
		return sum, err
	}
	defer dst.Close()
	if err := dst.Write(out); err != nil {
		return sum, fmt.Errorf("write workbook: %w", err)
	}
	slog.InfoContext(ctx, "batch finished", "rows", sum.Rows, "ok", sum.OK, "failed", sum.Failed)
	return sum, nil
}

// ReadInputs maps the header row of the first sheet onto the wire field
// names. Header matching ignores case, surrounding spaces, and treats inner
// spaces or dashes as underscores. Blank lines are skipped.
func ReadInputs(f *excelize.File) ([]Row, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	lines, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	index := map[string]int{}
	for i, h := range lines[0] {
		index[normalizeHeader(h)] = i
	}
	known := 0
	for _, c := range inputColumns {
		if _, ok := index[c]; ok {
			known++
		}
	}
	if known == 0 {
		return nil, fmt.Errorf("sheet %q: header row has none of %s", sheets[0], strings.Join(inputColumns, ", "))
	}

	var rows []Row
	for n, line := range lines[1:] {
		if blank(line) {
			continue
		}
		cell := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(line) {
				return ""
			}
			return strings.TrimSpace(line[i])
		}
		rows = append(rows, Row{
			Line: n + 2,
			Input: collector.RawInput{
				PresentPrice: cell("present_price"),
				KmsDriven:    cell("kms_driven"),
				Year:         cell("year"),
				FuelType:     cell("fuel_type"),
				SellerType:   cell("seller_type"),
				Transmission: cell("transmission"),
				Owner:        cell("owner"),
				Brand:        cell("brand"),
			},
		})
	}
	return rows, nil
}

// WriteResults lays rows out on a fresh workbook: the input columns as read,
// then the result columns. The caller closes the returned file.
func WriteResults(rows []Row) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), OutputSheet); err != nil {
		f.Close()
		return nil, err
	}

	header := make([]any, 0, len(inputColumns)+len(resultColumns))
	for _, c := range append(append([]string{}, inputColumns...), resultColumns...) {
		header = append(header, c)
	}
	if err := f.SetSheetRow(OutputSheet, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}

	for i, row := range rows {
		in := row.Input
		values := []any{
			in.PresentPrice, in.KmsDriven, in.Year, in.FuelType,
			in.SellerType, in.Transmission, in.Owner, in.Brand,
		}
		if row.Err != nil {
			values = append(values, nil, nil, nil, row.Err.Error())
		} else {
			p := row.Estimate.Prediction
			values = append(values, p.PredictedPrice, p.ModelUsed, features.Round(p.Latency.Seconds(), 3), nil)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(OutputSheet, cell, &values); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

func blank(line []string) bool {
	for _, v := range line {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
