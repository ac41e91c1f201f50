package audit

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// NewExporter returns the exporter for format ("json" or "csv").
func NewExporter(format string, pretty bool) (Exporter, error) {
	switch format {
	case "json", "":
		return &JSONExporter{Pretty: pretty}, nil
	case "csv":
		return &CSVExporter{IncludeHeader: true}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// JSONExporter writes records as a JSON array.
type JSONExporter struct {
	// Pretty enables indentation.
	Pretty bool
}

// Export writes records to w. An empty input yields "[]".
func (e *JSONExporter) Export(ctx context.Context, records []*Record, w io.Writer) error {
	if records == nil {
		records = []*Record{}
	}

	var data []byte
	var err error
	if e.Pretty {
		data, err = json.MarshalIndent(records, "", "  ")
	} else {
		data, err = json.Marshal(records)
	}
	if err != nil {
		return &ExportError{Format: "json", RecordCount: len(records), Cause: err}
	}

	if _, err := w.Write(append(data, '\n')); err != nil {
		return &ExportError{Format: "json", RecordCount: len(records), Cause: err}
	}
	return nil
}

// CSVExporter writes records as CSV. Map fields are flattened to JSON.
type CSVExporter struct {
	// IncludeHeader writes a header row first.
	IncludeHeader bool
}

var csvHeader = []string{
	"id", "run_id", "trace_id",
	"final_decision", "policy_decisions", "evaluated_policies", "errors",
	"span_count",
	"evaluated_at", "duration_us", "recorded_at",
}

// Export writes records to w.
func (e *CSVExporter) Export(ctx context.Context, records []*Record, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(csvHeader); err != nil {
			return &ExportError{Format: "csv", RecordCount: len(records), Cause: err}
		}
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writer.Write(recordToRow(record)); err != nil {
			return &ExportError{Format: "csv", RecordCount: len(records), Cause: err}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return &ExportError{Format: "csv", RecordCount: len(records), Cause: err}
	}
	return nil
}

func recordToRow(record *Record) []string {
	formatTime := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339Nano)
	}
	formatJSON := func(v any) string {
		data, _ := json.Marshal(v)
		return string(data)
	}

	errorsCol := ""
	if record.HasErrors() {
		errorsCol = formatJSON(record.Errors)
	}

	return []string{
		record.ID,
		record.RunID,
		record.TraceID,
		record.FinalDecision,
		formatJSON(record.PolicyDecisions),
		formatJSON(record.EvaluatedPolicies),
		errorsCol,
		strconv.Itoa(record.SpanCount),
		formatTime(record.EvaluatedAt),
		strconv.FormatInt(record.Duration.Microseconds(), 10),
		formatTime(record.RecordedAt),
	}
}
