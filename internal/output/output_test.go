package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/thozza/reportist/internal/report"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"text", FormatText, false},
		{"", FormatText, false},
		{"yaml", FormatYAML, false},
		{"YAML", FormatYAML, false},
		{" json ", FormatJSON, false},
		{"cgf", "", true},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDensity(t *testing.T) {
	tests := []struct {
		input   string
		want    Density
		wantErr bool
	}{
		{"sparse", DensitySparse, false},
		{"medium", DensityMedium, false},
		{"", DensityMedium, false},
		{"Dense", DensityDense, false},
		{"smart", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDensity(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDensity(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseDensity(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDensityFlags(t *testing.T) {
	if DensitySparse.IncludesTasks() {
		t.Error("sparse should not include tasks")
	}
	if !DensityMedium.IncludesTasks() || DensityMedium.IncludesIDs() {
		t.Error("medium should include tasks without ids")
	}
	if !DensityDense.IncludesTasks() || !DensityDense.IncludesIDs() {
		t.Error("dense should include tasks and ids")
	}
}

func sampleResult() *report.Result {
	return &report.Result{
		Kind:  report.KindMonth,
		Range: report.DateRange{Start: report.Date(2024, 3, 1), End: report.Date(2024, 3, 31)},
		Entries: []report.Entry{
			{CompletedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), ProjectID: "2", Project: "Work/ClientA", Content: "Send offer"},
			{CompletedAt: time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC), ProjectID: "1", Project: "Work", Content: "Plan"},
			{CompletedAt: time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC), ProjectID: "2", Project: "Work/ClientA", Content: "Call"},
		},
	}
}

func TestNewReportOutput(t *testing.T) {
	res := sampleResult()

	medium := NewReportOutput(res, DensityMedium)
	if medium.Report != "month" || medium.Start != "2024-03-01" || medium.End != "2024-03-31" {
		t.Errorf("unexpected header: %+v", medium)
	}
	if medium.Completed != 3 || len(medium.Tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d/%d", medium.Completed, len(medium.Tasks))
	}
	if medium.Tasks[0].CompletedAt != "2024-03-01T10:00:00Z" || medium.Tasks[0].ProjectID != "" {
		t.Errorf("unexpected medium task: %+v", medium.Tasks[0])
	}

	dense := NewReportOutput(res, DensityDense)
	if dense.Tasks[0].ProjectID != "2" {
		t.Errorf("dense output should carry project ids: %+v", dense.Tasks[0])
	}

	sparse := NewReportOutput(res, DensitySparse)
	if len(sparse.Tasks) != 0 {
		t.Errorf("sparse output should not list tasks")
	}
	if len(sparse.Projects) != 2 || sparse.Projects[0] != "Work/ClientA" || sparse.Projects[1] != "Work" {
		t.Errorf("sparse projects = %v", sparse.Projects)
	}
}

func TestWriteReport_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, sampleResult(), FormatYAML, DensityMedium); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	var decoded ReportOutput
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid YAML: %v\n%s", err, buf.String())
	}
	if decoded.Completed != 3 || decoded.Tasks[2].Content != "Call" {
		t.Errorf("unexpected decoded output: %+v", decoded)
	}
	if strings.Contains(buf.String(), "project_id") {
		t.Errorf("medium YAML should omit project_id:\n%s", buf.String())
	}
}

func TestWriteReport_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, sampleResult(), FormatJSON, DensityDense); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	tasks, ok := decoded["tasks"].([]interface{})
	if !ok || len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %v", decoded["tasks"])
	}
	first := tasks[0].(map[string]interface{})
	if first["project_id"] != "2" {
		t.Errorf("expected project_id in dense JSON, got %v", first)
	}
}

func TestWriteReport_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, sampleResult(), FormatText, DensitySparse); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Completed 3 tasks.\n") {
		t.Errorf("unexpected text output:\n%s", buf.String())
	}
}

func TestGetFormatter(t *testing.T) {
	if _, err := GetFormatter(FormatYAML); err != nil {
		t.Errorf("yaml: %v", err)
	}
	if _, err := GetFormatter(FormatJSON); err != nil {
		t.Errorf("json: %v", err)
	}
	if _, err := GetFormatter(FormatText); err == nil {
		t.Error("text should not have a structured formatter")
	}
}
