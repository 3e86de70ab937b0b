package output

import (
	"time"

	"github.com/thozza/reportist/internal/report"
)

// ReportOutput is the structured form of a completed-tasks report.
//
// Example YAML (medium density):
//
//	report: month
//	start: "2024-03-01"
//	end: "2024-03-31"
//	completed: 1
//	tasks:
//	  - completed_at: "2024-03-01T10:00:00Z"
//	    project: Work/ClientA
//	    content: Send offer
type ReportOutput struct {
	Report    string       `yaml:"report" json:"report"`
	Start     string       `yaml:"start" json:"start"`
	End       string       `yaml:"end" json:"end"`
	Completed int          `yaml:"completed" json:"completed"`
	Projects  []string     `yaml:"projects,omitempty" json:"projects,omitempty"`
	Tasks     []TaskOutput `yaml:"tasks,omitempty" json:"tasks,omitempty"`
}

// TaskOutput is one completed task.
type TaskOutput struct {
	CompletedAt string `yaml:"completed_at" json:"completed_at"`
	Project     string `yaml:"project" json:"project"`
	Content     string `yaml:"content" json:"content"`
	ProjectID   string `yaml:"project_id,omitempty" json:"project_id,omitempty"`
}

// NewReportOutput converts a report result for the given density.
// Sparse output still lists the distinct project paths that had tasks.
func NewReportOutput(res *report.Result, density Density) *ReportOutput {
	out := &ReportOutput{
		Report:    string(res.Kind),
		Start:     res.Range.Start.Format(report.DateLayout),
		End:       res.Range.End.Format(report.DateLayout),
		Completed: len(res.Entries),
	}

	if !density.IncludesTasks() {
		seen := make(map[string]bool)
		for _, e := range res.Entries {
			if !seen[e.Project] {
				seen[e.Project] = true
				out.Projects = append(out.Projects, e.Project)
			}
		}
		return out
	}

	out.Tasks = make([]TaskOutput, 0, len(res.Entries))
	for _, e := range res.Entries {
		task := TaskOutput{
			CompletedAt: e.CompletedAt.UTC().Format(time.RFC3339),
			Project:     e.Project,
			Content:     e.Content,
		}
		if density.IncludesIDs() {
			task.ProjectID = e.ProjectID
		}
		out.Tasks = append(out.Tasks, task)
	}
	return out
}
