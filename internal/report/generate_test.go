package report

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thozza/reportist/internal/todoist"
)

func task(projectID, content, ts string) todoist.CompletedTask {
	t := completedAt(ts)
	t.ProjectID = projectID
	t.Content = content
	return t
}

func reportSource() *fakeSource {
	return &fakeSource{
		projects: treeSnapshot(),
		completed: map[string][]todoist.CompletedTask{
			"1": {task("1", "Plan quarter", "2024-03-05T09:00:00Z")},
			"2": {
				task("2", "Kickoff", "2024-03-11T10:00:00Z"),
				task("2", "Send offer", "2024-03-01T10:00:00Z"),
			},
			"4": {task("4", "Draft spec", "2024-04-01T10:00:00Z")},
			"6": {task("6", "Plant tomatoes", "2024-03-06T18:30:00Z")},
		},
	}
}

func TestGenerate_MonthWithSubprojects(t *testing.T) {
	e := newTestEngine(t, reportSource())
	req := Request{Project: "Work", Subprojects: true, Kind: KindMonth, Month: 3, Year: 2024}

	res, err := Generate(context.Background(), e, req, NewWindow(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if res.Kind != KindMonth {
		t.Errorf("kind = %s, want month", res.Kind)
	}
	if !res.Range.Start.Equal(Date(2024, 3, 1)) || !res.Range.End.Equal(Date(2024, 3, 31)) {
		t.Errorf("range = %s, want March 2024", res.Range)
	}

	want := []Entry{
		{ProjectID: "1", Project: "Work", Content: "Plan quarter"},
		{ProjectID: "2", Project: "Work/ClientA", Content: "Kickoff"},
		{ProjectID: "2", Project: "Work/ClientA", Content: "Send offer"},
	}
	if len(res.Entries) != len(want) {
		t.Fatalf("got %d entries, want %d: %+v", len(res.Entries), len(want), res.Entries)
	}
	for i, w := range want {
		got := res.Entries[i]
		if got.ProjectID != w.ProjectID || got.Project != w.Project || got.Content != w.Content {
			t.Errorf("entry %d = %+v, want %+v", i, got, w)
		}
	}
}

func TestGenerate_CurrentWeekAllProjects(t *testing.T) {
	src := reportSource()
	e := newTestEngine(t, src)

	// Wednesday of week 10: 2024-03-04..2024-03-10.
	res, err := Generate(context.Background(), e, DefaultRequest(), NewWindow(time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var contents []string
	for _, entry := range res.Entries {
		contents = append(contents, entry.Content)
	}
	if want := []string{"Plan quarter", "Plant tomatoes"}; !equalIDs(contents, want) {
		t.Errorf("contents = %v, want %v", contents, want)
	}

	// All projects are queried once, expansion is not applied.
	if want := []string{"1", "5", "4", "2", "6", "3", "7"}; !equalIDs(src.requested, want) {
		t.Errorf("requests = %v, want %v", src.requested, want)
	}

	// Each request is bounded by the week.
	want := todoist.CompletedFilter{Since: Date(2024, 3, 4), Until: Date(2024, 3, 11)}
	for i, f := range src.filters {
		if !f.Since.Equal(want.Since) || !f.Until.Equal(want.Until) {
			t.Errorf("filter %d = %v..%v, want %v..%v", i, f.Since, f.Until, want.Since, want.Until)
		}
	}
}

func TestGenerate_Errors(t *testing.T) {
	window := NewWindow(time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{"unknown project", Request{Project: "Nope", Kind: KindWeek, Week: -1}, ErrProjectNotFound},
		{"bad week", Request{Kind: KindWeek, Week: 60}, ErrInvalidWeek},
		{"bad month", Request{Kind: KindMonth, Month: 13}, ErrInvalidMonth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := reportSource()
			e := newTestEngine(t, src)
			_, err := Generate(context.Background(), e, tt.req, window)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if len(src.requested) != 0 {
				t.Errorf("expected no completed-task requests, got %v", src.requested)
			}
		})
	}
}

func TestGenerate_DanglingParent(t *testing.T) {
	src := &fakeSource{
		projects: []todoist.Project{{ID: "x", Name: "X", ParentID: "missing"}},
		completed: map[string][]todoist.CompletedTask{
			"x": {task("x", "Lost", "2024-03-05T09:00:00Z")},
		},
	}
	e := newTestEngine(t, src)

	_, err := Generate(context.Background(), e, DefaultRequest(), NewWindow(Date(2024, 3, 6)))
	if !errors.Is(err, ErrUnknownProject) {
		t.Fatalf("error = %v, want ErrUnknownProject", err)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"week", KindWeek, false},
		{"MONTH", KindMonth, false},
		{" month ", KindMonth, false},
		{"year", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteText(t *testing.T) {
	res := &Result{
		Kind: KindWeek,
		Entries: []Entry{
			{CompletedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), Project: "Work/ClientA", Content: "Send offer"},
			{CompletedAt: time.Date(2024, 3, 2, 7, 5, 9, 0, time.UTC), Project: "Home", Content: "Mow"},
		},
	}

	var buf bytes.Buffer
	if err := WriteText(&buf, res); err != nil {
		t.Fatalf("WriteText: %v", err)
	}

	want := "Completed 2 tasks.\n" +
		"Fri 2024-03-01 10:00:00: (Work/ClientA)\t Send offer\n" +
		"Sat 2024-03-02 07:05:09: (Home)\t Mow\n"
	if buf.String() != want {
		t.Errorf("WriteText output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestWriteText_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, &Result{}); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if buf.String() != "Completed 0 tasks.\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}
