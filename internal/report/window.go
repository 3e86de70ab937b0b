package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/thozza/reportist/internal/todoist"
)

var (
	// ErrInvalidWeek is returned for week numbers outside 0-53.
	ErrInvalidWeek = errors.New("invalid week number")

	// ErrInvalidMonth is returned for month numbers outside 1-12.
	ErrInvalidMonth = errors.New("invalid month number")

	// ErrInvalidYear is returned for years outside 1-9999.
	ErrInvalidYear = errors.New("invalid year")
)

// DateRange is an inclusive range of calendar days.
// Start and End are midnight UTC.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the calendar day of t (in UTC) lies in the range.
func (r DateRange) Contains(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

// String formats the range as "2006-01-02..2006-01-02".
func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

// CompletedFilter returns the API filter for the range: from the start of
// Start up to the end of End.
func (r DateRange) CompletedFilter() todoist.CompletedFilter {
	return todoist.CompletedFilter{Since: r.Start, Until: r.End.AddDate(0, 0, 1)}
}

// DateLayout is the layout used for plain dates.
const DateLayout = "2006-01-02"

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return Date(t.Year(), t.Month(), t.Day())
}

// FilterByDateRange keeps the tasks completed within r, preserving order.
func FilterByDateRange(tasks []todoist.CompletedTask, r DateRange) []todoist.CompletedTask {
	filtered := make([]todoist.CompletedTask, 0, len(tasks))
	for _, task := range tasks {
		if r.Contains(task.CompletedAt) {
			filtered = append(filtered, task)
		}
	}
	return filtered
}

// mondayIndex maps time.Weekday to Monday=0 .. Sunday=6.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// WeekOfYear returns the Monday-first week number of t (00-53).
// Days before the first Monday of the year are in week 0.
func WeekOfYear(t time.Time) int {
	t = DateOf(t)
	return (t.YearDay() - 1 + 7 - mondayIndex(t.Weekday())) / 7
}

// weekDay returns the date of the given weekday (Monday=0) in week
// week of year. Week 1 starts on the first Monday of the year. The result
// may fall in the previous year for week 0 or the next year for week 53.
func weekDay(year, week, weekday int) time.Time {
	jan1 := Date(year, time.January, 1)
	firstWeekday := mondayIndex(jan1.Weekday())

	var julian int
	if week == 0 {
		julian = 1 + weekday - firstWeekday
	} else {
		week0Length := (7 - firstWeekday) % 7
		julian = 1 + week0Length + 7*(week-1) + weekday
	}
	return jan1.AddDate(0, 0, julian-1)
}

// WeekRange returns Monday through Sunday of the given Monday-first week.
func WeekRange(week, year int) (DateRange, error) {
	if week < 0 || week > 53 {
		return DateRange{}, fmt.Errorf("%w: %d (expected 0-53)", ErrInvalidWeek, week)
	}
	if err := validateYear(year); err != nil {
		return DateRange{}, err
	}
	return DateRange{
		Start: weekDay(year, week, 0),
		End:   weekDay(year, week, 6),
	}, nil
}

// MonthRange returns the first through the last day of the month.
func MonthRange(month, year int) (DateRange, error) {
	if month < 1 || month > 12 {
		return DateRange{}, fmt.Errorf("%w: %d (expected 1-12)", ErrInvalidMonth, month)
	}
	if err := validateYear(year); err != nil {
		return DateRange{}, err
	}
	start := Date(year, time.Month(month), 1)
	return DateRange{
		Start: start,
		End:   start.AddDate(0, 1, -1),
	}, nil
}

func validateYear(year int) error {
	if year < 1 || year > 9999 {
		return fmt.Errorf("%w: %d", ErrInvalidYear, year)
	}
	return nil
}

// Window computes report windows relative to a fixed current date.
type Window struct {
	Today time.Time
}

// NewWindow returns a window anchored at the calendar day of now.
func NewWindow(now time.Time) Window {
	return Window{Today: DateOf(now)}
}

// Week returns the range of the given week. A negative week selects the
// current week and a zero year the current year.
func (w Window) Week(week, year int) (DateRange, error) {
	if week < 0 {
		week = WeekOfYear(w.Today)
	}
	if year == 0 {
		year = w.Today.Year()
	}
	return WeekRange(week, year)
}

// Month returns the range of the given month. Zero month or year select
// the current one.
func (w Window) Month(month, year int) (DateRange, error) {
	if month == 0 {
		month = int(w.Today.Month())
	}
	if year == 0 {
		year = w.Today.Year()
	}
	return MonthRange(month, year)
}
