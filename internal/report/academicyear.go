package report

import (
	"fmt"
	"time"
)

// AcademicYear is the working-year span a bill belongs to. The year rolls
// over mid-July: July 15 opens the next one.
type AcademicYear struct {
	Start int
	End   int
}

// AcademicYearOf tags a date with its academic year.
func AcademicYearOf(t time.Time) AcademicYear {
	y := t.Year()
	if t.Month() > time.July || (t.Month() == time.July && t.Day() >= 15) {
		return AcademicYear{Start: y, End: y + 1}
	}
	return AcademicYear{Start: y - 1, End: y}
}

// Short renders the tag as two-digit years, e.g. "23-24".
func (a AcademicYear) Short() string {
	return fmt.Sprintf("%02d-%02d", a.Start%100, a.End%100)
}

// Long renders the tag as full years, e.g. "2023-2024".
func (a AcademicYear) Long() string {
	return fmt.Sprintf("%d-%d", a.Start, a.End)
}
