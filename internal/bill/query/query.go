// Package query filters, ranks and paginates bill collections. It is a pure
// in-memory engine: every call recomputes its result from the input slice, so
// it is safe to re-run on each filter change.
package query

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"
	"github.com/vtk-it/declaro/internal/bill/domain"
)

const (
	// DefaultPageSize is the fixed page length for listings.
	DefaultPageSize = 10

	// fuzzyThreshold gates free-text matches. Scores below it are treated
	// as noise and discarded.
	fuzzyThreshold = 0
)

// DateLayout is the wire format for filter date bounds.
const DateLayout = "2006-01-02"

// Filter dimension labels as shown to users.
const (
	LabelText   = "Text"
	LabelAmount = "Amount"
	LabelDate   = "Date"
	LabelPost   = "Post"
	LabelName   = "Name"
	LabelUnpaid = "Unpaid"
	LabelBooked = "Booked"
)

// Spec is one live filter specification. Zero value means "no filters", which
// returns the collection unchanged in its original order.
type Spec struct {
	Text       string
	AmountMin  *float64 // major units, inclusive
	AmountMax  *float64 // major units, inclusive
	DateFrom   *time.Time
	DateTo     *time.Time
	Post       string
	Name       string
	UnpaidOnly bool
	BookedOnly bool
}

// ParseAmount converts a raw user-typed amount in major units. Malformed or
// negative input reports ok=false and must leave the filter dimension unset.
func ParseAmount(raw string) (float64, bool) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// ParseDate converts a raw date bound. Malformed input reports ok=false.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// MinorUnits converts a major-unit amount bound to cents.
func MinorUnits(major float64) int64 {
	return int64(math.Round(major * 100))
}

// Apply runs the filter pipeline over bills and returns the retained subset.
// The step order is fixed: status and range filters narrow the set first, the
// fuzzy text search only ever ranks what survived them. Bills are never
// copied or mutated, only re-sliced.
func Apply(bills []domain.Bill, spec Spec) []domain.Bill {
	out := make([]domain.Bill, 0, len(bills))
	for _, b := range bills {
		if spec.UnpaidOnly && b.Paid {
			continue
		}
		if spec.BookedOnly && !b.Booked {
			continue
		}
		if spec.AmountMin != nil && b.Amount < MinorUnits(*spec.AmountMin) {
			continue
		}
		if spec.AmountMax != nil && b.Amount > MinorUnits(*spec.AmountMax) {
			continue
		}
		if !withinDates(b.Date, spec.DateFrom, spec.DateTo) {
			continue
		}
		if spec.Post != "" && b.Post != spec.Post {
			continue
		}
		if spec.Name != "" && !strings.Contains(strings.ToLower(b.Name), strings.ToLower(spec.Name)) {
			continue
		}
		out = append(out, b)
	}

	if q := strings.TrimSpace(spec.Text); q != "" {
		out = searchText(out, q)
	}
	return out
}

func withinDates(date, from, to *time.Time) bool {
	if from == nil && to == nil {
		return true
	}
	if date == nil {
		return false
	}
	d := truncateDay(*date)
	if from != nil && d.Before(truncateDay(*from)) {
		return false
	}
	if to != nil && d.After(truncateDay(*to)) {
		return false
	}
	return true
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// searchText scores each bill's best match across its searchable fields and
// keeps threshold-passing bills ordered by descending score. Ties keep their
// incoming relative order.
func searchText(bills []domain.Bill, q string) []domain.Bill {
	type scored struct {
		bill  domain.Bill
		score int
	}
	hits := make([]scored, 0, len(bills))
	for _, b := range bills {
		score, ok := bestScore(b, q)
		if !ok || score < fuzzyThreshold {
			continue
		}
		hits = append(hits, scored{bill: b, score: score})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	out := make([]domain.Bill, len(hits))
	for i, h := range hits {
		out[i] = h.bill
	}
	return out
}

func bestScore(b domain.Bill, q string) (int, bool) {
	fields := []string{
		b.Activity,
		formatAmount(b.Amount),
		b.Desc,
		b.IBAN,
		b.Name,
		b.Post,
	}
	matches := fuzzy.Find(q, fields)
	if len(matches) == 0 {
		return 0, false
	}
	best := matches[0].Score
	for _, m := range matches[1:] {
		if m.Score > best {
			best = m.Score
		}
	}
	return best, true
}

func formatAmount(cents int64) string {
	return strconv.FormatFloat(float64(cents)/100, 'f', 2, 64)
}
