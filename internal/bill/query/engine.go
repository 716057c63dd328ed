package query

import (
	"time"

	"github.com/vtk-it/declaro/internal/bill/domain"
)

// Page is one window of the filtered collection.
type Page struct {
	Bills     []domain.Bill `json:"bills"`
	Number    int           `json:"page"`
	PageCount int           `json:"page_count"`
	Total     int           `json:"total"`
}

// Engine holds a Spec together with pagination state. Every setter that
// changes a filter dimension resets the page to 1 so a shrinking result set
// can never strand the caller on an out-of-range page.
type Engine struct {
	spec     Spec
	page     int
	pageSize int
}

func NewEngine() *Engine {
	return &Engine{page: 1, pageSize: DefaultPageSize}
}

func (e *Engine) Spec() Spec { return e.spec }

func (e *Engine) SetText(q string) {
	e.spec.Text = q
	e.page = 1
}

// SetAmountMin applies a raw amount bound. Unparsable input clears the bound.
func (e *Engine) SetAmountMin(raw string) {
	e.spec.AmountMin = parsedAmount(raw)
	e.page = 1
}

func (e *Engine) SetAmountMax(raw string) {
	e.spec.AmountMax = parsedAmount(raw)
	e.page = 1
}

// SetDateFrom applies a raw date bound. Unparsable input clears the bound.
func (e *Engine) SetDateFrom(raw string) {
	e.spec.DateFrom = parsedDate(raw)
	e.page = 1
}

func (e *Engine) SetDateTo(raw string) {
	e.spec.DateTo = parsedDate(raw)
	e.page = 1
}

func (e *Engine) SetPost(post string) {
	e.spec.Post = post
	e.page = 1
}

func (e *Engine) SetName(name string) {
	e.spec.Name = name
	e.page = 1
}

func (e *Engine) SetUnpaidOnly(v bool) {
	e.spec.UnpaidOnly = v
	e.page = 1
}

func (e *Engine) SetBookedOnly(v bool) {
	e.spec.BookedOnly = v
	e.page = 1
}

func (e *Engine) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	e.page = page
}

// ActiveFilters lists the label of every filter dimension currently set.
func (e *Engine) ActiveFilters() []string {
	var labels []string
	if e.spec.Text != "" {
		labels = append(labels, LabelText)
	}
	if e.spec.AmountMin != nil || e.spec.AmountMax != nil {
		labels = append(labels, LabelAmount)
	}
	if e.spec.DateFrom != nil || e.spec.DateTo != nil {
		labels = append(labels, LabelDate)
	}
	if e.spec.Post != "" {
		labels = append(labels, LabelPost)
	}
	if e.spec.Name != "" {
		labels = append(labels, LabelName)
	}
	if e.spec.UnpaidOnly {
		labels = append(labels, LabelUnpaid)
	}
	if e.spec.BookedOnly {
		labels = append(labels, LabelBooked)
	}
	return labels
}

// Clear resets exactly the named dimension to its default, leaving the other
// dimensions untouched.
func (e *Engine) Clear(label string) {
	switch label {
	case LabelText:
		e.spec.Text = ""
	case LabelAmount:
		e.spec.AmountMin = nil
		e.spec.AmountMax = nil
	case LabelDate:
		e.spec.DateFrom = nil
		e.spec.DateTo = nil
	case LabelPost:
		e.spec.Post = ""
	case LabelName:
		e.spec.Name = ""
	case LabelUnpaid:
		e.spec.UnpaidOnly = false
	case LabelBooked:
		e.spec.BookedOnly = false
	default:
		return
	}
	e.page = 1
}

// Run filters bills with the current spec and slices out the current page.
// An empty result has no current page and page count 0.
func (e *Engine) Run(bills []domain.Bill) Page {
	filtered := Apply(bills, e.spec)
	total := len(filtered)
	pageCount := (total + e.pageSize - 1) / e.pageSize
	if total == 0 {
		return Page{Bills: []domain.Bill{}, Number: 0, PageCount: 0, Total: 0}
	}

	page := e.page
	if page > pageCount {
		page = pageCount
	}
	start := (page - 1) * e.pageSize
	end := start + e.pageSize
	if end > total {
		end = total
	}
	return Page{Bills: filtered[start:end], Number: page, PageCount: pageCount, Total: total}
}

func parsedAmount(raw string) *float64 {
	v, ok := ParseAmount(raw)
	if !ok {
		return nil
	}
	return &v
}

func parsedDate(raw string) *time.Time {
	t, ok := ParseDate(raw)
	if !ok {
		return nil
	}
	return &t
}
