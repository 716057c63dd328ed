package query

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vtk-it/declaro/internal/bill/domain"
)

func snowID(i int) snowflake.ID { return snowflake.ID(i) }

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func amount(v float64) *float64 { return &v }

func sampleBills() []domain.Bill {
	return []domain.Bill{
		{ID: 1, Name: "Anke Peeters", Activity: "Cantus", Desc: "Drank fakbar", Post: "Fakbar", Amount: 1050, Date: date(2024, time.March, 2), Paid: true, Booked: true},
		{ID: 2, Name: "Bram Claes", Activity: "Sportdag", Desc: "Huur sporthal", Post: "Sport", Amount: 1049, Date: date(2024, time.April, 10)},
		{ID: 3, Name: "Cèlia Maes", Activity: "Galabal", Desc: "Decoratie", Post: "Cultuur", Amount: 25000, Date: nil, Booked: true},
		{ID: 4, Name: "Dries Wouters", Activity: "Cursusdienst", Desc: "Drukwerk cursussen", Post: "Cursusdienst", Amount: 4200, Date: date(2024, time.July, 14)},
	}
}

func TestApplyNoFiltersPreservesOrder(t *testing.T) {
	bills := sampleBills()
	out := Apply(bills, Spec{})

	require.Len(t, out, len(bills))
	for i := range bills {
		assert.Equal(t, bills[i], out[i])
	}
}

func TestApplyEmptyCollection(t *testing.T) {
	out := Apply(nil, Spec{Text: "drank", UnpaidOnly: true})
	assert.Empty(t, out)
}

func TestApplyIsIdempotent(t *testing.T) {
	spec := Spec{Text: "drank", AmountMin: amount(5)}
	first := Apply(sampleBills(), spec)
	second := Apply(sampleBills(), spec)
	assert.Equal(t, first, second)
}

func TestApplyStatusFilters(t *testing.T) {
	bills := sampleBills()

	unpaid := Apply(bills, Spec{UnpaidOnly: true})
	for _, b := range unpaid {
		assert.False(t, b.Paid)
	}
	require.Len(t, unpaid, 3)

	booked := Apply(bills, Spec{BookedOnly: true})
	for _, b := range booked {
		assert.True(t, b.Booked)
	}
	require.Len(t, booked, 2)
}

func TestApplyAmountBoundsInclusiveMinorUnits(t *testing.T) {
	bills := sampleBills()

	out := Apply(bills, Spec{AmountMin: amount(10.50)})
	ids := billIDs(out)
	assert.Contains(t, ids, int64(1)) // 1050 cents, boundary included
	assert.NotContains(t, ids, int64(2))

	out = Apply(bills, Spec{AmountMax: amount(10.49)})
	ids = billIDs(out)
	assert.Contains(t, ids, int64(2))
	assert.NotContains(t, ids, int64(1))
}

func TestApplyDateRange(t *testing.T) {
	bills := sampleBills()

	out := Apply(bills, Spec{DateFrom: date(2024, time.March, 2), DateTo: date(2024, time.April, 10)})
	assert.Equal(t, []int64{1, 2}, billIDs(out))

	// A bound being set excludes undated bills.
	out = Apply(bills, Spec{DateFrom: date(2020, time.January, 1)})
	assert.NotContains(t, billIDs(out), int64(3))

	out = Apply(bills, Spec{})
	assert.Contains(t, billIDs(out), int64(3))
}

func TestApplyPostAndName(t *testing.T) {
	bills := sampleBills()

	out := Apply(bills, Spec{Post: "Sport"})
	assert.Equal(t, []int64{2}, billIDs(out))

	out = Apply(bills, Spec{Name: "WOUTERS"})
	assert.Equal(t, []int64{4}, billIDs(out))
}

func TestApplyTextSearch(t *testing.T) {
	bills := sampleBills()

	out := Apply(bills, Spec{Text: "drank"})
	require.NotEmpty(t, out)
	assert.Equal(t, []int64{1}, billIDs(out))

	out = Apply(bills, Spec{Text: "zzzzqqq"})
	assert.Empty(t, out)
}

func TestTextSearchRunsOverNarrowedSet(t *testing.T) {
	bills := sampleBills()

	// Bill 1 matches "drank" but is excluded by the unpaid filter first,
	// so the text search must not bring it back.
	out := Apply(bills, Spec{UnpaidOnly: true, Text: "drank"})
	assert.NotContains(t, billIDs(out), int64(1))
}

func TestApplyLeavesBillsUnmodified(t *testing.T) {
	bills := sampleBills()
	out := Apply(bills, Spec{Text: "cursus"})

	seen := map[int64]domain.Bill{}
	for _, b := range sampleBills() {
		seen[int64(b.ID)] = b
	}
	for _, b := range out {
		assert.Equal(t, seen[int64(b.ID)], b)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"10.50", 10.50, true},
		{"10,50", 10.50, true},
		{" 7 ", 7, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-3", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
		if ok {
			assert.Equal(t, tt.want, got, tt.raw)
		}
	}
}

func TestParseDate(t *testing.T) {
	_, ok := ParseDate("2024-07-15")
	assert.True(t, ok)

	for _, raw := range []string{"", "2024-13-01", "15/07/2024", "2024-07"} {
		_, ok := ParseDate(raw)
		assert.False(t, ok, raw)
	}
}

func TestEnginePagination(t *testing.T) {
	bills := make([]domain.Bill, 25)
	for i := range bills {
		bills[i] = domain.Bill{ID: snowID(i + 1), Name: "N", Amount: 100}
	}

	e := NewEngine()
	page := e.Run(bills)
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 3, page.PageCount)
	assert.Equal(t, 25, page.Total)
	assert.Len(t, page.Bills, 10)

	e.SetPage(3)
	page = e.Run(bills)
	assert.Equal(t, 3, page.Number)
	assert.Len(t, page.Bills, 5)

	e.SetPage(99)
	page = e.Run(bills)
	assert.Equal(t, 3, page.Number)
}

func TestEngineEmptyResultHasNoCurrentPage(t *testing.T) {
	e := NewEngine()
	page := e.Run(nil)
	assert.Equal(t, 0, page.Number)
	assert.Equal(t, 0, page.PageCount)
	assert.Empty(t, page.Bills)
}

func TestEngineFilterChangeResetsPage(t *testing.T) {
	bills := make([]domain.Bill, 30)
	for i := range bills {
		bills[i] = domain.Bill{ID: snowID(i + 1), Name: "N", Amount: 100}
	}

	e := NewEngine()
	e.SetPage(3)
	require.Equal(t, 3, e.Run(bills).Number)

	e.SetName("n")
	assert.Equal(t, 1, e.Run(bills).Number)
}

func TestEngineMalformedInputLeavesDimensionUnset(t *testing.T) {
	e := NewEngine()
	e.SetAmountMin("not a number")
	e.SetDateFrom("2024-99-99")

	assert.Nil(t, e.Spec().AmountMin)
	assert.Nil(t, e.Spec().DateFrom)
	assert.Empty(t, e.ActiveFilters())
}

func TestEngineActiveFiltersAndClear(t *testing.T) {
	e := NewEngine()
	e.SetText("drank")
	e.SetAmountMin("5")
	e.SetDateTo("2024-12-31")
	e.SetPost("Sport")
	e.SetName("an")
	e.SetUnpaidOnly(true)
	e.SetBookedOnly(true)

	assert.Equal(t, []string{
		LabelText, LabelAmount, LabelDate, LabelPost, LabelName, LabelUnpaid, LabelBooked,
	}, e.ActiveFilters())

	e.Clear(LabelAmount)
	assert.NotContains(t, e.ActiveFilters(), LabelAmount)
	assert.Contains(t, e.ActiveFilters(), LabelText)
	assert.Contains(t, e.ActiveFilters(), LabelDate)

	e.Clear(LabelUnpaid)
	assert.False(t, e.Spec().UnpaidOnly)
	assert.True(t, e.Spec().BookedOnly)
}

func billIDs(bills []domain.Bill) []int64 {
	ids := make([]int64, 0, len(bills))
	for _, b := range bills {
		ids = append(ids, int64(b.ID))
	}
	return ids
}
