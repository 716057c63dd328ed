package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vtk-it/declaro/internal/bill/query"
)

// billFilterEngine builds a filter engine from request query parameters.
// Malformed values are absorbed: an unparsable bound simply leaves its
// dimension unset, matching how the filter form behaves.
func billFilterEngine(c *gin.Context) *query.Engine {
	e := query.NewEngine()

	if v, ok := c.GetQuery("query"); ok {
		e.SetText(v)
	}
	if v, ok := c.GetQuery("amount_min"); ok {
		e.SetAmountMin(v)
	}
	if v, ok := c.GetQuery("amount_max"); ok {
		e.SetAmountMax(v)
	}
	if v, ok := c.GetQuery("date_from"); ok {
		e.SetDateFrom(v)
	}
	if v, ok := c.GetQuery("date_to"); ok {
		e.SetDateTo(v)
	}
	if v, ok := c.GetQuery("post"); ok {
		e.SetPost(strings.TrimSpace(v))
	}
	if v, ok := c.GetQuery("name"); ok {
		e.SetName(strings.TrimSpace(v))
	}
	if parseBoolParam(c, "unpaid") {
		e.SetUnpaidOnly(true)
	}
	if parseBoolParam(c, "booked") {
		e.SetBookedOnly(true)
	}

	// Page is applied last: setters above reset it.
	if v, ok := c.GetQuery("page"); ok {
		if page, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			e.SetPage(page)
		}
	}
	return e
}

func parseBoolParam(c *gin.Context, name string) bool {
	v, ok := c.GetQuery(name)
	if !ok {
		return false
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && parsed
}
