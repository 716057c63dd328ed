package cache

import (
	"fmt"
	"time"
)

const defaultReportTTL = 45 * time.Second

// ReportCache stores recently composed report PDFs. The TTL is short on
// purpose: unpaid bills stay editable, so a stale composition must age out
// quickly.
type ReportCache interface {
	Get(billID string, rotate bool) ([]byte, bool)
	Set(billID string, rotate bool, pdf []byte)
	Invalidate(billID string)
}

type reportCache struct {
	entries Cache[string, []byte]
	ttl     time.Duration
}

func NewReportCache() ReportCache {
	return &reportCache{
		entries: NewTTLCache[string, []byte](),
		ttl:     defaultReportTTL,
	}
}

func (c *reportCache) Get(billID string, rotate bool) ([]byte, bool) {
	return c.entries.Get(reportKey(billID, rotate))
}

func (c *reportCache) Set(billID string, rotate bool, pdf []byte) {
	c.entries.Set(reportKey(billID, rotate), pdf, c.ttl)
}

func (c *reportCache) Invalidate(billID string) {
	c.entries.Delete(reportKey(billID, false))
	c.entries.Delete(reportKey(billID, true))
}

func reportKey(billID string, rotate bool) string {
	return fmt.Sprintf("report:%s:%t", billID, rotate)
}
