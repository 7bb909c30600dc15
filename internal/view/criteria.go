package view

import (
	"time"

	"bundle-console/internal/models"
)

// SortOrder selects the single-key sort on row creation time.
type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
)

// Criteria is a snapshot of the user-chosen filter predicates. The
// zero value matches everything. It is consumed read-only by Derive.
type Criteria struct {
	OrderID   string        // substring match on order id
	Phone     string        // substring match on mobile number
	Product   string        // exact match on product name
	Status    models.Status // exact match on status
	Date      string        // exact match on formatted date, YYYY-MM-DD
	StartTime string        // HH:MM, applied only together with Date and EndTime
	EndTime   string        // HH:MM
	NewOnly   bool          // rows within the trailing new-order window

	// Now anchors the NewOnly window; zero means time.Now. Tests pin it.
	Now       time.Time
	NewWindow time.Duration
}

// Active reports whether any predicate is set. When false, Derive
// takes the sort-only fast path and the filter pass never runs.
func (c Criteria) Active() bool {
	return c.OrderID != "" || c.Phone != "" || c.Product != "" ||
		c.Status != "" || c.Date != "" || c.NewOnly ||
		c.StartTime != "" || c.EndTime != ""
}

// timeRange resolves the explicit datetime range. It only applies when
// a date and both times are set; otherwise ok is false.
func (c Criteria) timeRange() (start, end time.Time, ok bool) {
	if c.Date == "" || c.StartTime == "" || c.EndTime == "" {
		return time.Time{}, time.Time{}, false
	}
	start, err := time.ParseInLocation("2006-01-02T15:04", c.Date+"T"+c.StartTime, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err = time.ParseInLocation("2006-01-02T15:04", c.Date+"T"+c.EndTime, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func (c Criteria) now() time.Time {
	if c.Now.IsZero() {
		return time.Now().UTC()
	}
	return c.Now
}

func (c Criteria) newWindow() time.Duration {
	if c.NewWindow <= 0 {
		return 5 * time.Minute
	}
	return c.NewWindow
}

// AmountFilter restricts transactions by the sign of their amount.
type AmountFilter string

const (
	AmountAll     AmountFilter = "all"
	AmountCredits AmountFilter = "positive"
	AmountDebits  AmountFilter = "negative"
)
