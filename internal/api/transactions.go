package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"bundle-console/internal/models"

	"go.uber.org/zap"
)

// TransactionQuery selects a page of the ledger. Zero-valued fields are
// omitted from the request.
type TransactionQuery struct {
	StartDate time.Time
	EndDate   time.Time
	Type      models.TransactionType
	Page      int
	Limit     int
}

// DefaultTransactionQuery covers the trailing span up to end of the
// current UTC day, which is how the dashboard opens.
func DefaultTransactionQuery(now time.Time, span time.Duration, limit int) TransactionQuery {
	now = now.UTC()
	end := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC)
	start := now.Add(-span)
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	return TransactionQuery{StartDate: start, EndDate: end, Page: 1, Limit: limit}
}

func (q TransactionQuery) values() url.Values {
	v := url.Values{}
	if !q.StartDate.IsZero() && !q.EndDate.IsZero() {
		v.Set("startDate", q.StartDate.UTC().Format(time.RFC3339))
		v.Set("endDate", q.EndDate.UTC().Format(time.RFC3339))
	}
	if q.Type != "" {
		v.Set("type", string(q.Type))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// FetchTransactions retrieves one page of ledger entries.
func (c *Client) FetchTransactions(ctx context.Context, q TransactionQuery) ([]models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	var envelope struct {
		Data []models.Transaction `json:"data"`
	}
	path := "/transactions"
	if encoded := q.values().Encode(); encoded != "" {
		path += "?" + encoded
	}
	if err := c.getJSON(ctx, path, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	zap.L().Debug("Fetched transactions",
		zap.Int("count", len(envelope.Data)),
		zap.Int("page", q.Page))

	return envelope.Data, nil
}
