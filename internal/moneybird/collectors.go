package moneybird

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"bizledger/internal/finance"
)

// Filter field names. "period" is the broader field the API falls back on
// when a document-specific date field is rejected.
const (
	FieldInvoiceDate = "invoice_date"
	FieldDate        = "date"
	FieldReceiptDate = "receipt_date"
	FieldPeriod      = "period"
)

const filterDayLayout = "20060102"

// CollectorError records why a collector produced no documents
type CollectorError struct {
	Kind  finance.Kind
	Field string
	Err   error
}

func (e *CollectorError) Error() string {
	return fmt.Sprintf("collect %s (filter %s): %v", e.Kind, e.Field, e.Err)
}

func (e *CollectorError) Unwrap() error { return e.Err }

// CollectResult is the outcome of one collector. A failed collector has a
// non-nil Err and no documents; callers aggregate Documents either way.
type CollectResult struct {
	Kind      finance.Kind
	Field     string
	Documents []finance.Document
	Err       error
}

// Failed reports whether the collector degraded to an empty result
func (r CollectResult) Failed() bool {
	return r.Err != nil
}

type source struct {
	kind      finance.Kind
	path      string
	allStates bool
}

var (
	salesInvoices    = source{kind: finance.KindSalesInvoice, path: "/sales_invoices.json", allStates: true}
	purchaseInvoices = source{kind: finance.KindPurchaseInvoice, path: "/documents/purchase_invoices.json", allStates: true}
	receipts         = source{kind: finance.KindReceipt, path: "/documents/receipts.json"}
)

// CollectSalesInvoices fetches sales invoices dated within rng, in every state
func (c *Client) CollectSalesInvoices(ctx context.Context, cred Credential, rng finance.DateRange) CollectResult {
	return c.collectWithFallback(ctx, cred, salesInvoices, FieldInvoiceDate, rng)
}

// CollectPurchaseInvoices fetches purchase invoices dated within rng, in every state
func (c *Client) CollectPurchaseInvoices(ctx context.Context, cred Credential, rng finance.DateRange) CollectResult {
	return c.collectWithFallback(ctx, cred, purchaseInvoices, FieldDate, rng)
}

// CollectReceipts fetches receipts dated within rng. Both "date" and
// "receipt_date" exist across API versions; the second is tried whenever the
// first yields no documents, including when it failed outright.
func (c *Client) CollectReceipts(ctx context.Context, cred Credential, rng finance.DateRange) CollectResult {
	res := c.collectWithFallback(ctx, cred, receipts, FieldDate, rng)
	if len(res.Documents) > 0 {
		return res
	}

	alt := c.collect(ctx, cred, receipts, FieldReceiptDate, rng)
	if !alt.Failed() {
		return alt
	}
	if res.Failed() {
		c.log.Warn("receipt collectors degraded to empty result",
			zap.String("administration_id", cred.AdministrationID),
			zap.Error(alt.Err),
		)
		return res
	}
	c.log.Debug("receipt_date filter rejected, keeping empty date result",
		zap.String("administration_id", cred.AdministrationID),
		zap.Error(alt.Err),
	)
	return res
}

// collectWithFallback retries once with the period field when the API
// answers the primary field with a non-success status.
func (c *Client) collectWithFallback(ctx context.Context, cred Credential, src source, field string, rng finance.DateRange) CollectResult {
	res := c.collect(ctx, cred, src, field, rng)

	var statusErr *StatusError
	if res.Failed() && errors.As(res.Err, &statusErr) && field != FieldPeriod {
		c.log.Info("date filter rejected, retrying with period",
			zap.String("kind", string(src.kind)),
			zap.String("field", field),
			zap.Int("status", statusErr.StatusCode),
		)
		res = c.collect(ctx, cred, src, FieldPeriod, rng)
	}

	if res.Failed() {
		c.log.Warn("collector degraded to empty result",
			zap.String("kind", string(src.kind)),
			zap.String("administration_id", cred.AdministrationID),
			zap.Error(res.Err),
		)
	}
	return res
}

func (c *Client) collect(ctx context.Context, cred Credential, src source, field string, rng finance.DateRange) CollectResult {
	res := CollectResult{Kind: src.kind, Field: field}

	docs, err := c.fetchAll(ctx, cred, src, Filter(field, rng, src.allStates))
	if err != nil {
		res.Err = &CollectorError{Kind: src.kind, Field: field, Err: err}
		return res
	}
	res.Documents = docs
	return res
}

// fetchAll follows pages until a short page or the configured page cap
func (c *Client) fetchAll(ctx context.Context, cred Credential, src source, filter string) ([]finance.Document, error) {
	endpoint := "/" + url.PathEscape(cred.AdministrationID) + src.path

	var all []finance.Document
	for page := 1; ; page++ {
		body, err := c.get(ctx, cred.AccessToken, endpoint, pageQuery(filter, page, c.perPage))
		if err != nil {
			return nil, err
		}
		docs, err := finance.DecodeDocuments(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		all = append(all, docs...)
		if len(docs) < c.perPage {
			break
		}
		if page >= c.maxPages {
			c.log.Warn("page cap reached, remaining documents skipped",
				zap.String("kind", string(src.kind)),
				zap.Int("max_pages", c.maxPages),
				zap.Int("fetched", len(all)),
			)
			break
		}
	}
	if all == nil {
		all = []finance.Document{}
	}
	return all, nil
}

// Filter builds the server-side filter expression for a date field and range
func Filter(field string, rng finance.DateRange, allStates bool) string {
	f := fmt.Sprintf("%s:%s..%s", field, rng.From.Format(filterDayLayout), rng.To.Format(filterDayLayout))
	if allStates {
		f += ",state:all"
	}
	return f
}
