package moneybird

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"bizledger/internal/config"
	"bizledger/internal/finance"
)

type recordedRequest struct {
	Path   string
	Filter string
	Page   string
	Auth   string
}

// fakeAPI serves canned responses keyed by path and the field in the filter
type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(path, field, page string) (int, string)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")
	page := r.URL.Query().Get("page")

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Path:   r.URL.Path,
		Filter: filter,
		Page:   page,
		Auth:   r.Header.Get("Authorization"),
	})
	f.mu.Unlock()

	field, _, _ := strings.Cut(filter, ":")
	status, body := f.handler(r.URL.Path, field, page)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (f *fakeAPI) fields() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.requests {
		field, _, _ := strings.Cut(r.Filter, ":")
		out = append(out, field)
	}
	return out
}

func newTestClient(t *testing.T, api *fakeAPI, perPage, maxPages int) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return NewClient(config.MoneybirdConfig{
		BaseURL:  srv.URL,
		Timeout:  5 * time.Second,
		PerPage:  perPage,
		MaxPages: maxPages,
	}, zap.NewNop())
}

func testRange(t *testing.T) finance.DateRange {
	t.Helper()
	rng, err := finance.NewDateRange("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	return rng
}

var testCred = Credential{AccessToken: "tok", AdministrationID: "123"}

func TestFilter(t *testing.T) {
	rng := testRange(t)
	assert.Equal(t, "invoice_date:20240101..20240131,state:all", Filter(FieldInvoiceDate, rng, true))
	assert.Equal(t, "date:20240101..20240131", Filter(FieldDate, rng, false))
}

func TestCollectSalesInvoices(t *testing.T) {
	t.Run("primary field succeeds", func(t *testing.T) {
		api := &fakeAPI{handler: func(path, field, page string) (int, string) {
			return http.StatusOK, `[{"invoice_date":"2024-01-02","total_price_excl_tax":"1000.0"}]`
		}}
		c := newTestClient(t, api, 100, 5)

		res := c.CollectSalesInvoices(context.Background(), testCred, testRange(t))

		require.False(t, res.Failed())
		require.Len(t, res.Documents, 1)
		assert.Equal(t, FieldInvoiceDate, res.Field)
		assert.Equal(t, finance.KindSalesInvoice, res.Kind)

		require.Len(t, api.requests, 1)
		assert.Equal(t, "/123/sales_invoices.json", api.requests[0].Path)
		assert.Equal(t, "invoice_date:20240101..20240131,state:all", api.requests[0].Filter)
		assert.Equal(t, "Bearer tok", api.requests[0].Auth)
	})

	t.Run("rejected field retries with period once", func(t *testing.T) {
		api := &fakeAPI{handler: func(path, field, page string) (int, string) {
			if field == FieldInvoiceDate {
				return http.StatusBadRequest, `{"error":"unknown filter"}`
			}
			return http.StatusOK, `[{"invoice_date":"2024-01-02"},{"invoice_date":"2024-01-03"}]`
		}}
		c := newTestClient(t, api, 100, 5)

		res := c.CollectSalesInvoices(context.Background(), testCred, testRange(t))

		require.False(t, res.Failed())
		assert.Len(t, res.Documents, 2)
		assert.Equal(t, FieldPeriod, res.Field)
		assert.Equal(t, []string{FieldInvoiceDate, FieldPeriod}, api.fields())
	})

	t.Run("both fields rejected degrades to empty", func(t *testing.T) {
		api := &fakeAPI{handler: func(path, field, page string) (int, string) {
			return http.StatusInternalServerError, `oops`
		}}
		c := newTestClient(t, api, 100, 5)

		res := c.CollectSalesInvoices(context.Background(), testCred, testRange(t))

		assert.True(t, res.Failed())
		assert.Empty(t, res.Documents)
		assert.Len(t, api.requests, 2)

		var cerr *CollectorError
		require.True(t, errors.As(res.Err, &cerr))
		assert.Equal(t, FieldPeriod, cerr.Field)
		assert.ErrorIs(t, res.Err, ErrUnexpectedStatus)
	})

	t.Run("malformed body is not retried", func(t *testing.T) {
		api := &fakeAPI{handler: func(path, field, page string) (int, string) {
			return http.StatusOK, `{"not":"an array"}`
		}}
		c := newTestClient(t, api, 100, 5)

		res := c.CollectSalesInvoices(context.Background(), testCred, testRange(t))

		assert.True(t, res.Failed())
		assert.ErrorIs(t, res.Err, ErrMalformedResponse)
		assert.Len(t, api.requests, 1)
	})

	t.Run("unauthorized maps to ErrUnauthorized", func(t *testing.T) {
		api := &fakeAPI{handler: func(path, field, page string) (int, string) {
			return http.StatusUnauthorized, `{"error":"token"}`
		}}
		c := newTestClient(t, api, 100, 5)

		res := c.CollectSalesInvoices(context.Background(), testCred, testRange(t))
		assert.ErrorIs(t, res.Err, ErrUnauthorized)
	})
}

func TestCollectPurchaseInvoices_Pagination(t *testing.T) {
	api := &fakeAPI{handler: func(path, field, page string) (int, string) {
		switch page {
		case "1":
			return http.StatusOK, `[{"date":"2024-01-01"},{"date":"2024-01-02"}]`
		case "2":
			return http.StatusOK, `[{"date":"2024-01-03"},{"date":"2024-01-04"}]`
		default:
			return http.StatusOK, `[{"date":"2024-01-05"}]`
		}
	}}
	c := newTestClient(t, api, 2, 10)

	res := c.CollectPurchaseInvoices(context.Background(), testCred, testRange(t))

	require.False(t, res.Failed())
	assert.Len(t, res.Documents, 5)
	require.Len(t, api.requests, 3)
	assert.Equal(t, "/123/documents/purchase_invoices.json", api.requests[0].Path)
	assert.Equal(t, "date:20240101..20240131,state:all", api.requests[0].Filter)
}

func TestCollectPurchaseInvoices_PageCap(t *testing.T) {
	api := &fakeAPI{handler: func(path, field, page string) (int, string) {
		return http.StatusOK, `[{"date":"2024-01-01"},{"date":"2024-01-02"}]`
	}}
	c := newTestClient(t, api, 2, 3)

	res := c.CollectPurchaseInvoices(context.Background(), testCred, testRange(t))

	require.False(t, res.Failed())
	assert.Len(t, res.Documents, 6)
	assert.Len(t, api.requests, 3)
}

func TestCollectPurchaseInvoices_PageCapLogsTruncation(t *testing.T) {
	api := &fakeAPI{handler: func(path, field, page string) (int, string) {
		return http.StatusOK, `[{"date":"2024-01-01"},{"date":"2024-01-02"}]`
	}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	core, logs := observer.New(zapcore.WarnLevel)
	c := NewClient(config.MoneybirdConfig{BaseURL: srv.URL, Timeout: 5 * time.Second, PerPage: 2, MaxPages: 2}, zap.New(core))

	res := c.CollectPurchaseInvoices(context.Background(), testCred, testRange(t))

	require.False(t, res.Failed())
	assert.Len(t, res.Documents, 4)
	capped := logs.FilterMessage("page cap reached, remaining documents skipped").All()
	require.Len(t, capped, 1)
	assert.Equal(t, string(finance.KindPurchaseInvoice), capped[0].ContextMap()["kind"])
	assert.Equal(t, int64(2), capped[0].ContextMap()["max_pages"])
}

func TestCollectPurchaseInvoices_ShortLastPageDoesNotWarn(t *testing.T) {
	api := &fakeAPI{handler: func(path, field, page string) (int, string) {
		if page == "2" {
			return http.StatusOK, `[{"date":"2024-01-03"}]`
		}
		return http.StatusOK, `[{"date":"2024-01-01"},{"date":"2024-01-02"}]`
	}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	core, logs := observer.New(zapcore.WarnLevel)
	c := NewClient(config.MoneybirdConfig{BaseURL: srv.URL, Timeout: 5 * time.Second, PerPage: 2, MaxPages: 2}, zap.New(core))

	res := c.CollectPurchaseInvoices(context.Background(), testCred, testRange(t))

	require.False(t, res.Failed())
	assert.Len(t, res.Documents, 3)
	assert.Zero(t, logs.Len())
}

func TestCollectReceipts(t *testing.T) {
	t.Run("date field has results", func(t *testing.T) {
		api := &fakeAPI{handler: func(path, field, page string) (int, string) {
			return http.StatusOK, `[{"date":"2024-01-01","total_price_excl_tax":"50"}]`
		}}
		c := newTestClient(t, api, 100, 5)

		res := c.CollectReceipts(context.Background(), testCred, testRange(t))

		require.False(t, res.Failed())
		assert.Len(t, res.Documents, 1)
		assert.Equal(t, []string{FieldDate}, api.fields())
		assert.Equal(t, "date:20240101..20240131", api.requests[0].Filter)
	})

	t.Run("empty date result falls through to receipt_date", func(t *testing.T) {
		api := &fakeAPI{handler: func(path, field, page string) (int, string) {
			if field == FieldReceiptDate {
				return http.StatusOK, `[{"receipt_date":"2024-01-04"}]`
			}
			return http.StatusOK, `[]`
		}}
		c := newTestClient(t, api, 100, 5)

		res := c.CollectReceipts(context.Background(), testCred, testRange(t))

		require.False(t, res.Failed())
		assert.Len(t, res.Documents, 1)
		assert.Equal(t, FieldReceiptDate, res.Field)
		assert.Equal(t, []string{FieldDate, FieldReceiptDate}, api.fields())
	})

	t.Run("rejected receipt_date keeps empty result", func(t *testing.T) {
		api := &fakeAPI{handler: func(path, field, page string) (int, string) {
			if field == FieldReceiptDate {
				return http.StatusBadRequest, `bad`
			}
			return http.StatusOK, `[]`
		}}
		c := newTestClient(t, api, 100, 5)

		res := c.CollectReceipts(context.Background(), testCred, testRange(t))

		assert.False(t, res.Failed())
		assert.Empty(t, res.Documents)
	})

	t.Run("rejected date and period fall through to receipt_date", func(t *testing.T) {
		api := &fakeAPI{handler: func(path, field, page string) (int, string) {
			if field == FieldReceiptDate {
				return http.StatusOK, `[{"receipt_date":"2024-01-04","total_price_excl_tax":"12.50"}]`
			}
			return http.StatusBadRequest, `unknown filter`
		}}
		c := newTestClient(t, api, 100, 5)

		res := c.CollectReceipts(context.Background(), testCred, testRange(t))

		require.False(t, res.Failed())
		assert.Len(t, res.Documents, 1)
		assert.Equal(t, FieldReceiptDate, res.Field)
		assert.Equal(t, []string{FieldDate, FieldPeriod, FieldReceiptDate}, api.fields())
	})

	t.Run("every field failing keeps the typed error", func(t *testing.T) {
		api := &fakeAPI{handler: func(path, field, page string) (int, string) {
			return http.StatusBadGateway, `down`
		}}
		c := newTestClient(t, api, 100, 5)

		res := c.CollectReceipts(context.Background(), testCred, testRange(t))

		assert.True(t, res.Failed())
		assert.Empty(t, res.Documents)
		var collectorErr *CollectorError
		require.True(t, errors.As(res.Err, &collectorErr))
		assert.Equal(t, finance.KindReceipt, collectorErr.Kind)
		assert.Equal(t, []string{FieldDate, FieldPeriod, FieldReceiptDate}, api.fields())
	})
}

func TestListAdministrations(t *testing.T) {
	api := &fakeAPI{handler: func(path, field, page string) (int, string) {
		if path != "/administrations.json" {
			return http.StatusNotFound, ``
		}
		return http.StatusOK, `[{"id":"4551","name":"Acme"},{"id":4552,"name":"Other"}]`
	}}
	c := newTestClient(t, api, 100, 5)

	admins, err := c.ListAdministrations(context.Background(), "tok")

	require.NoError(t, err)
	require.Len(t, admins, 2)
	assert.Equal(t, ID("4551"), admins[0].ID)
	assert.Equal(t, ID("4552"), admins[1].ID)
	assert.Equal(t, "Acme", admins[0].Name)
}

func TestListAdministrations_Errors(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   error
	}{
		{http.StatusUnauthorized, `{}`, ErrUnauthorized},
		{http.StatusServiceUnavailable, `{}`, ErrUnexpectedStatus},
		{http.StatusOK, `{"id":1}`, ErrMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			api := &fakeAPI{handler: func(path, field, page string) (int, string) {
				return tt.status, tt.body
			}}
			c := newTestClient(t, api, 100, 5)

			_, err := c.ListAdministrations(context.Background(), "tok")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
