package service

import (
	"context"
	"errors"
	"fmt"

	"bizledger/internal/finance"
	"bizledger/internal/model"
	"bizledger/internal/moneybird"
	"bizledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SourceName identifies where aggregated figures come from
const SourceName = "moneybird-live"

// --- DTOs ---

type AggregateRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Basis    string `json:"basis"`
	Grouping string `json:"grouping"`
	Bucket   string `json:"bucket"`
}

// --- Interfaces ---

// AdministrationLister resolves the administrations reachable with a token
type AdministrationLister interface {
	ListAdministrations(ctx context.Context, accessToken string) ([]moneybird.Administration, error)
}

// DocumentSource is the accounting API as seen by the finance service
type DocumentSource interface {
	AdministrationLister
	CollectSalesInvoices(ctx context.Context, cred moneybird.Credential, rng finance.DateRange) moneybird.CollectResult
	CollectPurchaseInvoices(ctx context.Context, cred moneybird.Credential, rng finance.DateRange) moneybird.CollectResult
	CollectReceipts(ctx context.Context, cred moneybird.Credential, rng finance.DateRange) moneybird.CollectResult
}

type FinanceService interface {
	Aggregate(ctx context.Context, userID string, req AggregateRequest) (*model.FinanceAggregateResponse, error)
}

type financeService struct {
	connections  repository.ConnectionRepository
	source       DocumentSource
	maxRangeDays int
	log          *zap.Logger
}

// NewFinanceService wires the aggregator. maxRangeDays caps the inclusive
// number of days one request may span; zero or less disables the cap.
func NewFinanceService(connections repository.ConnectionRepository, source DocumentSource, maxRangeDays int, log *zap.Logger) FinanceService {
	if log == nil {
		log = zap.NewNop()
	}
	return &financeService{
		connections:  connections,
		source:       source,
		maxRangeDays: maxRangeDays,
		log:          log.Named("finance"),
	}
}

// --- Implementation ---

// Aggregate validates the range, resolves the caller's credential, collects
// the three document kinds concurrently and returns the assembled series.
func (s *financeService) Aggregate(ctx context.Context, userID string, req AggregateRequest) (*model.FinanceAggregateResponse, error) {
	if req.From == "" || req.To == "" {
		return nil, fmt.Errorf("%w: from and to are required", ErrInvalidInput)
	}
	rng, err := finance.NewDateRange(req.From, req.To)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if s.maxRangeDays > 0 && rng.Days() > s.maxRangeDays {
		return nil, fmt.Errorf("%w: range spans %d days, at most %d allowed", ErrInvalidInput, rng.Days(), s.maxRangeDays)
	}
	basis := finance.ParseBasis(req.Basis)

	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	cred, err := s.credentialFor(ctx, uid)
	if err != nil {
		return nil, err
	}

	sales, purchases, receipts := s.collect(ctx, cred, rng)
	result := finance.Assemble(sales, purchases, receipts, rng, basis)

	return &model.FinanceAggregateResponse{
		Connected:        true,
		AdministrationID: cred.AdministrationID,
		Basis:            string(basis),
		Grouping:         req.Grouping,
		Bucket:           req.Bucket,
		KPIs:             toKPIs(result.KPIs),
		Points:           toPoints(result.Points),
		Details:          toDetails(result.Details),
		Source:           SourceName,
	}, nil
}

func (s *financeService) credentialFor(ctx context.Context, userID uuid.UUID) (moneybird.Credential, error) {
	conn, err := s.connections.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return moneybird.Credential{}, ErrNoCredential
	}
	if err != nil {
		return moneybird.Credential{}, fmt.Errorf("load connection: %w", err)
	}
	if conn.AccessToken == "" {
		return moneybird.Credential{}, ErrNoCredential
	}

	cred := moneybird.Credential{AccessToken: conn.AccessToken, AdministrationID: conn.AdministrationID}
	if cred.AdministrationID != "" {
		return cred, nil
	}

	admins, err := s.source.ListAdministrations(ctx, conn.AccessToken)
	if errors.Is(err, moneybird.ErrUnauthorized) {
		return moneybird.Credential{}, ErrNoAdministration
	}
	if err != nil {
		return moneybird.Credential{}, fmt.Errorf("list administrations: %w", err)
	}
	for _, a := range admins {
		if a.ID != "" {
			cred.AdministrationID = string(a.ID)
			return cred, nil
		}
	}
	return moneybird.Credential{}, ErrNoAdministration
}

// collect runs the three collectors concurrently. Collectors never return
// errors to the group; a failed source contributes an empty list.
func (s *financeService) collect(ctx context.Context, cred moneybird.Credential, rng finance.DateRange) (sales, purchases, receipts []finance.Document) {
	var results [3]moneybird.CollectResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		results[0] = s.source.CollectSalesInvoices(gctx, cred, rng)
		return nil
	})
	g.Go(func() error {
		results[1] = s.source.CollectPurchaseInvoices(gctx, cred, rng)
		return nil
	})
	g.Go(func() error {
		results[2] = s.source.CollectReceipts(gctx, cred, rng)
		return nil
	})
	_ = g.Wait()

	for _, r := range results {
		if r.Failed() {
			s.log.Warn("source unavailable, aggregating without it",
				zap.String("kind", string(r.Kind)),
				zap.String("administration_id", cred.AdministrationID),
				zap.Error(r.Err),
			)
		}
	}
	return documentsOf(results[0]), documentsOf(results[1]), documentsOf(results[2])
}

func documentsOf(r moneybird.CollectResult) []finance.Document {
	if r.Failed() || r.Documents == nil {
		return []finance.Document{}
	}
	return r.Documents
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// toKPIs rounds for transport. Profit is computed on the rendered floats so
// profitExcl == revenueExcl - costsExcl holds for the decoded JSON.
func toKPIs(k finance.KPIs) model.FinanceKPIs {
	revenue, costs := money(k.RevenueExcl), money(k.CostsExcl)
	return model.FinanceKPIs{
		RevenueExcl: revenue,
		CostsExcl:   costs,
		ProfitExcl:  revenue - costs,
		CashNet:     money(k.CashNet),
	}
}

// toPoints rounds each day first and accumulates the rendered values, so
// every cumulative figure is the running sum of the figures sent before it.
func toPoints(buckets []finance.DayBucket) []model.FinancePoint {
	points := make([]model.FinancePoint, 0, len(buckets))
	var cumRevenue, cumCosts float64
	for _, b := range buckets {
		revenue, costs := money(b.Revenue), money(b.Costs)
		cumRevenue += revenue
		cumCosts += costs
		points = append(points, model.FinancePoint{
			Date:       b.Key(),
			Revenue:    revenue,
			Costs:      costs,
			CumRevenue: cumRevenue,
			CumCosts:   cumCosts,
			CashNet:    money(b.CashNet),
		})
	}
	return points
}

func toDetails(rows []finance.DetailRow) []model.FinanceDetail {
	details := make([]model.FinanceDetail, 0, len(rows))
	for _, r := range rows {
		d := model.FinanceDetail{
			Date:         r.Date,
			Type:         r.Type,
			Description:  r.Description,
			Counterparty: r.Counterparty,
			Ledger:       r.Ledger,
			AmountExcl:   money(r.AmountExcl),
			VAT:          money(r.VAT),
			AmountIncl:   money(r.AmountIncl),
			Status:       r.Status,
		}
		if r.Link != "" {
			link := r.Link
			d.Link = &link
		}
		details = append(details, d)
	}
	return details
}
