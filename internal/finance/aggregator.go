package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// KPIs are the range totals. ProfitExcl is derived once from the other two.
type KPIs struct {
	RevenueExcl decimal.Decimal
	CostsExcl   decimal.Decimal
	ProfitExcl  decimal.Decimal
	CashNet     decimal.Decimal
}

// DayBucket is one calendar day of the aggregated series
type DayBucket struct {
	Date       time.Time
	Revenue    decimal.Decimal
	Costs      decimal.Decimal
	CumRevenue decimal.Decimal
	CumCosts   decimal.Decimal
	CashNet    decimal.Decimal
}

// Key is the formatted calendar day identifying the bucket
func (b DayBucket) Key() string {
	return FormatDay(b.Date)
}

// Series is the output of Aggregate
type Series struct {
	KPIs   KPIs
	Points []DayBucket
}

type aggregator struct {
	rng     DateRange
	basis   Basis
	buckets []DayBucket
	kpis    KPIs
}

// Aggregate attributes every document to a day of rng under basis and
// returns the zero-filled daily series with running totals.
func Aggregate(sales, purchases, receipts []Document, rng DateRange, basis Basis) Series {
	a := newAggregator(rng, basis)

	for _, doc := range sales {
		a.addInvoice(doc, KindSalesInvoice)
	}
	for _, doc := range purchases {
		a.addInvoice(doc, KindPurchaseInvoice)
	}
	for _, doc := range receipts {
		a.addReceipt(doc)
	}

	a.accumulate()
	a.kpis.ProfitExcl = a.kpis.RevenueExcl.Sub(a.kpis.CostsExcl)

	return Series{KPIs: a.kpis, Points: a.buckets}
}

func newAggregator(rng DateRange, basis Basis) *aggregator {
	n := rng.Days()
	buckets := make([]DayBucket, n)
	for i := range buckets {
		buckets[i] = DayBucket{
			Date:       rng.Day(i),
			Revenue:    decimal.Zero,
			Costs:      decimal.Zero,
			CumRevenue: decimal.Zero,
			CumCosts:   decimal.Zero,
			CashNet:    decimal.Zero,
		}
	}
	return &aggregator{
		rng:     rng,
		basis:   basis,
		buckets: buckets,
		kpis: KPIs{
			RevenueExcl: decimal.Zero,
			CostsExcl:   decimal.Zero,
			ProfitExcl:  decimal.Zero,
			CashNet:     decimal.Zero,
		},
	}
}

func (a *aggregator) addInvoice(doc Document, kind Kind) {
	if a.basis == BasisCash {
		// Cash basis is strictly payment-driven; unpaid invoices add nothing.
		for _, p := range doc.Payments {
			day, ok := p.Day()
			if !ok {
				continue
			}
			a.book(kind, day, p.Value(), true)
		}
		return
	}

	day, ok := doc.DayFor(kind)
	if !ok {
		return
	}
	a.book(kind, day, doc.TotalExcl(), false)
}

// addReceipt books a receipt as a cost on its document date. Receipts carry
// no payment records, so on cash basis they are treated as paid that day.
func (a *aggregator) addReceipt(doc Document) {
	day, ok := doc.DayFor(KindReceipt)
	if !ok {
		return
	}
	a.book(KindReceipt, day, doc.TotalExcl(), a.basis == BasisCash)
}

func (a *aggregator) book(kind Kind, day time.Time, amount decimal.Decimal, moveCash bool) {
	i, ok := a.rng.Offset(day)
	if !ok {
		return
	}
	b := &a.buckets[i]

	if kind == KindSalesInvoice {
		b.Revenue = b.Revenue.Add(amount)
		a.kpis.RevenueExcl = a.kpis.RevenueExcl.Add(amount)
		if moveCash {
			b.CashNet = b.CashNet.Add(amount)
			a.kpis.CashNet = a.kpis.CashNet.Add(amount)
		}
		return
	}

	b.Costs = b.Costs.Add(amount)
	a.kpis.CostsExcl = a.kpis.CostsExcl.Add(amount)
	if moveCash {
		b.CashNet = b.CashNet.Sub(amount)
		a.kpis.CashNet = a.kpis.CashNet.Sub(amount)
	}
}

func (a *aggregator) accumulate() {
	revenue, costs := decimal.Zero, decimal.Zero
	for i := range a.buckets {
		revenue = revenue.Add(a.buckets[i].Revenue)
		costs = costs.Add(a.buckets[i].Costs)
		a.buckets[i].CumRevenue = revenue
		a.buckets[i].CumCosts = costs
	}
}
