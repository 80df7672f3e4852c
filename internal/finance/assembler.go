package finance

import (
	"github.com/shopspring/decimal"
)

// MaxDetails caps the detail rows returned with a result
const MaxDetails = 50

// EstimatedVATRate is the flat rate used to estimate VAT when a document
// carries no incl. tax total. It is a display estimate only.
var EstimatedVATRate = decimal.RequireFromString("0.21")

// DetailRow is a display projection of one source document
type DetailRow struct {
	Date         string
	Type         string
	Description  string
	Counterparty string
	Ledger       string
	AmountExcl   decimal.Decimal
	VAT          decimal.Decimal
	AmountIncl   decimal.Decimal
	Status       string
	Link         string
}

// Result bundles the series with the detail rows
type Result struct {
	KPIs    KPIs
	Points  []DayBucket
	Details []DetailRow
}

// Assemble runs the aggregation and attaches the detail rows
func Assemble(sales, purchases, receipts []Document, rng DateRange, basis Basis) Result {
	series := Aggregate(sales, purchases, receipts, rng, basis)
	return Result{
		KPIs:    series.KPIs,
		Points:  series.Points,
		Details: BuildDetails(sales, purchases, receipts, MaxDetails),
	}
}

// BuildDetails maps sales, then purchases, then receipts to detail rows in
// input order and stops at limit. No other ordering is applied.
func BuildDetails(sales, purchases, receipts []Document, limit int) []DetailRow {
	if limit <= 0 {
		return []DetailRow{}
	}
	rows := make([]DetailRow, 0, min(limit, len(sales)+len(purchases)+len(receipts)))

	groups := []struct {
		kind Kind
		docs []Document
	}{
		{KindSalesInvoice, sales},
		{KindPurchaseInvoice, purchases},
		{KindReceipt, receipts},
	}
	for _, g := range groups {
		for _, doc := range g.docs {
			if len(rows) == limit {
				return rows
			}
			rows = append(rows, detailRow(doc, g.kind))
		}
	}
	return rows
}

func detailRow(doc Document, kind Kind) DetailRow {
	row := DetailRow{
		Type:         kind.Label(),
		Description:  firstString(doc.Reference, doc.InvoiceID, doc.Description),
		Counterparty: doc.Contact.Name(),
		Ledger:       kind.Ledger(),
		Status:       asString(doc.State),
		Link:         asString(doc.URL),
	}
	if row.Description == "" {
		row.Description = kind.Label()
	}
	if row.Counterparty == "" {
		row.Counterparty = "-"
	}
	if day, ok := doc.DayFor(kind); ok {
		row.Date = FormatDay(day)
	}

	excl := doc.TotalExcl()
	incl, ok := doc.TotalIncl()
	if !ok {
		incl = excl.Add(excl.Mul(EstimatedVATRate)).Round(2)
	}
	row.AmountExcl = excl
	row.AmountIncl = incl
	row.VAT = incl.Sub(excl)
	return row
}

func firstString(values ...any) string {
	for _, v := range values {
		if s := asString(v); s != "" {
			return s
		}
	}
	return ""
}
