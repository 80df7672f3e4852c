package finance

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies the accounting document collection a document came from
type Kind string

const (
	KindSalesInvoice    Kind = "sales_invoice"
	KindPurchaseInvoice Kind = "purchase_invoice"
	KindReceipt         Kind = "receipt"
)

// Label is the human-readable name shown in detail rows
func (k Kind) Label() string {
	switch k {
	case KindSalesInvoice:
		return "Sales invoice"
	case KindPurchaseInvoice:
		return "Purchase invoice"
	case KindReceipt:
		return "Receipt"
	default:
		return "Document"
	}
}

// Ledger is the side of the books the kind lands on
func (k Kind) Ledger() string {
	if k == KindSalesInvoice {
		return "revenue"
	}
	return "costs"
}

// Document is a loosely typed accounting document as returned by the API.
// Scalars stay untyped and go through ParseAmount / ParseDay, since any of
// them may be missing, a number or a string depending on kind and API version.
type Document struct {
	ID                    any      `json:"id"`
	InvoiceID             any      `json:"invoice_id"`
	Reference             any      `json:"reference"`
	Description           any      `json:"description"`
	InvoiceDate           any      `json:"invoice_date"`
	Date                  any      `json:"date"`
	ReceiptDate           any      `json:"receipt_date"`
	TotalPriceExclTax     any      `json:"total_price_excl_tax"`
	TotalPriceExclTaxBase any      `json:"total_price_excl_tax_base"`
	TotalPriceInclTax     any      `json:"total_price_incl_tax"`
	TotalPriceInclTaxBase any      `json:"total_price_incl_tax_base"`
	State                 any      `json:"state"`
	URL                   any      `json:"url"`
	Contact               *Contact `json:"contact"`
	Payments              Payments `json:"payments"`
}

// Contact is the counterparty embedded in a document
type Contact struct {
	CompanyName any `json:"company_name"`
	Firstname   any `json:"firstname"`
	Lastname    any `json:"lastname"`
}

// UnmarshalJSON accepts an object, a bare name string, or anything else as empty
func (c *Contact) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || data[0] == 'n':
		return nil
	case data[0] == '"':
		var name string
		if err := json.Unmarshal(data, &name); err == nil {
			c.CompanyName = name
		}
		return nil
	case data[0] != '{':
		return nil
	}
	type plain Contact
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return nil
	}
	*c = Contact(p)
	return nil
}

// Name returns the company name, falling back to first and last name
func (c *Contact) Name() string {
	if c == nil {
		return ""
	}
	if name := asString(c.CompanyName); name != "" {
		return name
	}
	return strings.TrimSpace(asString(c.Firstname) + " " + asString(c.Lastname))
}

// Payment is one partial or full settlement of an invoice
type Payment struct {
	PaymentDate any `json:"payment_date"`
	Price       any `json:"price"`
	PriceBase   any `json:"price_base"`
	Amount      any `json:"amount"`
}

// Day returns the settlement day, false when missing or unparsable
func (p Payment) Day() (time.Time, bool) {
	return ParseDay(p.PaymentDate)
}

// Value returns the settled amount, whichever field carries it
func (p Payment) Value() decimal.Decimal {
	return firstAmount(p.Price, p.Amount, p.PriceBase)
}

// Payments tolerates a non-array payload by decoding it as no payments
type Payments []Payment

func (ps *Payments) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		*ps = nil
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*ps = nil
		return nil
	}
	out := make(Payments, 0, len(raw))
	for _, item := range raw {
		var p Payment
		if err := decodeNumbers(item, &p); err != nil {
			continue
		}
		out = append(out, p)
	}
	*ps = out
	return nil
}

// DayFor returns the date that attributes the document on an accrual basis
func (d Document) DayFor(kind Kind) (time.Time, bool) {
	var candidates []any
	switch kind {
	case KindSalesInvoice:
		candidates = []any{d.InvoiceDate, d.Date}
	case KindPurchaseInvoice:
		candidates = []any{d.Date, d.InvoiceDate}
	default:
		candidates = []any{d.Date, d.ReceiptDate}
	}
	for _, c := range candidates {
		if t, ok := ParseDay(c); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// TotalExcl returns the excl. tax total, zero when absent
func (d Document) TotalExcl() decimal.Decimal {
	return firstAmount(d.TotalPriceExclTax, d.TotalPriceExclTaxBase)
}

// TotalIncl returns the incl. tax total and whether the API supplied one
func (d Document) TotalIncl() (decimal.Decimal, bool) {
	for _, v := range []any{d.TotalPriceInclTax, d.TotalPriceInclTaxBase} {
		if present(v) {
			return ParseAmount(v), true
		}
	}
	return decimal.Zero, false
}

func firstAmount(values ...any) decimal.Decimal {
	for _, v := range values {
		if present(v) {
			return ParseAmount(v)
		}
	}
	return decimal.Zero
}

// present reports whether an API field carries a value at all
func present(v any) bool {
	switch s := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(s) != ""
	default:
		return true
	}
}

// DecodeDocuments decodes a JSON array of documents, keeping numbers as json.Number
func DecodeDocuments(data []byte) ([]Document, error) {
	var docs []Document
	if err := decodeNumbers(data, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func decodeNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
