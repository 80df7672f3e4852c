package model

// FinanceKPIs are the range totals of an aggregation
type FinanceKPIs struct {
	RevenueExcl float64 `json:"revenueExcl"`
	CostsExcl   float64 `json:"costsExcl"`
	ProfitExcl  float64 `json:"profitExcl"`
	CashNet     float64 `json:"cashNet"`
}

// FinancePoint is one day of the aggregated series
type FinancePoint struct {
	Date       string  `json:"date"`
	Revenue    float64 `json:"revenue"`
	Costs      float64 `json:"costs"`
	CumRevenue float64 `json:"cumRevenue"`
	CumCosts   float64 `json:"cumCosts"`
	CashNet    float64 `json:"cashNet"`
}

// FinanceDetail is one source document rendered for display
type FinanceDetail struct {
	Date         string  `json:"date"`
	Type         string  `json:"type"`
	Description  string  `json:"description"`
	Counterparty string  `json:"counterparty"`
	Ledger       string  `json:"ledger"`
	AmountExcl   float64 `json:"amountExcl"`
	VAT          float64 `json:"vat"`
	AmountIncl   float64 `json:"amountIncl"`
	Status       string  `json:"status"`
	Link         *string `json:"link"`
}

// FinanceAggregateResponse is the body returned for a connected tenant
type FinanceAggregateResponse struct {
	Connected        bool            `json:"connected"`
	AdministrationID string          `json:"administrationId"`
	Basis            string          `json:"basis"`
	Grouping         string          `json:"grouping"`
	Bucket           string          `json:"bucket"`
	KPIs             FinanceKPIs     `json:"kpis"`
	Points           []FinancePoint  `json:"points"`
	Details          []FinanceDetail `json:"details"`
	Source           string          `json:"source"`
}

// NotConnectedResponse tells the dashboard the tenant has no usable credential
type NotConnectedResponse struct {
	Connected bool   `json:"connected"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`
}
