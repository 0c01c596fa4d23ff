package ledgerstore

import "time"

// Account is a plain money account held in the remote store.
type Account struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Currency string  `json:"currencyCode"`
	Balance  float64 `json:"balance"`
}

// CreditCard is a credit card entity held in the remote store.
type CreditCard struct {
	ID           string  `json:"id"`
	Identifier   string  `json:"identifier"`
	Name         string  `json:"name"`
	Institution  string  `json:"institution"`
	Balance      float64 `json:"balance"`
	CreditLimit  float64 `json:"creditLimit"`
	RepaymentDay int     `json:"repaymentDueDay"`
}

// Holding is a tradable position inside an investment account.
type Holding struct {
	ID        string  `json:"id"`
	AccountID string  `json:"accountId"`
	Name      string  `json:"name"`
	Ticker    string  `json:"ticker"`
	Type      string  `json:"type"`
	Quantity  float64 `json:"quantity"`
	AvgCost   float64 `json:"avgCost"`
	Currency  string  `json:"currencyCode"`
}

// Asset is the store's view of an asset/liability snapshot.
type Asset struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Value       float64 `json:"value"`
	Currency    string  `json:"currencyCode"`
	Institution string  `json:"institution"`
}

// Budget is a committed spending budget.
type Budget struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	TargetAmount float64 `json:"targetAmount"`
	Currency     string  `json:"currencyCode"`
}

// Record is a committed transaction record.
type Record struct {
	ID          string    `json:"id"`
	AccountID   *string   `json:"accountId"`
	Amount      float64   `json:"amount"`
	Direction   string    `json:"direction"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// AssetSpec creates or refreshes an asset.
type AssetSpec struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Value       float64  `json:"value"`
	Currency    string   `json:"currencyCode"`
	Institution string   `json:"institution,omitempty"`
	Quantity    *float64 `json:"quantity,omitempty"`
	APY         *float64 `json:"apy,omitempty"`
	CostBasis   *float64 `json:"costBasis,omitempty"`
	Loan        *LoanSpec `json:"loan,omitempty"`
}

// LoanSpec carries repayment terms on loan/mortgage assets.
type LoanSpec struct {
	TermMonths     int     `json:"termMonths"`
	Rate           float64 `json:"rate"`
	MonthlyPayment float64 `json:"monthlyPayment"`
	RepaymentDay   int     `json:"repaymentDay"`
	AutoRepay      bool    `json:"autoRepay"`
	SourceAccount  string  `json:"sourceAccount,omitempty"`
}

// CreditCardSpec creates a card or, when Identifier matches an existing one,
// updates it in place.
type CreditCardSpec struct {
	Identifier    string  `json:"identifier,omitempty"`
	Name          string  `json:"name"`
	Balance       float64 `json:"balance"`
	CreditLimit   float64 `json:"creditLimit"`
	RepaymentDay  int     `json:"repaymentDueDay"`
	AutoRepay     bool    `json:"autoRepay"`
	SourceAccount string  `json:"sourceAccount,omitempty"`
}

// BudgetSpec creates or updates a budget.
type BudgetSpec struct {
	Action       string     `json:"action"`
	Name         string     `json:"name"`
	Category     string     `json:"category,omitempty"`
	TargetAmount float64    `json:"targetAmount"`
	Currency     string     `json:"currencyCode"`
	TargetDate   *time.Time `json:"targetDate,omitempty"`
	Priority     int        `json:"priority,omitempty"`
	Recurring    bool       `json:"recurring"`
}

// TradeSpec is a buy or sell against an existing holding.
type TradeSpec struct {
	Quantity  float64   `json:"quantity"`
	UnitPrice float64   `json:"unitPrice"`
	Fee       *float64  `json:"fee,omitempty"`
	Date      time.Time `json:"date"`
	Note      string    `json:"note,omitempty"`
}

// NewHoldingSpec opens a position on first buy.
type NewHoldingSpec struct {
	AccountID string `json:"accountId,omitempty"`
	Name      string `json:"name"`
	Ticker    string `json:"ticker,omitempty"`
	Type      string `json:"type"`
	Currency  string `json:"currencyCode"`
	Market    string `json:"market,omitempty"`
	Trade     TradeSpec `json:"trade"`
}

// TransactionSpec creates a plain transaction record. AccountID may be nil:
// an unresolved account reference is a valid terminal state.
type TransactionSpec struct {
	AccountID   *string   `json:"accountId"`
	Amount      float64   `json:"amount"`
	Direction   string    `json:"direction"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
	Currency    string    `json:"currencyCode,omitempty"`
}

// CardTransactionSpec routes a transaction onto a credit card.
type CardTransactionSpec struct {
	CardID      string    `json:"cardId"`
	Amount      float64   `json:"amount"`
	Direction   string    `json:"direction"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
}
