// Package event defines the typed financial events produced by the
// voice/NLP parser and the classifier that builds them from raw records.
package event

import "time"

// Kind discriminates the FinancialEvent union.
type Kind string

const (
	KindTransaction      Kind = "transaction"
	KindAssetUpdate      Kind = "asset_update"
	KindCreditCardUpdate Kind = "credit_card_update"
	KindHoldingUpdate    Kind = "holding_update"
	KindBudget           Kind = "budget"
	KindQueryResponse    Kind = "query_response"
	KindNeedMoreInfo     Kind = "need_more_info"
	KindNullStatement    Kind = "null_statement"
)

// Direction is the money flow of a transaction.
type Direction string

const (
	DirectionExpense  Direction = "expense"
	DirectionIncome   Direction = "income"
	DirectionTransfer Direction = "transfer"
	DirectionPayment  Direction = "payment"
)

// AssetType classifies an asset or liability snapshot.
type AssetType string

const (
	AssetBank           AssetType = "bank"
	AssetInvestment     AssetType = "investment"
	AssetCash           AssetType = "cash"
	AssetCreditCard     AssetType = "credit_card"
	AssetDigitalWallet  AssetType = "digital_wallet"
	AssetLoan           AssetType = "loan"
	AssetMortgage       AssetType = "mortgage"
	AssetSavings        AssetType = "savings"
	AssetRetirement     AssetType = "retirement"
	AssetCrypto         AssetType = "crypto"
	AssetProperty       AssetType = "property"
	AssetVehicle        AssetType = "vehicle"
	AssetOther          AssetType = "other_asset"
	AssetOtherLiability AssetType = "other_liability"
)

// HoldingType classifies a tradable holding.
type HoldingType string

const (
	HoldingStock  HoldingType = "stock"
	HoldingETF    HoldingType = "etf"
	HoldingFund   HoldingType = "fund"
	HoldingBond   HoldingType = "bond"
	HoldingCrypto HoldingType = "crypto"
	HoldingOption HoldingType = "option"
	HoldingOther  HoldingType = "other"
)

// TradeAction is the side of a holding trade.
type TradeAction string

const (
	TradeBuy  TradeAction = "buy"
	TradeSell TradeAction = "sell"
)

// BudgetAction distinguishes budget creation from adjustment.
type BudgetAction string

const (
	BudgetCreate BudgetAction = "create"
	BudgetUpdate BudgetAction = "update"
)

// Transaction is a single spend/income/transfer extracted from an utterance.
type Transaction struct {
	Amount         float64
	Direction      Direction
	Category       string
	AccountName    string
	CardIdentifier string
	Description    string
	Date           time.Time
	Confidence     float64
}

// LoanTerms carries optional repayment terms for loan/mortgage assets.
type LoanTerms struct {
	TermMonths     int
	Rate           float64
	MonthlyPayment float64
	RepaymentDay   int
	AutoRepay      bool
	SourceAccount  string
}

// AssetUpdate is a snapshot of an asset or liability's current value.
type AssetUpdate struct {
	AssetType   AssetType
	Name        string
	Value       float64
	Currency    string
	Institution string
	Quantity    *float64
	APY         *float64
	MaturityDay *time.Time
	CostBasis   *float64
	Loan        *LoanTerms
}

// AutoRepayment configures automatic credit card repayment.
type AutoRepayment struct {
	Enabled       bool
	SourceAccount string
}

// CreditCardUpdate creates or updates a credit card.
type CreditCardUpdate struct {
	Name           string
	Balance        float64
	CreditLimit    float64
	RepaymentDay   int
	CardIdentifier string
	AutoRepay      *AutoRepayment
}

// HoldingUpdate is a buy or sell of a tradable holding.
type HoldingUpdate struct {
	Name        string
	HoldingType HoldingType
	Action      TradeAction
	Quantity    float64
	UnitPrice   float64
	Currency    string
	Market      string
	Ticker      string
	AccountName string
	Fee         *float64
	Note        string
	Date        time.Time
}

// Budget creates or updates a spending budget.
type Budget struct {
	Action       BudgetAction
	Name         string
	Category     string
	TargetAmount float64
	Currency     string
	TargetDate   *time.Time
	Priority     int
	Recurring    bool
}

// QueryResponse is an informational answer; it is never committed.
type QueryResponse struct {
	Answer string
}

// NeedMoreInfo asks the user for a follow-up; it is never committed.
type NeedMoreInfo struct {
	Prompt        string
	MissingFields []string
}

// FinancialEvent is a tagged union: exactly one payload pointer matching
// Kind is non-nil. Events are built by the Classifier and consumed once by
// the commit orchestrator.
type FinancialEvent struct {
	Kind        Kind
	Transaction *Transaction
	Asset       *AssetUpdate
	CreditCard  *CreditCardUpdate
	Holding     *HoldingUpdate
	Budget      *Budget
	Query       *QueryResponse
	NeedInfo    *NeedMoreInfo
}

// Committable reports whether the event participates in the commit pipeline.
// Query responses, follow-up prompts and null statements are returned to the
// caller for display instead.
func (e FinancialEvent) Committable() bool {
	switch e.Kind {
	case KindTransaction, KindAssetUpdate, KindCreditCardUpdate, KindHoldingUpdate, KindBudget:
		return true
	default:
		return false
	}
}
