package ledgerstore

import "context"

// Store is the remote persistence surface the commit pipeline depends on.
// One call per committed event; reads (lists, recommendation) carry no
// side effects.
type Store interface {
	ListAccounts(ctx context.Context) ([]Account, error)
	ListCards(ctx context.Context) ([]CreditCard, error)
	ListHoldings(ctx context.Context, accountID string) ([]Holding, error)
	GetRecommendedCreditCard(ctx context.Context, institution string) (*CreditCard, error)

	CreateAsset(ctx context.Context, spec AssetSpec) (*Asset, error)
	CreateOrUpdateCreditCard(ctx context.Context, spec CreditCardSpec) (*CreditCard, error)
	CreateBudget(ctx context.Context, spec BudgetSpec) (*Budget, error)
	BuyNewHolding(ctx context.Context, spec NewHoldingSpec) (*Holding, error)
	Buy(ctx context.Context, holdingID string, spec TradeSpec) (*Holding, error)
	Sell(ctx context.Context, holdingID string, spec TradeSpec) (*Holding, error)
	CreateTransaction(ctx context.Context, spec TransactionSpec) (*Record, error)
	CreateCreditCardTransaction(ctx context.Context, spec CardTransactionSpec) (*Record, error)
}
