// Package ledgerstore is the HTTP client for the remote persistence API.
// Every commit in the pipeline maps to exactly one call here; the store
// offers no cross-call transaction guarantees.
package ledgerstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTimeout = 30 * time.Second

var storeTracer = otel.Tracer("moneyvoice.ledgerstore")

// StoreError is a structured rejection from the store (validation, conflict,
// authorization). Transport-level failures are returned as wrapped plain
// errors instead.
type StoreError struct {
	Status  int
	Code    string
	Message string
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store rejected request (status %d): %s - %s", e.Status, e.Code, e.Message)
}

// Client talks to the remote ledger store.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

var _ Store = (*Client)(nil)

// NewClient creates a store client. apiKey is sent as a Bearer token.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// do executes one API call: marshals body (if any), sends the request,
// unwraps the {success, data, error, message} envelope and decodes data
// into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ctx, span := storeTracer.Start(ctx, "store."+method, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("store.path", path),
	))
	defer span.End()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var env envelope
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		if err := json.Unmarshal(raw, &env); err != nil {
			return &StoreError{Status: resp.StatusCode, Message: string(raw)}
		}
		storeErr := &StoreError{Status: resp.StatusCode, Code: env.Error, Message: env.Message}
		span.RecordError(storeErr)
		span.SetStatus(codes.Error, storeErr.Error())
		return storeErr
	}

	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if !env.Success {
		return &StoreError{Status: resp.StatusCode, Code: env.Error, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to unmarshal response data: %w", err)
		}
	}
	return nil
}

// ListAccounts fetches the authoritative account list. Used both for the
// initial account map and for the Phase-1 to Phase-2 refresh.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	if err := c.do(ctx, http.MethodGet, "/accounts", nil, &accounts); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// ListCards fetches all credit cards.
func (c *Client) ListCards(ctx context.Context) ([]CreditCard, error) {
	var cards []CreditCard
	if err := c.do(ctx, http.MethodGet, "/credit-cards", nil, &cards); err != nil {
		return nil, fmt.Errorf("failed to list credit cards: %w", err)
	}
	return cards, nil
}

// ListHoldings fetches the holdings of one account. An empty accountID
// returns the unassigned default portfolio.
func (c *Client) ListHoldings(ctx context.Context, accountID string) ([]Holding, error) {
	var holdings []Holding
	path := "/holdings"
	if accountID != "" {
		path = "/accounts/" + url.PathEscape(accountID) + "/holdings"
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &holdings); err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	return holdings, nil
}

// GetRecommendedCreditCard asks the store for its best card match for an
// institution name. Returns (nil, nil) when the store has no recommendation.
func (c *Client) GetRecommendedCreditCard(ctx context.Context, institution string) (*CreditCard, error) {
	var card CreditCard
	path := "/credit-cards/recommendation?institution=" + url.QueryEscape(institution)
	if err := c.do(ctx, http.MethodGet, path, nil, &card); err != nil {
		return nil, fmt.Errorf("failed to get card recommendation: %w", err)
	}
	if card.ID == "" {
		return nil, nil
	}
	return &card, nil
}

// CreateAsset commits an asset snapshot.
func (c *Client) CreateAsset(ctx context.Context, spec AssetSpec) (*Asset, error) {
	var asset Asset
	if err := c.do(ctx, http.MethodPost, "/assets", spec, &asset); err != nil {
		return nil, fmt.Errorf("failed to create asset: %w", err)
	}
	return &asset, nil
}

// CreateOrUpdateCreditCard commits a credit card; the store takes the update
// path when spec.Identifier matches an existing card.
func (c *Client) CreateOrUpdateCreditCard(ctx context.Context, spec CreditCardSpec) (*CreditCard, error) {
	var card CreditCard
	if err := c.do(ctx, http.MethodPut, "/credit-cards", spec, &card); err != nil {
		return nil, fmt.Errorf("failed to create/update credit card: %w", err)
	}
	return &card, nil
}

// CreateBudget commits a budget.
func (c *Client) CreateBudget(ctx context.Context, spec BudgetSpec) (*Budget, error) {
	var budget Budget
	if err := c.do(ctx, http.MethodPost, "/budgets", spec, &budget); err != nil {
		return nil, fmt.Errorf("failed to create budget: %w", err)
	}
	return &budget, nil
}

// BuyNewHolding opens a new position on first buy.
func (c *Client) BuyNewHolding(ctx context.Context, spec NewHoldingSpec) (*Holding, error) {
	var holding Holding
	if err := c.do(ctx, http.MethodPost, "/holdings", spec, &holding); err != nil {
		return nil, fmt.Errorf("failed to buy new holding: %w", err)
	}
	return &holding, nil
}

// Buy adds to an existing holding.
func (c *Client) Buy(ctx context.Context, holdingID string, spec TradeSpec) (*Holding, error) {
	var holding Holding
	path := "/holdings/" + url.PathEscape(holdingID) + "/buy"
	if err := c.do(ctx, http.MethodPost, path, spec, &holding); err != nil {
		return nil, fmt.Errorf("failed to buy holding: %w", err)
	}
	return &holding, nil
}

// Sell reduces an existing holding.
func (c *Client) Sell(ctx context.Context, holdingID string, spec TradeSpec) (*Holding, error) {
	var holding Holding
	path := "/holdings/" + url.PathEscape(holdingID) + "/sell"
	if err := c.do(ctx, http.MethodPost, path, spec, &holding); err != nil {
		return nil, fmt.Errorf("failed to sell holding: %w", err)
	}
	return &holding, nil
}

// CreateTransaction commits a plain transaction record.
func (c *Client) CreateTransaction(ctx context.Context, spec TransactionSpec) (*Record, error) {
	var record Record
	if err := c.do(ctx, http.MethodPost, "/records", spec, &record); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return &record, nil
}

// CreateCreditCardTransaction commits a transaction routed onto a card.
func (c *Client) CreateCreditCardTransaction(ctx context.Context, spec CardTransactionSpec) (*Record, error) {
	var record Record
	if err := c.do(ctx, http.MethodPost, "/credit-cards/records", spec, &record); err != nil {
		return nil, fmt.Errorf("failed to create credit card transaction: %w", err)
	}
	return &record, nil
}
