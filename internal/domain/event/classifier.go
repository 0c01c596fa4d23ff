package event

import (
	"context"
	"encoding/json"
	"time"

	"moneyvoice/internal/logger"
)

// RawRecord is the wire shape produced by the voice/NLP parser: a
// discriminant string plus an open bag of variant-dependent fields.
type RawRecord struct {
	EventType string         `json:"event_type"`
	Data      map[string]any `json:"data"`
}

// Classifier normalizes raw parser records into typed FinancialEvents.
// It performs no I/O; coercion defaults (base currency, "now" dates) are
// fixed at construction time.
type Classifier struct {
	baseCurrency string
	now          func() time.Time
}

// NewClassifier creates a classifier. baseCurrency fills in events whose
// record carries no currency.
func NewClassifier(baseCurrency string) *Classifier {
	return &Classifier{
		baseCurrency: baseCurrency,
		now:          time.Now,
	}
}

// ClassifyAll converts every record. Records with unrecognized discriminants
// come back as NullStatement so the caller can report them; they are dropped
// from scheduling by the phase planner.
func (c *Classifier) ClassifyAll(ctx context.Context, records []RawRecord) []FinancialEvent {
	events := make([]FinancialEvent, 0, len(records))
	for _, rec := range records {
		events = append(events, c.Classify(ctx, rec))
	}
	return events
}

// Classify converts a single record. Shared field names are interpreted per
// discriminant: "amount" is the transaction amount for a transaction, the
// total value for an asset update, the credit limit for a credit card update
// and the target amount for a budget.
func (c *Classifier) Classify(ctx context.Context, rec RawRecord) FinancialEvent {
	log := logger.FromContext(ctx)

	var ev FinancialEvent
	switch Kind(rec.EventType) {
	case KindTransaction:
		ev = FinancialEvent{Kind: KindTransaction, Transaction: c.transaction(rec.Data)}
	case KindAssetUpdate:
		ev = FinancialEvent{Kind: KindAssetUpdate, Asset: c.assetUpdate(rec.Data)}
	case KindCreditCardUpdate:
		ev = FinancialEvent{Kind: KindCreditCardUpdate, CreditCard: c.creditCardUpdate(rec.Data)}
	case KindHoldingUpdate:
		ev = FinancialEvent{Kind: KindHoldingUpdate, Holding: c.holdingUpdate(rec.Data)}
	case KindBudget:
		ev = FinancialEvent{Kind: KindBudget, Budget: c.budget(rec.Data)}
	case KindQueryResponse:
		ev = FinancialEvent{Kind: KindQueryResponse, Query: &QueryResponse{Answer: str(rec.Data, "answer", "text")}}
	case KindNeedMoreInfo:
		ev = FinancialEvent{Kind: KindNeedMoreInfo, NeedInfo: &NeedMoreInfo{
			Prompt:        str(rec.Data, "prompt", "question"),
			MissingFields: strSlice(rec.Data, "missing_fields"),
		}}
	case KindNullStatement:
		ev = FinancialEvent{Kind: KindNullStatement}
	default:
		log.Warn().Str("event_type", rec.EventType).Msg("unrecognized event type, treating as null statement")
		return FinancialEvent{Kind: KindNullStatement}
	}

	log.Debug().Str("event_type", string(ev.Kind)).Bool("committable", ev.Committable()).Msg("classified event")
	return ev
}

func (c *Classifier) transaction(data map[string]any) *Transaction {
	dir := Direction(str(data, "direction", "type"))
	switch dir {
	case DirectionExpense, DirectionIncome, DirectionTransfer, DirectionPayment:
	default:
		dir = DirectionExpense
	}
	return &Transaction{
		Amount:         num(data, "amount"),
		Direction:      dir,
		Category:       str(data, "category"),
		AccountName:    str(data, "account", "account_name"),
		CardIdentifier: str(data, "card_identifier", "card"),
		Description:    str(data, "description"),
		Date:           c.date(data, "date"),
		Confidence:     num(data, "confidence"),
	}
}

func (c *Classifier) assetUpdate(data map[string]any) *AssetUpdate {
	a := &AssetUpdate{
		AssetType:   AssetType(str(data, "asset_type")),
		Name:        str(data, "name"),
		Value:       num(data, "amount", "value"),
		Currency:    c.currency(data),
		Institution: str(data, "institution"),
		Quantity:    optNum(data, "quantity"),
		APY:         optNum(data, "apy"),
		CostBasis:   optNum(data, "cost_basis"),
	}
	if a.AssetType == "" {
		a.AssetType = AssetBank
	}
	if d, ok := optDate(data, "maturity_date"); ok {
		a.MaturityDay = &d
	}
	// Loan terms only appear on loan/mortgage records; any one field is
	// enough to carry the group through.
	if hasAny(data, "term_months", "rate", "monthly_payment", "repayment_day") {
		a.Loan = &LoanTerms{
			TermMonths:     int(num(data, "term_months")),
			Rate:           num(data, "rate"),
			MonthlyPayment: num(data, "monthly_payment"),
			RepaymentDay:   int(num(data, "repayment_day")),
			AutoRepay:      boolean(data, "auto_repayment"),
			SourceAccount:  str(data, "repayment_source_account"),
		}
	}
	return a
}

func (c *Classifier) creditCardUpdate(data map[string]any) *CreditCardUpdate {
	cc := &CreditCardUpdate{
		Name: str(data, "name"),
		// "amount" means credit limit on this variant.
		CreditLimit:    num(data, "amount", "credit_limit"),
		Balance:        num(data, "balance", "outstanding_balance"),
		RepaymentDay:   int(num(data, "repayment_day", "due_day")),
		CardIdentifier: str(data, "card_identifier", "card"),
	}
	if hasAny(data, "auto_repayment", "repayment_source_account") {
		cc.AutoRepay = &AutoRepayment{
			Enabled:       boolean(data, "auto_repayment"),
			SourceAccount: str(data, "repayment_source_account"),
		}
	}
	return cc
}

func (c *Classifier) holdingUpdate(data map[string]any) *HoldingUpdate {
	action := TradeAction(str(data, "action"))
	if action != TradeSell {
		action = TradeBuy
	}
	ht := HoldingType(str(data, "holding_type"))
	if ht == "" {
		ht = HoldingStock
	}
	return &HoldingUpdate{
		Name:        str(data, "name"),
		HoldingType: ht,
		Action:      action,
		Quantity:    num(data, "quantity"),
		UnitPrice:   num(data, "unit_price", "price"),
		Currency:    c.currency(data),
		Market:      str(data, "market"),
		Ticker:      str(data, "ticker", "symbol"),
		AccountName: str(data, "account", "account_name"),
		Fee:         optNum(data, "fee"),
		Note:        str(data, "note"),
		Date:        c.date(data, "date"),
	}
}

func (c *Classifier) budget(data map[string]any) *Budget {
	action := BudgetAction(str(data, "action"))
	if action != BudgetUpdate {
		action = BudgetCreate
	}
	b := &Budget{
		Action:       action,
		Name:         str(data, "name"),
		Category:     str(data, "category"),
		TargetAmount: num(data, "amount", "target_amount"),
		Currency:     c.currency(data),
		Priority:     int(num(data, "priority")),
		Recurring:    boolean(data, "recurring"),
	}
	if d, ok := optDate(data, "target_date"); ok {
		b.TargetDate = &d
	}
	return b
}

// currency returns the record currency or the configured base currency.
func (c *Classifier) currency(data map[string]any) string {
	if cur := str(data, "currency"); cur != "" {
		return cur
	}
	return c.baseCurrency
}

// date returns the record date or "now" when missing/unparseable.
func (c *Classifier) date(data map[string]any, key string) time.Time {
	if d, ok := optDate(data, key); ok {
		return d
	}
	return c.now()
}

// ── field bag coercions ──

// str returns the first non-empty string among keys.
func str(data map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := data[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// num returns the first present numeric value among keys. JSON numbers
// arrive as float64; json.Number and stringified numbers are tolerated
// because the parser is not strict about them.
func num(data map[string]any, keys ...string) float64 {
	for _, k := range keys {
		switch v := data[k].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f
			}
		case string:
			var f float64
			if err := json.Unmarshal([]byte(v), &f); err == nil {
				return f
			}
		}
	}
	return 0
}

func optNum(data map[string]any, key string) *float64 {
	if _, ok := data[key]; !ok {
		return nil
	}
	f := num(data, key)
	return &f
}

func boolean(data map[string]any, key string) bool {
	if v, ok := data[key].(bool); ok {
		return v
	}
	return false
}

func optDate(data map[string]any, key string) (time.Time, bool) {
	s, ok := data[key].(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

func strSlice(data map[string]any, key string) []string {
	raw, ok := data[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func hasAny(data map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := data[k]; ok {
			return true
		}
	}
	return false
}
