// Package nlp turns free-form utterances into raw classifier records using
// the Gemini API.
package nlp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"moneyvoice/internal/domain/event"
	"moneyvoice/internal/logger"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// Parser extracts financial event records from utterances.
type Parser struct {
	client *genai.Client
	model  string
}

// NewParser creates a Gemini-backed parser. Model may be empty to use
// DefaultModel.
func NewParser(ctx context.Context, apiKey, model string) (*Parser, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &Parser{client: client, model: model}, nil
}

const promptTemplate = `You are a personal finance voice assistant parser.

Task:
- Extract EVERY financial event from the user's utterance below.
- Output STRICT JSON only (no comments, no trailing commas, no extra text).
- Output a JSON array of objects, one per event, in utterance order.

Each object must have:
- "event_type": one of "transaction", "asset_update", "credit_card_update",
  "holding_update", "budget", "query_response", "need_more_info",
  "null_statement"
- "data": object with the event's fields

Transaction data fields: "amount" (number), "direction" ("expense",
"income", "transfer" or "payment"), "category", "account" (account name as
spoken), "card_identifier" (last digits if a specific card is named),
"description", "date" ("YYYY-MM-DD", omit if not stated).
Asset update data fields: "asset_type", "name", "amount", "currency",
"institution", and loan fields ("term_months", "rate", "monthly_payment",
"repayment_day") when repayment terms are stated.
Credit card update data fields: "name", "card_identifier", "amount"
(credit limit), "balance", "repayment_day".
Holding update data fields: "action" ("buy" or "sell"), "name", "ticker",
"holding_type", "quantity", "unit_price", "fee", "account", "date".
Budget data fields: "action", "name", "category", "amount", "currency".

Rules:
- Amounts default to %s when no currency is spoken.
- A sentence that states no financial fact is a "null_statement".
- A question about existing data is a "query_response"; answer in "data.answer".
- If an event is missing a required fact, use "need_more_info" with
  "data.prompt" and "data.missing_fields".
- Return ONLY valid raw JSON. Do NOT wrap the response in code fences.
- Output must begin with "[" and end with "]".

Utterance:
`

// ParseUtterance asks the model to extract raw event records. The base
// currency is baked into the prompt so unlabeled amounts land on it.
func (p *Parser) ParseUtterance(ctx context.Context, utterance, baseCurrency string) ([]event.RawRecord, error) {
	prompt := fmt.Sprintf(promptTemplate, baseCurrency) + utterance

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	clean := cleanModelJSON(rawText)
	var records []event.RawRecord
	if err := json.Unmarshal([]byte(clean), &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model output: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Int("records", len(records)).
		Str("model", p.model).
		Msg("utterance parsed")
	return records, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk when the
// model ignores the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
