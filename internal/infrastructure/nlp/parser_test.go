package nlp

import (
	"encoding/json"
	"testing"

	"moneyvoice/internal/domain/event"
)

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "raw json passes through",
			raw:  `[{"event_type":"transaction","data":{}}]`,
			want: `[{"event_type":"transaction","data":{}}]`,
		},
		{
			name: "json fence stripped",
			raw:  "```json\n[{\"event_type\":\"budget\",\"data\":{}}]\n```",
			want: `[{"event_type":"budget","data":{}}]`,
		},
		{
			name: "bare fence stripped",
			raw:  "```\n[]\n```",
			want: `[]`,
		},
		{
			name: "prose around the array dropped",
			raw:  "Here you go:\n[1, 2]\nLet me know if you need more.",
			want: `[1, 2]`,
		},
		{
			name: "whitespace trimmed",
			raw:  "  \n[]\n  ",
			want: `[]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.raw); got != tt.want {
				t.Errorf("cleanModelJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCleanModelJSON_DecodesIntoRecords(t *testing.T) {
	raw := "```json\n" + `[
		{"event_type": "transaction", "data": {"amount": 12.5, "category": "food"}},
		{"event_type": "null_statement", "data": {}}
	]` + "\n```"

	var records []event.RawRecord
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &records); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].EventType != "transaction" {
		t.Errorf("EventType = %q, want transaction", records[0].EventType)
	}
	if records[0].Data["amount"] != 12.5 {
		t.Errorf("amount = %v, want 12.5", records[0].Data["amount"])
	}
}
