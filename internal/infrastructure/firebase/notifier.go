package firebase

import (
	"context"
	"strconv"

	"moneyvoice/internal/domain/runlog"
	"moneyvoice/internal/shared/messages"
)

// RunNotifier pushes finished ingestion runs over FCM. It implements
// ingest.Notifier.
type RunNotifier struct {
	client *Client
	msgs   *messages.Messages
}

// NewRunNotifier creates a run notifier
func NewRunNotifier(client *Client, msgs *messages.Messages) *RunNotifier {
	return &RunNotifier{client: client, msgs: msgs}
}

// RunFinished notifies every device token about the run's outcome. The
// counts travel in the data payload so the app can render its own copy.
func (n *RunNotifier) RunFinished(ctx context.Context, tokens []string, run *runlog.Run) error {
	text := n.msgs.IngestComplete
	if run.Status == runlog.StatusFailed {
		text = n.msgs.IngestFailed
	} else if run.Suggestions > 0 {
		text = n.msgs.CardSuggestions
	}

	data := map[string]string{
		"type":        "ingest_run",
		"run_id":      run.ID,
		"status":      string(run.Status),
		"committed":   strconv.Itoa(run.Committed),
		"suggestions": strconv.Itoa(run.Suggestions),
	}
	return n.client.SendMulticast(ctx, tokens, text.Title, text.Body, data)
}
