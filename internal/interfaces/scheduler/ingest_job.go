package scheduler

import (
	"context"
	"fmt"
	"strconv"

	"moneyvoice/internal/domain/ingest"
)

// IngestJob implements the Job interface for processing one queued
// utterance in the background.
type IngestJob struct {
	userID    int64
	utterance string
	service   *ingest.Service
}

// NewIngestJob creates an ingestion job for a user's utterance
func NewIngestJob(userID int64, utterance string, service *ingest.Service) *IngestJob {
	return &IngestJob{
		userID:    userID,
		utterance: utterance,
		service:   service,
	}
}

// Execute runs the ingestion job. The outcome lands in the run journal and
// the user's devices; the error return only drives worker-pool metrics.
func (j *IngestJob) Execute(ctx context.Context) error {
	if _, err := j.service.IngestUtterance(ctx, j.userID, j.utterance); err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return nil
}

// UserID returns the user ID associated with this job
func (j *IngestJob) UserID() string {
	return strconv.FormatInt(j.userID, 10)
}

// Description returns a human-readable description of the job
func (j *IngestJob) Description() string {
	return fmt.Sprintf("utterance ingestion for user %d", j.userID)
}
