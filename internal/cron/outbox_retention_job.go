package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/sabjimart/sabji-backend/pkg/logger"
)

const (
	day                   = 24 * time.Hour
	defaultOutboxKeep     = 30 * day
	defaultDeadLetterKeep = 90 * day
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type publishedPruner interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type deadLetterPruner interface {
	DeleteBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// OutboxRetentionJobParams wire the outbox pruning job. Zero keep windows
// fall back to 30 days for published events and 90 for dead letters.
type OutboxRetentionJobParams struct {
	Logger         *logger.Logger
	DB             txRunner
	Outbox         publishedPruner
	DeadLetters    deadLetterPruner
	KeepPublished  time.Duration
	KeepDeadLetter time.Duration
}

func NewOutboxRetentionJob(p OutboxRetentionJobParams) (Job, error) {
	switch {
	case p.Logger == nil:
		return nil, errors.New("logger required")
	case p.DB == nil:
		return nil, errors.New("db runner required")
	case p.Outbox == nil:
		return nil, errors.New("outbox repository required")
	case p.DeadLetters == nil:
		return nil, errors.New("dead letter repository required")
	}
	if p.KeepPublished <= 0 {
		p.KeepPublished = defaultOutboxKeep
	}
	if p.KeepDeadLetter <= 0 {
		p.KeepDeadLetter = defaultDeadLetterKeep
	}
	return &outboxRetentionJob{params: p, now: time.Now}, nil
}

type outboxRetentionJob struct {
	params OutboxRetentionJobParams
	now    func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

// Run deletes both tables in one transaction, so a failure leaves neither pruned.
func (j *outboxRetentionJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	publishedCutoff := now.Add(-j.params.KeepPublished)
	deadCutoff := now.Add(-j.params.KeepDeadLetter)

	var published, dead int64
	err := j.params.DB.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		if published, err = j.params.Outbox.DeletePublishedBefore(ctx, tx, publishedCutoff); err != nil {
			return fmt.Errorf("published events: %w", err)
		}
		if dead, err = j.params.DeadLetters.DeleteBefore(ctx, tx, deadCutoff); err != nil {
			return fmt.Errorf("dead letters: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("outbox retention: %w", err)
	}

	j.params.Logger.Info(j.params.Logger.WithFields(ctx, map[string]any{
		"published_cutoff":     publishedCutoff,
		"published_deleted":    published,
		"dead_letter_cutoff":   deadCutoff,
		"dead_letters_deleted": dead,
	}), "outbox retention cleanup complete")
	return nil
}
