package cron

import (
	"context"
	"fmt"
	"time"
)

type notificationPurger interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type cartPurger interface {
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type retentionJob struct {
	name      string
	retention time.Duration
	purge     func(ctx context.Context, cutoff time.Time) (int64, error)
	now       func() time.Time
}

func (j *retentionJob) Name() string { return j.name }

func (j *retentionJob) Run(ctx context.Context) (int64, error) {
	cutoff := j.now().UTC().Add(-j.retention)
	removed, err := j.purge(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", j.name, err)
	}
	return removed, nil
}

// NewNotificationCleanupJob purges read notifications older than retention.
func NewNotificationCleanupJob(repo notificationPurger, retention time.Duration) (Job, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if retention <= 0 {
		return nil, fmt.Errorf("notification retention must be positive")
	}
	return &retentionJob{name: "notification-cleanup", retention: retention, purge: repo.DeleteReadBefore, now: time.Now}, nil
}

// NewStaleCartCleanupJob removes carts nobody has touched within retention.
func NewStaleCartCleanupJob(repo cartPurger, retention time.Duration) (Job, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if retention <= 0 {
		return nil, fmt.Errorf("cart retention must be positive")
	}
	return &retentionJob{name: "stale-cart-cleanup", retention: retention, purge: repo.DeleteStale, now: time.Now}, nil
}
