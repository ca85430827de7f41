package services

import (
	"context"
	"log"
	"sync"
	"time"

	"fieldserve-backend/internal/metrics"
	"fieldserve-backend/internal/models"
	"fieldserve-backend/internal/push"
	"fieldserve-backend/internal/timeutil"
)

const dispatchBatchSize = 100

// DispatchStore is the queue surface the dispatch loop works against
type DispatchStore interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.Notification, error)
	MarkSent(ctx context.Context, id int) error
	MarkTerminal(ctx context.Context, id int, status, lastError string) error
	MarkRetry(ctx context.Context, id, attempts int, next time.Time, lastError string) error
}

// TokenStore resolves a user's registered device token
type TokenStore interface {
	GetFCMToken(ctx context.Context, userID int) (string, error)
}

// NotificationDispatcher drains pending notifications on a fixed interval.
// Every record ends in a terminal state: sent, failed after maxAttempts, or
// "token not exists" when the user has no registered device.
type NotificationDispatcher struct {
	store       DispatchStore
	tokens      TokenStore
	provider    push.PushProvider
	interval    time.Duration
	maxAttempts int
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

func NewNotificationDispatcher(store DispatchStore, tokens TokenStore, provider push.PushProvider, interval time.Duration, maxAttempts int) *NotificationDispatcher {
	return &NotificationDispatcher{
		store:       store,
		tokens:      tokens,
		provider:    provider,
		interval:    interval,
		maxAttempts: maxAttempts,
		stopChan:    make(chan struct{}),
	}
}

// Start launches the dispatch loop
func (d *NotificationDispatcher) Start() {
	log.Println("[Dispatcher] Starting notification dispatcher...")

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				d.RunCycle(context.Background())
			case <-d.stopChan:
				log.Println("[Dispatcher] Stopping notification dispatcher...")
				return
			}
		}
	}()
}

// Stop halts the loop and waits for an in-flight cycle to finish
func (d *NotificationDispatcher) Stop() {
	close(d.stopChan)
	d.wg.Wait()
}

// RunCycle processes one batch of due notifications
func (d *NotificationDispatcher) RunCycle(ctx context.Context) {
	due, err := d.store.ListDue(ctx, timeutil.Now(), dispatchBatchSize)
	if err != nil {
		log.Printf("[Dispatcher] failed to list due notifications: %v", err)
		return
	}

	for _, n := range due {
		d.dispatchOne(ctx, n)
	}
}

func (d *NotificationDispatcher) dispatchOne(ctx context.Context, n *models.Notification) {
	token, err := d.tokens.GetFCMToken(ctx, n.UserID)
	if err != nil {
		// User lookup failed; leave the record for the next cycle
		log.Printf("[Dispatcher] token lookup failed for notification %d: %v", n.ID, err)
		return
	}
	if token == "" {
		if err := d.store.MarkTerminal(ctx, n.ID, models.NotificationStatusNoToken, ""); err != nil {
			log.Printf("[Dispatcher] failed to park notification %d: %v", n.ID, err)
			return
		}
		metrics.NotificationsDispatched.WithLabelValues(models.NotificationStatusNoToken).Inc()
		return
	}

	if err := d.provider.Send(ctx, token, n.Title, n.Body); err != nil {
		d.recordFailure(ctx, n, err)
		return
	}

	if err := d.store.MarkSent(ctx, n.ID); err != nil {
		log.Printf("[Dispatcher] sent notification %d but failed to record it: %v", n.ID, err)
		return
	}
	metrics.NotificationsDispatched.WithLabelValues(models.NotificationStatusSent).Inc()
}

// recordFailure either schedules a retry with exponential backoff or gives up
// after maxAttempts.
func (d *NotificationDispatcher) recordFailure(ctx context.Context, n *models.Notification, sendErr error) {
	attempts := n.Attempts + 1
	if attempts >= d.maxAttempts {
		if err := d.store.MarkTerminal(ctx, n.ID, models.NotificationStatusFailed, sendErr.Error()); err != nil {
			log.Printf("[Dispatcher] failed to fail notification %d: %v", n.ID, err)
			return
		}
		metrics.NotificationsDispatched.WithLabelValues(models.NotificationStatusFailed).Inc()
		log.Printf("[Dispatcher] notification %d failed permanently after %d attempts: %v", n.ID, attempts, sendErr)
		return
	}

	next := timeutil.Now().Add(time.Duration(1<<attempts) * time.Minute)
	if err := d.store.MarkRetry(ctx, n.ID, attempts, next, sendErr.Error()); err != nil {
		log.Printf("[Dispatcher] failed to schedule retry for notification %d: %v", n.ID, err)
		return
	}
	metrics.NotificationsDispatched.WithLabelValues(models.NotificationStatusError).Inc()
}
