package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldserve-backend/internal/models"
	"fieldserve-backend/internal/push"
	"fieldserve-backend/internal/timeutil"
)

type fakeDispatchStore struct {
	records map[int]*models.Notification
}

func newFakeDispatchStore(records ...*models.Notification) *fakeDispatchStore {
	store := &fakeDispatchStore{records: make(map[int]*models.Notification)}
	for _, n := range records {
		if n.Status == "" {
			n.Status = models.NotificationStatusPending
		}
		store.records[n.ID] = n
	}
	return store
}

func (f *fakeDispatchStore) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.Notification, error) {
	var due []*models.Notification
	for _, n := range f.records {
		if n.IsTerminal() || n.NextAttemptAt.After(now) {
			continue
		}
		due = append(due, n)
		if len(due) == limit {
			break
		}
	}
	return due, nil
}

func (f *fakeDispatchStore) MarkSent(ctx context.Context, id int) error {
	f.records[id].Status = models.NotificationStatusSent
	return nil
}

func (f *fakeDispatchStore) MarkTerminal(ctx context.Context, id int, status, lastError string) error {
	f.records[id].Status = status
	f.records[id].LastError = lastError
	return nil
}

func (f *fakeDispatchStore) MarkRetry(ctx context.Context, id, attempts int, next time.Time, lastError string) error {
	n := f.records[id]
	n.Status = models.NotificationStatusError
	n.Attempts = attempts
	n.NextAttemptAt = next
	n.LastError = lastError
	return nil
}

type fakeTokenStore struct {
	tokens map[int]string
	err    error
}

func (f *fakeTokenStore) GetFCMToken(ctx context.Context, userID int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.tokens[userID], nil
}

func TestDispatcherSendsDueNotifications(t *testing.T) {
	store := newFakeDispatchStore(
		&models.Notification{ID: 1, UserID: 7, Title: "New service request assigned", Body: "Request 20260314-0001"},
		&models.Notification{ID: 2, UserID: 7, Title: "Solution recorded", Body: "Request 20260314-0001"},
	)
	tokens := &fakeTokenStore{tokens: map[int]string{7: "device-token-7"}}
	provider := push.NewMockPushService()

	d := NewNotificationDispatcher(store, tokens, provider, time.Minute, 5)
	d.RunCycle(context.Background())

	assert.Equal(t, models.NotificationStatusSent, store.records[1].Status)
	assert.Equal(t, models.NotificationStatusSent, store.records[2].Status)

	sent := provider.SentDeliveries()
	require.Len(t, sent, 2)
	assert.Equal(t, "device-token-7", sent[0].Token)
}

func TestDispatcherSkipsFutureAndTerminalRecords(t *testing.T) {
	future := timeutil.Now().Add(10 * time.Minute)
	store := newFakeDispatchStore(
		&models.Notification{ID: 1, UserID: 7, Status: models.NotificationStatusSent},
		&models.Notification{ID: 2, UserID: 7, Status: models.NotificationStatusFailed},
		&models.Notification{ID: 3, UserID: 7, Status: models.NotificationStatusError, NextAttemptAt: future},
	)
	tokens := &fakeTokenStore{tokens: map[int]string{7: "device-token-7"}}
	provider := push.NewMockPushService()

	d := NewNotificationDispatcher(store, tokens, provider, time.Minute, 5)
	d.RunCycle(context.Background())

	assert.Empty(t, provider.SentDeliveries())
}

func TestDispatcherParksRecordsWithoutToken(t *testing.T) {
	store := newFakeDispatchStore(&models.Notification{ID: 1, UserID: 9})
	tokens := &fakeTokenStore{tokens: map[int]string{}}
	provider := push.NewMockPushService()

	d := NewNotificationDispatcher(store, tokens, provider, time.Minute, 5)
	d.RunCycle(context.Background())

	assert.Equal(t, models.NotificationStatusNoToken, store.records[1].Status)
	assert.True(t, store.records[1].IsTerminal())
	assert.Empty(t, provider.SentDeliveries())
}

func TestDispatcherRetriesWithBackoff(t *testing.T) {
	store := newFakeDispatchStore(&models.Notification{ID: 1, UserID: 7})
	tokens := &fakeTokenStore{tokens: map[int]string{7: "device-token-7"}}
	provider := push.NewMockPushService()
	provider.Err = errors.New("push rejected: Unavailable")

	d := NewNotificationDispatcher(store, tokens, provider, time.Minute, 5)

	before := timeutil.Now()
	d.RunCycle(context.Background())

	n := store.records[1]
	assert.Equal(t, models.NotificationStatusError, n.Status)
	assert.Equal(t, 1, n.Attempts)
	assert.Contains(t, n.LastError, "Unavailable")

	// First retry is scheduled roughly two minutes out
	delay := n.NextAttemptAt.Sub(before)
	assert.GreaterOrEqual(t, delay, 1*time.Minute)
	assert.LessOrEqual(t, delay, 3*time.Minute)

	// The record is not due again until its backoff elapses
	d.RunCycle(context.Background())
	assert.Equal(t, 1, store.records[1].Attempts)
}

func TestDispatcherFailsAfterMaxAttempts(t *testing.T) {
	store := newFakeDispatchStore(&models.Notification{ID: 1, UserID: 7, Attempts: 4, Status: models.NotificationStatusError})
	tokens := &fakeTokenStore{tokens: map[int]string{7: "device-token-7"}}
	provider := push.NewMockPushService()
	provider.Err = errors.New("push rejected: NotRegistered")

	d := NewNotificationDispatcher(store, tokens, provider, time.Minute, 5)
	d.RunCycle(context.Background())

	n := store.records[1]
	assert.Equal(t, models.NotificationStatusFailed, n.Status)
	assert.True(t, n.IsTerminal())
	assert.Contains(t, n.LastError, "NotRegistered")
}

func TestDispatcherLeavesRecordOnTokenLookupError(t *testing.T) {
	store := newFakeDispatchStore(&models.Notification{ID: 1, UserID: 7})
	tokens := &fakeTokenStore{err: errors.New("connection refused")}
	provider := push.NewMockPushService()

	d := NewNotificationDispatcher(store, tokens, provider, time.Minute, 5)
	d.RunCycle(context.Background())

	// Lookup failures are transient; the record stays pending for next cycle
	assert.Equal(t, models.NotificationStatusPending, store.records[1].Status)
	assert.Equal(t, 0, store.records[1].Attempts)
}

func TestDispatcherStartStop(t *testing.T) {
	store := newFakeDispatchStore(&models.Notification{ID: 1, UserID: 7})
	tokens := &fakeTokenStore{tokens: map[int]string{7: "device-token-7"}}
	provider := push.NewMockPushService()

	d := NewNotificationDispatcher(store, tokens, provider, 10*time.Millisecond, 5)
	d.Start()

	require.Eventually(t, func() bool {
		return len(provider.SentDeliveries()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	d.Stop()
	assert.Equal(t, models.NotificationStatusSent, store.records[1].Status)
}
