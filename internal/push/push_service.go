package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// PushProvider is an interface for delivering push notifications to a device
type PushProvider interface {
	Send(ctx context.Context, token, title, body string) error
}

// FCMService implements PushProvider against the FCM legacy HTTP API
type FCMService struct {
	ServerKey string
	Client    *http.Client
}

// NewFCMService creates a new FCM push service
func NewFCMService(serverKey string) *FCMService {
	return &FCMService{
		ServerKey: serverKey,
		Client:    &http.Client{Timeout: 30 * time.Second},
	}
}

type fcmRequest struct {
	To           string          `json:"to"`
	Notification fcmNotification `json:"notification"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		Error string `json:"error"`
	} `json:"results"`
}

// Send delivers one notification to one device token
func (s *FCMService) Send(ctx context.Context, token, title, body string) error {
	payload, err := json.Marshal(fcmRequest{
		To:           token,
		Notification: fcmNotification{Title: title, Body: body},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST",
		"https://fcm.googleapis.com/fcm/send", bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+s.ServerKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send push: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed fcmResponse
	if err := json.Unmarshal(respBody, &parsed); err == nil && parsed.Failure > 0 {
		reason := "unknown"
		if len(parsed.Results) > 0 && parsed.Results[0].Error != "" {
			reason = parsed.Results[0].Error
		}
		return fmt.Errorf("push rejected: %s", reason)
	}
	return nil
}

// MockPushService records deliveries instead of sending them. Used when no
// server key is configured, and by tests.
type MockPushService struct {
	Err error // when set, Send returns it

	mu   sync.Mutex
	Sent []MockDelivery
}

type MockDelivery struct {
	Token string
	Title string
	Body  string
}

// NewMockPushService creates a new mock push service
func NewMockPushService() *MockPushService {
	return &MockPushService{}
}

// Send prints the notification to console and records it
func (s *MockPushService) Send(ctx context.Context, token, title, body string) error {
	if s.Err != nil {
		return s.Err
	}
	fmt.Printf("\n========== MOCK PUSH ==========\n")
	fmt.Printf("Token: %s\n", token)
	fmt.Printf("Title: %s\n", title)
	fmt.Printf("Body: %s\n", body)
	fmt.Printf("===============================\n\n")

	s.mu.Lock()
	s.Sent = append(s.Sent, MockDelivery{Token: token, Title: title, Body: body})
	s.mu.Unlock()
	return nil
}

// SentDeliveries returns a snapshot of everything sent so far
func (s *MockPushService) SentDeliveries() []MockDelivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]MockDelivery, len(s.Sent))
	copy(out, s.Sent)
	return out
}
