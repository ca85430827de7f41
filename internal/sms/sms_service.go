package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"fieldserve-backend/internal/models"
)

// SMSProvider is an interface for sending SMS messages
type SMSProvider interface {
	SendOTP(mobile, otp string) error
	SendSMS(mobile, message, messageType string, userID int) error
	SetLogRepository(repo SMSLogRepo)
}

// SMSLogRepo interface for persisting delivery logs
type SMSLogRepo interface {
	Create(ctx context.Context, log *models.SMSLog) error
}

// Fast2SMSService implements SMSProvider for Fast2SMS (India)
type Fast2SMSService struct {
	APIKey  string
	LogRepo SMSLogRepo
}

// NewFast2SMSService creates a new Fast2SMS service using the quick route
func NewFast2SMSService(apiKey string) *Fast2SMSService {
	return &Fast2SMSService{APIKey: apiKey}
}

// SetLogRepository sets the SMS log repository
func (s *Fast2SMSService) SetLogRepository(repo SMSLogRepo) {
	s.LogRepo = repo
}

// SendOTP sends a login OTP via Fast2SMS
func (s *Fast2SMSService) SendOTP(mobile, otp string) error {
	message := fmt.Sprintf("Your login OTP is %s. Valid for 5 minutes. Do not share this code with anyone.", otp)
	return s.SendSMS(mobile, message, models.SMSTypeOTP, 0)
}

// SendSMS sends a single SMS message over the quick route
func (s *Fast2SMSService) SendSMS(mobile, message, messageType string, userID int) error {
	apiURL := fmt.Sprintf(
		"https://www.fast2sms.com/dev/bulkV2?authorization=%s&route=q&message=%s&language=english&flash=0&numbers=%s",
		url.QueryEscape(s.APIKey),
		url.QueryEscape(message),
		url.QueryEscape(mobile),
	)

	smsLog := &models.SMSLog{
		UserID:      userID,
		Mobile:      mobile,
		MessageType: messageType,
		Message:     message,
		Status:      models.SMSStatusPending,
	}

	req, err := http.NewRequest("GET", apiURL, nil)
	if err != nil {
		smsLog.Status = models.SMSStatusFailed
		smsLog.ErrorMessage = err.Error()
		s.logSMS(smsLog)
		return fmt.Errorf("failed to create SMS request: %w", err)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		smsLog.Status = models.SMSStatusFailed
		smsLog.ErrorMessage = err.Error()
		s.logSMS(smsLog)
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		smsLog.Status = models.SMSStatusFailed
		smsLog.ErrorMessage = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body))
		s.logSMS(smsLog)
		return fmt.Errorf("SMS API error (status %d): %s", resp.StatusCode, string(body))
	}

	// Fast2SMS reports API-level failures with return:false in a 200 body
	if strings.Contains(string(body), "\"return\":false") {
		smsLog.Status = models.SMSStatusFailed
		smsLog.ErrorMessage = string(body)
		s.logSMS(smsLog)
		return fmt.Errorf("SMS API error: %s", string(body))
	}

	smsLog.Status = models.SMSStatusSent
	s.logSMS(smsLog)
	return nil
}

// logSMS writes the log entry off the request path
func (s *Fast2SMSService) logSMS(entry *models.SMSLog) {
	if s.LogRepo == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.LogRepo.Create(ctx, entry)
	}()
}

// MockSMSService prints messages to the console instead of sending them.
// Used when no API key is configured, and by tests to inspect what was sent.
type MockSMSService struct {
	LogRepo SMSLogRepo

	mu   sync.Mutex
	Sent []models.SMSLog
}

// NewMockSMSService creates a new mock SMS service
func NewMockSMSService() *MockSMSService {
	return &MockSMSService{}
}

// SetLogRepository sets the SMS log repository
func (s *MockSMSService) SetLogRepository(repo SMSLogRepo) {
	s.LogRepo = repo
}

// SendOTP prints the OTP to console instead of sending SMS
func (s *MockSMSService) SendOTP(mobile, otp string) error {
	message := fmt.Sprintf("Your login OTP is %s. Valid for 5 minutes.", otp)
	return s.SendSMS(mobile, message, models.SMSTypeOTP, 0)
}

// SendSMS records the message and logs it to console
func (s *MockSMSService) SendSMS(mobile, message, messageType string, userID int) error {
	fmt.Printf("\n========== MOCK SMS ==========\n")
	fmt.Printf("To: %s\n", mobile)
	fmt.Printf("Type: %s\n", messageType)
	fmt.Printf("Message: %s\n", message)
	fmt.Printf("==============================\n\n")

	entry := models.SMSLog{
		UserID:      userID,
		Mobile:      mobile,
		MessageType: messageType,
		Message:     message,
		Status:      models.SMSStatusSent,
	}

	s.mu.Lock()
	s.Sent = append(s.Sent, entry)
	s.mu.Unlock()

	if s.LogRepo != nil {
		logEntry := entry
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.LogRepo.Create(ctx, &logEntry)
		}()
	}
	return nil
}

// SentMessages returns a snapshot of everything sent so far
func (s *MockSMSService) SentMessages() []models.SMSLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SMSLog, len(s.Sent))
	copy(out, s.Sent)
	return out
}
