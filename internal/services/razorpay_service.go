package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"fieldserve-backend/internal/models"
	"fieldserve-backend/internal/repositories"

	razorpay "github.com/razorpay/razorpay-go"
)

// RazorpayService raises payment orders against service requests and
// verifies checkout callbacks.
type RazorpayService struct {
	transactionRepo *repositories.OnlineTransactionRepository
	requestRepo     *repositories.ServiceRequestRepository
	keyID           string
	keySecret       string
}

func NewRazorpayService(keyID, keySecret string, transactionRepo *repositories.OnlineTransactionRepository, requestRepo *repositories.ServiceRequestRepository) *RazorpayService {
	return &RazorpayService{
		transactionRepo: transactionRepo,
		requestRepo:     requestRepo,
		keyID:           keyID,
		keySecret:       keySecret,
	}
}

// IsConfigured reports whether credentials are present
func (s *RazorpayService) IsConfigured() bool {
	return s.keyID != "" && s.keySecret != ""
}

// KeyID is exposed to the frontend checkout widget
func (s *RazorpayService) KeyID() string {
	return s.keyID
}

// CreateOrder raises a Razorpay order for a service request's payable amount
func (s *RazorpayService) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.OnlineTransaction, error) {
	if !s.IsConfigured() {
		return nil, fmt.Errorf("online payments are not configured")
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	request, err := s.requestRepo.Get(ctx, req.Request)
	if err != nil {
		return nil, mapNoRows(err)
	}

	client := razorpay.NewClient(s.keyID, s.keySecret)

	// Razorpay amounts are in paise
	orderData := map[string]interface{}{
		"amount":   int(req.Amount * 100),
		"currency": "INR",
		"receipt":  fmt.Sprintf("req_%s_%d", request.RequestCode, time.Now().Unix()),
		"notes": map[string]interface{}{
			"service_request": request.RequestCode,
		},
	}
	order, err := client.Order.Create(orderData, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create razorpay order: %w", err)
	}

	orderID, ok := order["id"].(string)
	if !ok {
		return nil, fmt.Errorf("razorpay order response missing id")
	}

	tx := &models.OnlineTransaction{
		ServiceRequestID: request.ID,
		OrderID:          orderID,
		Amount:           req.Amount,
	}
	if err := s.transactionRepo.Create(ctx, tx); err != nil {
		return nil, err
	}
	tx.Status = models.TransactionStatusCreated
	return tx, nil
}

// VerifyPayment checks the checkout signature and settles the transaction.
// On success the paid amount is stamped on the service request.
func (s *RazorpayService) VerifyPayment(ctx context.Context, req *models.VerifyPaymentRequest) (*models.OnlineTransaction, error) {
	tx, err := s.transactionRepo.GetByOrderID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, ErrNotFound
	}

	if !s.verifySignature(req.OrderID, req.PaymentID, req.Signature) {
		if err := s.transactionRepo.MarkFailed(ctx, req.OrderID); err != nil {
			log.Printf("[Razorpay] failed to mark order %s failed: %v", req.OrderID, err)
		}
		return nil, ErrInvalidCode
	}

	applied, err := s.transactionRepo.MarkPaid(ctx, req.OrderID, req.PaymentID)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Already settled by an earlier callback
		return s.transactionRepo.GetByOrderID(ctx, req.OrderID)
	}

	if err := s.requestRepo.RecordOnlinePayment(ctx, tx.ServiceRequestID, tx.Amount); err != nil {
		log.Printf("[Razorpay] payment verified but request %d not updated: %v", tx.ServiceRequestID, err)
	}

	return s.transactionRepo.GetByOrderID(ctx, req.OrderID)
}

// verifySignature checks the HMAC-SHA256 checkout signature
func (s *RazorpayService) verifySignature(orderID, paymentID, signature string) bool {
	h := hmac.New(sha256.New, []byte(s.keySecret))
	h.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
