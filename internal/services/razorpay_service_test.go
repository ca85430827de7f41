package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signCheckout(secret, orderID, paymentID string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(h.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	svc := NewRazorpayService("rzp_test_key", "checkout-secret", nil, nil)

	sig := signCheckout("checkout-secret", "order_ABC123", "pay_XYZ789")
	assert.True(t, svc.verifySignature("order_ABC123", "pay_XYZ789", sig))

	// Wrong secret, tampered order and truncated signature all fail
	assert.False(t, svc.verifySignature("order_ABC123", "pay_XYZ789",
		signCheckout("other-secret", "order_ABC123", "pay_XYZ789")))
	assert.False(t, svc.verifySignature("order_TAMPERED", "pay_XYZ789", sig))
	assert.False(t, svc.verifySignature("order_ABC123", "pay_XYZ789", sig[:10]))
	assert.False(t, svc.verifySignature("order_ABC123", "pay_XYZ789", ""))
}

func TestIsConfigured(t *testing.T) {
	assert.False(t, NewRazorpayService("", "", nil, nil).IsConfigured())
	assert.False(t, NewRazorpayService("rzp_test_key", "", nil, nil).IsConfigured())
	assert.True(t, NewRazorpayService("rzp_test_key", "secret", nil, nil).IsConfigured())
}
