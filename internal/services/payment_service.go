package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrPaymentVerificationFailed is returned when the payment collaborator
// cannot be reached, times out, or answers with an unexpected response.
// The payment may or may not have succeeded; callers retry with the same
// payment reference as an idempotency key.
var ErrPaymentVerificationFailed = errors.New("payment verification failed")

// PaymentStatusSucceeded is the only payment status that activates a membership.
const PaymentStatusSucceeded = "succeeded"

// PaymentResult is the payment gateway's verdict on a payment reference.
type PaymentResult struct {
	Status   string  `json:"status"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// PaymentVerifier checks a payment reference against the payment gateway.
// Gateway protocol details live behind this interface; the core only needs
// the status.
type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, paymentReference string) (*PaymentResult, error)
}

type httpPaymentVerifier struct {
	baseURL string
	client  *http.Client
}

// NewHTTPPaymentVerifier creates a PaymentVerifier calling the payment
// gateway over HTTP. The timeout bounds the whole round trip so membership
// creation can never hang on the gateway.
func NewHTTPPaymentVerifier(baseURL string, timeout time.Duration) PaymentVerifier {
	return &httpPaymentVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (v *httpPaymentVerifier) VerifyPayment(ctx context.Context, paymentReference string) (*PaymentResult, error) {
	endpoint := fmt.Sprintf("%s/payments/%s", v.baseURL, url.PathEscape(paymentReference))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrPaymentVerificationFailed, err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentVerificationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: gateway responded with status %d", ErrPaymentVerificationFailed, resp.StatusCode)
	}

	var result PaymentResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decoding gateway response: %v", ErrPaymentVerificationFailed, err)
	}
	return &result, nil
}
