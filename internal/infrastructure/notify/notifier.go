// Package notify delivers merchant callbacks for both gateway protocols.
// Deliveries are best effort with bounded retries; a callback failure never
// unwinds the settled payment it reports.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"credit-ledger.backend/pkg/crypto"
	"credit-ledger.backend/pkg/logger"
)

const maxBodyBytes = 4096

// Notifier posts signed callbacks to merchant endpoints.
type Notifier struct {
	httpClient *http.Client
	attempts   int
	backoff    time.Duration
	sleep      func(time.Duration)
}

// NewNotifier creates a notifier with the given request timeout.
func NewNotifier(timeout time.Duration) *Notifier {
	return &Notifier{
		httpClient: &http.Client{Timeout: timeout},
		attempts:   3,
		backoff:    2 * time.Second,
		sleep:      time.Sleep,
	}
}

// NotifyLegacy form-POSTs the MD5-signed params to the merchant's notify
// URL. The merchant acknowledges with a 2xx response whose body is exactly
// "success"; anything else is retried.
func (n *Notifier) NotifyLegacy(ctx context.Context, notifyURL string, params map[string]string, clientSecret string) error {
	signed := make(url.Values, len(params)+2)
	for k, v := range params {
		signed.Set(k, v)
	}
	signed.Set("sign", crypto.SignMD5(params, clientSecret))
	signed.Set("sign_type", "MD5")
	body := signed.Encode()

	return n.deliver(ctx, notifyURL, "application/x-www-form-urlencoded", []byte(body), func(status int, respBody string) bool {
		return status >= 200 && status < 300 && strings.TrimSpace(respBody) == "success"
	})
}

// NotifyWebhook JSON-POSTs the HMAC-signed payload to the merchant's
// callback URL. Any 2xx response acknowledges delivery.
func (n *Notifier) NotifyWebhook(ctx context.Context, callbackURL string, payload map[string]string, secretKey string) error {
	signed := make(map[string]string, len(payload)+1)
	for k, v := range payload {
		signed[k] = v
	}
	signed["signature"] = crypto.SignHMAC(payload, secretKey)

	body, err := json.Marshal(signed)
	if err != nil {
		return err
	}
	return n.deliver(ctx, callbackURL, "application/json", body, func(status int, _ string) bool {
		return status >= 200 && status < 300
	})
}

func (n *Notifier) deliver(ctx context.Context, target, contentType string, body []byte, accepted func(int, string) bool) error {
	var lastErr error
	for attempt := 1; attempt <= n.attempts; attempt++ {
		lastErr = n.post(ctx, target, contentType, body, accepted)
		if lastErr == nil {
			return nil
		}
		logger.Warn(ctx, "merchant callback attempt failed",
			zap.String("url", target), zap.Int("attempt", attempt), zap.Error(lastErr))
		if attempt < n.attempts {
			n.sleep(n.backoff * time.Duration(attempt))
		}
	}
	return lastErr
}

func (n *Notifier) post(ctx context.Context, target, contentType string, body []byte, accepted func(int, string) bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if !accepted(resp.StatusCode, string(respBody)) {
		return &rejectedError{status: resp.StatusCode, body: strings.TrimSpace(string(respBody))}
	}
	return nil
}

type rejectedError struct {
	status int
	body   string
}

func (e *rejectedError) Error() string {
	msg := "merchant rejected callback: status " + strconv.Itoa(e.status)
	if e.body != "" && len(e.body) <= 120 {
		msg += ", body " + e.body
	}
	return msg
}
