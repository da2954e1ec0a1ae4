package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"
)

// NotifyURLs holds the merchant callback targets captured when a legacy
// gateway order is created, consumed on confirmation and async notify.
type NotifyURLs struct {
	NotifyURL string `json:"notifyUrl"`
	ReturnURL string `json:"returnUrl"`
}

// NotifyStore keeps per-order notify/return URLs in Redis.
type NotifyStore struct {
	retention time.Duration
}

var (
	setNotifyValue = Set
	getNotifyValue = Get
	delNotifyValue = Del
)

// NewNotifyStore creates a notify store. Entries outlive the order expiry so
// the async notify job can still resolve them.
func NewNotifyStore(retention time.Duration) *NotifyStore {
	return &NotifyStore{retention: retention}
}

func notifyKey(orderID int64) string {
	return "credit_notify:order_" + strconv.FormatInt(orderID, 10)
}

// Save stores the URLs for an order.
func (s *NotifyStore) Save(ctx context.Context, orderID int64, urls *NotifyURLs) error {
	data, err := json.Marshal(urls)
	if err != nil {
		return err
	}
	return setNotifyValue(ctx, notifyKey(orderID), string(data), s.retention)
}

// Load retrieves the URLs for an order, nil when absent.
func (s *NotifyStore) Load(ctx context.Context, orderID int64) (*NotifyURLs, error) {
	raw, err := getNotifyValue(ctx, notifyKey(orderID))
	if err != nil {
		return nil, nil
	}
	var urls NotifyURLs
	if err := json.Unmarshal([]byte(raw), &urls); err != nil {
		return nil, err
	}
	return &urls, nil
}

// Delete removes the URLs for an order.
func (s *NotifyStore) Delete(ctx context.Context, orderID int64) error {
	return delNotifyValue(ctx, notifyKey(orderID))
}
