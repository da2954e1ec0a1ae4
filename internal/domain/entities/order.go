package entities

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// OrderStatus represents order status
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusSuccess   OrderStatus = "success"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusExpired   OrderStatus = "expired"
	OrderStatusDisputing OrderStatus = "disputing"
	OrderStatusRefund    OrderStatus = "refund"
	OrderStatusRefunded  OrderStatus = "refunded"
	OrderStatusRefused   OrderStatus = "refused"
)

// Terminal reports whether no further status transition is allowed.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusFailed, OrderStatusExpired, OrderStatusRefund, OrderStatusRefunded, OrderStatusRefused:
		return true
	}
	return false
}

// OrderType tags the kind of money movement an order records.
type OrderType string

const (
	OrderTypeReceive             OrderType = "receive"
	OrderTypePayment             OrderType = "payment"
	OrderTypeTransfer            OrderType = "transfer"
	OrderTypeTip                 OrderType = "tip"
	OrderTypeProduct             OrderType = "product"
	OrderTypeProductRefund       OrderType = "product_refund"
	OrderTypeCommunity           OrderType = "community"
	OrderTypeOnline              OrderType = "online"
	OrderTypeDistribute          OrderType = "distribute"
	OrderTypeRedEnvelopeSend     OrderType = "red_envelope_send"
	OrderTypeRedEnvelopeReceive  OrderType = "red_envelope_receive"
	OrderTypeRedEnvelopeRefund   OrderType = "red_envelope_refund"
	OrderTypeDisputeCompensation OrderType = "dispute_compensation"
)

// AllOrderTypes lists every known order type; branch sites iterate this to
// stay exhaustive when a type is added.
var AllOrderTypes = []OrderType{
	OrderTypeReceive, OrderTypePayment, OrderTypeTransfer, OrderTypeTip,
	OrderTypeProduct, OrderTypeProductRefund, OrderTypeCommunity, OrderTypeOnline,
	OrderTypeDistribute, OrderTypeRedEnvelopeSend, OrderTypeRedEnvelopeReceive,
	OrderTypeRedEnvelopeRefund, OrderTypeDisputeCompensation,
}

// Valid reports whether t is a known order type.
func (t OrderType) Valid() bool {
	for _, known := range AllOrderTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Disputable reports whether orders of this type may be contested by the payer.
func (t OrderType) Disputable() bool {
	return t == OrderTypePayment || t == OrderTypeTransfer
}

// Refundable reports whether the legacy gateway may refund orders of this type.
func (t OrderType) Refundable() bool {
	return t == OrderTypePayment || t == OrderTypeOnline
}

// DeliveryStatus tracks payout state for non-instant-delivery product orders.
type DeliveryStatus string

const (
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusRefunded  DeliveryStatus = "refunded"
)

// SystemUserID marks the platform side of a system-originated movement.
const SystemUserID int64 = 0

// Order is an immutable-after-creation settlement record. Every wallet
// balance mutation is paired with at least one order row; disputes and
// refunds update status on the same row plus create reversal orders, the
// original row is never deleted.
type Order struct {
	ID              int64           `json:"id" gorm:"primaryKey"`
	OrderNo         string          `json:"orderNo" gorm:"size:32;uniqueIndex"`
	OrderName       string          `json:"orderName" gorm:"size:100;not null"`
	MerchantOrderNo null.String     `json:"merchantOrderNo,omitempty" gorm:"size:64;index"`
	ClientID        null.String     `json:"clientId,omitempty" gorm:"size:64;index"`
	PayerUserID     int64           `json:"payerUserId" gorm:"not null;default:0;index"`
	PayeeUserID     int64           `json:"payeeUserId" gorm:"not null;default:0;index"`
	Amount          decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	FeeRate         decimal.Decimal `json:"feeRate" gorm:"type:decimal(5,4);default:0"`
	FeeAmount       decimal.Decimal `json:"feeAmount" gorm:"type:decimal(20,2);default:0"`
	ActualAmount    decimal.Decimal `json:"actualAmount" gorm:"type:decimal(20,2);default:0"`
	Status          OrderStatus     `json:"status" gorm:"size:20;not null;default:'pending';index"`
	OrderType       OrderType       `json:"orderType" gorm:"size:30;not null;index"`
	DeliveryStatus  null.String     `json:"deliveryStatus,omitempty" gorm:"size:20"`
	PaymentType     string          `json:"paymentType" gorm:"size:20;default:''"`
	Remark          string          `json:"remark" gorm:"size:500;default:''"`
	PostID          *int64          `json:"postId,omitempty"`
	TradeTime       null.Time       `json:"tradeTime,omitempty"`
	ExpiresAt       null.Time       `json:"expiresAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// TableName overrides the table name
func (Order) TableName() string {
	return "credit_orders"
}

// Expired reports whether a pending order is past its deadline. Confirmation
// must be rejected even before the sweep flips the row to expired.
func (o *Order) Expired(now time.Time) bool {
	return o.Status == OrderStatusPending && o.ExpiresAt.Valid && o.ExpiresAt.Time.Before(now)
}

// PayeeReceived reports whether the payee actually received funds, which
// decides how much a refund claws back.
func (o *Order) PayeeReceived() bool {
	return !o.DeliveryStatus.Valid || o.DeliveryStatus.String == string(DeliveryStatusDelivered)
}
