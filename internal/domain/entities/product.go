package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// ProductRemark builds the remark prefix stamped on purchase orders so they
// can be counted per product later. The trailing comma terminates the id.
func ProductRemark(productID int64) string {
	return fmt.Sprintf("product:%d,", productID)
}

// ProductStatus represents product availability
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// UnlimitedStock marks a product with no stock tracking.
const UnlimitedStock = -1

// Product is merchant inventory sold for credits.
type Product struct {
	ID              int64           `json:"id" gorm:"primaryKey"`
	MerchantAppID   int64           `json:"merchantAppId" gorm:"not null;index"`
	Name            string          `json:"name" gorm:"size:100;not null"`
	Description     string          `json:"description" gorm:"size:500;default:''"`
	LogoURL         string          `json:"logoUrl" gorm:"size:500;default:''"`
	Price           decimal.Decimal `json:"price" gorm:"type:decimal(20,2);not null"`
	Stock           int             `json:"stock" gorm:"default:-1"`
	LimitPerUser    int             `json:"limitPerUser" gorm:"default:0"`
	SoldCount       int             `json:"soldCount" gorm:"default:0"`
	AutoDelivery    bool            `json:"autoDelivery" gorm:"default:false"`
	DeliveryMessage string          `json:"deliveryMessage" gorm:"size:1000;default:''"`
	Status          ProductStatus   `json:"status" gorm:"size:20;default:'active';index"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// TableName overrides the table name
func (Product) TableName() string {
	return "credit_products"
}

// CardKeyStatus represents card key inventory state
type CardKeyStatus string

const (
	CardKeyStatusAvailable CardKeyStatus = "available"
	CardKeyStatusSold      CardKeyStatus = "sold"
)

// CardKey is a sellable secret delivered on purchase of an auto-delivery
// product. Lifecycle: available -> sold, driven only by purchase.
type CardKey struct {
	ID          int64         `json:"id" gorm:"primaryKey"`
	ProductID   int64         `json:"productId" gorm:"not null;index"`
	CardKey     string        `json:"cardKey" gorm:"size:500;not null"`
	Status      CardKeyStatus `json:"status" gorm:"size:20;default:'available';index"`
	BuyerUserID null.Int64    `json:"buyerUserId,omitempty" gorm:"index"`
	OrderID     null.Int64    `json:"orderId,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// TableName overrides the table name
func (CardKey) TableName() string {
	return "credit_card_keys"
}
