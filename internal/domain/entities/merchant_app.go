package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// MerchantApp is a registered payee integration. The legacy form protocol
// authenticates with ClientID/ClientSecret (MD5 signatures); the JSON
// protocol signs with the key derived from Token.
type MerchantApp struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	UserID       int64     `json:"userId" gorm:"not null;index"`
	AppName      string    `json:"appName" gorm:"size:100;not null"`
	ClientID     string    `json:"clientId" gorm:"size:64;uniqueIndex;not null"`
	ClientSecret string    `json:"clientSecret" gorm:"size:128;not null"`
	Token        string    `json:"token" gorm:"size:128;uniqueIndex"`
	RedirectURI  string    `json:"redirectUri" gorm:"size:500;default:''"`
	NotifyURL    string    `json:"notifyUrl" gorm:"size:500;default:''"`
	ReturnURL    string    `json:"returnUrl" gorm:"size:500;default:''"`
	CallbackURL  string    `json:"callbackUrl" gorm:"size:500;default:''"`
	LogoURL      string    `json:"logoUrl" gorm:"size:500;default:''"`
	Description  string    `json:"description" gorm:"size:500;default:''"`
	IsActive     bool      `json:"isActive" gorm:"default:true"`
	TestMode     bool      `json:"testMode" gorm:"default:false"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName overrides the table name
func (MerchantApp) TableName() string {
	return "credit_merchant_apps"
}

// SecretKey derives the HMAC signing key from the app token. Merchants
// compute the same digest client-side, so the token itself never crosses
// the wire in a signature.
func (a *MerchantApp) SecretKey() string {
	sum := sha256.Sum256([]byte(a.Token))
	return hex.EncodeToString(sum[:])
}
