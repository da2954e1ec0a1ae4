package entities

import "time"

// SystemConfig is one key/value row of the deployment-tunable config store.
// Read-mostly; unknown keys fall back to compiled-in defaults at the
// repository layer.
type SystemConfig struct {
	Key         string    `json:"key" gorm:"primaryKey;size:64"`
	Value       string    `json:"value" gorm:"size:500;not null"`
	Description string    `json:"description" gorm:"size:255;default:''"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName overrides the table name
func (SystemConfig) TableName() string {
	return "credit_system_configs"
}

// Config keys understood by the engine.
const (
	ConfigNewUserInitialCredit      = "new_user_initial_credit"
	ConfigNewUserProtectionDays     = "new_user_protection_days"
	ConfigDailyTransferLimit        = "daily_transfer_limit"
	ConfigTransferFeeRate           = "transfer_fee_rate"
	ConfigMerchantFeeRate           = "merchant_fee_rate"
	ConfigMerchantOrderExpireMin    = "merchant_order_expire_minutes"
	ConfigTipFeeRate                = "tip_fee_rate"
	ConfigTipMinAmount              = "tip_min_amount"
	ConfigTipMaxAmount              = "tip_max_amount"
	ConfigPayScoreRate              = "pay_score_rate"
	ConfigDisputeTimeWindowHours    = "dispute_time_window_hours"
	ConfigDisputeAutoRefundHours    = "dispute_auto_refund_hours"
	ConfigDisputeCompensationRate   = "dispute_compensation_rate"
	ConfigRedEnvelopeMaxAmount      = "red_envelope_max_amount"
	ConfigRedEnvelopeMaxRecipients  = "red_envelope_max_recipients"
	ConfigRedEnvelopeDailyLimit     = "red_envelope_daily_limit"
	ConfigRedEnvelopeFeeRate        = "red_envelope_fee_rate"
	ConfigRedEnvelopeExpireHours    = "red_envelope_expire_hours"
)

// ConfigDefault holds the seeded default for a config key.
type ConfigDefault struct {
	Value       string
	Description string
}

// ConfigDefaults are seeded at initialization and used as fallback for
// missing rows. Data-driven so deployments can override any key.
var ConfigDefaults = map[string]ConfigDefault{
	ConfigNewUserInitialCredit:     {"100", "initial credit granted on wallet creation"},
	ConfigNewUserProtectionDays:    {"7", "new user protection period (days)"},
	ConfigDailyTransferLimit:       {"1000", "daily transfer limit"},
	ConfigTransferFeeRate:          {"0", "transfer fee rate (0-1)"},
	ConfigMerchantFeeRate:          {"0.01", "merchant fee rate (0-1)"},
	ConfigMerchantOrderExpireMin:   {"30", "merchant order expiry (minutes)"},
	ConfigTipFeeRate:               {"0.01", "tip fee rate (0-1)"},
	ConfigTipMinAmount:             {"0.01", "minimum tip amount"},
	ConfigTipMaxAmount:             {"1000", "maximum tip amount"},
	ConfigPayScoreRate:             {"1", "pay score earned per credit spent"},
	ConfigDisputeTimeWindowHours:   {"72", "dispute eligibility window (hours)"},
	ConfigDisputeAutoRefundHours:   {"168", "dispute auto refund deadline (hours)"},
	ConfigDisputeCompensationRate:  {"0.05", "compensation rate charged on auto refund (0-1)"},
	ConfigRedEnvelopeMaxAmount:     {"10000", "maximum amount per red envelope"},
	ConfigRedEnvelopeMaxRecipients: {"100", "maximum recipients per red envelope"},
	ConfigRedEnvelopeDailyLimit:    {"10", "red envelopes per sender per day"},
	ConfigRedEnvelopeFeeRate:       {"0.01", "red envelope fee rate (0-1)"},
	ConfigRedEnvelopeExpireHours:   {"24", "red envelope expiry (hours)"},
}

// DefaultPayLevels are the seeded fee tiers. A nil MaxScore means the tier
// is open-ended; a zero FeeRate is a configured value, distinct from nil.
func DefaultPayLevels() []PayLevelConfig {
	max0, max1, max2 := 1000, 5000, 20000
	r0 := dec("0.01")
	r1 := dec("0.008")
	r2 := dec("0.005")
	r3 := dec("0")
	return []PayLevelConfig{
		{Level: 0, MinScore: 0, MaxScore: &max0, FeeRate: &r0},
		{Level: 1, MinScore: 1000, MaxScore: &max1, FeeRate: &r1},
		{Level: 2, MinScore: 5000, MaxScore: &max2, FeeRate: &r2},
		{Level: 3, MinScore: 20000, MaxScore: nil, FeeRate: &r3},
	}
}
