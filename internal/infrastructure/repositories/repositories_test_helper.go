package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createWalletTables(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE credit_wallets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL UNIQUE,
		sign_key TEXT NOT NULL,
		pay_key TEXT DEFAULT '',
		available_balance DECIMAL(20,2) NOT NULL DEFAULT 0,
		total_receive DECIMAL(20,2) NOT NULL DEFAULT 0,
		total_payment DECIMAL(20,2) NOT NULL DEFAULT 0,
		total_transfer DECIMAL(20,2) NOT NULL DEFAULT 0,
		community_balance DECIMAL(20,2) NOT NULL DEFAULT 0,
		total_community DECIMAL(20,2) NOT NULL DEFAULT 0,
		initial_leaderboard_score INTEGER NOT NULL DEFAULT 0,
		pay_score INTEGER NOT NULL DEFAULT 0,
		is_admin BOOLEAN DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createPayConfigTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE credit_pay_configs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		level INTEGER NOT NULL UNIQUE,
		min_score INTEGER NOT NULL DEFAULT 0,
		max_score INTEGER,
		daily_limit INTEGER,
		fee_rate DECIMAL(5,4),
		score_rate DECIMAL(5,4) DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createOrderTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE credit_orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_no TEXT UNIQUE,
		order_name TEXT NOT NULL,
		merchant_order_no TEXT,
		client_id TEXT,
		payer_user_id INTEGER NOT NULL DEFAULT 0,
		payee_user_id INTEGER NOT NULL DEFAULT 0,
		amount DECIMAL(20,2) NOT NULL,
		fee_rate DECIMAL(5,4) DEFAULT 0,
		fee_amount DECIMAL(20,2) DEFAULT 0,
		actual_amount DECIMAL(20,2) DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		order_type TEXT NOT NULL,
		delivery_status TEXT,
		payment_type TEXT DEFAULT '',
		remark TEXT DEFAULT '',
		post_id INTEGER,
		trade_time DATETIME,
		expires_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createRedEnvelopeTables(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE credit_red_envelopes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sender_id INTEGER NOT NULL,
		envelope_type TEXT NOT NULL,
		total_amount DECIMAL(20,2) NOT NULL,
		remaining_amount DECIMAL(20,2) NOT NULL,
		total_count INTEGER NOT NULL,
		remaining_count INTEGER NOT NULL,
		message TEXT DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active',
		topic_id INTEGER,
		post_id INTEGER,
		require_reply BOOLEAN DEFAULT 0,
		expires_at DATETIME NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	);`)
	mustExec(t, db, `CREATE TABLE credit_red_envelope_claims (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		red_envelope_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		amount DECIMAL(20,2) NOT NULL,
		created_at DATETIME,
		UNIQUE(red_envelope_id, user_id)
	);`)
}

func createDisputeTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE credit_disputes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id INTEGER NOT NULL UNIQUE,
		initiator_user_id INTEGER NOT NULL,
		reason TEXT NOT NULL,
		status TEXT DEFAULT 'disputing',
		handler_user_id INTEGER,
		deadline_at DATETIME,
		resolution TEXT,
		compensation_amount DECIMAL(20,2) DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createMerchantAppTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE credit_merchant_apps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		app_name TEXT NOT NULL,
		client_id TEXT NOT NULL UNIQUE,
		client_secret TEXT NOT NULL,
		token TEXT UNIQUE,
		redirect_uri TEXT DEFAULT '',
		notify_url TEXT DEFAULT '',
		return_url TEXT DEFAULT '',
		callback_url TEXT DEFAULT '',
		logo_url TEXT DEFAULT '',
		description TEXT DEFAULT '',
		is_active BOOLEAN DEFAULT 1,
		test_mode BOOLEAN DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createPaymentTransactionTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE credit_payment_transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		transaction_id TEXT NOT NULL UNIQUE,
		merchant_app_id INTEGER NOT NULL,
		external_reference TEXT NOT NULL,
		description TEXT DEFAULT '',
		amount DECIMAL(20,2) NOT NULL,
		platform_fee DECIMAL(20,2) DEFAULT 0,
		merchant_points DECIMAL(20,2) DEFAULT 0,
		status TEXT DEFAULT 'pending',
		payer_user_id INTEGER,
		credit_order_id INTEGER,
		paid_at DATETIME,
		expires_at DATETIME,
		error_message TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE(merchant_app_id, external_reference)
	);`)
}

func createProductTables(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE credit_products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		merchant_app_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		description TEXT DEFAULT '',
		logo_url TEXT DEFAULT '',
		price DECIMAL(20,2) NOT NULL,
		stock INTEGER DEFAULT -1,
		limit_per_user INTEGER DEFAULT 0,
		sold_count INTEGER DEFAULT 0,
		auto_delivery BOOLEAN DEFAULT 0,
		delivery_message TEXT DEFAULT '',
		status TEXT DEFAULT 'active',
		created_at DATETIME,
		updated_at DATETIME
	);`)
	mustExec(t, db, `CREATE TABLE credit_card_keys (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL,
		card_key TEXT NOT NULL,
		status TEXT DEFAULT 'available',
		buyer_user_id INTEGER,
		order_id INTEGER,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createSystemConfigTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE credit_system_configs (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		description TEXT DEFAULT '',
		created_at DATETIME,
		updated_at DATETIME
	);`)
}
