package usecases

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"credit-ledger.backend/internal/domain/entities"
	domainerrors "credit-ledger.backend/internal/domain/errors"
	"credit-ledger.backend/internal/domain/repositories"
	"credit-ledger.backend/internal/infrastructure/notify"
	"credit-ledger.backend/pkg/crypto"
	"credit-ledger.backend/pkg/logger"
)

// PaymentUsecase implements the JSON merchant protocol. Requests carry an
// HMAC-SHA256 signature computed with the key derived from the app token.
type PaymentUsecase struct {
	walletUC   *WalletUsecase
	walletRepo repositories.WalletRepository
	orderRepo  repositories.OrderRepository
	txnRepo    repositories.PaymentTransactionRepository
	appRepo    repositories.MerchantAppRepository
	configRepo repositories.ConfigRepository
	fees       *FeeResolver
	uow        repositories.UnitOfWork
	notifier   *notify.Notifier

	dispatch func(func())
}

// NewPaymentUsecase creates a new payment usecase
func NewPaymentUsecase(
	walletUC *WalletUsecase,
	walletRepo repositories.WalletRepository,
	orderRepo repositories.OrderRepository,
	txnRepo repositories.PaymentTransactionRepository,
	appRepo repositories.MerchantAppRepository,
	configRepo repositories.ConfigRepository,
	fees *FeeResolver,
	uow repositories.UnitOfWork,
	notifier *notify.Notifier,
) *PaymentUsecase {
	return &PaymentUsecase{
		walletUC:   walletUC,
		walletRepo: walletRepo,
		orderRepo:  orderRepo,
		txnRepo:    txnRepo,
		appRepo:    appRepo,
		configRepo: configRepo,
		fees:       fees,
		uow:        uow,
		notifier:   notifier,
		dispatch:   func(f func()) { go f() },
	}
}

// ProcessInput is the merchant's signed create-payment request
type ProcessInput struct {
	ClientID          string `json:"clientId" binding:"required"`
	Amount            string `json:"amount" binding:"required"`
	ExternalReference string `json:"externalReference" binding:"required,max=128"`
	Description       string `json:"description" binding:"max=500"`
	Timestamp         string `json:"timestamp"`
	Signature         string `json:"signature" binding:"required"`
}

func (in *ProcessInput) signedParams() map[string]string {
	return map[string]string{
		"client_id":          in.ClientID,
		"amount":             in.Amount,
		"external_reference": in.ExternalReference,
		"description":        in.Description,
		"timestamp":          in.Timestamp,
	}
}

// Process opens a payment intent. Idempotent on external_reference: a still
// payable intent is returned as-is, a settled one conflicts.
func (u *PaymentUsecase) Process(ctx context.Context, input ProcessInput) (*entities.PaymentTransaction, error) {
	app, err := u.appRepo.GetActiveByClientID(ctx, input.ClientID)
	if err != nil {
		if err == domainerrors.ErrNotFound {
			return nil, domainerrors.NotFound("merchant not found")
		}
		return nil, err
	}
	if !crypto.VerifyHMAC(input.signedParams(), app.SecretKey(), input.Signature) {
		return nil, domainerrors.InvalidSignature()
	}

	amount, err := decimal.NewFromString(input.Amount)
	if err != nil || validateAmount(amount) != nil {
		return nil, domainerrors.Validation("invalid amount")
	}

	existing, err := u.txnRepo.GetByReference(ctx, app.ID, input.ExternalReference)
	if err != nil && err != domainerrors.ErrNotFound {
		return nil, err
	}
	now := time.Now()
	if existing != nil {
		if existing.Completable(now) {
			return existing, nil
		}
		return nil, domainerrors.Conflict("external_reference already settled")
	}

	transactionID, err := crypto.GenerateTransactionID()
	if err != nil {
		return nil, err
	}
	rate := u.configRepo.GetDecimal(ctx, entities.ConfigMerchantFeeRate)
	fee, points := SplitFee(amount, rate)
	expireMin := u.configRepo.GetInt(ctx, entities.ConfigMerchantOrderExpireMin)

	txn := &entities.PaymentTransaction{
		TransactionID:     transactionID,
		MerchantAppID:     app.ID,
		ExternalReference: input.ExternalReference,
		Description:       input.Description,
		Amount:            amount,
		PlatformFee:       fee,
		MerchantPoints:    points,
		Status:            entities.TransactionStatusPending,
		ExpiresAt:         null.TimeFrom(now.Add(time.Duration(expireMin) * time.Minute)),
	}
	if err := u.txnRepo.Create(ctx, txn); err != nil {
		if err == domainerrors.ErrConflict {
			// lost a race with a concurrent identical request
			return u.txnRepo.GetByReference(ctx, app.ID, input.ExternalReference)
		}
		return nil, err
	}
	return txn, nil
}

// Query returns a transaction to its owning merchant. The signature covers
// client_id and transaction_id.
func (u *PaymentUsecase) Query(ctx context.Context, clientID, transactionID, signature string) (*entities.PaymentTransaction, error) {
	app, err := u.appRepo.GetByClientID(ctx, clientID)
	if err != nil {
		if err == domainerrors.ErrNotFound {
			return nil, domainerrors.NotFound("merchant not found")
		}
		return nil, err
	}
	params := map[string]string{"client_id": clientID, "transaction_id": transactionID}
	if !crypto.VerifyHMAC(params, app.SecretKey(), signature) {
		return nil, domainerrors.InvalidSignature()
	}

	txn, err := u.txnRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		if err == domainerrors.ErrNotFound {
			return nil, domainerrors.NotFound("transaction not found")
		}
		return nil, err
	}
	if txn.MerchantAppID != app.ID {
		return nil, domainerrors.NotFound("transaction not found")
	}
	return txn, nil
}

// PayPageView is what the cashier page shows before the payer confirms
type PayPageView struct {
	Transaction *entities.PaymentTransaction `json:"transaction"`
	AppName     string                       `json:"appName"`
	LogoURL     string                       `json:"logoUrl,omitempty"`
}

// GetPayPage loads a payable transaction for the cashier page
func (u *PaymentUsecase) GetPayPage(ctx context.Context, transactionID string) (*PayPageView, error) {
	txn, err := u.txnRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		if err == domainerrors.ErrNotFound {
			return nil, domainerrors.NotFound("transaction not found")
		}
		return nil, err
	}
	app, err := u.appRepo.GetByID(ctx, txn.MerchantAppID)
	if err != nil {
		return nil, err
	}
	return &PayPageView{Transaction: txn, AppName: app.AppName, LogoURL: app.LogoURL}, nil
}

// Confirm settles a pending transaction as the authenticated payer. The
// merchant is credited its points share and a settlement order records the
// movement; the signed webhook fires asynchronously after commit.
func (u *PaymentUsecase) Confirm(ctx context.Context, userID int64, transactionID, pin string) (*entities.PaymentTransaction, error) {
	payerWallet, err := u.walletUC.EnsureWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := u.walletUC.VerifyPIN(ctx, payerWallet, pin); err != nil {
		return nil, err
	}

	var settled *entities.PaymentTransaction
	var app *entities.MerchantApp

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		txn, err := u.txnRepo.GetByTransactionID(u.uow.WithLock(txCtx), transactionID)
		if err != nil {
			return err
		}
		now := time.Now()
		if !txn.Completable(now) {
			if txn.Expired(now) {
				return domainerrors.Expired("transaction has expired")
			}
			return domainerrors.InvalidState("transaction is not payable")
		}

		app, err = u.appRepo.GetByID(txCtx, txn.MerchantAppID)
		if err != nil {
			return err
		}
		if app.UserID == userID {
			return domainerrors.Validation("cannot pay your own transaction")
		}

		merchantWallet, err := u.walletUC.EnsureWallet(txCtx, app.UserID)
		if err != nil {
			return err
		}

		if err := debitWallet(txCtx, u.walletRepo, payerWallet.ID, txn.Amount,
			repositories.CounterDelta{Counter: repositories.CounterTotalPayment, Delta: txn.Amount}); err != nil {
			return err
		}
		if _, err := u.walletRepo.ConditionalAdjust(txCtx, merchantWallet.ID, txn.MerchantPoints,
			repositories.CounterDelta{Counter: repositories.CounterTotalReceive, Delta: txn.MerchantPoints}); err != nil {
			return err
		}

		order := &entities.Order{
			OrderNo:         GenerateOrderNo(now),
			OrderName:       orderNameFor(txn),
			MerchantOrderNo: null.StringFrom(txn.ExternalReference),
			ClientID:        null.StringFrom(app.ClientID),
			PayerUserID:     userID,
			PayeeUserID:     app.UserID,
			Amount:          txn.Amount,
			FeeAmount:       txn.PlatformFee,
			ActualAmount:    txn.MerchantPoints,
			Status:          entities.OrderStatusSuccess,
			OrderType:       entities.OrderTypeOnline,
			Remark:          txn.TransactionID,
			TradeTime:       null.TimeFrom(now),
		}
		if err := u.orderRepo.Create(txCtx, order); err != nil {
			return err
		}

		txn.Status = entities.TransactionStatusCompleted
		txn.PayerUserID = null.Int64From(userID)
		txn.CreditOrderID = null.Int64From(order.ID)
		txn.PaidAt = null.TimeFrom(now)
		if err := u.txnRepo.Update(txCtx, txn); err != nil {
			return err
		}
		settled = txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.walletUC.AccruePayScore(ctx, payerWallet.ID, u.fees.PayScoreDelta(ctx, settled.Amount))

	if app.CallbackURL != "" {
		secretKey := app.SecretKey()
		callbackURL := app.CallbackURL
		u.dispatch(func() { u.sendWebhook(settled, callbackURL, secretKey) })
	}
	return settled, nil
}

func orderNameFor(txn *entities.PaymentTransaction) string {
	if txn.Description != "" {
		return txn.Description
	}
	return "online payment"
}

func (u *PaymentUsecase) sendWebhook(txn *entities.PaymentTransaction, callbackURL, secretKey string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	payload := map[string]string{
		"transaction_id":     txn.TransactionID,
		"external_reference": txn.ExternalReference,
		"amount":             txn.Amount.StringFixed(2),
		"status":             string(txn.Status),
		"paid_at":            strconv.FormatInt(txn.PaidAt.Time.Unix(), 10),
	}
	if err := u.notifier.NotifyWebhook(ctx, callbackURL, payload, secretKey); err != nil {
		logger.Warn(ctx, "payment webhook exhausted retries",
			zap.String("transaction_id", txn.TransactionID), zap.Error(err))
	}
}
