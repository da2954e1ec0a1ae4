package usecases

import (
	"context"
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
	"credit-ledger.backend/pkg/redis"
)

// legacy gateway payment channels accepted on submit
var legacyPaymentTypes = map[string]bool{
	"credit": true,
	"alipay": true,
	"wxpay":  true,
	"qqpay":  true,
}

// GatewayUsecase implements the legacy form-POST merchant protocol. Requests
// authenticate with an MD5 signature over the sorted form fields plus the
// merchant's client secret.
type GatewayUsecase struct {
	walletUC    *WalletUsecase
	walletRepo  repositories.WalletRepository
	orderRepo   repositories.OrderRepository
	appRepo     repositories.MerchantAppRepository
	configRepo  repositories.ConfigRepository
	fees        *FeeResolver
	uow         repositories.UnitOfWork
	notifyStore *redis.NotifyStore
	notifier    *notify.Notifier

	// dispatch runs the post-settlement merchant notify; tests swap it for
	// a synchronous call
	dispatch func(func())
}

// NewGatewayUsecase creates a new legacy gateway usecase
func NewGatewayUsecase(
	walletUC *WalletUsecase,
	walletRepo repositories.WalletRepository,
	orderRepo repositories.OrderRepository,
	appRepo repositories.MerchantAppRepository,
	configRepo repositories.ConfigRepository,
	fees *FeeResolver,
	uow repositories.UnitOfWork,
	notifyStore *redis.NotifyStore,
	notifier *notify.Notifier,
) *GatewayUsecase {
	return &GatewayUsecase{
		walletUC:    walletUC,
		walletRepo:  walletRepo,
		orderRepo:   orderRepo,
		appRepo:     appRepo,
		configRepo:  configRepo,
		fees:        fees,
		uow:         uow,
		notifyStore: notifyStore,
		notifier:    notifier,
		dispatch:    func(f func()) { go f() },
	}
}

// SubmitOrder validates a merchant's signed create-order form and opens a
// pending order for the payer to confirm at the cashier page. Resubmitting
// the same out_trade_no while the first order is still payable returns that
// order; a settled out_trade_no conflicts.
func (u *GatewayUsecase) SubmitOrder(ctx context.Context, params map[string]string) (*entities.Order, error) {
	pid := params["pid"]
	payType := params["type"]
	outTradeNo := params["out_trade_no"]
	name := params["name"]
	money := params["money"]
	sign := params["sign"]
	if pid == "" || outTradeNo == "" || name == "" || money == "" || sign == "" {
		return nil, domainerrors.Validation("missing required parameter")
	}
	if !legacyPaymentTypes[payType] {
		return nil, domainerrors.Validation("unsupported payment type")
	}

	app, err := u.appRepo.GetActiveByClientID(ctx, pid)
	if err != nil {
		if err == domainerrors.ErrNotFound {
			return nil, domainerrors.NotFound("merchant not found")
		}
		return nil, err
	}
	if !u.verifyLegacySign(params, app.ClientSecret, sign) {
		return nil, domainerrors.InvalidSignature()
	}

	amount, err := decimal.NewFromString(money)
	if err != nil || validateAmount(amount) != nil {
		return nil, domainerrors.Validation("invalid amount")
	}

	existing, err := u.orderRepo.GetByMerchantRef(ctx, app.ClientID, outTradeNo)
	if err != nil && err != domainerrors.ErrNotFound {
		return nil, err
	}
	now := time.Now()
	if existing != nil {
		if existing.Status == entities.OrderStatusPending && !existing.Expired(now) {
			return existing, nil
		}
		return nil, domainerrors.Conflict("out_trade_no already used")
	}

	expireMin := u.configRepo.GetInt(ctx, entities.ConfigMerchantOrderExpireMin)
	order := &entities.Order{
		OrderNo:         GenerateOrderNo(now),
		OrderName:       name,
		MerchantOrderNo: null.StringFrom(outTradeNo),
		ClientID:        null.StringFrom(app.ClientID),
		PayeeUserID:     app.UserID,
		Amount:          amount,
		Status:          entities.OrderStatusPending,
		OrderType:       entities.OrderTypePayment,
		PaymentType:     payType,
		ExpiresAt:       null.TimeFrom(now.Add(time.Duration(expireMin) * time.Minute)),
	}
	if err := u.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	urls := &redis.NotifyURLs{NotifyURL: params["notify_url"], ReturnURL: params["return_url"]}
	if err := u.notifyStore.Save(ctx, order.ID, urls); err != nil {
		logger.Warn(ctx, "notify url save failed", zap.Int64("order_id", order.ID), zap.Error(err))
	}
	return order, nil
}

// authenticate checks the merchant key for the server-to-server endpoints
func (u *GatewayUsecase) authenticate(ctx context.Context, pid, key string) (*entities.MerchantApp, error) {
	if pid == "" || key == "" {
		return nil, domainerrors.Unauthorized("merchant credentials required")
	}
	app, err := u.appRepo.GetByClientCredentials(ctx, pid, key)
	if err != nil {
		if err == domainerrors.ErrNotFound {
			return nil, domainerrors.Unauthorized("invalid merchant credentials")
		}
		return nil, err
	}
	return app, nil
}

// Query returns the merchant's view of an order by out_trade_no
func (u *GatewayUsecase) Query(ctx context.Context, pid, key, outTradeNo string) (*entities.Order, error) {
	app, err := u.authenticate(ctx, pid, key)
	if err != nil {
		return nil, err
	}
	order, err := u.orderRepo.GetByMerchantRef(ctx, app.ClientID, outTradeNo)
	if err != nil {
		if err == domainerrors.ErrNotFound {
			return nil, domainerrors.NotFound("order not found")
		}
		return nil, err
	}
	return order, nil
}

// Refund reverses a settled gateway order at the merchant's request. Full
// amount only: the merchant gives back what actually arrived and the payer
// recovers the whole charge.
func (u *GatewayUsecase) Refund(ctx context.Context, pid, key, outTradeNo, money string) (*entities.Order, error) {
	app, err := u.authenticate(ctx, pid, key)
	if err != nil {
		return nil, err
	}

	var refunded *entities.Order
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		order, err := u.orderRepo.GetByMerchantRef(u.uow.WithLock(txCtx), app.ClientID, outTradeNo)
		if err != nil {
			if err == domainerrors.ErrNotFound {
				return domainerrors.NotFound("order not found")
			}
			return err
		}
		if order.Status != entities.OrderStatusSuccess {
			return domainerrors.InvalidState("only successful orders can be refunded")
		}
		if !order.OrderType.Refundable() {
			return domainerrors.InvalidState("this order type cannot be refunded")
		}
		if money != "" {
			requested, perr := decimal.NewFromString(money)
			if perr != nil || !requested.Equal(order.Amount) {
				return domainerrors.Validation("partial refunds are not supported")
			}
		}

		payeeWallet, err := u.walletUC.EnsureWallet(txCtx, order.PayeeUserID)
		if err != nil {
			return err
		}
		payerWallet, err := u.walletUC.EnsureWallet(txCtx, order.PayerUserID)
		if err != nil {
			return err
		}
		if order.PayeeReceived() && order.ActualAmount.IsPositive() {
			if err := u.walletRepo.ClampedAdjust(txCtx, payeeWallet.ID, order.ActualAmount.Neg()); err != nil {
				return err
			}
		}
		if _, err := u.walletRepo.ConditionalAdjust(txCtx, payerWallet.ID, order.Amount,
			repositories.CounterDelta{Counter: repositories.CounterTotalReceive, Delta: order.Amount}); err != nil {
			return err
		}
		if err := u.orderRepo.UpdateStatus(txCtx, order.ID, entities.OrderStatusRefunded); err != nil {
			return err
		}
		order.Status = entities.OrderStatusRefunded
		refunded = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "gateway order refunded", zap.String("order_no", refunded.OrderNo), zap.String("client_id", app.ClientID))
	return refunded, nil
}

// GetOrder returns a pending gateway order for the cashier page
func (u *GatewayUsecase) GetOrder(ctx context.Context, orderNo string) (*entities.Order, error) {
	order, err := u.orderRepo.GetByOrderNo(ctx, orderNo)
	if err != nil {
		if err == domainerrors.ErrNotFound {
			return nil, domainerrors.NotFound("order not found")
		}
		return nil, err
	}
	if order.OrderType != entities.OrderTypePayment || !order.ClientID.Valid {
		return nil, domainerrors.NotFound("order not found")
	}
	return order, nil
}

// ConfirmResult carries the settled order plus the merchant redirect target
type ConfirmResult struct {
	Order     *entities.Order `json:"order"`
	ReturnURL string          `json:"returnUrl,omitempty"`
}

// Confirm settles a pending gateway order as the authenticated payer. The
// merchant notify fires asynchronously after commit.
func (u *GatewayUsecase) Confirm(ctx context.Context, userID int64, orderNo, pin string) (*ConfirmResult, error) {
	payerWallet, err := u.walletUC.EnsureWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := u.walletUC.VerifyPIN(ctx, payerWallet, pin); err != nil {
		return nil, err
	}

	var settled *entities.Order
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		order, err := u.orderRepo.GetByOrderNo(u.uow.WithLock(txCtx), orderNo)
		if err != nil {
			return err
		}
		if order.Status != entities.OrderStatusPending {
			return domainerrors.InvalidState("order is not payable")
		}
		now := time.Now()
		if order.Expired(now) {
			return domainerrors.Expired("order has expired")
		}
		if order.PayeeUserID == userID {
			return domainerrors.Validation("cannot pay your own order")
		}

		payeeWallet, err := u.walletUC.EnsureWallet(txCtx, order.PayeeUserID)
		if err != nil {
			return err
		}

		rate := u.fees.Resolve(txCtx, payerWallet.PayScore, entities.ConfigMerchantFeeRate)
		fee, actual := SplitFee(order.Amount, rate)

		if err := debitWallet(txCtx, u.walletRepo, payerWallet.ID, order.Amount,
			repositories.CounterDelta{Counter: repositories.CounterTotalPayment, Delta: order.Amount}); err != nil {
			return err
		}
		if _, err := u.walletRepo.ConditionalAdjust(txCtx, payeeWallet.ID, actual,
			repositories.CounterDelta{Counter: repositories.CounterTotalReceive, Delta: actual}); err != nil {
			return err
		}

		order.PayerUserID = userID
		order.FeeRate = rate
		order.FeeAmount = fee
		order.ActualAmount = actual
		order.Status = entities.OrderStatusSuccess
		order.TradeTime = null.TimeFrom(now)
		if err := u.orderRepo.Update(txCtx, order); err != nil {
			return err
		}
		settled = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.walletUC.AccruePayScore(ctx, payerWallet.ID, u.fees.PayScoreDelta(ctx, settled.Amount))

	urls, err := u.notifyStore.Load(ctx, settled.ID)
	if err != nil {
		logger.Warn(ctx, "notify url load failed", zap.Int64("order_id", settled.ID), zap.Error(err))
	}
	result := &ConfirmResult{Order: settled}
	if urls != nil {
		result.ReturnURL = urls.ReturnURL
		if urls.NotifyURL != "" {
			u.dispatch(func() { u.sendNotify(settled, urls.NotifyURL) })
		}
	}
	return result, nil
}

// sendNotify posts the settlement callback to the merchant. Errors are
// already logged with retries inside the notifier.
func (u *GatewayUsecase) sendNotify(order *entities.Order, notifyURL string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	app, err := u.appRepo.GetByClientID(ctx, order.ClientID.String)
	if err != nil {
		logger.Warn(ctx, "merchant lookup for notify failed",
			zap.String("client_id", order.ClientID.String), zap.Error(err))
		return
	}
	params := map[string]string{
		"pid":          app.ClientID,
		"trade_no":     order.OrderNo,
		"out_trade_no": order.MerchantOrderNo.String,
		"type":         order.PaymentType,
		"name":         order.OrderName,
		"money":        order.Amount.StringFixed(2),
		"trade_status": "TRADE_SUCCESS",
	}
	if err := u.notifier.NotifyLegacy(ctx, notifyURL, params, app.ClientSecret); err != nil {
		logger.Warn(ctx, "merchant notify exhausted retries",
			zap.String("order_no", order.OrderNo), zap.Error(err))
	} else {
		u.clearNotifyURLs(ctx, order.ID)
	}
}

func (u *GatewayUsecase) clearNotifyURLs(ctx context.Context, orderID int64) {
	if err := u.notifyStore.Delete(ctx, orderID); err != nil {
		logger.Warn(ctx, "notify url cleanup failed", zap.Int64("order_id", orderID), zap.Error(err))
	}
}

func (u *GatewayUsecase) verifyLegacySign(params map[string]string, secret, signature string) bool {
	filtered := make(map[string]string, len(params))
	for _, k := range []string{"pid", "type", "out_trade_no", "notify_url", "return_url", "name", "money", "device"} {
		if v, ok := params[k]; ok {
			filtered[k] = v
		}
	}
	return crypto.VerifyMD5(filtered, secret, signature)
}
