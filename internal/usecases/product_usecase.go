package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"credit-ledger.backend/internal/domain/entities"
	domainerrors "credit-ledger.backend/internal/domain/errors"
	"credit-ledger.backend/internal/domain/gateways"
	"credit-ledger.backend/internal/domain/repositories"
	"credit-ledger.backend/pkg/logger"
)

// ProductUsecase is the buyer side of the product store
type ProductUsecase struct {
	walletUC    *WalletUsecase
	walletRepo  repositories.WalletRepository
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	appRepo     repositories.MerchantAppRepository
	fees        *FeeResolver
	uow         repositories.UnitOfWork
	messages    gateways.MessageGateway
}

// NewProductUsecase creates a new product usecase
func NewProductUsecase(
	walletUC *WalletUsecase,
	walletRepo repositories.WalletRepository,
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	appRepo repositories.MerchantAppRepository,
	fees *FeeResolver,
	uow repositories.UnitOfWork,
	messages gateways.MessageGateway,
) *ProductUsecase {
	return &ProductUsecase{
		walletUC:    walletUC,
		walletRepo:  walletRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		appRepo:     appRepo,
		fees:        fees,
		uow:         uow,
		messages:    messages,
	}
}

// GetProduct returns a product for the public store page. Inactive products
// stay visible to their merchant only.
func (u *ProductUsecase) GetProduct(ctx context.Context, userID, productID int64) (*entities.Product, error) {
	product, err := u.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Status != entities.ProductStatusActive {
		app, appErr := u.appRepo.GetByID(ctx, product.MerchantAppID)
		if appErr != nil || app.UserID != userID {
			return nil, domainerrors.NotFound("product not found")
		}
	}
	return product, nil
}

// PurchaseResult is what the buyer gets back after a successful purchase
type PurchaseResult struct {
	Order           *entities.Order `json:"order"`
	CardKey         string          `json:"cardKey,omitempty"`
	DeliveryMessage string          `json:"deliveryMessage,omitempty"`
}

// Buy purchases one unit of a product. Stock, per-user limit and card-key
// reservation all happen inside one locked transaction so concurrent buyers
// cannot oversell.
func (u *ProductUsecase) Buy(ctx context.Context, userID, productID int64, pin string) (*PurchaseResult, error) {
	buyerWallet, err := u.walletUC.EnsureWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := u.walletUC.VerifyPIN(ctx, buyerWallet, pin); err != nil {
		return nil, err
	}

	result := &PurchaseResult{}
	var merchantUserID int64

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		product, err := u.productRepo.GetByID(u.uow.WithLock(txCtx), productID)
		if err != nil {
			return err
		}
		if product.Status != entities.ProductStatusActive {
			return domainerrors.InvalidState("product is not for sale")
		}
		app, err := u.appRepo.GetByID(txCtx, product.MerchantAppID)
		if err != nil {
			return err
		}
		if !app.IsActive {
			return domainerrors.InvalidState("merchant is not accepting payments")
		}
		if app.UserID == userID {
			return domainerrors.Validation("cannot buy your own product")
		}
		merchantUserID = app.UserID

		if product.Stock != entities.UnlimitedStock && product.Stock <= 0 {
			return domainerrors.InvalidState("product is out of stock")
		}
		if product.LimitPerUser > 0 {
			bought, err := u.orderRepo.CountProductPurchases(txCtx, userID, productID)
			if err != nil {
				return err
			}
			if bought >= int64(product.LimitPerUser) {
				return domainerrors.InvalidState("purchase limit reached for this product")
			}
		}

		var cardKey *entities.CardKey
		if product.AutoDelivery {
			cardKey, err = u.productRepo.TakeAvailableCardKey(txCtx, productID)
			if err != nil {
				if err == domainerrors.ErrNotFound {
					return domainerrors.InvalidState("product is out of stock")
				}
				return err
			}
		}

		merchantWallet, err := u.walletUC.EnsureWallet(txCtx, merchantUserID)
		if err != nil {
			return err
		}

		rate := u.fees.Resolve(txCtx, buyerWallet.PayScore, entities.ConfigMerchantFeeRate)
		fee, actual := SplitFee(product.Price, rate)

		if err := debitWallet(txCtx, u.walletRepo, buyerWallet.ID, product.Price,
			repositories.CounterDelta{Counter: repositories.CounterTotalPayment, Delta: product.Price}); err != nil {
			return err
		}
		if _, err := u.walletRepo.ConditionalAdjust(txCtx, merchantWallet.ID, actual,
			repositories.CounterDelta{Counter: repositories.CounterTotalReceive, Delta: actual}); err != nil {
			return err
		}

		now := time.Now()
		order := &entities.Order{
			OrderNo:        GenerateOrderNo(now),
			OrderName:      product.Name,
			PayerUserID:    userID,
			PayeeUserID:    merchantUserID,
			Amount:         product.Price,
			FeeRate:        rate,
			FeeAmount:      fee,
			ActualAmount:   actual,
			Status:         entities.OrderStatusSuccess,
			OrderType:      entities.OrderTypeProduct,
			DeliveryStatus: null.StringFrom(string(entities.DeliveryStatusDelivered)),
			Remark:         entities.ProductRemark(productID) + product.Name,
			TradeTime:      null.TimeFrom(now),
		}
		if err := u.orderRepo.Create(txCtx, order); err != nil {
			return err
		}
		result.Order = order

		// Merchant-side income row for the net amount.
		incomeOrder := &entities.Order{
			OrderNo:      GenerateOrderNo(now),
			OrderName:    "sale of " + product.Name,
			PayerUserID:  entities.SystemUserID,
			PayeeUserID:  merchantUserID,
			Amount:       actual,
			ActualAmount: actual,
			Status:       entities.OrderStatusSuccess,
			OrderType:    entities.OrderTypeReceive,
			Remark:       entities.ProductRemark(productID) + product.Name,
			TradeTime:    null.TimeFrom(now),
		}
		if err := u.orderRepo.Create(txCtx, incomeOrder); err != nil {
			return err
		}

		if product.Stock != entities.UnlimitedStock {
			product.Stock--
		}
		product.SoldCount++
		if err := u.productRepo.Update(txCtx, product); err != nil {
			return err
		}

		if cardKey != nil {
			cardKey.Status = entities.CardKeyStatusSold
			cardKey.BuyerUserID = null.Int64From(userID)
			cardKey.OrderID = null.Int64From(order.ID)
			if err := u.productRepo.UpdateCardKey(txCtx, cardKey); err != nil {
				return err
			}
			result.CardKey = cardKey.CardKey
			result.DeliveryMessage = product.DeliveryMessage
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.walletUC.AccruePayScore(ctx, buyerWallet.ID, u.fees.PayScoreDelta(ctx, result.Order.Amount))

	if result.CardKey != "" {
		u.sendDelivery(ctx, userID, result)
	}
	if err := u.messages.SendPrivateMessage(ctx, merchantUserID, "Product sold",
		fmt.Sprintf("%s sold for %s credits (order %s).", result.Order.OrderName, result.Order.Amount.StringFixed(2), result.Order.OrderNo)); err != nil {
		logger.Warn(ctx, "merchant sale notification failed", zap.Int64("user_id", merchantUserID), zap.Error(err))
	}
	return result, nil
}

func (u *ProductUsecase) sendDelivery(ctx context.Context, userID int64, result *PurchaseResult) {
	body := fmt.Sprintf("Thanks for buying %s.\n\nYour key:\n%s", result.Order.OrderName, result.CardKey)
	if result.DeliveryMessage != "" {
		body += "\n\n" + result.DeliveryMessage
	}
	if err := u.messages.SendPrivateMessage(ctx, userID, "Your purchase", body); err != nil {
		logger.Warn(ctx, "delivery message failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}
