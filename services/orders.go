package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"b4u/models"
	"b4u/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type CreateOrderInput struct {
	PackageID     uint
	GameAccountID string
	GameZoneID    string
}

// PaymentRequest is what the wallet SDK's createPayment needs.
type PaymentRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Memo     string          `json:"memo"`
	Metadata PaymentMetadata `json:"metadata"`
}

type PaymentMetadata struct {
	TransactionID string `json:"transactionId"`
	PackageID     uint   `json:"packageId"`
}

type CreateOrderResult struct {
	Transaction *models.Transaction `json:"transaction"`
	Payment     PaymentRequest      `json:"payment"`
	Quote       Quote               `json:"quote"`
}

type OrderService struct {
	store    TransactionStore
	packages PackageCatalog
	users    UserDirectory
	oracle   *PriceOracle
	notifier Notifier
	dispatch dispatcher
}

func NewOrderService(store TransactionStore, packages PackageCatalog, users UserDirectory, oracle *PriceOracle, notifier Notifier) *OrderService {
	return &OrderService{
		store:    store,
		packages: packages,
		users:    users,
		oracle:   oracle,
		notifier: notifier,
		dispatch: goDispatch,
	}
}

// Create records a PENDING purchase priced at the current Pi rate.
func (s *OrderService) Create(ctx context.Context, userID uint, in CreateOrderInput) (*CreateOrderResult, error) {
	pkg, err := s.packages.GetByID(ctx, in.PackageID)
	if err != nil {
		return nil, err
	}
	if !pkg.Active {
		return nil, ErrPackageUnavailable
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	accountID, zoneID, err := targetAccount(user, pkg.Game, in)
	if err != nil {
		return nil, err
	}

	quote := s.oracle.Current(ctx)
	piAmount, err := ConvertUSDToPi(pkg.UsdPrice, quote.Value)
	if err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		ID:            uuid.New().String(),
		UserID:        user.ID,
		PackageID:     pkg.ID,
		PiAmount:      piAmount,
		UsdAmount:     pkg.UsdPrice,
		PiPriceUsd:    quote.Value,
		PriceSrc:      quote.Source,
		GameAccountID: accountID,
		GameZoneID:    zoneID,
		Status:        models.StatusPending,
		Memo:          fmt.Sprintf("B4U Esports: %s %s", pkg.Name, pkg.Game),
	}
	meta := PaymentMetadata{TransactionID: tx.ID, PackageID: pkg.ID}
	if raw, err := json.Marshal(meta); err == nil {
		tx.Metadata = datatypes.JSON(raw)
	}

	if err := s.store.Create(ctx, tx); err != nil {
		return nil, err
	}
	tx.Package = pkg

	log.Info().
		Str("transaction_id", tx.ID).
		Uint("user_id", user.ID).
		Uint("package_id", pkg.ID).
		Str("pi_amount", piAmount.String()).
		Str("price_source", quote.Source).
		Msg("transaction created")

	mail := orderMail(tx, pkg, user)
	s.dispatch(func(ctx context.Context) {
		if mail.Email != "" {
			if err := s.notifier.SendOrderConfirmation(ctx, mail); err != nil {
				log.Error().Err(err).Str("transaction_id", mail.OrderID).Msg("failed to send order confirmation")
			}
		}
		if err := s.notifier.SendAdminNewOrder(ctx, mail); err != nil {
			log.Error().Err(err).Str("transaction_id", mail.OrderID).Msg("failed to send admin order alert")
		}
	})

	return &CreateOrderResult{
		Transaction: tx,
		Payment:     PaymentRequest{Amount: piAmount, Memo: tx.Memo, Metadata: meta},
		Quote:       quote,
	}, nil
}

// targetAccount resolves the game account that receives the currency. An
// explicit id in the request overrides the saved profile, but the profile
// must exist.
func targetAccount(user *models.User, game models.Game, in CreateOrderInput) (string, string, error) {
	accountID := strings.TrimSpace(in.GameAccountID)
	zoneID := strings.TrimSpace(in.GameZoneID)

	switch game {
	case models.GamePUBG:
		if user.PubgProfile == nil {
			return "", "", ErrProfileRequired
		}
		if accountID == "" {
			accountID = user.PubgProfile.PlayerID
		}
		return accountID, "", nil
	case models.GameMLBB:
		if user.MlbbProfile == nil {
			return "", "", ErrProfileRequired
		}
		if accountID == "" {
			accountID = user.MlbbProfile.GameUserID
			zoneID = user.MlbbProfile.ZoneID
		}
		if zoneID == "" {
			zoneID = user.MlbbProfile.ZoneID
		}
		return accountID, zoneID, nil
	}
	return "", "", ErrPackageUnavailable
}

func (s *OrderService) List(ctx context.Context, userID uint, page repository.Page) ([]models.Transaction, int64, error) {
	return s.store.ListByUser(ctx, userID, page)
}

// Get returns the user's own transaction; other users' ids look missing.
func (s *OrderService) Get(ctx context.Context, userID uint, id string) (*models.Transaction, error) {
	tx, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.UserID != userID {
		return nil, repository.ErrTransactionNotFound
	}
	return tx, nil
}
