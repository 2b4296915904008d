package repository

import (
	"context"
	"errors"
	"os/exec"
	"sync"
	"testing"
	"time"

	"b4u/database"
	"b4u/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func checkDockerAvailable() bool {
	return exec.Command("docker", "info").Run() == nil
}

// setupTestDB starts a PostgreSQL container and migrates the schema.
// Skips the test if Docker is not available.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("b4u"),
		tcpostgres.WithUsername("b4u"),
		tcpostgres.WithPassword("b4u"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedPackages(db))
	return db
}

func newTransaction(userID, packageID uint) *models.Transaction {
	return &models.Transaction{
		ID:         uuid.New().String(),
		UserID:     userID,
		PackageID:  packageID,
		PiAmount:   decimal.RequireFromString("3"),
		UsdAmount:  decimal.RequireFromString("1.50"),
		PiPriceUsd: decimal.RequireFromString("0.5"),
		Status:     models.StatusPending,
	}
}

func TestRepositories(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	users := NewUserRepository(db)
	packages := NewPackageRepository(db)
	txs := NewTransactionRepository(db)

	user, err := users.UpsertByPiUID(ctx, "pi-uid-1", "pioneer")
	require.NoError(t, err)

	pubg, err := packages.List(ctx, models.GamePUBG)
	require.NoError(t, err)
	require.NotEmpty(t, pubg)
	pkg := pubg[0]

	t.Run("users", func(t *testing.T) {
		again, err := users.UpsertByPiUID(ctx, "pi-uid-1", "renamed")
		require.NoError(t, err)
		assert.Equal(t, user.ID, again.ID)
		assert.Equal(t, "renamed", again.Username)

		_, err = users.SavePubgProfile(ctx, user.ID, "5123456789", "Ace")
		require.NoError(t, err)
		_, err = users.SavePubgProfile(ctx, user.ID, "5999999999", "Ace")
		require.NoError(t, err)
		_, err = users.SaveMlbbProfile(ctx, user.ID, "12345678", "2001", "")
		require.NoError(t, err)

		got, err := users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, got.PubgProfile)
		assert.Equal(t, "5999999999", got.PubgProfile.PlayerID)
		require.NotNil(t, got.MlbbProfile)
		assert.Equal(t, "2001", got.MlbbProfile.ZoneID)

		_, err = users.GetByID(ctx, 9999)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("concurrent first login", func(t *testing.T) {
		const logins = 8
		ids := make([]uint, logins)
		errs := make([]error, logins)

		var wg sync.WaitGroup
		for i := 0; i < logins; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				u, err := users.UpsertByPiUID(ctx, "pi-uid-race", "racer")
				errs[i] = err
				if err == nil {
					ids[i] = u.ID
				}
			}(i)
		}
		wg.Wait()

		for i := 0; i < logins; i++ {
			require.NoError(t, errs[i])
			assert.Equal(t, ids[0], ids[i])
		}
	})

	t.Run("packages", func(t *testing.T) {
		all, err := packages.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, len(database.DefaultPackages()))

		require.NoError(t, database.SeedPackages(db))
		again, err := packages.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, again, len(all))

		_, err = packages.GetByID(ctx, 9999)
		assert.ErrorIs(t, err, ErrPackageNotFound)
	})

	t.Run("transaction lifecycle", func(t *testing.T) {
		tx := newTransaction(user.ID, pkg.ID)
		require.NoError(t, txs.Create(ctx, tx))

		_, err := txs.GetByPaymentID(ctx, "pay-1")
		assert.ErrorIs(t, err, ErrTransactionNotFound)

		paymentID := "pay-1"
		_, err = txs.Mutate(ctx, ByID(tx.ID), func(row *models.Transaction) error {
			row.PaymentID = &paymentID
			row.Status = models.StatusProcessing
			return nil
		})
		require.NoError(t, err)

		got, err := txs.GetByPaymentID(ctx, paymentID)
		require.NoError(t, err)
		assert.Equal(t, tx.ID, got.ID)
		assert.Equal(t, models.StatusProcessing, got.Status)
		assert.True(t, got.PiAmount.Equal(decimal.NewFromInt(3)))

		boom := errors.New("boom")
		_, err = txs.Mutate(ctx, ByPaymentID(paymentID), func(row *models.Transaction) error {
			row.Status = models.StatusCompleted
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err = txs.GetByID(ctx, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusProcessing, got.Status)
	})

	t.Run("duplicate payment id", func(t *testing.T) {
		first := newTransaction(user.ID, pkg.ID)
		second := newTransaction(user.ID, pkg.ID)
		require.NoError(t, txs.Create(ctx, first))
		require.NoError(t, txs.Create(ctx, second))

		paymentID := "pay-dup"
		set := func(row *models.Transaction) error {
			row.PaymentID = &paymentID
			return nil
		}
		_, err := txs.Mutate(ctx, ByID(first.ID), set)
		require.NoError(t, err)
		_, err = txs.Mutate(ctx, ByID(second.ID), set)
		assert.ErrorIs(t, err, ErrDuplicatePaymentID)
	})

	t.Run("sweeps", func(t *testing.T) {
		stale := newTransaction(user.ID, pkg.ID)
		stale.CreatedAt = time.Now().Add(-2 * time.Hour)
		fresh := newTransaction(user.ID, pkg.ID)
		require.NoError(t, txs.Create(ctx, stale))
		require.NoError(t, txs.Create(ctx, fresh))

		ids, err := txs.StalePending(ctx, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.Contains(t, ids, stale.ID)
		assert.NotContains(t, ids, fresh.ID)

		stuck := newTransaction(user.ID, pkg.ID)
		require.NoError(t, txs.Create(ctx, stuck))
		paymentID := "pay-stuck"
		approved := time.Now().Add(-time.Hour)
		_, err = txs.Mutate(ctx, ByID(stuck.ID), func(row *models.Transaction) error {
			row.PaymentID = &paymentID
			row.Status = models.StatusProcessing
			row.ApprovedAt = &approved
			return nil
		})
		require.NoError(t, err)

		processing, err := txs.ProcessingBefore(ctx, time.Now().Add(-30*time.Minute), Cursor{}, 10)
		require.NoError(t, err)
		require.Len(t, processing, 1)
		assert.Equal(t, stuck.ID, processing[0].ID)

		later := newTransaction(user.ID, pkg.ID)
		require.NoError(t, txs.Create(ctx, later))
		laterPayment := "pay-stuck-later"
		laterApproved := approved.Add(time.Minute)
		_, err = txs.Mutate(ctx, ByID(later.ID), func(row *models.Transaction) error {
			row.PaymentID = &laterPayment
			row.Status = models.StatusProcessing
			row.ApprovedAt = &laterApproved
			return nil
		})
		require.NoError(t, err)

		first, err := txs.ProcessingBefore(ctx, time.Now(), Cursor{}, 1)
		require.NoError(t, err)
		require.Len(t, first, 1)
		assert.Equal(t, stuck.ID, first[0].ID)

		next, err := txs.ProcessingBefore(ctx, time.Now(), CursorOf(first[0]), 1)
		require.NoError(t, err)
		require.Len(t, next, 1)
		assert.Equal(t, later.ID, next[0].ID)

		rest, err := txs.ProcessingBefore(ctx, time.Now(), CursorOf(next[0]), 1)
		require.NoError(t, err)
		assert.Empty(t, rest)
	})

	t.Run("listing and stats", func(t *testing.T) {
		list, total, err := txs.ListByUser(ctx, user.ID, Page{Page: 1, Limit: 2})
		require.NoError(t, err)
		assert.Len(t, list, 2)
		assert.GreaterOrEqual(t, total, int64(5))

		processing, _, err := txs.List(ctx, TransactionFilter{Status: models.StatusProcessing}, Page{})
		require.NoError(t, err)
		for _, tx := range processing {
			assert.Equal(t, models.StatusProcessing, tx.Status)
		}

		stats, err := txs.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), stats.TotalUsers)
		assert.Equal(t, total, stats.TotalTransactions)
		assert.True(t, stats.CompletedUsd.IsZero())
	})
}

func TestPriceHistory(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	prices := NewPriceRepository(db)

	_, err := prices.Latest(ctx)
	assert.ErrorIs(t, err, ErrPriceNotFound)

	require.NoError(t, prices.Append(ctx, decimal.RequireFromString("0.71"), "coingecko"))
	require.NoError(t, prices.Append(ctx, decimal.RequireFromString("0.73"), "coingecko"))

	latest, err := prices.Latest(ctx)
	require.NoError(t, err)
	assert.True(t, latest.Value.Equal(decimal.RequireFromString("0.73")))

	removed, err := prices.PruneBefore(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
}

func TestSettingsAndConsent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	settings := NewSettingRepository(db)

	_, err := settings.Get(ctx, "maintenance")
	assert.ErrorIs(t, err, ErrSettingNotFound)

	_, err = settings.Put(ctx, "maintenance", datatypes.JSON(`{"enabled":false}`))
	require.NoError(t, err)
	s, err := settings.Put(ctx, "maintenance", datatypes.JSON(`{"enabled":true}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"enabled":true}`, string(s.Value))

	var count int64
	require.NoError(t, db.Model(&models.Setting{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	consents := NewConsentRepository(db)
	entry := &models.ConsentLog{ConsentType: "cookies", Accepted: true}
	require.NoError(t, consents.Create(ctx, entry))
	assert.NotZero(t, entry.ID)
}
