package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"b4u/mailer"
	"b4u/models"
	"b4u/providers/pinetwork"
	"b4u/repository"

	"github.com/shopspring/decimal"
)

type memStore struct {
	mu  sync.Mutex
	txs map[string]models.Transaction
}

func newMemStore() *memStore {
	return &memStore{txs: map[string]models.Transaction{}}
}

func (m *memStore) Create(ctx context.Context, tx *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	m.txs[tx.ID] = *tx
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok {
		return nil, repository.ErrTransactionNotFound
	}
	return &tx, nil
}

func (m *memStore) GetByPaymentID(ctx context.Context, paymentID string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byPayment(paymentID); ok {
		tx := m.txs[id]
		return &tx, nil
	}
	return nil, repository.ErrTransactionNotFound
}

func (m *memStore) byPayment(paymentID string) (string, bool) {
	for id, tx := range m.txs {
		if tx.PaymentID != nil && *tx.PaymentID == paymentID {
			return id, true
		}
	}
	return "", false
}

func (m *memStore) ListByUser(ctx context.Context, userID uint, page repository.Page) ([]models.Transaction, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Transaction
	for _, tx := range m.txs {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (m *memStore) Mutate(ctx context.Context, l repository.Lookup, fn func(tx *models.Transaction) error) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := l.ID
	if l.PaymentID != "" {
		var ok bool
		if id, ok = m.byPayment(l.PaymentID); !ok {
			return nil, repository.ErrTransactionNotFound
		}
	}
	tx, ok := m.txs[id]
	if !ok {
		return nil, repository.ErrTransactionNotFound
	}
	if err := fn(&tx); err != nil {
		return nil, err
	}
	if tx.PaymentID != nil {
		if other, ok := m.byPayment(*tx.PaymentID); ok && other != id {
			return nil, repository.ErrDuplicatePaymentID
		}
	}
	m.txs[id] = tx
	return &tx, nil
}

func (m *memStore) StalePending(ctx context.Context, cutoff time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, tx := range m.txs {
		if tx.Status == models.StatusPending && tx.PaymentID == nil && tx.CreatedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *memStore) ProcessingBefore(ctx context.Context, cutoff time.Time, after repository.Cursor, limit int) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Transaction
	for _, tx := range m.txs {
		if tx.Status != models.StatusProcessing || tx.PaymentID == nil || tx.ApprovedAt == nil || !tx.ApprovedAt.Before(cutoff) {
			continue
		}
		if after.ID != "" && afterCursor(tx, after) {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ApprovedAt.Equal(*out[j].ApprovedAt) {
			return out[i].ApprovedAt.Before(*out[j].ApprovedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// afterCursor reports whether tx sorts at or before c.
func afterCursor(tx models.Transaction, c repository.Cursor) bool {
	if tx.ApprovedAt.Equal(c.ApprovedAt) {
		return tx.ID <= c.ID
	}
	return tx.ApprovedAt.Before(c.ApprovedAt)
}

func (m *memStore) status(id string) models.TransactionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.txs[id].Status
}

type memCatalog map[uint]*models.Package

func (c memCatalog) GetByID(ctx context.Context, id uint) (*models.Package, error) {
	if p, ok := c[id]; ok {
		return p, nil
	}
	return nil, repository.ErrPackageNotFound
}

type memUsers map[uint]*models.User

func (u memUsers) GetByID(ctx context.Context, id uint) (*models.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

type fakePi struct {
	mu          sync.Mutex
	payments    map[string]*pinetwork.Payment
	approveErr  error
	completeErr error
	approved    []string
	completed   []string
	cancelled   []string
}

func (f *fakePi) GetPayment(ctx context.Context, paymentID string) (*pinetwork.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.payments[paymentID]; ok {
		return p, nil
	}
	return nil, pinetwork.ErrPaymentNotFound
}

func (f *fakePi) Approve(ctx context.Context, paymentID string) (*pinetwork.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.approveErr != nil {
		return nil, f.approveErr
	}
	f.approved = append(f.approved, paymentID)
	return &pinetwork.Payment{Identifier: paymentID}, nil
}

func (f *fakePi) Complete(ctx context.Context, paymentID, txid string) (*pinetwork.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	f.completed = append(f.completed, paymentID)
	return &pinetwork.Payment{Identifier: paymentID}, nil
}

func (f *fakePi) Cancel(ctx context.Context, paymentID string) (*pinetwork.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, paymentID)
	return &pinetwork.Payment{Identifier: paymentID}, nil
}

type fakeNotifier struct {
	mu           sync.Mutex
	confirmation []mailer.Order
	completed    []mailer.Order
	admin        []mailer.Order
}

func (n *fakeNotifier) SendOrderConfirmation(ctx context.Context, o mailer.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmation = append(n.confirmation, o)
	return nil
}

func (n *fakeNotifier) SendOrderCompleted(ctx context.Context, o mailer.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, o)
	return nil
}

func (n *fakeNotifier) SendAdminNewOrder(ctx context.Context, o mailer.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.admin = append(n.admin, o)
	return nil
}

type countingDeliverer struct {
	mu    sync.Mutex
	count int
}

func (d *countingDeliverer) Deliver(ctx context.Context, tx *models.Transaction, pkg *models.Package) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.count++
	return nil
}

func syncDispatch(fn func(ctx context.Context)) { fn(context.Background()) }

// fixture is a store with one PUBG package ($1.50) and one user with a PUBG
// profile, priced at a fixed $0.50 per Pi.
type fixture struct {
	store     *memStore
	catalog   memCatalog
	users     memUsers
	pi        *fakePi
	notifier  *fakeNotifier
	deliverer *countingDeliverer
	orders    *OrderService
	payments  *PaymentService
}

const (
	fixtureUser    uint = 7
	fixturePackage uint = 1
)

func newFixture() *fixture {
	f := &fixture{
		store: newMemStore(),
		catalog: memCatalog{
			fixturePackage: {Name: "60 UC", Game: models.GamePUBG, Amount: 60, UsdPrice: decimal.RequireFromString("1.50"), Active: true},
			2:              {Name: "86 Diamonds", Game: models.GameMLBB, Amount: 86, UsdPrice: decimal.RequireFromString("1.50"), Active: true},
			3:              {Name: "retired", Game: models.GamePUBG, Amount: 1, UsdPrice: decimal.RequireFromString("1"), Active: false},
		},
		users: memUsers{
			fixtureUser: {
				PiUID:       "pi-7",
				Username:    "pioneer7",
				Email:       "p7@example.com",
				PubgProfile: &models.PubgProfile{PlayerID: "5123456789"},
			},
		},
		pi:        &fakePi{payments: map[string]*pinetwork.Payment{}},
		notifier:  &fakeNotifier{},
		deliverer: &countingDeliverer{},
	}
	f.catalog[fixturePackage].ID = fixturePackage
	f.catalog[2].ID = 2
	f.catalog[3].ID = 3
	f.users[fixtureUser].ID = fixtureUser

	oracle := NewPriceOracle(&fakeFeed{value: decimal.RequireFromString("0.50")}, nil, time.Minute, decimal.RequireFromString("0.5"))

	f.orders = NewOrderService(f.store, f.catalog, f.users, oracle, f.notifier)
	f.orders.dispatch = syncDispatch
	f.payments = NewPaymentService(f.store, f.catalog, f.users, f.pi, f.notifier, f.deliverer)
	f.payments.dispatch = syncDispatch
	return f
}

func (f *fixture) createOrder() *models.Transaction {
	res, err := f.orders.Create(context.Background(), fixtureUser, CreateOrderInput{PackageID: fixturePackage})
	if err != nil {
		panic(err)
	}
	return res.Transaction
}
