package purchases

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vectra-pos/vectra-pos/internal/inventory"
	"github.com/vectra-pos/vectra-pos/internal/shared"
)

type memoryRepo struct {
	products  map[string]*inventory.LockedProduct
	movements []inventory.Movement
	purchases map[int64]*Purchase
	lines     map[int64][]PurchaseLine
	suppliers map[string]bool
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products:  make(map[string]*inventory.LockedProduct),
		purchases: make(map[int64]*Purchase),
		lines:     make(map[int64][]PurchaseLine),
		suppliers: make(map[string]bool),
	}
}

func key(companyID, id int64) string {
	return fmt.Sprintf("%d:%d", companyID, id)
}

func (m *memoryRepo) addProduct(p inventory.LockedProduct) {
	cp := p
	m.products[key(p.CompanyID, p.ID)] = &cp
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Tx) error) error {
	snap := m.snapshot()
	if err := fn(ctx, &memoryTx{repo: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *memoryRepo) GetPurchase(ctx context.Context, companyID, purchaseID int64) (*Purchase, error) {
	p, ok := m.purchases[purchaseID]
	if !ok || p.CompanyID != companyID {
		return nil, shared.ErrNotFound
	}
	cp := *p
	cp.Lines = append([]PurchaseLine(nil), m.lines[purchaseID]...)
	return &cp, nil
}

func (m *memoryRepo) List(ctx context.Context, req ListPurchasesRequest) ([]PurchaseSummary, int, error) {
	return nil, 0, nil
}

type repoSnapshot struct {
	products  map[string]inventory.LockedProduct
	movements []inventory.Movement
	purchases map[int64]Purchase
	lines     map[int64][]PurchaseLine
	nextID    int64
}

func (m *memoryRepo) snapshot() repoSnapshot {
	s := repoSnapshot{
		products:  make(map[string]inventory.LockedProduct, len(m.products)),
		purchases: make(map[int64]Purchase, len(m.purchases)),
		lines:     make(map[int64][]PurchaseLine, len(m.lines)),
		nextID:    m.nextID,
	}
	for k, v := range m.products {
		s.products[k] = *v
	}
	for k, v := range m.purchases {
		s.purchases[k] = *v
	}
	for k, v := range m.lines {
		s.lines[k] = append([]PurchaseLine(nil), v...)
	}
	s.movements = append([]inventory.Movement(nil), m.movements...)
	return s
}

func (m *memoryRepo) restore(s repoSnapshot) {
	m.products = make(map[string]*inventory.LockedProduct, len(s.products))
	for k, v := range s.products {
		cp := v
		m.products[k] = &cp
	}
	m.purchases = make(map[int64]*Purchase, len(s.purchases))
	for k, v := range s.purchases {
		cp := v
		m.purchases[k] = &cp
	}
	m.lines = make(map[int64][]PurchaseLine, len(s.lines))
	for k, v := range s.lines {
		m.lines[k] = append([]PurchaseLine(nil), v...)
	}
	m.movements = s.movements
	m.nextID = s.nextID
}

type memoryTx struct {
	repo *memoryRepo
}

func (t *memoryTx) Stock() inventory.StockTx { return t }

func (t *memoryTx) ProductForUpdate(ctx context.Context, companyID, productID int64) (inventory.LockedProduct, error) {
	p, ok := t.repo.products[key(companyID, productID)]
	if !ok {
		return inventory.LockedProduct{}, shared.ErrNotFound
	}
	return *p, nil
}

func (t *memoryTx) UpdateProductStock(ctx context.Context, companyID, productID, newStock int64) error {
	p, ok := t.repo.products[key(companyID, productID)]
	if !ok {
		return shared.ErrNotFound
	}
	p.Stock = newStock
	return nil
}

func (t *memoryTx) InsertMovement(ctx context.Context, mv inventory.Movement) (int64, error) {
	t.repo.nextID++
	mv.ID = t.repo.nextID
	t.repo.movements = append(t.repo.movements, mv)
	return mv.ID, nil
}

func (t *memoryTx) InsertPurchaseHeader(ctx context.Context, p Purchase) (int64, error) {
	t.repo.nextID++
	p.ID = t.repo.nextID
	p.Status = PurchaseStatusCompleted
	t.repo.purchases[p.ID] = &p
	return p.ID, nil
}

func (t *memoryTx) InsertPurchaseLine(ctx context.Context, line PurchaseLine) error {
	t.repo.lines[line.PurchaseID] = append(t.repo.lines[line.PurchaseID], line)
	return nil
}

func (t *memoryTx) UpdatePurchaseTotals(ctx context.Context, purchaseID int64, subtotal, total float64) error {
	p, ok := t.repo.purchases[purchaseID]
	if !ok {
		return shared.ErrNotFound
	}
	p.Subtotal = subtotal
	p.TotalAmount = total
	return nil
}

func (t *memoryTx) PurchaseForUpdate(ctx context.Context, companyID, purchaseID int64) (*Purchase, error) {
	p, ok := t.repo.purchases[purchaseID]
	if !ok || p.CompanyID != companyID {
		return nil, shared.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (t *memoryTx) PurchaseLines(ctx context.Context, purchaseID int64) ([]PurchaseLine, error) {
	return append([]PurchaseLine(nil), t.repo.lines[purchaseID]...), nil
}

func (t *memoryTx) MarkCancelled(ctx context.Context, purchaseID int64) error {
	p, ok := t.repo.purchases[purchaseID]
	if !ok {
		return shared.ErrNotFound
	}
	p.Status = PurchaseStatusCancelled
	return nil
}

func (t *memoryTx) SupplierExists(ctx context.Context, companyID, supplierID int64) (bool, error) {
	return t.repo.suppliers[key(companyID, supplierID)], nil
}

type recordingNotifier struct {
	alerts []inventory.LowStockAlert
}

func (n *recordingNotifier) NotifyLowStock(ctx context.Context, alert inventory.LowStockAlert) error {
	n.alerts = append(n.alerts, alert)
	return nil
}

func newTestService(repo *memoryRepo, notifier inventory.LowStockNotifier) *Service {
	return NewService(repo, inventory.NewEngine(nil), notifier, nil, slog.Default())
}

var principal = shared.Principal{UserID: 7, CompanyID: 10}

func TestCreatePurchaseAddsStockAndComputesTotals(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(inventory.LockedProduct{ID: 1, CompanyID: 10, Name: "Cable USB", Stock: 5, MinStock: 2})
	repo.addProduct(inventory.LockedProduct{ID: 2, CompanyID: 10, Name: "Cargador", Stock: 0, MinStock: 2})
	repo.suppliers[key(10, 3)] = true
	notifier := &recordingNotifier{}
	svc := newTestService(repo, notifier)

	result, err := svc.Create(context.Background(), principal, CreatePurchaseRequest{
		SupplierID: 3,
		Tax:        4,
		Lines: []CreatePurchaseLineRequest{
			{ProductID: 1, Quantity: 10, UnitCost: 8},
			{ProductID: 2, Quantity: 5, UnitCost: 20},
		},
	})
	require.NoError(t, err)

	// 10*8 + 5*20 = 180 subtotal; total = 180 + 4.
	require.Equal(t, float64(180), result.Subtotal)
	require.Equal(t, float64(184), result.TotalAmount)

	require.Equal(t, int64(15), repo.products[key(10, 1)].Stock)
	require.Equal(t, int64(5), repo.products[key(10, 2)].Stock)
	require.Len(t, repo.movements, 2)
	for _, mv := range repo.movements {
		require.Equal(t, inventory.MovementPurchase, mv.Type)
		require.Positive(t, mv.Quantity)
	}
	// Incoming stock never alerts, even when the balance stays under min_stock.
	require.Empty(t, notifier.alerts)
}

func TestCreatePurchaseUnknownSupplierRollsBack(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(inventory.LockedProduct{ID: 1, CompanyID: 10, Name: "Cable USB", Stock: 5, MinStock: 2})
	svc := newTestService(repo, nil)

	_, err := svc.Create(context.Background(), principal, CreatePurchaseRequest{
		SupplierID: 99,
		Lines:      []CreatePurchaseLineRequest{{ProductID: 1, Quantity: 10, UnitCost: 8}},
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Equal(t, int64(5), repo.products[key(10, 1)].Stock)
	require.Empty(t, repo.purchases)
	require.Empty(t, repo.movements)
}

func TestCreatePurchaseValidation(t *testing.T) {
	repo := newMemoryRepo()
	repo.suppliers[key(10, 3)] = true
	svc := newTestService(repo, nil)

	_, err := svc.Create(context.Background(), principal, CreatePurchaseRequest{
		SupplierID: 3,
		Lines:      []CreatePurchaseLineRequest{{ProductID: 1, Quantity: 0, UnitCost: 8}},
	})
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.Create(context.Background(), principal, CreatePurchaseRequest{
		SupplierID: 3,
		Lines:      []CreatePurchaseLineRequest{{ProductID: 1, Quantity: 2, UnitCost: 0}},
	})
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.Create(context.Background(), principal, CreatePurchaseRequest{SupplierID: 3})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestCancelPurchaseReversesStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(inventory.LockedProduct{ID: 1, CompanyID: 10, Name: "Cable USB", Stock: 5, MinStock: 2})
	repo.suppliers[key(10, 3)] = true
	svc := newTestService(repo, nil)

	result, err := svc.Create(context.Background(), principal, CreatePurchaseRequest{
		SupplierID: 3,
		Lines:      []CreatePurchaseLineRequest{{ProductID: 1, Quantity: 10, UnitCost: 8}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(15), repo.products[key(10, 1)].Stock)

	require.NoError(t, svc.Cancel(context.Background(), principal, result.PurchaseID))
	require.Equal(t, int64(5), repo.products[key(10, 1)].Stock)
	require.Equal(t, PurchaseStatusCancelled, repo.purchases[result.PurchaseID].Status)
	require.Len(t, repo.movements, 2)
}

func TestCancelPurchaseFailsWhenGoodsAlreadySold(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(inventory.LockedProduct{ID: 1, CompanyID: 10, Name: "Cable USB", Stock: 0, MinStock: 2})
	repo.suppliers[key(10, 3)] = true
	svc := newTestService(repo, nil)

	result, err := svc.Create(context.Background(), principal, CreatePurchaseRequest{
		SupplierID: 3,
		Lines:      []CreatePurchaseLineRequest{{ProductID: 1, Quantity: 10, UnitCost: 8}},
	})
	require.NoError(t, err)

	// Simulate the received goods being sold before the cancellation.
	repo.products[key(10, 1)].Stock = 3

	err = svc.Cancel(context.Background(), principal, result.PurchaseID)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	// The failed reversal leaves the purchase completed and stock untouched.
	require.Equal(t, PurchaseStatusCompleted, repo.purchases[result.PurchaseID].Status)
	require.Equal(t, int64(3), repo.products[key(10, 1)].Stock)
	require.Len(t, repo.movements, 1)
}

func TestCancelPurchaseTwiceFails(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(inventory.LockedProduct{ID: 1, CompanyID: 10, Name: "Cable USB", Stock: 5, MinStock: 2})
	repo.suppliers[key(10, 3)] = true
	svc := newTestService(repo, nil)

	result, err := svc.Create(context.Background(), principal, CreatePurchaseRequest{
		SupplierID: 3,
		Lines:      []CreatePurchaseLineRequest{{ProductID: 1, Quantity: 10, UnitCost: 8}},
	})
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(context.Background(), principal, result.PurchaseID))

	err = svc.Cancel(context.Background(), principal, result.PurchaseID)
	require.ErrorIs(t, err, shared.ErrAlreadyCancelled)
	require.Len(t, repo.movements, 2)
}

func TestCancelPurchaseNotifiesWhenReversalLandsLow(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(inventory.LockedProduct{ID: 1, CompanyID: 10, Name: "Pantalla", Stock: 2, MinStock: 5})
	repo.suppliers[key(10, 3)] = true
	notifier := &recordingNotifier{}
	svc := newTestService(repo, notifier)

	result, err := svc.Create(context.Background(), principal, CreatePurchaseRequest{
		SupplierID: 3,
		Lines:      []CreatePurchaseLineRequest{{ProductID: 1, Quantity: 10, UnitCost: 80}},
	})
	require.NoError(t, err)
	require.Empty(t, notifier.alerts)

	require.NoError(t, svc.Cancel(context.Background(), principal, result.PurchaseID))
	require.Len(t, notifier.alerts, 1)
	require.Equal(t, int64(2), notifier.alerts[0].Stock)
}
