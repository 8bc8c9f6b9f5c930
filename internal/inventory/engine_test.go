package inventory

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/vectra-pos/vectra-pos/internal/shared"
)

type memoryStock struct {
	products  map[string]*LockedProduct
	movements []Movement
	nextID    int64
}

func newMemoryStock() *memoryStock {
	return &memoryStock{products: make(map[string]*LockedProduct)}
}

func productKey(companyID, productID int64) string {
	return fmt.Sprintf("%d:%d", companyID, productID)
}

func (m *memoryStock) addProduct(p LockedProduct) {
	cp := p
	m.products[productKey(p.CompanyID, p.ID)] = &cp
}

func (m *memoryStock) WithStockTx(ctx context.Context, fn func(context.Context, StockTx) error) error {
	snapshot := m.snapshot()
	if err := fn(ctx, m); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

func (m *memoryStock) ProductMovements(ctx context.Context, companyID, productID int64, limit int) ([]MovementWithUser, error) {
	var out []MovementWithUser
	for _, mv := range m.movements {
		if mv.CompanyID == companyID && mv.ProductID == productID {
			out = append(out, MovementWithUser{Movement: mv})
		}
	}
	return out, nil
}

func (m *memoryStock) ProductForUpdate(ctx context.Context, companyID, productID int64) (LockedProduct, error) {
	p, ok := m.products[productKey(companyID, productID)]
	if !ok {
		return LockedProduct{}, shared.ErrNotFound
	}
	return *p, nil
}

func (m *memoryStock) UpdateProductStock(ctx context.Context, companyID, productID, newStock int64) error {
	p, ok := m.products[productKey(companyID, productID)]
	if !ok {
		return shared.ErrNotFound
	}
	p.Stock = newStock
	return nil
}

func (m *memoryStock) InsertMovement(ctx context.Context, mv Movement) (int64, error) {
	m.nextID++
	mv.ID = m.nextID
	m.movements = append(m.movements, mv)
	return mv.ID, nil
}

type stockSnapshot struct {
	products  map[string]LockedProduct
	movements []Movement
	nextID    int64
}

func (m *memoryStock) snapshot() stockSnapshot {
	products := make(map[string]LockedProduct, len(m.products))
	for k, v := range m.products {
		products[k] = *v
	}
	movements := make([]Movement, len(m.movements))
	copy(movements, m.movements)
	return stockSnapshot{products: products, movements: movements, nextID: m.nextID}
}

func (m *memoryStock) restore(s stockSnapshot) {
	m.products = make(map[string]*LockedProduct, len(s.products))
	for k, v := range s.products {
		cp := v
		m.products[k] = &cp
	}
	m.movements = s.movements
	m.nextID = s.nextID
}

// sumMovements computes the ledger balance for a product.
func (m *memoryStock) sumMovements(companyID, productID int64) int64 {
	var sum int64
	for _, mv := range m.movements {
		if mv.CompanyID == companyID && mv.ProductID == productID {
			sum += mv.Quantity
		}
	}
	return sum
}

func TestApplyMovementWritesLedgerPair(t *testing.T) {
	store := newMemoryStock()
	store.addProduct(LockedProduct{ID: 1, CompanyID: 10, Name: "Cable USB", Stock: 10, MinStock: 5})
	engine := NewEngine(nil)
	ctx := context.Background()

	result, err := engine.Apply(ctx, store, MovementInput{
		CompanyID: 10, ProductID: 1, Delta: -6, Type: MovementSale, UserID: 7,
	})
	require.NoError(t, err)
	require.Equal(t, int64(10), result.PreviousStock)
	require.Equal(t, int64(4), result.NewStock)
	require.True(t, result.LowStock)

	require.Len(t, store.movements, 1)
	mv := store.movements[0]
	require.Equal(t, mv.PreviousStock+mv.Quantity, mv.NewStock)
	require.Equal(t, store.products[productKey(10, 1)].Stock, mv.NewStock)
	require.Equal(t, store.sumMovements(10, 1), int64(-6))
}

func TestApplyMovementRejectsNegativeBalance(t *testing.T) {
	store := newMemoryStock()
	store.addProduct(LockedProduct{ID: 1, CompanyID: 10, Name: "Cargador", Stock: 4, MinStock: 2})
	engine := NewEngine(nil)

	_, err := engine.Apply(context.Background(), store, MovementInput{
		CompanyID: 10, ProductID: 1, Delta: -5, Type: MovementSale, UserID: 7,
	})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	var insufficient *shared.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, "Cargador", insufficient.ProductName)
	require.Equal(t, int64(5), insufficient.Requested)
	require.Equal(t, int64(4), insufficient.Available)

	require.Empty(t, store.movements)
	require.Equal(t, int64(4), store.products[productKey(10, 1)].Stock)
}

func TestApplyMovementTenantScoped(t *testing.T) {
	store := newMemoryStock()
	store.addProduct(LockedProduct{ID: 1, CompanyID: 10, Name: "Pantalla", Stock: 3, MinStock: 1})
	engine := NewEngine(nil)

	// Same product id under another tenant must not resolve.
	_, err := engine.Apply(context.Background(), store, MovementInput{
		CompanyID: 99, ProductID: 1, Delta: 1, Type: MovementPurchase, UserID: 7,
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Equal(t, int64(3), store.products[productKey(10, 1)].Stock)
}

func TestApplyMovementValidation(t *testing.T) {
	engine := NewEngine(nil)
	store := newMemoryStock()

	_, err := engine.Apply(context.Background(), store, MovementInput{CompanyID: 1, ProductID: 1, Delta: 0, Type: MovementAdjustment})
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = engine.Apply(context.Background(), store, MovementInput{CompanyID: 1, ProductID: 1, Delta: 1, Type: MovementType("refund")})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestMovementCounterCountsWritesNotCommits(t *testing.T) {
	reg := prometheus.NewRegistry()
	engine := NewEngine(reg)
	store := newMemoryStock()
	store.addProduct(LockedProduct{ID: 1, CompanyID: 10, Name: "Cable USB", Stock: 5, MinStock: 1})

	err := store.WithStockTx(context.Background(), func(ctx context.Context, tx StockTx) error {
		if _, err := engine.Apply(ctx, tx, MovementInput{
			CompanyID: 10, ProductID: 1, Delta: -1, Type: MovementSale, UserID: 7,
		}); err != nil {
			return err
		}
		return fmt.Errorf("a later step fails")
	})
	require.Error(t, err)
	require.Empty(t, store.movements)

	// The counter tracks ledger writes, not commits: the rolled back
	// movement stays counted.
	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	require.Equal(t, "vectra_stock_movements_total", families[0].GetName())
	require.Equal(t, float64(1), families[0].GetMetric()[0].GetCounter().GetValue())
}

func TestLowStockIsLevelTriggered(t *testing.T) {
	store := newMemoryStock()
	store.addProduct(LockedProduct{ID: 1, CompanyID: 10, Name: "Correa", Stock: 4, MinStock: 5})
	engine := NewEngine(nil)

	// Already under threshold: another decrement still flags low stock.
	result, err := engine.Apply(context.Background(), store, MovementInput{
		CompanyID: 10, ProductID: 1, Delta: -1, Type: MovementSale, UserID: 7,
	})
	require.NoError(t, err)
	require.True(t, result.LowStock)

	alert := result.Alert()
	require.Equal(t, int64(3), alert.Stock)
	require.Equal(t, "Correa", alert.ProductName)
}
