package notifications

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vectra-pos/vectra-pos/internal/shared"
	"github.com/vectra-pos/vectra-pos/jobs"
)

type memoryRepo struct {
	notifications []Notification
	lowStock      []LowStockProduct
	alertKeys     map[string]bool
	nextID        int64
}

func (m *memoryRepo) Insert(ctx context.Context, n Notification) (int64, error) {
	if n.AlertKey != "" {
		if m.alertKeys == nil {
			m.alertKeys = make(map[string]bool)
		}
		if m.alertKeys[n.AlertKey] {
			return 0, shared.ErrDuplicate
		}
		m.alertKeys[n.AlertKey] = true
	}
	m.nextID++
	n.ID = m.nextID
	m.notifications = append(m.notifications, n)
	return n.ID, nil
}

func (m *memoryRepo) ListForUser(ctx context.Context, companyID, userID int64, unreadOnly bool, limit int) ([]Notification, error) {
	out := []Notification{}
	for _, n := range m.notifications {
		if n.CompanyID != companyID {
			continue
		}
		if n.UserID != nil && *n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (m *memoryRepo) MarkRead(ctx context.Context, companyID, userID, notificationID int64) error {
	for i := range m.notifications {
		n := &m.notifications[i]
		if n.ID == notificationID && n.CompanyID == companyID && (n.UserID == nil || *n.UserID == userID) {
			n.IsRead = true
			return nil
		}
	}
	return shared.ErrNotFound
}

func (m *memoryRepo) MarkAllRead(ctx context.Context, companyID, userID int64) (int64, error) {
	var updated int64
	for i := range m.notifications {
		n := &m.notifications[i]
		if n.CompanyID == companyID && (n.UserID == nil || *n.UserID == userID) && !n.IsRead {
			n.IsRead = true
			updated++
		}
	}
	return updated, nil
}

func (m *memoryRepo) LowStockProducts(ctx context.Context) ([]LowStockProduct, error) {
	return m.lowStock, nil
}

func TestRecordLowStockAlertPersistsCompanyWideRow(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, slog.Default())

	err := svc.RecordLowStockAlert(context.Background(), jobs.LowStockAlertPayload{
		CompanyID:   10,
		ProductID:   4,
		ProductName: "Cable USB",
		Stock:       2,
		MinStock:    5,
	})
	require.NoError(t, err)
	require.Len(t, repo.notifications, 1)

	n := repo.notifications[0]
	require.Equal(t, TypeLowStock, n.Type)
	require.Nil(t, n.UserID)
	require.NotNil(t, n.ReferenceID)
	require.Equal(t, int64(4), *n.ReferenceID)
	require.Contains(t, n.Message, "Cable USB")
	require.Contains(t, n.Message, "2")
}

func TestRecordLowStockAlertRedeliveryWritesOneRow(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, slog.Default())
	payload := jobs.LowStockAlertPayload{
		CompanyID:   10,
		ProductID:   4,
		ProductName: "Cable USB",
		Stock:       2,
		MinStock:    5,
		AlertKey:    "alert-1",
	}

	// A redelivered task (insert committed, ack lost) carries the same key
	// and must not produce a second notification.
	require.NoError(t, svc.RecordLowStockAlert(context.Background(), payload))
	require.NoError(t, svc.RecordLowStockAlert(context.Background(), payload))
	require.Len(t, repo.notifications, 1)

	// A fresh alert for the same product keeps its own key and lands.
	payload.AlertKey = "alert-2"
	require.NoError(t, svc.RecordLowStockAlert(context.Background(), payload))
	require.Len(t, repo.notifications, 2)
}

func TestRecordLowStockAlertRejectsEmptyPayload(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, slog.Default())
	require.Error(t, svc.RecordLowStockAlert(context.Background(), jobs.LowStockAlertPayload{}))
	require.Empty(t, repo.notifications)
}

func TestSweepRecordsOneAlertPerProduct(t *testing.T) {
	repo := &memoryRepo{lowStock: []LowStockProduct{
		{CompanyID: 10, ProductID: 1, Name: "Cable USB", Stock: 1, MinStock: 5},
		{CompanyID: 11, ProductID: 9, Name: "Pantalla", Stock: 0, MinStock: 3},
	}}
	svc := NewService(repo, slog.Default())

	require.NoError(t, svc.SweepLowStock(context.Background()))
	require.Len(t, repo.notifications, 2)
	require.Equal(t, int64(10), repo.notifications[0].CompanyID)
	require.Equal(t, int64(11), repo.notifications[1].CompanyID)
}

func TestListForUserScopesTenantAndTarget(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, slog.Default())
	otherUser := int64(99)

	_, err := repo.Insert(context.Background(), Notification{CompanyID: 10, Type: TypeLowStock, Title: "a"})
	require.NoError(t, err)
	_, err = repo.Insert(context.Background(), Notification{CompanyID: 10, UserID: &otherUser, Type: TypeSystem, Title: "b"})
	require.NoError(t, err)
	_, err = repo.Insert(context.Background(), Notification{CompanyID: 20, Type: TypeLowStock, Title: "c"})
	require.NoError(t, err)

	out, err := svc.ListForUser(context.Background(), 10, 7, false, 50)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "a", out[0].Title)
}

func TestMarkReadAndMarkAllRead(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, slog.Default())

	id, err := repo.Insert(context.Background(), Notification{CompanyID: 10, Type: TypeLowStock})
	require.NoError(t, err)
	_, err = repo.Insert(context.Background(), Notification{CompanyID: 10, Type: TypeLowStock})
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(context.Background(), 10, 7, id))
	require.ErrorIs(t, svc.MarkRead(context.Background(), 20, 7, id), shared.ErrNotFound)

	updated, err := svc.MarkAllRead(context.Background(), 10, 7)
	require.NoError(t, err)
	require.Equal(t, int64(1), updated)
}
