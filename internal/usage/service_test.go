package usage

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	rows      map[string]*Record
	listCalls int
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[string]*Record)}
}

func rowKey(companyID int64, resource ResourceType, period time.Time) string {
	return fmt.Sprintf("%d:%s:%s", companyID, resource, period.Format("2006-01"))
}

func (m *memoryRepo) Increment(ctx context.Context, companyID int64, resource ResourceType, period time.Time) (int64, error) {
	row, ok := m.rows[rowKey(companyID, resource, period)]
	if !ok {
		m.nextID++
		row = &Record{ID: m.nextID, CompanyID: companyID, ResourceType: resource, UsagePeriod: period}
		m.rows[rowKey(companyID, resource, period)] = row
	}
	row.Quantity++
	return row.Quantity, nil
}

func (m *memoryRepo) Decrement(ctx context.Context, companyID int64, resource ResourceType, period time.Time) (int64, error) {
	row, ok := m.rows[rowKey(companyID, resource, period)]
	if !ok {
		m.nextID++
		row = &Record{ID: m.nextID, CompanyID: companyID, ResourceType: resource, UsagePeriod: period}
		m.rows[rowKey(companyID, resource, period)] = row
	}
	if row.Quantity > 0 {
		row.Quantity--
	}
	return row.Quantity, nil
}

func (m *memoryRepo) List(ctx context.Context, companyID int64, period time.Time) ([]Record, error) {
	m.listCalls++
	records := []Record{}
	for _, row := range m.rows {
		if row.CompanyID == companyID && row.UsagePeriod.Equal(period) {
			records = append(records, *row)
		}
	}
	return records, nil
}

func newTestService(t *testing.T, repo Repository) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewService(repo, client, slog.Default()), mr
}

func TestCurrentPeriodIsFirstOfMonthUTC(t *testing.T) {
	loc, err := time.LoadLocation("America/Mexico_City")
	require.NoError(t, err)

	now := time.Date(2025, 3, 17, 22, 45, 0, 0, loc)
	period := CurrentPeriod(now)
	require.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), period)
	require.Equal(t, time.UTC, period.Location())
}

func TestRegisterAccumulatesWithinPeriod(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	q, err := svc.Register(ctx, 10, ResourceProducts)
	require.NoError(t, err)
	require.Equal(t, int64(1), q)

	q, err = svc.Register(ctx, 10, ResourceProducts)
	require.NoError(t, err)
	require.Equal(t, int64(2), q)
}

func TestReleaseFloorsAtZero(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, 10, ResourceProducts)
	require.NoError(t, err)

	q, err := svc.Release(ctx, 10, ResourceProducts)
	require.NoError(t, err)
	require.Equal(t, int64(0), q)

	// Releasing past zero stays at zero.
	q, err = svc.Release(ctx, 10, ResourceProducts)
	require.NoError(t, err)
	require.Equal(t, int64(0), q)
}

func TestPeriodResetStartsFreshCounter(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	svc.now = func() time.Time { return time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC) }
	q, err := svc.Register(ctx, 10, ResourceProducts)
	require.NoError(t, err)
	require.Equal(t, int64(1), q)

	// Next month: the counter starts over instead of carrying the old total.
	svc.now = func() time.Time { return time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC) }
	q, err = svc.Register(ctx, 10, ResourceProducts)
	require.NoError(t, err)
	require.Equal(t, int64(1), q)
}

func TestSummaryServedFromCache(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, 10, ResourceProducts)
	require.NoError(t, err)

	first, err := svc.Summary(ctx, 10)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, 1, repo.listCalls)

	// Second read hits redis, not the repository.
	second, err := svc.Summary(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.listCalls)
}

func TestCounterWriteInvalidatesSummaryCache(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, 10, ResourceProducts)
	require.NoError(t, err)
	_, err = svc.Summary(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, repo.listCalls)

	_, err = svc.Register(ctx, 10, ResourceProducts)
	require.NoError(t, err)

	records, err := svc.Summary(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 2, repo.listCalls)
	require.Equal(t, int64(2), records[0].Quantity)
}

func TestSummaryFallsBackWhenRedisDown(t *testing.T) {
	repo := newMemoryRepo()
	svc, mr := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, 10, ResourceProducts)
	require.NoError(t, err)

	mr.Close()

	records, err := svc.Summary(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
}
