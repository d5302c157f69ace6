package production

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bakeops/bakeops/internal/masterdata/locations"
	"github.com/bakeops/bakeops/internal/masterdata/products"
	"github.com/bakeops/bakeops/internal/shared"
)

type memRepo struct {
	schedules map[int64]Schedule
	items     map[int64][]ItemInput
	nextID    int64
	completed []int64
}

func newMemRepo() *memRepo {
	return &memRepo{schedules: map[int64]Schedule{}, items: map[int64][]ItemInput{}}
}

func (m *memRepo) List(_ context.Context, tenantID int64, f ListFilters) ([]Schedule, int, error) {
	var out []Schedule
	for _, s := range m.schedules {
		if s.TenantID != tenantID || (f.Status != "" && s.Status != f.Status) {
			continue
		}
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *memRepo) Get(_ context.Context, tenantID, id int64) (Schedule, error) {
	s, ok := m.schedules[id]
	if !ok || s.TenantID != tenantID {
		return Schedule{}, fmt.Errorf("production schedule %w", shared.ErrNotFound)
	}
	s.Items = nil
	s.TotalQuantity = 0
	for _, it := range m.items[id] {
		s.Items = append(s.Items, Item{ProductID: it.ProductID, Quantity: it.Quantity, StartTime: it.StartTime})
		s.TotalQuantity += it.Quantity
	}
	s.ItemCount = len(s.Items)
	return s, nil
}

func (m *memRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memRepo) CompletePublishedBefore(_ context.Context, now time.Time) (int64, []int64, error) {
	var completed int64
	seen := map[int64]bool{}
	var tenants []int64
	for id, s := range m.schedules {
		if s.Status == StatusPublished && s.ProductionDate < now.UTC().Format(DateLayout) {
			s.Status = StatusCompleted
			m.schedules[id] = s
			completed++
			if !seen[s.TenantID] {
				seen[s.TenantID] = true
				tenants = append(tenants, s.TenantID)
			}
		}
	}
	return completed, tenants, nil
}

func (m *memRepo) Lock(ctx context.Context, tenantID, id int64) (Schedule, error) {
	return m.Get(ctx, tenantID, id)
}

func (m *memRepo) Insert(_ context.Context, s Schedule) (int64, error) {
	for _, existing := range m.schedules {
		if existing.LocationID == s.LocationID && existing.ProductionDate == s.ProductionDate {
			return 0, fmt.Errorf("%w: production schedule for this location and date already exists", shared.ErrConflict)
		}
	}
	m.nextID++
	s.ID = m.nextID
	m.schedules[s.ID] = s
	return s.ID, nil
}

func (m *memRepo) InsertItems(_ context.Context, id int64, items []ItemInput) error {
	m.items[id] = append(m.items[id], items...)
	return nil
}

func (m *memRepo) DeleteItems(_ context.Context, id int64) error {
	delete(m.items, id)
	return nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id int64, status Status) error {
	s := m.schedules[id]
	s.Status = status
	m.schedules[id] = s
	return nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	delete(m.schedules, id)
	delete(m.items, id)
	return nil
}

type stubLocations map[int64]locations.Location

func (s stubLocations) Get(_ context.Context, id int64) (locations.Location, error) {
	l, ok := s[id]
	if !ok {
		return locations.Location{}, fmt.Errorf("location %w", shared.ErrNotFound)
	}
	return l, nil
}

type stubProducts map[int64]products.Product

func (s stubProducts) Lookup(_ context.Context, _ int64, ids []int64) (map[int64]products.Product, error) {
	out := map[int64]products.Product{}
	for _, id := range ids {
		if p, ok := s[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type countingCache struct{ bumps []int64 }

func (c *countingCache) Bump(_ context.Context, tenantID int64) error {
	c.bumps = append(c.bumps, tenantID)
	return nil
}

// 23:30 UTC on Oct 16 is already Oct 17 in Auckland.
var fixedNow = time.Date(2026, 10, 16, 23, 30, 0, 0, time.UTC)

func newTestService(repo *memRepo, cache shared.CacheInvalidator) *Service {
	locs := stubLocations{
		1: {ID: 1, TenantID: 1, Name: "Main", Timezone: "UTC", IsActive: true},
		2: {ID: 2, TenantID: 1, Name: "Harbour", Timezone: "Pacific/Auckland", IsActive: true},
		3: {ID: 3, TenantID: 1, Name: "Closed", Timezone: "UTC", IsActive: false},
	}
	prods := stubProducts{
		10: {ID: 10, TenantID: 1, Name: "Baguette", IsActive: true},
		11: {ID: 11, TenantID: 1, Name: "Croissant", IsActive: true},
		12: {ID: 12, TenantID: 1, Name: "Retired", IsActive: false},
	}
	svc := NewService(repo, locs, prods, nil, cache, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func tenantCtx() context.Context {
	return shared.ContextWithPrincipal(context.Background(), shared.Principal{UserID: 5, TenantID: 1})
}

func validCreate() CreateScheduleRequest {
	return CreateScheduleRequest{
		LocationID:     1,
		ProductionDate: "2026-10-17",
		Items: []ItemInput{
			{ProductID: 10, Quantity: 120, StartTime: "04:30"},
			{ProductID: 11, Quantity: 80},
		},
	}
}

func TestCreateDraftSchedule(t *testing.T) {
	cache := &countingCache{}
	svc := newTestService(newMemRepo(), cache)

	s, err := svc.Create(tenantCtx(), validCreate())
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, s.Status)
	assert.Equal(t, 200, s.TotalQuantity)
	assert.Equal(t, 2, s.ItemCount)
	require.NotNil(t, s.CreatedBy)
	assert.Equal(t, int64(5), *s.CreatedBy)
	assert.Equal(t, []int64{1}, cache.bumps)
}

func TestCreateRejectsDuplicateLocationDate(t *testing.T) {
	svc := newTestService(newMemRepo(), nil)
	_, err := svc.Create(tenantCtx(), validCreate())
	require.NoError(t, err)

	_, err = svc.Create(tenantCtx(), validCreate())
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(newMemRepo(), nil)

	cases := map[string]struct {
		mutate func(*CreateScheduleRequest)
		field  string
	}{
		"no items":          {func(r *CreateScheduleRequest) { r.Items = []ItemInput{} }, "items"},
		"zero quantity":     {func(r *CreateScheduleRequest) { r.Items[0].Quantity = 0 }, "items[0].quantity"},
		"too many":          {func(r *CreateScheduleRequest) { r.Items[1].Quantity = 10001 }, "items[1].quantity"},
		"bad start":         {func(r *CreateScheduleRequest) { r.Items[0].StartTime = "25:00" }, "items[0].start_time"},
		"duplicate product": {func(r *CreateScheduleRequest) { r.Items[1].ProductID = 10 }, "items"},
		"bad date":          {func(r *CreateScheduleRequest) { r.ProductionDate = "17/10/2026" }, "production_date"},
		"past date":         {func(r *CreateScheduleRequest) { r.ProductionDate = "2026-10-15" }, "production_date"},
		"unknown location":  {func(r *CreateScheduleRequest) { r.LocationID = 99 }, "location_id"},
		"inactive location": {func(r *CreateScheduleRequest) { r.LocationID = 3 }, "location_id"},
		"unknown product":   {func(r *CreateScheduleRequest) { r.Items[1].ProductID = 77 }, "items[1].product_id"},
		"inactive product":  {func(r *CreateScheduleRequest) { r.Items[1].ProductID = 12 }, "items[1].product_id"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := validCreate()
			tc.mutate(&req)
			_, err := svc.Create(tenantCtx(), req)
			var verr *shared.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tc.field)
		})
	}
}

func TestCreateUsesLocationTimezoneForToday(t *testing.T) {
	svc := newTestService(newMemRepo(), nil)

	// Oct 16 is still today in UTC but already yesterday in Auckland.
	req := validCreate()
	req.ProductionDate = "2026-10-16"
	_, err := svc.Create(tenantCtx(), req)
	require.NoError(t, err)

	req.LocationID = 2
	_, err = svc.Create(tenantCtx(), req)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestTransitionStateMachine(t *testing.T) {
	svc := newTestService(newMemRepo(), nil)
	s, err := svc.Create(tenantCtx(), validCreate())
	require.NoError(t, err)

	_, err = svc.Transition(tenantCtx(), s.ID, TransitionRequest{Status: "completed"})
	assert.ErrorIs(t, err, shared.ErrConflict)

	s, err = svc.Transition(tenantCtx(), s.ID, TransitionRequest{Status: "published"})
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, s.Status)

	_, err = svc.ReplaceItems(tenantCtx(), s.ID, ReplaceItemsRequest{Items: []ItemInput{{ProductID: 10, Quantity: 1}}})
	assert.ErrorIs(t, err, shared.ErrConflict)

	assert.ErrorIs(t, svc.Delete(tenantCtx(), s.ID), shared.ErrConflict)

	s, err = svc.Transition(tenantCtx(), s.ID, TransitionRequest{Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, s.Status)

	_, err = svc.Transition(tenantCtx(), s.ID, TransitionRequest{Status: "cancelled"})
	assert.ErrorIs(t, err, shared.ErrConflict)

	_, err = svc.Transition(tenantCtx(), s.ID, TransitionRequest{Status: "draft"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestReplaceItemsAndDeleteDraft(t *testing.T) {
	svc := newTestService(newMemRepo(), nil)
	s, err := svc.Create(tenantCtx(), validCreate())
	require.NoError(t, err)

	s, err = svc.ReplaceItems(tenantCtx(), s.ID, ReplaceItemsRequest{Items: []ItemInput{{ProductID: 11, Quantity: 42}}})
	require.NoError(t, err)
	assert.Equal(t, 42, s.TotalQuantity)
	require.Len(t, s.Items, 1)

	require.NoError(t, svc.Delete(tenantCtx(), s.ID))
	_, err = svc.Get(tenantCtx(), s.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRolloverCompletesPastPublished(t *testing.T) {
	repo := newMemRepo()
	cache := &countingCache{}
	svc := newTestService(repo, cache)
	repo.schedules[1] = Schedule{ID: 1, TenantID: 1, LocationID: 1, ProductionDate: "2026-10-15", Status: StatusPublished}
	repo.schedules[2] = Schedule{ID: 2, TenantID: 1, LocationID: 1, ProductionDate: "2026-10-15", Status: StatusDraft}
	repo.schedules[3] = Schedule{ID: 3, TenantID: 2, LocationID: 4, ProductionDate: "2026-10-17", Status: StatusPublished}

	n, err := svc.RolloverPast(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, StatusCompleted, repo.schedules[1].Status)
	assert.Equal(t, StatusDraft, repo.schedules[2].Status)
	assert.Equal(t, StatusPublished, repo.schedules[3].Status)
	assert.Equal(t, []int64{1}, cache.bumps)
}

func TestRolloverCountsSchedulesNotTenants(t *testing.T) {
	repo := newMemRepo()
	cache := &countingCache{}
	svc := newTestService(repo, cache)
	repo.schedules[1] = Schedule{ID: 1, TenantID: 1, LocationID: 1, ProductionDate: "2026-10-13", Status: StatusPublished}
	repo.schedules[2] = Schedule{ID: 2, TenantID: 1, LocationID: 1, ProductionDate: "2026-10-14", Status: StatusPublished}
	repo.schedules[3] = Schedule{ID: 3, TenantID: 1, LocationID: 2, ProductionDate: "2026-10-15", Status: StatusPublished}

	n, err := svc.RolloverPast(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, []int64{1}, cache.bumps)
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusDraft.CanTransitionTo(StatusPublished))
	assert.True(t, StatusDraft.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusPublished.CanTransitionTo(StatusCompleted))
	assert.True(t, StatusPublished.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusDraft.CanTransitionTo(StatusCompleted))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusDraft))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusPublished))
}
