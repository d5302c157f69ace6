package suppliers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mdshared "github.com/bakeops/bakeops/internal/masterdata/shared"
	"github.com/bakeops/bakeops/internal/shared"
)

type memRepo struct {
	items  map[int64]Supplier
	nextID int64
	last   ListFilters
}

func (m *memRepo) List(_ context.Context, tenantID int64, _ mdshared.ListFilters, extra ListFilters) ([]Supplier, int, error) {
	m.last = extra
	var out []Supplier
	for _, s := range m.items {
		if s.TenantID == tenantID {
			out = append(out, s)
		}
	}
	return out, len(out), nil
}

func (m *memRepo) Get(_ context.Context, tenantID, id int64) (Supplier, error) {
	s, ok := m.items[id]
	if !ok || s.TenantID != tenantID {
		return Supplier{}, shared.ErrNotFound
	}
	return s, nil
}

func (m *memRepo) Create(_ context.Context, s Supplier) (Supplier, error) {
	m.nextID++
	s.ID = m.nextID
	m.items[s.ID] = s
	return s, nil
}

func (m *memRepo) Update(_ context.Context, s Supplier) (Supplier, error) {
	m.items[s.ID] = s
	return s, nil
}

func (m *memRepo) Delete(_ context.Context, tenantID, id int64) error {
	if _, err := m.Get(context.Background(), tenantID, id); err != nil {
		return err
	}
	delete(m.items, id)
	return nil
}

func ctxFor(tenantID int64) context.Context {
	return shared.ContextWithPrincipal(context.Background(), shared.Principal{UserID: 5, TenantID: tenantID})
}

func newService() (*Service, *memRepo) {
	repo := &memRepo{items: map[int64]Supplier{}}
	return NewService(repo, nil, nil, nil), repo
}

func TestNormalizeDeliveryDays(t *testing.T) {
	assert.Equal(t, []string{"mon", "wed", "sat"}, NormalizeDeliveryDays([]string{"SAT", " mon", "wed", "mon"}))
	assert.Equal(t, []string{"tue", "xyz"}, NormalizeDeliveryDays([]string{"xyz", "tue"}))
	assert.Empty(t, NormalizeDeliveryDays(nil))
}

func TestCreateSupplierStoresDaysInCalendarOrder(t *testing.T) {
	svc, _ := newService()
	created, err := svc.Create(ctxFor(1), CreateSupplierRequest{
		Name:              "Moulin Bio",
		Email:             "Orders@MoulinBio.test",
		DeliveryDays:      []string{"fri", "Tue", "fri"},
		MinimumOrderCents: 15000,
		DeliveryFeeCents:  1200,
		PaymentTermsDays:  30,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"tue", "fri"}, created.DeliveryDays)
	assert.Equal(t, "orders@moulinbio.test", created.Email)
	assert.True(t, created.IsActive)
	assert.Equal(t, int64(1), created.TenantID)
}

func TestCreateSupplierValidation(t *testing.T) {
	svc, _ := newService()
	_, err := svc.Create(ctxFor(1), CreateSupplierRequest{
		Email:             "nope",
		DeliveryDays:      []string{"funday"},
		MinimumOrderCents: -1,
		PaymentTermsDays:  400,
	})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is required", verr.Fields["name"])
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "delivery_days[0]")
	assert.Contains(t, verr.Fields, "minimum_order_cents")
	assert.Contains(t, verr.Fields, "payment_terms_days")
}

func TestUpdateSupplierPartial(t *testing.T) {
	svc, _ := newService()
	created, err := svc.Create(ctxFor(1), CreateSupplierRequest{Name: "Dairy Co", Email: "hi@dairy.test"})
	require.NoError(t, err)

	days := []string{"sun", "mon"}
	empty := ""
	updated, err := svc.Update(ctxFor(1), created.ID, UpdateSupplierRequest{DeliveryDays: &days, Email: &empty})
	require.NoError(t, err)
	assert.Equal(t, []string{"mon", "sun"}, updated.DeliveryDays)
	assert.Equal(t, "", updated.Email)
	assert.Equal(t, "Dairy Co", updated.Name)

	bad := "not-an-email"
	_, err = svc.Update(ctxFor(1), created.ID, UpdateSupplierRequest{Email: &bad})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestListRejectsUnknownWeekdayFilter(t *testing.T) {
	svc, repo := newService()
	_, err := svc.List(ctxFor(1), mdshared.ListFilters{}, ListFilters{DeliversOn: "someday"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.List(ctxFor(1), mdshared.ListFilters{}, ListFilters{DeliversOn: "wed"})
	require.NoError(t, err)
	assert.Equal(t, "wed", repo.last.DeliversOn)
}

func TestDeleteOtherTenantSupplierIsNotFound(t *testing.T) {
	svc, _ := newService()
	created, err := svc.Create(ctxFor(1), CreateSupplierRequest{Name: "Eggs Ltd"})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Delete(ctxFor(2), created.ID), shared.ErrNotFound)
	assert.NoError(t, svc.Delete(ctxFor(1), created.ID))
}
