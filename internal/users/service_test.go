package users

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bakeops/bakeops/internal/auth"
	"github.com/bakeops/bakeops/internal/rbac"
	"github.com/bakeops/bakeops/internal/shared"
)

type account struct {
	id    int64
	email string
	name  string
}

type memRepo struct {
	accounts  map[string]account
	members   map[[2]int64]Member
	locations map[int64]bool
	nextID    int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		accounts:  map[string]account{},
		members:   map[[2]int64]Member{},
		locations: map[int64]bool{7: true, 8: false},
	}
}

func (m *memRepo) List(_ context.Context, tenantID int64, f ListFilters) ([]Member, int, error) {
	var out []Member
	for _, mem := range m.members {
		if mem.TenantID != tenantID || (f.Role != "" && mem.Role != f.Role) {
			continue
		}
		out = append(out, mem)
	}
	return out, len(out), nil
}

func (m *memRepo) Get(_ context.Context, tenantID, userID int64) (Member, error) {
	mem, ok := m.members[[2]int64{tenantID, userID}]
	if !ok {
		return Member{}, fmt.Errorf("user %w", shared.ErrNotFound)
	}
	return mem, nil
}

func (m *memRepo) Create(_ context.Context, nm NewMember) (Member, bool, error) {
	acc, exists := m.accounts[nm.Email]
	if exists {
		if _, ok := m.members[[2]int64{nm.TenantID, acc.id}]; ok {
			return Member{}, false, fmt.Errorf("%w: user is already a member of this tenant", shared.ErrConflict)
		}
	} else {
		m.nextID++
		acc = account{id: m.nextID, email: nm.Email, name: nm.Name}
		m.accounts[nm.Email] = acc
	}
	mem := Member{
		UserID:     acc.id,
		TenantID:   nm.TenantID,
		Email:      acc.email,
		Name:       acc.name,
		Role:       nm.Role,
		LocationID: nm.LocationID,
		IsActive:   true,
		JoinedAt:   time.Now(),
	}
	m.members[[2]int64{nm.TenantID, acc.id}] = mem
	return mem, !exists, nil
}

func (m *memRepo) UpdateMembership(_ context.Context, next Member) (Member, error) {
	key := [2]int64{next.TenantID, next.UserID}
	current, ok := m.members[key]
	if !ok {
		return Member{}, fmt.Errorf("user %w", shared.ErrNotFound)
	}
	owners := 0
	for _, mem := range m.members {
		if mem.TenantID == next.TenantID && mem.activeOwner() {
			owners++
		}
	}
	if removesLastOwner(current, next, owners) {
		return Member{}, ErrLastOwner
	}
	m.members[key] = next
	return next, nil
}

func (m *memRepo) LocationActive(_ context.Context, _ int64, id int64) (bool, error) {
	return m.locations[id], nil
}

type mailRecorder struct{ sent []shared.Mail }

func (r *mailRecorder) EnqueueMail(_ context.Context, m shared.Mail) error {
	r.sent = append(r.sent, m)
	return nil
}

func actorCtx(tenantID int64, role rbac.Role) context.Context {
	ctx := shared.ContextWithPrincipal(context.Background(), shared.Principal{UserID: 1, TenantID: tenantID})
	return rbac.ContextWithRole(ctx, role)
}

type bumpCounter struct{ tenants []int64 }

func (b *bumpCounter) Bump(_ context.Context, tenantID int64) error {
	b.tenants = append(b.tenants, tenantID)
	return nil
}

func newTestService(repo Repository, mail shared.MailQueue) *Service {
	svc := NewService(repo, nil, nil, mail, nil)
	svc.hash = func(p string) (string, error) { return "hashed:" + p, nil }
	return svc
}

func createReq(email string, role rbac.Role) CreateUserRequest {
	return CreateUserRequest{Email: email, Name: "Baker Bob", Password: "rye-bread-1", Role: string(role)}
}

func TestCreateNewUserQueuesWelcomeMail(t *testing.T) {
	mail := &mailRecorder{}
	svc := newTestService(newMemRepo(), mail)

	m, err := svc.Create(actorCtx(1, rbac.RoleAdmin), createReq(" Bob@Example.com ", rbac.RoleBaker))
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", m.Email)
	assert.Equal(t, rbac.RoleBaker, m.Role)

	require.Len(t, mail.sent, 1)
	assert.Equal(t, shared.MailTemplateWelcome, mail.sent[0].Template)
	assert.Equal(t, true, mail.sent[0].Data["NewAccount"])
}

func TestCreateExistingAccountAddsMembershipOnly(t *testing.T) {
	repo := newMemRepo()
	mail := &mailRecorder{}
	svc := newTestService(repo, mail)

	first, err := svc.Create(actorCtx(1, rbac.RoleOwner), createReq("bob@example.com", rbac.RoleBaker))
	require.NoError(t, err)

	second, err := svc.Create(actorCtx(2, rbac.RoleOwner), createReq("bob@example.com", rbac.RoleStaff))
	require.NoError(t, err)
	assert.Equal(t, first.UserID, second.UserID)
	assert.Len(t, repo.accounts, 1)
	assert.Equal(t, false, mail.sent[1].Data["NewAccount"])

	_, err = svc.Create(actorCtx(2, rbac.RoleOwner), createReq("bob@example.com", rbac.RoleStaff))
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestOnlyOwnersAssignOwner(t *testing.T) {
	svc := newTestService(newMemRepo(), nil)

	_, err := svc.Create(actorCtx(1, rbac.RoleAdmin), createReq("co@example.com", rbac.RoleOwner))
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.Create(actorCtx(1, rbac.RoleOwner), createReq("co@example.com", rbac.RoleOwner))
	assert.NoError(t, err)
}

func TestCreateValidatesLocationAndRole(t *testing.T) {
	svc := newTestService(newMemRepo(), nil)
	ctx := actorCtx(1, rbac.RoleOwner)

	req := createReq("a@example.com", rbac.RoleStaff)
	inactive := int64(8)
	req.LocationID = &inactive
	_, err := svc.Create(ctx, req)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "location_id")

	req = createReq("a@example.com", "chef")
	_, err = svc.Create(ctx, req)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "role")

	req = createReq("a@example.com", rbac.RoleStaff)
	req.Password = "short"
	_, err = svc.Create(ctx, req)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "password")
}

func TestCreateRejectsPasswordOverBcryptLimit(t *testing.T) {
	svc := newTestService(newMemRepo(), nil)
	ctx := actorCtx(1, rbac.RoleOwner)

	req := createReq("long@example.com", rbac.RoleStaff)
	req.Password = strings.Repeat("é", 40)
	_, err := svc.Create(ctx, req)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be at most 72 bytes", verr.Fields["password"])

	svc.hash = auth.HashPassword
	req.Password = strings.Repeat("é", 36)
	_, err = svc.Create(ctx, req)
	assert.NoError(t, err)
}

func TestMemberWritesBumpTenantCache(t *testing.T) {
	cache := &bumpCounter{}
	svc := NewService(newMemRepo(), nil, cache, nil, nil)
	svc.hash = func(p string) (string, error) { return "hashed:" + p, nil }
	ctx := actorCtx(3, rbac.RoleOwner)

	m, err := svc.Create(ctx, createReq("bob@example.com", rbac.RoleBaker))
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, cache.tenants)

	inactive := false
	_, err = svc.UpdateMembership(ctx, m.UserID, UpdateMembershipRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 3}, cache.tenants)

	_, err = svc.Create(ctx, createReq("bob@example.com", rbac.RoleBaker))
	assert.ErrorIs(t, err, shared.ErrConflict)
	assert.Len(t, cache.tenants, 2)
}

func TestLastOwnerCannotBeDemotedOrDeactivated(t *testing.T) {
	svc := newTestService(newMemRepo(), nil)
	ctx := actorCtx(1, rbac.RoleOwner)
	owner, err := svc.Create(ctx, createReq("owner@example.com", rbac.RoleOwner))
	require.NoError(t, err)

	admin := "admin"
	_, err = svc.UpdateMembership(ctx, owner.UserID, UpdateMembershipRequest{Role: &admin})
	assert.ErrorIs(t, err, shared.ErrConflict)

	off := false
	_, err = svc.UpdateMembership(ctx, owner.UserID, UpdateMembershipRequest{IsActive: &off})
	assert.ErrorIs(t, err, shared.ErrConflict)

	_, err = svc.Create(ctx, createReq("second@example.com", rbac.RoleOwner))
	require.NoError(t, err)
	updated, err := svc.UpdateMembership(ctx, owner.UserID, UpdateMembershipRequest{Role: &admin})
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleAdmin, updated.Role)
}

func TestAdminCannotTouchOwnerMembership(t *testing.T) {
	svc := newTestService(newMemRepo(), nil)
	owner, err := svc.Create(actorCtx(1, rbac.RoleOwner), createReq("owner@example.com", rbac.RoleOwner))
	require.NoError(t, err)

	staff := "staff"
	_, err = svc.UpdateMembership(actorCtx(1, rbac.RoleAdmin), owner.UserID, UpdateMembershipRequest{Role: &staff})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestUpdateMembershipClearsLocation(t *testing.T) {
	svc := newTestService(newMemRepo(), nil)
	ctx := actorCtx(1, rbac.RoleOwner)
	req := createReq("baker@example.com", rbac.RoleBaker)
	loc := int64(7)
	req.LocationID = &loc
	m, err := svc.Create(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, m.LocationID)

	zero := int64(0)
	updated, err := svc.UpdateMembership(ctx, m.UserID, UpdateMembershipRequest{LocationID: &zero})
	require.NoError(t, err)
	assert.Nil(t, updated.LocationID)
}

type fixedRole rbac.Role

func (f fixedRole) ResolveRole(context.Context, int64, int64) (rbac.Role, error) {
	return rbac.Role(f), nil
}

func newRouter(svc *Service, role rbac.Role) http.Handler {
	h := NewHandler(nil, svc, rbac.Middleware{Resolver: fixedRole(role)})
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.ContextWithPrincipal(r.Context(), shared.Principal{UserID: 1, TenantID: 1})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	r.Route("/users", h.MountRoutes)
	return r
}

func TestUserRoutesEnforcePermissions(t *testing.T) {
	svc := newTestService(newMemRepo(), nil)
	body := `{"email":"new@example.com","name":"New","password":"sourdough","role":"staff"}`

	rr := httptest.NewRecorder()
	newRouter(svc, rbac.RoleManager).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body)))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	newRouter(svc, rbac.RoleAdmin).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "password")

	rr = httptest.NewRecorder()
	newRouter(svc, rbac.RoleManager).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users?role=staff", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "new@example.com")

	rr = httptest.NewRecorder()
	newRouter(svc, rbac.RoleManager).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users?role=chef", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	newRouter(svc, rbac.RoleBaker).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
