package rbac

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nusalend/nusalend/internal/authz"
)

type memoryCatalog struct {
	mu         sync.Mutex
	nextPermID int64
	nextRoleID int64
	perms      map[string]Permission
	roles      map[int64]Role
	assigned   map[int64][]string
	userRoles  map[int64][]int64
}

func newMemoryCatalog() *memoryCatalog {
	return &memoryCatalog{
		perms:     make(map[string]Permission),
		roles:     make(map[int64]Role),
		assigned:  make(map[int64][]string),
		userRoles: make(map[int64][]int64),
	}
}

func (m *memoryCatalog) ListPermissions(context.Context) ([]Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Permission, 0, len(m.perms))
	for _, p := range m.perms {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *memoryCatalog) CreatePermission(_ context.Context, code string) (Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.perms[code]; ok {
		return Permission{}, fmt.Errorf("%w: permission %s", ErrDuplicate, code)
	}
	m.nextPermID++
	perm := Permission{ID: m.nextPermID, Code: code}
	m.perms[code] = perm
	return perm, nil
}

func (m *memoryCatalog) ListRoles(ctx context.Context) ([]Role, error) {
	m.mu.Lock()
	ids := make([]int64, 0, len(m.roles))
	for id := range m.roles {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Role, 0, len(ids))
	for _, id := range ids {
		role, err := m.GetRole(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, nil
}

func (m *memoryCatalog) GetRole(_ context.Context, id int64) (Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	role, ok := m.roles[id]
	if !ok {
		return Role{}, ErrNotFound
	}
	perms := make([]Permission, 0, len(m.assigned[id]))
	for _, code := range m.assigned[id] {
		perms = append(perms, m.perms[code])
	}
	role.Permissions = perms
	return role, nil
}

func (m *memoryCatalog) CreateRole(_ context.Context, name string) (Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRoleID++
	role := Role{ID: m.nextRoleID, Name: name, Permissions: []Permission{}}
	m.roles[role.ID] = role
	return role, nil
}

func (m *memoryCatalog) UpdateRole(ctx context.Context, id int64, name string) (Role, error) {
	m.mu.Lock()
	role, ok := m.roles[id]
	if !ok {
		m.mu.Unlock()
		return Role{}, ErrNotFound
	}
	role.Name = name
	m.roles[id] = role
	m.mu.Unlock()
	return m.GetRole(ctx, id)
}

func (m *memoryCatalog) DeleteRole(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[id]; !ok {
		return ErrNotFound
	}
	delete(m.roles, id)
	delete(m.assigned, id)
	return nil
}

func (m *memoryCatalog) ReplaceRolePermissions(_ context.Context, roleID int64, codes []string) ([]Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	perms := make([]Permission, 0, len(codes))
	for _, code := range codes {
		perm, ok := m.perms[code]
		if !ok {
			return nil, fmt.Errorf("%w: permission %s", ErrNotFound, code)
		}
		perms = append(perms, perm)
	}
	m.assigned[roleID] = append([]string(nil), codes...)
	return perms, nil
}

func (m *memoryCatalog) UserGrants(_ context.Context, userID int64) ([]authz.RoleGrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var grants []authz.RoleGrant
	for _, roleID := range m.userRoles[userID] {
		role, ok := m.roles[roleID]
		if !ok {
			continue
		}
		grants = append(grants, authz.RoleGrant{
			Name:        role.Name,
			Permissions: append([]string(nil), m.assigned[roleID]...),
		})
	}
	return grants, nil
}

func seedCatalog(t *testing.T, repo *memoryCatalog, codes ...string) {
	t.Helper()
	for _, code := range codes {
		_, err := repo.CreatePermission(context.Background(), code)
		require.NoError(t, err)
	}
}

func TestCreatePermissionNormalizesCode(t *testing.T) {
	repo := newMemoryCatalog()
	svc := NewService(repo, nil)

	perm, err := svc.CreatePermission(context.Background(), "  read_loan ")
	require.NoError(t, err)
	require.Equal(t, "READ_LOAN", perm.Code)

	_, err = svc.CreatePermission(context.Background(), "READ_LOAN")
	require.ErrorIs(t, err, ErrDuplicate)

	_, err = svc.CreatePermission(context.Background(), "   ")
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateRoleRequiresName(t *testing.T) {
	repo := newMemoryCatalog()
	svc := NewService(repo, nil)

	_, err := svc.CreateRole(context.Background(), " ")
	require.ErrorIs(t, err, ErrValidation)

	role, err := svc.CreateRole(context.Background(), "Back Office")
	require.NoError(t, err)
	require.Equal(t, "Back Office", role.Name)
	require.Empty(t, role.Permissions)
}

func TestAssignPermissionsReplacesWholesale(t *testing.T) {
	repo := newMemoryCatalog()
	svc := NewService(repo, nil)
	seedCatalog(t, repo, authz.PermReadLoan, authz.PermReviewLoan, authz.PermApproveLoan)

	role, err := svc.CreateRole(context.Background(), "Reviewer")
	require.NoError(t, err)

	role, err = svc.AssignPermissions(context.Background(), role.ID, []string{authz.PermReadLoan, authz.PermReviewLoan})
	require.NoError(t, err)
	require.Len(t, role.Permissions, 2)

	// The second assignment is not additive: REVIEW_LOAN is gone afterwards.
	role, err = svc.AssignPermissions(context.Background(), role.ID, []string{authz.PermApproveLoan})
	require.NoError(t, err)
	require.Len(t, role.Permissions, 1)
	require.Equal(t, authz.PermApproveLoan, role.Permissions[0].Code)
}

func TestAssignPermissionsValidatesCodes(t *testing.T) {
	repo := newMemoryCatalog()
	svc := NewService(repo, nil)
	seedCatalog(t, repo, authz.PermReadLoan)

	role, err := svc.CreateRole(context.Background(), "Reviewer")
	require.NoError(t, err)

	_, err = svc.AssignPermissions(context.Background(), role.ID, []string{""})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.AssignPermissions(context.Background(), role.ID, []string{"NO_SUCH_PERMISSION"})
	require.ErrorIs(t, err, ErrNotFound)

	// Duplicates in the request collapse to one assignment.
	role, err = svc.AssignPermissions(context.Background(), role.ID, []string{authz.PermReadLoan, "read_loan "})
	require.NoError(t, err)
	require.Len(t, role.Permissions, 1)
}

func TestAssignPermissionsUnknownRole(t *testing.T) {
	repo := newMemoryCatalog()
	svc := NewService(repo, nil)

	_, err := svc.AssignPermissions(context.Background(), 404, nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGrantsForUser(t *testing.T) {
	repo := newMemoryCatalog()
	svc := NewService(repo, nil)
	seedCatalog(t, repo, authz.PermReadLoan, authz.PermReviewLoan, authz.PermApproveLoan)

	reviewer, err := svc.CreateRole(context.Background(), "Reviewer")
	require.NoError(t, err)
	_, err = svc.AssignPermissions(context.Background(), reviewer.ID, []string{authz.PermReadLoan, authz.PermReviewLoan})
	require.NoError(t, err)

	approver, err := svc.CreateRole(context.Background(), "Approver")
	require.NoError(t, err)
	_, err = svc.AssignPermissions(context.Background(), approver.ID, []string{authz.PermReadLoan, authz.PermApproveLoan})
	require.NoError(t, err)

	repo.userRoles[7] = []int64{reviewer.ID, approver.ID}

	grants, err := svc.GrantsForUser(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, grants, 2)

	p := authz.NewPrincipal(7, "ops", "ops@nusalend.id", grants)
	require.ElementsMatch(t, []string{authz.PermReadLoan, authz.PermReviewLoan, authz.PermApproveLoan}, p.Permissions)
}

func TestConcurrentAssignmentsSerializePerRole(t *testing.T) {
	repo := newMemoryCatalog()
	svc := NewService(repo, nil)
	seedCatalog(t, repo, authz.PermReadLoan, authz.PermReviewLoan)

	role, err := svc.CreateRole(context.Background(), "Reviewer")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		codes := []string{authz.PermReadLoan}
		if i%2 == 1 {
			codes = []string{authz.PermReadLoan, authz.PermReviewLoan}
		}
		wg.Add(1)
		go func(codes []string) {
			defer wg.Done()
			_, err := svc.AssignPermissions(context.Background(), role.ID, codes)
			require.NoError(t, err)
		}(codes)
	}
	wg.Wait()

	// Whichever request won, the result is one of the two complete sets and
	// never an interleaving.
	got, err := svc.GetRole(context.Background(), role.ID)
	require.NoError(t, err)
	codes := make([]string, 0, len(got.Permissions))
	for _, p := range got.Permissions {
		codes = append(codes, p.Code)
	}
	joined := strings.Join(codes, ",")
	require.Contains(t, []string{
		authz.PermReadLoan,
		authz.PermReadLoan + "," + authz.PermReviewLoan,
	}, joined)
}
