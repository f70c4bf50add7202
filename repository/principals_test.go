package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bytebard/go-auth"
	"github.com/bytebard/go-auth/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, repository.EnsureSchema(context.Background(), db))
	return db
}

func newPrincipal(email string) *auth.Principal {
	return &auth.Principal{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: "hash",
		Status:       auth.StatusActive,
		CreatedAt:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func createPrincipal(t *testing.T, store *repository.Principals, email string, role auth.RoleName) *auth.Principal {
	t.Helper()
	p, err := store.CreatePrincipal(context.Background(), newPrincipal(email), role)
	require.NoError(t, err)
	require.NotZero(t, p.ID)
	return p
}

func TestEnsureSchema_IsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, repository.EnsureSchema(ctx, db))

	count, err := db.NewSelect().Model((*repository.RoleModel)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(auth.GetAllRoles()), count)
}

func TestPrincipals_CreateAndFind(t *testing.T) {
	db := newTestDB(t)
	store := repository.NewPrincipals(db)
	ctx := context.Background()

	created := createPrincipal(t, store, "Jane@Example.com", auth.RoleManager)
	assert.True(t, created.HasRole("MANAGER"))

	t.Run("by id", func(t *testing.T) {
		found, err := store.FindPrincipalByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Jane@Example.com", found.Email)
		assert.Equal(t, "hash", found.PasswordHash)
		assert.Equal(t, auth.StatusActive, found.Status)
		assert.Equal(t, []string{"MANAGER"}, found.Roles.Names())
	})

	t.Run("by email ignoring case", func(t *testing.T) {
		found, err := store.FindPrincipalByIdentifier(ctx, "  jane@example.COM ")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, []string{"ROLE_MANAGER"}, found.Authorities())
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := store.FindPrincipalByID(ctx, 9999)
		assert.True(t, auth.IsNotFound(err))
	})

	t.Run("missing email", func(t *testing.T) {
		_, err := store.FindPrincipalByIdentifier(ctx, "nobody@example.com")
		assert.True(t, auth.IsNotFound(err))
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := store.CreatePrincipal(ctx, newPrincipal("Jane@Example.com"), auth.RoleEmployee)
		require.Error(t, err)
		assert.True(t, repository.IsConflict(err))
	})
}

func TestPrincipals_AssignRole(t *testing.T) {
	db := newTestDB(t)
	store := repository.NewPrincipals(db)
	ctx := context.Background()

	p := createPrincipal(t, store, "multi@example.com", auth.RoleEmployee)
	require.NoError(t, store.AssignRole(ctx, p.ID, auth.RoleAdmin))

	found, err := store.FindPrincipalByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ADMIN", "EMPLOYEE"}, found.Roles.Names())
}

func TestPrincipals_SavePrincipal(t *testing.T) {
	db := newTestDB(t)
	store := repository.NewPrincipals(db)
	ctx := context.Background()

	p := createPrincipal(t, store, "save@example.com", auth.RoleEmployee)
	p.PasswordHash = "new-hash"
	p.Status = auth.StatusInactive
	require.NoError(t, store.SavePrincipal(ctx, p))

	found, err := store.FindPrincipalByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", found.PasswordHash)
	assert.Equal(t, auth.StatusInactive, found.Status)
	assert.Equal(t, []string{"EMPLOYEE"}, found.Roles.Names())

	missing := newPrincipal("ghost@example.com")
	missing.ID = 4242
	assert.True(t, auth.IsNotFound(store.SavePrincipal(ctx, missing)))
}

func TestPrincipals_ExistsByEmailAndRole(t *testing.T) {
	db := newTestDB(t)
	store := repository.NewPrincipals(db)
	ctx := context.Background()

	createPrincipal(t, store, "admin@emp.com", auth.RoleAdmin)

	ok, err := store.ExistsByEmailAndRole(ctx, "ADMIN@emp.com", auth.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.ExistsByEmailAndRole(ctx, "admin@emp.com", auth.RoleManager)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.ExistsByEmailAndRole(ctx, "other@emp.com", auth.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPrincipals_Listing(t *testing.T) {
	db := newTestDB(t)
	store := repository.NewPrincipals(db)
	departments := repository.NewDepartments(db)
	ctx := context.Background()

	manager := createPrincipal(t, store, "manager@example.com", auth.RoleManager)
	engineer := createPrincipal(t, store, "engineer@example.com", auth.RoleEmployee)
	seller := createPrincipal(t, store, "seller@example.com", auth.RoleEmployee)
	helper := createPrincipal(t, store, "helper@example.com", auth.RoleEmployee)
	loner := createPrincipal(t, store, "loner@example.com", auth.RoleManager)

	eng, err := departments.Create(ctx, "Engineering")
	require.NoError(t, err)
	sales, err := departments.Create(ctx, "Sales")
	require.NoError(t, err)
	ops, err := departments.Create(ctx, "Operations")
	require.NoError(t, err)

	require.NoError(t, departments.AddMember(ctx, eng.ID, manager.ID))
	require.NoError(t, departments.AddMember(ctx, ops.ID, manager.ID))
	require.NoError(t, departments.AddMember(ctx, eng.ID, engineer.ID))
	require.NoError(t, departments.AddMember(ctx, sales.ID, seller.ID))
	require.NoError(t, departments.AddMember(ctx, eng.ID, helper.ID))
	require.NoError(t, departments.AddMember(ctx, ops.ID, helper.ID))

	ids := func(list []*auth.Principal) []int64 {
		out := make([]int64, 0, len(list))
		for _, p := range list {
			out = append(out, p.ID)
		}
		return out
	}

	t.Run("all users paged", func(t *testing.T) {
		first, err := store.ListPrincipals(ctx, auth.NewPage(0, 2))
		require.NoError(t, err)
		assert.Equal(t, []int64{manager.ID, engineer.ID}, ids(first))
		assert.Equal(t, []string{"MANAGER"}, first[0].Roles.Names())

		last, err := store.ListPrincipals(ctx, auth.NewPage(2, 2))
		require.NoError(t, err)
		assert.Equal(t, []int64{loner.ID}, ids(last))

		empty, err := store.ListPrincipals(ctx, auth.NewPage(10, 2))
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("sharing departments without duplicates", func(t *testing.T) {
		list, err := store.ListPrincipalsSharingDepartments(ctx, manager.ID, auth.NewPage(0, 10))
		require.NoError(t, err)
		assert.Equal(t, []int64{manager.ID, engineer.ID, helper.ID}, ids(list))
	})

	t.Run("manager without departments sees nobody", func(t *testing.T) {
		list, err := store.ListPrincipalsSharingDepartments(ctx, loner.ID, auth.NewPage(0, 10))
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("department membership", func(t *testing.T) {
		shared, err := departments.DepartmentsShared(ctx, manager.ID, helper.ID)
		require.NoError(t, err)
		assert.True(t, shared)

		shared, err = departments.DepartmentsShared(ctx, manager.ID, seller.ID)
		require.NoError(t, err)
		assert.False(t, shared)

		shared, err = departments.DepartmentsShared(ctx, loner.ID, loner.ID)
		require.NoError(t, err)
		assert.False(t, shared)

		got, err := departments.MemberDepartments(ctx, helper.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{eng.ID, ops.ID}, got)
	})

	t.Run("remove member", func(t *testing.T) {
		require.NoError(t, departments.RemoveMember(ctx, eng.ID, engineer.ID))
		shared, err := departments.DepartmentsShared(ctx, manager.ID, engineer.ID)
		require.NoError(t, err)
		assert.False(t, shared)
	})
}

func TestDepartments_CreateRequiresName(t *testing.T) {
	db := newTestDB(t)
	store := repository.NewDepartments(db)

	for _, name := range []string{"  ", "HR", " ab "} {
		_, err := store.Create(context.Background(), name)
		assert.Error(t, err, name)
		assert.False(t, repository.IsConflict(err))
	}
}

func TestDepartments_Admin(t *testing.T) {
	db := newTestDB(t)
	principals := repository.NewPrincipals(db)
	store := repository.NewDepartments(db)
	ctx := context.Background()

	eng, err := store.Create(ctx, " Engineering ")
	require.NoError(t, err)
	assert.Equal(t, "Engineering", eng.Name)
	sales, err := store.Create(ctx, "Sales")
	require.NoError(t, err)

	t.Run("get", func(t *testing.T) {
		got, err := store.Get(ctx, eng.ID)
		require.NoError(t, err)
		assert.Equal(t, eng, got)

		_, err = store.Get(ctx, 9999)
		assert.True(t, auth.IsNotFound(err))
	})

	t.Run("list paged", func(t *testing.T) {
		first, err := store.List(ctx, auth.NewPage(0, 1))
		require.NoError(t, err)
		require.Len(t, first, 1)
		assert.Equal(t, eng.ID, first[0].ID)

		all, err := store.List(ctx, auth.NewPage(0, 10))
		require.NoError(t, err)
		assert.Len(t, all, 2)

		empty, err := store.List(ctx, auth.NewPage(5, 10))
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("duplicate names conflict", func(t *testing.T) {
		_, err := store.Create(ctx, "Sales")
		assert.True(t, repository.IsConflict(err))

		_, err = store.Update(ctx, sales.ID, "Engineering")
		assert.True(t, repository.IsConflict(err))
	})

	t.Run("update", func(t *testing.T) {
		renamed, err := store.Update(ctx, sales.ID, "  Field Sales ")
		require.NoError(t, err)
		assert.Equal(t, "Field Sales", renamed.Name)

		got, err := store.Get(ctx, sales.ID)
		require.NoError(t, err)
		assert.Equal(t, "Field Sales", got.Name)

		_, err = store.Update(ctx, 9999, "Nowhere")
		assert.True(t, auth.IsNotFound(err))

		_, err = store.Update(ctx, sales.ID, "HR")
		assert.Error(t, err)
		assert.False(t, auth.IsNotFound(err))
	})

	t.Run("delete drops memberships", func(t *testing.T) {
		alice := createPrincipal(t, principals, "alice@example.com", auth.RoleManager)
		bob := createPrincipal(t, principals, "bob@example.com", auth.RoleEmployee)
		require.NoError(t, store.AddMember(ctx, eng.ID, alice.ID))
		require.NoError(t, store.AddMember(ctx, eng.ID, bob.ID))
		require.NoError(t, store.AddMember(ctx, sales.ID, bob.ID))

		require.NoError(t, store.Delete(ctx, eng.ID))

		_, err := store.Get(ctx, eng.ID)
		assert.True(t, auth.IsNotFound(err))

		shared, err := store.DepartmentsShared(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, shared)

		got, err := store.MemberDepartments(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{sales.ID}, got)

		count, err := db.NewSelect().
			Model((*repository.PrincipalDepartmentModel)(nil)).
			Where("department_id = ?", eng.ID).
			Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)

		assert.True(t, auth.IsNotFound(store.Delete(ctx, eng.ID)))
	})
}

func TestManager(t *testing.T) {
	db := newTestDB(t)
	m := repository.NewManager(db)
	require.NoError(t, m.Validate())
	assert.NotPanics(t, m.MustValidate)

	ctx := context.Background()
	err := m.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := m.Principals().CreatePrincipalTx(ctx, tx, newPrincipal("rollback@example.com"), auth.RoleEmployee)
		require.NoError(t, err)
		return errors.New("abort")
	})
	require.Error(t, err)

	_, err = m.Principals().FindPrincipalByIdentifier(ctx, "rollback@example.com")
	assert.True(t, auth.IsNotFound(err))

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	err = m.RunInTx(canceled, nil, func(context.Context, bun.Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)

	assert.Error(t, (&repository.Manager{}).Validate())
}

func TestPrincipals_DriverErrors(t *testing.T) {
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })

	store := repository.NewPrincipals(db)
	ctx := context.Background()

	t.Run("query failure is not a missing user", func(t *testing.T) {
		mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection refused"))

		_, err := store.FindPrincipalByID(ctx, 1)
		require.Error(t, err)
		assert.False(t, auth.IsNotFound(err))
	})

	t.Run("update touching no rows", func(t *testing.T) {
		mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 0))

		p := newPrincipal("x@example.com")
		p.ID = 3
		assert.True(t, auth.IsNotFound(store.SavePrincipal(ctx, p)))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
