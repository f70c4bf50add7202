package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bytebard/go-auth"
	"github.com/uptrace/bun"
)

// EnsureSchema creates the tables used by the stores when they do not
// exist yet and seeds the known roles. It is safe to call on every start.
func EnsureSchema(ctx context.Context, db bun.IDB) error {
	models := []any{
		(*auth.Principal)(nil),
		(*RoleModel)(nil),
		(*auth.Department)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return mapError(err, "failed to create table", nil)
		}
	}

	if _, err := db.NewCreateTable().
		Model((*PrincipalRoleModel)(nil)).
		IfNotExists().
		ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
		ForeignKey(`("role_id") REFERENCES "roles" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return mapError(err, "failed to create table user_roles", nil)
	}

	if _, err := db.NewCreateTable().
		Model((*PrincipalDepartmentModel)(nil)).
		IfNotExists().
		ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
		ForeignKey(`("department_id") REFERENCES "departments" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return mapError(err, "failed to create table user_departments", nil)
	}

	return SeedRoles(ctx, db)
}

// SeedRoles inserts every predefined role that is not present yet.
func SeedRoles(ctx context.Context, db bun.IDB) error {
	for _, role := range auth.GetAllRoles() {
		if _, err := ensureRole(ctx, db, role); err != nil {
			return err
		}
	}
	return nil
}

// ensureRole returns the id of role, creating the row when missing.
func ensureRole(ctx context.Context, db bun.IDB, role auth.RoleName) (int64, error) {
	meta := map[string]any{"role": role.String()}

	record := new(RoleModel)
	err := db.NewSelect().
		Model(record).
		Where("?TableAlias.name = ?", role.String()).
		Limit(1).
		Scan(ctx)
	if err == nil {
		return record.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, mapError(err, "failed to find role", meta)
	}

	record = &RoleModel{Name: role.String()}
	if _, err := db.NewInsert().Model(record).Exec(ctx); err != nil {
		return 0, mapError(err, "failed to create role", meta)
	}
	return record.ID, nil
}
