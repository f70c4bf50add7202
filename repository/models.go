package repository

import (
	"github.com/uptrace/bun"
)

// RoleModel is the Bun model for the roles table.
type RoleModel struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull,unique"`
}

// PrincipalRoleModel links a user to a role.
type PrincipalRoleModel struct {
	bun.BaseModel `bun:"table:user_roles,alias:ur"`

	UserID int64      `bun:"user_id,pk"`
	RoleID int64      `bun:"role_id,pk"`
	Role   *RoleModel `bun:"rel:belongs-to,join:role_id=id"`
}

// PrincipalDepartmentModel links a user to a department. A user may belong
// to any number of departments.
type PrincipalDepartmentModel struct {
	bun.BaseModel `bun:"table:user_departments,alias:ud"`

	UserID       int64 `bun:"user_id,pk"`
	DepartmentID int64 `bun:"department_id,pk"`
}
