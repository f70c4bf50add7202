package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bytebard/go-auth"
	"github.com/uptrace/bun"
)

// Departments stores departments and their members.
type Departments struct {
	db bun.IDB
}

var (
	_ auth.DepartmentMembership = (*Departments)(nil)
	_ auth.DepartmentStore      = (*Departments)(nil)
)

func NewDepartments(db bun.IDB) *Departments {
	return &Departments{db: db}
}

// DepartmentsShared reports whether users a and b have at least one
// department in common. A user compared with itself shares a department
// only when it belongs to one.
func (r *Departments) DepartmentsShared(ctx context.Context, a, b int64) (bool, error) {
	exists, err := r.db.NewSelect().
		TableExpr("user_departments AS ud1").
		ColumnExpr("ud1.department_id").
		Join("JOIN user_departments AS ud2 ON ud2.department_id = ud1.department_id").
		Where("ud1.user_id = ?", a).
		Where("ud2.user_id = ?", b).
		Exists(ctx)
	if err != nil {
		return false, mapError(err, "failed to compare departments", map[string]any{
			"user_a": a,
			"user_b": b,
		})
	}
	return exists, nil
}

// Create inserts a department. Names are trimmed and must be unique.
func (r *Departments) Create(ctx context.Context, name string) (*auth.Department, error) {
	name, err := auth.NormalizeDepartmentName(name)
	if err != nil {
		return nil, err
	}

	record := &auth.Department{Name: name}
	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, departmentError(err, "failed to create department", map[string]any{"name": name})
	}
	return record, nil
}

// Get loads a department by id.
func (r *Departments) Get(ctx context.Context, id int64) (*auth.Department, error) {
	record := new(auth.Department)
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, departmentError(err, "failed to find department", map[string]any{"id": id})
	}
	return record, nil
}

// List returns one page of departments ordered by id.
func (r *Departments) List(ctx context.Context, page auth.Page) ([]*auth.Department, error) {
	page = page.Normalize()

	records := make([]*auth.Department, 0, page.Size)
	err := r.db.NewSelect().
		Model(&records).
		OrderExpr("?TableAlias.id ASC").
		Limit(page.Size).
		Offset(page.Offset()).
		Scan(ctx)
	if err != nil {
		return nil, departmentError(err, "failed to list departments", nil)
	}
	return records, nil
}

// Update renames a department.
func (r *Departments) Update(ctx context.Context, id int64, name string) (*auth.Department, error) {
	name, err := auth.NormalizeDepartmentName(name)
	if err != nil {
		return nil, err
	}
	meta := map[string]any{"id": id, "name": name}

	record := &auth.Department{ID: id, Name: name}
	res, err := r.db.NewUpdate().
		Model(record).
		Column("name").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, departmentError(err, "failed to update department", meta)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, departmentError(err, "failed to update department", meta)
	}
	if affected == 0 {
		return nil, departmentError(sql.ErrNoRows, "", meta)
	}
	return record, nil
}

// Delete removes a department together with its memberships.
func (r *Departments) Delete(ctx context.Context, id int64) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return r.DeleteTx(ctx, tx, id)
	})
}

func (r *Departments) DeleteTx(ctx context.Context, tx bun.IDB, id int64) error {
	meta := map[string]any{"id": id}

	// memberships go first, sqlite connections may run without foreign keys
	_, err := tx.NewDelete().
		Model((*PrincipalDepartmentModel)(nil)).
		Where("department_id = ?", id).
		Exec(ctx)
	if err != nil {
		return departmentError(err, "failed to delete department members", meta)
	}

	res, err := tx.NewDelete().
		Model((*auth.Department)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return departmentError(err, "failed to delete department", meta)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return departmentError(err, "failed to delete department", meta)
	}
	if affected == 0 {
		return departmentError(sql.ErrNoRows, "", meta)
	}
	return nil
}

// AddMember places a user in a department.
func (r *Departments) AddMember(ctx context.Context, departmentID, userID int64) error {
	link := &PrincipalDepartmentModel{UserID: userID, DepartmentID: departmentID}
	if _, err := r.db.NewInsert().Model(link).Exec(ctx); err != nil {
		return mapError(err, "failed to add department member", map[string]any{
			"department_id": departmentID,
			"user_id":       userID,
		})
	}
	return nil
}

// RemoveMember takes a user out of a department. Removing a missing
// membership is not an error.
func (r *Departments) RemoveMember(ctx context.Context, departmentID, userID int64) error {
	_, err := r.db.NewDelete().
		Model((*PrincipalDepartmentModel)(nil)).
		Where("department_id = ? AND user_id = ?", departmentID, userID).
		Exec(ctx)
	if err != nil {
		return mapError(err, "failed to remove department member", map[string]any{
			"department_id": departmentID,
			"user_id":       userID,
		})
	}
	return nil
}

// MemberDepartments lists the department ids of a user.
func (r *Departments) MemberDepartments(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.NewSelect().
		Model((*PrincipalDepartmentModel)(nil)).
		Column("department_id").
		Where("user_id = ?", userID).
		Order("department_id").
		Scan(ctx, &ids)
	if err != nil {
		return nil, mapError(err, "failed to list departments", map[string]any{"user_id": userID})
	}
	return ids, nil
}

func departmentError(err error, msg string, meta map[string]any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return auth.ErrDepartmentNotFound.Clone().WithMetadata(meta)
	}
	return mapError(err, msg, meta)
}
