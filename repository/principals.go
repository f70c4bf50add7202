package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/bytebard/go-auth"
	"github.com/uptrace/bun"
)

// Principals is the Bun backed user store. The Tx variants run against the
// given bun.IDB so callers can compose them inside a transaction.
type Principals struct {
	db bun.IDB
}

var (
	_ auth.PrincipalRepository = (*Principals)(nil)
	_ auth.PrincipalLister     = (*Principals)(nil)
	_ auth.AdminProvisioner    = (*Principals)(nil)
)

// NewPrincipals creates a new store
func NewPrincipals(db bun.IDB) *Principals {
	return &Principals{db: db}
}

// FindPrincipalByID loads a user and its roles by primary key.
func (r *Principals) FindPrincipalByID(ctx context.Context, id int64) (*auth.Principal, error) {
	return r.FindPrincipalByIDTx(ctx, r.db, id)
}

func (r *Principals) FindPrincipalByIDTx(ctx context.Context, tx bun.IDB, id int64) (*auth.Principal, error) {
	principal := new(auth.Principal)
	err := tx.NewSelect().
		Model(principal).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapError(err, "failed to find user", map[string]any{"id": id})
	}

	if err := loadRoles(ctx, tx, principal); err != nil {
		return nil, err
	}
	return principal, nil
}

// FindPrincipalByIdentifier loads a user by email, ignoring case.
func (r *Principals) FindPrincipalByIdentifier(ctx context.Context, identifier string) (*auth.Principal, error) {
	return r.FindPrincipalByIdentifierTx(ctx, r.db, identifier)
}

func (r *Principals) FindPrincipalByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string) (*auth.Principal, error) {
	identifier = strings.TrimSpace(identifier)

	principal := new(auth.Principal)
	err := tx.NewSelect().
		Model(principal).
		Where("LOWER(?TableAlias.email) = LOWER(?)", identifier).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapError(err, "failed to find user", map[string]any{"email": identifier})
	}

	if err := loadRoles(ctx, tx, principal); err != nil {
		return nil, err
	}
	return principal, nil
}

// SavePrincipal persists the mutable columns of an existing user. Roles
// are not touched.
func (r *Principals) SavePrincipal(ctx context.Context, principal *auth.Principal) error {
	return r.SavePrincipalTx(ctx, r.db, principal)
}

func (r *Principals) SavePrincipalTx(ctx context.Context, tx bun.IDB, principal *auth.Principal) error {
	meta := map[string]any{"id": principal.ID}

	res, err := tx.NewUpdate().
		Model(principal).
		Column("first_name", "last_name", "password", "status").
		WherePK().
		Exec(ctx)
	if err != nil {
		return mapError(err, "failed to save user", meta)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return mapError(err, "failed to save user", meta)
	}
	if affected == 0 {
		return mapError(sql.ErrNoRows, "", meta)
	}
	return nil
}

// ListPrincipals returns one page of every user ordered by id.
func (r *Principals) ListPrincipals(ctx context.Context, page auth.Page) ([]*auth.Principal, error) {
	page = page.Normalize()

	var records []*auth.Principal
	err := r.db.NewSelect().
		Model(&records).
		OrderExpr("?TableAlias.id ASC").
		Limit(page.Size).
		Offset(page.Offset()).
		Scan(ctx)
	if err != nil {
		return nil, mapError(err, "failed to list users", nil)
	}

	if err := loadRoles(ctx, r.db, records...); err != nil {
		return nil, err
	}
	return records, nil
}

// ListPrincipalsSharingDepartments returns one page of the users that
// belong to at least one department the manager also belongs to. The
// manager is part of the result when they have any department.
func (r *Principals) ListPrincipalsSharingDepartments(ctx context.Context, managerID int64, page auth.Page) ([]*auth.Principal, error) {
	page = page.Normalize()

	shared := r.db.NewSelect().
		TableExpr("user_departments AS ud1").
		ColumnExpr("ud1.user_id").
		Join("JOIN user_departments AS ud2 ON ud2.department_id = ud1.department_id").
		Where("ud2.user_id = ?", managerID)

	var records []*auth.Principal
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.id IN (?)", shared).
		OrderExpr("?TableAlias.id ASC").
		Limit(page.Size).
		Offset(page.Offset()).
		Scan(ctx)
	if err != nil {
		return nil, mapError(err, "failed to list users", map[string]any{"manager_id": managerID})
	}

	if err := loadRoles(ctx, r.db, records...); err != nil {
		return nil, err
	}
	return records, nil
}

// ExistsByEmailAndRole reports whether a user with email holds role.
func (r *Principals) ExistsByEmailAndRole(ctx context.Context, email string, role auth.RoleName) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*auth.Principal)(nil)).
		Join("JOIN user_roles AS ur ON ur.user_id = ?TableAlias.id").
		Join("JOIN roles AS r ON r.id = ur.role_id").
		Where("LOWER(?TableAlias.email) = LOWER(?)", strings.TrimSpace(email)).
		Where("r.name = ?", role.String()).
		Exists(ctx)
	if err != nil {
		return false, mapError(err, "failed to check user role", map[string]any{
			"email": email,
			"role":  role.String(),
		})
	}
	return exists, nil
}

// CreatePrincipal inserts the user and links it to role in a single
// transaction. The role row is created when it does not exist.
func (r *Principals) CreatePrincipal(ctx context.Context, principal *auth.Principal, role auth.RoleName) (*auth.Principal, error) {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := r.CreatePrincipalTx(ctx, tx, principal, role)
		return err
	})
	if err != nil {
		return nil, err
	}
	return principal, nil
}

func (r *Principals) CreatePrincipalTx(ctx context.Context, tx bun.IDB, principal *auth.Principal, role auth.RoleName) (*auth.Principal, error) {
	meta := map[string]any{"email": principal.Email, "role": role.String()}

	if _, err := tx.NewInsert().Model(principal).Exec(ctx); err != nil {
		return nil, mapError(err, "failed to create user", meta)
	}

	roleID, err := ensureRole(ctx, tx, role)
	if err != nil {
		return nil, err
	}

	link := &PrincipalRoleModel{UserID: principal.ID, RoleID: roleID}
	if _, err := tx.NewInsert().Model(link).Exec(ctx); err != nil {
		return nil, mapError(err, "failed to assign role", meta)
	}

	principal.Roles = principal.Roles.Add(role)
	return principal, nil
}

// AssignRole grants an additional role to an existing user.
func (r *Principals) AssignRole(ctx context.Context, userID int64, role auth.RoleName) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		roleID, err := ensureRole(ctx, tx, role)
		if err != nil {
			return err
		}
		link := &PrincipalRoleModel{UserID: userID, RoleID: roleID}
		if _, err := tx.NewInsert().Model(link).Exec(ctx); err != nil {
			return mapError(err, "failed to assign role", map[string]any{
				"id":   userID,
				"role": role.String(),
			})
		}
		return nil
	})
}

// loadRoles fills the Roles of every principal with a single query.
func loadRoles(ctx context.Context, tx bun.IDB, principals ...*auth.Principal) error {
	if len(principals) == 0 {
		return nil
	}

	byID := make(map[int64]*auth.Principal, len(principals))
	ids := make([]int64, 0, len(principals))
	for _, p := range principals {
		p.Roles = auth.RoleSet{}
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	var links []*PrincipalRoleModel
	err := tx.NewSelect().
		Model(&links).
		Relation("Role").
		Where("?TableAlias.user_id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return mapError(err, "failed to load roles", nil)
	}

	for _, link := range links {
		p, ok := byID[link.UserID]
		if !ok || link.Role == nil {
			continue
		}
		p.Roles.Add(auth.NormalizeRole(link.Role.Name))
	}
	return nil
}
