package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// Manager groups the stores sharing one database handle.
type Manager struct {
	db          *bun.DB
	principals  *Principals
	departments *Departments
}

func NewManager(db *bun.DB) *Manager {
	return &Manager{
		db:          db,
		principals:  NewPrincipals(db),
		departments: NewDepartments(db),
	}
}

func (m *Manager) Validate() error {
	if m.db == nil {
		return errors.New("repository db should be initialized")
	}

	if m.principals == nil {
		return errors.New("repository principals should be initialized")
	}

	if m.departments == nil {
		return errors.New("repository departments should be initialized")
	}

	return nil
}

func (m *Manager) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

// EnsureSchema creates missing tables and seeds roles.
func (m *Manager) EnsureSchema(ctx context.Context) error {
	return EnsureSchema(ctx, m.db)
}

func (m *Manager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m *Manager) Principals() *Principals {
	return m.principals
}

func (m *Manager) Departments() *Departments {
	return m.departments
}
