package commands

import (
	"context"

	"github.com/bytebard/go-auth"
)

type MigrateCmd struct {
	Database DatabaseFlags `embed:"" prefix:"db-"`
	Token    TokenFlags    `embed:"" prefix:"jwt-"`
}

func (m *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	logger := globals.Logger()

	opts, err := m.Token.Options()
	if err != nil {
		return err
	}

	mgr, closeDB, err := m.Database.Open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = closeDB() }()

	_, created, err := auth.NewProvisioner(mgr.Principals(), auth.BcryptHasher{}, opts).
		WithLogger(auth.NewZerologLogger(logger)).
		EnsureDefaultAdmin(ctx)
	if err != nil {
		return err
	}

	logger.Info().
		Str("driver", m.Database.Driver).
		Bool("admin_created", created).
		Str("admin_email", auth.DefaultAdminEmail).
		Msg("schema ready")
	return nil
}
