package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/bytebard/go-auth"
	"github.com/bytebard/go-auth/repository"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type Globals struct {
	Debug   bool
	Version string
}

// Logger builds the process logger.
func (g *Globals) Logger() zerolog.Logger {
	return auth.SetupZerolog(os.Stderr, g.Debug)
}

// DatabaseFlags selects and opens the backing store
type DatabaseFlags struct {
	Driver string `help:"database driver" default:"sqlite" enum:"sqlite,postgres" env:"AUTH_DB_DRIVER"`
	DSN    string `help:"database connection string" default:"file:authd.db?cache=shared" env:"AUTH_DB_DSN"`
}

// Open connects to the database and makes sure the schema exists.
func (f DatabaseFlags) Open(ctx context.Context) (*repository.Manager, func() error, error) {
	var db *bun.DB
	switch f.Driver {
	case "postgres":
		sqldb, err := sql.Open("pgx", f.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		sqldb, err := sql.Open(sqliteshim.ShimName, f.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to reach %s database: %w", f.Driver, err)
	}

	mgr := repository.NewManager(db)
	mgr.MustValidate()

	if err := mgr.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return mgr, db.Close, nil
}

// TokenFlags configures signing and provisioning
type TokenFlags struct {
	Secret          string `help:"HMAC signing key, at least 32 bytes" env:"AUTH_JWT_SECRET" required:""`
	Issuer          string `help:"issuer claim" default:"go-auth" env:"AUTH_JWT_ISSUER"`
	ExpiryHours     int    `help:"token lifetime in hours" default:"24" env:"AUTH_JWT_EXPIRY_HOURS"`
	DefaultPassword string `help:"password given to provisioned accounts" default:"defaultPassword" env:"AUTH_DEFAULT_PASSWORD"`
}

// Options converts the flags into validated auth options.
func (f TokenFlags) Options() (auth.Options, error) {
	opts := auth.DefaultOptions()
	opts.SigningKey = f.Secret
	opts.Issuer = f.Issuer
	opts.TokenExpiration = f.ExpiryHours
	opts.DefaultPassword = f.DefaultPassword

	if err := opts.Validate(); err != nil {
		return auth.Options{}, err
	}
	return opts, nil
}
