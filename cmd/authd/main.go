package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/bytebard/go-auth/cmd/authd/internal/commands"
	"github.com/joho/godotenv"
)

var (
	version = "dev"
	cli     struct {
		Debug      bool                   `help:"Enable debug mode." env:"AUTH_DEBUG"`
		Version    kong.VersionFlag       `help:"Print the version and exit."`
		Serve      commands.ServeCmd      `cmd:"" help:"Start the HTTP API."`
		Migrate    commands.MigrateCmd    `cmd:"" help:"Create the schema and the default admin account."`
		Department commands.DepartmentCmd `cmd:"" help:"Manage departments and their members."`
	}
)

func main() {
	// a missing .env file is not an error
	_ = godotenv.Load()

	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("authd"),
		kong.Description("Stateless JWT authentication and user directory service."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
