package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/knuckles/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		p, err := shared.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)

	r.writePlain("✓ Wrote %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set client.url, client.username and client.password (or [client.token])\n")
	r.writePlain("2. Run 'knuckles ping' to check the connection\n")
	return nil
}

// SetupDatabase initializes the library cache and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	if _, err := r.Cache(); err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	version, err := shared.SchemaVersion(r.db)
	if err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	r.writePlain("✓ Database ready at %s (schema version %d)\n", r.config.Database.Path, version)
	return nil
}
