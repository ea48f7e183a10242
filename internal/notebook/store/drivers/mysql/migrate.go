package mysql

import (
	"errors"
	"fmt"

	"github.com/aussiebroadwan/notebook/internal/notebook/store/drivers/mysql/migrations"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// ApplyMigrations applies the embedded migrations over a dedicated
// connection. The MySQL migrate driver pins a connection for its lifetime,
// so it gets its own pool which is closed when done.
func (s *Store) ApplyMigrations() error {
	src, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return err
	}

	instance, err := migrate.NewWithSourceInstance("iofs", src, "mysql://"+s.dsn)
	if err != nil {
		return fmt.Errorf("init migrator failed: %w", err)
	}
	defer func() {
		_, _ = instance.Close()
	}()

	if err := instance.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up failed: %w", err)
	}
	return nil
}
