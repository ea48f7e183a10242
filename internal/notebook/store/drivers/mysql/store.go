package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/notebook/internal/notebook/store/sqlstore"
	"github.com/go-sql-driver/mysql"
)

// Config holds the connection settings; FormatDSN turns it into a
// go-sql-driver DSN with the options the shared queries depend on.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// FormatDSN enables parseTime (DATETIME scans into time.Time), UTC for both
// directions, utf8mb4 for lossless text, clientFoundRows so UPDATE reports
// matched rather than changed rows, and multiStatements for migrations.
func (c Config) FormatDSN() string {
	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
	mc.User = c.User
	mc.Passwd = c.Password
	mc.DBName = c.Database
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.ClientFoundRows = true
	mc.MultiStatements = true
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// Store is the MySQL backed store.Store.
type Store struct {
	*sqlstore.Store
	dsn string
}

// NewStore connects using a DSN produced by Config.FormatDSN.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)

	s := &Store{Store: sqlstore.New(db, dialect{}), dsn: dsn}
	if err := s.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return s, nil
}

const (
	errDuplicateEntry = 1062
	errServerGone     = 2006
	errServerLost     = 2013
)

type dialect struct{}

func (dialect) Name() string { return "mysql" }

func (dialect) IsUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == errDuplicateEntry
}

func (dialect) IsConnectionError(err error) bool {
	if errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var me *mysql.MySQLError
	return errors.As(err, &me) && (me.Number == errServerGone || me.Number == errServerLost)
}

func (dialect) OptimizeStatements() []string {
	return []string{`ANALYZE TABLE users, notes, user_activity`}
}
