package mysql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
)

func TestConfigFormatDSN(t *testing.T) {
	dsn := Config{
		Host:     "db.internal",
		Port:     3306,
		User:     "notes",
		Password: "s3cret",
		Database: "notebook",
	}.FormatDSN()

	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	require.Equal(t, "db.internal:3306", parsed.Addr)
	require.Equal(t, "notes", parsed.User)
	require.Equal(t, "s3cret", parsed.Passwd)
	require.Equal(t, "notebook", parsed.DBName)
	require.True(t, parsed.ParseTime)
	require.True(t, parsed.ClientFoundRows)
	require.True(t, parsed.MultiStatements)
	require.Equal(t, "UTC", parsed.Loc.String())
}

func TestDialectClassifiesErrors(t *testing.T) {
	d := dialect{}

	dup := fmt.Errorf("insert: %w", &mysql.MySQLError{Number: errDuplicateEntry, Message: "Duplicate entry"})
	require.True(t, d.IsUniqueViolation(dup))
	require.False(t, d.IsConnectionError(dup))

	gone := &mysql.MySQLError{Number: errServerGone}
	require.True(t, d.IsConnectionError(gone))
	require.True(t, d.IsConnectionError(mysql.ErrInvalidConn))

	require.False(t, d.IsUniqueViolation(errors.New("other")))
}
