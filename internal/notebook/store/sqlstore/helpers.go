package sqlstore

import (
	"database/sql"
	"time"
)

// affected converts an Exec result into "did any row match".
func affected(d Dialect, res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, wrapErr(d, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr(d, err)
	}
	return n > 0, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	v := nt.Time.UTC()
	return &v
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
