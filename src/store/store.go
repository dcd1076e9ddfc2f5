// Package store persists contracts, ledger entries, catalog revenue and
// statements in SQLite. Monetary values are stored as exact decimal strings
// and date-only fields as ISO dates so that amounts survive round-trips
// without float drift.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/labelfolio/backend/src/utils"
)

var one = decimal.NewFromInt(1)

// rowScanner lets the scan helpers work on both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func dateString(t time.Time) string {
	return t.Format(utils.DefaultDateFormat)
}

func dateFrom(s string) (time.Time, error) {
	t, err := time.Parse(utils.DefaultDateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored date %q: %v", s, err)
	}
	return t, nil
}

func nullDateString(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: dateString(*t), Valid: true}
}

func datePtrFrom(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := dateFrom(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func decimalFrom(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid stored decimal %q: %v", s, err)
	}
	return d, nil
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func decimalPtrFrom(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil, fmt.Errorf("invalid stored decimal %q: %v", ns.String, err)
	}
	return &d, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtrFrom(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
