// Package repository holds the MySQL data access layer.  Repositories return
// the sentinel errors below so handlers can map failures to HTTP statuses
// without inspecting driver errors.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write collides with an existing row,
	// such as a second hygiene record for the same resident and day.
	ErrConflict = errors.New("conflict")

	// ErrForbidden is returned when the caller may not touch the row.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidReference is returned when a write points at a resident or
	// record that does not exist.
	ErrInvalidReference = errors.New("invalid reference")

	ErrUsernameExists = errors.New("username already exists")
	ErrInvalidRefresh = errors.New("invalid refresh token")
)

// MySQL server error numbers mapped by mapWriteErr.
const (
	mysqlDuplicateEntry   = 1062
	mysqlNoReferencedRow  = 1452
	mysqlNoReferencedRow2 = 1216
)

// mapWriteErr turns constraint violations into sentinels and leaves every
// other error untouched.
func mapWriteErr(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return err
	}
	switch me.Number {
	case mysqlDuplicateEntry:
		return ErrConflict
	case mysqlNoReferencedRow, mysqlNoReferencedRow2:
		return ErrInvalidReference
	}
	return err
}

// mapReadErr turns sql.ErrNoRows into ErrNotFound.
func mapReadErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// affectedOne reports ErrNotFound when an UPDATE or DELETE matched no row.
// The DSN sets clientFoundRows so unchanged rows still count as matched.
func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
