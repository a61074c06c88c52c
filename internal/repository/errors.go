// Package repository holds the MySQL-backed stores and the sentinel errors
// they share.  Higher layers match these with errors.Is and translate them
// into their own error taxonomy.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by id matches no row.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a conditional update matched no row
// because the row is no longer in the expected state, for example a slot
// with no remaining capacity or a refund request that was already
// resolved.
var ErrConflict = errors.New("conflict")

// ErrDuplicate is returned when an insert violates a unique key, such as
// a second payment, refund request or review for the same reservation.
var ErrDuplicate = errors.New("duplicate")

// ErrEmailExists is returned on registration with an email already taken.
var ErrEmailExists = errors.New("email already exists")

// mysqlDuplicateKey is ER_DUP_ENTRY.
const mysqlDuplicateKey = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateKey
}
