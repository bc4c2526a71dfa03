// Package repository contains data access logic separated from HTTP handlers.
// Sentinel errors defined here let higher layers distinguish failure
// scenarios without inspecting driver errors.
package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateKey is returned when a write violates a unique index. The more
// specific values below wrap it.
var ErrDuplicateKey = errors.New("duplicate key")

var (
	ErrDuplicateUsername = fmt.Errorf("%w: username already taken", ErrDuplicateKey)
	ErrDuplicateEmail    = fmt.Errorf("%w: email already registered", ErrDuplicateKey)
	ErrDuplicateTitle    = fmt.Errorf("%w: game title already exists", ErrDuplicateKey)
	ErrDuplicateTagName  = fmt.Errorf("%w: tag name already exists", ErrDuplicateKey)
	ErrAlreadyOwned      = fmt.Errorf("%w: game already in library", ErrDuplicateKey)
)

// ErrConflict is returned when a delete cannot proceed because other rows
// still reference the target (for example a game owned by users).
var ErrConflict = errors.New("conflict")

// MySQL server error numbers we translate.
const (
	mysqlDupEntry        = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
)

func mysqlErr(err error) (*mysql.MySQLError, bool) {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me, true
	}
	return nil, false
}

// duplicateIndex reports the violated unique index name (as it appears in the
// server message) when err is a duplicate-entry error.
func duplicateIndex(err error) (string, bool) {
	me, ok := mysqlErr(err)
	if !ok || me.Number != mysqlDupEntry {
		return "", false
	}
	msg := me.Message
	if i := strings.LastIndex(msg, "for key '"); i >= 0 {
		key := strings.TrimSuffix(msg[i+len("for key '"):], "'")
		if dot := strings.LastIndex(key, "."); dot >= 0 {
			key = key[dot+1:]
		}
		return key, true
	}
	return "", true
}

func isRowReferenced(err error) bool {
	me, ok := mysqlErr(err)
	return ok && me.Number == mysqlRowIsReferenced
}

func isMissingParent(err error) bool {
	me, ok := mysqlErr(err)
	return ok && me.Number == mysqlNoReferencedRow
}
