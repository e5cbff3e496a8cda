// Package repositories is the gorm-backed persistence layer. Services
// receive repositories rather than a global handle, and use WithTx to run
// several writes in one transaction.
package repositories

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("repositories: record not found")

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ErrDuplicate is returned when a write breaks a unique index.
var ErrDuplicate = errors.New("repositories: duplicate key")

// duplicate maps unique-index violations to ErrDuplicate. Drivers without an
// error translator are matched on their message.
func duplicate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key") || strings.Contains(msg, "duplicate entry") {
		return ErrDuplicate
	}
	return err
}

// Transactor runs fn inside a database transaction.
type Transactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) *Transactor { return &Transactor{db: db} }

// Do commits when fn returns nil and rolls back otherwise.
func (t *Transactor) Do(fn func(tx *gorm.DB) error) error {
	return t.db.Transaction(fn)
}
