// Package repository holds the GORM data access layer. Every repository is a
// thin wrapper over a *gorm.DB, which is either the root pool or a live
// transaction handed out by TxManager.
package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a lookup by id matches no row.
var ErrNotFound = errors.New("record not found")

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// forUpdate adds SELECT ... FOR UPDATE on PostgreSQL. SQLite has no row locks;
// its writers are already serialized by the database file lock.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}
