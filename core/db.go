package core

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

// SQLiteDB wraps the shared database handle together with the migration
// directory that brings its schema up to date.
type SQLiteDB struct {
	*sql.DB
	file         string
	migrationDir string
}

// NewSQLiteDB opens the database file in read-write-create mode with a
// shared cache and WAL journaling.
func NewSQLiteDB(file, migrationDir string) (*SQLiteDB, error) {
	dsn := fmt.Sprintf("file:%s?mode=rwc&cache=shared&_journal_mode=WAL", file)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	return &SQLiteDB{DB: db, file: file, migrationDir: migrationDir}, nil
}

// Migrate applies every pending goose migration.
func (db *SQLiteDB) Migrate() error {
	goose.SetBaseFS(os.DirFS(db.migrationDir))

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	if err := goose.Up(db.DB, "."); err != nil {
		return err
	}
	return nil
}
