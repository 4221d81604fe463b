package core

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync/atomic"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

var fixtureCounter atomic.Int64

type StoreFixture struct {
	messageStore *SQLiteMessageStore
	userDir      *SQLiteUserDirectory
	db           *sql.DB
	ctx          context.Context
	tearDown     func()
	t            *testing.T
}

// NewStoreFixture opens a uniquely-named shared in-memory database and
// migrates it, so each test gets an isolated schema.
func NewStoreFixture(t *testing.T) *StoreFixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	dsn := fmt.Sprintf("file:storetest%d?mode=memory&cache=shared", fixtureCounter.Add(1))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatal(err)
	}

	goose.SetBaseFS(os.DirFS("../migrations"))

	if err := goose.SetDialect("sqlite3"); err != nil {
		t.Fatal(err)
	}

	if err := goose.Up(db, "."); err != nil {
		t.Fatal(err)
	}

	return &StoreFixture{
		messageStore: NewSQLiteMessageStore(db),
		userDir:      NewSQLiteUserDirectory(db),
		db:           db,
		ctx:          ctx,
		tearDown: func() {
			cancel()
			db.Close()
		},
		t: t,
	}
}
