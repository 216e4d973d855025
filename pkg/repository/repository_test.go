package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/JaimeStill/delivery-notes/pkg/database"
	"github.com/JaimeStill/delivery-notes/pkg/repository"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
)

type item struct {
	ID   int
	Name string
}

func scanItem(s repository.Scanner) (item, error) {
	var it item
	err := s.Scan(&it.ID, &it.Name)
	return it, err
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := &database.Config{URL: "sqlite://" + filepath.Join(t.TempDir(), "repo.db")}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	sys, err := database.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("database.New() failed: %v", err)
	}
	t.Cleanup(func() { sys.Close() })

	db := sys.Connection()
	if _, err := db.Exec(`CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT NOT NULL UNIQUE)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

func TestQueryOneAndMany(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	for i, name := range []string{"alpha", "beta"} {
		if err := repository.ExecExpectOne(ctx, db, `INSERT INTO items (id, name) VALUES ($1, $2)`, i+1, name); err != nil {
			t.Fatalf("ExecExpectOne() failed: %v", err)
		}
	}

	got, err := repository.QueryOne(ctx, db, `SELECT id, name FROM items WHERE id = $1`, []any{2}, scanItem)
	if err != nil {
		t.Fatalf("QueryOne() failed: %v", err)
	}
	if got.Name != "beta" {
		t.Errorf("QueryOne() = %+v, want beta", got)
	}

	_, err = repository.QueryOne(ctx, db, `SELECT id, name FROM items WHERE id = $1`, []any{9}, scanItem)
	if mapped := repository.MapError(err, errNotFound, errDuplicate); mapped != errNotFound {
		t.Errorf("MapError(no rows) = %v, want errNotFound", mapped)
	}

	all, err := repository.QueryMany(ctx, db, `SELECT id, name FROM items ORDER BY id`, nil, scanItem)
	if err != nil {
		t.Fatalf("QueryMany() failed: %v", err)
	}
	if len(all) != 2 || all[0].Name != "alpha" {
		t.Errorf("QueryMany() = %+v", all)
	}

	none, err := repository.QueryMany(ctx, db, `SELECT id, name FROM items WHERE id > 10`, nil, scanItem)
	if err != nil || none == nil || len(none) != 0 {
		t.Errorf("QueryMany(empty) = %v, %v, want empty non-nil slice", none, err)
	}
}

func TestExecExpectOne_NoRows(t *testing.T) {
	db := openDB(t)

	err := repository.ExecExpectOne(context.Background(), db, `DELETE FROM items WHERE id = $1`, 1)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("ExecExpectOne() error = %v, want sql.ErrNoRows", err)
	}
}

func TestUniqueViolation(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	if _, err := db.ExecContext(ctx, `INSERT INTO items (id, name) VALUES (1, 'alpha')`); err != nil {
		t.Fatal(err)
	}
	_, err := db.ExecContext(ctx, `INSERT INTO items (id, name) VALUES (2, 'alpha')`)

	if !repository.IsUniqueViolation(err) {
		t.Fatalf("IsUniqueViolation(%v) = false, want true", err)
	}
	if mapped := repository.MapError(err, errNotFound, errDuplicate); mapped != errDuplicate {
		t.Errorf("MapError() = %v, want errDuplicate", mapped)
	}
	if repository.IsUniqueViolation(errors.New("other")) {
		t.Error("IsUniqueViolation(other) = true, want false")
	}
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	_, err := repository.WithTx(ctx, db, func(tx *sql.Tx) (struct{}, error) {
		if _, err := tx.ExecContext(ctx, `INSERT INTO items (id, name) VALUES (1, 'rolled back')`); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, errors.New("abort")
	})
	if err == nil {
		t.Fatal("WithTx() succeeded, want error")
	}

	var count int
	db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count)
	if count != 0 {
		t.Errorf("count after rollback = %d, want 0", count)
	}

	id, err := repository.WithTx(ctx, db, func(tx *sql.Tx) (int, error) {
		_, err := tx.ExecContext(ctx, `INSERT INTO items (id, name) VALUES (7, 'kept')`)
		return 7, err
	})
	if err != nil || id != 7 {
		t.Fatalf("WithTx() = %d, %v", id, err)
	}

	db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count)
	if count != 1 {
		t.Errorf("count after commit = %d, want 1", count)
	}
}
