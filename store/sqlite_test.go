package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s := NewSQLiteStore(filepath.Join(t.TempDir(), "data", "todo.db"))
	require.NoError(t, s.Init(context.Background()))
	return s
}

func countRows(t *testing.T, s *SQLiteStore, table string) int {
	t.Helper()
	db, err := sql.Open("sqlite", s.Path())
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestSQLiteStore_Init(t *testing.T) {
	s := newTestStore(t)

	// Idempotent.
	require.NoError(t, s.Init(context.Background()))
	assert.Equal(t, 0, countRows(t, s, "todo"))
	assert.Equal(t, 0, countRows(t, s, "item_price"))
}

func TestSQLiteStore_InsertTodo(t *testing.T) {
	ctx := context.Background()

	t.Run("returns distinct increasing ids", func(t *testing.T) {
		s := newTestStore(t)

		first, err := s.InsertTodo(ctx, "Buy milk")
		require.NoError(t, err)
		second, err := s.InsertTodo(ctx, "Buy milk")
		require.NoError(t, err)

		assert.Equal(t, int64(1), first)
		assert.Greater(t, second, first)
		assert.Equal(t, 2, countRows(t, s, "todo"))
	})

	t.Run("stores the title", func(t *testing.T) {
		s := newTestStore(t)

		id, err := s.InsertTodo(ctx, "牛乳を買う")
		require.NoError(t, err)

		db, err := sql.Open("sqlite", s.Path())
		require.NoError(t, err)
		defer db.Close()

		var title, createdAt string
		require.NoError(t, db.QueryRow("SELECT title, created_at FROM todo WHERE id = ?", id).Scan(&title, &createdAt))
		assert.Equal(t, "牛乳を買う", title)
		assert.NotEmpty(t, createdAt)
	})

	t.Run("concurrent inserts all succeed", func(t *testing.T) {
		s := newTestStore(t)

		var wg sync.WaitGroup
		ids := make(chan int64, 5)
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				id, err := s.InsertTodo(ctx, "task")
				assert.NoError(t, err)
				ids <- id
			}()
		}
		wg.Wait()
		close(ids)

		seen := map[int64]bool{}
		for id := range ids {
			assert.False(t, seen[id], "duplicate id %d", id)
			seen[id] = true
		}
		assert.Len(t, seen, 5)
	})

	t.Run("missing schema is an insert error", func(t *testing.T) {
		s := NewSQLiteStore(filepath.Join(t.TempDir(), "empty.db"))

		_, err := s.InsertTodo(ctx, "x")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInsert))
		assert.False(t, errors.Is(err, ErrConnect))
	})

	t.Run("unreachable path is a connect error", func(t *testing.T) {
		s := NewSQLiteStore(filepath.Join(t.TempDir(), "no", "such", "dir", "todo.db"))

		_, err := s.InsertTodo(ctx, "x")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrConnect))
	})
}

func TestSQLiteStore_Append(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Append(context.Background(), `{"name":"Pen","price":100}`))

	db, err := sql.Open("sqlite", s.Path())
	require.NoError(t, err)
	defer db.Close()

	var data string
	require.NoError(t, db.QueryRow("SELECT data FROM item_price").Scan(&data))
	assert.JSONEq(t, `{"name":"Pen","price":100}`, data)
}

func TestCause(t *testing.T) {
	cause := errors.New("disk full")
	err := insertError(cause)

	assert.Equal(t, cause, Cause(err))
	assert.Equal(t, "store: insert: disk full", err.Error())

	plain := errors.New("plain")
	assert.Equal(t, plain, Cause(plain))
}
