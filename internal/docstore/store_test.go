package docstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

type sample struct {
	Items []string `json:"items"`
}

func setupGorm(t *testing.T) *Gorm {
	t.Helper()
	dsn := fmt.Sprintf("file:docstore_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := db.AutoMigrate(&Document{}); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	return NewGorm(db)
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	var got sample
	found, err := s.Load(ctx, "things", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Save(ctx, "things", sample{Items: []string{"a"}}))
	require.NoError(t, s.Save(ctx, "things", sample{Items: []string{"a", "b"}}))

	found, err = s.Load(ctx, "things", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"a", "b"}, got.Items)

	var other sample
	found, err = s.Load(ctx, "other", &other)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestGormStore(t *testing.T) {
	exerciseStore(t, setupGorm(t))
}

func TestMemoryStoreCopiesOnSave(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	doc := sample{Items: []string{"a"}}
	require.NoError(t, m.Save(ctx, "things", doc))
	doc.Items[0] = "mutated"

	var got sample
	_, err := m.Load(ctx, "things", &got)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Items[0])
}

func TestLoadFailuresAreStorageErrors(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Save(ctx, "things", []int{1, 2}))

	var got sample
	_, err := m.Load(ctx, "things", &got)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)

	var se *StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "decode", se.Op)
	assert.Equal(t, "things", se.Name)
}

func TestCancelledContextIsStorageError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewMemory().Save(ctx, "things", sample{})
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, context.Canceled)
}
