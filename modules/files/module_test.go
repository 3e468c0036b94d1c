package files

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestFilesModule(t *testing.T) *Module {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&FileRecord{}))

	dir := t.TempDir()
	blobs, err := NewDiskStore(dir, "/files")
	require.NoError(t, err)

	return &Module{
		db:    db,
		repo:  NewRepository(db),
		blobs: blobs,
		dir:   dir,
	}
}

func TestModule_SaveAndList(t *testing.T) {
	ctx := context.Background()
	m := newTestFilesModule(t)

	rec, err := m.Save(ctx, "room1", "u1", "alice", "diagram.png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "room1", rec.RoomID)
	assert.Equal(t, "diagram.png", rec.Name)
	assert.Equal(t, int64(9), rec.Size)
	assert.Equal(t, "/files/"+rec.BlobKey, rec.URL)

	// The blob landed on disk.
	data, err := os.ReadFile(filepath.Join(m.dir, rec.BlobKey))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)

	listed, err := m.ListRoomFiles(ctx, "room1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, rec.ID, listed[0].ID)

	other, err := m.ListRoomFiles(ctx, "room2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestModule_SaveRejectsBadUploads(t *testing.T) {
	ctx := context.Background()
	m := newTestFilesModule(t)

	_, err := m.Save(ctx, "room1", "u1", "alice", "empty.txt", nil)
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = m.Save(ctx, "room1", "u1", "alice", "huge.bin", make([]byte, MaxUploadSize+1))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestModule_DeleteOwnerOnly(t *testing.T) {
	ctx := context.Background()
	m := newTestFilesModule(t)

	rec, err := m.Save(ctx, "room1", "u1", "alice", "notes.txt", []byte("data"))
	require.NoError(t, err)

	err = m.Delete(ctx, rec.ID, "intruder")
	assert.ErrorIs(t, err, ErrNotOwner)

	require.NoError(t, m.Delete(ctx, rec.ID, "u1"))

	_, err = os.Stat(filepath.Join(m.dir, rec.BlobKey))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	err = m.Delete(ctx, rec.ID, "u1")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestDiskStore_RejectsPathTraversal(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "/files")
	require.NoError(t, err)

	_, err = store.Put("../escape", []byte("x"))
	assert.Error(t, err)
	_, err = store.Put("", []byte("x"))
	assert.Error(t, err)
	assert.Error(t, store.Remove("../escape"))
}

func TestDiskStore_RemoveMissingIsNoop(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "/files")
	require.NoError(t, err)
	assert.NoError(t, store.Remove("never-existed.bin"))
}

func TestSanitizeExt(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"diagram.png", ".png"},
		{"archive.tar.gz", ".gz"},
		{"noext", ""},
		{"trailingdot.", ""},
		{"weird.p!g", ""},
		{"verylong.extension12345", ""},
	}
	for _, tt := range tests {
		if got := sanitizeExt(tt.name); got != tt.want {
			t.Errorf("sanitizeExt(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
