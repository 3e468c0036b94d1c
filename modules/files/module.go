package files

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/go-monolith/mono"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rutvikbangar/collab-sphere/events"
)

// MaxUploadSize is the largest accepted file upload, in bytes.
const MaxUploadSize = 10 << 20 // 10 MiB

var (
	// ErrEmptyFile is returned when an upload carries no data.
	ErrEmptyFile = errors.New("file is empty")
	// ErrFileTooLarge is returned when an upload exceeds MaxUploadSize.
	ErrFileTooLarge = errors.New("file exceeds maximum size")
	// ErrNotOwner is returned when a user tries to delete a file they did
	// not upload.
	ErrNotOwner = errors.New("only the uploader can delete a file")
)

// Module stores uploaded file blobs and metadata, and announces uploads on
// the EventBus so the hub can fan them out to connected room members.
type Module struct {
	db       *gorm.DB
	repo     *Repository
	blobs    BlobStore
	eventBus mono.EventBus
	dbPath   string
	dir      string
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new files module.
func NewModule() *Module {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "collabsphere.db"
	}
	dir := os.Getenv("UPLOAD_DIR")
	if dir == "" {
		dir = "uploads"
	}
	return &Module{dbPath: dbPath, dir: dir}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "files"
}

// Start opens the database, runs migrations and prepares the blob store.
func (m *Module) Start(_ context.Context) error {
	// Busy timeout + WAL: the database file is shared with other modules.
	db, err := gorm.Open(sqlite.Open(m.dbPath+"?_busy_timeout=5000&_journal_mode=WAL"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := db.AutoMigrate(&FileRecord{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	m.repo = NewRepository(db)

	blobs, err := NewDiskStore(m.dir, "/files")
	if err != nil {
		return err
	}
	m.blobs = blobs

	log.Printf("[files] Module started (uploads: %s)", m.dir)
	return nil
}

// Stop closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.db != nil {
		if sqlDB, err := m.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[files] Module stopped")
	return nil
}

// Health performs a database ping.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{Healthy: false, Message: "database not initialized"}
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("failed to get sql.DB: %v", err)}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("database ping failed: %v", err)}
	}
	return mono.HealthStatus{Healthy: true, Message: "operational"}
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.FileUploadedV1.ToBase(),
	}
}

// Save stores an uploaded file and publishes a FileUploaded event. The blob
// is written first so a metadata row never points at a missing file.
func (m *Module) Save(_ context.Context, roomID, userID, userName, fileName string, data []byte) (*FileRecord, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if len(data) > MaxUploadSize {
		return nil, ErrFileTooLarge
	}

	id := uuid.New().String()
	key := id + sanitizeExt(fileName)
	url, err := m.blobs.Put(key, data)
	if err != nil {
		return nil, err
	}

	rec := &FileRecord{
		ID:           id,
		RoomID:       roomID,
		Name:         fileName,
		BlobKey:      key,
		URL:          url,
		Size:         int64(len(data)),
		UploadedBy:   userID,
		UploaderName: userName,
		CreatedAt:    time.Now(),
	}
	if err := m.repo.Create(rec); err != nil {
		// Best effort: don't leave an orphaned blob behind.
		if rmErr := m.blobs.Remove(key); rmErr != nil {
			log.Printf("[files] Warning: failed to remove orphaned blob %s: %v", key, rmErr)
		}
		return nil, err
	}

	if m.eventBus != nil {
		event := events.FileUploadedEvent{
			FileID:       rec.ID,
			RoomID:       rec.RoomID,
			FileName:     rec.Name,
			URL:          rec.URL,
			UploadedBy:   rec.UploadedBy,
			UploaderName: rec.UploaderName,
			Timestamp:    rec.CreatedAt,
		}
		if err := events.FileUploadedV1.Publish(m.eventBus, event, nil); err != nil {
			// Event publishing is best-effort; log but don't fail the upload
			log.Printf("[files] Warning: failed to publish FileUploaded event for file %s: %v", rec.ID, err)
		}
	}
	return rec, nil
}

// ListRoomFiles returns the metadata of all files uploaded to a room.
func (m *Module) ListRoomFiles(_ context.Context, roomID string) ([]FileRecord, error) {
	return m.repo.ListByRoom(roomID)
}

// Delete removes a file. Only the uploader may delete it.
func (m *Module) Delete(_ context.Context, fileID, userID string) error {
	rec, err := m.repo.FindByID(fileID)
	if err != nil {
		return err
	}
	if rec.UploadedBy != userID {
		return ErrNotOwner
	}
	if err := m.repo.Delete(rec.ID); err != nil {
		return err
	}
	if err := m.blobs.Remove(rec.BlobKey); err != nil {
		log.Printf("[files] Warning: failed to remove blob %s: %v", rec.BlobKey, err)
	}
	return nil
}

// UploadDir returns the directory uploaded blobs live in.
func (m *Module) UploadDir() string {
	return m.dir
}

// sanitizeExt returns a safe lowercase file extension including the dot, or
// an empty string when the name has none worth keeping.
func sanitizeExt(name string) string {
	ext := filepath.Ext(name)
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}
