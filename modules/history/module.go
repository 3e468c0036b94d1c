package history

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rutvikbangar/collab-sphere/domain/board"
	"github.com/rutvikbangar/collab-sphere/modules/cache"
)

const cacheTTL = 30 * time.Second

// Several modules share the default database file. WAL plus a busy timeout
// makes concurrent writers wait for the lock instead of failing SQLITE_BUSY.
const sqliteOptions = "?_busy_timeout=5000&_journal_mode=WAL"

// Module provides durable stroke/message history via GORM + SQLite. It
// implements the hub's HistoryStore interface; writes invalidate the
// REST read cache.
type Module struct {
	db     *gorm.DB
	store  *Store
	reader *ReadService
	cache  *cache.Cache
	dbPath string
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new history module.
func NewModule() *Module {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "collabsphere.db"
	}
	return &Module{dbPath: dbPath}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "history"
}

// Start opens the database, runs migrations and wires the read side. When
// REDIS_ADDR is set the read side gets a redis cache; otherwise reads go
// straight to SQLite with singleflight collapsing.
func (m *Module) Start(ctx context.Context) error {
	log.Printf("[history] Connecting to SQLite database: %s", m.dbPath)

	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "true" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(m.dbPath+sqliteOptions), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := m.db.AutoMigrate(&StrokeRecord{}, &MessageRecord{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.store = NewStore(m.db)

	var cacheStore CacheStore
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c, err := cache.New(ctx, addr, "history:", cacheTTL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		m.cache = c
		cacheStore = c
		log.Printf("[history] Read cache enabled (redis: %s)", addr)
	}
	m.reader = NewReadService(m.store, cacheStore)

	log.Println("[history] Module started successfully")
	return nil
}

// Stop closes the cache and database connections.
func (m *Module) Stop(_ context.Context) error {
	if m.cache != nil {
		if err := m.cache.Close(); err != nil {
			log.Printf("[history] Failed to close redis client: %v", err)
		}
	}
	if m.db == nil {
		return nil
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	log.Println("[history] Database connection closed")
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

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": "sqlite",
			"path":   m.dbPath,
		},
	}
}

// Reader returns the REST read service.
func (m *Module) Reader() *ReadService {
	return m.reader
}

// AppendStroke implements hub.HistoryStore.
func (m *Module) AppendStroke(ctx context.Context, s *board.Stroke) error {
	if err := m.store.AppendStroke(ctx, s); err != nil {
		return err
	}
	m.reader.Invalidate(ctx, s.RoomID)
	return nil
}

// ListStrokes implements hub.HistoryStore.
func (m *Module) ListStrokes(ctx context.Context, roomID string) ([]board.Stroke, error) {
	return m.store.ListStrokes(ctx, roomID)
}

// ReplaceStrokes implements hub.HistoryStore.
func (m *Module) ReplaceStrokes(ctx context.Context, roomID string, strokes []*board.Stroke) error {
	if err := m.store.ReplaceStrokes(ctx, roomID, strokes); err != nil {
		return err
	}
	m.reader.Invalidate(ctx, roomID)
	return nil
}

// AppendMessage implements hub.HistoryStore.
func (m *Module) AppendMessage(ctx context.Context, msg *board.ChatMessage) error {
	if err := m.store.AppendMessage(ctx, msg); err != nil {
		return err
	}
	m.reader.Invalidate(ctx, msg.RoomID)
	return nil
}

// ListMessages implements hub.HistoryStore.
func (m *Module) ListMessages(ctx context.Context, roomID string) ([]board.ChatMessage, error) {
	return m.store.ListMessages(ctx, roomID)
}
