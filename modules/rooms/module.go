package rooms

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	nanoid "github.com/jaevor/go-nanoid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const roomIDLength = 12

// Module provides room CRUD and membership authorization as request/reply
// services over the ServiceContainer.
type Module struct {
	db     *gorm.DB
	repo   *Repository
	newID  func() string
	dbPath string
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new rooms module.
func NewModule() *Module {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "collabsphere.db"
	}
	return &Module{dbPath: dbPath}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "rooms"
}

// RegisterServices registers the room request-reply services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create-room", json.Unmarshal, json.Marshal, m.createRoom,
	); err != nil {
		return fmt.Errorf("failed to register create-room service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-room", json.Unmarshal, json.Marshal, m.getRoom,
	); err != nil {
		return fmt.Errorf("failed to register get-room service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-rooms", json.Unmarshal, json.Marshal, m.listRooms,
	); err != nil {
		return fmt.Errorf("failed to register list-rooms service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "add-member", json.Unmarshal, json.Marshal, m.addMember,
	); err != nil {
		return fmt.Errorf("failed to register add-member service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "authorize", json.Unmarshal, json.Marshal, m.authorize,
	); err != nil {
		return fmt.Errorf("failed to register authorize service: %w", err)
	}

	log.Printf("[rooms] Registered services: create-room, get-room, list-rooms, add-member, authorize")
	return nil
}

// Start opens the database and runs migrations.
func (m *Module) Start(_ context.Context) error {
	gen, err := nanoid.Standard(roomIDLength)
	if err != nil {
		return fmt.Errorf("failed to create room id generator: %w", err)
	}
	m.newID = gen

	// Busy timeout + WAL: the database file is shared with other modules.
	db, err := gorm.Open(sqlite.Open(m.dbPath+"?_busy_timeout=5000&_journal_mode=WAL"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := m.db.AutoMigrate(&Room{}, &Member{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	m.repo = NewRepository(m.db)

	log.Printf("[rooms] Module started (database: %s)", m.dbPath)
	return nil
}

// Stop closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.db != nil {
		if sqlDB, err := m.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[rooms] Module stopped")
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
