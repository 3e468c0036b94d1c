package hub

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/rutvikbangar/collab-sphere/events"
)

// Module hosts the room synchronization hub: registry, router and
// coordinator. It consumes FileUploaded events from the EventBus and turns
// them into room broadcasts through the same fan-out path as strokes and
// chat.
type Module struct {
	registry    *Registry
	router      *Router
	coordinator *Coordinator
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the hub module over the given history store.
func NewModule(store HistoryStore) *Module {
	logger := slog.Default()
	registry := NewRegistry()
	router := NewRouter(registry, logger)
	return &Module{
		registry:    registry,
		router:      router,
		coordinator: NewCoordinator(store, registry, router, logger),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "hub"
}

// Coordinator returns the room coordinator for the gateway to drive.
func (m *Module) Coordinator() *Coordinator {
	return m.coordinator
}

// Start initializes the module. The hub has no background loop: all work
// happens inside the calling connection's goroutine under room sections.
func (m *Module) Start(_ context.Context) error {
	log.Println("[hub] Module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	log.Printf("[hub] Module stopped - %d sessions in %d rooms were attached",
		m.registry.SessionCount(), m.registry.RoomCount())
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"active_rooms":      m.registry.RoomCount(),
			"attached_sessions": m.registry.SessionCount(),
		},
	}
}

// RegisterEventConsumers subscribes the hub to FileUploaded events.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.FileUploadedV1, m.handleFileUploaded, m,
	); err != nil {
		return fmt.Errorf("failed to register FileUploaded consumer: %w", err)
	}
	log.Println("[hub] Registered event consumers: FileUploaded")
	return nil
}

func (m *Module) handleFileUploaded(_ context.Context, event events.FileUploadedEvent, _ *mono.Msg) error {
	m.coordinator.PublishFile(event.RoomID, FilePayload{
		FileID:       event.FileID,
		RoomID:       event.RoomID,
		FileName:     event.FileName,
		URL:          event.URL,
		UploadedBy:   event.UploadedBy,
		UploaderName: event.UploaderName,
		Timestamp:    event.Timestamp,
	})
	return nil
}
