package gateway

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/rutvikbangar/collab-sphere/modules/auth"
	"github.com/rutvikbangar/collab-sphere/modules/files"
	"github.com/rutvikbangar/collab-sphere/modules/history"
	"github.com/rutvikbangar/collab-sphere/modules/hub"
	"github.com/rutvikbangar/collab-sphere/modules/rooms"
)

// fiber.Ctx locals keys for the verified identity.
const (
	localUserID   = "userID"
	localUsername = "username"
)

// Module is the single outward-facing surface: it terminates websocket
// connections for realtime sync and serves the REST API. All domain work is
// delegated to the hub, history, rooms, auth and files modules.
type Module struct {
	app           *fiber.App
	addr          string
	coordinator   *hub.Coordinator
	authModule    *auth.Module
	authService   *auth.Service
	filesModule   *files.Module
	historyModule *history.Module
	reader        *history.ReadService
	rooms         rooms.RoomsPort
	wsLogger      *slog.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module          = (*Module)(nil)
	_ mono.DependentModule = (*Module)(nil)
)

// NewModule creates a new gateway module.
func NewModule() *Module {
	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return &Module{
		addr:     addr,
		wsLogger: slog.Default(),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "gateway"
}

// Dependencies declares the request-reply services this module consumes.
func (m *Module) Dependencies() []string {
	return []string{"rooms"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "rooms":
		m.rooms = rooms.NewAdapter(container)
	}
}

// SetCoordinator injects the hub coordinator. Must be called before Start.
func (m *Module) SetCoordinator(c *hub.Coordinator) {
	m.coordinator = c
}

// SetAuthModule injects the auth module. Must be called before Start.
func (m *Module) SetAuthModule(a *auth.Module) {
	m.authModule = a
}

// SetFilesModule injects the files module. Must be called before Start.
func (m *Module) SetFilesModule(f *files.Module) {
	m.filesModule = f
}

// SetHistoryModule injects the history module. Must be called before Start.
func (m *Module) SetHistoryModule(h *history.Module) {
	m.historyModule = h
}

// Start initializes and starts the HTTP/WebSocket server. The framework
// starts modules in registration order, so the injected modules have
// already built their services by the time this runs.
func (m *Module) Start(_ context.Context) error {
	if m.coordinator == nil || m.authModule == nil || m.filesModule == nil || m.historyModule == nil || m.rooms == nil {
		return fmt.Errorf("gateway started before all collaborators were injected")
	}
	m.authService = m.authModule.Service()
	m.reader = m.historyModule.Reader()

	m.app = fiber.New(fiber.Config{
		AppName:               "collab-sphere",
		DisableStartupMessage: true,
		BodyLimit:             files.MaxUploadSize + 1<<20,
		ErrorHandler:          m.errorHandler,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} ${method} ${path} ${latency}\n",
	}))

	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:8080"
	}
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	m.registerRoutes()

	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("gateway failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	log.Printf("[gateway] Module started (addr: %s)", m.addr)
	return nil
}

// Stop gracefully shuts down the server. In-flight websocket read loops end
// when their connections close; each one deregisters its session on the way
// out.
func (m *Module) Stop(ctx context.Context) error {
	if m.app != nil {
		if err := m.app.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}
	log.Println("[gateway] Module stopped")
	return nil
}

// registerRoutes sets up all HTTP and WebSocket routes.
func (m *Module) registerRoutes() {
	m.app.Get("/health", m.handleHealth)

	// Uploaded blobs are served as static files.
	m.app.Static("/files", m.filesModule.UploadDir())

	api := m.app.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", m.handleRegister)
	authGroup.Post("/login", m.handleLogin)
	authGroup.Post("/refresh", m.handleRefresh)

	protected := api.Group("", m.requireAuth)
	protected.Post("/rooms", m.handleCreateRoom)
	protected.Get("/rooms", m.handleListRooms)
	protected.Get("/rooms/:id", m.handleGetRoom)
	protected.Post("/rooms/:id/members", m.handleAddMember)
	protected.Get("/rooms/:id/strokes", m.handleRoomStrokes)
	protected.Get("/rooms/:id/messages", m.handleRoomMessages)
	protected.Post("/rooms/:id/files", m.handleUploadFile)
	protected.Get("/rooms/:id/files", m.handleListFiles)
	protected.Delete("/uploads/:id", m.handleDeleteFile)

	// WebSocket upgrade: the token travels as a query parameter because
	// browsers cannot set headers on websocket handshakes.
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		identity, err := m.authService.Verify(c.Context(), c.Query("token"))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or missing token")
		}
		c.Locals(localUserID, identity.UserID)
		c.Locals(localUsername, identity.Name)
		return c.Next()
	})
	m.app.Get("/ws", websocket.New(m.handleWebSocket))
}

// errorHandler handles errors globally.
func (m *Module) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	log.Printf("[gateway] HTTP error %d: %v", code, err)

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}
