package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/rutvikbangar/collab-sphere/modules/auth"
	"github.com/rutvikbangar/collab-sphere/modules/files"
	"github.com/rutvikbangar/collab-sphere/modules/gateway"
	"github.com/rutvikbangar/collab-sphere/modules/history"
	"github.com/rutvikbangar/collab-sphere/modules/hub"
	"github.com/rutvikbangar/collab-sphere/modules/rooms"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Collab Sphere - Realtime Whiteboard & Chat ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	historyModule := history.NewModule()
	roomsModule := rooms.NewModule()
	authModule := auth.NewModule()
	filesModule := files.NewModule()
	hubModule := hub.NewModule(historyModule)
	gatewayModule := gateway.NewModule()

	// Inject collaborators that are not exposed via ServiceContainer.
	gatewayModule.SetCoordinator(hubModule.Coordinator())
	gatewayModule.SetAuthModule(authModule)
	gatewayModule.SetFilesModule(filesModule)
	gatewayModule.SetHistoryModule(historyModule)

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - history: stroke/chat persistence (backs the hub and the read API)
	// - rooms: room CRUD + membership (ServiceProviderModule)
	// - auth: accounts + token verification
	// - files: uploads (EventEmitterModule)
	// - hub: realtime room coordination (EventConsumerModule)
	// - gateway: Fiber HTTP/WebSocket server (depends on rooms)
	app.Register(historyModule)
	app.Register(roomsModule)
	app.Register(authModule)
	app.Register(filesModule)
	app.Register(hubModule)
	app.Register(gatewayModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost%s):", addr)
	log.Println("  GET    /health                        - Health check")
	log.Println("  POST   /api/v1/auth/register          - Create an account")
	log.Println("  POST   /api/v1/auth/login             - Obtain tokens")
	log.Println("  POST   /api/v1/auth/refresh           - Refresh tokens")
	log.Println("  POST   /api/v1/rooms                  - Create a room")
	log.Println("  GET    /api/v1/rooms                  - List your rooms")
	log.Println("  GET    /api/v1/rooms/:id              - Get room details")
	log.Println("  POST   /api/v1/rooms/:id/members      - Add a member")
	log.Println("  GET    /api/v1/rooms/:id/strokes      - Board history")
	log.Println("  GET    /api/v1/rooms/:id/messages     - Chat history")
	log.Println("  POST   /api/v1/rooms/:id/files        - Upload a file")
	log.Println("  GET    /api/v1/rooms/:id/files        - List room files")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost%s/ws?token=...):", addr)
	log.Println("  Frame types: join, leave, draw, chat, replace")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
