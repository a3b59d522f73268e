package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/elsanchez/smart-publish/internal/automation"
	"github.com/elsanchez/smart-publish/internal/batch"
	"github.com/elsanchez/smart-publish/internal/cookies"
	"github.com/elsanchez/smart-publish/internal/daemon"
	"github.com/elsanchez/smart-publish/internal/httpapi"
	"github.com/elsanchez/smart-publish/internal/platform"
	"github.com/elsanchez/smart-publish/internal/repository/sqlite"
	"github.com/elsanchez/smart-publish/internal/session"
	"github.com/elsanchez/smart-publish/internal/upload"
	"github.com/elsanchez/smart-publish/pkg/client"
)

const (
	version = "0.1.0"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	automationBin := flag.String("automation-bin", "browser-agent", "Binario del helper de automatización de navegador")
	httpAddr := flag.String("http", "", "Dirección del API HTTP (vacío = deshabilitado, ej. :5409)")
	redisAddr := flag.String("redis", "", "Dirección de Redis para cache de sesiones (vacío = cache en memoria)")
	workers := flag.Int("workers", 2, "Concurrencia máxima por lote")
	flag.Parse()

	log.Printf("smart-publishd v%s starting...", version)

	// Verificar dependencias
	engine := automation.NewCommandDriver(*automationBin)
	if err := engine.CheckInstalled(); err != nil {
		log.Fatalf("Dependency check failed: %v", err)
	}
	log.Printf("✓ Dependencies check passed (%s)", *automationBin)

	// Obtener directorios
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to get home directory: %v", err)
	}

	dataDir := filepath.Join(homeDir, ".local", "share", "smart-publish")
	sessionsDir := filepath.Join(dataDir, "sessions")

	// Crear directorios
	for _, dir := range []string{dataDir, sessionsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	log.Printf("Data directory: %s", dataDir)

	// Inicializar base de datos
	db, err := sqlite.NewDatabase(dataDir)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	log.Println("✓ Database initialized")

	// Registro de plataformas soportadas
	registry := platform.NewRegistry()
	log.Printf("✓ Platform registry initialized (%d platforms)", len(registry.Names()))

	// Cache de veredictos de sesión
	var cache session.Cache
	if *redisAddr != "" {
		cache = session.NewRedisCache(redis.NewClient(&redis.Options{Addr: *redisAddr}))
		log.Printf("✓ Session cache: redis (%s)", *redisAddr)
	} else {
		cache = session.NewMemoryCache()
		log.Println("✓ Session cache: in-memory")
	}

	// Manager de sesiones
	sessionMgr := session.NewManager(engine, registry, cache, db.AccountRepo, db.CookieRepo, session.DefaultConfig(dataDir))
	log.Println("✓ Session manager initialized")

	// Uploader y orquestador de lotes
	uploader := upload.NewUploader(engine, registry, sessionMgr, upload.DefaultUploadConfig())
	orchestrator := batch.NewOrchestrator(uploader)
	log.Printf("✓ Batch orchestrator initialized (%d max workers)", *workers)

	// Importador de cookies
	validator := session.NewValidator(engine, registry, 10*time.Second)
	importer := cookies.NewCookieImporter(validator, sessionMgr, db.AccountRepo)

	// Crear handlers
	handlers := daemon.NewHandlers(db.AccountRepo, sessionMgr, orchestrator, importer, *workers)

	// Crear servidor
	socketPath := client.GetDefaultSocketPath()
	server := daemon.NewServer(socketPath, handlers)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := server.Start(ctx); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	defer server.Stop()

	log.Println("✓ Server started")
	log.Printf("Socket: %s", socketPath)

	// API HTTP opcional sobre los mismos handlers
	var httpServer *httpapi.Server
	if *httpAddr != "" {
		httpServer = httpapi.NewServer(*httpAddr, handlers)
		go func() {
			if err := httpServer.Start(); err != nil {
				log.Printf("HTTP server error: %v", err)
			}
		}()
		log.Printf("✓ HTTP API listening on %s", *httpAddr)
	}

	log.Println("smart-publishd is ready")

	// Esperar señal de terminación
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Printf("Received signal: %v", sig)
	log.Println("Shutting down gracefully...")

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := httpServer.Stop(shutdownCtx); err != nil {
			log.Printf("HTTP shutdown error: %v", err)
		}
		shutdownCancel()
	}

	cancel()
}
