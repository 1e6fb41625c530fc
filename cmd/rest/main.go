package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ai-casebrief-be/internal/bootstrap"
	"ai-casebrief-be/internal/config"
	"ai-casebrief-be/internal/server"
	"ai-casebrief-be/internal/tracer"
	"ai-casebrief-be/pkg/database"

	"gorm.io/gorm"
)

func main() {
	// 0. Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	var gormDB *gorm.DB
	if cfg.App.StorageDriver == "postgres" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, !cfg.App.IsProduction())
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		gormDB = db
	}

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(gormDB, cfg)
	if err != nil {
		log.Fatalf("[FATAL] Bootstrap failed: %v", err)
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Start Background Services
	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Fatalf("[FATAL] Consumer failed to subscribe: %v", err)
	}
	if container.InboundService != nil {
		if err := container.InboundService.Start(ctx); err != nil {
			log.Printf("[WARN] Inbound chat events disabled: %v", err)
		}
	} else {
		log.Println("[WARN] NATS unavailable, chat events are accepted over HTTP only")
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	// 6. Run Server
	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
