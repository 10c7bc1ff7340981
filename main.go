package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	clientDir := flag.String("client", "", "Path to client directory (default: ../client)")
	dbPath := flag.String("db", "", "SQLite path or PostgreSQL DSN (default: $INGRAVED_DB, $DATABASE_URL or ingraved.db)")
	dbDriver := flag.String("db-driver", "sqlite", "Run storage backend: sqlite or postgres")
	configPath := flag.String("config", "", "TOML tunables file")
	local := flag.Bool("local", false, "Play one arena in this terminal instead of serving")
	name := flag.String("name", "", "Pilot name for -local runs")
	flag.Parse()

	cfg, err := LoadTunables(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	dsn := resolveDSN(*dbDriver, *dbPath)
	store, err := OpenStore(*dbDriver, dsn)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *local {
		pilot := *name
		if pilot == "" {
			pilot = GuestName()
		}
		// log output would tear the terminal UI
		log.SetOutput(devNull())
		if err := RunTerminal(ctx, cfg, store, pilot); err != nil {
			log.SetOutput(os.Stderr)
			log.Fatalf("%v", err)
		}
		return
	}

	if *clientDir == "" {
		exe, _ := os.Executable()
		*clientDir = filepath.Join(filepath.Dir(exe), "..", "client")
		// Fallback for development
		if _, err := os.Stat(*clientDir); os.IsNotExist(err) {
			*clientDir = "../client"
		}
	}

	journal := NewJournal(store)
	sessions := NewSessionManager(ctx, cfg, store, journal)
	go sessions.RunReaper(ctx)

	hub := NewHub(sessions, store, journal)
	go hub.Run()

	mux := SetupRoutes(hub, *clientDir)
	server := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		log.Printf("Server starting on %s", *addr)
		log.Printf("Serving client files from %s", *clientDir)
		log.Printf("Run storage: %s", *dbDriver)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	sessions.CloseAll()
	hub.Close()
	journal.Stop()
	written, dropped := journal.Counts()
	log.Printf("journal: %d events written, %d dropped", written, dropped)
}

// resolveDSN picks the storage location: flag, then INGRAVED_DB, then DATABASE_URL for
// postgres, then the default SQLite file
func resolveDSN(driver, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv("INGRAVED_DB"); v != "" {
		return v
	}
	if driver == "postgres" {
		return os.Getenv("DATABASE_URL")
	}
	return "ingraved.db"
}

func devNull() *os.File {
	f, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		return os.Stderr
	}
	return f
}
