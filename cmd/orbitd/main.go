// Copyright 2025 Certen Protocol
//
// orbitd is the HTTP host that wires pkg/config, pkg/metrics, pkg/blob,
// pkg/didkey and pkg/orbit into the public API pkg/server exposes. It is
// deliberately thin: every decision of substance (what a capability
// authorizes, how an epoch commits, how a value materializes) lives in the
// packages it wires, not here.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	dbm "github.com/cometbft/cometbft-db"
	badger "github.com/dgraph-io/badger/v2"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kepler-network/orbit-core/pkg/blob"
	"github.com/kepler-network/orbit-core/pkg/config"
	"github.com/kepler-network/orbit-core/pkg/didkey"
	"github.com/kepler-network/orbit-core/pkg/metrics"
	"github.com/kepler-network/orbit-core/pkg/orbit"
	"github.com/kepler-network/orbit-core/pkg/server"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	showHelp := flag.Bool("help", false, "Show help message")
	flag.Parse()
	if *showHelp {
		printHelp()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("orbitd: load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("orbitd: invalid configuration: %v", err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("orbitd: open database: %v", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	if err := db.PingContext(context.Background()); err != nil {
		log.Fatalf("orbitd: ping database: %v", err)
	}
	log.Println("orbitd: connected to database")

	blobStore, err := openBlobStore(cfg)
	if err != nil {
		log.Fatalf("orbitd: open blob store: %v", err)
	}

	// The built-in did:key collaborator resolves manifests registered in
	// this process; production deployments that need external DID methods
	// supply their own manifest.DIDResolver satisfying the same interface.
	resolver := didkey.NewKeyringResolver()

	opts := orbit.OpenOptions{DB: db, Resolver: resolver, Blobs: blobStore}

	reg := metrics.NewRegistry(prometheus.DefaultRegisterer)

	mux := http.NewServeMux()
	registerRoutes(mux, opts, cfg, reg)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())

	apiServer := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}

	go func() {
		log.Printf("orbitd: API listening on %s", cfg.ListenAddr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("orbitd: API server failed: %v", err)
		}
	}()
	go func() {
		log.Printf("orbitd: metrics listening on %s", cfg.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("orbitd: metrics server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("orbitd: shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("orbitd: API server shutdown error: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("orbitd: metrics server shutdown error: %v", err)
	}
	if err := db.Close(); err != nil {
		log.Printf("orbitd: database close error: %v", err)
	}
	log.Println("orbitd: stopped")
}

func registerRoutes(mux *http.ServeMux, opts orbit.OpenOptions, cfg *config.Config, reg *metrics.Registry) {
	orbitHandlers := server.NewOrbitHandlers(opts, nil)
	eventHandlers := server.NewEventHandlers(opts, cfg.OrbitQuotaBytes, reg, nil)

	mux.HandleFunc("/api/v1/orbits", orbitHandlers.HandleCreateOrbit)
	mux.HandleFunc("/api/v1/orbits/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/heads"):
			orbitHandlers.HandleHeads(w, r)
		case strings.HasSuffix(r.URL.Path, "/delegations"):
			eventHandlers.HandleDelegate(w, r)
		case strings.HasSuffix(r.URL.Path, "/invocations"):
			eventHandlers.HandleInvoke(w, r)
		case strings.HasSuffix(r.URL.Path, "/revocations"):
			eventHandlers.HandleRevoke(w, r)
		case strings.Contains(r.URL.Path, "/kv/") || strings.HasSuffix(r.URL.Path, "/kv"):
			if r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/kv") {
				orbitHandlers.HandleList(w, r)
				return
			}
			orbitHandlers.HandleRead(w, r)
		default:
			http.NotFound(w, r)
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
}

func openBlobStore(cfg *config.Config) (blob.Store, error) {
	switch cfg.BlobBackend {
	case config.BlobBackendMemory:
		return blob.NewMemoryStore(), nil
	case config.BlobBackendBadger:
		opts := badger.DefaultOptions(cfg.BlobDataDir)
		db, err := badger.Open(opts)
		if err != nil {
			return nil, err
		}
		return blob.NewBadgerStore(db), nil
	case config.BlobBackendCometDB:
		db, err := dbm.NewGoLevelDB(cfg.CometDBName, cfg.BlobDataDir)
		if err != nil {
			return nil, err
		}
		return blob.NewCometDBStore(db), nil
	default:
		return blob.NewMemoryStore(), nil
	}
}

func printHelp() {
	log.Println("orbitd: a decentralized permissioned-storage capability-authority and event-log host")
	log.Println("usage: orbitd [-help]")
	log.Println("configuration is read from the environment; see pkg/config for variable names")
}
