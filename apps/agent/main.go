package main

import (
	"context"
	"log"
	"net/http"

	"github.com/EmptyBox36/umamusume-auto-train/apps/agent/internal/aptcache"
	"github.com/EmptyBox36/umamusume-auto-train/apps/agent/internal/config"
	"github.com/EmptyBox36/umamusume-auto-train/apps/agent/internal/dataset"
	"github.com/EmptyBox36/umamusume-auto-train/apps/agent/internal/gateway"
	"github.com/EmptyBox36/umamusume-auto-train/apps/agent/internal/journal"
	"github.com/EmptyBox36/umamusume-auto-train/apps/agent/internal/otel"
	"github.com/EmptyBox36/umamusume-auto-train/apps/agent/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Agent] Failed to load config: %v", err)
	}

	shutdown, err := otel.Setup(context.Background(), "umamusume-agent", cfg.OTELEndpoint, cfg.OTELEnabled)
	if err != nil {
		log.Fatalf("[Agent] Failed to init tracing: %v", err)
	}
	defer shutdown(context.Background())

	bundle, err := dataset.Load(dataset.Files{
		PolicyConfig:    cfg.PolicyConfigPath,
		SupportEvents:   cfg.SupportEventsPath,
		CharacterEvents: cfg.CharacterEventsPath,
		ScenarioEvents:  cfg.ScenarioEventsPath,
		Races:           cfg.RacesPath,
		ScriptsDir:      cfg.ScriptsDir,
	})
	if err != nil {
		log.Fatalf("[Agent] Failed to load datasets: %v", err)
	}

	journalService, journalMode, err := journal.NewServiceFromConfig(cfg)
	if err != nil {
		log.Fatalf("[Agent] Failed to init journal: %v", err)
	}
	defer journalService.Close()

	aptitudes, aptMode, err := aptcache.New(cfg)
	if err != nil {
		log.Fatalf("[Agent] Failed to init aptitude cache: %v", err)
	}
	defer aptitudes.Close()

	sessions := session.NewManager(bundle, journalService, aptitudes)
	gw := gateway.New(sessions, cfg.ReadLimit, bundle.Digest)
	journalHTTP := journal.NewHTTPHandler(journalService)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	journalHTTP.RegisterRoutes(mux)

	log.Printf("[Agent] Journal mode: %s", journalMode)
	log.Printf("[Agent] Aptitude cache: %s", aptMode)
	log.Printf("[Agent] Starting WebSocket server on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		log.Fatalf("[Agent] Failed to start: %v", err)
	}
}
