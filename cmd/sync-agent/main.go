// sync-agent runs the client side of the sync protocol: a local-first
// background loop that keeps a JSON dataset file reconciled with the
// server. Sync failures never exit the process; the local file stays
// authoritative for the client.
//
// Usage:
//   go run ./cmd/sync-agent -server http://localhost:8080 \
//     -token <session-token> -state ./dataset.json -interval 5m
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edspark/schoolhub_backend/config"
	"github.com/edspark/schoolhub_backend/datasync"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "sync server base URL")
	token := flag.String("token", "", "session token (required)")
	statePath := flag.String("state", "dataset.json", "local dataset file")
	interval := flag.Duration("interval", 5*time.Minute, "re-sync interval")
	flag.Parse()

	if *token == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := config.GetLogger()

	orch := datasync.NewOrchestrator(datasync.OrchestratorConfig{
		BaseURL:   *server,
		Token:     *token,
		Interval:  *interval,
		StatePath: *statePath,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("sync agent started (server=%s state=%s interval=%s)", *server, *statePath, *interval)
	orch.Run(ctx)
	log.Println("sync agent stopped")
}
