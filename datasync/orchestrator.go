package datasync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Orchestrator is the client side of the protocol: a best-effort background
// loop that pulls at startup, seeds the server when it is empty, pushes
// local edits opportunistically, and re-syncs on an interval. Failures are
// logged and swallowed; the local dataset remains usable whether or not the
// server is reachable.
type OrchestratorConfig struct {
	BaseURL   string
	Token     string
	Interval  time.Duration
	StatePath string
	HTTP      *http.Client
}

type Orchestrator struct {
	cfg    OrchestratorConfig
	logger *logrus.Logger

	mu      sync.Mutex
	syncing bool
	version int
}

func NewOrchestrator(cfg OrchestratorConfig, logger *logrus.Logger) *Orchestrator {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.HTTP == nil {
		cfg.HTTP = &http.Client{Timeout: 30 * time.Second}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Orchestrator{cfg: cfg, logger: logger}
}

// Run blocks until ctx is cancelled. One sync cycle runs immediately, then
// one per interval. Cycles never overlap.
func (o *Orchestrator) Run(ctx context.Context) {
	o.SyncOnce(ctx)

	ticker := time.NewTicker(o.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.SyncOnce(ctx)
		}
	}
}

// SyncOnce runs a single pull/seed cycle. Single-flight: a cycle that
// finds another in progress returns immediately.
func (o *Orchestrator) SyncOnce(ctx context.Context) {
	o.mu.Lock()
	if o.syncing {
		o.mu.Unlock()
		return
	}
	o.syncing = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.syncing = false
		o.mu.Unlock()
	}()

	if err := o.cycle(ctx); err != nil {
		// Local-first: the app keeps working against local data.
		o.logger.WithFields(logrus.Fields{
			"module": "datasync",
			"func":   "SyncOnce",
		}).Warn("sync cycle failed: " + err.Error())
	}
}

func (o *Orchestrator) cycle(ctx context.Context) error {
	pulled, err := o.pull(ctx)
	if err != nil {
		return err
	}

	local := o.loadLocal()

	if pulled.Version == 0 && pulled.Data.IsEmpty() {
		if !local.IsEmpty() {
			if err := o.push(ctx, nil, local); err != nil {
				// Seeding is opportunistic; a failed seed is not fatal.
				o.logger.WithFields(logrus.Fields{
					"module": "datasync",
					"func":   "cycle",
				}).Warn("seed push failed: " + err.Error())
				return nil
			}
			o.version = 1
		}
		return nil
	}

	// Local edits since the last cycle are pushed against the version just
	// pulled. On conflict or failure the server copy wins this cycle.
	if !local.IsEmpty() && !sameDocument(local, pulled.Data) {
		base := pulled.Version
		if err := o.push(ctx, &base, local); err == nil {
			o.version = pulled.Version + 1
			return nil
		} else {
			o.logger.WithFields(logrus.Fields{
				"module": "datasync",
				"func":   "cycle",
			}).Warn("push of local changes failed: " + err.Error())
		}
	}

	o.version = pulled.Version
	return o.saveLocal(pulled.Data)
}

// sameDocument compares content identity; the export stamp is excluded
// because it changes on every pull.
func sameDocument(a, b *Document) bool {
	ac, bc := *a, *b
	ac.ExportDate, bc.ExportDate = "", ""
	ra, err := json.Marshal(&ac)
	if err != nil {
		return false
	}
	rb, err := json.Marshal(&bc)
	if err != nil {
		return false
	}
	return bytes.Equal(ra, rb)
}

func (o *Orchestrator) pull(ctx context.Context) (*PullResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.cfg.BaseURL+"/sync/pull", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("token", o.cfg.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := o.cfg.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pull failed %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var raw struct {
		Key       string          `json:"key"`
		Version   int             `json:"version"`
		Data      json.RawMessage `json:"data"`
		UpdatedAt *string         `json:"updatedAt"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	return &PullResponse{
		Key:       raw.Key,
		Version:   raw.Version,
		Data:      UnmarshalDocument(raw.Data),
		UpdatedAt: raw.UpdatedAt,
	}, nil
}

func (o *Orchestrator) push(ctx context.Context, baseVersion *int, doc *Document) error {
	payload, err := json.Marshal(map[string]any{
		"baseVersion": baseVersion,
		"data":        doc,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+"/sync/push", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("token", o.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.cfg.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push failed %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func (o *Orchestrator) loadLocal() *Document {
	if o.cfg.StatePath == "" {
		return EmptyDocument()
	}
	raw, err := os.ReadFile(o.cfg.StatePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			o.logger.WithFields(logrus.Fields{
				"module": "datasync",
				"func":   "loadLocal",
			}).Warn("read local dataset failed: " + err.Error())
		}
		return EmptyDocument()
	}
	return UnmarshalDocument(raw)
}

func (o *Orchestrator) saveLocal(doc *Document) error {
	if o.cfg.StatePath == "" {
		return nil
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := o.cfg.StatePath + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, o.cfg.StatePath)
}
