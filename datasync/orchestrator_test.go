package datasync

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestOrchestratorSavesPulledDataset(t *testing.T) {
	doc := EmptyDocument()
	doc.Students = append(doc.Students, StudentRecord{ID: "st1", Name: "Aung Aung", Status: "Active"})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sync/pull" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("token") != "tok-1" {
			t.Errorf("token header = %q", r.Header.Get("token"))
		}
		_ = json.NewEncoder(w).Encode(PullResponse{Key: "default", Version: 3, Data: doc})
	}))
	defer server.Close()

	statePath := filepath.Join(t.TempDir(), "dataset.json")
	o := NewOrchestrator(OrchestratorConfig{
		BaseURL:   server.URL,
		Token:     "tok-1",
		StatePath: statePath,
	}, testLogger())

	o.SyncOnce(context.Background())

	raw, err := os.ReadFile(statePath)
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	saved := UnmarshalDocument(raw)
	if len(saved.Students) != 1 || saved.Students[0].ID != "st1" {
		t.Errorf("saved dataset wrong: %+v", saved.Students)
	}
	if o.version != 3 {
		t.Errorf("remembered version = %d, want 3", o.version)
	}
}

func TestOrchestratorSeedsEmptyServer(t *testing.T) {
	var mu sync.Mutex
	var pushed []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sync/pull":
			_ = json.NewEncoder(w).Encode(PullResponse{Key: "default", Version: 0, Data: EmptyDocument()})
		case "/sync/push":
			raw, _ := io.ReadAll(r.Body)
			mu.Lock()
			pushed = raw
			mu.Unlock()
			_ = json.NewEncoder(w).Encode(PushResponse{Key: "default", Version: 1})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	statePath := filepath.Join(t.TempDir(), "dataset.json")
	local := EmptyDocument()
	local.Staff = append(local.Staff, StaffRecord{ID: "sf1", Name: "Daw Mya", Status: "Active"})
	raw, _ := json.Marshal(local)
	if err := os.WriteFile(statePath, raw, 0o644); err != nil {
		t.Fatalf("write local dataset: %v", err)
	}

	o := NewOrchestrator(OrchestratorConfig{
		BaseURL:   server.URL,
		Token:     "tok-1",
		StatePath: statePath,
	}, testLogger())

	o.SyncOnce(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if len(pushed) == 0 {
		t.Fatal("empty server with non-empty local data should trigger a seed push")
	}
	var req struct {
		BaseVersion *int            `json:"baseVersion"`
		Data        json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(pushed, &req); err != nil {
		t.Fatalf("decode seed push: %v", err)
	}
	if req.BaseVersion != nil {
		t.Errorf("seed push should omit baseVersion, got %v", *req.BaseVersion)
	}
	seeded := UnmarshalDocument(req.Data)
	if len(seeded.Staff) != 1 || seeded.Staff[0].ID != "sf1" {
		t.Errorf("seed push payload wrong: %+v", seeded.Staff)
	}
	if o.version != 1 {
		t.Errorf("version after seed = %d, want 1", o.version)
	}
}

func TestOrchestratorPushesDivergedLocalData(t *testing.T) {
	serverDoc := EmptyDocument()
	serverDoc.Students = append(serverDoc.Students, StudentRecord{ID: "st1", Name: "Aung Aung", Status: "Active"})

	var mu sync.Mutex
	var pushed []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sync/pull":
			_ = json.NewEncoder(w).Encode(PullResponse{Key: "default", Version: 3, Data: serverDoc})
		case "/sync/push":
			raw, _ := io.ReadAll(r.Body)
			mu.Lock()
			pushed = raw
			mu.Unlock()
			_ = json.NewEncoder(w).Encode(PushResponse{Key: "default", Version: 4})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	statePath := filepath.Join(t.TempDir(), "dataset.json")
	local := EmptyDocument()
	local.Students = append(local.Students, StudentRecord{ID: "st1", Name: "Aung Aung", Status: "Active"})
	local.Staff = append(local.Staff, StaffRecord{ID: "sf1", Name: "Daw Mya", Status: "Active"})
	raw, _ := json.Marshal(local)
	if err := os.WriteFile(statePath, raw, 0o644); err != nil {
		t.Fatalf("write local dataset: %v", err)
	}

	o := NewOrchestrator(OrchestratorConfig{
		BaseURL:   server.URL,
		Token:     "tok-1",
		StatePath: statePath,
	}, testLogger())

	o.SyncOnce(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if len(pushed) == 0 {
		t.Fatal("diverged local data should be pushed")
	}
	var req struct {
		BaseVersion *int            `json:"baseVersion"`
		Data        json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(pushed, &req); err != nil {
		t.Fatalf("decode push: %v", err)
	}
	if req.BaseVersion == nil || *req.BaseVersion != 3 {
		t.Errorf("push baseVersion = %v, want 3", req.BaseVersion)
	}
	sent := UnmarshalDocument(req.Data)
	if len(sent.Staff) != 1 || sent.Staff[0].ID != "sf1" {
		t.Errorf("push payload should be the local data: %+v", sent.Staff)
	}
	if o.version != 4 {
		t.Errorf("version after push = %d, want 4", o.version)
	}

	// The local file keeps the local edits.
	kept, err := os.ReadFile(statePath)
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	if len(UnmarshalDocument(kept).Staff) != 1 {
		t.Error("successful push must not discard local edits")
	}
}

func TestOrchestratorConflictingPushFallsBackToServerData(t *testing.T) {
	serverDoc := EmptyDocument()
	serverDoc.Students = append(serverDoc.Students, StudentRecord{ID: "st1", Name: "Aung Aung", Status: "Active"})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sync/pull":
			_ = json.NewEncoder(w).Encode(PullResponse{Key: "default", Version: 3, Data: serverDoc})
		case "/sync/push":
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "Version conflict", "serverVersion": 5})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	statePath := filepath.Join(t.TempDir(), "dataset.json")
	local := EmptyDocument()
	local.Staff = append(local.Staff, StaffRecord{ID: "sf1", Name: "Daw Mya", Status: "Active"})
	raw, _ := json.Marshal(local)
	if err := os.WriteFile(statePath, raw, 0o644); err != nil {
		t.Fatalf("write local dataset: %v", err)
	}

	o := NewOrchestrator(OrchestratorConfig{
		BaseURL:   server.URL,
		Token:     "tok-1",
		StatePath: statePath,
	}, testLogger())

	o.SyncOnce(context.Background())

	if o.version != 3 {
		t.Errorf("version after rejected push = %d, want 3", o.version)
	}
	kept, err := os.ReadFile(statePath)
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	saved := UnmarshalDocument(kept)
	if len(saved.Students) != 1 || len(saved.Staff) != 0 {
		t.Errorf("rejected push should fall back to the server copy: %+v", saved)
	}
}

func TestOrchestratorNoPushWhenLocalMatchesServer(t *testing.T) {
	serverDoc := EmptyDocument()
	serverDoc.Students = append(serverDoc.Students, StudentRecord{ID: "st1", Name: "Aung Aung", Status: "Active"})
	serverDoc.ExportDate = "2026-02-01T00:00:00Z"

	var mu sync.Mutex
	pushes := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sync/push" {
			mu.Lock()
			pushes++
			mu.Unlock()
			_ = json.NewEncoder(w).Encode(PushResponse{Key: "default", Version: 4})
			return
		}
		_ = json.NewEncoder(w).Encode(PullResponse{Key: "default", Version: 3, Data: serverDoc})
	}))
	defer server.Close()

	statePath := filepath.Join(t.TempDir(), "dataset.json")
	local := EmptyDocument()
	local.Students = append(local.Students, StudentRecord{ID: "st1", Name: "Aung Aung", Status: "Active"})
	// Different stamp, same content: must not count as divergence.
	local.ExportDate = "2026-01-01T00:00:00Z"
	raw, _ := json.Marshal(local)
	if err := os.WriteFile(statePath, raw, 0o644); err != nil {
		t.Fatalf("write local dataset: %v", err)
	}

	o := NewOrchestrator(OrchestratorConfig{
		BaseURL:   server.URL,
		Token:     "tok-1",
		StatePath: statePath,
	}, testLogger())

	o.SyncOnce(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if pushes != 0 {
		t.Errorf("matching local data must not be pushed, saw %d pushes", pushes)
	}
}

func TestOrchestratorSwallowsServerFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"sync failed"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	statePath := filepath.Join(t.TempDir(), "dataset.json")
	o := NewOrchestrator(OrchestratorConfig{
		BaseURL:   server.URL,
		Token:     "tok-1",
		StatePath: statePath,
	}, testLogger())

	// Must not panic or write anything.
	o.SyncOnce(context.Background())

	if _, err := os.Stat(statePath); !os.IsNotExist(err) {
		t.Error("failed sync must not touch the local dataset")
	}
}

func TestOrchestratorSingleFlight(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	pulls := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		pulls++
		mu.Unlock()
		<-release
		_ = json.NewEncoder(w).Encode(PullResponse{Key: "default", Version: 1, Data: EmptyDocument()})
	}))
	defer server.Close()

	o := NewOrchestrator(OrchestratorConfig{
		BaseURL: server.URL,
		Token:   "tok-1",
	}, testLogger())

	done := make(chan struct{})
	go func() {
		o.SyncOnce(context.Background())
		close(done)
	}()

	// Wait for the first cycle to be in flight, then try to start a second.
	for {
		mu.Lock()
		n := pulls
		mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	o.SyncOnce(context.Background())

	close(release)
	<-done

	mu.Lock()
	defer mu.Unlock()
	if pulls != 1 {
		t.Errorf("overlapping cycle should be skipped, saw %d pulls", pulls)
	}
}

func TestOrchestratorNoSeedWhenLocalEmpty(t *testing.T) {
	var mu sync.Mutex
	pushes := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sync/push" {
			mu.Lock()
			pushes++
			mu.Unlock()
		}
		_ = json.NewEncoder(w).Encode(PullResponse{Key: "default", Version: 0, Data: EmptyDocument()})
	}))
	defer server.Close()

	o := NewOrchestrator(OrchestratorConfig{
		BaseURL:   server.URL,
		Token:     "tok-1",
		StatePath: filepath.Join(t.TempDir(), "dataset.json"),
	}, testLogger())

	o.SyncOnce(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if pushes != 0 {
		t.Errorf("empty local dataset must not seed the server, saw %d pushes", pushes)
	}
}
