package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"artrack/pkg/db"
	"artrack/pkg/recorder"
	"artrack/pkg/session"
	"artrack/pkg/source"
	"artrack/pkg/store"
)

const replayCSV = `timestamp_ms,lat,lon,speed_mps,accuracy_m,provider
1000,52.5200,13.4050,1.4,8,gps
7000,52.5201,13.4050,1.4,8,gps
13000,52.5202,13.4050,,8,gps
19000,52.5203,13.4050,1.4,8,gps
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	replay := filepath.Join(dir, "track.csv")
	dbPath := filepath.Join(dir, "artrack.db")
	writeFile(t, replay, replayCSV)

	cfgPath := filepath.Join(dir, "artrack.yaml")
	writeFile(t, cfgPath, fmt.Sprintf(`
recorder:
    capacity: 3
    min_interval: 5s
source:
    provider: replay
    replay_file: %q
server:
    address: localhost:0  # 0 lets OS choose free port
db:
    path: %q
log:
    server:
        path: %q
        level: debug
    requests:
        path: %q
        level: info
`, replay, dbPath, filepath.Join(dir, "server.log"), filepath.Join(dir, "requests.log")))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	if err := run(ctx, cfgPath); err != nil {
		t.Fatalf("run() failed: %v", err)
	}

	// A clean shutdown ends the session, leaving nothing to resume.
	conn, err := db.Init(dbPath)
	if err != nil {
		t.Fatalf("reopen db: %v", err)
	}
	st := store.NewSQLiteStore(conn)
	defer st.Close()

	if _, found, _ := session.Load(context.Background(), st); found {
		t.Error("expected persisted session to be cleared after shutdown")
	}
	slots, err := st.ReadSlots(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 3 {
		t.Errorf("expected 3 persisted slots after wrap, got %d", len(slots))
	}
}

func TestPumpSource(t *testing.T) {
	dir := t.TempDir()
	replay := filepath.Join(dir, "track.csv")
	writeFile(t, replay, replayCSV)

	ctx := context.Background()
	rec := recorder.New(store.NewMemoryStore())
	if err := rec.Start(ctx, recorder.Config{Capacity: 10, MinIntervalMs: 5000}); err != nil {
		t.Fatal(err)
	}

	pumpSource(ctx, source.NewReplay(replay, false), rec)

	points := rec.Points()
	if len(points) != 4 {
		t.Fatalf("expected 4 points, got %d", len(points))
	}
	for i, p := range points {
		if p.SequenceID != uint32(i+1) {
			t.Errorf("point %d has sequence %d", i, p.SequenceID)
		}
	}

	// Fixes arriving without a session are dropped quietly
	if _, err := rec.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	pumpSource(ctx, source.NewReplay(replay, false), rec)
	if rec.Size() != 4 {
		t.Errorf("stopped recorder should keep its points, got %d", rec.Size())
	}
}
