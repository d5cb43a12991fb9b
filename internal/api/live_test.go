package api

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"artrack/pkg/model"
	"artrack/pkg/recorder"
)

func waitFor(t *testing.T, check func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Timeout waiting for: %s", msg)
}

func TestLiveHandler_StreamsRecordedPoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/api/trajectory/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return env.live.ClientCount() == 1 }, "client registration")

	if err := env.rec.Start(ctx, recorder.Config{Capacity: 5, MinIntervalMs: 1000}); err != nil {
		t.Fatal(err)
	}
	if err := env.rec.OnFix(ctx, gpsFix(0, 52.5)); err != nil {
		t.Fatal(err)
	}
	if err := env.rec.OnFix(ctx, gpsFix(3000, 52.501)); err != nil {
		t.Fatal(err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for want := uint32(1); want <= 2; want++ {
		var p model.Point
		if err := conn.ReadJSON(&p); err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if p.SequenceID != want {
			t.Errorf("got sequence %d, want %d", p.SequenceID, want)
		}
	}

	conn.Close()
	waitFor(t, func() bool { return env.live.ClientCount() == 0 }, "client removal")
}

func TestLiveHandler_DropsSlowClient(t *testing.T) {
	h := NewLiveHandler()
	c := h.register()

	for i := 0; i <= liveSendBuffer; i++ {
		h.Publish(model.Point{SequenceID: uint32(i + 1)})
	}

	if h.ClientCount() != 0 {
		t.Fatalf("expected slow client to be dropped, have %d clients", h.ClientCount())
	}

	n := 0
	for range c.send {
		n++
	}
	if n != liveSendBuffer {
		t.Errorf("expected %d buffered points, got %d", liveSendBuffer, n)
	}

	// Unregistering an already dropped client must not panic
	h.unregister(c)
}
