package trajectory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"artrack/pkg/model"
)

type fakeStorage struct {
	mu       sync.Mutex
	rows     map[uint32]model.Point
	writeErr error
	clearErr error
	readErr  error
	writes   int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{rows: make(map[uint32]model.Point)}
}

func (f *fakeStorage) WriteSlot(_ context.Context, slot uint32, p model.Point) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.rows[slot] = p
	f.writes++
	return nil
}

func (f *fakeStorage) ReadSlots(_ context.Context) (map[uint32]model.Point, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := make(map[uint32]model.Point, len(f.rows))
	for k, v := range f.rows {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStorage) ClearSlots(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clearErr != nil {
		return f.clearErr
	}
	f.rows = make(map[uint32]model.Point)
	return nil
}

func pt(seq uint32) model.Point {
	return model.Point{SequenceID: seq, Latitude: float64(seq), TimestampS: int64(seq) * 10}
}

func seqIDs(points []model.Point) []uint32 {
	out := make([]uint32, len(points))
	for i := range points {
		out[i] = points[i].SequenceID
	}
	return out
}

func appendN(t *testing.T, l *Log, n int) []model.Point {
	t.Helper()
	var appended []model.Point
	for i := 1; i <= n; i++ {
		p := pt(uint32(i))
		if err := l.Append(context.Background(), p); err != nil {
			t.Fatalf("Append(%d) failed: %v", i, err)
		}
		appended = append(appended, p)
	}
	return appended
}

func TestNew_ZeroCapacity(t *testing.T) {
	l, err := New(0, nil)
	if !errors.Is(err, ErrCapacity) {
		t.Fatalf("expected ErrCapacity, got %v", err)
	}
	if l != nil {
		t.Error("expected nil log")
	}
}

func TestReadAll_Empty(t *testing.T) {
	l, _ := New(4, nil)
	got := l.ReadAll()
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
	if l.Size() != 0 {
		t.Errorf("Size() = %d, want 0", l.Size())
	}
	if _, ok := l.Last(); ok {
		t.Error("Last() reported a point on an empty log")
	}
}

func TestReadAll_NoWrap(t *testing.T) {
	for _, n := range []int{1, 3, 5} {
		l, _ := New(5, newFakeStorage())
		appended := appendN(t, l, n)

		if diff := cmp.Diff(appended, l.ReadAll()); diff != "" {
			t.Errorf("n=%d: ReadAll() mismatch (-want +got):\n%s", n, diff)
		}
		if int(l.Size()) != n {
			t.Errorf("n=%d: Size() = %d", n, l.Size())
		}
	}
}

func TestReadAll_WrapAround(t *testing.T) {
	const capacity = 4
	tests := []struct {
		n    int
		want []uint32
	}{
		{n: 4, want: []uint32{1, 2, 3, 4}},
		{n: 5, want: []uint32{2, 3, 4, 5}},
		{n: 7, want: []uint32{4, 5, 6, 7}},
		{n: 8, want: []uint32{5, 6, 7, 8}},
		{n: 13, want: []uint32{10, 11, 12, 13}},
	}

	for _, tt := range tests {
		l, _ := New(capacity, nil)
		appendN(t, l, tt.n)

		if diff := cmp.Diff(tt.want, seqIDs(l.ReadAll())); diff != "" {
			t.Errorf("n=%d: order mismatch (-want +got):\n%s", tt.n, diff)
		}
		if !l.Wrapped() {
			t.Errorf("n=%d: expected wrapped log", tt.n)
		}
		if l.Size() != capacity {
			t.Errorf("n=%d: Size() = %d, want %d", tt.n, l.Size(), capacity)
		}
		last, ok := l.Last()
		if !ok || last.SequenceID != uint32(tt.n) {
			t.Errorf("n=%d: Last() = %d, %v", tt.n, last.SequenceID, ok)
		}
	}
}

func TestAppend_CapacityOne(t *testing.T) {
	l, _ := New(1, nil)
	appendN(t, l, 3)
	if diff := cmp.Diff([]uint32{3}, seqIDs(l.ReadAll())); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestAppend_StorageFailureLeavesStateUntouched(t *testing.T) {
	st := newFakeStorage()
	l, _ := New(3, st)
	appendN(t, l, 2)

	boom := errors.New("disk full")
	st.writeErr = boom
	err := l.Append(context.Background(), pt(3))

	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StorageError, got %v", err)
	}
	if !errors.Is(err, boom) || se.Slot != 2 {
		t.Errorf("unexpected error details: %v (slot %d)", err, se.Slot)
	}
	if diff := cmp.Diff([]uint32{1, 2}, seqIDs(l.ReadAll())); diff != "" {
		t.Errorf("state changed after failed append (-want +got):\n%s", diff)
	}
}

func TestAppend_WritesThroughToSlots(t *testing.T) {
	st := newFakeStorage()
	l, _ := New(3, st)
	appendN(t, l, 5)

	want := map[uint32]uint32{0: 4, 1: 5, 2: 3}
	for slot, seq := range want {
		if st.rows[slot].SequenceID != seq {
			t.Errorf("slot %d holds seq %d, want %d", slot, st.rows[slot].SequenceID, seq)
		}
	}
	if st.writes != 5 {
		t.Errorf("expected 5 storage writes, got %d", st.writes)
	}
}

func TestClear_Idempotent(t *testing.T) {
	for _, n := range []int{0, 2, 3, 10} {
		st := newFakeStorage()
		l, _ := New(3, st)
		appendN(t, l, n)

		for i := 0; i < 2; i++ {
			if err := l.Clear(context.Background()); err != nil {
				t.Fatalf("Clear failed: %v", err)
			}
			if got := l.ReadAll(); len(got) != 0 {
				t.Errorf("n=%d: ReadAll after Clear returned %d points", n, len(got))
			}
			if l.Wrapped() || l.Size() != 0 || l.Capacity() != 3 {
				t.Errorf("n=%d: unexpected state after Clear", n)
			}
		}
		if len(st.rows) != 0 {
			t.Errorf("n=%d: storage not cleared", n)
		}

		// The log is reusable after a clear.
		appendN(t, l, 1)
		if l.Size() != 1 {
			t.Errorf("n=%d: Size() after reuse = %d", n, l.Size())
		}
	}
}

func TestClear_StorageFailure(t *testing.T) {
	st := newFakeStorage()
	l, _ := New(3, st)
	appendN(t, l, 2)
	st.clearErr = errors.New("locked")

	var se *StorageError
	if err := l.Clear(context.Background()); !errors.As(err, &se) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if l.Size() != 2 {
		t.Errorf("Size() = %d after failed clear, want 2", l.Size())
	}
}

func TestRestore(t *testing.T) {
	tests := []struct {
		name        string
		appends     int
		wantSeq     []uint32
		wantWrapped bool
	}{
		{name: "Empty", appends: 0, wantSeq: []uint32{}},
		{name: "Partial", appends: 2, wantSeq: []uint32{1, 2}},
		{name: "ExactlyFull", appends: 4, wantSeq: []uint32{1, 2, 3, 4}, wantWrapped: true},
		{name: "Wrapped", appends: 6, wantSeq: []uint32{3, 4, 5, 6}, wantWrapped: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newFakeStorage()
			orig, _ := New(4, st)
			appendN(t, orig, tt.appends)

			restored, _ := New(4, st)
			if err := restored.Restore(context.Background()); err != nil {
				t.Fatalf("Restore failed: %v", err)
			}
			if diff := cmp.Diff(tt.wantSeq, seqIDs(restored.ReadAll())); diff != "" {
				t.Errorf("restored order mismatch (-want +got):\n%s", diff)
			}
			if restored.Wrapped() != tt.wantWrapped {
				t.Errorf("Wrapped() = %v, want %v", restored.Wrapped(), tt.wantWrapped)
			}

			// Appending continues where the first log left off.
			next := pt(uint32(tt.appends + 1))
			if err := restored.Append(context.Background(), next); err != nil {
				t.Fatal(err)
			}
			if err := orig.Append(context.Background(), next); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(orig.ReadAll(), restored.ReadAll()); diff != "" {
				t.Errorf("restored log diverged (-orig +restored):\n%s", diff)
			}
		})
	}
}

func TestRestore_Inconsistent(t *testing.T) {
	tests := []struct {
		name string
		rows map[uint32]model.Point
	}{
		{name: "SlotOutOfRange", rows: map[uint32]model.Point{0: pt(1), 7: pt(2)}},
		{name: "Gap", rows: map[uint32]model.Point{0: pt(1), 2: pt(2)}},
		{name: "NotStartingAtZero", rows: map[uint32]model.Point{1: pt(1), 2: pt(2)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newFakeStorage()
			st.rows = tt.rows
			l, _ := New(4, st)
			if err := l.Restore(context.Background()); !errors.Is(err, ErrInconsistentStorage) {
				t.Errorf("expected ErrInconsistentStorage, got %v", err)
			}
		})
	}
}

func TestRestore_ReadFailure(t *testing.T) {
	st := newFakeStorage()
	st.readErr = errors.New("io")
	l, _ := New(2, st)

	var se *StorageError
	if err := l.Restore(context.Background()); !errors.As(err, &se) || se.Op != "read" {
		t.Errorf("expected read StorageError, got %v", err)
	}
}

func TestReadAll_ConcurrentWithAppend(t *testing.T) {
	const capacity = 8
	l, _ := New(capacity, nil)

	done := make(chan struct{})
	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				pts := l.ReadAll()
				for i := 1; i < len(pts); i++ {
					if pts[i].SequenceID != pts[i-1].SequenceID+1 {
						t.Errorf("torn snapshot: %v", seqIDs(pts))
						return
					}
				}
			}
		}()
	}

	appendN(t, l, 500)
	close(done)
	wg.Wait()
}
