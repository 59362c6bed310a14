package telemetry

import (
	"errors"
	"sync"
	"testing"

	"github.com/signalsfoundry/spaceflight-sim/model"
)

func reading(seq uint64) model.SensorReading {
	return model.SensorReading{SensorID: "alt", Seq: seq, Value: float64(seq)}
}

func appendN(s *Stream, from, to uint64) {
	for seq := from; seq < to; seq++ {
		s.Append(reading(seq))
	}
}

func TestReadFromReturnsInOrder(t *testing.T) {
	s := NewStream(10)
	appendN(s, 1, 6)

	got, next, err := s.ReadFrom(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 || next != 5 {
		t.Fatalf("got %d readings next=%d, want 5 readings next=5", len(got), next)
	}
	for i, r := range got {
		if r.Seq != uint64(i+1) {
			t.Fatalf("reading %d has seq %d, want %d", i, r.Seq, i+1)
		}
	}
}

func TestIndependentCursors(t *testing.T) {
	s := NewStream(10)
	appendN(s, 1, 7)

	a, aNext, _ := s.ReadFrom(0, 2)
	b, bNext, _ := s.ReadFrom(0, 0)

	if len(a) != 2 || aNext != 2 {
		t.Fatalf("consumer A got %d next=%d, want 2 next=2", len(a), aNext)
	}
	if len(b) != 6 || bNext != 6 {
		t.Fatalf("consumer B got %d next=%d, want 6 next=6", len(b), bNext)
	}

	// A resumes from its own cursor, unaffected by B.
	a2, _, _ := s.ReadFrom(aNext, 0)
	if len(a2) != 4 || a2[0].Seq != 3 {
		t.Fatalf("consumer A resume got %d starting at seq %d, want 4 starting at 3",
			len(a2), a2[0].Seq)
	}
}

func TestEvictionSignalsGap(t *testing.T) {
	s := NewStream(4)
	appendN(s, 1, 11) // 10 appends into capacity 4: 6 evicted

	if got := s.Evictions(); got != 6 {
		t.Fatalf("evictions = %d, want 6", got)
	}
	if got := s.OldestCursor(); got != 6 {
		t.Fatalf("oldest cursor = %d, want 6", got)
	}

	_, _, err := s.ReadFrom(0, 0)
	if !errors.Is(err, ErrCursorEvicted) {
		t.Fatalf("stale cursor error = %v, want ErrCursorEvicted", err)
	}

	// Resuming from the oldest retained cursor works.
	got, next, err := s.ReadFrom(s.OldestCursor(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 || got[0].Seq != 7 || next != 10 {
		t.Fatalf("resume got %d readings from seq %d next=%d, want 4 from 7 next=10",
			len(got), got[0].Seq, next)
	}
}

func TestReadAtEndIsEmptyNotError(t *testing.T) {
	s := NewStream(4)
	appendN(s, 1, 4)

	end := s.EndCursor()
	got, next, err := s.ReadFrom(end, 0)
	if err != nil || len(got) != 0 || next != end {
		t.Fatalf("read at end: got=%v next=%d err=%v, want empty batch at same cursor",
			got, next, err)
	}
}

func TestEvictionHookFires(t *testing.T) {
	var total int
	s := NewStream(2, WithEvictionHook(func(n int) { total += n }))
	appendN(s, 1, 6)

	if total != 3 {
		t.Fatalf("hook saw %d evictions, want 3", total)
	}
}

func TestLatest(t *testing.T) {
	s := NewStream(5)
	appendN(s, 1, 9)

	got := s.Latest(3)
	if len(got) != 3 || got[0].Seq != 6 || got[2].Seq != 8 {
		t.Fatalf("Latest(3) = %+v, want seqs 6..8", got)
	}
	if got := s.Latest(100); len(got) != 5 {
		t.Fatalf("Latest beyond size returned %d, want 5", len(got))
	}
}

// One writer appending while several readers drain: readings must come out
// ordered by sequence with no duplicates per reader, and gaps only ever
// reported through ErrCursorEvicted.
func TestConcurrentReadersNeverBlockWriter(t *testing.T) {
	s := NewStream(128)

	const total = 5000
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		appendN(s, 1, total+1)
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var cursor uint64
			var lastSeq uint64
			for {
				batch, next, err := s.ReadFrom(cursor, 64)
				if err != nil {
					cursor = s.OldestCursor()
					continue
				}
				for _, rd := range batch {
					if rd.Seq <= lastSeq {
						t.Errorf("seq went backwards: %d after %d", rd.Seq, lastSeq)
						return
					}
					lastSeq = rd.Seq
				}
				cursor = next
				if lastSeq == total {
					return
				}
			}
		}()
	}

	wg.Wait()
}
