package artifact

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/wudi/ocrconvert/render"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(opts ...Option) (*Store, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewStore(opts...)
	s.now = clock.now
	return s, clock
}

func txt(s string) render.Artifact {
	return render.Artifact{Data: []byte(s), MIMEType: "text/plain", Filename: "extracted_text.txt"}
}

func TestPutGet(t *testing.T) {
	s, _ := newTestStore()
	data := []byte("hello\n")
	token := s.Put(render.Artifact{Data: data, MIMEType: "text/plain", Filename: "extracted_text.txt"})
	if _, err := uuid.Parse(token); err != nil {
		t.Fatalf("token is not a uuid: %q", token)
	}
	data[0] = 'j'

	got, ok := s.Get(token)
	if !ok {
		t.Fatalf("Get(%s) missing", token)
	}
	if string(got.Data) != "hello\n" || got.Filename != "extracted_text.txt" {
		t.Fatalf("unexpected artifact: %+v", got)
	}
	if _, ok := s.Get("nope"); ok {
		t.Fatalf("unknown token should miss")
	}
}

func TestTokensUnique(t *testing.T) {
	s, _ := newTestStore(WithMaxEntries(100))
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		tok := s.Put(txt("x"))
		if seen[tok] {
			t.Fatalf("duplicate token %s", tok)
		}
		seen[tok] = true
	}
}

func TestExpiry(t *testing.T) {
	s, clock := newTestStore(WithTTL(time.Minute))
	token := s.Put(txt("a"))

	clock.advance(59 * time.Second)
	if _, ok := s.Get(token); !ok {
		t.Fatalf("entry expired early")
	}
	clock.advance(time.Second)
	if _, ok := s.Get(token); ok {
		t.Fatalf("entry should have expired")
	}
	if s.Len() != 0 {
		t.Fatalf("expired entry not removed on lookup")
	}
}

func TestEvictsOldest(t *testing.T) {
	s, _ := newTestStore(WithMaxEntries(2))
	first := s.Put(txt("1"))
	second := s.Put(txt("2"))
	third := s.Put(txt("3"))

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if _, ok := s.Get(first); ok {
		t.Fatalf("oldest entry was not evicted")
	}
	for _, tok := range []string{second, third} {
		if _, ok := s.Get(tok); !ok {
			t.Fatalf("entry %s evicted unexpectedly", tok)
		}
	}
}

func TestPutPrefersDroppingExpired(t *testing.T) {
	s, clock := newTestStore(WithMaxEntries(2), WithTTL(time.Minute))
	old := s.Put(txt("old"))
	clock.advance(30 * time.Second)
	keep := s.Put(txt("keep"))
	clock.advance(31 * time.Second)
	s.Put(txt("new"))

	if _, ok := s.Get(old); ok {
		t.Fatalf("expired entry survived")
	}
	if _, ok := s.Get(keep); !ok {
		t.Fatalf("live entry evicted")
	}
}

func TestSweep(t *testing.T) {
	s, clock := newTestStore(WithTTL(time.Minute))
	s.Put(txt("a"))
	s.Put(txt("b"))
	clock.advance(2 * time.Minute)
	s.Put(txt("c"))

	if n := s.Sweep(); n != 2 {
		t.Fatalf("Sweep() = %d, want 2", n)
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := NewStore(WithTTL(time.Millisecond))
	s.Put(txt("a"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for s.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("sweeper did not remove expired entry")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

func TestOptionsIgnoreNonPositive(t *testing.T) {
	s := NewStore(WithTTL(0), WithMaxEntries(-1))
	if s.TTL() != DefaultTTL || s.maxEntries != DefaultMaxEntries {
		t.Fatalf("defaults overridden: ttl=%v max=%d", s.TTL(), s.maxEntries)
	}
}
