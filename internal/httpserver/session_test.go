package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/robalobadob/numguess/internal/game"
	"github.com/robalobadob/numguess/internal/kv"
	"github.com/robalobadob/numguess/internal/stats"
	"github.com/robalobadob/numguess/internal/store"
)

// playerRequest builds a request already resolved to playerID, as withPlayer would.
func playerRequest(playerID, method, path, body string) *http.Request {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	return r.WithContext(context.WithValue(r.Context(), ctxPlayerKey{}, playerID))
}

func newBareServer(sessions store.Store, backend kv.Backend) *Server {
	return New(Options{
		Config:   testConfig(10),
		Sessions: sessions,
		Backend:  backend,
		NewRound: func(n int) *game.Round { return game.NewWithTarget(n, 42) },
	})
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func seedStats(t *testing.T, b kv.Bucket, st stats.Statistics) {
	t.Helper()
	seed := stats.NewStore(b)
	if _, err := seed.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := seed.Save(context.Background(), st); err != nil {
		t.Fatal(err)
	}
}

// flakyBackend fails the first failGets reads across all buckets.
type flakyBackend struct {
	mem *kv.Memory

	mu       sync.Mutex
	failGets int
}

func (f *flakyBackend) Bucket(scope string) kv.Bucket {
	return flakyBucket{Bucket: f.mem.Bucket(scope), be: f}
}

type flakyBucket struct {
	kv.Bucket
	be *flakyBackend
}

func (b flakyBucket) Get(ctx context.Context, key string) ([]byte, error) {
	b.be.mu.Lock()
	fail := b.be.failGets > 0
	if fail {
		b.be.failGets--
	}
	b.be.mu.Unlock()
	if fail {
		return nil, errDisk
	}
	return b.Bucket.Get(ctx, key)
}

func TestFailedLoad_KeepsStoredRecord(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	onDisk := stats.Statistics{Wins: 5, RoundsPlayed: 5, CurrentStreak: 5}
	seedStats(t, mem.Bucket("p1"), onDisk)

	s := newBareServer(store.NewMemoryStore(), &flakyBackend{mem: mem, failGets: 1})

	rec := httptest.NewRecorder()
	s.handleNew(rec, playerRequest("p1", http.MethodPost, "/game/new", ""))
	body := decodeBody(t, rec)
	if rec.Code != http.StatusOK {
		t.Fatalf("new = %d %v", rec.Code, body)
	}
	if w, _ := body["warning"].(string); w == "" {
		t.Error("expected a persistence warning after the failed read")
	}

	got, err := stats.NewStore(mem.Bucket("p1")).Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != onDisk {
		t.Errorf("stored record = %+v, want untouched %+v", got, onDisk)
	}

	// The next request reads the record successfully and plays on from it.
	rec = httptest.NewRecorder()
	s.handleStats(rec, playerRequest("p1", http.MethodGet, "/stats", ""))
	body = decodeBody(t, rec)
	if got := num(t, obj(t, body, "stats"), "wins"); got != 5 {
		t.Errorf("wins after recovery = %d, want 5", got)
	}
	if w, _ := body["warning"].(string); w != "" {
		t.Errorf("warning after recovery = %q, want none", w)
	}
}

// staleSessions returns one already-closed session before deferring to the
// real registry, like a request that looked the player up just before a quit.
type staleSessions struct {
	store.Store
	stale  *store.Session
	served bool
}

func (s *staleSessions) GetOrCreate(ctx context.Context, id string, build func() *store.Session) (*store.Session, error) {
	if !s.served {
		s.served = true
		return s.stale, nil
	}
	return s.Store.GetOrCreate(ctx, id, build)
}

func TestClosedSession_IsNotWrittenBack(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	stale := &store.Session{
		PlayerID: "p1",
		Round:    game.NewWithTarget(10, 42),
		Stats:    stats.Statistics{Wins: 3, CurrentStreak: 3},
		Store:    stats.NewStore(mem.Bucket("p1")),
		Closed:   true,
	}
	if _, err := stale.Store.Load(ctx); err != nil {
		t.Fatal(err)
	}
	s := newBareServer(&staleSessions{Store: store.NewMemoryStore(), stale: stale}, mem)

	rec := httptest.NewRecorder()
	s.handleGuess(rec, playerRequest("p1", http.MethodPost, "/game/guess", `{"guess":"42"}`))
	body := decodeBody(t, rec)
	if rec.Code != http.StatusConflict || body["error"] != "no_round" {
		t.Errorf("guess = %d %v, want 409 no_round on a fresh session", rec.Code, body)
	}
	if _, err := mem.Bucket("p1").Get(ctx, stats.Key); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("stored record err = %v, want ErrNotFound (quit record kept clear)", err)
	}
	if stale.Stats.Wins != 3 || stale.Round.TriesUsed != 0 {
		t.Errorf("closed session was modified: %+v", stale)
	}
}

func TestQuit_ClosesSession(t *testing.T) {
	ctx := context.Background()
	sessions := store.NewMemoryStore()
	s := newBareServer(sessions, kv.NewMemory())

	rec := httptest.NewRecorder()
	s.handleNew(rec, playerRequest("p1", http.MethodPost, "/game/new", ""))
	sess, err := sessions.Get(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}

	rec = httptest.NewRecorder()
	s.handleQuit(rec, playerRequest("p1", http.MethodPost, "/game/quit", `{"confirm":true}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("quit = %d", rec.Code)
	}
	sess.Lock()
	closed := sess.Closed
	sess.Unlock()
	if !closed {
		t.Error("quit left the old session open")
	}
	if _, err := sessions.Get(ctx, "p1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("registry Get err = %v, want ErrNotFound", err)
	}
}

// blockingBackend stalls reads for one scope until release is closed.
type blockingBackend struct {
	mem     *kv.Memory
	slow    string
	entered chan struct{}
	release chan struct{}
}

func (b *blockingBackend) Bucket(scope string) kv.Bucket {
	if scope != b.slow {
		return b.mem.Bucket(scope)
	}
	return blockingBucket{Bucket: b.mem.Bucket(scope), be: b}
}

type blockingBucket struct {
	kv.Bucket
	be *blockingBackend
}

func (b blockingBucket) Get(ctx context.Context, key string) ([]byte, error) {
	close(b.be.entered)
	<-b.be.release
	return b.Bucket.Get(ctx, key)
}

func TestSlowLoad_DoesNotBlockOtherPlayers(t *testing.T) {
	be := &blockingBackend{
		mem:     kv.NewMemory(),
		slow:    "slow",
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := newBareServer(store.NewMemoryStore(), be)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.handleStats(httptest.NewRecorder(), playerRequest("slow", http.MethodGet, "/stats", ""))
	}()
	<-be.entered

	rec := httptest.NewRecorder()
	s.handleNew(rec, playerRequest("fast", http.MethodPost, "/game/new", ""))
	if rec.Code != http.StatusOK {
		t.Errorf("other player's new game = %d, want 200", rec.Code)
	}

	close(be.release)
	<-done
}
