package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/idaliopessoa/idDigital/model"
	"github.com/idaliopessoa/idDigital/pkg/sentinel"
)

// fakeGateway counts calls and serves a canned payload or error.
type fakeGateway struct {
	mu         sync.Mutex
	authCalls  int
	fetchCalls int
	authErr    error
	fetchErr   error
	payload    *model.SchedulePayload
	fetchDelay time.Duration
}

func (g *fakeGateway) Authenticate(_ context.Context) (string, error) {
	g.mu.Lock()
	g.authCalls++
	g.mu.Unlock()
	if g.authErr != nil {
		return "", g.authErr
	}
	return "token-123", nil
}

func (g *fakeGateway) FetchSchedule(_ context.Context, documentID, token string) (*model.SchedulePayload, error) {
	g.mu.Lock()
	g.fetchCalls++
	g.mu.Unlock()
	if g.fetchDelay > 0 {
		time.Sleep(g.fetchDelay)
	}
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	if token != "token-123" {
		return nil, fmt.Errorf("unexpected token %q", token)
	}
	payload := g.payload
	if payload == nil {
		payload = &model.SchedulePayload{ScheduleID: documentID, Employee: "Fetched Employee"}
	}
	return payload, nil
}

func (g *fakeGateway) calls() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.authCalls, g.fetchCalls
}

// stubStore scripts each store operation independently.
type stubStore struct {
	existsResult bool
	existsErr    error
	getRecord    *model.DocumentRecord
	getErr       error
	saveErr      error
	saveCalls    int
}

func (s *stubStore) Exists(_ context.Context, _ string) (bool, error) {
	return s.existsResult, s.existsErr
}

func (s *stubStore) Get(_ context.Context, _ string) (*model.DocumentRecord, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.getRecord, nil
}

func (s *stubStore) Save(_ context.Context, _ string, _ *model.DocumentRecord) error {
	s.saveCalls++
	return s.saveErr
}

// countingStore wraps the memory store to count writes.
type countingStore struct {
	*MemoryDocumentStore
	mu        sync.Mutex
	saveCalls int
}

func (s *countingStore) Save(ctx context.Context, documentID string, record *model.DocumentRecord) error {
	s.mu.Lock()
	s.saveCalls++
	s.mu.Unlock()
	return s.MemoryDocumentStore.Save(ctx, documentID, record)
}

func TestDocumentLoaderColdStart(t *testing.T) {
	store := &countingStore{MemoryDocumentStore: NewMemoryDocumentStore()}
	gateway := &fakeGateway{}
	loader := NewDocumentLoader(store, gateway, nil)

	record, err := loader.Load(context.Background(), "X")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if record.ID != "X" {
		t.Errorf("Expected ID 'X', got %q", record.ID)
	}
	if record.FullName != "Fetched Employee" {
		t.Errorf("Expected transformed employee name, got %q", record.FullName)
	}
	if record.CreatedAt.IsZero() {
		t.Error("Expected store-assigned CreatedAt on the returned record")
	}
	if store.saveCalls != 1 {
		t.Errorf("Expected exactly one cache write, got %d", store.saveCalls)
	}
	if auth, fetch := gateway.calls(); auth != 1 || fetch != 1 {
		t.Errorf("Expected one auth and one fetch, got %d / %d", auth, fetch)
	}
}

func TestDocumentLoaderColdStartReturnsStoredRecord(t *testing.T) {
	store := &countingStore{MemoryDocumentStore: NewMemoryDocumentStore()}
	loader := NewDocumentLoader(store, &fakeGateway{}, nil)

	returned, err := loader.Load(context.Background(), "X")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// The re-read guarantees the caller sees exactly what a later warm
	// path will see
	cached, err := store.Get(context.Background(), "X")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if *returned != *cached {
		t.Error("Expected returned record to equal the cached record")
	}
}

func TestDocumentLoaderWarmPath(t *testing.T) {
	store := NewMemoryDocumentStore()
	gateway := &fakeGateway{}
	loader := NewDocumentLoader(store, gateway, nil)

	seeded := &model.DocumentRecord{FullName: "Cached Person"}
	if err := store.Save(context.Background(), "X", seeded); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	record, err := loader.Load(context.Background(), "X")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if record.FullName != "Cached Person" {
		t.Errorf("Expected cached record, got %q", record.FullName)
	}
	if auth, fetch := gateway.calls(); auth != 0 || fetch != 0 {
		t.Errorf("Expected zero remote calls on warm path, got %d / %d", auth, fetch)
	}
}

func TestDocumentLoaderUpstreamNotFound(t *testing.T) {
	store := &countingStore{MemoryDocumentStore: NewMemoryDocumentStore()}
	gateway := &fakeGateway{
		fetchErr: fmt.Errorf("%w: document X", sentinel.ErrNotFoundUpstream),
	}
	loader := NewDocumentLoader(store, gateway, nil)

	_, err := loader.Load(context.Background(), "X")
	if !errors.Is(err, sentinel.ErrNotFoundUpstream) {
		t.Fatalf("Expected ErrNotFoundUpstream, got %v", err)
	}
	if store.saveCalls != 0 {
		t.Errorf("Expected no cache write on upstream 404, got %d", store.saveCalls)
	}
}

func TestDocumentLoaderAuthFailure(t *testing.T) {
	store := &countingStore{MemoryDocumentStore: NewMemoryDocumentStore()}
	gateway := &fakeGateway{
		authErr: fmt.Errorf("%w: status 401", sentinel.ErrAuthFailure),
	}
	loader := NewDocumentLoader(store, gateway, nil)

	_, err := loader.Load(context.Background(), "X")
	if !errors.Is(err, sentinel.ErrAuthFailure) {
		t.Fatalf("Expected ErrAuthFailure, got %v", err)
	}
	if store.saveCalls != 0 {
		t.Errorf("Expected no cache write on auth failure, got %d", store.saveCalls)
	}
	if _, fetch := gateway.calls(); fetch != 0 {
		t.Errorf("Expected no fetch after failed auth, got %d", fetch)
	}
}

func TestDocumentLoaderStoreUnavailable(t *testing.T) {
	store := &stubStore{
		existsErr: fmt.Errorf("%w: connection refused", sentinel.ErrStoreUnavailable),
	}
	gateway := &fakeGateway{}
	loader := NewDocumentLoader(store, gateway, nil)

	_, err := loader.Load(context.Background(), "X")
	if !errors.Is(err, sentinel.ErrStoreUnavailable) {
		t.Fatalf("Expected ErrStoreUnavailable, got %v", err)
	}
	if auth, fetch := gateway.calls(); auth != 0 || fetch != 0 {
		t.Errorf("Expected no remote calls when the store is down, got %d / %d", auth, fetch)
	}
}

func TestDocumentLoaderHitThenVanished(t *testing.T) {
	store := &stubStore{
		existsResult: true,
		getErr:       fmt.Errorf("%w: document X", sentinel.ErrNotFound),
	}
	loader := NewDocumentLoader(store, &fakeGateway{}, nil)

	_, err := loader.Load(context.Background(), "X")
	if !errors.Is(err, sentinel.ErrInconsistentCache) {
		t.Fatalf("Expected ErrInconsistentCache, got %v", err)
	}
}

func TestDocumentLoaderReReadVanished(t *testing.T) {
	store := &stubStore{
		existsResult: false,
		getErr:       fmt.Errorf("%w: document X", sentinel.ErrNotFound),
	}
	loader := NewDocumentLoader(store, &fakeGateway{}, nil)

	_, err := loader.Load(context.Background(), "X")
	if !errors.Is(err, sentinel.ErrInconsistentCache) {
		t.Fatalf("Expected ErrInconsistentCache when re-read misses, got %v", err)
	}
	if store.saveCalls != 1 {
		t.Errorf("Expected the write to have happened, got %d", store.saveCalls)
	}
}

func TestDocumentLoaderPersistFailure(t *testing.T) {
	store := &stubStore{
		existsResult: false,
		saveErr:      fmt.Errorf("%w: write timeout", sentinel.ErrStoreUnavailable),
	}
	loader := NewDocumentLoader(store, &fakeGateway{}, nil)

	_, err := loader.Load(context.Background(), "X")
	if !errors.Is(err, sentinel.ErrStoreUnavailable) {
		t.Fatalf("Expected ErrStoreUnavailable on persist failure, got %v", err)
	}
}

func TestDocumentLoaderSameIDSharesFlight(t *testing.T) {
	store := &countingStore{MemoryDocumentStore: NewMemoryDocumentStore()}
	gateway := &fakeGateway{fetchDelay: 50 * time.Millisecond}
	loader := NewDocumentLoader(store, gateway, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := loader.Load(context.Background(), "X"); err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if _, fetch := gateway.calls(); fetch != 1 {
		t.Errorf("Expected concurrent same-id lookups to share one fetch, got %d", fetch)
	}
	if store.saveCalls != 1 {
		t.Errorf("Expected one cache write, got %d", store.saveCalls)
	}
}

// fakeMirror records mirrored URLs and optionally fails.
type fakeMirror struct {
	err     error
	mirrors map[string]string
}

func (m *fakeMirror) MirrorImage(_ context.Context, documentID, kind, sourceURL string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.mirrors == nil {
		m.mirrors = make(map[string]string)
	}
	object := documentID + "/" + kind
	m.mirrors[object] = sourceURL
	return object, nil
}

func TestDocumentLoaderMirrorsAssets(t *testing.T) {
	store := NewMemoryDocumentStore()
	gateway := &fakeGateway{
		payload: &model.SchedulePayload{
			ScheduleID: "sched-1",
			CapturesReport: []model.CaptureReport{
				{Name: "Prova de vida", Items: []model.CaptureItem{{URL: "https://certfy.example/face.jpg"}}},
				{Name: "Assinatura", Items: []model.CaptureItem{{Type: "Png", URL: "https://certfy.example/sig.png"}}},
			},
		},
	}
	mirror := &fakeMirror{}
	loader := NewDocumentLoader(store, gateway, mirror)

	record, err := loader.Load(context.Background(), "X")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if record.FaceImage != "X/face" {
		t.Errorf("Expected mirrored face object, got %q", record.FaceImage)
	}
	if record.SignatureImage != "X/signature" {
		t.Errorf("Expected mirrored signature object, got %q", record.SignatureImage)
	}
	if mirror.mirrors["X/face"] != "https://certfy.example/face.jpg" {
		t.Error("Expected the upstream face URL to be mirrored")
	}
}

func TestDocumentLoaderMirrorFailureKeepsUpstreamURL(t *testing.T) {
	store := NewMemoryDocumentStore()
	gateway := &fakeGateway{
		payload: &model.SchedulePayload{
			ScheduleID: "sched-1",
			CapturesReport: []model.CaptureReport{
				{Name: "Prova de vida", Items: []model.CaptureItem{{URL: "https://certfy.example/face.jpg"}}},
			},
		},
	}
	mirror := &fakeMirror{err: errors.New("bucket offline")}
	loader := NewDocumentLoader(store, gateway, mirror)

	record, err := loader.Load(context.Background(), "X")
	if err != nil {
		t.Fatalf("Expected mirror failure to be non-fatal, got %v", err)
	}
	if record.FaceImage != "https://certfy.example/face.jpg" {
		t.Errorf("Expected upstream URL kept on mirror failure, got %q", record.FaceImage)
	}
}
