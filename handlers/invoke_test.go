package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/corvus-faas/control-plane/catalog"
	"github.com/corvus-faas/control-plane/invoke"
	"github.com/corvus-faas/control-plane/models"
	"github.com/corvus-faas/control-plane/proxy"
)

// fakeCatalogStore and fakeInstanceCache let the invoke handler be
// driven end-to-end without a real Postgres or Redis instance, the
// same way the scheduler's own package tests do.
type fakeCatalogStore struct {
	functions map[string]*models.Function
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{functions: map[string]*models.Function{}}
}

func (store *fakeCatalogStore) register(userUUID, name string) {
	store.functions[userUUID+"/"+name] = &models.Function{UUID: "fn-uuid", Name: name, Runtime: "go"}
}

func (store *fakeCatalogStore) FindByName(userUUID, name string) (*models.Function, error) {
	function, ok := store.functions[userUUID+"/"+name]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return function, nil
}

func (store *fakeCatalogStore) FindByUser(userUUID string) ([]*models.Function, error) { return nil, nil }

func (store *fakeCatalogStore) CreateForUser(userUUID string, name, runtime string) (*models.Function, error) {
	store.register(userUUID, name)
	return store.functions[userUUID+"/"+name], nil
}

type fakeInstanceCache struct {
	entries map[string]string
}

func newFakeInstanceCache() *fakeInstanceCache {
	return &fakeInstanceCache{entries: map[string]string{}}
}

func (cacheStore *fakeInstanceCache) Get(ctx context.Context, key string) (string, bool) {
	addr, ok := cacheStore.entries[key]
	return addr, ok
}

func (cacheStore *fakeInstanceCache) PutIfAbsent(ctx context.Context, key, addr string, ttl time.Duration) error {
	if _, exists := cacheStore.entries[key]; !exists {
		cacheStore.entries[key] = addr
	}
	return nil
}

func newTestInvokeRouter(catalogStore *fakeCatalogStore, instanceCache *fakeInstanceCache) http.Handler {
	scheduler := invoke.NewScheduler(catalogStore, instanceCache, nil, testLogger(), "test-network")
	invokeHandler := NewInvokeHandler(scheduler, proxy.New(), testLogger())

	router := chi.NewRouter()
	router.HandleFunc("/invoke/{namespace}/{name}", invokeHandler.Invoke)
	return router
}

func TestInvokeWrongNamespaceReturns404(t *testing.T) {
	catalogStore := newFakeCatalogStore()
	catalogStore.register("user-one-uuid", "hello")

	router := newTestInvokeRouter(catalogStore, newFakeInstanceCache())

	request := httptest.NewRequest(http.MethodGet, "/invoke/user-two-uuid/hello", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "Function not found: hello") {
		t.Fatalf("body = %q, want it to name the missing function", recorder.Body.String())
	}
}

func TestInvokeUnsupportedMethodReturns405(t *testing.T) {
	catalogStore := newFakeCatalogStore()
	catalogStore.register("user-uuid", "hello")

	instanceCache := newFakeInstanceCache()
	key := models.FunctionKey("user-uuid", "hello")
	instanceCache.entries[key] = "127.0.0.1:1"

	router := newTestInvokeRouter(catalogStore, instanceCache)

	request := httptest.NewRequest(http.MethodPatch, "/invoke/user-uuid/hello", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "PATCH") {
		t.Fatalf("body = %q, want it to mention PATCH", recorder.Body.String())
	}
}

func TestInvokeReachesRunningInstance(t *testing.T) {
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Hello World!"))
	}))
	defer downstream.Close()

	catalogStore := newFakeCatalogStore()
	catalogStore.register("user-uuid", "hello")

	instanceCache := newFakeInstanceCache()
	key := models.FunctionKey("user-uuid", "hello")
	instanceCache.entries[key] = strings.TrimPrefix(downstream.URL, "http://")

	router := newTestInvokeRouter(catalogStore, instanceCache)

	request := httptest.NewRequest(http.MethodGet, "/invoke/user-uuid/hello?x=1", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	if recorder.Body.String() != "Hello World!" {
		t.Fatalf("body = %q, want %q", recorder.Body.String(), "Hello World!")
	}
}
