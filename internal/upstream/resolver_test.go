package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func testResolver(t *testing.T, baseURL string, candidates []Candidate) *Resolver {
	t.Helper()
	r := NewResolver(baseURL, "test-key", time.Second, zap.NewNop())
	r.candidates = candidates
	return r
}

func TestResolve_CascadeStopsAtFirstSuccess(t *testing.T) {
	var fourthCalls int64

	mux := http.NewServeMux()
	mux.HandleFunc("/one", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/two", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>rate limited</body></html>"))
	})
	mux.HandleFunc("/three", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"title":"Shoe X","retailPrice":140}`))
	})
	mux.HandleFunc("/four", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&fourthCalls, 1)
		w.Write([]byte(`{"title":"never"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := testResolver(t, srv.URL, []Candidate{
		{Name: "one", Path: "/one", Auth: AuthBearer, Shape: ShapeDetail},
		{Name: "two", Path: "/two", Auth: AuthBearer, Shape: ShapeDetail},
		{Name: "three", Path: "/three", Auth: AuthBearer, Shape: ShapeDetail},
		{Name: "four", Path: "/four", Auth: AuthBearer, Shape: ShapeDetail},
	})

	payload, name, err := r.Resolve(context.Background(), "SKU-1", "US", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "three" {
		t.Fatalf("expected third candidate to win, got %s", name)
	}
	if payload["title"] != "Shoe X" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if atomic.LoadInt64(&fourthCalls) != 0 {
		t.Fatalf("fourth candidate should never be called")
	}
}

func TestResolve_AuthStylesAndTemplates(t *testing.T) {
	var bearerAuth, apiKeyAuth, query string

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/detail", func(w http.ResponseWriter, r *http.Request) {
		bearerAuth = r.Header.Get("Authorization")
		http.Error(w, "nope", http.StatusUnauthorized)
	})
	mux.HandleFunc("/v1/browse", func(w http.ResponseWriter, r *http.Request) {
		apiKeyAuth = r.Header.Get("x-api-key")
		query = r.URL.Query().Get("_search")
		w.Write([]byte(`{"results":[{"sku":"SKU 1","title":"hit"}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := testResolver(t, srv.URL, []Candidate{
		{Name: "detail", Path: "/v1/detail?market={market}", Auth: AuthBearer, Shape: ShapeDetail},
		{Name: "browse", Path: "/v1/browse?_search={query}", Auth: AuthAPIKey, Shape: ShapeSearch},
	})

	payload, name, err := r.Resolve(context.Background(), "SKU 1", "US", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "browse" {
		t.Fatalf("expected browse candidate, got %s", name)
	}
	if payload["title"] != "hit" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if bearerAuth != "Bearer test-key" {
		t.Fatalf("bearer header not sent: %q", bearerAuth)
	}
	if apiKeyAuth != "test-key" {
		t.Fatalf("api key header not sent: %q", apiKeyAuth)
	}
	if query != "SKU 1" {
		t.Fatalf("query template not expanded: %q", query)
	}
}

func TestResolve_SearchBestMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[
			{"sku":"ZZZ-9",        "title":"wrong"},
			{"sku":"xAAA-1_BBB-2", "title":"both segments"},
			{"sku":"AAA-1",        "title":"one segment"}
		]}`))
	}))
	defer srv.Close()

	r := testResolver(t, srv.URL, []Candidate{
		{Name: "search", Path: "/?q={query}", Auth: AuthBearer, Shape: ShapeSearch},
	})

	payload, _, err := r.Resolve(context.Background(), "AAA-1/BBB-2", "US", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload["title"] != "both segments" {
		t.Fatalf("best match scoring failed: %+v", payload)
	}
}

func TestResolve_SearchZeroMatchesPicksFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"sku":"unrelated-1","title":"first"},{"sku":"unrelated-2","title":"second"}]`))
	}))
	defer srv.Close()

	r := testResolver(t, srv.URL, []Candidate{
		{Name: "search", Path: "/?q={query}", Auth: AuthBearer, Shape: ShapeSearch},
	})

	payload, _, err := r.Resolve(context.Background(), "AAA-1", "US", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload["title"] != "first" {
		t.Fatalf("expected best-effort first result, got %+v", payload)
	}
}

func TestResolve_Exhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/empty-search":
			w.Write([]byte(`{"results":[]}`))
		case "/unsuccessful":
			w.Write([]byte(`{"success":false,"message":"no access"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	r := testResolver(t, srv.URL, []Candidate{
		{Name: "missing", Path: "/missing", Auth: AuthBearer, Shape: ShapeDetail},
		{Name: "empty-search", Path: "/empty-search", Auth: AuthBearer, Shape: ShapeSearch},
		{Name: "unsuccessful", Path: "/unsuccessful", Auth: AuthBearer, Shape: ShapeDetail},
	})

	_, _, err := r.Resolve(context.Background(), "SKU-1", "US", false)
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestResolve_IDOnlyCandidatesSkippedWithoutID(t *testing.T) {
	var idCalls int64
	mux := http.NewServeMux()
	mux.HandleFunc("/by-id", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&idCalls, 1)
		w.Write([]byte(`{"title":"by id"}`))
	})
	mux.HandleFunc("/by-query", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"title":"by query"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	candidates := []Candidate{
		{Name: "by-id", Path: "/by-id", Auth: AuthBearer, Shape: ShapeDetail, NeedsID: true},
		{Name: "by-query", Path: "/by-query", Auth: AuthBearer, Shape: ShapeDetail},
	}

	r := testResolver(t, srv.URL, candidates)
	_, name, err := r.Resolve(context.Background(), "SKU-1", "US", false)
	if err != nil || name != "by-query" {
		t.Fatalf("expected by-query without id, got %s err=%v", name, err)
	}
	if atomic.LoadInt64(&idCalls) != 0 {
		t.Fatalf("id-only candidate must be skipped without an id")
	}

	_, name, err = r.Resolve(context.Background(), "opaque-id-1", "US", true)
	if err != nil || name != "by-id" {
		t.Fatalf("expected by-id with id, got %s err=%v", name, err)
	}
}

func TestResolve_TimeoutAdvancesToNextCandidate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"title":"too late"}`))
	})
	mux.HandleFunc("/fast", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"title":"fast"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := NewResolver(srv.URL, "test-key", 50*time.Millisecond, zap.NewNop())
	r.candidates = []Candidate{
		{Name: "slow", Path: "/slow", Auth: AuthBearer, Shape: ShapeDetail},
		{Name: "fast", Path: "/fast", Auth: AuthBearer, Shape: ShapeDetail},
	}

	payload, name, err := r.Resolve(context.Background(), "SKU-1", "US", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "fast" || payload["title"] != "fast" {
		t.Fatalf("timeout should advance to the next candidate, got %s %+v", name, payload)
	}
}
