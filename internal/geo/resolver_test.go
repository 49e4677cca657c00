package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func newGeocodeServer(t *testing.T, calls *int32, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestResolveCachesOnlineResults(t *testing.T) {
	t.Parallel()

	var calls int32
	server := newGeocodeServer(t, &calls, `[{"lat":"51.5074","lon":"-0.1278"}]`)
	defer server.Close()

	resolver := NewResolver(Options{Client: server.Client(), Endpoint: server.URL})

	ctx := context.Background()
	lat1, lon1 := resolver.Resolve(ctx, "London")
	if lat1 == nil || lon1 == nil {
		t.Fatal("expected coordinates from first call")
	}

	lat2, lon2 := resolver.Resolve(ctx, "London")
	if lat2 == nil || lon2 == nil {
		t.Fatal("expected coordinates from cache")
	}
	if *lat1 != *lat2 || *lon1 != *lon2 {
		t.Fatalf("cache returned different pair: (%v,%v) vs (%v,%v)", *lat1, *lon1, *lat2, *lon2)
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected exactly 1 network call, got %d", got)
	}
}

func TestResolveDigitTextUsesPostcodeTableOnly(t *testing.T) {
	t.Parallel()

	var calls int32
	server := newGeocodeServer(t, &calls, `[{"lat":"1","lon":"2"}]`)
	defer server.Close()

	index, err := ReadPostcodes(strings.NewReader("postcode,latitude,longitude\nAB10AA,57.1,-2.2\n"))
	if err != nil {
		t.Fatalf("ReadPostcodes error: %v", err)
	}

	resolver := NewResolver(Options{Postcodes: index, Client: server.Client(), Endpoint: server.URL})
	ctx := context.Background()

	lat, lon := resolver.Resolve(ctx, "AB1 0AA")
	if lat == nil || lon == nil || *lat != 57.1 || *lon != -2.2 {
		t.Fatalf("expected offline hit, got %v %v", lat, lon)
	}

	// A digit-bearing miss must not fall through to the online path.
	if lat, lon := resolver.Resolve(ctx, "ZZ9 9ZZ"); lat != nil || lon != nil {
		t.Fatalf("expected offline miss, got %v %v", lat, lon)
	}

	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Fatalf("online service must not be called for postcode paths, got %d calls", got)
	}
}

func TestResolveChainFallback(t *testing.T) {
	t.Parallel()

	var calls int32
	server := newGeocodeServer(t, &calls, `[{"lat":"53.4","lon":"-2.9"}]`)
	defer server.Close()

	resolver := NewResolver(Options{
		Client:        server.Client(),
		Endpoint:      server.URL,
		ChainFallback: true,
	})

	// No postcode table loaded: digit heuristic misses offline, fallback
	// chaining sends it online.
	lat, lon := resolver.Resolve(context.Background(), "L1 8JQ")
	if lat == nil || lon == nil {
		t.Fatal("expected online result via fallback chaining")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected 1 online call, got %d", got)
	}
}

func TestResolveDegradesOnFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"empty result set", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		}},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{not json`))
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc := tc
			t.Parallel()

			server := httptest.NewServer(tc.handler)
			defer server.Close()

			resolver := NewResolver(Options{Client: server.Client(), Endpoint: server.URL})
			lat, lon := resolver.Resolve(context.Background(), "Nowhere")
			if lat != nil || lon != nil {
				t.Fatalf("failure must degrade to nils, got %v %v", lat, lon)
			}
		})
	}
}

func TestResolveEmptyLocation(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(Options{})
	if lat, lon := resolver.Resolve(context.Background(), ""); lat != nil || lon != nil {
		t.Fatal("empty location must miss without side effects")
	}
}
