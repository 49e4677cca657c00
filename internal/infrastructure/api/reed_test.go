package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestReedFetchPagesAndStamps(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Basic ") {
			t.Errorf("missing basic auth header, got %q", auth)
		}

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("resultsToSkip") == "0" {
			_, _ = w.Write([]byte(`{"results":[
				{"jobTitle":"Data Analyst","employerName":"Acme","locationName":"Leeds",
				 "jobDescription":"numbers","minimumSalary":30000,"maximumSalary":40000,
				 "jobUrl":"https://example.org/1","date":"13/05/2025"},
				{"jobTitle":"GIS Analyst","employerName":"Maps Co","locationName":"York",
				 "jobUrl":"https://example.org/2","date":"14/05/2025"}
			]}`))
			return
		}
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	src := NewReedSource("test-key", nil)
	src.endpoint = server.URL
	src.client = server.Client()
	src.now = func() time.Time { return time.Date(2025, time.May, 14, 8, 0, 0, 0, time.UTC) }

	raws, err := src.Fetch(context.Background(), "data analyst", "England")
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if len(raws) != 2 {
		t.Fatalf("expected 2 records, got %d", len(raws))
	}
	if raws[0]["jobTitle"] != "Data Analyst" {
		t.Fatalf("unexpected first record: %+v", raws[0])
	}
	if raws[0]["search_query"] != "data analyst" || raws[0]["search_location"] != "England" {
		t.Fatalf("search metadata not stamped: %+v", raws[0])
	}
	if _, ok := raws[0]["date_downloaded"].(time.Time); !ok {
		t.Fatalf("date_downloaded not stamped: %+v", raws[0])
	}
}

func TestReedFetchSkipsWithoutKey(t *testing.T) {
	t.Parallel()

	src := NewReedSource("", nil)
	raws, err := src.Fetch(context.Background(), "q", "l")
	if err != nil {
		t.Fatalf("missing key should not error: %v", err)
	}
	if raws != nil {
		t.Fatalf("expected nil batch, got %d records", len(raws))
	}
}

func TestReedFetchReturnsPartialOnError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("resultsToSkip") == "0" {
			_, _ = w.Write([]byte(`{"results":[{"jobTitle":"One","jobUrl":"https://example.org/1"}]}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	src := NewReedSource("test-key", nil)
	src.endpoint = server.URL
	src.client = server.Client()

	raws, err := src.Fetch(context.Background(), "q", "l")
	if err == nil {
		t.Fatal("expected error from failing page")
	}
	if len(raws) != 1 {
		t.Fatalf("expected the first page to survive, got %d records", len(raws))
	}
}
