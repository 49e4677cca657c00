package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJoobleFetchKeepsOnlyUKPostings(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jobs":[
			{"title":"Data Analyst","company":"Acme","location":"Leeds, UK",
			 "snippet":"salary £32,000 per annum","link":"https://example.org/j/1"},
			{"title":"Data Analyst","company":"Elsewhere","location":"Berlin, Germany",
			 "snippet":"n/a","link":"https://example.org/j/2"}
		]}`))
	}))
	defer server.Close()

	src := NewJoobleSource("test-key", nil)
	src.endpoint = server.URL + "/"
	src.client = server.Client()

	raws, err := src.Fetch(context.Background(), "data analyst", "Leeds")
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(raws) != 1 {
		t.Fatalf("expected only the UK posting, got %d records", len(raws))
	}
	if raws[0]["salary_min"] != float64(32000) {
		t.Fatalf("salary not extracted from snippet: %+v", raws[0])
	}
}

func TestExtractSalaryText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want string
	}{
		{"we pay £62,500 a year", "£62,500"},
		{"up to £100k package", "£100k"},
		{"rate £18 - £21 per hour", "£18 - £21"},
		{"100k to 120k depending on experience", "100k to 120k"},
		{"no salary mentioned", ""},
		{"", ""},
	}

	for _, tc := range cases {
		if got := extractSalaryText(tc.text); got != tc.want {
			t.Errorf("extractSalaryText(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestParseSalaryRange(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text     string
		min, max float64
		ok       bool
	}{
		{"£62,500", 62500, 62500, true},
		{"£100k", 100000, 100000, true},
		{"£18 - £21", 18, 21, true},
		{"100k to 120k", 100000, 120000, true},
		{"", 0, 0, false},
		{"competitive", 0, 0, false},
	}

	for _, tc := range cases {
		min, max, ok := parseSalaryRange(tc.text)
		if ok != tc.ok || min != tc.min || max != tc.max {
			t.Errorf("parseSalaryRange(%q) = (%v, %v, %v), want (%v, %v, %v)",
				tc.text, min, max, ok, tc.min, tc.max, tc.ok)
		}
	}
}

func TestJoobleFetchSkipsWithoutKey(t *testing.T) {
	t.Parallel()

	src := NewJoobleSource("", nil)
	raws, err := src.Fetch(context.Background(), "q", "l")
	if err != nil {
		t.Fatalf("missing key should not error: %v", err)
	}
	if raws != nil {
		t.Fatalf("expected nil batch, got %d records", len(raws))
	}
}
