package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRemotiveFetchCleansDescriptions(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("search"); got != "data science" {
			t.Errorf("unexpected search param: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jobs":[{
			"company_name":"Remote Co",
			"url":"https://example.org/r/1",
			"title":"Data Scientist",
			"description":"<p>First paragraph.</p><script>alert(1)</script><p>Second paragraph.</p>",
			"candidate_required_location":"Worldwide",
			"publication_date":"2025-05-01T00:00:00"
		}]}`))
	}))
	defer server.Close()

	src := NewRemotiveSource(nil)
	src.endpoint = server.URL
	src.client = server.Client()

	raws, err := src.Fetch(context.Background(), "data science", "remote")
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(raws) != 1 {
		t.Fatalf("expected 1 record, got %d", len(raws))
	}

	description, _ := raws[0]["description"].(string)
	if strings.Contains(description, "<") || strings.Contains(description, "alert") {
		t.Fatalf("description not cleaned: %q", description)
	}
	if !strings.Contains(description, "First paragraph.") || !strings.Contains(description, "Second paragraph.") {
		t.Fatalf("text content lost: %q", description)
	}
}

func TestCleanHTML(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "hello world", "hello world"},
		{"empty", "", ""},
		{"drops images", `before<img src="x">after`, "beforeafter"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc := tc
			t.Parallel()
			if got := CleanHTML(tc.in); got != tc.want {
				t.Fatalf("CleanHTML(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCleanHTMLKeepsParagraphBreaks(t *testing.T) {
	t.Parallel()

	got := CleanHTML("<p>one</p><p>two</p>")
	if !strings.Contains(got, "one") || !strings.Contains(got, "two") {
		t.Fatalf("content lost: %q", got)
	}
	if !strings.Contains(got, "\n") {
		t.Fatalf("expected a line break between paragraphs: %q", got)
	}
}
