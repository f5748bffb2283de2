package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestJobDescriptionFetcher(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		expect  string
		wantErr error
	}{
		{
			name:   "prefers description container",
			status: http.StatusOK,
			body: `<html><head><style>.x{}</style></head><body><nav>Jobs Home</nav>
<div class="job-description"><h2>Backend Engineer</h2>
<p>Go,   Postgres
and Kafka.</p><script>track()</script></div><footer>About</footer></body></html>`,
			expect: "Backend Engineer Go, Postgres and Kafka.",
		},
		{
			name:   "falls back to body",
			status: http.StatusOK,
			body:   `<html><body><p>We need a   data analyst.</p></body></html>`,
			expect: "We need a data analyst.",
		},
		{
			name:    "empty page",
			status:  http.StatusOK,
			body:    `<html><body><script>only()</script></body></html>`,
			wantErr: ErrEmptyJobDescription,
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   "missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("User-Agent") != "resume-matcher-test" {
					t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			fetcher := NewJobDescriptionFetcher(5*time.Second, "resume-matcher-test", nil)
			text, err := fetcher.Fetch(context.Background(), server.URL)

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			case tt.status != http.StatusOK:
				if err == nil {
					t.Fatalf("expected an error for status %d", tt.status)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if text != tt.expect {
					t.Fatalf("expected %q, got %q", tt.expect, text)
				}
			}
		})
	}
}

func TestJobDescriptionFetcherRejectsInvalidURL(t *testing.T) {
	fetcher := NewJobDescriptionFetcher(0, "", nil)

	for _, raw := range []string{"", "ftp://example.com/job", "not a url"} {
		if _, err := fetcher.Fetch(context.Background(), raw); err == nil {
			t.Fatalf("expected an error for %q", raw)
		}
	}
}
