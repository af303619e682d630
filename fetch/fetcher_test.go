package fetch

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

var (
	_ Getter = (*Fetcher)(nil)
	_ Getter = (*CircuitBreakerFetcher)(nil)
)

// sdistPath is where files.pythonhosted.org serves an sdist.
const sdistPath = "/packages/source/p/pandas-gbq/pandas-gbq-0.11.0.tar.gz"

// statusSequence answers with codes in order, repeating the last one.
func statusSequence(t *testing.T, codes ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(hits.Add(1)) - 1
		code := codes[min(n, len(codes)-1)]
		w.WriteHeader(code)
		if code == http.StatusOK {
			_, _ = w.Write([]byte("sdist"))
		} else {
			_, _ = w.Write([]byte(http.StatusText(code)))
		}
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func TestFetchRetryPolicy(t *testing.T) {
	tests := []struct {
		name       string
		codes      []int
		maxRetries int
		wantHits   int32
		wantErr    error
		wantText   string
	}{
		{"ok first time", []int{200}, 3, 1, nil, ""},
		{"rate limited then ok", []int{429, 429, 200}, 3, 3, nil, ""},
		{"mirror hiccup", []int{502, 200}, 3, 2, nil, ""},
		{"upstream down", []int{503}, 2, 3, ErrUpstreamDown, ""},
		{"retries disabled", []int{503}, 0, 1, ErrUpstreamDown, ""},
		{"missing sdist", []int{404}, 3, 1, ErrNotFound, ""},
		{"forbidden not retried", []int{403}, 3, 1, nil, "unexpected status 403: Forbidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, hits := statusSequence(t, tt.codes...)
			f := NewFetcher(WithMaxRetries(tt.maxRetries), WithBaseDelay(time.Millisecond))

			artifact, err := f.Fetch(context.Background(), server.URL+sdistPath)
			if artifact != nil {
				_ = artifact.Body.Close()
			}

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Fetch() = %v, want %v", err, tt.wantErr)
				}
			case tt.wantText != "":
				if err == nil || !strings.Contains(err.Error(), tt.wantText) {
					t.Errorf("Fetch() = %v, want error containing %q", err, tt.wantText)
				}
			case err != nil:
				t.Errorf("Fetch() = %v", err)
			}

			if got := hits.Load(); got != tt.wantHits {
				t.Errorf("server hit %d times, want %d", got, tt.wantHits)
			}
		})
	}
}

func TestFetchArtifactMetadata(t *testing.T) {
	var gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		switch r.URL.Path {
		case sdistPath:
			w.Header().Set("Content-Type", "application/x-tar")
			w.Header().Set("ETag", `"0.11.0"`)
			w.Header().Set("Content-Length", "5")
			_, _ = w.Write([]byte("sdist"))
		case "/chunked":
			w.(http.Flusher).Flush()
			_, _ = w.Write([]byte("streamed"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	f := NewFetcher(WithUserAgent("pkgdesc/test"))

	artifact, err := f.Fetch(context.Background(), server.URL+sdistPath)
	if err != nil {
		t.Fatalf("Fetch() = %v", err)
	}
	body, _ := io.ReadAll(artifact.Body)
	_ = artifact.Body.Close()

	if string(body) != "sdist" || artifact.Size != 5 {
		t.Errorf("body %q size %d, want %q size 5", body, artifact.Size, "sdist")
	}
	if artifact.ContentType != "application/x-tar" || artifact.ETag != `"0.11.0"` {
		t.Errorf("ContentType %q ETag %q", artifact.ContentType, artifact.ETag)
	}
	if gotUA != "pkgdesc/test" || gotAccept != "*/*" {
		t.Errorf("headers User-Agent=%q Accept=%q", gotUA, gotAccept)
	}

	artifact, err = f.Fetch(context.Background(), server.URL+"/chunked")
	if err != nil {
		t.Fatalf("Fetch(chunked) = %v", err)
	}
	_ = artifact.Body.Close()
	if artifact.Size != -1 {
		t.Errorf("chunked Size = %d, want -1", artifact.Size)
	}
}

func TestHeadStatus(t *testing.T) {
	tests := []struct {
		code     int
		wantSize int64
		wantErr  error
		wantText string
	}{
		{http.StatusOK, 5, nil, ""},
		{http.StatusNotFound, 0, ErrNotFound, ""},
		{http.StatusServiceUnavailable, 0, ErrUpstreamDown, ""},
		{http.StatusTeapot, 0, nil, "unexpected status 418"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodHead {
					t.Errorf("method = %s, want HEAD", r.Method)
				}
				w.Header().Set("Content-Type", "application/x-tar")
				w.Header().Set("Content-Length", "5")
				w.WriteHeader(tt.code)
			}))
			defer server.Close()

			size, contentType, err := NewFetcher().Head(context.Background(), server.URL+sdistPath)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Head() = %v, want %v", err, tt.wantErr)
				}
			case tt.wantText != "":
				if err == nil || !strings.Contains(err.Error(), tt.wantText) {
					t.Errorf("Head() = %v, want %q", err, tt.wantText)
				}
			default:
				if err != nil || size != tt.wantSize || contentType != "application/x-tar" {
					t.Errorf("Head() = %d, %q, %v", size, contentType, err)
				}
			}
		})
	}
}

func TestFetchCancelledDuringBackoff(t *testing.T) {
	server, hits := statusSequence(t, http.StatusServiceUnavailable)
	f := NewFetcher(WithBaseDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	_, err := f.Fetch(ctx, server.URL+sdistPath)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Fetch() = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Fetch() returned after %v, want prompt return on cancel", elapsed)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hit %d times, want 1", got)
	}
}

func TestWithTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	hc := &http.Client{Transport: cachingTransport()}
	f := NewFetcher(WithHTTPClient(hc), WithTimeout(20*time.Millisecond), WithMaxRetries(0))

	_, err := f.Fetch(context.Background(), server.URL+sdistPath)
	var netErr net.Error
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		t.Errorf("Fetch() = %v, want a timeout", err)
	}
	if hc.Timeout != 0 {
		t.Errorf("WithTimeout modified the caller's client: Timeout = %v", hc.Timeout)
	}
	if NewFetcher().client.Timeout != defaultTimeout {
		t.Errorf("default timeout = %v, want %v", NewFetcher().client.Timeout, defaultTimeout)
	}
}

func TestCachingTransportWrapsDialError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	f := NewFetcher(WithMaxRetries(0))
	_, err := f.Fetch(context.Background(), addr+sdistPath)
	if err == nil {
		t.Fatal("Fetch() against a closed port succeeded")
	}
	if !strings.Contains(err.Error(), "dialing 127.0.0.1") {
		t.Errorf("Fetch() = %v, want the host in the dial error", err)
	}
	var opErr *net.OpError
	if !errors.As(err, &opErr) || opErr.Op != "dial" {
		t.Errorf("Fetch() = %v, want the underlying *net.OpError", err)
	}
}

func TestCachingTransportSettings(t *testing.T) {
	tr := cachingTransport()
	if tr.Proxy == nil {
		t.Error("transport ignores HTTP(S)_PROXY")
	}
	if tr.DialContext == nil {
		t.Error("transport dials without the DNS cache")
	}
	if tr.MaxIdleConnsPerHost < 2 {
		t.Errorf("MaxIdleConnsPerHost = %d, want connection reuse", tr.MaxIdleConnsPerHost)
	}
}

func TestDelayGrowsExponentially(t *testing.T) {
	f := NewFetcher(WithBaseDelay(100 * time.Millisecond))

	for attempt, base := range map[int]time.Duration{1: 100 * time.Millisecond, 2: 200 * time.Millisecond, 3: 400 * time.Millisecond} {
		d := f.delay(attempt)
		if d < base || d > base+base/10 {
			t.Errorf("delay(%d) = %v, want between %v and %v", attempt, d, base, base+base/10)
		}
	}
}
