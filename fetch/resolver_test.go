package fetch

import (
	"context"
	"errors"
	"testing"

	"github.com/git-pkgs/pkgdesc/client"
	"github.com/git-pkgs/pkgdesc/internal/core"
)

type stubRegistry struct {
	versions map[string][]core.Version
	download func(name, version string) string
}

func (s *stubRegistry) Ecosystem() string { return "pypi" }

func (s *stubRegistry) FetchVersions(ctx context.Context, name string) ([]core.Version, error) {
	v, ok := s.versions[name]
	if !ok {
		return nil, &core.NotFoundError{Ecosystem: "pypi", Name: name}
	}
	return v, nil
}

func (s *stubRegistry) URLs() client.URLBuilder {
	return &client.BaseURLs{DownloadFn: s.download}
}

func TestResolveWithoutRegistry(t *testing.T) {
	r := NewResolver(nil)

	info, err := r.Resolve(context.Background(), "pandas-gbq", "0.11.0")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	wantURL := "https://files.pythonhosted.org/packages/source/p/pandas-gbq/pandas-gbq-0.11.0.tar.gz"
	if info.URL != wantURL {
		t.Errorf("URL = %q, want %q", info.URL, wantURL)
	}
	if info.Filename != "pandas-gbq-0.11.0.tar.gz" {
		t.Errorf("Filename = %q", info.Filename)
	}
	if info.Integrity != "" {
		t.Errorf("Integrity = %q, want empty", info.Integrity)
	}
}

func TestResolveFromMetadata(t *testing.T) {
	reg := &stubRegistry{versions: map[string][]core.Version{
		"google-cloud-bigquery": {
			{
				Number:    "1.17.0",
				Integrity: "sha256-abc",
				Metadata: map[string]any{
					"download_url": "https://files.example/packages/aa/bb/google-cloud-bigquery-1.17.0.tar.gz#sha256=abc",
					"filename":     "",
				},
			},
			{Number: "1.16.0", Metadata: map[string]any{}},
		},
	}}
	r := NewResolver(reg)

	info, err := r.Resolve(context.Background(), "google-cloud-bigquery", "1.17.0")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if info.Filename != "google-cloud-bigquery-1.17.0.tar.gz" {
		t.Errorf("Filename = %q", info.Filename)
	}
	if info.Integrity != "sha256-abc" {
		t.Errorf("Integrity = %q", info.Integrity)
	}

	if _, err := r.Resolve(context.Background(), "google-cloud-bigquery", "1.16.0"); !errors.Is(err, ErrNoDownloadURL) {
		t.Errorf("Resolve(1.16.0) = %v, want ErrNoDownloadURL", err)
	}
	if _, err := r.Resolve(context.Background(), "google-cloud-bigquery", "9.9.9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve(9.9.9) = %v, want ErrNotFound", err)
	}
	if _, err := r.Resolve(context.Background(), "google-cloud-bigquery", ""); !errors.Is(err, ErrUnpinned) {
		t.Errorf("Resolve(\"\") = %v, want ErrUnpinned", err)
	}
}

func TestResolveUsesURLBuilder(t *testing.T) {
	reg := &stubRegistry{download: func(name, version string) string {
		return "https://mirror.example/" + name + "/" + version + "/" + name + ".whl"
	}}

	info, err := NewResolver(reg).Resolve(context.Background(), "cloudml-hypertune", "0.1.0.dev6")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if info.Filename != "cloudml-hypertune.whl" {
		t.Errorf("Filename = %q", info.Filename)
	}
}

func TestResolveAllSkipsFailures(t *testing.T) {
	report := &core.Report{Resolutions: []core.Resolution{
		{Requirement: core.Requirement{Name: "cloudml-hypertune"}, Resolved: "0.1.0.dev6", Status: core.StatusResolved},
		{Requirement: core.Requirement{Name: "pandas-gbq", Version: "0.11.0", Pinned: true}, Resolved: "0.11.0", Status: core.StatusOK},
		{Requirement: core.Requirement{Name: "gone", Version: "1.0", Pinned: true}, Status: core.StatusMissingVersion},
	}}

	infos, err := NewResolver(nil).ResolveAll(context.Background(), report)
	if err != nil {
		t.Fatalf("ResolveAll failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("got %d artifacts, want 2", len(infos))
	}
	if infos[0].Name != "cloudml-hypertune" || infos[1].Version != "0.11.0" {
		t.Errorf("unexpected artifacts: %+v, %+v", infos[0], infos[1])
	}
}

func TestFilenameFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/path/to/file.tar.gz", "file.tar.gz"},
		{"https://example.com/file.whl#sha256=abc", "file.whl"},
		{"file.txt", "file.txt"},
	}

	for _, tt := range tests {
		if got := filenameFromURL(tt.url); got != tt.want {
			t.Errorf("filenameFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
