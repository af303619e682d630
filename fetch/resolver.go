package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/git-pkgs/pkgdesc/client"
	"github.com/git-pkgs/pkgdesc/internal/core"
)

var (
	ErrNoDownloadURL = errors.New("no download URL available")
	ErrUnpinned      = errors.New("requirement has no resolved version")
)

// sourceHost serves /packages/source/<letter>/<name>/<name>-<version>.tar.gz
// redirects for every sdist on PyPI.
const sourceHost = "https://files.pythonhosted.org"

// Registry provides version metadata and URL information for artifact resolution.
// It is satisfied by core.Registry implementations.
type Registry interface {
	Ecosystem() string
	FetchVersions(ctx context.Context, name string) ([]core.Version, error)
	URLs() client.URLBuilder
}

// ArtifactInfo contains information about a downloadable artifact.
type ArtifactInfo struct {
	Name      string
	Version   string
	URL       string
	Filename  string
	Integrity string // sha256-...
}

// Resolver determines download URLs for requirement artifacts.
type Resolver struct {
	reg Registry
}

// NewResolver creates a resolver. A nil registry makes every lookup fall
// back to the predictable sdist URL, without integrity information.
func NewResolver(reg Registry) *Resolver {
	return &Resolver{reg: reg}
}

// Resolve returns the download URL and filename for one release.
func (r *Resolver) Resolve(ctx context.Context, name, version string) (*ArtifactInfo, error) {
	if version == "" {
		return nil, fmt.Errorf("%s: %w", name, ErrUnpinned)
	}

	if r.reg == nil {
		return sdistInfo(name, version), nil
	}

	if url := r.reg.URLs().Download(name, version); url != "" {
		return &ArtifactInfo{
			Name:     name,
			Version:  version,
			URL:      url,
			Filename: filenameFromURL(url),
		}, nil
	}

	return r.resolveFromMetadata(ctx, name, version)
}

// ResolveAll resolves the artifact for every successful resolution in a report.
// Requirements that did not resolve are skipped.
func (r *Resolver) ResolveAll(ctx context.Context, report *core.Report) ([]*ArtifactInfo, error) {
	var infos []*ArtifactInfo
	for _, res := range report.Resolutions {
		if res.Status != core.StatusOK && res.Status != core.StatusResolved {
			continue
		}
		info, err := r.Resolve(ctx, res.Requirement.Name, res.Resolved)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", res.Requirement, err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func sdistInfo(name, version string) *ArtifactInfo {
	filename := fmt.Sprintf("%s-%s.tar.gz", name, version)
	return &ArtifactInfo{
		Name:     name,
		Version:  version,
		URL:      fmt.Sprintf("%s/packages/source/%c/%s/%s", sourceHost, name[0], name, filename),
		Filename: filename,
	}
}

func (r *Resolver) resolveFromMetadata(ctx context.Context, name, version string) (*ArtifactInfo, error) {
	versions, err := r.reg.FetchVersions(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("fetching versions: %w", err)
	}

	for _, v := range versions {
		if v.Number != version {
			continue
		}

		url, _ := v.Metadata["download_url"].(string)
		if url == "" {
			return nil, ErrNoDownloadURL
		}
		filename, _ := v.Metadata["filename"].(string)
		if filename == "" {
			filename = filenameFromURL(url)
		}
		return &ArtifactInfo{
			Name:      name,
			Version:   version,
			URL:       url,
			Filename:  filename,
			Integrity: v.Integrity,
		}, nil
	}

	return nil, ErrNotFound
}

func filenameFromURL(url string) string {
	url, _, _ = strings.Cut(url, "#")
	if idx := strings.LastIndex(url, "/"); idx >= 0 {
		return url[idx+1:]
	}
	return url
}
