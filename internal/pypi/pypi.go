// Package pypi provides a registry client for pypi.org.
package pypi

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/github/go-spdx/v2/spdxexp"

	"github.com/git-pkgs/pkgdesc/internal/core"
)

const (
	DefaultURL = "https://pypi.org"
	ecosystem  = "pypi"
)

func init() {
	core.Register(ecosystem, DefaultURL, func(baseURL string, client *core.Client) core.Registry {
		return New(baseURL, client)
	})
}

type Registry struct {
	baseURL string
	client  *core.Client
	urls    *URLs
}

func New(baseURL string, client *core.Client) *Registry {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if client == nil {
		client = core.DefaultClient()
	}
	r := &Registry{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
	r.urls = &URLs{baseURL: r.baseURL}
	return r
}

func (r *Registry) Ecosystem() string {
	return ecosystem
}

func (r *Registry) URLs() core.URLBuilder {
	return r.urls
}

type packageResponse struct {
	Info     infoBlock                `json:"info"`
	Releases map[string][]releaseFile `json:"releases"`
}

type infoBlock struct {
	Name              string            `json:"name"`
	Summary           string            `json:"summary"`
	HomePage          string            `json:"home_page"`
	License           string            `json:"license"`
	LicenseExpression string            `json:"license_expression"`
	Keywords          string            `json:"keywords"`
	Version           string            `json:"version"`
	Classifiers       []string          `json:"classifiers"`
	ProjectURLs       map[string]string `json:"project_urls"`
	RequiresDist      []string          `json:"requires_dist"`
	RequiresPython    string            `json:"requires_python"`
}

type releaseFile struct {
	Filename       string            `json:"filename"`
	Digests        map[string]string `json:"digests"`
	URL            string            `json:"url"`
	UploadTime     string            `json:"upload_time"`
	Yanked         bool              `json:"yanked"`
	YankedReason   string            `json:"yanked_reason"`
	PackageType    string            `json:"packagetype"`
	RequiresPython string            `json:"requires_python"`
	Size           int               `json:"size"`
}

type versionInfoResponse struct {
	Info infoBlock `json:"info"`
}

func (r *Registry) getJSON(ctx context.Context, url, name, version string, v any) error {
	err := r.client.GetJSON(ctx, url, v)
	var httpErr *core.HTTPError
	if errors.As(err, &httpErr) && httpErr.IsNotFound() {
		return &core.NotFoundError{Ecosystem: ecosystem, Name: name, Version: version}
	}
	return err
}

func (r *Registry) FetchPackage(ctx context.Context, name string) (*core.Package, error) {
	url := fmt.Sprintf("%s/pypi/%s/json", r.baseURL, name)

	var resp packageResponse
	if err := r.getJSON(ctx, url, name, "", &resp); err != nil {
		return nil, err
	}

	return &core.Package{
		Name:        core.NormalizeName(resp.Info.Name),
		Description: resp.Info.Summary,
		Homepage:    extractHomepage(resp.Info.ProjectURLs, resp.Info.HomePage),
		Repository:  extractRepoURL(resp.Info.ProjectURLs, resp.Info.HomePage),
		Licenses:    extractLicense(resp.Info),
		Keywords:    parseKeywords(resp.Info.Keywords),
		Metadata: map[string]any{
			"classifiers":     resp.Info.Classifiers,
			"documentation":   resp.Info.ProjectURLs["Documentation"],
			"latest_version":  resp.Info.Version,
			"requires_python": resp.Info.RequiresPython,
		},
	}, nil
}

func extractRepoURL(projectURLs map[string]string, homePage string) string {
	for _, key := range []string{"Repository", "Source", "Source Code", "Code"} {
		if url, ok := projectURLs[key]; ok && isRepoURL(url) {
			return url
		}
	}

	for _, url := range projectURLs {
		if isRepoURL(url) && !strings.Contains(url, "github.com/sponsors") {
			return url
		}
	}

	if isRepoURL(homePage) {
		return homePage
	}

	return ""
}

func extractHomepage(projectURLs map[string]string, homePage string) string {
	if homePage != "" {
		return homePage
	}
	for _, key := range []string{"Homepage", "Home"} {
		if url, ok := projectURLs[key]; ok {
			return url
		}
	}
	return ""
}

func isRepoURL(url string) bool {
	return strings.Contains(url, "github.com") ||
		strings.Contains(url, "gitlab.com") ||
		strings.Contains(url, "bitbucket.org") ||
		strings.Contains(url, "codeberg.org")
}

// extractLicense prefers license_expression, then the free-form license
// field, then the last "License ::" classifier. Values are rewritten to an
// SPDX identifier when a simple respelling makes them valid.
func extractLicense(info infoBlock) string {
	if info.LicenseExpression != "" {
		return info.LicenseExpression
	}
	if info.License != "" {
		return normalizeLicense(info.License)
	}

	for _, classifier := range info.Classifiers {
		if strings.HasPrefix(classifier, "License :: ") {
			parts := strings.Split(classifier, " :: ")
			return normalizeLicense(parts[len(parts)-1])
		}
	}

	return ""
}

func normalizeLicense(license string) string {
	license = strings.TrimSpace(license)
	candidates := []string{
		license,
		strings.ReplaceAll(license, " ", "-"),
		strings.TrimSuffix(strings.ReplaceAll(license, " ", "-"), "-License"),
	}
	for _, c := range candidates {
		if ok, _ := spdxexp.ValidateLicenses([]string{c}); ok {
			return c
		}
	}
	return license
}

func parseKeywords(keywords string) []string {
	if keywords == "" {
		return nil
	}
	if !strings.Contains(keywords, ",") {
		return strings.Fields(keywords)
	}
	parts := strings.Split(keywords, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

func (r *Registry) FetchVersions(ctx context.Context, name string) ([]core.Version, error) {
	url := fmt.Sprintf("%s/pypi/%s/json", r.baseURL, name)

	var resp packageResponse
	if err := r.getJSON(ctx, url, name, "", &resp); err != nil {
		return nil, err
	}

	versions := make([]core.Version, 0, len(resp.Releases))
	for num, files := range resp.Releases {
		file, ok := preferredFile(files)
		if !ok {
			versions = append(versions, core.Version{Number: num})
			continue
		}

		var publishedAt time.Time
		if file.UploadTime != "" {
			publishedAt, _ = time.Parse("2006-01-02T15:04:05", file.UploadTime)
		}

		var status core.VersionStatus
		if file.Yanked {
			status = core.StatusYanked
		}

		var integrity string
		if sha256, ok := file.Digests["sha256"]; ok {
			integrity = "sha256-" + sha256
		}

		versions = append(versions, core.Version{
			Number:      num,
			PublishedAt: publishedAt,
			Integrity:   integrity,
			Status:      status,
			Metadata: map[string]any{
				"download_url":    file.URL,
				"filename":        file.Filename,
				"requires_python": file.RequiresPython,
				"yanked_reason":   file.YankedReason,
				"packagetype":     file.PackageType,
				"size":            file.Size,
			},
		})
	}

	return versions, nil
}

// preferredFile picks the sdist of a release, falling back to a wheel and
// then to whatever was uploaded first.
func preferredFile(files []releaseFile) (releaseFile, bool) {
	if len(files) == 0 {
		return releaseFile{}, false
	}
	for _, kind := range []string{"sdist", "bdist_wheel"} {
		for _, f := range files {
			if f.PackageType == kind {
				return f, true
			}
		}
	}
	return files[0], true
}

var pep508NameRegex = regexp.MustCompile(`^([A-Za-z0-9][-A-Za-z0-9._]*[A-Za-z0-9]|[A-Za-z0-9])(\s*\[.*?\])?`)

func (r *Registry) FetchDependencies(ctx context.Context, name, version string) ([]core.Dependency, error) {
	url := fmt.Sprintf("%s/pypi/%s/%s/json", r.baseURL, name, version)

	var resp versionInfoResponse
	if err := r.getJSON(ctx, url, name, version, &resp); err != nil {
		return nil, err
	}

	if len(resp.Info.RequiresDist) == 0 {
		return nil, nil
	}

	deps := make([]core.Dependency, 0, len(resp.Info.RequiresDist))
	for _, req := range resp.Info.RequiresDist {
		depName, requirements, envMarker := parsePEP508(req)

		scope := core.Runtime
		optional := false
		if envMarker != "" {
			scope = core.Scope(envMarker)
			optional = true
		}

		deps = append(deps, core.Dependency{
			Name:         depName,
			Requirements: requirements,
			Scope:        scope,
			Optional:     optional,
		})
	}

	return deps, nil
}

// parsePEP508 splits a requires_dist entry into name, version specifier
// and environment marker. Extras are dropped from the name.
func parsePEP508(dep string) (name, requirements, envMarker string) {
	nameAndVersion, marker, _ := strings.Cut(dep, ";")
	nameAndVersion = strings.TrimSpace(nameAndVersion)
	envMarker = strings.TrimSpace(marker)

	if match := pep508NameRegex.FindStringSubmatch(nameAndVersion); match != nil {
		name = strings.TrimSpace(match[1])
		requirements = strings.TrimSpace(nameAndVersion[len(match[0]):])
		requirements = strings.TrimSpace(strings.Trim(requirements, "()"))
	} else {
		name = nameAndVersion
	}

	if idx := strings.Index(name, "["); idx != -1 {
		name = name[:idx]
	}

	if requirements == "" {
		requirements = "*"
	}

	return
}

type URLs struct {
	baseURL string
}

func (u *URLs) Registry(name, version string) string {
	if version != "" {
		return fmt.Sprintf("%s/project/%s/%s/", u.baseURL, name, version)
	}
	return fmt.Sprintf("%s/project/%s/", u.baseURL, name)
}

// Download is empty: PyPI file URLs are only known from release metadata.
func (u *URLs) Download(name, version string) string {
	return ""
}

func (u *URLs) Documentation(name, version string) string {
	if version != "" {
		return fmt.Sprintf("https://%s.readthedocs.io/en/%s/", name, version)
	}
	return fmt.Sprintf("https://%s.readthedocs.io/", name)
}

func (u *URLs) PURL(name, version string) string {
	return core.Requirement{Name: name, Version: version, Pinned: version != ""}.PURL()
}
