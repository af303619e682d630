package cli

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/git-pkgs/pkgdesc/internal/core"
)

// run executes the root command in a fresh working directory so no
// pkgdesc.yaml or packages leak in from the repository.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if errOut.Len() > 0 {
		t.Log(errOut.String())
	}
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

type release struct {
	version  string
	uploaded string
	yanked   bool
	content  string
}

// fakePyPI serves the JSON API and the artifact files for the trainer
// requirements.
func fakePyPI(t *testing.T) *httptest.Server {
	t.Helper()
	projects := map[string][]release{
		"cloudml-hypertune": {
			{version: "0.1.0.dev5", uploaded: "2019-03-01T10:00:00", content: "hypertune dev5"},
			{version: "0.1.0.dev6", uploaded: "2019-10-08T17:00:00", content: "hypertune dev6"},
		},
		"google-cloud-bigquery": {
			{version: "1.17.0", uploaded: "2019-07-12T18:00:00", content: "bigquery 1.17.0"},
			{version: "1.18.0", uploaded: "2019-08-02T18:00:00", content: "bigquery 1.18.0"},
		},
		"pandas-gbq": {
			{version: "0.11.0", uploaded: "2019-07-29T20:00:00", content: "pandas-gbq 0.11.0"},
			{version: "0.10.0", uploaded: "2019-04-05T20:00:00", yanked: true, content: "pandas-gbq 0.10.0"},
		},
	}

	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("GET /pypi/{name}/json", func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		rels, ok := projects[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		releases := map[string]any{}
		for _, rel := range rels {
			sum := sha256.Sum256([]byte(rel.content))
			filename := name + "-" + rel.version + ".tar.gz"
			releases[rel.version] = []map[string]any{{
				"filename":    filename,
				"url":         srv.URL + "/files/" + filename,
				"packagetype": "sdist",
				"upload_time": rel.uploaded,
				"yanked":      rel.yanked,
				"digests":     map[string]string{"sha256": hex.EncodeToString(sum[:])},
			}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"info":     map[string]any{"name": name, "version": rels[len(rels)-1].version},
			"releases": releases,
		})
	})
	mux.HandleFunc("GET /files/{filename}", func(w http.ResponseWriter, r *http.Request) {
		for name, rels := range projects {
			for _, rel := range rels {
				if r.PathValue("filename") == name+"-"+rel.version+".tar.gz" {
					_, _ = w.Write([]byte(rel.content))
					return
				}
			}
		}
		http.NotFound(w, r)
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestVersionCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pkgdesc v"+Version)
}

func TestShowText(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := run(t, "show")
	require.NoError(t, err)

	for _, want := range []string{
		"trainer", "0.1", "My training application package",
		"cloudml-hypertune", "google-cloud-bigquery==1.17.0", "pandas-gbq==0.11.0",
		"include_package_data", "true",
	} {
		assert.Contains(t, out, want)
	}
}

func TestShowJSONIncludesDiscoveredPackages(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, "trainer", "__init__.py"), "")
	writeFile(t, filepath.Join(dir, "trainer", "task.py"), "")
	writeFile(t, filepath.Join(dir, "trainer", "util", "__init__.py"), "")

	out, err := run(t, "show", "-o", "json")
	require.NoError(t, err)

	var d core.Descriptor
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, "trainer", d.Name)
	assert.Equal(t, core.Trainer().InstallRequires, d.InstallRequires)
	assert.True(t, d.IncludePackageData)
	assert.Equal(t, []string{"trainer", "trainer.util"}, d.Packages)
}

func TestShowYAMLFromDescriptorFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, "scorer.yaml"), `
name: scorer
version: "2.0"
description: Batch scoring job
install_requires:
  - requests
`)

	out, err := run(t, "show", "--descriptor", "scorer.yaml", "--output", "yaml")
	require.NoError(t, err)

	var d core.Descriptor
	require.NoError(t, yaml.Unmarshal([]byte(out), &d))
	assert.Equal(t, "scorer", d.Name)
	assert.Equal(t, []string{"requests"}, d.InstallRequires)
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name       string
		descriptor string
		wantErr    bool
		wantOut    []string
	}{
		{
			name:    "trainer",
			wantOut: []string{"trainer 0.1: ok"},
		},
		{
			name: "invalid",
			descriptor: `
name: broken
version: ""
description: x
install_requires:
  - numpy>=1.0
  - Pandas_GBQ
  - pandas-gbq==0.11.0
`,
			wantErr: true,
			wantOut: []string{"3 problem(s)", "version is empty", "numpy>=1.0", "duplicates"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)
			args := []string{"check"}
			if tt.descriptor != "" {
				writeFile(t, filepath.Join(dir, "d.yaml"), tt.descriptor)
				args = append(args, "-d", "d.yaml")
			}

			out, err := run(t, args...)
			if tt.wantErr {
				var ve *core.ValidationError
				require.ErrorAs(t, err, &ve)
			} else {
				require.NoError(t, err)
			}
			for _, want := range tt.wantOut {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestCheckJSON(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := run(t, "check", "-o", "json")
	require.NoError(t, err)

	var res checkResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Valid)
	assert.Empty(t, res.Problems)
}

func TestPackages(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, "trainer", "__init__.py"), "")
	writeFile(t, filepath.Join(dir, "trainer", "task.py"), "")
	writeFile(t, filepath.Join(dir, "trainer", "assets", "vocab.txt"), "a\nb\n")
	writeFile(t, filepath.Join(dir, "tests", "__init__.py"), "")

	out, err := run(t, "packages", "-o", "json", "--exclude", "tests")
	require.NoError(t, err)

	var res packagesResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []string{"trainer"}, res.Packages)
	assert.Equal(t, map[string][]string{"trainer": {"assets/vocab.txt"}}, res.PackageData)
}

func TestPackagesEmpty(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := run(t, "packages")
	require.NoError(t, err)
	assert.Contains(t, out, "no packages found")
}

func TestRender(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := run(t, "render", "setup.py")
	require.NoError(t, err)
	assert.Contains(t, out, "from setuptools import find_packages")
	assert.Contains(t, out, "'google-cloud-bigquery==1.17.0'")

	out, err = run(t, "render", "requirements")
	require.NoError(t, err)
	assert.Equal(t, "cloudml-hypertune\ngoogle-cloud-bigquery==1.17.0\npandas-gbq==0.11.0\n", out)

	_, err = run(t, "render", "wheel")
	assert.Error(t, err)

	_, err = run(t, "render")
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	t.Chdir(t.TempDir())
	srv := fakePyPI(t)

	out, err := run(t, "verify", "--registry-url", srv.URL, "-o", "json")
	require.NoError(t, err)

	var views []resolutionView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 3)

	assert.Equal(t, "cloudml-hypertune", views[0].Requirement)
	assert.Equal(t, core.StatusResolved, views[0].Status)
	assert.Equal(t, "0.1.0.dev6", views[0].Resolved)

	assert.Equal(t, core.StatusOK, views[1].Status)
	assert.Equal(t, "1.17.0", views[1].Resolved)
	assert.Equal(t, "pkg:pypi/google-cloud-bigquery@1.17.0", views[1].PURL)

	assert.Equal(t, core.StatusOK, views[2].Status)
	assert.NotEmpty(t, views[2].Integrity)
}

func TestVerifyFailures(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	srv := fakePyPI(t)
	writeFile(t, filepath.Join(dir, "d.yaml"), `
name: scorer
version: "1"
description: x
install_requires:
  - pandas-gbq==0.10.0
  - google-cloud-bigquery==9.9.9
  - not-on-pypi
`)

	out, err := run(t, "verify", "-d", "d.yaml", "--registry-url", srv.URL, "--max-retries", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 of 3 requirements failed")
	assert.Contains(t, out, string(core.StatusYankedPin))
	assert.Contains(t, out, string(core.StatusMissingVersion))
	assert.Contains(t, out, string(core.StatusMissingPackage))
}

func TestDownload(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	srv := fakePyPI(t)
	dest := filepath.Join(dir, "wheelhouse")

	out, err := run(t, "download", "--registry-url", srv.URL, "--dest", dest, "-o", "json")
	require.NoError(t, err)

	var views []downloadView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 3)

	want := map[string]string{
		"cloudml-hypertune-0.1.0.dev6.tar.gz": "hypertune dev6",
		"google-cloud-bigquery-1.17.0.tar.gz": "bigquery 1.17.0",
		"pandas-gbq-0.11.0.tar.gz":            "pandas-gbq 0.11.0",
	}
	for _, v := range views {
		data, err := os.ReadFile(v.Path)
		require.NoError(t, err)
		assert.Equal(t, want[filepath.Base(v.Path)], string(data))
	}
}

func TestDownloadTimeoutApplies(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	srv := fakePyPI(t)

	_, err := run(t, "download", "--registry-url", srv.URL, "--dest", "out", "--download-timeout", "1ns")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching")
	assert.NoFileExists(t, filepath.Join(dir, "out", "pandas-gbq-0.11.0.tar.gz"))
}

func TestDownloadStopsOnUnresolved(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	srv := fakePyPI(t)
	writeFile(t, filepath.Join(dir, "d.yaml"), `
name: scorer
version: "1"
description: x
install_requires:
  - pandas-gbq==7.0.0
`)

	_, err := run(t, "download", "-d", "d.yaml", "--registry-url", srv.URL, "--dest", "out")
	require.Error(t, err)
	assert.NoDirExists(t, filepath.Join(dir, "out"))
}

func TestInvalidOutputFlag(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := run(t, "show", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output")
}

func TestEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, "src", "trainer", "__init__.py"), "")
	t.Setenv("PKGDESC_ROOT", "src")

	out, err := run(t, "packages", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"trainer"`)
}
