// Package discover finds the Python packages and package data files that a
// descriptor ships, following setuptools' find_packages rules.
package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

// DefaultExcludes are always excluded, as setuptools does.
var DefaultExcludes = []string{"ez_setup", "*__pycache__"}

const initFile = "__init__.py"

// Option configures discovery.
type Option func(*finder)

type finder struct {
	include []string
	exclude []string
}

// Exclude drops packages whose dotted name matches any pattern.
// Sub-packages of an excluded package are still searched, so "tests" does
// not exclude "tests.unit"; use "tests.*" for that.
func Exclude(patterns ...string) Option {
	return func(f *finder) {
		f.exclude = append(f.exclude, patterns...)
	}
}

// Include keeps only packages whose dotted name matches a pattern.
func Include(patterns ...string) Option {
	return func(f *finder) {
		f.include = append(f.include, patterns...)
	}
}

// FindPackages lists the packages below root on disk.
func FindPackages(root string, opts ...Option) ([]string, error) {
	return FindPackagesFS(os.DirFS(root), opts...)
}

// FindPackagesFS lists the dotted names of every package in fsys, sorted.
// A directory is a package when it holds an __init__.py and its parent is
// the root or itself a package. Directory names containing "." are skipped.
func FindPackagesFS(fsys fs.FS, opts ...Option) ([]string, error) {
	f := &finder{include: []string{"*"}, exclude: append([]string(nil), DefaultExcludes...)}
	for _, opt := range opts {
		opt(f)
	}
	for _, p := range append(f.include, f.exclude...) {
		if _, err := path.Match(p, ""); err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
	}

	var pkgs []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || p == "." {
			return nil
		}
		if strings.Contains(d.Name(), ".") || !isPackageDir(fsys, p) {
			return fs.SkipDir
		}

		name := dotted(p)
		if f.matches(name) {
			pkgs = append(pkgs, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("finding packages: %w", err)
	}

	sort.Strings(pkgs)
	return pkgs, nil
}

func (f *finder) matches(name string) bool {
	return matchAny(f.include, name) && !matchAny(f.exclude, name)
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}
	return false
}

func isPackageDir(fsys fs.FS, dir string) bool {
	info, err := fs.Stat(fsys, path.Join(dir, initFile))
	return err == nil && !info.IsDir()
}

func dotted(p string) string {
	return strings.ReplaceAll(p, "/", ".")
}

func slashed(pkg string) string {
	return strings.ReplaceAll(pkg, ".", "/")
}
