package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

// DataFile is a non-code file shipped inside a package.
type DataFile struct {
	Package string // dotted package name
	Path    string // slash-separated, relative to the package directory
}

var codeSuffixes = []string{".py", ".pyc", ".pyo"}

// PackageData lists the data files of the given packages on disk.
func PackageData(root string, packages []string) ([]DataFile, error) {
	return PackageDataFS(os.DirFS(root), packages)
}

// PackageDataFS lists every non-code file that lives in one of packages,
// including files in plain (non-package) subdirectories. Files belonging to
// a nested package are attributed to that package only.
// The result is sorted by package, then path.
func PackageDataFS(fsys fs.FS, packages []string) ([]DataFile, error) {
	isPkg := make(map[string]bool, len(packages))
	for _, p := range packages {
		isPkg[slashed(p)] = true
	}

	var files []DataFile
	for _, pkg := range packages {
		dir := slashed(pkg)
		err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p != dir && (isPkg[p] || d.Name() == "__pycache__") {
					return fs.SkipDir
				}
				return nil
			}
			if isCode(d.Name()) {
				return nil
			}
			files = append(files, DataFile{Package: pkg, Path: strings.TrimPrefix(p, dir+"/")})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("listing data for %s: %w", pkg, err)
		}
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Package != files[j].Package {
			return files[i].Package < files[j].Package
		}
		return files[i].Path < files[j].Path
	})
	return files, nil
}

func isCode(name string) bool {
	ext := path.Ext(name)
	for _, s := range codeSuffixes {
		if ext == s {
			return true
		}
	}
	return false
}
