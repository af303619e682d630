package core

import (
	"context"
	"sort"
)

// FetchLatestVersion returns the highest non-yanked/deprecated release,
// preferring final releases over pre-releases.
// Returns nil if no valid versions exist.
func FetchLatestVersion(ctx context.Context, reg Registry, name string) (*Version, error) {
	versions, err := reg.FetchVersions(ctx, name)
	if err != nil {
		return nil, err
	}
	return latest(versions), nil
}

type candidate struct {
	v      Version
	parsed pep440
	ok     bool
}

// latest picks the highest installable release by PEP 440 ordering.
// Pre-releases only count when nothing else is available. Numbers that do
// not parse rank below those that do, and upload time breaks ties.
func latest(versions []Version) *Version {
	var final, pre []candidate
	for _, v := range versions {
		if v.Status != StatusNone {
			continue
		}
		parsed, ok := parsePEP440(v.Number)
		c := candidate{v: v, parsed: parsed, ok: ok}
		if ok && parsed.prerelease() {
			pre = append(pre, c)
		} else {
			final = append(final, c)
		}
	}

	valid := final
	if len(valid) == 0 {
		valid = pre
	}
	if len(valid) == 0 {
		return nil
	}

	// Stable so registry order decides when nothing else does.
	sort.SliceStable(valid, func(i, j int) bool {
		return newer(valid[i], valid[j])
	})
	return &valid[0].v
}

func newer(a, b candidate) bool {
	if a.ok && b.ok {
		if c := comparePEP440(a.parsed, b.parsed); c != 0 {
			return c > 0
		}
	} else if a.ok != b.ok {
		return a.ok
	}
	return a.v.PublishedAt.After(b.v.PublishedAt)
}

// FindVersion returns the metadata of one version of a package.
func FindVersion(ctx context.Context, reg Registry, name, version string) (*Version, error) {
	versions, err := reg.FetchVersions(ctx, name)
	if err != nil {
		return nil, err
	}
	if v := findVersion(versions, version); v != nil {
		return v, nil
	}
	return nil, &NotFoundError{Ecosystem: reg.Ecosystem(), Name: name, Version: version}
}

func findVersion(versions []Version, number string) *Version {
	for i := range versions {
		if versions[i].Number == number {
			return &versions[i]
		}
	}
	return nil
}
