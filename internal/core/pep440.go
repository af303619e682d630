package core

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var pep440Regex = regexp.MustCompile(`^v?(?:(\d+)!)?(\d+(?:\.\d+)*)` +
	`(?:[-_.]?(a|alpha|b|beta|c|rc|pre|preview)[-_.]?(\d*))?` +
	`(?:-(\d+)|[-_.]?(post|rev|r)[-_.]?(\d*))?` +
	`(?:[-_.]?(dev)[-_.]?(\d*))?` +
	`(?:\+[a-z0-9]+(?:[-_.][a-z0-9]+)*)?$`)

// Pre-release phases in PEP 440 order. noPre sorts after every phase and
// devOnly before, so 1.0.dev1 < 1.0a1 < 1.0.
const (
	devOnly = -1
	phaseA  = 0
	phaseB  = 1
	phaseRC = 2
	noPre   = 3
)

// pep440 is a parsed PEP 440 public version. Local labels are ignored.
type pep440 struct {
	epoch   int
	release []int
	phase   int
	pre     int
	post    int // -1 when absent
	dev     int // math.MaxInt when absent
}

func parsePEP440(s string) (pep440, bool) {
	m := pep440Regex.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return pep440{}, false
	}

	v := pep440{phase: noPre, post: -1, dev: math.MaxInt}
	v.epoch = atoi(m[1])
	for _, part := range strings.Split(m[2], ".") {
		v.release = append(v.release, atoi(part))
	}

	switch m[3] {
	case "a", "alpha":
		v.phase = phaseA
	case "b", "beta":
		v.phase = phaseB
	case "c", "rc", "pre", "preview":
		v.phase = phaseRC
	}
	v.pre = atoi(m[4])

	switch {
	case m[5] != "":
		v.post = atoi(m[5])
	case m[6] != "":
		v.post = atoi(m[7])
	}

	if m[8] != "" {
		v.dev = atoi(m[9])
		if v.phase == noPre && v.post < 0 {
			v.phase = devOnly
		}
	}
	return v, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// prerelease reports whether v is an alpha, beta, release candidate or
// development release.
func (v pep440) prerelease() bool {
	return v.phase != noPre || v.dev != math.MaxInt
}

// comparePEP440 returns -1, 0 or +1 as a is older than, equal to or newer than b.
func comparePEP440(a, b pep440) int {
	if c := cmpInt(a.epoch, b.epoch); c != 0 {
		return c
	}
	for i := range max(len(a.release), len(b.release)) {
		if c := cmpInt(segment(a.release, i), segment(b.release, i)); c != 0 {
			return c
		}
	}
	for _, pair := range [][2]int{{a.phase, b.phase}, {a.pre, b.pre}, {a.post, b.post}, {a.dev, b.dev}} {
		if c := cmpInt(pair[0], pair[1]); c != 0 {
			return c
		}
	}
	return 0
}

func segment(release []int, i int) int {
	if i < len(release) {
		return release[i]
	}
	return 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
