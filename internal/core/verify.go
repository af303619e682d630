package core

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 15

// Status is the outcome of resolving one requirement.
type Status string

const (
	StatusOK             Status = "ok"
	StatusResolved       Status = "resolved"
	StatusYankedPin      Status = "yanked"
	StatusMissingVersion Status = "missing-version"
	StatusMissingPackage Status = "missing-package"
	StatusUnresolved     Status = "unresolved"
	StatusError          Status = "error"
)

// Resolution records how a single requirement resolved against a registry.
type Resolution struct {
	Requirement Requirement
	Resolved    string // version that would be installed
	Integrity   string
	PURL        string
	Status      Status
	Err         error
}

// Report is the ordered result of VerifyRequirements.
type Report struct {
	Resolutions []Resolution
}

// OK reports whether every requirement resolved to an installable version.
func (r *Report) OK() bool {
	for _, res := range r.Resolutions {
		switch res.Status {
		case StatusOK, StatusResolved:
		default:
			return false
		}
	}
	return true
}

// Failed returns the resolutions that did not succeed.
func (r *Report) Failed() []Resolution {
	var out []Resolution
	for _, res := range r.Resolutions {
		if res.Status != StatusOK && res.Status != StatusResolved {
			out = append(out, res)
		}
	}
	return out
}

// VerifyOption configures VerifyRequirements.
type VerifyOption func(*verifyConfig)

type verifyConfig struct {
	concurrency int
	logger      *slog.Logger
}

// WithConcurrency bounds the number of concurrent registry lookups.
func WithConcurrency(n int) VerifyOption {
	return func(c *verifyConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithLogger sets the logger used to report each resolution.
func WithLogger(l *slog.Logger) VerifyOption {
	return func(c *verifyConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// VerifyRequirements resolves every requirement against reg in parallel.
// Pinned requirements must exist and not be yanked; bare requirements
// resolve to the latest installable version. Per-requirement failures are
// recorded in the report; only context cancellation is returned as an error.
func VerifyRequirements(ctx context.Context, reg Registry, reqs []Requirement, opts ...VerifyOption) (*Report, error) {
	cfg := verifyConfig{
		concurrency: defaultConcurrency,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	report := &Report{Resolutions: make([]Resolution, len(reqs))}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.concurrency)

	for i, req := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := resolve(gctx, reg, req)
			report.Resolutions[i] = res
			cfg.logger.Debug("resolved requirement",
				"requirement", req.String(),
				"status", string(res.Status),
				"version", res.Resolved)
			if res.Err != nil && errors.Is(res.Err, context.Canceled) {
				return res.Err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

func resolve(ctx context.Context, reg Registry, req Requirement) Resolution {
	res := Resolution{Requirement: req, PURL: req.PURL()}

	versions, err := reg.FetchVersions(ctx, req.Name)
	if err != nil {
		res.Err = err
		if errors.Is(err, ErrNotFound) {
			res.Status = StatusMissingPackage
		} else {
			res.Status = StatusError
		}
		return res
	}

	if !req.Pinned {
		v := latest(versions)
		if v == nil {
			res.Status = StatusUnresolved
			return res
		}
		res.Status = StatusResolved
		res.Resolved = v.Number
		res.Integrity = v.Integrity
		return res
	}

	v := findVersion(versions, req.Version)
	switch {
	case v == nil:
		res.Status = StatusMissingVersion
		res.Err = &NotFoundError{Ecosystem: reg.Ecosystem(), Name: req.Name, Version: req.Version}
	case v.Status == StatusYanked:
		res.Status = StatusYankedPin
		res.Resolved = v.Number
	default:
		res.Status = StatusOK
		res.Resolved = v.Number
		res.Integrity = v.Integrity
	}
	return res
}
