// Package checkup is the connectivity self-test: it probes each external
// collaborator the guide depends on and reports a per-component status,
// so a misbehaving deployment can be diagnosed without reading logs.
package checkup

import (
	"context"
	"fmt"
	"strings"

	"github.com/aseeltv/channelguide/internal/auth"
	"github.com/aseeltv/channelguide/internal/cache"
	"github.com/aseeltv/channelguide/internal/store"
)

// Component keys in a Report.
const (
	ComponentStore      = "store"
	ComponentStoreWrite = "store_write"
	ComponentCache      = "cache"
	ComponentAuth       = "auth"
)

// Status classifies a check outcome.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// Result is one component's outcome.
type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// Report maps component keys to results.
type Report map[string]Result

// Healthy reports whether no component errored. Warnings (degraded but
// functional modes, like a missing remote store) do not fail a report.
func (r Report) Healthy() bool {
	for _, res := range r {
		if res.Status == StatusError {
			return false
		}
	}
	return true
}

// Checker probes the guide's collaborators.
type Checker struct {
	store    store.Store   // nil when the remote store is not configured
	cache    cache.Cache   // nil when no shared cache is configured
	verifier auth.Verifier // nil when admin login is disabled
}

// New builds a Checker; every collaborator may be nil.
func New(st store.Store, c cache.Cache, v auth.Verifier) *Checker {
	return &Checker{store: st, cache: c, verifier: v}
}

// CheckAll runs every check and assembles the report.
func (c *Checker) CheckAll(ctx context.Context) Report {
	r := Report{
		ComponentStore: c.CheckStore(ctx),
		ComponentCache: c.CheckCache(ctx),
		ComponentAuth:  c.CheckAuth(),
	}
	if r[ComponentStore].Status == StatusOK {
		r[ComponentStoreWrite] = c.CheckStoreWrite(ctx)
	} else {
		r[ComponentStoreWrite] = Result{Status: StatusSkipped, Message: "remote store not reachable"}
	}
	return r
}

// CheckStore verifies the remote store answers at all.
func (c *Checker) CheckStore(ctx context.Context) Result {
	if c.store == nil {
		return Result{Status: StatusWarning, Message: "remote store not configured; serving cached or default data"}
	}
	if err := c.store.Ping(ctx); err != nil {
		return Result{Status: StatusError, Message: categorize(err)}
	}
	return Result{Status: StatusOK, Message: "remote store reachable"}
}

// CheckStoreWrite verifies write access with a probe-row roundtrip.
func (c *Checker) CheckStoreWrite(ctx context.Context) Result {
	if c.store == nil {
		return Result{Status: StatusSkipped, Message: "remote store not configured"}
	}
	if err := c.store.ProbeWrite(ctx); err != nil {
		return Result{Status: StatusError, Message: categorize(err)}
	}
	return Result{Status: StatusOK, Message: "probe write/read/delete roundtrip succeeded"}
}

// CheckCache verifies the cache mirror with a set/get roundtrip.
func (c *Checker) CheckCache(ctx context.Context) Result {
	if c.cache == nil {
		return Result{Status: StatusWarning, Message: "shared cache not configured; an in-process mirror is used at runtime"}
	}
	if err := c.cache.Ping(ctx); err != nil {
		return Result{Status: StatusError, Message: fmt.Sprintf("ping: %v", err)}
	}
	const probeKey = "guide:checkup:probe"
	if err := c.cache.Set(ctx, probeKey, "ok"); err != nil {
		return Result{Status: StatusError, Message: fmt.Sprintf("set: %v", err)}
	}
	v, err := c.cache.Get(ctx, probeKey)
	if err != nil || v != "ok" {
		return Result{Status: StatusError, Message: fmt.Sprintf("get: %v (value %q)", err, v)}
	}
	_ = c.cache.Del(ctx, probeKey)
	return Result{Status: StatusOK, Message: "cache roundtrip succeeded"}
}

// CheckAuth reports whether a credential verifier is installed.
func (c *Checker) CheckAuth() Result {
	if c.verifier == nil {
		return Result{Status: StatusWarning, Message: "no credential verifier configured; admin login disabled"}
	}
	return Result{Status: StatusOK, Message: "credential verifier configured"}
}

// categorize adds a hint for the usual failure classes, mirroring what
// an operator would otherwise have to infer from the raw error.
func categorize(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "permission denied"):
		return fmt.Sprintf("permission denied — check database grants: %v", err)
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"):
		return fmt.Sprintf("store unreachable — check network and DSN: %v", err)
	default:
		return msg
	}
}
