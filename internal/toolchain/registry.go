// Package toolchain implements the Tool Registry & Workspace (C4): external
// tool discovery/versioning, a builder for running them with a hard
// timeout, and the scoped-temp-directory workspace actions stage work in.
package toolchain

import (
	"context"
	"os/exec"
	"regexp"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/sceneforged/sceneforged/internal/apperr"
)

// ToolConfig is one entry in the registry: where the binary lives, the
// minimum acceptable version (empty means any), and its hard execution
// timeout.
type ToolConfig struct {
	Path          string
	MinVersionReq string
	Timeout       time.Duration
}

// Discovered records what `discover` found for one tool.
type Discovered struct {
	Config    ToolConfig
	Version   string
	Available bool
}

var semverPattern = regexp.MustCompile(`\d+\.\d+(\.\d+)?`)

// Registry holds the configured tools and, after Discover runs, their
// resolved availability. A rate.Limiter (token bucket) throttles the rate at
// which external tool invocations start so a burst of queued jobs can't
// fork-bomb the host; it does not cap how many run at once.
type Registry struct {
	mu         sync.RWMutex
	tools      map[string]ToolConfig
	discovered map[string]Discovered
	limiter    *rate.Limiter
}

// NewRegistry builds a registry with the given tool configs and a limiter
// allowing bursts of up to burst invocation starts, refilling at
// ratePerSecond.
func NewRegistry(tools map[string]ToolConfig, ratePerSecond float64, burst int) *Registry {
	return &Registry{
		tools:      tools,
		discovered: make(map[string]Discovered, len(tools)),
		limiter:    rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

// Discover runs `<tool> --version` (or -version, tried as a fallback) for
// every configured tool and records whether it's usable.
func (r *Registry) Discover(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, cfg := range r.tools {
		version, ok := probeVersion(ctx, cfg.Path)
		available := ok
		if available && cfg.MinVersionReq != "" && version != "" {
			available = versionAtLeast(version, cfg.MinVersionReq)
		}
		r.discovered[name] = Discovered{Config: cfg, Version: version, Available: available}
	}
}

func probeVersion(ctx context.Context, path string) (string, bool) {
	for _, flag := range []string{"--version", "-version"} {
		cmd := exec.CommandContext(ctx, path, flag)
		out, err := cmd.CombinedOutput()
		if err != nil && len(out) == 0 {
			continue
		}
		if m := semverPattern.FindString(string(out)); m != "" {
			return m, true
		}
		if err == nil {
			return "", true // ran fine, just no parseable version string
		}
	}
	return "", false
}

// versionAtLeast compares dotted version strings numerically, component by
// component; a missing trailing component is treated as 0.
func versionAtLeast(have, want string) bool {
	haveParts := splitVersion(have)
	wantParts := splitVersion(want)
	for i := 0; i < len(wantParts); i++ {
		var h int
		if i < len(haveParts) {
			h = haveParts[i]
		}
		if h != wantParts[i] {
			return h > wantParts[i]
		}
	}
	return true
}

func splitVersion(v string) []int {
	var out []int
	n := 0
	has := false
	for _, c := range v {
		if c >= '0' && c <= '9' {
			n = n*10 + int(c-'0')
			has = true
			continue
		}
		if c == '.' {
			out = append(out, n)
			n = 0
			has = false
			continue
		}
	}
	if has || len(out) == 0 {
		out = append(out, n)
	}
	return out
}

// Require returns the discovered config for name, or ToolMissing if it was
// never discovered as available (spec §4.4).
func (r *Registry) Require(name string) (ToolConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.discovered[name]
	if !ok || !d.Available {
		return ToolConfig{}, apperr.Tool(name, "Missing", "tool not found or below minimum version")
	}
	return d.Config, nil
}

// Wait blocks until the rate limiter admits one more external invocation.
func (r *Registry) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
