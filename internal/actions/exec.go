package actions

import (
	"strings"
	"time"

	"github.com/sceneforged/sceneforged/internal/apperr"
	"github.com/sceneforged/sceneforged/internal/toolchain"
)

// allowedTokens is the allow-list of interpolation tokens Exec's arguments
// may reference, per spec §4.5.
var allowedTokens = map[string]bool{"{input}": true, "{output}": true, "{temp_dir}": true}

// Exec is the escape hatch invoking an arbitrary registered tool. Arguments
// are subject to allow-list validation of interpolated tokens only.
type Exec struct {
	noopRollback
	Tool    string
	Args    []string
	Timeout time.Duration
}

func (Exec) Name() string         { return "exec" }
func (Exec) Parallelizable() bool { return false }
func (Exec) Weight() int          { return 1 }

func (e Exec) Validate(ctx *Ctx) error {
	for _, a := range e.Args {
		for _, tok := range extractTokens(a) {
			if !allowedTokens[tok] {
				return apperr.Validation("args", "disallowed interpolation token "+tok)
			}
		}
	}
	if _, err := ctx.Tools.Require(e.Tool); err != nil {
		return err
	}
	return nil
}

func (e Exec) Execute(ctx *Ctx) error {
	ctx.report(0, "exec: starting "+e.Tool)
	cfg, err := ctx.Tools.Require(e.Tool)
	if err != nil {
		return err
	}
	if err := ctx.Tools.Wait(ctx); err != nil {
		return err
	}

	resolved := make([]string, len(e.Args))
	for i, a := range e.Args {
		resolved[i] = interpolate(a, ctx)
	}

	timeout := e.Timeout
	if timeout == 0 {
		timeout = 10 * time.Minute
	}
	_, err = toolchain.NewCommand(e.Tool, cfg.Path, timeout).WithArgs(resolved...).Execute(ctx)
	if err != nil {
		return err
	}
	ctx.report(1, "exec: complete")
	return nil
}

func interpolate(arg string, ctx *Ctx) string {
	arg = strings.ReplaceAll(arg, "{input}", ctx.Workspace.InputPath())
	arg = strings.ReplaceAll(arg, "{output}", ctx.Workspace.OutputPath())
	arg = strings.ReplaceAll(arg, "{temp_dir}", ctx.Workspace.TempDir())
	return arg
}

func extractTokens(s string) []string {
	var out []string
	for {
		start := strings.IndexByte(s, '{')
		if start < 0 {
			return out
		}
		end := strings.IndexByte(s[start:], '}')
		if end < 0 {
			return out
		}
		out = append(out, s[start:start+end+1])
		s = s[start+end+1:]
	}
}
