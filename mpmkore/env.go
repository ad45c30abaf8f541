package mpmkore

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
)

// Env is what operations see of the process: standard streams, logger,
// notifier and the variables external tools like sass are started with.
type Env struct {
	In       io.Reader
	Out, Err io.Writer
	Notify   Notifier
	Log      *slog.Logger

	vars map[string]string
}

// DefaultEnv uses the standard streams, the default logger and the
// variables of the current process.
func DefaultEnv(tr *Trace) *Env {
	env := &Env{
		In:   os.Stdin,
		Out:  os.Stdout,
		Err:  os.Stderr,
		Log:  slog.Default(),
		vars: make(map[string]string),
	}
	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		if k == "" {
			if tr != nil {
				tr.Warn("ignoring process `env`", `env`, kv)
			}
			continue
		}
		env.vars[k] = v
	}
	return env
}

func (e *Env) Logger() *slog.Logger {
	if e.Log == nil {
		return slog.Default()
	}
	return e.Log
}

// With returns a copy of e with the additional variables vars, given as
// KEY=value. e itself is not changed.
func (e *Env) With(vars ...string) *Env {
	res := *e
	res.vars = maps.Clone(e.vars)
	if res.vars == nil {
		res.vars = make(map[string]string, len(vars))
	}
	for _, kv := range vars {
		k, v, _ := strings.Cut(kv, "=")
		res.vars[k] = v
	}
	return &res
}

// EnvKeyError lists variable names that cannot be passed to a command.
type EnvKeyError []string

func (e EnvKeyError) Error() string {
	return fmt.Sprintf("illegal exec env keys: %s", strings.Join(e, ", "))
}

func (EnvKeyError) Is(target error) bool {
	_, ok := target.(EnvKeyError)
	return ok
}

// ExecEnv returns the variables sorted by name in the KEY=value form of
// [os/exec.Cmd.Env]. Variables with illegal names are left out and reported
// in an EnvKeyError.
func (e *Env) ExecEnv() ([]string, error) {
	var (
		xenv []string
		bad  EnvKeyError
	)
	for _, k := range slices.Sorted(maps.Keys(e.vars)) {
		switch {
		case k == "":
			bad = append(bad, `""`)
		case strings.ContainsRune(k, '='):
			bad = append(bad, k)
		default:
			xenv = append(xenv, k+"="+e.vars[k])
		}
	}
	if len(bad) > 0 {
		return xenv, bad
	}
	return xenv, nil
}
