package wxss

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"git.fractalqb.de/fractalqb/mpmk/mpmkore"
)

// SassCmd compiles SCSS with the dart-sass command line tool reading the
// source from stdin.
type SassCmd struct {
	Exe string
	// Dir is the OS directory project relative paths are resolved against.
	Dir       string
	LoadPaths []string
	Style     string
}

var _ Compiler = SassCmd{}

func (sc SassCmd) Compile(ctx context.Context, env *mpmkore.Env, path string, src []byte) ([]byte, error) {
	args := []string{"--stdin", "--no-source-map", "--load-path=" + filepath.Join(sc.Dir, filepath.Dir(filepath.FromSlash(path)))}
	for _, lp := range sc.LoadPaths {
		args = append(args, "--load-path="+filepath.Join(sc.Dir, filepath.FromSlash(lp)))
	}
	if sc.Style != "" {
		args = append(args, "--style="+sc.Style)
	}
	out, stderr, err := runFilter(ctx, env, sc.exe(), args, nil, src)
	if err != nil {
		msg := strings.TrimSpace(stderr)
		if msg == "" {
			msg = err.Error()
		}
		return nil, &CompileError{Path: path, Msg: msg, Err: err}
	}
	return out, nil
}

func (sc SassCmd) exe() string {
	if sc.Exe == "" {
		return "sass"
	}
	return sc.Exe
}

// PostCSSCmd adds vendor prefixes with postcss-cli and the autoprefixer
// plugin. The targets are passed in the BROWSERSLIST environment variable.
type PostCSSCmd struct {
	Exe string
}

var _ Prefixer = PostCSSCmd{}

func (pc PostCSSCmd) Prefix(ctx context.Context, env *mpmkore.Env, css []byte, targets []string) ([]byte, error) {
	exe := pc.Exe
	if exe == "" {
		exe = "postcss"
	}
	xenv := []string{"BROWSERSLIST=" + strings.Join(targets, ", ")}
	out, stderr, err := runFilter(ctx, env, exe, []string{"--use", "autoprefixer", "--no-map"}, xenv, css)
	if err != nil {
		if msg := strings.TrimSpace(stderr); msg != "" {
			return nil, fmt.Errorf("%s: %w", msg, err)
		}
		return nil, err
	}
	return out, nil
}

// runFilter runs exe with in on stdin and returns stdout. Stderr is returned
// and copied to env.Err with the command name as line prefix.
func runFilter(ctx context.Context, env *mpmkore.Env, exe string, args, tags []string, in []byte) ([]byte, string, error) {
	log := env.Logger()
	if len(tags) > 0 {
		env = env.With(tags...)
	}
	xenv, err := env.ExecEnv()
	if err != nil {
		log.Warn(err.Error(), slog.String("cmd", exe))
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Env = xenv
	cmd.Stdin = bytes.NewReader(in)
	cmd.Stdout = &stdout
	if env.Err != nil {
		cmd.Stderr = io.MultiWriter(&stderr,
			&mpmkore.PrefixWriter{W: env.Err, Prefix: filepath.Base(exe) + ": "},
		)
	} else {
		cmd.Stderr = &stderr
	}
	log.Debug("exec `cmd`", slog.String("cmd", cmd.String()))
	if err = cmd.Run(); err != nil {
		log.Error("failed `cmd` with `error`",
			slog.String("cmd", cmd.String()),
			slog.String("error", err.Error()),
		)
		var xerr *exec.Error
		if errors.As(err, &xerr) {
			return nil, stderr.String(), fmt.Errorf("%s: %w", exe, xerr.Err)
		}
		return nil, stderr.String(), err
	}
	return stdout.Bytes(), stderr.String(), nil
}
