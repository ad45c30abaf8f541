package mpmk

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the layout and tooling of a mini-program project.
type Config struct {
	Src          string        `mapstructure:"src" validate:"required"`
	Dist         string        `mapstructure:"dist" validate:"required"`
	DirectImport []string      `mapstructure:"direct_import" validate:"dive,required"`
	Targets      []string      `mapstructure:"targets" validate:"min=1,dive,required"`
	Sass         string        `mapstructure:"sass" validate:"required"`
	PostCSS      string        `mapstructure:"postcss"`
	JPEGQuality  int           `mapstructure:"jpeg_quality" validate:"gte=0,lte=100"`
	MaxParallel  int           `mapstructure:"max_parallel" validate:"gte=0"`
	Debounce     time.Duration `mapstructure:"debounce" validate:"gte=0"`
	Notify       bool          `mapstructure:"notify"`
	DryRun       bool          `mapstructure:"dry_run"`
	Env          EnvFiles      `mapstructure:"env"`
}

// EnvFiles names the environment variants below <src>/env.
type EnvFiles struct {
	Dev  string `mapstructure:"dev" validate:"required"`
	Test string `mapstructure:"test" validate:"required"`
	Prod string `mapstructure:"prod" validate:"required"`
}

func DefaultConfig() Config {
	return Config{
		Src:          "src",
		Dist:         "dist",
		DirectImport: []string{"/scss/", "/font/"},
		Targets:      []string{"iOS >= 8", "Android >= 4.1"},
		Sass:         "sass",
		PostCSS:      "postcss",
		Notify:       true,
		Env: EnvFiles{
			Dev:  "dev",
			Test: "tes",
			Prod: "prod",
		},
	}
}

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(validateDirs, Config{})
	return v
}()

// validateDirs keeps clean from removing sources: Dist must be a project sub
// directory that neither contains Src nor lies within it.
func validateDirs(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	src := path.Clean(filepath.ToSlash(cfg.Src))
	dist := path.Clean(filepath.ToSlash(cfg.Dist))
	switch {
	case dist == "." || dist == ".." || strings.HasPrefix(dist, "../") || path.IsAbs(dist):
		sl.ReportError(cfg.Dist, "Dist", "Dist", "projectsubdir", "")
	case src == "." || src == dist ||
		strings.HasPrefix(src, dist+"/") ||
		strings.HasPrefix(dist, src+"/"):
		sl.ReportError(cfg.Dist, "Dist", "Dist", "apartfromsrc", cfg.Src)
	}
}

func (cfg *Config) Validate() error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
