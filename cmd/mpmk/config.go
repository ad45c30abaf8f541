package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"git.fractalqb.de/fractalqb/mpmk"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configName = "mpmk"

// loadConfig reads the project configuration from defaults, the optional
// config file, MPMK_* environment variables and flags, in increasing
// precedence.
func loadConfig(dir, file string, flags *pflag.FlagSet) (cfg mpmk.Config, err error) {
	v := viper.New()
	setDefaults(v, mpmk.DefaultConfig())

	v.SetEnvPrefix("MPMK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	for key, flag := range map[string]string{
		"dry_run":      "dry-run",
		"max_parallel": "jobs",
	} {
		if f := flags.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return cfg, err
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if used := v.ConfigFileUsed(); used != "" {
		cfg.Src = relTo(used, cfg.Src, dir)
		cfg.Dist = relTo(used, cfg.Dist, dir)
	}
	return cfg, cfg.Validate()
}

func setDefaults(v *viper.Viper, def mpmk.Config) {
	v.SetDefault("src", def.Src)
	v.SetDefault("dist", def.Dist)
	v.SetDefault("direct_import", def.DirectImport)
	v.SetDefault("targets", def.Targets)
	v.SetDefault("sass", def.Sass)
	v.SetDefault("postcss", def.PostCSS)
	v.SetDefault("jpeg_quality", def.JPEGQuality)
	v.SetDefault("max_parallel", def.MaxParallel)
	v.SetDefault("debounce", def.Debounce)
	v.SetDefault("notify", def.Notify)
	v.SetDefault("dry_run", def.DryRun)
	v.SetDefault("env.dev", def.Env.Dev)
	v.SetDefault("env.test", def.Env.Test)
	v.SetDefault("env.prod", def.Env.Prod)
}

// relTo makes p, given relative to the config file, relative to the project
// directory dir.
func relTo(cfgFile, p, dir string) string {
	if filepath.IsAbs(p) {
		return p
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return p
	}
	absCfg, err := filepath.Abs(filepath.Dir(cfgFile))
	if err != nil || absCfg == absDir {
		return p
	}
	rel, err := filepath.Rel(absDir, filepath.Join(absCfg, p))
	if err != nil {
		return p
	}
	return filepath.ToSlash(rel)
}
