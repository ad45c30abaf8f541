package mpmkore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnv_With(t *testing.T) {
	var e Env
	base := e.With("PATH=/bin", "LANG=C")
	sub := base.With("LANG=de_DE", "BROWSERSLIST=iOS >= 8")

	xenv, err := base.ExecEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"LANG=C", "PATH=/bin"}, xenv)

	xenv, err = sub.ExecEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"BROWSERSLIST=iOS >= 8", "LANG=de_DE", "PATH=/bin"}, xenv)

	xenv, err = e.ExecEnv()
	require.NoError(t, err)
	assert.Empty(t, xenv)
}

func TestEnv_ExecEnv_illegalKey(t *testing.T) {
	var e Env
	xenv, err := e.With("a=b=c", "=x", "OK=1").ExecEnv()
	assert.ErrorIs(t, err, EnvKeyError(nil))
	assert.EqualError(t, err, `illegal exec env keys: ""`)
	assert.Equal(t, []string{"OK=1", "a=b=c"}, xenv)
}

func TestDefaultEnv(t *testing.T) {
	t.Setenv("MPMK_ENV_TEST", "on=1")
	xenv, err := DefaultEnv(nil).ExecEnv()
	require.NoError(t, err)
	assert.Contains(t, xenv, "MPMK_ENV_TEST=on=1")
}
