package environment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RecognisedValues(t *testing.T) {
	for _, want := range All() {
		got, err := Parse(string(want))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestParse_RejectsUnknownValues(t *testing.T) {
	for _, raw := range []string{"", "staging2", "Production", "prod", " local"} {
		_, err := Parse(raw)
		require.Error(t, err, raw)
		assert.ErrorIs(t, err, ErrUnknownEnvironment)
		assert.True(t, IsUnknownEnvironmentError(err))
	}
}

func TestLoadConfig_ReadsAppEnv(t *testing.T) {
	t.Setenv("APP_ENV", "testing")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	env, err := cfg.Environment()
	require.NoError(t, err)
	assert.Equal(t, Testing, env)
}

func TestNewFromConfig_InvalidValueFails(t *testing.T) {
	_, err := NewFromConfig(Config{AppEnv: "qa"})
	assert.ErrorIs(t, err, ErrUnknownEnvironment)
}
