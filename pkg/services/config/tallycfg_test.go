package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCfg(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".tallycfg")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()

	t.Run("profiles and settings", func(t *testing.T) {
		registry, err := NewRegistry(writeCfg(t, `
[strict]
tolerance = 0.001
yellow_band = 5

[loose]
tolerance = 1
`))
		require.NoError(t, err)

		profiles, err := registry.GetProfiles(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"strict", "loose"}, profiles)

		strict, err := registry.GetSettings(ctx, "strict")
		require.NoError(t, err)
		assert.Equal(t, 0.001, strict.Tolerance)
		assert.Equal(t, 5.0, strict.YellowBandFactor)

		// Omitted keys fall back to defaults.
		loose, err := registry.GetSettings(ctx, "loose")
		require.NoError(t, err)
		assert.Equal(t, 1.0, loose.Tolerance)
		assert.Equal(t, 1.0, loose.YellowBandFactor)
	})

	t.Run("unknown profile", func(t *testing.T) {
		registry, err := NewRegistry(writeCfg(t, "[strict]\ntolerance = 0.001\n"))
		require.NoError(t, err)

		_, err = registry.GetSettings(ctx, "missing")
		assert.ErrorContains(t, err, "not found")
	})

	t.Run("invalid tolerance", func(t *testing.T) {
		registry, err := NewRegistry(writeCfg(t, "[bad]\ntolerance = not-a-number\n"))
		require.NoError(t, err)

		_, err = registry.GetSettings(ctx, "bad")
		assert.ErrorContains(t, err, "invalid tolerance")
	})
}
