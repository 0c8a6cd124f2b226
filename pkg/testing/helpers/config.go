package helpers

import (
	"testing"

	"github.com/ZaparooProject/prism-core/pkg/config"
	"github.com/stretchr/testify/require"
)

// NewTestConfig creates a config backed by a file in a temp dir.
func NewTestConfig(t *testing.T) *config.Instance {
	t.Helper()
	cfg, err := config.NewConfig(t.TempDir(), config.BaseDefaults)
	require.NoError(t, err)
	return cfg
}
