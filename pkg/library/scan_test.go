package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		p := filepath.Join(root, filepath.FromSlash(r))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte("MZ"), 0o600))
	}
}

func TestFindExecutables(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	touch(t, root,
		"Celeste/Celeste.exe",
		"Celeste/Celeste.EXE.config",
		"Hades/x64/Hades.EXE",
		"Hades/setup.exe",
		"Hades/unins000.exe",
		"Hollow Knight/hollow_knight.exe",
		"Hollow Knight/UnityCrashHandler64.exe",
		"Hollow Knight/_CommonRedist/DirectX/DXSETUP.exe",
		"Hollow Knight/redist/game_helper.exe",
		"Tools/run.bat",
	)

	got, err := FindExecutables(root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "Celeste", "Celeste.exe"),
		filepath.Join(root, "Hades", "x64", "Hades.EXE"),
		filepath.Join(root, "Hollow Knight", "hollow_knight.exe"),
	}, got)

	got, err = FindExecutables(root, []string{"BAT", " .exe "})
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.Contains(t, got, filepath.Join(root, "Tools", "run.bat"))
}

func TestFindExecutables_Errors(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	_, err := FindExecutables(filepath.Join(root, "missing"), nil)
	require.Error(t, err)

	touch(t, root, "Celeste.exe")
	_, err = FindExecutables(filepath.Join(root, "Celeste.exe"), nil)
	require.ErrorIs(t, err, ErrNotDirectory)

	got, err := FindExecutables(t.TempDir(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUnknownPaths(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestStore(t)
	_, err := s.AddGame(NewGame{Title: "Celeste", ExecutablePath: "/games/Celeste/Celeste.exe"})
	require.NoError(t, err)

	got := s.UnknownPaths([]string{
		"/games/celeste/CELESTE.exe",
		"/games/Hades/Hades.exe",
		"/games/Hades/../Hades/Hades.exe",
		"/games/Hollow Knight/hollow_knight.exe",
	})
	assert.Equal(t, []string{
		"/games/Hades/Hades.exe",
		"/games/Hollow Knight/hollow_knight.exe",
	}, got)
}
