package run

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeLibrary(t *testing.T) string {
	t.Helper()

	lib := filepath.Join(t.TempDir(), LibraryName)
	require.NoError(t, os.WriteFile(lib, []byte("\x7fELF"), 0o600))
	return lib
}

func TestWithPreload(t *testing.T) {
	const lib = "/opt/credguard/libcredguard.so"

	tests := []struct {
		name    string
		environ []string
		want    []string
	}{
		{
			name:    "no preload set",
			environ: []string{"HOME=/root", "PATH=/bin"},
			want:    []string{"HOME=/root", "PATH=/bin", "LD_PRELOAD=" + lib},
		},
		{
			name:    "existing entries kept after ours",
			environ: []string{"LD_PRELOAD=/a.so /b.so", "PATH=/bin"},
			want:    []string{"PATH=/bin", "LD_PRELOAD=" + lib + ":/a.so:/b.so"},
		},
		{
			name:    "already preloaded",
			environ: []string{"LD_PRELOAD=" + lib + ":/a.so"},
			want:    []string{"LD_PRELOAD=" + lib + ":/a.so"},
		},
		{
			name:    "empty preload",
			environ: []string{"LD_PRELOAD="},
			want:    []string{"LD_PRELOAD=" + lib},
		},
		{
			name:    "similar variable untouched",
			environ: []string{"LD_PRELOAD_X=1"},
			want:    []string{"LD_PRELOAD_X=1", "LD_PRELOAD=" + lib},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, withPreload(tt.environ, lib))
		})
	}
}

func TestResolveLibrary(t *testing.T) {
	lib := fakeLibrary(t)

	got, err := resolveLibrary(lib)
	require.NoError(t, err)
	assert.Equal(t, lib, got)

	_, err = resolveLibrary(filepath.Join(t.TempDir(), "missing.so"))
	assert.ErrorIs(t, err, ErrLibrary)

	_, err = resolveLibrary(t.TempDir())
	assert.ErrorIs(t, err, ErrLibrary)

	t.Chdir(filepath.Dir(lib))
	got, err = resolveLibrary(LibraryName)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}

func TestPrepare(t *testing.T) {
	lib := fakeLibrary(t)

	plan, err := Prepare(lib, []string{"sh", "-c", "true"}, []string{"PATH=" + os.Getenv("PATH")})
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(plan.Path))
	assert.Equal(t, []string{"sh", "-c", "true"}, plan.Argv)
	assert.Equal(t, lib, plan.Library)
	assert.Contains(t, plan.Env, "LD_PRELOAD="+lib)

	_, err = Prepare(lib, nil, nil)
	assert.ErrorIs(t, err, ErrExec)

	_, err = Prepare(lib, []string{"credguard-no-such-command"}, nil)
	assert.ErrorIs(t, err, ErrExec)

	_, err = Prepare(filepath.Join(t.TempDir(), "missing.so"), []string{"sh"}, nil)
	assert.ErrorIs(t, err, ErrLibrary)
}

func TestCommand(t *testing.T) {
	lib := fakeLibrary(t)

	var gotPath string
	var gotArgv, gotEnv []string
	prev := execFn
	execFn = func(path string, argv []string, env []string) error {
		gotPath, gotArgv, gotEnv = path, argv, env
		return nil
	}
	t.Cleanup(func() { execFn = prev })

	cmd := Command()
	cmd.SetArgs([]string{"-l", lib, "--", "sh", "-c", "exit 0"})
	require.NoError(t, cmd.Execute())

	assert.True(t, filepath.IsAbs(gotPath))
	assert.Equal(t, []string{"sh", "-c", "exit 0"}, gotArgv)
	assert.Contains(t, gotEnv, "LD_PRELOAD="+lib)
}

func TestCommand_NoArgs(t *testing.T) {
	cmd := Command()
	cmd.SetArgs([]string{})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	assert.Error(t, cmd.Execute())
}
