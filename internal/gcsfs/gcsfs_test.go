package gcsfs

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestDirPrefix(t *testing.T) {
	assert.Equal(t, "board/pin/", dirPrefix("board/pin"))
	assert.Equal(t, "board/pin/", dirPrefix("/board/pin/"))
	assert.Equal(t, "", dirPrefix(""))
}

func TestStagedFiles_ManifestLast(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"pin", "data.txt", "index.html"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	files, err := stagedFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "data.txt", files[2])
}

func TestPreconditionFailed(t *testing.T) {
	assert.True(t, preconditionFailed(&googleapi.Error{Code: http.StatusPreconditionFailed}))
	assert.False(t, preconditionFailed(&googleapi.Error{Code: http.StatusForbidden}))
	assert.False(t, preconditionFailed(errors.New("boom")))
}
