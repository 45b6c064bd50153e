package s3fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "board/pin/v1", key("board/pin/v1"))
	assert.Equal(t, "board/pin", key("/board/pin/"))
	assert.Equal(t, "", key(""))
	assert.Equal(t, "board/", dirPrefix("board"))
	assert.Equal(t, "", dirPrefix("/"))
}

func TestStagedFiles_ManifestLast(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"data.txt", "a.csv", "z.html"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	files, err := stagedFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.csv", "z.html", "data.txt"}, files)
}

func TestPreconditionFailed(t *testing.T) {
	assert.True(t, preconditionFailed(&smithy.GenericAPIError{Code: "PreconditionFailed"}))
	assert.False(t, preconditionFailed(&smithy.GenericAPIError{Code: "AccessDenied"}))
	assert.False(t, preconditionFailed(os.ErrNotExist))
}
