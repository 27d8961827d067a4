package memory_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prokash-cms/prokash/pkg/publisher"
	"github.com/prokash-cms/prokash/pkg/publisher/storage/memory"
)

func TestBackend(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()

	require.NoError(t, backend.Upload(ctx, "a/b.txt", strings.NewReader("hello")))

	exists, err := backend.Exists(ctx, "a/b.txt")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 1, backend.Len())

	rc, err := backend.Download(ctx, "a/b.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(data))

	_, err = backend.Download(ctx, "missing")
	assert.ErrorIs(t, err, publisher.ErrNotFound)

	require.NoError(t, backend.Delete(ctx, "a/b.txt"))
	assert.Equal(t, 0, backend.Len())

	// deleting again is fine
	assert.NoError(t, backend.Delete(ctx, "a/b.txt"))
}
