//go:build integration

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/testutil"
)

func TestJetStreamStore(t *testing.T) {
	url := testutil.RequireEnv(t, "NATS_URL")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := NewJetStreamStore(url, "avatars-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Init(ctx), "Init must reopen an existing bucket")
	assert.True(t, s.IsConnected())

	name := "u1/" + time.Now().Format("150405.000000") + ".png"
	_, err = s.Put(ctx, name, []byte("png-bytes"), "image/png")
	require.NoError(t, err)

	data, info, err := s.Get(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "image/png", info.ContentType)

	require.NoError(t, s.Delete(ctx, name))
	_, err = s.GetInfo(ctx, name)
	assert.ErrorIs(t, err, model.ErrObjectNotFound)
}
