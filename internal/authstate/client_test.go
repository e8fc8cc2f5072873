package authstate_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/authstate"
	"github.com/taskdeck/taskdeck/internal/client"
	"github.com/taskdeck/taskdeck/internal/handler/handlertest"
	"github.com/taskdeck/taskdeck/internal/model"
)

func TestTracker_WithClient(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	srv := handlertest.New(t)
	c := client.New(srv.URL)
	s, err := c.SignUp(ctx, model.Credentials{Email: "ada@example.com", Password: "correct horse"})
	require.NoError(t, err)

	tr := authstate.New(c)
	defer tr.Close()
	updates, stop := tr.Watch()
	defer stop()

	require.NoError(t, tr.Start(ctx))
	st, err := tr.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, authstate.SignedIn, st.Status)
	assert.Equal(t, s.User.UserID, st.Identity.UserID)
	assert.Equal(t, authstate.SignedIn, (<-updates).Status)

	require.NoError(t, c.SignOut(ctx))
	select {
	case st := <-updates:
		assert.Equal(t, authstate.SignedOut, st.Status)
	case <-ctx.Done():
		t.Fatal("sign-out not observed")
	}
	assert.Nil(t, tr.Snapshot().Identity)
}
