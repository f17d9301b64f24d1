package chat_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	modelchat "github.com/zhouzirui/moodchat/backend/internal/model/chat"
	chat "github.com/zhouzirui/moodchat/backend/internal/service/chat"
)

func turnFor(text string) func() modelchat.Turn {
	return func() modelchat.Turn {
		return modelchat.Turn{UserText: text, BotReply: "reply to " + text, Emotion: modelchat.NeutralLabel}
	}
}

func TestServiceGetSession(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)

	got, err := svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session, got)
}

func TestServiceUnknownSession(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	_, err := svc.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, chat.ErrSessionNotFound)

	_, _, err = svc.RunTurn(ctx, "missing", turnFor("hi"))
	assert.ErrorIs(t, err, chat.ErrSessionNotFound)

	_, err = svc.History(ctx, "missing")
	assert.ErrorIs(t, err, chat.ErrSessionNotFound)

	_, err = svc.Turns(ctx, "missing")
	assert.ErrorIs(t, err, chat.ErrSessionNotFound)

	_, err = svc.Turn(ctx, "missing", 0)
	assert.ErrorIs(t, err, chat.ErrSessionNotFound)

	assert.ErrorIs(t, svc.Select(ctx, "missing", 0), chat.ErrSessionNotFound)

	_, _, err = svc.Selected(ctx, "missing")
	assert.ErrorIs(t, err, chat.ErrSessionNotFound)
}

func TestServiceRunTurnAppendsAndSelects(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()
	session, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	_, _, err = svc.Selected(ctx, session.ID)
	assert.ErrorIs(t, err, modelchat.ErrNothingSelected)

	const n = 4
	for i := 0; i < n; i++ {
		turn, index, err := svc.RunTurn(ctx, session.ID, turnFor(fmt.Sprintf("message %d", i)))
		require.NoError(t, err)
		assert.Equal(t, i, index)
		assert.Equal(t, fmt.Sprintf("message %d", i), turn.UserText)
	}

	turns, err := svc.Turns(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, turns, n)

	selected, index, err := svc.Selected(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, n-1, index)
	assert.Equal(t, "message 3", selected.UserText)

	history, err := svc.History(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, history, n)
	assert.Equal(t, 3, history[0].Index)
	assert.Equal(t, 0, history[n-1].Index)
}

func TestServiceSelect(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()
	session, _ := svc.CreateSession(ctx)

	assert.ErrorIs(t, svc.Select(ctx, session.ID, 0), modelchat.ErrIndexOutOfRange)

	_, _, _ = svc.RunTurn(ctx, session.ID, turnFor("first"))
	_, _, _ = svc.RunTurn(ctx, session.ID, turnFor("second"))

	require.NoError(t, svc.Select(ctx, session.ID, 0))
	selected, index, err := svc.Selected(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, index)
	assert.Equal(t, "first", selected.UserText)

	assert.ErrorIs(t, svc.Select(ctx, session.ID, 2), modelchat.ErrIndexOutOfRange)
	assert.ErrorIs(t, svc.Select(ctx, session.ID, -1), modelchat.ErrIndexOutOfRange)

	turn, err := svc.Turn(ctx, session.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "second", turn.UserText)
}

func TestServiceRejectsConcurrentTurn(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()
	session, _ := svc.CreateSession(ctx)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, _, err := svc.RunTurn(ctx, session.ID, func() modelchat.Turn {
			close(started)
			<-release
			return modelchat.Turn{UserText: "slow"}
		})
		done <- err
	}()

	<-started
	_, _, err := svc.RunTurn(ctx, session.ID, turnFor("fast"))
	assert.ErrorIs(t, err, chat.ErrTurnInFlight)

	other, _ := svc.CreateSession(ctx)
	_, index, err := svc.RunTurn(ctx, other.ID, turnFor("elsewhere"))
	require.NoError(t, err)
	assert.Equal(t, 0, index)

	close(release)
	require.NoError(t, <-done)

	_, index, err = svc.RunTurn(ctx, session.ID, turnFor("after"))
	require.NoError(t, err)
	assert.Equal(t, 1, index)
}
