package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameport/arena/models"
	"github.com/gameport/arena/store"
)

func newChatService(t *testing.T) *chatService {
	t.Helper()
	st := store.New(store.NewMemoryStore(), testLogger())
	return &chatService{
		store:  st,
		logger: testLogger(),
		now:    time.Now,
	}
}

func TestChatIDForIsOrderIndependent(t *testing.T) {
	service := newChatService(t)

	a, err := service.ChatIDFor("user_b", "user_a")
	require.NoError(t, err)
	b, err := service.ChatIDFor("user_a", "user_b")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, "user_a_user_b", a)
}

func TestChatIDForRejectsMissingParticipant(t *testing.T) {
	service := newChatService(t)

	_, err := service.ChatIDFor("", "user_b")
	assert.ErrorIs(t, err, ErrChatParticipantsRequired)
	_, err = service.ChatIDFor("user_a", "")
	assert.ErrorIs(t, err, ErrChatParticipantsRequired)
}

func TestSendAppendsInOrder(t *testing.T) {
	service := newChatService(t)
	ctx := context.Background()

	tick := time.UnixMilli(1700000000000)
	service.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	chatID, err := service.ChatIDFor("alice", "bob")
	require.NoError(t, err)

	texts := []string{"hi", "hello", "bye"}
	for _, text := range texts {
		msg, err := service.Send(ctx, chatID, "alice", text)
		require.NoError(t, err)
		assert.True(t, len(msg.ID) > 4 && msg.ID[:4] == "msg_")
		assert.Equal(t, "alice", msg.SenderID)
	}

	history, err := service.History(ctx, chatID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, text := range texts {
		assert.Equal(t, text, history[i].Text)
	}
	assert.Less(t, history[0].Timestamp, history[1].Timestamp)
	assert.Less(t, history[1].Timestamp, history[2].Timestamp)
}

func TestBothSidesSeeTheSameChat(t *testing.T) {
	service := newChatService(t)
	ctx := context.Background()

	fromAlice, err := service.ChatIDFor("alice", "bob")
	require.NoError(t, err)
	fromBob, err := service.ChatIDFor("bob", "alice")
	require.NoError(t, err)

	_, err = service.Send(ctx, fromAlice, "alice", "hi bob")
	require.NoError(t, err)
	_, err = service.Send(ctx, fromBob, "bob", "hi alice")
	require.NoError(t, err)

	history, err := service.History(ctx, fromAlice)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "alice", history[0].SenderID)
	assert.Equal(t, "bob", history[1].SenderID)
}

func TestHistoryOfUnknownChatIsEmpty(t *testing.T) {
	service := newChatService(t)

	history, err := service.History(context.Background(), "nobody_noone")
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestChatSubscribeReplaysWholeList(t *testing.T) {
	service := newChatService(t)
	ctx := context.Background()

	chatID, err := service.ChatIDFor("alice", "bob")
	require.NoError(t, err)
	_, err = service.Send(ctx, chatID, "alice", "first")
	require.NoError(t, err)

	var events [][]models.ChatMessage
	unsubscribe, err := service.Subscribe(ctx, chatID, func(messages []models.ChatMessage) {
		events = append(events, messages)
	})
	require.NoError(t, err)
	defer unsubscribe()

	require.Len(t, events, 1, "existing history replays on subscribe")
	require.Len(t, events[0], 1)

	_, err = service.Send(ctx, chatID, "bob", "second")
	require.NoError(t, err)

	require.Len(t, events, 2)
	require.Len(t, events[1], 2, "each change carries the whole list")
	assert.Equal(t, "first", events[1][0].Text)
	assert.Equal(t, "second", events[1][1].Text)
}

func TestChatSubscribeEmptyChatReplaysEmptyList(t *testing.T) {
	service := newChatService(t)

	var events [][]models.ChatMessage
	unsubscribe, err := service.Subscribe(context.Background(), "a_b", func(messages []models.ChatMessage) {
		events = append(events, messages)
	})
	require.NoError(t, err)
	defer unsubscribe()

	require.Len(t, events, 1)
	assert.Empty(t, events[0])
}
