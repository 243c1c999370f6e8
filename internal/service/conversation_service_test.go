package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"lexia-go/internal/model"
)

func TestListMessagesScopedToOwner(t *testing.T) {
	repo := newFakeRepo()
	conv, err := repo.CreateConversation(context.Background(), 1, "mine")
	require.NoError(t, err)
	_, err = repo.AppendMessage(context.Background(), 1, conv.ID, model.RoleUser, "hello")
	require.NoError(t, err)

	svc := NewConversationService(repo)

	msgs, err := svc.ListMessages(context.Background(), 1, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	_, err = svc.ListMessages(context.Background(), 2, conv.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ListMessages(context.Background(), 1, 9999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListConversationsReturnsSummaries(t *testing.T) {
	repo := newFakeRepo()
	conv, err := repo.CreateConversation(context.Background(), 1, "mine")
	require.NoError(t, err)
	_, err = repo.AppendMessage(context.Background(), 1, conv.ID, model.RoleUser, "hello")
	require.NoError(t, err)
	_, err = repo.AppendMessage(context.Background(), 1, conv.ID, model.RoleAssistant, "hi")
	require.NoError(t, err)

	svc := NewConversationService(repo)
	summaries, err := svc.ListConversations(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Equal(t, int64(2), summaries[0].MessageCount)

	other, err := svc.ListConversations(context.Background(), 2)
	require.NoError(t, err)
	require.Empty(t, other)
}
