package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/himigchat/himig/store"
	storetest "github.com/himigchat/himig/store/test"
)

func seedConversation(ctx context.Context, t *testing.T, s *store.Store, userID int32, conversationID, opening string, baseTs int64) {
	t.Helper()
	for i, m := range []struct {
		role    store.ChatMessageRole
		content string
	}{
		{store.ChatMessageRoleUser, opening},
		{store.ChatMessageRoleModel, "a reply"},
	} {
		_, err := s.CreateChatMessage(ctx, &store.ChatMessage{
			CreatorID:      userID,
			ConversationID: conversationID,
			Role:           m.role,
			Content:        m.content,
			CreatedTs:      baseTs + int64(i),
		})
		require.NoError(t, err)
	}
}

func TestListThreadsOrderAndTitles(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	user := storetest.CreateTestingUser(ctx, t, ts, "browser")
	directory := NewDirectory(ts)

	seedConversation(ctx, t, ts, user.ID, "conv-a", "Who wrote Ang Huling El Bimbo?", 100)
	seedConversation(ctx, t, ts, user.ID, "conv-b", "Top Eraserheads albums please", 200)

	threads, err := directory.ListThreads(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, threads, 2)

	require.Equal(t, "conv-b", threads[0].ID)
	require.Equal(t, "Top Eraserheads albums please", threads[0].Title)
	require.EqualValues(t, 201, threads[0].LastActivity)
	require.Equal(t, "conv-a", threads[1].ID)
}

func TestListThreadsEmpty(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	user := storetest.CreateTestingUser(ctx, t, ts, "newcomer")

	threads, err := NewDirectory(ts).ListThreads(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, threads)
}

func TestListThreadsTruncatesLongTitle(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	user := storetest.CreateTestingUser(ctx, t, ts, "longwinded")
	directory := NewDirectory(ts)

	long := strings.Repeat("x", titleMaxRunes+1)
	seedConversation(ctx, t, ts, user.ID, "conv-long", long, 100)

	threads, err := directory.ListThreads(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	require.Equal(t, strings.Repeat("x", titleMaxRunes)+titleEllipsis, threads[0].Title)
}

func TestTruncateTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"short stays verbatim", "play harana", "play harana"},
		{"exactly at limit stays verbatim", strings.Repeat("a", titleMaxRunes), strings.Repeat("a", titleMaxRunes)},
		{"one over gets marked", strings.Repeat("a", titleMaxRunes+1), strings.Repeat("a", titleMaxRunes) + titleEllipsis},
		{"runes counted not bytes", strings.Repeat("ñ", titleMaxRunes), strings.Repeat("ñ", titleMaxRunes)},
		{"multibyte over limit", strings.Repeat("ñ", titleMaxRunes+5), strings.Repeat("ñ", titleMaxRunes) + titleEllipsis},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, truncateTitle(tt.content))
		})
	}
}

func TestCreateThreadIDUnique(t *testing.T) {
	directory := NewDirectory(nil)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := directory.CreateThreadID()
		require.NotEmpty(t, id)
		require.False(t, seen[id], "duplicate thread id %q", id)
		seen[id] = true
	}
}

func TestDeleteThread(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	user := storetest.CreateTestingUser(ctx, t, ts, "cleaner")
	directory := NewDirectory(ts)

	seedConversation(ctx, t, ts, user.ID, "conv-gone", "delete me", 100)

	require.NoError(t, directory.DeleteThread(ctx, user.ID, "conv-gone"))

	threads, err := directory.ListThreads(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, threads)

	// Deleting the same thread again, or one that never existed, succeeds.
	require.NoError(t, directory.DeleteThread(ctx, user.ID, "conv-gone"))
	require.NoError(t, directory.DeleteThread(ctx, user.ID, "never-was"))
}
