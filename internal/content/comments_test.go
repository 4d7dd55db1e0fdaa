package content

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latifiss/oak/internal/models"
)

func TestAddComment(t *testing.T) {
	h := newArticleHarness(t, WithComments())
	ctx := context.Background()

	a := h.mustCreate(t, &models.ArticleCreateRequest{Title: "Commented Story", Category: "x"})

	a, err := h.svc.AddComment(ctx, a.Slug, &models.CommentCreateRequest{
		Username: "ada", Content: "First!",
	})
	require.NoError(t, err)
	require.Len(t, a.Comments, 1)
	assert.NotEmpty(t, a.Comments[0].ID)
	assert.Equal(t, "ada", a.Comments[0].Username)
	assert.False(t, a.Comments[0].Edited)
}

func TestAddCommentRejectedWhileLive(t *testing.T) {
	h := newArticleHarness(t, WithComments())
	ctx := context.Background()

	h.mustCreate(t, &models.ArticleCreateRequest{Title: "Live Story", Category: "x", IsLive: true})

	_, err := h.svc.AddComment(ctx, "live-story", &models.CommentCreateRequest{
		Username: "ada", Content: "too soon",
	})
	assert.ErrorIs(t, err, models.ErrArticleLive)
}

func TestEditAndDeleteComment(t *testing.T) {
	h := newArticleHarness(t, WithComments())
	ctx := context.Background()

	a := h.mustCreate(t, &models.ArticleCreateRequest{Title: "Edited Story", Category: "x"})
	a, err := h.svc.AddComment(ctx, a.Slug, &models.CommentCreateRequest{Username: "ada", Content: "draft"})
	require.NoError(t, err)
	commentID := a.Comments[0].ID

	a, err = h.svc.EditComment(ctx, a.Slug, commentID, &models.CommentEditRequest{Content: "final"})
	require.NoError(t, err)
	assert.Equal(t, "final", a.Comments[0].Content)
	assert.True(t, a.Comments[0].Edited)
	require.NotNil(t, a.Comments[0].EditedAt)

	a, err = h.svc.DeleteComment(ctx, a.Slug, commentID)
	require.NoError(t, err)
	assert.Empty(t, a.Comments)

	_, err = h.svc.DeleteComment(ctx, a.Slug, commentID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestReplies(t *testing.T) {
	h := newArticleHarness(t, WithComments())
	ctx := context.Background()

	a := h.mustCreate(t, &models.ArticleCreateRequest{Title: "Threaded Story", Category: "x"})
	a, err := h.svc.AddComment(ctx, a.Slug, &models.CommentCreateRequest{Username: "ada", Content: "parent"})
	require.NoError(t, err)
	commentID := a.Comments[0].ID

	a, err = h.svc.AddReply(ctx, a.Slug, commentID, &models.CommentCreateRequest{Username: "bob", Content: "child"})
	require.NoError(t, err)
	require.Len(t, a.Comments[0].Replies, 1)
	assert.Equal(t, "bob", a.Comments[0].Replies[0].Username)

	_, err = h.svc.AddReply(ctx, a.Slug, "missing", &models.CommentCreateRequest{Username: "bob", Content: "x"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestVoteToggleSemantics(t *testing.T) {
	h := newArticleHarness(t, WithComments())
	ctx := context.Background()

	a := h.mustCreate(t, &models.ArticleCreateRequest{Title: "Voted Story", Category: "x"})
	a, err := h.svc.AddComment(ctx, a.Slug, &models.CommentCreateRequest{Username: "ada", Content: "hot take"})
	require.NoError(t, err)
	commentID := a.Comments[0].ID

	up := &models.VoteRequest{VoterID: "v1", Direction: "up"}
	down := &models.VoteRequest{VoterID: "v1", Direction: "down"}

	a, err = h.svc.VoteComment(ctx, a.Slug, commentID, up)
	require.NoError(t, err)
	assert.Equal(t, 1, a.Comments[0].Upvotes)

	// Same direction again retracts.
	a, err = h.svc.VoteComment(ctx, a.Slug, commentID, up)
	require.NoError(t, err)
	assert.Zero(t, a.Comments[0].Upvotes)

	// Opposite direction moves the vote.
	a, err = h.svc.VoteComment(ctx, a.Slug, commentID, up)
	require.NoError(t, err)
	a, err = h.svc.VoteComment(ctx, a.Slug, commentID, down)
	require.NoError(t, err)
	assert.Zero(t, a.Comments[0].Upvotes)
	assert.Equal(t, 1, a.Comments[0].Downvotes)

	// A second voter is independent.
	a, err = h.svc.VoteComment(ctx, a.Slug, commentID, &models.VoteRequest{VoterID: "v2", Direction: "down"})
	require.NoError(t, err)
	assert.Equal(t, 2, a.Comments[0].Downvotes)

	_, err = h.svc.VoteComment(ctx, a.Slug, commentID, &models.VoteRequest{VoterID: "v3", Direction: "sideways"})
	assert.True(t, models.IsValidation(err))
}

func TestVoteReply(t *testing.T) {
	h := newArticleHarness(t, WithComments())
	ctx := context.Background()

	a := h.mustCreate(t, &models.ArticleCreateRequest{Title: "Reply Votes", Category: "x"})
	a, err := h.svc.AddComment(ctx, a.Slug, &models.CommentCreateRequest{Username: "ada", Content: "parent"})
	require.NoError(t, err)
	commentID := a.Comments[0].ID

	a, err = h.svc.AddReply(ctx, a.Slug, commentID, &models.CommentCreateRequest{Username: "bob", Content: "child"})
	require.NoError(t, err)
	replyID := a.Comments[0].Replies[0].ID

	a, err = h.svc.VoteReply(ctx, a.Slug, commentID, replyID, &models.VoteRequest{VoterID: "v1", Direction: "up"})
	require.NoError(t, err)
	assert.Equal(t, 1, a.Comments[0].Replies[0].Upvotes)

	_, err = h.svc.VoteReply(ctx, a.Slug, commentID, "missing", &models.VoteRequest{VoterID: "v1", Direction: "up"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}
