package content

import (
	"context"

	"github.com/google/uuid"

	"github.com/latifiss/oak/internal/logger"
	"github.com/latifiss/oak/internal/models"
)

// AddComment appends a reader comment to an article. Commenting is rejected
// while the article is in live coverage.
func (s *ArticleService) AddComment(ctx context.Context, slug string, req *models.CommentCreateRequest) (*models.Article, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	a, err := s.articles.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if a.IsLive {
		return nil, models.ErrArticleLive
	}

	now := s.now().UTC()
	a.Comments = append(a.Comments, models.Comment{
		ID:        uuid.NewString(),
		Username:  req.Username,
		Content:   req.Content,
		CreatedAt: now,
	})

	return s.replaceAndInvalidate(ctx, a)
}

// EditComment replaces a comment's body.
func (s *ArticleService) EditComment(ctx context.Context, slug, commentID string, req *models.CommentEditRequest) (*models.Article, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	a, c, err := s.findComment(ctx, slug, commentID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c.Content = req.Content
	c.Edited = true
	c.EditedAt = &now

	return s.replaceAndInvalidate(ctx, a)
}

// DeleteComment removes a comment and its replies.
func (s *ArticleService) DeleteComment(ctx context.Context, slug, commentID string) (*models.Article, error) {
	a, err := s.articles.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	kept := a.Comments[:0]
	found := false
	for _, c := range a.Comments {
		if c.ID == commentID {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return nil, models.ErrNotFound
	}
	a.Comments = kept

	return s.replaceAndInvalidate(ctx, a)
}

// AddReply appends a reply under an existing comment.
func (s *ArticleService) AddReply(ctx context.Context, slug, commentID string, req *models.CommentCreateRequest) (*models.Article, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	a, c, err := s.findComment(ctx, slug, commentID)
	if err != nil {
		return nil, err
	}
	if a.IsLive {
		return nil, models.ErrArticleLive
	}

	now := s.now().UTC()
	c.Replies = append(c.Replies, models.Reply{
		ID:        uuid.NewString(),
		Username:  req.Username,
		Content:   req.Content,
		CreatedAt: now,
	})

	return s.replaceAndInvalidate(ctx, a)
}

// VoteComment casts a vote on a comment. Repeating a vote retracts it;
// voting the other way moves it.
func (s *ArticleService) VoteComment(ctx context.Context, slug, commentID string, req *models.VoteRequest) (*models.Article, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	a, c, err := s.findComment(ctx, slug, commentID)
	if err != nil {
		return nil, err
	}

	c.Votes.Cast(req.VoterID, models.VoteDirection(req.Direction))

	return s.replaceAndInvalidate(ctx, a)
}

// VoteReply casts a vote on a reply under a comment.
func (s *ArticleService) VoteReply(ctx context.Context, slug, commentID, replyID string, req *models.VoteRequest) (*models.Article, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	a, c, err := s.findComment(ctx, slug, commentID)
	if err != nil {
		return nil, err
	}

	r := c.FindReply(replyID)
	if r == nil {
		return nil, models.ErrNotFound
	}
	r.Votes.Cast(req.VoterID, models.VoteDirection(req.Direction))

	return s.replaceAndInvalidate(ctx, a)
}

func (s *ArticleService) findComment(ctx context.Context, slug, commentID string) (*models.Article, *models.Comment, error) {
	a, err := s.articles.FindBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	c := a.FindComment(commentID)
	if c == nil {
		return nil, nil, models.ErrNotFound
	}
	return a, c, nil
}

// replaceAndInvalidate commits a comment mutation. The whole document is
// replaced, so concurrent comment edits on the same article can lose; the
// update rate makes that acceptable here.
func (s *ArticleService) replaceAndInvalidate(ctx context.Context, a *models.Article) (*models.Article, error) {
	a.UpdatedAt = s.now().UTC()
	if err := s.articles.Replace(ctx, a); err != nil {
		return nil, err
	}
	s.invalidateArticles(ctx)
	s.logger.Debug("comments updated", logger.String("slug", a.Slug))
	return a, nil
}
