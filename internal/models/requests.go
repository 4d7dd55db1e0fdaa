package models

import (
	"strings"
	"time"
)

// ArticleCreateRequest is the payload for creating an article. It binds from
// JSON or multipart form; the image file itself is handled separately by the
// handler.
type ArticleCreateRequest struct {
	Title       string   `form:"title"       json:"title"`
	Description string   `form:"description" json:"description"`
	Content     string   `form:"content"     json:"content"`
	Category    string   `form:"category"    json:"category"`
	Subcategory []string `form:"subcategory" json:"subcategory"`
	Tags        []string `form:"tags"        json:"tags"`

	IsLive     bool `form:"is_live"     json:"is_live"`
	IsBreaking bool `form:"is_breaking" json:"is_breaking"`
	IsTopstory bool `form:"is_topstory" json:"is_topstory"`
	IsHeadline bool `form:"is_headline" json:"is_headline"`

	SectionID string `form:"section_id" json:"section_id"`
}

// Validate checks required fields before any store mutation.
func (r *ArticleCreateRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return Invalid("title", "title is required")
	}
	if strings.TrimSpace(r.Category) == "" {
		return Invalid("category", "category is required")
	}
	return nil
}

// ArticleUpdateRequest is the payload for a partial article update. Pointer
// fields distinguish "not provided" from zero values.
type ArticleUpdateRequest struct {
	Title       *string  `form:"title"       json:"title"`
	Description *string  `form:"description" json:"description"`
	Content     *string  `form:"content"     json:"content"`
	Category    *string  `form:"category"    json:"category"`
	Subcategory []string `form:"subcategory" json:"subcategory"`
	Tags        []string `form:"tags"        json:"tags"`

	IsLive     *bool `form:"is_live"     json:"is_live"`
	WasLive    *bool `form:"was_live"    json:"was_live"`
	IsBreaking *bool `form:"is_breaking" json:"is_breaking"`
	IsTopstory *bool `form:"is_topstory" json:"is_topstory"`
	IsHeadline *bool `form:"is_headline" json:"is_headline"`

	// SectionID moves the article between sections. The empty string clears
	// the linkage; nil leaves it untouched.
	SectionID *string `form:"section_id" json:"section_id"`
}

// Validate checks that the update carries at least one change.
func (r *ArticleUpdateRequest) Validate() error {
	if r.Title == nil && r.Description == nil && r.Content == nil &&
		r.Category == nil && r.Subcategory == nil && r.Tags == nil &&
		r.IsLive == nil && r.WasLive == nil && r.IsBreaking == nil &&
		r.IsTopstory == nil && r.IsHeadline == nil && r.SectionID == nil {
		return ErrNoFieldsToUpdate
	}
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return Invalid("title", "title cannot be empty")
	}
	if r.Category != nil && strings.TrimSpace(*r.Category) == "" {
		return Invalid("category", "category cannot be empty")
	}
	return nil
}

// SectionCreateRequest is the payload for creating a section.
type SectionCreateRequest struct {
	Name        string     `json:"name"`
	Code        string     `json:"code"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// Validate checks required fields.
func (r *SectionCreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return Invalid("name", "name is required")
	}
	if strings.TrimSpace(r.Code) == "" {
		return Invalid("code", "code is required")
	}
	return nil
}

// SectionUpdateRequest is the payload for a partial section update.
type SectionUpdateRequest struct {
	Name        *string    `json:"name"`
	Code        *string    `json:"code"`
	Description *string    `json:"description"`
	Tags        []string   `json:"tags"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// Validate checks that the update carries at least one change.
func (r *SectionUpdateRequest) Validate() error {
	if r.Name == nil && r.Code == nil && r.Description == nil &&
		r.Tags == nil && r.ExpiresAt == nil {
		return ErrNoFieldsToUpdate
	}
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return Invalid("name", "name cannot be empty")
	}
	if r.Code != nil && strings.TrimSpace(*r.Code) == "" {
		return Invalid("code", "code cannot be empty")
	}
	return nil
}

// DocumentCreateRequest is the payload for the secondary collections
// (features, opinions, graphics, charts).
type DocumentCreateRequest struct {
	Title       string   `form:"title"       json:"title"`
	Description string   `form:"description" json:"description"`
	Body        string   `form:"body"        json:"body"`
	Category    string   `form:"category"    json:"category"`
	Tags        []string `form:"tags"        json:"tags"`
}

// Validate checks required fields.
func (r *DocumentCreateRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return Invalid("title", "title is required")
	}
	return nil
}

// DocumentUpdateRequest is the payload for a partial document update.
type DocumentUpdateRequest struct {
	Title       *string  `form:"title"       json:"title"`
	Description *string  `form:"description" json:"description"`
	Body        *string  `form:"body"        json:"body"`
	Category    *string  `form:"category"    json:"category"`
	Tags        []string `form:"tags"        json:"tags"`
}

// Validate checks that the update carries at least one change.
func (r *DocumentUpdateRequest) Validate() error {
	if r.Title == nil && r.Description == nil && r.Body == nil &&
		r.Category == nil && r.Tags == nil {
		return ErrNoFieldsToUpdate
	}
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return Invalid("title", "title cannot be empty")
	}
	return nil
}

// CommentCreateRequest is the payload for adding a comment or reply.
type CommentCreateRequest struct {
	Username string `json:"username"`
	Content  string `json:"content"`
}

// Validate checks required fields.
func (r *CommentCreateRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return Invalid("username", "username is required")
	}
	if strings.TrimSpace(r.Content) == "" {
		return Invalid("content", "content is required")
	}
	return nil
}

// CommentEditRequest is the payload for editing a comment or reply body.
type CommentEditRequest struct {
	Content string `json:"content"`
}

// Validate checks required fields.
func (r *CommentEditRequest) Validate() error {
	if strings.TrimSpace(r.Content) == "" {
		return Invalid("content", "content is required")
	}
	return nil
}

// VoteRequest is the payload for casting a comment or reply vote.
type VoteRequest struct {
	VoterID   string `json:"voter_id"`
	Direction string `json:"direction"`
}

// Validate checks the voter identity and direction.
func (r *VoteRequest) Validate() error {
	if strings.TrimSpace(r.VoterID) == "" {
		return Invalid("voter_id", "voter_id is required")
	}
	if d := VoteDirection(r.Direction); d != VoteUp && d != VoteDown {
		return Invalid("direction", `direction must be "up" or "down"`)
	}
	return nil
}

// LiveBlockRequest is the payload for appending a block to a live article.
type LiveBlockRequest struct {
	Body   string `json:"body"`
	Pinned bool   `json:"pinned"`
}

// Validate checks required fields.
func (r *LiveBlockRequest) Validate() error {
	if strings.TrimSpace(r.Body) == "" {
		return Invalid("body", "body is required")
	}
	return nil
}
