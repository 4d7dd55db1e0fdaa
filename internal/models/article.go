package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Default expiry windows for the time-bound status flags.
const (
	// BreakingWindow is how long an article stays flagged breaking.
	BreakingWindow = 30 * time.Minute
	// TopstoryWindow is how long an article stays flagged a top story.
	TopstoryWindow = 48 * time.Hour
)

// Article is a published piece on one of the sites. All sites share this
// shape; section linkage and comments are only populated on the politics
// site.
type Article struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Slug        string             `bson:"slug"          json:"slug"`
	Title       string             `bson:"title"         json:"title"`
	Description string             `bson:"description"   json:"description"`
	Content     ArticleContent     `bson:"content"       json:"content"`
	ImageURL    string             `bson:"image_url"     json:"image_url,omitempty"`

	Category    string   `bson:"category"              json:"category"`
	Subcategory []string `bson:"subcategory,omitempty" json:"subcategory,omitempty"`
	Tags        []string `bson:"tags,omitempty"        json:"tags,omitempty"`

	// Status flags. Independently toggleable, except that wasLive forces
	// isLive off and is never unset.
	IsLive     bool `bson:"is_live"     json:"is_live"`
	WasLive    bool `bson:"was_live"    json:"was_live"`
	IsBreaking bool `bson:"is_breaking" json:"is_breaking"`
	IsTopstory bool `bson:"is_topstory" json:"is_topstory"`
	IsHeadline bool `bson:"is_headline" json:"is_headline"`

	BreakingExpiresAt *time.Time `bson:"breaking_expires_at,omitempty" json:"breaking_expires_at,omitempty"`
	TopstoryExpiresAt *time.Time `bson:"topstory_expires_at,omitempty" json:"topstory_expires_at,omitempty"`

	// Section linkage (politics site only). SectionName/Code/Slug are
	// denormalized copies of the owning section, refreshed on reassignment.
	SectionID   primitive.ObjectID `bson:"section_id,omitempty" json:"section_id,omitempty"`
	SectionName string             `bson:"section_name,omitempty" json:"section_name,omitempty"`
	SectionCode string             `bson:"section_code,omitempty" json:"section_code,omitempty"`
	SectionSlug string             `bson:"section_slug,omitempty" json:"section_slug,omitempty"`

	Comments []Comment `bson:"comments,omitempty" json:"comments,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasSection reports whether the article is assigned to a section. It is
// computed from the section linkage fields and never stored.
func (a *Article) HasSection() bool {
	return a.SectionName != ""
}

// ClearSection removes the section linkage.
func (a *Article) ClearSection() {
	a.SectionID = primitive.NilObjectID
	a.SectionName = ""
	a.SectionCode = ""
	a.SectionSlug = ""
}

// AssignSection sets the denormalized section linkage from a section.
func (a *Article) AssignSection(s *Section) {
	a.SectionID = s.ID
	a.SectionName = s.Name
	a.SectionCode = s.Code
	a.SectionSlug = s.Slug
}

// FindComment returns a pointer into the article's comments, or nil.
func (a *Article) FindComment(commentID string) *Comment {
	for i := range a.Comments {
		if a.Comments[i].ID == commentID {
			return &a.Comments[i]
		}
	}
	return nil
}

// ArticleStatus is the canonical vocabulary for the status filter endpoint.
// The source of record used two conflicting vocabularies; oak standardizes on
// the singular forms below.
type ArticleStatus string

const (
	// StatusBreaking selects articles currently flagged breaking.
	StatusBreaking ArticleStatus = "breaking"
	// StatusTopstory selects articles currently flagged top story.
	StatusTopstory ArticleStatus = "topstory"
	// StatusHeadline selects the headlined article.
	StatusHeadline ArticleStatus = "headline"
	// StatusLive selects articles currently covered live.
	StatusLive ArticleStatus = "live"
)

// ValidStatus reports whether s is part of the canonical status vocabulary.
func ValidStatus(s string) bool {
	switch ArticleStatus(s) {
	case StatusBreaking, StatusTopstory, StatusHeadline, StatusLive:
		return true
	}
	return false
}
