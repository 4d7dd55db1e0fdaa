package models

import (
	"time"

	"github.com/google/uuid"
)

// ContentKind discriminates the article content variants.
type ContentKind string

const (
	// ContentPlain is a single free-form text body.
	ContentPlain ContentKind = "plain"
	// ContentLive is an ordered sequence of timestamped blocks, used while an
	// article is covered live.
	ContentLive ContentKind = "live"
)

// ContentBlock is one timestamped entry of a live article.
type ContentBlock struct {
	ID       string    `bson:"id"        json:"id"`
	Body     string    `bson:"body"      json:"body"`
	Pinned   bool      `bson:"pinned"    json:"pinned"`
	PostedAt time.Time `bson:"posted_at" json:"posted_at"`
}

// ArticleContent is a tagged union: either a plain text body or an ordered
// sequence of live blocks. Exactly one of Text/Blocks is populated, selected
// by Kind.
type ArticleContent struct {
	Kind   ContentKind    `bson:"kind"             json:"kind"`
	Text   string         `bson:"text,omitempty"   json:"text,omitempty"`
	Blocks []ContentBlock `bson:"blocks,omitempty" json:"blocks,omitempty"`
}

// PlainContent wraps a flat text body.
func PlainContent(text string) ArticleContent {
	return ArticleContent{Kind: ContentPlain, Text: text}
}

// ToLive converts content to the live variant. A non-empty plain body becomes
// the opening block so no text is lost on the transition. Converting content
// that is already live is a no-op.
func (c ArticleContent) ToLive(now time.Time) ArticleContent {
	if c.Kind == ContentLive {
		return c
	}
	live := ArticleContent{Kind: ContentLive}
	if c.Text != "" {
		live.Blocks = []ContentBlock{{
			ID:       uuid.NewString(),
			Body:     c.Text,
			PostedAt: now,
		}}
	}
	return live
}

// Append adds a block to live content and returns the new block.
// Appending to plain content converts it first.
func (c *ArticleContent) Append(body string, pinned bool, now time.Time) ContentBlock {
	if c.Kind != ContentLive {
		*c = c.ToLive(now)
	}
	block := ContentBlock{
		ID:       uuid.NewString(),
		Body:     body,
		Pinned:   pinned,
		PostedAt: now,
	}
	c.Blocks = append(c.Blocks, block)
	return block
}
