package models

import (
	"time"
)

// VoteDirection is the direction of a comment or reply vote.
type VoteDirection string

const (
	// VoteUp is an upvote.
	VoteUp VoteDirection = "up"
	// VoteDown is a downvote.
	VoteDown VoteDirection = "down"
)

// Votes tracks up/down vote counts together with the identities that cast
// them. An identity is never present in both sets.
type Votes struct {
	Upvotes    int      `bson:"upvotes"    json:"upvotes"`
	Downvotes  int      `bson:"downvotes"  json:"downvotes"`
	Upvoters   []string `bson:"upvoters"   json:"-"`
	Downvoters []string `bson:"downvoters" json:"-"`
}

// Cast applies a vote by voterID in the given direction with toggle
// semantics: voting the same direction twice retracts the vote; voting the
// opposite direction first retracts the existing vote, then applies the new
// one.
func (v *Votes) Cast(voterID string, dir VoteDirection) {
	switch dir {
	case VoteUp:
		if remove(&v.Upvoters, voterID) {
			v.Upvotes--
			return
		}
		if remove(&v.Downvoters, voterID) {
			v.Downvotes--
		}
		v.Upvoters = append(v.Upvoters, voterID)
		v.Upvotes++
	case VoteDown:
		if remove(&v.Downvoters, voterID) {
			v.Downvotes--
			return
		}
		if remove(&v.Upvoters, voterID) {
			v.Upvotes--
		}
		v.Downvoters = append(v.Downvoters, voterID)
		v.Downvotes++
	}
}

// HasVoted reports whether voterID currently has a vote in the given direction.
func (v *Votes) HasVoted(voterID string, dir VoteDirection) bool {
	set := v.Upvoters
	if dir == VoteDown {
		set = v.Downvoters
	}
	for _, id := range set {
		if id == voterID {
			return true
		}
	}
	return false
}

func remove(set *[]string, id string) bool {
	for i, v := range *set {
		if v == id {
			*set = append((*set)[:i], (*set)[i+1:]...)
			return true
		}
	}
	return false
}

// Reply is a nested response to a comment.
type Reply struct {
	ID        string     `bson:"id"                  json:"id"`
	Username  string     `bson:"username"            json:"username"`
	Content   string     `bson:"content"             json:"content"`
	Edited    bool       `bson:"edited"              json:"edited"`
	EditedAt  *time.Time `bson:"edited_at,omitempty" json:"edited_at,omitempty"`
	CreatedAt time.Time  `bson:"created_at"          json:"created_at"`
	Votes     `bson:",inline"`
}

// Comment is a reader comment on a politics-site article. Comments are stored
// inline on the article document and carry their replies.
type Comment struct {
	ID        string     `bson:"id"                  json:"id"`
	Username  string     `bson:"username"            json:"username"`
	Content   string     `bson:"content"             json:"content"`
	Edited    bool       `bson:"edited"              json:"edited"`
	EditedAt  *time.Time `bson:"edited_at,omitempty" json:"edited_at,omitempty"`
	CreatedAt time.Time  `bson:"created_at"          json:"created_at"`
	Replies   []Reply    `bson:"replies"             json:"replies"`
	Votes     `bson:",inline"`
}

// FindReply returns a pointer into the comment's replies, or nil.
func (c *Comment) FindReply(replyID string) *Reply {
	for i := range c.Replies {
		if c.Replies[i].ID == replyID {
			return &c.Replies[i]
		}
	}
	return nil
}
