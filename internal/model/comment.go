package model

import (
	"time"
)

// Comment represents a comment on a post.
type Comment struct {
	ID        int64        `db:"id" json:"id"`
	PostID    int64        `db:"post_id" json:"post_id"`
	AuthorID  int64        `db:"author_id" json:"-"`
	Text      string       `db:"text" json:"text"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	Author    *UserSummary `db:"-" json:"author,omitempty"` // Joined field
}

// CommentInput is the request for creating a comment.
type CommentInput struct {
	Text string `form:"text" validate:"required"`
}

var commentMessages = map[string]string{
	"text.required": "comment text is required",
}

// Validate normalizes the text and returns a *ValidationError or nil.
func (in *CommentInput) Validate() error {
	in.Text = normalizeText(in.Text)
	return validateStruct(in, commentMessages).OrNil()
}
