package model

import (
	"errors"
	"time"
)

// Post is a user's publication, optionally attached to a group and an image.
type Post struct {
	ID        int64     `db:"id" json:"id"`
	Text      string    `db:"text" json:"text"`
	AuthorID  int64     `db:"author_id" json:"-"`
	GroupID   *int64    `db:"group_id" json:"-"`
	ImageKey  *string   `db:"image_key" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// Joined fields (not in posts table)
	CommentCount int           `db:"comment_count" json:"comment_count"`
	Author       *UserSummary  `db:"-" json:"author,omitempty"`
	Group        *GroupSummary `db:"-" json:"group,omitempty"`
	ImageURL     *string       `db:"-" json:"image_url,omitempty"`
}

// PostInput carries the editable fields of a post. Author and timestamps are
// never part of it; they are assigned from the requesting identity and the store.
type PostInput struct {
	Text    string       `form:"text" validate:"required"`
	GroupID *int64       `form:"group"`
	Image   *ImageUpload `form:"image" validate:"-"`

	// ClearImage drops the stored image on update when no new image is uploaded.
	ClearImage bool `form:"image-clear"`
}

var postMessages = map[string]string{
	"text.required": "post text is required",
}

// Validate normalizes the text and checks the field rules that need no storage access.
func (in *PostInput) Validate() *ValidationError {
	in.Text = normalizeText(in.Text)
	return validateStruct(in, postMessages)
}

// PostDetail is a single post together with its discussion.
type PostDetail struct {
	Post            Post        `json:"post"`
	Author          UserSummary `json:"author"`
	AuthorPostCount int         `json:"author_posts_count"`
	Comments        []Comment   `json:"comments"`
}

// PostPage is one page of a feed.
type PostPage struct {
	Posts []Post   `json:"posts"`
	Page  PageInfo `json:"page"`
}

// PostFilter narrows a feed query. At most one field is expected to be set;
// the zero value selects every post.
type PostFilter struct {
	AuthorID   *int64
	GroupID    *int64
	FollowerID *int64
}

// Post constants
const (
	PostsPerPage = 10
)

// Post field messages shared by validation performed in the service layer.
const (
	MsgInvalidGroup = "select a valid group"
)

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrNotPostAuthor = errors.New("not the author of this post")
)
