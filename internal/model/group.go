package model

import (
	"errors"
	"time"
)

// Group is a themed collection of posts addressed by its slug.
type Group struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Slug        string    `db:"slug" json:"slug"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// GroupSummary is the group block embedded in posts.
type GroupSummary struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// GroupInput is the administrative request for creating a group.
type GroupInput struct {
	Title       string `form:"title" validate:"required,max=200"`
	Slug        string `form:"slug" validate:"required,max=100,slug"`
	Description string `form:"description"`
}

var groupMessages = map[string]string{
	"title.required": "group title is required",
	"title.max":      "group title is too long",
	"slug.required":  "group slug is required",
	"slug.max":       "group slug is too long",
	"slug.slug":      "slug may contain only latin letters, digits, hyphens and underscores",
}

// Validate checks the input and returns a *ValidationError or nil.
func (in *GroupInput) Validate() error {
	return validateStruct(in, groupMessages).OrNil()
}

// GroupFeed is a page of posts of a single group.
type GroupFeed struct {
	Group Group `json:"group"`
	PostPage
}

var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrGroupSlugExists = errors.New("group slug already exists")
)
