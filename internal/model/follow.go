package model

import (
	"time"
)

// Follow is a directed edge from a follower (UserID) to a followed author.
type Follow struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	AuthorID  int64     `db:"author_id" json:"author_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SubscriptionSummary describes an author's place in the follow graph
// relative to the requesting identity.
type SubscriptionSummary struct {
	IsFollowing     bool `json:"is_following"`
	SubscriberCount int  `json:"subscriber_count"`
	FollowingCount  int  `json:"following_count"`
}

// ProfileFeed is a page of one author's posts plus profile counters.
type ProfileFeed struct {
	Author        UserSummary         `json:"author"`
	PostCount     int                 `json:"author_posts_count"`
	Subscriptions SubscriptionSummary `json:"subscriptions"`
	PostPage
}
