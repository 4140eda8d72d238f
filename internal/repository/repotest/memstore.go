// Package repotest provides an in-memory implementation of the repository
// interfaces for service and handler tests.
package repotest

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"yatube/internal/model"
	"yatube/internal/repository"
)

// MemStore keeps every table in memory. WithinTx snapshots the tables and
// restores them when the callback fails, so partial writes never survive.
type MemStore struct {
	mu sync.Mutex

	users    map[int64]model.User
	groups   []model.Group
	posts    []model.Post
	comments []model.Comment
	follows  []model.Follow
	nextID   int64

	clock  time.Time
	frozen bool
	fail   map[string]error

	// postReads records the tx handed to every post List and Count call.
	postReads []*sqlx.Tx
}

func NewMemStore() *MemStore {
	return &MemStore{
		users: make(map[int64]model.User),
		clock: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		fail:  make(map[string]error),
	}
}

// Fail makes every later call of op return err. Known ops: "post.create",
// "post.update", "comment.create", "follow.create", "follow.delete".
func (s *MemStore) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = err
}

// Freeze stops the clock so that following inserts share a timestamp.
func (s *MemStore) Freeze() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frozen = true
}

func (s *MemStore) now() time.Time {
	if !s.frozen {
		s.clock = s.clock.Add(time.Second)
	}
	return s.clock
}

func (s *MemStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *MemStore) failure(op string) error {
	return s.fail[op]
}

// Seeding helpers

func (s *MemStore) AddUser(id int64, username string) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := model.User{ID: id, Username: username, CreatedAt: s.now()}
	s.users[id] = u
	return u
}

func (s *MemStore) AddGroup(title, slug string) model.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := model.Group{ID: s.id(), Title: title, Slug: slug, CreatedAt: s.now()}
	s.groups = append(s.groups, g)
	return g
}

func (s *MemStore) AddPost(authorID int64, text string, groupID *int64) model.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	p := model.Post{ID: s.id(), Text: text, AuthorID: authorID, GroupID: groupID, CreatedAt: now, UpdatedAt: now}
	s.posts = append(s.posts, p)
	return p
}

func (s *MemStore) AddFollow(userID, authorID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.follows = append(s.follows, model.Follow{ID: s.id(), UserID: userID, AuthorID: authorID, CreatedAt: s.now()})
}

// Inspection helpers

func (s *MemStore) Posts() []model.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Post(nil), s.posts...)
}

func (s *MemStore) Comments() []model.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Comment(nil), s.comments...)
}

func (s *MemStore) Follows() []model.Follow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Follow(nil), s.follows...)
}

func (s *MemStore) User(id int64) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

// Repository views

func (s *MemStore) Users() repository.UserRepository { return userRepo{s} }
func (s *MemStore) Groups() repository.GroupRepository { return groupRepo{s} }
func (s *MemStore) PostRepo() repository.PostRepository { return postRepo{s} }
func (s *MemStore) CommentRepo() repository.CommentRepository { return commentRepo{s} }
func (s *MemStore) FollowRepo() repository.FollowRepository { return followRepo{s} }

type snapshot struct {
	users    map[int64]model.User
	groups   []model.Group
	posts    []model.Post
	comments []model.Comment
	follows  []model.Follow
	nextID   int64
}

func (s *MemStore) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	s.mu.Lock()
	snap := snapshot{
		users:    make(map[int64]model.User, len(s.users)),
		groups:   append([]model.Group(nil), s.groups...),
		posts:    append([]model.Post(nil), s.posts...),
		comments: append([]model.Comment(nil), s.comments...),
		follows:  append([]model.Follow(nil), s.follows...),
		nextID:   s.nextID,
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	s.mu.Unlock()

	if err := fn(&sqlx.Tx{}); err != nil {
		s.mu.Lock()
		s.users = snap.users
		s.groups = snap.groups
		s.posts = snap.posts
		s.comments = snap.comments
		s.follows = snap.follows
		s.nextID = snap.nextID
		s.mu.Unlock()
		return err
	}
	return nil
}

// WithinReadTx hands fn a fresh tx marker. Nothing is written, so there is
// nothing to restore.
func (s *MemStore) WithinReadTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return fn(&sqlx.Tx{})
}

// PostReads returns the tx passed to each post List and Count call so far,
// nil for reads made outside a transaction.
func (s *MemStore) PostReads() []*sqlx.Tx {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*sqlx.Tx(nil), s.postReads...)
}

var _ repository.Transactor = (*MemStore)(nil)

type userRepo struct{ s *MemStore }

func (r userRepo) Ensure(ctx context.Context, id int64, username string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for otherID, other := range r.s.users {
		if otherID != id && other.Username == username {
			other.Username = parkedUsername(username, otherID)
			r.s.users[otherID] = other
		}
	}
	u, ok := r.s.users[id]
	if !ok {
		u = model.User{ID: id, CreatedAt: r.s.now()}
	}
	u.Username = username
	r.s.users[id] = u
	return &u, nil
}

func parkedUsername(username string, id int64) string {
	if len(username) > 120 {
		username = username[:120]
	}
	return username + "#" + strconv.FormatInt(id, 10)
}

func (r userRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return &u, nil
}

func (r userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, model.ErrUserNotFound
}

type groupRepo struct{ s *MemStore }

func (r groupRepo) Create(ctx context.Context, g *model.Group) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.groups {
		if existing.Slug == g.Slug {
			return model.ErrGroupSlugExists
		}
	}
	g.ID = r.s.id()
	g.CreatedAt = r.s.now()
	r.s.groups = append(r.s.groups, *g)
	return nil
}

func (r groupRepo) GetByID(ctx context.Context, id int64) (*model.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, g := range r.s.groups {
		if g.ID == id {
			return &g, nil
		}
	}
	return nil, model.ErrGroupNotFound
}

func (r groupRepo) GetBySlug(ctx context.Context, slug string) (*model.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, g := range r.s.groups {
		if g.Slug == slug {
			return &g, nil
		}
	}
	return nil, model.ErrGroupNotFound
}

func (r groupRepo) List(ctx context.Context) ([]model.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	groups := append([]model.Group{}, r.s.groups...)
	sort.Slice(groups, func(i, j int) bool { return groups[i].Title < groups[j].Title })
	return groups, nil
}

type postRepo struct{ s *MemStore }

func (r postRepo) Create(ctx context.Context, tx *sqlx.Tx, p *model.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("post.create"); err != nil {
		return err
	}
	p.ID = r.s.id()
	p.CreatedAt = r.s.now()
	p.UpdatedAt = p.CreatedAt
	stored := *p
	stored.Author, stored.Group, stored.ImageURL = nil, nil, nil
	r.s.posts = append(r.s.posts, stored)
	return nil
}

func (r postRepo) Update(ctx context.Context, tx *sqlx.Tx, p *model.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("post.update"); err != nil {
		return err
	}
	for i := range r.s.posts {
		if r.s.posts[i].ID == p.ID {
			r.s.posts[i].Text = p.Text
			r.s.posts[i].GroupID = p.GroupID
			r.s.posts[i].ImageKey = p.ImageKey
			r.s.posts[i].UpdatedAt = r.s.now()
			p.UpdatedAt = r.s.posts[i].UpdatedAt
			return nil
		}
	}
	return model.ErrPostNotFound
}

func (r postRepo) GetByAuthor(ctx context.Context, username string, postID int64) (*model.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.posts {
		if p.ID == postID && r.s.users[p.AuthorID].Username == username {
			hydrated := r.s.hydrate(p)
			return &hydrated, nil
		}
	}
	return nil, model.ErrPostNotFound
}

func (r postRepo) List(ctx context.Context, tx *sqlx.Tx, filter model.PostFilter, limit, offset int) ([]model.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.postReads = append(r.s.postReads, tx)

	matched := r.s.filterPosts(filter)
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	if offset >= len(matched) {
		return []model.Post{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}

	posts := make([]model.Post, 0, end-offset)
	for _, p := range matched[offset:end] {
		posts = append(posts, r.s.hydrate(p))
	}
	return posts, nil
}

func (r postRepo) Count(ctx context.Context, tx *sqlx.Tx, filter model.PostFilter) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.postReads = append(r.s.postReads, tx)
	return len(r.s.filterPosts(filter)), nil
}

func (s *MemStore) filterPosts(f model.PostFilter) []model.Post {
	var out []model.Post
	for _, p := range s.posts {
		if f.AuthorID != nil && p.AuthorID != *f.AuthorID {
			continue
		}
		if f.GroupID != nil && (p.GroupID == nil || *p.GroupID != *f.GroupID) {
			continue
		}
		if f.FollowerID != nil && !s.followsLocked(*f.FollowerID, p.AuthorID) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *MemStore) followsLocked(userID, authorID int64) bool {
	for _, f := range s.follows {
		if f.UserID == userID && f.AuthorID == authorID {
			return true
		}
	}
	return false
}

func (s *MemStore) hydrate(p model.Post) model.Post {
	author := s.users[p.AuthorID]
	p.Author = &model.UserSummary{ID: author.ID, Username: author.Username}
	p.Group = nil
	if p.GroupID != nil {
		for _, g := range s.groups {
			if g.ID == *p.GroupID {
				p.Group = &model.GroupSummary{ID: g.ID, Title: g.Title, Slug: g.Slug}
			}
		}
	}
	p.CommentCount = 0
	for _, c := range s.comments {
		if c.PostID == p.ID {
			p.CommentCount++
		}
	}
	return p
}

type commentRepo struct{ s *MemStore }

func (r commentRepo) Create(ctx context.Context, tx *sqlx.Tx, c *model.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("comment.create"); err != nil {
		return err
	}
	c.ID = r.s.id()
	c.CreatedAt = r.s.now()
	stored := *c
	stored.Author = nil
	r.s.comments = append(r.s.comments, stored)
	return nil
}

func (r commentRepo) ListByPost(ctx context.Context, postID int64) ([]model.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	comments := []model.Comment{}
	for _, c := range r.s.comments {
		if c.PostID != postID {
			continue
		}
		author := r.s.users[c.AuthorID]
		c.Author = &model.UserSummary{ID: author.ID, Username: author.Username}
		comments = append(comments, c)
	}
	sort.SliceStable(comments, func(i, j int) bool {
		if !comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].CreatedAt.Before(comments[j].CreatedAt)
		}
		return comments[i].ID < comments[j].ID
	})
	return comments, nil
}

type followRepo struct{ s *MemStore }

func (r followRepo) GetOrCreate(ctx context.Context, tx *sqlx.Tx, userID, authorID int64) (*model.Follow, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("follow.create"); err != nil {
		return nil, err
	}
	for _, f := range r.s.follows {
		if f.UserID == userID && f.AuthorID == authorID {
			return &f, nil
		}
	}
	f := model.Follow{ID: r.s.id(), UserID: userID, AuthorID: authorID, CreatedAt: r.s.now()}
	r.s.follows = append(r.s.follows, f)
	return &f, nil
}

func (r followRepo) Delete(ctx context.Context, tx *sqlx.Tx, userID, authorID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("follow.delete"); err != nil {
		return err
	}
	kept := r.s.follows[:0:0]
	for _, f := range r.s.follows {
		if f.UserID == userID && f.AuthorID == authorID {
			continue
		}
		kept = append(kept, f)
	}
	r.s.follows = kept
	return nil
}

func (r followRepo) Exists(ctx context.Context, userID, authorID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.followsLocked(userID, authorID), nil
}

func (r followRepo) CountSubscribers(ctx context.Context, authorID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, f := range r.s.follows {
		if f.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}

func (r followRepo) CountFollowing(ctx context.Context, userID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, f := range r.s.follows {
		if f.UserID == userID {
			n++
		}
	}
	return n, nil
}
