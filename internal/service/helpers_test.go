package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"yatube/internal/model"
	"yatube/internal/repository/repotest"
)

// fakeImageStore keeps blobs in a map and records deletions.
type fakeImageStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	saveErr error
	n       int
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{objects: make(map[string][]byte)}
}

func (f *fakeImageStore) Save(ctx context.Context, img *model.ImageUpload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.n++
	key := fmt.Sprintf("posts/%d.png", f.n)
	f.objects[key] = img.Data
	return key, nil
}

func (f *fakeImageStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeImageStore) URL(key string) string {
	return "https://img.example.com/" + key
}

func (f *fakeImageStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

type fixture struct {
	store    *repotest.MemStore
	images   *fakeImageStore
	posts    *PostService
	comments *CommentService
	follows  *FollowService
	feeds    *FeedService
	groups   *GroupService
	users    *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zap.NewNop()
	store := repotest.NewMemStore()
	images := newFakeImageStore()

	follows := NewFollowService(store, store.FollowRepo(), store.Users(), log)
	return &fixture{
		store:    store,
		images:   images,
		posts:    NewPostService(store, store.PostRepo(), store.Groups(), store.CommentRepo(), images, 1024*1024, log),
		comments: NewCommentService(store, store.CommentRepo(), store.PostRepo(), log),
		follows:  follows,
		feeds:    NewFeedService(store.PostRepo(), store.Groups(), store.Users(), follows, store, images, 20*time.Second, log),
		groups:   NewGroupService(store.Groups(), log),
		users:    NewUserService(store.Users(), log),
	}
}

// identity seeds a user and returns its identity.
func (f *fixture) identity(id int64, username string) *model.Identity {
	f.store.AddUser(id, username)
	return &model.Identity{ID: id, Username: username}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *model.ValidationError, got %v", err)
	}
	return verr.Fields
}
