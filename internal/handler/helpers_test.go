package handler

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"yatube/internal/model"
	"yatube/internal/repository/repotest"
	"yatube/internal/service"
	"yatube/internal/transport/http/middleware"
)

type memImageStore struct {
	mu   sync.Mutex
	keys []string
}

func (m *memImageStore) Save(ctx context.Context, img *model.ImageUpload) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("posts/%d", len(m.keys)+1)
	m.keys = append(m.keys, key)
	return key, nil
}

func (m *memImageStore) Delete(ctx context.Context, key string) error { return nil }

func (m *memImageStore) URL(key string) string { return "https://img.test/" + key }

type fakePageCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
}

func newFakePageCache() *fakePageCache {
	return &fakePageCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *fakePageCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	body, ok := c.entries[key]
	return body, ok, nil
}

func (c *fakePageCache) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = body
	c.ttls[key] = ttl
	return nil
}

func (c *fakePageCache) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

type testEnv struct {
	store  *repotest.MemStore
	cache  *fakePageCache
	router chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zap.NewNop()
	store := repotest.NewMemStore()
	images := &memImageStore{}
	pageCache := newFakePageCache()

	follows := service.NewFollowService(store, store.FollowRepo(), store.Users(), log)
	posts := service.NewPostService(store, store.PostRepo(), store.Groups(), store.CommentRepo(), images, 1<<20, log)
	comments := service.NewCommentService(store, store.CommentRepo(), store.PostRepo(), log)
	feeds := service.NewFeedService(store.PostRepo(), store.Groups(), store.Users(), follows, store, images, 20*time.Second, log)
	groups := service.NewGroupService(store.Groups(), log)

	feedHandler := NewFeedHandler(feeds, pageCache, log)
	groupHandler := NewGroupHandler(groups, log)
	postHandler := NewPostHandler(posts, 1<<20, log)
	commentHandler := NewCommentHandler(comments, log)
	followHandler := NewFollowHandler(follows, log)

	r := chi.NewRouter()
	r.Get("/posts", feedHandler.Global)
	r.Post("/posts", postHandler.Create)
	r.Get("/groups", groupHandler.List)
	r.Get("/groups/{slug}", groupHandler.Get)
	r.Get("/groups/{slug}/posts", feedHandler.Group)
	r.Get("/follow/posts", feedHandler.Following)
	r.Get("/users/{username}/posts", feedHandler.Profile)
	r.Get("/users/{username}/posts/{postID}", postHandler.Get)
	r.Post("/users/{username}/posts/{postID}/edit", postHandler.Update)
	r.Post("/users/{username}/posts/{postID}/comments", commentHandler.Create)
	r.Post("/users/{username}/follow", followHandler.Follow)
	r.Delete("/users/{username}/follow", followHandler.Unfollow)
	r.Get("/users/{username}/subscriptions", followHandler.Summary)

	return &testEnv{store: store, cache: pageCache, router: r}
}

func (e *testEnv) user(id int64, username string) *model.Identity {
	e.store.AddUser(id, username)
	return &model.Identity{ID: id, Username: username}
}

// do serves req as identity (nil for anonymous).
func (e *testEnv) do(req *http.Request, identity *model.Identity) *httptest.ResponseRecorder {
	if identity != nil {
		req = req.WithContext(middleware.WithIdentity(req.Context(), identity))
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type formFile struct {
	field    string
	filename string
	data     []byte
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := io.Copy(part, bytes.NewReader(f.data)); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
