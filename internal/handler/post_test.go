package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"yatube/internal/httputil"
	"yatube/internal/model"
)

func TestPostHandler_Create(t *testing.T) {
	t.Run("multipart with group and image", func(t *testing.T) {
		env := newTestEnv(t)
		leo := env.user(1, "leo")
		g := env.store.AddGroup("t1", "s1")

		req := multipartRequest(t, http.MethodPost, "/posts",
			map[string]string{"text": "abc", "group": strconv.FormatInt(g.ID, 10)},
			formFile{field: "image", filename: "pic.png", data: testPNG(t)},
		)
		rec := env.do(req, leo)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var post model.Post
		if err := json.NewDecoder(rec.Body).Decode(&post); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if post.Text != "abc" || post.Group == nil || post.Group.Slug != "s1" || post.ImageURL == nil {
			t.Errorf("post = %+v", post)
		}
		if loc := rec.Header().Get("Location"); loc != PostPath("leo", post.ID) {
			t.Errorf("Location = %q", loc)
		}
	})

	tests := []struct {
		name       string
		fields     map[string]string
		files      []formFile
		wantFields []string
	}{
		{name: "empty text", fields: map[string]string{"text": " "}, wantFields: []string{"text"}},
		{name: "non-numeric group", fields: map[string]string{"text": "hi", "group": "cats"}, wantFields: []string{"group"}},
		{
			name:       "not an image",
			fields:     map[string]string{"text": "hi"},
			files:      []formFile{{field: "image", filename: "a.txt", data: []byte("hello")}},
			wantFields: []string{"image"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			leo := env.user(1, "leo")

			rec := env.do(multipartRequest(t, http.MethodPost, "/posts", tt.fields, tt.files...), leo)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var body httputil.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != httputil.ErrCodeValidation {
				t.Errorf("code = %q", body.Error.Code)
			}
			for _, f := range tt.wantFields {
				if body.Error.Fields[f] == "" {
					t.Errorf("missing message for %q in %v", f, body.Error.Fields)
				}
			}
			if n := len(env.store.Posts()); n != 0 {
				t.Errorf("stored posts = %d, want 0", n)
			}
		})
	}

	t.Run("urlencoded form", func(t *testing.T) {
		env := newTestEnv(t)
		leo := env.user(1, "leo")

		req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader("text=plain+post"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := env.do(req, leo)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("anonymous", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(multipartRequest(t, http.MethodPost, "/posts", map[string]string{"text": "hi"}), nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}

func TestPostHandler_Update(t *testing.T) {
	tests := []struct {
		name         string
		as           int64
		path         func(id int64) string
		wantStatus   int
		wantLocation func(id int64) string
		wantText     string
		// request overrides the default multipart body with text=edited.
		request func(t *testing.T, target string) *http.Request
	}{
		{
			name:       "author",
			as:         1,
			path:       func(id int64) string { return PostPath("leo", id) + "/edit" },
			wantStatus: http.StatusOK,
			wantText:   "edited",
		},
		{
			name:         "non-author is redirected",
			as:           2,
			path:         func(id int64) string { return PostPath("leo", id) + "/edit" },
			wantStatus:   http.StatusFound,
			wantLocation: func(id int64) string { return PostPath("leo", id) },
			wantText:     "original",
		},
		{
			name:         "non-author with oversize image is redirected",
			as:           2,
			path:         func(id int64) string { return PostPath("leo", id) + "/edit" },
			wantStatus:   http.StatusFound,
			wantLocation: func(id int64) string { return PostPath("leo", id) },
			wantText:     "original",
			request: func(t *testing.T, target string) *http.Request {
				big := formFile{field: "image", filename: "big.png", data: bytes.Repeat([]byte{0x89}, 3<<20)}
				return multipartRequest(t, http.MethodPost, target, map[string]string{"text": "edited"}, big)
			},
		},
		{
			name:         "non-author with malformed form is redirected",
			as:           2,
			path:         func(id int64) string { return PostPath("leo", id) + "/edit" },
			wantStatus:   http.StatusFound,
			wantLocation: func(id int64) string { return PostPath("leo", id) },
			wantText:     "original",
			request: func(t *testing.T, target string) *http.Request {
				req := httptest.NewRequest(http.MethodPost, target, strings.NewReader("--broken\r\nnot a part"))
				req.Header.Set("Content-Type", "multipart/form-data; boundary=elsewhere")
				return req
			},
		},
		{
			name:       "author with oversize image is rejected",
			as:         1,
			path:       func(id int64) string { return PostPath("leo", id) + "/edit" },
			wantStatus: http.StatusBadRequest,
			wantText:   "original",
			request: func(t *testing.T, target string) *http.Request {
				big := formFile{field: "image", filename: "big.png", data: bytes.Repeat([]byte{0x89}, 3<<20)}
				return multipartRequest(t, http.MethodPost, target, map[string]string{"text": "edited"}, big)
			},
		},
		{
			name:       "wrong username",
			as:         2,
			path:       func(id int64) string { return PostPath("mia", id) + "/edit" },
			wantStatus: http.StatusNotFound,
			wantText:   "original",
		},
		{
			name:       "bad post id",
			as:         1,
			path:       func(id int64) string { return "/users/leo/posts/abc/edit" },
			wantStatus: http.StatusNotFound,
			wantText:   "original",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ids := map[int64]*model.Identity{1: env.user(1, "leo"), 2: env.user(2, "mia")}
			post := env.store.AddPost(1, "original", nil)

			var req *http.Request
			if tt.request != nil {
				req = tt.request(t, tt.path(post.ID))
			} else {
				req = multipartRequest(t, http.MethodPost, tt.path(post.ID), map[string]string{"text": "edited"})
			}
			rec := env.do(req, ids[tt.as])

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantLocation != nil {
				if loc := rec.Header().Get("Location"); loc != tt.wantLocation(post.ID) {
					t.Errorf("Location = %q, want %q", loc, tt.wantLocation(post.ID))
				}
			}
			if got := env.store.Posts()[0].Text; got != tt.wantText {
				t.Errorf("stored text = %q, want %q", got, tt.wantText)
			}
		})
	}
}

func TestPostHandler_Get(t *testing.T) {
	env := newTestEnv(t)
	env.user(1, "leo")
	mia := env.user(2, "mia")
	post := env.store.AddPost(1, "hello", nil)

	rec := env.do(httptest.NewRequest(http.MethodPost, PostPath("leo", post.ID)+"/comments", strings.NewReader("text=first")), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous comment: status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, PostPath("leo", post.ID)+"/comments", strings.NewReader("text=first"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if rec := env.do(req, mia); rec.Code != http.StatusCreated {
		t.Fatalf("comment: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, PostPath("leo", post.ID), nil), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var detail model.PostDetail
	if err := json.NewDecoder(rec.Body).Decode(&detail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if detail.Post.Text != "hello" || detail.AuthorPostCount != 1 || len(detail.Comments) != 1 || detail.Comments[0].Text != "first" {
		t.Errorf("detail = %+v", detail)
	}

	if rec := env.do(httptest.NewRequest(http.MethodGet, PostPath("mia", post.ID), nil), nil); rec.Code != http.StatusNotFound {
		t.Errorf("wrong author: status = %d, want 404", rec.Code)
	}
}
