package repository

import (
	"testing"

	"yatube/internal/model"
)

func TestFilterClause(t *testing.T) {
	author := int64(7)
	group := int64(3)
	follower := int64(9)

	tests := []struct {
		name      string
		filter    model.PostFilter
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "no filter",
			filter:    model.PostFilter{},
			wantWhere: "",
			wantArgs:  nil,
		},
		{
			name:      "author",
			filter:    model.PostFilter{AuthorID: &author},
			wantWhere: "WHERE p.author_id = $1",
			wantArgs:  []any{int64(7)},
		},
		{
			name:      "group",
			filter:    model.PostFilter{GroupID: &group},
			wantWhere: "WHERE p.group_id = $1",
			wantArgs:  []any{int64(3)},
		},
		{
			name:      "follower",
			filter:    model.PostFilter{FollowerID: &follower},
			wantWhere: "WHERE p.author_id IN (SELECT author_id FROM follows WHERE user_id = $1)",
			wantArgs:  []any{int64(9)},
		},
		{
			name:      "author and group",
			filter:    model.PostFilter{AuthorID: &author, GroupID: &group},
			wantWhere: "WHERE p.author_id = $1 AND p.group_id = $2",
			wantArgs:  []any{int64(7), int64(3)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := filterClause(tt.filter)
			if where != tt.wantWhere {
				t.Errorf("where = %q, want %q", where, tt.wantWhere)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("args = %v, want %v", args, tt.wantArgs)
			}
			for i := range args {
				if args[i] != tt.wantArgs[i] {
					t.Errorf("args[%d] = %v, want %v", i, args[i], tt.wantArgs[i])
				}
			}
		})
	}
}

func TestPostRowToPost(t *testing.T) {
	groupID := int64(4)
	title, slug := "Cats", "cats"

	row := postRow{
		Post:           model.Post{ID: 1, Text: "hi", AuthorID: 2, GroupID: &groupID},
		AuthorUsername: "leo",
		GroupTitle:     &title,
		GroupSlug:      &slug,
	}

	p := row.toPost()
	if p.Author == nil || p.Author.Username != "leo" || p.Author.ID != 2 {
		t.Errorf("Author = %+v", p.Author)
	}
	if p.Group == nil || p.Group.Slug != "cats" || p.Group.ID != 4 {
		t.Errorf("Group = %+v", p.Group)
	}

	row.GroupTitle, row.GroupSlug, row.Post.GroupID = nil, nil, nil
	if got := row.toPost(); got.Group != nil {
		t.Errorf("Group = %+v, want nil", got.Group)
	}
}
