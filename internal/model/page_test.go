package model

import "testing"

func TestPaginator_NumPages(t *testing.T) {
	tests := []struct {
		count, want int
	}{
		{0, 1},
		{1, 1},
		{10, 1},
		{11, 2},
		{25, 3},
	}
	for _, tt := range tests {
		if got := NewPaginator(tt.count, PostsPerPage).NumPages(); got != tt.want {
			t.Errorf("NumPages(count=%d) = %d, want %d", tt.count, got, tt.want)
		}
	}
}

func TestPaginator_Resolve(t *testing.T) {
	p := NewPaginator(25, 10)

	tests := []struct {
		raw  string
		want int
	}{
		{"", 1},
		{"  ", 1},
		{"1", 1},
		{"2", 2},
		{"3", 3},
		{"4", 3},
		{"0", 3},
		{"-1", 3},
		{"abc", 3},
		{"2.5", 3},
		{" 2 ", 2},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := p.Resolve(tt.raw); got != tt.want {
				t.Errorf("Resolve(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}

	empty := NewPaginator(0, 10)
	for _, raw := range []string{"", "1", "7", "last"} {
		if got := empty.Resolve(raw); got != 1 {
			t.Errorf("empty.Resolve(%q) = %d, want 1", raw, got)
		}
	}
}

func TestPaginator_Page(t *testing.T) {
	p := NewPaginator(13, 10)

	first := p.Page(1)
	if !first.HasNext || first.HasPrevious || first.NumPages != 2 || first.Count != 13 {
		t.Errorf("page 1 = %+v", first)
	}
	if p.Offset(1) != 0 || p.Offset(2) != 10 {
		t.Errorf("offsets = %d, %d, want 0, 10", p.Offset(1), p.Offset(2))
	}

	last := p.Page(2)
	if last.HasNext || !last.HasPrevious {
		t.Errorf("page 2 = %+v", last)
	}
}

func TestNewPaginator_Defaults(t *testing.T) {
	p := NewPaginator(-5, 0)
	if p.Count != 0 || p.PerPage != PostsPerPage {
		t.Errorf("NewPaginator(-5, 0) = %+v", p)
	}
}

func TestIsFirstPageRequest(t *testing.T) {
	for raw, want := range map[string]bool{
		"":    true,
		" 1 ": true,
		"1":   true,
		"2":   false,
		"01":  false,
		"abc": false,
	} {
		if got := IsFirstPageRequest(raw); got != want {
			t.Errorf("IsFirstPageRequest(%q) = %v, want %v", raw, got, want)
		}
	}
}
