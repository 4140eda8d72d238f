package model

import (
	"strconv"
	"strings"
)

// PageInfo is everything a renderer needs to draw pagination controls.
type PageInfo struct {
	Number      int  `json:"number"`
	NumPages    int  `json:"num_pages"`
	Count       int  `json:"count"`
	PerPage     int  `json:"per_page"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// Paginator splits Count items into pages of PerPage items.
// An empty listing still has one (empty) page.
type Paginator struct {
	Count   int
	PerPage int
}

func NewPaginator(count, perPage int) Paginator {
	if perPage <= 0 {
		perPage = PostsPerPage
	}
	if count < 0 {
		count = 0
	}
	return Paginator{Count: count, PerPage: perPage}
}

// NumPages returns the number of pages, never less than one.
func (p Paginator) NumPages() int {
	if p.Count == 0 {
		return 1
	}
	return (p.Count + p.PerPage - 1) / p.PerPage
}

// Resolve turns a raw page parameter into a valid page number.
// A missing parameter selects the first page; anything that is not a number,
// or is out of range, falls back to the last page.
func (p Paginator) Resolve(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > p.NumPages() {
		return p.NumPages()
	}
	return n
}

// Offset is the index of the first item on page number.
func (p Paginator) Offset(number int) int {
	return (number - 1) * p.PerPage
}

// Page describes page number, which must come from Resolve.
func (p Paginator) Page(number int) PageInfo {
	return PageInfo{
		Number:      number,
		NumPages:    p.NumPages(),
		Count:       p.Count,
		PerPage:     p.PerPage,
		HasNext:     number < p.NumPages(),
		HasPrevious: number > 1,
	}
}

// IsFirstPageRequest reports whether raw addresses the first page without
// needing the item count: empty or literally "1".
func IsFirstPageRequest(raw string) bool {
	raw = strings.TrimSpace(raw)
	return raw == "" || raw == "1"
}
