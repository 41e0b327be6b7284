package catalog

import (
	"errors"
	"strings"
)

var (
	ErrEmptyQuery  = errors.New("search query is required")
	ErrNotFound    = errors.New("volume not found")
	ErrRateLimited = errors.New("catalog rate limit exceeded")
	ErrUpstream    = errors.New("catalog unavailable")
)

// UnknownAuthor is used for volumes that list no authors.
const UnknownAuthor = "Unknown"

// Volume is a catalog search hit reduced to what a tracked book needs.
type Volume struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Cover     string `json:"cover"`
	PageCount int    `json:"page_count"`
}

// volumesResponse mirrors the subset of the Google Books volumes payload we read.
type volumesResponse struct {
	TotalItems int          `json:"totalItems"`
	Items      []volumeItem `json:"items"`
}

type volumeItem struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title      string     `json:"title"`
	Subtitle   string     `json:"subtitle"`
	Authors    []string   `json:"authors"`
	PageCount  int        `json:"pageCount"`
	ImageLinks imageLinks `json:"imageLinks"`
}

type imageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
}

func (it volumeItem) toVolume() Volume {
	info := it.VolumeInfo

	author := strings.Join(info.Authors, ", ")
	if strings.TrimSpace(author) == "" {
		author = UnknownAuthor
	}

	cover := info.ImageLinks.Thumbnail
	if cover == "" {
		cover = info.ImageLinks.SmallThumbnail
	}
	// Google still hands out plain http thumbnail links.
	if strings.HasPrefix(cover, "http://") {
		cover = "https://" + strings.TrimPrefix(cover, "http://")
	}

	pages := info.PageCount
	if pages < 0 {
		pages = 0
	}

	return Volume{
		ID:        it.ID,
		Title:     info.Title,
		Author:    author,
		Cover:     cover,
		PageCount: pages,
	}
}
