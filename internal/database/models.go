package database

import (
	"errors"
	"time"
)

var (
	// ErrPhotoNotFound is returned when a photo id does not exist.
	ErrPhotoNotFound = errors.New("photo not found")

	// ErrTagNotFound is returned when a tag id does not exist.
	ErrTagNotFound = errors.New("tag not found")
)

type Photo struct {
	ID               int64      `json:"id"`
	Path             string     `json:"path"`
	Description      string     `json:"description,omitempty"`
	Time             time.Time  `json:"time"`
	Rating           int        `json:"rating"`
	ContentHash      string     `json:"contentHash,omitempty"`
	ThumbnailPath    string     `json:"thumbnailPath,omitempty"`
	MetadataSyncedAt *time.Time `json:"metadataSyncedAt,omitempty"`
}

type Tag struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	CategoryID   int64  `json:"categoryId,omitempty"`
	IsCategory   bool   `json:"isCategory"`
	SortPriority int    `json:"sortPriority"`
}
