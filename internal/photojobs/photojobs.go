package photojobs

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"photo-jobs/internal/database"
	"photo-jobs/internal/filesystem"
	"photo-jobs/internal/jobs"
	"photo-jobs/internal/logging"
)

// Job types registered by Register.
const (
	TypeHash         = "hash"
	TypeThumbnail    = "thumbnail"
	TypeSyncMetadata = "sync-metadata"
)

var log = logging.Named("photojobs")

// PhotoStore is the part of the database the jobs read and write.
type PhotoStore interface {
	GetPhoto(ctx context.Context, id int64) (*database.Photo, error)
	SetContentHash(ctx context.Context, id int64, hash string) error
	SetThumbnailPath(ctx context.Context, id int64, path string) error
	MarkMetadataSynced(ctx context.Context, id int64, at time.Time) error
	PhotoTagNames(ctx context.Context, photoID int64) ([]string, error)
}

// Deps configures the photo jobs.
type Deps struct {
	Photos        PhotoStore
	ThumbnailDir  string
	ThumbnailSize int
	// WriteSidecars registers the sync-metadata job.
	WriteSidecars bool
	Retry         filesystem.RetryConfig
}

// Register adds the photo job types to reg.
func Register(reg *jobs.Registry, deps Deps) {
	if deps.ThumbnailSize <= 0 {
		deps.ThumbnailSize = 256
	}

	reg.Register(TypeHash, photoFactory(func(id int64) jobs.Runner {
		return &hashJob{deps: deps, photoID: id}
	}))
	reg.Register(TypeThumbnail, photoFactory(func(id int64) jobs.Runner {
		return &thumbnailJob{deps: deps, photoID: id}
	}))
	if deps.WriteSidecars {
		reg.Register(TypeSyncMetadata, photoFactory(func(id int64) jobs.Runner {
			return &sidecarJob{deps: deps, photoID: id}
		}))
	}
}

// Options encodes the options of a photo job.
func Options(photoID int64) string {
	return strconv.FormatInt(photoID, 10)
}

// photoFactory builds a factory for jobs whose options are a photo id.
func photoFactory(build func(photoID int64) jobs.Runner) jobs.Factory {
	return func(options string) (jobs.Runner, error) {
		id, err := strconv.ParseInt(options, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid photo id %q: %w", options, err)
		}
		if id <= 0 {
			return nil, fmt.Errorf("invalid photo id %d", id)
		}
		return build(id), nil
	}
}
