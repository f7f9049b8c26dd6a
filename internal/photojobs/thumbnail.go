package photojobs

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/disintegration/imaging"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp" // WebP format support

	"photo-jobs/internal/filesystem"
	"photo-jobs/internal/metrics"
)

// thumbnailJob writes a JPEG thumbnail of a photo into the thumbnail dir.
type thumbnailJob struct {
	deps    Deps
	photoID int64
}

// ThumbnailPath returns where the thumbnail of a photo is written.
func ThumbnailPath(dir string, photoID int64) string {
	return filepath.Join(dir, strconv.FormatInt(photoID, 10)+".jpg")
}

func (j *thumbnailJob) Run(ctx context.Context) error {
	photo, err := j.deps.Photos.GetPhoto(ctx, j.photoID)
	if err != nil {
		return err
	}

	if !CanThumbnail(photo.Path) {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(photo.Path))
	}

	start := time.Now()
	f, err := filesystem.OpenWithRetry(photo.Path, j.deps.Retry)
	if err != nil {
		return fmt.Errorf("opening %s: %w", photo.Path, err)
	}
	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	f.Close()
	if err != nil {
		return fmt.Errorf("decoding %s: %w", photo.Path, err)
	}
	start = observePhase("decode", start)

	if err := ctx.Err(); err != nil {
		return err
	}

	size := j.deps.ThumbnailSize
	thumb := imaging.Fit(img, size, size, imaging.Lanczos)
	start = observePhase("resize", start)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return fmt.Errorf("encoding thumbnail: %w", err)
	}
	start = observePhase("encode", start)

	if err := ctx.Err(); err != nil {
		return err
	}

	out := ThumbnailPath(j.deps.ThumbnailDir, j.photoID)
	if err := filesystem.WriteFileAtomic(out, buf.Bytes(), 0o644, j.deps.Retry); err != nil {
		return fmt.Errorf("writing thumbnail: %w", err)
	}
	observePhase("write", start)

	if err := j.deps.Photos.SetThumbnailPath(ctx, j.photoID, out); err != nil {
		return err
	}
	log.Debug("photo %d thumbnail written to %s (%dx%d)", j.photoID, out, thumb.Bounds().Dx(), thumb.Bounds().Dy())
	return nil
}

func observePhase(phase string, start time.Time) time.Time {
	now := time.Now()
	metrics.ThumbnailPhaseDuration.WithLabelValues(phase).Observe(now.Sub(start).Seconds())
	return now
}
