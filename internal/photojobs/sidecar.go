package photojobs

import (
	"context"
	"fmt"
	"time"

	"github.com/trimmer-io/go-xmp/models/dc"
	xmpbase "github.com/trimmer-io/go-xmp/models/xmp_base"
	"github.com/trimmer-io/go-xmp/xmp"

	"photo-jobs/internal/database"
	"photo-jobs/internal/filesystem"
	"photo-jobs/internal/metrics"
)

// SidecarPath returns the XMP sidecar path of a photo.
func SidecarPath(photoPath string) string {
	return photoPath + ".xmp"
}

// sidecarJob writes tags, description and rating to an XMP sidecar.
type sidecarJob struct {
	deps    Deps
	photoID int64
}

func (j *sidecarJob) Run(ctx context.Context) error {
	photo, err := j.deps.Photos.GetPhoto(ctx, j.photoID)
	if err != nil {
		return err
	}
	tags, err := j.deps.Photos.PhotoTagNames(ctx, j.photoID)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeSidecar(photo, tags)
	if err != nil {
		return err
	}

	out := SidecarPath(photo.Path)
	if err := filesystem.WriteFileAtomic(out, data, 0o644, j.deps.Retry); err != nil {
		return fmt.Errorf("writing sidecar: %w", err)
	}
	metrics.SidecarsWritten.Inc()

	if err := j.deps.Photos.MarkMetadataSynced(ctx, j.photoID, time.Now()); err != nil {
		return err
	}
	log.Debug("photo %d metadata written to %s (%d tags)", j.photoID, out, len(tags))
	return nil
}

func encodeSidecar(photo *database.Photo, tags []string) ([]byte, error) {
	d := xmp.NewDocument()
	defer d.Close()

	core, err := dc.MakeModel(d)
	if err != nil {
		return nil, fmt.Errorf("adding dublin core model: %w", err)
	}
	if photo.Description != "" {
		core.Description.AddDefault("x-default", photo.Description)
	}
	if len(tags) > 0 {
		core.Subject = xmp.StringArray(tags)
	}

	base, err := xmpbase.MakeModel(d)
	if err != nil {
		return nil, fmt.Errorf("adding xmp base model: %w", err)
	}
	base.Rating = xmpbase.Rating(photo.Rating)
	base.MetadataDate = xmp.Date(time.Now())

	d.SetDirty()
	data, err := xmp.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding sidecar: %w", err)
	}
	return append(data, '\n'), nil
}
