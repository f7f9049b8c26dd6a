package photojobs

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/zeebo/blake3"

	"photo-jobs/internal/filesystem"
	"photo-jobs/internal/metrics"
)

const hashChunkSize = 256 << 10

// hashJob stores the BLAKE3 digest of a photo file.
type hashJob struct {
	deps    Deps
	photoID int64
}

func (j *hashJob) Run(ctx context.Context) error {
	photo, err := j.deps.Photos.GetPhoto(ctx, j.photoID)
	if err != nil {
		return err
	}

	f, err := filesystem.OpenWithRetry(photo.Path, j.deps.Retry)
	if err != nil {
		return fmt.Errorf("opening %s: %w", photo.Path, err)
	}
	defer f.Close()

	h := blake3.New()
	buf := make([]byte, hashChunkSize)
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := f.Read(buf)
		if n > 0 {
			_, _ = h.Write(buf[:n])
			total += int64(n)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", photo.Path, err)
		}
	}
	metrics.PhotoBytesHashed.Add(float64(total))

	sum := hex.EncodeToString(h.Sum(nil))
	if err := j.deps.Photos.SetContentHash(ctx, j.photoID, sum); err != nil {
		return err
	}
	log.Debug("photo %d hashed (%d bytes): %s", j.photoID, total, sum)
	return nil
}
