package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"photo-jobs/internal/query"
)

const photoColumns = "id, path, description, time, rating, content_hash, thumbnail_path, metadata_synced_at"

// AddPhoto inserts a photo and sets its ID.
func (d *Database) AddPhoto(ctx context.Context, p *Photo) error {
	done := observeQuery("add_photo")

	path := strings.TrimSpace(p.Path)
	if path == "" {
		err := errors.New("photo path cannot be empty")
		done(err)
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx,
		"INSERT INTO photos (path, description, time, rating) VALUES (?, ?, ?, ?)",
		path, p.Description, p.Time.Unix(), p.Rating,
	)
	if err != nil {
		done(err)
		return fmt.Errorf("failed to add photo %s: %w", path, err)
	}
	p.ID, err = result.LastInsertId()
	p.Path = path
	done(err)
	return err
}

// GetPhoto returns one photo. A missing id yields ErrPhotoNotFound.
func (d *Database) GetPhoto(ctx context.Context, id int64) (*Photo, error) {
	done := observeQuery("get_photo")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx, "SELECT "+photoColumns+" FROM photos WHERE id = ?", id)
	p, err := scanPhoto(row)
	done(err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("photo %d: %w", id, ErrPhotoNotFound)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// QueryPhotos returns the photos matching term, oldest first.
func (d *Database) QueryPhotos(ctx context.Context, term query.Term) ([]Photo, error) {
	done := observeQuery("query_photos")

	where, err := query.Where(term)
	if err != nil {
		done(err)
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// where only contains integer ids and column names.
	rows, err := d.db.QueryContext(ctx, "SELECT "+photoColumns+" FROM photos "+where+" ORDER BY time, id")
	if err != nil {
		done(err)
		return nil, err
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			done(err)
			return nil, err
		}
		photos = append(photos, *p)
	}
	err = rows.Err()
	done(err)
	return photos, err
}

// SetContentHash stores the content hash of a photo.
func (d *Database) SetContentHash(ctx context.Context, id int64, hash string) error {
	return d.updatePhoto(ctx, "set_content_hash", id, "content_hash = ?", hash)
}

// SetThumbnailPath stores where the thumbnail of a photo was written.
func (d *Database) SetThumbnailPath(ctx context.Context, id int64, path string) error {
	return d.updatePhoto(ctx, "set_thumbnail_path", id, "thumbnail_path = ?", path)
}

// MarkMetadataSynced records when the sidecar of a photo was last written.
func (d *Database) MarkMetadataSynced(ctx context.Context, id int64, at time.Time) error {
	return d.updatePhoto(ctx, "mark_metadata_synced", id, "metadata_synced_at = ?", at.Unix())
}

func (d *Database) updatePhoto(ctx context.Context, op string, id int64, set string, value any) error {
	done := observeQuery(op)

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, "UPDATE photos SET "+set+" WHERE id = ?", value, id)
	if err != nil {
		done(err)
		return err
	}
	n, err := result.RowsAffected()
	done(err)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("photo %d: %w", id, ErrPhotoNotFound)
	}
	return nil
}

// PhotoTagNames returns the names of the tags on a photo, sorted.
func (d *Database) PhotoTagNames(ctx context.Context, photoID int64) ([]string, error) {
	done := observeQuery("photo_tag_names")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT t.name FROM tags t
		INNER JOIN photo_tags pt ON pt.tag_id = t.id
		WHERE pt.photo_id = ?
		ORDER BY t.name COLLATE NOCASE
	`, photoID)
	if err != nil {
		done(err)
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			done(err)
			return nil, err
		}
		names = append(names, name)
	}
	err = rows.Err()
	done(err)
	return names, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPhoto(r rowScanner) (*Photo, error) {
	var p Photo
	var taken int64
	var hash, thumb sql.NullString
	var synced sql.NullInt64

	if err := r.Scan(&p.ID, &p.Path, &p.Description, &taken, &p.Rating, &hash, &thumb, &synced); err != nil {
		return nil, err
	}
	p.Time = time.Unix(taken, 0)
	p.ContentHash = hash.String
	p.ThumbnailPath = thumb.String
	if synced.Valid {
		t := time.Unix(synced.Int64, 0)
		p.MetadataSyncedAt = &t
	}
	return &p, nil
}
