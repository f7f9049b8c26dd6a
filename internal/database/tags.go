package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"photo-jobs/internal/query"
)

// CreateTag creates a tag, optionally under the category categoryID
// (0 for a root tag).
func (d *Database) CreateTag(ctx context.Context, name string, categoryID int64, isCategory bool) (*Tag, error) {
	done := observeQuery("create_tag")

	name = strings.TrimSpace(name)
	if name == "" {
		err := errors.New("tag name cannot be empty")
		done(err)
		return nil, err
	}

	tag := &Tag{Name: name, CategoryID: categoryID, IsCategory: isCategory}
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		if categoryID != 0 {
			var parentIsCategory bool
			err := tx.QueryRowContext(ctx, "SELECT is_category FROM tags WHERE id = ?", categoryID).Scan(&parentIsCategory)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("category %d: %w", categoryID, ErrTagNotFound)
			}
			if err != nil {
				return err
			}
			if !parentIsCategory {
				return fmt.Errorf("tag %d is not a category", categoryID)
			}
		}

		result, err := tx.ExecContext(ctx,
			"INSERT INTO tags (name, category_id, is_category) VALUES (?, ?, ?)",
			name, categoryID, isCategory,
		)
		if err != nil {
			return fmt.Errorf("failed to create tag: %w", err)
		}
		tag.ID, err = result.LastInsertId()
		return err
	})
	done(err)
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// TagPhoto attaches a tag to a photo. Tagging twice is a no-op.
func (d *Database) TagPhoto(ctx context.Context, photoID, tagID int64) error {
	done := observeQuery("tag_photo")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO photo_tags (photo_id, tag_id) VALUES (?, ?)",
		photoID, tagID,
	)
	done(err)
	return err
}

// ListTags returns all tags ordered by sort priority, then id.
func (d *Database) ListTags(ctx context.Context) ([]Tag, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		"SELECT id, name, category_id, is_category, sort_priority FROM tags ORDER BY sort_priority, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.CategoryID, &t.IsCategory, &t.SortPriority); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// LoadTagTree builds the tag tree and returns every tag by id. Children are
// attached in sort priority order. A tag whose category is missing becomes a
// root.
func (d *Database) LoadTagTree(ctx context.Context) (map[int64]*query.Tag, error) {
	done := observeQuery("load_tag_tree")

	tags, err := d.ListTags(ctx)
	done(err)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*query.Tag, len(tags))
	for _, t := range tags {
		var node *query.Tag
		if t.IsCategory {
			node = query.NewCategory(t.ID, t.Name)
		} else {
			node = query.NewTag(t.ID, t.Name)
		}
		node.SortPriority = t.SortPriority
		byID[t.ID] = node
	}

	for _, t := range tags {
		if t.CategoryID == 0 {
			continue
		}
		parent, ok := byID[t.CategoryID]
		if !ok {
			log.Warn("tag %d refers to missing category %d", t.ID, t.CategoryID)
			continue
		}
		if err := parent.Add(byID[t.ID]); err != nil {
			log.Warn("ignoring category of tag %d: %v", t.ID, err)
		}
	}
	return byID, nil
}
