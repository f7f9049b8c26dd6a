package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"photo-jobs/internal/query"
)

func TestAddAndGetPhoto(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	p := &Photo{Path: " /photos/2024/beach.jpg ", Description: "sunset", Time: time.Unix(1700000000, 0), Rating: 4}
	if err := db.AddPhoto(ctx, p); err != nil {
		t.Fatalf("AddPhoto() error = %v", err)
	}
	if p.ID == 0 {
		t.Fatal("AddPhoto() did not set ID")
	}

	got, err := db.GetPhoto(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPhoto() error = %v", err)
	}
	if got.Path != "/photos/2024/beach.jpg" || got.Description != "sunset" || got.Rating != 4 || !got.Time.Equal(p.Time) {
		t.Errorf("GetPhoto() = %+v", got)
	}
	if got.ContentHash != "" || got.ThumbnailPath != "" || got.MetadataSyncedAt != nil {
		t.Errorf("job outputs should be empty on a new photo: %+v", got)
	}

	if err := db.AddPhoto(ctx, &Photo{Path: p.Path, Time: time.Now()}); err == nil {
		t.Error("adding a duplicate path should fail")
	}
	if err := db.AddPhoto(ctx, &Photo{Path: "  "}); err == nil {
		t.Error("adding an empty path should fail")
	}
}

func TestGetPhoto_NotFound(t *testing.T) {
	db, _ := setupTestDB(t)
	if _, err := db.GetPhoto(context.Background(), 99); !errors.Is(err, ErrPhotoNotFound) {
		t.Errorf("GetPhoto(99) error = %v, want ErrPhotoNotFound", err)
	}
}

func TestPhotoJobOutputs(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	p := &Photo{Path: "/photos/a.jpg", Time: time.Now()}
	if err := db.AddPhoto(ctx, p); err != nil {
		t.Fatal(err)
	}

	synced := time.Unix(1750000000, 0)
	if err := db.SetContentHash(ctx, p.ID, "abc123"); err != nil {
		t.Fatalf("SetContentHash() error = %v", err)
	}
	if err := db.SetThumbnailPath(ctx, p.ID, "/cache/thumbnails/1.jpg"); err != nil {
		t.Fatalf("SetThumbnailPath() error = %v", err)
	}
	if err := db.MarkMetadataSynced(ctx, p.ID, synced); err != nil {
		t.Fatalf("MarkMetadataSynced() error = %v", err)
	}

	got, err := db.GetPhoto(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ContentHash != "abc123" || got.ThumbnailPath != "/cache/thumbnails/1.jpg" {
		t.Errorf("outputs = %+v", got)
	}
	if got.MetadataSyncedAt == nil || !got.MetadataSyncedAt.Equal(synced) {
		t.Errorf("MetadataSyncedAt = %v, want %v", got.MetadataSyncedAt, synced)
	}

	if err := db.SetContentHash(ctx, 12345, "x"); !errors.Is(err, ErrPhotoNotFound) {
		t.Errorf("SetContentHash(missing) error = %v, want ErrPhotoNotFound", err)
	}
}

// library creates photos 1..5 and the tag tree
//
//	Places (category)
//	  Coast (category)
//	    Beach
//	  Mountains
//	Family
//
// photo 1: Beach, photo 2: Mountains, photo 3: Family, photo 4: Beach+Family,
// photo 5: untagged.
func library(t *testing.T, db *Database) map[string]*query.Tag {
	t.Helper()
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		p := &Photo{Path: fmt.Sprintf("/photos/%d.jpg", i), Time: time.Unix(int64(1000*i), 0), Rating: i}
		if err := db.AddPhoto(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	mustTag := func(name string, parent int64, category bool) int64 {
		tag, err := db.CreateTag(ctx, name, parent, category)
		if err != nil {
			t.Fatalf("CreateTag(%s) error = %v", name, err)
		}
		return tag.ID
	}
	places := mustTag("Places", 0, true)
	coast := mustTag("Coast", places, true)
	beach := mustTag("Beach", coast, false)
	mountains := mustTag("Mountains", places, false)
	family := mustTag("Family", 0, false)

	for _, pt := range [][2]int64{{1, beach}, {2, mountains}, {3, family}, {4, beach}, {4, family}} {
		if err := db.TagPhoto(ctx, pt[0], pt[1]); err != nil {
			t.Fatal(err)
		}
	}

	tree, err := db.LoadTagTree(ctx)
	if err != nil {
		t.Fatalf("LoadTagTree() error = %v", err)
	}
	return map[string]*query.Tag{
		"Places": tree[places], "Coast": tree[coast], "Beach": tree[beach],
		"Mountains": tree[mountains], "Family": tree[family],
	}
}

func photoIDs(photos []Photo) string {
	ids := make([]int64, len(photos))
	for i, p := range photos {
		ids[i] = p.ID
	}
	return fmt.Sprint(ids)
}

func TestQueryPhotos(t *testing.T) {
	db, _ := setupTestDB(t)
	tags := library(t, db)

	tests := []struct {
		name string
		term query.Term
		want string
	}{
		{"leaf", query.ForTag(tags["Beach"]), "[1 4]"},
		{"category expands", query.ForTag(tags["Places"]), "[1 2 4]"},
		{"or", query.Or(query.ForTag(tags["Mountains"]), query.ForTag(tags["Family"])), "[2 3 4]"},
		{"and", query.And(query.ForTag(tags["Beach"]), query.ForTag(tags["Family"])), "[4]"},
		{"not", query.Not(query.ForTag(tags["Places"])), "[3 5]"},
		{"untagged", query.Untagged{}, "[5]"},
		{"rating", query.RatingRange{Min: 2, Max: 3}, "[2 3]"},
		{"date", query.DateRange{Start: time.Unix(2000, 0), End: time.Unix(4000, 0)}, "[2 3]"},
		{"mixed or", query.Or(query.ForTag(tags["Coast"]), query.Untagged{}), "[1 4 5]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			photos, err := db.QueryPhotos(context.Background(), tt.term)
			if err != nil {
				t.Fatalf("QueryPhotos() error = %v", err)
			}
			if got := photoIDs(photos); got != tt.want {
				t.Errorf("QueryPhotos(%s) = %s, want %s", tt.term, got, tt.want)
			}
		})
	}
}

func TestQueryPhotos_EmptyTerm(t *testing.T) {
	db, _ := setupTestDB(t)
	if _, err := db.QueryPhotos(context.Background(), query.Or()); !errors.Is(err, query.ErrEmptyTerm) {
		t.Errorf("QueryPhotos(empty) error = %v, want ErrEmptyTerm", err)
	}
}

func TestPhotoTagNames(t *testing.T) {
	db, _ := setupTestDB(t)
	library(t, db)

	names, err := db.PhotoTagNames(context.Background(), 4)
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(names) != "[Beach Family]" {
		t.Errorf("PhotoTagNames(4) = %v", names)
	}
	names, _ = db.PhotoTagNames(context.Background(), 5)
	if len(names) != 0 {
		t.Errorf("PhotoTagNames(5) = %v, want none", names)
	}
}
