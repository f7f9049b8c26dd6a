package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestCreateTag(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	cat, err := db.CreateTag(ctx, "Places", 0, true)
	if err != nil {
		t.Fatalf("CreateTag() error = %v", err)
	}
	if cat.ID == 0 || !cat.IsCategory {
		t.Errorf("CreateTag() = %+v", cat)
	}

	tests := []struct {
		name     string
		tag      string
		category int64
		wantErr  bool
	}{
		{"child of category", "Beach", cat.ID, false},
		{"empty name", "  ", 0, true},
		{"duplicate name ignoring case", "places", 0, true},
		{"missing category", "Lost", 999, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.CreateTag(ctx, tt.tag, tt.category, false)
			if (err != nil) != tt.wantErr {
				t.Errorf("CreateTag(%q) error = %v, wantErr %v", tt.tag, err, tt.wantErr)
			}
		})
	}

	if _, err := db.CreateTag(ctx, "Lost2", 999, false); !errors.Is(err, ErrTagNotFound) {
		t.Errorf("missing category error = %v, want ErrTagNotFound", err)
	}

	leaf, _ := db.CreateTag(ctx, "Leaf", 0, false)
	if _, err := db.CreateTag(ctx, "Under leaf", leaf.ID, false); err == nil {
		t.Error("creating a tag under a non-category should fail")
	}
}

func TestTagPhotoIsIdempotent(t *testing.T) {
	db, _ := setupTestDB(t)
	library(t, db)
	ctx := context.Background()

	if err := db.TagPhoto(ctx, 1, 3); err != nil {
		t.Fatal(err)
	}
	if err := db.TagPhoto(ctx, 1, 3); err != nil {
		t.Errorf("second TagPhoto() error = %v", err)
	}
}

func TestLoadTagTree(t *testing.T) {
	db, _ := setupTestDB(t)
	tags := library(t, db)

	places := tags["Places"]
	if places.Parent() != nil {
		t.Error("Places should be a root tag")
	}
	if tags["Beach"].Parent() != tags["Coast"] || tags["Coast"].Parent() != places {
		t.Error("tree parents not wired")
	}

	var names []string
	for _, d := range places.Descendants() {
		names = append(names, d.Name)
	}
	if fmt.Sprint(names) != "[Coast Beach Mountains]" {
		t.Errorf("Descendants() = %v", names)
	}
}
