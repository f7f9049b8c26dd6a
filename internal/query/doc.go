/*
Package query compiles boolean tag queries into SQL conditions on the photos
table.

A query is a tree of Terms. TagTerm matches a tag; for a category it matches
the category and every tag below it, collected depth first. OrTerm, AndTerm
and NotTerm combine terms. Untagged, RatingRange and DateRange match on photo
columns.

	beach := query.NewTag(3, "Beach")
	sea := query.NewTag(4, "Sea")
	where, err := query.Where(query.Or(query.ForTag(beach), query.ForTag(sea)))
	// WHERE (photos.id IN (SELECT photo_id FROM photo_tags WHERE tag_id IN (3, 4)))

An OrTerm whose operands are all TagTerms is rendered as one IN list. The list
keeps duplicate ids when categories overlap.

Compilation is pure. Tag ids are integers, so no value ever needs quoting.
*/
package query
