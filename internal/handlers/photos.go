package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"photo-jobs/internal/database"
	"photo-jobs/internal/logging"
	"photo-jobs/internal/query"
)

var log = logging.Named("handlers")

var errBadQuery = errors.New("bad query")

// PhotoQueryResponse previews what a tag query selects.
type PhotoQueryResponse struct {
	Query  string           `json:"query"`
	SQL    string           `json:"sql"`
	Photos []database.Photo `json:"photos"`
}

// QueryPhotos returns the photos matched by ?tags=1,2&op=or|and (or
// ?untagged=true) together with the compiled WHERE clause
func (h *Handlers) QueryPhotos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	tagIDs, err := parseIDs(q.Get("tags"))
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	untagged, _ := strconv.ParseBool(q.Get("untagged"))

	term, err := h.buildTerm(r.Context(), tagIDs, q.Get("op"), untagged)
	if err != nil {
		writeTermError(w, err)
		return
	}
	where, err := whereClause(term)
	if err != nil {
		writeTermError(w, err)
		return
	}

	photos, err := h.db.QueryPhotos(r.Context(), term)
	if err != nil {
		log.Error("querying photos for %s: %v", term, err)
		writeJSONError(w, "Failed to query photos", http.StatusInternalServerError)
		return
	}
	if photos == nil {
		photos = []database.Photo{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, PhotoQueryResponse{Query: term.String(), SQL: where, Photos: photos})
}

// ListTags returns all tags
func (h *Handlers) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.db.ListTags(r.Context())
	if err != nil {
		writeJSONError(w, "Failed to get tags", http.StatusInternalServerError)
		return
	}
	if tags == nil {
		tags = []database.Tag{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, tags)
}

// buildTerm combines the given tags with op ("or" when empty). Categories
// expand to their descendants. untagged ORs in photos without any tag.
func (h *Handlers) buildTerm(ctx context.Context, tagIDs []int64, op string, untagged bool) (query.Term, error) {
	if len(tagIDs) == 0 && !untagged {
		return nil, fmt.Errorf("%w: tags or untagged is required", errBadQuery)
	}

	var terms []query.Term
	if len(tagIDs) > 0 {
		tree, err := h.db.LoadTagTree(ctx)
		if err != nil {
			return nil, err
		}
		for _, id := range tagIDs {
			tag, ok := tree[id]
			if !ok {
				return nil, fmt.Errorf("%w: unknown tag %d", errBadQuery, id)
			}
			terms = append(terms, query.ForTag(tag))
		}
	}

	var term query.Term
	switch strings.ToLower(op) {
	case "", "or":
		term = query.Or(terms...)
	case "and":
		term = query.And(terms...)
	default:
		return nil, fmt.Errorf("%w: op must be \"or\" or \"and\"", errBadQuery)
	}

	if untagged {
		term = query.Or(term, query.Untagged{})
	}
	return term, nil
}

func whereClause(term query.Term) (string, error) {
	where, err := query.Where(term)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errBadQuery, err)
	}
	return where, nil
}

func writeTermError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBadQuery) {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Error("building tag query: %v", err)
	writeJSONError(w, "Failed to load tags", http.StatusInternalServerError)
}

func parseIDs(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid tag id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
