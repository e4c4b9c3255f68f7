package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/localnerve/recordsdb/internal/collection"
	"github.com/localnerve/recordsdb/internal/models"
	"github.com/localnerve/recordsdb/internal/store"
	"github.com/localnerve/recordsdb/internal/types"
)

// ListDocumentTypes returns the document types with the given destination
// whose code, name, family or species contains query. Empty arguments do not
// filter.
func ListDocumentTypes(ctx context.Context, hub *collection.Hub, destination, query string) ([]models.DocumentType, error) {
	switch destination {
	case "", models.DestinationElimination, models.DestinationPermanent:
	default:
		return nil, types.Validation("destination", "must be Eliminação or Guarda Permanente")
	}

	docs := collection.New[models.DocumentType](hub)
	if err := docs.Load(ctx, ""); err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]models.DocumentType, 0)
	for _, d := range docs.Items() {
		if destination != "" && d.Destination != destination {
			continue
		}
		if query != "" && !matches(d, query) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func matches(d models.DocumentType, query string) bool {
	for _, field := range []string{d.Code, d.Name, d.Family, d.Species} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// SeedDocumentTypes inserts the document types of a JSON array that are not
// stored yet, matched by code. It returns how many were inserted.
func SeedDocumentTypes(ctx context.Context, st *store.Store, raw []byte) (int, error) {
	var seed []models.DocumentType
	if err := json.Unmarshal(raw, &seed); err != nil {
		return 0, fmt.Errorf("decode document types: %w", err)
	}
	codes := make([]string, len(seed))
	for i, d := range seed {
		codes[i] = d.Code
	}
	existing, err := store.Select[models.DocumentType](ctx, st, store.Filter{"code": codes})
	if err != nil {
		return 0, err
	}
	known := make(map[string]bool, len(existing))
	for _, d := range existing {
		known[d.Code] = true
	}

	inserted := 0
	for _, d := range seed {
		if known[d.Code] {
			continue
		}
		d.ID = ""
		if _, err := store.Insert(ctx, st, d); err != nil {
			return inserted, fmt.Errorf("seed %s: %w", d.Code, err)
		}
		known[d.Code] = true
		inserted++
	}
	return inserted, nil
}
