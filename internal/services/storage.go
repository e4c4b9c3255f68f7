package services

import (
	"context"

	"github.com/localnerve/recordsdb/internal/collection"
	"github.com/localnerve/recordsdb/internal/derive"
	"github.com/localnerve/recordsdb/internal/models"
)

// StorageView is a storage location with its progress bar rendering.
type StorageView struct {
	models.StorageLocation
	CapacityLabel string `json:"capacity_label"`
	Utilization   string `json:"utilization"`
}

// ViewStorage derives the rendering of one location.
func ViewStorage(loc models.StorageLocation) StorageView {
	return StorageView{
		StorageLocation: loc,
		CapacityLabel:   derive.CapacityLabel(loc.CapacityPercentage.Int()),
		Utilization:     derive.UtilizationClass(loc.CapacityPercentage.Int()),
	}
}

// ListStorage returns the storage locations of an organization, newest
// first.
func ListStorage(ctx context.Context, hub *collection.Hub, orgID string) ([]StorageView, error) {
	locs := collection.New[models.StorageLocation](hub)
	if err := locs.Load(ctx, orgID); err != nil {
		return nil, err
	}
	items := locs.Items()
	out := make([]StorageView, len(items))
	for i, loc := range items {
		out[i] = ViewStorage(loc)
	}
	return out, nil
}
