package lode

import (
	"context"
	"errors"
	"fmt"

	"github.com/justapithecus/lode/lode"
)

// ErrNoBuildsFound is returned when no build record matches a query.
var ErrNoBuildsFound = errors.New("no build records found")

// BuildFilter narrows a build record query. Empty fields match everything.
type BuildFilter struct {
	Source  string
	BuildID string
	// Limit caps the number of records returned. Zero means no limit.
	Limit int
}

// partitions returns the filter as partition values for pre-filtering.
func (f BuildFilter) partitions() map[string]string {
	want := make(map[string]string, 2)
	if f.Source != "" {
		want["source"] = f.Source
	}
	if f.BuildID != "" {
		want["build_id"] = f.BuildID
	}
	return want
}

func (f BuildFilter) matches(record map[string]any) bool {
	return (f.Source == "" || toString(record["source"]) == f.Source) &&
		(f.BuildID == "" || toString(record["build_id"]) == f.BuildID)
}

// QueryBuilds reads build records from the dataset, newest first.
// An empty dataset yields an empty slice, not an error.
func QueryBuilds(ctx context.Context, ds lode.Dataset, f BuildFilter) ([]map[string]any, error) {
	snapshots, err := ds.Snapshots(ctx)
	if err != nil {
		return nil, WrapReadError(err, DefaultDataset+"/snapshots")
	}

	want := f.partitions()
	var records []map[string]any
	// Snapshots are ordered by creation time.
	for i := len(snapshots) - 1; i >= 0; i-- {
		snap := snapshots[i]

		if !snapshotHasPartition(snap, want) {
			continue
		}

		data, err := ds.Read(ctx, snap.ID)
		if err != nil {
			return nil, WrapReadError(err, fmt.Sprintf("%s/snapshot/%s", DefaultDataset, snap.ID))
		}

		// Partition paths are a coarse pre-filter; record fields decide.
		for _, item := range data {
			record, ok := item.(map[string]any)
			if !ok || record["record_kind"] != RecordKindBuild {
				continue
			}
			if !f.matches(record) {
				continue
			}
			records = append(records, record)
			if f.Limit > 0 && len(records) >= f.Limit {
				return records, nil
			}
		}
	}
	return records, nil
}

// QueryBuild returns the record of one build, or ErrNoBuildsFound.
func QueryBuild(ctx context.Context, ds lode.Dataset, buildID string) (map[string]any, error) {
	records, err := QueryBuilds(ctx, ds, BuildFilter{BuildID: buildID, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("build %s: %w", buildID, ErrNoBuildsFound)
	}
	return records[0], nil
}

// toString converts a value to string, returning empty string for nil/non-string.
func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
