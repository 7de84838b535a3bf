// Package lode publishes committed images, their manifests and build records
// into a Lode store.
//
// Records are JSONL in a Hive layout (source/day/build_id). Image and
// manifest files land under the same partition's files/ prefix, bypassing
// the Dataset segment machinery.
package lode

import (
	"fmt"
	"strings"
	"time"

	"github.com/justapithecus/lode/lode"
)

// DefaultDataset is the dataset ID all ffpkg records are written to.
const DefaultDataset = "ffpkg"

// partitionKeys is the Hive layout shared by the write and read paths.
var partitionKeys = []string{"source", "day", "build_id"}

// DeriveDay is the day partition of a build started at t, YYYY-MM-DD in UTC.
func DeriveDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// NewReadDataset opens dataset for the history reader with the codec and
// layout the publisher writes.
func NewReadDataset(dataset string, factory lode.StoreFactory) (lode.Dataset, error) {
	return newDataset(dataset, factory)
}

func newDataset(dataset string, factory lode.StoreFactory) (lode.Dataset, error) {
	ds, err := lode.NewDataset(
		lode.DatasetID(dataset),
		factory,
		lode.WithHiveLayout(partitionKeys...),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Lode dataset: %w", err)
	}
	return ds, nil
}

// partitionValues parses the key=value segments of a Hive path.
func partitionValues(path string) map[string]string {
	values := make(map[string]string)
	for _, seg := range strings.Split(path, "/") {
		if k, v, ok := strings.Cut(seg, "="); ok && k != "" {
			values[k] = v
		}
	}
	return values
}

// snapshotHasPartition reports whether some file of snap lies under all
// wanted partition values. An empty want matches every snapshot.
func snapshotHasPartition(snap *lode.DatasetSnapshot, want map[string]string) bool {
	if len(want) == 0 {
		return true
	}
	for _, f := range snap.Manifest.Files {
		if pathHasPartition(f.Path, want) {
			return true
		}
	}
	return false
}

// pathHasPartition compares values whole, so source=game1 never matches
// source=game10.
func pathHasPartition(path string, want map[string]string) bool {
	got := partitionValues(path)
	for k, v := range want {
		if gv, ok := got[k]; !ok || gv != v {
			return false
		}
	}
	return true
}
