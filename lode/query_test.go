package lode

import (
	"errors"
	"testing"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/ffpkg/metrics"
)

// publishTo writes one build into store under the given partition.
func publishTo(t *testing.T, store lode.Store, source, buildID string) {
	t.Helper()
	cfg := Config{Dataset: DefaultDataset, Source: source, Day: "2026-02-03", BuildID: buildID}
	p, err := NewPublisherWithFactory(cfg, sharedFactory(store))
	if err != nil {
		t.Fatalf("NewPublisherWithFactory: %v", err)
	}
	m, path := testManifest(t, "image-"+buildID)
	snap := metrics.Snapshot{BuildID: buildID, DurationMillis: 1200}
	if err := p.Publish(t.Context(), path, m, snap, time.Date(2026, 2, 3, 11, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Publish %s: %v", buildID, err)
	}
}

func TestQueryBuilds(t *testing.T) {
	store := lode.NewMemory()
	publishTo(t, store, "game1", "b-1")
	publishTo(t, store, "game10", "b-2")
	publishTo(t, store, "game1", "b-3")

	ds, err := NewReadDataset(DefaultDataset, sharedFactory(store))
	if err != nil {
		t.Fatalf("NewReadDataset: %v", err)
	}

	tests := []struct {
		name   string
		filter BuildFilter
		want   []string
	}{
		{name: "all newest first", filter: BuildFilter{}, want: []string{"b-3", "b-2", "b-1"}},
		{name: "source exact match", filter: BuildFilter{Source: "game1"}, want: []string{"b-3", "b-1"}},
		{name: "build id", filter: BuildFilter{BuildID: "b-2"}, want: []string{"b-2"}},
		{name: "limit", filter: BuildFilter{Limit: 2}, want: []string{"b-3", "b-2"}},
		{name: "no match", filter: BuildFilter{Source: "game2"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := QueryBuilds(t.Context(), ds, tt.filter)
			if err != nil {
				t.Fatalf("QueryBuilds: %v", err)
			}
			var got []string
			for _, r := range records {
				got = append(got, toString(r["build_id"]))
			}
			if len(got) != len(tt.want) {
				t.Fatalf("build ids = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("build ids = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestQueryBuild(t *testing.T) {
	store := lode.NewMemory()
	publishTo(t, store, "game1", "b-1")

	ds, err := NewReadDataset(DefaultDataset, sharedFactory(store))
	if err != nil {
		t.Fatalf("NewReadDataset: %v", err)
	}

	record, err := QueryBuild(t.Context(), ds, "b-1")
	if err != nil {
		t.Fatalf("QueryBuild: %v", err)
	}
	if record["source"] != "game1" || record["name"] != "game1.ffpkg" {
		t.Errorf("record = %v", record)
	}

	_, err = QueryBuild(t.Context(), ds, "b-9")
	if !errors.Is(err, ErrNoBuildsFound) {
		t.Errorf("missing build: err = %v, want ErrNoBuildsFound", err)
	}
}

func TestQueryBuilds_EmptyDataset(t *testing.T) {
	ds, err := NewReadDataset(DefaultDataset, sharedFactory(lode.NewMemory()))
	if err != nil {
		t.Fatalf("NewReadDataset: %v", err)
	}
	records, err := QueryBuilds(t.Context(), ds, BuildFilter{})
	if err != nil {
		t.Fatalf("QueryBuilds: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records = %v, want none", records)
	}
}

func TestPartitionValues(t *testing.T) {
	got := partitionValues("datasets/ffpkg/partitions/source=game1/day=2026-02-03/build_id=b-1/files/game1.ffpkg")
	want := map[string]string{"source": "game1", "day": "2026-02-03", "build_id": "b-1"}
	if len(got) != len(want) {
		t.Fatalf("partitionValues = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
}

func TestPathHasPartition(t *testing.T) {
	const path = "datasets/ffpkg/partitions/source=game1/day=2026-02-03/build_id=b-2/data.jsonl"

	tests := []struct {
		name string
		want map[string]string
		ok   bool
	}{
		{"no filter", nil, true},
		{"exact source", map[string]string{"source": "game1"}, true},
		{"prefix is not a match", map[string]string{"source": "game"}, false},
		{"longer value is not a match", map[string]string{"source": "game10"}, false},
		{"source and build", map[string]string{"source": "game1", "build_id": "b-2"}, true},
		{"other build", map[string]string{"source": "game1", "build_id": "b-1"}, false},
		{"unknown key", map[string]string{"region": "eu"}, false},
	}
	for _, tt := range tests {
		if got := pathHasPartition(path, tt.want); got != tt.ok {
			t.Errorf("%s: pathHasPartition = %v, want %v", tt.name, got, tt.ok)
		}
	}
}
