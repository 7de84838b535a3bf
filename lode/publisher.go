package lode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/ffpkg/iox"
	"github.com/pithecene-io/ffpkg/manifest"
	"github.com/pithecene-io/ffpkg/metrics"
)

// Config holds the partition keys for one published build.
// All keys are required.
type Config struct {
	// Dataset is the Lode dataset ID (normally DefaultDataset).
	Dataset string
	// Source is the image base name.
	Source string
	// Day is derived from the build start time (YYYY-MM-DD UTC).
	Day string
	// BuildID identifies the build.
	BuildID string
}

// Validate checks that every partition key is set and path-safe.
func (c Config) Validate() error {
	for _, kv := range [][2]string{
		{"dataset", c.Dataset}, {"source", c.Source}, {"day", c.Day}, {"build_id", c.BuildID},
	} {
		if kv[1] == "" {
			return fmt.Errorf("publish %s is required", kv[0])
		}
		if strings.ContainsAny(kv[1], `/\`) || kv[1] == ".." {
			return fmt.Errorf("publish %s %q must not contain path separators", kv[0], kv[1])
		}
	}
	return nil
}

// FilePath computes the Hive-partitioned path for a published file.
// Format: datasets/<dataset>/partitions/source=<s>/day=<d>/build_id=<b>/files/<filename>
func (c Config) FilePath(filename string) string {
	return fmt.Sprintf("datasets/%s/partitions/source=%s/day=%s/build_id=%s/files/%s",
		c.Dataset, c.Source, c.Day, c.BuildID, filename)
}

// Backend names reported by Publisher.Backend.
const (
	BackendFS     = "fs"
	BackendS3     = "s3"
	BackendCustom = "custom"
)

// Publisher copies a committed image, its manifest and a build record into
// a Lode store. Safe for sequential use; methods serialize on a mutex.
type Publisher struct {
	dataset lode.Dataset
	config  Config
	backend string

	storeFactory lode.StoreFactory
	storeOnce    sync.Once
	store        lode.Store
	storeErr     error

	mu sync.Mutex
}

// NewPublisher creates a publisher with filesystem storage rooted at root.
func NewPublisher(cfg Config, root string) (*Publisher, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, WrapInitError(err, root)
	}
	p, err := NewPublisherWithFactory(cfg, lode.NewFSFactory(root))
	if err != nil {
		return nil, err
	}
	p.backend = BackendFS
	return p, nil
}

// NewPublisherWithFactory creates a publisher with a custom store factory.
// Use lode.NewMemoryFactory() for testing.
func NewPublisherWithFactory(cfg Config, factory lode.StoreFactory) (*Publisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ds, err := newDataset(cfg.Dataset, factory)
	if err != nil {
		return nil, WrapInitError(err, cfg.Dataset)
	}
	return newPublisher(ds, cfg, factory), nil
}

func newPublisher(ds lode.Dataset, cfg Config, factory lode.StoreFactory) *Publisher {
	return &Publisher{
		dataset:      ds,
		config:       cfg,
		backend:      BackendCustom,
		storeFactory: factory,
	}
}

// Backend names the storage backend: "fs", "s3" or "custom".
func (p *Publisher) Backend() string {
	return p.backend
}

// Config returns the partition keys in use.
func (p *Publisher) Config() Config {
	return p.config
}

// getOrCreateStore lazily initializes the Store from the factory.
func (p *Publisher) getOrCreateStore() (lode.Store, error) {
	p.storeOnce.Do(func() {
		p.store, p.storeErr = p.storeFactory()
		if p.storeErr != nil {
			p.storeErr = WrapInitError(p.storeErr, p.config.Dataset)
		}
	})
	return p.store, p.storeErr
}

// PutImage streams the committed image at imagePath into the store and
// returns its store path.
func (p *Publisher) PutImage(ctx context.Context, imagePath, filename string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	store, err := p.getOrCreateStore()
	if err != nil {
		return "", err
	}

	f, err := os.Open(imagePath)
	if err != nil {
		return "", WrapReadError(err, imagePath)
	}
	defer iox.DiscardClose(f)

	path := p.config.FilePath(filename)
	if err := store.Put(ctx, path, f); err != nil {
		return "", WrapWriteError(err, path)
	}
	return path, nil
}

// PutManifest writes m as "<name>.manifest" beside the image.
func (p *Publisher) PutManifest(ctx context.Context, m *manifest.Manifest) (string, error) {
	data, err := manifest.Encode(m)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	store, err := p.getOrCreateStore()
	if err != nil {
		return "", err
	}

	path := p.config.FilePath(m.Name + manifest.Suffix)
	if err := store.Put(ctx, path, bytes.NewReader(data)); err != nil {
		return "", WrapWriteError(err, path)
	}
	return path, nil
}

// WriteRecord appends a build record to the dataset.
func (p *Publisher) WriteRecord(ctx context.Context, m *manifest.Manifest, snap metrics.Snapshot, publishedAt time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	record := toBuildRecordMap(m, snap, p.config, publishedAt)
	if _, err := p.dataset.Write(ctx, []any{record}, lode.Metadata{}); err != nil {
		return WrapWriteError(err, p.config.Dataset)
	}
	return nil
}

// Publish stores the image, then its manifest, then the build record.
// It stops at the first failure; files already stored are left in place.
func (p *Publisher) Publish(ctx context.Context, imagePath string, m *manifest.Manifest, snap metrics.Snapshot, publishedAt time.Time) error {
	if m == nil {
		return errors.New("publish: nil manifest")
	}
	if _, err := p.PutImage(ctx, imagePath, m.Name); err != nil {
		return fmt.Errorf("publish image: %w", err)
	}
	if _, err := p.PutManifest(ctx, m); err != nil {
		return fmt.Errorf("publish manifest: %w", err)
	}
	if err := p.WriteRecord(ctx, m, snap, publishedAt); err != nil {
		return fmt.Errorf("publish record: %w", err)
	}
	return nil
}

// Close releases publisher resources.
func (p *Publisher) Close() error {
	// Dataset and stores hold no resources in the current Lode API.
	return nil
}
