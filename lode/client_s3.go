package lode

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/justapithecus/lode/lode"
	lodes3 "github.com/justapithecus/lode/lode/s3"
)

// S3Config locates the publish store in a bucket.
// Credentials always come from the AWS default chain.
type S3Config struct {
	Bucket string
	// Prefix is prepended to every key, without leading or trailing slash.
	Prefix string
	// Region overrides the region from the environment.
	Region string
	// Endpoint targets an S3-compatible provider (MinIO, R2), e.g.
	// "http://localhost:9000". Empty means AWS.
	Endpoint string
	// UsePathStyle puts the bucket in the path instead of the host name.
	// Most self-hosted providers need it.
	UsePathStyle bool
}

// bucketName is the S3 bucket naming rule: 3-63 chars of lowercase
// letters, digits, dots and hyphens, starting and ending alphanumeric.
var bucketName = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

// S3ConfigFromPath splits "bucket/prefix" (optionally "s3://bucket/prefix")
// into bucket and prefix. The result is not validated.
func S3ConfigFromPath(path string) S3Config {
	path = strings.TrimPrefix(path, "s3://")
	bucket, prefix, _ := strings.Cut(path, "/")
	return S3Config{Bucket: bucket, Prefix: strings.Trim(prefix, "/")}
}

// Validate rejects a missing or malformed bucket and a non-http endpoint.
func (c *S3Config) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("S3 bucket is required")
	}
	if !bucketName.MatchString(c.Bucket) || strings.Contains(c.Bucket, "..") {
		return fmt.Errorf("invalid S3 bucket name %q", c.Bucket)
	}
	if c.Endpoint != "" {
		u, err := url.Parse(c.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid S3 endpoint %q: want http(s)://host[:port]", c.Endpoint)
		}
	}
	return nil
}

// clientOptions maps the endpoint and addressing overrides onto s3.Options.
func (c *S3Config) clientOptions() []func(*s3.Options) {
	var opts []func(*s3.Options)
	if c.Endpoint != "" {
		endpoint := c.Endpoint
		opts = append(opts, func(o *s3.Options) { o.BaseEndpoint = &endpoint })
	}
	if c.UsePathStyle {
		opts = append(opts, func(o *s3.Options) { o.UsePathStyle = true })
	}
	return opts
}

func newS3Client(ctx context.Context, c S3Config) (*s3.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if c.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(c.Region))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return s3.NewFromConfig(awsConfig, c.clientOptions()...), nil
}

// S3Factory returns a store factory for the bucket. Publishing and the
// history reader share it. No request is made until the store is used.
func S3Factory(ctx context.Context, c S3Config) (lode.StoreFactory, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	client, err := newS3Client(ctx, c)
	if err != nil {
		return nil, err
	}
	storeCfg := lodes3.Config{Bucket: c.Bucket, Prefix: c.Prefix}
	return func() (lode.Store, error) {
		return lodes3.New(client, storeCfg)
	}, nil
}

// NewS3Publisher returns a publisher writing to the bucket.
func NewS3Publisher(ctx context.Context, cfg Config, c S3Config) (*Publisher, error) {
	factory, err := S3Factory(ctx, c)
	if err != nil {
		return nil, WrapInitError(err, "s3://"+c.Bucket)
	}
	p, err := NewPublisherWithFactory(cfg, factory)
	if err != nil {
		return nil, err
	}
	p.backend = BackendS3
	return p, nil
}
