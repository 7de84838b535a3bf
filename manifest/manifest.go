// Package manifest describes a committed image in a compact msgpack record
// stored beside the published image.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/ffpkg/iox"
	"github.com/pithecene-io/ffpkg/types"
)

// Type is the discriminant carried by every encoded manifest.
const Type = "ffpkg_manifest"

// Suffix is appended to the image file name to name its manifest.
const Suffix = ".manifest"

// Manifest describes one committed image.
type Manifest struct {
	Type       string             `msgpack:"type" json:"type"`
	Version    string             `msgpack:"version" json:"version"`
	BuildID    string             `msgpack:"build_id" json:"build_id"`
	Name       string             `msgpack:"name" json:"name"`
	SourceDir  string             `msgpack:"source_dir" json:"source_dir"`
	ToolArgs   []string           `msgpack:"tool_args" json:"tool_args"`
	Estimate   types.SizeEstimate `msgpack:"estimate" json:"estimate"`
	ImageBytes int64              `msgpack:"image_bytes" json:"image_bytes"`
	SHA256     string             `msgpack:"sha256" json:"sha256"`
	CreatedAt  time.Time          `msgpack:"created_at" json:"created_at"`
}

// DecodeError reports a payload that is not a valid manifest.
type DecodeError struct {
	Msg string
	Err error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// typeProbe is used to peek at the type field without full decode.
type typeProbe struct {
	Type string `msgpack:"type"`
}

// FromResult builds the manifest for a committed build, hashing the image
// at result.FinalPath.
func FromResult(result *types.BuildResult, createdAt time.Time) (*Manifest, error) {
	if result == nil {
		return nil, errors.New("manifest: nil build result")
	}

	sum, size, err := HashFile(result.FinalPath)
	if err != nil {
		return nil, err
	}

	m := &Manifest{
		Type:       Type,
		Version:    types.ContractVersion,
		BuildID:    result.BuildID,
		Name:       filepath.Base(result.FinalPath),
		ToolArgs:   append([]string(nil), result.Invocation.Args...),
		Estimate:   result.Estimate,
		ImageBytes: size,
		SHA256:     sum,
		CreatedAt:  createdAt.UTC(),
	}
	if result.Request != nil {
		m.SourceDir = result.Request.SourceDir
	}
	return m, nil
}

// HashFile streams path through SHA-256 and returns the hex digest and size.
func HashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, types.NewError(types.ErrIO, "open", path, err)
	}
	defer iox.DiscardClose(f)

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, types.NewError(types.ErrIO, "read", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// Encode serializes m with msgpack.
func Encode(m *Manifest) ([]byte, error) {
	if m.Type == "" {
		m.Type = Type
	}
	data, err := msgpack.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return data, nil
}

// Decode parses a msgpack manifest and rejects foreign payloads.
func Decode(payload []byte) (*Manifest, error) {
	var probe typeProbe
	if err := msgpack.Unmarshal(payload, &probe); err != nil {
		return nil, &DecodeError{Msg: "failed to decode manifest type", Err: err}
	}
	if probe.Type != Type {
		return nil, &DecodeError{Msg: fmt.Sprintf("unexpected payload type %q", probe.Type)}
	}

	var m Manifest
	if err := msgpack.Unmarshal(payload, &m); err != nil {
		return nil, &DecodeError{Msg: "failed to decode manifest", Err: err}
	}
	return &m, nil
}

// Verify re-hashes the image at path and compares it with the manifest.
func (m *Manifest) Verify(path string) error {
	sum, size, err := HashFile(path)
	if err != nil {
		return err
	}
	if size != m.ImageBytes {
		return fmt.Errorf("image size %d does not match manifest size %d", size, m.ImageBytes)
	}
	if sum != m.SHA256 {
		return fmt.Errorf("image digest %s does not match manifest digest %s", sum, m.SHA256)
	}
	return nil
}
