// Package artifact saves the reference and final snapshots of a session as PNG
// files and fingerprints them with a perceptual hash.
package artifact

import (
	"context"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/corona10/goimagehash"

	apperrors "github.com/GriffinCanCode/regionwatch/internal/errors"
	"github.com/GriffinCanCode/regionwatch/internal/trace"
)

// Artifact is one saved snapshot.
type Artifact struct {
	Path string
	Hash *goimagehash.ImageHash
}

// Store writes artifacts under a single directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a store rooted at dir. The directory is created on first save.
func NewStore(dir string, logger *slog.Logger) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger}
}

// Dir returns the output directory.
func (s *Store) Dir() string { return s.dir }

// Save encodes img as PNG to dir/name, replacing any previous file.
func (s *Store) Save(ctx context.Context, name string, img image.Image) (Artifact, error) {
	ctx, span := trace.StartSpan(ctx, "artifact_save")
	defer span.End()
	span.SetAttr("name", name)
	log := trace.Logger(ctx, s.logger)

	if img == nil || img.Bounds().Empty() {
		return Artifact{}, apperrors.New(apperrors.InvalidArgument, "no image to save").WithMetadata("name", name)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Artifact{}, apperrors.Wrapf(err, apperrors.ArtifactWriteFailed, "create %s", s.dir)
	}

	path := filepath.Join(s.dir, name)
	if err := writePNG(path, img); err != nil {
		return Artifact{}, err
	}

	a := Artifact{Path: path}
	// a failed fingerprint does not fail the save
	if hash, err := goimagehash.PerceptionHash(img); err != nil {
		log.Debug("perceptual hash failed", "path", path, "error", err)
	} else {
		a.Hash = hash
	}

	log.Info("snapshot saved", "path", path, "phash", a.HashString(), "span", span)
	return a, nil
}

// HashString returns the hash in goimagehash's string form, or "".
func (a Artifact) HashString() string {
	if a.Hash == nil {
		return ""
	}
	return a.Hash.ToString()
}

// Distance is the Hamming distance between two artifact fingerprints.
func Distance(a, b Artifact) (int, error) {
	if a.Hash == nil || b.Hash == nil {
		return 0, apperrors.New(apperrors.InvalidArgument, "artifact has no fingerprint")
	}
	return a.Hash.Distance(b.Hash)
}

// writePNG writes through a temp file so a crash never leaves a truncated image.
func writePNG(path string, img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.png")
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ArtifactWriteFailed, "create temp for %s", path)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return apperrors.Wrapf(err, apperrors.ArtifactWriteFailed, "encode %s", path)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrapf(err, apperrors.ArtifactWriteFailed, "close %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return apperrors.Wrapf(err, apperrors.ArtifactWriteFailed, "rename to %s", path)
	}
	return nil
}
