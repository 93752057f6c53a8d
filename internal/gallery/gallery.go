// Package gallery loads enrolled reference faces from a directory.
//
// Every supported image file in the directory is one identity; its label is
// the file's base name without extension. There is no index file.
package gallery

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kozaktomas/facegate/internal/constants"
	"github.com/kozaktomas/facegate/internal/facematch"
)

var (
	// ErrNotDirectory is returned when the gallery source exists but is not a directory.
	ErrNotDirectory = errors.New("gallery source is not a directory")
	// ErrDuplicateLabel marks a file whose label was already loaded; the later file wins.
	ErrDuplicateLabel = errors.New("duplicate label")
	// ErrEmptyLabel marks a file whose name yields no label (e.g. ".jpg").
	ErrEmptyLabel = errors.New("empty label")
)

var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// SupportedExtension reports whether name has an image extension the gallery loads.
func SupportedExtension(name string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(name))]
}

// Warning describes one gallery file that was skipped or replaced.
type Warning struct {
	Path string
	Err  error
}

func (w Warning) Error() string {
	return fmt.Sprintf("%s: %v", w.Path, w.Err)
}

// Progress receives load progress. *progressbar.ProgressBar satisfies it.
type Progress interface {
	ChangeMax(max int)
	Add(num int) error
}

type options struct {
	logger   *slog.Logger
	progress Progress
}

// Option configures Load.
type Option func(*options)

// WithLogger sets the logger used for per-file warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithProgress reports the number of candidate files and each processed file.
func WithProgress(p Progress) Option {
	return func(o *options) {
		o.progress = p
	}
}

// Gallery is an immutable, ordered set of enrolled identities.
type Gallery struct {
	dir        string
	identities []facematch.Identity
}

// New builds a gallery from already decoded identities. Used by tests and tools
// that enrol from somewhere other than a directory.
func New(identities ...facematch.Identity) *Gallery {
	return &Gallery{identities: slices.Clone(identities)}
}

// Load reads every supported image in dir, in lexical file name order.
//
// A missing dir is not an error: the gallery is simply empty and every
// observation will be rejected. A file that fails to decode is skipped and
// reported as a Warning. When two files produce the same label the later file
// replaces the earlier one in place and a Warning is reported.
func Load(dir string, opts ...Option) (*Gallery, []Warning, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	g := &Gallery{dir: dir}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		o.logger.Warn("gallery directory not found, all observations will be rejected", "dir", dir)
		return g, nil, nil
	}
	if err != nil {
		if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
			return nil, nil, fmt.Errorf("%s: %w", dir, ErrNotDirectory)
		}
		return nil, nil, fmt.Errorf("reading gallery directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !SupportedExtension(e.Name()) {
			continue
		}
		files = append(files, e.Name())
	}
	if o.progress != nil {
		o.progress.ChangeMax(len(files))
	}

	var warnings []Warning
	warn := func(path string, err error) {
		warnings = append(warnings, Warning{Path: path, Err: err})
		o.logger.Warn("gallery image skipped", "path", path, "error", err)
	}

	index := make(map[string]int)
	for _, name := range files {
		path := filepath.Join(dir, name)
		if o.progress != nil {
			_ = o.progress.Add(1)
		}

		label := facematch.LabelFromFilename(name)
		if label == "" {
			warn(path, ErrEmptyLabel)
			continue
		}

		ref, err := loadImage(path)
		if err != nil {
			warn(path, err)
			continue
		}

		identity := facematch.Identity{Label: label, Reference: ref}
		if i, ok := index[label]; ok {
			g.identities[i] = identity
			warnings = append(warnings, Warning{Path: path, Err: ErrDuplicateLabel})
			o.logger.Warn("duplicate gallery label, later file wins", "label", label, "path", path)
			continue
		}
		index[label] = len(g.identities)
		g.identities = append(g.identities, identity)
		o.logger.Debug("loaded face", "label", label, "path", path)
	}

	o.logger.Info("gallery loaded", "dir", dir, "identities", len(g.identities), "warnings", len(warnings))
	return g, warnings, nil
}

func loadImage(path string) (facematch.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return facematch.Image{}, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, err := facematch.DecodeImage(f)
	if err != nil {
		return facematch.Image{}, err
	}
	return img.Fit(constants.MaxGalleryImageSize), nil
}

// Dir returns the directory the gallery was loaded from, empty for New.
func (g *Gallery) Dir() string {
	return g.dir
}

// Len returns the number of enrolled identities.
func (g *Gallery) Len() int {
	if g == nil {
		return 0
	}
	return len(g.identities)
}

// Identities returns the identities in gallery order.
// The slice must not be modified. A nil gallery has no identities.
func (g *Gallery) Identities() []facematch.Identity {
	if g == nil {
		return nil
	}
	return g.identities
}

// Labels returns the identity labels in gallery order.
func (g *Gallery) Labels() []string {
	ids := g.Identities()
	labels := make([]string, len(ids))
	for i, id := range ids {
		labels[i] = id.Label
	}
	return labels
}
