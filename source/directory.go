package source

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// ImageFile is a still image found in a directory.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Frame is the frame number parsed from a frame-<n> file name, or the
	// position in lexical order when the name has no number.
	Frame int
}

// ListImageFiles finds the image files (.jpg, .jpeg, .png, .bmp) in dir,
// ordered by frame number. Files named frame-<n>.<ext> sort by n; the rest
// follow in lexical order.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: The files in playback order.
// - error: Error if the directory cannot be read.
func ListImageFiles(dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read directory %s", dir)
	}

	var numbered, named []ImageFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		switch ext {
		case ".jpg", ".jpeg", ".png", ".bmp":
		default:
			continue
		}
		path := filepath.Join(dir, entry.Name())
		base := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if n, err := strconv.Atoi(strings.TrimPrefix(base, "frame-")); err == nil {
			numbered = append(numbered, ImageFile{Path: path, Frame: n})
			continue
		}
		named = append(named, ImageFile{Path: path})
	}

	sort.SliceStable(numbered, func(i, j int) bool {
		return numbered[i].Frame < numbered[j].Frame
	})
	// os.ReadDir already returns entries sorted by name.
	next := 0
	if len(numbered) > 0 {
		next = numbered[len(numbered)-1].Frame + 1
	}
	for i := range named {
		named[i].Frame = next + i
	}
	return append(numbered, named...), nil
}

// Directory plays the still images of a directory as frames.
type Directory struct {
	mu     sync.Mutex
	files  []ImageFile
	pos    int
	loop   bool
	closed bool
}

// NewDirectory lists dir. With loop set, playback restarts after the last
// image instead of ending the stream.
func NewDirectory(dir string, loop bool) (*Directory, error) {
	files, err := ListImageFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no images in %s", dir)
	}
	return &Directory{files: files, loop: loop}, nil
}

// Files returns the images in playback order.
func (d *Directory) Files() []ImageFile {
	return append([]ImageFile(nil), d.files...)
}

// Read decodes the next image.
func (d *Directory) Read(ctx context.Context) (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.pos >= len(d.files) {
		if !d.loop {
			return nil, ErrEndOfStream
		}
		d.pos = 0
	}
	f := d.files[d.pos]
	d.pos++

	img, err := imaging.Open(f.Path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", f.Path)
	}
	return img, nil
}

// Close ends playback.
func (d *Directory) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}
