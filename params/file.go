package params

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML parameter file. Keys that are missing keep their
// default value and the result is clamped.
func LoadFile(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, errors.Wrapf(err, "read params %s", path)
	}
	return Parse(data)
}

// Parse decodes a YAML (or JSON) parameter document on top of Defaults.
func Parse(data []byte) (Set, error) {
	set := Defaults()
	if err := yaml.Unmarshal(data, &set); err != nil {
		return Set{}, errors.Wrap(err, "decode params")
	}
	return set.Clamp(), nil
}

// Marshal encodes set as YAML.
func Marshal(set Set) ([]byte, error) {
	data, err := yaml.Marshal(set)
	return data, errors.Wrap(err, "encode params")
}

// SaveFile writes set as YAML.
func SaveFile(path string, set Set) error {
	data, err := Marshal(set)
	if err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "write params %s", path)
}

// Watch loads path into store and reloads it every time the file changes
// until ctx is done. Files that fail to parse are logged and skipped; the
// store keeps its last good value.
//
// The parent directory is watched rather than the file so editors that
// replace the file on save are picked up too.
//
// Arguments:
//   - ctx: Stops the watch when cancelled.
//   - path: The YAML parameter file.
//   - store: Receives every successfully parsed set.
//   - logger: Reports reloads and parse failures.
//
// Returns:
//   - error: nil when ctx ends, or the error that prevented watching.
func Watch(ctx context.Context, path string, store *Store, logger *zap.SugaredLogger) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(err, "resolve params path")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create params watcher")
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return errors.Wrapf(err, "watch %s", filepath.Dir(abs))
	}

	reload := func() {
		set, err := LoadFile(abs)
		if err != nil {
			logger.Warnw("params reload failed", "path", abs, "error", err)
			return
		}
		store.Replace(set)
		logger.Infow("params reloaded", "path", abs, "params", set.Values())
	}
	if _, err := os.Stat(abs); err == nil {
		reload()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnw("params watcher error", "error", err)
		}
	}
}
