// Package filesystem reads a Markdown corpus from a local directory tree.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/custodia-labs/mdindex/internal/core/domain"
	"github.com/custodia-labs/mdindex/internal/core/ports/driven"
	"github.com/custodia-labs/mdindex/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.CorpusSource = (*Connector)(nil)

// Connector walks a directory and reads every file with a Markdown extension.
// Hidden files and directories (any path element starting with ".") are ignored.
type Connector struct {
	extensions map[string]struct{}
	log        *logrus.Entry
}

// Option configures a Connector.
type Option func(*Connector)

// WithExtensions replaces the accepted file extensions. Matching ignores case
// and a missing leading dot is added. An empty list keeps the defaults.
func WithExtensions(exts ...string) Option {
	return func(c *Connector) {
		if len(exts) == 0 {
			return
		}
		c.extensions = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			c.extensions[ext] = struct{}{}
		}
	}
}

// New creates a filesystem connector.
func New(opts ...Option) *Connector {
	c := &Connector{log: logger.WithComponent("filesystem")}
	WithExtensions(domain.DefaultSettings().Index.Extensions...)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load reads every Markdown file under root.
// Files that cannot be read are reported as skipped rather than failing the
// load. Documents are returned sorted by path.
func (c *Connector) Load(ctx context.Context, root string) ([]domain.RawDocument, []domain.SkippedFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("corpus root %s: %w", root, domain.ErrNotFound)
		}
		return nil, nil, fmt.Errorf("corpus root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%w: corpus root %s is not a directory", domain.ErrInvalidInput, root)
	}

	var docs []domain.RawDocument
	var skipped []domain.SkippedFile

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, relErr := relPath(root, path)
		if relErr != nil {
			return relErr
		}

		if walkErr != nil {
			if path == root {
				return walkErr
			}
			c.log.WithField("path", rel).Warnf("skipping unreadable entry: %v", walkErr)
			skipped = append(skipped, domain.SkippedFile{Path: rel, Reason: walkErr.Error()})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path != root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !c.accepts(path) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			c.log.WithField("path", rel).Warnf("skipping unreadable file: %v", err)
			skipped = append(skipped, domain.SkippedFile{Path: rel, Reason: err.Error()})
			return nil
		}

		doc := domain.RawDocument{Path: rel, Content: content}
		if fi, err := d.Info(); err == nil {
			doc.ModifiedAt = fi.ModTime().UTC()
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	c.log.WithFields(logrus.Fields{"root": root, "files": len(docs), "skipped": len(skipped)}).Debug("loaded corpus")

	return docs, skipped, nil
}

// Watch reports changes to Markdown files under root until ctx is done.
// New directories are watched as they appear. The returned channel is closed
// when watching stops.
func (c *Connector) Watch(ctx context.Context, root string) (<-chan domain.Change, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	if err := c.addRecursive(watcher, root); err != nil {
		watcher.Close()
		return nil, err
	}

	changes := make(chan domain.Change)

	go func() {
		defer close(changes)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				change := c.handleFsEvent(watcher, root, event)
				if change == nil {
					continue
				}
				select {
				case changes <- *change:
				case <-ctx.Done():
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.log.Warnf("watch error: %v", err)
			}
		}
	}()

	return changes, nil
}

// addRecursive watches dir and every non-hidden directory below it.
func (c *Connector) addRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// handleFsEvent maps a filesystem event to a corpus change, or nil if the
// event is irrelevant.
func (c *Connector) handleFsEvent(watcher *fsnotify.Watcher, root string, event fsnotify.Event) *domain.Change {
	rel, err := relPath(root, event.Name)
	if err != nil || isHidden(rel) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// The path is gone, so it cannot be checked for being a directory.
		if !c.accepts(event.Name) && filepath.Ext(event.Name) != "" {
			return nil
		}
		return &domain.Change{Type: domain.ChangeDeleted, Path: rel}

	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if watcher != nil {
				if err := c.addRecursive(watcher, event.Name); err != nil {
					c.log.WithField("path", rel).Warnf("cannot watch new directory: %v", err)
				}
			}
			return &domain.Change{Type: domain.ChangeCreated, Path: rel}
		}
		if !c.accepts(event.Name) {
			return nil
		}
		return &domain.Change{Type: domain.ChangeCreated, Path: rel}

	case event.Has(fsnotify.Write):
		if !c.accepts(event.Name) {
			return nil
		}
		return &domain.Change{Type: domain.ChangeUpdated, Path: rel}
	}

	return nil
}

// accepts reports whether path has one of the configured extensions.
func (c *Connector) accepts(path string) bool {
	_, ok := c.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// relPath returns path relative to root with forward slashes.
func relPath(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
