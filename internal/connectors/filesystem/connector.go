package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/logger"
)

// mimeByExtension maps knowledge-base file extensions to MIME types.
// The walk only surfaces these extensions; everything else is skipped.
var mimeByExtension = map[string]string{
	".md":   "text/markdown",
	".json": "application/json",
	".yaml": "text/yaml",
	".yml":  "text/yaml",
	".txt":  "text/plain",
}

var _ driven.Connector = (*Connector)(nil)

// Connector reads knowledge-base files from a local directory tree.
type Connector struct {
	sourceID string
	rootPath string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// New creates a filesystem connector rooted at rootPath. The path is
// not validated until Validate or a sync runs.
func New(sourceID, rootPath string) *Connector {
	return &Connector{
		sourceID: sourceID,
		rootPath: rootPath,
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return "filesystem"
}

// SourceID returns the configured source ID.
func (c *Connector) SourceID() string {
	return c.sourceID
}

// Capabilities returns what this connector supports.
func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsWatch:      true,
		SupportsValidation: true,
	}
}

// Validate checks the root path exists and is a readable directory.
func (c *Connector) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.checkRoot()
}

// checkRoot verifies the root path is an existing directory.
func (c *Connector) checkRoot() error {
	info, err := os.Stat(c.rootPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: root path %q does not exist", domain.ErrConnectorValidation, c.rootPath)
	}
	if err != nil {
		return fmt.Errorf("%w: root path %q: %v", domain.ErrConnectorValidation, c.rootPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: root path %q is not a directory", domain.ErrConnectorValidation, c.rootPath)
	}
	return nil
}

// FullSync walks the directory tree and streams every knowledge file.
// Per-file read failures are reported as *domain.RawDocumentError and do
// not stop the walk. Both channels close when the walk finishes; callers
// must consume both.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		if err := c.checkRoot(); err != nil {
			errs <- err
			return
		}

		logger.Debug("filesystem: walking %s", c.rootPath)

		walkErr := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			if err != nil {
				return c.sendError(ctx, errs, path, err)
			}

			rel, relErr := filepath.Rel(c.rootPath, path)
			if relErr != nil {
				rel = d.Name()
			}
			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if path != c.rootPath && isHidden(rel) {
					return fs.SkipDir
				}
				return nil
			}

			if !shouldIndex(rel) {
				return nil
			}

			raw, readErr := c.readDocument(path, rel)
			if readErr != nil {
				return c.sendError(ctx, errs, rel, readErr)
			}

			select {
			case docs <- *raw:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})

		if walkErr != nil && !errors.Is(walkErr, context.Canceled) && !errors.Is(walkErr, context.DeadlineExceeded) {
			errs <- fmt.Errorf("walk %s: %w", c.rootPath, walkErr)
		}
	}()

	return docs, errs
}

// sendError reports a per-file failure without aborting the walk.
func (c *Connector) sendError(ctx context.Context, errs chan<- error, path string, err error) error {
	docErr := &domain.RawDocumentError{
		SourceID: c.sourceID,
		Path:     path,
		Err:      err,
	}
	select {
	case errs <- docErr:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// readDocument reads one file into a raw document.
func (c *Connector) readDocument(path, rel string) (*domain.RawDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	filename := filepath.Base(path)
	return &domain.RawDocument{
		SourceID: c.sourceID,
		URI:      path,
		Path:     rel,
		MIMEType: detectMIMEType(path),
		Content:  content,
		Metadata: map[string]string{
			"filename":  filename,
			"extension": strings.TrimPrefix(filepath.Ext(filename), "."),
		},
	}, nil
}

// Watch listens for file changes under the root using fsnotify.
// The root and every visible subdirectory are watched; directories
// created later join the watch. The returned channel closes when ctx is
// cancelled or the connector is closed.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, fmt.Errorf("connector closed: %w", domain.ErrConnectorClosed)
	}
	c.mu.Unlock()

	if err := c.checkRoot(); err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// Watch the root and all visible subdirectories
	err = filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != c.rootPath {
			rel, relErr := filepath.Rel(c.rootPath, path)
			if relErr == nil && isHidden(filepath.ToSlash(rel)) {
				return fs.SkipDir
			}
		}
		return watcher.Add(path)
	})
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", c.rootPath, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		watcher.Close()
		return nil, fmt.Errorf("connector closed: %w", domain.ErrConnectorClosed)
	}
	if c.watcher != nil {
		c.watcher.Close()
	}
	c.watcher = watcher
	c.mu.Unlock()

	changes := make(chan domain.RawDocumentChange)

	go func() {
		defer close(changes)

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				// New directories join the watch so nested changes are seen
				if event.Op.Has(fsnotify.Create) {
					if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
						_ = watcher.Add(event.Name)
						continue
					}
				}

				change := c.handleFsEvent(event)
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
				logger.Warn("filesystem watch: %v", err)
			}
		}
	}()

	return changes, nil
}

// handleFsEvent translates an fsnotify event into a document change.
// Returns nil for directories, skipped files and events that do not
// affect content.
func (c *Connector) handleFsEvent(event fsnotify.Event) *domain.RawDocumentChange {
	rel, err := filepath.Rel(c.rootPath, event.Name)
	if err != nil {
		return nil
	}
	rel = filepath.ToSlash(rel)

	if !shouldIndex(rel) {
		return nil
	}

	switch {
	case event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Write):
		info, statErr := os.Stat(event.Name)
		if statErr != nil || info.IsDir() {
			return nil
		}

		raw, readErr := c.readDocument(event.Name, rel)
		if readErr != nil {
			logger.Warn("filesystem watch: read %s: %v", rel, readErr)
			return nil
		}

		changeType := domain.ChangeCreated
		if event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
			changeType = domain.ChangeUpdated
		}
		return &domain.RawDocumentChange{Type: changeType, Document: *raw}

	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		return &domain.RawDocumentChange{
			Type: domain.ChangeDeleted,
			Document: domain.RawDocument{
				SourceID: c.sourceID,
				URI:      event.Name,
				Path:     rel,
			},
		}

	default:
		return nil
	}
}

// Close releases the watcher. Close is idempotent.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.watcher != nil {
		err := c.watcher.Close()
		c.watcher = nil
		return err
	}
	return nil
}

// detectMIMEType maps a filename to its knowledge-base MIME type.
// Extensions outside the supported set report application/octet-stream.
func detectMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mimeType, ok := mimeByExtension[ext]; ok {
		return mimeType
	}
	return "application/octet-stream"
}

// shouldIndex reports whether a source-relative path belongs to the
// knowledge base. Hidden files, README.md, template files and
// unsupported extensions are skipped.
func shouldIndex(rel string) bool {
	if isHidden(rel) {
		return false
	}

	name := filepath.Base(rel)
	if name == "README.md" {
		return false
	}
	if strings.HasPrefix(name, "template.") {
		return false
	}

	_, ok := mimeByExtension[strings.ToLower(filepath.Ext(name))]
	return ok
}

// isHidden reports whether any path segment is dot-prefixed.
// The special segments "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, segment := range strings.Split(filepath.ToSlash(path), "/") {
		if segment == "." || segment == ".." || segment == "" {
			continue
		}
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}
	return false
}
