// Package readercache owns parsed document handles. Entries are keyed by
// absolute path, validated against the file's size and modification time on
// every lookup, and decrypted with a per-path password that survives handle
// eviction.
package readercache

import (
	"container/list"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/document"
	pdferrors "github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/errors"
)

// DefaultCapacity is the number of handles kept open when no capacity is set
const DefaultCapacity = 16

// Opener parses a file into a Document
type Opener func(fs afero.Fs, path, password string) (*document.Document, error)

// Option configures a Cache
type Option func(*Cache)

// WithCapacity bounds the number of open handles
func WithCapacity(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithLogger sets the logger used for cache events
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithOpener replaces the function used to parse files
func WithOpener(o Opener) Option {
	return func(c *Cache) {
		if o != nil {
			c.opener = o
		}
	}
}

// WithMaxFileSize rejects files larger than n bytes; 0 disables the check
func WithMaxFileSize(n int64) Option {
	return func(c *Cache) {
		c.maxFileSize = n
	}
}

// WithClock sets the time source for access timestamps
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// Cache holds at most one live handle per path. A handle is never served if
// the file changed since it was parsed or if it was decrypted under a
// password other than the effective one.
//
// The global mutex guards the maps and the LRU list only. Opening a file runs
// under a per-path mutex, so concurrent lookups of other paths never wait on
// a parse in progress.
type Cache struct {
	fs          afero.Fs
	opener      Opener
	logger      logrus.FieldLogger
	capacity    int
	maxFileSize int64
	now         func() time.Time

	mu        sync.Mutex
	entries   map[string]*list.Element
	lru       *list.List // front is most recently used
	passwords map[string]string
	locks     map[string]*pathLock

	hits      int64
	misses    int64
	evictions int64

	watcher     *fsnotify.Watcher
	watchedDirs map[string]struct{}
}

type entry struct {
	path       string
	doc        *document.Document
	modTime    time.Time
	size       int64
	password   string
	encrypted  bool
	openedAt   time.Time
	lastAccess time.Time

	// users counts Use callers holding the handle; an evicted handle is
	// closed when the last one releases it
	users   int
	evicted bool
}

type pathLock struct {
	mu   sync.Mutex
	refs int
}

// New creates a cache reading files from fs
func New(fs afero.Fs, opts ...Option) *Cache {
	c := &Cache{
		fs:          fs,
		opener:      document.Open,
		logger:      logrus.StandardLogger(),
		capacity:    DefaultCapacity,
		now:         time.Now,
		entries:     make(map[string]*list.Element),
		lru:         list.New(),
		passwords:   make(map[string]string),
		locks:       make(map[string]*pathLock),
		watchedDirs: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetReader returns a handle for path. An empty password means none was
// supplied, in which case the stored password for the path (if any) is used.
// The handle remains owned by the cache and may be closed by a later
// eviction; callers that need it for the duration of some work use Use.
func (c *Cache) GetReader(path, password string) (*document.Document, error) {
	key, err := c.key(path)
	if err != nil {
		return nil, err
	}

	unlock := c.lockPath(key)
	defer unlock()

	e, err := c.lookup(key, password, false)
	if err != nil {
		return nil, err
	}
	return e.doc, nil
}

// Use runs fn with the handle for path while holding the path's lock. The
// handle is not closed by concurrent evictions until fn returns.
func (c *Cache) Use(path, password string, fn func(*document.Document) error) error {
	key, err := c.key(path)
	if err != nil {
		return err
	}

	unlock := c.lockPath(key)
	defer unlock()

	e, err := c.lookup(key, password, true)
	if err != nil {
		return err
	}
	defer c.release(e)

	return fn(e.doc)
}

// SetPassword stores password for path. The file must exist; the password is
// not checked until the next open.
func (c *Cache) SetPassword(path, password string) error {
	key, err := c.key(path)
	if err != nil {
		return err
	}
	if _, err := c.fs.Stat(key); err != nil {
		return pdferrors.FromFileError(err, key)
	}

	c.mu.Lock()
	c.passwords[key] = password
	c.mu.Unlock()

	c.logger.WithField("path", key).Debug("Stored document password")
	return nil
}

// ForgetPassword drops the stored password for path
func (c *Cache) ForgetPassword(path string) {
	key, err := c.key(path)
	if err != nil {
		return
	}
	c.mu.Lock()
	delete(c.passwords, key)
	c.mu.Unlock()
}

// ClearCache evicts the handle for path and keeps its stored password. An
// empty path evicts every handle and forgets every stored password. It
// returns the number of handles evicted.
func (c *Cache) ClearCache(path string) int {
	var toClose []*document.Document
	evicted := 0

	c.mu.Lock()
	if path == "" {
		for c.lru.Len() > 0 {
			if doc := c.removeLocked(c.lru.Back()); doc != nil {
				toClose = append(toClose, doc)
			}
			evicted++
		}
		c.passwords = make(map[string]string)
	} else if key, err := c.key(path); err == nil {
		if el, ok := c.entries[key]; ok {
			if doc := c.removeLocked(el); doc != nil {
				toClose = append(toClose, doc)
			}
			evicted++
		}
	}
	c.mu.Unlock()

	c.closeAll(toClose)
	c.logger.WithFields(logrus.Fields{"path": path, "evicted": evicted}).Debug("Cleared reader cache")
	return evicted
}

// Close stops the watcher and releases every handle. Stored passwords are
// dropped as well.
func (c *Cache) Close() error {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.watchedDirs = make(map[string]struct{})
	c.mu.Unlock()

	c.ClearCache("")

	if w != nil {
		return w.Close()
	}
	return nil
}

func (c *Cache) key(path string) (string, error) {
	if path == "" {
		return "", pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidPath, "path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", pdferrors.WrapError(pdferrors.ErrorTypeInvalidPath, "cannot resolve path", err).WithPath(path)
	}
	return abs, nil
}

func (c *Cache) lockPath(key string) func() {
	c.mu.Lock()
	l, ok := c.locks[key]
	if !ok {
		l = &pathLock{}
		c.locks[key] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, key)
		}
		c.mu.Unlock()
	}
}

// lookup runs the check-then-open-then-store sequence. The caller holds the
// path lock for key. With hold set the entry is marked in use before the
// global lock is released.
func (c *Cache) lookup(key, password string, hold bool) (*entry, error) {
	log := c.logger.WithField("path", key)

	info, err := c.fs.Stat(key)
	if err != nil {
		c.ClearCache(key)
		return nil, pdferrors.FromFileError(err, key)
	}
	if info.IsDir() {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidPath, "path is a directory").WithPath(key)
	}
	if c.maxFileSize > 0 && info.Size() > c.maxFileSize {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeFileTooLarge,
			fmt.Sprintf("file too large: %d bytes (max: %d bytes)", info.Size(), c.maxFileSize)).WithPath(key)
	}

	var toClose []*document.Document

	c.mu.Lock()
	effective := password
	if effective == "" {
		effective = c.passwords[key]
	}

	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry)
		switch {
		case !e.modTime.Equal(info.ModTime()) || e.size != info.Size():
			log.Debug("Cached document is stale, reopening")
			if doc := c.removeLocked(el); doc != nil {
				toClose = append(toClose, doc)
			}
		case e.encrypted && e.password != effective:
			// keep the handle until the other password proves valid
			log.Debug("Cached document was decrypted with another password")
		default:
			e.lastAccess = c.now()
			c.lru.MoveToFront(el)
			c.hits++
			if hold {
				e.users++
			}
			c.mu.Unlock()
			return e, nil
		}
	}
	c.misses++
	c.mu.Unlock()
	c.closeAll(toClose)
	toClose = nil

	doc, err := c.opener(c.fs, key, effective)
	if err != nil {
		log.WithError(err).Debug("Failed to open document")
		return nil, err
	}

	now := c.now()
	e := &entry{
		path:       key,
		doc:        doc,
		modTime:    doc.ModTime(),
		size:       doc.Size(),
		password:   doc.Password(),
		encrypted:  doc.Encrypted(),
		openedAt:   now,
		lastAccess: now,
	}
	if hold {
		e.users = 1
	}

	c.mu.Lock()
	if old, ok := c.entries[key]; ok {
		if prev := c.removeLocked(old); prev != nil {
			toClose = append(toClose, prev)
		}
	}
	c.entries[key] = c.lru.PushFront(e)
	if e.encrypted && password != "" {
		c.passwords[key] = password
	}
	for c.lru.Len() > c.capacity {
		if victim := c.removeLocked(c.lru.Back()); victim != nil {
			toClose = append(toClose, victim)
		}
	}
	c.watchLocked(key)
	c.mu.Unlock()

	c.closeAll(toClose)
	log.WithFields(logrus.Fields{
		"encrypted": e.encrypted,
		"pages":     doc.PageCount(),
	}).Debug("Opened document")

	return e, nil
}

// removeLocked unlinks an entry and returns its document when it can be
// closed right away
func (c *Cache) removeLocked(el *list.Element) *document.Document {
	e := el.Value.(*entry)
	c.lru.Remove(el)
	delete(c.entries, e.path)
	c.evictions++

	if e.users > 0 {
		e.evicted = true
		return nil
	}
	return e.doc
}

func (c *Cache) release(e *entry) {
	c.mu.Lock()
	e.users--
	closeNow := e.users == 0 && e.evicted
	c.mu.Unlock()

	if closeNow {
		c.closeAll([]*document.Document{e.doc})
	}
}

func (c *Cache) closeAll(docs []*document.Document) {
	for _, doc := range docs {
		if err := doc.Close(); err != nil {
			c.logger.WithError(err).WithField("path", doc.Path()).Warn("Failed to close document")
		}
	}
}

// Status describes the cache contents
type Status struct {
	TotalEntries    int           `json:"total_entries"`
	StoredPasswords int           `json:"stored_passwords"`
	Capacity        int           `json:"capacity"`
	Hits            int64         `json:"hits"`
	Misses          int64         `json:"misses"`
	Evictions       int64         `json:"evictions"`
	Watching        bool          `json:"watching"`
	Entries         []EntryStatus `json:"entries"`
}

// EntryStatus describes one cached handle
type EntryStatus struct {
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"mod_time"`
	OpenedAt    time.Time `json:"opened_at"`
	LastAccess  time.Time `json:"last_access"`
	Pages       int       `json:"pages"`
	Encrypted   bool      `json:"encrypted"`
	HasPassword bool      `json:"has_password"`
	Stale       bool      `json:"stale"`
	StaleReason string    `json:"stale_reason,omitempty"`
}

// Status reports every entry with a fresh staleness check. Stale entries are
// reported, not evicted; the next lookup replaces them.
func (c *Cache) Status() Status {
	c.mu.Lock()
	st := Status{
		TotalEntries:    len(c.entries),
		StoredPasswords: len(c.passwords),
		Capacity:        c.capacity,
		Hits:            c.hits,
		Misses:          c.misses,
		Evictions:       c.evictions,
		Watching:        c.watcher != nil,
	}
	for el := c.lru.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry)
		_, hasPW := c.passwords[e.path]
		st.Entries = append(st.Entries, EntryStatus{
			Path:        e.path,
			Size:        e.size,
			ModTime:     e.modTime,
			OpenedAt:    e.openedAt,
			LastAccess:  e.lastAccess,
			Pages:       e.doc.PageCount(),
			Encrypted:   e.encrypted,
			HasPassword: hasPW,
		})
	}
	c.mu.Unlock()

	for i := range st.Entries {
		es := &st.Entries[i]
		info, err := c.fs.Stat(es.Path)
		switch {
		case err != nil:
			es.Stale, es.StaleReason = true, "file is no longer accessible"
		case info.Size() != es.Size:
			es.Stale, es.StaleReason = true, "size changed"
		case !info.ModTime().Equal(es.ModTime):
			es.Stale, es.StaleReason = true, "modification time changed"
		}
	}
	sort.SliceStable(st.Entries, func(i, j int) bool {
		return st.Entries[i].Path < st.Entries[j].Path
	})

	return st
}

// Watch evicts handles as soon as their file is written, removed or renamed.
// The staleness check on lookup stays authoritative; the watcher only lets
// handles be released early. It runs until ctx is done or Close is called.
func (c *Cache) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	c.mu.Lock()
	if c.watcher != nil {
		c.mu.Unlock()
		w.Close()
		return fmt.Errorf("cache is already watching")
	}
	c.watcher = w
	for key := range c.entries {
		c.watchLocked(key)
	}
	c.mu.Unlock()

	go c.watchLoop(ctx, w)
	return nil
}

func (c *Cache) watchLoop(ctx context.Context, w *fsnotify.Watcher) {
	defer func() {
		c.mu.Lock()
		if c.watcher == w {
			c.watcher = nil
			c.watchedDirs = make(map[string]struct{})
		}
		c.mu.Unlock()
		if err := w.Close(); err != nil {
			c.logger.WithError(err).Debug("Failed to close file watcher")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename|fsnotify.Create|fsnotify.Chmod) == 0 {
				continue
			}
			c.invalidate(filepath.Clean(event.Name), event.Op.String())
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			c.logger.WithError(err).Warn("Reader cache file watcher error")
		}
	}
}

func (c *Cache) invalidate(key, reason string) {
	var toClose []*document.Document

	c.mu.Lock()
	if el, ok := c.entries[key]; ok {
		if doc := c.removeLocked(el); doc != nil {
			toClose = append(toClose, doc)
		}
	}
	c.mu.Unlock()

	if len(toClose) > 0 {
		c.logger.WithFields(logrus.Fields{"path": key, "event": reason}).Debug("File changed, evicted cached document")
	}
	c.closeAll(toClose)
}

// watchLocked adds the directory holding key to the watcher. fsnotify watches
// directories so that editors replacing the file are still seen.
func (c *Cache) watchLocked(key string) {
	if c.watcher == nil {
		return
	}
	dir := filepath.Dir(key)
	if _, ok := c.watchedDirs[dir]; ok {
		return
	}
	if err := c.watcher.Add(dir); err != nil {
		c.logger.WithError(err).WithField("dir", dir).Debug("Cannot watch directory")
		return
	}
	c.watchedDirs[dir] = struct{}{}
}
