package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const (
	KeyToken    = "authToken"
	KeyRedirect = "postLoginRedirect"
)

// Change is published after every successful Set or Delete.
type Change struct {
	Key     string
	Value   string
	Deleted bool
}

// Cache stores the bearer token and the post-login return path.
type Cache interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
	Delete(key string) error
	Subscribe() (<-chan Change, func())
}

// notifier fans change events out to subscribers without blocking writers.
type notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Change
}

func (n *notifier) subscribe() (<-chan Change, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.subs == nil {
		n.subs = make(map[int]chan Change)
	}
	id := n.next
	n.next++
	ch := make(chan Change, 16)
	n.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subs, id)
			close(ch)
		})
	}
}

func (n *notifier) publish(c Change) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

type MemoryCache struct {
	mu     sync.RWMutex
	values map[string]string
	notifier
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{values: make(map[string]string)}
}

func (c *MemoryCache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

func (c *MemoryCache) Set(key string, value string) error {
	c.mu.Lock()
	c.values[key] = value
	c.mu.Unlock()

	c.publish(Change{Key: key, Value: value})
	return nil
}

func (c *MemoryCache) Delete(key string) error {
	c.mu.Lock()
	_, existed := c.values[key]
	delete(c.values, key)
	c.mu.Unlock()

	if existed {
		c.publish(Change{Key: key, Deleted: true})
	}
	return nil
}

func (c *MemoryCache) Subscribe() (<-chan Change, func()) {
	return c.subscribe()
}

// FileCache persists the values as a JSON object readable only by the
// owner. Every write replaces the file atomically.
type FileCache struct {
	mu     sync.Mutex
	path   string
	values map[string]string
	notifier
}

func OpenFileCache(path string) (*FileCache, error) {
	c := &FileCache{path: path, values: make(map[string]string)}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credential cache: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &c.values); err != nil {
			return nil, fmt.Errorf("decode credential cache %s: %w", path, err)
		}
	}
	return c, nil
}

func (c *FileCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

func (c *FileCache) Set(key string, value string) error {
	c.mu.Lock()
	previous, had := c.values[key]
	c.values[key] = value
	if err := c.flushLocked(); err != nil {
		if had {
			c.values[key] = previous
		} else {
			delete(c.values, key)
		}
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	c.publish(Change{Key: key, Value: value})
	return nil
}

func (c *FileCache) Delete(key string) error {
	c.mu.Lock()
	previous, had := c.values[key]
	if !had {
		c.mu.Unlock()
		return nil
	}
	delete(c.values, key)
	if err := c.flushLocked(); err != nil {
		c.values[key] = previous
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	c.publish(Change{Key: key, Deleted: true})
	return nil
}

func (c *FileCache) Subscribe() (<-chan Change, func()) {
	return c.subscribe()
}

func (c *FileCache) flushLocked() error {
	raw, err := json.MarshalIndent(c.values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credential cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create credential cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("create credential cache: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write credential cache: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod credential cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close credential cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("replace credential cache: %w", err)
	}
	return nil
}
