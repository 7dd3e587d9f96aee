// Package settings holds the process-wide user settings: the remote
// endpoint address and the two feature gates. The core components treat
// a settings snapshot as read-only input taken at the start of each
// operation; nothing in this package is mutated by them.
package settings

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	Endpoint         string `yaml:"endpoint"`
	DetectionEnabled bool   `yaml:"detection_enabled"`
	VotingEnabled    bool   `yaml:"voting_enabled"`
}

// Cache loads settings from a YAML file and serves immutable snapshots.
// An fsnotify watch reloads the file on change, so edits take effect on
// the next observation cycle without a restart.
type Cache struct {
	path    string
	mu      sync.RWMutex
	current Settings

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewCache(path string) *Cache {
	return &Cache{
		path: path,
		current: Settings{
			DetectionEnabled: true,
			VotingEnabled:    true,
		},
		done: make(chan struct{}),
	}
}

// Load reads the settings file. A missing file is not an error: the
// defaults (heuristic-only detection, voting on) apply until one shows
// up.
func (c *Cache) Load() error {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		slog.Info("Settings file not found, using defaults", "path", c.path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	loaded := Settings{
		DetectionEnabled: true,
		VotingEnabled:    true,
	}
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to parse settings file: %w", err)
	}

	loaded.Endpoint = strings.TrimRight(loaded.Endpoint, "/")

	c.mu.Lock()
	c.current = loaded
	c.mu.Unlock()

	slog.Debug("Settings loaded", "endpoint", loaded.Endpoint,
		"detection", loaded.DetectionEnabled, "voting", loaded.VotingEnabled)

	return nil
}

// Watch starts reloading the settings file when it changes on disk.
func (c *Cache) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create settings watcher: %w", err)
	}

	if err := watcher.Add(c.path); err != nil {
		// The file may not exist yet; watch its directory instead so a
		// later create is picked up.
		dir := filepath.Dir(c.path)
		if dirErr := watcher.Add(dir); dirErr != nil {
			watcher.Close()
			return fmt.Errorf("failed to watch settings file: %w", err)
		}
	}

	c.watcher = watcher
	c.wg.Add(1)
	go c.watchLoop()

	return nil
}

func (c *Cache) Close() {
	close(c.done)
	if c.watcher != nil {
		c.watcher.Close()
	}
	c.wg.Wait()
}

// Snapshot returns the current settings by value.
func (c *Cache) Snapshot() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// DetectionEnabled satisfies the observer's settings source.
func (c *Cache) DetectionEnabled() bool {
	return c.Snapshot().DetectionEnabled
}

func (c *Cache) watchLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(c.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := c.Load(); err != nil {
				slog.Warn("Failed to reload settings", "path", c.path, "error", err)
			} else {
				slog.Info("Settings reloaded", "path", c.path)
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Settings watcher error", "error", err)
		}
	}
}
