package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Dynamic holds the settings that may change while the process runs
type Dynamic struct {
	LogLevel            string
	LinkedInEnabled     bool
	LayoutMaxIterations int
	LayoutAlphaMin      float64
	LayoutVelocityDecay float64
}

// Dynamic extracts the runtime-changeable settings
func (c *Config) Dynamic() Dynamic {
	return Dynamic{
		LogLevel:            c.LogLevel,
		LinkedInEnabled:     c.LinkedInEnabled,
		LayoutMaxIterations: c.LayoutMaxIterations,
		LayoutAlphaMin:      c.LayoutAlphaMin,
		LayoutVelocityDecay: c.LayoutVelocityDecay,
	}
}

// ConfigWatcher reloads the YAML configuration file when it changes
type ConfigWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	current  Dynamic
	mu       sync.RWMutex
	onChange []func(Dynamic)
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
	debounce time.Duration
}

// NewConfigWatcher creates a watcher for the file at configPath
func NewConfigWatcher(configPath string, logger *zap.Logger) (*ConfigWatcher, error) {
	cfg, err := reload(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial config: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory so atomic saves (rename over the file) are seen
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	return &ConfigWatcher{
		path:     configPath,
		watcher:  watcher,
		current:  cfg.Dynamic(),
		logger:   logger,
		stopCh:   make(chan struct{}),
		debounce: 100 * time.Millisecond,
	}, nil
}

// Start begins watching for configuration changes
func (w *ConfigWatcher) Start() {
	go w.watchLoop()
	w.logger.Info("Configuration watcher started", zap.String("path", w.path))
}

// Stop stops watching for configuration changes
func (w *ConfigWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
		w.logger.Info("Configuration watcher stopped")
	})
}

func (w *ConfigWatcher) watchLoop() {
	var debounceTimer *time.Timer

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.handleConfigChange)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

func (w *ConfigWatcher) handleConfigChange() {
	cfg, err := reload(w.path)
	if err != nil {
		w.logger.Error("Invalid configuration, keeping current", zap.Error(err))
		return
	}
	next := cfg.Dynamic()

	w.mu.Lock()
	prev := w.current
	w.current = next
	handlers := append([]func(Dynamic){}, w.onChange...)
	w.mu.Unlock()

	if prev == next {
		return
	}

	w.logger.Info("Configuration reloaded",
		zap.String("log_level", next.LogLevel),
		zap.Bool("linkedin_enabled", next.LinkedInEnabled),
		zap.Int("layout_max_iterations", next.LayoutMaxIterations),
	)
	for _, handler := range handlers {
		handler(next)
	}
}

// OnChange registers a callback for configuration changes. Callbacks run in
// registration order on the watcher's goroutine.
func (w *ConfigWatcher) OnChange(handler func(Dynamic)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, handler)
}

// Current returns the current dynamic settings
func (w *ConfigWatcher) Current() Dynamic {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// reload rebuilds the full configuration so environment overrides keep
// winning over the file.
func reload(path string) (*Config, error) {
	cfg := Defaults()
	if err := NewLoader().LoadFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.ConfigFile = path
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.LayoutMaxIterations <= 0 {
		return nil, fmt.Errorf("layout_max_iterations must be positive")
	}
	return cfg, nil
}
