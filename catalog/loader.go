package catalog

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/victoralfred/gowritter/safepath"
	"gopkg.in/yaml.v3"

	"github.com/victoralfred/hostadm/validation"
)

// Config is the YAML form of a catalog override file.
type Config struct {
	// Version identifies the file format.
	Version string `yaml:"version"`

	// Tools maps tool names to site-specific binary paths. Only
	// listed tools are overridden; everything else keeps its default.
	Tools map[string]string `yaml:"tools"`
}

// Validator validates a catalog configuration before it is applied.
type Validator interface {
	Validate(config *Config) error
}

// Loader loads catalog overrides from a YAML file.
type Loader struct {
	path       string
	safePath   *safepath.SafePath
	catalog    *Catalog
	mu         sync.RWMutex
	lastHash   []byte
	lastLoad   time.Time
	validators []Validator
	onChange   []func(*Catalog)
	watchStop  chan struct{}
}

// LoaderOption configures the loader.
type LoaderOption func(*Loader)

// WithValidator adds a configuration validator.
func WithValidator(v Validator) LoaderOption {
	return func(l *Loader) {
		l.validators = append(l.validators, v)
	}
}

// WithOnChange adds a callback for catalog changes.
func WithOnChange(fn func(*Catalog)) LoaderOption {
	return func(l *Loader) {
		l.onChange = append(l.onChange, fn)
	}
}

// NewLoader creates a catalog loader rooted at basePath.
func NewLoader(basePath, catalogFile string, opts ...LoaderOption) (*Loader, error) {
	sp, err := safepath.New(basePath)
	if err != nil {
		return nil, fmt.Errorf("creating safe path: %w", err)
	}

	l := &Loader{
		path:       catalogFile,
		safePath:   sp,
		validators: []Validator{&DefaultValidator{}},
	}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Load reads the override file and returns the resulting catalog.
// An unchanged file returns the previously built catalog.
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := l.safePath.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}

	// Check if file changed
	hash := sha256.Sum256(data)
	if l.catalog != nil && string(hash[:]) == string(l.lastHash) {
		return l.catalog, nil
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing catalog YAML: %w", err)
	}

	for _, v := range l.validators {
		if err := v.Validate(&config); err != nil {
			return nil, fmt.Errorf("catalog validation failed: %w", err)
		}
	}

	catalog := NewCatalog()
	for name, path := range config.Tools {
		if err := catalog.Override(name, path); err != nil {
			return nil, fmt.Errorf("applying override: %w", err)
		}
	}

	l.catalog = catalog
	l.lastHash = hash[:]
	l.lastLoad = time.Now()

	// Notify listeners
	for _, fn := range l.onChange {
		fn(catalog)
	}

	return catalog, nil
}

// Get returns the current catalog without reloading.
func (l *Loader) Get() *Catalog {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.catalog
}

// Reload reloads the catalog from the file.
func (l *Loader) Reload(ctx context.Context) error {
	_, err := l.Load(ctx)
	return err
}

// Watch starts polling for catalog file changes.
func (l *Loader) Watch(ctx context.Context, interval time.Duration) {
	l.watchStop = make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-l.watchStop:
				return
			case <-ticker.C:
				if _, err := l.Load(ctx); err != nil {
					// Keep the last good catalog on a bad reload.
					_ = err
				}
			}
		}
	}()
}

// StopWatch stops watching for catalog changes.
func (l *Loader) StopWatch() {
	if l.watchStop != nil {
		close(l.watchStop)
	}
}

// ParseYAML parses a YAML catalog configuration.
func ParseYAML(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// DefaultValidator validates catalog configuration. Override paths go
// through the same path validation as every other path parameter.
type DefaultValidator struct{}

// Validate validates the catalog configuration.
func (v *DefaultValidator) Validate(config *Config) error {
	if config.Version == "" {
		return fmt.Errorf("catalog version is required")
	}

	for name, path := range config.Tools {
		if !validation.IsIdentifier(name) {
			return fmt.Errorf("tool %q: invalid name", name)
		}
		if _, err := validation.Path("tools."+name, path); err != nil {
			return fmt.Errorf("tool %q: %w", name, err)
		}
	}

	return nil
}
