// Package prefs provides JSON-based user preferences.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"doc-rectifier/internal/rectify"
)

const (
	appDir    = "doc-rectifier"
	prefsFile = "preferences.json"
)

// Preference keys.
const (
	KeyStrategy      = "strategy"
	KeySharpen       = "sharpen"
	KeyLaplacian     = "laplacian_strength"
	KeyUnsharp       = "unsharp_strength"
	KeyWorkers       = "workers"
	KeyOutputDir     = "output_dir"
	KeyOCRLanguage   = "ocr_language"
	KeyStatusLocale  = "status_locale"
	KeyLastImagePath = "last_image"
)

// Prefs stores preferences as a key-value map.
type Prefs struct {
	mu     sync.RWMutex
	values map[string]interface{}
	path   string
}

// DefaultPath returns ~/.config/doc-rectifier/preferences.json (or the
// platform's equivalent).
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, appDir, prefsFile)
}

// Load reads preferences from DefaultPath.
func Load() *Prefs {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads preferences from path. A missing or unreadable file yields
// empty preferences that will be written back to path on Save.
func LoadFrom(path string) *Prefs {
	p := &Prefs{
		values: make(map[string]interface{}),
		path:   path,
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return p
	}
	_ = json.Unmarshal(data, &p.values)
	if p.values == nil {
		p.values = make(map[string]interface{})
	}
	return p
}

// Path returns the file Save writes to.
func (p *Prefs) Path() string {
	return p.path
}

// Save writes preferences to disk.
func (p *Prefs) Save() error {
	p.mu.RLock()
	data, err := json.MarshalIndent(p.values, "", "  ")
	p.mu.RUnlock()
	if err != nil {
		return err
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0o644)
}

// FloatWithFallback returns a float64 preference, or fallback if not set.
func (p *Prefs) FloatWithFallback(key string, fallback float64) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return fallback
}

// SetFloat stores a float64 preference.
func (p *Prefs) SetFloat(key string, val float64) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// Int returns an integer preference, or fallback if not set.
func (p *Prefs) Int(key string, fallback int) int {
	return int(p.FloatWithFallback(key, float64(fallback)))
}

// String returns a string preference, or fallback if not set.
func (p *Prefs) String(key, fallback string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

// SetString stores a string preference.
func (p *Prefs) SetString(key string, val string) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// Bool returns a bool preference, or fallback if not set.
func (p *Prefs) Bool(key string, fallback bool) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if b, ok := p.values[key].(bool); ok {
		return b
	}
	return fallback
}

// SetBool stores a bool preference.
func (p *Prefs) SetBool(key string, val bool) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// Options overlays the stored correction preferences on base. An invalid
// stored strategy is ignored.
func (p *Prefs) Options(base rectify.Options) rectify.Options {
	if s, err := rectify.ParseStrategy(p.String(KeyStrategy, string(base.Strategy))); err == nil {
		base.Strategy = s
	}
	base.Sharpen = p.Bool(KeySharpen, base.Sharpen)
	base.LaplacianStrength = p.FloatWithFallback(KeyLaplacian, base.LaplacianStrength)
	base.UnsharpStrength = p.FloatWithFallback(KeyUnsharp, base.UnsharpStrength)
	base.Workers = p.Int(KeyWorkers, base.Workers)
	return base
}

// SetOptions stores the persistent parts of opts.
func (p *Prefs) SetOptions(opts rectify.Options) {
	p.SetString(KeyStrategy, string(opts.Strategy))
	p.SetBool(KeySharpen, opts.Sharpen)
	p.SetFloat(KeyLaplacian, opts.LaplacianStrength)
	p.SetFloat(KeyUnsharp, opts.UnsharpStrength)
	p.SetFloat(KeyWorkers, float64(opts.Workers))
}
