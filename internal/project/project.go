// Package project provides the on-disk format of a rectification session.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"doc-rectifier/pkg/geometry"
)

// Extension is the file extension of session files.
const Extension = ".rectproj"

// CurrentVersion is written by Save.
const CurrentVersion = 1

// File represents a rectification session file (.rectproj).
type File struct {
	Version     int       `json:"version"`
	Name        string    `json:"name"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
	Description string    `json:"description,omitempty"`

	// Source image path (relative to the session file)
	ImagePath string  `json:"image,omitempty"`
	DPI       float64 `json:"dpi,omitempty"`

	// Polygon in source pixel coordinates, in the order the user placed them
	Points []geometry.Point2D `json:"points"`

	Settings Settings `json:"settings"`
}

// Settings holds per-session correction settings.
type Settings struct {
	Strategy      string `json:"strategy,omitempty"`
	ForceStrategy bool   `json:"force_strategy,omitempty"`
	NoSharpen     bool   `json:"no_sharpen,omitempty"`
	Workers       int    `json:"workers,omitempty"`
	OutputDir     string `json:"output_dir,omitempty"`
	OCRLanguage   string `json:"ocr_language,omitempty"`
}

// New creates a new session file with default settings.
func New(name string) *File {
	now := time.Now()
	return &File{
		Version:  CurrentVersion,
		Name:     name,
		Created:  now,
		Modified: now,
		Settings: Settings{
			Strategy:    "mesh-mvc",
			OCRLanguage: "eng",
		},
	}
}

// Load loads a session from a .rectproj file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, fmt.Errorf("invalid session file %s: %w", path, err)
	}
	if proj.Version > CurrentVersion {
		return nil, fmt.Errorf("session file %s has version %d, newest supported is %d", path, proj.Version, CurrentVersion)
	}
	return &proj, nil
}

// Save saves the session to a file.
func (p *File) Save(path string) error {
	p.Modified = time.Now()
	if p.Version == 0 {
		p.Version = CurrentVersion
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SetImage sets the image path (relative to the session file when possible).
func (p *File) SetImage(projectPath, imagePath string) {
	rel, err := filepath.Rel(filepath.Dir(projectPath), imagePath)
	if err != nil {
		p.ImagePath = imagePath
	} else {
		p.ImagePath = rel
	}
	p.Modified = time.Now()
}

// GetImagePath returns the absolute path to the source image.
func (p *File) GetImagePath(projectPath string) string {
	if p.ImagePath == "" {
		return ""
	}
	if filepath.IsAbs(p.ImagePath) {
		return p.ImagePath
	}
	return filepath.Join(filepath.Dir(projectPath), p.ImagePath)
}

// GetOutputDir returns the absolute export directory. It defaults to the
// directory holding the session file.
func (p *File) GetOutputDir(projectPath string) string {
	dir := p.Settings.OutputDir
	switch {
	case dir == "":
		return filepath.Dir(projectPath)
	case filepath.IsAbs(dir):
		return dir
	default:
		return filepath.Join(filepath.Dir(projectPath), dir)
	}
}
