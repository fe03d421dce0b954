package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"doc-rectifier/internal/rectify"
	"doc-rectifier/pkg/geometry"

	"github.com/BurntSushi/toml"
)

// job is a TOML description of one correction run. Relative paths are
// resolved against the job file's directory.
type job struct {
	Image         string       `toml:"image"`
	Points        [][2]float64 `toml:"points"`
	Strategy      string       `toml:"strategy"`
	ForceStrategy bool         `toml:"force_strategy"`
	Sharpen       *bool        `toml:"sharpen"`
	Workers       int          `toml:"workers"`
	OutputDir     string       `toml:"output_dir"`
	Print         string       `toml:"print"`
	OCR           bool         `toml:"ocr"`
	OCRLanguages  []string     `toml:"ocr_languages"`
}

// loadJob decodes a job file. Unknown keys are an error so that typos do not
// silently fall back to defaults.
func loadJob(path string) (*job, error) {
	var j job
	md, err := toml.DecodeFile(path, &j)
	if err != nil {
		return nil, fmt.Errorf("failed to read job %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("job %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	dir := filepath.Dir(path)
	j.Image = resolve(dir, j.Image)
	j.OutputDir = resolve(dir, j.OutputDir)
	j.Print = resolve(dir, j.Print)
	return &j, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func (j *job) points() []geometry.Point2D {
	pts := make([]geometry.Point2D, len(j.Points))
	for i, p := range j.Points {
		pts[i] = geometry.Point2D{X: p[0], Y: p[1]}
	}
	return pts
}

// apply overlays the job's settings on opts.
func (j *job) apply(opts rectify.Options) (rectify.Options, error) {
	if j.Strategy != "" {
		s, err := rectify.ParseStrategy(j.Strategy)
		if err != nil {
			return opts, err
		}
		opts.Strategy = s
	}
	if j.ForceStrategy {
		opts.ForceStrategy = true
	}
	if j.Sharpen != nil {
		opts.Sharpen = *j.Sharpen
	}
	if j.Workers > 0 {
		opts.Workers = j.Workers
	}
	return opts, nil
}
