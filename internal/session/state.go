// Package session holds the state of one rectification session: the loaded
// page, the polygon being edited, and the last corrected result.
package session

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"doc-rectifier/internal/export"
	"doc-rectifier/internal/project"
	"doc-rectifier/internal/raster"
	"doc-rectifier/internal/rectify"
	"doc-rectifier/internal/status"
	"doc-rectifier/pkg/geometry"
)

// HitRadius is the point pick radius in display pixels.
const HitRadius = 15.0

// Mode is the current editing mode.
type Mode int

const (
	ModeAdd Mode = iota
	ModeMove
	ModeDelete
)

func (m Mode) String() string {
	switch m {
	case ModeAdd:
		return "add"
	case ModeMove:
		return "move"
	case ModeDelete:
		return "delete"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts "add", "move" or "delete".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "add":
		return ModeAdd, nil
	case "move":
		return ModeMove, nil
	case "delete":
		return ModeDelete, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

var modeHints = map[Mode]string{
	ModeAdd:    "Add Points mode: Click on the image to add perspective correction points.",
	ModeMove:   "Move Points mode: Click and drag points to adjust their position.",
	ModeDelete: "Delete Points mode: Click on points to remove them.",
}

// EventType identifies session events.
type EventType int

const (
	EventImageLoaded EventType = iota
	EventPointsChanged
	EventModeChanged
	EventCorrected
	EventReset
	EventProjectLoaded
	EventProjectSaved
	EventModified
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// State is a single editing session. All methods are safe for concurrent use;
// listeners and the sink are called without the lock held.
type State struct {
	mu sync.RWMutex

	// Project
	ProjectPath string
	Modified    bool

	// OutputDir and OCRLanguages travel with the session file.
	OutputDir    string
	OCRLanguages []string

	source   *raster.Source
	points   []geometry.Point2D
	selected int
	dragging bool
	mode     Mode

	// DisplayScale converts display pixels to source pixels for hit testing.
	DisplayScale float64

	options rectify.Options
	result  *rectify.Result

	sink      status.Sink
	listeners map[EventType][]EventListener
}

// NewState creates an empty session reporting to sink (nil discards).
func NewState(sink status.Sink) *State {
	if sink == nil {
		sink = status.Discard
	}
	opts := rectify.DefaultOptions()
	opts.Sink = sink
	return &State{
		selected:     -1,
		DisplayScale: 1,
		options:      opts,
		sink:         sink,
		listeners:    make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the session as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.Modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// Options returns a copy of the correction options.
func (s *State) Options() rectify.Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.options
}

// SetOptions replaces the correction options. The sink is always the session's.
func (s *State) SetOptions(opts rectify.Options) {
	s.mu.Lock()
	opts.Sink = s.sink
	s.options = opts
	s.mu.Unlock()
}

// LoadImage loads the source page. Points and any previous result are cleared.
func (s *State) LoadImage(path string) error {
	src, err := raster.Load(path)
	if err != nil {
		s.sink.Report(status.Error, "Failed to load image. Please try another file.")
		return err
	}
	s.SetSource(src)
	return nil
}

// SetSource installs an already decoded page.
func (s *State) SetSource(src *raster.Source) {
	s.mu.Lock()
	s.source = src
	s.points = nil
	s.selected = -1
	s.dragging = false
	s.result = nil
	s.mu.Unlock()

	s.sink.Report(status.Success, fmt.Sprintf(
		"Image loaded (%d×%dpx). Original resolution preserved. Select 4+ points.",
		src.Buffer.Width, src.Buffer.Height))
	s.SetModified(true)
	s.Emit(EventImageLoaded, src)
}

// Source returns the loaded page, or nil.
func (s *State) Source() *raster.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// SetMode switches the editing mode and reports its hint.
func (s *State) SetMode(mode Mode) {
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()

	s.sink.Report(status.Neutral, modeHints[mode])
	s.Emit(EventModeChanged, mode)
}

// Mode returns the editing mode.
func (s *State) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Points returns a copy of the polygon in placement order.
func (s *State) Points() []geometry.Point2D {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]geometry.Point2D(nil), s.points...)
}

// SetPoints replaces the polygon.
func (s *State) SetPoints(pts []geometry.Point2D) {
	s.mu.Lock()
	s.points = append([]geometry.Point2D(nil), pts...)
	s.selected = -1
	s.dragging = false
	s.mu.Unlock()
	s.pointsChanged()
}

// PointCount returns the number of points placed.
func (s *State) PointCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// CanApply reports whether enough points are placed for a correction.
func (s *State) CanApply() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source != nil && len(s.points) >= rectify.MinPoints
}

// Selected returns the index of the selected point, or -1.
func (s *State) Selected() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Dragging reports whether a point is being dragged.
func (s *State) Dragging() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dragging
}

// HitTest returns the first point within HitRadius*DisplayScale of p, or -1.
func (s *State) HitTest(p geometry.Point2D) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hitTest(p)
}

func (s *State) hitTest(p geometry.Point2D) int {
	r := HitRadius * s.DisplayScale
	for i, q := range s.points {
		if p.Distance(q) < r {
			return i
		}
	}
	return -1
}

// Press handles a pointer press at p in source coordinates. In delete mode a
// hit point is removed; in move mode a hit point starts dragging; in add mode
// a new point is appended and selected. It reports whether the polygon changed
// or a drag started.
func (s *State) Press(p geometry.Point2D) bool {
	s.mu.Lock()
	if s.source == nil {
		s.mu.Unlock()
		return false
	}

	changed := false
	started := false
	if i := s.hitTest(p); i >= 0 {
		switch s.mode {
		case ModeDelete:
			s.points = append(s.points[:i], s.points[i+1:]...)
			s.selected = -1
			changed = true
		case ModeMove:
			s.selected = i
			s.dragging = true
			started = true
		}
	}
	if !changed && !started && s.mode == ModeAdd {
		s.points = append(s.points, p)
		s.selected = len(s.points) - 1
		changed = true
	}
	s.mu.Unlock()

	if changed {
		s.pointsChanged()
	}
	return changed || started
}

// Drag moves the selected point to p, clamped to the page, while dragging in
// move mode.
func (s *State) Drag(p geometry.Point2D) bool {
	s.mu.Lock()
	if s.source == nil || s.mode != ModeMove || !s.dragging || s.selected < 0 {
		s.mu.Unlock()
		return false
	}
	w := float64(s.source.Buffer.Width)
	h := float64(s.source.Buffer.Height)
	s.points[s.selected] = geometry.Point2D{
		X: math.Max(0, math.Min(w, p.X)),
		Y: math.Max(0, math.Min(h, p.Y)),
	}
	s.mu.Unlock()

	s.pointsChanged()
	return true
}

// Release ends a drag.
func (s *State) Release() {
	s.mu.Lock()
	s.dragging = false
	s.mu.Unlock()
}

func (s *State) pointsChanged() {
	s.SetModified(true)
	s.Emit(EventPointsChanged, s.PointCount())
}

// Apply runs the correction on the current polygon and keeps the result.
func (s *State) Apply() (*rectify.Result, error) {
	s.mu.RLock()
	src := s.source
	pts := append([]geometry.Point2D(nil), s.points...)
	opts := s.options
	s.mu.RUnlock()

	if src == nil {
		s.sink.Report(status.Error, "Please load an image first.")
		return nil, fmt.Errorf("no image loaded")
	}

	res, err := rectify.Correct(src.Buffer, pts, opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.result = res
	s.mu.Unlock()
	s.Emit(EventCorrected, res)
	return res, nil
}

// Result returns the last corrected result, or nil.
func (s *State) Result() *rectify.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Reset clears every point and the last result but keeps the page.
func (s *State) Reset() {
	s.mu.Lock()
	s.points = nil
	s.selected = -1
	s.dragging = false
	s.result = nil
	s.mu.Unlock()

	s.sink.Report(status.Neutral, "All points reset. Select 4+ points to define perspective correction area.")
	s.SetModified(true)
	s.Emit(EventReset, nil)
}

// Download writes the last result as a timestamped PNG into dir.
func (s *State) Download(dir string, now time.Time) (string, error) {
	return export.Download(dir, s.Result(), now, s.sink)
}

// Print writes the print page for the last result to w.
func (s *State) Print(w io.Writer) error {
	return export.Print(w, s.Result(), s.sink)
}

// SaveProject writes the image path, points and settings to path.
func (s *State) SaveProject(path string) error {
	s.mu.RLock()
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	proj := project.New(name)
	proj.Points = append([]geometry.Point2D(nil), s.points...)
	proj.Settings.Strategy = string(s.options.Strategy)
	proj.Settings.ForceStrategy = s.options.ForceStrategy
	proj.Settings.NoSharpen = !s.options.Sharpen
	proj.Settings.Workers = s.options.Workers
	if s.OutputDir != "" {
		proj.Settings.OutputDir = relativeTo(path, s.OutputDir)
	}
	if len(s.OCRLanguages) > 0 {
		proj.Settings.OCRLanguage = strings.Join(s.OCRLanguages, "+")
	}
	if s.source != nil {
		proj.DPI = s.source.DPI
		if s.source.Path != "" {
			proj.SetImage(path, s.source.Path)
		}
	}
	s.mu.RUnlock()

	if err := proj.Save(path); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.Modified = false
	s.mu.Unlock()

	s.Emit(EventProjectSaved, path)
	return nil
}

// LoadProject restores a session saved by SaveProject, reloading its image.
func (s *State) LoadProject(path string) error {
	proj, err := project.Load(path)
	if err != nil {
		return err
	}

	opts := s.Options()
	if proj.Settings.Strategy != "" {
		strategy, err := rectify.ParseStrategy(proj.Settings.Strategy)
		if err != nil {
			return fmt.Errorf("session %s: %w", path, err)
		}
		opts.Strategy = strategy
	}
	opts.ForceStrategy = proj.Settings.ForceStrategy
	opts.Sharpen = !proj.Settings.NoSharpen
	if proj.Settings.Workers > 0 {
		opts.Workers = proj.Settings.Workers
	}
	s.SetOptions(opts)

	if img := proj.GetImagePath(path); img != "" {
		if err := s.LoadImage(img); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.points = append([]geometry.Point2D(nil), proj.Points...)
	s.selected = -1
	s.ProjectPath = path
	s.Modified = false
	s.OutputDir = proj.GetOutputDir(path)
	s.OCRLanguages = nil
	if proj.Settings.OCRLanguage != "" {
		s.OCRLanguages = strings.Split(proj.Settings.OCRLanguage, "+")
	}
	s.mu.Unlock()

	s.Emit(EventProjectLoaded, proj)
	return nil
}

// relativeTo expresses dir relative to the session file's directory when it
// lies below it.
func relativeTo(projectPath, dir string) string {
	rel, err := filepath.Rel(filepath.Dir(projectPath), dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return dir
	}
	return rel
}
