package main

import (
	"os"
	"path/filepath"
	"testing"

	"doc-rectifier/internal/rectify"
	"doc-rectifier/internal/session"
	"doc-rectifier/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadJob(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
image = "scans/page.jpg"
points = [[10.0, 12.0], [400.0, 15.0], [390.0, 560.0], [8.0, 550.0], [200.0, 9.0]]
strategy = "homography-constrained"
sharpen = false
workers = 4
output_dir = "/tmp/out"
print = "page.html"
ocr = true
ocr_languages = ["eng", "deu"]
`), 0o644))

	j, err := loadJob(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "scans", "page.jpg"), j.Image)
	assert.Equal(t, "/tmp/out", j.OutputDir)
	assert.Equal(t, filepath.Join(dir, "page.html"), j.Print)
	assert.Len(t, j.points(), 5)
	assert.Equal(t, geometry.Point2D{X: 390, Y: 560}, j.points()[2])
	assert.True(t, j.OCR)
	assert.Equal(t, []string{"eng", "deu"}, j.OCRLanguages)

	opts, err := j.apply(rectify.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, rectify.HomographyConstrained, opts.Strategy)
	assert.False(t, opts.Sharpen)
	assert.Equal(t, 4, opts.Workers)
}

func TestLoadJob_Errors(t *testing.T) {
	dir := t.TempDir()

	unknown := filepath.Join(dir, "unknown.toml")
	require.NoError(t, os.WriteFile(unknown, []byte("imagee = \"x.png\"\n"), 0o644))
	_, err := loadJob(unknown)
	assert.ErrorContains(t, err, "imagee")

	broken := filepath.Join(dir, "broken.toml")
	require.NoError(t, os.WriteFile(broken, []byte("points = [[1.0, 2.0]\n"), 0o644))
	_, err = loadJob(broken)
	assert.Error(t, err)

	badStrategy := &job{Strategy: "spline"}
	_, err = badStrategy.apply(rectify.DefaultOptions())
	assert.Error(t, err)
}

func TestFirstNonEmptyAndSplitList(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
	assert.Equal(t, "", firstNonEmpty())
	assert.Equal(t, []string{"eng", "fra"}, splitList(" eng, ,fra "))
}

func TestReload_KeepsCommandLineOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.rectproj")

	saveSession := func(workers int) {
		s := session.NewState(nil)
		opts := s.Options()
		opts.Strategy = rectify.MeshMVC
		opts.Workers = workers
		s.SetOptions(opts)
		s.SetPoints([]geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}})
		s.OutputDir = filepath.Join(dir, "exports")
		require.NoError(t, s.SaveProject(path))
	}

	cli := overrides{strategy: rectify.HomographyConstrained, noSharpen: true, workers: 6}
	state := session.NewState(nil)
	out := output{dir: ".", languages: []string{"eng"}}

	saveSession(1)
	out, err := reload(state, path, cli, out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "exports"), out.dir)

	// A later save of the session file must not undo the overrides.
	saveSession(2)
	out, err = reload(state, path, cli, out)
	require.NoError(t, err)
	opts := state.Options()
	assert.Equal(t, rectify.HomographyConstrained, opts.Strategy)
	assert.False(t, opts.Sharpen)
	assert.Equal(t, 6, opts.Workers)
	assert.Equal(t, filepath.Join(dir, "exports"), out.dir)

	cli.outDir = "/tmp/fixed"
	out = output{dir: "/tmp/fixed"}
	out, err = reload(state, path, cli, out)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/fixed", out.dir)
}

func TestOverrides_ApplyLeavesUnsetFields(t *testing.T) {
	base := rectify.DefaultOptions()
	base.Workers = 3
	got := overrides{}.apply(base)
	assert.Equal(t, base.Strategy, got.Strategy)
	assert.Equal(t, 3, got.Workers)
	assert.True(t, got.Sharpen)
	assert.False(t, got.ForceStrategy)

	got = overrides{force: true}.apply(base)
	assert.True(t, got.ForceStrategy)
}
