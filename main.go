// Package main provides the entry point for the document rectifier CLI.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"doc-rectifier/internal/logging"
	"doc-rectifier/internal/ocr"
	"doc-rectifier/internal/prefs"
	"doc-rectifier/internal/rectify"
	"doc-rectifier/internal/session"
	"doc-rectifier/internal/status"
	"doc-rectifier/internal/version"
	"doc-rectifier/pkg/geometry"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/text/language"
)

const appName = "doc-rectifier"

// output says where a corrected page goes after each run.
type output struct {
	dir       string
	printPath string
	ocr       bool
	languages []string
	expect    string
	words     bool
	psm       int
	binarize  bool
}

// overrides are the command-line settings that win over preferences, job
// files and session files, including every session reload under -watch.
type overrides struct {
	strategy  rectify.Strategy
	force     bool
	noSharpen bool
	workers   int
	outDir    string
	languages []string
}

func (o overrides) apply(opts rectify.Options) rectify.Options {
	if o.strategy != "" {
		opts.Strategy = o.strategy
	}
	opts.ForceStrategy = opts.ForceStrategy || o.force
	if o.noSharpen {
		opts.Sharpen = false
	}
	if o.workers > 0 {
		opts.Workers = o.workers
	}
	return opts
}

// reload reads the session file into state and re-applies the overrides.
// The session's output directory and OCR languages replace out's unless the
// command line named its own.
func reload(state *session.State, path string, o overrides, out output) (output, error) {
	if err := state.LoadProject(path); err != nil {
		return out, err
	}
	state.SetOptions(o.apply(state.Options()))
	if o.outDir == "" {
		out.dir = state.OutputDir
	}
	if len(o.languages) == 0 && len(state.OCRLanguages) > 0 {
		out.languages = state.OCRLanguages
	}
	return out, nil
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	imagePath := flag.String("image", "", "Path to the photographed page")
	pointsArg := flag.String("points", "", "Polygon as x,y;x,y;... in source pixels (4 or more)")
	jobPath := flag.String("job", "", "TOML job file (image, points, strategy, outputs)")
	sessionPath := flag.String("session", "", "Session file (.rectproj) to load")
	saveSession := flag.String("save-session", "", "Write the session to this file after correcting")
	strategy := flag.String("strategy", "", "Strategy for 5+ points: mesh-mvc or homography-constrained")
	force := flag.Bool("force", false, "Use -strategy for 4-point input too")
	noSharpen := flag.Bool("no-sharpen", false, "Skip the sharpening post-filter")
	workers := flag.Int("workers", 0, "Row stripes rendered in parallel (0 keeps the preference)")
	outDir := flag.String("out", "", "Directory for the corrected PNG (default from preferences, else .)")
	printPath := flag.String("print", "", "Also write a printable HTML page to this file")
	runOCR := flag.Bool("ocr", false, "Print the text of the corrected page (Tesseract)")
	langs := flag.String("lang", "", "Tesseract languages, comma separated (default eng)")
	expect := flag.String("expect", "", "With -ocr, file holding the expected text; prints a similarity score")
	words := flag.Bool("words", false, "With -ocr, also list each word with its box and confidence")
	psm := flag.Int("psm", -1, "With -ocr, Tesseract page segmentation mode (-1 keeps automatic)")
	noBinarize := flag.Bool("no-binarize", false, "With -ocr, skip Otsu binarization")
	watch := flag.Bool("watch", false, "With -session, re-run whenever the session file changes")
	locale := flag.String("locale", "", "Locale for status messages (default from preferences, else en)")
	savePrefs := flag.Bool("save-prefs", false, "Store the effective correction options as preferences")
	verbose := flag.Bool("v", false, "Verbose engine logging to stderr")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String(appName))
		return
	}
	if *verbose {
		logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cli := overrides{
		force:     *force,
		noSharpen: *noSharpen,
		workers:   *workers,
		outDir:    *outDir,
		languages: splitList(*langs),
	}
	if *strategy != "" {
		s, err := rectify.ParseStrategy(*strategy)
		if err != nil {
			log.Fatal(err)
		}
		cli.strategy = s
	}

	appPrefs := prefs.Load()

	tag, err := language.Parse(firstNonEmpty(*locale, appPrefs.String(prefs.KeyStatusLocale, ""), "en"))
	if err != nil {
		log.Fatalf("Invalid locale: %v", err)
	}
	sink := status.NewPrinterSink(os.Stdout, tag)

	state := session.NewState(sink)
	state.SetOptions(appPrefs.Options(rectify.DefaultOptions()))

	out := output{
		dir:       firstNonEmpty(*outDir, appPrefs.String(prefs.KeyOutputDir, ""), "."),
		printPath: *printPath,
		ocr:       *runOCR,
		languages: splitList(firstNonEmpty(*langs, appPrefs.String(prefs.KeyOCRLanguage, ""), "eng")),
		expect:    *expect,
		words:     *words,
		psm:       *psm,
		binarize:  !*noBinarize,
	}

	if *jobPath != "" {
		j, err := loadJob(*jobPath)
		if err != nil {
			log.Fatal(err)
		}
		opts, err := j.apply(state.Options())
		if err != nil {
			log.Fatalf("Job %s: %v", *jobPath, err)
		}
		state.SetOptions(opts)
		if j.Image != "" {
			if err := state.LoadImage(j.Image); err != nil {
				log.Fatalf("Failed to load image %s: %v", j.Image, err)
			}
		}
		state.SetPoints(j.points())
		if j.OutputDir != "" && *outDir == "" {
			out.dir = j.OutputDir
		}
		if j.Print != "" && *printPath == "" {
			out.printPath = j.Print
		}
		out.ocr = out.ocr || j.OCR
		if len(j.OCRLanguages) > 0 && *langs == "" {
			out.languages = j.OCRLanguages
		}
	}

	if *sessionPath != "" {
		if out, err = reload(state, *sessionPath, cli, out); err != nil {
			log.Fatalf("Failed to load session %s: %v", *sessionPath, err)
		}
	}
	if *imagePath != "" {
		if err := state.LoadImage(*imagePath); err != nil {
			log.Fatalf("Failed to load image %s: %v", *imagePath, err)
		}
	}
	if *pointsArg != "" {
		pts, err := geometry.ParsePoints(*pointsArg)
		if err != nil {
			log.Fatalf("Invalid -points: %v", err)
		}
		state.SetPoints(pts)
	}

	state.SetOptions(cli.apply(state.Options()))

	// Points alone re-run against the last page the preferences remember.
	if state.Source() == nil && state.PointCount() > 0 {
		if last := appPrefs.String(prefs.KeyLastImagePath, ""); last != "" {
			pts := state.Points()
			if err := state.LoadImage(last); err != nil {
				log.Fatalf("Failed to load last image %s: %v", last, err)
			}
			state.SetPoints(pts)
		}
	}

	if state.Source() == nil {
		fmt.Println("Usage: doc-rectifier -image <page> -points x,y;x,y;x,y;x,y [-out dir] [-print page.html]")
		fmt.Println("       doc-rectifier -job job.toml | -session doc.rectproj [-watch]")
		os.Exit(1)
	}

	if err := run(state, out); err != nil {
		os.Exit(1)
	}

	if *saveSession != "" {
		state.OutputDir, _ = filepath.Abs(out.dir)
		state.OCRLanguages = out.languages
		if err := state.SaveProject(*saveSession); err != nil {
			log.Fatalf("Failed to save session: %v", err)
		}
		log.Printf("Session saved to %s", *saveSession)
	}
	if *savePrefs {
		appPrefs.SetOptions(state.Options())
		appPrefs.SetString(prefs.KeyOutputDir, out.dir)
		appPrefs.SetString(prefs.KeyOCRLanguage, strings.Join(out.languages, ","))
		appPrefs.SetString(prefs.KeyStatusLocale, tag.String())
		if src := state.Source(); src != nil && src.Path != "" {
			appPrefs.SetString(prefs.KeyLastImagePath, src.Path)
		}
		if err := appPrefs.Save(); err != nil {
			log.Printf("Failed to save preferences: %v", err)
		}
	}

	if *watch {
		if *sessionPath == "" {
			log.Fatal("-watch needs -session")
		}
		watchSession(state, *sessionPath, cli, out)
	}
}

// run corrects the current polygon and writes every requested output.
func run(state *session.State, out output) error {
	res, err := state.Apply()
	if err != nil {
		return err
	}
	log.Printf("Corrected %dx%d via %s in %s (%d points, convex=%v)",
		res.Width, res.Height, res.Metadata.Method, res.Metadata.Elapsed.Round(time.Millisecond),
		len(res.OrderedPoints), res.Metadata.IsConvex)
	log.Printf("Ordered points: %s", geometry.FormatPoints(res.OrderedPoints))

	path, err := state.Download(out.dir, time.Now())
	if err != nil {
		return err
	}
	log.Printf("Wrote %s", path)

	if out.printPath != "" {
		f, err := os.Create(out.printPath)
		if err != nil {
			log.Printf("Failed to create %s: %v", out.printPath, err)
			return err
		}
		err = state.Print(f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		log.Printf("Wrote %s", out.printPath)
	}

	if out.ocr {
		if err := recognize(res, out); err != nil {
			log.Printf("OCR failed: %v", err)
			return err
		}
	}
	return nil
}

func recognize(res *rectify.Result, out output) error {
	engine, err := ocr.NewEngine(out.languages...)
	if err != nil {
		return err
	}
	defer engine.Close()

	engine.SetBinarize(out.binarize)
	if out.psm >= 0 {
		engine.SetPageSegMode(gosseract.PageSegMode(out.psm))
	}
	log.Printf("OCR languages: %s", strings.Join(engine.Languages(), "+"))

	text, err := engine.Recognize(res.Raster)
	if err != nil {
		return err
	}
	fmt.Println("=== Recognized text ===")
	fmt.Println(text)

	if out.words {
		words, err := engine.Words(res.Raster)
		if err != nil {
			return err
		}
		fmt.Printf("=== Words (%d) ===\n", len(words))
		for _, w := range words {
			fmt.Printf("  %-20s %v conf=%.1f\n", w.Text, w.Bounds, w.Confidence)
		}
	}

	if out.expect != "" {
		want, err := os.ReadFile(out.expect)
		if err != nil {
			return err
		}
		fmt.Printf("Similarity to %s: %.3f\n", out.expect, ocr.TextSimilarity(text, string(want)))
	}
	return nil
}

// watchSession re-runs the correction whenever the session file is saved,
// until interrupted.
func watchSession(state *session.State, path string, cli overrides, out output) {
	w, err := session.NewWatcher(path, 250*time.Millisecond)
	if err != nil {
		log.Fatalf("Watch: %v", err)
	}
	w.OnChange(func(p string) {
		log.Printf("Watch: %s changed, re-running", p)
		next, err := reload(state, p, cli, out)
		if err != nil {
			log.Printf("Watch: failed to reload session: %v", err)
			return
		}
		_ = run(state, next)
	})
	w.Start()
	log.Printf("Watch: watching %s (Ctrl-C to stop)", w.Path())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	w.Stop()
	<-w.Done()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
