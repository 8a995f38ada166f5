package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inamate/modeler/internal/document"
	"github.com/inamate/modeler/internal/engine"
	"github.com/inamate/modeler/internal/objfile"
)

var (
	// Global flags
	verbose   bool
	curveStep float64
)

var rootCmd = &cobra.Command{
	Use:   "modelctl",
	Short: "Render, inspect and convert modeler scenes",
	Long: `Offline tools for modeler scenes stored as Wavefront OBJ or as scene
document JSON.

Examples:
  modelctl render scene.obj -o scene.png --zoom -20 --rotate y:30
  modelctl inspect scene.obj
  modelctl convert scene.obj -o scene.json`,
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		if verbose {
			engine.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline passes to stderr")
	rootCmd.PersistentFlags().Float64Var(&curveStep, "step", engine.DefaultCurveStep, "curve and surface sampling step")
}

// loadDocument reads an OBJ file, or a scene document when path ends in
// .json. OBJ material libraries are looked up next to the file.
func loadDocument(path string) (*document.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if strings.EqualFold(filepath.Ext(path), ".json") {
		var doc document.Document
		if err := json.NewDecoder(f).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return &doc, nil
	}

	dir := filepath.Dir(path)
	objs, err := objfile.Decode(f, objfile.Options{
		Name: base,
		Materials: func(name string) (io.ReadCloser, error) {
			return os.Open(filepath.Join(dir, filepath.Base(name)))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	doc := document.NewEmptyDocument("scene_"+base, base)
	doc.Objects = objs
	return doc, nil
}

// newEngine loads doc into an engine with the command-line options.
func newEngine(doc *document.Document) (*engine.Engine, error) {
	opts := engine.DefaultOptions()
	opts.CurveStep = curveStep
	eng := engine.NewEngine(opts)
	if err := eng.LoadDocument(doc); err != nil {
		return nil, err
	}
	return eng, nil
}
