package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inamate/modeler/internal/engine"
	"github.com/inamate/modeler/internal/preview"
)

var (
	renderOutput    string
	renderZoom      float64
	renderPan       []float64
	renderRotate    []string
	renderAlgorithm string
	renderWidth     int
	renderHeight    int
	renderLabels    bool
	renderRecenter  string
)

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Render a scene to PNG",
	Long: `Run a scene through the viewing pipeline and rasterize the clipped
result. View changes are applied in order: recenter, rotate, pan, zoom.

Examples:
  modelctl render scene.obj -o scene.png
  modelctl render scene.obj -o top.png --rotate x:90 --zoom -50
  modelctl render scene.json -o lb.png --algorithm liang-barsky --labels`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "out.png", "output PNG file")
	renderCmd.Flags().Float64Var(&renderZoom, "zoom", 0, "zoom step in percent; negative zooms in")
	renderCmd.Flags().Float64SliceVar(&renderPan, "pan", nil, "pan the window by dx,dy[,dz]")
	renderCmd.Flags().StringArrayVar(&renderRotate, "rotate", nil, "rotate the window, as axis:degrees (repeatable)")
	renderCmd.Flags().StringVar(&renderAlgorithm, "algorithm", "cohen-sutherland", "line clipping algorithm")
	renderCmd.Flags().IntVar(&renderWidth, "width", 600, "image width in pixels")
	renderCmd.Flags().IntVar(&renderHeight, "height", 600, "image height in pixels")
	renderCmd.Flags().BoolVar(&renderLabels, "labels", false, "draw object names")
	renderCmd.Flags().StringVar(&renderRecenter, "center-on", "", "recenter the window on the named object")
}

func runRender(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(args[0])
	if err != nil {
		return err
	}
	eng, err := newEngine(doc)
	if err != nil {
		return err
	}

	if err := applyView(eng); err != nil {
		return err
	}

	opts := preview.DefaultOptions()
	opts.Width = renderWidth
	opts.Height = renderHeight
	opts.Labels = renderLabels

	out, err := os.Create(renderOutput)
	if err != nil {
		return err
	}
	if err := preview.EncodePNG(out, eng.DrawCommands(), opts); err != nil {
		out.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := out.Close(); err != nil {
		return err
	}

	if verbose {
		visible := 0
		for _, p := range eng.Objects() {
			if p.Visible {
				visible++
			}
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d objects visible\n", visible, len(eng.Objects()))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", renderOutput)
	return nil
}

func applyView(eng *engine.Engine) error {
	alg, err := engine.ParseLineClipAlgorithm(renderAlgorithm)
	if err != nil {
		return err
	}
	eng.SetLineClipAlgorithm(alg)

	if renderRecenter != "" {
		p, ok := eng.ObjectByName(renderRecenter)
		if !ok {
			return fmt.Errorf("no object named %q", renderRecenter)
		}
		if err := eng.RecenterOn(p.ID); err != nil {
			return err
		}
	}

	for _, r := range renderRotate {
		axis, degrees, err := parseRotation(r)
		if err != nil {
			return err
		}
		eng.ApplyWindowRotate(axis, degrees)
	}

	if len(renderPan) > 0 {
		if len(renderPan) < 2 || len(renderPan) > 3 {
			return fmt.Errorf("--pan takes dx,dy or dx,dy,dz, got %d values", len(renderPan))
		}
		var dz float64
		if len(renderPan) == 3 {
			dz = renderPan[2]
		}
		eng.ApplyWindowPan(renderPan[0], renderPan[1], dz)
	}

	if renderZoom != 0 {
		if err := eng.ApplyWindowZoom(renderZoom); err != nil {
			return err
		}
	}
	return nil
}

// parseRotation reads "axis:degrees", e.g. "y:30".
func parseRotation(s string) (engine.Axis, float64, error) {
	name, deg, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("rotation %q is not axis:degrees", s)
	}
	axis, err := engine.ParseAxis(name)
	if err != nil {
		return 0, 0, err
	}
	degrees, err := strconv.ParseFloat(deg, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("rotation %q: %w", s, err)
	}
	return axis, degrees, nil
}
