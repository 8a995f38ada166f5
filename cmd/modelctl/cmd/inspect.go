package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "List the objects in a scene and their visibility",
	Long: `Load a scene, run the default pipeline pass and print one line per
object with its type, color, geometry size and clipped output size.

Examples:
  modelctl inspect scene.obj
  modelctl inspect --step 0.1 scene.json`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(args[0])
	if err != nil {
		return err
	}
	eng, err := newEngine(doc)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scene: %s (%d objects)\n\n", doc.Scene.Name, len(doc.Objects))

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tCOLOR\tINPUT\tPARTS\tCLIPPED\tVISIBLE")
	for i, p := range eng.Objects() {
		obj := doc.Objects[i]
		input := len(obj.Vertices) + len(obj.Control)
		for _, f := range obj.Faces {
			input += len(f)
		}

		clipped := len(p.Derived)
		for _, part := range p.Parts {
			clipped += len(part.Derived)
		}

		color := obj.Color
		if color == "" {
			color = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%v\n",
			p.Name, obj.Type, color, input, len(p.Parts), clipped, p.Visible)
	}
	return tw.Flush()
}
