package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inamate/modeler/internal/document"
	"github.com/inamate/modeler/internal/objfile"
)

var convertOutput string

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert between OBJ and scene document JSON",
	Long: `Convert a scene. The output format follows the extension of --output:
.json writes a scene document, .obj writes Wavefront OBJ with a material
library of the same name next to it.

Examples:
  modelctl convert scene.obj -o scene.json
  modelctl convert scene.json -o scene.obj`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "output file (.json or .obj)")
	convertCmd.MarkFlagRequired("output")
}

func runConvert(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(args[0])
	if err != nil {
		return err
	}
	// Round trip through the engine so an unrenderable scene is never
	// written and OBJ objects get ids.
	eng, err := newEngine(doc)
	if err != nil {
		return err
	}
	doc = eng.Document()

	switch ext := strings.ToLower(filepath.Ext(convertOutput)); ext {
	case ".json":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(convertOutput, append(data, '\n'), 0o644); err != nil {
			return err
		}
	case ".obj":
		if err := writeOBJ(doc.Objects, convertOutput); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported output extension %q", ext)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d objects)\n", convertOutput, len(doc.Objects))
	return nil
}

func writeOBJ(objs []document.ObjectNode, path string) error {
	mtlPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".mtl"

	obj, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := objfile.NewEncoder(obj)
	enc.SetMaterialLibrary(filepath.Base(mtlPath))
	if err := enc.Encode(objs); err != nil {
		obj.Close()
		return err
	}
	if err := obj.Close(); err != nil {
		return err
	}

	mtl, err := os.Create(mtlPath)
	if err != nil {
		return err
	}
	if err := objfile.EncodeMaterials(mtl, objs); err != nil {
		mtl.Close()
		return err
	}
	return mtl.Close()
}
