//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/inamate/modeler/internal/document"
	"github.com/inamate/modeler/internal/engine"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine(engine.DefaultOptions())

	modeler := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	modeler.Set("loadDocument", js.FuncOf(loadDocument))
	modeler.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	modeler.Set("addObject", js.FuncOf(addObject))
	modeler.Set("removeObject", js.FuncOf(removeObject))
	modeler.Set("translateObject", js.FuncOf(translateObject))
	modeler.Set("scaleObject", js.FuncOf(scaleObject))
	modeler.Set("rotateObject", js.FuncOf(rotateObject))
	modeler.Set("zoom", js.FuncOf(zoom))
	modeler.Set("pan", js.FuncOf(pan))
	modeler.Set("rotateWindow", js.FuncOf(rotateWindow))
	modeler.Set("recenterOn", js.FuncOf(recenterOn))
	modeler.Set("resize", js.FuncOf(resize))
	modeler.Set("setLineClipAlgorithm", js.FuncOf(setLineClipAlgorithm))

	// --- Queries (frontend ← engine) ---
	modeler.Set("render", js.FuncOf(render))
	modeler.Set("hitTest", js.FuncOf(hitTest))
	modeler.Set("getDocument", js.FuncOf(getDocument))
	modeler.Set("getWindow", js.FuncOf(getWindow))

	js.Global().Set("modelerEngine", modeler)
	js.Global().Set("modelerWasmReady", js.ValueOf(true))

	select {}
}

func result(err error) interface{} {
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func missing(what string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": "missing " + what})
}

func floats(args []js.Value, n int) ([]float64, bool) {
	if len(args) < n {
		return nil, false
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = args[i].Float()
	}
	return out, true
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("document JSON")
	}
	return result(eng.LoadDocumentJSON(args[0].String()))
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	sceneID := "scene_sample"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		sceneID = args[0].String()
	}
	return result(eng.LoadSampleDocument(sceneID))
}

func addObject(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("object JSON")
	}
	var obj document.ObjectNode
	if err := json.Unmarshal([]byte(args[0].String()), &obj); err != nil {
		return result(err)
	}
	p, err := eng.AddObject(obj)
	if err != nil {
		return result(err)
	}
	return js.ValueOf(map[string]interface{}{"ok": true, "id": p.ID})
}

func removeObject(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("object id")
	}
	return result(eng.Remove(args[0].String()))
}

func translateObject(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return missing("object id and offset")
	}
	v, _ := floats(args[1:], 3)
	return result(eng.TranslateObject(args[0].String(), v[0], v[1], v[2]))
}

func scaleObject(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return missing("object id and factors")
	}
	v, _ := floats(args[1:], 3)
	return result(eng.ScaleObject(args[0].String(), v[0], v[1], v[2]))
}

// rotateObject(id, ax, ay, az, pivot?, px?, py?, pz?)
func rotateObject(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return missing("object id and angles")
	}
	v, _ := floats(args[1:], 3)
	mode := engine.PivotCenter
	var point engine.Coordinate
	if len(args) > 4 {
		m, err := engine.ParsePivotMode(args[4].String())
		if err != nil {
			return result(err)
		}
		mode = m
	}
	if p, ok := floats(args[min(len(args), 5):], 3); ok {
		point = engine.Pt(p[0], p[1], p[2])
	}
	return result(eng.RotateObject(args[0].String(), v[0], v[1], v[2], mode, point))
}

func zoom(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("zoom step")
	}
	return result(eng.ApplyWindowZoom(args[0].Float()))
}

func pan(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("pan offset")
	}
	dz := 0.0
	if len(args) > 2 {
		dz = args[2].Float()
	}
	eng.ApplyWindowPan(args[0].Float(), args[1].Float(), dz)
	return result(nil)
}

func rotateWindow(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("axis and angle")
	}
	axis, err := engine.ParseAxis(args[0].String())
	if err != nil {
		return result(err)
	}
	eng.ApplyWindowRotate(axis, args[1].Float())
	return result(nil)
}

func recenterOn(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("object id")
	}
	return result(eng.RecenterOn(args[0].String()))
}

func resize(this js.Value, args []js.Value) interface{} {
	v, ok := floats(args, 2)
	if !ok {
		return missing("viewport size")
	}
	return result(eng.ResizeViewport(v[0], v[1]))
}

func setLineClipAlgorithm(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("algorithm")
	}
	alg, err := engine.ParseLineClipAlgorithm(args[0].String())
	if err != nil {
		return result(err)
	}
	eng.SetLineClipAlgorithm(alg)
	return result(nil)
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Render())
}

// hitTest takes viewport pixel coordinates.
func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	x, y := eng.Viewport().Unmap(args[0].Float(), args[1].Float())
	return js.ValueOf(eng.HitTest(x, y))
}

func getDocument(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetDocument())
}

func getWindow(this js.Value, args []js.Value) interface{} {
	data, _ := json.Marshal(eng.Window())
	return js.ValueOf(string(data))
}
