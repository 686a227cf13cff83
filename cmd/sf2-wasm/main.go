//go:build js && wasm

package main

import (
	"syscall/js"
	"unsafe"

	"github.com/cwbudde/algo-sf2/graph"
	"github.com/cwbudde/algo-sf2/soundfont"
	"github.com/cwbudde/algo-sf2/synth"
)

const (
	maxBlock          = 128
	defaultSampleRate = 44100
)

var (
	sampleRate   int
	globalCtx    *graph.Context
	globalSynth  *synth.Synth
	outputBuffer []float32
)

func main() {
	c := make(chan struct{})

	js.Global().Set("wasmInit", js.FuncOf(wasmInit))
	js.Global().Set("wasmLoadBank", js.FuncOf(wasmLoadBank))
	js.Global().Set("wasmNoteOn", js.FuncOf(wasmNoteOn))
	js.Global().Set("wasmNoteOff", js.FuncOf(wasmNoteOff))
	js.Global().Set("wasmSetPreset", js.FuncOf(wasmSetPreset))
	js.Global().Set("wasmSetPitchBend", js.FuncOf(wasmSetPitchBend))
	js.Global().Set("wasmPresetNames", js.FuncOf(wasmPresetNames))
	js.Global().Set("wasmProcessBlock", js.FuncOf(wasmProcessBlock))
	js.Global().Set("wasmGetMemoryBuffer", js.FuncOf(wasmGetMemoryBuffer))

	outputBuffer = make([]float32, maxBlock)
	println("WASM sf2 module loaded")
	<-c
}

func wasmInit(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	sampleRate = args[0].Int()
	return nil
}

// wasmLoadBank takes an ArrayBuffer holding an .sf2 file and returns an
// error string, or null on success.
func wasmLoadBank(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return "missing bank data"
	}
	data := make([]byte, args[0].Get("byteLength").Int())
	js.CopyBytesToGo(data, js.Global().Get("Uint8Array").New(args[0]))

	sf, err := soundfont.Load(data)
	if err != nil {
		return err.Error()
	}
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}
	globalCtx = graph.NewContext(sampleRate)
	globalSynth = synth.New(globalCtx, sf)
	println("Bank loaded:", sf.Info.Name, len(data), "bytes")
	return nil
}

func wasmNoteOn(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 || globalSynth == nil {
		return nil
	}
	globalSynth.NoteOn(args[0].Int(), args[1].Int(), args[2].Int())
	return nil
}

func wasmNoteOff(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || globalSynth == nil {
		return nil
	}
	globalSynth.NoteOff(args[0].Int(), args[1].Int())
	return nil
}

func wasmSetPreset(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 || globalSynth == nil {
		return nil
	}
	ch := args[0].Int()
	globalSynth.SetBank(ch, args[2].Int())
	globalSynth.SetPreset(ch, args[1].Int())
	return nil
}

// wasmSetPitchBend takes the bend in cents.
func wasmSetPitchBend(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || globalSynth == nil {
		return nil
	}
	globalSynth.SetPitchBend(args[0].Int(), args[1].Float())
	return nil
}

func wasmPresetNames(this js.Value, args []js.Value) interface{} {
	if globalSynth == nil {
		return js.ValueOf([]interface{}{})
	}
	var out []interface{}
	for _, p := range globalSynth.PresetNames() {
		out = append(out, map[string]interface{}{
			"number": p.Number,
			"bank":   p.Bank,
			"name":   p.Name,
		})
	}
	return js.ValueOf(out)
}

func wasmProcessBlock(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || globalCtx == nil {
		return 0
	}
	numFrames := args[0].Int()
	if numFrames > maxBlock {
		numFrames = maxBlock
	}
	globalCtx.Render(outputBuffer[:numFrames])

	ptr := &outputBuffer[0]
	return js.ValueOf(uintptr(unsafe.Pointer(ptr)))
}

func wasmGetMemoryBuffer(this js.Value, args []js.Value) interface{} {
	return js.Global().Get("Go").Get("_inst").Get("exports").Get("mem").Get("buffer")
}
