// Package boundary - Per-frame detection of closed boundary regions and their
// temporally stabilized overlay.
//
// Each frame passes through six stages. Only the Accumulator keeps state
// between frames; every other stage is a pure function of its inputs.
//
// Pipeline Overview:
//
// ┌──────────────┐
// │ Input Frame  │
// └──────┬───────┘
// ┌──────────────────────────────────────────────┐
// │ Segmenter (luma, adaptive threshold, dilate) │
// └──────┬───────────────────────────────────────┘
// ┌──────────────────────────────────────────────┐
// │ ContourExtractor (outer borders, simplify)   │
// └──────┬───────────────────────────────────────┘
// ┌──────────────────────────────────────────────┐
// │ ClosureFilter (area, convexity, fill)        │
// └──────┬───────────────────────────────────────┘
// ┌──────────────────────────────────────────────┐
// │ Accumulator (leaky integrator over frames)   │
// └──────┬───────────────────────────────────────┘
// ┌──────────────────────────────────────────────┐
// │ Stabilizer (5x5 opening)                     │
// └──────┬───────────────────────────────────────┘
// ┌──────────────────────────────────────────────┐
// │ Compositor (colour fill, bounding boxes)     │
// └──────────────────────────────────────────────┘
//
// Usage:
//
//	p := boundary.New(boundary.Options{Logger: logger})
//	for frame := range frames {
//	    res := p.Process(frame, store.Snapshot())
//	    show(res.Output)
//	}
//
// A Pipeline owns its accumulated mask, so independent streams need
// independent pipelines.
package boundary
