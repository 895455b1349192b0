// Package render turns a composed map into SVG, PNG or PDF.
//
// # Overview
//
// [Compose] projects the visible layers, political units and labels of a
// view into a [Scene] in container pixels. A scene is then written by one of
// the sinks:
//
//   - [RenderSVG] writes vector output.
//   - [Rasterize] draws the scene with fogleman/gg.
//   - [Export] produces PNG or PDF bytes, falling back to SVG converted by
//     rsvg-convert when the raster path fails.
//
// # Format Conversion
//
// [ToPNG] shells out to rsvg-convert (librsvg). Only the fallback path and
// callers that already hold an SVG need it:
//
//	svg := render.RenderSVG(scene)
//	png, err := render.ToPNG(svg, 2.0)
//
// # Size limits
//
// PNG exports are down-scaled to at most [MaxPNGSide] pixels per side and
// PDF pages to [MaxPDFSide]. A PDF page is landscape when the image is at
// least as wide as it is tall.
package render
