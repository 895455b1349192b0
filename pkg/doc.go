// Package pkg provides the core libraries of mapabo, the Bolivia map composer.
//
// # Overview
//
// mapabo loads thematic GeoJSON layers from a catalog, lays them over the
// political base of Bolivia (departments and provinces), decides which names
// are drawn at the current zoom and exports the composition as SVG, PNG or PDF. The pkg directory is organized into four areas:
//
//  1. Data: [catalog], [layers], [geo], [props], [region]
//  2. Map logic: [label], [style], [politico], [viewport]
//  3. Output: [render], [fonts]
//  4. Orchestration: [pipeline], [session], [cache], [config]
//
// # Architecture
//
// The typical data flow:
//
//	Catalog entry (URL or local path)
//	         ↓
//	    [layers] package (fetch, cache, decode)
//	         ↓
//	    [region] + [politico] packages (hierarchy, selection, styles)
//	         ↓
//	    [label] package (gating + collision avoidance)
//	         ↓
//	    [render] package (scene → SVG/PNG/PDF)
//
// # Quick Start
//
// Export a map with the political base and one thematic layer:
//
//	import (
//	    "context"
//	    "github.com/institutoite/bolivia/pkg/catalog"
//	    "github.com/institutoite/bolivia/pkg/pipeline"
//	)
//
//	cat, _ := catalog.ScanDir("examples/data", "examples/data")
//	rios, _ := cat.Find("rios.geojson")
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, _ := runner.Execute(context.Background(), pipeline.Options{
//	    Layers:  []catalog.Entry{rios},
//	    ADM1:    "examples/data/limites/adm1.geojson",
//	    ADM3:    "examples/data/limites/adm3.geojson",
//	    Formats: []string{"svg", "png"},
//	})
//	svg := res.Artifacts["svg"]
//
// # Main Packages
//
// [catalog] - The list of available layers, grouped by theme. Built in,
// loaded from an index file or scanned from a directory tree.
//
// [layers] - Fetches layer bytes over HTTP or from disk with retries and a
// byte cache, then decodes them into [geo] layers.
//
// [label] - Pure label resolution: a layer is labelled when it is small or
// the view is close enough, and labels of one layer keep a minimum screen
// distance from each other.
//
// [region] - Department and province hierarchy. A province belongs to the
// first department whose outline contains its center.
//
// [style] - Per-region styles, the attenuation rules of the selection modes
// and the global opacity, stroke and halo parameters.
//
// [politico] - The political map: selection state machine, region labels,
// legend and the view that frames the current selection.
//
// [render] - Scene composition and export. PNG and PDF are drawn by an
// internal rasterizer; rsvg-convert is used only when that fails.
//
// [pipeline] - Load → labels → export, with artifact caching. Used by both
// the CLI and the HTTP server.
//
// [session] - Per-user interactive state for the HTTP server.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...             # All tests
//	go test ./pkg/label/...       # Specific package
//	go test -run Example ./pkg/...
//
// [catalog]: https://pkg.go.dev/github.com/institutoite/bolivia/pkg/catalog
// [layers]: https://pkg.go.dev/github.com/institutoite/bolivia/pkg/layers
// [geo]: https://pkg.go.dev/github.com/institutoite/bolivia/pkg/geo
// [props]: https://pkg.go.dev/github.com/institutoite/bolivia/pkg/props
// [region]: https://pkg.go.dev/github.com/institutoite/bolivia/pkg/region
// [label]: https://pkg.go.dev/github.com/institutoite/bolivia/pkg/label
// [style]: https://pkg.go.dev/github.com/institutoite/bolivia/pkg/style
// [politico]: https://pkg.go.dev/github.com/institutoite/bolivia/pkg/politico
// [viewport]: https://pkg.go.dev/github.com/institutoite/bolivia/pkg/viewport
// [render]: https://pkg.go.dev/github.com/institutoite/bolivia/pkg/render
// [fonts]: https://pkg.go.dev/github.com/institutoite/bolivia/pkg/fonts
// [pipeline]: https://pkg.go.dev/github.com/institutoite/bolivia/pkg/pipeline
// [session]: https://pkg.go.dev/github.com/institutoite/bolivia/pkg/session
// [cache]: https://pkg.go.dev/github.com/institutoite/bolivia/pkg/cache
// [config]: https://pkg.go.dev/github.com/institutoite/bolivia/pkg/config
package pkg
