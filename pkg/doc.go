// Package pkg provides the libraries behind flat, a renderer that draws
// grouped data as plain-text charts.
//
// # Overview
//
// The pkg directory is organized into three areas:
//
//  1. Data: [dataset] rows and role views, [io] document codecs and
//     [source/mongo] collection loading.
//  2. Drawing: [aggregate], [bin], [collapse], [abbreviate] and [grid]
//     feed [chart], which renders bar, dag, path and histogram charts.
//     [nodelink] exports the same grouping as a Graphviz tree.
//  3. Infrastructure: [pipeline] orchestration, [cache], [observability]
//     hooks, [errors] and [buildinfo].
//
// # Architecture
//
// The typical data flow through flat:
//
//	JSON/TOML/YAML document or MongoDB collection
//	         ↓
//	    [io] / [source/mongo] (load a dataset)
//	         ↓
//	    [dataset] (resolve primary, display, breakdown and value roles)
//	         ↓
//	    [chart] (collapse paths, aggregate, lay out the grid)
//	         ↓
//	    text chart
//
// # Quick Start
//
//	d, _ := io.ReadDatasetFile("zoo.json")
//	view, _ := d.Resolve(dataset.RoleNames{Display: []string{"animal"}})
//	flat, _ := chart.Render(chart.KindBar, view, chart.Options{Width: 80})
//	fmt.Println(flat.String())
//
// Or run the whole pipeline with caching:
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, _ := runner.Execute(ctx, pipeline.Options{Path: "zoo.json"})
//	fmt.Println(result.Chart)
package pkg
