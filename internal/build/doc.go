// Package build runs one site build from source tree to published output.
//
// A Builder executes a fixed sequence of named stages (load_config, scan, parse, graph,
// render, assets, verify_anchors, publish), timing each one into a Report. Rendering fans
// out over a fixed-size worker pool whose queue accepts follow-up jobs, so a paginated page
// template can schedule its own pages. Everything is written to a staging directory that
// only replaces the output directory when every stage succeeded; a failed or canceled build
// leaves the previous output untouched.
package build
