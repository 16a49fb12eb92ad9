// Package build runs the pagesmith pipeline.
//
// A build loads the source tree, renders every non-literal file once in
// memory so that later files can include the rendered output of earlier ones,
// then renders again from that content, splits the result into pages and
// writes everything below the output root. Each run draws a fresh run ID that
// scopes the section sentinels it bakes.
package build
