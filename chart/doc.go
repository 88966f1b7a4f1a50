// Package chart renders tables to PNG images.
//
// Every renderer writes exactly one file and returns its path. Output is
// deterministic for a given input: DPI, figure size, fonts and palette
// are fixed, and nothing is drawn from the clock or a random source.
//
// # Output Location
//
// Renderers write into Options.Dir, creating it when needed. When Dir is
// empty a fresh temporary directory prefixed "fpl_charts_" is created for
// the single file. File names are chosen by chart type (line.png, bar.png,
// heatmap.png, comparison.png); if the name is already taken a numeric
// suffix is added (bar_2.png, bar_3.png) so repeated calls into one
// directory never overwrite each other.
//
// # Renderers
//
//   - [Line]: one or more series over an x column, grouped by a hue column.
//   - [Bar]: one bar per row, vertical or horizontal.
//   - [Heatmap]: a labelled numeric grid on a fixed colour scale.
//   - [Comparison]: grouped bars comparing metrics across named entities.
package chart
