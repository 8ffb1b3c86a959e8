// Package exporter renders rate tables as CSV and Excel workbooks. All
// writers target io.Writer so HTTP handlers and the export CLI share one
// code path.
package exporter
