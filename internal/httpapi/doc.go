// Package httpapi groups HTTP handlers by domain so route behavior is easier to locate.
//
// Domain files:
// - professionals and CSV import
// - offers
// - projects, timeline, pricing and export
// - allocations of a project
// - calendar weeks
package httpapi
