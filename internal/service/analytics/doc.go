// Package analytics keeps the per-list daily subscriber rollup and builds
// the dashboard summary.
package analytics
