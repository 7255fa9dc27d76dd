// Package monitor presents classified particles: a single/combined track
// viewer, PNG rendering through gonum/plot, go-echarts HTML charts and a
// small JSON API over the last pipeline result.
package monitor
