// Package pipeline runs a grid through extraction and classification and
// collects the results the presentation and storage layers consume.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/particle.report/internal/config"
	"github.com/banshee-data/particle.report/internal/monitoring"
	"github.com/banshee-data/particle.report/internal/particle/l1grid"
	"github.com/banshee-data/particle.report/internal/particle/l2tracks"
	"github.com/banshee-data/particle.report/internal/particle/l3objects"
)

// Result holds one processed grid.
type Result struct {
	Grid      *l1grid.Grid
	Reach     int
	Model     string
	Particles []*l3objects.Particle // ordered by track id
	Summaries []l3objects.Summary   // parallel to Particles
	Tally     map[l3objects.PartType]int

	ExtractTime  time.Duration
	ClassifyTime time.Duration
}

// Run extracts tracks from g and classifies every one of them using up to
// cfg.GetWorkers() goroutines. A nil cfg uses the built-in defaults.
//
// Classification stops early when ctx is cancelled; the context error is
// returned and no partial Result is produced.
func Run(ctx context.Context, g *l1grid.Grid, cfg *config.TuningConfig) (*Result, error) {
	if g == nil {
		return nil, fmt.Errorf("pipeline: nil grid")
	}
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	reach := max(cfg.GetReach(), l2tracks.MinReach)

	start := time.Now()
	tracks := l2tracks.Extract(g, nil, reach)
	particles := l3objects.FromTracks(tracks)
	extractTime := time.Since(start)
	monitoring.Debugf("[pipeline] extracted %d tracks from %dx%d grid (reach=%d) in %v",
		len(particles), g.Rows(), g.Cols(), reach, extractTime)

	classifier := l3objects.NewParticleClassifier()
	summaries := make([]l3objects.Summary, len(particles))

	start = time.Now()
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.GetWorkers())
	for i, p := range particles {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			r := classifier.Classify(p, g)
			s := p.Summarize(g, false)
			s.Type = r.Type
			summaries[i] = s
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("classify tracks: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("classify tracks: %w", err)
	}
	classifyTime := time.Since(start)

	res := &Result{
		Grid:         g,
		Reach:        reach,
		Model:        classifier.ModelVersion,
		Particles:    particles,
		Summaries:    summaries,
		Tally:        l3objects.Tally(particles, g),
		ExtractTime:  extractTime,
		ClassifyTime: classifyTime,
	}
	monitoring.Logf("[pipeline] classified %d tracks (%s) extract=%v classify=%v",
		len(particles), FormatTally(res.Tally), extractTime, classifyTime)
	return res, nil
}

// FormatTally renders a tally in display order, e.g. "ALPHA=1 BETA=0 ...".
func FormatTally(tally map[l3objects.PartType]int) string {
	var s string
	for i, pt := range l3objects.AllPartTypes {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s=%d", pt, tally[pt])
	}
	return s
}
