package l3objects

import "github.com/banshee-data/particle.report/internal/particle/l1grid"

// Classification thresholds. These are fixed policy values, not fitted
// parameters. The comparison operator used with each one is part of the
// policy: see Classify.
const (
	// Size bands (cells)
	GammaSizeMax   = 4    // size < 4 is a gamma
	LongTrackSize  = 50   // size >= 50 uses the long-track rules
	BetaAvgMax     = 40.0 // avg < 40 in both beta rules
	AlphaRoundness = 0.4  // roundness > 0.4 in both alpha rules

	// Short tracks (4 <= size < 50)
	ShortBetaMaxEnergy    = 150.0 // max < 150 and avg < 40 is a beta
	ShortAlphaMinEnergy   = 100.0 // otherwise max > 100 may be an alpha
	ShortBetaWindingSplit = 1.0   // evaluated, both sides are beta

	// Long tracks (size >= 50)
	LongLowMaxEnergy   = 100.0 // max < 100 is beta, muon or unknown
	LongBetaMinWinding = 1.0   // winding > 1 separates beta from muon
)

// FeatureSource supplies the features the classifier may ask for. Callers
// backed by lazily computed features only pay for the ones a decision path
// actually reads.
type FeatureSource interface {
	Size() int
	MaxEnergy() float64
	AvgEnergy() float64
	Roundness() float64
	Winding() float64
}

// Classify runs the particle decision procedure:
//
//	size < 4                        GAMMA
//	4 <= size < 50
//	  max < 150 && avg < 40         BETA (winding is read, result is BETA either way)
//	  max > 100                     ALPHA if roundness > 0.4, else UNKNOWN
//	  otherwise                     UNKNOWN
//	size >= 50
//	  max < 100 && avg < 40         BETA if winding > 1.0, else MUON
//	  max < 100                     UNKNOWN
//	  otherwise                     ALPHA if roundness > 0.4, else UNKNOWN
func Classify(f FeatureSource) PartType {
	size := f.Size()
	switch {
	case size < GammaSizeMax:
		return Gamma

	case size < LongTrackSize:
		if f.MaxEnergy() < ShortBetaMaxEnergy && f.AvgEnergy() < BetaAvgMax {
			if f.Winding() < ShortBetaWindingSplit {
				return Beta
			}
			return Beta
		}
		if f.MaxEnergy() > ShortAlphaMinEnergy {
			if f.Roundness() > AlphaRoundness {
				return Alpha
			}
			return Unknown
		}
		return Unknown

	default:
		if f.MaxEnergy() < LongLowMaxEnergy && f.AvgEnergy() < BetaAvgMax {
			if f.Winding() > LongBetaMinWinding {
				return Beta
			}
			return Muon
		}
		if f.MaxEnergy() < LongLowMaxEnergy {
			return Unknown
		}
		if f.Roundness() > AlphaRoundness {
			return Alpha
		}
		return Unknown
	}
}

// Features is a plain snapshot of classifier inputs. It satisfies
// FeatureSource for stored tracks, see ClassifySummary.
type Features struct {
	Cells int
	Max   float64
	Avg   float64
	Round float64
	Wind  float64
}

func (f Features) Size() int          { return f.Cells }
func (f Features) MaxEnergy() float64 { return f.Max }
func (f Features) AvgEnergy() float64 { return f.Avg }
func (f Features) Roundness() float64 { return f.Round }
func (f Features) Winding() float64   { return f.Wind }

// FeaturesOf rebuilds classifier inputs from a summary. A nil roundness or
// winding reads as 0: the rules only reach a shape feature on a branch that
// computed it when the summary was made.
func FeaturesOf(s Summary) Features {
	f := Features{Cells: s.Size, Max: s.MaxEnergy, Avg: s.AvgEnergy}
	if s.Roundness != nil {
		f.Round = *s.Roundness
	}
	if s.Winding != nil {
		f.Wind = *s.Winding
	}
	return f
}

// ParticleClassifier tags classification results with the rule set that
// produced them, so persisted runs can be compared across revisions.
type ParticleClassifier struct {
	ModelVersion string
}

// NewParticleClassifier creates the classifier for the current rule set.
func NewParticleClassifier() *ParticleClassifier {
	return &ParticleClassifier{
		ModelVersion: "heuristic-v1.0",
	}
}

// ClassificationResult pairs a particle type with the model that chose it.
type ClassificationResult struct {
	Type  PartType
	Model string
}

// Classify classifies p against g, reusing p's cached type when present.
func (pc *ParticleClassifier) Classify(p *Particle, g *l1grid.Grid) ClassificationResult {
	return ClassificationResult{
		Type:  p.ParticleType(g),
		Model: pc.ModelVersion,
	}
}

// ClassifySummary re-runs the rules over a stored summary.
func (pc *ParticleClassifier) ClassifySummary(s Summary) ClassificationResult {
	return ClassificationResult{
		Type:  Classify(FeaturesOf(s)),
		Model: pc.ModelVersion,
	}
}
