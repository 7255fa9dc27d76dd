package monitor

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/banshee-data/particle.report/internal/particle/l3objects"
)

// typeColors spaces the particle types evenly around the HCL hue circle.
var typeColors = func() map[l3objects.PartType]colorful.Color {
	n := len(l3objects.AllPartTypes)
	out := make(map[l3objects.PartType]colorful.Color, n)
	for i, pt := range l3objects.AllPartTypes {
		hue := 360 * float64(i) / float64(n)
		out[pt] = colorful.Hcl(hue, 0.6, 0.65).Clamped()
	}
	// Unknown stays neutral.
	out[l3objects.Unknown] = colorful.Hcl(0, 0, 0.6).Clamped()
	return out
}()

// TypeColor returns the display colour for a particle type.
func TypeColor(pt l3objects.PartType) colorful.Color {
	if c, ok := typeColors[pt]; ok {
		return c
	}
	return typeColors[l3objects.Unknown]
}
