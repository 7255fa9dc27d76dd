package l3objects

import (
	"fmt"
	"strings"
)

// PartType is the particle category assigned to a track.
type PartType int

const (
	// Alpha is a heavy, compact, high-energy hit.
	Alpha PartType = iota
	// Beta is a low-energy, possibly curly, track.
	Beta
	// Gamma is a hit of fewer than four cells.
	Gamma
	// Muon is a long, straight, low-energy track.
	Muon
	// Unknown is anything the heuristic cannot place.
	Unknown
)

// AllPartTypes lists every PartType in display order.
var AllPartTypes = []PartType{Alpha, Beta, Gamma, Muon, Unknown}

var partTypeNames = [...]string{
	Alpha:   "ALPHA",
	Beta:    "BETA",
	Gamma:   "GAMMA",
	Muon:    "MUON",
	Unknown: "UNKNOWN",
}

func (p PartType) String() string {
	if p < 0 || int(p) >= len(partTypeNames) {
		return fmt.Sprintf("PartType(%d)", int(p))
	}
	return partTypeNames[p]
}

// ParsePartType is the inverse of String. It is case-insensitive.
func ParsePartType(s string) (PartType, error) {
	for _, p := range AllPartTypes {
		if strings.EqualFold(s, partTypeNames[p]) {
			return p, nil
		}
	}
	return Unknown, fmt.Errorf("unknown particle type %q", s)
}

// MarshalText encodes the type by name so JSON maps and fields read as
// "ALPHA" rather than 0.
func (p PartType) MarshalText() ([]byte, error) {
	if p < 0 || int(p) >= len(partTypeNames) {
		return nil, fmt.Errorf("invalid particle type %d", int(p))
	}
	return []byte(partTypeNames[p]), nil
}

// UnmarshalText decodes a name written by MarshalText.
func (p *PartType) UnmarshalText(b []byte) error {
	v, err := ParsePartType(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
