package monitor

import (
	"fmt"
	"sync"
)

// Mode selects which tracks a view shows.
type Mode int

const (
	// Combined shows every track at once.
	Combined Mode = iota
	// Single shows one track, chosen by the viewer's index.
	Single
)

func (m Mode) String() string {
	switch m {
	case Combined:
		return "combined"
	case Single:
		return "single"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode is the inverse of String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "combined":
		return Combined, nil
	case "single":
		return Single, nil
	}
	return Combined, fmt.Errorf("unknown view mode %q", s)
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText decodes a name written by MarshalText.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Viewer tracks the display mode and the selected track index. Next and
// Prev wrap around in both directions. It is safe for concurrent use.
type Viewer struct {
	mu    sync.Mutex
	mode  Mode
	index int
	count int
}

// ViewState is a snapshot of a Viewer.
type ViewState struct {
	Mode  Mode `json:"mode"`
	Index int  `json:"index"`
	Count int  `json:"count"`
}

// NewViewer creates a viewer over count tracks.
func NewViewer(count int, mode Mode) *Viewer {
	return &Viewer{mode: mode, count: max(count, 0)}
}

// State returns the current mode, index and track count.
func (v *Viewer) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return ViewState{Mode: v.mode, Index: v.index, Count: v.count}
}

// SetMode switches the display mode, keeping the selected index.
func (v *Viewer) SetMode(m Mode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mode = m
}

// Toggle flips between Combined and Single and returns the new mode.
func (v *Viewer) Toggle() Mode {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.mode == Single {
		v.mode = Combined
	} else {
		v.mode = Single
	}
	return v.mode
}

// Next selects the following track, wrapping to the first.
func (v *Viewer) Next() int { return v.step(1) }

// Prev selects the preceding track, wrapping to the last.
func (v *Viewer) Prev() int { return v.step(-1) }

func (v *Viewer) step(delta int) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.count == 0 {
		return 0
	}
	v.index = ((v.index+delta)%v.count + v.count) % v.count
	return v.index
}

// Select jumps to track i.
func (v *Viewer) Select(i int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i < 0 || i >= v.count {
		return fmt.Errorf("track index %d out of range [0, %d)", i, v.count)
	}
	v.index = i
	return nil
}

// Visible returns the indices of the tracks the current mode shows.
func (v *Viewer) Visible() []int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.count == 0 {
		return nil
	}
	if v.mode == Single {
		return []int{v.index}
	}
	out := make([]int, v.count)
	for i := range out {
		out[i] = i
	}
	return out
}
