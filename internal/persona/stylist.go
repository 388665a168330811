package persona

import (
	"math/rand"
	"strings"
	"time"
)

// markers whose presence means the text is already in character.
var markers = []string{"tarnished", "seeker", "yaswanth"}

var leadIns = []string{
	"Ah, seeker of wisdom...",
	"By the sacred code...",
	"Hearken to this truth...",
	"The ancient scrolls reveal...",
	"In the name of the Code-Bearer...",
}

// Stylist post-processes provider text so it carries the persona voice.
type Stylist struct {
	rng *rand.Rand
}

// NewStylist builds a stylist around the given random source. A nil source
// gets a time-seeded one; tests pass a fixed seed for determinism.
func NewStylist(rng *rand.Rand) *Stylist {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Stylist{rng: rng}
}

// Style returns the text unchanged when it already contains a persona marker
// (case-insensitive); otherwise it prepends a randomly chosen lead-in.
func (s *Stylist) Style(raw string) string {
	lower := strings.ToLower(raw)
	for _, marker := range markers {
		if strings.Contains(lower, marker) {
			return raw
		}
	}

	prefix := leadIns[s.rng.Intn(len(leadIns))]
	return prefix + " " + raw
}

// LeadIns exposes the fixed lead-in pool for invariant checks.
func LeadIns() []string {
	out := make([]string, len(leadIns))
	copy(out, leadIns)
	return out
}
