// Package ssic is the Shared Symbolic Intelligence Core: a deterministic
// "creative physics" model derived from the insight, used to keep the
// metaphor language of the downstream agents aligned.
//
// Nothing here calls a model or holds state between sessions.
package ssic

// Fallback labels used when no trigger word matches, so zone lists are never
// empty.
const (
	DefaultResistance   = "undefined resistance"
	DefaultLeak         = "diffuse energy loss"
	DefaultBreakthrough = "forward momentum"
)

// State is the physics reading of one session. All numeric dimensions lie in
// [0, 100].
type State struct {
	// Echo of the insight fields the physics was derived from.
	Wound     string   `json:"wound"`
	Desire    string   `json:"desire"`
	Archetype string   `json:"archetype"`
	Keywords  []string `json:"keywords"`

	// Energetics
	Charge        float64 `json:"charge"`
	Pressure      float64 `json:"pressure"`
	FlowPotential float64 `json:"flowPotential"`

	// Kinetics
	Velocity float64 `json:"velocity"`
	Inertia  float64 `json:"inertia"`
	Drag     float64 `json:"drag"`

	// Fluid dynamics
	Viscosity  float64 `json:"viscosity"`
	Turbulence float64 `json:"turbulence"`

	// Structural zones
	ResistanceZones    []string `json:"resistanceZones"`
	LeakPoints         []string `json:"leakPoints"`
	BreakthroughPoints []string `json:"breakthroughPoints"`
}

// PrimaryResistance is the first resistance zone.
func (s State) PrimaryResistance() string {
	if len(s.ResistanceZones) == 0 {
		return DefaultResistance
	}
	return s.ResistanceZones[0]
}

// PrimaryBreakthrough is the first breakthrough point.
func (s State) PrimaryBreakthrough() string {
	if len(s.BreakthroughPoints) == 0 {
		return DefaultBreakthrough
	}
	return s.BreakthroughPoints[0]
}

// Summary is the compact view of a State attached to debug reports.
type Summary struct {
	Resistance    string   `json:"resistance"`
	Momentum      string   `json:"momentum"`
	Charge        float64  `json:"charge"`
	Velocity      float64  `json:"velocity"`
	Inertia       float64  `json:"inertia"`
	FlowPotential float64  `json:"flowPotential"`
	Zones         []string `json:"zones"`
	Breakthroughs []string `json:"breakthroughs"`
}

// Summarize condenses a State for diagnostics.
func Summarize(s State) Summary {
	return Summary{
		Resistance:    DescribeResistanceProfile(s),
		Momentum:      DescribeMomentumProfile(s),
		Charge:        s.Charge,
		Velocity:      s.Velocity,
		Inertia:       s.Inertia,
		FlowPotential: s.FlowPotential,
		Zones:         append([]string(nil), s.ResistanceZones...),
		Breakthroughs: append([]string(nil), s.BreakthroughPoints...),
	}
}
