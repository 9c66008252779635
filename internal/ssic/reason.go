package ssic

import (
	"fmt"
	"strings"
)

func band(v float64) string {
	switch {
	case v > 70:
		return "high"
	case v > 40:
		return "moderate"
	default:
		return "low"
	}
}

// DescribeResistanceProfile summarizes inertia, drag and viscosity as one
// templated line that names the primary block.
func DescribeResistanceProfile(s State) string {
	intensity := band((s.Inertia + s.Drag + s.Viscosity) / 3)

	var kinetic string
	switch {
	case s.Inertia > 60 && s.Drag > 60:
		kinetic = "frozen and pressed"
	case s.Inertia > 60:
		kinetic = "stuck but free of external forces"
	case s.Drag > 60:
		kinetic = "mobile but heavily constrained"
	default:
		kinetic = "relatively unblocked"
	}

	var fluid string
	switch {
	case s.Viscosity > 70:
		fluid = "thick, methodical medium"
	case s.Viscosity > 40:
		fluid = "moderately viscous flow"
	default:
		fluid = "fluid, adaptive medium"
	}

	return fmt.Sprintf("%s resistance | %s | %s | primary block: %s",
		intensity, kinetic, fluid, s.PrimaryResistance())
}

// DescribeMomentumProfile summarizes velocity, charge and flow potential as
// one templated line that names the breakthrough vector.
func DescribeMomentumProfile(s State) string {
	intensity := band((s.Velocity + s.Charge + s.FlowPotential) / 3)

	var energy string
	switch {
	case s.Charge > 70 && s.Velocity > 60:
		energy = "charged and accelerating"
	case s.Charge > 70:
		energy = "charged but not yet moving"
	case s.Velocity > 60:
		energy = "moving on depleting reserves"
	default:
		energy = "low energy, low motion"
	}

	var flow string
	switch {
	case s.FlowPotential > 70:
		flow = "high flow capacity"
	case s.FlowPotential > 40:
		flow = "moderate flow capacity"
	default:
		flow = "constrained flow capacity"
	}

	var turbulence string
	switch {
	case s.Turbulence > 60:
		turbulence = "chaotic"
	case s.Turbulence > 30:
		turbulence = "dynamic"
	default:
		turbulence = "stable"
	}

	return fmt.Sprintf("%s momentum | %s | %s | %s flow | breakthrough vector: %s",
		intensity, energy, flow, turbulence, s.PrimaryBreakthrough())
}

func anyContains(labels []string, sub string) bool {
	for _, l := range labels {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}

func contains(labels []string, want string) bool {
	for _, l := range labels {
		if l == want {
			return true
		}
	}
	return false
}

// DeriveSymbolPrimitives maps the physics to visual vocabulary.
func DeriveSymbolPrimitives(s State) []string {
	var p []string

	switch {
	case s.Charge > 70:
		p = append(p, "charged field", "electric potential", "spark")
	case s.Charge > 40:
		p = append(p, "warm glow", "ember", "gathering energy")
	default:
		p = append(p, "faint pulse", "dormant seed", "waiting charge")
	}

	if s.Inertia > 60 {
		p = append(p, "boulder", "anchor", "frozen structure")
	}
	if s.Viscosity > 70 {
		p = append(p, "honey", "thick medium", "molasses")
	}
	if anyContains(s.ResistanceZones, "fear") {
		p = append(p, "shadow", "wall", "threshold")
	}

	switch {
	case s.Turbulence > 60:
		p = append(p, "storm", "chaos", "whirlwind")
	case s.Turbulence > 30:
		p = append(p, "rapids", "current", "wave")
	default:
		p = append(p, "still water", "clear stream", "gentle flow")
	}

	if anyContains(s.BreakthroughPoints, "liberation") {
		p = append(p, "key", "open door", "flight")
	}
	if anyContains(s.BreakthroughPoints, "manifestation") {
		p = append(p, "seed", "birth", "emergence")
	}
	if anyContains(s.BreakthroughPoints, "expression") {
		p = append(p, "voice", "color", "song")
	}
	return p
}

// DerivePrototypePrimitives maps the physics to action vocabulary for
// experiments.
func DerivePrototypePrimitives(s State) []string {
	var p []string

	switch {
	case s.Velocity > 60:
		p = append(p, "maintain momentum", "ride the wave", "keep moving")
	case s.Velocity > 30:
		p = append(p, "build speed gradually", "find rhythm", "accelerate carefully")
	default:
		p = append(p, "initiate motion", "take first step", "overcome static friction")
	}

	if s.Inertia > 60 {
		p = append(p, "break patterns", "disrupt structure", "introduce small changes")
	} else {
		p = append(p, "leverage flexibility", "explore variations", "experiment freely")
	}

	if s.Drag > 60 {
		p = append(p, "reduce external friction", "simplify environment", "create protective space")
	} else {
		p = append(p, "engage with environment", "invite feedback", "expand reach")
	}

	if s.FlowPotential > 60 {
		p = append(p, "enter flow state", "sustain creative immersion", "ride momentum")
	} else {
		p = append(p, "build flow capacity", "establish conditions", "prepare the ground")
	}

	if contains(s.LeakPoints, "attention scatter") {
		p = append(p, "focus attention", "eliminate distractions")
	}
	if contains(s.LeakPoints, "analysis paralysis") {
		p = append(p, "bias toward action", "embrace imperfection")
	}
	if contains(s.LeakPoints, "self-doubt spiral") {
		p = append(p, "trust process", "affirm capacity")
	}
	if contains(s.LeakPoints, "comparison drain") {
		p = append(p, "internal reference", "unique path")
	}
	return p
}

// DeriveNarrativePrimitives maps the physics to story beats.
func DeriveNarrativePrimitives(s State) []string {
	var p []string

	momentum := (s.Velocity + s.Charge) / 2
	switch {
	case momentum < 30:
		p = append(p, "ordinary world", "call to adventure", "initial resistance")
	case momentum < 60:
		p = append(p, "crossing threshold", "tests and trials", "gathering allies")
	default:
		p = append(p, "approaching climax", "confronting shadow", "seizing reward")
	}

	switch {
	case s.Pressure > 70:
		p = append(p, "high stakes", "mounting tension", "breaking point near")
	case s.Pressure > 40:
		p = append(p, "building conflict", "rising action", "choices emerging")
	default:
		p = append(p, "equilibrium", "calm before storm", "gathering forces")
	}

	switch {
	case s.Velocity > s.Inertia+20:
		p = append(p, "hero in motion", "conquering obstacles", "gaining power")
	case s.Inertia > s.Velocity+20:
		p = append(p, "hero stuck", "facing inner demons", "in the cave")
	default:
		p = append(p, "hero balanced", "learning lessons", "integrating wisdom")
	}

	archetype := strings.ToLower(s.Archetype)
	if strings.Contains(archetype, "rebel") {
		p = append(p, "breaking rules", "revolution", "defiance")
	}
	if strings.Contains(archetype, "creator") {
		p = append(p, "making new", "birthing vision", "manifestation")
	}
	if strings.Contains(archetype, "sage") {
		p = append(p, "seeking truth", "gaining wisdom", "inner journey")
	}
	if strings.Contains(archetype, "hero") {
		p = append(p, "overcoming odds", "proving worth", "triumph")
	}

	resistance := s.PrimaryResistance()
	switch {
	case strings.Contains(resistance, "fear"):
		p = append(p, "villain: fear itself", "shadow self")
	case strings.Contains(resistance, "perfectionism"):
		p = append(p, "villain: inner critic", "impossible standards")
	case strings.Contains(resistance, "scarcity"):
		p = append(p, "villain: not-enough", "resource scarcity")
	case strings.Contains(resistance, "external validation"):
		p = append(p, "villain: others' expectations", "judgment")
	}

	breakthrough := s.PrimaryBreakthrough()
	switch {
	case strings.Contains(breakthrough, "liberation"):
		p = append(p, "freedom earned", "chains broken", "flying")
	case strings.Contains(breakthrough, "manifestation"):
		p = append(p, "vision realized", "creation complete", "birth")
	case strings.Contains(breakthrough, "expression"):
		p = append(p, "voice found", "truth spoken", "authentic self")
	}
	return p
}
