package models

// TrajectoryLevel identifies which level of the price hierarchy a
// trajectory belongs to, or was resolved from during a fallback lookup.
type TrajectoryLevel string

const (
	LevelZone     TrajectoryLevel = "zone"
	LevelSuburb   TrajectoryLevel = "suburb"
	LevelProperty TrajectoryLevel = "property"
	LevelNeutral  TrajectoryLevel = "neutral"
)

// PriceTrajectory is an ordered sequence of price-index values at fixed
// time steps, starting at 1.0. It is owned by the hierarchy level that
// produced it and must be treated as read-only afterwards.
type PriceTrajectory []float64

// FinalIndex returns the last index value, or 1.0 for an empty trajectory.
func (t PriceTrajectory) FinalIndex() float64 {
	if len(t) == 0 {
		return 1.0
	}
	return t[len(t)-1]
}

// At returns the index value at step i, clamped to the trajectory bounds.
func (t PriceTrajectory) At(i int) float64 {
	if len(t) == 0 {
		return 1.0
	}
	if i < 0 {
		return t[0]
	}
	if i >= len(t) {
		return t[len(t)-1]
	}
	return t[i]
}

// NeutralTrajectory returns a flat index (1.0 everywhere) of n+1 steps.
// It is the last-resort fallback when no level of the hierarchy has a
// trajectory for an entity.
func NeutralTrajectory(n int) PriceTrajectory {
	t := make(PriceTrajectory, n+1)
	for i := range t {
		t[i] = 1.0
	}
	return t
}

// PriceHierarchy holds the three levels of derived price trajectories.
// Zone paths are authoritative; suburb and property paths are derived
// from them and never exist independently.
type PriceHierarchy struct {
	Zones      map[string]PriceTrajectory `json:"zones"`
	Suburbs    map[string]PriceTrajectory `json:"suburbs"`
	Properties map[string]PriceTrajectory `json:"properties"`

	// Regimes holds the bull/bear sequence per zone when the
	// regime-switching model produced the zone paths.
	Regimes map[string][]RegimeState `json:"regimes,omitempty"`

	// Steps is the number of simulation steps (trajectory length - 1).
	Steps int `json:"steps"`
}

// TrajectoryLookup is the result of a hierarchical trajectory lookup:
// the trajectory that was found and the level it came from.
type TrajectoryLookup struct {
	Level      TrajectoryLevel
	Trajectory PriceTrajectory
	Found      bool
}

// LookupProperty resolves the trajectory for a property, falling back
// property -> suburb -> zone -> neutral. The returned lookup records
// which level actually served the request so callers (and tests) can
// tell a direct hit from a degraded fallback.
func (h *PriceHierarchy) LookupProperty(propertyID, suburbID, zoneID string) TrajectoryLookup {
	if t, ok := h.Properties[propertyID]; ok {
		return TrajectoryLookup{Level: LevelProperty, Trajectory: t, Found: true}
	}
	if t, ok := h.Suburbs[suburbID]; ok {
		return TrajectoryLookup{Level: LevelSuburb, Trajectory: t, Found: true}
	}
	if t, ok := h.Zones[zoneID]; ok {
		return TrajectoryLookup{Level: LevelZone, Trajectory: t, Found: true}
	}
	return TrajectoryLookup{Level: LevelNeutral, Trajectory: NeutralTrajectory(h.Steps), Found: false}
}
