package models

// ZoneInfo describes one top-level risk tier.
type ZoneInfo struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	TargetWeight float64 `json:"target_weight"`
}

// SuburbAttributes are the reference scores used to derive a suburb's
// trajectory from its zone path. Scores are centered around 5.0 on a
// 0-10 scale by the in-memory provider.
type SuburbAttributes struct {
	ID                string  `json:"id"`
	ZoneID            string  `json:"zone_id"`
	Name              string  `json:"name"`
	AppreciationScore float64 `json:"appreciation_score"`
	RiskScore         float64 `json:"risk_score"`
	LiquidityScore    float64 `json:"liquidity_score"`
	MedianValue       float64 `json:"median_value"`
}

// PropertyAttributes are the physical attributes used to derive a
// property's trajectory from its suburb path, interpreted relative to
// the suburb averages.
type PropertyAttributes struct {
	ID           string  `json:"id"`
	SuburbID     string  `json:"suburb_id"`
	ZoneID       string  `json:"zone_id"`
	PropertyType string  `json:"property_type"`
	Bedrooms     int     `json:"bedrooms"`
	Bathrooms    int     `json:"bathrooms"`
	LandSize     float64 `json:"land_size"`
	AgeYears     float64 `json:"age_years"`
	Value        float64 `json:"value"`
}
