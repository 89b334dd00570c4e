package services

import (
	"fmt"

	"github.com/oakline/fundsim/internal/models"
)

// ReferenceDataProvider supplies the suburb and property reference
// attributes the engine derives trajectories and loans from. It is
// injected at construction; the engine never reaches for a shared
// module-level provider.
type ReferenceDataProvider interface {
	Zones() []models.ZoneInfo
	SuburbsInZone(zoneID string) []models.SuburbAttributes
	AllSuburbs() []models.SuburbAttributes
	PropertiesInSuburb(suburbID string) []models.PropertyAttributes
	AllProperties() []models.PropertyAttributes
	SuburbAverages(suburbID string) SuburbAverages
}

// InMemoryReferenceData generates a synthetic but deterministic set of
// suburbs and properties from the run seed. Entity attributes come
// from per-entity streams, so the data set is identical run to run for
// a given seed.
type InMemoryReferenceData struct {
	zones      []models.ZoneInfo
	suburbs    map[string][]models.SuburbAttributes
	properties map[string][]models.PropertyAttributes
	averages   map[string]SuburbAverages
}

var zoneMedianValues = map[int]float64{0: 950_000, 1: 720_000, 2: 540_000}

// NewInMemoryReferenceData builds the reference set: suburbsPerZone
// suburbs in each zone and propertyCount properties spread round-robin
// across all suburbs.
func NewInMemoryReferenceData(runSeed uint64, zones []models.ZoneInfo, suburbsPerZone, propertyCount int) *InMemoryReferenceData {
	if suburbsPerZone < 1 {
		suburbsPerZone = 1
	}
	ref := &InMemoryReferenceData{
		zones:      zones,
		suburbs:    make(map[string][]models.SuburbAttributes, len(zones)),
		properties: make(map[string][]models.PropertyAttributes),
		averages:   make(map[string]SuburbAverages),
	}

	var all []models.SuburbAttributes
	for zi, zone := range zones {
		median := zoneMedianValues[zi%len(zoneMedianValues)]
		for i := 0; i < suburbsPerZone; i++ {
			id := fmt.Sprintf("%s-sub-%02d", zone.ID, i+1)
			rng := entityRand(runSeed, "suburb-attrs:"+id)
			s := models.SuburbAttributes{
				ID:                id,
				ZoneID:            zone.ID,
				Name:              fmt.Sprintf("%s Suburb %d", zone.Name, i+1),
				AppreciationScore: clampScore(5 + rng.NormFloat64()*1.5),
				RiskScore:         clampScore(5 + rng.NormFloat64()*1.5),
				LiquidityScore:    clampScore(5 + rng.NormFloat64()*1.5),
				MedianValue:       median * (0.85 + rng.Float64()*0.3),
			}
			ref.suburbs[zone.ID] = append(ref.suburbs[zone.ID], s)
			all = append(all, s)
		}
	}

	types := []string{"house", "house", "townhouse", "unit"}
	for p := 0; p < propertyCount; p++ {
		suburb := all[p%len(all)]
		id := fmt.Sprintf("%s-prop-%04d", suburb.ID, p/len(all)+1)
		rng := entityRand(runSeed, "property-attrs:"+id)
		attrs := models.PropertyAttributes{
			ID:           id,
			SuburbID:     suburb.ID,
			ZoneID:       suburb.ZoneID,
			PropertyType: types[rng.Intn(len(types))],
			Bedrooms:     2 + rng.Intn(4),
			Bathrooms:    1 + rng.Intn(3),
			LandSize:     200 + rng.Float64()*600,
			AgeYears:     rng.Float64() * 50,
			Value:        suburb.MedianValue * (0.7 + rng.Float64()*0.6),
		}
		if attrs.PropertyType == "unit" {
			attrs.LandSize = 0
		}
		ref.properties[suburb.ID] = append(ref.properties[suburb.ID], attrs)
	}

	for _, s := range all {
		ref.averages[s.ID] = computeAverages(ref.properties[s.ID])
	}
	return ref
}

func (r *InMemoryReferenceData) Zones() []models.ZoneInfo { return r.zones }

func (r *InMemoryReferenceData) SuburbsInZone(zoneID string) []models.SuburbAttributes {
	return r.suburbs[zoneID]
}

func (r *InMemoryReferenceData) AllSuburbs() []models.SuburbAttributes {
	var all []models.SuburbAttributes
	for _, zone := range r.zones {
		all = append(all, r.suburbs[zone.ID]...)
	}
	return all
}

func (r *InMemoryReferenceData) PropertiesInSuburb(suburbID string) []models.PropertyAttributes {
	return r.properties[suburbID]
}

func (r *InMemoryReferenceData) AllProperties() []models.PropertyAttributes {
	var all []models.PropertyAttributes
	for _, suburb := range r.AllSuburbs() {
		all = append(all, r.properties[suburb.ID]...)
	}
	return all
}

func (r *InMemoryReferenceData) SuburbAverages(suburbID string) SuburbAverages {
	return r.averages[suburbID]
}

func computeAverages(props []models.PropertyAttributes) SuburbAverages {
	if len(props) == 0 {
		// Sensible metro-wide averages for suburbs with no stock.
		return SuburbAverages{Bedrooms: 3, Bathrooms: 2, LandSize: 450, AgeYears: 25}
	}
	var avg SuburbAverages
	for _, p := range props {
		avg.Bedrooms += float64(p.Bedrooms)
		avg.Bathrooms += float64(p.Bathrooms)
		avg.LandSize += p.LandSize
		avg.AgeYears += p.AgeYears
	}
	n := float64(len(props))
	avg.Bedrooms /= n
	avg.Bathrooms /= n
	avg.LandSize /= n
	avg.AgeYears /= n
	return avg
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
