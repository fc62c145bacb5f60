package service

import (
	"context"
	"sort"
	"time"

	"evgrid/internal/models"
)

// BoundingBox is the lat/lng viewport of a map client.
type BoundingBox struct {
	SwLat float64
	NeLat float64
	SwLng float64
	NeLng float64
}

func (b BoundingBox) valid() bool {
	return validLat(b.SwLat) && validLat(b.NeLat) &&
		validLng(b.SwLng) && validLng(b.NeLng) &&
		b.SwLat <= b.NeLat && b.SwLng <= b.NeLng
}

func validLat(lat float64) bool { return lat >= -90 && lat <= 90 }
func validLng(lng float64) bool { return lng >= -180 && lng <= 180 }

// StationScore is a station enriched with distance, composite score and live
// availability for the ranked results pager.
type StationScore struct {
	Station        models.Station `json:"station"`
	DistanceKm     float64        `json:"distance_km"`
	Score          float64        `json:"score"`
	TrafficScore   float64        `json:"traffic_score"`
	GridScore      float64        `json:"grid_score"`
	ParkingScore   float64        `json:"parking_score"`
	AccessScore    float64        `json:"access_score"`
	AvailableSlots int            `json:"available_slots"`
	TotalSlots     int            `json:"total_slots"`
	ConnectorTypes []string       `json:"connector_types"`
	LastActive     string         `json:"last_active"`
	Rating         float64        `json:"rating"`
	IsOpen         bool           `json:"is_open"`
}

// ViewportResult splits a combined query into fully enriched nearby stations and
// pin-only markers for the rest of the box.
type ViewportResult struct {
	NearbyStations []StationScore      `json:"nearby_stations"`
	OtherPins      []models.StationPin `json:"other_pins"`
}

// DiscoveryService answers the two map query shapes: viewport pins and
// radius-limited ranked station lists. Read-only; scoring has no side effects.
type DiscoveryService struct {
	stations StationStore
	slots    SlotStore
	weights  ScoreWeights
	now      func() time.Time
}

// NewDiscoveryService builds the discovery engine.
func NewDiscoveryService(stations StationStore, slots SlotStore, weights ScoreWeights) *DiscoveryService {
	return &DiscoveryService{
		stations: stations,
		slots:    slots,
		weights:  weights,
		now:      time.Now,
	}
}

// ViewportPins returns lightweight markers for every station inside the box.
func (s *DiscoveryService) ViewportPins(ctx context.Context, box BoundingBox) ([]models.StationPin, error) {
	if !box.valid() {
		return nil, ErrInvalidCoordinates
	}
	return s.stations.ListPinsInBox(ctx, box.SwLat, box.NeLat, box.SwLng, box.NeLng)
}

// NearbyRanked returns the limit closest stations within radiusKm of the user,
// each enriched with the composite score. Stations are prefiltered with a
// bounding box in SQL so a large catalog is never fully loaded.
func (s *DiscoveryService) NearbyRanked(ctx context.Context, userLat, userLng, radiusKm float64, limit int) ([]StationScore, error) {
	if !validLat(userLat) || !validLng(userLng) || radiusKm <= 0 {
		return nil, ErrInvalidCoordinates
	}
	if limit <= 0 {
		limit = 10
	}

	swLat, neLat, swLng, neLng := boundingBoxForRadius(userLat, userLng, radiusKm)
	pins, err := s.stations.ListPinsInBox(ctx, swLat, neLat, swLng, neLng)
	if err != nil {
		return nil, err
	}

	ranked := rankPins(pins, userLat, userLng)
	within := ranked[:0]
	for _, p := range ranked {
		if p.distance <= radiusKm {
			within = append(within, p)
		}
	}
	if len(within) > limit {
		within = within[:limit]
	}

	return s.enrich(ctx, within)
}

// StationDetail scores a single station against the user's position.
func (s *DiscoveryService) StationDetail(ctx context.Context, stationID int64, userLat, userLng float64) (*StationScore, error) {
	if !validLat(userLat) || !validLng(userLng) {
		return nil, ErrInvalidCoordinates
	}
	station, err := s.stations.GetByID(ctx, stationID)
	if err != nil {
		return nil, err
	}
	distance := haversineKm(userLat, userLng, station.Latitude, station.Longitude)
	score, err := s.buildScore(ctx, station, distance)
	if err != nil {
		return nil, err
	}
	return score, nil
}

// ViewportWithNearby fetches pins for the whole box, enriches only the limit
// closest stations and returns the remainder as pins. This keeps wide viewports
// cheap: full rows and slot counts are loaded for the top N only.
func (s *DiscoveryService) ViewportWithNearby(ctx context.Context, box BoundingBox, userLat, userLng float64, limit int) (*ViewportResult, error) {
	if !box.valid() || !validLat(userLat) || !validLng(userLng) {
		return nil, ErrInvalidCoordinates
	}
	if limit <= 0 {
		limit = 10
	}

	pins, err := s.stations.ListPinsInBox(ctx, box.SwLat, box.NeLat, box.SwLng, box.NeLng)
	if err != nil {
		return nil, err
	}

	ranked := rankPins(pins, userLat, userLng)
	top := ranked
	if len(top) > limit {
		top = top[:limit]
	}

	topIDs := make(map[int64]struct{}, len(top))
	for _, p := range top {
		topIDs[p.pin.ID] = struct{}{}
	}

	otherPins := make([]models.StationPin, 0, len(pins))
	for _, pin := range pins {
		if _, ok := topIDs[pin.ID]; !ok {
			otherPins = append(otherPins, pin)
		}
	}

	nearby, err := s.enrich(ctx, top)
	if err != nil {
		return nil, err
	}

	return &ViewportResult{NearbyStations: nearby, OtherPins: otherPins}, nil
}

type rankedPin struct {
	pin      models.StationPin
	distance float64
}

func rankPins(pins []models.StationPin, userLat, userLng float64) []rankedPin {
	ranked := make([]rankedPin, 0, len(pins))
	for _, pin := range pins {
		ranked = append(ranked, rankedPin{
			pin:      pin,
			distance: haversineKm(userLat, userLng, pin.Latitude, pin.Longitude),
		})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].distance < ranked[j].distance })
	return ranked
}

// enrich loads full rows for the selected pins and builds scores, keeping the
// distance-sorted order. Ids missing from the store are skipped, not errors.
func (s *DiscoveryService) enrich(ctx context.Context, ranked []rankedPin) ([]StationScore, error) {
	if len(ranked) == 0 {
		return []StationScore{}, nil
	}

	ids := make([]int64, 0, len(ranked))
	for _, p := range ranked {
		ids = append(ids, p.pin.ID)
	}
	stations, err := s.stations.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*models.Station, len(stations))
	for i := range stations {
		byID[stations[i].ID] = &stations[i]
	}

	scores := make([]StationScore, 0, len(ranked))
	for _, p := range ranked {
		station, ok := byID[p.pin.ID]
		if !ok {
			continue
		}
		score, err := s.buildScore(ctx, station, p.distance)
		if err != nil {
			return nil, err
		}
		scores = append(scores, *score)
	}
	return scores, nil
}

func (s *DiscoveryService) buildScore(ctx context.Context, station *models.Station, distance float64) (*StationScore, error) {
	slots, err := s.slots.ListByStation(ctx, station.ID)
	if err != nil {
		return nil, err
	}

	available := 0
	connectorSet := make(map[models.ConnectorType]struct{})
	for _, slot := range slots {
		if slot.Status == models.SlotStatusAvailable {
			available++
		}
		connectorSet[slot.ConnectorType] = struct{}{}
	}
	connectors := make([]string, 0, len(connectorSet))
	for c := range connectorSet {
		connectors = append(connectors, string(c))
	}
	sort.Strings(connectors)

	traffic := stableScore(station.ID, scoreTraffic)
	grid := stableScore(station.ID, scoreGrid)
	parking := stableScore(station.ID, scoreParking)
	access := stableScore(station.ID, scoreAccess)
	composite := traffic*s.weights.Traffic + grid*s.weights.Grid +
		parking*s.weights.Parking + access*s.weights.Access

	now := s.now()
	return &StationScore{
		Station:        *station,
		DistanceKm:     distance,
		Score:          composite,
		TrafficScore:   traffic,
		GridScore:      grid,
		ParkingScore:   parking,
		AccessScore:    access,
		AvailableSlots: available,
		TotalSlots:     len(slots),
		ConnectorTypes: connectors,
		LastActive:     lastActiveLabel(station.LastUsedTime, now),
		Rating:         station.Rating,
		IsOpen:         IsOpen(station.OperatingHours, now),
	}, nil
}
