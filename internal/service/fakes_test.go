package service

import (
	"context"
	"sync"
	"time"

	"evgrid/internal/models"
	"evgrid/internal/repository"
)

type fakeSlotStore struct {
	mu            sync.Mutex
	slots         map[int64]*models.ChargerSlot
	nextID        int64
	conflictsLeft int
	updateErr     error
	updateCalls   int
}

func newFakeSlotStore() *fakeSlotStore {
	return &fakeSlotStore{slots: make(map[int64]*models.ChargerSlot), nextID: 1}
}

func (f *fakeSlotStore) add(slot models.ChargerSlot) *models.ChargerSlot {
	f.mu.Lock()
	defer f.mu.Unlock()
	if slot.ID == 0 {
		slot.ID = f.nextID
		f.nextID++
	}
	stored := slot
	f.slots[stored.ID] = &stored
	return &stored
}

func (f *fakeSlotStore) Create(ctx context.Context, slot *models.ChargerSlot) (*models.ChargerSlot, error) {
	created := f.add(*slot)
	copied := *created
	return &copied, nil
}

func (f *fakeSlotStore) GetByID(ctx context.Context, id int64) (*models.ChargerSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot, ok := f.slots[id]
	if !ok {
		return nil, repository.ErrSlotNotFound
	}
	copied := *slot
	return &copied, nil
}

func (f *fakeSlotStore) ListByStation(ctx context.Context, stationID int64) ([]models.ChargerSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ChargerSlot
	for _, slot := range f.slots {
		if slot.StationID == stationID {
			out = append(out, *slot)
		}
	}
	return out, nil
}

func (f *fakeSlotStore) ListByStationAndStatus(ctx context.Context, stationID int64, status models.SlotStatus) ([]models.ChargerSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ChargerSlot
	for _, slot := range f.slots {
		if slot.StationID == stationID && slot.Status == status {
			out = append(out, *slot)
		}
	}
	return out, nil
}

func (f *fakeSlotStore) UpdateStatus(ctx context.Context, slotID int64, status models.SlotStatus, version int64) (*models.ChargerSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	slot, ok := f.slots[slotID]
	if !ok {
		return nil, repository.ErrSlotNotFound
	}
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		// A competing writer got there first.
		slot.Version++
		return nil, repository.ErrVersionConflict
	}
	if slot.Version != version {
		return nil, repository.ErrVersionConflict
	}
	slot.Status = status
	slot.Version++
	copied := *slot
	return &copied, nil
}

func (f *fakeSlotStore) DeleteByStation(ctx context.Context, stationID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, slot := range f.slots {
		if slot.StationID == stationID {
			delete(f.slots, id)
		}
	}
	return nil
}

func (f *fakeSlotStore) status(id int64) models.SlotStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	if slot, ok := f.slots[id]; ok {
		return slot.Status
	}
	return ""
}

type fakeBookingStore struct {
	mu        sync.Mutex
	bookings  map[int64]*models.Booking
	nextID    int64
	sessioned map[int64]bool
	createErr error
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{
		bookings:  make(map[int64]*models.Booking),
		sessioned: make(map[int64]bool),
		nextID:    1,
	}
}

func (f *fakeBookingStore) add(booking models.Booking) *models.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	if booking.ID == 0 {
		booking.ID = f.nextID
		f.nextID++
	}
	stored := booking
	f.bookings[stored.ID] = &stored
	return &stored
}

func (f *fakeBookingStore) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	f.mu.Lock()
	if f.createErr != nil {
		err := f.createErr
		f.mu.Unlock()
		return nil, err
	}
	f.mu.Unlock()
	created := f.add(*booking)
	booking.ID = created.ID
	copied := *created
	return &copied, nil
}

func (f *fakeBookingStore) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	copied := *booking
	return &copied, nil
}

func (f *fakeBookingStore) ListByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Booking
	for _, booking := range f.bookings {
		if booking.UserID == userID {
			out = append(out, *booking)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) ListAll(ctx context.Context) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Booking
	for _, booking := range f.bookings {
		out = append(out, *booking)
	}
	return out, nil
}

func (f *fakeBookingStore) FindOverlapping(ctx context.Context, slotID int64, start, end time.Time) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Booking
	for _, booking := range f.bookings {
		if booking.SlotID != slotID {
			continue
		}
		if booking.Status != models.BookingStatusConfirmed && booking.Status != models.BookingStatusOngoing {
			continue
		}
		if !booking.StartTime.After(end) && !booking.EndTime.Before(start) {
			out = append(out, *booking)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) ListConfirmedWithoutSession(ctx context.Context) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Booking
	for _, booking := range f.bookings {
		if booking.Status == models.BookingStatusConfirmed && !f.sessioned[booking.ID] {
			out = append(out, *booking)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) TransitionStatus(ctx context.Context, id int64, from, to models.BookingStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok || booking.Status != from {
		return false, nil
	}
	booking.Status = to
	return true, nil
}

func (f *fakeBookingStore) MarkOngoing(ctx context.Context, id int64, startedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok || booking.Status != models.BookingStatusConfirmed {
		return false, nil
	}
	booking.Status = models.BookingStatusOngoing
	booking.ActualStart = &startedAt
	return true, nil
}

func (f *fakeBookingStore) MarkCompleted(ctx context.Context, id int64, endedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok || booking.Status != models.BookingStatusOngoing {
		return false, nil
	}
	booking.Status = models.BookingStatusCompleted
	booking.ActualEnd = &endedAt
	return true, nil
}

func (f *fakeBookingStore) DeleteBySlot(ctx context.Context, slotID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, booking := range f.bookings {
		if booking.SlotID == slotID {
			delete(f.bookings, id)
		}
	}
	return nil
}

func (f *fakeBookingStore) statusOf(id int64) models.BookingStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	if booking, ok := f.bookings[id]; ok {
		return booking.Status
	}
	return ""
}

type fakeStationStore struct {
	mu           sync.Mutex
	stations     map[int64]*models.Station
	dispensaries map[int64]*models.Dispensary
	nextID       int64
	touched      []int64
}

func newFakeStationStore() *fakeStationStore {
	return &fakeStationStore{
		stations:     make(map[int64]*models.Station),
		dispensaries: make(map[int64]*models.Dispensary),
		nextID:       1,
	}
}

func (f *fakeStationStore) add(station models.Station) *models.Station {
	f.mu.Lock()
	defer f.mu.Unlock()
	if station.ID == 0 {
		station.ID = f.nextID
		f.nextID++
	}
	stored := station
	f.stations[stored.ID] = &stored
	return &stored
}

func (f *fakeStationStore) addDispensary(d models.Dispensary) *models.Dispensary {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d.ID == 0 {
		d.ID = f.nextID
		f.nextID++
	}
	stored := d
	f.dispensaries[stored.ID] = &stored
	return &stored
}

func (f *fakeStationStore) Create(ctx context.Context, station *models.Station) (*models.Station, error) {
	created := f.add(*station)
	copied := *created
	return &copied, nil
}

func (f *fakeStationStore) Update(ctx context.Context, station *models.Station) (*models.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.stations[station.ID]; !ok {
		return nil, repository.ErrStationNotFound
	}
	stored := *station
	f.stations[station.ID] = &stored
	copied := stored
	return &copied, nil
}

func (f *fakeStationStore) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.stations[id]; !ok {
		return repository.ErrStationNotFound
	}
	delete(f.stations, id)
	return nil
}

func (f *fakeStationStore) GetByID(ctx context.Context, id int64) (*models.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	station, ok := f.stations[id]
	if !ok {
		return nil, repository.ErrStationNotFound
	}
	copied := *station
	return &copied, nil
}

func (f *fakeStationStore) ListAll(ctx context.Context) ([]models.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Station
	for _, station := range f.stations {
		out = append(out, *station)
	}
	return out, nil
}

func (f *fakeStationStore) ListByOwner(ctx context.Context, ownerID int64) ([]models.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Station
	for _, station := range f.stations {
		if station.OwnerID == ownerID {
			out = append(out, *station)
		}
	}
	return out, nil
}

func (f *fakeStationStore) ListByIDs(ctx context.Context, ids []int64) ([]models.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Station
	for _, id := range ids {
		if station, ok := f.stations[id]; ok {
			out = append(out, *station)
		}
	}
	return out, nil
}

func (f *fakeStationStore) ListPinsInBox(ctx context.Context, swLat, neLat, swLng, neLng float64) ([]models.StationPin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.StationPin
	for _, station := range f.stations {
		if station.Latitude >= swLat && station.Latitude <= neLat &&
			station.Longitude >= swLng && station.Longitude <= neLng {
			out = append(out, models.StationPin{ID: station.ID, Latitude: station.Latitude, Longitude: station.Longitude})
		}
	}
	return out, nil
}

func (f *fakeStationStore) TouchLastUsed(ctx context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, id)
	if station, ok := f.stations[id]; ok {
		station.LastUsedTime = &at
	}
	return nil
}

func (f *fakeStationStore) CreateDispensary(ctx context.Context, d *models.Dispensary) (*models.Dispensary, error) {
	created := f.addDispensary(*d)
	copied := *created
	return &copied, nil
}

func (f *fakeStationStore) GetDispensary(ctx context.Context, id int64) (*models.Dispensary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dispensaries[id]
	if !ok {
		return nil, repository.ErrDispensaryNotFound
	}
	copied := *d
	return &copied, nil
}

func (f *fakeStationStore) ListDispensaries(ctx context.Context, stationID int64) ([]models.Dispensary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Dispensary
	for _, d := range f.dispensaries {
		if d.StationID == stationID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeStationStore) DeleteDispensariesByStation(ctx context.Context, stationID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, d := range f.dispensaries {
		if d.StationID == stationID {
			delete(f.dispensaries, id)
		}
	}
	return nil
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*models.ChargingSession
	nextID   int64
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[int64]*models.ChargingSession), nextID: 1}
}

func (f *fakeSessionStore) add(session models.ChargingSession) *models.ChargingSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	if session.ID == 0 {
		session.ID = f.nextID
		f.nextID++
	}
	stored := session
	f.sessions[stored.ID] = &stored
	return &stored
}

func (f *fakeSessionStore) Create(ctx context.Context, session *models.ChargingSession) (*models.ChargingSession, error) {
	created := f.add(*session)
	copied := *created
	return &copied, nil
}

func (f *fakeSessionStore) GetByID(ctx context.Context, id int64) (*models.ChargingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (f *fakeSessionStore) ExistsByBooking(ctx context.Context, bookingID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, session := range f.sessions {
		if session.BookingID == bookingID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSessionStore) Complete(ctx context.Context, id int64, endTime time.Time, energyKwh, totalCost float64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok || session.EndTime != nil {
		return false, nil
	}
	session.EndTime = &endTime
	session.EnergyKwh = energyKwh
	session.TotalCost = totalCost
	return true, nil
}

type fakeNotifier struct {
	mu            sync.Mutex
	slotEvents    []int64
	bookingEvents []int64
}

func (f *fakeNotifier) NotifySlotStatusChange(stationID int64, slot *models.ChargerSlot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slotEvents = append(f.slotEvents, slot.ID)
}

func (f *fakeNotifier) NotifyUserBookingUpdate(userID int64, booking *models.Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookingEvents = append(f.bookingEvents, booking.ID)
}

func (f *fakeNotifier) slotEventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.slotEvents)
}

func (f *fakeNotifier) bookingEventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bookingEvents)
}

type fakePayments struct {
	mu      sync.Mutex
	calls   []float64
	callErr error
}

func (f *fakePayments) CreateIntent(ctx context.Context, bookingID int64, amount float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.callErr != nil {
		return "", f.callErr
	}
	f.calls = append(f.calls, amount)
	return "intent-1", nil
}

func (f *fakePayments) amounts() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]float64, len(f.calls))
	copy(out, f.calls)
	return out
}

type fakeSessionCache struct {
	mu      sync.Mutex
	saved   map[int64]ActiveSessionEntry
	deleted []int64
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{saved: make(map[int64]ActiveSessionEntry)}
}

func (f *fakeSessionCache) Save(ctx context.Context, entry ActiveSessionEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[entry.BookingID] = entry
	return nil
}

func (f *fakeSessionCache) Delete(ctx context.Context, bookingID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, bookingID)
	delete(f.saved, bookingID)
	return nil
}
