package usecases_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/meetpoint/meetpoint/internal/core/domain"
	"github.com/meetpoint/meetpoint/internal/core/ports"
)

// --- In-memory store with one lock per meetup ---

type memStore struct {
	mu      sync.Mutex
	locks   map[int64]*sync.Mutex
	members map[int64]bool
	meetups map[int64]domain.Meetup
	parts   map[int64]map[int64]*domain.GeoPoint

	nextID int64

	// failUpdate makes UpdateMembership fail, to check rollback.
	failUpdate error
}

func newMemStore() *memStore {
	return &memStore{
		locks:   map[int64]*sync.Mutex{},
		members: map[int64]bool{},
		meetups: map[int64]domain.Meetup{},
		parts:   map[int64]map[int64]*domain.GeoPoint{},
	}
}

func (s *memStore) addMember(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[id] = true
}

func (s *memStore) addMeetup(capacity int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.meetups[id] = domain.Meetup{ID: id, Title: "meetup", Capacity: capacity, Status: domain.StatusRecruiting}
	s.parts[id] = map[int64]*domain.GeoPoint{}
	s.locks[id] = &sync.Mutex{}
	return id
}

func (s *memStore) setStatus(id int64, st domain.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.meetups[id]
	m.Status = st
	s.meetups[id] = m
}

// snapshot returns the committed meetup and its participation row count.
func (s *memStore) snapshot(id int64) (domain.Meetup, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meetups[id], len(s.parts[id])
}

func (s *memStore) approx(meetupID, memberID int64) *domain.GeoPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parts[meetupID][memberID]
}

// MemberRepository

func (s *memStore) Create(ctx context.Context, nickname string) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.members[s.nextID] = true
	return &domain.Member{ID: s.nextID, Nickname: nickname}, nil
}

func (s *memStore) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.members[id] {
		return nil, domain.ErrMemberNotFound
	}
	return &domain.Member{ID: id}, nil
}

// MeetupStore

func (s *memStore) InMeetupTx(ctx context.Context, meetupID int64, fn func(ctx context.Context, tx ports.MeetupTx) error) error {
	s.mu.Lock()
	lock, ok := s.locks[meetupID]
	s.mu.Unlock()
	if !ok {
		return domain.ErrMeetupNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	m := s.meetups[meetupID]
	parts := make(map[int64]*domain.GeoPoint, len(s.parts[meetupID]))
	for k, v := range s.parts[meetupID] {
		parts[k] = v
	}
	failUpdate := s.failUpdate
	s.mu.Unlock()

	tx := &memTx{meetup: m, staged: m, parts: parts, failUpdate: failUpdate}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.mu.Lock()
	s.meetups[meetupID] = tx.staged
	s.parts[meetupID] = tx.parts
	s.mu.Unlock()
	return nil
}

type memTx struct {
	meetup     domain.Meetup
	staged     domain.Meetup
	parts      map[int64]*domain.GeoPoint
	failUpdate error
}

func (t *memTx) Meetup() *domain.Meetup {
	m := t.meetup
	return &m
}

func (t *memTx) HasParticipation(ctx context.Context, memberID int64) (bool, error) {
	_, ok := t.parts[memberID]
	return ok, nil
}

func (t *memTx) InsertParticipation(ctx context.Context, memberID int64, approx *domain.GeoPoint) error {
	if _, ok := t.parts[memberID]; ok {
		return domain.ErrAlreadyJoined
	}
	t.parts[memberID] = approx
	return nil
}

func (t *memTx) DeleteParticipation(ctx context.Context, memberID int64) (bool, error) {
	if _, ok := t.parts[memberID]; !ok {
		return false, nil
	}
	delete(t.parts, memberID)
	return true, nil
}

func (t *memTx) ParticipantPoints(ctx context.Context) ([]domain.GeoPoint, error) {
	ids := make([]int64, 0, len(t.parts))
	for id := range t.parts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []domain.GeoPoint
	for _, id := range ids {
		if p := t.parts[id]; p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (t *memTx) UpdateMembership(ctx context.Context, liveCount int, midpoint *domain.GeoPoint) error {
	if t.failUpdate != nil {
		return t.failUpdate
	}
	t.staged.LiveCount = liveCount
	t.staged.Midpoint = midpoint
	return nil
}

func (t *memTx) UpdateStatus(ctx context.Context, status domain.Status, place *domain.ConfirmedPlace) error {
	t.staged.Status = status
	t.staged.ConfirmedPlace = place
	return nil
}

// --- Mock MeetupRepository ---

type mockMeetupRepo struct {
	createFn       func(ctx context.Context, m domain.NewMeetup) (*domain.Meetup, error)
	getByIDFn      func(ctx context.Context, id int64) (*domain.Meetup, error)
	findInBoundsFn func(ctx context.Context, b domain.Bounds, limit int) ([]domain.Meetup, error)
	findNearbyFn   func(ctx context.Context, p domain.GeoPoint, radius float64, limit int) ([]domain.Meetup, error)
}

func (m *mockMeetupRepo) Create(ctx context.Context, nm domain.NewMeetup) (*domain.Meetup, error) {
	if m.createFn != nil {
		return m.createFn(ctx, nm)
	}
	return &domain.Meetup{ID: 1, Title: nm.Title, Capacity: nm.Capacity, Status: domain.StatusRecruiting}, nil
}

func (m *mockMeetupRepo) GetByID(ctx context.Context, id int64) (*domain.Meetup, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &domain.Meetup{ID: id, Status: domain.StatusRecruiting}, nil
}

func (m *mockMeetupRepo) FindInBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.Meetup, error) {
	if m.findInBoundsFn != nil {
		return m.findInBoundsFn(ctx, b, limit)
	}
	return nil, nil
}

func (m *mockMeetupRepo) FindNearby(ctx context.Context, p domain.GeoPoint, radius float64, limit int) ([]domain.Meetup, error) {
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, p, radius, limit)
	}
	return nil, nil
}

func (m *mockMeetupRepo) ListParticipants(ctx context.Context, meetupID int64) ([]domain.Participation, error) {
	return nil, nil
}

// --- Recording publisher ---

type recordingPublisher struct {
	mu        sync.Mutex
	err       error
	midpoints []domain.MidpointEvent
	places    []domain.PlacesEvent
	confirmed []domain.PlaceConfirmedEvent
	statuses  []domain.StatusChangedEvent
}

func (p *recordingPublisher) PublishMidpoint(ctx context.Context, ev domain.MidpointEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.midpoints = append(p.midpoints, ev)
	return nil
}

func (p *recordingPublisher) PublishPlaces(ctx context.Context, ev domain.PlacesEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.places = append(p.places, ev)
	return nil
}

func (p *recordingPublisher) PublishPlaceConfirmed(ctx context.Context, ev domain.PlaceConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.confirmed = append(p.confirmed, ev)
	return nil
}

func (p *recordingPublisher) PublishStatusChanged(ctx context.Context, ev domain.StatusChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.statuses = append(p.statuses, ev)
	return nil
}

// --- In-memory cache ---

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, ports.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// expirePrefix drops matching keys, as if their TTL had elapsed.
func (c *memCache) expirePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
}

// --- Mock PlaceProvider ---

type mockProvider struct {
	mu       sync.Mutex
	calls    int
	searchFn func(ctx context.Context, center domain.GeoPoint, radius int) ([]domain.Place, error)
}

func (p *mockProvider) Search(ctx context.Context, center domain.GeoPoint, radius int) ([]domain.Place, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.searchFn != nil {
		return p.searchFn(ctx, center, radius)
	}
	return []domain.Place{{Name: "place", Lat: center.Lat, Lng: center.Lng, Provider: "mock"}}, nil
}

func (p *mockProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

var errBroker = errors.New("broker unavailable")
