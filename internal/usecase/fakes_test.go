package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"bar-booking/internal/data/entity"
	"bar-booking/internal/data/repository"
)

// In-memory repositories for service tests. The claim and booking
// fakes guard their maps with a mutex so concurrency tests exercise
// the same win-or-lose semantics the database gives.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (f *fakeUserRepo) add(u *entity.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) IncrementNoShowCount(_ context.Context, id uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return 0, fmt.Errorf("user %s not found", id)
	}
	u.NoShowCount++
	return u.NoShowCount, nil
}

func (f *fakeUserRepo) SetFreeSlotBan(_ context.Context, id uuid.UUID, banned bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return fmt.Errorf("user %s not found", id)
	}
	u.BannedFromFreeSlot = banned
	return nil
}

type fakeZoneRepo struct {
	zones map[uuid.UUID]*entity.Zone
}

func newFakeZoneRepo() *fakeZoneRepo {
	return &fakeZoneRepo{zones: make(map[uuid.UUID]*entity.Zone)}
}

func (f *fakeZoneRepo) add(z *entity.Zone) { f.zones[z.ID] = z }

func (f *fakeZoneRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Zone, error) {
	z, ok := f.zones[id]
	if !ok {
		return nil, nil
	}
	return z, nil
}

func (f *fakeZoneRepo) FindAllActive(_ context.Context) ([]*entity.Zone, error) {
	var out []*entity.Zone
	for _, z := range f.zones {
		if z.IsActive {
			out = append(out, z)
		}
	}
	return out, nil
}

type fakeTableRepo struct {
	tables map[uuid.UUID]*entity.Table
}

func newFakeTableRepo() *fakeTableRepo {
	return &fakeTableRepo{tables: make(map[uuid.UUID]*entity.Table)}
}

func (f *fakeTableRepo) add(t *entity.Table) { f.tables[t.ID] = t }

func (f *fakeTableRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Table, error) {
	t, ok := f.tables[id]
	if !ok {
		return nil, nil
	}
	return t, nil
}

func (f *fakeTableRepo) FindActiveByZoneID(_ context.Context, zoneID uuid.UUID) ([]*entity.Table, error) {
	var out []*entity.Table
	for _, t := range f.tables {
		if t.ZoneID == zoneID && t.IsActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTableRepo) TotalActiveCapacity(_ context.Context, zoneID uuid.UUID) (int, error) {
	total := 0
	for _, t := range f.tables {
		if t.ZoneID == zoneID && t.IsActive {
			total += t.Capacity
		}
	}
	return total, nil
}

type fakeClaimRepo struct {
	mu     sync.Mutex
	claims map[uuid.UUID]*entity.TableClaim
}

func newFakeClaimRepo() *fakeClaimRepo {
	return &fakeClaimRepo{claims: make(map[uuid.UUID]*entity.TableClaim)}
}

func (f *fakeClaimRepo) CreateTableClaim(_ context.Context, claim *entity.TableClaim) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.claims {
		if existing.Released || existing.TableID == nil {
			continue
		}
		if *existing.TableID == *claim.TableID &&
			existing.BookingDate.Equal(claim.BookingDate) &&
			existing.Slot == claim.Slot {
			return fmt.Errorf("%w: table already claimed for this slot", entity.ErrConflict)
		}
	}
	claim.CreatedAt = time.Now()
	f.claims[claim.ID] = claim
	return nil
}

func (f *fakeClaimRepo) CreateZoneClaim(_ context.Context, claim *entity.TableClaim, zoneCapacity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	claimed := 0
	for _, existing := range f.claims {
		if existing.Released || existing.ZoneID != claim.ZoneID {
			continue
		}
		if existing.BookingDate.Equal(claim.BookingDate) && existing.Slot == claim.Slot {
			claimed += existing.GuestCount
		}
	}
	if claimed+claim.GuestCount > zoneCapacity {
		return fmt.Errorf("%w: zone capacity exhausted for this slot", entity.ErrConflict)
	}
	claim.CreatedAt = time.Now()
	f.claims[claim.ID] = claim
	return nil
}

func (f *fakeClaimRepo) Release(_ context.Context, claimID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.claims[claimID]; ok {
		c.Released = true
	}
	return nil
}

func (f *fakeClaimRepo) FindByID(_ context.Context, claimID uuid.UUID) (*entity.TableClaim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.claims[claimID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeClaimRepo) ClaimedGuests(_ context.Context, zoneID uuid.UUID, date time.Time, slot entity.TimeSlot) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, c := range f.claims {
		if !c.Released && c.ZoneID == zoneID && c.BookingDate.Equal(date) && c.Slot == slot {
			total += c.GuestCount
		}
	}
	return total, nil
}

func (f *fakeClaimRepo) ClaimedTableIDs(_ context.Context, zoneID uuid.UUID, date time.Time, slot entity.TimeSlot) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []uuid.UUID
	for _, c := range f.claims {
		if !c.Released && c.TableID != nil && c.ZoneID == zoneID && c.BookingDate.Equal(date) && c.Slot == slot {
			out = append(out, *c.TableID)
		}
	}
	return out, nil
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*entity.Booking
	outbox   *fakeOutboxRepo
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*entity.Booking)}
}

func (f *fakeBookingRepo) record(event *entity.OutboxEvent) {
	if event != nil && f.outbox != nil {
		_ = f.outbox.Create(context.Background(), event)
	}
}

func (f *fakeBookingRepo) Create(_ context.Context, booking *entity.Booking, event *entity.OutboxEvent) error {
	f.mu.Lock()
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	cp := *booking
	f.bookings[booking.ID] = &cp
	f.mu.Unlock()
	f.record(event)
	return nil
}

func (f *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookingRepo) FindByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Booking
	for _, b := range f.bookings {
		if b.UserID == userID {
			cp := *b
			out = append(out, &cp)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeBookingRepo) CountByUserID(_ context.Context, userID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, b := range f.bookings {
		if b.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeBookingRepo) UpdateStatus(_ context.Context, id uuid.UUID, expected, next entity.BookingStatus, event *entity.OutboxEvent) (bool, error) {
	f.mu.Lock()
	b, ok := f.bookings[id]
	if !ok || b.Status != expected {
		f.mu.Unlock()
		return false, nil
	}
	b.Status = next
	b.UpdatedAt = time.Now()
	f.mu.Unlock()
	f.record(event)
	return true, nil
}

func (f *fakeBookingRepo) Confirm(_ context.Context, id uuid.UUID, paymentRef string, event *entity.OutboxEvent) (bool, error) {
	f.mu.Lock()
	b, ok := f.bookings[id]
	if !ok || b.Status != entity.BookingStatusPending {
		f.mu.Unlock()
		return false, nil
	}
	b.Status = entity.BookingStatusConfirmed
	b.PaymentRef = &paymentRef
	b.UpdatedAt = time.Now()
	f.mu.Unlock()
	f.record(event)
	return true, nil
}

func (f *fakeBookingRepo) SetCheckedIn(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || b.Status != entity.BookingStatusConfirmed {
		return false, nil
	}
	b.Status = entity.BookingStatusCheckedIn
	b.CheckedInAt = &at
	b.UpdatedAt = at
	return true, nil
}

func (f *fakeBookingRepo) FindExpiredConfirmed(_ context.Context, now time.Time, limit int) ([]*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Booking
	for _, b := range f.bookings {
		if b.Status == entity.BookingStatusConfirmed && now.After(b.CheckInDeadline) {
			cp := *b
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

type fakeTokenRepo struct {
	mu         sync.Mutex
	tokens     map[string]*entity.CheckInToken
	failCreate error
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*entity.CheckInToken)}
}

func (f *fakeTokenRepo) Create(_ context.Context, token *entity.CheckInToken) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return nil, f.failCreate
	}
	var superseded []string
	for _, existing := range f.tokens {
		if existing.BookingID == token.BookingID && !existing.Consumed {
			existing.Consumed = true
			superseded = append(superseded, existing.Token)
		}
	}
	f.tokens[token.Token] = token
	return superseded, nil
}

func (f *fakeTokenRepo) FindByToken(_ context.Context, token string) (*entity.CheckInToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[token]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTokenRepo) Consume(_ context.Context, token string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[token]
	if !ok || t.Consumed {
		return uuid.Nil, entity.ErrInvalidToken
	}
	t.Consumed = true
	return t.BookingID, nil
}

type fakeOutboxRepo struct {
	mu     sync.Mutex
	events []*entity.OutboxEvent
}

func newFakeOutboxRepo() *fakeOutboxRepo {
	return &fakeOutboxRepo{}
}

func (f *fakeOutboxRepo) Create(_ context.Context, event *entity.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	event.CreatedAt = time.Now()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutboxRepo) FindPending(_ context.Context, limit int) ([]*entity.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.OutboxEvent
	for _, e := range f.events {
		if e.Status == entity.OutboxStatusPending {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeOutboxRepo) MarkPublished(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.ID == id {
			now := time.Now()
			e.Status = entity.OutboxStatusPublished
			e.PublishedAt = &now
		}
	}
	return nil
}

func (f *fakeOutboxRepo) MarkFailed(_ context.Context, id uuid.UUID, reason string, maxAttempts int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.ID == id {
			e.Attempts++
			e.LastError = &reason
			if e.Attempts >= maxAttempts {
				e.Status = entity.OutboxStatusFailed
			}
		}
	}
	return nil
}

func (f *fakeOutboxRepo) byType(eventType entity.OutboxEventType) []*entity.OutboxEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.OutboxEvent
	for _, e := range f.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fakeTokenCache struct {
	mu      sync.Mutex
	entries map[string]uuid.UUID
}

func newFakeTokenCache() *fakeTokenCache {
	return &fakeTokenCache{entries: make(map[string]uuid.UUID)}
}

func (f *fakeTokenCache) Set(_ context.Context, token string, bookingID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[token] = bookingID
	return nil
}

func (f *fakeTokenCache) Get(_ context.Context, token string) (uuid.UUID, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.entries[token]
	return id, ok, nil
}

func (f *fakeTokenCache) Del(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, token)
	return nil
}

type testEnv struct {
	users   *fakeUserRepo
	zones   *fakeZoneRepo
	tables  *fakeTableRepo
	claims  *fakeClaimRepo
	store   *fakeBookingRepo
	tokens  *fakeTokenRepo
	outbox  *fakeOutboxRepo
	cache   *fakeTokenCache
	service *Service
}

func newTestEnv() *testEnv {
	env := &testEnv{
		users:  newFakeUserRepo(),
		zones:  newFakeZoneRepo(),
		tables: newFakeTableRepo(),
		claims: newFakeClaimRepo(),
		store:  newFakeBookingRepo(),
		tokens: newFakeTokenRepo(),
		outbox: newFakeOutboxRepo(),
		cache:  newFakeTokenCache(),
	}
	env.store.outbox = env.outbox
	repo := &repository.Repository{
		User:    env.users,
		Zone:    env.zones,
		Table:   env.tables,
		Claim:   env.claims,
		Booking: env.store,
		Token:   env.tokens,
		Outbox:  env.outbox,
	}
	config := testConfig()
	env.service = NewService(repo, env.cache, config, zapNop())
	return env
}
