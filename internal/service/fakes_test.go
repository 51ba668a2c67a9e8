package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sserbin1/silentbox-cloud-sub000/internal/entity"

	"github.com/google/uuid"
)

// In-memory repository doubles shared by the service tests.

type fakeBookingRepo struct {
	mu       sync.Mutex
	nextID   int64
	bookings map[int64]*entity.Booking

	accessDueGrace time.Duration
	noShowGrace    time.Duration

	createErr error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		nextID:         1,
		bookings:       make(map[int64]*entity.Booking),
		accessDueGrace: 10 * time.Minute,
		noShowGrace:    15 * time.Minute,
	}
}

func (r *fakeBookingRepo) Create(ctx context.Context, booking *entity.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	booking.ID = r.nextID
	r.nextID++
	clone := *booking
	r.bookings[booking.ID] = &clone
	return nil
}

func (r *fakeBookingRepo) GetByID(ctx context.Context, id int64) (*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, entity.ErrBookingNotFound
	}
	clone := *b
	return &clone, nil
}

func (r *fakeBookingRepo) Update(ctx context.Context, booking *entity.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[booking.ID]; !ok {
		return entity.ErrBookingNotFound
	}
	clone := *booking
	r.bookings[booking.ID] = &clone
	return nil
}

func (r *fakeBookingRepo) UpdateStatus(ctx context.Context, id int64, status entity.BookingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return entity.ErrBookingNotFound
	}
	b.Status = status
	return nil
}

func (r *fakeBookingRepo) SetAccessCode(ctx context.Context, id int64, code string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return entity.ErrBookingNotFound
	}
	b.AccessCode = &code
	b.AccessCodeExpiresAt = &expiresAt
	return nil
}

func (r *fakeBookingRepo) ClearAccessCode(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return entity.ErrBookingNotFound
	}
	b.AccessCode = nil
	b.AccessCodeExpiresAt = nil
	return nil
}

func (r *fakeBookingRepo) SetCheckedIn(ctx context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return entity.ErrBookingNotFound
	}
	b.CheckedInAt = &at
	return nil
}

func (r *fakeBookingRepo) GetByUserID(ctx context.Context, userID int64) ([]*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Booking
	for _, b := range r.bookings {
		if b.UserID != nil && *b.UserID == userID {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) GetByBoothID(ctx context.Context, boothID int64) ([]*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Booking
	for _, b := range r.bookings {
		if b.BoothID == boothID {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) GetByStatus(ctx context.Context, status entity.BookingStatus) ([]*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Booking
	for _, b := range r.bookings {
		if b.Status == status {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) CountOverlapping(ctx context.Context, boothID int64, start, end time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, b := range r.bookings {
		if b.BoothID != boothID || b.Status.Terminal() {
			continue
		}
		if b.StartTime.Before(end) && start.Before(b.EndTime) {
			count++
		}
	}
	return count, nil
}

func (r *fakeBookingRepo) GetActiveForBooth(ctx context.Context, boothID int64, at time.Time) (*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.BoothID == boothID && b.Status == entity.BookingStatusActive && b.Covers(at) {
			clone := *b
			return &clone, nil
		}
	}
	return nil, entity.ErrBookingNotFound
}

func (r *fakeBookingRepo) GetAccessEligibleForBooth(ctx context.Context, boothID int64, at time.Time) (*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.BoothID != boothID {
			continue
		}
		if b.Status != entity.BookingStatusConfirmed && b.Status != entity.BookingStatusActive {
			continue
		}
		if b.InAccessWindow(at, r.accessDueGrace) {
			clone := *b
			return &clone, nil
		}
	}
	return nil, entity.ErrBookingNotFound
}

func (r *fakeBookingRepo) GetAccessDue(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Booking
	for _, b := range r.bookings {
		if len(out) >= limit {
			break
		}
		if b.Status != entity.BookingStatusConfirmed || b.AccessCode != nil {
			continue
		}
		if b.InAccessWindow(now, r.accessDueGrace) {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) GetNoShowDue(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Booking
	for _, b := range r.bookings {
		if len(out) >= limit {
			break
		}
		if b.Status != entity.BookingStatusConfirmed || b.CheckedInAt != nil {
			continue
		}
		if now.After(b.StartTime.Add(r.noShowGrace)) {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) GetElapsedActive(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Booking
	for _, b := range r.bookings {
		if len(out) >= limit {
			break
		}
		if b.Status == entity.BookingStatusActive && now.After(b.EndTime) {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, nil
}

type fakeBoothRepo struct {
	mu     sync.Mutex
	booths map[int64]*entity.Booth
}

func newFakeBoothRepo(booths ...*entity.Booth) *fakeBoothRepo {
	r := &fakeBoothRepo{booths: make(map[int64]*entity.Booth)}
	for _, b := range booths {
		clone := *b
		r.booths[b.ID] = &clone
	}
	return r
}

func (r *fakeBoothRepo) Create(ctx context.Context, booth *entity.Booth) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	booth.ID = int64(len(r.booths) + 1)
	clone := *booth
	r.booths[booth.ID] = &clone
	return nil
}

func (r *fakeBoothRepo) GetByID(ctx context.Context, id int64) (*entity.Booth, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.booths[id]
	if !ok {
		return nil, entity.ErrBoothNotFound
	}
	clone := *b
	return &clone, nil
}

func (r *fakeBoothRepo) GetByTenant(ctx context.Context, tenantID int64) ([]*entity.Booth, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Booth
	for _, b := range r.booths {
		if b.TenantID == tenantID {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeBoothRepo) UpdateStatus(ctx context.Context, id int64, status entity.BoothStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.booths[id]
	if !ok {
		return entity.ErrBoothNotFound
	}
	b.Status = status
	return nil
}

type fakeTenantRepo struct {
	tenants map[int64]*entity.Tenant
}

func newFakeTenantRepo(tenants ...*entity.Tenant) *fakeTenantRepo {
	r := &fakeTenantRepo{tenants: make(map[int64]*entity.Tenant)}
	for _, t := range tenants {
		clone := *t
		r.tenants[t.ID] = &clone
	}
	return r
}

func (r *fakeTenantRepo) GetByID(ctx context.Context, id int64) (*entity.Tenant, error) {
	t, ok := r.tenants[id]
	if !ok {
		return nil, entity.ErrTenantNotFound
	}
	clone := *t
	return &clone, nil
}

var errLedgerDown = errors.New("ledger unavailable")

type fakeCreditsRepo struct {
	mu       sync.Mutex
	balances map[int64]float64
	ledger   []*entity.CreditTransaction

	applyErr error
}

func newFakeCreditsRepo() *fakeCreditsRepo {
	return &fakeCreditsRepo{balances: make(map[int64]float64)}
}

func (r *fakeCreditsRepo) Apply(ctx context.Context, userID int64, delta float64, reason string) (*entity.CreditTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.applyErr != nil {
		return nil, r.applyErr
	}
	next := r.balances[userID] + delta
	if delta < 0 && next < 0 {
		return nil, entity.ErrInsufficientCredits
	}
	r.balances[userID] = next
	tx := &entity.CreditTransaction{
		ID:               uuid.NewString(),
		UserID:           userID,
		Delta:            delta,
		Reason:           reason,
		ResultingBalance: next,
		CreatedAt:        time.Now(),
	}
	r.ledger = append(r.ledger, tx)
	return tx, nil
}

func (r *fakeCreditsRepo) GetBalance(ctx context.Context, userID int64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balances[userID], nil
}

func (r *fakeCreditsRepo) GetHistory(ctx context.Context, userID int64, limit int) ([]*entity.CreditTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.CreditTransaction
	for i := len(r.ledger) - 1; i >= 0 && len(out) < limit; i-- {
		if r.ledger[i].UserID == userID {
			out = append(out, r.ledger[i])
		}
	}
	return out, nil
}

type fakeCreditPackageRepo struct {
	mu       sync.Mutex
	nextID   int64
	packages map[int64]*entity.CreditPackage
}

func newFakeCreditPackageRepo() *fakeCreditPackageRepo {
	return &fakeCreditPackageRepo{nextID: 1, packages: make(map[int64]*entity.CreditPackage)}
}

func (r *fakeCreditPackageRepo) Create(ctx context.Context, pkg *entity.CreditPackage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pkg.ID = r.nextID
	r.nextID++
	pkg.CreatedAt = time.Now()
	clone := *pkg
	r.packages[pkg.ID] = &clone
	return nil
}

func (r *fakeCreditPackageRepo) GetByID(ctx context.Context, id int64) (*entity.CreditPackage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.packages[id]
	if !ok {
		return nil, entity.ErrPackageNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *fakeCreditPackageRepo) GetByTenant(ctx context.Context, tenantID int64) ([]*entity.CreditPackage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.CreditPackage
	for _, p := range r.packages {
		if p.TenantID == tenantID {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeCreditPackageRepo) Update(ctx context.Context, pkg *entity.CreditPackage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.packages[pkg.ID]; !ok {
		return entity.ErrPackageNotFound
	}
	clone := *pkg
	r.packages[pkg.ID] = &clone
	return nil
}

func (r *fakeCreditPackageRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.packages[id]; !ok {
		return entity.ErrPackageNotFound
	}
	delete(r.packages, id)
	return nil
}

type fakeRuleRepo struct {
	mu     sync.Mutex
	nextID int64
	rules  map[int64]entity.PricingRule
}

func newFakeRuleRepo(rules ...entity.PricingRule) *fakeRuleRepo {
	r := &fakeRuleRepo{nextID: 1, rules: make(map[int64]entity.PricingRule)}
	for _, rule := range rules {
		r.rules[r.nextID] = rule
		r.nextID++
	}
	return r
}

func (r *fakeRuleRepo) GetActiveByTenant(ctx context.Context, tenantID int64) ([]entity.PricingRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.PricingRule
	for _, rule := range r.rules {
		if rule.Active() {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (r *fakeRuleRepo) Create(ctx context.Context, rule entity.PricingRule) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.rules[id] = rule
	return id, nil
}

func (r *fakeRuleRepo) GetByID(ctx context.Context, id int64) (entity.PricingRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[id]
	if !ok {
		return nil, entity.ErrRuleNotFound
	}
	return rule, nil
}

func (r *fakeRuleRepo) GetByTenant(ctx context.Context, tenantID int64) ([]entity.PricingRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.PricingRule
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	return out, nil
}

func (r *fakeRuleRepo) Update(ctx context.Context, rule entity.PricingRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[rule.RuleID()]; !ok {
		return entity.ErrRuleNotFound
	}
	r.rules[rule.RuleID()] = rule
	return nil
}

func (r *fakeRuleRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[id]; !ok {
		return entity.ErrRuleNotFound
	}
	delete(r.rules, id)
	return nil
}

type fakeDeviceRepo struct {
	mu      sync.Mutex
	devices map[int64]*entity.Device
}

func newFakeDeviceRepo(devices ...*entity.Device) *fakeDeviceRepo {
	r := &fakeDeviceRepo{devices: make(map[int64]*entity.Device)}
	for _, d := range devices {
		clone := *d
		r.devices[d.ID] = &clone
	}
	return r
}

func (r *fakeDeviceRepo) Create(ctx context.Context, device *entity.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	device.ID = int64(len(r.devices) + 1)
	clone := *device
	r.devices[device.ID] = &clone
	return nil
}

func (r *fakeDeviceRepo) GetByID(ctx context.Context, id int64) (*entity.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[id]
	if !ok {
		return nil, entity.ErrDeviceNotFound
	}
	clone := *d
	return &clone, nil
}

func (r *fakeDeviceRepo) GetByBoothID(ctx context.Context, boothID int64) (*entity.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.devices {
		if d.BoothID == boothID {
			clone := *d
			return &clone, nil
		}
	}
	return nil, entity.ErrDeviceNotFound
}

func (r *fakeDeviceRepo) GetAll(ctx context.Context) ([]*entity.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Device
	for _, d := range r.devices {
		clone := *d
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeDeviceRepo) UpdateStatus(ctx context.Context, id int64, status entity.LockStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[id]
	if !ok {
		return entity.ErrDeviceNotFound
	}
	d.Status = status
	return nil
}

func (r *fakeDeviceRepo) ApplyTelemetry(ctx context.Context, update *entity.TelemetryUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[update.DeviceID]
	if !ok {
		return entity.ErrDeviceNotFound
	}
	d.LastSeen = update.LastSeen
	d.BatteryLevel = update.BatteryLevel
	d.Status = update.LockStatus
	if update.Firmware != "" {
		d.Firmware = update.Firmware
	}
	return nil
}

type fakeHeartbeats struct {
	mu   sync.Mutex
	seen map[int64]time.Time
}

func newFakeHeartbeats() *fakeHeartbeats {
	return &fakeHeartbeats{seen: make(map[int64]time.Time)}
}

func (h *fakeHeartbeats) Touch(ctx context.Context, deviceID int64, seen time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen[deviceID] = seen
	return nil
}

func (h *fakeHeartbeats) LastSeen(ctx context.Context, deviceID int64) (time.Time, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	seen, ok := h.seen[deviceID]
	return seen, ok, nil
}

func (h *fakeHeartbeats) Forget(ctx context.Context, deviceID int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.seen, deviceID)
	return nil
}

type fakeBridge struct {
	mu        sync.Mutex
	lockErr   error
	unlockErr error
	syncErr   error

	lockCalls   []int64
	unlockCalls []int64
	syncCalls   []int64
}

func (b *fakeBridge) Lock(ctx context.Context, deviceID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lockCalls = append(b.lockCalls, deviceID)
	return b.lockErr
}

func (b *fakeBridge) Unlock(ctx context.Context, deviceID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unlockCalls = append(b.unlockCalls, deviceID)
	return b.unlockErr
}

func (b *fakeBridge) Sync(ctx context.Context, deviceID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.syncCalls = append(b.syncCalls, deviceID)
	return b.syncErr
}
