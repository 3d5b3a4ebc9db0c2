package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"eventia/backend/internal/models"
)

// MemoryStore implements Store in process memory.
// Every operation and every transaction holds one mutex, so transactions are serializable.
// This is useful for tests and local development.
type MemoryStore struct {
	mu   *sync.Mutex
	data *memoryData
	inTx bool
}

type memoryData struct {
	bookings         map[string]models.Booking
	payments         map[string]models.Payment
	paymentByBooking map[string]string
	discounts        map[string]models.Discount
	discountByCode   map[string]string
	upiSettings      map[string]models.UpiSettings
	deliveries       map[string]models.DeliveryDetails
	events           []models.BookingEvent
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu: &sync.Mutex{},
		data: &memoryData{
			bookings:         make(map[string]models.Booking),
			payments:         make(map[string]models.Payment),
			paymentByBooking: make(map[string]string),
			discounts:        make(map[string]models.Discount),
			discountByCode:   make(map[string]string),
			upiSettings:      make(map[string]models.UpiSettings),
			deliveries:       make(map[string]models.DeliveryDetails),
		},
	}
}

// WithTx runs fn on a copy of the data and swaps it in only when fn succeeds.
func (s *MemoryStore) WithTx(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	view := &MemoryStore{mu: s.mu, data: s.data.clone(), inTx: true}
	if err := fn(view); err != nil {
		return err
	}
	s.data = view.data
	return nil
}

func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (d *memoryData) clone() *memoryData {
	out := &memoryData{
		bookings:         make(map[string]models.Booking, len(d.bookings)),
		payments:         make(map[string]models.Payment, len(d.payments)),
		paymentByBooking: make(map[string]string, len(d.paymentByBooking)),
		discounts:        make(map[string]models.Discount, len(d.discounts)),
		discountByCode:   make(map[string]string, len(d.discountByCode)),
		upiSettings:      make(map[string]models.UpiSettings, len(d.upiSettings)),
		deliveries:       make(map[string]models.DeliveryDetails, len(d.deliveries)),
		events:           append([]models.BookingEvent(nil), d.events...),
	}
	for k, v := range d.bookings {
		out.bookings[k] = v
	}
	for k, v := range d.payments {
		out.payments[k] = v
	}
	for k, v := range d.paymentByBooking {
		out.paymentByBooking[k] = v
	}
	for k, v := range d.discounts {
		out.discounts[k] = v
	}
	for k, v := range d.discountByCode {
		out.discountByCode[k] = v
	}
	for k, v := range d.upiSettings {
		out.upiSettings[k] = v
	}
	for k, v := range d.deliveries {
		out.deliveries[k] = v
	}
	return out
}

func (s *MemoryStore) InsertBooking(ctx context.Context, booking models.Booking) (models.Booking, error) {
	defer s.lock()()
	if _, exists := s.data.bookings[booking.ID]; exists {
		return models.Booking{}, ErrDuplicate
	}
	booking.Seats = append([]models.Seat(nil), booking.Seats...)
	booking.UpdatedAt = booking.CreatedAt
	s.data.bookings[booking.ID] = booking
	return booking, nil
}

func (s *MemoryStore) GetBooking(ctx context.Context, id string) (models.Booking, error) {
	defer s.lock()()
	booking, ok := s.data.bookings[id]
	if !ok {
		return models.Booking{}, ErrNotFound
	}
	return booking, nil
}

func (s *MemoryStore) ListBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	defer s.lock()()
	out := make([]models.Booking, 0)
	for _, booking := range s.data.bookings {
		if booking.UserID != nil && *booking.UserID == userID {
			out = append(out, booking)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return out, nil
}

func (s *MemoryStore) UpdateBookingStatus(ctx context.Context, id, from, to string) (models.Booking, error) {
	defer s.lock()()
	booking, ok := s.data.bookings[id]
	if !ok {
		return models.Booking{}, ErrNotFound
	}
	if booking.Status != from {
		return models.Booking{}, ErrStateNotAllowed
	}
	booking.Status = to
	booking.UpdatedAt = time.Now().UTC()
	s.data.bookings[id] = booking
	return booking, nil
}

func (s *MemoryStore) InsertPayment(ctx context.Context, payment models.Payment) (models.Payment, error) {
	defer s.lock()()
	if _, exists := s.data.payments[payment.ID]; exists {
		return models.Payment{}, ErrDuplicate
	}
	if _, exists := s.data.paymentByBooking[payment.BookingID]; exists {
		return models.Payment{}, ErrDuplicate
	}
	if _, exists := s.data.bookings[payment.BookingID]; !exists {
		return models.Payment{}, ErrNotFound
	}
	payment.UpdatedAt = payment.CreatedAt
	s.data.payments[payment.ID] = payment
	s.data.paymentByBooking[payment.BookingID] = payment.ID
	return payment, nil
}

func (s *MemoryStore) GetPayment(ctx context.Context, id string) (models.Payment, error) {
	defer s.lock()()
	return s.data.payment(id)
}

// LockPayment needs no extra lock: transactions already hold the store mutex.
func (s *MemoryStore) LockPayment(ctx context.Context, id string) (models.Payment, error) {
	return s.GetPayment(ctx, id)
}

func (s *MemoryStore) GetPaymentByBooking(ctx context.Context, bookingID string) (models.Payment, error) {
	defer s.lock()()
	id, ok := s.data.paymentByBooking[bookingID]
	if !ok {
		return models.Payment{}, ErrNotFound
	}
	return s.data.payment(id)
}

func (s *MemoryStore) UpdatePaymentUTR(ctx context.Context, id, utr string) (models.Payment, error) {
	defer s.lock()()
	payment, err := s.data.payment(id)
	if err != nil {
		return payment, err
	}
	if payment.Status != models.PaymentStatusPending {
		return models.Payment{}, ErrStateNotAllowed
	}
	payment.UTRNumber = &utr
	payment.UpdatedAt = time.Now().UTC()
	s.data.payments[id] = payment
	return payment, nil
}

func (s *MemoryStore) TransitionPayment(ctx context.Context, t models.PaymentTransition) (models.Payment, error) {
	defer s.lock()()
	payment, err := s.data.payment(t.PaymentID)
	if err != nil {
		return payment, err
	}
	if payment.Status != t.From {
		return models.Payment{}, ErrStateNotAllowed
	}
	payment.Status = t.To
	if t.ActorID != "" {
		actor := t.ActorID
		if t.To == models.PaymentStatusRefunded {
			payment.RefundedBy = &actor
		} else {
			payment.VerifiedBy = &actor
		}
	}
	if t.PaymentDate != nil {
		date := *t.PaymentDate
		payment.PaymentDate = &date
	}
	payment.UpdatedAt = time.Now().UTC()
	s.data.payments[payment.ID] = payment
	return payment, nil
}

func (s *MemoryStore) SetPaymentProof(ctx context.Context, id, key string) (models.Payment, error) {
	defer s.lock()()
	payment, err := s.data.payment(id)
	if err != nil {
		return payment, err
	}
	if payment.Status != models.PaymentStatusPending {
		return models.Payment{}, ErrStateNotAllowed
	}
	payment.ProofKey = &key
	payment.UpdatedAt = time.Now().UTC()
	s.data.payments[id] = payment
	return payment, nil
}

func (s *MemoryStore) ListPayments(ctx context.Context, status string, limit, offset int) ([]models.Payment, int, error) {
	defer s.lock()()
	matched := make([]models.Payment, 0, len(s.data.payments))
	for _, payment := range s.data.payments {
		if status == "" || payment.Status == status {
			matched = append(matched, payment)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return newerFirst(matched[i].CreatedAt, matched[i].ID, matched[j].CreatedAt, matched[j].ID)
	})
	total := len(matched)
	if offset >= total {
		return []models.Payment{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (s *MemoryStore) ListPaymentStatsRows(ctx context.Context) ([]models.PaymentStatsRow, error) {
	defer s.lock()()
	out := make([]models.PaymentStatsRow, 0, len(s.data.payments))
	for _, payment := range s.data.payments {
		booking, ok := s.data.bookings[payment.BookingID]
		if !ok {
			continue
		}
		out = append(out, models.PaymentStatsRow{
			PaymentID: payment.ID,
			EventID:   booking.EventID,
			Status:    payment.Status,
			Amount:    payment.Amount,
		})
	}
	return out, nil
}

func (s *MemoryStore) InsertDiscount(ctx context.Context, d models.Discount) (models.Discount, error) {
	defer s.lock()()
	if _, exists := s.data.discountByCode[d.Code]; exists {
		return models.Discount{}, ErrDuplicate
	}
	d.UsesCount = 0
	d.UpdatedAt = d.CreatedAt
	s.data.discounts[d.ID] = d
	s.data.discountByCode[d.Code] = d.ID
	return d, nil
}

func (s *MemoryStore) GetDiscount(ctx context.Context, id string) (models.Discount, error) {
	defer s.lock()()
	d, ok := s.data.discounts[id]
	if !ok {
		return models.Discount{}, ErrNotFound
	}
	return d, nil
}

func (s *MemoryStore) GetDiscountByCode(ctx context.Context, code string) (models.Discount, error) {
	defer s.lock()()
	id, ok := s.data.discountByCode[code]
	if !ok {
		return models.Discount{}, ErrNotFound
	}
	d := s.data.discounts[id]
	if !d.IsActive {
		return models.Discount{}, ErrNotFound
	}
	return d, nil
}

func (s *MemoryStore) ListDiscounts(ctx context.Context, activeOnly bool) ([]models.Discount, error) {
	defer s.lock()()
	out := make([]models.Discount, 0, len(s.data.discounts))
	for _, d := range s.data.discounts {
		if activeOnly && !d.IsActive {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return out, nil
}

func (s *MemoryStore) ListAutoApplyDiscounts(ctx context.Context, eventID string) ([]models.Discount, error) {
	defer s.lock()()
	out := make([]models.Discount, 0)
	for _, d := range s.data.discounts {
		if d.IsActive && d.AutoApply && d.EventID != nil && *d.EventID == eventID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) SaveDiscount(ctx context.Context, d models.Discount) (models.Discount, error) {
	defer s.lock()()
	current, ok := s.data.discounts[d.ID]
	if !ok {
		return models.Discount{}, ErrNotFound
	}
	d.Code = current.Code
	d.UsesCount = current.UsesCount
	d.CreatedAt = current.CreatedAt
	d.UpdatedAt = time.Now().UTC()
	s.data.discounts[d.ID] = d
	return d, nil
}

func (s *MemoryStore) IncrementDiscountUses(ctx context.Context, id string, now time.Time) (models.Discount, error) {
	defer s.lock()()
	d, ok := s.data.discounts[id]
	if !ok {
		return models.Discount{}, ErrNotFound
	}
	usable := d.IsActive && d.UsesCount < d.MaxUses && (d.ExpiryDate == nil || !d.ExpiryDate.Before(now))
	if !usable {
		return d, incrementFailure(d, now)
	}
	d.UsesCount++
	d.UpdatedAt = time.Now().UTC()
	s.data.discounts[id] = d
	return d, nil
}

func (s *MemoryStore) InsertUpiSettings(ctx context.Context, settings models.UpiSettings) (models.UpiSettings, error) {
	defer s.lock()()
	if _, exists := s.data.upiSettings[settings.ID]; exists {
		return models.UpiSettings{}, ErrDuplicate
	}
	if settings.IsActive && s.data.hasOtherActive(settings.ID) {
		return models.UpiSettings{}, ErrDuplicate
	}
	settings.UpdatedAt = settings.CreatedAt
	s.data.upiSettings[settings.ID] = settings
	return settings, nil
}

func (s *MemoryStore) GetUpiSettings(ctx context.Context, id string) (models.UpiSettings, error) {
	defer s.lock()()
	settings, ok := s.data.upiSettings[id]
	if !ok {
		return models.UpiSettings{}, ErrNotFound
	}
	return settings, nil
}

func (s *MemoryStore) SaveUpiSettings(ctx context.Context, settings models.UpiSettings) (models.UpiSettings, error) {
	defer s.lock()()
	current, ok := s.data.upiSettings[settings.ID]
	if !ok {
		return models.UpiSettings{}, ErrNotFound
	}
	if settings.IsActive && s.data.hasOtherActive(settings.ID) {
		return models.UpiSettings{}, ErrDuplicate
	}
	settings.CreatedAt = current.CreatedAt
	settings.UpdatedAt = time.Now().UTC()
	s.data.upiSettings[settings.ID] = settings
	return settings, nil
}

func (s *MemoryStore) DeactivateOtherUpiSettings(ctx context.Context, keepID string) error {
	defer s.lock()()
	now := time.Now().UTC()
	for id, settings := range s.data.upiSettings {
		if id == keepID || !settings.IsActive {
			continue
		}
		settings.IsActive = false
		settings.UpdatedAt = now
		s.data.upiSettings[id] = settings
	}
	return nil
}

func (s *MemoryStore) ListActiveUpiSettings(ctx context.Context) ([]models.UpiSettings, error) {
	defer s.lock()()
	out := make([]models.UpiSettings, 0, 1)
	for _, settings := range s.data.upiSettings {
		if settings.IsActive {
			out = append(out, settings)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].UpdatedAt, out[i].ID, out[j].UpdatedAt, out[j].ID)
	})
	return out, nil
}

// ForceUpiSettings writes a row without the single-active check; it exists to
// reproduce data written by older deployments.
func (s *MemoryStore) ForceUpiSettings(settings models.UpiSettings) {
	defer s.lock()()
	s.data.upiSettings[settings.ID] = settings
}

func (s *MemoryStore) UpsertDelivery(ctx context.Context, details models.DeliveryDetails) (models.DeliveryDetails, error) {
	defer s.lock()()
	current, exists := s.data.deliveries[details.BookingID]
	if exists {
		if current.DispatchedAt != nil {
			return models.DeliveryDetails{}, ErrStateNotAllowed
		}
		details.CreatedAt = current.CreatedAt
		details.DispatchReady = current.DispatchReady || details.DispatchReady
		details.UpdatedAt = time.Now().UTC()
	} else {
		details.UpdatedAt = details.CreatedAt
	}
	details.TrackingNumber = nil
	details.DispatchedBy = nil
	details.DispatchedAt = nil
	s.data.deliveries[details.BookingID] = details
	return details, nil
}

func (s *MemoryStore) GetDelivery(ctx context.Context, bookingID string) (models.DeliveryDetails, error) {
	defer s.lock()()
	details, ok := s.data.deliveries[bookingID]
	if !ok {
		return models.DeliveryDetails{}, ErrNotFound
	}
	return details, nil
}

func (s *MemoryStore) MarkDispatchReady(ctx context.Context, bookingID string) (models.DeliveryDetails, error) {
	defer s.lock()()
	details, ok := s.data.deliveries[bookingID]
	if !ok {
		return models.DeliveryDetails{}, ErrNotFound
	}
	details.DispatchReady = true
	details.UpdatedAt = time.Now().UTC()
	s.data.deliveries[bookingID] = details
	return details, nil
}

func (s *MemoryStore) MarkDispatched(ctx context.Context, bookingID, trackingNumber, actorID string, at time.Time) (models.DeliveryDetails, error) {
	defer s.lock()()
	details, ok := s.data.deliveries[bookingID]
	if !ok {
		return models.DeliveryDetails{}, ErrNotFound
	}
	if details.DispatchedAt != nil {
		return models.DeliveryDetails{}, ErrStateNotAllowed
	}
	details.TrackingNumber = &trackingNumber
	details.DispatchedBy = &actorID
	details.DispatchedAt = &at
	details.DispatchReady = true
	details.UpdatedAt = time.Now().UTC()
	s.data.deliveries[bookingID] = details
	return details, nil
}

func (s *MemoryStore) InsertBookingEvent(ctx context.Context, event models.BookingEvent) error {
	defer s.lock()()
	event.Payload = append([]byte(nil), event.Payload...)
	s.data.events = append(s.data.events, event)
	return nil
}

func (s *MemoryStore) ListUnpublishedEvents(ctx context.Context, limit int) ([]models.BookingEvent, error) {
	defer s.lock()()
	out := make([]models.BookingEvent, 0)
	for _, event := range s.data.events {
		if event.PublishedAt != nil {
			continue
		}
		out = append(out, event)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) MarkEventPublished(ctx context.Context, id string, at time.Time) error {
	defer s.lock()()
	for i, event := range s.data.events {
		if event.ID != id || event.PublishedAt != nil {
			continue
		}
		published := at
		s.data.events[i].PublishedAt = &published
		return nil
	}
	return ErrNotFound
}

func (d *memoryData) payment(id string) (models.Payment, error) {
	payment, ok := d.payments[id]
	if !ok {
		return models.Payment{}, ErrNotFound
	}
	return payment, nil
}

func (d *memoryData) hasOtherActive(id string) bool {
	for otherID, settings := range d.upiSettings {
		if otherID != id && settings.IsActive {
			return true
		}
	}
	return false
}

func newerFirst(aTime time.Time, aID string, bTime time.Time, bID string) bool {
	if !aTime.Equal(bTime) {
		return aTime.After(bTime)
	}
	return aID > bID
}
