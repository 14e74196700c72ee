package tests

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jypsi/cabs/internal/domain"
	"github.com/jypsi/cabs/internal/gateway"
	"github.com/jypsi/cabs/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK BOOKING REPOSITORY
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking

	// Counters for verification
	CreateCallCount               int32
	UpdateCallCount               int32
	UpdatePaymentSummaryCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{
		bookings: make(map[string]*domain.Booking),
	}
}

// AddBooking adds a booking to the mock repository.
func (m *MockBookingRepository) AddBooking(booking *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.PNR] = booking
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.PNR] = booking
	return nil
}

func (m *MockBookingRepository) GetByPNR(ctx context.Context, pnr string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	booking, ok := m.bookings[pnr]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *booking
	return &copy, nil
}

func (m *MockBookingRepository) GetAll(ctx context.Context) ([]*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		copy := *b
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockBookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[booking.PNR]; !ok {
		return repository.ErrNotFound
	}
	copy := *booking
	m.bookings[booking.PNR] = &copy
	return nil
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, pnr string, status domain.BookingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[pnr]
	if !ok {
		return repository.ErrNotFound
	}
	booking.Status = status
	return nil
}

func (m *MockBookingRepository) UpdatePaymentSummary(ctx context.Context, pnr string, summary domain.PaymentSummary) error {
	atomic.AddInt32(&m.UpdatePaymentSummaryCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[pnr]
	if !ok {
		return repository.ErrNotFound
	}
	booking.PaymentSummary = summary
	return nil
}

// GetBooking returns the stored booking for test assertions.
func (m *MockBookingRepository) GetBooking(pnr string) *domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bookings[pnr]
}

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32
	DeleteCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]*domain.Payment),
	}
}

// AddPayment adds a payment to the mock repository.
func (m *MockPaymentRepository) AddPayment(payment *domain.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[payment.InvoiceID] = payment
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *payment
	m.payments[payment.InvoiceID] = &copy
	return nil
}

func (m *MockPaymentRepository) GetByInvoiceID(ctx context.Context, invoiceID string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payment, ok := m.payments[invoiceID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *payment
	return &copy, nil
}

func (m *MockPaymentRepository) ListByPayable(ctx context.Context, kind domain.PayableKind, id string) ([]*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Payment, 0)
	for _, p := range m.payments {
		if p.PayableKind == kind && p.PayableID == id {
			copy := *p
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

func (m *MockPaymentRepository) FindByCommentPrefix(ctx context.Context, kind domain.PayableKind, id, prefix string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.PayableKind == kind && p.PayableID == id && strings.HasPrefix(p.Comment, prefix) {
			copy := *p
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockPaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[payment.InvoiceID]; !ok {
		return repository.ErrNotFound
	}
	copy := *payment
	m.payments[payment.InvoiceID] = &copy
	return nil
}

func (m *MockPaymentRepository) Delete(ctx context.Context, invoiceID string) error {
	atomic.AddInt32(&m.DeleteCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[invoiceID]; !ok {
		return repository.ErrNotFound
	}
	delete(m.payments, invoiceID)
	return nil
}

// GetPayment returns the stored payment for test assertions.
func (m *MockPaymentRepository) GetPayment(invoiceID string) *domain.Payment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.payments[invoiceID]
}

// ──────────────────────────────────────────────
// MOCK RATE REPOSITORY
// ──────────────────────────────────────────────

// MockRateRepository is a mock implementation of RateRepository.
type MockRateRepository struct {
	mu         sync.RWMutex
	rates      map[string]*domain.Rate
	categories map[string]*domain.VehicleCategory
}

// NewMockRateRepository creates a new mock rate repository.
func NewMockRateRepository() *MockRateRepository {
	return &MockRateRepository{
		rates:      make(map[string]*domain.Rate),
		categories: make(map[string]*domain.VehicleCategory),
	}
}

// AddRate adds a rate to the mock repository.
func (m *MockRateRepository) AddRate(rate *domain.Rate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[rate.Code+"/"+rate.VehicleCategory] = rate
}

// AddCategory adds a vehicle category to the mock repository.
func (m *MockRateRepository) AddCategory(category *domain.VehicleCategory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[category.Name] = category
}

func (m *MockRateRepository) Create(ctx context.Context, rate *domain.Rate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[rate.Code+"/"+rate.VehicleCategory] = rate
	return nil
}

func (m *MockRateRepository) GetByCode(ctx context.Context, code, vehicleCategory string) (*domain.Rate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rate, ok := m.rates[code+"/"+vehicleCategory]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *rate
	return &copy, nil
}

func (m *MockRateRepository) GetAll(ctx context.Context) ([]*domain.Rate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Rate, 0, len(m.rates))
	for _, r := range m.rates {
		copy := *r
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockRateRepository) CreateCategory(ctx context.Context, category *domain.VehicleCategory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[category.Name] = category
	return nil
}

func (m *MockRateRepository) GetCategory(ctx context.Context, name string) (*domain.VehicleCategory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	category, ok := m.categories[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *category
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK DRIVER / VEHICLE REPOSITORIES
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) GetByMobile(ctx context.Context, mobile string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.drivers {
		if d.Mobile == mobile {
			copy := *d
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockDriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		copy := *d
		result = append(result, &copy)
	}
	return result, nil
}

// MockVehicleRepository is a mock implementation of VehicleRepository.
type MockVehicleRepository struct {
	mu       sync.RWMutex
	vehicles map[string]*domain.Vehicle
}

// NewMockVehicleRepository creates a new mock vehicle repository.
func NewMockVehicleRepository() *MockVehicleRepository {
	return &MockVehicleRepository{
		vehicles: make(map[string]*domain.Vehicle),
	}
}

// AddVehicle adds a vehicle to the mock repository.
func (m *MockVehicleRepository) AddVehicle(vehicle *domain.Vehicle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[vehicle.ID] = vehicle
}

func (m *MockVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[vehicle.ID] = vehicle
	return nil
}

func (m *MockVehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vehicle, ok := m.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *vehicle
	return &copy, nil
}

func (m *MockVehicleRepository) GetAll(ctx context.Context) ([]*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Vehicle, 0, len(m.vehicles))
	for _, v := range m.vehicles {
		copy := *v
		result = append(result, &copy)
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK NOTIFICATION SENDER
// ──────────────────────────────────────────────

// RecorderSender records sent notifications for assertions.
type RecorderSender struct {
	mu     sync.Mutex
	SMS    []string
	Emails []string
}

// NewRecorderSender creates a new RecorderSender.
func NewRecorderSender() *RecorderSender {
	return &RecorderSender{}
}

func (s *RecorderSender) SendSMS(ctx context.Context, mobiles []string, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SMS = append(s.SMS, message)
	return nil
}

func (s *RecorderSender) SendEmail(ctx context.Context, subject, body, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Emails = append(s.Emails, subject)
	return nil
}

// SMSCount returns how many SMS messages were sent.
func (s *RecorderSender) SMSCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.SMS)
}

// ──────────────────────────────────────────────
// MOCK BOOKING LOCKER
// ──────────────────────────────────────────────

// MockLocker is an in-memory implementation of BookingLocker.
type MockLocker struct {
	mu    sync.Mutex
	locks map[string]bool

	// Error injection
	AcquireError error
}

// NewMockLocker creates a new MockLocker.
func NewMockLocker() *MockLocker {
	return &MockLocker{locks: make(map[string]bool)}
}

func (m *MockLocker) AcquireBookingLock(ctx context.Context, pnr string, ttl time.Duration) (bool, error) {
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[pnr] {
		return false, nil
	}
	m.locks[pnr] = true
	return true, nil
}

func (m *MockLocker) ReleaseBookingLock(ctx context.Context, pnr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, pnr)
	return nil
}

// Hold marks a booking lock as taken by someone else.
func (m *MockLocker) Hold(pnr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[pnr] = true
}

// ──────────────────────────────────────────────
// MOCK GATEWAY PROVIDER
// ──────────────────────────────────────────────

// MockProvider is a scriptable gateway provider.
type MockProvider struct {
	StartCallCount int32

	// StartError makes Start fail.
	StartError error

	// CallbackResult and CallbackError script ParseCallback. When
	// CallbackResult is nil and CallbackError is nil, ParseCallback
	// rejects the payload as malformed.
	CallbackResult *gateway.CallbackResult
	CallbackError  error
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) Start(ctx context.Context, req gateway.StartRequest) (*gateway.RedirectPayload, error) {
	atomic.AddInt32(&p.StartCallCount, 1)
	if p.StartError != nil {
		return nil, p.StartError
	}
	return &gateway.RedirectPayload{
		URL: "https://pay.example.test/checkout",
		Fields: map[string]string{
			"encRequest":  "opaque",
			"access_code": "test",
			"order_id":    req.InvoiceID,
		},
	}, nil
}

func (p *MockProvider) ParseCallback(ctx context.Context, payload string) (*gateway.CallbackResult, error) {
	if p.CallbackError != nil {
		return nil, p.CallbackError
	}
	if p.CallbackResult == nil {
		return nil, gateway.ErrMalformedCallback
	}
	return p.CallbackResult, nil
}
