package mocks

import (
	"context"
	"database/sql"
	"time"

	"github.com/phrazzld/contacts-api/internal/domain"
	"github.com/phrazzld/contacts-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockContactStore is a testify mock of store.ContactStore.
// WithTx returns the mock itself unless an expectation says otherwise.
type MockContactStore struct {
	mock.Mock
}

var _ store.ContactStore = (*MockContactStore)(nil)

func contactResult(args mock.Arguments) (*domain.Contact, error) {
	if c, ok := args.Get(0).(*domain.Contact); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func contactsResult(args mock.Arguments) ([]*domain.Contact, error) {
	if cs, ok := args.Get(0).([]*domain.Contact); ok {
		return cs, args.Error(1)
	}
	return nil, args.Error(1)
}

// Create is a mock implementation of store.ContactStore.Create
func (m *MockContactStore) Create(ctx context.Context, contact *domain.Contact) error {
	return m.Called(ctx, contact).Error(0)
}

// GetByID is a mock implementation of store.ContactStore.GetByID
func (m *MockContactStore) GetByID(ctx context.Context, id int64) (*domain.Contact, error) {
	return contactResult(m.Called(ctx, id))
}

// GetForUpdate is a mock implementation of store.ContactStore.GetForUpdate
func (m *MockContactStore) GetForUpdate(ctx context.Context, id int64) (*domain.Contact, error) {
	return contactResult(m.Called(ctx, id))
}

// GetByEmail is a mock implementation of store.ContactStore.GetByEmail
func (m *MockContactStore) GetByEmail(ctx context.Context, email string) (*domain.Contact, error) {
	return contactResult(m.Called(ctx, email))
}

// List is a mock implementation of store.ContactStore.List
func (m *MockContactStore) List(ctx context.Context, offset, limit int) ([]*domain.Contact, error) {
	return contactsResult(m.Called(ctx, offset, limit))
}

// Search is a mock implementation of store.ContactStore.Search
func (m *MockContactStore) Search(ctx context.Context, query string) ([]*domain.Contact, error) {
	return contactsResult(m.Called(ctx, query))
}

// UpcomingBirthdays is a mock implementation of store.ContactStore.UpcomingBirthdays
func (m *MockContactStore) UpcomingBirthdays(ctx context.Context, today time.Time) ([]*domain.Contact, error) {
	return contactsResult(m.Called(ctx, today))
}

// Update is a mock implementation of store.ContactStore.Update
func (m *MockContactStore) Update(ctx context.Context, contact *domain.Contact) error {
	return m.Called(ctx, contact).Error(0)
}

// SetAvatarURL is a mock implementation of store.ContactStore.SetAvatarURL
func (m *MockContactStore) SetAvatarURL(ctx context.Context, id int64, url string) error {
	return m.Called(ctx, id, url).Error(0)
}

// MarkEmailVerified is a mock implementation of store.ContactStore.MarkEmailVerified
func (m *MockContactStore) MarkEmailVerified(ctx context.Context, email string) (*domain.Contact, error) {
	return contactResult(m.Called(ctx, email))
}

// Delete is a mock implementation of store.ContactStore.Delete
func (m *MockContactStore) Delete(ctx context.Context, id int64) (*domain.Contact, error) {
	return contactResult(m.Called(ctx, id))
}

// WithTx returns m so that expectations apply inside transactions too.
func (m *MockContactStore) WithTx(*sql.Tx) store.ContactStore {
	return m
}

// NoopTransactor runs fn directly with a nil transaction.
func NoopTransactor(ctx context.Context, fn store.TxFn) error {
	return fn(ctx, nil)
}
