package mocks

import (
	"context"
	"io"
	"sync"

	"github.com/phrazzld/contacts-api/internal/domain"
	"github.com/phrazzld/contacts-api/internal/service"
)

// MockContactService implements service.ContactService for handler tests.
// Unset function fields return Contact, Contacts and Err.
type MockContactService struct {
	CreateContactFn            func(ctx context.Context, in domain.ContactInput, avatar io.Reader) (*domain.Contact, error)
	GetContactFn               func(ctx context.Context, id int64) (*domain.Contact, error)
	ListContactsFn             func(ctx context.Context, skip, limit int) ([]*domain.Contact, error)
	SearchContactsFn           func(ctx context.Context, query string) ([]*domain.Contact, error)
	UpdateContactFn            func(ctx context.Context, id int64, patch domain.ContactPatch, avatar io.Reader) (*domain.Contact, error)
	DeleteContactFn            func(ctx context.Context, id int64) (*domain.Contact, error)
	UpcomingBirthdaysFn        func(ctx context.Context) ([]*domain.Contact, error)
	AttachAvatarFn             func(ctx context.Context, c *domain.Contact, r io.Reader) bool
	RequestEmailVerificationFn func(ctx context.Context, id int64) (*domain.Contact, error)
	VerifyEmailFn              func(ctx context.Context, token string) (*domain.Contact, error)

	Contact  *domain.Contact
	Contacts []*domain.Contact
	Err      error

	mu    sync.Mutex
	calls map[string]int
}

var _ service.ContactService = (*MockContactService)(nil)

func (m *MockContactService) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

// Calls reports how many times the named method was invoked.
func (m *MockContactService) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockContactService) CreateContact(ctx context.Context, in domain.ContactInput, avatar io.Reader) (*domain.Contact, error) {
	m.record("CreateContact")
	if m.CreateContactFn != nil {
		return m.CreateContactFn(ctx, in, avatar)
	}
	return m.Contact, m.Err
}

func (m *MockContactService) GetContact(ctx context.Context, id int64) (*domain.Contact, error) {
	m.record("GetContact")
	if m.GetContactFn != nil {
		return m.GetContactFn(ctx, id)
	}
	return m.Contact, m.Err
}

func (m *MockContactService) ListContacts(ctx context.Context, skip, limit int) ([]*domain.Contact, error) {
	m.record("ListContacts")
	if m.ListContactsFn != nil {
		return m.ListContactsFn(ctx, skip, limit)
	}
	return m.Contacts, m.Err
}

func (m *MockContactService) SearchContacts(ctx context.Context, query string) ([]*domain.Contact, error) {
	m.record("SearchContacts")
	if m.SearchContactsFn != nil {
		return m.SearchContactsFn(ctx, query)
	}
	return m.Contacts, m.Err
}

func (m *MockContactService) UpdateContact(
	ctx context.Context,
	id int64,
	patch domain.ContactPatch,
	avatar io.Reader,
) (*domain.Contact, error) {
	m.record("UpdateContact")
	if m.UpdateContactFn != nil {
		return m.UpdateContactFn(ctx, id, patch, avatar)
	}
	return m.Contact, m.Err
}

func (m *MockContactService) DeleteContact(ctx context.Context, id int64) (*domain.Contact, error) {
	m.record("DeleteContact")
	if m.DeleteContactFn != nil {
		return m.DeleteContactFn(ctx, id)
	}
	return m.Contact, m.Err
}

func (m *MockContactService) UpcomingBirthdays(ctx context.Context) ([]*domain.Contact, error) {
	m.record("UpcomingBirthdays")
	if m.UpcomingBirthdaysFn != nil {
		return m.UpcomingBirthdaysFn(ctx)
	}
	return m.Contacts, m.Err
}

func (m *MockContactService) AttachAvatar(ctx context.Context, c *domain.Contact, r io.Reader) bool {
	m.record("AttachAvatar")
	if m.AttachAvatarFn != nil {
		return m.AttachAvatarFn(ctx, c, r)
	}
	return m.Err == nil
}

func (m *MockContactService) RequestEmailVerification(ctx context.Context, id int64) (*domain.Contact, error) {
	m.record("RequestEmailVerification")
	if m.RequestEmailVerificationFn != nil {
		return m.RequestEmailVerificationFn(ctx, id)
	}
	return m.Contact, m.Err
}

func (m *MockContactService) VerifyEmail(ctx context.Context, token string) (*domain.Contact, error) {
	m.record("VerifyEmail")
	if m.VerifyEmailFn != nil {
		return m.VerifyEmailFn(ctx, token)
	}
	return m.Contact, m.Err
}
