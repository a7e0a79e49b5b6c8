// Package mocks provides shared test doubles for the contact service and its store.
//
// MockContactStore is built on testify/mock and suits tests that assert on
// call arguments. MockContactService uses function fields with call tracking
// and suits handler tests that only need canned responses:
//
//	svc := &mocks.MockContactService{
//	    GetContactFn: func(ctx context.Context, id int64) (*domain.Contact, error) {
//	        return nil, service.ErrContactNotFound
//	    },
//	}
package mocks
