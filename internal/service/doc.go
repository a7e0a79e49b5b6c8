// Package service contains the contact use cases. It coordinates the store,
// the avatar host and the verification mailer, and owns the transaction
// boundaries of multi-step operations.
//
// Expected outcomes are reported as sentinel errors (ErrContactNotFound,
// ErrEmailExists, ErrInvalidToken) that the API layer maps to status codes.
// Anything else is wrapped in a *ContactServiceError naming the operation.
package service
