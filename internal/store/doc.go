// Package store defines the persistence contract for contacts, the errors
// implementations must return, and transaction helpers shared by stores.
package store
