// Package domain holds the Contact entity, its field rules and the
// birthday-window arithmetic. It has no knowledge of storage or HTTP.
package domain
