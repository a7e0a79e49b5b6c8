// Package api exposes the contact service over HTTP. Handlers decode JSON
// or multipart requests, validate them and translate service outcomes into
// status codes and sanitized error bodies.
package api
