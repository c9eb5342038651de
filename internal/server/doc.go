// Package server serves the admin pages over chi: model listings with search,
// sorting, pagination and parent scopes, record pages and forms, plus the
// picker and bulk action endpoints.
package server
