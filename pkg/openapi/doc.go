// Package openapi describes the admin HTTP surface of a registry as an
// OpenAPI 3 document: the CRUD pages of every model, the picker endpoints,
// and the bulk action endpoints.
package openapi
