// Package picker is the client half of the association picker: a state
// machine that opens a dropdown, fetches candidates as the user types,
// and keeps the hidden form inputs carrying the selection.
//
// Fetches are tagged with a monotonically increasing sequence number and
// only the response to the latest one is applied. Older responses are
// discarded when they arrive, whatever their order; in-flight requests are
// never cancelled.
package picker
