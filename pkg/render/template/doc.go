// Package template defines the renderer seam used by views, picker fragments,
// and server pages. Implementations live in subpackages.
package template
