// Package grid owns the megaverse value model.
//
// Ownership boundary:
// - grid coordinates and bounds checks
// - celestial entity variants and their request params
// - goal map token grammar
// - fixed pattern generation
//
// Nothing in this package performs I/O.
package grid
