// Package policy defines the vendor-neutral intermediate representation
// consumed by the renderers: an ordered list of filters, each a header plus an
// ordered list of match/action terms. The parser that produces these values
// and the naming service that expands symbolic tokens into addresses live
// outside this module; everything here is plain data plus the normalization
// tables (protocols, ICMP types, port ranges) that every backend shares.
//
// Values of these types are built once and never mutated during rendering.
// Renderers that need a modified term (for example to widen destination
// ports) work on a copy.
package policy
