// Package ring implements a ketama-style consistent hashing ring over a
// hashring.Algorithm. Every node contributes points derived from
// multi-part key hashes; keys map to the first point at or after their
// primary position.
package ring
