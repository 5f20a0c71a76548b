// Package hashring maps cache keys to positions on a consistent hashing ring.
// An Algorithm yields either a single position per key or several positions
// derived from one digest (ketama style), always truncated to 32 bits.
package hashring
