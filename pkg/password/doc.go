// Package password implements credential hashing and verification with a
// delegating, algorithm-tagged scheme.
//
// Stored hashes carry a "{algorithmId}" prefix identifying the algorithm that
// produced them. New credentials are always encoded with the configured
// default algorithm; verification dispatches on the stored tag, so old hashes
// keep verifying under their original algorithm until the next password
// change re-encodes them. Hashes with no recognizable tag predate the tagged
// scheme and are verified with a fixed legacy algorithm.
package password
