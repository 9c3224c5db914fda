// Package codec converts cached results to and from the bytes kept in the
// shared store. Every wrapped operation picks one codec for its result type;
// JSON is used when none is given.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
