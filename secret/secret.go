// Package secret carries credential material to wrapped tools over
// stdin and nowhere else.
//
// A Value holds password bytes and redacts itself on every formatting
// path. A Payload composes the exact byte stream a tool expects on its
// standard input, and Seal turns it into a Source, a one-shot reader
// that wipes the underlying bytes once consumed.
//
// Value exposes no accessor that returns its bytes, so credential
// material has no path into an argument vector or an environment
// variable. The only way out of this package is a Source wired to a
// child process's stdin.
package secret

import "sync"

// Redacted is the placeholder emitted on every formatting path in
// place of credential bytes.
const Redacted = "[redacted]"

// Value holds credential bytes in memory until they are composed into
// a payload and wiped.
type Value struct {
	mu sync.Mutex
	b  []byte
}

// New wraps credential bytes in a Value. It takes ownership of b; the
// caller must not retain or reuse the slice.
func New(b []byte) *Value {
	return &Value{b: b}
}

// FromString copies a string into a Value. Prefer New with a byte
// slice where possible, since the source string cannot be wiped.
func FromString(s string) *Value {
	return &Value{b: []byte(s)}
}

// Len reports the number of credential bytes currently held.
func (v *Value) Len() int {
	if v == nil {
		return 0
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.b)
}

// Wipe zeroes and releases the credential bytes. The Value is empty
// afterward. Safe to call more than once.
func (v *Value) Wipe() {
	if v == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.b {
		v.b[i] = 0
	}
	v.b = nil
}

// String implements fmt.Stringer. It never returns the credential.
func (v *Value) String() string {
	return Redacted
}

// GoString implements fmt.GoStringer so %#v stays redacted.
func (v *Value) GoString() string {
	return Redacted
}

// MarshalJSON redacts the credential in any JSON encoding.
func (v *Value) MarshalJSON() ([]byte, error) {
	return []byte(`"` + Redacted + `"`), nil
}

// MarshalText redacts the credential in any text encoding.
func (v *Value) MarshalText() ([]byte, error) {
	return []byte(Redacted), nil
}

// append copies the held bytes onto dst. Package-private: only Payload
// composition may read credential bytes.
func (v *Value) append(dst []byte) []byte {
	if v == nil {
		return dst
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return append(dst, v.b...)
}
