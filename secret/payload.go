package secret

import (
	"io"
	"sync"
)

// Payload composes the byte stream a wrapped tool reads from stdin.
// Protocol text (separators, usernames) is added with Text, credential
// bytes with Secret. Seal hands the composed bytes to a Source and
// resets the Payload.
type Payload struct {
	buf []byte
}

// NewPayload creates an empty payload.
func NewPayload() *Payload {
	return &Payload{}
}

// Text appends protocol text.
func (p *Payload) Text(s string) *Payload {
	p.buf = append(p.buf, s...)
	return p
}

// Newline appends a single '\n', the line terminator every wrapped
// tool protocol uses.
func (p *Payload) Newline() *Payload {
	p.buf = append(p.buf, '\n')
	return p
}

// Secret appends the credential bytes held by v. The Value keeps its
// bytes; the caller wipes it when the invocation is done.
func (p *Payload) Secret(v *Value) *Payload {
	p.buf = v.append(p.buf)
	return p
}

// Len reports the number of composed bytes.
func (p *Payload) Len() int {
	return len(p.buf)
}

// Seal transfers the composed bytes into a one-shot Source and resets
// the Payload. The Source wipes the bytes once they are consumed.
func (p *Payload) Seal() *Source {
	s := &Source{buf: p.buf}
	p.buf = nil
	return s
}

// Source serves a sealed payload to a child process exactly once.
// It implements io.ReadCloser: the runner copies it to the child's
// stdin pipe and closes it. The underlying bytes are zeroed as soon as
// the stream is exhausted or closed, whichever comes first.
type Source struct {
	mu  sync.Mutex
	buf []byte
	off int
}

// Read serves the next chunk of the payload. After the final byte the
// buffer is wiped and every further call returns io.EOF.
func (s *Source) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.off >= len(s.buf) {
		s.wipeLocked()
		return 0, io.EOF
	}
	n := copy(p, s.buf[s.off:])
	s.off += n
	if s.off >= len(s.buf) {
		s.wipeLocked()
		return n, io.EOF
	}
	return n, nil
}

// Close wipes any unread bytes. Always returns nil.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wipeLocked()
	return nil
}

func (s *Source) wipeLocked() {
	for i := range s.buf {
		s.buf[i] = 0
	}
	s.buf = nil
	s.off = 0
}
