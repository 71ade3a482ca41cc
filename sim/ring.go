package sim

// ring is a fixed-capacity byte FIFO. One slot stays empty to tell full from
// empty.
type ring struct {
	buf   []byte
	read  int
	write int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]byte, capacity+1)}
}

// Write appends as many bytes as fit and returns how many did.
func (r *ring) Write(data []byte) int {
	written := 0
	for _, b := range data {
		next := (r.write + 1) % len(r.buf)
		if next == r.read {
			break
		}
		r.buf[r.write] = b
		r.write = next
		written++
	}
	return written
}

// Read moves up to len(data) bytes out of the FIFO.
func (r *ring) Read(data []byte) int {
	n := 0
	for i := range data {
		if r.read == r.write {
			break
		}
		data[i] = r.buf[r.read]
		r.read = (r.read + 1) % len(r.buf)
		n++
	}
	return n
}

// Available returns the number of buffered bytes.
func (r *ring) Available() int {
	if r.write >= r.read {
		return r.write - r.read
	}
	return len(r.buf) - r.read + r.write
}

// Free returns the number of bytes that can still be written.
func (r *ring) Free() int {
	return len(r.buf) - 1 - r.Available()
}

func (r *ring) Reset() {
	r.read, r.write = 0, 0
}
