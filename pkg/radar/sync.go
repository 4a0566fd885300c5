package radar

import "bytes"

// Synchronizer recovers telemetry frame boundaries from an unstructured
// byte stream. Every scan iteration either emits a frame or discards
// exactly one byte, so the internal buffer stays bounded by one partial
// frame under any input, including pure noise.
type Synchronizer struct {
	buf []byte
}

// Feed appends data to the internal buffer and extracts all complete
// telemetry frames, in stream order. Returned frames are copies and do
// not alias the internal buffer.
func (s *Synchronizer) Feed(data []byte) [][]byte {
	s.buf = append(s.buf, data...)
	var frames [][]byte
	for {
		if len(s.buf) < len(dataHeader) {
			break
		}
		if !bytes.Equal(s.buf[:len(dataHeader)], dataHeader) {
			s.buf = s.buf[1:]
			continue
		}
		if len(s.buf) < 8 {
			break
		}
		frameLen := int(s.buf[4]) + 10
		if len(s.buf) < frameLen {
			break
		}
		if !bytes.Equal(s.buf[frameLen-4:frameLen], dataTrailer) {
			// False header match. One byte out keeps scanning the
			// rest of the buffer.
			s.buf = s.buf[1:]
			continue
		}
		frame := make([]byte, frameLen)
		copy(frame, s.buf)
		s.buf = s.buf[frameLen:]
		frames = append(frames, frame)
	}
	return frames
}

// Pending returns the number of buffered bytes waiting for more data.
func (s *Synchronizer) Pending() int {
	return len(s.buf)
}

// Reset drops all buffered bytes.
func (s *Synchronizer) Reset() {
	s.buf = nil
}
