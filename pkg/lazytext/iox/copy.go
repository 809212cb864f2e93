package iox

import (
	"bytes"
	"io"
	"sync"
)

// ChunkSize is the read size used by Copy.
const ChunkSize = 8 << 10

var chunkPool = sync.Pool{
	New: func() any {
		buf := make([]byte, ChunkSize)
		return &buf
	},
}

// Copy reads src into dst in ChunkSize pieces until EOF. A read failure is
// handed to policy; see Outcome for what each answer does to dst. The
// returned error is non-nil only when the outcome is Escalate.
func Copy(dst *bytes.Buffer, src io.Reader, policy ErrorPolicy) (Result, error) {
	bufp := chunkPool.Get().(*[]byte)
	defer chunkPool.Put(bufp)
	buf := *bufp

	start := dst.Len()
	for {
		n, err := src.Read(buf)
		if n > 0 {
			dst.Write(buf[:n])
		}
		if err == io.EOF {
			return Result{N: int64(dst.Len() - start)}, nil
		}
		if err != nil {
			return settle(dst, start, err, policy)
		}
	}
}

// Capture runs fn against dst and applies policy if fn fails, the same way
// Copy treats a failed read.
func Capture(dst *bytes.Buffer, fn func(w io.Writer) error, policy ErrorPolicy) (Result, error) {
	start := dst.Len()
	if err := fn(dst); err != nil {
		return settle(dst, start, err, policy)
	}
	return Result{N: int64(dst.Len() - start)}, nil
}
