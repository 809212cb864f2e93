// Package iox provides the IO adapters used by stream-backed holders.
//
// The package has no dependency on the lazytext package, so it can be
// used and tested on its own, mirroring how the holder core treats its
// input sources as external collaborators.
//
// # Contents
//
//   - lazy.go: LazyReader, a reader that opens its resource on first use
//   - copy.go: Copy and Capture, the 8 KiB buffered copier and its
//     writer-based sibling
//   - policy.go: the error policy consulted when a read fails, and the
//     outcomes it may choose
//   - compress.go: zstd and lz4 stream writers for compressed output
//
// # Lazy opening
//
// A LazyReader defers calling its Opener until the first Read or WriteTo.
// Closing it first never opens the resource:
//
//	r := iox.NewLazyReader(func() (io.ReadCloser, error) {
//	    return os.Open("large.log")
//	})
//	r.Close()              // os.Open is never called
//	_, err := r.Read(buf)  // err == iox.ErrStreamClosed
//
// # Error policies
//
// When a read fails, Copy asks the ErrorPolicy what to do with the bytes
// copied so far:
//
//	var buf bytes.Buffer
//	res, err := iox.Copy(&buf, r, iox.Always(iox.AppendMessage))
//	// err == nil, res.Cause holds the read failure, buf ends with its message
package iox
