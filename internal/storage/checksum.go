package storage

import (
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
)

// measuringReader counts and hashes everything read through it.
type measuringReader struct {
	r      io.Reader
	digest *xxhash.Digest
	n      int64
}

func newMeasuringReader(r io.Reader) *measuringReader {
	return &measuringReader{r: r, digest: xxhash.New()}
}

func (m *measuringReader) Read(p []byte) (int, error) {
	n, err := m.r.Read(p)
	if n > 0 {
		m.n += int64(n)
		m.digest.Write(p[:n])
	}
	return n, err
}

func (m *measuringReader) result(key string) *UploadResult {
	return &UploadResult{Key: key, Size: m.n, Checksum: formatChecksum(m.digest.Sum64())}
}

func formatChecksum(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}

// Checksum returns the xxhash64 checksum of data in the format stored on files.
func Checksum(data []byte) string {
	return formatChecksum(xxhash.Sum64(data))
}
