package drive

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLimit matches mimetype's default read limit.
const sniffLimit = 3072

const genericMimeType = "application/octet-stream"

// resolveMimeType keeps a specific declared type. An empty or generic one is
// replaced by detection over the head of content; the returned reader still
// yields every byte. A seekable content is rewound and returned as is, so
// providers can size it without buffering.
func resolveMimeType(declared string, content io.Reader) (string, io.Reader, error) {
	if mt := normalizeMimeType(declared); mt != "" && mt != genericMimeType {
		return declared, content, nil
	}

	head := make([]byte, sniffLimit)
	n, err := io.ReadFull(content, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, err
	}
	head = head[:n]

	detected := mimetype.Detect(head).String()
	if seeker, ok := content.(io.Seeker); ok {
		if _, err := seeker.Seek(int64(-n), io.SeekCurrent); err == nil {
			return detected, content, nil
		}
	}
	return detected, io.MultiReader(bytes.NewReader(head), content), nil
}

func normalizeMimeType(s string) string {
	mt, _, err := mime.ParseMediaType(s)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return mt
}
