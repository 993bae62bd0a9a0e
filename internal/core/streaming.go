package core

// streaming.go prepares an uploaded file for the CSV reader.
//
// Windows exports often start with a UTF-8 BOM, which would otherwise end up
// glued to the first header name. Invalid UTF-8 is repaired per cell after
// parsing (see sanitizeRow), so the reader itself stays a thin wrapper.

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CountingReader wraps an io.Reader to track bytes read.
// Used for logging how much of an upload was consumed.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// WrapForCSV strips a leading UTF-8 BOM and counts the bytes consumed.
//
// The order matters: counting wraps the raw source so the total matches the
// uploaded size, and BOM detection runs on top of it.
func WrapForCSV(r io.Reader) (io.Reader, *CountingReader) {
	counter := &CountingReader{reader: r}
	br := bufio.NewReader(counter)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br, counter
}

// sanitizeRow replaces invalid UTF-8 sequences in each cell with U+FFFD.
func sanitizeRow(row []string) []string {
	for i, cell := range row {
		row[i] = strings.ToValidUTF8(cell, "\uFFFD")
	}
	return row
}
