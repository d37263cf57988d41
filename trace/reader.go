// Package trace reads memory reference traces.
//
// A trace is a text file with one reference per line:
//
//	<type> <address>
//
// where type is 0 (read), 1 (write), or 2 (instruction fetch) and address is
// a hexadecimal number, optionally prefixed with 0x. Empty lines and lines
// starting with # are skipped.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/cachesim/cache"
)

// A Reader parses accesses from a trace.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader creates a reader that parses the given stream.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		scanner: bufio.NewScanner(r),
	}
}

// Line returns the number of the last line read.
func (r *Reader) Line() int {
	return r.line
}

// Next returns the next access. It returns io.EOF when the trace ends.
func (r *Reader) Next() (cache.AccessReq, error) {
	for r.scanner.Scan() {
		r.line++

		text := strings.TrimSpace(r.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		req, err := ParseLine(text)
		if err != nil {
			return cache.AccessReq{}, fmt.Errorf("line %d: %w", r.line, err)
		}

		return req, nil
	}

	if err := r.scanner.Err(); err != nil {
		return cache.AccessReq{}, err
	}

	return cache.AccessReq{}, io.EOF
}

// ReadAll parses all the remaining accesses.
func (r *Reader) ReadAll() ([]cache.AccessReq, error) {
	var reqs []cache.AccessReq

	for {
		req, err := r.Next()
		if err == io.EOF {
			return reqs, nil
		}

		if err != nil {
			return reqs, err
		}

		reqs = append(reqs, req)
	}
}

// ParseLine parses a single "<type> <address>" record.
func ParseLine(text string) (cache.AccessReq, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return cache.AccessReq{},
			fmt.Errorf("expected 2 fields, got %d in %q", len(fields), text)
	}

	v, err := strconv.Atoi(fields[0])
	if err != nil {
		return cache.AccessReq{}, fmt.Errorf("bad access type %q", fields[0])
	}

	t, err := cache.ParseAccessType(v)
	if err != nil {
		return cache.AccessReq{}, err
	}

	addrStr := strings.TrimPrefix(strings.ToLower(fields[1]), "0x")

	addr, err := strconv.ParseUint(addrStr, 16, 64)
	if err != nil {
		return cache.AccessReq{}, fmt.Errorf("bad address %q", fields[1])
	}

	return cache.AccessReq{Addr: addr, Type: t}, nil
}

// File is a trace that is read from the file system.
type File struct {
	*Reader

	f *os.File
}

// Open opens a trace file.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	return &File{
		Reader: NewReader(f),
		f:      f,
	}, nil
}

// Close closes the underlying file.
func (f *File) Close() error {
	return f.f.Close()
}
