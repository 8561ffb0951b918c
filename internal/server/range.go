package server

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errUnsatisfiableRange = errors.New("range not satisfiable")

// byteRange is an inclusive byte range. end is -1 when the range runs to the end of an
// unknown-length body.
type byteRange struct {
	start, end int64
}

// length returns the number of bytes in the range, or -1 when it is open-ended.
func (b byteRange) length() int64 {
	if b.end < 0 {
		return -1
	}
	return b.end - b.start + 1
}

// contentRange formats the Content-Range header value. size is 0 when unknown.
func (b byteRange) contentRange(size int64) string {
	total := "*"
	if size > 0 {
		total = strconv.FormatInt(size, 10)
	}
	return fmt.Sprintf("bytes %d-%d/%s", b.start, b.end, total)
}

// parseRange parses a single "bytes=start-[end]" or "bytes=-suffix" Range header against a
// body of size bytes (0 when unknown).
//
// It returns nil for an absent header, a unit other than bytes, or a multi-range request,
// all of which are served as the full body. An open-ended range over a body of unknown size
// is also served in full since no valid Content-Range can describe it.
func parseRange(header string, size int64) (*byteRange, error) {
	set, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes=")
	if !ok || strings.Contains(set, ",") {
		return nil, nil
	}

	startStr, endStr, ok := strings.Cut(strings.TrimSpace(set), "-")
	if !ok {
		return nil, errUnsatisfiableRange
	}

	if startStr == "" {
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 || size <= 0 {
			return nil, errUnsatisfiableRange
		}
		return &byteRange{start: max(size-n, 0), end: size - 1}, nil
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return nil, errUnsatisfiableRange
	}
	if size > 0 && start >= size {
		return nil, errUnsatisfiableRange
	}

	if endStr == "" {
		if size <= 0 {
			return nil, nil
		}
		return &byteRange{start: start, end: size - 1}, nil
	}

	end, err := strconv.ParseInt(endStr, 10, 64)
	if err != nil || end < start {
		return nil, errUnsatisfiableRange
	}
	if size > 0 && end >= size {
		end = size - 1
	}
	return &byteRange{start: start, end: end}, nil
}
