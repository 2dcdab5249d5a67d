package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadTextFile opens path and parses it as a text trace.
func ReadTextFile(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadText(f)
}

// ReadText parses the textual trace format: one record per line, fields
// separated by commas and optional whitespace. Each line has its commas
// turned into whitespace and is then tokenized into five decimal fields
// (seq, tid, bundle_kind, is_write, size) followed by two hexadecimal
// fields (address, pc). seq is parsed and discarded. Empty lines are
// skipped. A malformed line aborts parsing with an error naming the
// offending line.
func ReadText(r io.Reader) (*Trace, error) {
	var requests []Request

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.ReplaceAll(scanner.Text(), ",", " ")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 7 {
			return nil, fmt.Errorf("%w: line %d: expected 7 fields, got %d: %q",
				ErrInvalidTrace, lineNo, len(fields), scanner.Text())
		}

		_, tid, bundleKind, isWrite, size, address, pc, err := parseTextFields(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %s: %q", ErrInvalidTrace, lineNo, err, scanner.Text())
		}

		requests = append(requests, Request{
			TID:        tid,
			Size:       size,
			BundleKind: bundleKind,
			IsWrite:    isWrite,
			Address:    address,
			PC:         pc,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTrace, err)
	}

	return New(requests), nil
}

func parseTextFields(fields []string) (seq int64, tid, bundleKind int32, isWrite bool, size int32, address, pc uint64, err error) {
	seq, err = strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, 0, 0, false, 0, 0, 0, fmt.Errorf("bad seq field: %w", err)
	}

	tid64, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil {
		return 0, 0, 0, false, 0, 0, 0, fmt.Errorf("bad tid field: %w", err)
	}

	bundle64, err := strconv.ParseInt(fields[2], 10, 32)
	if err != nil {
		return 0, 0, 0, false, 0, 0, 0, fmt.Errorf("bad bundle_kind field: %w", err)
	}

	isWriteInt, err := strconv.ParseInt(fields[3], 10, 32)
	if err != nil {
		return 0, 0, 0, false, 0, 0, 0, fmt.Errorf("bad is_write field: %w", err)
	}

	size64, err := strconv.ParseInt(fields[4], 10, 32)
	if err != nil {
		return 0, 0, 0, false, 0, 0, 0, fmt.Errorf("bad size field: %w", err)
	}

	address, err = strconv.ParseUint(strings.TrimPrefix(fields[5], "0x"), 16, 64)
	if err != nil {
		return 0, 0, 0, false, 0, 0, 0, fmt.Errorf("bad address field: %w", err)
	}

	pc, err = strconv.ParseUint(strings.TrimPrefix(fields[6], "0x"), 16, 64)
	if err != nil {
		return 0, 0, 0, false, 0, 0, 0, fmt.Errorf("bad pc field: %w", err)
	}

	return seq, int32(tid64), int32(bundle64), isWriteInt != 0, int32(size64), address, pc, nil
}
