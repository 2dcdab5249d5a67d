package trace

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// binaryRecord is the fixed, little-endian, 29-byte on-disk layout of one
// binary-format trace record. encoding/binary serializes struct fields
// sequentially with no alignment padding, so this layout is exactly
// recordWidth bytes regardless of the host's native struct layout.
type binaryRecord struct {
	TID        int32
	Size       int32
	BundleKind int32
	IsWrite    uint8
	Address    uint64
	PC         uint64
}

func (b binaryRecord) toRequest() Request {
	return Request{
		TID:        b.TID,
		Size:       b.Size,
		BundleKind: b.BundleKind,
		IsWrite:    b.IsWrite != 0,
		Address:    b.Address,
		PC:         b.PC,
	}
}

func requestToBinaryRecord(r Request) binaryRecord {
	isWrite := uint8(0)
	if r.IsWrite {
		isWrite = 1
	}
	return binaryRecord{
		TID:        r.TID,
		Size:       r.Size,
		BundleKind: r.BundleKind,
		IsWrite:    isWrite,
		Address:    r.Address,
		PC:         r.PC,
	}
}

// ReadBinaryFile opens path and parses it as a binary trace, serially.
func ReadBinaryFile(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadBinary(f)
}

// ReadBinary parses the binary trace format: a little-endian u64 record
// count header, followed by that many fixed-width records.
func ReadBinary(r io.Reader) (*Trace, error) {
	n, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	requests := make([]Request, n)
	for i := range requests {
		var rec binaryRecord
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("%w: truncated binary trace at record %d: %w", ErrInvalidTrace, i, err)
		}
		requests[i] = rec.toRequest()
	}

	return New(requests), nil
}

func readHeader(r io.Reader) (uint64, error) {
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return 0, fmt.Errorf("%w: reading binary trace header: %w", ErrInvalidTrace, err)
	}
	return n, nil
}

// WriteBinaryFile creates (or truncates) path and writes tr to it in the
// binary format.
func WriteBinaryFile(path string, tr *Trace) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating trace file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return WriteBinary(f, tr)
}

// WriteBinary writes tr to w in the binary format: the header giving the
// record count, then each record in the same field order and width
// ReadBinary expects.
func WriteBinary(w io.Writer, tr *Trace) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(tr.Len())); err != nil {
		return fmt.Errorf("writing binary trace header: %w", err)
	}

	for _, r := range tr.Requests() {
		rec := requestToBinaryRecord(r)
		if err := binary.Write(w, binary.LittleEndian, rec); err != nil {
			return fmt.Errorf("writing binary trace record: %w", err)
		}
	}

	return nil
}
