package store

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"time"

	"github.com/golang/snappy"

	"github.com/dd0wney/trellis/pkg/graphdoc"
)

// Frame layout, all integers big-endian:
//
//	[Magic:4][Version:1][PayloadLen:4][Payload:N][Checksum:4][SavedAt:8]
//
// Payload is the snappy-compressed JSON document; the checksum is CRC32
// (IEEE) over the compressed payload; SavedAt is Unix nanoseconds.
const (
	frameMagic   uint32 = 0x54524C31 // "TRL1"
	frameVersion byte   = 1

	frameHeaderSize  = 4 + 1 + 4
	frameTrailerSize = 4 + 8
)

func encodeFrame(doc *graphdoc.Document) ([]byte, error) {
	raw, err := doc.EncodeJSON()
	if err != nil {
		return nil, err
	}

	payload := snappy.Encode(nil, raw)
	checksum := crc32.ChecksumIEEE(payload)

	frame := make([]byte, frameHeaderSize+len(payload)+frameTrailerSize)
	binary.BigEndian.PutUint32(frame[0:4], frameMagic)
	frame[4] = frameVersion
	binary.BigEndian.PutUint32(frame[5:9], uint32(len(payload)))
	copy(frame[frameHeaderSize:], payload)

	trailer := frame[frameHeaderSize+len(payload):]
	binary.BigEndian.PutUint32(trailer[0:4], checksum)
	binary.BigEndian.PutUint64(trailer[4:12], uint64(time.Now().UnixNano()))

	return frame, nil
}

func decodeFrame(frame []byte) (*graphdoc.Document, time.Time, error) {
	if len(frame) < frameHeaderSize+frameTrailerSize {
		return nil, time.Time{}, fmt.Errorf("frame too short: %d bytes", len(frame))
	}

	if magic := binary.BigEndian.Uint32(frame[0:4]); magic != frameMagic {
		return nil, time.Time{}, fmt.Errorf("bad frame magic %#x (encrypted store opened without a cipher?)", magic)
	}
	if version := frame[4]; version != frameVersion {
		return nil, time.Time{}, fmt.Errorf("unsupported frame version %d", version)
	}

	payloadLen := int(binary.BigEndian.Uint32(frame[5:9]))
	if payloadLen != len(frame)-frameHeaderSize-frameTrailerSize {
		return nil, time.Time{}, fmt.Errorf("frame length mismatch: header says %d, have %d",
			payloadLen, len(frame)-frameHeaderSize-frameTrailerSize)
	}

	payload := frame[frameHeaderSize : frameHeaderSize+payloadLen]
	trailer := frame[frameHeaderSize+payloadLen:]

	checksum := binary.BigEndian.Uint32(trailer[0:4])
	if actual := crc32.ChecksumIEEE(payload); actual != checksum {
		return nil, time.Time{}, fmt.Errorf("checksum mismatch: expected %#x, got %#x", checksum, actual)
	}
	savedAt := time.Unix(0, int64(binary.BigEndian.Uint64(trailer[4:12])))

	raw, err := snappy.Decode(nil, payload)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("decompress document: %w", err)
	}

	doc, err := graphdoc.DecodeJSON(raw)
	if err != nil {
		return nil, time.Time{}, err
	}
	return doc, savedAt, nil
}
