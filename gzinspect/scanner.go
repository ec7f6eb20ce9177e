package gzinspect

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/opencontainers/go-digest"

	gzerrors "github.com/jt55401/gzinspector/gzinspect/errors"
	"github.com/jt55401/gzinspector/gzinspect/logger"
)

const (
	// scanBlockSize is how much of the stream is pulled in per read while
	// hunting for the next member boundary.
	scanBlockSize = 8192

	// maxChunkSize bounds how many bytes a single candidate member may
	// accumulate before the scan gives up on finding a next boundary.
	maxChunkSize = 20 * 1024 * 1024
)

// ReadChunk reads one gzip member starting at offset. The member's extent is
// not framed anywhere, so the scanner reads forward in blocks looking for a
// candidate magic pair and accepts a boundary only when the span up to the
// candidate decompresses end-to-end. A magic match alone is never enough: the
// pair can occur inside deflate output by coincidence.
//
// On success the stream is left positioned at the end of the confirmed span
// and the returned ChunkInfo carries the decoded payload.
func ReadChunk(r io.ReadSeeker, offset int64, chunkNumber int) (*ChunkInfo, error) {
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		// Nothing (or not even a full header) left at this offset.
		return nil, gzerrors.ErrEndOfStream.WithDetail("offset", offset)
	}

	if header[0] != 0x1f || header[1] != 0x8b {
		return nil, gzerrors.ErrInvalidMagic.
			WithDetail("offset", offset).
			WithDetail("header", fmt.Sprintf("%02x %02x %02x", header[0], header[1], header[2]))
	}

	// Everything consumed from here on belongs to this member's compressed
	// span, including the optional header fields the parser reads past.
	compressed := bytes.NewBuffer(make([]byte, 0, scanBlockSize))
	compressed.Write(header)

	headerInfo, err := ParseHeader(header, io.TeeReader(r, compressed))
	if err != nil {
		// The stream ended inside the optional header fields.
		return nil, gzerrors.ErrEndOfStream.WithDetail("offset", offset).WithCause(err)
	}

	data, err := scanMemberExtent(r, offset, compressed)
	if err != nil {
		return nil, err
	}

	payload, err := gunzipMember(data)
	if err != nil {
		return nil, gzerrors.ErrDecompressFailed.
			WithDetail("offset", offset).
			WithCause(err)
	}

	return &ChunkInfo{
		ChunkNumber:      chunkNumber,
		Offset:           offset,
		CompressedSize:   int64(len(data)),
		UncompressedSize: int64(len(payload)),
		CompressionRatio: float64(len(payload)) / float64(len(data)),
		Header:           headerInfo,
		Digest:           digest.FromBytes(payload),
		PreviewData:      payload,
	}, nil
}

// scanMemberExtent grows the compressed buffer block by block until a
// confirmed boundary or end of stream, and returns the member's exact span.
func scanMemberExtent(r io.ReadSeeker, offset int64, compressed *bytes.Buffer) ([]byte, error) {
	block := make([]byte, scanBlockSize)

	for {
		n, err := r.Read(block)
		if n == 0 {
			if err != nil && err != io.EOF {
				return nil, err
			}
			break
		}

		// Candidate magic pairs need both bytes inside this block; a pair
		// straddling the block edge is picked up by the fallback paths.
		for i := 0; i+1 < n; i++ {
			if block[i] != 0x1f || block[i+1] != 0x8b {
				continue
			}

			savedPos, serr := r.Seek(0, io.SeekCurrent)
			if serr != nil {
				return nil, serr
			}

			trial := make([]byte, 0, compressed.Len()+i)
			trial = append(trial, compressed.Bytes()...)
			trial = append(trial, block[:i]...)

			if validateMember(trial) {
				// Boundary confirmed: reposition exactly at the end of
				// the span and stop scanning.
				if _, serr := r.Seek(offset+int64(len(trial)), io.SeekStart); serr != nil {
					return nil, serr
				}
				logger.Debug("confirmed member boundary at offset %d (%d bytes)", offset, len(trial))
				return trial, nil
			}

			if _, serr := r.Seek(savedPos, io.SeekStart); serr != nil {
				return nil, serr
			}
		}

		compressed.Write(block[:n])

		if compressed.Len() > maxChunkSize {
			if validateMember(compressed.Bytes()) {
				logger.Warn("member at offset %d exceeds %d bytes, treating as final", offset, maxChunkSize)
				return compressed.Bytes(), nil
			}
			return nil, gzerrors.ErrChunkTooLarge.
				WithDetail("offset", offset).
				WithDetail("accumulated", compressed.Len())
		}

		if err == io.EOF {
			break
		}
	}

	// No further member follows; treat what we have as the final member.
	data := compressed.Bytes()
	if validateMember(data) {
		return data, nil
	}

	// The tail may be truncated or followed by garbage. Keep the largest
	// prefix that still decompresses and drop the rest.
	for i := len(data) - 1; i > headerSize; i-- {
		if validateMember(data[:i]) {
			logger.Info("recovered truncated member at offset %d: kept %d of %d bytes", offset, i, len(data))
			return data[:i], nil
		}
	}

	// Let the caller's final decompression surface the decoder's error.
	return data, nil
}

// validateMember reports whether data holds one complete decodable gzip
// member from its first byte through its trailer.
func validateMember(data []byte) bool {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return false
	}
	zr.Multistream(false)
	if _, err := io.Copy(io.Discard, zr); err != nil {
		return false
	}
	return zr.Close() == nil
}

// gunzipMember decompresses a single member span and returns its payload.
func gunzipMember(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	zr.Multistream(false)
	payload, err := io.ReadAll(zr)
	if err != nil {
		return nil, err
	}
	if err := zr.Close(); err != nil {
		return nil, err
	}
	return payload, nil
}
