package gzinspect

import (
	"strings"

	"github.com/opencontainers/go-digest"
)

// ExtraField is one subfield of a gzip FEXTRA block. ID combines the two
// subfield identifier bytes with the first byte in the high half.
type ExtraField struct {
	ID   uint16 `json:"id"`
	Data []byte `json:"data"`
}

// HeaderInfo holds decoded metadata for one member's header. It is created
// once by ParseHeader and never mutated afterwards.
type HeaderInfo struct {
	CompressionMethod string       `json:"compression_method"`
	Flags             []string     `json:"flags"`
	ModTime           string       `json:"mtime"`
	ExtraFlags        string       `json:"extra_flags"`
	OS                string       `json:"os"`
	ExtraFields       []ExtraField `json:"extra_fields,omitempty"`
	Filename          string       `json:"filename,omitempty"`
	Comment           string       `json:"comment,omitempty"`
}

// String renders the compact method|FLAG|FLAG[|filename] form used in the
// per-chunk human output line.
func (h *HeaderInfo) String() string {
	var sb strings.Builder
	sb.WriteString(h.CompressionMethod)
	sb.WriteString("|")
	sb.WriteString(strings.Join(h.Flags, "|"))
	if h.Filename != "" {
		sb.WriteString("|")
		sb.WriteString(h.Filename)
	}
	return sb.String()
}

// ChunkInfo is the accounting record for one gzip member. PreviewData holds
// the full decoded payload and is kept out of structured output; it is nil
// unless payload retention was requested.
type ChunkInfo struct {
	ChunkNumber      int           `json:"chunk_number"`
	Offset           int64         `json:"offset"`
	CompressedSize   int64         `json:"compressed_size"`
	UncompressedSize int64         `json:"uncompressed_size"`
	CompressionRatio float64       `json:"compression_ratio"`
	Header           *HeaderInfo   `json:"header_info"`
	Digest           digest.Digest `json:"digest"`
	PreviewData      []byte        `json:"-"`
}

// FileSummary aggregates a whole pass over the stream. The average ratio is
// total uncompressed over total compressed, not a mean of per-chunk ratios.
type FileSummary struct {
	TotalChunks             int     `json:"total_chunks"`
	TotalCompressedSize     int64   `json:"total_compressed_size"`
	TotalUncompressedSize   int64   `json:"total_uncompressed_size"`
	AverageCompressionRatio float64 `json:"average_compression_ratio"`
}
