package gzinspect

import (
	"errors"
	"io"

	gzerrors "github.com/jt55401/gzinspector/gzinspect/errors"
	"github.com/jt55401/gzinspector/gzinspect/logger"
)

// ProgressCallback is called after each chunk to report progress
// current: byte offset of the scan cursor
// total: total stream size in bytes
type ProgressCallback func(current int64, total int64)

// ChunkHandler receives each chunk as it is produced. Returning an error
// stops the pass.
type ChunkHandler func(chunk *ChunkInfo) error

// InspectorOptions configures a pass over a stream
type InspectorOptions struct {
	// KeepPayload retains each chunk's decoded payload for preview
	// rendering. When false the payload is dropped once its size has been
	// accounted for.
	KeepPayload bool
}

// Inspector walks a stream of concatenated gzip members in order, producing
// one ChunkInfo per member. Members are read strictly sequentially: each
// boundary is only known once the previous member has decoded.
type Inspector interface {
	// NextChunk produces the next chunk and advances the cursor by its
	// confirmed compressed length. Returns ErrEndOfStream when no member
	// header remains.
	NextChunk() (*ChunkInfo, error)

	// Run drives NextChunk across the whole stream, handing each chunk to
	// handler, and returns the summary. On a fatal error the summary still
	// covers every chunk already produced.
	Run(handler ChunkHandler, progress ProgressCallback) (*FileSummary, error)
}

type inspector struct {
	r           io.ReadSeeker
	totalSize   int64
	offset      int64
	chunkNumber int
	keepPayload bool
}

// NewInspector creates an Inspector over r, which must report totalSize
// bytes. Pass nil options for defaults.
func NewInspector(r io.ReadSeeker, totalSize int64, opts *InspectorOptions) Inspector {
	ins := &inspector{
		r:         r,
		totalSize: totalSize,
	}
	if opts != nil {
		ins.keepPayload = opts.KeepPayload
	}
	return ins
}

func (ins *inspector) NextChunk() (*ChunkInfo, error) {
	info, err := ReadChunk(ins.r, ins.offset, ins.chunkNumber)
	if err != nil {
		return nil, err
	}

	ins.offset += info.CompressedSize
	ins.chunkNumber++

	if !ins.keepPayload {
		info.PreviewData = nil
	}

	logger.Debug("chunk %d: offset=%d compressed=%d uncompressed=%d",
		info.ChunkNumber, info.Offset, info.CompressedSize, info.UncompressedSize)

	return info, nil
}

func (ins *inspector) Run(handler ChunkHandler, progress ProgressCallback) (*FileSummary, error) {
	summary := &FileSummary{}

	for {
		info, err := ins.NextChunk()
		if err != nil {
			if errors.Is(err, gzerrors.ErrEndOfStream) {
				break
			}
			finalizeSummary(summary)
			return summary, err
		}

		summary.TotalChunks++
		summary.TotalCompressedSize += info.CompressedSize
		summary.TotalUncompressedSize += info.UncompressedSize

		if progress != nil {
			progress(ins.offset, ins.totalSize)
		}

		if handler != nil {
			if err := handler(info); err != nil {
				finalizeSummary(summary)
				return summary, err
			}
		}
	}

	finalizeSummary(summary)
	return summary, nil
}

func finalizeSummary(summary *FileSummary) {
	if summary.TotalCompressedSize > 0 {
		summary.AverageCompressionRatio =
			float64(summary.TotalUncompressedSize) / float64(summary.TotalCompressedSize)
	}
}
