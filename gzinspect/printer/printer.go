package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/segmentio/encoding/json"

	"github.com/jt55401/gzinspector/gzinspect"
)

// OutputFormat selects between the human and structured renderings
type OutputFormat string

const (
	FormatHuman OutputFormat = "human"
	FormatJSON  OutputFormat = "json"
)

// Printer renders chunk records and summaries. It is a view over the engine's
// output; the data model carries no display logic.
type Printer struct {
	out      io.Writer
	format   OutputFormat
	preview  *PreviewSettings
	encoding string
}

// New creates a Printer writing to out. preview may be nil to disable
// payload excerpts; only the utf-8 encoding hint is honored.
func New(out io.Writer, format OutputFormat, preview *PreviewSettings, encoding string) *Printer {
	return &Printer{
		out:      out,
		format:   format,
		preview:  preview,
		encoding: encoding,
	}
}

// PrintChunk renders one chunk: a single JSON object per line in structured
// mode, or the emoji accounting line plus an optional payload excerpt.
func (p *Printer) PrintChunk(chunk *gzinspect.ChunkInfo) error {
	if p.format == FormatJSON {
		return p.printJSON(chunk)
	}

	fmt.Fprintln(p.out, FormatChunk(chunk))
	if p.preview != nil && chunk.PreviewData != nil {
		p.printPreview(chunk.PreviewData)
	}
	return nil
}

// PrintEllipsis marks elided chunks between the head and the buffered tail
func (p *Printer) PrintEllipsis() {
	if p.format == FormatHuman {
		fmt.Fprintln(p.out, "          ...")
	}
}

// PrintSummary renders the end-of-pass aggregate
func (p *Printer) PrintSummary(summary *gzinspect.FileSummary) error {
	if p.format == FormatJSON {
		return p.printJSON(summary)
	}

	fmt.Fprintf(p.out, "\n📊 Summary:\n")
	fmt.Fprintf(p.out, "├─ 📦 Chunks: %d\n", summary.TotalChunks)
	fmt.Fprintf(p.out, "├─ 📥 Total Compressed: %s\n", HumanSize(summary.TotalCompressedSize))
	fmt.Fprintf(p.out, "├─ 📤 Total Uncompressed: %s\n", HumanSize(summary.TotalUncompressedSize))
	fmt.Fprintf(p.out, "└─ 📈 Average Compression: %.1fx\n", summary.AverageCompressionRatio)
	return nil
}

func (p *Printer) printJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(p.out, "%s\n", data)
	return err
}

// printPreview writes line-numbered head (and optionally tail) excerpts of a
// decoded payload.
func (p *Printer) printPreview(data []byte) {
	lines := splitLines(string(data))

	head := p.preview.HeadLines
	if head > len(lines) {
		head = len(lines)
	}
	for i, line := range lines[:head] {
		fmt.Fprintf(p.out, "     %4d │ %s\n", i+1, line)
	}

	if p.preview.HasTail && head < len(lines) {
		fmt.Fprintln(p.out, "          | ...")
		start := len(lines) - p.preview.TailLines
		if start < 0 {
			start = 0
		}
		for i, line := range lines[start:] {
			fmt.Fprintf(p.out, "     %4d │ %s\n", start+i+1, line)
		}
	}
	fmt.Fprintf(p.out, "\n\n")
}

// FormatChunk renders the one-line human view of a chunk. Ratios below 1.0
// are shown inverted as an expansion factor.
func FormatChunk(chunk *gzinspect.ChunkInfo) string {
	var ratio string
	if chunk.CompressionRatio >= 1.0 {
		ratio = fmt.Sprintf("🔓 %.1fx", chunk.CompressionRatio)
	} else {
		ratio = fmt.Sprintf("🔒 %.1fx", 1.0/chunk.CompressionRatio)
	}

	return fmt.Sprintf("📦 #%-5d │ 📍 %-10d │ %s │ 📥 %-8s │ 📤 %-8s │ ℹ️  %s",
		chunk.ChunkNumber,
		chunk.Offset,
		ratio,
		HumanSize(chunk.CompressedSize),
		HumanSize(chunk.UncompressedSize),
		chunk.Header)
}

// HumanSize renders a byte count with binary-scaled units
func HumanSize(size int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}

	value := float64(size)
	unit := 0
	for value >= 1024.0 && unit < len(units)-1 {
		value /= 1024.0
		unit++
	}

	if unit == 0 {
		return fmt.Sprintf("%.0f%s", value, units[unit])
	}
	return fmt.Sprintf("%.1f%s", value, units[unit])
}

// splitLines mirrors line iteration over text payloads: a trailing newline
// does not produce an empty final line, and \r\n endings are normalized.
func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
