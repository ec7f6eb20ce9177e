package main

import (
	"fmt"
	"os"

	"github.com/mitchellh/colorstring"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/jt55401/gzinspector/gzinspect"
	"github.com/jt55401/gzinspector/gzinspect/logger"
	"github.com/jt55401/gzinspector/gzinspect/printer"
)

var (
	outputFormat string
	previewSpec  string
	encoding     string
	chunksSpec   string
	noProgress   bool
	verbose      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gzinspector <FILE>",
		Short: "Inspect concatenated gzip files chunk by chunk",
		Args:  cobra.ExactArgs(1),
		Run:   runInspect,
	}

	rootCmd.Flags().StringVarP(&outputFormat, "output-format", "o", "human", "Output format: human or json")
	rootCmd.Flags().StringVarP(&previewSpec, "preview", "p", "", "Preview content (format: HEAD:TAIL, e.g. '5:3' shows first 5 and last 3 lines)")
	rootCmd.Flags().StringVarP(&encoding, "encoding", "e", "utf-8", "Encoding for preview (default: utf-8)")
	rootCmd.Flags().StringVarP(&chunksSpec, "chunks", "c", "", "Filter chunks to display (format: HEAD:TAIL, e.g. '5:3' shows first 5 and last 3 chunks)")
	rootCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress bar (progress is enabled by default)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInspect(cmd *cobra.Command, args []string) {
	if verbose {
		logger.SetLogLevel(logger.LogLevelDebug)
	}

	if outputFormat != string(printer.FormatHuman) && outputFormat != string(printer.FormatJSON) {
		fatal(fmt.Errorf("unknown output format %q", outputFormat))
	}

	if encoding != "utf-8" {
		logger.Warn("encoding %q is not supported, falling back to utf-8", encoding)
	}

	file, err := os.Open(args[0])
	if err != nil {
		fatal(err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		fatal(err)
	}

	preview := printer.ParsePreviewSettings(previewSpec)
	filter := printer.ParseChunkFilterSettings(chunksSpec)

	p := printer.New(os.Stdout, printer.OutputFormat(outputFormat), preview, encoding)

	var tail *gzinspect.TailBuffer
	if filter != nil && filter.HasTail {
		tail = gzinspect.NewTailBuffer(filter.TailChunks)
	}

	var bar *progressbar.ProgressBar
	var progress gzinspect.ProgressCallback
	if !noProgress {
		bar = progressbar.DefaultBytes(stat.Size(), "Inspecting")
		progress = func(current, total int64) {
			bar.Set64(current)
		}
	}

	ins := gzinspect.NewInspector(file, stat.Size(), &gzinspect.InspectorOptions{
		KeepPayload: preview != nil,
	})

	handler := func(chunk *gzinspect.ChunkInfo) error {
		if !shouldPrintChunk(chunk, filter, tail) {
			return nil
		}
		return p.PrintChunk(chunk)
	}

	summary, err := ins.Run(handler, progress)
	if bar != nil {
		bar.Clear()
	}
	if err != nil {
		fatal(err)
	}

	if tail != nil {
		if summary.TotalChunks > filter.TailChunks {
			p.PrintEllipsis()
		}
		for _, chunk := range tail.Buffered() {
			if err := p.PrintChunk(chunk); err != nil {
				fatal(err)
			}
		}
	}

	if err := p.PrintSummary(summary); err != nil {
		fatal(err)
	}
}

// shouldPrintChunk applies the HEAD:TAIL chunk filter. Head chunks print
// immediately; tail candidates are routed into the buffer and replayed after
// the pass, once the stream length is known.
func shouldPrintChunk(chunk *gzinspect.ChunkInfo, filter *printer.ChunkFilterSettings, tail *gzinspect.TailBuffer) bool {
	if filter == nil {
		return true
	}
	if chunk.ChunkNumber < filter.HeadChunks {
		return true
	}
	if tail != nil {
		if tail.ShouldBuffer(chunk.ChunkNumber) {
			tail.Add(chunk)
		}
		return false
	}
	return true
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, colorstring.Color("[red]Error: [reset]")+err.Error())
	os.Exit(1)
}
