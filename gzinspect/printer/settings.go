package printer

import (
	"strconv"
	"strings"
)

const defaultHeadCount = 5

// PreviewSettings selects which decoded payload lines to display
type PreviewSettings struct {
	HeadLines int
	TailLines int
	HasTail   bool
}

// ChunkFilterSettings selects which chunks to surface
type ChunkFilterSettings struct {
	HeadChunks int
	TailChunks int
	HasTail    bool
}

// ParsePreviewSettings parses a HEAD:TAIL spec such as "5:3". An empty spec
// means no preview; an unparseable head falls back to 5.
func ParsePreviewSettings(arg string) *PreviewSettings {
	if arg == "" {
		return nil
	}
	head, tail, hasTail := parseHeadTail(arg)
	return &PreviewSettings{HeadLines: head, TailLines: tail, HasTail: hasTail}
}

// ParseChunkFilterSettings parses a HEAD:TAIL spec for chunk filtering with
// the same rules as ParsePreviewSettings.
func ParseChunkFilterSettings(arg string) *ChunkFilterSettings {
	if arg == "" {
		return nil
	}
	head, tail, hasTail := parseHeadTail(arg)
	return &ChunkFilterSettings{HeadChunks: head, TailChunks: tail, HasTail: hasTail}
}

func parseHeadTail(arg string) (head, tail int, hasTail bool) {
	parts := strings.Split(arg, ":")

	head, err := strconv.Atoi(parts[0])
	if err != nil {
		head = defaultHeadCount
	}

	if len(parts) > 1 {
		if t, err := strconv.Atoi(parts[1]); err == nil {
			tail = t
			hasTail = true
		}
	}
	return head, tail, hasTail
}
