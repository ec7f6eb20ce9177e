package gzinspect

import (
	"bytes"
	"errors"
	"testing"

	"github.com/klauspost/compress/gzip"

	gzerrors "github.com/jt55401/gzinspector/gzinspect/errors"
)

// makeMember compresses content into one gzip member. mutate can adjust the
// writer's header fields before the first write.
func makeMember(t *testing.T, content []byte, level int, mutate func(*gzip.Writer)) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		t.Fatalf("NewWriterLevel() error = %v", err)
	}
	if mutate != nil {
		mutate(zw)
	}
	if _, err := zw.Write(content); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return buf.Bytes()
}

func TestReadChunk_SingleMember(t *testing.T) {
	content := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog\n"), 50)
	member := makeMember(t, content, gzip.DefaultCompression, nil)

	chunk, err := ReadChunk(bytes.NewReader(member), 0, 0)
	if err != nil {
		t.Fatalf("ReadChunk() error = %v", err)
	}

	if chunk.ChunkNumber != 0 {
		t.Errorf("ChunkNumber = %d, want 0", chunk.ChunkNumber)
	}
	if chunk.Offset != 0 {
		t.Errorf("Offset = %d, want 0", chunk.Offset)
	}
	if chunk.CompressedSize != int64(len(member)) {
		t.Errorf("CompressedSize = %d, want %d", chunk.CompressedSize, len(member))
	}
	if chunk.UncompressedSize != int64(len(content)) {
		t.Errorf("UncompressedSize = %d, want %d", chunk.UncompressedSize, len(content))
	}
	if !bytes.Equal(chunk.PreviewData, content) {
		t.Errorf("PreviewData does not match original content")
	}
	if chunk.Header.CompressionMethod != "deflate" {
		t.Errorf("CompressionMethod = %q, want deflate", chunk.Header.CompressionMethod)
	}

	wantRatio := float64(len(content)) / float64(len(member))
	if chunk.CompressionRatio != wantRatio {
		t.Errorf("CompressionRatio = %v, want %v", chunk.CompressionRatio, wantRatio)
	}
}

func TestReadChunk_ConcatenatedMembers(t *testing.T) {
	contents := [][]byte{
		bytes.Repeat([]byte("first member line\n"), 30),
		bytes.Repeat([]byte("second member line\n"), 40),
		bytes.Repeat([]byte("third member line\n"), 50),
	}

	var stream []byte
	var memberLens []int
	for i, content := range contents {
		var member []byte
		if i == 1 {
			member = makeMember(t, content, gzip.DefaultCompression, func(zw *gzip.Writer) {
				zw.Name = "data.txt"
			})
		} else {
			member = makeMember(t, content, gzip.DefaultCompression, nil)
		}
		memberLens = append(memberLens, len(member))
		stream = append(stream, member...)
	}

	r := bytes.NewReader(stream)

	var offset int64
	for i, content := range contents {
		chunk, err := ReadChunk(r, offset, i)
		if err != nil {
			t.Fatalf("ReadChunk(#%d) error = %v", i, err)
		}

		if chunk.Offset != offset {
			t.Errorf("chunk %d Offset = %d, want %d", i, chunk.Offset, offset)
		}
		if chunk.CompressedSize != int64(memberLens[i]) {
			t.Errorf("chunk %d CompressedSize = %d, want %d", i, chunk.CompressedSize, memberLens[i])
		}
		if !bytes.Equal(chunk.PreviewData, content) {
			t.Errorf("chunk %d payload does not match", i)
		}

		offset += chunk.CompressedSize
	}

	// member 1 had a filename; its optional header field must not confuse
	// the boundary scan
	r2 := bytes.NewReader(stream)
	chunk, err := ReadChunk(r2, int64(memberLens[0]), 1)
	if err != nil {
		t.Fatalf("ReadChunk(member 1) error = %v", err)
	}
	if chunk.Header.Filename != "data.txt" {
		t.Errorf("Filename = %q, want data.txt", chunk.Header.Filename)
	}

	if _, err := ReadChunk(r, offset, len(contents)); !errors.Is(err, gzerrors.ErrEndOfStream) {
		t.Errorf("ReadChunk past end = %v, want ErrEndOfStream", err)
	}
}

func TestReadChunk_SpuriousMagicInPayload(t *testing.T) {
	// Stored-mode deflate copies the payload verbatim, so a magic pair in
	// the content is guaranteed to appear inside the compressed bytes.
	content := append(bytes.Repeat([]byte{0x41}, 100), 0x1f, 0x8b, 0x08, 0x00)
	content = append(content, bytes.Repeat([]byte{0x42}, 100)...)

	m1 := makeMember(t, content, gzip.NoCompression, nil)
	if !bytes.Contains(m1, []byte{0x1f, 0x8b, 0x08, 0x00}) {
		t.Fatalf("test setup: stored member does not contain the spurious pair")
	}

	m2 := makeMember(t, []byte("a real second member"), gzip.DefaultCompression, nil)
	stream := append(append([]byte(nil), m1...), m2...)

	r := bytes.NewReader(stream)

	chunk, err := ReadChunk(r, 0, 0)
	if err != nil {
		t.Fatalf("ReadChunk() error = %v", err)
	}
	if chunk.CompressedSize != int64(len(m1)) {
		t.Errorf("CompressedSize = %d, want %d (spurious magic split the member)", chunk.CompressedSize, len(m1))
	}
	if !bytes.Equal(chunk.PreviewData, content) {
		t.Errorf("payload does not match original content")
	}

	chunk2, err := ReadChunk(r, chunk.CompressedSize, 1)
	if err != nil {
		t.Fatalf("ReadChunk(#1) error = %v", err)
	}
	if string(chunk2.PreviewData) != "a real second member" {
		t.Errorf("second payload = %q", chunk2.PreviewData)
	}
}

func TestReadChunk_RoundTripIsolation(t *testing.T) {
	c1 := bytes.Repeat([]byte("abcdefg\n"), 64)
	c2 := bytes.Repeat([]byte("hijklmn\n"), 64)
	m1 := makeMember(t, c1, gzip.DefaultCompression, nil)
	m2 := makeMember(t, c2, gzip.DefaultCompression, nil)
	stream := append(append([]byte(nil), m1...), m2...)

	chunk, err := ReadChunk(bytes.NewReader(stream), 0, 0)
	if err != nil {
		t.Fatalf("ReadChunk() error = %v", err)
	}

	span := stream[chunk.Offset : chunk.Offset+chunk.CompressedSize]
	isolated, err := ReadChunk(bytes.NewReader(span), 0, 0)
	if err != nil {
		t.Fatalf("ReadChunk(isolated span) error = %v", err)
	}

	if isolated.UncompressedSize != chunk.UncompressedSize {
		t.Errorf("isolated UncompressedSize = %d, want %d", isolated.UncompressedSize, chunk.UncompressedSize)
	}
	if !bytes.Equal(isolated.PreviewData, chunk.PreviewData) {
		t.Errorf("isolated payload differs from in-stream payload")
	}
}

func TestReadChunk_TruncatedFinalMember(t *testing.T) {
	c1 := bytes.Repeat([]byte("intact member\n"), 20)
	m1 := makeMember(t, c1, gzip.DefaultCompression, nil)
	m2 := makeMember(t, bytes.Repeat([]byte("cut off member\n"), 20), gzip.DefaultCompression, nil)

	stream := append(append([]byte(nil), m1...), m2[:len(m2)-4]...)
	r := bytes.NewReader(stream)

	chunk, err := ReadChunk(r, 0, 0)
	if err != nil {
		t.Fatalf("ReadChunk(#0) error = %v", err)
	}
	if chunk.CompressedSize != int64(len(m1)) {
		t.Errorf("CompressedSize = %d, want %d", chunk.CompressedSize, len(m1))
	}

	_, err = ReadChunk(r, chunk.CompressedSize, 1)
	if !errors.Is(err, gzerrors.ErrDecompressFailed) {
		t.Fatalf("ReadChunk(#1) error = %v, want ErrDecompressFailed", err)
	}
}

func TestReadChunk_TrailingGarbage(t *testing.T) {
	content := bytes.Repeat([]byte("payload\n"), 32)
	member := makeMember(t, content, gzip.DefaultCompression, nil)

	// garbage free of magic pairs is absorbed into the final member's span
	garbage := bytes.Repeat([]byte{0xaa}, 100)
	stream := append(append([]byte(nil), member...), garbage...)

	chunk, err := ReadChunk(bytes.NewReader(stream), 0, 0)
	if err != nil {
		t.Fatalf("ReadChunk() error = %v", err)
	}
	if chunk.CompressedSize != int64(len(stream)) {
		t.Errorf("CompressedSize = %d, want %d", chunk.CompressedSize, len(stream))
	}
	if chunk.UncompressedSize != int64(len(content)) {
		t.Errorf("UncompressedSize = %d, want %d", chunk.UncompressedSize, len(content))
	}
}

func TestReadChunk_InvalidMagic(t *testing.T) {
	data := []byte("PK\x03\x04 definitely not gzip")

	_, err := ReadChunk(bytes.NewReader(data), 0, 0)
	if !errors.Is(err, gzerrors.ErrInvalidMagic) {
		t.Fatalf("error = %v, want ErrInvalidMagic", err)
	}
}

func TestReadChunk_EndOfStream(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty input", nil},
		{"short input", []byte{0x1f, 0x8b, 0x08}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadChunk(bytes.NewReader(tt.data), 0, 0)
			if !errors.Is(err, gzerrors.ErrEndOfStream) {
				t.Errorf("error = %v, want ErrEndOfStream", err)
			}
		})
	}
}

func TestReadChunk_ChunkTooLarge(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping 20MiB ceiling test in short mode")
	}

	// Incompressible-looking content with every 0x1f removed, so the scan
	// never finds a candidate pair and accumulation runs into the ceiling
	// before the member's trailer.
	content := make([]byte, maxChunkSize+1024*1024)
	for i := range content {
		b := byte(i * 131)
		if b == 0x1f {
			b = 0x20
		}
		content[i] = b
	}
	member := makeMember(t, content, gzip.NoCompression, nil)

	_, err := ReadChunk(bytes.NewReader(member), 0, 0)
	if !errors.Is(err, gzerrors.ErrChunkTooLarge) {
		t.Fatalf("error = %v, want ErrChunkTooLarge", err)
	}
}
