package gzinspect

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"
	"unicode/utf8"
)

// Standard gzip member header size (RFC 1952)
const headerSize = 10

// FLG bits at header offset 3
const (
	flagText    = 1 << 0
	flagHCRC    = 1 << 1
	flagExtra   = 1 << 2
	flagName    = 1 << 3
	flagComment = 1 << 4
)

var osNames = map[byte]string{
	0:  "FAT",
	1:  "Amiga",
	2:  "VMS",
	3:  "Unix",
	4:  "VM/CMS",
	5:  "Atari TOS",
	6:  "HPFS",
	7:  "Macintosh",
	8:  "Z-System",
	9:  "CP/M",
	10: "TOPS-20",
	11: "NTFS",
	12: "QDOS",
	13: "Acorn RISCOS",
}

// ParseHeader decodes an already magic-validated 10-byte member header and
// consumes any optional fields (extra block, filename, comment) from r,
// leaving r positioned at the first byte of compressed data.
//
// Bad timestamps, non-UTF-8 name/comment bytes and overlong extra subfields
// degrade to placeholder or empty values instead of failing the call; only
// an I/O error while consuming the extra block is reported.
func ParseHeader(header []byte, r io.Reader) (*HeaderInfo, error) {
	flg := header[3]

	var flags []string
	if flg&flagText != 0 {
		flags = append(flags, "TEXT")
	}
	if flg&flagHCRC != 0 {
		flags = append(flags, "HCRC")
	}
	if flg&flagExtra != 0 {
		flags = append(flags, "EXTRA")
	}
	if flg&flagName != 0 {
		flags = append(flags, "NAME")
	}
	if flg&flagComment != 0 {
		flags = append(flags, "COMMENT")
	}

	info := &HeaderInfo{
		CompressionMethod: compressionMethodName(header[2]),
		Flags:             flags,
		ModTime:           modTimeString(binary.LittleEndian.Uint32(header[4:8])),
		ExtraFlags:        extraFlagsName(header[8]),
		OS:                osName(header[9]),
	}

	if flg&flagExtra != 0 {
		var lenBuf [2]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return nil, err
		}
		extra := make([]byte, binary.LittleEndian.Uint16(lenBuf[:]))
		if _, err := io.ReadFull(r, extra); err != nil {
			return nil, err
		}
		info.ExtraFields = parseExtraFields(extra)
	}

	if flg&flagName != 0 {
		if name, ok := readTerminatedString(r); ok {
			info.Filename = name
		}
	}

	if flg&flagComment != 0 {
		if comment, ok := readTerminatedString(r); ok {
			info.Comment = comment
		}
	}

	return info, nil
}

// parseExtraFields splits an FEXTRA block into subfields. A subfield whose
// declared length overruns the block keeps an empty Data slice; parsing
// stops once fewer than four bytes remain for a subfield header.
func parseExtraFields(extra []byte) []ExtraField {
	var fields []ExtraField
	for pos := 0; pos+4 <= len(extra); {
		id := uint16(extra[pos])<<8 | uint16(extra[pos+1])
		length := int(binary.LittleEndian.Uint16(extra[pos+2 : pos+4]))

		var data []byte
		if pos+4+length <= len(extra) {
			data = append([]byte(nil), extra[pos+4:pos+4+length]...)
		}

		fields = append(fields, ExtraField{ID: id, Data: data})
		pos += 4 + length
	}
	return fields
}

// readTerminatedString reads bytes up to and including a zero terminator
// (or source exhaustion) and reports the run as a string when it is valid
// UTF-8. The terminator is consumed either way.
func readTerminatedString(r io.Reader) (string, bool) {
	var out []byte
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil || b[0] == 0 {
			break
		}
		out = append(out, b[0])
	}
	if !utf8.Valid(out) {
		return "", false
	}
	return string(out), true
}

func compressionMethodName(cm byte) string {
	if cm == 8 {
		return "deflate"
	}
	return fmt.Sprintf("unknown(%d)", cm)
}

func modTimeString(mtime uint32) string {
	if mtime == 0 {
		return "Not set"
	}
	ts := time.Unix(int64(mtime), 0).UTC()
	if ts.Year() < 1970 || ts.Year() > 9999 {
		return "Invalid"
	}
	return ts.Format("2006-01-02 15:04:05 MST")
}

func extraFlagsName(xfl byte) string {
	switch xfl {
	case 2:
		return "max compression"
	case 4:
		return "fastest"
	default:
		return fmt.Sprintf("unknown(0x%02x)", xfl)
	}
}

func osName(code byte) string {
	if name, ok := osNames[code]; ok {
		return name
	}
	if code == 255 {
		return "unknown"
	}
	return fmt.Sprintf("unknown(%d)", code)
}
