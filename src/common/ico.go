package common

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// ICO layout: https://en.wikipedia.org/wiki/ICO_(file_format)
// Entries are stored as PNG payloads, which every browser and Windows Vista+ accept.

const (
	icoHeaderSize = 6
	icoEntrySize  = 16
	icoTypeIcon   = 1
	icoMaxSize    = 256
)

type icoDir struct {
	Reserved uint16
	Type     uint16
	Count    uint16
}

type icoDirEntry struct {
	Width       uint8 // 0 means 256
	Height      uint8
	ColorCount  uint8
	Reserved    uint8
	Planes      uint16
	BitCount    uint16
	BytesInRes  uint32
	ImageOffset uint32
}

// ICOEntry describes one image stored in an ICO file
type ICOEntry struct {
	Width  int
	Height int
	Size   int // payload length in bytes
	Offset int
}

// EncodeICO writes images as a single multi-resolution ICO container.
// Every image must be square and at most 256 pixels wide.
func EncodeICO(w io.Writer, images []image.Image) error {
	if len(images) == 0 {
		return fmt.Errorf("no images to encode")
	}

	payloads := make([][]byte, 0, len(images))
	entries := make([]icoDirEntry, 0, len(images))
	offset := icoHeaderSize + icoEntrySize*len(images)

	for _, img := range images {
		b := img.Bounds()
		if b.Dx() != b.Dy() {
			return fmt.Errorf("icon image must be square, got %dx%d", b.Dx(), b.Dy())
		}
		if b.Dx() <= 0 || b.Dx() > icoMaxSize {
			return fmt.Errorf("icon size %d out of range 1..%d", b.Dx(), icoMaxSize)
		}

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return fmt.Errorf("failed to encode %dx%d entry: %w", b.Dx(), b.Dy(), err)
		}

		entries = append(entries, icoDirEntry{
			Width:       uint8(b.Dx() % icoMaxSize),
			Height:      uint8(b.Dy() % icoMaxSize),
			Planes:      1,
			BitCount:    32,
			BytesInRes:  uint32(buf.Len()),
			ImageOffset: uint32(offset),
		})
		payloads = append(payloads, buf.Bytes())
		offset += buf.Len()
	}

	header := icoDir{Type: icoTypeIcon, Count: uint16(len(images))}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("failed to write ico header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, entries); err != nil {
		return fmt.Errorf("failed to write ico directory: %w", err)
	}
	for _, p := range payloads {
		if _, err := w.Write(p); err != nil {
			return fmt.Errorf("failed to write ico payload: %w", err)
		}
	}

	return nil
}

// DecodeICOEntries reads the ICO directory without decoding the payloads
func DecodeICOEntries(r io.Reader) ([]ICOEntry, error) {
	var header icoDir
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read ico header: %w", err)
	}
	if header.Reserved != 0 || header.Type != icoTypeIcon {
		return nil, fmt.Errorf("not an ico file (reserved=%d type=%d)", header.Reserved, header.Type)
	}

	raw := make([]icoDirEntry, header.Count)
	if err := binary.Read(r, binary.LittleEndian, raw); err != nil {
		return nil, fmt.Errorf("failed to read ico directory: %w", err)
	}

	entries := make([]ICOEntry, 0, len(raw))
	for _, e := range raw {
		entries = append(entries, ICOEntry{
			Width:  icoDimension(e.Width),
			Height: icoDimension(e.Height),
			Size:   int(e.BytesInRes),
			Offset: int(e.ImageOffset),
		})
	}
	return entries, nil
}

func icoDimension(b uint8) int {
	if b == 0 {
		return icoMaxSize
	}
	return int(b)
}
