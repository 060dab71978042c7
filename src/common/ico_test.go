package common

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
)

func TestEncodeICO(t *testing.T) {
	sizes := []int{16, 32, 256}
	images := make([]image.Image, 0, len(sizes))
	for _, s := range sizes {
		images = append(images, imaging.New(s, s, green))
	}

	var buf bytes.Buffer
	if err := EncodeICO(&buf, images); err != nil {
		t.Fatalf("EncodeICO failed: %v", err)
	}
	data := buf.Bytes()

	// Header: reserved 0, type 1, count 3
	if data[0] != 0 || data[1] != 0 || data[2] != 1 || data[3] != 0 || data[4] != 3 || data[5] != 0 {
		t.Errorf("Unexpected header bytes: %v", data[:6])
	}

	entries, err := DecodeICOEntries(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeICOEntries failed: %v", err)
	}
	if len(entries) != len(sizes) {
		t.Fatalf("Expected %d entries, got %d", len(sizes), len(entries))
	}

	offset := icoHeaderSize + icoEntrySize*len(sizes)
	for i, e := range entries {
		if e.Width != sizes[i] || e.Height != sizes[i] {
			t.Errorf("Entry %d: expected %dx%d, got %dx%d", i, sizes[i], sizes[i], e.Width, e.Height)
		}
		if e.Offset != offset {
			t.Errorf("Entry %d: expected offset %d, got %d", i, offset, e.Offset)
		}
		offset += e.Size

		img, err := png.Decode(bytes.NewReader(data[e.Offset : e.Offset+e.Size]))
		if err != nil {
			t.Fatalf("Entry %d: payload is not a PNG: %v", i, err)
		}
		if img.Bounds().Dx() != sizes[i] {
			t.Errorf("Entry %d: payload width %d", i, img.Bounds().Dx())
		}

		// Payloads use the same PNG encoder as the standalone icons
		var want bytes.Buffer
		if err := imaging.Encode(&want, images[i], imaging.PNG); err != nil {
			t.Fatalf("Failed to encode reference png: %v", err)
		}
		if !bytes.Equal(data[e.Offset:e.Offset+e.Size], want.Bytes()) {
			t.Errorf("Entry %d: payload differs from icon PNG encoding", i)
		}
	}
	if offset != len(data) {
		t.Errorf("Expected file length %d, got %d", offset, len(data))
	}

	// 256 is stored as 0 in the directory
	raw := data[icoHeaderSize+icoEntrySize*2:]
	if raw[0] != 0 || raw[1] != 0 {
		t.Errorf("Expected 256px entry stored as 0x0, got %dx%d", raw[0], raw[1])
	}
}

func TestEncodeICOErrors(t *testing.T) {
	tests := []struct {
		name   string
		images []image.Image
	}{
		{"empty", nil},
		{"not square", []image.Image{imaging.New(16, 32, green)}},
		{"too large", []image.Image{imaging.New(512, 512, green)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := EncodeICO(&buf, tt.images); err == nil {
				t.Error("Expected error")
			}
			if buf.Len() != 0 {
				t.Errorf("Expected nothing written on error, got %d bytes", buf.Len())
			}
		})
	}
}

func TestDecodeICOEntriesRejectsOtherFiles(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, imaging.New(8, 8, red)); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}

	if _, err := DecodeICOEntries(bytes.NewReader(buf.Bytes())); err == nil {
		t.Error("Expected error for PNG input")
	}

	if _, err := DecodeICOEntries(bytes.NewReader([]byte{0, 0, 1})); err == nil {
		t.Error("Expected error for truncated header")
	}

	// Header claims two entries but the directory is missing
	if _, err := DecodeICOEntries(bytes.NewReader([]byte{0, 0, 1, 0, 2, 0})); err == nil {
		t.Error("Expected error for truncated directory")
	}
}
