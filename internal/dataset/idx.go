package dataset

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// IDX magic numbers: uint8 tensors of rank 3 (images) and rank 1
// (labels).
const (
	imageMagic = 2051
	labelMagic = 2049
)

// readImages reads an IDX image file: magic, count, rows, cols, then
// count*rows*cols unsigned bytes.
func readImages(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var header struct {
		Magic uint32
		Count uint32
		Rows  uint32
		Cols  uint32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("read image header: %w", err)
	}
	if header.Magic != imageMagic {
		return nil, fmt.Errorf("bad image magic: got %d, want %d", header.Magic, imageMagic)
	}
	if header.Rows != ImageRows || header.Cols != ImageCols {
		return nil, fmt.Errorf("unexpected image size %dx%d, want %dx%d",
			header.Rows, header.Cols, ImageRows, ImageCols)
	}

	count := int(header.Count)
	pixels := make([]byte, count*ImageSize)
	if _, err := io.ReadFull(r, pixels); err != nil {
		return nil, fmt.Errorf("read %d images: %w", count, err)
	}

	images := make([][]byte, count)
	for i := range images {
		images[i] = pixels[i*ImageSize : (i+1)*ImageSize]
	}
	return images, nil
}

// readLabels reads an IDX label file: magic, count, then count
// unsigned bytes.
func readLabels(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var header struct {
		Magic uint32
		Count uint32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("read label header: %w", err)
	}
	if header.Magic != labelMagic {
		return nil, fmt.Errorf("bad label magic: got %d, want %d", header.Magic, labelMagic)
	}

	labels := make([]byte, header.Count)
	if _, err := io.ReadFull(r, labels); err != nil {
		return nil, fmt.Errorf("read %d labels: %w", header.Count, err)
	}
	return labels, nil
}
