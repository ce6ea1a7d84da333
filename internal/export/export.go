// Package export converts a materialized raster.Raster into the concrete
// image encodings a host application needs — PNG, TIFF, and PDF — the
// "host raster consumer" conversion spec.md §6 deliberately leaves
// outside the core.
package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/image/tiff"

	"github.com/finch-labs/gosane/internal/raster"
)

// ToImage converts r into a stdlib image.Image, picking the concrete
// type from the raster's layout, color model, and depth.
func ToImage(r *raster.Raster) (image.Image, error) {
	switch r.Layout {
	case raster.LayoutPacked:
		return toPacked(r), nil
	case raster.LayoutInterleaved:
		return toInterleaved(r)
	case raster.LayoutBanded:
		return toBanded(r)
	default:
		return nil, fmt.Errorf("export: unknown raster layout %v", r.Layout)
	}
}

func toPacked(r *raster.Raster) *image.Paletted {
	bounds := image.Rect(0, 0, int(r.Width), int(r.Height))
	dst := image.NewPaletted(bounds, color.Palette{color.White, color.Black})
	data := r.Planes[0]
	for y := 0; y < int(r.Height); y++ {
		rowStart := y * int(r.Stride)
		for x := 0; x < int(r.Width); x++ {
			byteIdx := rowStart + x/8
			if byteIdx >= len(data) {
				continue
			}
			bit := 7 - uint(x%8)
			if data[byteIdx]&(1<<bit) != 0 {
				dst.SetColorIndex(x, y, 1)
			}
		}
	}
	return dst
}

func toInterleaved(r *raster.Raster) (image.Image, error) {
	w, h := int(r.Width), int(r.Height)
	src := r.Planes[0]

	switch {
	case r.SamplesPerPixel == 1 && r.Depth == 8:
		dst := image.NewGray(image.Rect(0, 0, w, h))
		copyRows(dst.Pix, dst.Stride, src, int(r.Stride), h)
		return dst, nil

	case r.SamplesPerPixel == 1 && r.Depth == 16:
		dst := image.NewGray16(image.Rect(0, 0, w, h))
		copyRows(dst.Pix, dst.Stride, src, int(r.Stride), h)
		return dst, nil

	case r.SamplesPerPixel == 3 && r.Depth == 8:
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			srcRow := src[y*int(r.Stride):]
			for x := 0; x < w; x++ {
				si := x * 3
				if si+2 >= len(srcRow) {
					break
				}
				di := y*dst.Stride + x*4
				dst.Pix[di+0] = srcRow[si+0]
				dst.Pix[di+1] = srcRow[si+1]
				dst.Pix[di+2] = srcRow[si+2]
				dst.Pix[di+3] = 0xFF
			}
		}
		return dst, nil

	case r.SamplesPerPixel == 3 && r.Depth == 16:
		dst := image.NewNRGBA64(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			srcRow := src[y*int(r.Stride):]
			for x := 0; x < w; x++ {
				si := x * 6
				if si+5 >= len(srcRow) {
					break
				}
				di := y*dst.Stride + x*8
				copy(dst.Pix[di:di+6], srcRow[si:si+6])
				dst.Pix[di+6] = 0xFF
				dst.Pix[di+7] = 0xFF
			}
		}
		return dst, nil

	default:
		return nil, fmt.Errorf("export: unsupported interleaved raster depth=%d samplesPerPixel=%d", r.Depth, r.SamplesPerPixel)
	}
}

func toBanded(r *raster.Raster) (image.Image, error) {
	if len(r.Planes) != 3 {
		return nil, fmt.Errorf("export: banded raster needs 3 planes, got %d", len(r.Planes))
	}
	w, h := int(r.Width), int(r.Height)
	stride := int(r.Stride)

	switch r.Depth {
	case 8:
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				di := y*dst.Stride + x*4
				dst.Pix[di+0] = sampleAt(r.Planes[0], stride, y, x)
				dst.Pix[di+1] = sampleAt(r.Planes[1], stride, y, x)
				dst.Pix[di+2] = sampleAt(r.Planes[2], stride, y, x)
				dst.Pix[di+3] = 0xFF
			}
		}
		return dst, nil
	case 16:
		dst := image.NewNRGBA64(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				di := y*dst.Stride + x*8
				copy(dst.Pix[di+0:di+2], sample16At(r.Planes[0], stride, y, x))
				copy(dst.Pix[di+2:di+4], sample16At(r.Planes[1], stride, y, x))
				copy(dst.Pix[di+4:di+6], sample16At(r.Planes[2], stride, y, x))
				dst.Pix[di+6] = 0xFF
				dst.Pix[di+7] = 0xFF
			}
		}
		return dst, nil
	default:
		return nil, fmt.Errorf("export: unsupported banded raster depth %d", r.Depth)
	}
}

func sampleAt(plane []byte, stride, y, x int) byte {
	idx := y*stride + x
	if idx >= len(plane) {
		return 0
	}
	return plane[idx]
}

func sample16At(plane []byte, stride, y, x int) []byte {
	idx := y*stride + x*2
	if idx+2 > len(plane) {
		return []byte{0, 0}
	}
	return plane[idx : idx+2]
}

func copyRows(dstPix []byte, dstStride int, src []byte, srcStride, height int) {
	for y := 0; y < height; y++ {
		so, do := y*srcStride, y*dstStride
		n := dstStride
		if so+n > len(src) {
			n = len(src) - so
		}
		if n <= 0 {
			continue
		}
		copy(dstPix[do:do+n], src[so:so+n])
	}
}

// EncodePNG encodes r as a PNG image.
func EncodePNG(r *raster.Raster) ([]byte, error) {
	img, err := ToImage(r)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("export: encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeTIFF encodes r as an uncompressed TIFF image.
func EncodeTIFF(r *raster.Raster) ([]byte, error) {
	img, err := ToImage(r)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, nil); err != nil {
		return nil, fmt.Errorf("export: encode TIFF: %w", err)
	}
	return buf.Bytes(), nil
}

// PDFWriter accumulates pages into one PDF document, mirroring the
// teacher's GeneratePDF/WritePDF split between an in-memory entry point
// and a file-writing one.
type PDFWriter struct {
	pdf *fpdf.Fpdf
}

// NewPDFWriter creates an empty portrait, millimeter-unit PDF document.
func NewPDFWriter() *PDFWriter {
	pdf := fpdf.New("P", "mm", "", "")
	pdf.SetAutoPageBreak(false, 0)
	return &PDFWriter{pdf: pdf}
}

// AddPage appends r as one page, sized from its pixel dimensions at dpi.
func (w *PDFWriter) AddPage(r *raster.Raster, dpi int) error {
	if dpi <= 0 {
		dpi = 300
	}
	encoded, err := EncodePNG(r)
	if err != nil {
		return err
	}
	widthMM := float64(r.Width) / float64(dpi) * 25.4
	heightMM := float64(r.Height) / float64(dpi) * 25.4

	w.pdf.AddPageFormat("P", fpdf.SizeType{Wd: widthMM, Ht: heightMM})
	name := fmt.Sprintf("page%d", w.pdf.PageNo())
	w.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(encoded))
	w.pdf.ImageOptions(name, 0, 0, widthMM, heightMM, false, fpdf.ImageOptions{}, 0, "")
	return nil
}

// Bytes returns the accumulated PDF document.
func (w *PDFWriter) Bytes() ([]byte, error) {
	var out bytes.Buffer
	if err := w.pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("export: generate PDF: %w", err)
	}
	return out.Bytes(), nil
}

// WriteFile writes the accumulated PDF document to path.
func (w *PDFWriter) WriteFile(path string) error {
	data, err := w.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
