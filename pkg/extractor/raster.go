package extractor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/gardar/ocrchestra/pkg/hocr"
	"github.com/gardar/ocrchestra/pkg/pdfocr"
)

// rasterizeAndRecognize renders every page of a PDF at the configured DPI,
// recognizes each page, and assembles the searchable-PDF artifact. A page
// that fails to render or recognize is skipped (its text omitted, no page
// inserted into the artifact); the run still succeeds with partial results.
// Only failure to open the document at all is fatal.
func (e *Engine) rasterizeAndRecognize(ctx context.Context, path string) (string, *Artifact, error) {
	doc, err := openRasterizer(path)
	if err != nil {
		return "", nil, &ProcessingError{Message: fmt.Sprintf("cannot rasterize document: %v", err)}
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	var transcript bytes.Buffer
	var pages []hocr.Page
	var images [][]byte

	for i := 0; i < pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}

		img, err := doc.ImageDPI(i, e.cfg.DPI)
		if err != nil {
			e.log.Warn().Err(err).Int("page", i+1).Str("path", path).Msg("page rasterization failed, skipping page")
			continue
		}

		text, page, encoded, err := e.recognizePage(ctx, img, i+1)
		if err != nil {
			e.log.Warn().Err(err).Int("page", i+1).Str("path", path).Msg("page recognition failed, skipping page")
			continue
		}

		fmt.Fprintf(&transcript, "\n--- Page %d ---\n%s", i+1, text)
		pages = append(pages, page)
		images = append(images, encoded)
	}

	artifact := e.assembleSearchablePDF(pages, images)
	return transcript.String(), artifact, nil
}

// extractImage treats a standalone image as a one-page document. Unlike the
// multi-page PDF path there is no smaller unit to skip, so a recognition
// failure here is fatal for the run.
func (e *Engine) extractImage(ctx context.Context, path string) Result {
	src, err := imaging.Open(path)
	if err != nil {
		return Result{Err: fmt.Sprintf("cannot open image: %v", err)}
	}

	text, page, encoded, err := e.recognizePage(ctx, src, 1)
	if err != nil {
		return Result{Err: fmt.Sprintf("image recognition failed: %v", err)}
	}

	artifact := e.assembleSearchablePDF([]hocr.Page{page}, [][]byte{encoded})
	return Result{Text: text, Artifact: artifact}
}

// recognizePage preprocesses one raster page and runs recognition on it.
// Returns the transcript, the positioned hOCR page, and the PNG the page was
// recognized from (reused as the artifact's image layer).
func (e *Engine) recognizePage(ctx context.Context, src image.Image, pageNumber int) (string, hocr.Page, []byte, error) {
	prepared := PreprocessImage(src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, prepared); err != nil {
		return "", hocr.Page{}, nil, fmt.Errorf("encode page %d: %w", pageNumber, err)
	}
	encoded := buf.Bytes()

	rec, err := e.rec.Recognize(ctx, encoded, pageNumber)
	if err != nil {
		return "", hocr.Page{}, nil, err
	}

	page := rec.Page
	page.PageNumber = pageNumber
	if page.ID == "" {
		page.ID = fmt.Sprintf("page_%d", pageNumber)
	}
	if page.BBox.X2 <= 0 || page.BBox.Y2 <= 0 {
		bounds := prepared.Bounds()
		page.BBox = hocr.NewBoundingBox(0, 0, float64(bounds.Dx()), float64(bounds.Dy()))
	}
	return rec.Text, page, encoded, nil
}

// assembleSearchablePDF builds the searchable rendition from the surviving
// pages: each page is its recognized image with an invisible text layer at
// the recognized word positions. Assembly failure only costs the artifact,
// never the transcript, so this returns nil instead of an error.
func (e *Engine) assembleSearchablePDF(pages []hocr.Page, images [][]byte) *Artifact {
	if len(pages) == 0 || len(pages) != len(images) {
		return nil
	}

	doc := &hocr.HOCR{
		Title: "Searchable rendition",
		Metadata: map[string]string{
			"ocr-system":          "lexvault-pipeline",
			"ocr-number-of-pages": fmt.Sprintf("%d", len(pages)),
		},
		Pages: pages,
	}

	out, err := pdfocr.AssembleWithOCR(doc, images, pdfocr.OCRConfig{
		StartPage: 1,
		Font:      pdfocr.DefaultFont,
	})
	if err != nil {
		e.log.Warn().Err(err).Msg("searchable PDF assembly failed, keeping transcript only")
		return nil
	}

	artifact, err := writeArtifact(e.cfg.TempDir, out)
	if err != nil {
		e.log.Warn().Err(err).Msg("could not persist searchable PDF artifact")
		return nil
	}
	return artifact
}

// PreprocessImage normalizes a decoded page before recognition: grayscale
// conversion followed by a histogram stretch, which stabilizes recognition
// quality across scan sources with uneven exposure.
func PreprocessImage(src image.Image) image.Image {
	gray := imaging.Grayscale(src)
	lo, hi := grayRange(gray)
	if hi <= lo {
		return gray
	}
	return stretchContrast(gray, lo, hi)
}

func grayRange(img *image.NRGBA) (uint8, uint8) {
	lo, hi := uint8(255), uint8(0)
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		row := img.Pix[(y-img.Rect.Min.Y)*img.Stride:]
		for x := 0; x < img.Rect.Dx(); x++ {
			// Grayscale output stores the luminance in all three channels.
			v := row[x*4]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return lo, hi
}

func stretchContrast(img *image.NRGBA, lo, hi uint8) *image.NRGBA {
	out := imaging.Clone(img)
	scale := 255.0 / float64(hi-lo)
	var table [256]uint8
	for i := range table {
		switch {
		case uint8(i) <= lo:
			table[i] = 0
		case uint8(i) >= hi:
			table[i] = 255
		default:
			table[i] = uint8(float64(i-int(lo))*scale + 0.5)
		}
	}
	for y := out.Rect.Min.Y; y < out.Rect.Max.Y; y++ {
		row := out.Pix[(y-out.Rect.Min.Y)*out.Stride:]
		for x := 0; x < out.Rect.Dx(); x++ {
			v := table[row[x*4]]
			row[x*4] = v
			row[x*4+1] = v
			row[x*4+2] = v
		}
	}
	return out
}
