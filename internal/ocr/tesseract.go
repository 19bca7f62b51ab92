package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"slices"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// TextRegion represents a word with its location and OCR confidence.
type TextRegion struct {
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	Bounds Bounds `json:"bounds"`
}

// Result contains the text extracted from an image.
type Result struct {
	// FullText is the normalized recognized text.
	FullText string `json:"full_text"`

	// Regions contains individual words with their bounding boxes. It may be
	// empty when word boxes are unavailable even though FullText is set.
	Regions []TextRegion `json:"regions"`
}

// Tesseract is an Engine backed by the Tesseract library through gosseract.
//
// A new client is created for every call, so a single Tesseract value may be
// shared by concurrent workers.
type Tesseract struct {
	Language       string
	PageSegMode    int
	TessdataPrefix string
}

// NewTesseract returns a Tesseract engine. An empty language means "eng".
func NewTesseract(language string, pageSegMode int, tessdataPrefix string) *Tesseract {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{Language: language, PageSegMode: pageSegMode, TessdataPrefix: tessdataPrefix}
}

// Recognize returns the normalized text found in img.
func (t *Tesseract) Recognize(img image.Image) (string, error) {
	res, err := t.extract(img, false)
	if err != nil {
		return "", err
	}
	return res.FullText, nil
}

// ExtractRegion performs OCR on the rectangle (x1,y1)-(x2,y2) of img. Word
// boxes in the result are relative to img, not to the crop.
func (t *Tesseract) ExtractRegion(img image.Image, x1, y1, x2, y2 int) (*Result, error) {
	r := image.Rect(x1, y1, x2, y2).Intersect(img.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("region (%d,%d)-(%d,%d) is outside the image", x1, y1, x2, y2)
	}

	result, err := t.extract(imaging.Crop(img, r), true)
	if err != nil {
		return nil, err
	}

	for i := range result.Regions {
		result.Regions[i].Bounds.X1 += r.Min.X
		result.Regions[i].Bounds.Y1 += r.Min.Y
		result.Regions[i].Bounds.X2 += r.Min.X
		result.Regions[i].Bounds.Y2 += r.Min.Y
	}
	return result, nil
}

func (t *Tesseract) extract(img image.Image, words bool) (*Result, error) {
	if img.Bounds().Empty() {
		return &Result{Regions: []TextRegion{}}, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	client, err := t.client()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	result := &Result{FullText: Normalize(text), Regions: []TextRegion{}}
	if !words {
		return result, nil
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		// Return just text if boxes fail
		return result, nil
	}
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		result.Regions = append(result.Regions, TextRegion{
			Text:       box.Word,
			Confidence: box.Confidence / 100.0,
			Bounds: Bounds{
				X1: box.Box.Min.X,
				Y1: box.Box.Min.Y,
				X2: box.Box.Max.X,
				Y2: box.Box.Max.Y,
			},
		})
	}
	return result, nil
}

func (t *Tesseract) client() (*gosseract.Client, error) {
	client := gosseract.NewClient()
	if t.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(t.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(t.PageSegMode)); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	return client, nil
}

// Info describes the OCR subsystem.
type Info struct {
	Available bool     `json:"available"`
	Version   string   `json:"version,omitempty"`
	Language  string   `json:"language"`
	Languages []string `json:"languages,omitempty"`
	Error     string   `json:"error,omitempty"`
	Backend   string   `json:"backend"`
}

// Info reports whether Tesseract is installed with data for t.Language.
func (t *Tesseract) Info() Info {
	info := Info{
		Version:  gosseract.Version(),
		Language: t.Language,
		Backend:  "gosseract",
	}

	langs, err := gosseract.GetAvailableLanguages()
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.Languages = langs
	if !slices.Contains(langs, t.Language) && t.TessdataPrefix == "" {
		info.Error = fmt.Sprintf("no training data for language %q", t.Language)
		return info
	}
	info.Available = true
	return info
}
