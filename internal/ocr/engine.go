package ocr

import (
	"image"
	"strings"
)

// Engine recognizes the text in an image. Implementations return an empty
// string when nothing legible is found; an error means the engine itself
// failed.
type Engine interface {
	Recognize(img image.Image) (string, error)
}

// Func adapts an ordinary function to the Engine interface.
type Func func(img image.Image) (string, error)

// Recognize calls f(img).
func (f Func) Recognize(img image.Image) (string, error) { return f(img) }

// Nop is an Engine that never finds any text.
var Nop Engine = Func(func(image.Image) (string, error) { return "", nil })

// Normalize trims surrounding whitespace and collapses every internal run of
// whitespace, newlines included, into a single space.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
