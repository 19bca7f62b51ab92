// Package ocr is the optical character recognition collaborator of the
// recognizer.
//
// The pipeline only depends on the Engine interface: an image region goes
// in, a string comes out. Tesseract (via gosseract/v2) is the production
// implementation; Func adapts plain functions so tests can substitute a
// deterministic fake.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// # Error Handling
//
// Engine errors are never fatal to a recognition run. The caller logs them
// and treats the region as having no text.
package ocr
