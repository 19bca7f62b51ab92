// Package imaging provides the raster side of flowchart recognition: loading,
// the preprocessing chain that turns a scanned diagram into an edge mask,
// cropping, and the drawing primitives used by the annotated overlay.
//
// # Coordinate System
//
// All images produced here are origin-based: (0,0) is the top-left pixel, X
// grows rightward and Y downward. Regions are half-open: Min inclusive, Max
// exclusive.
//
// # Preprocessing
//
// Preprocess returns a Frame holding two images. Mask lives at Upscale times
// the source resolution and feeds contour extraction. Threshold stays at
// source resolution and is what text is cropped from. Frame.Ratio converts
// mask coordinates back to source coordinates.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Frame images are never written after
// Preprocess returns, so they may be shared by readers; anything that draws
// must work on CloneRGBA or CloneGray copies.
//
// # Libraries
//
// Blur, median, morphology, resampling and histograms come from bild;
// decoding, encoding and cropping from disintegration/imaging; overlay
// colours from go-colorful; annotation text from x/image basicfont.
package imaging
