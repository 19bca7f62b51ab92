package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/ironsheep/flowchart-recognizer/internal/graph"
	"github.com/ironsheep/flowchart-recognizer/internal/imaging"
	"github.com/ironsheep/flowchart-recognizer/internal/log"
)

// Artifacts lists the files written by one run.
type Artifacts struct {
	// Diagnostic is the adaptive-threshold image.
	Diagnostic string `json:"diagnostic"`
	// Overlay is the annotated image, next to the input.
	Overlay string `json:"overlay"`
	// OverlayCopy has the same content as Overlay.
	OverlayCopy string `json:"overlay_copy"`
	// Data is the JSON graph.
	Data string `json:"data"`
}

// OverlayPaths returns the annotated image names for filename:
// <stem><suffix><ext> and <stem><suffix><copySuffix><ext>, in the input's
// directory. Extensions that cannot be encoded fall back to .png.
func OverlayPaths(filename, suffix, copySuffix string) (string, string) {
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	if !imaging.CanEncode(filename) {
		ext = ".png"
	}
	return stem + suffix + ext, stem + suffix + copySuffix + ext
}

// ArtifactPaths returns where a run over filename writes its artifacts.
func (p *Pipeline) ArtifactPaths(filename string) Artifacts {
	out := p.cfg.Output
	overlay, overlayCopy := OverlayPaths(filename, out.Suffix, out.CopySuffix)
	return Artifacts{
		Diagnostic:  filepath.Join(out.Dir, out.Diagnostic),
		Overlay:     overlay,
		OverlayCopy: overlayCopy,
		Data:        filepath.Join(out.Dir, out.Data),
	}
}

func (p *Pipeline) writeArtifacts(filename string, res *Result) (*Artifacts, error) {
	paths := p.ArtifactPaths(filename)

	data, err := graph.MarshalData(res.Graph)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}

	w := &artifactWriter{}
	steps := []struct {
		path  string
		write func(io.Writer) error
	}{
		{paths.Diagnostic, func(dst io.Writer) error { return imaging.Encode(dst, paths.Diagnostic, res.Frame.Work()) }},
		{paths.Overlay, func(dst io.Writer) error { return imaging.Encode(dst, paths.Overlay, res.Overlay) }},
		{paths.Data, func(dst io.Writer) error { _, err := dst.Write(data); return err }},
		{paths.OverlayCopy, func(dst io.Writer) error { return imaging.Encode(dst, paths.OverlayCopy, res.Overlay) }},
	}
	for _, s := range steps {
		if err := w.write(s.path, s.write); err != nil {
			w.rollback()
			return nil, fmt.Errorf("%w: %s: %w", ErrOutputWrite, s.path, err)
		}
	}

	tmp := filepath.Join(p.cfg.Output.Dir, p.cfg.Output.Temp)
	if err := os.Remove(tmp); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Debugf("could not remove %s: %v", tmp, err)
	}
	return &paths, nil
}

// artifactWriter writes files through a temporary sibling and a rename, and
// remembers what it wrote so a failed run can be undone.
type artifactWriter struct {
	written []string
}

func (w *artifactWriter) write(path string, fn func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	buf := bufio.NewWriter(tmp)
	if err := fn(buf); err != nil {
		tmp.Close()
		return err
	}
	if err := buf.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	w.written = append(w.written, path)

	if st, err := os.Stat(path); err == nil {
		log.Infof("wrote %s (%s)", path, humanize.Bytes(uint64(st.Size())))
	}
	return nil
}

func (w *artifactWriter) rollback() {
	for _, path := range w.written {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warnf("failed to remove partial artifact %s: %v", path, err)
		}
	}
	w.written = nil
}
