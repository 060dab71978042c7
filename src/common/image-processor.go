package common

// Image processor for app icon and favicon generation
//
// Responsibilities:
// 1. Load the source image (PNG, JPEG, GIF, BMP, TIFF, WebP)
// 2. Normalize to 4-channel RGBA so transparency survives every format
// 3. Center-crop non-square sources to the largest square
// 4. Generate icon-{size}x{size}.png for every configured size (Lanczos)
// 5. Generate a multi-resolution favicon.ico
// 6. Optionally write a web manifest icons fragment for the generated PNGs

import (
	"bytes"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"slices"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"iconsmith/src/config"
)

// FaviconFileName is the name of the ICO file written by GenerateFavicon
const FaviconFileName = "favicon.ico"

// Job names reported in Result
const (
	JobIcons   = "icons"
	JobFavicon = "favicon"
)

// Options controls how the source is prepared before resizing
type Options struct {
	Normalize  bool
	CropSquare bool
}

// Artifact is a file written by a generation job
type Artifact struct {
	Path string
	Size int
}

// Result is the outcome of one generation job.
// Err is set when the job produced nothing; Failures lists outputs that
// failed while the rest of the job continued.
type Result struct {
	Job       string
	Source    string
	Artifacts []Artifact
	Err       error
	Failures  []error
}

// OK reports whether the job completed without any failure
func (r *Result) OK() bool {
	return r.Err == nil && len(r.Failures) == 0
}

// Log writes the outcome of the job to the standard logger
func (r *Result) Log() {
	if r.Err != nil {
		log.Printf("Error generating %s: %v", r.Job, r.Err)
		return
	}
	for _, err := range r.Failures {
		log.Printf("Error generating %s: %v", r.Job, err)
	}
	if r.OK() {
		log.Printf("✅ All %s generated successfully (%d files)", r.Job, len(r.Artifacts))
	} else {
		log.Printf("⚠️  %s finished with %d of %d outputs failed", r.Job, len(r.Failures), len(r.Failures)+len(r.Artifacts))
	}
}

// LoadSource decodes the image at path. The file is closed before returning.
func LoadSource(path string) (image.Image, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &GenerationError{Kind: KindMissingSource, Path: path, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &GenerationError{Kind: KindDecode, Path: path, Err: fmt.Errorf("failed to open source: %w", err)}
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &GenerationError{Kind: KindDecode, Path: path, Err: fmt.Errorf("failed to decode source: %w", err)}
	}

	return img, nil
}

// Normalize returns a non-premultiplied RGBA copy of img
func Normalize(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// CenterCropRect returns the largest square centered in bounds.
// When the excess on the longer axis is odd, the extra pixel is dropped
// from the right (or bottom) edge.
func CenterCropRect(bounds image.Rectangle) image.Rectangle {
	w, h := bounds.Dx(), bounds.Dy()
	side := min(w, h)
	left := bounds.Min.X + (w-side)/2
	top := bounds.Min.Y + (h-side)/2
	return image.Rect(left, top, left+side, top+side)
}

// CropSquare center-crops img to a square. Square images are returned as-is.
func CropSquare(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() == b.Dy() {
		return img
	}
	return imaging.Crop(img, CenterCropRect(b))
}

// Prepare applies the normalization and crop steps selected by opts
func Prepare(img image.Image, opts Options) image.Image {
	if opts.Normalize {
		img = Normalize(img)
	}
	if opts.CropSquare {
		b := img.Bounds()
		if b.Dx() != b.Dy() {
			img = CropSquare(img)
			log.Printf("Image cropped to square (%dx%d -> %dx%d)", b.Dx(), b.Dy(), img.Bounds().Dx(), img.Bounds().Dy())
		}
	}
	return img
}

// ResizeSquare resamples img to size x size using Lanczos
func ResizeSquare(img image.Image, size int) *image.NRGBA {
	return imaging.Resize(img, size, size, imaging.Lanczos)
}

// IconFileName returns the file name used for a PNG icon of the given size
func IconFileName(size int) string {
	return fmt.Sprintf("icon-%dx%d.png", size, size)
}

// GenerateIcons writes icon-{size}x{size}.png into outputDir for every size,
// in order. A failed size is recorded and the remaining sizes still run.
func GenerateIcons(source, outputDir string, sizes []int, opts Options) *Result {
	result := &Result{Job: JobIcons, Source: source}

	img, err := loadAndPrepare(source, outputDir, opts)
	if err != nil {
		result.Err = err
		return result
	}

	for _, size := range sizes {
		outputPath := filepath.Join(outputDir, IconFileName(size))
		if err := writeIcon(img, size, outputPath); err != nil {
			result.Failures = append(result.Failures, &GenerationError{Kind: KindPerSize, Path: outputPath, Size: size, Err: err})
			continue
		}
		log.Printf("Generated %s", outputPath)
		result.Artifacts = append(result.Artifacts, Artifact{Path: outputPath, Size: size})
	}

	return result
}

// GenerateFavicon writes one favicon.ico into outputDir holding every size.
// The file is replaced atomically, so a failure leaves any previous favicon intact.
func GenerateFavicon(source, outputDir string, sizes []int, opts Options) *Result {
	result := &Result{Job: JobFavicon, Source: source}

	img, err := loadAndPrepare(source, outputDir, opts)
	if err != nil {
		result.Err = err
		return result
	}

	outputPath := filepath.Join(outputDir, FaviconFileName)
	if len(sizes) == 0 {
		result.Failures = append(result.Failures, &GenerationError{Kind: KindPerSize, Path: outputPath, Err: fmt.Errorf("no favicon sizes configured")})
		return result
	}

	frames := make([]image.Image, 0, len(sizes))
	for _, size := range sizes {
		frames = append(frames, ResizeSquare(img, size))
	}

	var buf bytes.Buffer
	if err := EncodeICO(&buf, frames); err != nil {
		result.Failures = append(result.Failures, &GenerationError{Kind: KindPerSize, Path: outputPath, Err: err})
		return result
	}
	if err := writeFileAtomic(outputPath, buf.Bytes()); err != nil {
		result.Failures = append(result.Failures, &GenerationError{Kind: KindPerSize, Path: outputPath, Err: err})
		return result
	}

	log.Printf("Generated %s (%v)", outputPath, sizes)
	result.Artifacts = append(result.Artifacts, Artifact{Path: outputPath, Size: slices.Max(sizes)})
	return result
}

func loadAndPrepare(source, outputDir string, opts Options) (image.Image, error) {
	img, err := LoadSource(source)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, &GenerationError{Kind: KindOutputDir, Path: outputDir, Err: fmt.Errorf("failed to create output directory: %w", err)}
	}

	return Prepare(img, opts), nil
}

func writeIcon(img image.Image, size int, outputPath string) error {
	resized := ResizeSquare(img, size)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.PNG); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// writeFileAtomic writes data next to path and renames it into place
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

// Generator runs the jobs enabled in the configuration
type Generator struct {
	cfg *config.Config
}

// NewGenerator creates a new generator for cfg
func NewGenerator(cfg *config.Config) *Generator {
	return &Generator{cfg: cfg}
}

// Run executes every enabled job and returns one Result per job
func (g *Generator) Run() []*Result {
	var results []*Result

	if g.cfg.Icons.Enabled {
		log.Printf("🖼️  Generating %d icons from %s", len(g.cfg.Icons.Sizes), g.cfg.Source)
		res := GenerateIcons(g.cfg.Source, g.cfg.Icons.OutputDir, g.cfg.Icons.Sizes, Options{
			Normalize:  g.cfg.Icons.Normalize,
			CropSquare: g.cfg.Icons.Crop,
		})
		results = append(results, res)

		if g.cfg.Manifest.Enabled && len(res.Artifacts) > 0 {
			manifestPath := filepath.Join(g.cfg.Icons.OutputDir, g.cfg.Manifest.FileName)
			if err := WriteManifestIcons(manifestPath, g.cfg.Manifest.Prefix, res.Artifacts); err != nil {
				res.Failures = append(res.Failures, &GenerationError{Kind: KindPerSize, Path: manifestPath, Err: err})
			} else {
				log.Printf("Generated %s", manifestPath)
			}
		}
	}

	if g.cfg.Favicon.Enabled {
		log.Printf("🖼️  Generating favicon from %s", g.cfg.Source)
		results = append(results, GenerateFavicon(g.cfg.Source, g.cfg.Favicon.OutputDir, g.cfg.Favicon.Sizes, Options{
			Normalize:  g.cfg.Favicon.Normalize,
			CropSquare: g.cfg.Favicon.Crop,
		}))
	}

	return results
}
