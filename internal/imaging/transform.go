// Package imaging resizes and re-encodes uploaded product images and stores
// them under a per-category directory, returning both the public URL and the
// filesystem path (the path is needed later for compensating deletes).
package imaging

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"log"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder

	"bakery-admin-service/internal/config"
)

// Predefined errors for image operations. ErrImageDecode covers decode and
// re-encode failures (bad or truncated input); ErrImageStore covers
// filesystem failures creating directories or writing the result.
var (
	ErrImageDecode     = errors.New("imaging: cannot decode image")
	ErrImageStore      = errors.New("imaging: cannot store image")
	ErrUnsupportedType = errors.New("imaging: unsupported image type")
)

// Result is the outcome of a successful transform. URL is what gets stored
// on the product row; Path is the absolute storage location used for
// deletion.
type Result struct {
	URL  string
	Path string
}

// Transformer converts uploaded images to canonical JPEG files.
type Transformer struct {
	rootDir     string
	publicBase  string
	maxWidth    int
	jpegQuality int
	allowed     map[string]struct{}
}

// NewTransformer builds a Transformer from the upload configuration.
func NewTransformer(cfg config.UploadConfig) *Transformer {
	allowed := make(map[string]struct{}, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		allowed[strings.TrimSpace(strings.ToLower(t))] = struct{}{}
	}
	return &Transformer{
		rootDir:     cfg.RootDir,
		publicBase:  strings.TrimRight(cfg.PublicBase, "/"),
		maxWidth:    cfg.MaxWidth,
		jpegQuality: cfg.JPEGQuality,
		allowed:     allowed,
	}
}

// AllowedType reports whether the given MIME type is on the upload
// allow-list. Callers must check this before spooling or transforming
// anything so that rejected uploads cause zero durable writes.
func (t *Transformer) AllowedType(mimeType string) bool {
	_, ok := t.allowed[strings.ToLower(strings.TrimSpace(mimeType))]
	return ok
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9-_]`)

// safeFileName derives a collision-resistant file name from the original
// upload name: extension stripped, unsafe characters replaced, lower-cased,
// with a nanosecond timestamp appended before the original extension.
func safeFileName(originalName string) string {
	ext := filepath.Ext(originalName)
	base := strings.TrimSuffix(filepath.Base(originalName), ext)
	base = strings.ToLower(unsafeNameChars.ReplaceAllString(base, "-"))
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf("%s-%d%s", base, time.Now().UnixNano(), ext)
}

// Transform decodes the uploaded file at tempPath, scales it down to the
// configured maximum width (aspect preserved, never upscaled), re-encodes it
// as JPEG and writes it to {root}/{categoryID}/{safeName}. The temp file is
// removed on success.
//
// A successful return means a durable file now exists on disk. Any later
// failure in the surrounding workflow must delete Result.Path explicitly;
// there is no automatic rollback at this layer.
func (t *Transformer) Transform(tempPath, originalName string, categoryID int64) (*Result, error) {
	src, err := os.Open(tempPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open upload: %v", ErrImageStore, err)
	}
	img, _, err := image.Decode(src)
	src.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	img = t.scaleDown(img)

	// Directory creation is idempotent; two concurrent creates targeting the
	// same new category both succeed.
	categoryDir := filepath.Join(t.rootDir, strconv.FormatInt(categoryID, 10))
	if err := os.MkdirAll(categoryDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create category dir: %v", ErrImageStore, err)
	}

	filename := safeFileName(originalName)
	storedPath := filepath.Join(categoryDir, filename)

	out, err := os.Create(storedPath)
	if err != nil {
		return nil, fmt.Errorf("%w: create target file: %v", ErrImageStore, err)
	}
	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: t.jpegQuality}); err != nil {
		out.Close()
		os.Remove(storedPath)
		return nil, fmt.Errorf("%w: encode jpeg: %v", ErrImageDecode, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(storedPath)
		return nil, fmt.Errorf("%w: close target file: %v", ErrImageStore, err)
	}

	if err := os.Remove(tempPath); err != nil {
		// The transformed file is already valid and authoritative.
		log.Printf("WARN: imaging: failed to remove temp upload %s: %v", tempPath, err)
	}

	return &Result{
		URL:  fmt.Sprintf("%s/%d/%s", t.publicBase, categoryID, filename),
		Path: storedPath,
	}, nil
}

// scaleDown returns img resized to at most the configured width, preserving
// aspect ratio. Images already narrow enough are returned unchanged.
func (t *Transformer) scaleDown(img image.Image) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() <= t.maxWidth {
		return img
	}
	width := t.maxWidth
	height := bounds.Dy() * width / bounds.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}

// Delete removes a stored image file. A missing file is not an error so the
// compensating-delete path stays idempotent. Paths outside the storage root
// are refused.
func (t *Transformer) Delete(storedPath string) error {
	if storedPath == "" {
		return nil
	}
	if !t.underRoot(storedPath) {
		return fmt.Errorf("%w: path %s is outside the storage root", ErrImageStore, storedPath)
	}
	if err := os.Remove(storedPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: delete %s: %v", ErrImageStore, storedPath, err)
	}
	return nil
}

// DeleteByURL maps a public image URL back to its storage path and removes
// the file. The URL tail is {categoryID}/{filename} under the public base.
func (t *Transformer) DeleteByURL(imageURL string) error {
	rel := strings.TrimPrefix(imageURL, t.publicBase)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" || rel == imageURL {
		// URL does not live under this transformer's base; take the last two
		// segments as {categoryID}/{filename} like the original layout.
		segments := strings.Split(path.Clean(imageURL), "/")
		if len(segments) < 2 {
			return fmt.Errorf("%w: unrecognized image url %q", ErrImageStore, imageURL)
		}
		rel = path.Join(segments[len(segments)-2], segments[len(segments)-1])
	}
	return t.Delete(filepath.Join(t.rootDir, filepath.FromSlash(rel)))
}

// underRoot reports whether p lies under the transformer's storage root.
func (t *Transformer) underRoot(p string) bool {
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	root, err := filepath.Abs(t.rootDir)
	if err != nil {
		return false
	}
	return strings.HasPrefix(abs, root+string(os.PathSeparator))
}
