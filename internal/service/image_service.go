package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"contentflow/internal/middleware"
	"contentflow/internal/models"
	"contentflow/internal/repository"

	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	ThumbnailMaxSize     = 300
	ThumbnailJPEGQuality = 85
	MaxImagesPerPost     = 5
	MaxUploadSizeBytes   = 10 * 1024 * 1024

	postsDir      = "posts"
	thumbnailsDir = "posts/thumbnails"
	avatarsDir    = "avatars"
)

type ImageService struct {
	imageRepo repository.ImageRepository
	mediaRoot string
}

func NewImageService(imageRepo repository.ImageRepository, mediaRoot string) *ImageService {
	return &ImageService{imageRepo: imageRepo, mediaRoot: mediaRoot}
}

// Attach stores an uploaded image for a post: the original under posts/ and
// a derived thumbnail under posts/thumbnails/, then records both paths.
func (s *ImageService) Attach(ctx context.Context, post *models.Post, filename string, content []byte) (*models.Image, error) {
	if len(content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(content)) > MaxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", MaxUploadSizeBytes/(1024*1024)))
	}

	thumb, err := s.makeThumbnail(content)
	if err != nil {
		middleware.ImagesProcessed.WithLabelValues("decode_error").Inc()
		return nil, models.NewValidationError("Invalid image file")
	}

	storedName := storedFilename(filename)
	imagePath := filepath.Join(postsDir, storedName)
	thumbPath := filepath.Join(thumbnailsDir, ThumbnailName(storedName))

	if err := s.writeFile(imagePath, content); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.writeFile(thumbPath, thumb); err != nil {
		return nil, models.NewInternalError(err)
	}

	img := &models.Image{
		PostID:        post.ID,
		ImagePath:     imagePath,
		ThumbnailPath: thumbPath,
	}
	if err := s.imageRepo.Create(ctx, img); err != nil {
		return nil, err
	}

	middleware.ImagesProcessed.WithLabelValues("stored").Inc()
	return img, nil
}

// EnsureThumbnail backfills the thumbnail for an image row that is missing
// one, reading the original back from disk.
func (s *ImageService) EnsureThumbnail(ctx context.Context, img *models.Image) error {
	if img.ThumbnailPath != "" {
		if _, err := os.Stat(filepath.Join(s.mediaRoot, img.ThumbnailPath)); err == nil {
			return nil
		}
	}

	content, err := os.ReadFile(filepath.Join(s.mediaRoot, img.ImagePath))
	if err != nil {
		return models.NewInternalError(err)
	}
	thumb, err := s.makeThumbnail(content)
	if err != nil {
		return models.NewInternalError(err)
	}

	thumbPath := filepath.Join(thumbnailsDir, ThumbnailName(filepath.Base(img.ImagePath)))
	if err := s.writeFile(thumbPath, thumb); err != nil {
		return models.NewInternalError(err)
	}

	img.ThumbnailPath = thumbPath
	if err := s.imageRepo.Update(ctx, img); err != nil {
		return err
	}
	middleware.ImagesProcessed.WithLabelValues("backfilled").Inc()
	return nil
}

// Remove deletes the image row and both files. File removal is best-effort;
// a missing file does not fail the delete.
func (s *ImageService) Remove(ctx context.Context, img *models.Image) error {
	if err := s.imageRepo.Delete(ctx, img.ID); err != nil {
		return err
	}
	s.removeFile(img.ImagePath)
	s.removeFile(img.ThumbnailPath)
	return nil
}

// RemoveFiles deletes an image's files without touching the database, for
// rows already gone via cascade.
func (s *ImageService) RemoveFiles(img *models.Image) {
	s.removeFile(img.ImagePath)
	s.removeFile(img.ThumbnailPath)
}

// SaveAvatar stores an avatar upload under avatars/ unresized and returns
// the stored relative path.
func (s *ImageService) SaveAvatar(filename string, content []byte) (string, error) {
	if len(content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if int64(len(content)) > MaxUploadSizeBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", MaxUploadSizeBytes/(1024*1024)))
	}
	if _, _, err := image.Decode(bytes.NewReader(content)); err != nil {
		return "", models.NewValidationError("Invalid image file")
	}

	path := filepath.Join(avatarsDir, storedFilename(filename))
	if err := s.writeFile(path, content); err != nil {
		return "", models.NewInternalError(err)
	}
	return path, nil
}

// ThumbnailName derives the thumbnail filename for a stored original. The
// thumbnail is always JPEG regardless of the source format.
func ThumbnailName(storedName string) string {
	base := strings.TrimSuffix(storedName, filepath.Ext(storedName))
	return "thumb_" + base + ".jpg"
}

// makeThumbnail decodes any supported format, flattens transparency onto
// black, scales down to fit within ThumbnailMaxSize (never up), and encodes
// as JPEG.
func (s *ImageService) makeThumbnail(content []byte) ([]byte, error) {
	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	flat := flattenToRGB(decoded)
	thumb := resizeToFit(flat, ThumbnailMaxSize, ThumbnailMaxSize)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: ThumbnailJPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// flattenToRGB composites the image over a black background, discarding any
// alpha channel so JPEG encoding is lossless with respect to color.
func flattenToRGB(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

// resizeToFit scales the image down so both dimensions fit within the given
// bounds, preserving aspect ratio. Images already within bounds pass through.
func resizeToFit(src *image.RGBA, maxW, maxH int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH {
		return src
	}

	scaleW := float64(maxW) / float64(w)
	scaleH := float64(maxH) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}

	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

func storedFilename(original string) string {
	base := filepath.Base(original)
	base = strings.ReplaceAll(base, " ", "_")
	if base == "" || base == "." {
		base = "upload.jpg"
	}
	return uuid.New().String()[:8] + "_" + base
}

func (s *ImageService) writeFile(relPath string, content []byte) error {
	full := filepath.Join(s.mediaRoot, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, content, 0o644)
}

func (s *ImageService) removeFile(relPath string) {
	if relPath == "" {
		return
	}
	if err := os.Remove(filepath.Join(s.mediaRoot, relPath)); err != nil && !os.IsNotExist(err) {
		middleware.Logger.Warn("failed to remove media file", "path", relPath, "error", err)
	}
}
