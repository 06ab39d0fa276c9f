package moonlight

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"

	"github.com/moonlightbl/moonlight/catalog"
	"github.com/moonlightbl/moonlight/views"
)

const (
	maxImageWidth = 1280
	jpegQuality   = 82
	maxUploadSize = 10 << 20 // 10MB
	uploadsSubdir = "uploads"
)

// processImage decodes an image from src, resizes it down to maxImageWidth
// and encodes it as JPEG. Returns metadata and the encoded bytes.
func processImage(src io.Reader, originalName string) (catalog.Media, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return catalog.Media{}, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = maxImageWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return catalog.Media{}, nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return catalog.Media{
		Filename:     slugifyFilename(originalName) + ".jpg",
		OriginalName: originalName,
		Width:        w,
		Height:       h,
		Size:         buf.Len(),
		UploadedAt:   time.Now().UTC(),
	}, buf.Bytes(), nil
}

// slugifyFilename converts a filename (without extension) to a URL-safe slug.
func slugifyFilename(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if slug := catalog.Slugify(base); slug != "" {
		return slug
	}
	return "imagen"
}

// ensureUniqueFilename appends a counter while the filename is taken on
// disk or in the media table.
func (a *App) ensureUniqueFilename(ctx context.Context, m *catalog.Media) error {
	dir := filepath.Join(a.Config.StaticDir, uploadsSubdir)
	base := strings.TrimSuffix(m.Filename, ".jpg")
	candidate := m.Filename
	for counter := 2; ; counter++ {
		_, statErr := os.Stat(filepath.Join(dir, candidate))
		exists, err := a.Catalog.MediaExists(ctx, candidate)
		if err != nil {
			return err
		}
		if statErr != nil && !exists {
			break
		}
		candidate = fmt.Sprintf("%s-%d.jpg", base, counter)
	}
	m.Filename = candidate
	return nil
}

func (a *App) handleMediaUpload(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return a.renderMediaList(c, http.StatusBadRequest, "No se ha enviado ninguna imagen.")
	}
	if file.Size > maxUploadSize {
		return a.renderMediaList(c, http.StatusBadRequest, "La imagen supera los 10 MB.")
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	m, data, err := processImage(src, file.Filename)
	if err != nil {
		return a.renderMediaList(c, http.StatusBadRequest, "Imagen no válida: "+err.Error())
	}

	ctx := c.Request().Context()
	if err := a.ensureUniqueFilename(ctx, &m); err != nil {
		return err
	}

	dir := filepath.Join(a.Config.StaticDir, uploadsSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, m.Filename), data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	if err := a.Catalog.SaveMedia(ctx, m); err != nil {
		return err
	}
	c.Logger().Infof("uploaded %s (%dx%d)", m.Filename, m.Width, m.Height)
	return redirectWithFlash(c, "/admin/media/", flashImageUploaded)
}

func (a *App) handleMediaDelete(c echo.Context) error {
	filename := c.Param("filename")
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid filename")
	}

	// The file may already be gone.
	_ = os.Remove(filepath.Join(a.Config.StaticDir, uploadsSubdir, filename))

	if err := a.Catalog.DeleteMedia(c.Request().Context(), filename); err != nil {
		return err
	}
	return redirectWithFlash(c, "/admin/media/", flashImageDeleted)
}

func (a *App) handleMediaList(c echo.Context) error {
	return a.renderMediaList(c, http.StatusOK, "")
}

func (a *App) renderMediaList(c echo.Context, code int, formErr string) error {
	media, err := a.Catalog.ListMedia(c.Request().Context())
	if err != nil {
		return err
	}
	return RenderStatus(c, code, views.AdminMedia(views.MediaPage{
		Page:  a.adminPage(c, "Media"),
		Media: media,
		Error: formErr,
	}))
}
