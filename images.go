package codebuddy

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
)

const (
	avatarSize    = 256
	jpegQuality   = 85
	maxUploadSize = 5 << 20 // 5MB
	avatarsSubdir = "uploads/avatars"
	avatarURLRoot = "/public/" + avatarsSubdir

	// maxAvatarPixels bounds the decoded size of an upload.
	maxAvatarPixels = 4096 * 4096
)

// processAvatar decodes an image, crops it to a centred square, scales it to
// avatarSize and encodes it as JPEG. Images over maxAvatarPixels are rejected
// from their header, before any pixels are decoded.
func processAvatar(src io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxAvatarPixels {
		return nil, fmt.Errorf("image is %dx%d, max %d pixels", cfg.Width, cfg.Height, maxAvatarPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	side := min(b.Dx(), b.Dy())
	if side == 0 {
		return nil, fmt.Errorf("decode image: empty image")
	}
	crop := image.Rect(0, 0, side, side).Add(image.Pt(
		b.Min.X+(b.Dx()-side)/2,
		b.Min.Y+(b.Dy()-side)/2,
	))

	out := min(side, avatarSize)
	dst := image.NewRGBA(image.Rect(0, 0, out, out))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, crop, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func (a *App) handleAvatarUpload(c echo.Context) error {
	u := CurrentUser(c)

	file, err := c.FormFile("avatar")
	if err != nil {
		return c.String(http.StatusBadRequest, "No image file provided")
	}
	if file.Size > maxUploadSize {
		return c.String(http.StatusBadRequest, "File too large (max 5MB)")
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	data, err := processAvatar(src)
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid image: "+err.Error())
	}

	dir := filepath.Join(a.staticDir, avatarsSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create avatars dir: %w", err)
	}
	// One file per user; the version query busts the immutable cache header.
	name := Slugify(u.ID) + ".jpg"
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write avatar: %w", err)
	}

	url := fmt.Sprintf("%s/%s?v=%d", avatarURLRoot, name, time.Now().Unix())
	if err := a.Store.SetAvatar(c.Request().Context(), u.ID, url); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/dashboard/?avatar=updated")
}
