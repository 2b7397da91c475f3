package uploads

import (
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	_ "image/gif"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"noticias/auth"
	"noticias/common"
	"noticias/config"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

type UploadsModule struct {
	log  zerolog.Logger
	cfg  config.UploadsConfig
	auth *auth.AuthModule
}

func NewUploadsModule(log zerolog.Logger, cfg config.UploadsConfig, authModule *auth.AuthModule) *UploadsModule {
	return &UploadsModule{log: log, cfg: cfg, auth: authModule}
}

func (m *UploadsModule) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/api/uploads")
	{
		group.POST("/imagen", m.auth.RequireAuth, m.uploadImagen)
		group.DELETE("/imagen/:name", m.auth.RequireAuth, m.auth.RequireRole(auth.RoleAdmin), m.deleteImagen)
	}
	router.Static("/uploads", m.cfg.Dir)
}

func (m *UploadsModule) imagesDir() string {
	return filepath.Join(m.cfg.Dir, "images")
}

// uploadImagen accepts a multipart image, validates type and size,
// normalizes it to a width-bounded JPEG and returns its stable URL.
func (m *UploadsModule) uploadImagen(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: archivo requerido en el campo 'file'", common.ErrValidation))
		return
	}

	if header.Size > m.cfg.MaxUploadSize {
		common.AbortWithError(c, fmt.Errorf("%w: el archivo supera el límite de %d bytes", common.ErrValidation, m.cfg.MaxUploadSize))
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		common.AbortWithError(c, fmt.Errorf("%w: tipo de archivo no permitido: %s", common.ErrValidation, contentType))
		return
	}

	file, err := header.Open()
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: la imagen no se pudo decodificar", common.ErrValidation))
		return
	}

	img = m.bound(img)

	if err := os.MkdirAll(m.imagesDir(), 0o755); err != nil {
		common.AbortWithError(c, err)
		return
	}

	name := uuid.New().String() + ".jpg"
	path := filepath.Join(m.imagesDir(), name)
	out, err := os.Create(path)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	defer out.Close()

	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: m.cfg.JPEGQuality}); err != nil {
		os.Remove(path)
		common.AbortWithError(c, err)
		return
	}

	m.log.Info().Str("archivo", name).Int64("bytes", header.Size).Msg("imagen subida")
	c.JSON(http.StatusCreated, gin.H{"url": "/uploads/images/" + name, "filename": name})
}

// bound scales the image down to the configured max width, preserving the
// aspect ratio. Images already narrow enough pass through untouched.
func (m *UploadsModule) bound(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= m.cfg.MaxImageWidth {
		return img
	}
	height := b.Dy() * m.cfg.MaxImageWidth / b.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, m.cfg.MaxImageWidth, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}

func (m *UploadsModule) deleteImagen(c *gin.Context) {
	name := filepath.Base(c.Param("name"))
	if name == "." || name == "/" || strings.Contains(name, "..") {
		common.AbortWithError(c, fmt.Errorf("%w: nombre de archivo inválido", common.ErrValidation))
		return
	}

	path := filepath.Join(m.imagesDir(), name)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			common.AbortWithError(c, fmt.Errorf("%w: archivo no encontrado", common.ErrNotFound))
			return
		}
		common.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
