package noticias

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"noticias/auth"
	"noticias/common"
	"noticias/models"
)

// slugRetryLimit bounds the re-probe loop after losing a slug race. The
// unique index on noticias.slug is the real arbiter; the pre-insert probe is
// only an optimization.
const slugRetryLimit = 5

type NoticiasModule struct {
	db   *gorm.DB
	log  zerolog.Logger
	auth *auth.AuthModule
}

func NewNoticiasModule(db *gorm.DB, log zerolog.Logger, authModule *auth.AuthModule) *NoticiasModule {
	return &NoticiasModule{db: db, log: log, auth: authModule}
}

func (m *NoticiasModule) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/api/noticias")
	{
		group.GET("", m.listNoticias)
		group.GET("/categorias", m.listCategorias)
		group.GET("/tags", m.listTags)
		group.GET("/estadisticas/resumen", m.estadisticas)
		group.GET("/admin/all", m.auth.RequireAuth, m.auth.RequireRole(auth.RoleAdmin, auth.RoleEditor), m.listNoticiasAdmin)
		group.GET("/slug/:slug", m.getNoticiaBySlug)
		group.GET("/:id", m.getNoticia)
		group.GET("/:id/historial", m.getHistorial)
		group.POST("", m.auth.OptionalAuth, m.createNoticia)
		group.PUT("/:id", m.auth.RequireAuth, m.updateNoticia)
		group.DELETE("/:id", m.auth.RequireAuth, m.deleteNoticia)
		group.POST("/:id/like", m.likeNoticia)
	}
}

// limitChars caps free text at max characters, counting runes so multibyte
// summaries are not cut mid-character.
func limitChars(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// readingTime estimates minutes at 200 words per minute: at least 1 for any
// non-empty body, 0 for an empty one.
func readingTime(contenido string) int {
	words := len(strings.Fields(contenido))
	if words == 0 {
		return 0
	}
	return int(math.Max(1, math.Ceil(float64(words)/200)))
}

func joinTags(tags []string) string {
	cleaned := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	return strings.Join(cleaned, ",")
}

func splitTags(metaKeywords string) []string {
	tags := []string{}
	for _, t := range strings.Split(metaKeywords, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// nextFreeSlug probes base, base-1, base-2, ... until a slug no other
// article holds. excludeID skips the article being renamed.
func (m *NoticiasModule) nextFreeSlug(base string, excludeID int) (string, error) {
	slug := base
	for counter := 1; ; counter++ {
		var count int64
		q := m.db.Model(&models.Noticia{}).Where("slug = ?", slug)
		if excludeID != 0 {
			q = q.Where("id != ?", excludeID)
		}
		if err := q.Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
}

// createWithUniqueSlug inserts the article, re-probing for a fresh suffix
// each time the unique index rejects a slug another writer claimed first.
func (m *NoticiasModule) createWithUniqueSlug(noticia *models.Noticia, base string) error {
	for attempt := 0; attempt < slugRetryLimit; attempt++ {
		slug, err := m.nextFreeSlug(base, 0)
		if err != nil {
			return err
		}
		noticia.Slug = slug
		err = m.db.Create(noticia).Error
		if err == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		return err
	}
	return fmt.Errorf("%w: no se pudo asignar un slug único para %q", common.ErrConflict, base)
}

// resolveCategoria finds a category by the slug of its normalized name,
// creating it on first use.
func (m *NoticiasModule) resolveCategoria(nombre string) (*models.Categoria, error) {
	nombre = strings.TrimSpace(nombre)
	if nombre == "" {
		return nil, nil
	}
	slug := Slugify(nombre)
	if slug == "" {
		return nil, fmt.Errorf("%w: nombre de categoría inválido", common.ErrValidation)
	}

	var categoria models.Categoria
	err := m.db.Where("slug = ?", slug).First(&categoria).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		categoria = models.Categoria{Nombre: nombre, Slug: slug, Activa: true}
		if err := m.db.Create(&categoria).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// another writer created it between our read and insert
				if err := m.db.Where("slug = ?", slug).First(&categoria).Error; err != nil {
					return nil, err
				}
				return &categoria, nil
			}
			return nil, err
		}
		return &categoria, nil
	}
	if err != nil {
		return nil, err
	}
	return &categoria, nil
}

// defaultEstadoID lazily creates the "publicado" state so new articles never
// carry a dangling state reference.
func (m *NoticiasModule) defaultEstadoID() *int {
	var estado models.EstadoNoticia
	err := m.db.Where("lower(nombre) = ?", "publicado").First(&estado).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		estado = models.EstadoNoticia{Nombre: "publicado", Descripcion: "Publicado", ColorHex: "#28a745", Activo: true}
		if err := m.db.Create(&estado).Error; err != nil {
			m.log.Warn().Err(err).Msg("no se pudo crear el estado por defecto")
			return nil
		}
	} else if err != nil {
		m.log.Warn().Err(err).Msg("error resolviendo estado por defecto")
		return nil
	}
	return &estado.ID
}

type noticiaCrear struct {
	Titulo              string   `json:"titulo"`
	Resumen             string   `json:"resumen"`
	Contenido           string   `json:"contenido"`
	Imagen              string   `json:"imagen"`
	AudioURL            string   `json:"audio_url"`
	VideoURL            string   `json:"video_url"`
	Categoria           string   `json:"categoria"`
	Tags                []string `json:"tags"`
	Destacada           bool     `json:"destacada"`
	PermitirComentarios *bool    `json:"permitir_comentarios"`
	Fecha               string   `json:"fecha"`
}

func (r noticiaCrear) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Titulo, validation.Required, validation.Length(1, 300)),
		validation.Field(&r.Contenido, validation.Required),
	)
}

// parseFecha accepts both plain dates and full timestamps.
func parseFecha(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

func (m *NoticiasModule) createNoticia(c *gin.Context) {
	var req noticiaCrear
	if err := c.ShouldBindJSON(&req); err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: cuerpo JSON inválido", common.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: %v", common.ErrValidation, err))
		return
	}

	base := Slugify(req.Titulo)
	if base == "" {
		common.AbortWithError(c, fmt.Errorf("%w: el título no produce un slug válido", common.ErrValidation))
		return
	}

	var categoriaID *int
	if req.Categoria != "" {
		categoria, err := m.resolveCategoria(req.Categoria)
		if err != nil {
			common.AbortWithError(c, err)
			return
		}
		if categoria != nil {
			categoriaID = &categoria.ID
		}
	}

	fecha := time.Now()
	if req.Fecha != "" {
		parsed, err := parseFecha(req.Fecha)
		if err != nil {
			common.AbortWithError(c, fmt.Errorf("%w: fecha inválida", common.ErrValidation))
			return
		}
		fecha = parsed
	}

	permiteComentarios := true
	if req.PermitirComentarios != nil {
		permiteComentarios = *req.PermitirComentarios
	}

	noticia := models.Noticia{
		Titulo:             req.Titulo,
		Resumen:            limitChars(req.Resumen, 50),
		Contenido:          req.Contenido,
		ImagenPrincipal:    req.Imagen,
		AudioURL:           req.AudioURL,
		VideoURL:           req.VideoURL,
		CategoriaID:        categoriaID,
		EstadoID:           m.defaultEstadoID(),
		FechaPublicacion:   fecha,
		TiempoLectura:      readingTime(req.Contenido),
		Destacada:          req.Destacada,
		PermiteComentarios: permiteComentarios,
		MetaKeywords:       joinTags(req.Tags),
	}

	// anonymous creation is permitted; the author is set only when a valid
	// bearer token accompanied the request
	user := auth.CurrentUser(c)
	if user != nil {
		noticia.AutorID = &user.ID
	}

	if err := m.createWithUniqueSlug(&noticia, base); err != nil {
		common.AbortWithError(c, err)
		return
	}

	var usuarioID *int
	if user != nil {
		usuarioID = &user.ID
	}
	m.appendHistorial(noticia.ID, usuarioID, accionCreate, cambios{
		After: map[string]any{
			"titulo":  noticia.Titulo,
			"slug":    noticia.Slug,
			"resumen": noticia.Resumen,
		},
	})

	c.JSON(http.StatusCreated, m.respuesta(&noticia, true))
}

// NoticiaPatch distinguishes omitted fields from fields explicitly set to
// null, so a PUT can clear a value without clobbering the rest.
type NoticiaPatch struct {
	Titulo              common.Optional[string]   `json:"titulo"`
	Resumen             common.Optional[string]   `json:"resumen"`
	Contenido           common.Optional[string]   `json:"contenido"`
	Imagen              common.Optional[string]   `json:"imagen"`
	AudioURL            common.Optional[string]   `json:"audio_url"`
	VideoURL            common.Optional[string]   `json:"video_url"`
	Categoria           common.Optional[string]   `json:"categoria"`
	Tags                common.Optional[[]string] `json:"tags"`
	Destacada           common.Optional[bool]     `json:"destacada"`
	PermitirComentarios common.Optional[bool]     `json:"permitir_comentarios"`
	Fecha               common.Optional[string]   `json:"fecha"`
	AutorID             common.Optional[int]      `json:"autor_id"`
}

func (m *NoticiasModule) updateNoticia(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: id inválido", common.ErrValidation))
		return
	}

	var noticia models.Noticia
	if err := m.db.First(&noticia, id).Error; err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: noticia no encontrada", common.ErrNotFound))
		return
	}

	user := auth.CurrentUser(c)
	if err := auth.Authorize(m.db, user, &noticia); err != nil {
		common.AbortWithError(c, err)
		return
	}

	var patch NoticiaPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: cuerpo JSON inválido", common.ErrValidation))
		return
	}

	before := snapshot(&noticia)

	if patch.Titulo.Present {
		titulo := strings.TrimSpace(patch.Titulo.Get())
		if titulo == "" {
			common.AbortWithError(c, fmt.Errorf("%w: el título no puede estar vacío", common.ErrValidation))
			return
		}
		nuevoSlug := Slugify(titulo)
		if nuevoSlug == "" {
			common.AbortWithError(c, fmt.Errorf("%w: el título no produce un slug válido", common.ErrValidation))
			return
		}
		noticia.Titulo = titulo
		// adopt the regenerated slug only when no other article holds it;
		// on conflict the existing slug stays, deliberately without error
		var count int64
		if err := m.db.Model(&models.Noticia{}).Where("slug = ? AND id != ?", nuevoSlug, noticia.ID).Count(&count).Error; err != nil {
			common.AbortWithError(c, err)
			return
		}
		if count == 0 {
			noticia.Slug = nuevoSlug
		}
	}

	if patch.Resumen.Present {
		noticia.Resumen = limitChars(patch.Resumen.Get(), 50)
	}
	if patch.Contenido.Present {
		noticia.Contenido = patch.Contenido.Get()
		noticia.TiempoLectura = readingTime(noticia.Contenido)
	}
	if patch.Imagen.Present {
		noticia.ImagenPrincipal = patch.Imagen.Get()
	}
	if patch.AudioURL.Present {
		noticia.AudioURL = patch.AudioURL.Get()
	}
	if patch.VideoURL.Present {
		noticia.VideoURL = patch.VideoURL.Get()
	}
	if patch.Categoria.Present {
		if patch.Categoria.Value == nil || strings.TrimSpace(*patch.Categoria.Value) == "" {
			noticia.CategoriaID = nil
		} else {
			categoria, err := m.resolveCategoria(*patch.Categoria.Value)
			if err != nil {
				common.AbortWithError(c, err)
				return
			}
			noticia.CategoriaID = &categoria.ID
		}
	}
	if patch.Tags.Present {
		noticia.MetaKeywords = joinTags(patch.Tags.Get())
	}
	if patch.Destacada.Present {
		noticia.Destacada = patch.Destacada.Get()
	}
	if patch.PermitirComentarios.Present {
		noticia.PermiteComentarios = patch.PermitirComentarios.Get()
	}
	if patch.Fecha.Present && patch.Fecha.Value != nil {
		fecha, err := parseFecha(*patch.Fecha.Value)
		if err != nil {
			common.AbortWithError(c, fmt.Errorf("%w: fecha inválida", common.ErrValidation))
			return
		}
		noticia.FechaPublicacion = fecha
	}

	// only an admin may reassign authorship; zero or null clears it
	if patch.AutorID.Present && auth.RoleOf(m.db, user) == auth.RoleAdmin {
		if patch.AutorID.Value == nil || *patch.AutorID.Value == 0 {
			noticia.AutorID = nil
		} else {
			var autor models.Usuario
			if err := m.db.First(&autor, *patch.AutorID.Value).Error; err != nil || !autor.Activo {
				common.AbortWithError(c, fmt.Errorf("%w: autor_id inválido", common.ErrValidation))
				return
			}
			noticia.AutorID = &autor.ID
		}
	}

	if err := m.db.Save(&noticia).Error; err != nil {
		common.AbortWithError(c, err)
		return
	}

	m.appendHistorial(noticia.ID, &user.ID, accionUpdate, cambios{
		Before: before,
		After:  snapshot(&noticia),
	})

	c.JSON(http.StatusOK, m.respuesta(&noticia, true))
}

func (m *NoticiasModule) deleteNoticia(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: id inválido", common.ErrValidation))
		return
	}

	var noticia models.Noticia
	if err := m.db.First(&noticia, id).Error; err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: noticia no encontrada", common.ErrNotFound))
		return
	}

	user := auth.CurrentUser(c)
	if err := auth.Authorize(m.db, user, &noticia); err != nil {
		common.AbortWithError(c, err)
		return
	}

	// the delete record has no cascading foreign key, so it survives the
	// row removal below
	m.appendHistorial(noticia.ID, &user.ID, accionDelete, cambios{
		Before: map[string]any{
			"titulo":    noticia.Titulo,
			"slug":      noticia.Slug,
			"resumen":   noticia.Resumen,
			"contenido": noticia.Contenido,
		},
	})

	if err := m.db.Delete(&noticia).Error; err != nil {
		common.AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (m *NoticiasModule) likeNoticia(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: id inválido", common.ErrValidation))
		return
	}

	var noticia models.Noticia
	if err := m.db.First(&noticia, id).Error; err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: noticia no encontrada", common.ErrNotFound))
		return
	}

	if err := m.db.Model(&noticia).UpdateColumn("likes", gorm.Expr("likes + 1")).Error; err != nil {
		common.AbortWithError(c, err)
		return
	}
	m.db.First(&noticia, id)

	c.JSON(http.StatusOK, gin.H{"likes": noticia.Likes, "mensaje": "Like agregado correctamente"})
}
