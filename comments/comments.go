package comments

import (
	"fmt"
	"net/http"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"noticias/auth"
	"noticias/common"
	"noticias/models"
)

type ComentariosModule struct {
	db   *gorm.DB
	log  zerolog.Logger
	auth *auth.AuthModule
}

func NewComentariosModule(db *gorm.DB, log zerolog.Logger, authModule *auth.AuthModule) *ComentariosModule {
	return &ComentariosModule{db: db, log: log, auth: authModule}
}

func (m *ComentariosModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/noticias/:id/comentarios", m.listComentarios)
	router.POST("/api/noticias/:id/comentarios", m.auth.OptionalAuth, m.createComentario)

	group := router.Group("/api/comentarios")
	group.Use(m.auth.RequireAuth, m.auth.RequireRole(auth.RoleAdmin, auth.RoleEditor))
	{
		group.PATCH("/:id/aprobar", m.aprobarComentario)
		group.DELETE("/:id", m.deleteComentario)
	}
}

func (m *ComentariosModule) listComentarios(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: id inválido", common.ErrValidation))
		return
	}

	var comentarios []models.Comentario
	err = m.db.Where("noticia_id = ? AND aprobado = ?", id, true).
		Order("created_at DESC").
		Find(&comentarios).Error
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, comentarios)
}

type comentarioCrear struct {
	Contenido   string `json:"contenido"`
	AutorNombre string `json:"autor_nombre"`
	AutorEmail  string `json:"autor_email"`
}

func (r comentarioCrear) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Contenido, validation.Required),
	)
}

func (m *ComentariosModule) createComentario(c *gin.Context) {
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
	if !noticia.PermiteComentarios {
		common.AbortWithError(c, fmt.Errorf("%w: la noticia no permite comentarios", common.ErrForbidden))
		return
	}

	var req comentarioCrear
	if err := c.ShouldBindJSON(&req); err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: cuerpo JSON inválido", common.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: %v", common.ErrValidation, err))
		return
	}

	comentario := models.Comentario{
		NoticiaID:   noticia.ID,
		Contenido:   req.Contenido,
		AutorNombre: req.AutorNombre,
		AutorEmail:  req.AutorEmail,
	}

	// comments from elevated users skip the moderation queue
	if user := auth.CurrentUser(c); user != nil {
		comentario.UsuarioID = &user.ID
		comentario.AutorNombre = user.NombreUsuario
		comentario.Aprobado = auth.RoleOf(m.db, user).Elevated()
	}

	if err := m.db.Create(&comentario).Error; err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comentario)
}

func (m *ComentariosModule) aprobarComentario(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: id inválido", common.ErrValidation))
		return
	}

	var comentario models.Comentario
	if err := m.db.First(&comentario, id).Error; err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: comentario no encontrado", common.ErrNotFound))
		return
	}

	if err := m.db.Model(&comentario).Update("aprobado", true).Error; err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (m *ComentariosModule) deleteComentario(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: id inválido", common.ErrValidation))
		return
	}

	res := m.db.Delete(&models.Comentario{}, id)
	if res.Error != nil {
		common.AbortWithError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		common.AbortWithError(c, fmt.Errorf("%w: comentario no encontrado", common.ErrNotFound))
		return
	}
	c.Status(http.StatusNoContent)
}
