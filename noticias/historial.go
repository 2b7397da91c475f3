package noticias

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"noticias/common"
	"noticias/models"
)

const (
	accionCreate = "create"
	accionUpdate = "update"
	accionDelete = "delete"
)

// cambios is the before/after diff payload stored with every audit record:
// only "after" for create, only "before" for delete, both for update.
type cambios struct {
	Before map[string]any `json:"before,omitempty"`
	After  map[string]any `json:"after,omitempty"`
}

// snapshot captures the audited field set of an article for update records.
func snapshot(n *models.Noticia) map[string]any {
	return map[string]any{
		"titulo":           n.Titulo,
		"slug":             n.Slug,
		"resumen":          n.Resumen,
		"contenido":        n.Contenido,
		"imagen_principal": n.ImagenPrincipal,
		"categoria_id":     n.CategoriaID,
		"destacada":        n.Destacada,
	}
}

// appendHistorial writes one audit record for a successful mutation. It is
// best-effort: the mutation already committed, so a failure here is logged
// and swallowed rather than surfaced to the client.
func (m *NoticiasModule) appendHistorial(noticiaID int, usuarioID *int, accion string, c cambios) {
	payload, err := json.Marshal(c)
	if err != nil {
		m.log.Warn().Err(err).Int("noticia_id", noticiaID).Str("accion", accion).
			Msg("no se pudo serializar el historial")
		return
	}
	record := models.NoticiaHistorial{
		NoticiaID: noticiaID,
		UsuarioID: usuarioID,
		Accion:    accion,
		Cambios:   string(payload),
	}
	if err := m.db.Create(&record).Error; err != nil {
		m.log.Warn().Err(err).Int("noticia_id", noticiaID).Str("accion", accion).
			Msg("no se pudo registrar el historial")
	}
}

type historialItem struct {
	ID            int             `json:"id"`
	NoticiaID     int             `json:"noticia_id"`
	UsuarioID     *int            `json:"usuario_id"`
	UsuarioNombre *string         `json:"usuario_nombre"`
	Accion        string          `json:"accion"`
	Cambios       json.RawMessage `json:"cambios"`
	Comentario    string          `json:"comentario"`
	CreatedAt     time.Time       `json:"created_at"`
}

// getHistorial lists an article's audit records, newest first. The acting
// user's display name is joined in at read time; a user deleted after acting
// leaves it null.
func (m *NoticiasModule) getHistorial(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: id inválido", common.ErrValidation))
		return
	}
	limite := intQuery(c, "limite", 50)
	offset := intQuery(c, "offset", 0)

	var filas []models.NoticiaHistorial
	err = m.db.Where("noticia_id = ?", id).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limite).
		Find(&filas).Error
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	items := make([]historialItem, 0, len(filas))
	for _, f := range filas {
		item := historialItem{
			ID:         f.ID,
			NoticiaID:  f.NoticiaID,
			UsuarioID:  f.UsuarioID,
			Accion:     f.Accion,
			Cambios:    json.RawMessage(f.Cambios),
			Comentario: f.Comentario,
			CreatedAt:  f.CreatedAt,
		}
		if f.UsuarioID != nil {
			var u models.Usuario
			if err := m.db.First(&u, *f.UsuarioID).Error; err == nil {
				item.UsuarioNombre = &u.NombreUsuario
			}
		}
		items = append(items, item)
	}

	c.JSON(http.StatusOK, items)
}

// lastEdit returns the most recent audit record for an article, if any.
func (m *NoticiasModule) lastEdit(noticiaID int) *models.NoticiaHistorial {
	var last models.NoticiaHistorial
	err := m.db.Where("noticia_id = ?", noticiaID).
		Order("created_at DESC, id DESC").
		First(&last).Error
	if err != nil {
		return nil
	}
	return &last
}
