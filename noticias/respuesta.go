package noticias

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"gorm.io/gorm"

	"noticias/common"
	"noticias/models"
)

// markdown renderer for article bodies
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Linkify,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithUnsafe(),
	),
)

// AutorInfo is the denormalized author block attached to article responses.
type AutorInfo struct {
	Nombre      string `json:"nombre"`
	Titulo      string `json:"titulo,omitempty"`
	Descripcion string `json:"descripcion,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	Frase       string `json:"frase,omitempty"`
}

// NoticiaRespuesta is the external article shape: the stored record plus the
// derived fields the storage model keeps normalized or denormalized
// differently (tags as a list, category by name, resolved author block).
type NoticiaRespuesta struct {
	models.Noticia
	Tags          []string   `json:"tags"`
	Categoria     string     `json:"categoria,omitempty"`
	AutorInfo     *AutorInfo `json:"autor_info,omitempty"`
	ContenidoHTML string     `json:"contenido_html,omitempty"`
	LastEditedBy  *string    `json:"last_edited_by,omitempty"`
	LastEditedAt  *time.Time `json:"last_edited_at,omitempty"`
}

// respuesta builds the external representation. renderHTML is reserved for
// detail endpoints; listings skip the markdown pass.
func (m *NoticiasModule) respuesta(n *models.Noticia, renderHTML bool) NoticiaRespuesta {
	resp := NoticiaRespuesta{
		Noticia: *n,
		Tags:    splitTags(n.MetaKeywords),
	}

	if n.CategoriaID != nil {
		var categoria models.Categoria
		if err := m.db.First(&categoria, *n.CategoriaID).Error; err == nil {
			resp.Categoria = categoria.Nombre
		}
	}

	if n.AutorID != nil {
		var autor models.Usuario
		if err := m.db.First(&autor, *n.AutorID).Error; err == nil {
			resp.AutorInfo = &AutorInfo{
				Nombre:      autor.NombreUsuario,
				Titulo:      autor.Titulo,
				Descripcion: autor.Biografia,
				Avatar:      autor.Avatar,
				Frase:       autor.FrasePersonal,
			}
		}
	}

	if renderHTML && n.Contenido != "" {
		var buf bytes.Buffer
		if err := md.Convert([]byte(n.Contenido), &buf); err == nil {
			resp.ContenidoHTML = buf.String()
		}
	}

	if last := m.lastEdit(n.ID); last != nil {
		if last.UsuarioID != nil {
			var u models.Usuario
			if err := m.db.First(&u, *last.UsuarioID).Error; err == nil {
				resp.LastEditedBy = &u.NombreUsuario
			}
		}
		t := last.CreatedAt
		resp.LastEditedAt = &t
	}

	return resp
}

func intQuery(c *gin.Context, name string, fallback int) int {
	if v := c.Query(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

func (m *NoticiasModule) listNoticias(c *gin.Context) {
	query := m.db.Model(&models.Noticia{})

	if categoria := strings.TrimSpace(c.Query("categoria")); categoria != "" && !strings.EqualFold(categoria, "todas") {
		query = query.Joins("LEFT JOIN categorias ON categorias.id = noticias.categoria_id").
			Where("lower(categorias.nombre) = ?", strings.ToLower(categoria))
	}
	if destacada := c.Query("destacada"); destacada != "" {
		valor, err := strconv.ParseBool(destacada)
		if err != nil {
			common.AbortWithError(c, fmt.Errorf("%w: destacada debe ser booleano", common.ErrValidation))
			return
		}
		query = query.Where("noticias.destacada = ?", valor)
	}
	if buscar := c.Query("buscar"); buscar != "" {
		needle := "%" + buscar + "%"
		query = query.Where("noticias.titulo LIKE ? OR noticias.contenido LIKE ? OR noticias.resumen LIKE ?", needle, needle, needle)
	}

	var noticias []models.Noticia
	err := query.Order("noticias.fecha_publicacion DESC").
		Offset(intQuery(c, "offset", 0)).
		Limit(intQuery(c, "limite", 20)).
		Find(&noticias).Error
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	respuestas := make([]NoticiaRespuesta, 0, len(noticias))
	for i := range noticias {
		respuestas = append(respuestas, m.respuesta(&noticias[i], false))
	}
	c.JSON(http.StatusOK, respuestas)
}

func (m *NoticiasModule) listNoticiasAdmin(c *gin.Context) {
	var noticias []models.Noticia
	if err := m.db.Order("fecha_publicacion DESC").Find(&noticias).Error; err != nil {
		common.AbortWithError(c, err)
		return
	}
	respuestas := make([]NoticiaRespuesta, 0, len(noticias))
	for i := range noticias {
		respuestas = append(respuestas, m.respuesta(&noticias[i], false))
	}
	c.JSON(http.StatusOK, respuestas)
}

func (m *NoticiasModule) getNoticia(c *gin.Context) {
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
	c.JSON(http.StatusOK, m.respuesta(&noticia, true))
}

// getNoticiaBySlug is the public reading path; it counts the visit.
func (m *NoticiasModule) getNoticiaBySlug(c *gin.Context) {
	var noticia models.Noticia
	if err := m.db.Where("slug = ?", c.Param("slug")).First(&noticia).Error; err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: noticia no encontrada", common.ErrNotFound))
		return
	}

	if err := m.db.Model(&noticia).UpdateColumn("visitas", gorm.Expr("visitas + 1")).Error; err != nil {
		m.log.Warn().Err(err).Int("noticia_id", noticia.ID).Msg("no se pudo incrementar visitas")
	} else {
		noticia.Visitas++
	}

	c.JSON(http.StatusOK, m.respuesta(&noticia, true))
}

func (m *NoticiasModule) listCategorias(c *gin.Context) {
	var nombres []string
	err := m.db.Model(&models.Categoria{}).
		Where("activa = ?", true).
		Order("orden_display, nombre").
		Pluck("nombre", &nombres).Error
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, nombres)
}

func (m *NoticiasModule) listTags(c *gin.Context) {
	var columnas []string
	err := m.db.Model(&models.Noticia{}).
		Where("meta_keywords IS NOT NULL AND meta_keywords != ''").
		Pluck("meta_keywords", &columnas).Error
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	seen := map[string]bool{}
	tags := []string{}
	for _, columna := range columnas {
		for _, t := range splitTags(columna) {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	sort.Slice(tags, func(i, j int) bool {
		return strings.ToLower(tags[i]) < strings.ToLower(tags[j])
	})
	c.JSON(http.StatusOK, tags)
}

func (m *NoticiasModule) estadisticas(c *gin.Context) {
	var total, destacadas int64
	m.db.Model(&models.Noticia{}).Count(&total)
	m.db.Model(&models.Noticia{}).Where("destacada = ?", true).Count(&destacadas)

	var vistas, likes int64
	m.db.Model(&models.Noticia{}).Select("COALESCE(SUM(visitas), 0)").Scan(&vistas)
	m.db.Model(&models.Noticia{}).Select("COALESCE(SUM(likes), 0)").Scan(&likes)

	promedio := 0.0
	if total > 0 {
		promedio = math.Round(float64(vistas)/float64(total)*100) / 100
	}

	c.JSON(http.StatusOK, gin.H{
		"total_noticias":      total,
		"noticias_destacadas": destacadas,
		"total_vistas":        vistas,
		"total_likes":         likes,
		"promedio_vistas":     promedio,
	})
}
