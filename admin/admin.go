package admin

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"noticias/auth"
	"noticias/common"
	"noticias/models"
)

type AdminModule struct {
	db   *gorm.DB
	log  zerolog.Logger
	auth *auth.AuthModule
}

func NewAdminModule(db *gorm.DB, log zerolog.Logger, authModule *auth.AuthModule) *AdminModule {
	return &AdminModule{db: db, log: log, auth: authModule}
}

func (m *AdminModule) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/api/admin")
	group.Use(m.auth.RequireAuth, m.auth.RequireRole(auth.RoleAdmin))
	{
		group.GET("/roles", m.listRoles)
		group.POST("/roles", m.createRol)
		group.PUT("/roles/:id", m.updateRol)
		group.DELETE("/roles/:id", m.deleteRol)

		group.GET("/users", m.listUsuarios)
		group.POST("/users", m.createUsuario)
		group.PUT("/users/:id/role", m.cambiarRol)
		group.PATCH("/users/:id/toggle", m.toggleUsuario)
		group.PATCH("/users/:id/reset_password", m.resetPassword)
		group.PATCH("/users/:id/profile", m.updatePerfil)
		group.DELETE("/users/:id", m.deleteUsuario)
	}
}

func pathID(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, fmt.Errorf("%w: id inválido", common.ErrValidation)
	}
	return id, nil
}

func (m *AdminModule) listRoles(c *gin.Context) {
	var roles []models.Rol
	if err := m.db.Find(&roles).Error; err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, roles)
}

type rolRequest struct {
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
	Activo      *bool  `json:"activo"`
}

func (m *AdminModule) createRol(c *gin.Context) {
	var req rolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: cuerpo JSON inválido", common.ErrValidation))
		return
	}
	nombre := strings.ToLower(strings.TrimSpace(req.Nombre))
	if nombre == "" {
		common.AbortWithError(c, fmt.Errorf("%w: nombre de rol requerido", common.ErrValidation))
		return
	}

	var existente models.Rol
	if err := m.db.Where("nombre = ?", nombre).First(&existente).Error; err == nil {
		common.AbortWithError(c, fmt.Errorf("%w: el rol ya existe", common.ErrConflict))
		return
	}

	rol := models.Rol{Nombre: nombre, Descripcion: req.Descripcion, Activo: true}
	if err := m.db.Create(&rol).Error; err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": rol.ID, "nombre": rol.Nombre})
}

func (m *AdminModule) updateRol(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	var rol models.Rol
	if err := m.db.First(&rol, id).Error; err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: rol no encontrado", common.ErrNotFound))
		return
	}

	var req rolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: cuerpo JSON inválido", common.ErrValidation))
		return
	}
	if req.Nombre != "" {
		rol.Nombre = strings.ToLower(strings.TrimSpace(req.Nombre))
	}
	if req.Descripcion != "" {
		rol.Descripcion = req.Descripcion
	}
	if req.Activo != nil {
		rol.Activo = *req.Activo
	}

	if err := m.db.Save(&rol).Error; err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (m *AdminModule) deleteRol(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	var rol models.Rol
	if err := m.db.First(&rol, id).Error; err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: rol no encontrado", common.ErrNotFound))
		return
	}

	var enUso int64
	m.db.Model(&models.Usuario{}).Where("rol_id = ?", rol.ID).Count(&enUso)
	if enUso > 0 {
		common.AbortWithError(c, fmt.Errorf("%w: no se puede eliminar un rol en uso", common.ErrConflict))
		return
	}

	if err := m.db.Delete(&rol).Error; err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type usuarioResumen struct {
	ID            int     `json:"id"`
	NombreUsuario string  `json:"nombre_usuario"`
	Email         string  `json:"email"`
	Rol           *string `json:"rol"`
	RolID         *int    `json:"rol_id"`
	Activo        bool    `json:"activo"`
}

func (m *AdminModule) listUsuarios(c *gin.Context) {
	var usuarios []models.Usuario
	if err := m.db.Find(&usuarios).Error; err != nil {
		common.AbortWithError(c, err)
		return
	}

	var roles []models.Rol
	m.db.Find(&roles)
	rolesMap := make(map[int]string, len(roles))
	for _, r := range roles {
		rolesMap[r.ID] = r.Nombre
	}

	resumen := make([]usuarioResumen, 0, len(usuarios))
	for _, u := range usuarios {
		item := usuarioResumen{
			ID:            u.ID,
			NombreUsuario: u.NombreUsuario,
			Email:         u.Email,
			RolID:         u.RolID,
			Activo:        u.Activo,
		}
		if u.RolID != nil {
			if nombre, ok := rolesMap[*u.RolID]; ok {
				item.Rol = &nombre
			}
		}
		resumen = append(resumen, item)
	}
	c.JSON(http.StatusOK, resumen)
}

func (m *AdminModule) createUsuario(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: cuerpo JSON inválido", common.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: %v", common.ErrValidation, err))
		return
	}

	user, err := m.auth.CreateUser(req)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (m *AdminModule) cambiarRol(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	var usuario models.Usuario
	if err := m.db.First(&usuario, id).Error; err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: usuario no encontrado", common.ErrNotFound))
		return
	}

	var req struct {
		Rol string `json:"rol"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Rol) == "" {
		common.AbortWithError(c, fmt.Errorf("%w: rol requerido", common.ErrValidation))
		return
	}

	var rol models.Rol
	nombre := strings.ToLower(strings.TrimSpace(req.Rol))
	if err := m.db.Where("nombre = ?", nombre).First(&rol).Error; err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: rol %q no existe", common.ErrValidation, nombre))
		return
	}

	if err := m.db.Model(&usuario).Update("rol_id", rol.ID).Error; err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (m *AdminModule) toggleUsuario(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	var usuario models.Usuario
	if err := m.db.First(&usuario, id).Error; err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: usuario no encontrado", common.ErrNotFound))
		return
	}

	if err := m.db.Model(&usuario).Update("activo", !usuario.Activo).Error; err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activo": !usuario.Activo})
}

const tempPasswordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateTempPassword(length int) (string, error) {
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(tempPasswordAlphabet))))
		if err != nil {
			return "", err
		}
		b[i] = tempPasswordAlphabet[n.Int64()]
	}
	return string(b), nil
}

// resetPassword sets the password from the request body or, when none is
// supplied, generates a temporary one and returns it once.
func (m *AdminModule) resetPassword(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	var usuario models.Usuario
	if err := m.db.First(&usuario, id).Error; err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: usuario no encontrado", common.ErrNotFound))
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	_ = c.ShouldBindJSON(&req)

	temp := false
	password := req.Password
	if password == "" {
		password, err = generateTempPassword(10)
		if err != nil {
			common.AbortWithError(c, err)
			return
		}
		temp = true
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	if err := m.db.Model(&usuario).Update("password_hash", hash).Error; err != nil {
		common.AbortWithError(c, err)
		return
	}

	resp := gin.H{"ok": true}
	if temp {
		resp["temp_password"] = password
	}
	c.JSON(http.StatusOK, resp)
}

func (m *AdminModule) updatePerfil(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	var usuario models.Usuario
	if err := m.db.First(&usuario, id).Error; err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: usuario no encontrado", common.ErrNotFound))
		return
	}

	var patch auth.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: cuerpo JSON inválido", common.ErrValidation))
		return
	}
	if err := auth.ApplyProfilePatch(m.db, &usuario, patch); err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (m *AdminModule) deleteUsuario(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	res := m.db.Delete(&models.Usuario{}, id)
	if res.Error != nil {
		common.AbortWithError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		common.AbortWithError(c, fmt.Errorf("%w: usuario no encontrado", common.ErrNotFound))
		return
	}
	c.Status(http.StatusNoContent)
}
