package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"noticias/common"
	"noticias/models"
)

type AuthModule struct {
	db     *gorm.DB
	log    zerolog.Logger
	secret string
	expiry time.Duration
}

func NewAuthModule(db *gorm.DB, log zerolog.Logger, secret string, expiry time.Duration) *AuthModule {
	return &AuthModule{db: db, log: log, secret: secret, expiry: expiry}
}

func (a *AuthModule) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/api/auth")
	{
		group.POST("/login", a.login)
		group.GET("/me", a.RequireAuth, a.me)
		group.POST("/register", a.RequireAuth, a.RequireRole(RoleAdmin), a.register)
		group.PATCH("/me/profile", a.RequireAuth, a.updateMyProfile)
	}
}

// getUserByUsernameOrEmail looks a user up by username or email,
// case-insensitively and ignoring surrounding whitespace.
func (a *AuthModule) getUserByUsernameOrEmail(value string) *models.Usuario {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return nil
	}
	var user models.Usuario
	err := a.db.Where("lower(nombre_usuario) = ? OR lower(email) = ?", value, value).First(&user).Error
	if err != nil {
		return nil
	}
	return &user
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthModule) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: cuerpo JSON inválido", common.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: %v", common.ErrValidation, err))
		return
	}

	user := a.getUserByUsernameOrEmail(req.Username)
	if user == nil || !CheckPasswordHash(req.Password, user.PasswordHash) {
		common.AbortWithError(c, fmt.Errorf("%w: credenciales inválidas", common.ErrUnauthorized))
		return
	}

	token, err := CreateAccessToken(a.secret, user.NombreUsuario, RoleOf(a.db, user), a.expiry)
	if err != nil {
		a.log.Error().Err(err).Msg("error firmando token")
		common.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

func (a *AuthModule) me(c *gin.Context) {
	c.JSON(http.StatusOK, CurrentUser(c))
}

type RegisterRequest struct {
	NombreUsuario  string `json:"nombre_usuario"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Rol            string `json:"rol"`
	NombreCompleto string `json:"nombre_completo"`
	Avatar         string `json:"avatar"`
	Titulo         string `json:"titulo"`
	Biografia      string `json:"bio"`
	FrasePersonal  string `json:"frase"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NombreUsuario, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(4, 0)),
		validation.Field(&r.Rol, validation.Required),
	)
}

// register creates a user. Admin only: the public API has no self-service
// signup.
func (a *AuthModule) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: cuerpo JSON inválido", common.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: %v", common.ErrValidation, err))
		return
	}

	user, err := a.CreateUser(req)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// CreateUser persists a new user after duplicate and role checks. Shared
// with the admin module.
func (a *AuthModule) CreateUser(req RegisterRequest) (*models.Usuario, error) {
	var existing models.Usuario
	err := a.db.Where("email = ? OR nombre_usuario = ?", req.Email, req.NombreUsuario).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("%w: email o nombre de usuario ya existe", common.ErrConflict)
	}

	var rol models.Rol
	if err := a.db.Where("nombre = ?", strings.ToLower(strings.TrimSpace(req.Rol))).First(&rol).Error; err != nil {
		return nil, fmt.Errorf("%w: rol %q no existe", common.ErrValidation, req.Rol)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := models.Usuario{
		NombreUsuario:  strings.TrimSpace(req.NombreUsuario),
		Email:          strings.TrimSpace(req.Email),
		PasswordHash:   hash,
		RolID:          &rol.ID,
		NombreCompleto: req.NombreCompleto,
		Avatar:         req.Avatar,
		Titulo:         req.Titulo,
		Biografia:      req.Biografia,
		FrasePersonal:  req.FrasePersonal,
	}
	if err := a.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ProfilePatch distinguishes omitted fields from fields explicitly cleared
// with null.
type ProfilePatch struct {
	NombreCompleto common.Optional[string] `json:"nombre_completo"`
	Avatar         common.Optional[string] `json:"avatar"`
	Titulo         common.Optional[string] `json:"titulo"`
	Biografia      common.Optional[string] `json:"bio"`
	FrasePersonal  common.Optional[string] `json:"frase"`
}

// ApplyProfilePatch writes the present fields of patch onto user.
func ApplyProfilePatch(db *gorm.DB, user *models.Usuario, patch ProfilePatch) error {
	if patch.NombreCompleto.Present {
		user.NombreCompleto = patch.NombreCompleto.Get()
	}
	if patch.Avatar.Present {
		user.Avatar = patch.Avatar.Get()
	}
	if patch.Titulo.Present {
		user.Titulo = patch.Titulo.Get()
	}
	if patch.Biografia.Present {
		user.Biografia = patch.Biografia.Get()
	}
	if patch.FrasePersonal.Present {
		user.FrasePersonal = patch.FrasePersonal.Get()
	}
	return db.Save(user).Error
}

func (a *AuthModule) updateMyProfile(c *gin.Context) {
	user := CurrentUser(c)

	var patch ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		common.AbortWithError(c, fmt.Errorf("%w: cuerpo JSON inválido", common.ErrValidation))
		return
	}
	if err := ApplyProfilePatch(a.db, user, patch); err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
