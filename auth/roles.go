package auth

import (
	"noticias/models"

	"gorm.io/gorm"
)

// Role is the closed set of role identities the API reasons about. Role
// checks go through the predicates below instead of ad hoc string
// comparisons at call sites.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleNone   Role = ""
)

// Elevated reports whether the role may mutate any article regardless of
// authorship.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleEditor
}

// RoleOf resolves a user's role name. Users without a role, or with a role
// row that no longer exists, get RoleNone.
func RoleOf(db *gorm.DB, user *models.Usuario) Role {
	if user == nil || user.RolID == nil {
		return RoleNone
	}
	var rol models.Rol
	if err := db.First(&rol, *user.RolID).Error; err != nil {
		return RoleNone
	}
	return Role(rol.Nombre)
}
