package database

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"noticias/auth"
	"noticias/models"
)

func RunMigrations(db *gorm.DB, log zerolog.Logger) error {
	log.Info().Msg("running database migrations")

	err := db.AutoMigrate(
		&models.Rol{},
		&models.Categoria{},
		&models.EstadoNoticia{},
		&models.Usuario{},
		&models.Noticia{},
		&models.NoticiaHistorial{},
		&models.Comentario{},
	)
	if err != nil {
		log.Error().Err(err).Msg("error running migrations")
		return err
	}

	log.Info().Msg("migrations completed")
	return nil
}

// requiredRoles is the desired role set. ReconcileRoles diffs the stored
// roles against it: missing roles are created, users holding any other role
// are moved to editor, and the extra roles are removed.
var requiredRoles = []models.Rol{
	{
		Nombre:      string(auth.RoleAdmin),
		Descripcion: "Administrador del sistema",
		Permisos:    `{"all":true}`,
	},
	{
		Nombre:      string(auth.RoleEditor),
		Descripcion: "Editor de contenido (puede crear/editar/publicar)",
		Permisos:    `{"create_articles":true,"edit_articles":true,"publish_articles":true,"delete_articles":false}`,
	},
}

// ReconcileRoles is an idempotent deployment-time step; running it twice in
// a row is a no-op the second time.
func ReconcileRoles(db *gorm.DB, log zerolog.Logger) error {
	byName := make(map[string]models.Rol, len(requiredRoles))

	for _, want := range requiredRoles {
		var rol models.Rol
		err := db.Where("nombre = ?", want.Nombre).First(&rol).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			rol = want
			rol.Activo = true
			if err := db.Create(&rol).Error; err != nil {
				return fmt.Errorf("creando rol %s: %w", want.Nombre, err)
			}
			log.Info().Str("rol", rol.Nombre).Int("id", rol.ID).Msg("rol creado")
		} else if err != nil {
			return err
		}
		byName[rol.Nombre] = rol
	}

	editorID := byName[string(auth.RoleEditor)].ID
	names := []string{string(auth.RoleAdmin), string(auth.RoleEditor)}

	// Orphaned users (role deleted, or role outside the desired set) are
	// reassigned to editor before the extra roles go away.
	var extraRoles []models.Rol
	if err := db.Where("nombre NOT IN ?", names).Find(&extraRoles).Error; err != nil {
		return err
	}
	extraIDs := make([]int, 0, len(extraRoles))
	for _, r := range extraRoles {
		extraIDs = append(extraIDs, r.ID)
	}

	if len(extraIDs) > 0 {
		res := db.Model(&models.Usuario{}).Where("rol_id IN ?", extraIDs).Update("rol_id", editorID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			log.Info().Int64("usuarios", res.RowsAffected).Msg("usuarios reasignados a editor")
		}
		if err := db.Delete(&models.Rol{}, extraIDs).Error; err != nil {
			return err
		}
		log.Info().Int("roles", len(extraIDs)).Msg("roles fuera del conjunto requerido eliminados")
	}

	return nil
}

// Seed guarantees the default publication state and, when enabled, the
// default admin and editor accounts. Intended for fresh deployments; change
// the passwords afterwards.
func Seed(db *gorm.DB, log zerolog.Logger, createDefaultUsers bool) error {
	var estado models.EstadoNoticia
	err := db.Where("nombre = ?", "publicado").First(&estado).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		estado = models.EstadoNoticia{Nombre: "publicado", Descripcion: "Publicado", ColorHex: "#28a745", Activo: true}
		if err := db.Create(&estado).Error; err != nil {
			return fmt.Errorf("creando estado publicado: %w", err)
		}
		log.Info().Int("id", estado.ID).Msg("estado 'publicado' creado")
	} else if err != nil {
		return err
	}

	if !createDefaultUsers {
		return nil
	}

	defaults := []struct {
		username, email, password, rol, nombre, titulo string
	}{
		{"admin", "admin@local", "admin", string(auth.RoleAdmin), "Administrador del Sistema", "Administrador Principal"},
		{"editor", "editor@local", "editor123", string(auth.RoleEditor), "Editor de Contenido", "Editor"},
	}

	for _, d := range defaults {
		var existing models.Usuario
		err := db.Where("nombre_usuario = ?", d.username).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var rol models.Rol
		if err := db.Where("nombre = ?", d.rol).First(&rol).Error; err != nil {
			return fmt.Errorf("rol %s no existe, ejecutar ReconcileRoles primero: %w", d.rol, err)
		}
		hash, err := auth.HashPassword(d.password)
		if err != nil {
			return err
		}
		user := models.Usuario{
			NombreUsuario:  d.username,
			Email:          d.email,
			PasswordHash:   hash,
			RolID:          &rol.ID,
			NombreCompleto: d.nombre,
			Titulo:         d.titulo,
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("creando usuario %s: %w", d.username, err)
		}
		log.Info().Str("usuario", d.username).Msg("usuario por defecto creado")
	}

	return nil
}
