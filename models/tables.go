package models

import "time"

type Rol struct {
	ID          int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Nombre      string    `gorm:"size:50;unique;not null" json:"nombre"`
	Descripcion string    `gorm:"type:text" json:"descripcion"`
	Permisos    string    `gorm:"type:text" json:"-"` // JSON-serialized permission bag
	Activo      bool      `gorm:"default:true" json:"activo"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Rol) TableName() string { return "roles" }

type Categoria struct {
	ID           int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Nombre       string    `gorm:"size:100;unique;not null" json:"nombre"`
	Slug         string    `gorm:"size:120;uniqueIndex;not null" json:"slug"`
	Descripcion  string    `gorm:"type:text" json:"descripcion"`
	ColorHex     string    `gorm:"size:7;default:'#007bff'" json:"color_hex"`
	OrdenDisplay int       `gorm:"default:0" json:"orden_display"`
	Activa       bool      `gorm:"default:true" json:"activa"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Categoria) TableName() string { return "categorias" }

type EstadoNoticia struct {
	ID          int    `gorm:"primaryKey;autoIncrement" json:"id"`
	Nombre      string `gorm:"size:50;unique;not null" json:"nombre"`
	Descripcion string `gorm:"type:text" json:"descripcion"`
	ColorHex    string `gorm:"size:7;default:'#28a745'" json:"color_hex"`
	Activo      bool   `gorm:"default:true" json:"activo"`
}

func (EstadoNoticia) TableName() string { return "estados_noticia" }

type Usuario struct {
	ID             int       `gorm:"primaryKey;autoIncrement" json:"id"`
	NombreUsuario  string    `gorm:"size:100;uniqueIndex;not null" json:"nombre_usuario"`
	Email          string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"size:255;not null" json:"-"` // json:"-" prevents password from being exposed in API
	RolID          *int      `gorm:"index" json:"rol_id"`
	NombreCompleto string    `gorm:"size:200" json:"nombre_completo"`
	Avatar         string    `gorm:"type:text" json:"avatar"`
	Titulo         string    `gorm:"size:150" json:"titulo"`
	Biografia      string    `gorm:"type:text" json:"biografia"`
	FrasePersonal  string    `gorm:"type:text" json:"frase_personal"`
	Activo         bool      `gorm:"default:true" json:"activo"`
	Verificado     bool      `gorm:"default:false" json:"verificado"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Usuario) TableName() string { return "usuarios" }

type Noticia struct {
	ID                 int        `gorm:"primaryKey;autoIncrement" json:"id"`
	Titulo             string     `gorm:"size:300;not null" json:"titulo"`
	Slug               string     `gorm:"size:350;uniqueIndex;not null" json:"slug"`
	Resumen            string     `gorm:"type:text" json:"resumen"`
	Contenido          string     `gorm:"type:text;not null" json:"contenido"`
	ImagenPrincipal    string     `gorm:"type:text" json:"imagen"`
	AudioURL           string     `gorm:"type:text" json:"audio_url"`
	VideoURL           string     `gorm:"type:text" json:"video_url"`
	CategoriaID        *int       `gorm:"index" json:"categoria_id"`
	AutorID            *int       `gorm:"index" json:"autor_id"`
	EstadoID           *int       `json:"estado_id"`
	FechaPublicacion   time.Time  `gorm:"not null" json:"fecha"`
	FechaProgramada    *time.Time `json:"fecha_programada,omitempty"`
	Visitas            int        `gorm:"default:0" json:"vistas"`
	Likes              int        `gorm:"default:0" json:"likes"`
	Shares             int        `gorm:"default:0" json:"compartidos"`
	TiempoLectura      int        `gorm:"default:0" json:"tiempo_lectura"`
	Destacada          bool       `gorm:"default:false" json:"destacada"`
	PermiteComentarios bool       `gorm:"default:true" json:"permitir_comentarios"`
	MetaKeywords       string     `gorm:"type:text" json:"-"` // comma-joined tags, exposed as a list
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	DeletedAt          *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

func (Noticia) TableName() string { return "noticias" }

// NoticiaHistorial is append-only. NoticiaID is a plain indexed column with
// no enforced foreign key, so the delete record written for an article
// survives the article's removal.
type NoticiaHistorial struct {
	ID         int       `gorm:"primaryKey;autoIncrement" json:"id"`
	NoticiaID  int       `gorm:"not null;index" json:"noticia_id"`
	UsuarioID  *int      `gorm:"index" json:"usuario_id"`
	Accion     string    `gorm:"size:50;not null" json:"accion"` // create, update, delete
	Cambios    string    `gorm:"type:text" json:"-"`             // JSON before/after payload
	Comentario string    `gorm:"type:text" json:"comentario"`
	CreatedAt  time.Time `json:"created_at"`
}

func (NoticiaHistorial) TableName() string { return "noticia_historial" }

type Comentario struct {
	ID          int       `gorm:"primaryKey;autoIncrement" json:"id"`
	NoticiaID   int       `gorm:"not null;index" json:"noticia_id"`
	UsuarioID   *int      `gorm:"index" json:"usuario_id"`
	AutorNombre string    `gorm:"size:100" json:"autor_nombre"`
	AutorEmail  string    `gorm:"size:255" json:"autor_email"`
	Contenido   string    `gorm:"type:text;not null" json:"contenido"`
	Aprobado    bool      `gorm:"default:false" json:"aprobado"`
	Likes       int       `gorm:"default:0" json:"likes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Comentario) TableName() string { return "comentarios" }
