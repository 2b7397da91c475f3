package noticias

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"noticias/auth"
	"noticias/models"
)

const testSecret = "test-secret"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Rol{}, &models.Categoria{}, &models.EstadoNoticia{},
		&models.Usuario{}, &models.Noticia{}, &models.NoticiaHistorial{},
		&models.Comentario{},
	))

	for _, nombre := range []string{"admin", "editor"} {
		require.NoError(t, db.Create(&models.Rol{Nombre: nombre, Activo: true}).Error)
	}
	return db
}

func setupRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	log := zerolog.Nop()

	authModule := auth.NewAuthModule(db, log, testSecret, time.Hour)
	authModule.RegisterRoutes(router)
	NewNoticiasModule(db, log, authModule).RegisterRoutes(router)
	return router
}

func createTestUser(t *testing.T, db *gorm.DB, username string, rol auth.Role) *models.Usuario {
	t.Helper()
	user := &models.Usuario{
		NombreUsuario: username,
		Email:         username + "@example.com",
		PasswordHash:  "hash",
		Activo:        true,
	}
	if rol != auth.RoleNone {
		var r models.Rol
		require.NoError(t, db.Where("nombre = ?", string(rol)).First(&r).Error)
		user.RolID = &r.ID
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func tokenFor(t *testing.T, user *models.Usuario, rol auth.Role) string {
	t.Helper()
	token, err := auth.CreateAccessToken(testSecret, user.NombreUsuario, rol, time.Hour)
	require.NoError(t, err)
	return token
}

func doJSON(router *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeRespuesta(t *testing.T, w *httptest.ResponseRecorder) NoticiaRespuesta {
	t.Helper()
	var resp NoticiaRespuesta
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func historialDe(t *testing.T, db *gorm.DB, noticiaID int) []models.NoticiaHistorial {
	t.Helper()
	var filas []models.NoticiaHistorial
	require.NoError(t, db.Where("noticia_id = ?", noticiaID).Order("id").Find(&filas).Error)
	return filas
}

func TestCreateNoticia(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db)

	w := doJSON(router, "POST", "/api/noticias", gin.H{
		"titulo":    "Hola Mundo",
		"contenido": "un contenido breve",
		"tags":      []string{"go", "api"},
	}, "")

	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeRespuesta(t, w)
	assert.Equal(t, "hola-mundo", resp.Slug)
	assert.Equal(t, 1, resp.TiempoLectura)
	assert.Equal(t, []string{"go", "api"}, resp.Tags)
	assert.Nil(t, resp.AutorID) // anonymous creation

	filas := historialDe(t, db, resp.ID)
	require.Len(t, filas, 1)
	assert.Equal(t, "create", filas[0].Accion)
	assert.Nil(t, filas[0].UsuarioID)

	var c cambios
	require.NoError(t, json.Unmarshal([]byte(filas[0].Cambios), &c))
	assert.Nil(t, c.Before)
	assert.Equal(t, "Hola Mundo", c.After["titulo"])
	assert.Equal(t, "hola-mundo", c.After["slug"])
}

func TestCreateNoticiaConAutor(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db)
	user := createTestUser(t, db, "reportero", auth.RoleNone)

	w := doJSON(router, "POST", "/api/noticias", gin.H{
		"titulo":    "Con Autor",
		"contenido": "texto",
	}, tokenFor(t, user, auth.RoleNone))

	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeRespuesta(t, w)
	require.NotNil(t, resp.AutorID)
	assert.Equal(t, user.ID, *resp.AutorID)
	require.NotNil(t, resp.AutorInfo)
	assert.Equal(t, "reportero", resp.AutorInfo.Nombre)
}

func TestCreateNoticiaTituloInvalido(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db)

	w := doJSON(router, "POST", "/api/noticias", gin.H{"titulo": "", "contenido": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// título de sólo puntuación produce slug vacío
	w = doJSON(router, "POST", "/api/noticias", gin.H{"titulo": "!!!", "contenido": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateNoticiaSlugSufijos(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db)

	slugs := []string{}
	for i := 0; i < 3; i++ {
		w := doJSON(router, "POST", "/api/noticias", gin.H{"titulo": "Hello World!", "contenido": "x"}, "")
		require.Equal(t, http.StatusCreated, w.Code)
		slugs = append(slugs, decodeRespuesta(t, w).Slug)
	}
	assert.Equal(t, []string{"hello-world", "hello-world-1", "hello-world-2"}, slugs)
}

func TestCreateNoticiaAcentosColisionan(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db)

	w := doJSON(router, "POST", "/api/noticias", gin.H{"titulo": "Hello World!", "contenido": "x"}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "hello-world", decodeRespuesta(t, w).Slug)

	w = doJSON(router, "POST", "/api/noticias", gin.H{"titulo": "héllo wőrld", "contenido": "x"}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "hello-world-1", decodeRespuesta(t, w).Slug)
}

func TestCienSlugsDistintos(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		w := doJSON(router, "POST", "/api/noticias", gin.H{"titulo": "Misma Noticia", "contenido": "x"}, "")
		require.Equal(t, http.StatusCreated, w.Code)
		slug := decodeRespuesta(t, w).Slug
		assert.False(t, seen[slug], "slug repetido: %s", slug)
		seen[slug] = true
		assert.Regexp(t, `^misma-noticia(-\d+)?$`, slug)
	}
	assert.Len(t, seen, 100)
}

func TestCreateCategoriaUpsert(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db)

	for i := 0; i < 2; i++ {
		w := doJSON(router, "POST", "/api/noticias", gin.H{
			"titulo":    fmt.Sprintf("Nota %d", i),
			"contenido": "x",
			"categoria": "Deportes",
		}, "")
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "Deportes", decodeRespuesta(t, w).Categoria)
	}

	var count int64
	db.Model(&models.Categoria{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestCreateResumenLimitado(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db)

	largo := ""
	for i := 0; i < 20; i++ {
		largo += "resumen "
	}
	w := doJSON(router, "POST", "/api/noticias", gin.H{"titulo": "Resumen Largo", "contenido": "x", "resumen": largo}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, []rune(decodeRespuesta(t, w).Resumen), 50)
}

func TestUpdateNoticia(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db)
	editor := createTestUser(t, db, "editora", auth.RoleEditor)

	w := doJSON(router, "POST", "/api/noticias", gin.H{"titulo": "Original", "contenido": "uno dos tres"}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	creada := decodeRespuesta(t, w)

	w = doJSON(router, "PUT", fmt.Sprintf("/api/noticias/%d", creada.ID), gin.H{
		"titulo": "Titulo Nuevo",
		"tags":   []string{"uno", "dos"},
	}, tokenFor(t, editor, auth.RoleEditor))
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeRespuesta(t, w)
	assert.Equal(t, "Titulo Nuevo", resp.Titulo)
	assert.Equal(t, "titulo-nuevo", resp.Slug)
	assert.Equal(t, []string{"uno", "dos"}, resp.Tags)

	filas := historialDe(t, db, creada.ID)
	require.Len(t, filas, 2)
	assert.Equal(t, "update", filas[1].Accion)

	var c cambios
	require.NoError(t, json.Unmarshal([]byte(filas[1].Cambios), &c))
	assert.Equal(t, "Original", c.Before["titulo"])
	assert.Equal(t, "original", c.Before["slug"])
	assert.Equal(t, "Titulo Nuevo", c.After["titulo"])
	assert.Equal(t, "titulo-nuevo", c.After["slug"])
}

func TestUpdateSlugConflictoConservaElAnterior(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db)
	editor := createTestUser(t, db, "editora", auth.RoleEditor)

	w := doJSON(router, "POST", "/api/noticias", gin.H{"titulo": "Hello World", "contenido": "x"}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(router, "POST", "/api/noticias", gin.H{"titulo": "Otra Nota", "contenido": "x"}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	otra := decodeRespuesta(t, w)

	// el título cambia pero el slug regenerado ya pertenece a otra noticia:
	// se conserva el slug existente sin error
	w = doJSON(router, "PUT", fmt.Sprintf("/api/noticias/%d", otra.ID), gin.H{
		"titulo": "Hello World",
	}, tokenFor(t, editor, auth.RoleEditor))
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeRespuesta(t, w)
	assert.Equal(t, "Hello World", resp.Titulo)
	assert.Equal(t, "otra-nota", resp.Slug)
}

func TestUpdateRecalculaTiempoLectura(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db)
	editor := createTestUser(t, db, "editora", auth.RoleEditor)

	w := doJSON(router, "POST", "/api/noticias", gin.H{"titulo": "Lectura", "contenido": "breve"}, "")
	creada := decodeRespuesta(t, w)
	assert.Equal(t, 1, creada.TiempoLectura)

	contenido := ""
	for i := 0; i < 450; i++ {
		contenido += "palabra "
	}
	w = doJSON(router, "PUT", fmt.Sprintf("/api/noticias/%d", creada.ID), gin.H{"contenido": contenido}, tokenFor(t, editor, auth.RoleEditor))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, decodeRespuesta(t, w).TiempoLectura)
}

func TestUpdateAutorizacion(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db)

	autor := createTestUser(t, db, "autor", auth.RoleNone)
	otro := createTestUser(t, db, "otro", auth.RoleNone)
	editor := createTestUser(t, db, "editora", auth.RoleEditor)

	w := doJSON(router, "POST", "/api/noticias", gin.H{"titulo": "De Autor", "contenido": "x"}, tokenFor(t, autor, auth.RoleNone))
	require.Equal(t, http.StatusCreated, w.Code)
	noticia := decodeRespuesta(t, w)
	path := fmt.Sprintf("/api/noticias/%d", noticia.ID)

	// sin token: 401
	w = doJSON(router, "PUT", path, gin.H{"resumen": "r"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// usuario sin rol y sin autoría: 403
	w = doJSON(router, "PUT", path, gin.H{"resumen": "r"}, tokenFor(t, otro, auth.RoleNone))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// el propio autor puede
	w = doJSON(router, "PUT", path, gin.H{"resumen": "del autor"}, tokenFor(t, autor, auth.RoleNone))
	assert.Equal(t, http.StatusOK, w.Code)

	// un editor puede con cualquier noticia
	w = doJSON(router, "PUT", path, gin.H{"resumen": "del editor"}, tokenFor(t, editor, auth.RoleEditor))
	assert.Equal(t, http.StatusOK, w.Code)

	// y también eliminar
	w = doJSON(router, "DELETE", path, nil, tokenFor(t, otro, auth.RoleNone))
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(router, "DELETE", path, nil, tokenFor(t, editor, auth.RoleEditor))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestUpdateReasignarAutorSoloAdmin(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db)

	admin := createTestUser(t, db, "admin1", auth.RoleAdmin)
	editor := createTestUser(t, db, "editora", auth.RoleEditor)
	nuevo := createTestUser(t, db, "nuevo", auth.RoleNone)

	w := doJSON(router, "POST", "/api/noticias", gin.H{"titulo": "Reasignable", "contenido": "x"}, "")
	noticia := decodeRespuesta(t, w)
	path := fmt.Sprintf("/api/noticias/%d", noticia.ID)

	// un editor no reasigna autoría: el campo se ignora
	w = doJSON(router, "PUT", path, gin.H{"autor_id": nuevo.ID}, tokenFor(t, editor, auth.RoleEditor))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decodeRespuesta(t, w).AutorID)

	// un admin sí
	w = doJSON(router, "PUT", path, gin.H{"autor_id": nuevo.ID}, tokenFor(t, admin, auth.RoleAdmin))
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeRespuesta(t, w)
	require.NotNil(t, resp.AutorID)
	assert.Equal(t, nuevo.ID, *resp.AutorID)

	// autor inexistente o inactivo: 400
	w = doJSON(router, "PUT", path, gin.H{"autor_id": 9999}, tokenFor(t, admin, auth.RoleAdmin))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// cero limpia la autoría
	w = doJSON(router, "PUT", path, gin.H{"autor_id": 0}, tokenFor(t, admin, auth.RoleAdmin))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decodeRespuesta(t, w).AutorID)
}

func TestDeleteConservaHistorial(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db)
	editor := createTestUser(t, db, "editora", auth.RoleEditor)

	w := doJSON(router, "POST", "/api/noticias", gin.H{"titulo": "Efimera", "contenido": "texto corto"}, "")
	noticia := decodeRespuesta(t, w)

	w = doJSON(router, "DELETE", fmt.Sprintf("/api/noticias/%d", noticia.ID), nil, tokenFor(t, editor, auth.RoleEditor))
	require.Equal(t, http.StatusNoContent, w.Code)

	var count int64
	db.Model(&models.Noticia{}).Where("id = ?", noticia.ID).Count(&count)
	assert.EqualValues(t, 0, count)

	// el registro de borrado sobrevive a la noticia
	filas := historialDe(t, db, noticia.ID)
	require.Len(t, filas, 2)
	assert.Equal(t, "delete", filas[1].Accion)

	var c cambios
	require.NoError(t, json.Unmarshal([]byte(filas[1].Cambios), &c))
	assert.Equal(t, "Efimera", c.Before["titulo"])
	assert.Equal(t, "texto corto", c.Before["contenido"])
	assert.Nil(t, c.After)
}

func TestHistorialFallidoNoAfectaLaMutacion(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db)

	// simula un almacén de auditoría roto
	require.NoError(t, db.Migrator().DropTable(&models.NoticiaHistorial{}))

	w := doJSON(router, "POST", "/api/noticias", gin.H{"titulo": "Sin Historial", "contenido": "x"}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	noticia := decodeRespuesta(t, w)
	assert.Equal(t, "sin-historial", noticia.Slug)

	require.NoError(t, db.AutoMigrate(&models.NoticiaHistorial{}))
	assert.Empty(t, historialDe(t, db, noticia.ID))
}

func TestGetHistorialEndpoint(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db)
	editor := createTestUser(t, db, "editora", auth.RoleEditor)

	w := doJSON(router, "POST", "/api/noticias", gin.H{"titulo": "Con Historia", "contenido": "x"}, "")
	noticia := decodeRespuesta(t, w)
	path := fmt.Sprintf("/api/noticias/%d", noticia.ID)

	doJSON(router, "PUT", path, gin.H{"resumen": "uno"}, tokenFor(t, editor, auth.RoleEditor))
	doJSON(router, "PUT", path, gin.H{"resumen": "dos"}, tokenFor(t, editor, auth.RoleEditor))

	w = doJSON(router, "GET", path+"/historial", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var items []historialItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 3)

	// más reciente primero
	assert.Equal(t, "update", items[0].Accion)
	assert.Equal(t, "update", items[1].Accion)
	assert.Equal(t, "create", items[2].Accion)

	require.NotNil(t, items[0].UsuarioNombre)
	assert.Equal(t, "editora", *items[0].UsuarioNombre)

	// si el usuario desaparece, sólo se degrada el nombre
	require.NoError(t, db.Delete(&models.Usuario{}, editor.ID).Error)
	w = doJSON(router, "GET", path+"/historial", nil, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	assert.Nil(t, items[0].UsuarioNombre)
	assert.NotNil(t, items[0].UsuarioID)
}

func TestGetPorSlugIncrementaVisitas(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db)

	doJSON(router, "POST", "/api/noticias", gin.H{"titulo": "Visitada", "contenido": "# Hola\n\ntexto"}, "")

	for i := 1; i <= 3; i++ {
		w := doJSON(router, "GET", "/api/noticias/slug/visitada", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeRespuesta(t, w)
		assert.Equal(t, i, resp.Visitas)
		assert.Contains(t, resp.ContenidoHTML, "<h1")
	}
}

func TestLikeNoticia(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db)

	w := doJSON(router, "POST", "/api/noticias", gin.H{"titulo": "Con Likes", "contenido": "x"}, "")
	noticia := decodeRespuesta(t, w)

	for i := 1; i <= 2; i++ {
		w = doJSON(router, "POST", fmt.Sprintf("/api/noticias/%d/like", noticia.ID), nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.EqualValues(t, i, resp["likes"])
	}

	w = doJSON(router, "POST", "/api/noticias/9999/like", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListNoticiasFiltros(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db)

	doJSON(router, "POST", "/api/noticias", gin.H{"titulo": "Futbol Hoy", "contenido": "gol del partido", "categoria": "Deportes", "destacada": true}, "")
	doJSON(router, "POST", "/api/noticias", gin.H{"titulo": "Bolsa Sube", "contenido": "mercado al alza", "categoria": "Economia"}, "")
	doJSON(router, "POST", "/api/noticias", gin.H{"titulo": "Sin Categoria", "contenido": "texto generico"}, "")

	var lista []NoticiaRespuesta

	w := doJSON(router, "GET", "/api/noticias", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lista))
	assert.Len(t, lista, 3)

	w = doJSON(router, "GET", "/api/noticias?categoria=deportes", nil, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lista))
	require.Len(t, lista, 1)
	assert.Equal(t, "Futbol Hoy", lista[0].Titulo)

	w = doJSON(router, "GET", "/api/noticias?categoria=todas", nil, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lista))
	assert.Len(t, lista, 3)

	w = doJSON(router, "GET", "/api/noticias?destacada=true", nil, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lista))
	require.Len(t, lista, 1)
	assert.Equal(t, "Futbol Hoy", lista[0].Titulo)

	w = doJSON(router, "GET", "/api/noticias?buscar=mercado", nil, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lista))
	require.Len(t, lista, 1)
	assert.Equal(t, "Bolsa Sube", lista[0].Titulo)

	w = doJSON(router, "GET", "/api/noticias?limite=2", nil, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lista))
	assert.Len(t, lista, 2)
}

func TestListCategoriasYTags(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db)

	doJSON(router, "POST", "/api/noticias", gin.H{"titulo": "A", "contenido": "x", "categoria": "Deportes", "tags": []string{"gol", "Anime"}}, "")
	doJSON(router, "POST", "/api/noticias", gin.H{"titulo": "B", "contenido": "x", "categoria": "Economia", "tags": []string{"bolsa", "gol"}}, "")

	w := doJSON(router, "GET", "/api/noticias/categorias", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var categorias []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &categorias))
	assert.ElementsMatch(t, []string{"Deportes", "Economia"}, categorias)

	w = doJSON(router, "GET", "/api/noticias/tags", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var tags []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tags))
	assert.Equal(t, []string{"Anime", "bolsa", "gol"}, tags)
}

func TestEstadisticas(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db)

	doJSON(router, "POST", "/api/noticias", gin.H{"titulo": "Uno", "contenido": "x", "destacada": true}, "")
	doJSON(router, "POST", "/api/noticias", gin.H{"titulo": "Dos", "contenido": "x"}, "")
	doJSON(router, "GET", "/api/noticias/slug/uno", nil, "")
	doJSON(router, "GET", "/api/noticias/slug/uno", nil, "")
	doJSON(router, "GET", "/api/noticias/slug/dos", nil, "")

	w := doJSON(router, "GET", "/api/noticias/estadisticas/resumen", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 2, resp["total_noticias"])
	assert.EqualValues(t, 1, resp["noticias_destacadas"])
	assert.EqualValues(t, 3, resp["total_vistas"])
	assert.EqualValues(t, 1.5, resp["promedio_vistas"])
}

func TestListAdminRequiereRol(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db)

	user := createTestUser(t, db, "simple", auth.RoleNone)
	editor := createTestUser(t, db, "editora", auth.RoleEditor)

	w := doJSON(router, "GET", "/api/noticias/admin/all", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, "GET", "/api/noticias/admin/all", nil, tokenFor(t, user, auth.RoleNone))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(router, "GET", "/api/noticias/admin/all", nil, tokenFor(t, editor, auth.RoleEditor))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetNoticiaNoEncontrada(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db)

	w := doJSON(router, "GET", "/api/noticias/4242", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, "GET", "/api/noticias/slug/nada", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
