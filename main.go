package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"noticias/admin"
	"noticias/auth"
	"noticias/comments"
	"noticias/common"
	"noticias/config"
	"noticias/database"
	"noticias/noticias"
	"noticias/uploads"
)

func main() {
	_ = godotenv.Load()

	log := common.NewLogger()
	log.Info().Msg("starting noticias API server")

	cfg := config.Load()

	db := common.ConnectDb(log)
	if db == nil {
		log.Fatal().Msg("failed to connect to database")
	}

	if err := database.RunMigrations(db, log); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	if err := database.ReconcileRoles(db, log); err != nil {
		log.Fatal().Err(err).Msg("failed to reconcile roles")
	}
	if err := database.Seed(db, log, cfg.Auth.SeedDefaults); err != nil {
		log.Fatal().Err(err).Msg("failed to seed defaults")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(common.RecoveryMiddleware(log))
	router.Use(common.LoggingMiddleware(log))
	router.Use(common.CORSMiddleware())

	authModule := auth.NewAuthModule(db, log, cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	authModule.RegisterRoutes(router)

	noticiasModule := noticias.NewNoticiasModule(db, log, authModule)
	noticiasModule.RegisterRoutes(router)

	comentariosModule := comments.NewComentariosModule(db, log, authModule)
	comentariosModule.RegisterRoutes(router)

	adminModule := admin.NewAdminModule(db, log, authModule)
	adminModule.RegisterRoutes(router)

	uploadsModule := uploads.NewUploadsModule(log, cfg.Uploads, authModule)
	uploadsModule.RegisterRoutes(router)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"mensaje": "Bienvenido a la API de noticias"})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Info().Str("port", cfg.Server.Port).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server error")
	}
}
