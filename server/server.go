package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"songvault/config"
	"songvault/core/auth"
	"songvault/core/songs"
	"songvault/db"
	"songvault/logger"
	"songvault/model"
	"songvault/repository"
	"songvault/storage"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogPath,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAgeDays,
		Compress:   true,
	})

	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET is not set; tokens are signed with the built-in development secret")
	} else {
		auth.SetSecret(cfg.JWTSecret)
	}

	// Re-reads .env on change so the log level can be retuned without a restart.
	stopWatch, err := config.Watch(func(updated *config.Config) {
		logger.SetLevel(updated.LogLevel)
		logger.Info("Configuration reloaded", logger.String("logLevel", updated.LogLevel))
	})
	if err != nil {
		logger.Warn("Config watcher unavailable", logger.ErrorField(err))
	} else {
		defer stopWatch()
	}

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.AutoMigrateModels(&model.User{}); err != nil {
		logger.Fatal("Failed to migrate user schema", logger.ErrorField(err))
	}
	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}

	coverStore, localCovers, err := buildCoverStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize cover storage", logger.ErrorField(err))
	}
	logger.Info("Cover storage ready", logger.String("driver", cfg.StorageDriver))

	songRepo := repository.NewMySQLSongRepository(db.DB)
	userRepo := repository.NewGormUserRepository(db.GormDB)
	songService := songs.NewService(songRepo, coverStore)

	apiHandler := NewAPIHandler(songService, userRepo, localCovers, cfg)

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)

	router.HandleFunc("/api/songs/upload-url", apiHandler.AuthMiddleware(apiHandler.UploadURLHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/songs", apiHandler.AuthMiddleware(apiHandler.GetSongsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/songs", apiHandler.AuthMiddleware(apiHandler.CreateSongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/{id}", apiHandler.AuthMiddleware(apiHandler.UpdateSongHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/songs/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteSongHandler)).Methods(http.MethodDelete)

	// With the local driver covers are plain files; serve them directly.
	if localCovers != nil {
		uploadsFileServer := http.FileServer(http.Dir(cfg.UploadDir))
		router.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", uploadsFileServer))
	}

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}

// buildCoverStore selects the storage driver. With "local" the second return
// value is the concrete store the upload handler writes files through.
func buildCoverStore(cfg *config.Config) (storage.CoverStore, *storage.LocalStore, error) {
	switch cfg.StorageDriver {
	case "local":
		local, err := storage.NewLocalStore(cfg.CoverUploadDir)
		if err != nil {
			return nil, nil, err
		}
		return local, local, nil
	default:
		store, err := storage.NewMinioStore(cfg)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
