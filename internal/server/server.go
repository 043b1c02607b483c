package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tomlord1122/task-backend/internal/config"
	"github.com/Tomlord1122/task-backend/internal/repository"
	"github.com/Tomlord1122/task-backend/internal/service"
)

type Server struct {
	port           int
	allowedOrigins []string
	taskService    service.TaskService
	store          repository.TaskRepository
	log            zerolog.Logger
}

func New(cfg *config.Config, taskService service.TaskService, store repository.TaskRepository, log zerolog.Logger) *Server {
	return &Server{
		port:           cfg.Port,
		allowedOrigins: cfg.CORS.AllowedOrigins,
		taskService:    taskService,
		store:          store,
		log:            log,
	}
}

// NewServer wires the task API into an *http.Server listening on cfg.Port.
func NewServer(cfg *config.Config, taskService service.TaskService, store repository.TaskRepository, log zerolog.Logger) *http.Server {
	appServer := New(cfg, taskService, store, log)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", appServer.port),
		Handler:      appServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
