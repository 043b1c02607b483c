package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Tomlord1122/task-backend/internal/logger"
	"github.com/Tomlord1122/task-backend/internal/router"
	"github.com/Tomlord1122/task-backend/internal/service"
)

const maxBodyBytes = 1 << 20

// taskIDPattern restricts the id segment to lowercase UUID characters.
const taskIDPattern = "{id:[a-z0-9-]+}"

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  logger.Adapter{Logger: s.log.With().Str("component", "http").Logger()},
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.HelloWorldHandler)
	r.Get("/health", s.healthHandler)

	dispatcher := router.NewDispatcher(s.taskRoutes())
	dispatcher.NotFound = s.routeNotFoundHandler
	r.Handle("/*", dispatcher)

	r.NotFound(s.routeNotFoundHandler)
	r.MethodNotAllowed(s.routeNotFoundHandler)

	return r
}

// taskRoutes returns the task API in lookup order.
func (s *Server) taskRoutes() *router.Table {
	t := router.NewTable()
	t.Post("/tasks", s.createTaskHandler)
	t.Get("/tasks", s.listTasksHandler)
	t.Get("/tasks/"+taskIDPattern, s.getTaskHandler)
	t.Put("/tasks/"+taskIDPattern, s.updateTaskHandler)
	t.Delete("/tasks/"+taskIDPattern, s.deleteTaskHandler)
	t.Patch("/tasks/"+taskIDPattern+"/complete", s.toggleCompleteHandler)
	return t
}

func (s *Server) HelloWorldHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Hello World from Task Backend!"})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	healthStats := s.store.Health(r.Context())
	if status, ok := healthStats["status"]; ok && status == "down" {
		respondWithJSON(w, http.StatusServiceUnavailable, healthStats)
		return
	}
	respondWithJSON(w, http.StatusOK, healthStats)
}

func (s *Server) routeNotFoundHandler(w http.ResponseWriter, r *http.Request) {
	respondWithError(w, http.StatusNotFound, "route not found")
}

func (s *Server) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTaskRequest
	if !s.decodeJSONBody(w, r, &req) {
		return
	}

	task, err := s.taskService.CreateTask(r.Context(), req)
	if err != nil {
		s.respondWithServiceError(w, r, err, "Failed to create task")
		return
	}

	respondWithJSON(w, http.StatusCreated, task)
}

func (s *Server) listTasksHandler(w http.ResponseWriter, r *http.Request) {
	search := router.ParseQuery(r.URL.RawQuery)["search"]

	tasks, err := s.taskService.ListTasks(r.Context(), search)
	if err != nil {
		s.respondWithServiceError(w, r, err, "Failed to retrieve tasks")
		return
	}

	respondWithJSON(w, http.StatusOK, tasks)
}

func (s *Server) getTaskHandler(w http.ResponseWriter, r *http.Request) {
	id := router.ParamsFrom(r).At(0)

	task, err := s.taskService.GetTask(r.Context(), id)
	if err != nil {
		s.respondWithServiceError(w, r, err, "Failed to retrieve task")
		return
	}

	respondWithJSON(w, http.StatusOK, task)
}

func (s *Server) updateTaskHandler(w http.ResponseWriter, r *http.Request) {
	id := router.ParamsFrom(r).At(0)

	var req service.UpdateTaskRequest
	if !s.decodeJSONBody(w, r, &req) {
		return
	}

	task, err := s.taskService.UpdateTask(r.Context(), id, req)
	if err != nil {
		s.respondWithServiceError(w, r, err, "Failed to update task")
		return
	}

	respondWithJSON(w, http.StatusOK, task)
}

func (s *Server) deleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	id := router.ParamsFrom(r).At(0)

	if err := s.taskService.DeleteTask(r.Context(), id); err != nil {
		s.respondWithServiceError(w, r, err, "Failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggleCompleteHandler(w http.ResponseWriter, r *http.Request) {
	id := router.ParamsFrom(r).At(0)

	task, err := s.taskService.ToggleComplete(r.Context(), id)
	if err != nil {
		s.respondWithServiceError(w, r, err, "Failed to update task")
		return
	}

	respondWithJSON(w, http.StatusOK, task)
}

// decodeJSONBody decodes a single JSON object into dst. On failure it writes
// a 400 (or 413) response and returns false.
func (s *Server) decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	err := decoder.Decode(dst)
	if err == nil {
		if decoder.More() {
			respondWithError(w, http.StatusBadRequest, "Request body must only contain a single JSON object")
			return false
		}
		return true
	}

	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError):
		msg := fmt.Sprintf("Request body contains badly-formed JSON (at position %d)", syntaxError.Offset)
		respondWithError(w, http.StatusBadRequest, msg)
	case errors.Is(err, io.ErrUnexpectedEOF):
		respondWithError(w, http.StatusBadRequest, "Request body contains badly-formed JSON")
	case errors.As(err, &unmarshalTypeError):
		msg := fmt.Sprintf("Request body contains an invalid value for the %q field (at position %d)", unmarshalTypeError.Field, unmarshalTypeError.Offset)
		respondWithError(w, http.StatusBadRequest, msg)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Request body contains unknown field %s", fieldName))
	case errors.Is(err, io.EOF):
		respondWithError(w, http.StatusBadRequest, "Request body must not be empty")
	case errors.As(err, &maxBytesError):
		respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body must not be larger than %d bytes", maxBytesError.Limit))
	default:
		s.log.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("decoding request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
	}
	return false
}

func (s *Server) respondWithServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrTaskNotFound):
		respondWithError(w, http.StatusNotFound, "task not found")
	default:
		s.log.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg(fallback)
		respondWithError(w, http.StatusInternalServerError, fallback)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error preparing response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
