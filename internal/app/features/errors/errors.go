// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/setliststudio/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// ErrorLogger logs request-time failures with the request's path and method.
type ErrorLogger struct {
	logger *zap.Logger
}

// NewErrorLogger creates a new ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{logger: logger}
}

// Log logs an error with the given message.
func (e *ErrorLogger) Log(r *http.Request, msg string, err error, fields ...zap.Field) {
	all := append([]zap.Field{
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	}, fields...)
	e.logger.Error(msg, all...)
}

// ServerError logs err and renders the 500 page.
func (e *ErrorLogger) ServerError(w http.ResponseWriter, r *http.Request, msg string, err error, fields ...zap.Field) {
	e.Log(r, msg, err, fields...)
	InternalError(w, r)
}

type errorVM struct {
	viewdata.BaseVM
	Status  int
	Message string
}

func render(w http.ResponseWriter, r *http.Request, status int, title, message string) {
	vm := errorVM{BaseVM: viewdata.New(r), Status: status, Message: message}
	vm.Title = title

	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	templates.Render(w, r, "errors/page", vm)
}

// NotFound renders the 404 page.
func NotFound(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusNotFound, "Not Found",
		"We couldn't find that page. It may have been moved or deleted.")
}

// Forbidden renders the 403 page.
func Forbidden(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusForbidden, "Access Denied",
		"You don't have access to this page.")
}

// Unauthorized renders the 401 page.
func Unauthorized(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusUnauthorized, "Sign In Required",
		"Please sign in to continue.")
}

// InternalError renders the 500 page.
func InternalError(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusInternalServerError, "Something Went Wrong",
		"An unexpected error occurred. Please try again.")
}

// Handler exposes the error pages as handlers for router fallbacks.
type Handler struct{}

// NewHandler creates a new error Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound renders the 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) { NotFound(w, r) }

// MethodNotAllowed renders the 404 page for GETs and a bare 405 otherwise.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		NotFound(w, r)
		return
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

// Forbidden renders the 403 page.
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) { Forbidden(w, r) }

// Unauthorized renders the 401 page.
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) { Unauthorized(w, r) }

// InternalError renders the 500 page.
func (h *Handler) InternalError(w http.ResponseWriter, r *http.Request) { InternalError(w, r) }
