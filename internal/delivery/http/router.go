package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"gatherly/internal/delivery/http/controllers"
	"gatherly/internal/delivery/http/helpers"
	"gatherly/internal/delivery/http/middleware"
	"gatherly/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(eventController *controllers.EventController, authController *controllers.AuthController, verifier domain.TokenVerifier) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier)

	// Auth
	mux.HandleFunc("POST /api/auth/register", authController.Register)
	mux.HandleFunc("POST /api/auth/login", authController.Login)

	// Events
	mux.HandleFunc("POST /api/events", auth(eventController.CreateEvent))
	mux.HandleFunc("GET /api/events/organized", auth(eventController.GetMyOrganizedEvents))
	mux.HandleFunc("GET /api/events/invited", auth(eventController.GetMyInvitedEvents))
	mux.HandleFunc("GET /api/events/all", auth(eventController.GetAllMyEvents))
	mux.HandleFunc("GET /api/events/search", auth(eventController.SearchEvents))
	mux.HandleFunc("GET /api/events/{eventID}", auth(eventController.GetEventByID))
	mux.HandleFunc("PATCH /api/events/{eventID}", auth(eventController.UpdateEventDetails))
	mux.HandleFunc("DELETE /api/events/{eventID}", auth(eventController.DeleteEvent))
	mux.HandleFunc("POST /api/events/{eventID}/invite", auth(eventController.InviteToEvent))
	mux.HandleFunc("PATCH /api/events/{eventID}/status", auth(eventController.UpdateAttendanceStatus))
	mux.HandleFunc("GET /api/events/{eventID}/attendees", auth(eventController.GetEventAttendees))

	// Healthcheck
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "not found")
			return
		}
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
