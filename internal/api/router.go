package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware,
// including the audit-firings endpoint.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/version", s.handleVersion)
	r.Get("/api/devices", s.handleListDevices)
	r.Get("/api/devices/{id}", s.handleGetDevice)
	r.Get("/api/rules", s.handleListRules)
	r.Post("/api/rules/reload", s.handleReloadRules)
	r.Post("/api/rules/{id}/enable", s.handleEnableRule)
	r.Post("/api/rules/{id}/disable", s.handleDisableRule)
	r.Post("/api/actuators/{id}/set", s.handleSetActuator)
	r.Get("/api/audit/rule-firings", s.handleAuditRuleFirings)

	r.Get(s.wsPath, s.handleWebSocket)

	return r
}
