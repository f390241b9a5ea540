package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/iotgw/internal/runtime"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"version": s.version})
}

func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.ListDevices())
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, ok := s.engine.GetDevice(id)
	if !ok {
		writeError(w, http.StatusNotFound, "device_not_found", "device not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// ruleView is the flattened rule shape returned by GET /api/rules: the
// nested when/then shape of rules.Rule collapses to a single condition's
// fields.
type ruleView struct {
	ID       string  `json:"id"`
	Category string  `json:"category"`
	Enabled  bool    `json:"enabled"`
	SensorID string  `json:"sensor_id"`
	Op       string  `json:"op"`
	Value    float64 `json:"value"`
}

func (s *Server) handleListRules(w http.ResponseWriter, _ *http.Request) {
	all := s.engine.ListRules()
	views := make([]ruleView, 0, len(all))
	for _, r := range all {
		views = append(views, ruleView{
			ID:       r.ID,
			Category: string(r.Category),
			Enabled:  r.Enabled,
			SensorID: r.When.SensorID,
			Op:       r.When.Op,
			Value:    r.When.Value,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleReloadRules(w http.ResponseWriter, _ *http.Request) {
	if err := s.engine.ReloadRulesOp(); err != nil {
		writeInternalError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleEnableRule(w http.ResponseWriter, r *http.Request) {
	s.setRuleEnabled(w, r, true)
}

func (s *Server) handleDisableRule(w http.ResponseWriter, r *http.Request) {
	s.setRuleEnabled(w, r, false)
}

func (s *Server) setRuleEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	id := chi.URLParam(r, "id")
	if !s.engine.SetRuleEnabled(id, enabled) {
		writeError(w, http.StatusNotFound, "rule_not_found", "rule not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// actuatorSetBody accepts value as either a JSON number or a string —
// rules.Action.Value is always a string, so a numeric body is rendered
// through runtime.FormatNumber before being published.
type actuatorSetBody struct {
	Value json.RawMessage `json:"value"`
}

func (s *Server) handleSetActuator(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeBadRequest(w, "id is required")
		return
	}

	var body actuatorSetBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Value) == 0 {
		writeBadRequest(w, "value is required")
		return
	}

	value, ok := decodeActuatorValue(body.Value)
	if !ok {
		writeBadRequest(w, "value must be a string or number")
		return
	}

	if !s.engine.SetActuatorValue(id, value) {
		writeServiceUnavailable(w, "mqtt not connected")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func decodeActuatorValue(raw json.RawMessage) (string, bool) {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString, true
	}
	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return runtime.FormatNumber(asNumber), true
	}
	return "", false
}

// auditActionView mirrors audit.ActionFiring with its JSON field names.
type auditActionView struct {
	Type      string `json:"type"`
	Target    string `json:"target"`
	Detail    string `json:"detail"`
	Published bool   `json:"published"`
}

type auditFiringView struct {
	ID            string            `json:"id"`
	RuleID        string            `json:"rule_id"`
	SensorID      string            `json:"sensor_id"`
	Value         float64           `json:"value"`
	FiredAtUnixMs int64             `json:"fired_at_unix_ms"`
	Actions       []auditActionView `json:"actions"`
}

// handleAuditRuleFirings serves GET /api/audit/rule-firings. Absence of
// the audit store degrades to 200 [] rather than an error.
func (s *Server) handleAuditRuleFirings(w http.ResponseWriter, r *http.Request) {
	views := []auditFiringView{}

	if s.audit != nil {
		ruleID := r.URL.Query().Get("rule_id")
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}

		firings, err := s.audit.RecentFirings(r.Context(), ruleID, limit)
		if err != nil {
			s.logger.Warn("audit", "failed to read rule firings: "+err.Error())
		} else {
			for _, f := range firings {
				actions := make([]auditActionView, 0, len(f.Actions))
				for _, a := range f.Actions {
					actions = append(actions, auditActionView{
						Type:      a.ActionType,
						Target:    a.Target,
						Detail:    a.Detail,
						Published: a.Published,
					})
				}
				views = append(views, auditFiringView{
					ID:            f.ID,
					RuleID:        f.RuleID,
					SensorID:      f.SensorID,
					Value:         f.Value,
					FiredAtUnixMs: f.FiredAtUnixMs,
					Actions:       actions,
				})
			}
		}
	}

	writeJSON(w, http.StatusOK, views)
}
