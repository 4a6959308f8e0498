package main

import (
	"fmt"
	"net/http"

	"github.com/bcms/bcms"
	"go.uber.org/zap"
)

type validateRequest struct {
	Props  []bcms.Prop      `json:"props"`
	Values []bcms.PropValue `json:"values"`
	Level  string           `json:"level"`
}

type migrateRequest struct {
	Props   []bcms.Prop       `json:"props"`
	Changes []bcms.PropChange `json:"changes"`
	Level   string            `json:"level"`
}

type cycleRequest struct {
	Props []bcms.Prop          `json:"props"`
	Path  []bcms.PropPathEntry `json:"path"`
	Level string               `json:"level"`
}

type groupChangesRequest struct {
	Changes []bcms.PropChange `json:"changes"`
}

func levelOrDefault(level string) string {
	if level == "" {
		return "props"
	}
	return level
}

// handleValidate handles POST /api/v1/props/validate
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var payload validateRequest
	if err := readJSONBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
		return
	}

	if err := s.engine.CheckPropValues(r.Context(), payload.Props, payload.Values, levelOrDefault(payload.Level)); err != nil {
		writeEngineError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"valid": true})
}

// handleMigrate handles POST /api/v1/props/migrate
func (s *Server) handleMigrate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var payload migrateRequest
	if err := readJSONBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
		return
	}

	props, err := s.engine.ApplyPropChanges(r.Context(), payload.Props, payload.Changes, levelOrDefault(payload.Level))
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"props": props})
}

// handleCycle handles POST /api/v1/props/cycle
func (s *Server) handleCycle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var payload cycleRequest
	if err := readJSONBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
		return
	}

	if err := s.engine.TestInfiniteLoop(r.Context(), payload.Props, payload.Path, levelOrDefault(payload.Level)); err != nil {
		writeEngineError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"cycle": false})
}

// handleEntries handles GET /api/v1/entries/{id}/parsed
func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entryID, action, err := parsePath(r.URL.Path, "entries")
	if err != nil || action != "parsed" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	maxDepth, err := parseMaxDepth(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := s.store.FindEntryByID(r.Context(), entryID)
	if err != nil {
		zap.S().Errorw("entry lookup failed", "entryId", entryID, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("entry lookup failed: %v", err))
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("entry %q not found", entryID))
		return
	}

	tree, err := s.engine.ParseEntry(r.Context(), entry, maxDepth, r.URL.Query().Get("lng"))
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tree)
}

// handleGroups handles POST /api/v1/groups/{id}/changes
func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	groupID, action, err := parsePath(r.URL.Path, "groups")
	if err != nil || action != "changes" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var payload groupChangesRequest
	if err := readJSONBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
		return
	}

	group, err := s.store.FindGroupByID(r.Context(), groupID)
	if err != nil {
		zap.S().Errorw("group lookup failed", "groupId", groupID, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("group lookup failed: %v", err))
		return
	}
	if group == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("group %q not found", groupID))
		return
	}

	props, err := s.engine.UpdateGroupProps(r.Context(), group, payload.Changes)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	saved := false
	if s.writer != nil {
		group.Props = props
		if err := s.writer.SaveGroup(r.Context(), group); err != nil {
			zap.S().Errorw("group save failed", "groupId", groupID, "error", err)
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("group save failed: %v", err))
			return
		}
		if invalidator, ok := s.engine.(bcms.CacheInvalidator); ok {
			invalidator.InvalidateGroup(group.ID)
		}
		saved = s.durable
	}

	writeSuccess(w, http.StatusOK, map[string]any{"props": props, "saved": saved})
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{"status": "ok"})
}
