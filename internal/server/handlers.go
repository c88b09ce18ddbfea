package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	json "github.com/goccy/go-json"

	"github.com/promptdeck/promptdeck/internal/identity"
)

// maxUploadBytes bounds uploaded list files.
const maxUploadBytes = 1 << 20

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	var authErr *identity.AuthError
	if errors.As(err, &authErr) {
		resp.Reason = authErr.Reason
	}
	writeJSON(w, httpStatus(err), resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if s.verifier == nil {
		writeError(w, &identity.AuthError{Reason: identity.ReasonInvalidClaims, Err: errors.New("token auth is disabled")})
		return
	}

	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &identity.AuthError{Reason: identity.ReasonMissingToken, Err: err})
		return
	}

	user, err := s.verifier.Verify(req.Token)
	if err != nil {
		writeError(w, err)
		return
	}

	s.provider.SignIn(user)
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleSignOut(w http.ResponseWriter, _ *http.Request) {
	s.provider.SignOut()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWhoAmI(w http.ResponseWriter, _ *http.Request) {
	user, ok := s.provider.Current()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"signedIn": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"signedIn": true, "user": user})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleNext(w http.ResponseWriter, _ *http.Request) {
	prompt, err := s.ctrl.Next()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"prompt": prompt})
}

func (s *Server) handleMarkUsed(w http.ResponseWriter, r *http.Request) {
	prompt, err := s.ctrl.MarkCurrentUsed(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"prompt": prompt})
}

func (s *Server) handleAllPrompts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.AllPrompts())
}

func (s *Server) handleEditPrompt(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid prompt index"})
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := s.ctrl.EditPrompt(r.Context(), index, req.Text); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleDeletePrompt(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid prompt index"})
		return
	}

	deleted, err := s.ctrl.DeletePrompt(r.Context(), index)
	if err != nil {
		// The prompt may already be gone from the in-view list even though
		// persistence failed; the client needs both facts.
		writeJSON(w, httpStatus(err), struct {
			Deleted bool   `json:"deleted"`
			Error   string `json:"error"`
		}{deleted, err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (s *Server) handleLists(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Lists(r.Context()))
}

func (s *Server) handleSwitchBuiltIn(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.SwitchToBuiltIn(chi.URLParam(r, "slug")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleSwitchList(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.SwitchToList(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleRenameList(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := s.ctrl.RenameCurrentList(r.Context(), req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	confirmed := r.URL.Query().Get("confirm") == "true"

	deleted, err := s.ctrl.DeleteList(r.Context(), chi.URLParam(r, "id"), confirmed)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read upload"})
		return
	}

	if err := s.ctrl.UploadText(r.Context(), string(raw)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleGetSidebar(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"visible": s.prefs.SidebarVisible()})
}

func (s *Server) handleSetSidebar(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Visible bool `json:"visible"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	s.prefs.SetSidebarVisible(req.Visible)
	writeJSON(w, http.StatusOK, map[string]bool{"visible": req.Visible})
}
