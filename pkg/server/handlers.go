package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	orgerr "github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/org"
	"github.com/matzehuels/orgchart/pkg/pipeline"
	"github.com/matzehuels/orgchart/pkg/settings"
)

// sourceName labels in-memory loads in pipeline logs.
const sourceName = "memory"

// requestOptions returns pipeline options for the caller: current settings,
// the session's top-user override and the admin flag.
func (s *Server) requestOptions(r *http.Request) pipeline.Options {
	st, err := s.settings.Load(r.Context())
	if err != nil {
		s.logger.Warn("settings unavailable, using defaults", "error", err)
	}
	sess := sessionFrom(r.Context())
	opts := pipeline.Options{
		Source:     sourceName,
		Settings:   &st,
		EnvTopUser: s.cfg.EnvTopUser,
		Now:        s.now(),
		Logger:     s.logger,
		Admin:      sess.Authenticated(),
	}
	if email, ok := sess.TopUser(); ok {
		opts.TopUser = &email
	}
	return opts
}

// hierarchy builds the caller's hierarchy from the current snapshot.
func (s *Server) hierarchy(ctx context.Context, opts pipeline.Options) (*org.Hierarchy, error) {
	records, _ := s.snapshot()
	return s.runner.Load(ctx, staticSource(records), opts)
}

func (s *Server) handleEmployees(w http.ResponseWriter, r *http.Request) {
	h, err := s.hierarchy(r.Context(), s.requestOptions(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Root)
}

func (s *Server) handleEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := orgerr.ValidateEmployeeID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	h, err := s.hierarchy(r.Context(), s.requestOptions(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e := h.Root.Find(id)
	if e == nil {
		writeMessage(w, http.StatusNotFound, "Employee not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	if len([]rune(q)) < org.MinSearchQuery {
		writeJSON(w, http.StatusOK, []org.Summary{})
		return
	}
	h, err := s.hierarchy(r.Context(), s.requestOptions(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, org.Search(h.Root, q, org.DefaultSearchLimit))
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.settings.Load(r.Context())
	if err != nil {
		s.logger.Warn("settings unavailable, using defaults", "error", err)
	}
	var override *string
	if email, ok := sessionFrom(r.Context()).TopUser(); ok {
		override = &email
	}
	st.TopUserEmail = st.TopUser(override, s.cfg.EnvTopUser)
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handlePostSettings(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := settings.Update(r.Context(), s.settings, data); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("settings updated", "user", sessionFrom(r.Context()).Username)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleSetTopUser(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	raw, ok := body["topUserEmail"]
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Missing topUserEmail parameter")
		return
	}
	var email *string
	if err := json.Unmarshal(raw, &email); err != nil {
		writeMessage(w, http.StatusBadRequest, "topUserEmail must be a string")
		return
	}
	requested := ""
	if email != nil {
		requested = strings.TrimSpace(*email)
	}
	if err := orgerr.ValidateEmail(requested); err != nil {
		s.writeError(w, r, err)
		return
	}

	sess, err := s.ensureSession(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess.SetTopUser(requested)
	if err := s.saveSession(w, r, sess); err != nil {
		s.writeError(w, r, err)
		return
	}

	label := requested
	if label == "" {
		label = "auto-detect"
	}
	s.logger.Info("stored top user preference", "top_user", label, "remote", r.RemoteAddr)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "topUserEmail": requested})
}

func (s *Server) handleSetMultiline(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	raw, ok := body["multiLineChildrenEnabled"]
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Missing multiLineChildrenEnabled parameter")
		return
	}
	patch, _ := json.Marshal(map[string]bool{"multiLineChildrenEnabled": truthy(raw)})
	if _, err := settings.Update(r.Context(), s.settings, patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// truthy interprets a JSON value the way a loose client sends booleans.
func truthy(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	case nil:
		return false
	}
	return true
}

func (s *Server) handleResetSettings(w http.ResponseWriter, r *http.Request) {
	if _, err := settings.Reset(r.Context(), s.settings); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("settings reset", "user", sessionFrom(r.Context()).Username)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleUpdateNow reloads the source in the background.
func (s *Server) handleUpdateNow(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("manual update triggered", "user", sessionFrom(r.Context()).Username)
	go func() {
		if _, err := s.Reload(context.Background()); err != nil {
			s.logger.Error("manual update failed", "error", err)
		}
	}()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Update started"})
}

type metadataOptions struct {
	JobTitles   []string `json:"jobTitles"`
	Departments []string `json:"departments"`
	Employees   []string `json:"employees"`
}

// handleMetadataOptions lists values for the ignore-list pickers. It reads
// the unfiltered snapshot so already ignored entries stay selectable.
func (s *Server) handleMetadataOptions(w http.ResponseWriter, r *http.Request) {
	records, _ := s.snapshot()
	writeJSON(w, http.StatusOK, metadataOptions{
		JobTitles:   org.UniqueValues(records, func(e *org.Employee) string { return e.Title }),
		Departments: org.UniqueValues(records, func(e *org.Employee) string { return e.Department }),
		Employees:   org.OptionLabels(records),
	})
}
