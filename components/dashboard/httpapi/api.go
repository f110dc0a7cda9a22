package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-dashgrid/components/dashboard"
	"github.com/goliatone/go-dashgrid/components/dashboard/commands"
	"github.com/goliatone/go-dashgrid/components/dashboard/queries"
)

// Handlers exposes HTTP endpoints backed by shared commands and queries.
type Handlers struct {
	Load      gocommand.Commander[commands.LoadDocumentInput]
	Select    gocommand.Commander[commands.SelectVariableInput]
	Repeats   gocommand.Commander[commands.ProcessRepeatsInput]
	Toggle    gocommand.Commander[commands.ToggleRowInput]
	Persist   gocommand.Commander[commands.PersistDocumentInput]
	Panels    gocommand.Querier[queries.DocumentInput, dashboard.PanelsView]
	Persisted gocommand.Querier[queries.DocumentInput, map[string]any]
	// ActorResolver extracts the acting user from a request. Optional.
	ActorResolver func(*http.Request) string
}

// HandleLoadDocument loads the request body as the dashboard stored under uid.
func (h *Handlers) HandleLoadDocument(w http.ResponseWriter, r *http.Request, uid string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	input := commands.LoadDocumentInput{UID: uid, Document: body, ActorID: h.actor(r)}
	if err := h.Load.Execute(r.Context(), input); err != nil {
		respondError(w, StatusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

type selectPayload struct {
	Variable string   `json:"variable"`
	Values   []string `json:"values"`
}

// HandleSelectVariable changes a variable selection.
func (h *Handlers) HandleSelectVariable(w http.ResponseWriter, r *http.Request, uid string) {
	var payload selectPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	input := commands.SelectVariableInput{
		UID:      uid,
		Variable: payload.Variable,
		Values:   payload.Values,
		ActorID:  h.actor(r),
	}
	if err := h.Select.Execute(r.Context(), input); err != nil {
		respondError(w, StatusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HandleProcessRepeats re-expands the document's repeats.
func (h *Handlers) HandleProcessRepeats(w http.ResponseWriter, r *http.Request, uid string) {
	if err := h.Repeats.Execute(r.Context(), commands.ProcessRepeatsInput{UID: uid, ActorID: h.actor(r)}); err != nil {
		respondError(w, StatusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HandleToggleRow collapses or expands a row.
func (h *Handlers) HandleToggleRow(w http.ResponseWriter, r *http.Request, uid, panelID string) {
	id, err := strconv.Atoi(panelID)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, errors.New("panel id must be a positive integer"))
		return
	}
	if err := h.Toggle.Execute(r.Context(), commands.ToggleRowInput{UID: uid, PanelID: id, ActorID: h.actor(r)}); err != nil {
		respondError(w, StatusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HandlePersist validates and snapshots the document.
func (h *Handlers) HandlePersist(w http.ResponseWriter, r *http.Request, uid string) {
	if err := h.Persist.Execute(r.Context(), commands.PersistDocumentInput{UID: uid, ActorID: h.actor(r)}); err != nil {
		respondError(w, StatusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandlePanels writes the live panel list.
func (h *Handlers) HandlePanels(w http.ResponseWriter, r *http.Request, uid string) {
	view, err := h.Panels.Query(r.Context(), queries.DocumentInput{UID: uid})
	if err != nil {
		respondError(w, StatusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// HandlePersisted writes the persisted form.
func (h *Handlers) HandlePersisted(w http.ResponseWriter, r *http.Request, uid string) {
	persisted, err := h.Persisted.Query(r.Context(), queries.DocumentInput{UID: uid})
	if err != nil {
		respondError(w, StatusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, persisted)
}

func (h *Handlers) actor(r *http.Request) string {
	if h.ActorResolver != nil {
		return h.ActorResolver(r)
	}
	return strings.TrimSpace(r.Header.Get("X-Actor-ID"))
}

// StatusFor maps dashboard errors onto HTTP status codes. Router adapters
// share it.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, dashboard.ErrDocumentNotFound),
		errors.Is(err, dashboard.ErrVariableNotFound),
		errors.Is(err, dashboard.ErrPanelNotFound):
		return http.StatusNotFound
	case errors.Is(err, dashboard.ErrInvalidDocument),
		errors.Is(err, dashboard.ErrNotRow):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, map[string]string{"error": err.Error()})
}
