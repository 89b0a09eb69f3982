package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/launchpad/pkg/httputil"
	"github.com/platinummonkey/launchpad/pkg/projects"
)

// ProjectHandlers handles the caller's project records
type ProjectHandlers struct {
	projectService ProjectService
}

// NewProjectHandlers creates a new ProjectHandlers
func NewProjectHandlers(projectService ProjectService) *ProjectHandlers {
	return &ProjectHandlers{projectService: projectService}
}

// RegisterRoutes registers project routes on the /api/user subrouter
func (h *ProjectHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/create-project", h.Create).Methods(http.MethodPost)
	router.HandleFunc("/projects", h.List).Methods(http.MethodGet)
	router.HandleFunc("/projects/{projectId}", h.Get).Methods(http.MethodGet)
	router.HandleFunc("/projects/{projectId}", h.Update).Methods(http.MethodPut)
	router.HandleFunc("/projects/{projectId}", h.Delete).Methods(http.MethodDelete)
}

// Create records a new project for the caller
func (h *ProjectHandlers) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req projects.CreateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	project, err := h.projectService.Create(r.Context(), userID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httputil.WriteCreated(w, ProjectResponse{Success: true, Message: "Project created successfully", Project: project})
}

// List returns the caller's projects, newest first
func (h *ProjectHandlers) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	list, err := h.projectService.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []projects.Project{}
	}
	_ = httputil.WriteSuccess(w, ProjectsResponse{Success: true, Projects: list})
}

// Get returns one of the caller's projects
func (h *ProjectHandlers) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	projectID, ok := httputil.ParsePathInt64OrError(w, r, "projectId")
	if !ok {
		return
	}

	project, err := h.projectService.Get(r.Context(), userID, projectID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, ProjectResponse{Success: true, Project: project})
}

// Update renames a project and replaces its description
func (h *ProjectHandlers) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	projectID, ok := httputil.ParsePathInt64OrError(w, r, "projectId")
	if !ok {
		return
	}

	var req projects.UpdateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	project, err := h.projectService.Update(r.Context(), userID, projectID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, ProjectResponse{Success: true, Message: "Project updated successfully", Project: project})
}

// Delete removes one of the caller's projects
func (h *ProjectHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	projectID, ok := httputil.ParsePathInt64OrError(w, r, "projectId")
	if !ok {
		return
	}

	if err := h.projectService.Delete(r.Context(), userID, projectID); err != nil {
		writeError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, MessageResponse{Success: true, Message: "Project deleted successfully"})
}
