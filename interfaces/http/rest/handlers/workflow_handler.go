package handlers

import (
	"encoding/json"
	"net/http"

	"matflow/application/commands"
	"matflow/application/queries"
	"matflow/domain/core/entities"
	"matflow/domain/core/valueobjects"
	"matflow/pkg/common"
	pkgerrors "matflow/pkg/errors"

	"github.com/go-chi/chi/v5"
)

// WorkflowHandler serves the /workflows endpoints
type WorkflowHandler struct {
	*Deps
}

// NewWorkflowHandler creates a new workflow handler
func NewWorkflowHandler(deps *Deps) *WorkflowHandler {
	return &WorkflowHandler{Deps: deps}
}

// SaveWorkflowRequest is the body of POST /workflows. The workflow may be
// sent as an exported JSON array or as a string holding one.
type SaveWorkflowRequest struct {
	Workflow json.RawMessage `json:"workflow"`
}

// blob returns "" for a missing or null workflow.
func (req SaveWorkflowRequest) blob() string {
	if len(req.Workflow) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(req.Workflow, &s); err == nil {
		return s
	}
	return string(req.Workflow)
}

// Save handles POST /workflows
func (h *WorkflowHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req SaveWorkflowRequest
	if !h.decode(w, r, &req) {
		return
	}
	workflowID := valueobjects.NewWorkflowID().String()
	err := h.CommandBus.Send(r.Context(), commands.SaveWorkflowCommand{
		WorkflowID: workflowID,
		UserID:     userID,
		Workflow:   req.blob(),
	})
	if err != nil {
		h.Errors.Handle(w, r, err)
		return
	}

	view, err := h.get(r, userID, workflowID)
	if err != nil {
		h.Errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, common.Message("Workflow saved!").With("workflow", view))
}

// List handles GET /workflows?page&page_size
func (h *WorkflowHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	params := common.ExtractPaginationParams(r)

	result, err := h.QueryBus.Ask(r.Context(), queries.ListWorkflowsQuery{
		UserID:   userID,
		Page:     params.Page,
		PageSize: params.PageSize,
	})
	if err != nil {
		h.Errors.Handle(w, r, err)
		return
	}
	list := result.(*queries.ListWorkflowsResult)
	common.RespondJSON(w, http.StatusOK, common.Message("Workflows found!").
		With("workflows", list.Workflows).
		With("pagination", list.Pagination))
}

// Get handles GET /workflows/{id}
func (h *WorkflowHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	view, err := h.get(r, userID, chi.URLParam(r, "id"))
	if err != nil {
		h.Errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, common.Message("Workflow found!").With("workflow", view))
}

// Delete handles DELETE /workflows/{id}
func (h *WorkflowHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	err := h.CommandBus.Send(r.Context(), commands.DeleteWorkflowCommand{
		UserID:     userID,
		WorkflowID: chi.URLParam(r, "id"),
	})
	if err != nil {
		h.Errors.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusOK, "Workflow deleted!")
}

func (h *WorkflowHandler) get(r *http.Request, userID, workflowID string) (*entities.WorkflowView, error) {
	result, err := h.QueryBus.Ask(r.Context(), queries.GetWorkflowQuery{UserID: userID, WorkflowID: workflowID})
	if err != nil {
		return nil, err
	}
	view, ok := result.(*entities.WorkflowView)
	if !ok {
		return nil, pkgerrors.NewInternalError("unexpected workflow result")
	}
	return view, nil
}
