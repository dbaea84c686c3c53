package handlers

import (
	"context"

	"matflow/application/ports"
	"matflow/application/queries"
	"matflow/domain/core/entities"
	"matflow/domain/core/valueobjects"
	"matflow/pkg/common"
)

// WorkflowQueryHandler serves workflow reads. Only the owner of a record can
// see it; other callers get not found.
type WorkflowQueryHandler struct {
	workflows ports.WorkflowRepository
}

// NewWorkflowQueryHandler creates a new handler instance
func NewWorkflowQueryHandler(workflows ports.WorkflowRepository) *WorkflowQueryHandler {
	return &WorkflowQueryHandler{workflows: workflows}
}

// HandleList returns one page of the caller's records, newest first
func (h *WorkflowQueryHandler) HandleList(ctx context.Context, query queries.ListWorkflowsQuery) (*queries.ListWorkflowsResult, error) {
	userID, err := valueobjects.NewUserIDFromString(query.UserID)
	if err != nil {
		return nil, err
	}

	params := common.PaginationParams{Page: query.Page, PageSize: query.PageSize}
	records, total, err := h.workflows.ListByUser(ctx, userID, params.PageSize, params.Offset())
	if err != nil {
		return nil, ports.MapError("list workflows", err)
	}

	views := make([]entities.WorkflowView, 0, len(records))
	for _, wf := range records {
		views = append(views, wf.View())
	}
	return &queries.ListWorkflowsResult{
		Workflows:  views,
		Pagination: common.BuildPaginationMeta(query.Page, query.PageSize, total),
	}, nil
}

// HandleGet returns one record owned by the caller
func (h *WorkflowQueryHandler) HandleGet(ctx context.Context, query queries.GetWorkflowQuery) (*entities.WorkflowView, error) {
	workflowID, err := valueobjects.NewWorkflowIDFromString(query.WorkflowID)
	if err != nil {
		return nil, err
	}

	wf, err := h.workflows.FindByID(ctx, workflowID)
	if err != nil {
		return nil, ports.MapError("find workflow", err)
	}
	if wf.UserID().String() != query.UserID {
		return nil, ports.MapError("find workflow", ports.ErrWorkflowNotFound)
	}

	view := wf.View()
	return &view, nil
}
