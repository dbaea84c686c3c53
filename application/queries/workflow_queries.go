package queries

import (
	"fmt"

	"matflow/domain/core/entities"
	"matflow/pkg/common"
	pkgerrors "matflow/pkg/errors"
)

// ListWorkflowsQuery lists one page of the caller's saved workflows
type ListWorkflowsQuery struct {
	UserID   string
	Page     int
	PageSize int
}

// Validate validates the query
func (q ListWorkflowsQuery) Validate() error {
	if q.UserID == "" {
		return pkgerrors.NewUnauthorizedError("")
	}
	if q.Page < 1 {
		return pkgerrors.NewValidationError("Page must be positive!")
	}
	if q.PageSize < 1 || q.PageSize > common.MaxPageSize {
		return pkgerrors.NewValidationError(fmt.Sprintf("Page size must be between 1 and %d!", common.MaxPageSize))
	}
	return nil
}

// CacheKey implements bus.Cacheable
func (q ListWorkflowsQuery) CacheKey() string {
	return fmt.Sprintf("%s%d:%d", WorkflowListCachePrefix(q.UserID), q.Page, q.PageSize)
}

// WorkflowListCachePrefix is shared by every cached list page of one user.
func WorkflowListCachePrefix(userID string) string {
	return "workflows:" + userID + ":"
}

// ListWorkflowsResult represents the result of listing workflows
type ListWorkflowsResult struct {
	Workflows  []entities.WorkflowView `json:"workflows"`
	Pagination *common.PaginationInfo  `json:"pagination"`
}

// GetWorkflowQuery fetches one saved workflow
type GetWorkflowQuery struct {
	UserID     string
	WorkflowID string
}

// Validate validates the query
func (q GetWorkflowQuery) Validate() error {
	if q.UserID == "" {
		return pkgerrors.NewUnauthorizedError("")
	}
	if q.WorkflowID == "" {
		return pkgerrors.NewValidationError("Workflow ID is required!")
	}
	return nil
}
