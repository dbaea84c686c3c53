package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"matflow/application/ports"
	"matflow/domain/core/entities"
	"matflow/domain/core/valueobjects"
)

var now = func() time.Time { return time.Now().UTC() }

// WorkflowRepository keeps workflow records in insertion order.
type WorkflowRepository struct {
	mu      sync.RWMutex
	records map[string]*entities.Workflow
	seq     map[string]int
	next    int
}

// NewWorkflowRepository creates an empty repository
func NewWorkflowRepository() *WorkflowRepository {
	return &WorkflowRepository{
		records: make(map[string]*entities.Workflow),
		seq:     make(map[string]int),
	}
}

var _ ports.WorkflowRepository = (*WorkflowRepository)(nil)

func (r *WorkflowRepository) Save(_ context.Context, workflow *entities.Workflow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := workflow.ID().String()
	r.records[id] = workflow
	r.next++
	r.seq[id] = r.next
	return nil
}

func (r *WorkflowRepository) FindByID(_ context.Context, id valueobjects.WorkflowID) (*entities.Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.records[id.String()]
	if !ok {
		return nil, ports.ErrWorkflowNotFound
	}
	return w, nil
}

func (r *WorkflowRepository) ListByUser(_ context.Context, userID valueobjects.UserID, limit, offset int) ([]*entities.Workflow, int, error) {
	r.mu.RLock()
	owned := make([]*entities.Workflow, 0)
	for _, w := range r.records {
		if w.UserID() == userID {
			owned = append(owned, w)
		}
	}
	seq := func(w *entities.Workflow) int { return r.seq[w.ID().String()] }
	sort.Slice(owned, func(i, j int) bool {
		ti, tj := owned[i].Timestamp(), owned[j].Timestamp()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return seq(owned[i]) > seq(owned[j])
	})
	r.mu.RUnlock()

	total := len(owned)
	if offset >= total {
		return []*entities.Workflow{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return owned[offset:end], total, nil
}

func (r *WorkflowRepository) Delete(_ context.Context, userID valueobjects.UserID, id valueobjects.WorkflowID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.records[id.String()]
	if !ok || w.UserID() != userID {
		return ports.ErrWorkflowNotFound
	}
	delete(r.records, id.String())
	delete(r.seq, id.String())
	return nil
}

func (r *WorkflowRepository) DeleteByUser(_ context.Context, userID valueobjects.UserID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, w := range r.records {
		if w.UserID() == userID {
			delete(r.records, id)
			delete(r.seq, id)
			n++
		}
	}
	return n, nil
}
