package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aristath/greenfolio/internal/domain"
)

// fileStore is a read-only project store backed by a JSON array on disk
type fileStore struct {
	order    []string
	projects map[string]domain.Project
}

// loadProjects reads and validates a JSON array of projects.
// Projects without an ID are numbered by position.
func loadProjects(path string) (*fileStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var projects []domain.Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(projects) == 0 {
		return nil, domain.ErrEmptyInput
	}

	store := &fileStore{projects: make(map[string]domain.Project, len(projects))}
	for i, p := range projects {
		if p.ID == "" {
			p.ID = fmt.Sprintf("project-%d", i+1)
		}
		if _, dup := store.projects[p.ID]; dup {
			return nil, domain.NewValidationError("id", "duplicate project id "+p.ID)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("project %s: %w", p.ID, err)
		}
		store.order = append(store.order, p.ID)
		store.projects[p.ID] = p
	}
	return store, nil
}

func (s *fileStore) IDs() []string {
	return s.order
}

func (s *fileStore) GetByID(_ context.Context, id string) (*domain.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	return &p, nil
}

func (s *fileStore) Find(_ context.Context, ids []string) ([]domain.Project, error) {
	out := make([]domain.Project, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.projects[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
