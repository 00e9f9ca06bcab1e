package domain

import "context"

// ProjectStore is the read side of project persistence consumed by analysis and optimization
type ProjectStore interface {
	GetByID(ctx context.Context, id string) (*Project, error)
	Find(ctx context.Context, ids []string) ([]Project, error)
}
