// Package projects stores investment projects and keeps their score snapshots fresh.
package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/greenfolio/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// projectsColumns is the list of columns for the projects table.
// Column order must match scanProject.
const projectsColumns = `id, name, description, sector, budget, status, location, start_date, end_date,
environmental_metrics, social_metrics, governance_metrics, risks,
score_environmental, score_social, score_governance, score_total, scored_at,
created_at, updated_at`

// Repository handles project database operations
type Repository struct {
	db  *sql.DB // projects.db
	now func() time.Time
	log zerolog.Logger
}

// NewRepository creates a new project repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		now: time.Now,
		log: log.With().Str("repo", "project").Logger(),
	}
}

// Create inserts a project, assigning an ID when it has none
func (r *Repository) Create(ctx context.Context, p *domain.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = domain.StatusProposed
	}
	now := r.now().UTC().Truncate(time.Second)
	p.CreatedAt = now
	p.UpdatedAt = now

	row, err := encodeProject(p)
	if err != nil {
		return err
	}

	query := `INSERT INTO projects (` + projectsColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, row.args()...); err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}

	r.log.Debug().Str("project_id", p.ID).Msg("Project created")
	return nil
}

// Update replaces every field of an existing project except CreatedAt
func (r *Repository) Update(ctx context.Context, p *domain.Project) error {
	p.UpdatedAt = r.now().UTC().Truncate(time.Second)

	row, err := encodeProject(p)
	if err != nil {
		return err
	}

	query := `UPDATE projects SET
		name = ?, description = ?, sector = ?, budget = ?, status = ?, location = ?,
		start_date = ?, end_date = ?, environmental_metrics = ?, social_metrics = ?,
		governance_metrics = ?, risks = ?, score_environmental = ?, score_social = ?,
		score_governance = ?, score_total = ?, scored_at = ?, updated_at = ?
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		row.name, row.description, row.sector, row.budget, row.status, row.location,
		row.startDate, row.endDate, row.environmental, row.social,
		row.governance, row.risks, row.scoreEnvironmental, row.scoreSocial,
		row.scoreGovernance, row.scoreTotal, row.scoredAt, row.updatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return requireAffected(res, p.ID)
}

// UpdateScores persists a new score snapshot without touching the project metrics
func (r *Repository) UpdateScores(ctx context.Context, id string, s domain.ScoreSnapshot) error {
	query := `UPDATE projects SET score_environmental = ?, score_social = ?, score_governance = ?,
		score_total = ?, scored_at = ? WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		s.Environmental, s.Social, s.Governance, s.Total, s.LastUpdated.Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update project scores: %w", err)
	}
	return requireAffected(res, id)
}

// Delete removes a project
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return requireAffected(res, id)
}

// GetByID returns a project or domain.ErrProjectNotFound
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	query := "SELECT " + projectsColumns + " FROM projects WHERE id = ?"

	p, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrProjectNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project %s: %w", id, err)
	}
	return &p, nil
}

// Find returns the projects for ids in request order. Unknown IDs are skipped.
func (r *Repository) Find(ctx context.Context, ids []string) ([]domain.Project, error) {
	if len(ids) == 0 {
		return []domain.Project{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := "SELECT " + projectsColumns + " FROM projects WHERE id IN (" + placeholders + ")"
	found, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Project, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	out := make([]domain.Project, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok && !seen[id] {
			out = append(out, p)
			seen[id] = true
		}
	}
	return out, nil
}

// List returns every project, newest first
func (r *Repository) List(ctx context.Context) ([]domain.Project, error) {
	return r.query(ctx, "SELECT "+projectsColumns+" FROM projects ORDER BY created_at DESC, id")
}

// ListStale returns up to limit projects never scored or scored before cutoff, oldest first
func (r *Repository) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]domain.Project, error) {
	query := "SELECT " + projectsColumns + ` FROM projects
		WHERE scored_at IS NULL OR scored_at < ?
		ORDER BY COALESCE(scored_at, 0), id
		LIMIT ?`
	return r.query(ctx, query, cutoff.Unix(), limit)
}

// Count returns the number of stored projects
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return n, nil
}

func (r *Repository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return projects, nil
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProjectNotFound, id)
	}
	return nil
}
