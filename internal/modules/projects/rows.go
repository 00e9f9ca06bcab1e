package projects

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aristath/greenfolio/internal/domain"
)

// projectRow is a project flattened into column values
type projectRow struct {
	id, name, description, sector, status string
	budget                                float64
	location                              string
	startDate, endDate                    sql.NullInt64
	environmental, social, governance     string
	risks                                 string
	scoreEnvironmental, scoreSocial       sql.NullFloat64
	scoreGovernance, scoreTotal           sql.NullFloat64
	scoredAt                              sql.NullInt64
	createdAt, updatedAt                  int64
}

// args returns the values in projectsColumns order
func (row projectRow) args() []interface{} {
	return []interface{}{
		row.id, row.name, row.description, row.sector, row.budget, row.status, row.location,
		row.startDate, row.endDate,
		row.environmental, row.social, row.governance, row.risks,
		row.scoreEnvironmental, row.scoreSocial, row.scoreGovernance, row.scoreTotal, row.scoredAt,
		row.createdAt, row.updatedAt,
	}
}

func encodeProject(p *domain.Project) (projectRow, error) {
	row := projectRow{
		id:          p.ID,
		name:        p.Name,
		description: p.Description,
		sector:      string(p.Sector),
		status:      string(p.Status),
		budget:      p.Budget,
		startDate:   nullUnix(p.StartDate),
		endDate:     nullUnix(p.EndDate),
		createdAt:   p.CreatedAt.Unix(),
		updatedAt:   p.UpdatedAt.Unix(),
	}

	risks := p.Risks
	if risks == nil {
		risks = []domain.Risk{}
	}

	var err error
	if row.location, err = marshalColumn("location", p.Location); err != nil {
		return row, err
	}
	if row.environmental, err = marshalColumn("environmental_metrics", p.Environmental); err != nil {
		return row, err
	}
	if row.social, err = marshalColumn("social_metrics", p.Social); err != nil {
		return row, err
	}
	if row.governance, err = marshalColumn("governance_metrics", p.Governance); err != nil {
		return row, err
	}
	if row.risks, err = marshalColumn("risks", risks); err != nil {
		return row, err
	}

	if s := p.Scores; s != nil {
		row.scoreEnvironmental = sql.NullFloat64{Float64: s.Environmental, Valid: true}
		row.scoreSocial = sql.NullFloat64{Float64: s.Social, Valid: true}
		row.scoreGovernance = sql.NullFloat64{Float64: s.Governance, Valid: true}
		row.scoreTotal = sql.NullFloat64{Float64: s.Total, Valid: true}
		row.scoredAt = sql.NullInt64{Int64: s.LastUpdated.Unix(), Valid: true}
	}
	return row, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(s rowScanner) (domain.Project, error) {
	var row projectRow
	err := s.Scan(
		&row.id, &row.name, &row.description, &row.sector, &row.budget, &row.status, &row.location,
		&row.startDate, &row.endDate,
		&row.environmental, &row.social, &row.governance, &row.risks,
		&row.scoreEnvironmental, &row.scoreSocial, &row.scoreGovernance, &row.scoreTotal, &row.scoredAt,
		&row.createdAt, &row.updatedAt,
	)
	if err != nil {
		return domain.Project{}, err
	}

	p := domain.Project{
		ID:          row.id,
		Name:        row.name,
		Description: row.description,
		Sector:      domain.Sector(row.sector),
		Budget:      row.budget,
		Status:      domain.ProjectStatus(row.status),
		StartDate:   timeFromNull(row.startDate),
		EndDate:     timeFromNull(row.endDate),
		CreatedAt:   time.Unix(row.createdAt, 0).UTC(),
		UpdatedAt:   time.Unix(row.updatedAt, 0).UTC(),
	}

	columns := []struct {
		name string
		raw  string
		dst  interface{}
	}{
		{"location", row.location, &p.Location},
		{"environmental_metrics", row.environmental, &p.Environmental},
		{"social_metrics", row.social, &p.Social},
		{"governance_metrics", row.governance, &p.Governance},
		{"risks", row.risks, &p.Risks},
	}
	for _, c := range columns {
		if c.raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(c.raw), c.dst); err != nil {
			return domain.Project{}, fmt.Errorf("failed to decode %s: %w", c.name, err)
		}
	}
	if p.Risks == nil {
		p.Risks = []domain.Risk{}
	}

	if row.scoredAt.Valid {
		p.Scores = &domain.ScoreSnapshot{
			Environmental: row.scoreEnvironmental.Float64,
			Social:        row.scoreSocial.Float64,
			Governance:    row.scoreGovernance.Float64,
			Total:         row.scoreTotal.Float64,
			LastUpdated:   time.Unix(row.scoredAt.Int64, 0).UTC(),
		}
	}
	return p, nil
}

func marshalColumn(name string, v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return string(data), nil
}

func nullUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func timeFromNull(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}
