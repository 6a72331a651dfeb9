package section

import (
	"context"
	"database/sql"
	"errors"

	"center-booking-service/internal/models"
	"center-booking-service/internal/repository"

	"github.com/jmoiron/sqlx"
)

type sectionRepository struct {
	db *sqlx.DB
}

func NewSectionRepository(db *sqlx.DB) repository.SectionRepository {
	return &sectionRepository{db: db}
}

func (r *sectionRepository) GetByID(ctx context.Context, id int64) (*models.Section, error) {
	query := `
		SELECT
			s.id, s.center_id, s.name, s.created_at,
			c.name as center_name
		FROM booking.sections s
		LEFT JOIN booking.centers c ON s.center_id = c.id
		WHERE s.id = $1
	`

	section := &models.Section{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&section.ID, &section.CenterID, &section.Name, &section.CreatedAt,
		&section.CenterName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return section, nil
}

func (r *sectionRepository) GetByCenter(ctx context.Context, centerID int64) ([]models.Section, error) {
	query := `
		SELECT
			s.id, s.center_id, s.name, s.created_at,
			c.name as center_name
		FROM booking.sections s
		LEFT JOIN booking.centers c ON s.center_id = c.id
		WHERE s.center_id = $1
		ORDER BY s.name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, centerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []models.Section
	for rows.Next() {
		var section models.Section
		err := rows.Scan(
			&section.ID, &section.CenterID, &section.Name, &section.CreatedAt,
			&section.CenterName,
		)
		if err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}

	return sections, rows.Err()
}
