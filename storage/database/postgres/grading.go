package pgrepos

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/grading"
)

type scaleRow struct {
	ID    string     `db:"id"`
	Name  string     `db:"name"`
	Bands null.JSON `db:"bands"`
}

func toScaleRow(s grading.Scale) (scaleRow, error) {
	bands, err := json.Marshal(s.Bands)
	if err != nil {
		return scaleRow{}, errors.Wrap(err, "marshalling bands")
	}
	return scaleRow{ID: s.ID, Name: s.Name, Bands: null.JSONFrom(bands)}, nil
}

func (row scaleRow) scale() (grading.Scale, error) {
	s := grading.Scale{ID: row.ID, Name: row.Name}
	if err := row.Bands.Unmarshal(&s.Bands); err != nil {
		return grading.Scale{}, errors.Wrapf(err, "unmarshalling bands of scale %q", row.ID)
	}
	return s, nil
}

type scaleRepository struct {
	db *sqlx.DB
}

var _ grading.Repository = (*scaleRepository)(nil)

func NewScaleRepository(db *sqlx.DB) grading.Repository {
	return &scaleRepository{db: db}
}

func (repo *scaleRepository) QueryScales(ctx context.Context) ([]grading.Scale, error) {
	var rows []scaleRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT id, name, bands FROM grading_scale ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "selecting grading scales")
	}

	scales := make([]grading.Scale, 0, len(rows))
	for _, row := range rows {
		s, err := row.scale()
		if err != nil {
			return nil, err
		}
		scales = append(scales, s)
	}
	return scales, nil
}

func (repo *scaleRepository) GetScale(ctx context.Context, id string) (grading.Scale, error) {
	var row scaleRow
	if err := repo.db.GetContext(ctx, &row, `SELECT id, name, bands FROM grading_scale WHERE id = $1`, id); err != nil {
		return grading.Scale{}, trapNoRows(err, grading.ErrNotFound, "selecting grading scale")
	}
	return row.scale()
}

func (repo *scaleRepository) SaveScale(ctx context.Context, scale grading.Scale) (grading.Scale, error) {
	row, err := toScaleRow(scale)
	if err != nil {
		return grading.Scale{}, err
	}
	q := `INSERT INTO grading_scale (id, name, bands) VALUES (:id, :name, :bands)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, bands = EXCLUDED.bands`
	if _, err = repo.db.NamedExecContext(ctx, q, row); err != nil {
		return grading.Scale{}, errors.Wrap(err, "saving grading scale")
	}
	return scale, nil
}

func (repo *scaleRepository) GetClassScaleID(ctx context.Context, classID string) (string, error) {
	var id string
	if err := repo.db.GetContext(ctx, &id, `SELECT scale_id FROM class_scale WHERE class_id = $1`, classID); err != nil {
		return "", trapNoRows(err, grading.ErrClassScaleUnset, "selecting class scale")
	}
	return id, nil
}

func (repo *scaleRepository) SetClassScaleID(ctx context.Context, classID, scaleID string) error {
	q := `INSERT INTO class_scale (class_id, scale_id) VALUES ($1, $2)
		ON CONFLICT (class_id) DO UPDATE SET scale_id = EXCLUDED.scale_id`
	if _, err := repo.db.ExecContext(ctx, q, classID, scaleID); err != nil {
		return errors.Wrap(err, "saving class scale")
	}
	return nil
}
