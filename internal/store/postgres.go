package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"coursehub-backend-go/internal/models"
)

const (
	courseColumns   = `id, title, description, thumbnail, is_published, created_at, updated_at`
	materialColumns = `id, title, description, type, file_url, download_url, is_published, course_id, created_at, updated_at`
)

// PostgresStore keeps courses and materials in postgres. The schema comes from
// the migrations package.
type PostgresStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *PostgresStore) Courses() CourseRepository {
	return pgCourses{s}
}

func (s *PostgresStore) Materials() MaterialRepository {
	return pgMaterials{s}
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// nextID allocates the next value of the named counter inside tx.
func nextID(ctx context.Context, tx *sqlx.Tx, name string) (int64, error) {
	var value int64
	err := tx.GetContext(ctx, &value, `UPDATE id_sequences SET value = value + 1 WHERE name = $1 RETURNING value`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("id sequence %q missing", name)
	}
	return value, err
}

func (s *PostgresStore) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *PostgresStore) Load(ctx context.Context, courses []models.Course, materials []models.StudyMaterial) error {
	courseIDs := make([]string, 0, len(courses))
	materialIDs := make([]string, 0, len(materials))
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM study_materials`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM courses`); err != nil {
			return err
		}
		for i, course := range courses {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO courses (id, position, title, description, thumbnail, is_published, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, course.ID, i+1, course.Title, course.Description, course.Thumbnail, course.IsPublished, course.CreatedAt, course.UpdatedAt); err != nil {
				return err
			}
			courseIDs = append(courseIDs, course.ID)
		}
		for i, material := range materials {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO study_materials (id, position, title, description, type, file_url, download_url, is_published, course_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`, material.ID, i+1, material.Title, material.Description, string(material.Type), material.FileURL, material.DownloadURL,
				material.IsPublished, material.CourseID, material.CreatedAt, material.UpdatedAt); err != nil {
				return err
			}
			materialIDs = append(materialIDs, material.ID)
		}
		// Positions of loaded rows are 1..n, so the counters must reach n too.
		if err := bumpSequence(ctx, tx, seqCourses, max(maxNumericID(courseIDs), int64(len(courses)))); err != nil {
			return err
		}
		return bumpSequence(ctx, tx, seqMaterials, max(maxNumericID(materialIDs), int64(len(materials))))
	})
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	return nil
}

// bumpSequence raises the named counter to at least value. Counters never go down.
func bumpSequence(ctx context.Context, tx *sqlx.Tx, name string, value int64) error {
	_, err := tx.ExecContext(ctx, `UPDATE id_sequences SET value = GREATEST(value, $2) WHERE name = $1`, name, value)
	return err
}

func (s *PostgresStore) attachAll(ctx context.Context, courses []models.Course, publishedOnly bool) ([]models.Course, error) {
	query := `SELECT ` + materialColumns + ` FROM study_materials`
	if publishedOnly {
		query += ` WHERE is_published = TRUE`
	}
	query += ` ORDER BY position`
	materials := []models.StudyMaterial{}
	if err := s.db.SelectContext(ctx, &materials, query); err != nil {
		return nil, fmt.Errorf("select materials: %w", err)
	}
	byCourse := map[string][]models.StudyMaterial{}
	for _, material := range materials {
		byCourse[material.CourseID] = append(byCourse[material.CourseID], material)
	}
	for i := range courses {
		attached := byCourse[courses[i].ID]
		if attached == nil {
			attached = []models.StudyMaterial{}
		}
		courses[i].Materials = attached
	}
	return courses, nil
}

type pgCourses struct {
	s *PostgresStore
}

func (r pgCourses) FindAll(ctx context.Context) ([]models.Course, error) {
	courses := []models.Course{}
	if err := r.s.db.SelectContext(ctx, &courses, `SELECT `+courseColumns+` FROM courses ORDER BY position`); err != nil {
		return nil, fmt.Errorf("select courses: %w", err)
	}
	return r.s.attachAll(ctx, courses, false)
}

func (r pgCourses) FindByID(ctx context.Context, id string) (models.Course, bool, error) {
	var course models.Course
	err := r.s.db.GetContext(ctx, &course, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Course{}, false, nil
	}
	if err != nil {
		return models.Course{}, false, fmt.Errorf("get course %s: %w", id, err)
	}
	materials, err := pgMaterials{r.s}.FindByCourse(ctx, id)
	if err != nil {
		return models.Course{}, false, err
	}
	course.Materials = materials
	return course, true, nil
}

func (r pgCourses) FindPublished(ctx context.Context) ([]models.Course, error) {
	courses := []models.Course{}
	if err := r.s.db.SelectContext(ctx, &courses, `SELECT `+courseColumns+` FROM courses WHERE is_published = TRUE ORDER BY position`); err != nil {
		return nil, fmt.Errorf("select published courses: %w", err)
	}
	return r.s.attachAll(ctx, courses, true)
}

func (r pgCourses) Create(ctx context.Context, input models.CourseInput) (models.Course, error) {
	now := r.s.now()
	course := models.Course{
		Title:       input.Title,
		Description: input.Description,
		Thumbnail:   input.Thumbnail,
		IsPublished: input.IsPublished,
		CreatedAt:   now,
		UpdatedAt:   now,
		Materials:   []models.StudyMaterial{},
	}
	err := r.s.withTx(ctx, func(tx *sqlx.Tx) error {
		seq, err := nextID(ctx, tx, seqCourses)
		if err != nil {
			return err
		}
		course.ID = formatID(seq)
		_, err = tx.ExecContext(ctx, `
INSERT INTO courses (id, position, title, description, thumbnail, is_published, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
`, course.ID, seq, course.Title, course.Description, course.Thumbnail, course.IsPublished, now)
		return err
	})
	if err != nil {
		return models.Course{}, fmt.Errorf("create course: %w", err)
	}
	return course, nil
}

func (r pgCourses) Update(ctx context.Context, id string, patch models.CoursePatch) (models.Course, bool, error) {
	found := false
	err := r.s.withTx(ctx, func(tx *sqlx.Tx) error {
		var course models.Course
		err := tx.GetContext(ctx, &course, `SELECT `+courseColumns+` FROM courses WHERE id = $1 FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		course.Apply(patch)
		_, err = tx.ExecContext(ctx, `
UPDATE courses
SET title = $2, description = $3, thumbnail = $4, is_published = $5, updated_at = $6
WHERE id = $1
`, id, course.Title, course.Description, course.Thumbnail, course.IsPublished, r.s.now())
		return err
	})
	if err != nil {
		return models.Course{}, false, fmt.Errorf("update course %s: %w", id, err)
	}
	if !found {
		return models.Course{}, false, nil
	}
	return r.FindByID(ctx, id)
}

func (r pgCourses) Delete(ctx context.Context, id string) (bool, error) {
	deleted := false
	err := r.s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return nil
		}
		deleted = true
		_, err = tx.ExecContext(ctx, `DELETE FROM study_materials WHERE course_id = $1`, id)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("delete course %s: %w", id, err)
	}
	return deleted, nil
}

type pgMaterials struct {
	s *PostgresStore
}

func (r pgMaterials) selectWhere(ctx context.Context, where string, args ...interface{}) ([]models.StudyMaterial, error) {
	query := `SELECT ` + materialColumns + ` FROM study_materials`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY position`
	items := []models.StudyMaterial{}
	if err := r.s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("select materials: %w", err)
	}
	return items, nil
}

func (r pgMaterials) FindAll(ctx context.Context) ([]models.StudyMaterial, error) {
	return r.selectWhere(ctx, "")
}

func (r pgMaterials) FindByID(ctx context.Context, id string) (models.StudyMaterial, bool, error) {
	var material models.StudyMaterial
	err := r.s.db.GetContext(ctx, &material, `SELECT `+materialColumns+` FROM study_materials WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StudyMaterial{}, false, nil
	}
	if err != nil {
		return models.StudyMaterial{}, false, fmt.Errorf("get material %s: %w", id, err)
	}
	return material, true, nil
}

func (r pgMaterials) FindPublished(ctx context.Context) ([]models.StudyMaterial, error) {
	return r.selectWhere(ctx, "is_published = TRUE")
}

func (r pgMaterials) FindByCourse(ctx context.Context, courseID string) ([]models.StudyMaterial, error) {
	return r.selectWhere(ctx, "course_id = $1", courseID)
}

func (r pgMaterials) Create(ctx context.Context, input models.MaterialInput) (models.StudyMaterial, error) {
	now := r.s.now()
	material := models.StudyMaterial{
		Title:       input.Title,
		Description: input.Description,
		Type:        input.Type,
		FileURL:     input.FileURL,
		DownloadURL: input.DownloadURL,
		IsPublished: input.IsPublished,
		CourseID:    input.CourseID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := r.s.withTx(ctx, func(tx *sqlx.Tx) error {
		seq, err := nextID(ctx, tx, seqMaterials)
		if err != nil {
			return err
		}
		material.ID = formatID(seq)
		_, err = tx.ExecContext(ctx, `
INSERT INTO study_materials (id, position, title, description, type, file_url, download_url, is_published, course_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
`, material.ID, seq, material.Title, material.Description, string(material.Type), material.FileURL, material.DownloadURL, material.IsPublished, material.CourseID, now)
		return err
	})
	if err != nil {
		return models.StudyMaterial{}, fmt.Errorf("create material: %w", err)
	}
	return material, nil
}

func (r pgMaterials) Update(ctx context.Context, id string, patch models.MaterialPatch) (models.StudyMaterial, bool, error) {
	var material models.StudyMaterial
	found := false
	err := r.s.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &material, `SELECT `+materialColumns+` FROM study_materials WHERE id = $1 FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		material.Apply(patch)
		material.UpdatedAt = r.s.now()
		_, err = tx.ExecContext(ctx, `
UPDATE study_materials
SET title = $2, description = $3, type = $4, file_url = $5, download_url = $6, is_published = $7, course_id = $8, updated_at = $9
WHERE id = $1
`, id, material.Title, material.Description, string(material.Type), material.FileURL, material.DownloadURL, material.IsPublished, material.CourseID, material.UpdatedAt)
		return err
	})
	if err != nil {
		return models.StudyMaterial{}, false, fmt.Errorf("update material %s: %w", id, err)
	}
	return material, found, nil
}

func (r pgMaterials) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.s.db.ExecContext(ctx, `DELETE FROM study_materials WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete material %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
