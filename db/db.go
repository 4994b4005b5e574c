package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"soq/internal/apperror"
	"soq/internal/estimate"
	"soq/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// Category (Категория)
type categoryRow struct {
	ID      string         `db:"id"`
	Name    string         `db:"name"`
	JobIDs  pq.StringArray `db:"job_ids"`
	Version int            `db:"version"`
}

// SaveCategory записывает категорию, если её версия новее сохранённой.
func (s *Storage) SaveCategory(ctx context.Context, c models.Category) error {
	return saveCategory(ctx, s.db, c)
}

func saveCategory(ctx context.Context, ex sqlx.ExecerContext, c models.Category) error {
	query := `
        INSERT INTO category (id, name, job_ids, version)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE
        SET name = EXCLUDED.name, job_ids = EXCLUDED.job_ids, version = EXCLUDED.version, updated_at = NOW()
        WHERE category.version < EXCLUDED.version`
	_, err := ex.ExecContext(ctx, query, c.ID, c.Name, pq.Array(c.JobIDs), c.Version)
	if err != nil {
		return fmt.Errorf("save category %s: %w", c.ID, err)
	}
	return nil
}

func (s *Storage) DeleteCategory(ctx context.Context, id string) error {
	query := `DELETE FROM category WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	return nil
}

func (s *Storage) GetCategories(ctx context.Context) ([]models.Category, error) {
	rows := []categoryRow{}
	query := `SELECT id, name, job_ids, version FROM category ORDER BY seq ASC`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	out := make([]models.Category, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Category{
			ID: r.ID, Name: r.Name, JobIDs: append([]string{}, r.JobIDs...), Version: r.Version,
		})
	}
	return out, nil
}

// Job (Работа). Позиции хранятся в jsonb в порядке сметы. Признак
// includedInTender не хранится: при загрузке он выводится из тендеров.
type jobRow struct {
	ID          string          `db:"id"`
	JobID       string          `db:"job_id"`
	CategoryID  string          `db:"category_id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Materials   []byte          `db:"materials"`
	Labor       []byte          `db:"labor"`
	Status      string          `db:"status"`
	TotalCost   decimal.Decimal `db:"total_cost"`
	Version     int             `db:"version"`
}

// SaveJob записывает работу, если её версия новее сохранённой. Запись
// устаревшего снимка после более свежего ничего не меняет.
func (s *Storage) SaveJob(ctx context.Context, j models.Job) error {
	return saveJob(ctx, s.db, j)
}

func saveJob(ctx context.Context, ex sqlx.ExecerContext, j models.Job) error {
	materials, err := json.Marshal(j.Materials)
	if err != nil {
		return fmt.Errorf("encode materials of job %s: %w", j.ID, err)
	}
	labor, err := json.Marshal(j.Labor)
	if err != nil {
		return fmt.Errorf("encode labor of job %s: %w", j.ID, err)
	}
	query := `
        INSERT INTO job
            (id, job_id, category_id, name, description, materials, labor, status, total_cost, version)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (id) DO UPDATE
        SET job_id = EXCLUDED.job_id, category_id = EXCLUDED.category_id, name = EXCLUDED.name,
            description = EXCLUDED.description, materials = EXCLUDED.materials, labor = EXCLUDED.labor,
            status = EXCLUDED.status, total_cost = EXCLUDED.total_cost, version = EXCLUDED.version,
            updated_at = NOW()
        WHERE job.version < EXCLUDED.version`
	_, err = ex.ExecContext(ctx, query,
		j.ID, j.JobID, j.CategoryID, j.Name, j.Description, materials, labor,
		string(j.Status), j.TotalCost, j.Version)
	if err != nil {
		return fmt.Errorf("save job %s: %w", j.ID, err)
	}
	return nil
}

// SaveJobPlacement в одной транзакции записывает работу и категории, чьи
// списки работ изменились (создание или перенос работы).
func (s *Storage) SaveJobPlacement(ctx context.Context, j models.Job, categories ...models.Category) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save job %s: %w", j.ID, err)
	}
	defer tx.Rollback()

	for _, c := range categories {
		if err := saveCategory(ctx, tx, c); err != nil {
			return err
		}
	}
	if err := saveJob(ctx, tx, j); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteJob удаляет работу и в той же транзакции записывает её категорию и
// черновые тендеры, из которых вычищена ссылка, вместе с их версиями.
// category равна nil, если категория уже удалена.
func (s *Storage) DeleteJob(ctx context.Context, id string, category *models.Category, pruned []models.Tender) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete job %s: %w", id, err)
	}
	defer tx.Rollback()

	if category != nil {
		if err := saveCategory(ctx, tx, *category); err != nil {
			return err
		}
	}
	for _, t := range pruned {
		if err := saveTender(ctx, tx, t); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM job WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	return tx.Commit()
}

func (s *Storage) GetJobs(ctx context.Context) ([]models.Job, error) {
	rows := []jobRow{}
	query := `
        SELECT id, job_id, category_id, name, description, materials, labor, status, total_cost, version
        FROM job`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select jobs: %w", err)
	}
	out := make([]models.Job, 0, len(rows))
	for _, r := range rows {
		j := models.Job{
			ID:          r.ID,
			JobID:       r.JobID,
			CategoryID:  r.CategoryID,
			Name:        r.Name,
			Description: r.Description,
			Status:      models.JobStatus(r.Status),
			TotalCost:   r.TotalCost,
			Version:     r.Version,
		}
		if err := json.Unmarshal(r.Materials, &j.Materials); err != nil {
			return nil, fmt.Errorf("decode materials of job %s: %w", r.ID, err)
		}
		if err := json.Unmarshal(r.Labor, &j.Labor); err != nil {
			return nil, fmt.Errorf("decode labor of job %s: %w", r.ID, err)
		}
		out = append(out, j)
	}
	return out, nil
}

// Tender (Тендер)
type tenderRow struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	Description string         `db:"description"`
	JobIDs      pq.StringArray `db:"job_ids"`
	Status      string         `db:"status"`
	Privacy     string         `db:"privacy"`
	StartTime   time.Time      `db:"start_time"`
	EndTime     time.Time      `db:"end_time"`
	CreatedBy   string         `db:"created_by"`
	AwardedTo   string         `db:"awarded_to"`
	SubmittedAt *time.Time     `db:"submitted_at"`
	AwardedAt   *time.Time     `db:"awarded_at"`
	Version     int            `db:"version"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (r tenderRow) model() models.Tender {
	return models.Tender{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		JobIDs:      append([]string{}, r.JobIDs...),
		Status:      models.TenderStatus(r.Status),
		Privacy:     models.TenderPrivacy(r.Privacy),
		StartTime:   r.StartTime.UTC(),
		EndTime:     r.EndTime.UTC(),
		CreatedBy:   r.CreatedBy,
		AwardedTo:   r.AwardedTo,
		SubmittedAt: r.SubmittedAt,
		AwardedAt:   r.AwardedAt,
		Version:     r.Version,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

// SaveTender сохраняет тендер, если его версия новее сохранённой, и
// добавляет версию в историю. Повторное сохранение той же версии не
// создаёт дубль в истории.
func (s *Storage) SaveTender(ctx context.Context, t models.Tender) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tender %s: %w", t.ID, err)
	}
	defer tx.Rollback()

	if err := saveTender(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit()
}

func saveTender(ctx context.Context, tx *sqlx.Tx, t models.Tender) error {
	query := `
        INSERT INTO tender
            (id, name, description, job_ids, status, privacy, start_time, end_time,
             created_by, awarded_to, submitted_at, awarded_at, version, created_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
        ON CONFLICT (id) DO UPDATE
        SET name = EXCLUDED.name, description = EXCLUDED.description, job_ids = EXCLUDED.job_ids,
            status = EXCLUDED.status, privacy = EXCLUDED.privacy, start_time = EXCLUDED.start_time,
            end_time = EXCLUDED.end_time, awarded_to = EXCLUDED.awarded_to,
            submitted_at = EXCLUDED.submitted_at, awarded_at = EXCLUDED.awarded_at,
            version = EXCLUDED.version
        WHERE tender.version < EXCLUDED.version`
	_, err := tx.ExecContext(ctx, query,
		t.ID, t.Name, t.Description, pq.Array(t.JobIDs), string(t.Status), string(t.Privacy),
		t.StartTime, t.EndTime, t.CreatedBy, t.AwardedTo, t.SubmittedAt, t.AwardedAt, t.Version, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("save tender %s: %w", t.ID, err)
	}
	return saveTenderVersion(ctx, tx, t)
}

func saveTenderVersion(ctx context.Context, tx *sqlx.Tx, t models.Tender) error {
	query := `
        INSERT INTO tender_versions
            (tender_id, version, name, description, job_ids, status, privacy, start_time, end_time, awarded_to, created_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
        ON CONFLICT (tender_id, version) DO NOTHING`
	_, err := tx.ExecContext(ctx, query,
		t.ID, t.Version, t.Name, t.Description, pq.Array(t.JobIDs), string(t.Status), string(t.Privacy),
		t.StartTime, t.EndTime, t.AwardedTo)
	if err != nil {
		return fmt.Errorf("save tender %s version %d: %w", t.ID, t.Version, err)
	}
	return nil
}

// GetTenderVersion возвращает тендер в виде, сохранённом для указанной версии.
func (s *Storage) GetTenderVersion(ctx context.Context, tenderID string, version int) (*models.Tender, error) {
	var r tenderRow
	query := `
        SELECT v.tender_id AS id, v.name, v.description, v.job_ids, v.status, v.privacy, v.start_time, v.end_time,
               t.created_by, v.awarded_to, NULL::timestamptz AS submitted_at, NULL::timestamptz AS awarded_at,
               v.version, v.created_at
        FROM tender_versions v
        JOIN tender t ON t.id = v.tender_id
        WHERE v.tender_id = $1 AND v.version = $2`
	err := s.db.GetContext(ctx, &r, query, tenderID, version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("tender version", fmt.Sprintf("%s@%d", tenderID, version))
	}
	if err != nil {
		return nil, fmt.Errorf("select tender %s version %d: %w", tenderID, version, err)
	}
	t := r.model()
	return &t, nil
}

func (s *Storage) DeleteTender(ctx context.Context, id string) error {
	query := `DELETE FROM tender WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete tender %s: %w", id, err)
	}
	return nil
}

func (s *Storage) GetTenders(ctx context.Context) ([]models.Tender, error) {
	rows := []tenderRow{}
	query := `
        SELECT id, name, description, job_ids, status, privacy, start_time, end_time,
               created_by, awarded_to, submitted_at, awarded_at, version, created_at
        FROM tender
        ORDER BY seq ASC`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select tenders: %w", err)
	}
	out := make([]models.Tender, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

// BidderProposal (Предложение подрядчика)
type proposalRow struct {
	ID                string          `db:"id"`
	TenderID          string          `db:"tender_id"`
	BidderName        string          `db:"bidder_name"`
	EstimatedCost     decimal.Decimal `db:"estimated_cost"`
	EstimatedDuration int             `db:"estimated_duration"`
	Items             []byte          `db:"items"`
	SubmittedBy       string          `db:"submitted_by"`
	SubmittedAt       time.Time       `db:"submitted_at"`
	Seq               int             `db:"seq"`
	Version           int             `db:"version"`
}

func (s *Storage) SaveProposal(ctx context.Context, p models.BidderProposal) error {
	items, err := json.Marshal(p.Items)
	if err != nil {
		return fmt.Errorf("encode items of proposal %s: %w", p.ID, err)
	}
	query := `
        INSERT INTO bidder_proposal
            (id, tender_id, bidder_name, estimated_cost, estimated_duration, items, submitted_by, submitted_at, seq, version)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (id) DO UPDATE
        SET estimated_cost = EXCLUDED.estimated_cost, estimated_duration = EXCLUDED.estimated_duration,
            items = EXCLUDED.items, version = EXCLUDED.version
        WHERE bidder_proposal.version < EXCLUDED.version`
	_, err = s.db.ExecContext(ctx, query,
		p.ID, p.TenderID, p.BidderName, p.EstimatedCost, p.EstimatedDuration, items,
		p.SubmittedBy, p.SubmittedAt, p.Seq, p.Version)
	if err != nil {
		return fmt.Errorf("save proposal %s: %w", p.ID, err)
	}
	return nil
}

func (s *Storage) GetProposals(ctx context.Context) ([]models.BidderProposal, error) {
	rows := []proposalRow{}
	query := `
        SELECT id, tender_id, bidder_name, estimated_cost, estimated_duration, items, submitted_by, submitted_at, seq, version
        FROM bidder_proposal
        ORDER BY tender_id ASC, seq ASC`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select proposals: %w", err)
	}
	out := make([]models.BidderProposal, 0, len(rows))
	for _, r := range rows {
		p := models.BidderProposal{
			ID:                r.ID,
			TenderID:          r.TenderID,
			BidderName:        r.BidderName,
			EstimatedCost:     r.EstimatedCost,
			EstimatedDuration: r.EstimatedDuration,
			SubmittedBy:       r.SubmittedBy,
			SubmittedAt:       r.SubmittedAt.UTC(),
			Seq:               r.Seq,
			Version:           r.Version,
		}
		if err := json.Unmarshal(r.Items, &p.Items); err != nil {
			return nil, fmt.Errorf("decode items of proposal %s: %w", r.ID, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// LoadSnapshot читает всё состояние для Book.Restore.
func (s *Storage) LoadSnapshot(ctx context.Context) (estimate.Snapshot, error) {
	var snap estimate.Snapshot
	var err error
	if snap.Categories, err = s.GetCategories(ctx); err != nil {
		return estimate.Snapshot{}, err
	}
	if snap.Jobs, err = s.GetJobs(ctx); err != nil {
		return estimate.Snapshot{}, err
	}
	if snap.Tenders, err = s.GetTenders(ctx); err != nil {
		return estimate.Snapshot{}, err
	}
	if snap.Proposals, err = s.GetProposals(ctx); err != nil {
		return estimate.Snapshot{}, err
	}
	return snap, nil
}

// SaveSnapshot записывает снимок целиком. Используется после загрузки начальных данных.
func (s *Storage) SaveSnapshot(ctx context.Context, snap estimate.Snapshot) error {
	for _, c := range snap.Categories {
		if err := s.SaveCategory(ctx, c); err != nil {
			return err
		}
	}
	for _, j := range snap.Jobs {
		if err := s.SaveJob(ctx, j); err != nil {
			return err
		}
	}
	for _, t := range snap.Tenders {
		if err := s.SaveTender(ctx, t); err != nil {
			return err
		}
	}
	for _, p := range snap.Proposals {
		if err := s.SaveProposal(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
