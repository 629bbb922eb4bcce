package persistence

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"staffquote/internal/domain"
	"staffquote/internal/ports"
)

//go:embed schema.sql
var schema string

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteRepository stores the dataset in a SQLite database. Allocation week
// rows and offer items live in child tables that cascade with their parent.
type SQLiteRepository struct {
	db   *sql.DB
	q    querier
	inTx bool
}

var _ ports.Repository = (*SQLiteRepository)(nil)

// OpenSQLite opens (creating when missing) the database at path and applies
// the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	if path == "" {
		path = "./staffquote.db"
	}
	if !strings.HasPrefix(path, "file:") {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		path = absPath
	}

	db, err := sql.Open("sqlite", buildConnectionString(path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteRepository{db: db, q: db}, nil
}

func buildConnectionString(path string) string {
	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}
	return path + separator +
		"_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)"
}

func (r *SQLiteRepository) Close() error {
	if r.inTx {
		return nil
	}
	return r.db.Close()
}

// WithinTransaction runs fn inside one SQL transaction. Nested calls reuse
// the outer transaction.
func (r *SQLiteRepository) WithinTransaction(ctx context.Context, fn func(ports.Repository) error) error {
	return r.withTx(ctx, func(tx *SQLiteRepository) error {
		return fn(tx)
	})
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*SQLiteRepository) error) (err error) {
	if r.inTx {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("panic in transaction: %v", recovered)
		} else if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rollbackErr)
			}
		} else if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("commit transaction: %w", commitErr)
		}
	}()

	return fn(&SQLiteRepository{db: r.db, q: tx, inTx: true})
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func constraintError(err error) error {
	if err == nil {
		return nil
	}
	message := err.Error()
	switch {
	case strings.Contains(message, "UNIQUE constraint failed"),
		strings.Contains(message, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%s: %w", message, domain.ErrConflict)
	}
	return err
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const professionalColumns = `id, pid, name, role, level, is_vacancy, hourly_cost, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfessional(row rowScanner) (domain.Professional, error) {
	var (
		professional domain.Professional
		createdAt    string
		updatedAt    string
	)
	err := row.Scan(&professional.ID, &professional.PID, &professional.Name, &professional.Role, &professional.Level,
		&professional.IsVacancy, &professional.HourlyCost, &createdAt, &updatedAt)
	if err != nil {
		return domain.Professional{}, err
	}
	professional.CreatedAt = parseTime(createdAt)
	professional.UpdatedAt = parseTime(updatedAt)
	return professional, nil
}

func (r *SQLiteRepository) ListProfessionals(ctx context.Context) ([]domain.Professional, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+professionalColumns+` FROM professionals ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list professionals: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Professional, 0)
	for rows.Next() {
		professional, err := scanProfessional(rows)
		if err != nil {
			return nil, fmt.Errorf("scan professional: %w", err)
		}
		result = append(result, professional)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) GetProfessional(ctx context.Context, id string) (domain.Professional, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+professionalColumns+` FROM professionals WHERE id = ?`, id)
	professional, err := scanProfessional(row)
	if err != nil {
		return domain.Professional{}, notFound(err)
	}
	return professional, nil
}

func (r *SQLiteRepository) CreateProfessional(ctx context.Context, professional domain.Professional) (domain.Professional, error) {
	now := time.Now().UTC()
	professional.ID = uuid.NewString()
	professional.CreatedAt = now
	professional.UpdatedAt = now

	_, err := r.q.ExecContext(ctx, `INSERT INTO professionals (`+professionalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		professional.ID, professional.PID, professional.Name, professional.Role, professional.Level,
		professional.IsVacancy, professional.HourlyCost, formatTime(now), formatTime(now))
	if err != nil {
		return domain.Professional{}, fmt.Errorf("insert professional: %w", constraintError(err))
	}
	return professional, nil
}

func (r *SQLiteRepository) UpdateProfessional(ctx context.Context, professional domain.Professional) (domain.Professional, error) {
	current, err := r.GetProfessional(ctx, professional.ID)
	if err != nil {
		return domain.Professional{}, err
	}

	professional.CreatedAt = current.CreatedAt
	professional.UpdatedAt = time.Now().UTC()
	_, err = r.q.ExecContext(ctx, `UPDATE professionals
		SET pid = ?, name = ?, role = ?, level = ?, is_vacancy = ?, hourly_cost = ?, updated_at = ?
		WHERE id = ?`,
		professional.PID, professional.Name, professional.Role, professional.Level, professional.IsVacancy,
		professional.HourlyCost, formatTime(professional.UpdatedAt), professional.ID)
	if err != nil {
		return domain.Professional{}, fmt.Errorf("update professional: %w", err)
	}
	return professional, nil
}

func (r *SQLiteRepository) DeleteProfessional(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM professionals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete professional %s: %w", id, constraintError(err))
	}
	return expectAffected(result)
}

const projectColumns = `id, name, start_date, duration_months, tax_rate, margin_rate, created_at, updated_at`

func scanProject(row rowScanner) (domain.Project, error) {
	var (
		project   domain.Project
		createdAt string
		updatedAt string
	)
	err := row.Scan(&project.ID, &project.Name, &project.StartDate, &project.DurationMonths,
		&project.TaxRate, &project.MarginRate, &createdAt, &updatedAt)
	if err != nil {
		return domain.Project{}, err
	}
	project.CreatedAt = parseTime(createdAt)
	project.UpdatedAt = parseTime(updatedAt)
	return project, nil
}

func (r *SQLiteRepository) ListProjects(ctx context.Context, filter domain.ProjectFilter) (domain.ProjectPage, error) {
	where := ""
	args := make([]any, 0, 3)
	if search := strings.TrimSpace(filter.Search); search != "" {
		where = ` WHERE instr(lower(name), lower(?)) > 0`
		args = append(args, search)
	}

	var total int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`+where, args...).Scan(&total); err != nil {
		return domain.ProjectPage{}, fmt.Errorf("count projects: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	skip := filter.Skip
	if skip < 0 {
		skip = 0
	}
	args = append(args, limit, skip)

	rows, err := r.q.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects`+where+
		` ORDER BY lower(name), id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return domain.ProjectPage{}, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return domain.ProjectPage{}, fmt.Errorf("scan project: %w", err)
		}
		items = append(items, project)
	}
	if err := rows.Err(); err != nil {
		return domain.ProjectPage{}, err
	}
	return domain.ProjectPage{Items: items, Total: total}, nil
}

func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (domain.Project, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	project, err := scanProject(row)
	if err != nil {
		return domain.Project{}, notFound(err)
	}
	return project, nil
}

func (r *SQLiteRepository) CreateProject(ctx context.Context, project domain.Project) (domain.Project, error) {
	now := time.Now().UTC()
	project.ID = uuid.NewString()
	project.CreatedAt = now
	project.UpdatedAt = now

	_, err := r.q.ExecContext(ctx, `INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ID, project.Name, project.StartDate, project.DurationMonths, project.TaxRate, project.MarginRate,
		formatTime(now), formatTime(now))
	if err != nil {
		return domain.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return project, nil
}

func (r *SQLiteRepository) UpdateProject(ctx context.Context, project domain.Project) (domain.Project, error) {
	current, err := r.GetProject(ctx, project.ID)
	if err != nil {
		return domain.Project{}, err
	}

	project.CreatedAt = current.CreatedAt
	project.UpdatedAt = time.Now().UTC()
	_, err = r.q.ExecContext(ctx, `UPDATE projects
		SET name = ?, start_date = ?, duration_months = ?, tax_rate = ?, margin_rate = ?, updated_at = ?
		WHERE id = ?`,
		project.Name, project.StartDate, project.DurationMonths, project.TaxRate, project.MarginRate,
		formatTime(project.UpdatedAt), project.ID)
	if err != nil {
		return domain.Project{}, fmt.Errorf("update project: %w", err)
	}
	return project, nil
}

func (r *SQLiteRepository) DeleteProject(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	return expectAffected(result)
}

const allocationColumns = `id, project_id, professional_id, cost_hourly_rate, selling_hourly_rate, created_at, updated_at`

func scanAllocation(row rowScanner) (domain.Allocation, error) {
	var (
		allocation domain.Allocation
		createdAt  string
		updatedAt  string
	)
	err := row.Scan(&allocation.ID, &allocation.ProjectID, &allocation.ProfessionalID,
		&allocation.CostHourlyRate, &allocation.SellingHourlyRate, &createdAt, &updatedAt)
	if err != nil {
		return domain.Allocation{}, err
	}
	allocation.CreatedAt = parseTime(createdAt)
	allocation.UpdatedAt = parseTime(updatedAt)
	allocation.Weeks = []domain.WeeklyAllocation{}
	return allocation, nil
}

func (r *SQLiteRepository) ListAllocations(ctx context.Context, projectID string) ([]domain.Allocation, error) {
	if _, err := r.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, `SELECT `+allocationColumns+` FROM project_allocations
		WHERE project_id = ? ORDER BY seq, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	allocations := make([]domain.Allocation, 0)
	index := map[string]int{}
	for rows.Next() {
		allocation, err := scanAllocation(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		index[allocation.ID] = len(allocations)
		allocations = append(allocations, allocation)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	weekRows, err := r.q.QueryContext(ctx, `SELECT w.allocation_id, w.week_number, w.hours_allocated, w.available_hours
		FROM weekly_allocations w
		JOIN project_allocations a ON a.id = w.allocation_id
		WHERE a.project_id = ?
		ORDER BY w.allocation_id, w.week_number`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list weekly allocations: %w", err)
	}
	defer weekRows.Close()
	for weekRows.Next() {
		var (
			allocationID string
			week         domain.WeeklyAllocation
		)
		if err := weekRows.Scan(&allocationID, &week.WeekNumber, &week.HoursAllocated, &week.AvailableHours); err != nil {
			return nil, fmt.Errorf("scan weekly allocation: %w", err)
		}
		if position, ok := index[allocationID]; ok {
			allocations[position].Weeks = append(allocations[position].Weeks, week)
		}
	}
	return allocations, weekRows.Err()
}

func (r *SQLiteRepository) CountAllocationsByProfessional(ctx context.Context, professionalID string) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM project_allocations WHERE professional_id = ?`, professionalID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count allocations: %w", err)
	}
	return count, nil
}

func (r *SQLiteRepository) GetAllocation(ctx context.Context, projectID, id string) (domain.Allocation, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+allocationColumns+` FROM project_allocations
		WHERE id = ? AND project_id = ?`, id, projectID)
	allocation, err := scanAllocation(row)
	if err != nil {
		return domain.Allocation{}, notFound(err)
	}

	weeks, err := r.loadWeeks(ctx, id)
	if err != nil {
		return domain.Allocation{}, err
	}
	allocation.Weeks = weeks
	return allocation, nil
}

func (r *SQLiteRepository) loadWeeks(ctx context.Context, allocationID string) ([]domain.WeeklyAllocation, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT week_number, hours_allocated, available_hours
		FROM weekly_allocations WHERE allocation_id = ? ORDER BY week_number`, allocationID)
	if err != nil {
		return nil, fmt.Errorf("load weekly allocations: %w", err)
	}
	defer rows.Close()

	weeks := make([]domain.WeeklyAllocation, 0)
	for rows.Next() {
		var week domain.WeeklyAllocation
		if err := rows.Scan(&week.WeekNumber, &week.HoursAllocated, &week.AvailableHours); err != nil {
			return nil, fmt.Errorf("scan weekly allocation: %w", err)
		}
		weeks = append(weeks, week)
	}
	return weeks, rows.Err()
}

func (r *SQLiteRepository) CreateAllocation(ctx context.Context, allocation domain.Allocation) (created domain.Allocation, err error) {
	err = r.withTx(ctx, func(tx *SQLiteRepository) error {
		if _, err := tx.GetProject(ctx, allocation.ProjectID); err != nil {
			return err
		}
		if _, err := tx.GetProfessional(ctx, allocation.ProfessionalID); err != nil {
			return err
		}

		now := time.Now().UTC()
		allocation.ID = uuid.NewString()
		allocation.CreatedAt = now
		allocation.UpdatedAt = now
		_, err := tx.q.ExecContext(ctx, `INSERT INTO project_allocations
			(id, seq, project_id, professional_id, cost_hourly_rate, selling_hourly_rate, created_at, updated_at)
			VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM project_allocations), ?, ?, ?, ?, ?, ?)`,
			allocation.ID, allocation.ProjectID, allocation.ProfessionalID, allocation.CostHourlyRate,
			allocation.SellingHourlyRate, formatTime(now), formatTime(now))
		if err != nil {
			return fmt.Errorf("insert allocation: %w", constraintError(err))
		}
		if err := tx.replaceWeeks(ctx, allocation.ID, allocation.Weeks); err != nil {
			return err
		}
		created, err = tx.GetAllocation(ctx, allocation.ProjectID, allocation.ID)
		return err
	})
	return created, err
}

// UpdateAllocation stores the selling rate and week rows. The frozen cost
// rate is never written after insert.
func (r *SQLiteRepository) UpdateAllocation(ctx context.Context, allocation domain.Allocation) (updated domain.Allocation, err error) {
	err = r.withTx(ctx, func(tx *SQLiteRepository) error {
		result, err := tx.q.ExecContext(ctx, `UPDATE project_allocations
			SET selling_hourly_rate = ?, updated_at = ?
			WHERE id = ? AND project_id = ?`,
			allocation.SellingHourlyRate, formatTime(time.Now().UTC()), allocation.ID, allocation.ProjectID)
		if err != nil {
			return fmt.Errorf("update allocation: %w", err)
		}
		if err := expectAffected(result); err != nil {
			return err
		}
		if err := tx.replaceWeeks(ctx, allocation.ID, allocation.Weeks); err != nil {
			return err
		}
		updated, err = tx.GetAllocation(ctx, allocation.ProjectID, allocation.ID)
		return err
	})
	return updated, err
}

func (r *SQLiteRepository) replaceWeeks(ctx context.Context, allocationID string, weeks []domain.WeeklyAllocation) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM weekly_allocations WHERE allocation_id = ?`, allocationID); err != nil {
		return fmt.Errorf("clear weekly allocations: %w", err)
	}
	for _, week := range weeks {
		_, err := r.q.ExecContext(ctx, `INSERT INTO weekly_allocations
			(allocation_id, week_number, hours_allocated, available_hours) VALUES (?, ?, ?, ?)`,
			allocationID, week.WeekNumber, week.HoursAllocated, week.AvailableHours)
		if err != nil {
			return fmt.Errorf("insert weekly allocation %d: %w", week.WeekNumber, constraintError(err))
		}
	}
	return nil
}

func (r *SQLiteRepository) DeleteAllocation(ctx context.Context, projectID, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM project_allocations WHERE id = ? AND project_id = ?`, id, projectID)
	if err != nil {
		return fmt.Errorf("delete allocation %s: %w", id, err)
	}
	return expectAffected(result)
}

func (r *SQLiteRepository) ListOffers(ctx context.Context) ([]domain.Offer, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, name, created_at, updated_at FROM offers ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	offers := make([]domain.Offer, 0)
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		offers = append(offers, offer)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for idx := range offers {
		items, err := r.loadOfferItems(ctx, offers[idx].ID)
		if err != nil {
			return nil, err
		}
		offers[idx].Items = items
	}
	return offers, nil
}

func scanOffer(row rowScanner) (domain.Offer, error) {
	var (
		offer     domain.Offer
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&offer.ID, &offer.Name, &createdAt, &updatedAt); err != nil {
		return domain.Offer{}, err
	}
	offer.CreatedAt = parseTime(createdAt)
	offer.UpdatedAt = parseTime(updatedAt)
	return offer, nil
}

func (r *SQLiteRepository) loadOfferItems(ctx context.Context, offerID string) ([]domain.OfferItem, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT professional_id, allocation_percentage
		FROM offer_items WHERE offer_id = ? ORDER BY position`, offerID)
	if err != nil {
		return nil, fmt.Errorf("load offer items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OfferItem, 0)
	for rows.Next() {
		var item domain.OfferItem
		if err := rows.Scan(&item.ProfessionalID, &item.AllocationPercentage); err != nil {
			return nil, fmt.Errorf("scan offer item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *SQLiteRepository) GetOffer(ctx context.Context, id string) (domain.Offer, error) {
	row := r.q.QueryRowContext(ctx, `SELECT id, name, created_at, updated_at FROM offers WHERE id = ?`, id)
	offer, err := scanOffer(row)
	if err != nil {
		return domain.Offer{}, notFound(err)
	}
	items, err := r.loadOfferItems(ctx, id)
	if err != nil {
		return domain.Offer{}, err
	}
	offer.Items = items
	return offer, nil
}

func (r *SQLiteRepository) CreateOffer(ctx context.Context, offer domain.Offer) (created domain.Offer, err error) {
	err = r.withTx(ctx, func(tx *SQLiteRepository) error {
		now := time.Now().UTC()
		offer.ID = uuid.NewString()
		_, err := tx.q.ExecContext(ctx, `INSERT INTO offers (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			offer.ID, offer.Name, formatTime(now), formatTime(now))
		if err != nil {
			return fmt.Errorf("insert offer: %w", constraintError(err))
		}
		if err := tx.replaceOfferItems(ctx, offer.ID, offer.Items); err != nil {
			return err
		}
		created, err = tx.GetOffer(ctx, offer.ID)
		return err
	})
	return created, err
}

func (r *SQLiteRepository) UpdateOffer(ctx context.Context, offer domain.Offer) (updated domain.Offer, err error) {
	err = r.withTx(ctx, func(tx *SQLiteRepository) error {
		result, err := tx.q.ExecContext(ctx, `UPDATE offers SET name = ?, updated_at = ? WHERE id = ?`,
			offer.Name, formatTime(time.Now().UTC()), offer.ID)
		if err != nil {
			return fmt.Errorf("update offer: %w", constraintError(err))
		}
		if err := expectAffected(result); err != nil {
			return err
		}
		if err := tx.replaceOfferItems(ctx, offer.ID, offer.Items); err != nil {
			return err
		}
		updated, err = tx.GetOffer(ctx, offer.ID)
		return err
	})
	return updated, err
}

func (r *SQLiteRepository) replaceOfferItems(ctx context.Context, offerID string, items []domain.OfferItem) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM offer_items WHERE offer_id = ?`, offerID); err != nil {
		return fmt.Errorf("clear offer items: %w", err)
	}
	for position, item := range items {
		_, err := r.q.ExecContext(ctx, `INSERT INTO offer_items
			(offer_id, position, professional_id, allocation_percentage) VALUES (?, ?, ?, ?)`,
			offerID, position, item.ProfessionalID, item.AllocationPercentage)
		if err != nil {
			if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
				return fmt.Errorf("offer item professional %s: %w", item.ProfessionalID, domain.ErrNotFound)
			}
			return fmt.Errorf("insert offer item: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRepository) DeleteOffer(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM offers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete offer %s: %w", id, err)
	}
	return expectAffected(result)
}
