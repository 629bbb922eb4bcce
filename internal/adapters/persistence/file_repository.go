package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"staffquote/internal/domain"
	"staffquote/internal/ports"
)

type fileState struct {
	Professionals map[string]domain.Professional `json:"professionals"`
	Projects      map[string]domain.Project      `json:"projects"`
	Allocations   map[string]domain.Allocation   `json:"allocations"`
	Offers        map[string]domain.Offer        `json:"offers"`
	Sequence      int64                          `json:"sequence"`
}

// FileRepository keeps the whole dataset in memory and snapshots it to a JSON
// file after every committed change.
type FileRepository struct {
	path           string
	mu             sync.RWMutex
	state          fileState
	persistedState fileState
}

var _ ports.Repository = (*FileRepository)(nil)

func NewFileRepository(path string) (*FileRepository, error) {
	if path == "" {
		path = "./staffquote_data.json"
	}

	repo := &FileRepository{path: path}
	repo.ensureMapsLocked()
	repo.persistedState = cloneFileState(repo.state)

	if err := repo.load(); err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *FileRepository) load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	content, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return r.persistLocked()
		}
		return err
	}

	if len(content) == 0 {
		return nil
	}

	if err := json.Unmarshal(content, &r.state); err != nil {
		return fmt.Errorf("decode repository data: %w", err)
	}

	r.ensureMapsLocked()
	r.persistedState = cloneFileState(r.state)
	return nil
}

func (r *FileRepository) ensureMapsLocked() {
	if r.state.Professionals == nil {
		r.state.Professionals = map[string]domain.Professional{}
	}
	if r.state.Projects == nil {
		r.state.Projects = map[string]domain.Project{}
	}
	if r.state.Allocations == nil {
		r.state.Allocations = map[string]domain.Allocation{}
	}
	if r.state.Offers == nil {
		r.state.Offers = map[string]domain.Offer{}
	}
}

func (r *FileRepository) persistLocked() error {
	r.ensureMapsLocked()
	body, err := json.MarshalIndent(r.state, "", "  ")
	if err != nil {
		r.state = cloneFileState(r.persistedState)
		return err
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		r.state = cloneFileState(r.persistedState)
		return err
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o600); err != nil {
		_ = os.Remove(tmp)
		r.state = cloneFileState(r.persistedState)
		return err
	}

	if err := os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp)
		r.state = cloneFileState(r.persistedState)
		return err
	}
	r.persistedState = cloneFileState(r.state)

	return nil
}

// WithinTransaction holds the write lock while fn runs and persists once at
// the end. fn must use the repository it is given; calling back into r
// would deadlock.
func (r *FileRepository) WithinTransaction(ctx context.Context, fn func(ports.Repository) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	defer func() {
		if recovered := recover(); recovered != nil {
			r.state = cloneFileState(r.persistedState)
			err = fmt.Errorf("panic in transaction: %v", recovered)
		}
	}()

	if err := fn(&fileTx{state: &r.state}); err != nil {
		r.state = cloneFileState(r.persistedState)
		return err
	}

	return r.persistLocked()
}

// Close is a no-op; every commit is already on disk.
func (r *FileRepository) Close() error {
	return nil
}

func (r *FileRepository) read() *fileTx {
	return &fileTx{state: &r.state}
}

func (r *FileRepository) ListProfessionals(ctx context.Context) ([]domain.Professional, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.read().ListProfessionals(ctx)
}

func (r *FileRepository) GetProfessional(ctx context.Context, id string) (domain.Professional, error) {
	if err := ctx.Err(); err != nil {
		return domain.Professional{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.read().GetProfessional(ctx, id)
}

func (r *FileRepository) CreateProfessional(ctx context.Context, professional domain.Professional) (created domain.Professional, err error) {
	err = r.WithinTransaction(ctx, func(tx ports.Repository) error {
		created, err = tx.CreateProfessional(ctx, professional)
		return err
	})
	return created, err
}

func (r *FileRepository) UpdateProfessional(ctx context.Context, professional domain.Professional) (updated domain.Professional, err error) {
	err = r.WithinTransaction(ctx, func(tx ports.Repository) error {
		updated, err = tx.UpdateProfessional(ctx, professional)
		return err
	})
	return updated, err
}

func (r *FileRepository) DeleteProfessional(ctx context.Context, id string) error {
	return r.WithinTransaction(ctx, func(tx ports.Repository) error {
		return tx.DeleteProfessional(ctx, id)
	})
}

func (r *FileRepository) ListProjects(ctx context.Context, filter domain.ProjectFilter) (domain.ProjectPage, error) {
	if err := ctx.Err(); err != nil {
		return domain.ProjectPage{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.read().ListProjects(ctx, filter)
}

func (r *FileRepository) GetProject(ctx context.Context, id string) (domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return domain.Project{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.read().GetProject(ctx, id)
}

func (r *FileRepository) CreateProject(ctx context.Context, project domain.Project) (created domain.Project, err error) {
	err = r.WithinTransaction(ctx, func(tx ports.Repository) error {
		created, err = tx.CreateProject(ctx, project)
		return err
	})
	return created, err
}

func (r *FileRepository) UpdateProject(ctx context.Context, project domain.Project) (updated domain.Project, err error) {
	err = r.WithinTransaction(ctx, func(tx ports.Repository) error {
		updated, err = tx.UpdateProject(ctx, project)
		return err
	})
	return updated, err
}

func (r *FileRepository) DeleteProject(ctx context.Context, id string) error {
	return r.WithinTransaction(ctx, func(tx ports.Repository) error {
		return tx.DeleteProject(ctx, id)
	})
}

func (r *FileRepository) ListAllocations(ctx context.Context, projectID string) ([]domain.Allocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.read().ListAllocations(ctx, projectID)
}

func (r *FileRepository) CountAllocationsByProfessional(ctx context.Context, professionalID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.read().CountAllocationsByProfessional(ctx, professionalID)
}

func (r *FileRepository) GetAllocation(ctx context.Context, projectID, id string) (domain.Allocation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Allocation{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.read().GetAllocation(ctx, projectID, id)
}

func (r *FileRepository) CreateAllocation(ctx context.Context, allocation domain.Allocation) (created domain.Allocation, err error) {
	err = r.WithinTransaction(ctx, func(tx ports.Repository) error {
		created, err = tx.CreateAllocation(ctx, allocation)
		return err
	})
	return created, err
}

func (r *FileRepository) UpdateAllocation(ctx context.Context, allocation domain.Allocation) (updated domain.Allocation, err error) {
	err = r.WithinTransaction(ctx, func(tx ports.Repository) error {
		updated, err = tx.UpdateAllocation(ctx, allocation)
		return err
	})
	return updated, err
}

func (r *FileRepository) DeleteAllocation(ctx context.Context, projectID, id string) error {
	return r.WithinTransaction(ctx, func(tx ports.Repository) error {
		return tx.DeleteAllocation(ctx, projectID, id)
	})
}

func (r *FileRepository) ListOffers(ctx context.Context) ([]domain.Offer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.read().ListOffers(ctx)
}

func (r *FileRepository) GetOffer(ctx context.Context, id string) (domain.Offer, error) {
	if err := ctx.Err(); err != nil {
		return domain.Offer{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.read().GetOffer(ctx, id)
}

func (r *FileRepository) CreateOffer(ctx context.Context, offer domain.Offer) (created domain.Offer, err error) {
	err = r.WithinTransaction(ctx, func(tx ports.Repository) error {
		created, err = tx.CreateOffer(ctx, offer)
		return err
	})
	return created, err
}

func (r *FileRepository) UpdateOffer(ctx context.Context, offer domain.Offer) (updated domain.Offer, err error) {
	err = r.WithinTransaction(ctx, func(tx ports.Repository) error {
		updated, err = tx.UpdateOffer(ctx, offer)
		return err
	})
	return updated, err
}

func (r *FileRepository) DeleteOffer(ctx context.Context, id string) error {
	return r.WithinTransaction(ctx, func(tx ports.Repository) error {
		return tx.DeleteOffer(ctx, id)
	})
}

// fileTx operates on the locked in-memory state. It never persists; the
// owning FileRepository commits or restores the state when fn returns.
type fileTx struct {
	state *fileState
}

var _ ports.Repository = (*fileTx)(nil)

func (tx *fileTx) WithinTransaction(_ context.Context, fn func(ports.Repository) error) error {
	return fn(tx)
}

func (tx *fileTx) nextID(prefix string) string {
	tx.state.Sequence++
	return fmt.Sprintf("%s_%d", prefix, tx.state.Sequence)
}

func (tx *fileTx) ListProfessionals(_ context.Context) ([]domain.Professional, error) {
	result := make([]domain.Professional, 0, len(tx.state.Professionals))
	for _, professional := range tx.state.Professionals {
		result = append(result, professional)
	}
	sortedProfessionals(result)
	return result, nil
}

func (tx *fileTx) GetProfessional(_ context.Context, id string) (domain.Professional, error) {
	professional, ok := tx.state.Professionals[id]
	if !ok {
		return domain.Professional{}, domain.ErrNotFound
	}
	return professional, nil
}

func (tx *fileTx) CreateProfessional(_ context.Context, professional domain.Professional) (domain.Professional, error) {
	now := time.Now().UTC()
	professional.ID = tx.nextID("pro")
	professional.CreatedAt = now
	professional.UpdatedAt = now
	tx.state.Professionals[professional.ID] = professional
	return professional, nil
}

func (tx *fileTx) UpdateProfessional(_ context.Context, professional domain.Professional) (domain.Professional, error) {
	current, ok := tx.state.Professionals[professional.ID]
	if !ok {
		return domain.Professional{}, domain.ErrNotFound
	}

	professional.CreatedAt = current.CreatedAt
	professional.UpdatedAt = time.Now().UTC()
	tx.state.Professionals[professional.ID] = professional
	return professional, nil
}

func (tx *fileTx) DeleteProfessional(_ context.Context, id string) error {
	if _, ok := tx.state.Professionals[id]; !ok {
		return domain.ErrNotFound
	}
	for _, allocation := range tx.state.Allocations {
		if allocation.ProfessionalID == id {
			return fmt.Errorf("professional %s is allocated to project %s: %w", id, allocation.ProjectID, domain.ErrConflict)
		}
	}

	delete(tx.state.Professionals, id)
	for offerID, offer := range tx.state.Offers {
		items := make([]domain.OfferItem, 0, len(offer.Items))
		for _, item := range offer.Items {
			if item.ProfessionalID != id {
				items = append(items, item)
			}
		}
		if len(items) != len(offer.Items) {
			offer.Items = items
			tx.state.Offers[offerID] = offer
		}
	}
	return nil
}

func (tx *fileTx) ListProjects(_ context.Context, filter domain.ProjectFilter) (domain.ProjectPage, error) {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	matches := make([]domain.Project, 0, len(tx.state.Projects))
	for _, project := range tx.state.Projects {
		if search != "" && !strings.Contains(strings.ToLower(project.Name), search) {
			continue
		}
		matches = append(matches, project)
	}
	sortedProjects(matches)

	return domain.ProjectPage{Items: paginate(matches, filter.Skip, filter.Limit), Total: len(matches)}, nil
}

func (tx *fileTx) GetProject(_ context.Context, id string) (domain.Project, error) {
	project, ok := tx.state.Projects[id]
	if !ok {
		return domain.Project{}, domain.ErrNotFound
	}
	return project, nil
}

func (tx *fileTx) CreateProject(_ context.Context, project domain.Project) (domain.Project, error) {
	now := time.Now().UTC()
	project.ID = tx.nextID("prj")
	project.CreatedAt = now
	project.UpdatedAt = now
	tx.state.Projects[project.ID] = project
	return project, nil
}

func (tx *fileTx) UpdateProject(_ context.Context, project domain.Project) (domain.Project, error) {
	current, ok := tx.state.Projects[project.ID]
	if !ok {
		return domain.Project{}, domain.ErrNotFound
	}

	project.CreatedAt = current.CreatedAt
	project.UpdatedAt = time.Now().UTC()
	tx.state.Projects[project.ID] = project
	return project, nil
}

func (tx *fileTx) DeleteProject(_ context.Context, id string) error {
	if _, ok := tx.state.Projects[id]; !ok {
		return domain.ErrNotFound
	}

	delete(tx.state.Projects, id)
	for allocationID, allocation := range tx.state.Allocations {
		if allocation.ProjectID == id {
			delete(tx.state.Allocations, allocationID)
		}
	}
	return nil
}

func (tx *fileTx) ListAllocations(_ context.Context, projectID string) ([]domain.Allocation, error) {
	if _, ok := tx.state.Projects[projectID]; !ok {
		return nil, domain.ErrNotFound
	}

	result := make([]domain.Allocation, 0)
	for _, allocation := range tx.state.Allocations {
		if allocation.ProjectID == projectID {
			result = append(result, copyAllocation(allocation))
		}
	}
	sortedAllocations(result)
	return result, nil
}

func (tx *fileTx) CountAllocationsByProfessional(_ context.Context, professionalID string) (int, error) {
	count := 0
	for _, allocation := range tx.state.Allocations {
		if allocation.ProfessionalID == professionalID {
			count++
		}
	}
	return count, nil
}

func (tx *fileTx) GetAllocation(_ context.Context, projectID, id string) (domain.Allocation, error) {
	allocation, ok := tx.state.Allocations[id]
	if !ok || allocation.ProjectID != projectID {
		return domain.Allocation{}, domain.ErrNotFound
	}
	return copyAllocation(allocation), nil
}

func (tx *fileTx) CreateAllocation(_ context.Context, allocation domain.Allocation) (domain.Allocation, error) {
	if _, ok := tx.state.Projects[allocation.ProjectID]; !ok {
		return domain.Allocation{}, domain.ErrNotFound
	}
	if _, ok := tx.state.Professionals[allocation.ProfessionalID]; !ok {
		return domain.Allocation{}, domain.ErrNotFound
	}

	now := time.Now().UTC()
	allocation = copyAllocation(allocation)
	allocation.ID = tx.nextID("alc")
	allocation.CreatedAt = now
	allocation.UpdatedAt = now
	tx.state.Allocations[allocation.ID] = allocation
	return copyAllocation(allocation), nil
}

// UpdateAllocation stores the selling rate and week rows. Project,
// professional and the frozen cost rate always keep their stored values.
func (tx *fileTx) UpdateAllocation(_ context.Context, allocation domain.Allocation) (domain.Allocation, error) {
	current, ok := tx.state.Allocations[allocation.ID]
	if !ok || current.ProjectID != allocation.ProjectID {
		return domain.Allocation{}, domain.ErrNotFound
	}

	current.SellingHourlyRate = allocation.SellingHourlyRate
	current.Weeks = append([]domain.WeeklyAllocation{}, allocation.Weeks...)
	current.UpdatedAt = time.Now().UTC()
	tx.state.Allocations[current.ID] = current
	return copyAllocation(current), nil
}

func (tx *fileTx) DeleteAllocation(_ context.Context, projectID, id string) error {
	allocation, ok := tx.state.Allocations[id]
	if !ok || allocation.ProjectID != projectID {
		return domain.ErrNotFound
	}
	delete(tx.state.Allocations, id)
	return nil
}

func (tx *fileTx) ListOffers(_ context.Context) ([]domain.Offer, error) {
	result := make([]domain.Offer, 0, len(tx.state.Offers))
	for _, offer := range tx.state.Offers {
		result = append(result, copyOffer(offer))
	}
	sortedOffers(result)
	return result, nil
}

func (tx *fileTx) GetOffer(_ context.Context, id string) (domain.Offer, error) {
	offer, ok := tx.state.Offers[id]
	if !ok {
		return domain.Offer{}, domain.ErrNotFound
	}
	return copyOffer(offer), nil
}

func (tx *fileTx) CreateOffer(_ context.Context, offer domain.Offer) (domain.Offer, error) {
	if err := tx.ensureUniqueOfferName(offer.Name, ""); err != nil {
		return domain.Offer{}, err
	}

	now := time.Now().UTC()
	offer = copyOffer(offer)
	offer.ID = tx.nextID("ofr")
	offer.CreatedAt = now
	offer.UpdatedAt = now
	tx.state.Offers[offer.ID] = offer
	return copyOffer(offer), nil
}

func (tx *fileTx) UpdateOffer(_ context.Context, offer domain.Offer) (domain.Offer, error) {
	current, ok := tx.state.Offers[offer.ID]
	if !ok {
		return domain.Offer{}, domain.ErrNotFound
	}
	if err := tx.ensureUniqueOfferName(offer.Name, offer.ID); err != nil {
		return domain.Offer{}, err
	}

	offer = copyOffer(offer)
	offer.CreatedAt = current.CreatedAt
	offer.UpdatedAt = time.Now().UTC()
	tx.state.Offers[offer.ID] = offer
	return copyOffer(offer), nil
}

func (tx *fileTx) DeleteOffer(_ context.Context, id string) error {
	if _, ok := tx.state.Offers[id]; !ok {
		return domain.ErrNotFound
	}
	delete(tx.state.Offers, id)
	return nil
}

func (tx *fileTx) ensureUniqueOfferName(name, exceptID string) error {
	for id, offer := range tx.state.Offers {
		if id != exceptID && offer.Name == name {
			return fmt.Errorf("offer %q already exists: %w", name, domain.ErrConflict)
		}
	}
	return nil
}

func copyAllocation(allocation domain.Allocation) domain.Allocation {
	allocation.Weeks = append([]domain.WeeklyAllocation{}, allocation.Weeks...)
	return allocation
}

func copyOffer(offer domain.Offer) domain.Offer {
	offer.Items = append([]domain.OfferItem{}, offer.Items...)
	return offer
}

func cloneFileState(state fileState) fileState {
	clone := fileState{
		Professionals: make(map[string]domain.Professional, len(state.Professionals)),
		Projects:      make(map[string]domain.Project, len(state.Projects)),
		Allocations:   make(map[string]domain.Allocation, len(state.Allocations)),
		Offers:        make(map[string]domain.Offer, len(state.Offers)),
		Sequence:      state.Sequence,
	}

	for id, professional := range state.Professionals {
		clone.Professionals[id] = professional
	}
	for id, project := range state.Projects {
		clone.Projects[id] = project
	}
	for id, allocation := range state.Allocations {
		clone.Allocations[id] = copyAllocation(allocation)
	}
	for id, offer := range state.Offers {
		clone.Offers[id] = copyOffer(offer)
	}

	return clone
}

// lessID orders generated ids numerically within a prefix ("alc_2" < "alc_10").
func lessID(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func sortedProfessionals(items []domain.Professional) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name == items[j].Name {
			return lessID(items[i].ID, items[j].ID)
		}
		return items[i].Name < items[j].Name
	})
}

func sortedProjects(items []domain.Project) {
	sort.Slice(items, func(i, j int) bool {
		left := strings.ToLower(items[i].Name)
		right := strings.ToLower(items[j].Name)
		if left == right {
			return lessID(items[i].ID, items[j].ID)
		}
		return left < right
	})
}

func sortedAllocations(items []domain.Allocation) {
	sort.Slice(items, func(i, j int) bool {
		return lessID(items[i].ID, items[j].ID)
	})
}

func sortedOffers(items []domain.Offer) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name == items[j].Name {
			return lessID(items[i].ID, items[j].ID)
		}
		return items[i].Name < items[j].Name
	})
}

func paginate[T any](items []T, skip, limit int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
