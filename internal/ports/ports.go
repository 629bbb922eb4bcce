package ports

import (
	"context"

	"staffquote/internal/domain"
)

type Telemetry interface {
	Record(name string, attributes map[string]string)
}

// ImportExport converts professionals and billing tables to and from
// external file formats.
type ImportExport interface {
	ImportProfessionals(ctx context.Context, raw []byte) ([]domain.Professional, []string, error)
	ExportBillingTable(ctx context.Context, table domain.BillingTable, format string) ([]byte, string, error)
}

// Repository stores professionals, projects, their allocations and offers.
// Lookups of missing records return domain.ErrNotFound.
type Repository interface {
	ListProfessionals(ctx context.Context) ([]domain.Professional, error)
	GetProfessional(ctx context.Context, id string) (domain.Professional, error)
	CreateProfessional(ctx context.Context, professional domain.Professional) (domain.Professional, error)
	UpdateProfessional(ctx context.Context, professional domain.Professional) (domain.Professional, error)
	DeleteProfessional(ctx context.Context, id string) error

	ListProjects(ctx context.Context, filter domain.ProjectFilter) (domain.ProjectPage, error)
	GetProject(ctx context.Context, id string) (domain.Project, error)
	CreateProject(ctx context.Context, project domain.Project) (domain.Project, error)
	UpdateProject(ctx context.Context, project domain.Project) (domain.Project, error)
	DeleteProject(ctx context.Context, id string) error

	ListAllocations(ctx context.Context, projectID string) ([]domain.Allocation, error)
	CountAllocationsByProfessional(ctx context.Context, professionalID string) (int, error)
	GetAllocation(ctx context.Context, projectID, id string) (domain.Allocation, error)
	CreateAllocation(ctx context.Context, allocation domain.Allocation) (domain.Allocation, error)
	UpdateAllocation(ctx context.Context, allocation domain.Allocation) (domain.Allocation, error)
	DeleteAllocation(ctx context.Context, projectID, id string) error

	ListOffers(ctx context.Context) ([]domain.Offer, error)
	GetOffer(ctx context.Context, id string) (domain.Offer, error)
	CreateOffer(ctx context.Context, offer domain.Offer) (domain.Offer, error)
	UpdateOffer(ctx context.Context, offer domain.Offer) (domain.Offer, error)
	DeleteOffer(ctx context.Context, id string) error

	// WithinTransaction runs fn as one unit of work. Changes made through
	// the repository passed to fn are committed when fn returns nil and
	// discarded when it returns an error or panics.
	WithinTransaction(ctx context.Context, fn func(Repository) error) error
}
