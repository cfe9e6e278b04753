// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/jcourtner/leadpipe/internal/model"
)

// ProspectFilter defines filtering options for prospect queries.
type ProspectFilter struct {
	Population *model.Population
	CompanyID  *int64
	Limit      int
	Offset     int
}

// Storage defines the contract for our persistence layer. Every call is
// transactional on its own; multi-step atomic units go through BeginTx.
type Storage interface {
	// Company operations
	CreateCompany(ctx context.Context, company *model.Company) (int64, error)
	GetCompany(ctx context.Context, id int64) (*model.Company, error)
	GetCompanyByNormalizedName(ctx context.Context, name string) (*model.Company, error)
	UpdateCompany(ctx context.Context, company *model.Company) error

	// Prospect operations
	CreateProspect(ctx context.Context, prospect *model.Prospect) (int64, error)
	GetProspect(ctx context.Context, id int64) (*model.Prospect, error)
	UpdateProspect(ctx context.Context, prospect *model.Prospect) error
	GetProspects(ctx context.Context, filter ProspectFilter) ([]model.Prospect, error)
	FindProspectByEmail(ctx context.Context, email string) (int64, error)
	FindProspectByPhone(ctx context.Context, phone string) (int64, error)
	GetOverdueProspects(ctx context.Context, asOf time.Time) ([]model.Prospect, error)
	GetOrphanedEngaged(ctx context.Context) ([]model.Prospect, error)
	GetProspectsDue(ctx context.Context, population model.Population, asOf time.Time) ([]model.Prospect, error)

	// Contact method operations
	CreateContactMethod(ctx context.Context, method *model.ContactMethod) (int64, error)
	GetContactMethods(ctx context.Context, prospectID int64) ([]model.ContactMethod, error)
	IsDNC(ctx context.Context, email, phone string) (bool, error)

	// Activity operations
	CreateActivity(ctx context.Context, activity *model.Activity) (int64, error)
	GetActivities(ctx context.Context, prospectID int64) ([]model.Activity, error)

	// Import source operations
	CreateImportSource(ctx context.Context, source *model.ImportSource) (int64, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within transaction
	Storage
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
