package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrTenantNotFound = errors.New("tenant not found")

// Tenant is a workspace/organization. It is the root scoping entity, has no
// parent scope of its own, and is never auto-deleted.
type Tenant struct {
	ID           string    `json:"id"`
	Organization string    `json:"organization"`
	LogoURL      *string   `json:"logo_url,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	CreatedBy    *string   `json:"-"` // acting account UUID, no FK
	UpdatedAt    time.Time `json:"updated_at"`
	UpdatedBy    *string   `json:"-"`
}

// New builds an active tenant with a fresh ID, created by the given account.
func New(organization, createdBy string) *Tenant {
	return &Tenant{
		ID:           uuid.NewString(),
		Organization: organization,
		IsActive:     true,
		CreatedBy:    &createdBy,
	}
}

// Repository defines the interface for tenant storage
type Repository interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetByID(ctx context.Context, id string) (*Tenant, error)
	Update(ctx context.Context, tenant *Tenant) error
	List(ctx context.Context, limit, offset int) ([]*Tenant, error)
}
