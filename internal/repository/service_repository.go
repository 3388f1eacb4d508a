package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/slot-booking-service/internal/model"
)

// ErrServiceExists is returned when a provider already has a service
// with the same name.
var ErrServiceExists = errors.New("service already exists")

// ServiceRepo provides CRUD operations for provider services.  A
// service groups the time slots a provider offers; the slot ledger
// reads services only to resolve ownership.
type ServiceRepo struct {
    db *sql.DB
}

// NewServiceRepo returns a ServiceRepo bound to the given database.
func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{db: db} }

// Create inserts a new service for the provider and populates the
// generated ID on the passed model.  A duplicate (provider, name)
// pair yields ErrServiceExists.
func (r *ServiceRepo) Create(ctx context.Context, s *model.Service) error {
    var desc sql.NullString
    if s.Description != nil && strings.TrimSpace(*s.Description) != "" {
        desc = sql.NullString{String: strings.TrimSpace(*s.Description), Valid: true}
    }
    res, err := r.db.ExecContext(ctx,
        "INSERT INTO services (provider_id, name, description) VALUES (?,?,?)",
        s.ProviderID, s.Name, desc)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrServiceExists
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    s.ID = uint64(id)
    return nil
}

// ListActive returns every active service for public browsing,
// newest first.
func (r *ServiceRepo) ListActive(ctx context.Context) ([]model.Service, error) {
    const q = `SELECT id, provider_id, name, description, is_active, created_at, updated_at
               FROM services WHERE is_active = 1 ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return scanServices(rows)
}

// ListByProvider returns all services owned by the given provider,
// including inactive ones.
func (r *ServiceRepo) ListByProvider(ctx context.Context, providerID uint64) ([]model.Service, error) {
    const q = `SELECT id, provider_id, name, description, is_active, created_at, updated_at
               FROM services WHERE provider_id = ? ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, providerID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return scanServices(rows)
}

// GetByID fetches a service by id.  Returns ErrServiceNotFound when
// the id does not resolve.
func (r *ServiceRepo) GetByID(ctx context.Context, id uint64) (model.Service, error) {
    const q = `SELECT id, provider_id, name, description, is_active, created_at, updated_at
               FROM services WHERE id = ? LIMIT 1`
    var s model.Service
    var desc sql.NullString
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &s.ID, &s.ProviderID, &s.Name, &desc, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
    if err == sql.ErrNoRows {
        return s, ErrServiceNotFound
    }
    if err != nil {
        return s, err
    }
    if desc.Valid {
        d := desc.String
        s.Description = &d
    }
    return s, nil
}

// GetByIDAndProvider fetches a service and enforces ownership.
// Returns ErrServiceNotFound when the id does not resolve and
// ErrForbidden when it belongs to a different provider.
func (r *ServiceRepo) GetByIDAndProvider(ctx context.Context, id, providerID uint64) (model.Service, error) {
    s, err := r.GetByID(ctx, id)
    if err != nil {
        return s, err
    }
    if s.ProviderID != providerID {
        return model.Service{}, ErrForbidden
    }
    return s, nil
}

func scanServices(rows *sql.Rows) ([]model.Service, error) {
    out := make([]model.Service, 0)
    for rows.Next() {
        var s model.Service
        var desc sql.NullString
        if err := rows.Scan(&s.ID, &s.ProviderID, &s.Name, &desc, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
            return nil, err
        }
        if desc.Valid {
            d := desc.String
            s.Description = &d
        }
        out = append(out, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
