package model

import "time"

// Service represents a bookable offering owned by a provider.
// Providers publish time slots under a service; customers browse
// services and reserve the slots attached to them.  This struct
// corresponds to a row in the `services` table.
//
// Fields:
//  ID          – primary key identifier.
//  ProviderID  – user ID of the owning provider.
//  Name        – service name, unique per provider.
//  Description – optional free-form description.
//  IsActive    – whether the service is visible to customers.
//  CreatedAt   – timestamp when the service was created.
//  UpdatedAt   – timestamp of last update.
type Service struct {
    ID          uint64    // services.id
    ProviderID  uint64    // services.provider_id
    Name        string    // services.name
    Description *string   // services.description (nullable)
    IsActive    bool      // services.is_active
    CreatedAt   time.Time // services.created_at
    UpdatedAt   time.Time // services.updated_at
}
