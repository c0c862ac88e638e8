package records

import (
	"time"

	"github.com/edusync/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PartnerEntity provides common fields for records mirrored from the partner
// system. IDPartner is the stable external identifier used to join local and
// remote records; DeletedAt marks a record logically absent without removing
// the row, so a record that reappears upstream can be reactivated in place.
type PartnerEntity struct {
	shared.BaseEntity
	IDPartner uuid.UUID  `gorm:"column:id_partner;type:uuid;not null;uniqueIndex"`
	DeletedAt *time.Time `gorm:"index"`
}

// NewPartnerEntity creates the base for a record first seen in a sync pass
func NewPartnerEntity(idPartner uuid.UUID) PartnerEntity {
	return PartnerEntity{
		BaseEntity: shared.NewBaseEntity(),
		IDPartner:  idPartner,
	}
}

// IsActive reports whether the record is not soft-deleted
func (e *PartnerEntity) IsActive() bool {
	return e.DeletedAt == nil
}

// Deactivate soft-deletes the record at the given time
func (e *PartnerEntity) Deactivate(at time.Time) {
	e.DeletedAt = &at
}

// Reactivate clears the soft-delete marker
func (e *PartnerEntity) Reactivate() {
	e.DeletedAt = nil
}
