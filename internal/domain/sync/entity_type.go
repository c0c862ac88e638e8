package sync

import "fmt"

// EntityType identifies one partner-mirrored record type
type EntityType string

const (
	EntityCourse     EntityType = "course"
	EntityClass      EntityType = "class"
	EntityStudent    EntityType = "student"
	EntityEnrollment EntityType = "enrollment"

	// EntityAll labels the aggregate of a full sync run
	EntityAll EntityType = "all"
)

// AllEntityTypes returns the syncable types in dependency order. Classes
// reference courses and enrollments reference both students and classes, so
// the order is load-bearing: reconciling out of order turns missing
// dependencies into avoidable per-record errors.
func AllEntityTypes() []EntityType {
	return []EntityType{
		EntityCourse,
		EntityClass,
		EntityStudent,
		EntityEnrollment,
	}
}

// ParseEntityType converts a string into a syncable EntityType
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(s)
	for _, known := range AllEntityTypes() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}
