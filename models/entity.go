package models

import "fmt"

// EntityType identifies the kind of business object an attachment tree
// belongs to.
type EntityType string

const (
	EntityLead     EntityType = "lead"
	EntityClient   EntityType = "client"
	EntityProject  EntityType = "project"
	EntityWarranty EntityType = "warranty"
)

// CollectionName returns the backend collection name for the entity type.
// Warranty pluralizes irregularly (y -> ies).
func (t EntityType) CollectionName() string {
	switch t {
	case EntityLead:
		return "leads"
	case EntityClient:
		return "clients"
	case EntityProject:
		return "projects"
	case EntityWarranty:
		return "warranties"
	}
	return string(t) + "s"
}

// Valid reports whether t is one of the known entity types.
func (t EntityType) Valid() bool {
	switch t {
	case EntityLead, EntityClient, EntityProject, EntityWarranty:
		return true
	}
	return false
}

// ParseEntityType converts a route segment into an EntityType.
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown entity type: %s", s)
	}
	return t, nil
}

// EntityRef scopes folder/file records to their owning business object.
type EntityRef struct {
	Type EntityType `json:"entity_type"`
	ID   string     `json:"entity_id"`
}

func (e EntityRef) String() string {
	return e.Type.CollectionName() + "/" + e.ID
}
