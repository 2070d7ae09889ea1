package aggregate

import (
	"strings"
	"time"

	"mallguide-server-go/internal/platform/errors"
)

// IDSeparator replaces every whitespace run of a store name in its id.
const IDSeparator = "_"

// DefaultMapLocation is the map component rendered on every detail page.
const DefaultMapLocation = "MapComponent"

// DefaultFloor is applied when a create request leaves the floor empty.
const DefaultFloor = "Ground"

// Store is a single mall tenant.
type Store struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Category    string    `json:"category" bson:"category"`
	Description string    `json:"description" bson:"description"`
	Phone       string    `json:"phone" bson:"phone"`
	Floor       string    `json:"floor" bson:"floor"`
	MapLocation string    `json:"mapLocation" bson:"mapLocation"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}

// StoreID derives the record id from a display name: surrounding whitespace
// is dropped and inner runs collapse to IDSeparator.
func StoreID(name string) string {
	return strings.Join(strings.Fields(name), IDSeparator)
}

// MissingFields lists the required fields that are empty after trimming.
func (s *Store) MissingFields() []string {
	var missing []string
	check := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	check("name", s.Name)
	check("category", s.Category)
	check("description", s.Description)
	check("phone", s.Phone)
	check("floor", s.Floor)
	return missing
}

// Validate reports a validation error naming every missing field.
func (s *Store) Validate() error {
	if s == nil {
		return errors.New(errors.KindValidation, "store.validate", "store is required")
	}
	if missing := s.MissingFields(); len(missing) > 0 {
		return errors.New(errors.KindValidation, "store.validate",
			"missing required fields: "+strings.Join(missing, ", "))
	}
	if s.ID == "" || s.ID != StoreID(s.Name) {
		return errors.Newf(errors.KindValidation, "store.validate", "store id %q does not match name %q", s.ID, s.Name)
	}
	return nil
}

// Clone returns a copy safe to hand out of a store backend.
func (s *Store) Clone() *Store {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
