package dom

import (
	"github.com/google/uuid"

	"github.com/annoforge/annotator-api/internal/models"
	appErrors "github.com/annoforge/annotator-api/pkg/errors"
)

// Store is the ordered, mutable annotation collection for one file. It is
// the single source of truth: the live document is disposable and highlights
// are rebuilt from the store on every load. Mutations are synchronous;
// per-file access is single-threaded by the session model.
type Store struct {
	annotations []models.Annotation
}

// NewStore wraps an initial annotation list, assigning ids to records that
// arrive without one (detector output has ids unset).
func NewStore(initial []models.Annotation) *Store {
	s := &Store{annotations: make([]models.Annotation, 0, len(initial))}
	for _, a := range initial {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		s.annotations = append(s.annotations, a)
	}
	return s
}

// List returns a copy of the collection in sequence order.
func (s *Store) List() []models.Annotation {
	out := make([]models.Annotation, len(s.annotations))
	copy(out, s.annotations)
	return out
}

// Get returns the annotation with the given id.
func (s *Store) Get(id string) (models.Annotation, bool) {
	for _, a := range s.annotations {
		if a.ID == id {
			return a, true
		}
	}
	return models.Annotation{}, false
}

// Len returns the number of stored annotations.
func (s *Store) Len() int {
	return len(s.annotations)
}

// Add assigns a fresh unique id and appends the record to the end of the
// sequence. New annotations are never inserted mid-order.
func (s *Store) Add(a models.Annotation) string {
	a.ID = uuid.NewString()
	s.annotations = append(s.annotations, a)
	return a.ID
}

// Update applies a partial update to display metadata. ID, locator and type
// never change after creation.
func (s *Store) Update(id string, fields models.AnnotationUpdate) error {
	for i := range s.annotations {
		if s.annotations[i].ID != id {
			continue
		}
		a := &s.annotations[i]
		if fields.Label != nil {
			a.Label = *fields.Label
		}
		if fields.URL != nil {
			a.URL = *fields.URL
		}
		if fields.Name != nil {
			a.Name = *fields.Name
		}
		if fields.Comments != nil {
			a.Comments = *fields.Comments
		}
		if fields.CustomColor != nil {
			a.CustomColor = *fields.CustomColor
		}
		return nil
	}
	return appErrors.Clone(appErrors.ErrNotFound, "annotation not found")
}

// Delete removes the record with the given id. Removal is idempotent;
// deleting an unknown id is not an error.
func (s *Store) Delete(id string) bool {
	for i := range s.annotations {
		if s.annotations[i].ID == id {
			s.annotations = append(s.annotations[:i], s.annotations[i+1:]...)
			return true
		}
	}
	return false
}

// Reorder replaces the ordering wholesale. The id sequence must be a
// permutation of the stored ids; otherwise the store is left untouched and
// an OrderMismatch error is returned.
func (s *Store) Reorder(ids []string) error {
	if len(ids) != len(s.annotations) {
		return appErrors.ErrOrderMismatch
	}
	byID := make(map[string]models.Annotation, len(s.annotations))
	for _, a := range s.annotations {
		byID[a.ID] = a
	}
	reordered := make([]models.Annotation, 0, len(ids))
	for _, id := range ids {
		a, ok := byID[id]
		if !ok {
			return appErrors.ErrOrderMismatch
		}
		delete(byID, id)
		reordered = append(reordered, a)
	}
	s.annotations = reordered
	return nil
}

// Replace swaps the whole collection for an edited copy of itself: the
// incoming list must reference the same id set, and immutable fields
// (locator, type, element type) are taken from the stored records rather
// than from the payload. Order follows the payload.
func (s *Store) Replace(list []models.Annotation) error {
	if len(list) != len(s.annotations) {
		return appErrors.ErrOrderMismatch
	}
	byID := make(map[string]models.Annotation, len(s.annotations))
	for _, a := range s.annotations {
		byID[a.ID] = a
	}
	replaced := make([]models.Annotation, 0, len(list))
	for _, incoming := range list {
		current, ok := byID[incoming.ID]
		if !ok {
			return appErrors.ErrOrderMismatch
		}
		delete(byID, incoming.ID)
		incoming.Type = current.Type
		incoming.ElementType = current.ElementType
		incoming.Locator = current.Locator
		replaced = append(replaced, incoming)
	}
	s.annotations = replaced
	return nil
}
