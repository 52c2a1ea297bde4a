package statefulcontent

import "fmt"

// Identifier is the Contentful sys.id of an entry. It is stable across the
// preview and delivery APIs.
type Identifier string

// ResourceState is the resolved publishing state of a preview entry.
type ResourceState string

// Resource state constants (typed).
const (
	ResourceStateUpToDate       ResourceState = "upToDate"
	ResourceStateDraft          ResourceState = "draft"
	ResourceStatePendingChanges ResourceState = "pendingChanges"
)

// rank orders states by precedence; the zero value counts as upToDate.
func (s ResourceState) rank() int {
	switch s {
	case ResourceStatePendingChanges:
		return 2
	case ResourceStateDraft:
		return 1
	default:
		return 0
	}
}

// IsValid reports whether s is one of the known states.
func (s ResourceState) IsValid() bool {
	switch s {
	case ResourceStateUpToDate, ResourceStateDraft, ResourceStatePendingChanges:
		return true
	}
	return false
}

// ParseResourceState converts a string into a ResourceState.
func ParseResourceState(s string) (ResourceState, error) {
	state := ResourceState(s)
	if !state.IsValid() {
		return "", fmt.Errorf("unknown resource state %q", s)
	}
	return state, nil
}

// FoldStates reduces own and the states of directly linked children into a
// single state. pendingChanges wins over draft, draft wins over upToDate. The
// result does not depend on the order of children.
func FoldStates(own ResourceState, children ...ResourceState) ResourceState {
	folded := own
	for _, child := range children {
		if child.rank() > folded.rank() {
			folded = child
		}
	}
	if !folded.IsValid() {
		return ResourceStateUpToDate
	}
	return folded
}

// Resource is the capability record shared by every fetchable entity.
type Resource struct {
	ID          Identifier    `json:"id"`
	ContentType string        `json:"content_type"`
	State       ResourceState `json:"state"`
}

// NewResource returns a Resource in the upToDate state.
func NewResource(id Identifier, contentType string) Resource {
	return Resource{ID: id, ContentType: contentType, State: ResourceStateUpToDate}
}

// ResourceID returns the entry identifier.
func (r *Resource) ResourceID() Identifier { return r.ID }

// ContentTypeID returns the Contentful content type id.
func (r *Resource) ContentTypeID() string { return r.ContentType }

// ResourceState returns the current state, upToDate when unset.
func (r *Resource) ResourceState() ResourceState {
	if r.State == "" {
		return ResourceStateUpToDate
	}
	return r.State
}

// SetResourceState replaces the current state.
func (r *Resource) SetResourceState(state ResourceState) { r.State = state }

// StatefulResource is implemented by every entity that carries a resolution
// state. FieldValue exposes the scalar fields named by the entity's schema.
type StatefulResource interface {
	ResourceID() Identifier
	ContentTypeID() string
	ResourceState() ResourceState
	SetResourceState(ResourceState)
	FieldValue(key FieldKey) (any, bool)
}
