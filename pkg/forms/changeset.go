package forms

import (
	"sort"
	"strings"

	"github.com/gabrielmiguelok/commentkit/pkg/comment"
)

// ValidationError aggregates per-field validation failures. It is raised
// before any network call and is never retried.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return strings.Join(parts, "; ")
}

// IsValidation tags the error for the classifier without an import cycle.
func (e *ValidationError) IsValidation() bool { return true }

// Changeset tracks form input, validation state, and errors for a comment
// submission. A failed submit keeps the changeset (and so the draft) alive.
type Changeset struct {
	// Changes holds the cast field values.
	Changes map[string]any

	// Errors contains validation messages keyed by field name.
	Errors map[string][]string

	// Valid indicates the changeset passed its last Validate call.
	Valid bool
}

// Cast filters input params down to the allowed fields.
func Cast(params map[string]any, allowed []string) *Changeset {
	allowedSet := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		allowedSet[f] = true
	}

	cs := &Changeset{
		Changes: make(map[string]any),
		Errors:  make(map[string][]string),
		Valid:   true,
	}
	for k, v := range params {
		if allowedSet[k] {
			cs.Changes[k] = v
		}
	}
	return cs
}

// GetString retrieves a string field from the changes.
func (cs *Changeset) GetString(key string) string {
	if v, ok := cs.Changes[key].(string); ok {
		return v
	}
	return ""
}

// ValidateField runs validators against one field, recording failures.
func (cs *Changeset) ValidateField(field string, validators ...Validator) *Changeset {
	value := cs.Changes[field]
	for _, v := range validators {
		if err := v.Validate(value); err != nil {
			cs.Errors[field] = append(cs.Errors[field], v.Message())
			cs.Valid = false
		}
	}
	return cs
}

// Err returns the accumulated *ValidationError, or nil when valid.
func (cs *Changeset) Err() error {
	if cs.Valid {
		return nil
	}
	return &ValidationError{Fields: cs.Errors}
}

// CommentChangeset casts and validates a comment submission form:
// author name 2-100 chars, valid email, content 10-2000 chars.
func CommentChangeset(params map[string]any) *Changeset {
	cs := Cast(params, []string{"author_name", "author_email", "content", "parent_id"})
	cs.ValidateField("author_name", Required(), MinLength(NameMinLen), MaxLength(NameMaxLen))
	cs.ValidateField("author_email", Required(), Email())
	cs.ValidateField("content", Required(), MinLength(ContentMinLen), MaxLength(ContentMaxLen))
	return cs
}

// Submission materializes the validated changes into an API submission.
// Call only after Err() returned nil.
func (cs *Changeset) Submission(threadID int64) comment.Submission {
	sub := comment.Submission{
		ThreadID:    threadID,
		AuthorName:  strings.TrimSpace(cs.GetString("author_name")),
		AuthorEmail: strings.TrimSpace(cs.GetString("author_email")),
		Content:     cs.GetString("content"),
	}
	switch v := cs.Changes["parent_id"].(type) {
	case int64:
		sub.ParentID = &v
	case int:
		id := int64(v)
		sub.ParentID = &id
	case float64:
		// JSON-decoded payloads arrive as float64.
		id := int64(v)
		sub.ParentID = &id
	}
	return sub
}
