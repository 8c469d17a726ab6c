package domain

import "time"

// SubjectType identifies what kind of document an analysis subject is.
type SubjectType string

const (
	SubjectResume      SubjectType = "resume"
	SubjectCoverLetter SubjectType = "cover_letter"
	SubjectRepository  SubjectType = "repository"
)

// Document is a single analysis subject. A document is immutable once
// chunked; a new version of the underlying content is a new Document.
type Document struct {
	ID             string
	SubjectType    SubjectType
	RawText        string
	NormalizedText string
	// Fields holds optional per-field text breakdown (e.g. resume sections)
	// used for field-level similarity scoring.
	Fields    map[string]string
	CreatedAt time.Time
}

// NewDocument creates a Document with the given id, subject type and raw text.
func NewDocument(id string, subjectType SubjectType, rawText string) *Document {
	return &Document{
		ID:          id,
		SubjectType: subjectType,
		RawText:     rawText,
		CreatedAt:   time.Now().UTC(),
	}
}

// Field returns the named field's text, or "" when absent.
func (d *Document) Field(name string) string {
	if d == nil || d.Fields == nil {
		return ""
	}
	return d.Fields[name]
}

// ValidateDocument checks the invariants required before analysis.
func ValidateDocument(d *Document) error {
	if d == nil {
		return NewDomainError(ErrCodeValidation, "document cannot be nil")
	}
	if d.ID == "" {
		return NewDomainError(ErrCodeValidation, "document ID is required")
	}
	if !isValidSubjectType(d.SubjectType) {
		return NewDomainError(ErrCodeValidation, "invalid subject type: "+string(d.SubjectType))
	}
	return nil
}

func isValidSubjectType(s SubjectType) bool {
	switch s {
	case SubjectResume, SubjectCoverLetter, SubjectRepository:
		return true
	}
	return false
}
