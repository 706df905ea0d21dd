package app

import (
	"strings"

	"knowledge-governance/internal/model"
	"knowledge-governance/internal/taxonomy"
)

const (
	FieldOwner            = "owner"
	FieldContentType      = "content_type"
	FieldSubject          = "subject"
	FieldVersion          = "version"
	FieldTags             = "tags"
	FieldClassification   = "classification"
	FieldCreationDate     = "creation_date"
	FieldReviewDate       = "review_date"
	FieldSourceDepartment = "source_department"
	FieldStatus           = "status"
	FieldDepartment       = "department"

	// fieldSchema is reported when the required-field schema itself is unusable.
	fieldSchema = "schema"
)

const minTags = 2

type MetadataResult struct {
	Complete bool     `json:"complete"`
	Fields   []string `json:"fields,omitempty"`
}

type MetadataValidator struct {
	taxonomy *taxonomy.Taxonomy
	schema   []string
}

func NewMetadataValidator(tx *taxonomy.Taxonomy, schema []string) *MetadataValidator {
	return &MetadataValidator{taxonomy: tx, schema: append([]string(nil), schema...)}
}

func (v *MetadataValidator) Schema() []string {
	return append([]string(nil), v.schema...)
}

// Validate checks doc against the required-field schema. It never mutates doc.
func (v *MetadataValidator) Validate(doc *model.Document, schema []string) MetadataResult {
	if len(schema) == 0 || v.taxonomy == nil {
		return MetadataResult{Fields: []string{fieldSchema}}
	}
	if doc == nil {
		return MetadataResult{Fields: append([]string(nil), schema...)}
	}

	var failed []string
	seen := make(map[string]struct{}, len(schema))
	for _, field := range schema {
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}

		ok, known := v.check(doc, field)
		if !known {
			return MetadataResult{Fields: []string{fieldSchema}}
		}
		if !ok {
			failed = append(failed, field)
		}
	}
	return MetadataResult{Complete: len(failed) == 0, Fields: failed}
}

func (v *MetadataValidator) check(doc *model.Document, field string) (ok bool, known bool) {
	md := doc.Metadata
	switch field {
	case FieldOwner:
		return strings.TrimSpace(md.Owner) != "", true
	case FieldContentType:
		return v.taxonomy.HasContentType(md.ContentType), true
	case FieldSubject:
		s := strings.TrimSpace(md.Subject)
		return s != "" && !strings.Contains(s, "_"), true
	case FieldVersion:
		return md.VersionMajor >= 1 && md.VersionMinor >= 0, true
	case FieldTags:
		return v.validTags(md.Tags), true
	case FieldClassification:
		return md.Classification.Valid(), true
	case FieldCreationDate:
		return md.CreationDate != nil && !md.CreationDate.IsZero(), true
	case FieldReviewDate:
		if md.ReviewDate == nil || md.ReviewDate.IsZero() {
			return false, true
		}
		return md.CreationDate == nil || !md.ReviewDate.Before(*md.CreationDate), true
	case FieldSourceDepartment:
		_, found := v.taxonomy.Department(md.SourceDepartment)
		return found, true
	case FieldStatus:
		return doc.Status.Valid(), true
	case FieldDepartment:
		_, found := v.taxonomy.Department(doc.Department)
		return found, true
	}
	return false, false
}

func (v *MetadataValidator) validTags(tags []string) bool {
	if len(tags) < minTags {
		return false
	}
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		key := strings.ToLower(strings.TrimSpace(tag))
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		if !v.taxonomy.HasTag(key) {
			return false
		}
	}
	return true
}
