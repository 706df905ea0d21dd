package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledge-governance/internal/model"
	"knowledge-governance/internal/taxonomy"
)

func validDocument() *model.Document {
	created := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	md := completeMetadata()
	md.ContentType = "Brochure"
	md.Subject = "SolarHome"
	md.VersionMajor, md.VersionMinor = 1, 0
	md.CreationDate = &created
	return &model.Document{Department: "D2COM", Status: model.StatusDraft, Metadata: md}
}

func newValidator(t *testing.T) *MetadataValidator {
	t.Helper()
	tx, err := taxonomy.Load("")
	require.NoError(t, err)
	return NewMetadataValidator(tx, defaultSchema)
}

func TestValidateComplete(t *testing.T) {
	v := newValidator(t)
	result := v.Validate(validDocument(), v.Schema())
	assert.True(t, result.Complete)
	assert.Empty(t, result.Fields)
}

func TestValidateReportsFields(t *testing.T) {
	v := newValidator(t)
	doc := validDocument()
	doc.Metadata.Owner = ""
	doc.Metadata.Tags = []string{"solar"}
	doc.Metadata.Classification = "Secret"
	before := doc.Metadata.Tags

	result := v.Validate(doc, v.Schema())
	assert.False(t, result.Complete)
	assert.Equal(t, []string{"owner", "tags", "classification"}, result.Fields)
	assert.Equal(t, before, doc.Metadata.Tags)
}

func TestValidateTagRules(t *testing.T) {
	v := newValidator(t)
	for name, tags := range map[string][]string{
		"duplicate":    {"solar", "Solar"},
		"unknown":      {"solar", "blockchain"},
		"single":       {"home"},
		"empty string": {"solar", ""},
	} {
		doc := validDocument()
		doc.Metadata.Tags = tags
		assert.Equal(t, []string{"tags"}, v.Validate(doc, []string{"tags"}).Fields, name)
	}
}

func TestValidateDatesAndVersion(t *testing.T) {
	v := newValidator(t)
	doc := validDocument()
	early := doc.Metadata.CreationDate.AddDate(0, 0, -1)
	doc.Metadata.ReviewDate = &early
	doc.Metadata.VersionMajor = 0
	result := v.Validate(doc, v.Schema())
	assert.Equal(t, []string{"version", "review_date"}, result.Fields)
}

func TestValidateFailsClosed(t *testing.T) {
	v := newValidator(t)
	assert.Equal(t, MetadataResult{Fields: []string{"schema"}}, v.Validate(validDocument(), nil))
	assert.Equal(t, MetadataResult{Fields: []string{"schema"}}, v.Validate(validDocument(), []string{"owner", "mood"}))
	assert.False(t, v.Validate(nil, v.Schema()).Complete)
}

func TestValidateIsDeterministic(t *testing.T) {
	v := newValidator(t)
	doc := validDocument()
	doc.Metadata.Owner = ""
	assert.Equal(t, v.Validate(doc, v.Schema()), v.Validate(doc, v.Schema()))
}
