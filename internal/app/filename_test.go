package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledge-governance/internal/model"
)

func TestParseFileName(t *testing.T) {
	name, err := ParseFileName("Brochure_SolarHome_20240115_v1.2.pdf")
	require.NoError(t, err)
	assert.Equal(t, "Brochure", name.ContentType)
	assert.Equal(t, "SolarHome", name.Subject)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), name.Date)
	assert.Equal(t, model.Version{Major: 1, Minor: 2}, name.Version)
	assert.Equal(t, ".pdf", name.Ext)
	assert.Equal(t, "Brochure_SolarHome_20240115_v1.2.pdf", name.String())

	noExt, err := ParseFileName("Plan_Q3-Campaign_20240301_v2.0")
	require.NoError(t, err)
	assert.Equal(t, "", noExt.Ext)
	assert.Equal(t, "Q3-Campaign", noExt.Subject)

	for _, raw := range []string{
		"Brochure_New-Launch_20240101_v1.0.pdf",
		"Plan_Old-Town-Campaign_20240101_v1.0.pdf",
		"Report_Latest-Trends_20240101_v1.0.pdf",
		"Brochure_FinalMile_20240101_v1.0.pdf",
	} {
		_, err := ParseFileName(raw)
		assert.NoError(t, err, raw)
	}
}

func TestParseFileNameRejects(t *testing.T) {
	cases := []string{
		"",
		"Brochure_SolarHome_final.pdf",
		"Brochure_SolarHome_20240115_v1.0_final2.pdf",
		"Brochure_SolarHome_copy_20240115_v1.0.pdf",
		"Brochure_SolarHome-Final_20240115_v1.0.pdf",
		"Brochure_SolarHome_20240115_v1.0-copy2.pdf",
		"Brochure_Solar_Home_20240115_v1.0.pdf",
		"Brochure_SolarHome_20241315_v1.0.pdf",
		"Brochure_SolarHome_20240115_1.0.pdf",
		"Brochure_SolarHome_20240115_v1.pdf",
	}
	for _, raw := range cases {
		_, err := ParseFileName(raw)
		assert.ErrorIs(t, err, ErrValidation, raw)
	}
}

func TestSupersededName(t *testing.T) {
	assert.Equal(t, "Brochure_SolarHome_20240115_v1.0_SUPERSEDED.pdf",
		SupersededName("Brochure_SolarHome_20240115_v1.0.pdf", "_SUPERSEDED"))
	assert.Equal(t, "Plan_X_20240101_v1.0_SUPERSEDED",
		SupersededName("Plan_X_20240101_v1.0", "_SUPERSEDED"))
	assert.Equal(t, "Plan_X_20240101_v1.0_SUPERSEDED.pdf",
		SupersededName("Plan_X_20240101_v1.0_SUPERSEDED.pdf", "_SUPERSEDED"))
}
