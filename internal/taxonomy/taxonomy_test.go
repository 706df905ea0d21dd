package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefault(t *testing.T) {
	tx, err := Load("")
	require.NoError(t, err)

	assert.True(t, tx.HasTag("Solar"))
	assert.False(t, tx.HasTag("final"))
	assert.True(t, tx.HasContentType("Brochure"))
	assert.False(t, tx.HasContentType("brochure"))

	dept, ok := tx.Department("B2B")
	require.True(t, ok)
	assert.Equal(t, "02_Marketing_B2B", dept.Folder)
}

func TestResolve(t *testing.T) {
	tx, err := Load("")
	require.NoError(t, err)

	loc, err := tx.Resolve("01_Marketing_D2Com/Product_Marketing_Solar/03_Creative_Assets")
	require.NoError(t, err)
	assert.Equal(t, "D2COM", loc.Department)
	assert.Equal(t, "Product_Marketing_Solar", loc.SubArea)
	assert.Equal(t, "03_Creative_Assets", loc.SubFolder)
	assert.Equal(t, "2c5703b5-a861-47e0-b099-5e5d0f251a63", loc.NotebookID)

	_, err = tx.Resolve("01_Marketing_D2Com/Product_Marketing_Solar/99_Misc")
	assert.ErrorIs(t, err, ErrUnknownFolder)
	_, err = tx.Resolve("01_Marketing_D2Com")
	assert.ErrorIs(t, err, ErrUnknownFolder)
	_, err = tx.Resolve("09_Unknown/Anything")
	assert.ErrorIs(t, err, ErrUnknownFolder)
}

func TestFolderPathsInstantiatesSharedSchema(t *testing.T) {
	tx, err := Load("")
	require.NoError(t, err)

	paths := tx.FolderPaths("S2B2C")
	assert.Len(t, paths, 2*len(tx.SubFolderSchema))
	assert.Contains(t, paths, "03_Marketing_S2B2C/Product_Marketing_Door/01_Strategy_Plan")
	assert.Nil(t, tx.FolderPaths("NOPE"))
}

func TestParseRejectsDuplicateDepartments(t *testing.T) {
	_, err := Parse([]byte(`
departments:
  - code: A
    folder: 01_A
  - code: A
    folder: 02_A
`))
	assert.Error(t, err)
}
