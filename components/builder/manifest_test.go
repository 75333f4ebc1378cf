package builder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const communityManifest = `
version: 1
name: community-pack
types:
  - definition:
      name: social_links
      category: social
      description: Row of social network icons.
      default_config:
        networks: [twitter, github]
      default_styles:
        padding: 8px
      schema:
        type: object
        properties:
          networks:
            type: array
    maintainers: ["mail-team"]
    tags: ["footer"]
`

func TestDecodeManifest(t *testing.T) {
	doc, err := DecodeManifest(strings.NewReader(communityManifest))
	require.NoError(t, err)
	require.Len(t, doc.Types, 1)

	entry := doc.Types[0]
	assert.Equal(t, "1", doc.Version)
	assert.Equal(t, "social_links", entry.Definition.Name)
	assert.Equal(t, "social", entry.Definition.Category)
	assert.Equal(t, []string{"mail-team"}, entry.Maintainers)
}

func TestDecodeManifestRejectsUnknownFields(t *testing.T) {
	_, err := DecodeManifest(strings.NewReader("version: 1\nwidgets: []\n"))
	require.Error(t, err)
}

func TestManifestValidate(t *testing.T) {
	doc := &ManifestDocument{Version: "2"}
	require.Error(t, doc.Validate())

	doc = &ManifestDocument{Version: manifestVersionV1, Types: []ManifestBlockType{
		{Definition: BlockTypeDefinition{Name: "a"}},
		{Definition: BlockTypeDefinition{Name: "a"}},
	}}
	err := doc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicates")

	doc = &ManifestDocument{Version: manifestVersionV1, Types: []ManifestBlockType{{}}}
	require.Error(t, doc.Validate())
}

func TestCatalogLoadManifestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(communityManifest), 0o600))

	cat := NewCatalog()
	doc, err := cat.LoadManifestFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Source)

	def, err := cat.Type("social_links")
	require.NoError(t, err)
	assert.Equal(t, "Social Links", def.DisplayName)
	assert.Equal(t, "8px", def.DefaultStyles["padding"])

	meta, ok := cat.ManifestMetadata("social_links")
	require.True(t, ok)
	assert.Equal(t, []string{"footer"}, meta.Tags)
}

func TestReadManifestMissingFile(t *testing.T) {
	_, err := ReadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
