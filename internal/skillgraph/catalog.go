package skillgraph

import "embed"

//go:embed catalog/*.yaml
var catalogFS embed.FS

// DefaultCatalog returns the built-in grade 3 math and reading content.
func DefaultCatalog() ([]SkillNode, error) {
	return LoadFS(catalogFS, "catalog")
}
