package ops

import "github.com/mesh-intelligence/esyr/pkg/types"

// GitignoreLines proposes .gitignore entries for the files esy and esyr
// generate in a project.
func GitignoreLines(m *types.Manifest) []string {
	return []string{
		"node_modules",
		"jbuild",
		"jbuild-ignore",
		".merlin",
		m.Name + ".opam",
		m.Name + ".install",
		m.BuildDir(),
		m.BinName() + ".exe",
	}
}
