package installed

import (
	"encoding/json"
	"path"

	"github.com/matzehuels/stacktrim/pkg/tree"
)

// packageFile is the subset of an installed package.json the tree needs.
type packageFile struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	Bin                  binField          `json:"bin"`

	// From is written by npm at install time: the "name@spec" argument
	// the package was installed for.
	From string `json:"_from"`
}

// binField accepts both forms of "bin": a single path, which is exposed
// under the package's own name, or a map of command names to paths.
type binField struct {
	single string
	named  map[string]string
}

func (b *binField) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &b.single); err == nil {
		return nil
	}
	return json.Unmarshal(data, &b.named)
}

// commands returns command name -> path for a package called name.
func (b binField) commands(name string) map[string]string {
	if b.single != "" {
		// scoped packages expose the unscoped part
		return map[string]string{path.Base(name): b.single}
	}
	return b.named
}

func parsePackage(data []byte) (*packageFile, error) {
	var pf packageFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, err
	}
	return &pf, nil
}

func (pf *packageFile) toPackage(name string) *tree.Package {
	if pf.Name == "" {
		pf.Name = name
	}
	return &tree.Package{
		Name:                 pf.Name,
		Version:              pf.Version,
		Dependencies:         pf.Dependencies,
		DevDependencies:      pf.DevDependencies,
		OptionalDependencies: pf.OptionalDependencies,
		PeerDependencies:     pf.PeerDependencies,
		Bin:                  pf.Bin.commands(pf.Name),
	}
}
