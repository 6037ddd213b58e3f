package tree

import (
	"maps"
	"path/filepath"
	"slices"
)

// ChildPath returns the location of a package named name installed directly
// under the package at parentPath.
func ChildPath(parentPath, name string) string {
	return filepath.Join(parentPath, "node_modules", name)
}

// PackageID formats a package identity as "name@version".
func PackageID(name, version string) string {
	if version == "" {
		return name
	}
	return name + "@" + version
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
