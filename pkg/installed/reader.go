// Package installed reads the dependency tree physically present under a
// project's node_modules directory.
package installed

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/matzehuels/stacktrim/pkg/errors"
	"github.com/matzehuels/stacktrim/pkg/tree"
	"github.com/matzehuels/stacktrim/pkg/version"
)

const manifestName = "package.json"

// Reader builds a tree from an installed project.
type Reader struct {
	fs     afero.Fs
	logger *log.Logger
}

// NewReader creates a Reader on fs. A nil logger uses log.Default().
func NewReader(fs afero.Fs, logger *log.Logger) *Reader {
	if logger == nil {
		logger = log.Default()
	}
	return &Reader{fs: fs, logger: logger}
}

// ReadTree returns the tree installed under where. The project itself need
// not have a package.json; its root node is then named after the directory.
// Nested directories without a readable package.json are skipped with a
// warning, as are dot-directories such as node_modules/.bin.
func (r *Reader) ReadTree(ctx context.Context, where string) (*tree.Node, error) {
	if where == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty project path")
	}
	where = filepath.Clean(where)

	pkg, err := r.readPackage(where, filepath.Base(where))
	switch {
	case os.IsNotExist(err):
		pkg = &tree.Package{Name: filepath.Base(where)}
	case err != nil:
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "read %s", filepath.Join(where, manifestName))
	}

	root := tree.NewRoot(where, pkg)
	if err := r.readChildren(ctx, root); err != nil {
		return nil, err
	}
	return root, nil
}

func (r *Reader) readChildren(ctx context.Context, parent *tree.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	names, err := r.moduleNames(filepath.Join(parent.Path, "node_modules"))
	if err != nil {
		return errors.Wrap(errors.ErrCodeLoad, err, "list %s", parent.Path)
	}

	for _, name := range names {
		dir := tree.ChildPath(parent.Path, name)
		pkg, err := r.readPackage(dir, name)
		if err != nil {
			r.logger.Warn("skipping installed directory", "path", dir, "err", err)
			continue
		}
		child := &tree.Node{Name: name, Path: dir, Parent: parent, Package: pkg}
		parent.Children = append(parent.Children, child)
		if err := r.readChildren(ctx, child); err != nil {
			return err
		}
	}
	return nil
}

// moduleNames lists the package directories in a node_modules folder,
// descending one level into @scope directories.
func (r *Reader) moduleNames(dir string) ([]string, error) {
	entries, err := afero.ReadDir(r.fs, dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !strings.HasPrefix(e.Name(), "@") {
			names = append(names, e.Name())
			continue
		}
		scoped, err := afero.ReadDir(r.fs, filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		for _, s := range scoped {
			if s.IsDir() && !strings.HasPrefix(s.Name(), ".") {
				names = append(names, e.Name()+"/"+s.Name())
			}
		}
	}
	return names, nil
}

func (r *Reader) readPackage(dir, name string) (*tree.Package, error) {
	data, err := afero.ReadFile(r.fs, filepath.Join(dir, manifestName))
	if err != nil {
		return nil, err
	}
	pf, err := parsePackage(data)
	if err != nil {
		return nil, err
	}
	pkg := pf.toPackage(name)
	if pf.From != "" {
		req, err := version.ParseArg(pf.From)
		if err != nil {
			r.logger.Debug("ignoring install spec", "path", dir, "from", pf.From, "err", err)
		} else {
			pkg.Requested = req
		}
	}
	return pkg, nil
}
