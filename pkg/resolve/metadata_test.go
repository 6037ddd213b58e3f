package resolve

import (
	"bytes"
	"context"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stacktrim/pkg/errors"
	"github.com/matzehuels/stacktrim/pkg/tree"
	"github.com/matzehuels/stacktrim/pkg/version"
)

func TestRecalculateMetadata(t *testing.T) {
	root := tree.NewRoot("/app", pkgOf("app", "1.0.0", "a@^1.0.0", "gone@^3.0.0"))
	a := tree.AddChild(root, pkgOf("a", "1.0.0", "b@^1.0.0"))
	b := tree.AddChild(root, pkgOf("b", "1.4.0"))
	stray := tree.AddChild(root, pkgOf("stray", "0.1.0"))
	root.IsTop = false
	stray.Extraneous = false

	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)

	require.NoError(t, New(Options{}).RecalculateMetadata(context.Background(), root, logger))

	assert.True(t, root.IsTop)
	assert.ElementsMatch(t, []*tree.Node{a}, root.Requires)
	assert.ElementsMatch(t, []*tree.Node{root}, a.RequiredBy)
	assert.ElementsMatch(t, []*tree.Node{a}, b.RequiredBy)
	assert.Equal(t, map[string]string{"gone": "^3.0.0"}, root.Missing)
	assert.Contains(t, buf.String(), "missing dependency")

	assert.True(t, stray.Extraneous)
	assert.False(t, a.Extraneous)
	assert.False(t, root.Extraneous)

	require.NotNil(t, b.Package.Requested)
	assert.Equal(t, version.TypeRange, b.Package.Requested.Type)
	assert.Equal(t, "^1.0.0", b.Package.Requested.Raw)
}

func TestRecalculateMetadataResetsEdges(t *testing.T) {
	root := tree.NewRoot("/app", pkgOf("app", "1.0.0", "a@^1.0.0"))
	a := tree.AddChild(root, pkgOf("a", "1.0.0"))
	r := New(Options{})
	ctx := context.Background()

	require.NoError(t, r.RecalculateMetadata(ctx, root, nil))
	require.NoError(t, r.RecalculateMetadata(ctx, root, nil))

	assert.Len(t, root.Requires, 1)
	assert.Len(t, a.RequiredBy, 1)
}

func TestRecalculateMetadataIgnoresMissingOptional(t *testing.T) {
	p := pkgOf("app", "1.0.0")
	p.OptionalDependencies = map[string]string{"fsevents": "^2.0.0"}
	root := tree.NewRoot("/app", p)

	require.NoError(t, New(Options{}).RecalculateMetadata(context.Background(), root, nil))
	assert.Empty(t, root.Missing)
}

func TestRecalculateMetadataErrors(t *testing.T) {
	ctx := context.Background()
	r := New(Options{})

	t.Run("nil root", func(t *testing.T) {
		err := r.RecalculateMetadata(ctx, nil, nil)
		assert.True(t, errors.IsContractViolation(err))
	})

	t.Run("node without package", func(t *testing.T) {
		root := tree.NewRoot("/app", pkgOf("app", "1.0.0"))
		ghost := &tree.Node{Name: "ghost", Parent: root, Path: tree.ChildPath(root.Path, "ghost")}
		root.Children = append(root.Children, ghost)

		err := r.RecalculateMetadata(ctx, root, nil)
		assert.True(t, errors.Is(err, errors.ErrCodeMetadata))
		assert.Contains(t, err.Error(), ghost.Path)
	})

	t.Run("bad dependency name", func(t *testing.T) {
		root := tree.NewRoot("/app", pkgOf("app", "1.0.0", "../evil@1.0.0"))
		err := r.RecalculateMetadata(ctx, root, nil)
		assert.True(t, errors.Is(err, errors.ErrCodeMetadata))
	})

	t.Run("cancelled", func(t *testing.T) {
		root := tree.NewRoot("/app", pkgOf("app", "1.0.0"))
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, r.RecalculateMetadata(cctx, root, nil), context.Canceled)
	})
}

type countingTracker struct{ added, done int }

func (c *countingTracker) AddWork(n int)      { c.added += n }
func (c *countingTracker) CompleteWork(n int) { c.done += n }

func TestLoadExtraneous(t *testing.T) {
	root := tree.NewRoot("/app", pkgOf("app", "1.0.0", "a@^1.0.0"))
	a := tree.AddChild(root, pkgOf("a", "1.2.0"))
	stray := tree.AddChild(root, pkgOf("stray", "0.1.0"))
	loaded := tree.AddChild(root, pkgOf("done", "1.0.0"))
	loaded.Loaded = true

	tr := &countingTracker{}
	require.NoError(t, LoadExtraneous(context.Background(), root, tr))

	assert.Equal(t, 3, tr.added)
	assert.Equal(t, 3, tr.done)
	for _, n := range []*tree.Node{root, a, stray, loaded} {
		assert.True(t, n.Loaded, n.Path)
	}

	require.NotNil(t, a.Package.Requested)
	assert.Equal(t, "^1.0.0", a.Package.Requested.Raw)
	require.NotNil(t, stray.Package.Requested)
	assert.Equal(t, version.TypeVersion, stray.Package.Requested.Type)
	assert.Nil(t, loaded.Package.Requested, "already loaded nodes are left alone")
	assert.Nil(t, root.Package.Requested)
}

func TestLoadExtraneousWithoutPackage(t *testing.T) {
	root := tree.NewRoot("/app", pkgOf("app", "1.0.0"))
	root.Children = append(root.Children, &tree.Node{Name: "ghost", Parent: root, Path: "/app/node_modules/ghost"})

	err := LoadExtraneous(context.Background(), root, nil)
	assert.True(t, errors.Is(err, errors.ErrCodeLoad))
}

func TestObsoleteList(t *testing.T) {
	var l ObsoleteList
	a := &tree.Node{Name: "a"}
	b := &tree.Node{Name: "b"}

	l.MarkObsolete(a)
	l.MarkObsolete(b)
	l.MarkObsolete(a)

	assert.True(t, a.Obsolete)
	assert.Equal(t, []*tree.Node{a, b}, l.Nodes())
	assert.Equal(t, 2, l.Len())
}
