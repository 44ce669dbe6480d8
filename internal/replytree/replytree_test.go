package replytree

import (
	"testing"

	"github.com/pribylovaa/webthreads/internal/models"
	"github.com/stretchr/testify/require"
)

func reply(id string, children ...models.Reply) models.Reply {
	return models.Reply{ID: id, Text: "text " + id, Replies: children}
}

func ids(replies []models.Reply) []string {
	out := make([]string, 0, len(replies))
	for _, r := range replies {
		out = append(out, r.ID)
	}
	return out
}

// sample:
//
//	r1
//	├── r1.1
//	│   └── r1.1.1
//	└── r1.2
//	r2
func sample() []models.Reply {
	return []models.Reply{
		reply("r1",
			reply("r1.1", reply("r1.1.1")),
			reply("r1.2"),
		),
		reply("r2"),
	}
}

func TestFind(t *testing.T) {
	t.Parallel()

	tree := sample()

	for _, id := range []string{"r1", "r1.1", "r1.1.1", "r1.2", "r2"} {
		node, ok := Find(tree, id)
		require.True(t, ok, id)
		require.Equal(t, id, node.ID)
	}

	_, ok := Find(tree, "missing")
	require.False(t, ok)

	_, ok = Find(nil, "r1")
	require.False(t, ok)
}

func TestFind_ReturnsReferenceIntoTree(t *testing.T) {
	t.Parallel()

	tree := sample()
	node, ok := Find(tree, "r1.1.1")
	require.True(t, ok)

	node.Text = "changed"

	again, _ := Find(tree, "r1.1.1")
	require.Equal(t, "changed", again.Text)
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	tree := sample()

	err := Update(tree, "r1.2", func(r *models.Reply) error {
		r.Text = "edited"
		return nil
	})
	require.NoError(t, err)

	node, _ := Find(tree, "r1.2")
	require.Equal(t, "edited", node.Text)

	err = Update(tree, "missing", func(*models.Reply) error { return nil })
	require.ErrorIs(t, err, ErrNotFound)
}

func TestInsertChild_RootAndNested(t *testing.T) {
	t.Parallel()

	tree := sample()

	require.NoError(t, InsertChild(&tree, RootID, reply("r3")))
	require.Equal(t, []string{"r1", "r2", "r3"}, ids(tree))

	require.NoError(t, InsertChild(&tree, "r1", reply("r1.3")))
	node, _ := Find(tree, "r1")
	require.Equal(t, []string{"r1.1", "r1.2", "r1.3"}, ids(node.Replies))

	err := InsertChild(&tree, "missing", reply("x"))
	require.ErrorIs(t, err, ErrNotFound)
	_, ok := Find(tree, "x")
	require.False(t, ok)
}

// Ответ глубины 3 находится по id и удаляется вместе с родителем глубины 1.
func TestDepthThreeRoundTrip(t *testing.T) {
	t.Parallel()

	var tree []models.Reply
	require.NoError(t, InsertChild(&tree, RootID, reply("d1")))
	require.NoError(t, InsertChild(&tree, "d1", reply("d2")))
	require.NoError(t, InsertChild(&tree, "d2", reply("d3")))

	node, ok := Find(tree, "d3")
	require.True(t, ok)
	require.Equal(t, reply("d3"), *node)

	removed, err := Remove(&tree, "d1")
	require.NoError(t, err)
	require.Equal(t, "d1", removed.ID)
	require.Equal(t, 3, Count([]models.Reply{removed}))

	for _, id := range []string{"d1", "d2", "d3"} {
		_, ok := Find(tree, id)
		require.False(t, ok, id)
	}
	require.Empty(t, tree)
}

// Удаление непосредственного родителя делает «внука» недостижимым.
func TestRemove_ParentDropsGrandchild(t *testing.T) {
	t.Parallel()

	tree := sample()

	_, err := Remove(&tree, "r1.1")
	require.NoError(t, err)

	_, ok := Find(tree, "r1.1.1")
	require.False(t, ok)

	r1, _ := Find(tree, "r1")
	require.Equal(t, []string{"r1.2"}, ids(r1.Replies))
	require.Equal(t, []string{"r1", "r2"}, ids(tree))
}

func TestRemove_PreservesSiblingOrder(t *testing.T) {
	t.Parallel()

	tree := []models.Reply{reply("a"), reply("b"), reply("c"), reply("d")}

	_, err := Remove(&tree, "b")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "c", "d"}, ids(tree))

	_, err = Remove(&tree, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, []string{"a", "c", "d"}, ids(tree))
}

func TestWalk_PreOrderWithDepth(t *testing.T) {
	t.Parallel()

	var visited []string
	var depths []int
	Walk(sample(), func(r *models.Reply, depth int) bool {
		visited = append(visited, r.ID)
		depths = append(depths, depth)
		return true
	})

	require.Equal(t, []string{"r1", "r1.1", "r1.1.1", "r1.2", "r2"}, visited)
	require.Equal(t, []int{1, 2, 3, 2, 1}, depths)
}

func TestWalk_StopsEarly(t *testing.T) {
	t.Parallel()

	var visited []string
	Walk(sample(), func(r *models.Reply, _ int) bool {
		visited = append(visited, r.ID)
		return r.ID != "r1.1"
	})

	require.Equal(t, []string{"r1", "r1.1"}, visited)
}
