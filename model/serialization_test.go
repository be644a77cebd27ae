package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	m := New()
	NewInputNode[float32](m, "spectrum", 8)
	NewInputNode[int64](m, "labels", 2)

	data, err := Save(m)
	require.NoError(t, err)

	loaded, err := Load(data)
	require.NoError(t, err)
	require.Equal(t, 2, loaded.NumNodes())

	in, ok := loaded.Node(0).(*InputNode[float32])
	require.True(t, ok)
	assert.Equal(t, "spectrum", in.Name())
	assert.Equal(t, 8, in.Output().Size())

	labels, ok := loaded.Node(1).(*InputNode[int64])
	require.True(t, ok)
	assert.Equal(t, "labels", labels.Name())
	assert.Equal(t, 2, labels.Output().Size())
}

func TestLoadRejectsUnknownType(t *testing.T) {
	doc := `{"version":1,"nodes":[{"id":0,"type":"Bogus[Float32]","fields":{}}]}`
	_, err := Load([]byte(doc))
	require.ErrorContains(t, err, "unknown node type")
}

func TestLoadRejectsWrongVersion(t *testing.T) {
	doc := `{"version":99,"nodes":[]}`
	_, err := Load([]byte(doc))
	require.ErrorContains(t, err, "version")
}

func TestLoadRejectsMissingField(t *testing.T) {
	// An InputNode archives "name" and "size"; a document without them is
	// corrupted and must fail, never default.
	doc := `{"version":1,"nodes":[{"id":0,"type":"InputNode[Float32]","fields":{"name":"x"}}]}`
	_, err := Load([]byte(doc))
	require.ErrorContains(t, err, "size")
}

func TestLoadConvertsConstructionPanics(t *testing.T) {
	// size 0 violates a construction invariant; the factory's panic must
	// surface as a load error.
	doc := `{"version":1,"nodes":[{"id":0,"type":"InputNode[Float32]","fields":{"name":"x","size":0}}]}`
	_, err := Load([]byte(doc))
	require.Error(t, err)
}

func TestLoadRejectsGarbage(t *testing.T) {
	_, err := Load([]byte("not json"))
	require.Error(t, err)
}

func TestRegisterNodeTypeTwicePanics(t *testing.T) {
	assert.Panics(t, func() {
		RegisterNodeType(CompositeTypeName[float32]("InputNode"), nil)
	})
}
