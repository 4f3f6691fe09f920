package yamldoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeKeepsKeyOrder(t *testing.T) {
	doc := Map(
		"name", "CI",
		"version", 2.1,
		"jobs", Map(
			"test", Map(
				"steps", Seq(
					"checkout",
					Map("run", "go test ./..."),
				),
				"parallel", true,
				"retries", 3,
			),
		),
		"branches", []string{"main", "develop"},
	)

	out, err := Encode(doc)
	require.NoError(t, err)
	assert.Equal(t, `name: CI
version: 2.1
jobs:
  test:
    steps:
      - checkout
      - run: go test ./...
    parallel: true
    retries: 3
branches:
  - main
  - develop
`, out)
}

func TestSetAndGet(t *testing.T) {
	m := Map("a", "1", "b", "2")
	Set(m, "a", "changed")
	Set(m, "c", "3")

	assert.Equal(t, []string{"a", "b", "c"}, Keys(m))
	assert.Equal(t, "changed", Get(m, "a").Value)
	assert.True(t, Has(m, "c"))
	assert.Nil(t, Get(m, "missing"))
	assert.Nil(t, Get(nil, "a"))
	assert.Nil(t, Keys(Seq("x")))
}

func TestInsertBefore(t *testing.T) {
	m := Map("name", "CI", "jobs", Map())
	InsertBefore(m, "jobs", "permissions", Map("contents", "read"))
	InsertBefore(m, "missing", "env", Map())
	InsertBefore(m, "jobs", "name", "renamed")

	assert.Equal(t, []string{"name", "permissions", "jobs", "env"}, Keys(m))
	assert.Equal(t, "renamed", Get(m, "name").Value)
}

func TestDecode(t *testing.T) {
	root, err := Decode("stages:\n  - test\n  - build\nimage: golang\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"stages", "image"}, Keys(root))
	assert.Equal(t, []string{"test", "build"}, Values(Get(root, "stages")))

	_, err = Decode("")
	assert.Error(t, err)

	_, err = Decode("- a\n- b\n")
	assert.Error(t, err)

	_, err = Decode("key: [unclosed")
	assert.Error(t, err)
}

func TestNodePanicsOnUnsupportedType(t *testing.T) {
	assert.Panics(t, func() { Node(struct{}{}) })
	assert.Panics(t, func() { Map("only-key") })
}
