package site

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearchIndex(t *testing.T) {
	a := newPage("/a")
	a.Title = "Café Notes"
	a.Description = "About coffee"
	a.PlainText = "go go build"
	b := newPage("/b")
	b.Title = "Tools"
	b.PlainText = "Build tools"

	raw, err := buildSearchIndex([]*Page{a, b})
	require.NoError(t, err)

	var idx searchIndex
	require.NoError(t, json.Unmarshal(raw, &idx))
	assert.Equal(t, 2, idx.DocCount)
	assert.Equal(t, []string{"title", "description", "text"}, idx.Fields)
	assert.Equal(t, []int{150, 100, 250}, idx.AvgLength)
	assert.Equal(t, [][]string{
		{"/a/", "Café Notes", "About coffee", "2,2,3"},
		{"/b/", "Tools", "", "1,0,2"},
	}, idx.Docs)

	assert.Equal(t, "1|0:0:0:2:0.1", idx.Terms["go"])
	assert.Equal(t, "2|0:0:0:1:2;1:0:0:1:0", idx.Terms["build"])
	assert.Equal(t, "1|1:1:0:1:1", idx.Terms["tools"])
	assert.Equal(t, "1|0:1:0:0", idx.Terms["cafe"])
}

func TestBuildSearchIndexEmpty(t *testing.T) {
	raw, err := buildSearchIndex(nil)
	require.NoError(t, err)

	var idx searchIndex
	require.NoError(t, json.Unmarshal(raw, &idx))
	assert.Zero(t, idx.DocCount)
	assert.Equal(t, []int{0, 0, 0}, idx.AvgLength)
	assert.Empty(t, idx.Terms)
}

func TestTokenize(t *testing.T) {
	var tokens []string
	n := tokenize("A 9 x-ray Über", func(tok string) { tokens = append(tokens, tok) })
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"9", "ray", "uber"}, tokens)
}

func TestBase36(t *testing.T) {
	assert.Equal(t, "0", base36(0))
	assert.Equal(t, "z", base36(35))
	assert.Equal(t, "10", base36(36))
}
