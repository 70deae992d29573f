package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() Result {
	return Result{
		"cat":  {{0, 0}, {0, 1}, {0, 2}},
		"cats": {{0, 0}, {0, 1}, {0, 2}, {1, 1}},
		"at":   {{0, 1}, {0, 2}},
		"act":  {{0, 1}, {0, 0}, {0, 2}},
	}
}

func TestPoints(t *testing.T) {
	assert.Equal(t, 3, Points("cat"))
	assert.Equal(t, 3, Points("été"))
	assert.Zero(t, Points(""))
}

func TestResultEntries(t *testing.T) {
	entries := sampleResult().Entries()
	words := make([]string, len(entries))
	for i, e := range entries {
		words[i] = e.Word
		assert.Equal(t, Points(e.Word), e.Points)
	}
	assert.Equal(t, []string{"cats", "act", "cat", "at"}, words)
	assert.Equal(t, 12, sampleResult().TotalPoints())
	assert.Equal(t, []string{"act", "at", "cat", "cats"}, sampleResult().Words())
}

func TestResultGroupByInitial(t *testing.T) {
	groups := sampleResult().GroupByInitial()
	require.Len(t, groups, 2)

	require.Len(t, groups["a"], 2)
	assert.Equal(t, "act", groups["a"][0].Word)
	assert.Equal(t, "at", groups["a"][1].Word)

	require.Len(t, groups["c"], 2)
	assert.Equal(t, "cat", groups["c"][0].Word)
	assert.Equal(t, Path{{0, 0}, {0, 1}, {0, 2}}, groups["c"][0].Path)
}

func TestGroupedTuplesJSON(t *testing.T) {
	res := Result{"ab": {{0, 0}, {0, 1}}}
	data, err := json.Marshal(groupedTuples(res))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":[["ab",2,[[0,0],[0,1]]]]}`, string(data))

	data, err = json.Marshal(groupedTuples(Result{}))
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}
