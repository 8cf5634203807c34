package tracker

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionJSON(t *testing.T) {
	var q Question
	require.NoError(t, json.Unmarshal([]byte(`{"id":5,"problemName":"Old Label","dryRun":"trace"}`), &q))
	assert.Equal(t, int64(5), q.ID)
	assert.Equal(t, "Old Label", q.Problem)
	assert.Equal(t, "trace", q.DryRun)
	assert.Nil(t, q.Extra, "the alias is a known field")

	require.NoError(t, json.Unmarshal([]byte(`{"problem":"New","problemName":"Old"}`), &q))
	assert.Equal(t, "New", q.Problem, "problem wins over the alias")

	out, err := json.Marshal(Question{ID: 1, Problem: "p", Difficulty: DifficultyEasy})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"problem":"p","intuition":"","approaches":"","story":"","dryRun":"","edgeCases":"",
		"solution":"","timeComplexity":"","spaceComplexity":"","difficulty":"easy","createdAt":""}`, string(out))
}

func TestQuestionKeepsUnknownFields(t *testing.T) {
	in := `{"id":7,"problem":"Two Sum","difficulty":"easy","createdAt":"2024-01-01T00:00:00.000Z",
		"link":"https://leetcode.com/problems/two-sum","tags":["array","hash"]}`

	var q Question
	require.NoError(t, json.Unmarshal([]byte(in), &q))
	require.Len(t, q.Extra, 2)
	assert.JSONEq(t, `"https://leetcode.com/problems/two-sum"`, string(q.Extra["link"]))

	out, err := json.Marshal(q)
	require.NoError(t, err)
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &fields))
	assert.JSONEq(t, `["array","hash"]`, string(fields["tags"]))
	assert.JSONEq(t, `"Two Sum"`, string(fields["problem"]))
}

func TestQuestionExtraNeverOverridesKnownFields(t *testing.T) {
	q := Question{ID: 1, Problem: "real", Extra: map[string]json.RawMessage{"problem": json.RawMessage(`"shadow"`)}}

	out, err := json.Marshal(q)
	require.NoError(t, err)
	var back Question
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, "real", back.Problem)
}

func TestDifficultyValid(t *testing.T) {
	for _, d := range []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyUndefined} {
		assert.True(t, d.Valid(), d)
	}
	assert.False(t, Difficulty("").Valid())
	assert.False(t, Difficulty("insane").Valid())
}
