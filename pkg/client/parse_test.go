package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/collage-maker/pkg/types"
)

func TestSanitizeModelJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"faces":[]}`, `{"faces":[]}`},
		{"fenced", "```json\n{\"faces\":[]}\n```", `{"faces":[]}`},
		{"trailing comma", `{"faces":[{"x":0.1,"y":0.2,"w":0.3,"h":0.4},],}`, `{"faces":[{"x":0.1,"y":0.2,"w":0.3,"h":0.4}]}`},
		{"comments", "{\n/* note */\n\"faces\": [] // none\n}", "{\n\n\"faces\": [] \n}"},
		{"chatter around", `Sure! {"faces":[]} hope this helps`, `{"faces":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeModelJSON(tt.in))
		})
	}
}

func TestParseFaceAnalysis(t *testing.T) {
	got, err := ParseFaceAnalysis("```json\n{\"faces\":[{\"x\":0.1,\"y\":0.2,\"w\":0.3,\"h\":0.4}],\"description\":\"one person\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, []types.Box{{X: 0.1, Y: 0.2, W: 0.3, H: 0.4}}, got.Faces)
	assert.Equal(t, "one person", got.Description)

	empty, err := ParseFaceAnalysis("I cannot see any faces.")
	require.NoError(t, err)
	assert.Empty(t, empty.Faces)

	_, err = ParseFaceAnalysis(`{"faces": "many"}`)
	assert.Error(t, err)
}
