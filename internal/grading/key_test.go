package grading

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMixedKey(t *testing.T) {
	components, err := ParseMixedKey([]byte(`[{"kind":"choice","letters":"B"},{"kind":"text","expected":"because"}]`))
	require.NoError(t, err)
	require.Len(t, components, 2)
	require.Equal(t, ComponentChoice, components[0].Kind)
	require.Equal(t, "B", components[0].Letters)
	require.Equal(t, ComponentText, components[1].Kind)
	require.Equal(t, "because", components[1].Expected)
}

func TestParseMixedKeyRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty document", doc: ""},
		{name: "not json", doc: "{"},
		{name: "empty array", doc: "[]"},
		{name: "unknown kind", doc: `[{"kind":"dropdown"}]`},
		{name: "choice without letters", doc: `[{"kind":"choice"}]`},
		{name: "unknown field", doc: `[{"kind":"text","weight":2}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMixedKey([]byte(tt.doc))
			require.ErrorIs(t, err, ErrMalformedAnswerKey)
		})
	}
}
