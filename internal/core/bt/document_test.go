package bt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDepthTagAndParams(t *testing.T) {
	doc, err := Parse("Priority true _ false\n\tLeaf a S\n\t\tLeaf b\n")
	require.NoError(t, err)
	require.Len(t, doc.Lines, 3)

	assert.Equal(t, 0, doc.Lines[0].Depth)
	assert.Equal(t, "Priority", doc.Lines[0].Tag)
	assert.Equal(t, []string{"true", "_", "false"}, doc.Lines[0].Params)

	assert.Equal(t, 1, doc.Lines[1].Depth)
	assert.Equal(t, []string{"a", "S"}, doc.Lines[1].Params)

	assert.Equal(t, 2, doc.Lines[2].Depth)
	assert.Equal(t, 3, doc.Lines[2].Number)
}

func TestParseBlankLines(t *testing.T) {
	doc, err := Parse("\n\nSequence\n \t \n  Leaf a\n\n")
	require.NoError(t, err)
	require.Len(t, doc.Lines, 3)
	assert.Equal(t, 3, doc.Lines[0].Number)
	assert.True(t, doc.Lines[1].Blank(), "whitespace-only line is blank")
	assert.Equal(t, 5, doc.Lines[2].Number)
}

func TestParseFingerprintIgnoresLineEndings(t *testing.T) {
	a, err := Parse("Sequence\r\n Leaf a\r\n\r\n")
	require.NoError(t, err)
	b, err := Parse("Sequence\n Leaf a")
	require.NoError(t, err)
	c, err := Parse("Sequence\n Leaf b")
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.Equal(t, "Leaf", a.Lines[1].Tag)
}

func TestParseEmptyDocument(t *testing.T) {
	for _, src := range []string{"", "\n\n", "  \n\t\n"} {
		_, err := Parse(src)
		assert.ErrorIs(t, err, ErrEmptyDocument, "%q", src)
	}
}

func TestParseRejectsMixedIndentation(t *testing.T) {
	_, err := Parse("Sequence\n\tLeaf a\n  Leaf b")
	require.ErrorIs(t, err, ErrMixedIndentation)

	var be *BuildError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 3, be.Line)

	_, err = Parse("Sequence\n \tLeaf a")
	assert.ErrorIs(t, err, ErrMixedIndentation, "mixing within one line")
}

func TestParseLinesMatchesParse(t *testing.T) {
	a, err := ParseLines([]string{"Inverter", "  Leaf a"})
	require.NoError(t, err)
	b, err := Parse("Inverter\n  Leaf a")
	require.NoError(t, err)
	assert.Equal(t, a.Lines, b.Lines)
}
