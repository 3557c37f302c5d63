package structure

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegment(t *testing.T) {
	t.Run("MarkdownHeadingAndBody", func(t *testing.T) {
		blocks := Segment("# Title\n\nBody text. More.")

		require.Len(t, blocks, 2)
		assert.Equal(t, Block{Kind: KindHeading, Level: 1, Text: "Title"}, blocks[0])
		assert.Equal(t, KindParagraph, blocks[1].Kind)
		assert.Equal(t, []string{"Body text. More."}, blocks[1].Lines)
	})

	t.Run("ShortSentenceWithoutBreakIsHeading", func(t *testing.T) {
		blocks := Segment("# Title\n\nBody text.")

		require.Len(t, blocks, 2)
		assert.Equal(t, Block{Kind: KindHeading, Level: 1, Text: "Title"}, blocks[0])
		assert.Equal(t, Block{Kind: KindHeading, Level: 1, Text: "Body text."}, blocks[1])
		assert.Nil(t, blocks[1].Lines)
	})

	t.Run("ShortLineIsHeading", func(t *testing.T) {
		blocks := Segment("Short Line\n\nThis is a longer sentence. With punctuation.")

		require.Len(t, blocks, 2)
		assert.True(t, blocks[0].IsHeading())
		assert.Equal(t, 1, blocks[0].Level)
		assert.Equal(t, "Short Line", blocks[0].Text)
		assert.Equal(t, KindParagraph, blocks[1].Kind)
	})

	t.Run("EmptyInput", func(t *testing.T) {
		blocks := Segment("")

		require.Len(t, blocks, 1)
		assert.Equal(t, KindParagraph, blocks[0].Kind)
		assert.Equal(t, "", blocks[0].Text)
	})

	t.Run("WhitespaceOnlyKeepsOriginal", func(t *testing.T) {
		blocks := Segment("  \n\n\t")

		require.Len(t, blocks, 1)
		assert.Equal(t, "  \n\n\t", blocks[0].Text)
	})

	t.Run("HeadingLevelClamped", func(t *testing.T) {
		blocks := Segment("## Two\n\n### Three\n\n###### Six")

		require.Len(t, blocks, 3)
		assert.Equal(t, 2, blocks[0].Level)
		assert.Equal(t, 3, blocks[1].Level)
		assert.Equal(t, 3, blocks[2].Level)
		assert.Equal(t, "Six", blocks[2].Text)
	})

	t.Run("MultipleBlankLinesCollapse", func(t *testing.T) {
		blocks := Segment("# A\n\n\n \n\nB is here. And more.")

		require.Len(t, blocks, 2)
		assert.Equal(t, "A", blocks[0].Text)
		assert.Equal(t, "B is here. And more.", blocks[1].Text)
	})

	t.Run("ParagraphKeepsLineBreaks", func(t *testing.T) {
		blocks := Segment("First line. Still first.\nSecond line\nThird line")

		require.Len(t, blocks, 1)
		assert.Equal(t, KindParagraph, blocks[0].Kind)
		assert.Equal(t, []string{"First line. Still first.", "Second line", "Third line"}, blocks[0].Lines)
	})

	t.Run("LongLineWithoutSentenceIsParagraph", func(t *testing.T) {
		long := strings.Repeat("word ", 25)
		blocks := Segment(long)

		require.Len(t, blocks, 1)
		assert.Equal(t, KindParagraph, blocks[0].Kind)
	})

	t.Run("ThresholdCountsCharacters", func(t *testing.T) {
		// 99 个多字节字符仍低于阈值
		short := strings.Repeat("标", 99)
		blocks := Segment(short)

		require.Len(t, blocks, 1)
		assert.True(t, blocks[0].IsHeading())

		blocks = Segment(strings.Repeat("标", 100))
		assert.Equal(t, KindParagraph, blocks[0].Kind)
	})

	t.Run("CRLFInput", func(t *testing.T) {
		blocks := Segment("# Title\r\n\r\nBody text. More body.")

		require.Len(t, blocks, 2)
		assert.Equal(t, "Title", blocks[0].Text)
		assert.Equal(t, "Body text. More body.", blocks[1].Text)
	})
}

func TestSegmentPreservesContent(t *testing.T) {
	input := "# Intro\n\nWelcome to the report. It covers Q3.\n\nShort note\n\n- a\n- b"
	blocks := Segment(input)

	var rebuilt []string
	for _, b := range blocks {
		rebuilt = append(rebuilt, b.Text)
	}

	joined := strings.Join(rebuilt, " ")
	for _, word := range []string{"Intro", "Welcome", "Q3.", "Short", "note", "- a", "- b"} {
		assert.Contains(t, joined, word)
	}
}

func TestSegmentIsPure(t *testing.T) {
	input := "# A\n\nSome text. More text.\n\nB"
	assert.Equal(t, Segment(input), Segment(input))
}
