package structure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupSlides(t *testing.T) {
	t.Run("HeadingBoundaries", func(t *testing.T) {
		blocks := []Block{
			Heading(1, "Intro"),
			Paragraph("point one"),
			Paragraph("point two"),
			Heading(1, "Next"),
		}

		slides := GroupSlides(blocks)

		require.Len(t, slides, 2)
		assert.Equal(t, "Intro", slides[0].Title)
		assert.Equal(t, []string{"point one", "point two"}, slides[0].Bullets)
		assert.Equal(t, "Next", slides[1].Title)
		assert.Empty(t, slides[1].Bullets)
	})

	t.Run("LeadingParagraphsGetSyntheticSlide", func(t *testing.T) {
		blocks := []Block{
			Paragraph("orphan. text here"),
			Heading(2, "Real"),
			Paragraph("body"),
		}

		slides := GroupSlides(blocks)

		require.Len(t, slides, 2)
		assert.Equal(t, "Slide 1", slides[0].Title)
		assert.Equal(t, []string{"orphan. text here"}, slides[0].Bullets)
		assert.Equal(t, "Real", slides[1].Title)
	})

	t.Run("BulletMarkersStripped", func(t *testing.T) {
		blocks := []Block{
			Heading(1, "List"),
			Paragraph("- first\n*   second\n\n  - third\nplain"),
		}

		slides := GroupSlides(blocks)

		require.Len(t, slides, 1)
		assert.Equal(t, []string{"first", "second", "third", "plain"}, slides[0].Bullets)
	})

	t.Run("EmptyHeadingSynthesizesTitle", func(t *testing.T) {
		slides := GroupSlides([]Block{Heading(1, "A"), Heading(1, "")})

		require.Len(t, slides, 2)
		assert.Equal(t, "Slide 2", slides[1].Title)
	})

	t.Run("FromSegmenter", func(t *testing.T) {
		slides := GroupSlides(Segment("# Agenda\n\n- Budget review is first. Then hiring.\n- Roadmap"))

		require.Len(t, slides, 1)
		assert.Equal(t, "Agenda", slides[0].Title)
		assert.Equal(t, []string{"Budget review is first. Then hiring.", "Roadmap"}, slides[0].Bullets)
	})
}

func TestStripBulletMarker(t *testing.T) {
	cases := map[string]string{
		"- item":   "item",
		"* item":   "item",
		"-item":    "item",
		"  item  ": "item",
		"-":        "",
		"1. item":  "1. item",
	}
	for in, want := range cases {
		assert.Equal(t, want, StripBulletMarker(in), in)
	}
}
