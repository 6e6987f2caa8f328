package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetreport-server/internal/domain"
)

func mm(text string, value float64, lo, hi float64) domain.AbnormalValue {
	return domain.AbnormalValue{
		Text:        text,
		Value:       value,
		Unit:        "mm",
		NormalRange: [2]float64{lo, hi},
	}
}

// joined concatenates segment texts in order.
func joined(segments []Segment) string {
	out := ""
	for _, s := range segments {
		out += s.Text
	}
	return out
}

func TestAnnotate_Disabled(t *testing.T) {
	text := "Espesor de 11.05 mm, conservado."
	segments := Annotate(text, []domain.AbnormalValue{mm("11.05 mm", 11.05, 8.0, 10.0)}, false)

	require.Len(t, segments, 1)
	assert.Equal(t, SegmentPlain, segments[0].Kind)
	assert.Equal(t, text, segments[0].Text)
}

func TestAnnotate_NoValues(t *testing.T) {
	text := "Parénquima homogéneo."
	segments := Annotate(text, nil, true)

	require.Len(t, segments, 1)
	assert.Equal(t, SegmentPlain, segments[0].Kind)
	assert.Equal(t, text, segments[0].Text)
}

func TestAnnotate_EmptyText(t *testing.T) {
	segments := Annotate("", []domain.AbnormalValue{mm("8.2 mm", 8.2, 3.0, 6.0)}, true)

	require.Len(t, segments, 1)
	assert.Equal(t, SegmentPlain, segments[0].Kind)
	assert.Empty(t, segments[0].Text)
}

func TestAnnotate_SingleHighlight(t *testing.T) {
	text := "Adrenal izquierda aumentada de tamaño con nódulo de 8.2 mm. Adrenal derecha conservada."
	value := mm("8.2 mm", 8.2, 3.0, 6.0)

	segments := Annotate(text, []domain.AbnormalValue{value}, true)

	require.Len(t, segments, 3)
	assert.Equal(t, SegmentPlain, segments[0].Kind)
	assert.Equal(t, SegmentHighlight, segments[1].Kind)
	assert.Equal(t, "8.2 mm", segments[1].Text)
	require.NotNil(t, segments[1].Value)
	assert.Equal(t, value, *segments[1].Value)
	assert.True(t, segments[1].OutOfRange)
	assert.Equal(t, SegmentPlain, segments[2].Kind)
	assert.Equal(t, text, joined(segments))
}

func TestAnnotate_LongerMatchWins(t *testing.T) {
	text := "Espesor de 11.05 mm, conservado."
	values := []domain.AbnormalValue{
		mm("11.05 mm", 11.05, 8.0, 10.0),
		mm("05 mm", 5.0, 0.0, 10.0),
	}

	segments := Annotate(text, values, true)

	var highlights []Segment
	for _, s := range segments {
		if s.Kind == SegmentHighlight {
			highlights = append(highlights, s)
		}
	}
	require.Len(t, highlights, 1, "overlapping shorter candidate must be dropped")
	assert.Equal(t, "11.05 mm", highlights[0].Text)
	assert.Equal(t, text, joined(segments))
}

func TestAnnotate_ValueNotInText(t *testing.T) {
	text := "Ecoestructura normal."
	segments := Annotate(text, []domain.AbnormalValue{mm("9.99 mm", 9.99, 1.0, 2.0)}, true)

	require.Len(t, segments, 1)
	assert.Equal(t, SegmentPlain, segments[0].Kind)
	assert.Equal(t, text, segments[0].Text)
}

func TestAnnotate_MultipleValuesPreservesText(t *testing.T) {
	text := "Se observan lesiones nodulares que miden entre 2.91 mm y 8.69 mm. Espesor de 11.05 mm."
	values := []domain.AbnormalValue{
		mm("11.05 mm", 11.05, 8.0, 10.0),
		mm("2.91 mm", 2.91, 0.0, 3.0),
		mm("8.69 mm", 8.69, 0.0, 3.0),
	}

	segments := Annotate(text, values, true)

	assert.Equal(t, text, joined(segments))

	highlighted := map[string]bool{}
	prevEnd := -1
	offset := 0
	for _, s := range segments {
		if s.Kind == SegmentHighlight {
			require.Greater(t, offset, prevEnd, "highlights must not overlap")
			highlighted[s.Text] = s.OutOfRange
			prevEnd = offset + len(s.Text)
		}
		offset += len(s.Text)
	}
	assert.Equal(t, map[string]bool{
		"2.91 mm":  false,
		"8.69 mm":  true,
		"11.05 mm": true,
	}, highlighted)
}

func TestAnnotate_FirstOccurrenceOnly(t *testing.T) {
	text := "Duodeno de 4.01 mm, yeyuno de 4.01 mm."
	segments := Annotate(text, []domain.AbnormalValue{mm("4.01 mm", 4.01, 2.5, 3.5)}, true)

	count := 0
	for _, s := range segments {
		if s.Kind == SegmentHighlight {
			count++
		}
	}
	assert.Equal(t, 1, count, "a value format is assumed to appear once per finding")
	assert.Equal(t, text, joined(segments))
}

func TestAbnormalValue_RangeBounds(t *testing.T) {
	assert.True(t, domain.AbnormalValue{Value: 6.61, NormalRange: [2]float64{2.0, 5.0}}.OutOfRange())
	assert.True(t, domain.AbnormalValue{Value: 4.69, NormalRange: [2]float64{2.0, 4.0}}.OutOfRange())
	assert.False(t, domain.AbnormalValue{Value: 4.0, NormalRange: [2]float64{2.0, 4.0}}.OutOfRange(), "upper bound is inclusive")
	assert.False(t, domain.AbnormalValue{Value: 2.0, NormalRange: [2]float64{2.0, 4.0}}.OutOfRange(), "lower bound is inclusive")
	assert.True(t, domain.AbnormalValue{Value: 1.99, NormalRange: [2]float64{2.0, 4.0}}.OutOfRange())
}

func TestAnnotate_Deterministic(t *testing.T) {
	text := "Pared de 4.69 mm en porción evaluada."
	values := []domain.AbnormalValue{mm("4.69 mm", 4.69, 2.0, 4.0)}

	first := Annotate(text, values, true)
	second := Annotate(text, values, true)

	assert.Equal(t, first, second)
}
