package encode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/mvconv/internal/domain"
	"github.com/John-Robertt/mvconv/internal/parser"
)

func TestJSON_ExactLayout(t *testing.T) {
	ms := []domain.Movie{{
		Title:     domain.Some("Amélie & co"),
		Directors: []domain.Director{{Name: "Jean-Pierre Jeunet"}},
		Year:      domain.YearInt(2001),
	}}

	b, err := JSON(ms)
	require.NoError(t, err)

	want := `[
  {
    "Movie": [
      {
        "Title": "Amélie & co"
      },
      {
        "Director": {
          "Name": "Jean-Pierre Jeunet"
        }
      },
      {
        "Year": 2001
      }
    ]
  }
]
`
	assert.Equal(t, want, string(b))
}

func TestJSON_EmptyCollectionAndEmptyMovie(t *testing.T) {
	b, err := JSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(b))

	b, err = JSON([]domain.Movie{{}})
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"Movie\": []\n  }\n]\n", string(b))
}

func TestJSON_YearTextStaysString(t *testing.T) {
	b, err := JSON([]domain.Movie{{Year: domain.YearText("MCMXCIX")}})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"Year": "MCMXCIX"`)
}

func TestJSON_DeterministicAcrossRuns(t *testing.T) {
	ms := parser.Parse(sampleText)
	a, err := JSON(ms)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		b, err := JSON(ms)
		require.NoError(t, err)
		require.Equal(t, a, b)
	}
}

func TestDecodeJSON_RoundTripPreservesFields(t *testing.T) {
	ms := parser.Parse(sampleText + "\n\nTitle: Roman\nYear: MCMXCIX\nDirector Name: A\nDirector Name: B\n\nYear: 0")

	b, err := JSON(ms)
	require.NoError(t, err)

	back, err := DecodeJSON(b)
	require.NoError(t, err)
	assert.Equal(t, ms, back)
}

func TestDecodeJSON_IgnoresUnknownKeysAndRejectsBadYear(t *testing.T) {
	ms, err := DecodeJSON([]byte(`[{"Movie":[{"Title":"X"},{"Rating":5}]}]`))
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, domain.Some("X"), ms[0].Title)
	assert.Len(t, ms[0].Fields(), 1)

	_, err = DecodeJSON([]byte(`[{"Movie":[{"Year":1999.5}]}]`))
	assert.Error(t, err)

	_, err = DecodeJSON([]byte(`{"Movie":[]}`))
	assert.Error(t, err, "顶层必须是数组")
}
