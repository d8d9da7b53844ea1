package number

import (
	"testing"

	"github.com/leapstack-labs/portion/pkg/ratio"
	"github.com/leapstack-labs/portion/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run applies a recognizer to a plain string and returns the value and the
// unconsumed remainder.
func run(t *testing.T, rec Recognizer, input string) (ratio.Ratio, string, error) {
	t.Helper()
	res, err := rec(token.NewCursor(input))
	if err != nil {
		return ratio.Zero, "", err
	}
	return res.Value, res.Rest.Text(), nil
}

func TestInteger(t *testing.T) {
	v, rest, err := run(t, Integer, "1")
	require.NoError(t, err)
	assert.True(t, v.Equal(ratio.Int(1)))
	assert.Equal(t, "", rest)

	v, rest, err = run(t, Integer, "1 cup")
	require.NoError(t, err)
	assert.True(t, v.Equal(ratio.Int(1)))
	assert.Equal(t, " cup", rest)

	_, _, err = run(t, Integer, "cup")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestDecimal(t *testing.T) {
	tests := []struct {
		input    string
		want     ratio.Ratio
		wantRest string
	}{
		{"0.2", ratio.New(1, 5), ""},
		{"0 .2", ratio.New(1, 5), ""},
		{"0. 2", ratio.New(1, 5), ""},
		{"0 . 2", ratio.New(1, 5), ""},
		{"1.2", ratio.New(6, 5), ""},
		{"1.12", ratio.New(112, 100), ""},
		{"1.012", ratio.New(1012, 1000), ""},
		{"1.05", ratio.New(21, 20), ""},
		{"0.2 cups", ratio.New(1, 5), " cups"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, rest, err := run(t, Decimal, tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(v), "got %s want %s", v, tt.want)
			assert.Equal(t, tt.wantRest, rest)
		})
	}

	for _, bad := range []string{"3.", "3. Line", ".5", "3"} {
		_, _, err := run(t, Decimal, bad)
		assert.ErrorIs(t, err, ErrNoMatch, bad)
	}
}

func TestRational(t *testing.T) {
	tests := []struct {
		input    string
		want     ratio.Ratio
		wantRest string
	}{
		{"3/4", ratio.New(3, 4), ""},
		{"3 /4", ratio.New(3, 4), ""},
		{"3/ 4", ratio.New(3, 4), ""},
		{"3 / 4", ratio.New(3, 4), ""},
		{"3⁄4", ratio.New(3, 4), ""},
		{"¼", ratio.New(1, 4), ""},
		{"1 3/4", ratio.New(7, 4), ""},
		{"13⁄4", ratio.New(13, 4), ""},
		{"1 3⁄4", ratio.New(7, 4), ""},
		{"1 ¾", ratio.New(7, 4), ""},
		{"1¾", ratio.New(7, 4), ""},
		{"2⅓ cups", ratio.New(7, 3), " cups"},
		{"3/4 cups", ratio.New(3, 4), " cups"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, rest, err := run(t, Rational, tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(v), "got %s want %s", v, tt.want)
			assert.Equal(t, tt.wantRest, rest)
		})
	}
}

func TestRationalRejects(t *testing.T) {
	for _, input := range []string{"1", "1.1", "1 cups", "cups", ""} {
		_, _, err := run(t, Rational, input)
		assert.ErrorIs(t, err, ErrNoMatch, input)
	}
}

func TestZeroDenominator(t *testing.T) {
	for _, input := range []string{"1/0", "1⁄0", "1 3/0", "2 / 00"} {
		_, _, err := run(t, Rational, input)
		assert.ErrorIs(t, err, ErrInfiniteNumber, input)

		_, err = ParseString(input)
		assert.ErrorIs(t, err, ErrInfiniteNumber, input)
	}
}

func TestVulgarGlyphs(t *testing.T) {
	glyphs := map[string]ratio.Ratio{
		"¼": ratio.New(1, 4), "½": ratio.New(1, 2), "¾": ratio.New(3, 4),
		"⅐": ratio.New(1, 7), "⅑": ratio.New(1, 9), "⅒": ratio.New(1, 10),
		"⅓": ratio.New(1, 3), "⅔": ratio.New(2, 3), "⅕": ratio.New(1, 5),
		"⅖": ratio.New(2, 5), "⅗": ratio.New(3, 5), "⅘": ratio.New(4, 5),
		"⅙": ratio.New(1, 6), "⅚": ratio.New(5, 6), "⅛": ratio.New(1, 8),
		"⅜": ratio.New(3, 8), "⅝": ratio.New(5, 8), "⅞": ratio.New(7, 8),
	}
	for glyph, want := range glyphs {
		v, rest, err := run(t, Vulgar, glyph)
		require.NoError(t, err, glyph)
		assert.True(t, want.Equal(v), glyph)
		assert.Empty(t, rest)
	}
	assert.False(t, IsVulgar('x'))
}

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  ratio.Ratio
	}{
		{"0.2", ratio.New(1, 5)},
		{"1 3/4", ratio.New(7, 4)},
		{"1¾", ratio.New(7, 4)},
		{"1 3⁄4", ratio.New(7, 4)},
		{"12", ratio.Int(12)},
		{"12 eggs", ratio.Int(12)},
		{"½", ratio.New(1, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			res, err := Parse(token.NewCursor(tt.input))
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(res.Value), "got %s want %s", res.Value, tt.want)
		})
	}
}

func TestParseDanglingSeparator(t *testing.T) {
	for _, input := range []string{"3.", "3. Line", "3/", "3 / x", "3⁄"} {
		_, err := Parse(token.NewCursor(input))
		assert.ErrorIs(t, err, ErrNoMatch, input)
	}
}

func TestParseSpans(t *testing.T) {
	res, err := Parse(token.NewCursorAt("1 ¾ teaspoon", 10))
	require.NoError(t, err)
	assert.Equal(t, "1 ¾", res.Text)
	assert.Equal(t, token.NewSpan(10, 13), res.Span)
	assert.Equal(t, " teaspoon", res.Rest.Text())
	assert.Equal(t, 13, res.Rest.Offset())
}

func TestParseString(t *testing.T) {
	v, err := ParseString("  2 1/2 ")
	require.NoError(t, err)
	assert.True(t, v.Equal(ratio.New(5, 2)))

	_, err = ParseString("2 cups")
	assert.ErrorIs(t, err, ErrNoMatch)
}
