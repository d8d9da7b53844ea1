package number

import "github.com/leapstack-labs/portion/pkg/ratio"

// vulgarFractions maps the single-character fraction glyphs to their values.
// Latin-1 Supplement: ¼ ½ ¾. Number Forms: the rest.
var vulgarFractions = map[rune]ratio.Ratio{
	'¼': ratio.New(1, 4),
	'½': ratio.New(1, 2),
	'¾': ratio.New(3, 4),
	'⅐': ratio.New(1, 7),
	'⅑': ratio.New(1, 9),
	'⅒': ratio.New(1, 10),
	'⅓': ratio.New(1, 3),
	'⅔': ratio.New(2, 3),
	'⅕': ratio.New(1, 5),
	'⅖': ratio.New(2, 5),
	'⅗': ratio.New(3, 5),
	'⅘': ratio.New(4, 5),
	'⅙': ratio.New(1, 6),
	'⅚': ratio.New(5, 6),
	'⅛': ratio.New(1, 8),
	'⅜': ratio.New(3, 8),
	'⅝': ratio.New(5, 8),
	'⅞': ratio.New(7, 8),
}

// VulgarValue returns the value of a vulgar-fraction glyph.
func VulgarValue(r rune) (ratio.Ratio, bool) {
	v, ok := vulgarFractions[r]
	return v, ok
}

// IsVulgar reports whether r is one of the recognized fraction glyphs.
func IsVulgar(r rune) bool {
	_, ok := vulgarFractions[r]
	return ok
}
