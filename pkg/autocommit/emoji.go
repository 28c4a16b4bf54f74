package autocommit

import (
	"unicode"
	"unicode/utf8"
)

var emojiRanges = []struct{ lo, hi rune }{
	{0x1F000, 0x1F2FF}, // mahjong, domino, playing cards, enclosed
	{0x1F300, 0x1FAFF}, // pictographs, emoticons, transport, extended
	{0x2300, 0x23FF},   // misc technical
	{0x2600, 0x27BF},   // misc symbols, dingbats
	{0x2B00, 0x2BFF},   // arrows and stars
	{0x2934, 0x2935},   // curved arrows
	{0x2194, 0x21AA},   // arrows
	{0x25AA, 0x25FE},   // geometric shapes
	{0x00A9, 0x00A9},   // copyright
	{0x00AE, 0x00AE},   // registered
	{0x203C, 0x203C},   // double exclamation
	{0x2049, 0x2049},   // exclamation question
	{0x2122, 0x2122},   // trade mark
	{0x2139, 0x2139},   // information
	{0x24C2, 0x24C2},   // circled M
	{0x3030, 0x3030},   // wavy dash
	{0x303D, 0x303D},   // part alternation mark
	{0x3297, 0x3297},   // circled ideograph congratulation
	{0x3299, 0x3299},   // circled ideograph secret
	{0x200D, 0x200D},   // zero width joiner
	{0x20E3, 0x20E3},   // combining keycap
	{0xFE0F, 0xFE0F},   // variation selector-16
	{0xE0020, 0xE007F}, // tag sequences
}

// IsEmoji reports whether r is an emoji, an emoji joiner or modifier, or a
// surrogate code point.
func IsEmoji(r rune) bool {
	if r >= 0xD800 && r <= 0xDFFF || unicode.Is(unicode.Cs, r) {
		return true
	}
	for _, rg := range emojiRanges {
		if r >= rg.lo && r <= rg.hi {
			return true
		}
	}
	return false
}

// ContainsEmoji reports whether any rune of s is vetoed by IsEmoji. Invalid
// UTF-8, which is where stray surrogates end up, is vetoed too.
func ContainsEmoji(s string) bool {
	if !utf8.ValidString(s) {
		return true
	}
	for _, r := range s {
		if IsEmoji(r) {
			return true
		}
	}
	return false
}

// isSymbolic reports text with no letters at all, such as "->" or "%".
func isSymbolic(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
