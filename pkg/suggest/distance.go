package suggest

import (
	"math"
	"unicode"
)

// EditDistance is the Levenshtein distance between a and b counted in runes.
func EditDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	matrix := make([][]int, len(ra)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(rb)+1)
		matrix[i][0] = i
	}
	for j := 0; j <= len(rb); j++ {
		matrix[0][j] = j
	}
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			matrix[i][j] = min(matrix[i-1][j]+1, matrix[i][j-1]+1, matrix[i-1][j-1]+cost)
		}
	}
	return matrix[len(ra)][len(rb)]
}

// BoundedEditDistance returns the edit distance of two rune slices when it is
// at most maxDist, or maxDist+1 otherwise. Inputs whose lengths differ by more
// than maxDist are rejected without filling the table.
func BoundedEditDistance(a, b []rune, maxDist int) int {
	if abs(len(a)-len(b)) > maxDist {
		return maxDist + 1
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			rowMin = min(rowMin, curr[j])
		}
		if rowMin > maxDist {
			return maxDist + 1
		}
		prev, curr = curr, prev
	}
	return min(prev[len(b)], maxDist+1)
}

// IsAdjacentSwap reports whether b is a with exactly one pair of neighbouring
// letters exchanged.
func IsAdjacentSwap(a, b []rune) bool {
	if len(a) != len(b) || len(a) < 2 {
		return false
	}
	diff := -1
	for i := range a {
		if a[i] != b[i] {
			diff = i
			break
		}
	}
	if diff == -1 || diff+1 >= len(a) {
		return false
	}
	if a[diff] != b[diff+1] || a[diff+1] != b[diff] {
		return false
	}
	for j := diff + 2; j < len(a); j++ {
		if a[j] != b[j] {
			return false
		}
	}
	return true
}

// IsSingleInsertDelete reports whether one rune added to the shorter input
// yields the longer one.
func IsSingleInsertDelete(a, b []rune) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	if len(b)-len(a) != 1 {
		return false
	}
	i := 0
	for i < len(a) && a[i] == b[i] {
		i++
	}
	for ; i < len(a); i++ {
		if a[i] != b[i+1] {
			return false
		}
	}
	return true
}

// IsKeyboardAdjacentSubstitution reports whether a and b differ in exactly one
// position and the two runes sit next to each other on a QWERTY keyboard.
func IsKeyboardAdjacentSubstitution(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	pos := -1
	for i := range a {
		if a[i] != b[i] {
			if pos >= 0 {
				return false
			}
			pos = i
		}
	}
	return pos >= 0 && keysAdjacent(a[pos], b[pos])
}

var keyboardRows = []struct {
	keys   string
	offset float64
}{
	{"qwertyuiop", 0},
	{"asdfghjkl", 0.5},
	{"zxcvbnm", 1.5},
}

type keyPos struct {
	row int
	x   float64
}

var keyPositions = func() map[rune]keyPos {
	m := make(map[rune]keyPos)
	for r, row := range keyboardRows {
		for c, ch := range row.keys {
			m[ch] = keyPos{row: r, x: float64(c) + row.offset}
		}
	}
	return m
}()

func keysAdjacent(a, b rune) bool {
	pa, oka := keyPositions[unicode.ToLower(a)]
	pb, okb := keyPositions[unicode.ToLower(b)]
	if !oka || !okb || pa == pb {
		return false
	}
	return abs(pa.row-pb.row) <= 1 && math.Abs(pa.x-pb.x) <= 1
}

// isTypoPattern matches the slips that earn the fuzzy confidence bonus.
func isTypoPattern(a, b []rune) bool {
	return IsAdjacentSwap(a, b) || IsSingleInsertDelete(a, b) || IsKeyboardAdjacentSubstitution(a, b)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
