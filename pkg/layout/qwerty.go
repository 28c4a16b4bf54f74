package layout

var qwertyRows = []struct {
	keys   string
	offset float64
}{
	{"qwertyuiop", 0},
	{"asdfghjkl", 0.5},
	{"zxcvbnm", 1.5},
}

// QWERTY builds the standard three-row letter grid with the given key size.
// Hosts without real geometry, the debug CLI and tests use it.
func QWERTY(subtype string, keyWidth, keyHeight float64) *Index {
	keys := make([]Key, 0, 26)
	for row, r := range qwertyRows {
		top := float64(row) * keyHeight
		for col, ch := range r.keys {
			left := (float64(col) + r.offset) * keyWidth
			keys = append(keys, KeyFromBounds(ch, left, top, left+keyWidth, top+keyHeight))
		}
	}
	return NewIndex(subtype, keys)
}
