package matrix

import "iter"

// ScrollOffsets yields the left x of a text of textLen 8-pixel cells as it
// moves one pixel per step from just past the right edge of a surface of
// the given width until it has fully left on the left side: width-1 down to
// -8*textLen, width+8*textLen values in all.
func ScrollOffsets(width, textLen int) iter.Seq[int] {
	if textLen < 0 {
		textLen = 0
	}
	return func(yield func(int) bool) {
		for x := width - 1; x >= -Side*textLen; x-- {
			if !yield(x) {
				return
			}
		}
	}
}
