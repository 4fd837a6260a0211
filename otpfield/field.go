package otpfield

// Field models a fixed-length digit-only passcode input as pure state:
// one string value of length at most Size and a focused cell index. It
// performs no I/O; the composed code is read in full via [Field.Value]
// when the caller decides to submit.
type Field struct {
	size   int
	cells  []rune
	cursor int
}

const emptyCell rune = 0

// DefaultSize is an exported constant or variable used by the session engine.
const DefaultSize = 6

// New creates an empty field of n cells. Non-positive n falls back to
// [DefaultSize].
func New(n int) *Field {
	if n <= 0 {
		n = DefaultSize
	}
	return &Field{
		size:  n,
		cells: make([]rune, n),
	}
}

// Size returns the fixed number of cells.
func (f *Field) Size() int { return f.size }

// Cursor returns the index of the focused cell.
func (f *Field) Cursor() int { return f.cursor }

// Value returns the entered digits in cell order. Cleared middle cells
// are skipped, so the result is always a digit string of length <= Size.
func (f *Field) Value() string {
	out := make([]rune, 0, f.size)
	for _, c := range f.cells {
		if c != emptyCell {
			out = append(out, c)
		}
	}
	return string(out)
}

// Complete reports whether every cell holds a digit.
func (f *Field) Complete() bool {
	for _, c := range f.cells {
		if c == emptyCell {
			return false
		}
	}
	return true
}

// Insert types one character into the focused cell. Non-digit input is
// ignored. A digit fills the cell and advances focus to the next empty
// cell (staying on the last cell when full).
func (f *Field) Insert(r rune) {
	if r < '0' || r > '9' {
		return
	}
	f.cells[f.cursor] = r
	f.cursor = f.nextEmptyFrom(f.cursor + 1)
}

// Backspace clears a filled focused cell in place. On an empty focused
// cell it moves focus left and clears that cell instead — a cascading
// delete, not a no-op.
func (f *Field) Backspace() {
	if f.cells[f.cursor] != emptyCell {
		f.cells[f.cursor] = emptyCell
		return
	}
	if f.cursor == 0 {
		return
	}
	f.cursor--
	f.cells[f.cursor] = emptyCell
}

// Left moves focus one cell left without mutating the value.
func (f *Field) Left() {
	if f.cursor > 0 {
		f.cursor--
	}
}

// Right moves focus one cell right without mutating the value.
func (f *Field) Right() {
	if f.cursor < f.size-1 {
		f.cursor++
	}
}

// Paste fills cells left-to-right from a digit string, overwriting
// existing content. Input is truncated to Size digits; non-digit input is
// rejected wholesale. Focus lands on the first empty cell after the
// paste, or the last cell when fully filled.
func (f *Field) Paste(s string) {
	digits := make([]rune, 0, f.size)
	for _, r := range s {
		if r < '0' || r > '9' {
			return
		}
		if len(digits) < f.size {
			digits = append(digits, r)
		}
	}

	for i, r := range digits {
		f.cells[i] = r
	}
	f.cursor = f.nextEmptyFrom(len(digits))
}

// Clear empties every cell and resets focus. Used by callers after a
// failed verification so the user retypes from the first cell.
func (f *Field) Clear() {
	for i := range f.cells {
		f.cells[i] = emptyCell
	}
	f.cursor = 0
}

// nextEmptyFrom returns the first empty cell at or after i, clamped to
// the last cell.
func (f *Field) nextEmptyFrom(i int) int {
	if i > f.size-1 {
		i = f.size - 1
	}
	for j := i; j < f.size; j++ {
		if f.cells[j] == emptyCell {
			return j
		}
	}
	return f.size - 1
}
