package tokenfind

const (
	RowDelimiters    = "\r\n"
	ColumnDelimiters = " \t"
)

// Split cuts text at every byte of delims. Runs of delimiters produce no empty tokens.
// Text and delims are treated as bytes, multi-byte characters are not decoded.
func Split(text, delims string) []string {
	var isDelim [256]bool
	for i := 0; i < len(delims); i++ {
		isDelim[delims[i]] = true
	}

	var tokens []string
	start := -1
	for i := 0; i < len(text); i++ {
		switch {
		case isDelim[text[i]] && start >= 0:
			tokens = append(tokens, text[start:i])
			start = -1
		case !isDelim[text[i]] && start < 0:
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, text[start:])
	}

	return tokens
}

// Table is a list of rows, each a list of columns. Rows may have different column counts.
type Table [][]string

// ParseTable splits text into non-empty lines and every line into whitespace separated columns.
func ParseTable(text string) Table {
	lines := Split(text, RowDelimiters)

	table := make(Table, 0, len(lines))
	for _, line := range lines {
		table = append(table, Split(line, ColumnDelimiters))
	}

	return table
}

func (t Table) Rows() int {
	return len(t)
}

func (t Table) Columns(row int) int {
	if row < 0 || row >= len(t) {
		return 0
	}
	return len(t[row])
}

func (t Table) Cell(row, col int) (string, error) {
	if row < 0 || row >= len(t) || col < 0 || col >= len(t[row]) {
		return "", ErrNoCell
	}
	return t[row][col], nil
}

func (t Table) Int(row, col, base int) (int64, error) {
	cell, err := t.Cell(row, col)
	if err != nil {
		return 0, err
	}
	return ParseInt(cell, base)
}

func (t Table) Uint(row, col, base int) (uint64, error) {
	cell, err := t.Cell(row, col)
	if err != nil {
		return 0, err
	}
	return ParseUint(cell, base)
}

func (t Table) Float(row, col int) (float64, error) {
	cell, err := t.Cell(row, col)
	if err != nil {
		return 0, err
	}
	return ParseFloat(cell)
}
