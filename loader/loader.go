// Package loader reads an LS-8 program image: a text file of binary-literal
// lines, one byte per line, comments and blank lines ignored.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// Load reads r line by line and returns the parsed memory image. Lines that
// are empty or whose first character is '#' are skipped entirely;
// otherwise the first eight characters of the line must be binary digits,
// and anything after them on the same line is treated as a comment and
// ignored. A line whose first eight characters are not all '0'/'1' is a
// load error.
func Load(r io.Reader) ([]byte, error) {
	var image []byte

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		if line == "" || line[0] == '#' {
			continue
		}

		if len(line) < 8 {
			return nil, fmt.Errorf("line %d: %q is shorter than 8 binary digits", lineNum, line)
		}

		field := line[:8]
		b, err := strconv.ParseUint(field, 2, 8)
		if err != nil {
			return nil, fmt.Errorf("line %d: %q is not a binary literal: %w", lineNum, field, err)
		}

		image = append(image, byte(b))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading program image: %w", err)
	}

	return image, nil
}
