package importer

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Row is one imported line.
type Row struct {
	Title       string
	Description string
}

// ParseRows reads r line by line and splits each line on its first comma.
// There is no quoting: everything after the first comma is the description,
// and a line without a comma gets an empty description. Every line yields a
// row, blank ones included.
func ParseRows(r io.Reader) ([]Row, error) {
	var rows []Row

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		title, description, _ := strings.Cut(scanner.Text(), ",")
		rows = append(rows, Row{Title: title, Description: description})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading line %d: %w", line+1, err)
	}
	return rows, nil
}
