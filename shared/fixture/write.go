package fixture

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnencodable is returned by Write for a cell the naive format cannot carry.
var ErrUnencodable = errors.New("cell cannot be written to a fixture")

// Write emits headers and rows in the format Parse reads back.
func Write(w io.Writer, headers []string, rows [][]string) error {
	if len(headers) == 0 {
		return errors.New("fixture needs at least one header")
	}

	bw := bufio.NewWriter(w)
	if err := writeLine(bw, headers); err != nil {
		return fmt.Errorf("header: %w", err)
	}
	for i, row := range rows {
		if err := writeLine(bw, row); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return bw.Flush()
}

func writeLine(w *bufio.Writer, cells []string) error {
	for _, c := range cells {
		if strings.ContainsAny(c, ",\r\n") {
			return fmt.Errorf("%w: %q", ErrUnencodable, c)
		}
	}
	_, err := w.WriteString(strings.Join(cells, delimiter) + newline)
	return err
}
