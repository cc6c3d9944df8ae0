// Package loader reads program and data images for the tgsim device.
//
// A program image is a text file with one 16-bit instruction word per
// line, written as a Go-style literal (0b0101000011011110, 0x50DE, or
// decimal) or as a bare 16-digit binary string. A data image holds
// 8-bit values, one or more per line. Blank lines and comments
// (#, //, ;) are ignored in both.
package loader

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/sarchlab/tgsim/insts"
)

// Program is a loaded program image.
type Program struct {
	Words []insts.Word
}

// Load reads a program image from a file.
func Load(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loader: opening %s", path)
	}
	defer f.Close()

	prog, err := Parse(f)
	return prog, errors.Wrapf(err, "loader: %s", path)
}

// Parse reads a program image.
func Parse(r io.Reader) (*Program, error) {
	prog := &Program{}

	err := eachToken(r, func(line int, token string) error {
		word, err := parseWord(token, 16)
		if err != nil {
			return errors.Wrapf(err, "line %d", line)
		}
		prog.Words = append(prog.Words, insts.Word(word))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(prog.Words) == 0 {
		return nil, errors.New("empty program")
	}
	return prog, nil
}

// LoadData reads a data image from a file.
func LoadData(path string) ([]uint8, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loader: opening %s", path)
	}
	defer f.Close()

	data, err := ParseData(f)
	return data, errors.Wrapf(err, "loader: %s", path)
}

// ParseData reads a data image.
func ParseData(r io.Reader) ([]uint8, error) {
	var data []uint8

	err := eachToken(r, func(line int, token string) error {
		b, err := parseWord(token, 8)
		if err != nil {
			return errors.Wrapf(err, "line %d", line)
		}
		data = append(data, uint8(b))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// eachToken feeds every non-comment whitespace-separated token to fn
// with its 1-based line number.
func eachToken(r io.Reader, fn func(line int, token string) error) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		for _, marker := range []string{"#", "//", ";"} {
			if i := strings.Index(line, marker); i >= 0 {
				line = line[:i]
			}
		}
		for _, token := range strings.Fields(line) {
			if err := fn(lineNo, token); err != nil {
				return err
			}
		}
	}
	return errors.Wrap(scanner.Err(), "reading image")
}

// parseWord parses one value of the given bit width. Bare strings of
// eight or more 0/1 digits are taken as binary, matching how the
// hardware testbenches wrote words; everything else follows Go
// literal syntax (0b..., 0x..., decimal).
func parseWord(token string, bits int) (uint64, error) {
	if len(token) >= 8 && strings.Trim(token, "01") == "" {
		v, err := strconv.ParseUint(token, 2, bits)
		return v, errors.Wrapf(err, "parsing %q", token)
	}
	v, err := strconv.ParseUint(token, 0, bits)
	return v, errors.Wrapf(err, "parsing %q", token)
}
