package extractor

import (
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// readTextFile reads a plain-text file, falling back from UTF-8 to Latin-1
// for files exported by older office tooling.
func readTextFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read text file: %w", err)
	}
	if utf8.Valid(content) {
		return normalizeLineEndings(string(content)), nil
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(content)
	if err != nil {
		return "", &ProcessingError{Message: fmt.Sprintf("text file is neither UTF-8 nor Latin-1: %v", err)}
	}
	return normalizeLineEndings(string(decoded)), nil
}
