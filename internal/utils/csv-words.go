package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

var ErrNoWords = errors.New("word list is empty")

// ReadCsvFile loads a replacement vocabulary. Only the first column of each
// record is used.
func ReadCsvFile(filePath string) ([]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open word list %s: %w", filePath, err)
	}
	defer f.Close()

	words, err := ReadWords(f)
	if err != nil {
		return nil, fmt.Errorf("parse word list %s: %w", filePath, err)
	}
	return words, nil
}

// ReadWords parses CSV records, upper-cases the first field and drops blanks,
// duplicates and entries with characters other than letters.
func ReadWords(r io.Reader) ([]string, error) {
	csvReader := csv.NewReader(r)
	csvReader.FieldsPerRecord = -1
	csvReader.Comment = '#'

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var words []string
	for _, record := range records {
		if len(record) == 0 {
			continue
		}
		word := strings.ToUpper(strings.TrimSpace(record[0]))
		if word == "" || seen[word] || !lettersOnly(word) {
			continue
		}
		seen[word] = true
		words = append(words, word)
	}

	if len(words) == 0 {
		return nil, ErrNoWords
	}
	return words, nil
}

func lettersOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
