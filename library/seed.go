package library

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type seedBook struct {
	title, author string
	quantity      int
}

// ImportBooks reads title,author,quantity records from r and adds them to
// the catalog. A first line of "title,author,quantity" is treated as a
// header. Lines starting with '#' are skipped. Every record is checked
// before the first book is added, so a malformed file adds nothing.
func (lm *LibraryManager) ImportBooks(ctx context.Context, r io.Reader) (int, error) {
	books, err := readSeed(r)
	if err != nil {
		return 0, err
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()
	for i, b := range books {
		if _, err := lm.addBookLocked(ctx, b.title, b.author, b.quantity); err != nil {
			return i, err
		}
	}
	return len(books), nil
}

func readSeed(r io.Reader) ([]seedBook, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true

	var books []seedBook
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return books, nil
		}
		if err != nil {
			return nil, err
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "title") {
			continue
		}

		title, author := strings.TrimSpace(rec[0]), strings.TrimSpace(rec[1])
		if title == "" {
			return nil, fmt.Errorf("record %d: empty title", line)
		}
		qty, err := strconv.Atoi(strings.TrimSpace(rec[2]))
		if err != nil || qty < 0 {
			return nil, fmt.Errorf("record %d: quantity %q: %w", line, rec[2], ErrInvalidQuantity)
		}
		books = append(books, seedBook{title: title, author: author, quantity: qty})
	}
}
