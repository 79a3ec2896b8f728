// Package shell is the interactive front end of the library: a librarian
// menu and a member menu that turn user input into LibraryManager calls.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"library-lending/library"
)

const defaultWidth = 100

// Options tune the presentation of a session.
type Options struct {
	// Width is the terminal width used to size table columns. Zero means 100.
	Width int
}

// Session drives one interactive conversation. It is not safe for concurrent use.
type Session struct {
	sc    *bufio.Scanner
	out   io.Writer
	mgr   *library.LibraryManager
	width int

	member *library.Member
}

func New(mgr *library.LibraryManager, in io.Reader, out io.Writer, opts Options) *Session {
	w := opts.Width
	if w <= 0 {
		w = defaultWidth
	}
	return &Session{sc: bufio.NewScanner(in), out: out, mgr: mgr, width: w}
}

// Run shows the main menu until the user exits or input ends.
func (s *Session) Run(ctx context.Context) error {
	err := s.mainMenu(ctx)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Session) mainMenu(ctx context.Context) error {
	s.println("Library Portal Initialized….")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.println("---------------------------------")
		s.println("1. Enter as a librarian")
		s.println("2. Enter as a member")
		s.println("3. Exit")
		s.println("---------------------------------")

		choice, err := s.readLine("> ")
		if err != nil {
			return err
		}
		switch choice {
		case "1":
			err = s.librarianMenu(ctx)
		case "2":
			err = s.memberLogin(ctx)
		case "3":
			s.println("Thank you for visiting.")
			return nil
		default:
			s.println("Invalid choice. Please enter a valid option.")
		}
		if err != nil {
			return err
		}
	}
}

// ---------------------------------------------------------------------------
// Input helpers
// ---------------------------------------------------------------------------

// readLine prints prompt and returns the next trimmed line, or io.EOF.
func (s *Session) readLine(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(s.sc.Text()), nil
}

// readInt reads a base-10 integer. ok is false (and a message has been shown)
// when the line does not parse.
func (s *Session) readInt(prompt, what string) (n int64, ok bool, err error) {
	line, err := s.readLine(prompt)
	if err != nil {
		return 0, false, err
	}
	n, perr := strconv.ParseInt(line, 10, 64)
	if perr != nil {
		s.printf("Invalid %s: %s\n", what, line)
		return 0, false, nil
	}
	return n, true, nil
}

func (s *Session) println(a ...any)               { fmt.Fprintln(s.out, a...) }
func (s *Session) printf(format string, a ...any) { fmt.Fprintf(s.out, format, a...) }

// ---------------------------------------------------------------------------
// Formatting
// ---------------------------------------------------------------------------

func memberDetails(m *library.Member) string {
	return fmt.Sprintf("Name: %s, Age: %d, Member Number: %s", m.Name, m.Age, m.ID)
}

func money(v float64) string { return fmt.Sprintf("$%.2f", v) }

// columnWidths splits the room left after the fixed columns between title
// and author.
func (s *Session) columnWidths() (title, author int) {
	const fixed = 5 + 5 + 10 + 12 + 4
	room := s.width - fixed
	if room < 30 {
		room = 30
	}
	title = room * 3 / 5
	return title, room - title
}

func (s *Session) printBooks(books []*library.Book) {
	if len(books) == 0 {
		s.println("No books in library.")
		return
	}
	tw, aw := s.columnWidths()
	s.printf("%-5s %-*s %-*s %-5s %-10s %-12s\n", "ID", tw, "Title", aw, "Author", "Qty", "Status", "Due")
	s.println(strings.Repeat("-", s.width))
	for _, b := range books {
		status := "Available"
		if b.Borrowed {
			status = "On loan"
		}
		s.printf("%-5d %-*s %-*s %-5d %-10s %-12s\n",
			b.ID,
			tw, truncateString(b.Title, tw),
			aw, truncateString(b.Author, aw),
			b.Quantity,
			status,
			b.DueDate.Format(time.DateOnly))
	}
}

func (s *Session) printBorrowed(m *library.Member) {
	borrowed := m.BorrowedBooks()
	if len(borrowed) == 0 {
		s.printf("No books borrowed by %s.\n", m.Name)
		return
	}
	s.printf("Borrowed Books for %s:\n", m.Name)
	for _, b := range borrowed {
		s.printf("Title: %s, Author: %s, Due: %s\n", b.Title, b.Author, b.DueDate.Format(time.DateOnly))
	}
}

// truncateString shortens s to at most maxLength runes.
func truncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(r[:maxLength])
	}
	return string(r[:maxLength-3]) + "..."
}
