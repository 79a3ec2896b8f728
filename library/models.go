package library

import "time"

// Book is one catalog record. Quantity counts the copies currently on the
// shelf; it goes down on issue and back up on return.
type Book struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Author   string    `json:"author"`
	Quantity int       `json:"quantity"`
	Borrowed bool      `json:"borrowed"`
	DueDate  time.Time `json:"due_date"`
}

// clone returns a detached copy of the record.
func (b *Book) clone() *Book {
	c := *b
	return &c
}

// Member is a registered library member. The borrowed list holds references
// into the catalog and never contains the same book twice.
//
// Member ids are not unique. handle is assigned by the roster and tells
// two members with the same id apart; snapshots keep it, so a snapshot can
// be passed back to LibraryManager to act on the member it was taken from.
type Member struct {
	Name  string  `json:"name"`
	Age   int     `json:"age"`
	ID    string  `json:"member_id"`
	Fines float64 `json:"fines"`

	handle   int64
	borrowed []*Book
}

// snapshot copies the member together with copies of the borrowed books.
func (m *Member) snapshot() *Member {
	c := *m
	c.borrowed = make([]*Book, len(m.borrowed))
	for i, b := range m.borrowed {
		c.borrowed[i] = b.clone()
	}
	return &c
}

// BorrowedBooks returns the member's current loans in the order they were issued.
func (m *Member) BorrowedBooks() []*Book {
	out := make([]*Book, len(m.borrowed))
	copy(out, m.borrowed)
	return out
}

// Holds reports whether the book with the given id is in the member's borrowed list.
func (m *Member) Holds(bookID int64) bool {
	return m.indexOf(bookID) >= 0
}

func (m *Member) indexOf(bookID int64) int {
	for i, b := range m.borrowed {
		if b.ID == bookID {
			return i
		}
	}
	return -1
}

func (m *Member) addBorrowed(b *Book) {
	if b == nil || m.Holds(b.ID) {
		return
	}
	m.borrowed = append(m.borrowed, b)
}

func (m *Member) removeBorrowed(bookID int64) {
	i := m.indexOf(bookID)
	if i < 0 {
		return
	}
	m.borrowed = append(m.borrowed[:i], m.borrowed[i+1:]...)
}

// Receipt describes the outcome of a successful return.
type Receipt struct {
	Book        *Book
	OverdueDays int64
	Fine        float64
}

// Clock yields the current time. Tests substitute a fixed clock.
type Clock func() time.Time
