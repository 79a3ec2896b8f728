package library

import "time"

const defaultLoanPeriodDays = 10

// Catalog owns the book records and the id sequence. It is not safe for
// concurrent use; LibraryManager serializes access.
type Catalog struct {
	books      []*Book
	nextID     int64
	now        Clock
	loanPeriod int
}

// NewCatalog creates an empty catalog. Book ids start at 1.
func NewCatalog(now Clock, loanPeriodDays int) *Catalog {
	if now == nil {
		now = time.Now
	}
	if loanPeriodDays <= 0 {
		loanPeriodDays = defaultLoanPeriodDays
	}
	return &Catalog{nextID: 1, now: now, loanPeriod: loanPeriodDays}
}

// Add stores a new book and returns its id. A negative quantity is stored
// as 0. The due date is computed here, once, and shared by every loan of
// the book.
func (c *Catalog) Add(title, author string, quantity int) int64 {
	if quantity < 0 {
		quantity = 0
	}
	id := c.nextID
	c.nextID++
	c.books = append(c.books, &Book{
		ID:       id,
		Title:    title,
		Author:   author,
		Quantity: quantity,
		DueDate:  dueDate(c.now(), c.loanPeriod),
	})
	return id
}

// Find returns the book with the given id, or nil.
func (c *Catalog) Find(id int64) *Book {
	for _, b := range c.books {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// Remove deletes the book without looking at who holds it. Use
// LendingEngine.RemoveBook for the guarded variant.
func (c *Catalog) Remove(id int64) bool {
	for i, b := range c.books {
		if b.ID == id {
			c.books = append(c.books[:i], c.books[i+1:]...)
			return true
		}
	}
	return false
}

// All returns every book in insertion order.
func (c *Catalog) All() []*Book {
	out := make([]*Book, len(c.books))
	copy(out, c.books)
	return out
}

// Available returns the books that can be issued right now.
func (c *Catalog) Available() []*Book {
	var out []*Book
	for _, b := range c.books {
		if !b.Borrowed && b.Quantity > 0 {
			out = append(out, b)
		}
	}
	return out
}

// dueDate is midnight (local time) of the day loanPeriodDays after t.
func dueDate(t time.Time, loanPeriodDays int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+loanPeriodDays, 0, 0, 0, 0, t.Location())
}
