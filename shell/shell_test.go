package shell

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-lending/library"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newManager(t *testing.T) (*library.LibraryManager, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2026, time.May, 4, 10, 0, 0, 0, time.UTC)}
	mgr, err := library.NewLibraryManager(library.DefaultConfig(), library.WithClock(c.now))
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })
	return mgr, c
}

// run feeds the lines to a fresh session and returns everything it printed.
func run(t *testing.T, mgr *library.LibraryManager, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	require.NoError(t, New(mgr, in, &out, Options{Width: 80}).Run(context.Background()))
	return out.String()
}

func TestLibrarianAddsBookAndRegistersMember(t *testing.T) {
	mgr, _ := newManager(t)
	out := run(t, mgr,
		"1",
		"3", "The Hobbit", "J.R.R. Tolkien", "2",
		"1", "Alice", "34", "555-0100",
		"5",
		"8",
		"3",
	)

	assert.Contains(t, out, "Book added successfully with ID 1.")
	assert.Contains(t, out, "The Hobbit")
	assert.Contains(t, out, "Member registered successfully with 555-0100")
	assert.Contains(t, out, "Member Details: Name: Alice, Age: 34, Member Number: 555-0100")
	assert.Contains(t, out, "No books borrowed by Alice.")
	assert.Contains(t, out, "Fines: $0.00")
	assert.Contains(t, out, "Thank you for visiting.")

	require.Len(t, mgr.GetAllBooks(), 1)
	require.Len(t, mgr.GetAllMembers(), 1)
}

func TestMemberBorrowReturnAndPay(t *testing.T) {
	mgr, c := newManager(t)
	ctx := context.Background()
	id, err := mgr.AddBook(ctx, "Dune", "Frank Herbert", 1)
	require.NoError(t, err)
	_, err = mgr.RegisterMember(ctx, "Alice", 34, "555-0100")
	require.NoError(t, err)

	out := run(t, mgr, "2", "Alice", "1", "1", "1", "1", "6", "3")
	assert.Contains(t, out, "Welcome back, Alice!")
	assert.Contains(t, out, "Book titled 'Dune' has been issued to Name: Alice")
	assert.Contains(t, out, "Sorry, the book is already borrowed.")

	b, err := mgr.GetBook(id)
	require.NoError(t, err)
	c.t = b.DueDate.Add(5*24*time.Hour + time.Minute)

	out = run(t, mgr, "2", "Alice", "2", "1", "4", "10", "4", "10", "4", "-5", "3", "6", "3")
	assert.Contains(t, out, "Fine for overdue (5 day(s)): $15.00")
	assert.Contains(t, out, "Updated fine amount: $5.00")
	assert.Contains(t, out, "Updated fine amount: $0.00")
	assert.Contains(t, out, "Invalid amount. Please enter a positive amount to pay fines.")
	assert.Contains(t, out, "No books borrowed by Alice.")
	assert.Contains(t, out, "Outstanding fines: $0.00")
}

func TestMemberErrors(t *testing.T) {
	mgr, _ := newManager(t)
	ctx := context.Background()
	_, err := mgr.AddBook(ctx, "Empty", "Nobody", 0)
	require.NoError(t, err)
	_, err = mgr.RegisterMember(ctx, "Bob", 40, "b")
	require.NoError(t, err)

	out := run(t, mgr, "2", "Bob", "1", "1", "1", "9", "1", "abc", "2", "1", "4", "lots", "6", "3")
	assert.Contains(t, out, "Sorry, there are no copies left of the book titled 'Empty'.")
	assert.Contains(t, out, "Book with ID 9 not found.")
	assert.Contains(t, out, "Invalid book ID: abc")
	assert.Contains(t, out, "You did not borrow the book with ID 1.")
	assert.Contains(t, out, "Invalid amount: lots")
}

func TestUnknownNameRegistersAndLogsIn(t *testing.T) {
	mgr, _ := newManager(t)
	out := run(t, mgr, "2", "Carol", "27", "c-1", "3", "6", "3")
	assert.Contains(t, out, "Member not found. Registering as a new member.")
	assert.Contains(t, out, "Member registered successfully with c-1")
	assert.Contains(t, out, "No books borrowed by Carol.")

	m, err := mgr.FindMemberByName("Carol")
	require.NoError(t, err)
	assert.Equal(t, "c-1", m.ID)
	assert.Equal(t, 27, m.Age)
}

func TestRemovalsAreGuarded(t *testing.T) {
	mgr, _ := newManager(t)
	ctx := context.Background()
	id, err := mgr.AddBook(ctx, "Dune", "Frank Herbert", 1)
	require.NoError(t, err)
	_, err = mgr.RegisterMember(ctx, "Alice", 34, "a")
	require.NoError(t, err)
	_, err = mgr.IssueBook(ctx, "a", id)
	require.NoError(t, err)

	out := run(t, mgr, "1", "4", "1", "2", "a", "4", "7", "2", "zz", "7", "a", "8", "3")
	assert.Contains(t, out, "Book with ID 1 is on loan and cannot be removed.")
	assert.Contains(t, out, "Member with ID a still has borrowed books")
	assert.Contains(t, out, "Book with ID 7 not found.")
	assert.Contains(t, out, "Member with ID zz not found.")
	assert.Contains(t, out, "issued")
	assert.Contains(t, out, "member a")

	_, err = mgr.GetBook(id)
	assert.NoError(t, err)
}

func TestEOFEndsSession(t *testing.T) {
	mgr, _ := newManager(t)
	out := run(t, mgr, "1", "3", "Half", "Anonymous")
	assert.Contains(t, out, "Enter the quantity of the book: ")
	assert.Empty(t, mgr.GetAllBooks())
}

func TestInvalidMenuChoice(t *testing.T) {
	mgr, _ := newManager(t)
	out := run(t, mgr, "9", "3")
	assert.Contains(t, out, "Invalid choice. Please enter a valid option.")
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "a very ...", truncateString("a very long title", 10))
	assert.Equal(t, "ab", truncateString("abcdef", 2))
	assert.Equal(t, "Café", truncateString("Café", 4))
	assert.Equal(t, "Misé...", truncateString("Misérables", 7))
	assert.Equal(t, "東京", truncateString("東京物語", 2))
	assert.True(t, utf8.ValidString(truncateString("Ελληνικά", 5)))
}

func TestMemberSessionWithSharedID(t *testing.T) {
	mgr, c := newManager(t)
	ctx := context.Background()
	id, err := mgr.AddBook(ctx, "Dune", "Frank Herbert", 1)
	require.NoError(t, err)
	_, err = mgr.RegisterMember(ctx, "Alice", 34, "555")
	require.NoError(t, err)
	_, err = mgr.RegisterMember(ctx, "Bob", 41, "555")
	require.NoError(t, err)

	out := run(t, mgr, "2", "Bob", "1", "1", "3", "6", "3")
	assert.Contains(t, out, "has been issued to Name: Bob")
	assert.Contains(t, out, "Borrowed Books for Bob:")

	members := mgr.GetAllMembers()
	require.Len(t, members, 2)
	assert.Empty(t, members[0].BorrowedBooks(), "Alice")
	assert.True(t, members[1].Holds(id), "Bob")

	b, err := mgr.GetBook(id)
	require.NoError(t, err)
	c.t = b.DueDate.Add(2*24*time.Hour + time.Minute)

	out = run(t, mgr, "2", "Bob", "2", "1", "4", "1", "6", "3")
	assert.Contains(t, out, "Fine for overdue (2 day(s)): $6.00")
	assert.Contains(t, out, "Updated fine amount: $5.00")

	members = mgr.GetAllMembers()
	assert.Zero(t, members[0].Fines)
	assert.Equal(t, 5.0, members[1].Fines)
	assert.Empty(t, members[1].BorrowedBooks())
}
