package shell

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"library-lending/library"
)

func (s *Session) librarianMenu(ctx context.Context) error {
	for {
		s.println("Librarian Menu:")
		s.println("1. Register a member")
		s.println("2. Remove a member")
		s.println("3. Add a book")
		s.println("4. Remove a book")
		s.println("5. View all members along with their books and fines")
		s.println("6. View all books")
		s.println("7. View loan history")
		s.println("8. Back")

		choice, err := s.readLine("> ")
		if err != nil {
			return err
		}
		switch choice {
		case "1":
			_, err = s.registerMember(ctx, "")
		case "2":
			err = s.handleRemoveMember(ctx)
		case "3":
			err = s.handleAddBook(ctx)
		case "4":
			err = s.handleRemoveBook(ctx)
		case "5":
			s.handleViewMembers()
		case "6":
			s.println("List of All Books:")
			s.printBooks(s.mgr.GetAllBooks())
		case "7":
			err = s.handleHistory(ctx)
		case "8":
			return nil
		default:
			s.println("Invalid choice. Please enter a valid option.")
		}
		if err != nil {
			return err
		}
	}
}

// registerMember prompts for the member's details. When name is non-empty it
// is used instead of asking again. The returned member is nil when input was
// rejected.
func (s *Session) registerMember(ctx context.Context, name string) (*library.Member, error) {
	var err error
	if name == "" {
		if name, err = s.readLine("Enter Name: "); err != nil {
			return nil, err
		}
	}
	age, ok, err := s.readInt("Enter member age: ", "age")
	if err != nil || !ok {
		return nil, err
	}
	if age < 0 {
		s.printf("Invalid age: %d\n", age)
		return nil, nil
	}
	id, err := s.readLine("Enter Phone No.: ")
	if err != nil {
		return nil, err
	}

	m, err := s.mgr.RegisterMember(ctx, name, int(age), id)
	if err != nil {
		s.printf("Error registering member: %v\n", err)
		return nil, nil
	}
	s.printf("Member registered successfully with %s\n", m.ID)
	return m, nil
}

func (s *Session) handleRemoveMember(ctx context.Context) error {
	id, err := s.readLine("Enter the member ID to remove: ")
	if err != nil {
		return err
	}
	switch err := s.mgr.RemoveMember(ctx, id); {
	case err == nil:
		s.printf("Member with ID %s has been removed.\n", id)
	case errors.Is(err, library.ErrNotFound):
		s.printf("Member with ID %s not found.\n", id)
	case errors.Is(err, library.ErrConflict):
		s.printf("Member with ID %s still has borrowed books; they must be returned first.\n", id)
	default:
		s.printf("Error removing member: %v\n", err)
	}
	return nil
}

func (s *Session) handleAddBook(ctx context.Context) error {
	title, err := s.readLine("Enter the title of the book: ")
	if err != nil {
		return err
	}
	author, err := s.readLine("Enter the author of the book: ")
	if err != nil {
		return err
	}
	qty, ok, err := s.readInt("Enter the quantity of the book: ", "quantity")
	if err != nil || !ok {
		return err
	}

	id, err := s.mgr.AddBook(ctx, title, author, int(qty))
	if err != nil {
		if errors.Is(err, library.ErrInvalidQuantity) {
			s.println("Invalid quantity. Please enter zero or more copies.")
		} else {
			s.printf("Error adding book: %v\n", err)
		}
		return nil
	}
	s.printf("Book added successfully with ID %d.\n", id)
	s.println("List of All Books:")
	s.printBooks(s.mgr.GetAllBooks())
	return nil
}

func (s *Session) handleRemoveBook(ctx context.Context) error {
	id, ok, err := s.readInt("Enter the ID of the book to remove: ", "book ID")
	if err != nil || !ok {
		return err
	}
	switch err := s.mgr.RemoveBook(ctx, id); {
	case err == nil:
		s.printf("Book with ID %d has been removed.\n", id)
	case errors.Is(err, library.ErrNotFound):
		s.printf("Book with ID %d not found.\n", id)
	case errors.Is(err, library.ErrConflict):
		s.printf("Book with ID %d is on loan and cannot be removed.\n", id)
	default:
		s.printf("Error removing book: %v\n", err)
	}
	return nil
}

func (s *Session) handleViewMembers() {
	s.println("Members with Their Borrowed Books and Fines:")
	members := s.mgr.GetAllMembers()
	if len(members) == 0 {
		s.println("No members registered.")
		return
	}
	for _, m := range members {
		s.printf("Member Details: %s\n", memberDetails(m))
		s.printBorrowed(m)
		s.printf("Fines: %s\n", money(m.Fines))
		s.println("---------------")
	}
}

func (s *Session) handleHistory(ctx context.Context) error {
	id, err := s.readLine("Member ID (or press Enter for everyone): ")
	if err != nil {
		return err
	}
	entries, err := s.mgr.History(ctx, library.HistoryFilter{MemberID: id})
	if err != nil {
		s.printf("Error reading history: %v\n", err)
		return nil
	}
	PrintHistory(s.out, entries)
	return nil
}

func describeEntry(e library.Entry) string {
	var parts []string
	if e.BookID != 0 {
		parts = append(parts, "book "+strconv.FormatInt(e.BookID, 10))
	}
	if e.MemberID != "" {
		parts = append(parts, "member "+e.MemberID)
	}
	if title, ok := e.Detail["title"].(string); ok {
		parts = append(parts, "'"+title+"'")
	}
	switch e.Kind {
	case library.EntryReturned:
		if e.Amount > 0 {
			parts = append(parts, "fine "+money(e.Amount))
		}
	case library.EntryFinePaid:
		parts = append(parts, "paid "+money(e.Amount))
	}
	return strings.Join(parts, ", ")
}
