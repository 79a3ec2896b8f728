package shell

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"library-lending/library"
)

// memberLogin looks the member up by name, registering a new member when the
// name is unknown, and then shows the member menu.
func (s *Session) memberLogin(ctx context.Context) error {
	name, err := s.readLine("Enter your name: ")
	if err != nil {
		return err
	}
	m, err := s.mgr.FindMemberByName(name)
	if err != nil {
		s.println("Member not found. Registering as a new member.")
		if m, err = s.registerMember(ctx, name); err != nil || m == nil {
			return err
		}
	} else {
		s.printf("Welcome back, %s!\n", name)
	}

	s.member = m
	defer func() { s.member = nil }()
	return s.memberMenu(ctx)
}

func (s *Session) memberMenu(ctx context.Context) error {
	for {
		s.println("Member Menu:")
		s.println("1. Issue a book")
		s.println("2. Return a book")
		s.println("3. View your borrowed books")
		s.println("4. Pay fines")
		s.println("5. View available books")
		s.println("6. Back")

		choice, err := s.readLine("> ")
		if err != nil {
			return err
		}
		switch choice {
		case "1":
			err = s.handleIssue(ctx)
		case "2":
			err = s.handleReturn(ctx)
		case "3":
			err = s.handleViewBorrowed()
		case "4":
			err = s.handlePayFine(ctx)
		case "5":
			s.println("Available Books:")
			s.printBooks(s.mgr.GetAvailableBooks())
		case "6":
			return nil
		default:
			s.println("Invalid choice. Please enter a valid option.")
		}
		if err != nil {
			return err
		}
	}
}

func (s *Session) handleIssue(ctx context.Context) error {
	id, ok, err := s.readInt("Enter the book ID to borrow: ", "book ID")
	if err != nil || !ok {
		return err
	}

	b, err := s.mgr.IssueBookTo(ctx, s.member, id)
	switch {
	case err == nil:
		s.printf("Book titled '%s' has been issued to %s\n", b.Title, memberDetails(s.member))
		s.printf("Due date: %s\n", b.DueDate.Format(time.DateOnly))
	case errors.Is(err, library.ErrNoCopies):
		title := ""
		if b, gerr := s.mgr.GetBook(id); gerr == nil {
			title = b.Title
		}
		s.printf("Sorry, there are no copies left of the book titled '%s'.\n", title)
	case errors.Is(err, library.ErrAlreadyBorrowed):
		s.println("Sorry, the book is already borrowed.")
	case errors.Is(err, library.ErrNotFound):
		s.printf("Book with ID %d not found.\n", id)
	default:
		s.printf("Error issuing book: %v\n", err)
	}
	return nil
}

func (s *Session) handleReturn(ctx context.Context) error {
	id, ok, err := s.readInt("Enter the book ID to return: ", "book ID")
	if err != nil || !ok {
		return err
	}

	rcpt, err := s.mgr.ReturnBookFrom(ctx, s.member, id)
	switch {
	case err == nil:
		s.printf("Book titled '%s' has been returned by %s\n", rcpt.Book.Title, memberDetails(s.member))
		if rcpt.Fine > 0 {
			s.printf("Fine for overdue (%d day(s)): %s\n", rcpt.OverdueDays, money(rcpt.Fine))
		}
	case errors.Is(err, library.ErrNotHeld):
		s.printf("You did not borrow the book with ID %d.\n", id)
	case errors.Is(err, library.ErrNotFound):
		s.printf("Book with ID %d not found.\n", id)
	default:
		s.printf("Error returning book: %v\n", err)
	}
	return nil
}

func (s *Session) handleViewBorrowed() error {
	m, err := s.mgr.Refresh(s.member)
	if err != nil {
		s.printf("Error loading member: %v\n", err)
		return nil
	}
	s.member = m
	s.printBorrowed(m)
	s.printf("Outstanding fines: %s\n", money(m.Fines))
	return nil
}

func (s *Session) handlePayFine(ctx context.Context) error {
	line, err := s.readLine("Enter the amount to pay: $")
	if err != nil {
		return err
	}
	amount, perr := strconv.ParseFloat(line, 64)
	if perr != nil || math.IsNaN(amount) {
		s.printf("Invalid amount: %s\n", line)
		return nil
	}

	balance, err := s.mgr.PayFineFor(ctx, s.member, amount)
	switch {
	case err == nil:
		s.printf("Fines paid successfully. Updated fine amount: %s\n", money(balance))
	case errors.Is(err, library.ErrInvalidAmount):
		s.println("Invalid amount. Please enter a positive amount to pay fines.")
	default:
		s.printf("Error paying fines: %v\n", err)
	}
	return nil
}
