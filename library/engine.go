package library

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"
)

const (
	defaultFinePerDay = 3.0
	day               = 24 * time.Hour
)

// LendingEngine performs every transition that touches both a book and a
// member. Each method either applies all of its effects or none of them.
//
// A book is Available while Borrowed is false and OnLoan while it is true.
// The flag alone gates a second loan, whatever Quantity says.
type LendingEngine struct {
	catalog    *Catalog
	roster     *Roster
	recorder   Recorder
	now        Clock
	finePerDay float64
	logger     *slog.Logger
}

// NewLendingEngine wires an engine to its registries. A nil recorder disables
// journaling and a nil logger discards log output.
func NewLendingEngine(c *Catalog, r *Roster, rec Recorder, now Clock, finePerDay float64, logger *slog.Logger) *LendingEngine {
	if rec == nil {
		rec = nopRecorder{}
	}
	if now == nil {
		now = time.Now
	}
	if finePerDay <= 0 {
		finePerDay = defaultFinePerDay
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &LendingEngine{catalog: c, roster: r, recorder: rec, now: now, finePerDay: finePerDay, logger: logger}
}

// Issue lends the book to the first member registered under memberID.
func (e *LendingEngine) Issue(ctx context.Context, memberID string, bookID int64) (*Book, error) {
	m := e.roster.FindByID(memberID)
	if m == nil {
		return nil, memberNotFound(memberID)
	}
	return e.IssueTo(ctx, m, bookID)
}

// IssueTo lends the book to m, which may be a snapshot. Checks run in this
// order: member, book existence, borrowed flag, quantity.
func (e *LendingEngine) IssueTo(ctx context.Context, member *Member, bookID int64) (*Book, error) {
	m := e.roster.resolve(member)
	if m == nil {
		return nil, memberNotFound(memberIDOf(member))
	}
	memberID := m.ID
	b := e.catalog.Find(bookID)
	if b == nil {
		return nil, bookNotFound(bookID)
	}
	if b.Borrowed {
		e.logger.Warn("issue rejected", "book_id", bookID, "member_id", memberID, "reason", "borrowed")
		return nil, fmt.Errorf("book %d: %w", bookID, ErrAlreadyBorrowed)
	}
	if b.Quantity <= 0 {
		e.logger.Warn("issue rejected", "book_id", bookID, "member_id", memberID, "reason", "no copies")
		return nil, fmt.Errorf("book %d: %w", bookID, ErrNoCopies)
	}

	now := e.now()
	if err := e.recorder.Record(ctx, Entry{
		Kind:       EntryIssued,
		BookID:     b.ID,
		MemberID:   m.ID,
		OccurredAt: now,
		Detail:     map[string]any{"title": b.Title, "due_date": b.DueDate.Format(time.DateOnly)},
	}); err != nil {
		return nil, fmt.Errorf("issue book %d: %w", bookID, err)
	}

	b.Borrowed = true
	b.Quantity--
	m.addBorrowed(b)

	e.logger.Info("book issued", "book_id", b.ID, "member_id", m.ID, "quantity", b.Quantity)
	return b, nil
}

// Return takes the book back from the first member registered under memberID.
func (e *LendingEngine) Return(ctx context.Context, memberID string, bookID int64) (Receipt, error) {
	m := e.roster.FindByID(memberID)
	if m == nil {
		return Receipt{}, memberNotFound(memberID)
	}
	return e.ReturnFrom(ctx, m, bookID)
}

// ReturnFrom closes m's loan of the book and charges the overdue fine, if
// any. Overdue days are whole days past the book's due date.
func (e *LendingEngine) ReturnFrom(ctx context.Context, member *Member, bookID int64) (Receipt, error) {
	m := e.roster.resolve(member)
	if m == nil {
		return Receipt{}, memberNotFound(memberIDOf(member))
	}
	memberID := m.ID
	b := e.catalog.Find(bookID)
	if b == nil {
		return Receipt{}, bookNotFound(bookID)
	}
	if !m.Holds(bookID) {
		e.logger.Warn("return rejected", "book_id", bookID, "member_id", memberID, "reason", "not held")
		return Receipt{}, fmt.Errorf("book %d, member %q: %w", bookID, memberID, ErrNotHeld)
	}

	now := e.now()
	rcpt := Receipt{Book: b, OverdueDays: OverdueDays(b.DueDate, now)}
	if rcpt.OverdueDays > 0 {
		rcpt.Fine = float64(rcpt.OverdueDays) * e.finePerDay
	}

	if err := e.recorder.Record(ctx, Entry{
		Kind:       EntryReturned,
		BookID:     b.ID,
		MemberID:   m.ID,
		Amount:     rcpt.Fine,
		OccurredAt: now,
		Detail:     map[string]any{"title": b.Title, "overdue_days": rcpt.OverdueDays},
	}); err != nil {
		return Receipt{}, fmt.Errorf("return book %d: %w", bookID, err)
	}

	b.Borrowed = false
	m.Fines += rcpt.Fine
	m.removeBorrowed(bookID)
	b.Quantity++

	e.logger.Info("book returned", "book_id", b.ID, "member_id", m.ID, "overdue_days", rcpt.OverdueDays, "fine", rcpt.Fine)
	return rcpt, nil
}

// PayFine is PayFineFor on the first member registered under memberID.
func (e *LendingEngine) PayFine(ctx context.Context, memberID string, amount float64) (float64, error) {
	if err := checkAmount(amount); err != nil {
		return 0, err
	}
	m := e.roster.FindByID(memberID)
	if m == nil {
		return 0, memberNotFound(memberID)
	}
	return e.PayFineFor(ctx, m, amount)
}

// PayFineFor reduces m's balance by amount. Overpayment is absorbed: the
// balance stops at zero and no credit is kept. It returns the new balance.
func (e *LendingEngine) PayFineFor(ctx context.Context, member *Member, amount float64) (float64, error) {
	if err := checkAmount(amount); err != nil {
		return 0, err
	}
	m := e.roster.resolve(member)
	if m == nil {
		return 0, memberNotFound(memberIDOf(member))
	}

	balance := math.Max(0, m.Fines-amount)
	if err := e.recorder.Record(ctx, Entry{
		Kind:       EntryFinePaid,
		MemberID:   m.ID,
		Amount:     amount,
		OccurredAt: e.now(),
		Detail:     map[string]any{"balance": balance},
	}); err != nil {
		return 0, fmt.Errorf("pay fine: %w", err)
	}
	m.Fines = balance

	e.logger.Info("fine paid", "member_id", m.ID, "amount", amount, "balance", balance)
	return balance, nil
}

// RemoveBook deletes a book from the catalog unless it is out on loan.
func (e *LendingEngine) RemoveBook(ctx context.Context, bookID int64) error {
	b := e.catalog.Find(bookID)
	if b == nil {
		return bookNotFound(bookID)
	}
	if holder := e.roster.holderOf(bookID); b.Borrowed || holder != nil {
		return fmt.Errorf("book %d is on loan: %w", bookID, ErrConflict)
	}
	if err := e.recorder.Record(ctx, Entry{
		Kind:       EntryBookRemoved,
		BookID:     b.ID,
		OccurredAt: e.now(),
		Detail:     map[string]any{"title": b.Title},
	}); err != nil {
		return fmt.Errorf("remove book %d: %w", bookID, err)
	}
	e.catalog.Remove(bookID)
	e.logger.Info("book removed", "book_id", bookID)
	return nil
}

// RemoveMember deletes a member unless they still hold books.
func (e *LendingEngine) RemoveMember(ctx context.Context, memberID string) error {
	m := e.roster.FindByID(memberID)
	if m == nil {
		return memberNotFound(memberID)
	}
	if n := len(m.borrowed); n > 0 {
		return fmt.Errorf("member %q holds %d book(s): %w", memberID, n, ErrConflict)
	}
	if err := e.recorder.Record(ctx, Entry{
		Kind:       EntryMemberRemoved,
		MemberID:   m.ID,
		Amount:     m.Fines,
		OccurredAt: e.now(),
		Detail:     map[string]any{"name": m.Name},
	}); err != nil {
		return fmt.Errorf("remove member %q: %w", memberID, err)
	}
	e.roster.Remove(memberID)
	e.logger.Info("member removed", "member_id", memberID)
	return nil
}

// OverdueDays is the number of whole days now lies past due. It is zero or
// negative when the book is not overdue.
func OverdueDays(due, now time.Time) int64 {
	return int64(now.Sub(due) / day)
}

func checkAmount(amount float64) error {
	if !(amount > 0) || math.IsInf(amount, 0) {
		return fmt.Errorf("pay %v: %w", amount, ErrInvalidAmount)
	}
	return nil
}

func memberIDOf(m *Member) string {
	if m == nil {
		return ""
	}
	return m.ID
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
