package library

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LibraryManager is a thin façade over the catalog, roster, lending engine
// and journal, keeping shell code simple. One mutex serializes every call.
//
// Books and members handed out are snapshots taken under the lock; they do
// not change after the call returns and are safe to read from any goroutine.
type LibraryManager struct {
	mu sync.RWMutex

	catalog *Catalog
	roster  *Roster
	engine  *LendingEngine
	journal *Journal
	now     Clock
	logger  *slog.Logger
}

type Option func(*LibraryManager)

func WithLogger(l *slog.Logger) Option { return func(lm *LibraryManager) { lm.logger = l } }
func WithClock(c Clock) Option         { return func(lm *LibraryManager) { lm.now = c } }

// NewLibraryManager opens the journal named by cfg and builds empty
// registries. When cfg.SeedFile is set the catalog is filled from it.
func NewLibraryManager(cfg Config, opts ...Option) (*LibraryManager, error) {
	lm := &LibraryManager{now: time.Now}
	for _, opt := range opts {
		opt(lm)
	}
	if lm.logger == nil {
		lm.logger = discardLogger()
	}

	j, err := NewJournal(cfg.JournalDSN)
	if err != nil {
		return nil, err
	}
	lm.journal = j
	lm.catalog = NewCatalog(lm.now, cfg.LoanPeriodDays)
	lm.roster = NewRoster()
	lm.engine = NewLendingEngine(lm.catalog, lm.roster, j, lm.now, cfg.FinePerDay, lm.logger)

	if cfg.SeedFile != "" {
		if err := lm.importFile(cfg.SeedFile); err != nil {
			j.Close()
			return nil, err
		}
	}
	return lm, nil
}

// Close closes the underlying journal.
func (lm *LibraryManager) Close() error { return lm.journal.Close() }

func (lm *LibraryManager) importFile(path string) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	n, err := lm.ImportBooks(context.Background(), f)
	if err != nil {
		return fmt.Errorf("seed %s: %w", path, err)
	}
	lm.logger.Info("catalog seeded", "file", path, "books", n)
	return nil
}

// ------------------ Book helpers ------------------

// AddBook records and stores a new book, returning its id.
func (lm *LibraryManager) AddBook(ctx context.Context, title, author string, quantity int) (int64, error) {
	if quantity < 0 {
		return 0, fmt.Errorf("quantity %d: %w", quantity, ErrInvalidQuantity)
	}
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.addBookLocked(ctx, title, author, quantity)
}

func (lm *LibraryManager) addBookLocked(ctx context.Context, title, author string, quantity int) (int64, error) {
	if err := lm.journal.Record(ctx, Entry{
		Kind:       EntryBookAdded,
		BookID:     lm.catalog.nextID,
		OccurredAt: lm.now(),
		Detail:     map[string]any{"title": title, "author": author, "quantity": quantity},
	}); err != nil {
		return 0, fmt.Errorf("add book: %w", err)
	}
	id := lm.catalog.Add(title, author, quantity)
	lm.logger.Info("book added", "book_id", id, "title", title, "quantity", quantity)
	return id, nil
}

func (lm *LibraryManager) GetBook(id int64) (*Book, error) {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	if b := lm.catalog.Find(id); b != nil {
		return b.clone(), nil
	}
	return nil, bookNotFound(id)
}

func (lm *LibraryManager) GetAllBooks() []*Book {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return cloneBooks(lm.catalog.All())
}

func (lm *LibraryManager) GetAvailableBooks() []*Book {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return cloneBooks(lm.catalog.Available())
}

func cloneBooks(books []*Book) []*Book {
	out := make([]*Book, len(books))
	for i, b := range books {
		out[i] = b.clone()
	}
	return out
}

func (lm *LibraryManager) RemoveBook(ctx context.Context, id int64) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.engine.RemoveBook(ctx, id)
}

// ------------------ Member helpers ------------------

// RegisterMember always creates a new member, even when the name or id is
// already taken.
func (lm *LibraryManager) RegisterMember(ctx context.Context, name string, age int, id string) (*Member, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if err := lm.journal.Record(ctx, Entry{
		Kind:       EntryMemberRegistered,
		MemberID:   id,
		OccurredAt: lm.now(),
		Detail:     map[string]any{"name": name, "age": age},
	}); err != nil {
		return nil, fmt.Errorf("register member: %w", err)
	}
	m := lm.roster.Register(name, age, id)
	lm.logger.Info("member registered", "member_id", id, "name", name)
	return m.snapshot(), nil
}

func (lm *LibraryManager) FindMemberByName(name string) (*Member, error) {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	if m := lm.roster.FindByName(name); m != nil {
		return m.snapshot(), nil
	}
	return nil, fmt.Errorf("member named %q: %w", name, ErrNotFound)
}

func (lm *LibraryManager) GetMember(id string) (*Member, error) {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	if m := lm.roster.FindByID(id); m != nil {
		return m.snapshot(), nil
	}
	return nil, memberNotFound(id)
}

// Refresh returns a new snapshot of the member m was taken from.
func (lm *LibraryManager) Refresh(m *Member) (*Member, error) {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	if cur := lm.roster.resolve(m); cur != nil {
		return cur.snapshot(), nil
	}
	return nil, memberNotFound(memberIDOf(m))
}

func (lm *LibraryManager) GetAllMembers() []*Member {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	members := lm.roster.All()
	for i, m := range members {
		members[i] = m.snapshot()
	}
	return members
}

func (lm *LibraryManager) RemoveMember(ctx context.Context, id string) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.engine.RemoveMember(ctx, id)
}

// ------------------ Circulation ------------------
//
// The ...To/From/For variants act on the member a snapshot was taken from,
// which matters when several members share an id. The id-based methods act
// on the first member with that id.

func (lm *LibraryManager) IssueBook(ctx context.Context, memberID string, bookID int64) (*Book, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return cloneResult(lm.engine.Issue(ctx, memberID, bookID))
}

func (lm *LibraryManager) IssueBookTo(ctx context.Context, m *Member, bookID int64) (*Book, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return cloneResult(lm.engine.IssueTo(ctx, m, bookID))
}

func (lm *LibraryManager) ReturnBook(ctx context.Context, memberID string, bookID int64) (Receipt, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return cloneReceipt(lm.engine.Return(ctx, memberID, bookID))
}

func (lm *LibraryManager) ReturnBookFrom(ctx context.Context, m *Member, bookID int64) (Receipt, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return cloneReceipt(lm.engine.ReturnFrom(ctx, m, bookID))
}

// PayFine returns the member's balance after the payment.
func (lm *LibraryManager) PayFine(ctx context.Context, memberID string, amount float64) (float64, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.engine.PayFine(ctx, memberID, amount)
}

func (lm *LibraryManager) PayFineFor(ctx context.Context, m *Member, amount float64) (float64, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.engine.PayFineFor(ctx, m, amount)
}

func cloneResult(b *Book, err error) (*Book, error) {
	if err != nil {
		return nil, err
	}
	return b.clone(), nil
}

func cloneReceipt(r Receipt, err error) (Receipt, error) {
	if err != nil {
		return Receipt{}, err
	}
	r.Book = r.Book.clone()
	return r, nil
}

// ------------------ Journal ------------------

func (lm *LibraryManager) History(ctx context.Context, f HistoryFilter) ([]Entry, error) {
	return lm.journal.History(ctx, f)
}
