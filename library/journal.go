package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	_ "github.com/mattn/go-sqlite3"
)

// MemoryJournal is the DSN of a journal that lives only as long as the process.
const MemoryJournal = ":memory:"

type EntryKind string

const (
	EntryBookAdded        EntryKind = "book_added"
	EntryBookRemoved      EntryKind = "book_removed"
	EntryMemberRegistered EntryKind = "member_registered"
	EntryMemberRemoved    EntryKind = "member_removed"
	EntryIssued           EntryKind = "issued"
	EntryReturned         EntryKind = "returned"
	EntryFinePaid         EntryKind = "fine_paid"
)

// Entry is one line of the loan ledger. BookID is 0 and MemberID empty when
// the entry does not concern a book or a member.
type Entry struct {
	Seq        int64
	ID         uuid.UUID
	Kind       EntryKind
	BookID     int64
	MemberID   string
	Amount     float64
	OccurredAt time.Time
	Detail     map[string]any
}

// HistoryFilter narrows History. Zero fields match everything.
type HistoryFilter struct {
	MemberID string
	BookID   int64
	Kind     EntryKind
}

// Recorder receives an entry for every state change before it is applied.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, Entry) error { return nil }

const (
	tableJournal = "journal"

	colSeq        = "seq"
	colID         = "id"
	colKind       = "kind"
	colBookID     = "book_id"
	colMemberID   = "member_id"
	colAmount     = "amount"
	colOccurredAt = "occurred_at"
	colDetail     = "detail"
)

type journalRow struct {
	Seq        int64     `db:"seq"`
	ID         string    `db:"id"`
	Kind       string    `db:"kind"`
	BookID     int64     `db:"book_id"`
	MemberID   string    `db:"member_id"`
	Amount     float64   `db:"amount"`
	OccurredAt time.Time `db:"occurred_at"`
	Detail     string    `db:"detail"`
}

var detailJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// Journal is an append-only SQLite ledger of catalog, roster and lending
// operations.
type Journal struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
}

// NewJournal opens (or creates) the journal at dsn and applies schema
// migrations. Pass MemoryJournal for a process-local ledger.
func NewJournal(dsn string) (*Journal, error) {
	if dsn == "" {
		dsn = MemoryJournal
	}
	if dsn != MemoryJournal {
		// Ensure directory exists so first-run succeeds.
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create journal dir: %w", err)
			}
		}
	}

	db, err := sqlx.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", dsn))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// An in-memory database exists per connection, so keep exactly one.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db, dialect: goqu.Dialect("sqlite3")}, nil
}

func (j *Journal) Close() error { return j.db.Close() }

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sqlx.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS journal (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            id TEXT NOT NULL UNIQUE,
            kind TEXT NOT NULL,
            book_id INTEGER NOT NULL DEFAULT 0,
            member_id TEXT NOT NULL DEFAULT '',
            amount REAL NOT NULL DEFAULT 0,
            occurred_at DATETIME NOT NULL,
            detail TEXT NOT NULL DEFAULT '{}'
        );`,
		`CREATE INDEX IF NOT EXISTS idx_journal_member ON journal(member_id);`,
		`CREATE INDEX IF NOT EXISTS idx_journal_book ON journal(book_id);`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Writes and queries
// ---------------------------------------------------------------------------

// Record appends e in its own transaction. A zero ID or OccurredAt is filled in.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	detail := "{}"
	if len(e.Detail) > 0 {
		b, err := detailJSON.Marshal(e.Detail)
		if err != nil {
			return fmt.Errorf("encode journal detail: %w", err)
		}
		detail = string(b)
	}

	query, args, err := j.dialect.Insert(tableJournal).Prepared(true).Rows(goqu.Record{
		colID:         e.ID.String(),
		colKind:       string(e.Kind),
		colBookID:     e.BookID,
		colMemberID:   e.MemberID,
		colAmount:     e.Amount,
		colOccurredAt: e.OccurredAt,
		colDetail:     detail,
	}).ToSQL()
	if err != nil {
		return fmt.Errorf("build journal insert: %w", err)
	}

	tx, err := j.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("record %s: %w", e.Kind, err)
	}
	return tx.Commit()
}

// History returns matching entries, oldest first.
func (j *Journal) History(ctx context.Context, f HistoryFilter) ([]Entry, error) {
	ds := j.dialect.From(tableJournal).Prepared(true).
		Select(colSeq, colID, colKind, colBookID, colMemberID, colAmount, colOccurredAt, colDetail).
		Order(goqu.C(colSeq).Asc())
	if f.MemberID != "" {
		ds = ds.Where(goqu.C(colMemberID).Eq(f.MemberID))
	}
	if f.BookID != 0 {
		ds = ds.Where(goqu.C(colBookID).Eq(f.BookID))
	}
	if f.Kind != "" {
		ds = ds.Where(goqu.C(colKind).Eq(string(f.Kind)))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build history query: %w", err)
	}

	var rows []journalRow
	if err := j.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		e, err := r.entry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r journalRow) entry() (Entry, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return Entry{}, fmt.Errorf("journal entry %d: %w", r.Seq, err)
	}
	e := Entry{
		Seq:        r.Seq,
		ID:         id,
		Kind:       EntryKind(r.Kind),
		BookID:     r.BookID,
		MemberID:   r.MemberID,
		Amount:     r.Amount,
		OccurredAt: r.OccurredAt,
	}
	if d := strings.TrimSpace(r.Detail); d != "" && d != "{}" {
		if err := detailJSON.UnmarshalFromString(d, &e.Detail); err != nil {
			return Entry{}, fmt.Errorf("decode journal detail %d: %w", r.Seq, err)
		}
	}
	return e, nil
}
