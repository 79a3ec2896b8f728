package library

import (
	"context"
	"errors"
	"math"
	"strconv"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// lendingMachine drives random operation sequences against an engine and
// checks the catalog/roster invariants after every step.
type lendingMachine struct {
	f       *fixture
	bookIDs []int64
	members []string
}

func (lm *lendingMachine) addBook(t *rapid.T) {
	qty := rapid.IntRange(0, 3).Draw(t, "quantity")
	lm.bookIDs = append(lm.bookIDs, lm.f.catalog.Add("T", "A", qty))
}

func (lm *lendingMachine) register(t *rapid.T) {
	id := "m" + strconv.Itoa(len(lm.members))
	lm.f.roster.Register("N", 30, id)
	lm.members = append(lm.members, id)
}

func (lm *lendingMachine) pick(t *rapid.T) (string, int64) {
	if len(lm.members) == 0 || len(lm.bookIDs) == 0 {
		t.Skip("need a member and a book")
	}
	return rapid.SampledFrom(lm.members).Draw(t, "member"), rapid.SampledFrom(lm.bookIDs).Draw(t, "book")
}

func (lm *lendingMachine) issue(t *rapid.T) {
	memberID, bookID := lm.pick(t)
	b := lm.f.catalog.Find(bookID)
	m := lm.f.roster.FindByID(memberID)
	qty, held := b.Quantity, len(m.borrowed)

	_, err := lm.f.engine.Issue(context.Background(), memberID, bookID)
	switch {
	case err == nil:
		if b.Quantity != qty-1 || !b.Borrowed || !m.Holds(bookID) {
			t.Fatalf("issue of %d to %s did not apply fully", bookID, memberID)
		}
	case errors.Is(err, ErrInvalidState):
		if b.Quantity != qty || len(m.borrowed) != held {
			t.Fatalf("rejected issue changed state")
		}
	default:
		t.Fatalf("unexpected issue error: %v", err)
	}
}

func (lm *lendingMachine) giveBack(t *rapid.T) {
	memberID, bookID := lm.pick(t)
	b := lm.f.catalog.Find(bookID)
	m := lm.f.roster.FindByID(memberID)
	qty, fines := b.Quantity, m.Fines

	rcpt, err := lm.f.engine.Return(context.Background(), memberID, bookID)
	switch {
	case err == nil:
		if b.Quantity != qty+1 || b.Borrowed || m.Holds(bookID) {
			t.Fatalf("return of %d by %s did not apply fully", bookID, memberID)
		}
		if rcpt.Fine < 0 || m.Fines != fines+rcpt.Fine {
			t.Fatalf("fine %v not added to %v (now %v)", rcpt.Fine, fines, m.Fines)
		}
	case errors.Is(err, ErrNotHeld):
		if b.Quantity != qty || m.Fines != fines {
			t.Fatalf("rejected return changed state")
		}
	default:
		t.Fatalf("unexpected return error: %v", err)
	}
}

func (lm *lendingMachine) pay(t *rapid.T) {
	if len(lm.members) == 0 {
		t.Skip("no members")
	}
	memberID := rapid.SampledFrom(lm.members).Draw(t, "member")
	amount := rapid.Float64Range(-20, 60).Draw(t, "amount")
	m := lm.f.roster.FindByID(memberID)
	before := m.Fines

	bal, err := lm.f.engine.PayFine(context.Background(), memberID, amount)
	if amount <= 0 {
		if !errors.Is(err, ErrInvalidAmount) || m.Fines != before {
			t.Fatalf("non-positive payment %v accepted", amount)
		}
		return
	}
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if want := math.Max(0, before-amount); bal != want || m.Fines != want {
		t.Fatalf("balance %v after paying %v on %v, want %v", bal, amount, before, want)
	}
}

func (lm *lendingMachine) advance(t *rapid.T) {
	hours := rapid.IntRange(1, 24*15).Draw(t, "hours")
	lm.f.clock.Advance(time.Duration(hours) * time.Hour)
}

func (lm *lendingMachine) check(t *rapid.T) {
	holders := map[int64]int{}
	for _, m := range lm.f.roster.All() {
		if m.Fines < 0 {
			t.Fatalf("member %s has negative fines %v", m.ID, m.Fines)
		}
		seen := map[int64]bool{}
		for _, b := range m.BorrowedBooks() {
			if seen[b.ID] {
				t.Fatalf("member %s holds book %d twice", m.ID, b.ID)
			}
			seen[b.ID] = true
			holders[b.ID]++
		}
	}
	for _, b := range lm.f.catalog.All() {
		if b.Quantity < 0 {
			t.Fatalf("book %d has quantity %d", b.ID, b.Quantity)
		}
		if b.Borrowed != (holders[b.ID] == 1) || holders[b.ID] > 1 {
			t.Fatalf("book %d borrowed=%v but has %d holders", b.ID, b.Borrowed, holders[b.ID])
		}
	}
}

func TestLendingInvariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		lm := &lendingMachine{f: newFixture(t, nil)}
		rt.Repeat(map[string]func(*rapid.T){
			"addBook":  lm.addBook,
			"register": lm.register,
			"issue":    lm.issue,
			"return":   lm.giveBack,
			"pay":      lm.pay,
			"advance":  lm.advance,
			"":         lm.check,
		})
	})
}
