package library

// Roster owns the member records. Names and ids are not required to be
// unique; lookups return the first match.
type Roster struct {
	members    []*Member
	nextHandle int64
}

func NewRoster() *Roster { return &Roster{nextHandle: 1} }

// Register always creates a new member with a zero fine balance.
func (r *Roster) Register(name string, age int, id string) *Member {
	m := &Member{Name: name, Age: age, ID: id, handle: r.nextHandle}
	r.nextHandle++
	r.members = append(r.members, m)
	return m
}

// resolve returns the registered member that m is, or a snapshot of. It is
// nil once that member has been removed.
func (r *Roster) resolve(m *Member) *Member {
	if m == nil {
		return nil
	}
	for _, cur := range r.members {
		if cur.handle == m.handle {
			return cur
		}
	}
	return nil
}

func (r *Roster) FindByName(name string) *Member {
	for _, m := range r.members {
		if m.Name == name {
			return m
		}
	}
	return nil
}

func (r *Roster) FindByID(id string) *Member {
	for _, m := range r.members {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// Remove deletes the first member with the given id. Books the member still
// holds are not returned; LendingEngine.RemoveMember refuses in that case.
func (r *Roster) Remove(id string) bool {
	for i, m := range r.members {
		if m.ID == id {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Roster) All() []*Member {
	out := make([]*Member, len(r.members))
	copy(out, r.members)
	return out
}

// holderOf returns the first member whose borrowed list contains the book.
func (r *Roster) holderOf(bookID int64) *Member {
	for _, m := range r.members {
		if m.Holds(bookID) {
			return m
		}
	}
	return nil
}
