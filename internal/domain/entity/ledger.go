package entity

import "fmt"

// LedgerKey identifies the ledger of one (guild, category) pair.
type LedgerKey struct {
	GuildID  string
	Category Category
}

func (k LedgerKey) String() string {
	return fmt.Sprintf("%s/%s", k.GuildID, k.Category)
}

// Ledger is the ordered list of published message ids, index-aligned with
// page index.
type Ledger []string

// Clone returns a copy that can be mutated independently.
func (l Ledger) Clone() Ledger {
	if l == nil {
		return nil
	}
	out := make(Ledger, len(l))
	copy(out, l)
	return out
}

// Put stores id at index, appending when index is past the end.
func (l Ledger) Put(index int, id string) Ledger {
	if index < len(l) {
		l[index] = id
		return l
	}
	return append(l, id)
}
