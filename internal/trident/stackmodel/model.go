// Package stackmodel implements the virtual stack model described in
// §3.3: the code generator's central data structure, tracking a bounded
// real operand stack and automatically spilling to RAM on overflow.
//
// Per §9 ("Cyclic graphs from source dynamism"), the entry table is kept
// as an owned arena with stable indices (Model.entries); all access
// helpers (Find, Touch, EnsureSpace, Reload) index into it rather than holding
// references that could be invalidated by a later spill.
package stackmodel

import (
	"fmt"

	"github.com/tridentlang/trident/internal/trident/backend"
	"github.com/tridentlang/trident/internal/trident/ir"
)

// Entry is one virtual-stack entry (§3.3).
type Entry struct {
	Width      int
	ElemWidth  int    // 0 unless this is a homogeneous array entry
	Name       string // "" for an anonymous temporary
	Spilled    bool
	RAMAddr    uint64
	lastAccess uint64
}

// Model is the virtual stack model for one function body.
type Model struct {
	entries     []Entry // deepest (index 0) to topmost
	depth       int     // STACK_DEPTH (I1)
	spillBase   uint64
	maxVarWidth int
	nextSlot    int
	clock       uint64
}

// New builds an empty model against the given backend's stack depth and
// spill base (§6.3's [stack].depth / [stack].spill_ram_base).
func New(lowering backend.StackLowering, maxVarWidth int) *Model {
	return &Model{
		depth:       lowering.StackDepth(),
		spillBase:   lowering.SpillBase(),
		maxVarWidth: maxVarWidth,
	}
}

// Height returns the sum of widths of currently resident entries (I1).
func (m *Model) Height() int {
	h := 0
	for _, e := range m.entries {
		if !e.Spilled {
			h += e.Width
		}
	}
	return h
}

// Free returns how many cells remain before STACK_DEPTH is reached.
func (m *Model) Free() int {
	return m.depth - m.Height()
}

// PushAnon adds a resident anonymous temporary of the given width
// (I3: never spilled).
func (m *Model) PushAnon(width int) {
	m.clock++
	m.entries = append(m.entries, Entry{Width: width, lastAccess: m.clock})
}

// PushNamed adds a resident named entry.
func (m *Model) PushNamed(name string, width, elemWidth int) {
	m.clock++
	m.entries = append(m.entries, Entry{Width: width, ElemWidth: elemWidth, Name: name, lastAccess: m.clock})
}

// RenameTop renames the topmost entry (used by `let p = e`, §4.1.3).
func (m *Model) RenameTop(name string, elemWidth int) error {
	if len(m.entries) == 0 {
		return fmt.Errorf("stackmodel: cannot rename top of empty stack")
	}
	m.entries[len(m.entries)-1].Name = name
	m.entries[len(m.entries)-1].ElemWidth = elemWidth
	return nil
}

// Pop removes the topmost entry and returns it.
func (m *Model) Pop() (Entry, error) {
	if len(m.entries) == 0 {
		return Entry{}, fmt.Errorf("stackmodel: pop from empty model")
	}
	e := m.entries[len(m.entries)-1]
	m.entries = m.entries[:len(m.entries)-1]
	return e, nil
}

// SplitTop replaces the topmost entry with n equal-width named entries
// (tuple-destructuring `let (a, b) = e`, §4.1.3).
func (m *Model) SplitTop(names []string, widthEach int) error {
	top, err := m.Pop()
	if err != nil {
		return err
	}
	if top.Width != widthEach*len(names) {
		return fmt.Errorf("stackmodel: tuple width mismatch: have %d, want %d", top.Width, widthEach*len(names))
	}
	for _, n := range names {
		m.PushNamed(n, widthEach, 0)
	}
	return nil
}

// Find locates the named entry and its depth (cells from the top of the
// *resident* portion of the stack to the entry's topmost cell), and
// whether it is spilled.
func (m *Model) Find(name string) (idx int, depthFromTop int, e Entry, ok bool) {
	// Walk from the top so the most-recently-pushed binding of a name
	// (the one actually visible) wins, matching I2 (at most one resident
	// copy of a named variable at a time).
	residentDepth := 0
	for i := len(m.entries) - 1; i >= 0; i-- {
		en := m.entries[i]
		if en.Name == name {
			return i, residentDepth, en, true
		}
		if !en.Spilled {
			residentDepth += en.Width
		}
	}
	return -1, 0, Entry{}, false
}

// Touch updates the LRU clock for the named entry (an access happened).
func (m *Model) Touch(name string) {
	if idx, _, _, ok := m.Find(name); ok {
		m.clock++
		m.entries[idx].lastAccess = m.clock
	}
}

// lruVictim returns the index of the least-recently-accessed resident
// named entry (I3: anonymous temporaries are never chosen).
func (m *Model) lruVictim() (int, bool) {
	best := -1
	for i, e := range m.entries {
		if e.Spilled || e.Name == "" {
			continue
		}
		if best == -1 || e.lastAccess < m.entries[best].lastAccess {
			best = i
		}
	}
	return best, best != -1
}

// EnsureSpace spills resident named entries (LRU-first) until at least n
// cells are free, emitting the structural IR ops that realize each spill
// (§4.1.6). It returns an error ("stack exhausted") if no further named
// entry can be evicted.
func (m *Model) EnsureSpace(n int, fmtr backend.SpillFormatter) ([]ir.Op, error) {
	var ops []ir.Op
	for m.Free() < n {
		victim, ok := m.lruVictim()
		if !ok {
			return ops, fmt.Errorf("stack exhausted: no named entry left to spill for variable needing %d cells", n)
		}
		spillOps, err := m.spillEntry(victim, fmtr)
		if err != nil {
			return ops, err
		}
		ops = append(ops, spillOps...)
	}
	return ops, nil
}

// spillEntry realizes the spill of entries[idx] to RAM (§4.1.6).
//
// Elements are processed top-down. Because the victim need not already
// sit at the top of the real stack, each element is first brought to the
// top with a single Swap(depth) before the prescribed
// Push(addr); Swap(1); WriteMem(1); Pop(1) sequence — this keeps the
// model's entry table (§9) the only thing that needs bookkeeping:
// entries above the victim simply end up reordered among themselves,
// which is invisible to anything but the (never-spilled) anonymous
// temporaries' relative order, already irrelevant once they're consumed.
func (m *Model) spillEntry(idx int, fmtr backend.SpillFormatter) ([]ir.Op, error) {
	victim := m.entries[idx]
	if victim.Spilled {
		return nil, fmt.Errorf("stackmodel: entry %q already spilled", victim.Name)
	}
	if victim.Width > m.maxVarWidth {
		return nil, fmt.Errorf("stackmodel: entry %q is %d cells wide, over the %d-cell spill slot", victim.Name, victim.Width, m.maxVarWidth)
	}

	slot := m.nextSlot
	m.nextSlot++
	baseAddr := m.spillBase + uint64(slot*m.maxVarWidth)

	var ops []ir.Op
	for i := 0; i < victim.Width; i++ {
		depth := m.depthOfCell(idx, i)
		if depth > 0 {
			ops = append(ops, reparseOne(fmt.Sprintf("swap %d", depth)))
		}
		addr := baseAddr + uint64(i)
		ops = append(ops,
			reparseOne(fmtr.FmtPush(addr)),
			reparseOne(fmtr.FmtSwap(1)),
			reparseOne(fmtr.FmtWriteMem1()),
			reparseOne(fmtr.FmtPop1()),
		)
	}

	m.entries[idx].Spilled = true
	m.entries[idx].RAMAddr = baseAddr
	return ops, nil
}

// Reload brings a spilled variable back onto the resident stack,
// evicting further entries if necessary to make room, and appends a
// fresh resident entry at the top (§4.1.2: "if spilled, first reload
// (evicting LRU named entry)").
func (m *Model) Reload(name string, fmtr backend.SpillFormatter) ([]ir.Op, error) {
	idx, _, e, ok := m.Find(name)
	if !ok || !e.Spilled {
		return nil, fmt.Errorf("stackmodel: %q is not a spilled entry", name)
	}

	ensureOps, err := m.EnsureSpace(e.Width, fmtr)
	if err != nil {
		return nil, err
	}

	var ops []ir.Op
	ops = append(ops, ensureOps...)
	for i := 0; i < e.Width; i++ {
		addr := e.RAMAddr + uint64(i)
		ops = append(ops, reparseOne(fmtr.FmtPush(addr)), reparseOne(fmtr.FmtReadMem1()))
	}

	// Remove the old (spilled) bookkeeping entry and append a fresh
	// resident one at the top with the same identity.
	m.entries = append(m.entries[:idx], m.entries[idx+1:]...)
	m.clock++
	m.entries = append(m.entries, Entry{Width: e.Width, ElemWidth: e.ElemWidth, Name: name, lastAccess: m.clock})

	return ops, nil
}

// depthOfCell returns the number of resident cells currently above the
// i-th cell (0 = topmost) of entries[idx], assuming entries[idx] is
// itself still fully resident.
func (m *Model) depthOfCell(idx int, i int) int {
	above := 0
	for j := idx + 1; j < len(m.entries); j++ {
		if !m.entries[j].Spilled {
			above += m.entries[j].Width
		}
	}
	return above + i
}

// Snapshot captures the model state for later restoration (used to give
// both arms of an `if`/`match` the same starting point, §4.1.3).
type Snapshot struct {
	entries  []Entry
	nextSlot int
	clock    uint64
}

// Save captures the current state.
func (m *Model) Save() Snapshot {
	cp := make([]Entry, len(m.entries))
	copy(cp, m.entries)
	return Snapshot{entries: cp, nextSlot: m.nextSlot, clock: m.clock}
}

// Restore resets the model to a previously captured snapshot.
func (m *Model) Restore(s Snapshot) {
	cp := make([]Entry, len(s.entries))
	copy(cp, s.entries)
	m.entries = cp
	m.nextSlot = s.nextSlot
	m.clock = s.clock
}

// Entries exposes a read-only copy of the current entry table, deepest
// first, for diagnostics and testing.
func (m *Model) Entries() []Entry {
	cp := make([]Entry, len(m.entries))
	copy(cp, m.entries)
	return cp
}

// reparseOne turns one formatter-produced mnemonic line back into a
// structural ir.Op (§4.1.6: "The generator parses them back into
// structural IR ops so the downstream pipeline sees no backend-specific
// strings").
func reparseOne(line string) ir.Op {
	var mnemonic string
	var arg uint64
	n, _ := fmt.Sscanf(line, "%s %d", &mnemonic, &arg)
	if n < 1 {
		mnemonic = line
	}
	switch mnemonic {
	case "push":
		return ir.Op{Kind: ir.OpPush, Value: arg}
	case "swap":
		return ir.Op{Kind: ir.OpSwap, N: int(arg)}
	case "pop":
		return ir.Op{Kind: ir.OpPop, N: 1}
	case "write_mem":
		return ir.Op{Kind: ir.OpWriteMem, N: 1}
	case "read_mem":
		return ir.Op{Kind: ir.OpReadMem, N: 1}
	default:
		return ir.Op{Kind: ir.OpNop}
	}
}
