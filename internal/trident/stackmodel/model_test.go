package stackmodel

import "testing"

type fakeBackend struct{}

func (fakeBackend) FmtPush(addr uint64) string { return fmtUint("push", addr) }
func (fakeBackend) FmtSwap(depth int) string   { return fmtUint("swap", uint64(depth)) }
func (fakeBackend) FmtPop1() string            { return "pop 1" }
func (fakeBackend) FmtWriteMem1() string       { return "write_mem 1" }
func (fakeBackend) FmtReadMem1() string        { return "read_mem 1" }

func fmtUint(op string, n uint64) string {
	return op + " " + itoa(n)
}

func itoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func newTestModel(depth int) *Model {
	return &Model{depth: depth, spillBase: 1 << 32, maxVarWidth: 8}
}

func TestHeightTracksResidentEntries(t *testing.T) {
	m := newTestModel(16)
	m.PushNamed("a", 1, 0)
	m.PushAnon(3)
	if got := m.Height(); got != 4 {
		t.Fatalf("Height() = %d, want 4", got)
	}
}

func TestFindWalksFromTop(t *testing.T) {
	m := newTestModel(16)
	m.PushNamed("x", 1, 0)
	m.PushAnon(2)
	m.PushNamed("y", 1, 0)
	_, depth, _, ok := m.Find("x")
	if !ok {
		t.Fatalf("expected to find x")
	}
	if depth != 3 {
		t.Fatalf("depth of x = %d, want 3", depth)
	}
}

func TestEnsureSpaceSpillsLRUNamedEntry(t *testing.T) {
	m := newTestModel(4)
	m.PushNamed("a", 2, 0)
	m.PushNamed("b", 2, 0)
	// Stack is full (height 4 == depth 4); requesting 2 more cells must
	// spill the LRU named entry, never an anonymous temporary (I3).
	ops, err := m.EnsureSpace(2, fakeBackend{})
	if err != nil {
		t.Fatalf("EnsureSpace: %v", err)
	}
	if len(ops) == 0 {
		t.Fatalf("expected spill ops to be emitted")
	}
	if m.Free() < 2 {
		t.Fatalf("Free() = %d after EnsureSpace(2), want >= 2", m.Free())
	}
	idx, _, e, ok := m.Find("a")
	if !ok || !e.Spilled {
		t.Fatalf("expected 'a' (LRU) to be spilled, entries[%d]=%+v", idx, e)
	}
}

func TestEnsureSpaceFailsWhenNothingCanBeEvicted(t *testing.T) {
	m := newTestModel(2)
	m.PushAnon(2) // anonymous: never a spill candidate (I3)
	if _, err := m.EnsureSpace(1, fakeBackend{}); err == nil {
		t.Fatalf("expected stack-exhausted error, got nil")
	}
}

func TestReloadRestoresResidentEntry(t *testing.T) {
	m := newTestModel(4)
	m.PushNamed("a", 2, 0)
	m.PushNamed("b", 2, 0)
	if _, err := m.EnsureSpace(2, fakeBackend{}); err != nil {
		t.Fatalf("EnsureSpace: %v", err)
	}
	_, _, e, ok := m.Find("a")
	if !ok || !e.Spilled {
		t.Fatalf("expected 'a' spilled before reload")
	}
	if _, err := m.Reload("a", fakeBackend{}); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	_, _, e, ok = m.Find("a")
	if !ok || e.Spilled {
		t.Fatalf("expected 'a' resident after reload, got %+v", e)
	}
}

func TestSaveRestoreRoundTrips(t *testing.T) {
	m := newTestModel(16)
	m.PushNamed("a", 1, 0)
	snap := m.Save()
	m.PushNamed("b", 1, 0)
	m.Restore(snap)
	if _, _, _, ok := m.Find("b"); ok {
		t.Fatalf("expected 'b' to be gone after Restore")
	}
	if _, _, _, ok := m.Find("a"); !ok {
		t.Fatalf("expected 'a' to survive Restore")
	}
}
