package statelink

import (
	"testing"

	"github.com/dragonlace/denetwork/pkg/state"
	"github.com/dragonlace/denetwork/pkg/value"
	"github.com/dragonlace/denetwork/pkg/wire"
)

func buildLocal() *state.State {
	s := state.New(false)
	s.AddValue(value.NewSint32(1))
	s.AddValue(value.NewString("a"))
	return s
}

func TestLifecycleTransitions(t *testing.T) {
	l := New(1, buildLocal())
	if l.Status() != Down {
		t.Fatal("expected initial Down")
	}
	l.SetListening()
	if l.Status() != Listening {
		t.Fatal("expected Listening")
	}
	l.SetUp()
	if l.Status() != Up {
		t.Fatal("expected Up")
	}
	l.SetDown()
	if l.Status() != Down {
		t.Fatal("expected Down after teardown")
	}
}

func TestMarkDirtyAndWriteUpdateClearsBitmap(t *testing.T) {
	local := buildLocal()
	l := New(5, local)
	l.SetUp()

	if l.HasDirty() {
		t.Fatal("fresh link should have nothing dirty")
	}
	local.InvalidateValue(1)
	if !l.HasDirty() {
		t.Fatal("expected dirty after InvalidateValue")
	}

	w := wire.NewWriter(nil)
	wrote, err := l.WriteUpdate(w)
	if err != nil {
		t.Fatal(err)
	}
	if !wrote {
		t.Fatal("expected WriteUpdate to report it wrote something")
	}
	if l.HasDirty() {
		t.Fatal("expected bitmap cleared after WriteUpdate")
	}

	r := wire.NewReader(w.Bytes())
	linkID, _ := r.ReadUshort()
	count, _ := r.ReadUshort()
	if linkID != 5 || count != 1 {
		t.Fatalf("got linkID=%d count=%d", linkID, count)
	}
}

func TestWriteUpdateNoOpWhenClean(t *testing.T) {
	l := New(1, buildLocal())
	w := wire.NewWriter(nil)
	wrote, err := l.WriteUpdate(w)
	if err != nil {
		t.Fatal(err)
	}
	if wrote || w.Len() != 0 {
		t.Fatal("expected no-op on a clean link")
	}
}

func TestReadOnlyLinkIgnoresMarkDirty(t *testing.T) {
	local := state.New(true)
	local.AddValue(value.NewSint32(0))
	l := New(1, local)
	l.MarkDirty(0)
	if l.HasDirty() {
		t.Fatal("expected read-only link to ignore MarkDirty")
	}
}

func TestWriteUpdateChunkSplitsOversizedDirtySet(t *testing.T) {
	local := state.New(false)
	for i := 0; i < 5; i++ {
		local.AddValue(value.NewSint32(int32(i)))
	}
	l := New(1, local)
	l.SetUp()
	for i := 0; i < 5; i++ {
		local.InvalidateValue(i)
	}

	w1 := wire.NewWriter(nil)
	wrote, more, err := l.WriteUpdateChunk(w1, 2)
	if err != nil || !wrote || !more {
		t.Fatalf("expected first chunk to write and report more, got wrote=%v more=%v err=%v", wrote, more, err)
	}
	r1 := wire.NewReader(w1.Bytes())
	r1.ReadUshort() // link id
	count1, _ := r1.ReadUshort()
	if count1 != 2 {
		t.Fatalf("expected first chunk to carry 2 indices, got %d", count1)
	}

	w2 := wire.NewWriter(nil)
	wrote, more, err = l.WriteUpdateChunk(w2, 2)
	if err != nil || !wrote || !more {
		t.Fatalf("expected second chunk to write and report more, got wrote=%v more=%v err=%v", wrote, more, err)
	}

	w3 := wire.NewWriter(nil)
	wrote, more, err = l.WriteUpdateChunk(w3, 2)
	if err != nil || !wrote || more {
		t.Fatalf("expected final chunk to drain remaining index with more=false, got wrote=%v more=%v err=%v", wrote, more, err)
	}
	if l.HasDirty() {
		t.Fatal("expected bitmap fully drained after three chunks")
	}
}

func TestSchemaMatches(t *testing.T) {
	l := New(1, buildLocal())
	if !l.SchemaMatches(buildLocal().SchemaTags()) {
		t.Fatal("expected matching schema to compare equal")
	}
	mismatched := state.New(true)
	mismatched.AddValue(value.NewUint8(0))
	if l.SchemaMatches(mismatched.SchemaTags()) {
		t.Fatal("expected differing tag sequence to mismatch")
	}
}
