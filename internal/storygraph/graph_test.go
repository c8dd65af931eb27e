package storygraph

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/storymap/storymap/internal/chapter"
)

func TestAssemble_Example(t *testing.T) {
	input := []chapter.Chapter{
		{ID: "a2", Owner: "alice", Filename: "2-b.md"},
		{ID: "a1", Owner: "alice", Filename: "1-a.md"},
		{ID: "b1", Owner: "bob", Filename: "1-c.md"},
	}

	g, err := Assemble(input)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	wantEdges := []Edge{
		{Source: "0", Target: "a1"},
		{Source: "a1", Target: "a2"},
		{Source: "0", Target: "b1"},
	}
	if diff := cmp.Diff(wantEdges, g.Edges); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"0", "a1", "a2", "b1"}, nodeIDs(g)); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestAssemble_Empty(t *testing.T) {
	for _, input := range [][]chapter.Chapter{nil, {}} {
		g, err := Assemble(input)
		if err != nil {
			t.Fatalf("Assemble(%v) error = %v", input, err)
		}
		if diff := cmp.Diff([]chapter.Chapter{Origin()}, g.Nodes); diff != "" {
			t.Errorf("nodes mismatch (-want +got):\n%s", diff)
		}
		if g.Edges == nil || len(g.Edges) != 0 {
			t.Errorf("edges = %#v, want empty non-nil slice", g.Edges)
		}
	}
}

func TestAssemble_OwnerOrderIsFirstEncounter(t *testing.T) {
	input := []chapter.Chapter{
		{ID: "c3", Owner: "carol", Filename: "3.md"},
		{ID: "a1", Owner: "alice", Filename: "1.md"},
		{ID: "c1", Owner: "carol", Filename: "1.md"},
		{ID: "b5", Owner: "bob", Filename: "5.md"},
	}

	g, err := Assemble(input)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	if diff := cmp.Diff([]string{"carol", "alice", "bob"}, g.Owners()); diff != "" {
		t.Errorf("owners mismatch (-want +got):\n%s", diff)
	}
	wantEdges := []Edge{
		{Source: "0", Target: "c1"},
		{Source: "c1", Target: "c3"},
		{Source: "0", Target: "a1"},
		{Source: "0", Target: "b5"},
	}
	if diff := cmp.Diff(wantEdges, g.Edges); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
}

func TestAssemble_Invariants(t *testing.T) {
	owners := []string{"alice", "bob", "carol", "dave"}
	var input []chapter.Chapter
	// Interleave owners and shuffle keys so grouping and ordering both matter.
	for i := 0; i < 23; i++ {
		owner := owners[(i*7)%len(owners)]
		key := (i * 5) % 11
		input = append(input, chapter.Chapter{
			ID:       fmt.Sprintf("c%d", i),
			Owner:    owner,
			Filename: fmt.Sprintf("%02d-part.md", key),
		})
	}

	g, err := Assemble(input)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	if len(g.Nodes) != 1+len(input) {
		t.Errorf("len(nodes) = %d, want %d", len(g.Nodes), 1+len(input))
	}
	if g.Nodes[0].ID != OriginID {
		t.Errorf("first node = %q, want origin", g.Nodes[0].ID)
	}

	originEdges := make(map[string]int)
	outDegree := make(map[string]int)
	inDegree := make(map[string]int)
	byID := make(map[string]chapter.Chapter)
	for _, n := range g.Nodes {
		byID[n.ID] = n
	}
	for _, e := range g.Edges {
		outDegree[e.Source]++
		inDegree[e.Target]++
		if e.Source == OriginID {
			originEdges[byID[e.Target].Owner]++
			continue
		}
		src, dst := byID[e.Source], byID[e.Target]
		if src.Owner != dst.Owner {
			t.Errorf("edge %s->%s crosses owners %q and %q", e.Source, e.Target, src.Owner, dst.Owner)
		}
		ks, _ := src.OrderingKey()
		kd, _ := dst.OrderingKey()
		if ks > kd {
			t.Errorf("edge %s->%s goes from key %d down to %d", e.Source, e.Target, ks, kd)
		}
	}

	for _, owner := range owners {
		if originEdges[owner] != 1 {
			t.Errorf("owner %q has %d origin edges, want 1", owner, originEdges[owner])
		}
	}

	// Every chapter has exactly one incoming edge and at most one outgoing edge,
	// so following edges from the origin reaches every chapter exactly once.
	for _, n := range g.Nodes[1:] {
		if inDegree[n.ID] != 1 {
			t.Errorf("node %s in-degree = %d, want 1", n.ID, inDegree[n.ID])
		}
		if outDegree[n.ID] > 1 {
			t.Errorf("node %s out-degree = %d, want <= 1", n.ID, outDegree[n.ID])
		}
	}
	if len(g.Edges) != len(input) {
		t.Errorf("len(edges) = %d, want %d", len(g.Edges), len(input))
	}
	assertReachable(t, g)
}

func TestAssemble_SingleChapterOwner(t *testing.T) {
	g, err := Assemble([]chapter.Chapter{{ID: "x", Owner: "solo", Filename: "9-only.md"}})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if diff := cmp.Diff([]Edge{{Source: "0", Target: "x"}}, g.Edges); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
}

func TestAssemble_DuplicateKeysAreStable(t *testing.T) {
	input := []chapter.Chapter{
		{ID: "A", Owner: "o", Filename: "2.md"},
		{ID: "B", Owner: "o", Filename: "1.md"},
		{ID: "C", Owner: "o", Filename: "1-again.md"},
		{ID: "D", Owner: "o", Filename: "3.md"},
	}

	g, err := Assemble(input)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	wantEdges := []Edge{
		{Source: "0", Target: "B"},
		{Source: "B", Target: "C"},
		{Source: "C", Target: "A"},
		{Source: "A", Target: "D"},
	}
	if diff := cmp.Diff(wantEdges, g.Edges); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
}

func TestAssemble_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   []chapter.Chapter
		wantErr error
	}{
		{
			name: "unparseable filename aborts",
			input: []chapter.Chapter{
				{ID: "a1", Owner: "alice", Filename: "1.md"},
				{ID: "b?", Owner: "bob", Filename: "draft.md"},
			},
			wantErr: chapter.ErrOrderingKey,
		},
		{
			name:    "missing filename aborts",
			input:   []chapter.Chapter{{ID: "a1", Owner: "alice"}},
			wantErr: chapter.ErrOrderingKey,
		},
		{
			name:    "origin id is reserved",
			input:   []chapter.Chapter{{ID: "0", Owner: "alice", Filename: "1.md"}},
			wantErr: ErrReservedID,
		},
		{
			name: "duplicate ids",
			input: []chapter.Chapter{
				{ID: "x", Owner: "alice", Filename: "1.md"},
				{ID: "x", Owner: "bob", Filename: "1.md"},
			},
			wantErr: ErrDuplicateID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Assemble(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Assemble() error = %v, want %v", err, tt.wantErr)
			}
			if g != nil {
				t.Errorf("Assemble() returned a graph alongside an error")
			}
		})
	}
}

func TestOrigin(t *testing.T) {
	o := Origin()
	if o.ID != "0" || o.Owner != "system" {
		t.Errorf("Origin() = %+v, want id 0 owner system", o)
	}

	// Mutating one copy must not leak into the next.
	o.Title = "changed"
	if Origin().Title != OriginTitle {
		t.Errorf("Origin() returned shared state")
	}
}

func TestGraph_ChainOf(t *testing.T) {
	g, err := Assemble([]chapter.Chapter{
		{ID: "a2", Owner: "alice", Filename: "2.md"},
		{ID: "b1", Owner: "bob", Filename: "1.md"},
		{ID: "a1", Owner: "alice", Filename: "1.md"},
	})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	if diff := cmp.Diff([]string{"a1", "a2"}, g.ChainOf("alice")); diff != "" {
		t.Errorf("ChainOf(alice) mismatch (-want +got):\n%s", diff)
	}
	if got := g.ChainOf("nobody"); got != nil {
		t.Errorf("ChainOf(nobody) = %v, want nil", got)
	}
	if got := g.ChapterCount(); got != 3 {
		t.Errorf("ChapterCount() = %d, want 3", got)
	}
	if _, ok := g.Node("b1"); !ok {
		t.Errorf("Node(b1) not found")
	}
}

func TestSelection(t *testing.T) {
	s := NewSelection()
	if owner, ok := s.Current(); ok || owner != "" {
		t.Fatalf("initial Current() = (%q, %v), want unset", owner, ok)
	}

	s.Select("alice")
	s.Select("bob")
	if owner, ok := s.Current(); !ok || owner != "bob" {
		t.Errorf("Current() = (%q, %v), want (bob, true)", owner, ok)
	}

	s.Select("")
	if owner, _ := s.Current(); owner != "bob" {
		t.Errorf("Select(\"\") changed selection to %q", owner)
	}
}

func TestSelection_ConcurrentWriters(t *testing.T) {
	s := NewSelection()
	owners := []string{"a", "b", "c", "d"}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Select(owners[i%len(owners)])
			s.Current()
		}(i)
	}
	wg.Wait()

	owner, ok := s.Current()
	if !ok {
		t.Fatal("expected a selection after concurrent writes")
	}
	found := false
	for _, o := range owners {
		if o == owner {
			found = true
		}
	}
	if !found {
		t.Errorf("Current() = %q, not one of the written owners", owner)
	}
}

func nodeIDs(g *Graph) []string {
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}

func assertReachable(t *testing.T, g *Graph) {
	t.Helper()
	next := make(map[string][]string)
	for _, e := range g.Edges {
		next[e.Source] = append(next[e.Source], e.Target)
	}
	seen := map[string]bool{OriginID: true}
	queue := []string{OriginID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, n := range next[id] {
			if seen[n] {
				t.Fatalf("node %s reached twice: graph is not a tree", n)
			}
			seen[n] = true
			queue = append(queue, n)
		}
	}
	for _, n := range g.Nodes {
		if !seen[n.ID] {
			t.Errorf("node %s not reachable from origin", n.ID)
		}
	}
}
