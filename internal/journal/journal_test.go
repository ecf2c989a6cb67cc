package journal

import (
	"fmt"
	"sync"
	"testing"
)

func TestAppendAndRecent(t *testing.T) {
	j := New(5)

	for i := 0; i < 3; i++ {
		j.Append(Entry{Path: fmt.Sprintf("/p%d", i)})
	}

	if j.Len() != 3 {
		t.Errorf("Len() = %d, want 3", j.Len())
	}
	if j.Total() != 3 {
		t.Errorf("Total() = %d, want 3", j.Total())
	}

	got := j.Recent(0)
	if len(got) != 3 {
		t.Fatalf("len(Recent(0)) = %d, want 3", len(got))
	}
	for i, e := range got {
		if want := fmt.Sprintf("/p%d", i); e.Path != want {
			t.Errorf("Recent()[%d].Path = %q, want %q (chronological order)", i, e.Path, want)
		}
	}
}

func TestEvictionOldestFirst(t *testing.T) {
	j := New(3)

	for i := 0; i < 5; i++ {
		j.Append(Entry{Path: fmt.Sprintf("/p%d", i)})
	}

	if j.Len() != 3 {
		t.Errorf("Len() = %d, want capacity 3", j.Len())
	}
	if j.Total() != 5 {
		t.Errorf("Total() = %d, want 5", j.Total())
	}

	got := j.Recent(0)
	want := []string{"/p2", "/p3", "/p4"}
	for i, e := range got {
		if e.Path != want[i] {
			t.Errorf("Recent()[%d].Path = %q, want %q", i, e.Path, want[i])
		}
	}
}

func TestRecentSubset(t *testing.T) {
	j := New(10)
	for i := 0; i < 6; i++ {
		j.Append(Entry{Status: i})
	}

	got := j.Recent(2)
	if len(got) != 2 {
		t.Fatalf("len(Recent(2)) = %d, want 2", len(got))
	}
	if got[0].Status != 4 || got[1].Status != 5 {
		t.Errorf("Recent(2) = [%d, %d], want [4, 5]", got[0].Status, got[1].Status)
	}
}

func TestDefaultCapacity(t *testing.T) {
	j := New(0)
	for i := 0; i < DefaultCapacity+10; i++ {
		j.Append(Entry{})
	}
	if j.Len() != DefaultCapacity {
		t.Errorf("Len() = %d, want %d", j.Len(), DefaultCapacity)
	}
}

func TestConcurrentAppend(t *testing.T) {
	j := New(64)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				j.Append(Entry{})
			}
		}()
	}
	wg.Wait()

	if j.Total() != 800 {
		t.Errorf("Total() = %d, want 800", j.Total())
	}
	if j.Len() != 64 {
		t.Errorf("Len() = %d, want 64", j.Len())
	}
}
