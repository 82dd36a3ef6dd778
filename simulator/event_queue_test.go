package simulator

import (
	"testing"
)

func TestReadyQueueBasicOperations(t *testing.T) {
	q := NewReadyQueue()

	t.Run("new queue is empty", func(t *testing.T) {
		if q.Len() != 0 {
			t.Errorf("Expected empty queue, got length %d", q.Len())
		}

		if p := q.Pop(); p != nil {
			t.Error("Expected nil from empty queue")
		}
		if p := q.Peek(); p != nil {
			t.Error("Expected nil peek on empty queue")
		}
	})

	t.Run("push and pop single process", func(t *testing.T) {
		q := NewReadyQueue()
		q.Push(NewProcess("P1", 10, StatusNotBlocked, 64))
		if q.Len() != 1 {
			t.Errorf("Expected length 1, got %d", q.Len())
		}

		popped := q.Pop()
		if popped == nil {
			t.Fatal("Expected process, got nil")
		}
		if popped.Name != "P1" {
			t.Errorf("Expected P1, got %s", popped.Name)
		}
		if !q.IsEmpty() {
			t.Errorf("Expected empty queue after pop, got length %d", q.Len())
		}
	})
}

func TestReadyQueueFIFO(t *testing.T) {
	q := NewReadyQueue(
		NewProcess("A", 1, StatusNotBlocked, 1),
		NewProcess("B", 1, StatusNotBlocked, 1),
	)
	q.Push(NewProcess("C", 1, StatusNotBlocked, 1))

	// Re-enqueue the head at the tail, as an unfinished process would be
	q.Push(q.Pop())

	expected := []string{"B", "C", "A"}
	for i, name := range expected {
		p := q.Pop()
		if p == nil {
			t.Fatalf("Expected process at position %d, got nil", i)
		}
		if p.Name != name {
			t.Errorf("At position %d: expected %s, got %s", i, name, p.Name)
		}
	}
}

func TestReadyQueueFindAndClear(t *testing.T) {
	q := NewReadyQueue(
		NewProcess("Alpha", 1, StatusNotBlocked, 1),
		NewProcess("Beta", 1, StatusBlocked, 1),
	)

	if p := q.Find("beta"); p == nil || p.Name != "Beta" {
		t.Errorf("Expected case-insensitive find of Beta, got %v", p)
	}
	if p := q.Find("gamma"); p != nil {
		t.Errorf("Expected nil for missing process, got %v", p.Name)
	}

	snapshot := q.Processes()
	snapshot[0] = nil
	if q.Peek() == nil {
		t.Error("Modifying Processes() result must not affect the queue")
	}

	q.Clear()
	if !q.IsEmpty() {
		t.Errorf("Expected empty queue after clear, got %d", q.Len())
	}
}
