package chat

import "testing"

func TestWhisperQueueFIFO(t *testing.T) {
	t.Parallel()

	var q WhisperQueue
	if _, ok := q.PopFront(); ok {
		t.Fatalf("empty queue should report false")
	}
	for _, n := range []string{"Alice", "Bob", "Carol"} {
		q.Push(n)
	}
	for _, want := range []string{"Alice", "Bob"} {
		got, ok := q.PopFront()
		if !ok || got != want {
			t.Fatalf("expected %s, got %q (%t)", want, got, ok)
		}
	}
	q.Push("Dave")
	if q.Len() != 2 {
		t.Fatalf("expected 2 pending, got %d", q.Len())
	}
	q.Push("Eve")
	q.DropBack()
	if q.Len() != 2 {
		t.Fatalf("DropBack should undo the last push, got %d", q.Len())
	}
	q.Reset()
	q.DropBack()
	if q.Len() != 0 {
		t.Fatalf("reset should empty the queue")
	}
}
