package protocol

import "testing"

func TestSendTryReceiveFIFOOrder(t *testing.T) {
	q := NewQueue[int]()
	q.Send(1)
	q.Send(2)
	q.Send(3)

	for _, want := range []int{1, 2, 3} {
		got, ok := q.TryReceive()
		if !ok || got != want {
			t.Fatalf("TryReceive() = %v, %v; want %v, true", got, ok, want)
		}
	}
	if _, ok := q.TryReceive(); ok {
		t.Fatalf("TryReceive() on empty queue returned ok=true")
	}
}

func TestDrainAll(t *testing.T) {
	q := NewQueue[string]()
	q.Send("a")
	q.Send("b")

	got := q.DrainAll()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("DrainAll() = %v", got)
	}
	if got := q.DrainAll(); got != nil {
		t.Fatalf("DrainAll() on empty queue = %v, want nil", got)
	}
}

func TestReceiveBlocksUntilSend(t *testing.T) {
	q := NewQueue[int]()
	done := make(chan int, 1)
	go func() {
		v, ok := q.Receive()
		if !ok {
			done <- -1
			return
		}
		done <- v
	}()

	q.Send(42)
	if got := <-done; got != 42 {
		t.Fatalf("Receive() = %v, want 42", got)
	}
}

func TestCloseUnblocksReceive(t *testing.T) {
	q := NewQueue[int]()
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Receive()
		done <- ok
	}()

	q.Close()
	if ok := <-done; ok {
		t.Fatalf("Receive() after Close() returned ok=true")
	}
}

func TestSendAfterCloseFails(t *testing.T) {
	q := NewQueue[int]()
	q.Close()
	if q.Send(1) {
		t.Fatalf("Send() after Close() returned true")
	}
}
