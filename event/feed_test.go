package event

import (
	"testing"
	"time"
)

func TestFeedDelivers(t *testing.T) {
	var feed Feed[int]
	ch1, ch2 := make(chan int, 1), make(chan int, 1)
	sub1 := feed.Subscribe(ch1)
	sub2 := feed.Subscribe(ch2)
	defer sub2.Unsubscribe()

	if n := feed.Send(7); n != 2 {
		t.Fatalf("sent to %d subscribers, want 2", n)
	}
	if v := <-ch1; v != 7 {
		t.Fatalf("have %d want 7", v)
	}
	if v := <-ch2; v != 7 {
		t.Fatalf("have %d want 7", v)
	}
	sub1.Unsubscribe()
	if _, ok := <-sub1.Err(); ok {
		t.Fatalf("err channel should be closed")
	}
	if n := feed.Send(8); n != 1 {
		t.Fatalf("sent to %d subscribers, want 1", n)
	}
}

func TestUnsubscribeUnblocksSend(t *testing.T) {
	var feed Feed[string]
	sub := feed.Subscribe(make(chan string)) // never read

	done := make(chan int)
	go func() { done <- feed.Send("x") }()
	time.Sleep(10 * time.Millisecond)
	sub.Unsubscribe()

	select {
	case n := <-done:
		if n != 0 {
			t.Fatalf("sent to %d subscribers, want 0", n)
		}
	case <-time.After(time.Second):
		t.Fatalf("send did not return after unsubscribe")
	}
}

func TestScopeClose(t *testing.T) {
	var (
		feed  Feed[int]
		scope SubscriptionScope
	)
	sub := scope.Track(feed.Subscribe(make(chan int, 1)))
	scope.Close()
	if _, ok := <-sub.Err(); ok {
		t.Fatalf("subscription should be closed with the scope")
	}
	if scope.Track(feed.Subscribe(make(chan int))) != nil {
		t.Fatalf("closed scope accepted a subscription")
	}
}
