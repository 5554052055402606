// Package iqueue implements an unbounded FIFO channel bridge: sends
// never block, receives drain in arrival order.
package iqueue

import "container/list"

func New[T any]() *Queue[T] {
	return &Queue[T]{
		queue: list.New(),
		send:  make(chan T, 1),
		recv:  make(chan T, 1),
	}
}

type Queue[T any] struct {
	queue *list.List
	send  chan T
	recv  chan T
}

func (iq *Queue[T]) Send(v T) {
	iq.send <- v
}

func (iq *Queue[T]) Receive() <-chan T {
	return iq.recv
}

func (iq *Queue[T]) Len() int {
	return iq.queue.Len()
}

func (iq *Queue[T]) Close() {
	close(iq.send)
}

// Loop shuttles values from the send side to the receive side, buffering
// in between. It returns after Close once the buffer is drained, closing
// the receive channel.
func (iq *Queue[T]) Loop() {
	send := iq.send
	for {
		front := iq.queue.Front()
		if front != nil {
			select {
			case iq.recv <- front.Value.(T):
				iq.queue.Remove(front)
			case value, ok := <-send:
				if ok {
					iq.queue.PushBack(value)
				} else {
					send = nil
				}
			}
			continue
		}

		if send == nil {
			close(iq.recv)
			return
		}
		value, ok := <-send
		if !ok {
			send = nil
			continue
		}
		iq.queue.PushBack(value)
	}
}
