package queue

import "sync"

// Item is a queued unit of work for the dispatcher.
type Item struct {
	V interface{}

	next, prev *Item
}

var pool = sync.Pool{}

func GetItem(v interface{}) (i *Item) {
	if pi := pool.Get(); pi == nil {
		i = new(Item)
	} else {
		i = pi.(*Item)
	}

	i.V = v
	return i
}

func ReturnItem(i *Item) {
	i.V = nil
	pool.Put(i)
}
