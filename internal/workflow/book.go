package workflow

import (
	"strconv"
)

// book keeps records by key in insertion order.
type book[T any] struct {
	items map[string]*T
	order []string
}

func newBook[T any]() *book[T] {
	return &book[T]{items: make(map[string]*T)}
}

func idKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (b *book[T]) add(key string, v T) {
	if _, ok := b.items[key]; !ok {
		b.order = append(b.order, key)
	}
	b.items[key] = &v
}

func (b *book[T]) get(key string) (*T, bool) {
	v, ok := b.items[key]
	return v, ok
}

func (b *book[T]) remove(key string) bool {
	if _, ok := b.items[key]; !ok {
		return false
	}
	delete(b.items, key)
	for i, k := range b.order {
		if k == key {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return true
}

func (b *book[T]) len() int {
	return len(b.order)
}

func (b *book[T]) newestFirst(keep func(*T) bool) []T {
	out := make([]T, 0, len(b.order))
	for i := len(b.order) - 1; i >= 0; i-- {
		v := b.items[b.order[i]]
		if keep == nil || keep(v) {
			out = append(out, *v)
		}
	}
	return out
}

func (b *book[T]) oldestFirst() []T {
	out := make([]T, 0, len(b.order))
	for _, k := range b.order {
		out = append(out, *b.items[k])
	}
	return out
}
