package strpool

import (
	"strings"
	"sync"
)

var pool = sync.Pool{
	New: func() interface{} {
		return &strings.Builder{}
	},
}

// Get returns an empty builder. Callers Reset it before handing it back with Put.
func Get() *strings.Builder {
	return pool.Get().(*strings.Builder)
}

func Put(b *strings.Builder) {
	pool.Put(b)
}
