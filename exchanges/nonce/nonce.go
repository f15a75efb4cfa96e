package nonce

import (
	"strconv"
	"sync"
)

// Nonce holds a strictly increasing request nonce. The zero value is ready
// for use.
type Nonce struct {
	n   int64
	mtx sync.Mutex
}

// Next returns the next nonce value. The first call seeds the counter with
// the supplied value (typically the current time in milliseconds); later
// calls increment it, so values handed out never repeat or go backwards even
// when calls land within the same millisecond.
func (n *Nonce) Next(seed int64) Value {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	if n.n == 0 {
		n.n = seed
	} else {
		n.n++
	}
	return Value(n.n)
}

// Get returns the current nonce value without advancing it.
func (n *Nonce) Get() Value {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	return Value(n.n)
}

// Set overrides the nonce value
func (n *Nonce) Set(val int64) {
	n.mtx.Lock()
	n.n = val
	n.mtx.Unlock()
}

// String returns a string version of the current nonce
func (n *Nonce) String() string {
	return n.Get().String()
}

// Value is a single nonce as sent to the remote service
type Value int64

// String formats the value the way request bodies expect it
func (v Value) String() string {
	return strconv.FormatInt(int64(v), 10)
}
