// Package session tracks gateways that currently receive telemetry.
//
// Entry exists iff a telemetry loop runs for its key.
// Refresh is lock-free on the entry clock under table read lock,
// insert and evict take the write lock, evict re-checks liveness after acquiring it.
package session

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/temoto/devsim/helpers/atomic_clock"
)

// Key identifies gateway by address it announced in discovery request.
type Key struct {
	IP   string
	Port int
}

func KeyFromAddr(addr *net.UDPAddr) Key { return Key{IP: addr.IP.String(), Port: addr.Port} }

func (k Key) String() string { return net.JoinHostPort(k.IP, strconv.Itoa(k.Port)) }

func (k Key) UDPAddr() (*net.UDPAddr, error) {
	ip := net.ParseIP(k.IP)
	if ip == nil {
		return nil, fmt.Errorf("session key=%s invalid ip", k.String())
	}
	return &net.UDPAddr{IP: ip, Port: k.Port}, nil
}

type Session struct {
	Key      Key
	LastSeen time.Time
}

type entry struct {
	lastSeen atomic_clock.Clock
}

type Table struct {
	mu sync.RWMutex
	m  map[Key]*entry
}

func NewTable() *Table {
	return &Table{m: make(map[Key]*entry)}
}

// Upsert inserts key or refreshes its last seen time.
// Returns true when key was absent.
func (t *Table) Upsert(key Key, now time.Time) bool {
	t.mu.RLock()
	e, ok := t.m[key]
	if ok {
		e.lastSeen.Advance(now.UnixNano())
	}
	t.mu.RUnlock()
	if ok {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok = t.m[key]; ok {
		// lost race with another inserter
		e.lastSeen.Advance(now.UnixNano())
		return false
	}
	e = &entry{}
	e.lastSeen.Set(now.UnixNano())
	t.m[key] = e
	return true
}

// IsAlive reports now - lastSeen <= timeout. Absent key is not alive.
func (t *Table) IsAlive(key Key, now time.Time, timeout time.Duration) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.m[key]
	return ok && alive(e, now, timeout)
}

// Evict removes key only if it is still expired under exclusive lock.
// Returns false if a refresh arrived meanwhile and session stays.
func (t *Table) Evict(key Key, now time.Time, timeout time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.m[key]
	if !ok {
		return true
	}
	if alive(e, now, timeout) {
		return false
	}
	delete(t.m, key)
	return true
}

// Remove drops key regardless of liveness. Used on shutdown by loop owning key.
func (t *Table) Remove(key Key) {
	t.mu.Lock()
	delete(t.m, key)
	t.mu.Unlock()
}

func (t *Table) Get(key Key) (Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.m[key]
	if !ok {
		return Session{}, false
	}
	return Session{Key: key, LastSeen: e.lastSeen.Time()}, true
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.m)
}

// Sessions returns snapshot sorted by key.
func (t *Table) Sessions() []Session {
	t.mu.RLock()
	ss := make([]Session, 0, len(t.m))
	for k, e := range t.m {
		ss = append(ss, Session{Key: k, LastSeen: e.lastSeen.Time()})
	}
	t.mu.RUnlock()
	sort.Slice(ss, func(i, j int) bool { return ss[i].Key.String() < ss[j].Key.String() })
	return ss
}

func alive(e *entry, now time.Time, timeout time.Duration) bool {
	return now.UnixNano()-e.lastSeen.UnixNano() <= int64(timeout)
}
