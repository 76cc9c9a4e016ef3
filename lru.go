package ntpsync

import (
	"container/list"
	"context"
	"net"
	"sync"
	"time"
)

const (
	addrCacheSize = 16
	addrCacheTTL  = 5 * time.Minute
)

// lru maps hostnames to resolved addresses, dropping the least recently
// used entry once maxEntry is exceeded.
type lru struct {
	cache    map[string]*list.Element
	ll       *list.List
	maxEntry int
}

func newLRU(s int) *lru {
	return &lru{
		map[string]*list.Element{},
		list.New(),
		s}
}

type entry struct {
	host    string
	ip      net.IP
	expires time.Time
}

func (u *lru) Add(host string, ip net.IP, expires time.Time) {
	if ee, ok := u.cache[host]; ok {
		u.ll.MoveToFront(ee)
		e := ee.Value.(*entry)
		e.ip, e.expires = ip, expires
		return
	}

	ele := u.ll.PushFront(&entry{host, ip, expires})
	u.cache[host] = ele
	if u.maxEntry < u.ll.Len() {
		u.RemoveOldest()
	}
}

func (u *lru) RemoveOldest() {
	ele := u.ll.Back()
	ee := ele.Value.(*entry)
	delete(u.cache, ee.host)
	u.ll.Remove(ele)
}

func (u *lru) Remove(host string) {
	if ele, ok := u.cache[host]; ok {
		delete(u.cache, host)
		u.ll.Remove(ele)
	}
}

// Get returns the address of host unless it is unknown or expired at now.
func (u *lru) Get(host string, now time.Time) (ip net.IP, ok bool) {
	ele, ok := u.cache[host]
	if !ok {
		return nil, false
	}
	e := ele.Value.(*entry)
	if !now.Before(e.expires) {
		u.Remove(host)
		return nil, false
	}
	u.ll.MoveToFront(ele)
	return e.ip, true
}

// cachingResolver keeps lookups of the previous rounds when syncing on an
// interval. Failed lookups are not cached.
type cachingResolver struct {
	mu   sync.Mutex
	next resolver
	ttl  time.Duration
	lru  *lru
	now  func() time.Time
}

func newCachingResolver(next resolver, ttl time.Duration) *cachingResolver {
	return &cachingResolver{
		next: next,
		ttl:  ttl,
		lru:  newLRU(addrCacheSize),
		now:  time.Now,
	}
}

func (c *cachingResolver) lookup(ctx context.Context, host string) (net.IP, error) {
	c.mu.Lock()
	ip, ok := c.lru.Get(host, c.now())
	c.mu.Unlock()
	if ok {
		return ip, nil
	}

	ip, err := c.next.lookup(ctx, host)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.lru.Add(host, ip, c.now().Add(c.ttl))
	c.mu.Unlock()
	return ip, nil
}

// forget drops host so the next lookup goes to the network.
func (c *cachingResolver) forget(host string) {
	c.mu.Lock()
	c.lru.Remove(host)
	c.mu.Unlock()
}
