// Package blockcache implements an LRU cache mediating between a raw
// blockdev.Device and random-access readers. Each cached block carries its
// own spinlock, which is exclusive: concurrent readers of the same cached
// block take turns rather than reading it at the same time.
package blockcache

import (
	"ferrite/kernel"
	"ferrite/kernel/blockdev"
	"ferrite/kernel/sync"
)

var errShortBuffer = &kernel.Error{Module: "blockcache", Message: "buffer length does not match block size"}

// block is a single cached block, held behind its own lock so promotions
// and reads never contend with an unrelated block's refill.
type block struct {
	num  uint64
	data [blockdev.BlockSize]byte

	lock sync.Spinlock

	prev, next *block
}

// Cache is an LRU cache of fixed-size blocks in front of a blockdev.Device.
// The zero value is not usable; construct with New.
type Cache struct {
	lock     sync.Spinlock
	device   blockdev.Device
	capacity int

	entries    map[uint64]*block
	head, tail *block // head = most recently used, tail = least recently used
}

// New creates a Cache of the given capacity (in blocks) wrapping device.
func New(device blockdev.Device, capacity int) *Cache {
	return &Cache{
		device:   device,
		capacity: capacity,
		entries:  make(map[uint64]*block, capacity),
	}
}

// ReadBlock copies block n's contents into buf, which must be exactly
// blockdev.BlockSize bytes long. A cache hit promotes the entry to
// most-recently-used; a miss reads through to the underlying device,
// inserting the fetched block at the MRU end (evicting the LRU entry if
// the cache is at capacity).
//
// The cache's own lock is never held across the device read: two readers
// racing on the same miss may both issue a device read for block n. Both
// reads return identical data, so the second insertion simply overwrites
// the first at the MRU slot; this design explicitly does not implement
// per-block single-flight deduplication.
func (c *Cache) ReadBlock(n uint64, buf []byte) *kernel.Error {
	if len(buf) != blockdev.BlockSize {
		return errShortBuffer
	}

	if b := c.lookupAndPromote(n); b != nil {
		b.lock.Acquire()
		copy(buf, b.data[:])
		b.lock.Release()
		return nil
	}

	var staging [blockdev.BlockSize]byte
	if err := c.device.ReadBlock(n, staging[:]); err != nil {
		return err
	}

	c.insert(n, staging)
	copy(buf, staging[:])
	return nil
}

// WriteBlock writes buf through to the underlying device and stores buf as
// the cached copy of block n so future reads don't observe stale
// data. Cache-coherency only needs to cover this cache's own view: there is
// no other writer of the underlying device.
func (c *Cache) WriteBlock(n uint64, buf []byte) *kernel.Error {
	if len(buf) != blockdev.BlockSize {
		return errShortBuffer
	}

	if err := c.device.WriteBlock(n, buf); err != nil {
		return err
	}

	var staged [blockdev.BlockSize]byte
	copy(staged[:], buf)
	c.insert(n, staged)
	return nil
}

// BlockCount returns the capacity of the underlying device, in blocks.
func (c *Cache) BlockCount() uint64 {
	return c.device.BlockCount()
}

// lookupAndPromote returns the cached block for n, moving it to the MRU
// end first, or nil on a miss.
func (c *Cache) lookupAndPromote(n uint64) *block {
	c.lock.Acquire()
	defer c.lock.Release()

	b, ok := c.entries[n]
	if !ok {
		return nil
	}
	c.moveToFront(b)
	return b
}

// insert adds a freshly-fetched block at the MRU end, evicting the LRU
// entry first if the cache is full. If n was concurrently inserted by
// another racing fetch between the miss and this call, the existing entry
// is simply refreshed and promoted rather than duplicated.
func (c *Cache) insert(n uint64, data [blockdev.BlockSize]byte) {
	c.lock.Acquire()
	defer c.lock.Release()

	if existing, ok := c.entries[n]; ok {
		existing.lock.Acquire()
		existing.data = data
		existing.lock.Release()
		c.moveToFront(existing)
		return
	}

	if len(c.entries) >= c.capacity {
		c.evictLRU()
	}

	b := &block{num: n, data: data}
	c.entries[n] = b
	c.pushFront(b)
}

func (c *Cache) evictLRU() {
	victim := c.tail
	if victim == nil {
		return
	}
	c.unlink(victim)
	delete(c.entries, victim.num)
}

func (c *Cache) pushFront(b *block) {
	b.prev = nil
	b.next = c.head
	if c.head != nil {
		c.head.prev = b
	}
	c.head = b
	if c.tail == nil {
		c.tail = b
	}
}

func (c *Cache) unlink(b *block) {
	if b.prev != nil {
		b.prev.next = b.next
	} else {
		c.head = b.next
	}
	if b.next != nil {
		b.next.prev = b.prev
	} else {
		c.tail = b.prev
	}
	b.prev = nil
	b.next = nil
}

func (c *Cache) moveToFront(b *block) {
	if c.head == b {
		return
	}
	c.unlink(b)
	c.pushFront(b)
}
