// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package transaction

import (
	"container/heap"
	"errors"
	"sync"

	"github.com/ChainSafe/rtapi/lib/common"
)

// ErrTransactionExists is returned when trying to add a transaction to the queue that already exists
var ErrTransactionExists = errors.New("transaction is already in queue")

// item is an element of the queue
type item struct {
	data  *ValidTransaction
	hash  common.Hash
	order uint64
	index int
}

type priorityQueue []*item

func (pq priorityQueue) Len() int { return len(pq) }

// Less orders by descending priority, then by insertion order.
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].data.Validity.Priority == pq[j].data.Validity.Priority {
		return pq[i].order < pq[j].order
	}
	return pq[i].data.Validity.Priority > pq[j].data.Validity.Priority
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x interface{}) {
	n := len(*pq)
	it := x.(*item)
	it.index = n
	*pq = append(*pq, it)
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*pq = old[0 : n-1]
	return it
}

// PriorityQueue is a thread safe priority queue of valid transactions
type PriorityQueue struct {
	pq        priorityQueue
	currOrder uint64
	txs       map[common.Hash]*item
	sync.Mutex
}

// NewPriorityQueue creates new instance of PriorityQueue
func NewPriorityQueue() *PriorityQueue {
	spq := &PriorityQueue{
		pq:  make(priorityQueue, 0),
		txs: make(map[common.Hash]*item),
	}

	heap.Init(&spq.pq)
	return spq
}

// RemoveExtrinsic removes an extrinsic from the queue
func (spq *PriorityQueue) RemoveExtrinsic(ext []byte) {
	spq.Lock()
	defer spq.Unlock()

	hash := common.MustBlake2bHash(ext)
	it, ok := spq.txs[hash]
	if !ok {
		return
	}

	heap.Remove(&spq.pq, it.index)
	delete(spq.txs, hash)
}

// Push inserts a valid transaction with priority p into the queue
func (spq *PriorityQueue) Push(txn *ValidTransaction) (common.Hash, error) {
	spq.Lock()
	defer spq.Unlock()

	hash := txn.Extrinsic.Hash()
	if _, has := spq.txs[hash]; has {
		return hash, ErrTransactionExists
	}

	it := &item{
		data:  txn,
		hash:  hash,
		order: spq.currOrder,
	}
	spq.currOrder++
	heap.Push(&spq.pq, it)
	spq.txs[hash] = it

	return hash, nil
}

// Pop removes the transaction with has the highest priority value from the queue and returns it.
// If there are multiple transaction with same priority value then it return them in FIFO order.
func (spq *PriorityQueue) Pop() *ValidTransaction {
	spq.Lock()
	defer spq.Unlock()
	if spq.pq.Len() == 0 {
		return nil
	}

	it := heap.Pop(&spq.pq).(*item)
	delete(spq.txs, it.hash)
	return it.data
}

// Peek returns the next item without removing it from the queue
func (spq *PriorityQueue) Peek() *ValidTransaction {
	spq.Lock()
	defer spq.Unlock()
	if spq.pq.Len() == 0 {
		return nil
	}
	return spq.pq[0].data
}

// Pending returns all the transactions in the queue, highest priority first
func (spq *PriorityQueue) Pending() []*ValidTransaction {
	spq.Lock()
	defer spq.Unlock()

	cp := make(priorityQueue, len(spq.pq))
	for i, it := range spq.pq {
		c := *it
		cp[i] = &c
	}

	txns := make([]*ValidTransaction, 0, len(cp))
	for cp.Len() > 0 {
		txns = append(txns, heap.Pop(&cp).(*item).data)
	}
	return txns
}

// Len return the current length of the queue
func (spq *PriorityQueue) Len() int {
	spq.Lock()
	defer spq.Unlock()

	return spq.pq.Len()
}
