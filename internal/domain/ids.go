package domain

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// CanonicalizePair sorts two tokens lexicographically by their raw bytes,
// returning (base, quote). This is the "sort_lex" rule from spec.md §4.2.
func CanonicalizePair(t0, t1 TokenId) (base, quote TokenId) {
	if bytes.Compare(t0.Bytes(), t1.Bytes()) <= 0 {
		return t0, t1
	}
	return t1, t0
}

// DerivePairId computes the deterministic PairId digest over the
// canonically-ordered token pair. Creating (A,B) and (B,A) yields the same
// id because both are canonicalized identically before hashing.
func DerivePairId(base, quote TokenId) PairId {
	h := sha256.New()
	h.Write(base.Bytes())
	h.Write(quote.Bytes())
	return ethcommon.BytesToHash(h.Sum(nil))
}

// DeriveOrderId computes the deterministic OrderId digest from the owning
// pair, the trader, and a strictly-increasing per-pair nonce (the book's
// next_seq counter at assignment time).
func DeriveOrderId(pairId PairId, trader Trader, nonce uint64) OrderId {
	h := sha256.New()
	h.Write(pairId.Bytes())
	h.Write(trader.Bytes())
	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)
	h.Write(nonceBytes[:])
	return ethcommon.BytesToHash(h.Sum(nil))
}
