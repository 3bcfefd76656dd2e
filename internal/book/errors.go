package book

import "errors"

// Sentinel errors returned by OrderBook operations. See spec.md §7.
var (
	ErrInvalidPrice          = errors.New("book: invalid price")
	ErrInvalidAmount         = errors.New("book: invalid amount")
	ErrBelowMinOrderSize     = errors.New("book: amount below minimum order size")
	ErrOrderNotFound         = errors.New("book: order not found")
	ErrUnauthorized          = errors.New("book: caller is not the order's trader")
	ErrOrderTerminal         = errors.New("book: order already filled or cancelled")
	ErrInsufficientLiquidity = errors.New("book: insufficient liquidity")
	ErrSlippageExceeded      = errors.New("book: slippage exceeded")
)
