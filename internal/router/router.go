// Package router implements multi-hop swap path discovery across the pool's
// pair graph: enumeration of every simple path up to a hop limit (a
// depth-capped DFS, which yields the same path set as breadth-first search),
// evaluated hop-by-hop through each pair's read-only quote primitive, with
// deterministic tie-breaking so independent engines agree on the chosen
// route. See spec.md §4.5.
package router

import (
	"bytes"
	"errors"

	"github.com/fenrir-labs/clob/internal/domain"
	"github.com/fenrir-labs/clob/internal/num"
)

// ErrNoRoute is returned when no path within MaxHops connects tokenIn to
// tokenOut.
var ErrNoRoute = errors.New("router: no route found")

// Edge is one pair in the graph, as seen by the router: an undirected
// connection between two tokens.
type Edge struct {
	PairId domain.PairId
	Base   domain.TokenId
	Quote  domain.TokenId
}

// QuoteFunc evaluates a single hop through pairId: given tokenIn and
// amountIn, it returns the achievable output in the other token of that
// pair. Implementations must be read-only (no book mutation).
type QuoteFunc func(pairId domain.PairId, tokenIn domain.TokenId, amountIn *num.Amount) (*num.Amount, error)

// Route is a discovered path and its simulated outcome.
type Route struct {
	Pairs     []domain.PairId
	AmountOut *num.Amount
}

type candidatePath struct {
	pairs []domain.PairId
	// tokens[i] is the token held after traversing pairs[:i]; tokens[0] is
	// tokenIn and tokens[len(tokens)-1] is tokenOut.
	tokens []domain.TokenId
}

// FindBestRoute enumerates every simple path from tokenIn to tokenOut over
// edges with length at most maxHops, simulates each hop-by-hop via quote,
// and returns the path with the greatest final output. Ties are broken by
// shorter path length, then by lexicographic comparison of the path's
// PairId sequence, so two independent implementations converge on the same
// route given the same graph and liquidity.
func FindBestRoute(edges []Edge, tokenIn, tokenOut domain.TokenId, amountIn *num.Amount, maxHops int, quote QuoteFunc) (*Route, error) {
	if maxHops < 1 {
		maxHops = 1
	}

	adjacency := make(map[domain.TokenId][]Edge)
	for _, e := range edges {
		adjacency[e.Base] = append(adjacency[e.Base], e)
		adjacency[e.Quote] = append(adjacency[e.Quote], e)
	}
	// Deterministic edge order at each vertex: sort by PairId bytes. Edges
	// are supplied by the caller in the pool's insertion order, which is
	// already deterministic; re-sort defensively so the router's output
	// does not depend on that caller's iteration order.
	for token := range adjacency {
		list := adjacency[token]
		sortEdges(list)
		adjacency[token] = list
	}

	var candidates []candidatePath
	start := candidatePath{tokens: []domain.TokenId{tokenIn}}
	enumeratePaths(adjacency, start, tokenOut, maxHops, &candidates)

	if len(candidates) == 0 {
		return nil, ErrNoRoute
	}

	var best *Route
	var bestPath candidatePath
	for _, cand := range candidates {
		out, ok := simulatePath(cand, amountIn, quote)
		if !ok {
			continue
		}
		route := &Route{Pairs: cand.pairs, AmountOut: out}
		if best == nil || isBetterRoute(route, bestPath.pairs, best, cand.pairs) {
			best = route
			bestPath = cand
		}
	}
	if best == nil {
		return nil, ErrNoRoute
	}
	return best, nil
}

// isBetterRoute reports whether candidate route `cand` (with pairs
// candPairs) beats the current best, applying spec.md §4.5's tie-break:
// greatest output, then shorter path, then lexicographically smaller PairId
// sequence.
func isBetterRoute(cand *Route, bestPairs []domain.PairId, best *Route, candPairs []domain.PairId) bool {
	if cmp := cand.AmountOut.Cmp(best.AmountOut); cmp != 0 {
		return cmp > 0
	}
	if len(candPairs) != len(bestPairs) {
		return len(candPairs) < len(bestPairs)
	}
	return comparePairSequence(candPairs, bestPairs) < 0
}

func comparePairSequence(a, b []domain.PairId) int {
	for i := range a {
		if c := bytes.Compare(a[i].Bytes(), b[i].Bytes()); c != 0 {
			return c
		}
	}
	return 0
}

func sortEdges(edges []Edge) {
	for i := 1; i < len(edges); i++ {
		for j := i; j > 0 && bytes.Compare(edges[j].PairId.Bytes(), edges[j-1].PairId.Bytes()) < 0; j-- {
			edges[j], edges[j-1] = edges[j-1], edges[j]
		}
	}
}

// enumeratePaths performs a bounded-depth DFS (equivalent to BFS-by-length
// enumeration since depth is capped at maxHops) collecting every simple
// path — no repeated token — that reaches tokenOut.
func enumeratePaths(adjacency map[domain.TokenId][]Edge, current candidatePath, tokenOut domain.TokenId, maxHops int, out *[]candidatePath) {
	currentToken := current.tokens[len(current.tokens)-1]
	if len(current.pairs) > 0 && currentToken == tokenOut {
		*out = append(*out, current)
		return
	}
	if len(current.pairs) >= maxHops {
		return
	}
	for _, e := range adjacency[currentToken] {
		next := otherSide(e, currentToken)
		if containsToken(current.tokens, next) {
			continue // no repeated vertices: keep paths simple
		}
		nextPairs := append(append([]domain.PairId{}, current.pairs...), e.PairId)
		nextTokens := append(append([]domain.TokenId{}, current.tokens...), next)
		enumeratePaths(adjacency, candidatePath{pairs: nextPairs, tokens: nextTokens}, tokenOut, maxHops, out)
	}
}

func otherSide(e Edge, token domain.TokenId) domain.TokenId {
	if e.Base == token {
		return e.Quote
	}
	return e.Base
}

func containsToken(tokens []domain.TokenId, t domain.TokenId) bool {
	for _, existing := range tokens {
		if existing == t {
			return true
		}
	}
	return false
}

// simulatePath threads amountIn through every hop of cand in order,
// returning the final output and whether every hop succeeded.
func simulatePath(cand candidatePath, amountIn *num.Amount, quote QuoteFunc) (*num.Amount, bool) {
	current := amountIn
	for i, pairId := range cand.pairs {
		tokenIn := cand.tokens[i]
		out, err := quote(pairId, tokenIn, current)
		if err != nil || out == nil || out.Sign() <= 0 {
			return nil, false
		}
		current = out
	}
	return current, true
}
