package client

import (
	"github.com/swapkart/tradein-backend/internal/pricing"
)

// Reconcile resolves the client-computed estimate against the server quote.
// The estimate exists only to hide network latency; the moment a server
// quote is present it supersedes the local number for every purpose that
// touches money. Divergence between the two is expected (the client snapshot
// may be stale) and is not an error.
func Reconcile(localEstimate pricing.Quote, serverQuote *pricing.Quote) pricing.Quote {
	if serverQuote != nil {
		return *serverQuote
	}
	return localEstimate
}
