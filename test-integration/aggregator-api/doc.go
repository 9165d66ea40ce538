// Package integration provides end-to-end tests for the horror game aggregator.
// The server runs in-process against fixture upstreams that stand in for the
// five storefronts, with miniredis standing in for the snapshot store.
package integration
