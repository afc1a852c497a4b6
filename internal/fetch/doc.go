// Package fetch retrieves web pages while presenting a believable
// browser identity. Sites increasingly reject obvious automation, so
// the fetcher rotates browser header profiles and escalates through
// progressively slower retrieval strategies before giving up.
package fetch
