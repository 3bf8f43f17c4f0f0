// Package fetch retrieves raw activity signals from external sources.
//
// Fetchers never return errors. Any non-200 status, transport failure or
// malformed body produces the zero signal, so a broken upstream lowers a
// score instead of blocking it.
package fetch
