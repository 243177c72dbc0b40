// Package grammar holds the language's EBNF grammar as a checked-in data
// file (grammar.ebnf) rather than Go source: it exists purely so
// grammar_test.go can verify the grammar is well-formed and
// self-consistent using golang.org/x/exp/ebnf, the same package and
// verification step the upstream compiler's own (different) grammar is
// checked with.
package grammar
