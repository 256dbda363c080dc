package main

import (
	"fmt"
	"os"

	"github.com/wasmlet/wasmlet/internal/errors"
	"github.com/wasmlet/wasmlet/internal/lexer"
)

// dumpTokens prints every token the lexer produces for path, one per line,
// for -debug=tokens.
func dumpTokens(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	sink := errors.NewSink()
	tokens, _ := lexer.Tokenize(sink, path, src)

	fmt.Fprintln(os.Stderr, cyan("→")+" "+bold("tokens")+":")
	for _, tok := range tokens {
		fmt.Fprintf(os.Stderr, "  %s\n", tok.String())
	}
	return nil
}
