package compile

import (
	"strings"
	"testing"

	"lflc/lexer"
	"lflc/parser"
	"lflc/resolve"
)

func TestSourceEndToEndProducesBlueprint(t *testing.T) {
	res, err := Source(`void main() { signal_1 = 14; }`)
	if err != nil {
		t.Fatalf("Source error: %v", err)
	}
	if res.Blueprint == "" {
		t.Fatal("expected a non-empty blueprint string")
	}
	if !strings.Contains(res.Assembly, "CNST 14") {
		t.Errorf("assembly = %q, want a CNST 14 instruction", res.Assembly)
	}
	if !strings.Contains(res.Assembly, "SAVE") {
		t.Errorf("assembly = %q, want a SAVE instruction", res.Assembly)
	}
}

func TestSourcePropagatesLexError(t *testing.T) {
	if _, err := Source(`void main() { x = @; }`); err == nil {
		t.Fatal("expected a lex error")
	} else if _, ok := err.(lexer.LexError); !ok {
		t.Errorf("error type = %T, want lexer.LexError", err)
	}
}

func TestSourcePropagatesParseError(t *testing.T) {
	if _, err := Source(`void main() { x = 1 }`); err == nil {
		t.Fatal("expected a parse error")
	} else if _, ok := err.(parser.ParseError); !ok {
		t.Errorf("error type = %T, want parser.ParseError", err)
	}
}

func TestSourcePropagatesResolveError(t *testing.T) {
	if _, err := Source(`void main() { foo(); }`); err == nil {
		t.Fatal("expected a name error")
	} else if _, ok := err.(resolve.NameError); !ok {
		t.Errorf("error type = %T, want resolve.NameError", err)
	}
}

func TestSourceRecursiveCallsCompile(t *testing.T) {
	res, err := Source(`
		int fact(n) { if (n < 2) { return 1; } return n * fact(n - 1); }
		void main() { x = fact(3); }
	`)
	if err != nil {
		t.Fatalf("Source error: %v", err)
	}
	if !strings.Contains(res.Assembly, "JSR") {
		t.Errorf("assembly = %q, want a JSR instruction", res.Assembly)
	}
}
