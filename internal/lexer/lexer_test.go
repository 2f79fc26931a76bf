package lexer

import "testing"

func TestTokens_SigilIdentifier(t *testing.T) {
	toks := Tokens("m% = 100")
	if toks[0].Kind != KindIdentifier || toks[0].Text != "m%" {
		t.Fatalf("got %+v, want sigil identifier m%%", toks[0])
	}
}

func TestTokens_KeywordUppercased(t *testing.T) {
	toks := Tokens("while X\nwend")
	if toks[0].Kind != KindKeyword || toks[0].Text != "WHILE" {
		t.Fatalf("got %+v, want keyword WHILE", toks[0])
	}
}

func TestTokens_StringLiteralWithEscapedQuote(t *testing.T) {
	toks := Tokens(`PRINT "say ""hi"""`)
	var str Token
	for _, tok := range toks {
		if tok.Kind == KindStringLiteral {
			str = tok
		}
	}
	if str.Text != `say "hi"` {
		t.Fatalf("got %q, want %q", str.Text, `say "hi"`)
	}
}

func TestTokens_NumberKinds(t *testing.T) {
	toks := Tokens("42 3.14 1e10")
	want := []Kind{KindIntLiteral, KindFloatLiteral, KindFloatLiteral}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Kind, k)
		}
	}
}

func TestTokens_TwoCharOperators(t *testing.T) {
	toks := Tokens("a <= b <> c")
	var ops []string
	for _, tok := range toks {
		if tok.Kind == KindOperator && len(tok.Text) == 2 {
			ops = append(ops, tok.Text)
		}
	}
	if len(ops) != 2 || ops[0] != "<=" || ops[1] != "<>" {
		t.Fatalf("got %v", ops)
	}
}

func TestTokens_CommentIgnored(t *testing.T) {
	toks := Tokens("PRINT 1 ' a comment\nPRINT 2")
	for _, tok := range toks {
		if tok.Kind == KindComment {
			t.Fatal("comment token should have been filtered out")
		}
	}
}

func TestTokens_EndsWithEOF(t *testing.T) {
	toks := Tokens("PRINT 1")
	if toks[len(toks)-1].Kind != KindEOF {
		t.Fatalf("last token kind = %v, want KindEOF", toks[len(toks)-1].Kind)
	}
}
