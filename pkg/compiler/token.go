package compiler

// TokenKind tags the lexical category of a Token.
type TokenKind int

const (
	Whitespace TokenKind = iota
	Bracket
	Word
	StringTok
	CharTok
	IntTok
	FloatTok
	HexTok
	BinTok
)

var tokenKindNames = [...]string{
	Whitespace: "Whitespace",
	Bracket:    "Bracket",
	Word:       "Word",
	StringTok:  "String",
	CharTok:    "Char",
	IntTok:     "Int",
	FloatTok:   "Float",
	HexTok:     "Hex",
	BinTok:     "Bin",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return "Unknown"
}

// Token is a tagged textual payload produced by the Lexer. Numeric kinds
// (Int/Float/Hex/Bin) keep their raw source text; numeric conversion is the
// Parser's job, not the Lexer's.
type Token struct {
	Kind TokenKind
	Text string
	Line int
}
