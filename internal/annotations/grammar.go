package annotations

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// directiveLexer tokenizes the text following the directive prefix
var directiveLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\.|[^"\\])*"|` + "`[^`]*`"},
	{Name: "Ident", Pattern: `[\pL_][\pL\pN_.\-]*`},
	{Name: "Punct", Pattern: `[(),:]`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

// directiveNode is the root of a directive: name(arg, arg, ...)
type directiveNode struct {
	Pos    lexer.Position
	Tokens []lexer.Token

	Name string     `parser:"@Ident '('"`
	Args []*argNode `parser:"( @@ ( ',' @@ )* ','? )? ')'"`
}

// argNode is one argument: a tag attribute, a comment attribute or a bare identifier
type argNode struct {
	Pos    lexer.Position
	Tokens []lexer.Token

	Tag     *tagNode `parser:"  @@"`
	Comment *string  `parser:"| @String"`
	Ident   *string  `parser:"| @Ident"`
}

// tagNode is a key:"value" struct tag entry
type tagNode struct {
	Key   string `parser:"@Ident ':'"`
	Value string `parser:"@String"`
}

// directiveGrammar is shared by every Parser; participle parsers are safe for concurrent use
var directiveGrammar = participle.MustBuild[directiveNode](
	participle.Lexer(directiveLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)
