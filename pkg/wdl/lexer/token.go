// Package lexer implements the WDL lexer: a mode-stack tokenizer with
// three disjoint lexical regimes (Normal, Command, StringLiteral) plus the
// command-block preprocessing pass, per spec.md 4.1.
package lexer

// TokenType enumerates the token kinds the lexer produces.
type TokenType int

const (
	TEOF TokenType = iota
	TIdent
	TInt
	TFloat
	TStringStart // opening quote, pushes StringLiteral mode
	TStringText  // literal text inside a string/command
	TStringEnd   // closing quote, pops StringLiteral mode
	TPlaceholderOpen  // ~{ or ${, pushes Normal mode
	TPlaceholderClose // } closing a placeholder, pops back
	TCommandOpen      // command { or command <<<
	TCommandClose     // } or >>>
	TCommandBlockRef  // __COMMAND_BLOCK_n__ placeholder left by preprocessing

	// Keywords
	TVersion
	TImport
	TAs
	TAlias
	TStruct
	TTask
	TWorkflow
	TInput
	TOutput
	TCommand
	TRuntime
	TMeta
	TParameterMeta
	TCall
	TAfter
	TScatter
	TIf
	TThen
	TElse
	TIn
	TEnv
	TRequirements
	THints
	TTrue
	TFalse
	TNone

	// Type keywords
	TBoolean
	TIntType
	TFloatType
	TStringType
	TFileType
	TDirectoryType
	TArrayType
	TMapType
	TPairType
	TObjectType

	// Punctuation / operators
	TLParen
	TRParen
	TLBrace
	TRBrace
	TLBracket
	TRBracket
	TComma
	TColon
	TDot
	TQuestion
	TPlus
	TMinus
	TStar
	TSlash
	TPercent
	TEqEq
	TNeq
	TLt
	TLte
	TGt
	TGte
	TAndAnd
	TOrOr
	TNot
	TEquals
	THeredocOpen  // <<<
	THeredocClose // >>>
)

var keywords = map[string]TokenType{
	"version":         TVersion,
	"import":          TImport,
	"as":              TAs,
	"alias":           TAlias,
	"struct":          TStruct,
	"task":            TTask,
	"workflow":        TWorkflow,
	"input":           TInput,
	"output":          TOutput,
	"command":         TCommand,
	"runtime":         TRuntime,
	"meta":            TMeta,
	"parameter_meta":  TParameterMeta,
	"call":            TCall,
	"after":           TAfter,
	"scatter":         TScatter,
	"if":              TIf,
	"then":            TThen,
	"else":            TElse,
	"in":              TIn,
	"env":             TEnv,
	"requirements":    TRequirements,
	"hints":           THints,
	"true":            TTrue,
	"false":           TFalse,
	"None":            TNone,
	"Boolean":         TBoolean,
	"Int":             TIntType,
	"Float":           TFloatType,
	"String":          TStringType,
	"File":            TFileType,
	"Directory":       TDirectoryType,
	"Array":           TArrayType,
	"Map":             TMapType,
	"Pair":            TPairType,
	"Object":          TObjectType,
}

// Token is a single lexical token with source position.
type Token struct {
	Type    TokenType
	Value   string
	IntVal  int64
	FloatVal float64
	Line    int
	Col     int
}

func (t TokenType) String() string {
	for k, v := range keywords {
		if v == t {
			return k
		}
	}
	switch t {
	case TEOF:
		return "EOF"
	case TIdent:
		return "IDENT"
	case TInt:
		return "INT"
	case TFloat:
		return "FLOAT"
	default:
		return "TOKEN"
	}
}
