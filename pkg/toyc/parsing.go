package toyc

import (
	"fmt"
	"io"
	"strconv"

	pc "its-hmny.dev/toyc/pkg/combinator"
)

// ----------------------------------------------------------------------------
// Lexical layer

// This section defines the token-level parsers of the toy language.
//
// Whitespace and comments (both '// ...' and '/* ... */') are insignificant: every
// token consumes its own trailing run of them, and the program parser strips the
// leading one, so the grammar below never has to mention either.

var (
	// One or more of space, tab, CR, LF
	pWhitespace = pc.Regexp(`[ \t\r\n]+`)
	// Line comment up to (and excluding) the line break, or block comment; the
	// '(?s:...)' flag lets '.' cross line breaks inside a block comment.
	pComments = pc.Regexp(`//.*|(?s:/\*.*?\*/)`)
	// Zero or more runs of either, the trailing trivia every token owns
	pIgnored = pc.ZeroOrMore(pc.Or(pWhitespace, pComments))
)

// token matches a pattern at the cursor and consumes the trailing insignificant
// input, so consecutive tokens chain without explicit whitespace handling.
func token(pattern string) pc.Parser[string] {
	return pc.Bind(pc.Regexp(pattern), func(value string) pc.Parser[string] {
		return pc.And(pIgnored, pc.Constant(value))
	})
}

var (
	// Keyword tokens require a word boundary after the keyword so that an
	// identifier like 'iffy' is not misread as 'if' followed by 'fy'.
	pFunction = token(`function\b`)
	pIf       = token(`if\b`)
	pElse     = token(`else\b`)
	pReturn   = token(`return\b`)
	pVar      = token(`var\b`)
	pWhile    = token(`while\b`)

	pComma  = token(`,`)
	pSemi   = token(`;`)
	pLParen = token(`\(`)
	pRParen = token(`\)`)
	pLBrace = token(`\{`)
	pRBrace = token(`\}`)
	pAssign = token(`=`)
	pNot    = token(`!`)

	pNumber = token(`[0-9]+`)
	pIdent  = token(`[a-zA-Z_][a-zA-Z0-9_]*`)
)

// ----------------------------------------------------------------------------
// Expression grammar

// This section defines the expression grammar, in ascending precedence:
//
//	expression ← comparison
//	comparison ← sum (('==' | '!=') sum)*        (left-assoc)
//	sum        ← product (('+' | '-') product)*  (left-assoc)
//	product    ← unary (('*' | '/') unary)*      (left-assoc)
//	unary      ← '!'? atom
//	atom       ← call | id | number | '(' expression ')'
//
// The grammar is mutually recursive (atoms contain expressions, statements contain
// expressions and blocks contain statements), so the two entrypoints go through
// late-bound references that init() below resolves to the real parsers.

var (
	pExpressionRef = pc.NewForwardRef[Expression]("expression parser used before definition")
	pStatementRef  = pc.NewForwardRef[Statement]("statement parser used before definition")

	pExpression = pExpressionRef.Parser()
	pStatement  = pStatementRef.Parser()
)

// infixBuilder folds two parsed operands into the AST node of their operator.
type infixBuilder func(left, right Expression) Expression

// operator maps an operator token to the builder of its AST node.
func operator(pattern string, build infixBuilder) pc.Parser[infixBuilder] {
	return pc.Map(token(pattern), func(string) infixBuilder { return build })
}

var (
	pEqualOp    = operator(`==`, func(l, r Expression) Expression { return Equal{Left: l, Right: r} })
	pNotEqualOp = operator(`!=`, func(l, r Expression) Expression { return NotEqual{Left: l, Right: r} })
	pPlusOp     = operator(`\+`, func(l, r Expression) Expression { return Add{Left: l, Right: r} })
	pMinusOp    = operator(`-`, func(l, r Expression) Expression { return Subtract{Left: l, Right: r} })
	pStarOp     = operator(`\*`, func(l, r Expression) Expression { return Multiply{Left: l, Right: r} })
	pSlashOp    = operator(`/`, func(l, r Expression) Expression { return Divide{Left: l, Right: r} })
)

// leftAssociative parses 'term (operator term)*' and folds the collected
// (operator, operand) pairs left to right, building op(acc, rhs) at each step.
func leftAssociative(term pc.Parser[Expression], op pc.Parser[infixBuilder]) pc.Parser[Expression] {
	type operatorAndTerm struct {
		build infixBuilder
		term  Expression
	}

	pair := pc.Bind(op, func(build infixBuilder) pc.Parser[operatorAndTerm] {
		return pc.Map(term, func(t Expression) operatorAndTerm {
			return operatorAndTerm{build: build, term: t}
		})
	})

	return pc.Bind(term, func(first Expression) pc.Parser[Expression] {
		return pc.Map(pc.ZeroOrMore(pair), func(rest []operatorAndTerm) Expression {
			result := first
			for _, next := range rest {
				result = next.build(result, next.term)
			}
			return result
		})
	})
}

// args ← (expression (',' expression)*)?
var pArgs = pc.Or(
	pc.Bind(pExpression, func(first Expression) pc.Parser[[]Expression] {
		return pc.Map(pc.ZeroOrMore(pc.And(pComma, pExpression)), func(rest []Expression) []Expression {
			return append([]Expression{first}, rest...)
		})
	}),
	pc.Constant([]Expression{}),
)

// call ← ID '(' args ')'
var pCall = pc.Bind(pIdent, func(callee string) pc.Parser[Expression] {
	return pc.And(pLParen, pc.Bind(pArgs, func(args []Expression) pc.Parser[Expression] {
		return pc.And(pRParen, pc.Constant(makeCall(callee, args)))
	}))
})

// 'assert' is a parse-time intrinsic, not a user-definable function: a call to it
// becomes an Assert node on the first argument. Without arguments there is nothing
// to assert on, so the call is left as an ordinary Call instead.
func makeCall(callee string, args []Expression) Expression {
	if callee == "assert" && len(args) > 0 {
		return Assert{Condition: args[0]}
	}
	return Call{Callee: callee, Args: args}
}

var (
	pNumberLiteral = pc.Map(pNumber, func(digits string) Expression {
		value, _ := strconv.Atoi(digits) // All digits: only an out-of-range literal fails, clamped to the int range
		return Number{Value: value}
	})

	pId = pc.Map(pIdent, func(name string) Expression { return Id{Name: name} })

	// atom ← call | id | number | '(' expression ')'
	pAtom = pc.Or(
		pCall, pId, pNumberLiteral,
		pc.Bind(pc.And(pLParen, pExpression), func(term Expression) pc.Parser[Expression] {
			return pc.And(pRParen, pc.Constant(term))
		}),
	)

	// unary ← '!'? atom
	pUnary = pc.Bind(pc.Maybe(pNot), func(not *string) pc.Parser[Expression] {
		return pc.Map(pAtom, func(term Expression) Expression {
			if not != nil {
				return Not{Term: term}
			}
			return term
		})
	})

	pProduct    = leftAssociative(pUnary, pc.Or(pStarOp, pSlashOp))
	pSum        = leftAssociative(pProduct, pc.Or(pPlusOp, pMinusOp))
	pComparison = leftAssociative(pSum, pc.Or(pEqualOp, pNotEqualOp))
)

// ----------------------------------------------------------------------------
// Statement grammar

// This section defines the statement grammar. The alternatives are tried in the
// order listed below (PEG prioritized choice), so keyword statements win over
// assignments and bare expression statements.

// return ← 'return' expression ';'
var pReturnStmt = pc.Bind(pc.And(pReturn, pExpression), func(term Expression) pc.Parser[Statement] {
	return pc.And(pSemi, pc.Constant[Statement](Return{Term: term}))
})

// block ← '{' statement* '}'
var pBlock = pc.Bind(pc.And(pLBrace, pc.ZeroOrMore(pStatement)), func(statements []Statement) pc.Parser[Block] {
	return pc.And(pRBrace, pc.Constant(Block{Statements: statements}))
})

var pBlockStmt = pc.Map(pBlock, func(block Block) Statement { return block })

// parameters ← (ID (',' ID)*)?
var pParameters = pc.Or(
	pc.Bind(pIdent, func(first string) pc.Parser[[]string] {
		return pc.Map(pc.ZeroOrMore(pc.And(pComma, pIdent)), func(rest []string) []string {
			return append([]string{first}, rest...)
		})
	}),
	pc.Constant([]string{}),
)

// function ← 'function' ID '(' parameters ')' block
var pFunctionDecl = pc.Bind(pc.And(pFunction, pIdent), func(name string) pc.Parser[Statement] {
	return pc.Bind(pc.And(pLParen, pParameters), func(parameters []string) pc.Parser[Statement] {
		return pc.Map(pc.And(pRParen, pBlock), func(body Block) Statement {
			return Function{Name: name, Parameters: parameters, Body: body}
		})
	})
})

// if ← 'if' '(' expression ')' statement 'else' statement
var pIfStmt = pc.Bind(pc.And(pIf, pc.And(pLParen, pExpression)), func(conditional Expression) pc.Parser[Statement] {
	return pc.Bind(pc.And(pRParen, pStatement), func(consequence Statement) pc.Parser[Statement] {
		return pc.Map(pc.And(pElse, pStatement), func(alternative Statement) Statement {
			return If{Conditional: conditional, Consequence: consequence, Alternative: alternative}
		})
	})
})

// while ← 'while' '(' expression ')' statement
var pWhileStmt = pc.Bind(pc.And(pWhile, pc.And(pLParen, pExpression)), func(conditional Expression) pc.Parser[Statement] {
	return pc.Map(pc.And(pRParen, pStatement), func(body Statement) Statement {
		return While{Conditional: conditional, Body: body}
	})
})

// var ← 'var' ID '=' expression ';'
var pVarStmt = pc.Bind(pc.And(pVar, pIdent), func(name string) pc.Parser[Statement] {
	return pc.Bind(pc.And(pAssign, pExpression), func(value Expression) pc.Parser[Statement] {
		return pc.And(pSemi, pc.Constant[Statement](Var{Name: name, Value: value}))
	})
})

// assign ← ID '=' expression ';'
// Compound operators ('+=' and friends) are not part of the language: the '='
// token misses on them and the whole alternative backs out cleanly.
var pAssignStmt = pc.Bind(pIdent, func(name string) pc.Parser[Statement] {
	return pc.Bind(pc.And(pAssign, pExpression), func(value Expression) pc.Parser[Statement] {
		return pc.And(pSemi, pc.Constant[Statement](Assign{Name: name, Value: value}))
	})
})

// exprStmt ← expression ';'
var pExprStmt = pc.Bind(pExpression, func(term Expression) pc.Parser[Statement] {
	return pc.And(pSemi, pc.Constant[Statement](term))
})

// program ← ignored statement*
var pProgram = pc.And(pIgnored, pc.Map(pc.ZeroOrMore(pStatement), func(statements []Statement) Block {
	return Block{Statements: statements}
}))

func init() {
	pExpressionRef.Define(pComparison)
	pStatementRef.Define(pc.Or(
		pReturnStmt, pFunctionDecl, pIfStmt, pWhileStmt,
		pVarStmt, pAssignStmt, pBlockStmt, pExprStmt,
	))
}

// ----------------------------------------------------------------------------
// Toy language Parser

// This section defines the Parser for the toy language.
//
// It uses the parser combinators above to obtain the AST from the source code,
// the latter provided through a generic io.Reader. The whole input must be
// consumed: leftover text (or no match at all) is a fatal parse error reported
// w/ the byte index where progress stopped.
type Parser struct{ reader io.Reader }

// Initializes and returns to the caller a brand new 'Parser' struct.
// Requires the argument io.Reader 'r' to be valid and usable.
func NewParser(r io.Reader) Parser {
	return Parser{reader: r}
}

// Parser entrypoint, reads the source and runs the program parser to completion.
// The returned Block is the root of the AST (one statement per top-level construct).
func (p *Parser) Parse() (Block, error) {
	content, err := io.ReadAll(p.reader)
	if err != nil {
		return Block{}, fmt.Errorf("cannot read from 'io.Reader': %s", err)
	}

	return pc.ParseStringToCompletion(pProgram, string(content))
}
