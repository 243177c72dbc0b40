package compiler

import (
	"strconv"

	"github.com/mna/lumen/lang/intern"
	"github.com/mna/lumen/lang/scanner"
	"github.com/mna/lumen/lang/token"
)

// maxLocals bounds how many locals (including parameters) a single function
// may declare; a local's slot index must fit in the one-byte operand of
// OpGetLocal/OpSetLocal.
const maxLocals = 256

// maxArity bounds the number of parameters a function may declare; a call's
// argument count must fit in the one-byte operand of OpCall.
const maxArity = 255

// Compile compiles src as a complete program and returns the FunctionProto
// for the implicit top-level script, ready to be wrapped in a runtime
// closure and called with zero arguments. On a compile error it returns nil
// along with a non-nil error (a *Diagnostics holding every error found,
// since parsing continues past the first one via panic-mode recovery).
func Compile(src []byte, interner *intern.Strings) (*FunctionProto, error) {
	p := &parser{src: src, strings: interner}
	p.sc.Init(src)
	p.current = &funcState{proto: &FunctionProto{Kind: KindScript}}
	// Slot 0 is reserved for the function value being called; the top-level
	// script occupies it with an unnamed local, and since no identifier is
	// empty, user code can never resolve or collide with it.
	p.current.addLocal("")
	p.current.markInitialized()

	p.advance()
	for !p.match(token.EOF) {
		p.declaration()
	}
	p.consume(token.EOF, "Expect end of expression.")
	proto := p.endFunction()

	if err := p.diags.Err(); err != nil {
		return nil, err
	}
	return proto, nil
}

// local describes one slot in the function currently being compiled.
type local struct {
	name  string
	depth int // -1 means "declared but not yet initialized"
}

// funcState holds the compiler state private to one function body being
// compiled: its in-progress FunctionProto, its locals, and the lexical
// scope depth relative to that function's own body.
type funcState struct {
	enclosing *funcState
	proto     *FunctionProto

	locals     []local
	scopeDepth int
}

func (fs *funcState) addLocal(name string) {
	fs.locals = append(fs.locals, local{name: name, depth: -1})
}

// markInitialized makes the most recently declared local usable, so a
// function can refer to itself inside its own body. A no-op at the top
// scope, where declarations become globals instead of locals.
func (fs *funcState) markInitialized() {
	if fs.scopeDepth == 0 {
		return
	}
	fs.locals[len(fs.locals)-1].depth = fs.scopeDepth
}

// resolveLocal returns the slot index of name in fs, or -1 if no local by
// that name is in scope. Search runs innermost-declared-first so shadowing
// resolves to the most recent declaration.
func (fs *funcState) resolveLocal(name string) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			return i
		}
	}
	return -1
}

// addUpvalue records (or reuses) a capture of index from the immediately
// enclosing function (isLocal) or of one of its own upvalues, returning the
// resulting upvalue index in fs.
func (fs *funcState) addUpvalue(index uint8, isLocal bool) int {
	for i, uv := range fs.proto.Upvalues {
		if uv.Index == index && uv.IsLocal == isLocal {
			return i
		}
	}
	fs.proto.Upvalues = append(fs.proto.Upvalues, UpvalueDesc{Index: index, IsLocal: isLocal})
	fs.proto.UpvalueCount = len(fs.proto.Upvalues)
	return fs.proto.UpvalueCount - 1
}

// resolveUpvalue walks outward from fs looking for name among enclosing
// functions' locals or their own upvalues, threading a capture descriptor
// through every function in between. Returns -1 if name is not found in any
// enclosing function (meaning it must be a global).
func (fs *funcState) resolveUpvalue(name string) int {
	if fs.enclosing == nil {
		return -1
	}
	if slot := fs.enclosing.resolveLocal(name); slot != -1 {
		return fs.addUpvalue(uint8(slot), true)
	}
	if uv := fs.enclosing.resolveUpvalue(name); uv != -1 {
		return fs.addUpvalue(uint8(uv), false)
	}
	return -1
}

// parser is a single-pass, recursive-descent-with-precedence-climbing
// compiler: it consumes a token stream and emits bytecode directly into the
// current function's chunk, with no intermediate AST.
type parser struct {
	src     []byte
	sc      scanner.Scanner
	strings *intern.Strings

	previous token.Token
	curTok   token.Token
	current  *funcState // innermost function being compiled

	panicMode bool
	diags     Diagnostics
}

func (p *parser) chunk() *Chunk { return &p.current.proto.Chunk }

func (p *parser) line() int { return p.previous.Line }

// advance pulls the next non-error token into p.previous/current token slot,
// reporting every ERROR token the scanner produces along the way.
func (p *parser) advance() {
	p.previous = p.curTok
	for {
		p.curTok = p.sc.ScanToken()
		if p.curTok.Kind != token.ERROR {
			break
		}
		p.errorAtCurrent(p.curTok.Message)
	}
}

func (p *parser) check(kind token.Kind) bool { return p.curTok.Kind == kind }

func (p *parser) match(kind token.Kind) bool {
	if !p.check(kind) {
		return false
	}
	p.advance()
	return true
}

func (p *parser) consume(kind token.Kind, msg string) {
	if p.curTok.Kind == kind {
		p.advance()
		return
	}
	p.errorAtCurrent(msg)
}

func (p *parser) errorAtCurrent(msg string) { p.errorAt(p.curTok, msg) }
func (p *parser) error(msg string)          { p.errorAt(p.previous, msg) }

func (p *parser) errorAt(tok token.Token, msg string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.diags.Add(tok.Line, errorLocation(tok, p.src), msg)
}

// errorLocation renders the "at …" clause of a diagnostic for tok: "end" at
// EOF, nothing for a scanner ERROR token (its Message already describes the
// lexical problem), otherwise the offending token's own lexeme in quotes.
func errorLocation(tok token.Token, src []byte) string {
	switch tok.Kind {
	case token.EOF:
		return "end"
	case token.ERROR:
		return ""
	default:
		return "'" + tok.Lexeme(src) + "'"
	}
}

// ---- emission helpers ----

func (p *parser) emitByte(b byte)      { p.chunk().WriteByte(b, p.line()) }
func (p *parser) emitOp(op Opcode)     { p.chunk().WriteOp(op, p.line()) }
func (p *parser) emitOps(a, b Opcode)  { p.emitOp(a); p.emitOp(b) }
func (p *parser) emitOpByte(op Opcode, b byte) {
	p.emitOp(op)
	p.emitByte(b)
}

func (p *parser) emitConstant(value any) { p.chunk().WriteConstant(value, p.line()) }

func (p *parser) emitJump(op Opcode) int { return p.chunk().EmitJump(op, p.line()) }

func (p *parser) patchJump(offset int) {
	if err := p.chunk().PatchJump(offset); err != nil {
		p.error("Jump too far.")
	}
}

func (p *parser) emitLoop(loopStart int) {
	if err := p.chunk().EmitLoop(loopStart, p.line()); err != nil {
		p.error("Jump too far.")
	}
}

func (p *parser) emitReturn() { p.emitOps(OpNil, OpReturn) }

// endFunction finalizes the current function, emits its implicit trailing
// return, and pops back to the enclosing function (if any), returning the
// proto that was just finished.
func (p *parser) endFunction() *FunctionProto {
	p.emitReturn()
	proto := p.current.proto
	p.current = p.current.enclosing
	return proto
}

// ---- scopes ----

func (p *parser) beginScope() { p.current.scopeDepth++ }

func (p *parser) endScope() {
	fs := p.current
	fs.scopeDepth--
	for len(fs.locals) > 0 && fs.locals[len(fs.locals)-1].depth > fs.scopeDepth {
		p.emitOp(OpPop)
		fs.locals = fs.locals[:len(fs.locals)-1]
	}
}

// ---- declarations & statements ----

func (p *parser) declaration() {
	switch {
	case p.match(token.FUN):
		p.funDeclaration()
	case p.match(token.VAR):
		p.varDeclaration()
	default:
		p.statement()
	}
	if p.panicMode {
		p.synchronize()
	}
}

func (p *parser) synchronize() {
	p.panicMode = false
	for p.curTok.Kind != token.EOF {
		if p.previous.Kind == token.SEMICOLON {
			return
		}
		switch p.curTok.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.advance()
	}
}

func (p *parser) statement() {
	switch {
	case p.match(token.PRINT):
		p.printStatement()
	case p.match(token.IF):
		p.ifStatement()
	case p.match(token.WHILE):
		p.whileStatement()
	case p.match(token.FOR):
		p.forStatement()
	case p.match(token.RETURN):
		p.returnStatement()
	case p.match(token.LEFT_BRACE):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *parser) block() {
	for !p.check(token.RIGHT_BRACE) && !p.check(token.EOF) {
		p.declaration()
	}
	p.consume(token.RIGHT_BRACE, "Expect '}' after block.")
}

func (p *parser) printStatement() {
	p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after value.")
	p.emitOp(OpPrint)
}

func (p *parser) expressionStatement() {
	p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after expression.")
	p.emitOp(OpPop)
}

func (p *parser) ifStatement() {
	p.consume(token.LEFT_PAREN, "Expect '(' after 'if'.")
	p.expression()
	p.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	thenJump := p.emitJump(OpJumpIfFalse)
	p.emitOp(OpPop)
	p.statement()

	elseJump := p.emitJump(OpJump)
	p.patchJump(thenJump)
	p.emitOp(OpPop)

	if p.match(token.ELSE) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *parser) whileStatement() {
	loopStart := len(p.chunk().Code)
	p.consume(token.LEFT_PAREN, "Expect '(' after 'while'.")
	p.expression()
	p.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	exitJump := p.emitJump(OpJumpIfFalse)
	p.emitOp(OpPop)
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitOp(OpPop)
}

func (p *parser) forStatement() {
	p.beginScope()
	p.consume(token.LEFT_PAREN, "Expect '(' after 'for'.")

	switch {
	case p.match(token.SEMICOLON):
		// no initializer
	case p.match(token.VAR):
		p.varDeclaration()
	default:
		p.expressionStatement()
	}

	loopStart := len(p.chunk().Code)
	exitJump := -1
	if !p.match(token.SEMICOLON) {
		p.expression()
		p.consume(token.SEMICOLON, "Expect ';' after loop condition.")
		exitJump = p.emitJump(OpJumpIfFalse)
		p.emitOp(OpPop)
	}

	if !p.match(token.RIGHT_PAREN) {
		bodyJump := p.emitJump(OpJump)
		incrementStart := len(p.chunk().Code)
		p.expression()
		p.emitOp(OpPop)
		p.consume(token.RIGHT_PAREN, "Expect ')' after for clauses.")

		p.emitLoop(loopStart)
		loopStart = incrementStart
		p.patchJump(bodyJump)
	}

	p.statement()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitOp(OpPop)
	}
	p.endScope()
}

func (p *parser) returnStatement() {
	if p.current.proto.Kind == KindScript {
		p.error("Can't return from top-level code.")
	}
	if p.match(token.SEMICOLON) {
		p.emitReturn()
		return
	}
	p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after return value.")
	p.emitOp(OpReturn)
}

// ---- variables ----

func (p *parser) varDeclaration() {
	global := p.parseVariable("Expect variable name.")

	if p.match(token.EQUAL) {
		p.expression()
	} else {
		p.emitOp(OpNil)
	}
	p.consume(token.SEMICOLON, "Expect ';' after variable declaration.")
	p.defineVariable(global)
}

// parseVariable consumes the variable's name, declares it as a local if
// inside a scope, and otherwise returns the constant-pool index of its name
// for a subsequent OpDefineGlobal.
func (p *parser) parseVariable(errMsg string) byte {
	p.consume(token.IDENTIFIER, errMsg)
	p.declareVariable()
	if p.current.scopeDepth > 0 {
		return 0
	}
	return p.identifierConstant(p.previous)
}

func (p *parser) identifierConstant(name token.Token) byte {
	lexeme := name.Lexeme(p.src)
	canon := p.strings.Intern([]byte(lexeme))
	idx := p.chunk().AddConstant(canon)
	if idx > 0xff {
		p.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (p *parser) declareVariable() {
	fs := p.current
	if fs.scopeDepth == 0 {
		return
	}
	name := p.previous.Lexeme(p.src)
	for i := len(fs.locals) - 1; i >= 0; i-- {
		l := fs.locals[i]
		if l.depth != -1 && l.depth < fs.scopeDepth {
			break
		}
		if l.name == name {
			p.error("Already a variable with this name in this scope.")
		}
	}
	if len(fs.locals) >= maxLocals {
		p.error("Too many local variables in function.")
		return
	}
	fs.addLocal(name)
}

func (p *parser) defineVariable(global byte) {
	if p.current.scopeDepth > 0 {
		p.current.markInitialized()
		return
	}
	p.emitOpByte(OpDefineGlobal, global)
}

func (p *parser) namedVariable(name token.Token, canAssign bool) {
	lexeme := name.Lexeme(p.src)

	var getOp, setOp Opcode
	var arg int
	if slot := p.current.resolveLocal(lexeme); slot != -1 {
		if p.current.locals[slot].depth == -1 {
			p.error("Can't read local variable in its own initializer.")
		}
		getOp, setOp, arg = OpGetLocal, OpSetLocal, slot
	} else if uv := p.current.resolveUpvalue(lexeme); uv != -1 {
		getOp, setOp, arg = OpGetUpvalue, OpSetUpvalue, uv
	} else {
		getOp, setOp = OpGetGlobal, OpSetGlobal
		arg = int(p.identifierConstant(name))
	}

	if canAssign && p.match(token.EQUAL) {
		p.expression()
		p.emitOpByte(setOp, byte(arg))
	} else {
		p.emitOpByte(getOp, byte(arg))
	}
}

// ---- functions ----

func (p *parser) funDeclaration() {
	global := p.parseVariable("Expect function name.")
	p.current.markInitialized()
	p.function(KindFunction)
	p.defineVariable(global)
}

func (p *parser) function(kind FunctionKind) {
	name := p.previous.Lexeme(p.src)
	fs := &funcState{enclosing: p.current, proto: &FunctionProto{Name: name, Kind: kind}}
	p.current = fs
	// Slot 0 is reserved for the closure value itself, matching the
	// top-level script's reservation in Compile.
	fs.addLocal("")
	fs.markInitialized()

	p.beginScope()
	p.consume(token.LEFT_PAREN, "Expect '(' after function name.")
	if !p.check(token.RIGHT_PAREN) {
		for {
			if fs.proto.Arity == maxArity {
				p.errorAtCurrent("Can't have more than 255 parameters.")
			}
			fs.proto.Arity++
			paramGlobal := p.parseVariable("Expect parameter name.")
			p.defineVariable(paramGlobal)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RIGHT_PAREN, "Expect ')' after parameters.")
	p.consume(token.LEFT_BRACE, "Expect '{' before function body.")
	p.block()

	proto := p.endFunction()
	idx := p.chunk().AddConstant(proto)
	if idx > 0xff {
		p.error("Too many constants in one chunk.")
		return
	}
	p.emitOpByte(OpClosure, byte(idx))
	for _, uv := range proto.Upvalues {
		if uv.IsLocal {
			p.emitByte(1)
		} else {
			p.emitByte(0)
		}
		p.emitByte(uv.Index)
	}
}

// ---- expressions (Pratt parsing) ----

type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(p *parser, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

// tokenKindCount sizes the rules table without reaching for the token
// package's unexported maxKind; every token.Kind value is well within it.
const tokenKindCount = 64

var rules [tokenKindCount]parseRule

func init() {
	rules[token.LEFT_PAREN] = parseRule{prefix: (*parser).grouping, infix: (*parser).call, precedence: precCall}
	rules[token.MINUS] = parseRule{prefix: (*parser).unary, infix: (*parser).binary, precedence: precTerm}
	rules[token.PLUS] = parseRule{infix: (*parser).binary, precedence: precTerm}
	rules[token.SLASH] = parseRule{infix: (*parser).binary, precedence: precFactor}
	rules[token.STAR] = parseRule{infix: (*parser).binary, precedence: precFactor}
	rules[token.BANG] = parseRule{prefix: (*parser).unary}
	rules[token.BANG_EQUAL] = parseRule{infix: (*parser).binary, precedence: precEquality}
	rules[token.EQUAL_EQUAL] = parseRule{infix: (*parser).binary, precedence: precEquality}
	rules[token.GREATER] = parseRule{infix: (*parser).binary, precedence: precComparison}
	rules[token.GREATER_EQUAL] = parseRule{infix: (*parser).binary, precedence: precComparison}
	rules[token.LESS] = parseRule{infix: (*parser).binary, precedence: precComparison}
	rules[token.LESS_EQUAL] = parseRule{infix: (*parser).binary, precedence: precComparison}
	rules[token.IDENTIFIER] = parseRule{prefix: (*parser).variable}
	rules[token.STRING] = parseRule{prefix: (*parser).stringLiteral}
	rules[token.NUMBER] = parseRule{prefix: (*parser).number}
	rules[token.AND] = parseRule{infix: (*parser).and_, precedence: precAnd}
	rules[token.OR] = parseRule{infix: (*parser).or_, precedence: precOr}
	rules[token.FALSE] = parseRule{prefix: (*parser).literal}
	rules[token.TRUE] = parseRule{prefix: (*parser).literal}
	rules[token.NIL] = parseRule{prefix: (*parser).literal}
}

func (p *parser) getRule(kind token.Kind) parseRule { return rules[kind] }

func (p *parser) expression() { p.parsePrecedence(precAssignment) }

func (p *parser) parsePrecedence(prec precedence) {
	p.advance()
	prefixRule := p.getRule(p.previous.Kind).prefix
	if prefixRule == nil {
		p.error("Expect expression.")
		return
	}

	canAssign := prec <= precAssignment
	prefixRule(p, canAssign)

	for prec <= p.getRule(p.curTok.Kind).precedence {
		p.advance()
		infixRule := p.getRule(p.previous.Kind).infix
		infixRule(p, canAssign)
	}

	if canAssign && p.match(token.EQUAL) {
		p.error("Invalid assignment target.")
	}
}

func (p *parser) grouping(bool) {
	p.expression()
	p.consume(token.RIGHT_PAREN, "Expect ')' after expression.")
}

func (p *parser) unary(bool) {
	opKind := p.previous.Kind
	p.parsePrecedence(precUnary)
	switch opKind {
	case token.BANG:
		p.emitOp(OpNot)
	case token.MINUS:
		p.emitOp(OpNegate)
	}
}

func (p *parser) binary(bool) {
	opKind := p.previous.Kind
	rule := p.getRule(opKind)
	p.parsePrecedence(rule.precedence + 1)

	switch opKind {
	case token.BANG_EQUAL:
		p.emitOps(OpEqual, OpNot)
	case token.EQUAL_EQUAL:
		p.emitOp(OpEqual)
	case token.GREATER:
		p.emitOp(OpGreater)
	case token.GREATER_EQUAL:
		p.emitOps(OpLess, OpNot)
	case token.LESS:
		p.emitOp(OpLess)
	case token.LESS_EQUAL:
		p.emitOps(OpGreater, OpNot)
	case token.PLUS:
		p.emitOp(OpAdd)
	case token.MINUS:
		p.emitOp(OpSubtract)
	case token.STAR:
		p.emitOp(OpMultiply)
	case token.SLASH:
		p.emitOp(OpDivide)
	}
}

func (p *parser) and_(bool) {
	endJump := p.emitJump(OpJumpIfFalse)
	p.emitOp(OpPop)
	p.parsePrecedence(precAnd)
	p.patchJump(endJump)
}

func (p *parser) or_(bool) {
	elseJump := p.emitJump(OpJumpIfFalse)
	endJump := p.emitJump(OpJump)
	p.patchJump(elseJump)
	p.emitOp(OpPop)
	p.parsePrecedence(precOr)
	p.patchJump(endJump)
}

func (p *parser) call(bool) {
	argc := p.argumentList()
	p.emitOpByte(OpCall, argc)
}

func (p *parser) argumentList() byte {
	var argc int
	if !p.check(token.RIGHT_PAREN) {
		for {
			p.expression()
			if argc == maxArity {
				p.error("Can't have more than 255 arguments.")
			}
			argc++
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RIGHT_PAREN, "Expect ')' after arguments.")
	return byte(argc)
}

func (p *parser) literal(bool) {
	switch p.previous.Kind {
	case token.FALSE:
		p.emitOp(OpFalse)
	case token.NIL:
		p.emitOp(OpNil)
	case token.TRUE:
		p.emitOp(OpTrue)
	}
}

func (p *parser) number(bool) {
	lexeme := p.previous.Lexeme(p.src)
	value, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		p.error("Invalid number literal.")
		return
	}
	p.emitConstant(value)
}

// stringLiteral strips the surrounding quote bytes from the lexeme before
// interning it: the scanner's STRING token spans the quotes, but the
// canonical value stored for the string is its content alone.
func (p *parser) stringLiteral(bool) {
	lexeme := p.previous.Lexeme(p.src)
	content := lexeme[1 : len(lexeme)-1]
	canon := p.strings.Intern([]byte(content))
	p.emitConstant(canon)
}

func (p *parser) variable(canAssign bool) {
	p.namedVariable(p.previous, canAssign)
}
