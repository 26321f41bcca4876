package parser

import (
	"fmt"
	"strconv"

	"github.com/zakazai/sheetql/internal/lexer"
	"github.com/zakazai/sheetql/internal/types"
)

// Statement is a translated command together with the table the text named.
// The planner is bound to its own table and ignores Table; callers that open
// tables by statement use it.
type Statement struct {
	Table   string
	Command types.Command
}

// Parser represents a recursive-descent parser over the lexer's tokens
type Parser struct {
	lex    *lexer.Lexer
	tokens []lexer.Token
	pos    int
	logger *types.Logger
}

// New creates a new parser reading every token from the given lexer
func New(l *lexer.Lexer) *Parser {
	return &Parser{
		lex:    l,
		tokens: l.Tokens(),
		logger: types.GlobalLogger,
	}
}

// Translate parses a single statement into a command.
func Translate(text string) (types.Command, error) {
	stmt, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return stmt.Command, nil
}

// Parse parses a single statement.
func Parse(text string) (*Statement, error) {
	return New(lexer.New(text)).Parse()
}

// Parse parses the statement held by the parser
func (p *Parser) Parse() (*Statement, error) {
	tok := p.next()
	if tok.Type != lexer.KEYWORD {
		if tok.Type == lexer.EOF {
			return nil, fmt.Errorf("%w: empty statement", types.ErrUnsupportedSyntax)
		}
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedSyntax, tok.Literal)
	}

	var (
		stmt *Statement
		err  error
	)
	switch tok.Literal {
	case "CREATE":
		stmt, err = p.parseCreate()
	case "DROP":
		stmt, err = p.parseTableOnly("DROP", types.DropTableCommand{})
	case "TRUNCATE":
		stmt, err = p.parseTableOnly("TRUNCATE", types.TruncateTableCommand{})
	case "INSERT":
		stmt, err = p.parseInsert()
	case "SELECT":
		stmt, err = p.parseSelect()
	case "UPDATE":
		stmt, err = p.parseUpdate()
	case "DELETE":
		stmt, err = p.parseDelete()
	case "GET":
		stmt, err = p.parseFixed(types.GetTablesCommand{}, "TABLES")
	case "SHOW":
		stmt, err = p.parseFixed(types.ShowTableDetailCommand{}, "TABLE", "DETAIL")
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedSyntax, tok.Literal)
	}
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) peek() lexer.Token {
	return p.tokens[p.pos]
}

func (p *Parser) next() lexer.Token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) malformed(tok lexer.Token, format string, args ...interface{}) error {
	if tok.Type == lexer.ILLEGAL {
		return fmt.Errorf("%w: unterminated string at offset %d", types.ErrMalformedStatement, tok.Pos)
	}
	msg := fmt.Sprintf(format, args...)
	if tok.Type == lexer.EOF {
		return fmt.Errorf("%w: %s, got end of input", types.ErrMalformedStatement, msg)
	}
	return fmt.Errorf("%w: %s, got %q at offset %d", types.ErrMalformedStatement, msg, tok.Literal, tok.Pos)
}

func (p *Parser) expectKeyword(keyword string) error {
	tok := p.next()
	if !tok.Is(keyword) {
		return p.malformed(tok, "expected %s", keyword)
	}
	return nil
}

func (p *Parser) expect(tt lexer.TokenType, what string) (lexer.Token, error) {
	tok := p.next()
	if tok.Type != tt {
		return tok, p.malformed(tok, "expected %s", what)
	}
	return tok, nil
}

func (p *Parser) expectEnd() error {
	if p.peek().Type == lexer.SEMICOLON {
		p.next()
	}
	tok := p.peek()
	if tok.Type != lexer.EOF {
		return p.malformed(tok, "expected end of statement")
	}
	return nil
}

func (p *Parser) atEnd() bool {
	tt := p.peek().Type
	return tt == lexer.EOF || tt == lexer.SEMICOLON
}

// parseColumn reads a column name. Quoted names and reserved words are
// accepted, so headers such as "order" or "desc" stay addressable; a keyword
// listed in stop is never taken as a column.
func (p *Parser) parseColumn(what string, stop ...string) (string, error) {
	tok := p.next()
	switch tok.Type {
	case lexer.IDENTIFIER, lexer.STRING:
		return tok.Literal, nil
	case lexer.KEYWORD:
		for _, kw := range stop {
			if tok.Literal == kw {
				return "", p.malformed(tok, "expected %s", what)
			}
		}
		return p.lex.Source(tok), nil
	}
	return "", p.malformed(tok, "expected %s", what)
}

// Table names may be quoted so that tabs with spaces can be addressed.
func (p *Parser) parseTableName() (string, error) {
	tok := p.next()
	if tok.Type != lexer.IDENTIFIER && tok.Type != lexer.STRING {
		return "", p.malformed(tok, "expected table name")
	}
	return tok.Literal, nil
}

// Keywords that end an unquoted value.
var valueTerminators = map[string]bool{
	"AND": true, "WHERE": true, "ORDER": true, "LIMIT": true, "OFFSET": true,
}

func isBare(tok lexer.Token) bool {
	switch tok.Type {
	case lexer.IDENTIFIER, lexer.NUMBER, lexer.SYMBOL, lexer.ASTERISK:
		return true
	case lexer.KEYWORD:
		return !valueTerminators[tok.Literal]
	}
	return false
}

// parseValue reads a quoted string, or an unquoted run of tokens up to the
// next comma, parenthesis, AND or clause keyword. An unquoted value is the
// input text the run covers, so 2024-03-01 and "Ann Lee" come back whole.
func (p *Parser) parseValue() (string, error) {
	first := p.peek()
	if first.Type == lexer.STRING {
		p.next()
		return first.Literal, nil
	}
	if !isBare(first) {
		p.next()
		return "", p.malformed(first, "expected value")
	}

	end := first.Pos
	for isBare(p.peek()) {
		tok := p.next()
		end = tok.Pos + len(tok.Literal)
	}
	return p.lex.Input()[first.Pos:end], nil
}

func (p *Parser) parseCount(clause string) (*int, error) {
	tok := p.next()
	if tok.Type != lexer.NUMBER {
		return nil, p.malformed(tok, "expected non-negative integer after %s", clause)
	}
	n, err := strconv.Atoi(tok.Literal)
	if err != nil || n < 0 {
		return nil, p.malformed(tok, "expected non-negative integer after %s", clause)
	}
	return &n, nil
}

// CREATE TABLE <ident> ( <col> [type], ... )
func (p *Parser) parseCreate() (*Statement, error) {
	if err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	table, err := p.parseTableName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN, "("); err != nil {
		return nil, err
	}

	var columns []string
	for {
		col, err := p.parseColumn("column name")
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)

		// Column types are accepted for familiarity and dropped; every cell is text.
		if p.peek().Type == lexer.IDENTIFIER {
			p.next()
		}

		tok := p.next()
		if tok.Type == lexer.RPAREN {
			break
		}
		if tok.Type != lexer.COMMA {
			return nil, p.malformed(tok, "expected , or )")
		}
	}

	return &Statement{Table: table, Command: types.CreateTableCommand{Columns: columns}}, nil
}

// DROP TABLE <ident> and TRUNCATE TABLE <ident>
func (p *Parser) parseTableOnly(keyword string, cmd types.Command) (*Statement, error) {
	if err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	table, err := p.parseTableName()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", keyword, err)
	}
	return &Statement{Table: table, Command: cmd}, nil
}

// GET TABLES and SHOW TABLE DETAIL take no arguments.
func (p *Parser) parseFixed(cmd types.Command, keywords ...string) (*Statement, error) {
	for _, kw := range keywords {
		if err := p.expectKeyword(kw); err != nil {
			return nil, err
		}
	}
	return &Statement{Command: cmd}, nil
}

// INSERT INTO <ident> ( <col>, ... ) VALUES ( <val>, ... )
func (p *Parser) parseInsert() (*Statement, error) {
	if err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}
	table, err := p.parseTableName()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.LPAREN, "( before column list"); err != nil {
		return nil, err
	}
	var columns []string
	for {
		col, err := p.parseColumn("column name")
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
		tok := p.next()
		if tok.Type == lexer.RPAREN {
			break
		}
		if tok.Type != lexer.COMMA {
			return nil, p.malformed(tok, "expected , or )")
		}
	}

	if err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN, "( before value list"); err != nil {
		return nil, err
	}
	var values []string
	for {
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		values = append(values, val)
		tok := p.next()
		if tok.Type == lexer.RPAREN {
			break
		}
		if tok.Type != lexer.COMMA {
			return nil, p.malformed(tok, "expected , or )")
		}
	}

	// Columns and values are zipped by position; a count mismatch is not an
	// error here, surplus values are dropped and columns without a value are absent.
	obj := make(map[string]string, len(columns))
	for i, col := range columns {
		if i < len(values) {
			obj[col] = values[i]
		}
	}

	return &Statement{Table: table, Command: types.InsertOneCommand{Obj: obj}}, nil
}

// Clause ranks for SELECT. A clause may only follow clauses of a lower rank.
const (
	rankWhere = iota + 1
	rankOrderBy
	rankLimit
	rankOffset
)

func clauseRank(tok lexer.Token) int {
	if tok.Type != lexer.KEYWORD {
		return 0
	}
	switch tok.Literal {
	case "WHERE":
		return rankWhere
	case "ORDER":
		return rankOrderBy
	case "LIMIT":
		return rankLimit
	case "OFFSET":
		return rankOffset
	}
	return 0
}

// SELECT <* | col, ...> FROM <ident> [WHERE ...] [ORDER BY ...] [LIMIT n] [OFFSET n]
func (p *Parser) parseSelect() (*Statement, error) {
	cmd := types.SelectCommand{Where: types.Filter{}}

	if p.peek().Type == lexer.ASTERISK {
		p.next()
	} else {
		for {
			col, err := p.parseColumn("column name or *", "FROM")
			if err != nil {
				return nil, err
			}
			cmd.Options.SelectFields = append(cmd.Options.SelectFields, col)
			if p.peek().Type != lexer.COMMA {
				break
			}
			p.next()
		}
	}

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	table, err := p.parseTableName()
	if err != nil {
		return nil, err
	}

	reached := 0
	for !p.atEnd() {
		tok := p.peek()
		rank := clauseRank(tok)
		if rank == 0 {
			return nil, p.malformed(tok, "expected WHERE, ORDER BY, LIMIT or OFFSET")
		}
		if rank <= reached {
			// Clauses must keep the WHERE, ORDER BY, LIMIT, OFFSET order; anything
			// from an out-of-order clause on is left out.
			p.logger.Debug("ignoring out-of-order %s clause at offset %d", tok.Literal, tok.Pos)
			p.skipToEnd()
			break
		}
		reached = rank
		p.next()

		switch rank {
		case rankWhere:
			if cmd.Where, err = p.parseConditions(); err != nil {
				return nil, err
			}
		case rankOrderBy:
			if err := p.expectKeyword("BY"); err != nil {
				return nil, err
			}
			if cmd.Options.OrderBy, err = p.parseOrderBy(); err != nil {
				return nil, err
			}
		case rankLimit:
			if cmd.Options.Limit, err = p.parseCount("LIMIT"); err != nil {
				return nil, err
			}
		case rankOffset:
			if cmd.Options.Offset, err = p.parseCount("OFFSET"); err != nil {
				return nil, err
			}
		}
	}

	return &Statement{Table: table, Command: cmd}, nil
}

func (p *Parser) skipToEnd() {
	for p.peek().Type != lexer.EOF && p.peek().Type != lexer.ILLEGAL {
		p.next()
	}
}

func (p *Parser) parseOrderBy() ([]types.OrderKey, error) {
	var keys []types.OrderKey
	for {
		col, err := p.parseColumn("ORDER BY column")
		if err != nil {
			return nil, err
		}
		key := types.OrderKey{Column: col, Direction: types.Asc}
		if tok := p.peek(); tok.Is("ASC") || tok.Is("DESC") {
			p.next()
			if tok.Literal == "DESC" {
				key.Direction = types.Desc
			}
		}
		keys = append(keys, key)
		if p.peek().Type != lexer.COMMA {
			return keys, nil
		}
		p.next()
	}
}

// parseConditions reads `col = value (AND col = value)*`. The textual grammar
// only supports equality; other operators are available to callers that build
// filters directly.
func (p *Parser) parseConditions() (types.Filter, error) {
	filter := types.Filter{}
	for {
		col, err := p.parseColumn("column name in condition")
		if err != nil {
			return nil, err
		}
		tok := p.next()
		if tok.Type == lexer.OPERATOR {
			return nil, p.malformed(tok, "only = is supported in conditions")
		}
		if tok.Type != lexer.EQUALS {
			return nil, p.malformed(tok, "expected =")
		}
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		filter[col] = types.Literal{Value: val}

		if !p.peek().Is("AND") {
			return filter, nil
		}
		p.next()
	}
}

// UPDATE <ident> SET col = val, ... WHERE <conditions>
func (p *Parser) parseUpdate() (*Statement, error) {
	table, err := p.parseTableName()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}

	newData := make(map[string]string)
	for {
		col, err := p.parseColumn("column name in SET")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.EQUALS, "="); err != nil {
			return nil, err
		}
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		newData[col] = val
		if p.peek().Type != lexer.COMMA {
			break
		}
		p.next()
	}

	if err := p.expectKeyword("WHERE"); err != nil {
		return nil, err
	}
	where, err := p.parseConditions()
	if err != nil {
		return nil, err
	}

	return &Statement{Table: table, Command: types.UpdateCommand{Where: where, NewData: newData}}, nil
}

// DELETE FROM <ident> WHERE <conditions>
func (p *Parser) parseDelete() (*Statement, error) {
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	table, err := p.parseTableName()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("WHERE"); err != nil {
		return nil, err
	}
	where, err := p.parseConditions()
	if err != nil {
		return nil, err
	}
	return &Statement{Table: table, Command: types.DeleteCommand{Where: where}}, nil
}
