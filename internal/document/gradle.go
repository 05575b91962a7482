package document

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"text/scanner"
)

// Gradle reads the declarative subset of a Gradle Kotlin DSL module script
// (build.gradle.kts): property assignments, nested configuration blocks and
// simple calls such as id("...") or signingConfigs.getByName("debug").
// Control flow, variable declarations and imports are rejected.
//
// Only the settings a build document recognizes are extracted:
//
//	plugins { id("com.android.application"); kotlin("android") }
//	android {
//	    namespace = "..."
//	    compileSdk = 36
//	    defaultConfig { applicationId, minSdk, targetSdk, versionCode, versionName, signingConfig }
//	    buildTypes { release { signingConfig = signingConfigs.getByName("debug") } }
//	    compileOptions { sourceCompatibility = JavaVersion.VERSION_17 }
//	    kotlinOptions { jvmTarget = "17" }
//	}
//
// Other blocks (flutter { }, dependencies { }) are parsed and ignored.
type Gradle struct{}

// GradleParser returns a koanf parser for Gradle Kotlin DSL scripts
func GradleParser() *Gradle {
	return &Gradle{}
}

// Unmarshal parses the script and extracts the build document keys
func (p *Gradle) Unmarshal(b []byte) (map[string]interface{}, error) {
	stmts, err := parseGradleScript(string(b))
	if err != nil {
		return nil, err
	}
	return extractGradleDocument(stmts)
}

// Marshal is not supported; Gradle scripts are read-only input
func (p *Gradle) Marshal(map[string]interface{}) ([]byte, error) {
	return nil, fmt.Errorf("marshalling to Gradle Kotlin DSL is not supported")
}

type gradleStmtKind int

const (
	gradleAssign gradleStmtKind = iota
	gradleBlock
	gradleCall
)

// gradleStmt is one statement of a script.
//
//	name = value            gradleAssign
//	name { ... }            gradleBlock
//	name(args) [{ ... }]    gradleCall, optionally with a trailing block
type gradleStmt struct {
	Kind     gradleStmtKind
	Name     string
	Value    interface{}
	Args     []interface{}
	Body     []*gradleStmt
	Infix    map[string]interface{} // id("x") version "1.0" apply false
	Position scanner.Position
}

// gradleRef is an unevaluated expression such as JavaVersion.VERSION_17
// or signingConfigs.getByName("debug")
type gradleRef struct {
	Path string
	Args []interface{}
	// Called distinguishes name() from name
	Called bool
}

// templatePattern matches Kotlin string templates: $name or ${expr}
var templatePattern = regexp.MustCompile(`\$(\{|[A-Za-z_])`)

// infixKeywords may follow a call inside plugins { }
var infixKeywords = map[string]bool{"version": true, "apply": true}

type gradleParser struct {
	s   scanner.Scanner
	tok rune
	err error
}

func parseGradleScript(src string) ([]*gradleStmt, error) {
	p := &gradleParser{}
	p.s.Init(strings.NewReader(src))
	p.s.Filename = "build.gradle.kts"
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats |
		scanner.ScanStrings | scanner.ScanRawStrings | scanner.ScanComments | scanner.SkipComments
	p.s.Error = func(s *scanner.Scanner, msg string) {
		if p.err == nil {
			p.err = fmt.Errorf("%s: %s", s.Position, msg)
		}
	}
	p.next()

	stmts, err := p.statements(false)
	if err != nil {
		return nil, err
	}
	if p.err != nil {
		return nil, p.err
	}
	return stmts, nil
}

func (p *gradleParser) next() {
	p.tok = p.s.Scan()
}

func (p *gradleParser) errorf(format string, args ...interface{}) error {
	if p.err != nil {
		return p.err
	}
	return fmt.Errorf("%s: %s", p.s.Position, fmt.Sprintf(format, args...))
}

func (p *gradleParser) expect(tok rune) error {
	if p.tok != tok {
		return p.errorf("expected %s, found %s", scanner.TokenString(tok), p.describe())
	}
	p.next()
	return nil
}

func (p *gradleParser) describe() string {
	if p.tok == scanner.EOF {
		return "end of file"
	}
	return strconv.Quote(p.s.TokenText())
}

// statements parses until EOF, or until the closing brace when nested
func (p *gradleParser) statements(nested bool) ([]*gradleStmt, error) {
	var stmts []*gradleStmt
	for {
		if p.err != nil {
			return nil, p.err
		}
		switch p.tok {
		case scanner.EOF:
			if nested {
				return nil, p.errorf("unexpected end of file, missing '}'")
			}
			return stmts, nil
		case '}':
			if !nested {
				return nil, p.errorf("unexpected '}'")
			}
			return stmts, nil
		case ';':
			p.next()
			continue
		}

		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
}

func (p *gradleParser) statement() (*gradleStmt, error) {
	pos := p.s.Position
	if p.tok != scanner.Ident {
		return nil, p.errorf("expected a setting or block name, found %s", p.describe())
	}
	switch p.s.TokenText() {
	case "val", "var", "fun", "if", "when", "for", "while", "import", "apply":
		return nil, p.errorf("unsupported Kotlin construct %q; only declarative settings are allowed", p.s.TokenText())
	}

	name, err := p.dottedName()
	if err != nil {
		return nil, err
	}
	stmt := &gradleStmt{Name: name, Position: pos}

	switch p.tok {
	case '=':
		p.next()
		stmt.Kind = gradleAssign
		if stmt.Value, err = p.expr(); err != nil {
			return nil, err
		}
		return stmt, nil

	case '{':
		stmt.Kind = gradleBlock
		if stmt.Body, err = p.block(); err != nil {
			return nil, err
		}
		return stmt, nil

	case '(':
		stmt.Kind = gradleCall
		if stmt.Args, err = p.args(); err != nil {
			return nil, err
		}
		if p.tok == '{' {
			if stmt.Body, err = p.block(); err != nil {
				return nil, err
			}
		}
		for p.tok == scanner.Ident && infixKeywords[p.s.TokenText()] {
			keyword := p.s.TokenText()
			p.next()
			v, err := p.expr()
			if err != nil {
				return nil, err
			}
			if stmt.Infix == nil {
				stmt.Infix = make(map[string]interface{})
			}
			stmt.Infix[keyword] = v
		}
		return stmt, nil

	default:
		return nil, p.errorf("expected '=', '{' or '(' after %q, found %s", name, p.describe())
	}
}

func (p *gradleParser) block() ([]*gradleStmt, error) {
	if err := p.expect('{'); err != nil {
		return nil, err
	}
	body, err := p.statements(true)
	if err != nil {
		return nil, err
	}
	if err := p.expect('}'); err != nil {
		return nil, err
	}
	return body, nil
}

func (p *gradleParser) dottedName() (string, error) {
	parts := []string{p.s.TokenText()}
	p.next()
	for p.tok == '.' {
		p.next()
		if p.tok != scanner.Ident {
			return "", p.errorf("expected a name after '.', found %s", p.describe())
		}
		parts = append(parts, p.s.TokenText())
		p.next()
	}
	return strings.Join(parts, "."), nil
}

func (p *gradleParser) args() ([]interface{}, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	var args []interface{}
	for p.tok != ')' {
		v, err := p.expr()
		if err != nil {
			return nil, err
		}
		// Named arguments keep only their value
		if ref, ok := v.(gradleRef); ok && p.tok == '=' && !ref.Called && !strings.Contains(ref.Path, ".") {
			p.next()
			if v, err = p.expr(); err != nil {
				return nil, err
			}
		}
		args = append(args, v)
		if p.tok == ',' {
			p.next()
			continue
		}
		if p.tok != ')' {
			return nil, p.errorf("expected ',' or ')', found %s", p.describe())
		}
	}
	p.next()
	return args, nil
}

func (p *gradleParser) expr() (interface{}, error) {
	switch p.tok {
	case scanner.String, scanner.RawString:
		text := p.s.TokenText()
		p.next()
		if strings.HasPrefix(text, "`") {
			return strings.Trim(text, "`"), nil
		}
		s, err := strconv.Unquote(text)
		if err != nil {
			return nil, p.errorf("invalid string literal %s", text)
		}
		if templatePattern.MatchString(s) {
			return nil, p.errorf("string templates are not supported: %q", s)
		}
		return s, nil

	case scanner.Int:
		text := strings.ReplaceAll(p.s.TokenText(), "_", "")
		p.next()
		n, err := strconv.Atoi(text)
		if err != nil {
			return nil, p.errorf("invalid integer %s", text)
		}
		// Kotlin long suffix
		if p.tok == scanner.Ident && p.s.TokenText() == "L" {
			p.next()
		}
		return n, nil

	case scanner.Float:
		text := p.s.TokenText()
		p.next()
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, p.errorf("invalid number %s", text)
		}
		return f, nil

	case '-':
		p.next()
		v, err := p.expr()
		if err != nil {
			return nil, err
		}
		switch n := v.(type) {
		case int:
			return -n, nil
		case float64:
			return -n, nil
		}
		return nil, p.errorf("'-' must precede a number")

	case scanner.Ident:
		switch p.s.TokenText() {
		case "true":
			p.next()
			return true, nil
		case "false":
			p.next()
			return false, nil
		case "null":
			p.next()
			return nil, nil
		}
		return p.reference()
	}
	return nil, p.errorf("expected a value, found %s", p.describe())
}

// reference parses name(.name)* with optional call arguments and indexing,
// e.g. signingConfigs.getByName("debug") or signingConfigs["release"]
func (p *gradleParser) reference() (interface{}, error) {
	ref := gradleRef{}
	parts := []string{p.s.TokenText()}
	p.next()
	for {
		switch p.tok {
		case '.':
			p.next()
			if p.tok != scanner.Ident {
				return nil, p.errorf("expected a name after '.', found %s", p.describe())
			}
			parts = append(parts, p.s.TokenText())
			p.next()
		case '(':
			args, err := p.args()
			if err != nil {
				return nil, err
			}
			ref.Args = append(ref.Args, args...)
			ref.Called = true
		case '[':
			p.next()
			v, err := p.expr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(']'); err != nil {
				return nil, err
			}
			ref.Args = append(ref.Args, v)
			ref.Called = true
		default:
			ref.Path = strings.Join(parts, ".")
			return ref, nil
		}
	}
}
