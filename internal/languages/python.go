package languages

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/negaga53/codecompass/internal/parser"
)

// PythonParser implements parsing for Python source files. A fresh
// tree-sitter parser is created per call so one PythonParser can be shared
// across workers.
type PythonParser struct {
	lang *sitter.Language
}

// NewPythonParser creates a new Python parser
func NewPythonParser() *PythonParser {
	return &PythonParser{lang: python.GetLanguage()}
}

func (p *PythonParser) Language() string {
	return "python"
}

func (p *PythonParser) Extensions() []string {
	return []string{".py", ".pyi", ".pyw"}
}

func (p *PythonParser) Parse(ctx context.Context, filename string, content []byte) (*parser.FileSymbols, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	sp := sitter.NewParser()
	defer sp.Close()
	sp.SetLanguage(p.lang)

	tree, err := sp.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	if tree == nil {
		return nil, fmt.Errorf("parse %s: no syntax tree produced", filename)
	}
	defer tree.Close()

	result := &parser.FileSymbols{
		Path:     filename,
		Language: "python",
		Symbols:  make([]parser.Symbol, 0),
		Imports:  make([]parser.Import, 0),
	}

	root := tree.RootNode()
	e := &pythonExtractor{content: content, result: result}
	e.walk(root, nil, scopeModule)

	reasons := make([]string, 0, 2)
	if root.HasError() {
		reasons = append(reasons, fmt.Sprintf("syntax error near line %d; partial extraction", firstErrorLine(root)))
	}
	if !utf8.Valid(content) {
		reasons = append(reasons, "invalid UTF-8 in source")
	}
	if len(reasons) > 0 {
		result.Degraded = true
		result.DegradedReason = strings.Join(reasons, "; ")
	}

	return result, nil
}

type scopeKind int

const (
	scopeModule scopeKind = iota
	scopeClass
	scopeFunction
)

type pythonExtractor struct {
	content []byte
	result  *parser.FileSymbols
}

// walk emits declarations and imports outside ERROR and MISSING subtrees.
// Nesting depth of real Python code is shallow, so recursion here follows
// the syntax tree rather than the import graph.
func (e *pythonExtractor) walk(node *sitter.Node, path []string, enclosing scopeKind) {
	if node == nil || node.IsError() || node.IsMissing() {
		return
	}

	switch node.Type() {
	case "function_definition":
		sym := e.extractFunction(node, path, enclosing)
		if sym == nil {
			return
		}
		e.result.Symbols = append(e.result.Symbols, *sym)
		e.walkChildren(node.ChildByFieldName("body"), appendPath(path, sym.Name), scopeFunction)
		return

	case "class_definition":
		sym := e.extractClass(node, path)
		if sym == nil {
			return
		}
		e.result.Symbols = append(e.result.Symbols, *sym)
		e.walkChildren(node.ChildByFieldName("body"), appendPath(path, sym.Name), scopeClass)
		return

	case "import_statement":
		e.result.Imports = append(e.result.Imports, e.extractImport(node)...)
		return

	case "import_from_statement":
		if imp, ok := e.extractFromImport(node); ok {
			e.result.Imports = append(e.result.Imports, imp)
		}
		return

	case "expression_statement":
		if enclosing == scopeModule {
			e.result.Symbols = append(e.result.Symbols, e.extractAssignments(node)...)
		}
		return
	}

	e.walkChildren(node, path, enclosing)
}

func (e *pythonExtractor) walkChildren(node *sitter.Node, path []string, enclosing scopeKind) {
	if node == nil {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		e.walk(node.Child(i), path, enclosing)
	}
}

func (e *pythonExtractor) extractFunction(node *sitter.Node, path []string, enclosing scopeKind) *parser.Symbol {
	name := e.fieldText(node, "name")
	if name == "" {
		return nil
	}

	kind := parser.SymbolFunction
	if enclosing == scopeClass {
		kind = parser.SymbolMethod
	}

	return &parser.Symbol{
		Name:          name,
		QualifiedName: strings.Join(appendPath(path, name), "."),
		Kind:          kind,
		StartLine:     startLine(node),
		EndLine:       endLine(node),
		Signature:     e.buildFunctionSignature(node),
		Doc:           e.bodyDocstring(node),
	}
}

func (e *pythonExtractor) extractClass(node *sitter.Node, path []string) *parser.Symbol {
	name := e.fieldText(node, "name")
	if name == "" {
		return nil
	}

	return &parser.Symbol{
		Name:          name,
		QualifiedName: strings.Join(appendPath(path, name), "."),
		Kind:          parser.SymbolClass,
		StartLine:     startLine(node),
		EndLine:       endLine(node),
		Signature:     e.buildClassSignature(node),
		Doc:           e.bodyDocstring(node),
	}
}

func (e *pythonExtractor) extractAssignments(stmt *sitter.Node) []parser.Symbol {
	symbols := make([]parser.Symbol, 0)
	for i := 0; i < int(stmt.ChildCount()); i++ {
		assignment := stmt.Child(i)
		// a = b = 1 nests the second assignment under "right"
		for assignment != nil && assignment.Type() == "assignment" && !assignment.HasError() {
			for _, name := range e.targetNames(assignment.ChildByFieldName("left")) {
				kind := parser.SymbolVariable
				if isConstantName(name) {
					kind = parser.SymbolConstant
				}
				symbols = append(symbols, parser.Symbol{
					Name:          name,
					QualifiedName: name,
					Kind:          kind,
					StartLine:     startLine(stmt),
					EndLine:       endLine(stmt),
					Signature:     firstLine(stmt.Content(e.content), 120),
				})
			}
			assignment = assignment.ChildByFieldName("right")
		}
	}
	return symbols
}

func (e *pythonExtractor) targetNames(node *sitter.Node) []string {
	if node == nil {
		return nil
	}
	switch node.Type() {
	case "identifier":
		return []string{node.Content(e.content)}
	case "pattern_list", "tuple_pattern", "list_pattern":
		names := make([]string, 0, node.NamedChildCount())
		for i := 0; i < int(node.NamedChildCount()); i++ {
			names = append(names, e.targetNames(node.NamedChild(i))...)
		}
		return names
	}
	// attribute and subscript targets do not declare names
	return nil
}

func (e *pythonExtractor) extractImport(node *sitter.Node) []parser.Import {
	imports := make([]parser.Import, 0)
	line := startLine(node)
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "dotted_name":
			imports = append(imports, parser.Import{Raw: compactImportText(child.Content(e.content)), Line: line})
		case "aliased_import":
			module := e.fieldText(child, "name")
			if module == "" {
				continue
			}
			imports = append(imports, parser.Import{
				Raw:   compactImportText(module),
				Alias: e.fieldText(child, "alias"),
				Line:  line,
			})
		}
	}
	return imports
}

func (e *pythonExtractor) extractFromImport(node *sitter.Node) (parser.Import, bool) {
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil || moduleNode.IsMissing() {
		return parser.Import{}, false
	}
	raw := compactImportText(moduleNode.Content(e.content))
	if raw == "" {
		return parser.Import{}, false
	}

	imp := parser.Import{
		Raw:   raw,
		Level: parser.Raw(raw).Level(),
		Line:  startLine(node),
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if child.Type() == "wildcard_import" {
			imp.Names = append(imp.Names, parser.ImportName{Name: "*"})
			continue
		}
		if node.FieldNameForChild(i) != "name" {
			continue
		}

		switch child.Type() {
		case "aliased_import":
			name := e.fieldText(child, "name")
			if name != "" {
				imp.Names = append(imp.Names, parser.ImportName{Name: name, Alias: e.fieldText(child, "alias")})
			}
		case "dotted_name", "identifier":
			name := strings.TrimSpace(child.Content(e.content))
			if name != "" {
				imp.Names = append(imp.Names, parser.ImportName{Name: name})
			}
		}
	}

	return imp, true
}

func (e *pythonExtractor) buildFunctionSignature(node *sitter.Node) string {
	sig := "def"
	if node.ChildCount() > 0 && node.Child(0).Type() == "async" {
		sig = "async def"
	}
	if name := e.fieldText(node, "name"); name != "" {
		sig += " " + name
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		sig += params.Content(e.content)
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		sig += " -> " + ret.Content(e.content)
	}
	return sig
}

func (e *pythonExtractor) buildClassSignature(node *sitter.Node) string {
	sig := "class"
	if name := e.fieldText(node, "name"); name != "" {
		sig += " " + name
	}
	if superclasses := node.ChildByFieldName("superclasses"); superclasses != nil {
		sig += superclasses.Content(e.content)
	}
	return sig
}

func (e *pythonExtractor) bodyDocstring(node *sitter.Node) string {
	body := node.ChildByFieldName("body")
	if body == nil || body.ChildCount() == 0 {
		return ""
	}
	first := body.Child(0)
	if first.Type() != "expression_statement" || first.ChildCount() == 0 {
		return ""
	}
	expr := first.Child(0)
	if expr.Type() != "string" {
		return ""
	}
	return extractDocstring(expr.Content(e.content))
}

func (e *pythonExtractor) fieldText(node *sitter.Node, field string) string {
	child := node.ChildByFieldName(field)
	if child == nil || child.IsMissing() {
		return ""
	}
	return strings.TrimSpace(child.Content(e.content))
}

// firstErrorLine returns the 1-based line of the first ERROR or MISSING node
// in document order.
func firstErrorLine(root *sitter.Node) int {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node.IsError() || node.IsMissing() {
			return startLine(node)
		}
		for i := int(node.ChildCount()) - 1; i >= 0; i-- {
			if child := node.Child(i); child != nil && (child.HasError() || child.IsMissing()) {
				stack = append(stack, child)
			}
		}
	}
	return startLine(root)
}
