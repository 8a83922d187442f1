// Package lsp is a language server for layout files: diagnostics from the
// linter, canonical formatting, document symbols and hover.
package lsp

import (
	"fmt"
	"strings"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/agentic-research/quickdir/internal/linter"
	"github.com/agentic-research/quickdir/internal/rules"
	"github.com/agentic-research/quickdir/internal/tree"
)

const lsName = "quickdir"

var log = commonlog.GetLogger("quickdir.lsp")

type Server struct {
	store   *DocumentStore
	handler protocol.Handler
	version string
}

func NewServer(version string) *Server {
	srv := &Server{store: NewDocumentStore(), version: version}

	srv.handler = protocol.Handler{
		Initialize:                 srv.initialize,
		Initialized:                srv.initialized,
		Shutdown:                   srv.shutdown,
		SetTrace:                   srv.setTrace,
		TextDocumentDidOpen:        srv.didOpen,
		TextDocumentDidChange:      srv.didChange,
		TextDocumentDidSave:        srv.didSave,
		TextDocumentDidClose:       srv.didClose,
		TextDocumentFormatting:     srv.formatting,
		TextDocumentDocumentSymbol: srv.documentSymbol,
		TextDocumentHover:          srv.hover,
	}

	return srv
}

// RunStdio serves the protocol on stdin/stdout until the client exits.
func (srv *Server) RunStdio() error {
	log.Infof("starting %s language server %s", lsName, srv.version)
	return server.NewServer(&srv.handler, lsName, false).RunStdio()
}

func (srv *Server) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	capabilities := srv.handler.CreateServerCapabilities()

	full := protocol.TextDocumentSyncKindFull
	openClose := true
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &openClose,
		Change:    &full,
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &srv.version,
		},
	}, nil
}

func (srv *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (srv *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (srv *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (srv *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	srv.store.Set(uri, params.TextDocument.Text)
	srv.publishDiagnostics(ctx, uri)
	return nil
}

func (srv *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	uri := params.TextDocument.URI

	// Full sync: the last change carries the whole document.
	switch change := params.ContentChanges[len(params.ContentChanges)-1].(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		srv.store.Set(uri, change.Text)
	case map[string]any:
		text, ok := change["text"].(string)
		if !ok {
			return nil
		}
		srv.store.Set(uri, text)
	default:
		log.Warningf("ignoring unsupported content change %T for %s", change, uri)
		return nil
	}
	srv.publishDiagnostics(ctx, uri)
	return nil
}

func (srv *Server) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI
	if params.Text != nil {
		srv.store.Set(uri, *params.Text)
	}
	if _, ok := srv.store.Get(uri); ok {
		srv.publishDiagnostics(ctx, uri)
	}
	return nil
}

func (srv *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	srv.store.Delete(uri)
	// Clear stale markers in the client.
	ctx.Notify("textDocument/publishDiagnostics", &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (srv *Server) publishDiagnostics(ctx *glsp.Context, uri string) {
	text, ok := srv.store.Get(uri)
	if !ok {
		return
	}
	ctx.Notify("textDocument/publishDiagnostics", &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: toDiagnostics(linter.Lint(text)),
	})
}

func toDiagnostics(diags []linter.Diagnostic) []protocol.Diagnostic {
	source := lsName
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		severity := toSeverity(d.Severity)
		line := 0
		if d.Line > 0 {
			line = d.Line - 1
		}
		out = append(out, protocol.Diagnostic{
			Range:    lineRange(line),
			Severity: &severity,
			Source:   &source,
			Message:  d.Message,
		})
	}
	return out
}

func toSeverity(s linter.Severity) protocol.DiagnosticSeverity {
	switch s {
	case linter.SeverityError:
		return protocol.DiagnosticSeverityError
	case linter.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	default:
		return protocol.DiagnosticSeverityInformation
	}
}

// lineRange covers a whole 0-based line.
func lineRange(line int) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: protocol.UInteger(line), Character: 0},
		End:   protocol.Position{Line: protocol.UInteger(line + 1), Character: 0},
	}
}

// formatting replaces the whole document with its canonical form. A document
// without a root is left alone.
func (srv *Server) formatting(_ *glsp.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	text, ok := srv.store.Get(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	formatted, ok := Format(text)
	if !ok || formatted == text {
		return nil, nil
	}
	return []protocol.TextEdit{{
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   protocol.Position{Line: protocol.UInteger(strings.Count(text, "\n") + 1), Character: 0},
		},
		NewText: formatted,
	}}, nil
}

// Format returns the canonical form of text with a trailing newline.
// ok is false when text has no root to expand.
func Format(text string) (string, bool) {
	root := tree.Parse(text)
	if root == nil {
		return "", false
	}
	return tree.Serialize(root) + "\n", true
}

func (srv *Server) documentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	text, ok := srv.store.Get(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	rs := rules.Read(text)
	root, _ := tree.Expand(rs)
	if root == nil {
		return []protocol.DocumentSymbol{}, nil
	}
	lines := declLines(rs)
	return []protocol.DocumentSymbol{toSymbol(root, lines)}, nil
}

// declLines maps each display name to the 0-based line that declares it.
func declLines(rs *rules.RuleSet) map[string]int {
	lines := make(map[string]int, rs.Len())
	for _, sym := range rs.Order {
		name := rs.DisplayName(sym)
		if _, seen := lines[name]; !seen {
			lines[name] = rs.DeclLine(sym) - 1
		}
	}
	return lines
}

func toSymbol(n *tree.Node, lines map[string]int) protocol.DocumentSymbol {
	kind := protocol.SymbolKindPackage
	if n.IsLeaf() {
		kind = protocol.SymbolKindFile
	}
	detail := tree.AddressOf(n).String()
	line, ok := lines[n.Name]
	if !ok {
		line = 0
	}
	sym := protocol.DocumentSymbol{
		Name:           n.Name,
		Detail:         &detail,
		Kind:           kind,
		Range:          lineRange(line),
		SelectionRange: lineRange(line),
	}
	for _, c := range n.Children {
		sym.Children = append(sym.Children, toSymbol(c, lines))
	}
	return sym
}

func (srv *Server) hover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := srv.store.Get(params.TextDocument.URI)
	if !ok {
		return nil, nil // LSP protocol expects nil hover when no document found.
	}

	word := wordAt(text, int(params.Position.Line), int(params.Position.Character))
	if word == "" {
		return nil, nil
	}
	doc, ok := Describe(tree.Parse(text), word)
	if !ok {
		return nil, nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: doc,
		},
	}, nil
}

// Describe renders the first node named name as markdown.
func Describe(root *tree.Node, name string) (string, bool) {
	var found *tree.Node
	root.Walk(func(n *tree.Node) bool {
		if found == nil && n.Name == name {
			found = n
		}
		return found == nil
	})
	if found == nil {
		return "", false
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s** `%s`\n\n", found.Name, tree.AddressOf(found))
	if found.IsLeaf() {
		b.WriteString("leaf")
		return b.String(), true
	}
	names := make([]string, len(found.Children))
	for i, c := range found.Children {
		names[i] = c.Name
	}
	fmt.Fprintf(&b, "%d children: %s", len(names), strings.Join(names, ", "))
	return b.String(), true
}

// wordAt returns the symbol under the cursor.
func wordAt(text string, line, character int) string {
	lines := strings.Split(text, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	lineText := lines[line]
	if character > len(lineText) {
		character = len(lineText)
	}

	start := character
	for start > 0 && isSymbolChar(lineText[start-1]) {
		start--
	}
	end := character
	for end < len(lineText) && isSymbolChar(lineText[end]) {
		end++
	}
	return lineText[start:end]
}

func isSymbolChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') || ch == '_' || ch == '-'
}
