// Package mcpserver exposes layout parsing and editing as MCP tools.
// Every tool takes the layout source and is stateless: edits return the new
// canonical source instead of updating a buffer.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/tliron/commonlog"

	"github.com/agentic-research/quickdir/internal/linter"
	"github.com/agentic-research/quickdir/internal/tree"
)

const serverName = "quickdir"

var log = commonlog.GetLogger("quickdir.mcp")

var errNoRoot = errors.New("source has no root declaration")

// New returns an MCP server with the layout tools registered.
func New(version string) *server.MCPServer {
	s := server.NewMCPServer(serverName, version, server.WithToolCapabilities(false))

	source := mcp.WithString("source",
		mcp.Required(),
		mcp.Description("Layout source in either grammar"),
	)

	s.AddTool(mcp.NewTool("parse",
		mcp.WithDescription("Expand a layout and return its tree outline"),
		source,
	), handleParse)

	s.AddTool(mcp.NewTool("format",
		mcp.WithDescription("Return the canonical form of a layout"),
		source,
	), handleFormat)

	s.AddTool(mcp.NewTool("lint",
		mcp.WithDescription("Report unrecognized lines, redeclarations, cycles and unreachable symbols"),
		source,
	), handleLint)

	s.AddTool(mcp.NewTool("rename",
		mcp.WithDescription("Rename the node at an address and return the new source"),
		source,
		mcp.WithString("address", mcp.Required(), mcp.Description("Node address, <level>-<name>")),
		mcp.WithString("name", mcp.Required(), mcp.Description("New name")),
	), handleRename)

	s.AddTool(mcp.NewTool("delete",
		mcp.WithDescription("Delete the node at an address with its subtree and return the new source"),
		source,
		mcp.WithString("address", mcp.Required(), mcp.Description("Node address, <level>-<name>")),
	), handleDelete)

	s.AddTool(mcp.NewTool("add",
		mcp.WithDescription("Add a folder or file under a parent and return the new source"),
		source,
		mcp.WithString("parent", mcp.Required(), mcp.Description("Parent address, <level>-<name>")),
		mcp.WithString("kind", mcp.Description("folder or file"), mcp.Enum("folder", "file"), mcp.DefaultString("folder")),
	), handleAdd)

	s.AddTool(mcp.NewTool("move",
		mcp.WithDescription("Move a subtree under another node and return the new source"),
		source,
		mcp.WithString("from", mcp.Required(), mcp.Description("Address of the node to move")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Address of the new parent")),
	), handleMove)

	return s
}

// ServeStdio runs s on stdin/stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	log.Infof("starting %s MCP server on stdio", serverName)
	return server.ServeStdio(s)
}

func parseSource(req mcp.CallToolRequest) (*tree.Node, error) {
	src, err := req.RequireString("source")
	if err != nil {
		return nil, err
	}
	root := tree.Parse(src)
	if root == nil {
		return nil, errNoRoot
	}
	return root, nil
}

func requireAddress(req mcp.CallToolRequest, key string) (tree.Address, error) {
	s, err := req.RequireString(key)
	if err != nil {
		return tree.Address{}, err
	}
	return tree.ParseAddress(s)
}

func handleParse(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := parseSource(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(tree.Dump(root)), nil
}

func handleFormat(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := parseSource(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(tree.Serialize(root)), nil
}

func handleLint(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	diags := linter.Lint(src)
	if len(diags) == 0 {
		return mcp.NewToolResultText("no problems found"), nil
	}
	lines := make([]string, len(diags))
	for i, d := range diags {
		lines[i] = d.String()
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

// edit parses the source, applies fn and returns the re-serialized tree.
func edit(req mcp.CallToolRequest, fn func(*tree.Node) (*tree.Node, error)) *mcp.CallToolResult {
	root, err := parseSource(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	out, err := fn(root)
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(tree.Serialize(out))
}

func handleRename(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	addr, err := requireAddress(req, "address")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return edit(req, func(root *tree.Node) (*tree.Node, error) {
		return tree.Rename(root, addr, name)
	}), nil
}

func handleDelete(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	addr, err := requireAddress(req, "address")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return edit(req, func(root *tree.Node) (*tree.Node, error) {
		return tree.Delete(root, addr)
	}), nil
}

func handleAdd(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	parent, err := requireAddress(req, "parent")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	kind, err := tree.ParseKind(req.GetString("kind", "folder"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var created string
	res := edit(req, func(root *tree.Node) (*tree.Node, error) {
		out, name, err := tree.Add(root, parent, kind)
		created = name
		return out, err
	})
	if !res.IsError {
		res.Content = append(res.Content, mcp.NewTextContent(fmt.Sprintf("created %s", created)))
	}
	return res, nil
}

func handleMove(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := requireAddress(req, "from")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := requireAddress(req, "to")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return edit(req, func(root *tree.Node) (*tree.Node, error) {
		return tree.Move(root, from, to)
	}), nil
}
