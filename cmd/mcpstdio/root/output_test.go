package root

import (
	"bytes"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func TestPrintTools_Plain(t *testing.T) {
	var buf bytes.Buffer

	err := printTools(&buf, []*mcp.Tool{
		{Name: "add", Description: "Add two numbers.\n\nBoth must be finite."},
		{Name: "noop"},
	}, false)
	require.NoError(t, err)
	require.Equal(t, "add\tAdd two numbers.\nnoop\t\n", buf.String())
}

func TestPrintTools_Markdown(t *testing.T) {
	var buf bytes.Buffer

	err := printTools(&buf, []*mcp.Tool{{Name: "search", Description: "Search the **index**"}}, true)
	require.NoError(t, err)
	out := strings.ToLower(buf.String())
	require.Contains(t, out, "search")
	require.Contains(t, out, "index")
}

func TestPrintTools_Empty(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, printTools(&buf, nil, true))
	require.Equal(t, "No tools.\n", buf.String())
}

func TestToolMarkdown(t *testing.T) {
	md := toolMarkdown(&mcp.Tool{Name: "fetch", Title: "Fetch URL", Description: "Fetches a page."})
	require.Equal(t, "# fetch\n\n*Fetch URL*\n\nFetches a page.\n", md)
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer

	err := printResult(&buf, &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "first"},
			&mcp.TextContent{Text: "second"},
		},
		StructuredContent: map[string]any{"sum": 3},
	})
	require.NoError(t, err)
	require.Equal(t, "first\nsecond\n{\n  \"sum\": 3\n}\n", buf.String())
}

func TestPrintResult_NonTextContent(t *testing.T) {
	var buf bytes.Buffer

	err := printResult(&buf, &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.ImageContent{Data: []byte("png"), MIMEType: "image/png"}},
	})
	require.NoError(t, err)
	require.Contains(t, buf.String(), `"mimeType": "image/png"`)
	require.Contains(t, buf.String(), `"type": "image"`)
}
