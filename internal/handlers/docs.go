package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/russross/blackfriday/v2"
)

type DocsHandler struct{}

func NewDocsHandler() *DocsHandler {
	return &DocsHandler{}
}

// ServeMarkdownAsHTML serves Markdown files as HTML with consistent styling
func (h *DocsHandler) ServeMarkdownAsHTML(c *gin.Context) {
	docName := c.Param("doc")
	if docName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Document name required"})
		return
	}

	// Security: Only allow specific documentation files
	allowedDocs := map[string]string{
		"README": "README.md",
		"API":    "API.md",
	}

	fileName, exists := allowedDocs[docName]
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	content, err := os.ReadFile(filepath.Join(".", fileName))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	extensions := blackfriday.CommonExtensions | blackfriday.AutoHeadingIDs
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.CommonHTMLFlags,
	})
	htmlContent := blackfriday.Run(content, blackfriday.WithRenderer(renderer), blackfriday.WithExtensions(extensions))

	title := strings.ReplaceAll(docName, "_", " ")
	html := h.wrapWithTheme(string(htmlContent), title)
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, html)
}

// wrapWithTheme wraps the HTML content with consistent styling
func (h *DocsHandler) wrapWithTheme(content, title string) string {
	return `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>` + title + ` - isthatslop</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            line-height: 1.6;
            color: #333;
            background: #f8f9fa;
            padding: 20px;
        }
        .container { max-width: 900px; margin: 0 auto; background: white; padding: 2rem; border-radius: 12px; }
        pre { background: #1e293b; color: #e2e8f0; padding: 1rem; border-radius: 6px; overflow-x: auto; }
        code { font-size: 0.9em; }
        h1, h2, h3 { color: #1e293b; }
        a { color: #3b82f6; }
    </style>
</head>
<body>
    <div class="container">` + content + `</div>
</body>
</html>`
}
