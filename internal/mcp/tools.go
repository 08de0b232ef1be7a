package mcp

import "github.com/mark3labs/mcp-go/mcp"

var listToolDef = mcp.NewTool("post_list",
	mcp.WithDescription("List all blog posts ordered by slug. Returns slug, title, markdown and timestamps for each post."),
)

var getToolDef = mcp.NewTool("post_get",
	mcp.WithDescription("Fetch a single blog post by slug."),
	mcp.WithString("slug", mcp.Required(), mcp.Description("Slug of the post")),
)

var createToolDef = mcp.NewTool("post_create",
	mcp.WithDescription("Create a blog post. Title, slug and markdown are all required; the slug must be unique and URL-safe. A validation failure returns per-field errors."),
	mcp.WithString("title", mcp.Required(), mcp.Description("Post title")),
	mcp.WithString("slug", mcp.Required(), mcp.Description("URL-safe slug (lowercase letters, numbers, hyphens)")),
	mcp.WithString("markdown", mcp.Required(), mcp.Description("Post body in markdown")),
)

var updateToolDef = mcp.NewTool("post_update",
	mcp.WithDescription("Replace the title, slug and markdown of an existing post. Setting a different slug renames the post; renaming onto another post's slug fails."),
	mcp.WithString("target", mcp.Required(), mcp.Description("Current slug of the post to update")),
	mcp.WithString("title", mcp.Required(), mcp.Description("New title")),
	mcp.WithString("slug", mcp.Required(), mcp.Description("New slug (same as target to keep it)")),
	mcp.WithString("markdown", mcp.Required(), mcp.Description("New markdown body")),
)

var deleteToolDef = mcp.NewTool("post_delete",
	mcp.WithDescription("Permanently delete a blog post by slug."),
	mcp.WithString("slug", mcp.Required(), mcp.Description("Slug of the post to delete")),
)

var exportToolDef = mcp.NewTool("post_export",
	mcp.WithDescription("Export every post to <dir>/<slug>.md with YAML front matter."),
	mcp.WithString("dir", mcp.Required(), mcp.Description("Destination directory (created if missing)")),
)

var importToolDef = mcp.NewTool("post_import",
	mcp.WithDescription("Import posts from <dir>/*.md files written by post_export."),
	mcp.WithString("dir", mcp.Required(), mcp.Description("Source directory")),
	mcp.WithString("mode", mcp.Description("error (default): import nothing if any file fails; skip: import the rest"), mcp.Enum("error", "skip")),
)
