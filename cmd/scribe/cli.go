package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/scribe/internal/auth"
	"github.com/hpungsan/scribe/internal/errors"
	"github.com/hpungsan/scribe/internal/mcp"
	"github.com/hpungsan/scribe/internal/ops"
	"github.com/hpungsan/scribe/internal/post"
	"github.com/hpungsan/scribe/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *appEnv) *cli.App {
	app := &cli.App{
		Name:    "scribe",
		Usage:   "Slug-keyed blog post store with an admin-gated editor",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Value:   defaultBaseDir(),
				EnvVars: []string{"SCRIBE_DIR"},
				Usage:   "Directory holding config.json and the post store",
			},
		},
		Commands: []*cli.Command{
			serveCmd(env),
			mcpCmd(env),
			listCmd(env),
			getCmd(env),
			createCmd(env),
			updateCmd(env),
			deleteCmd(env),
			exportCmd(env),
			importCmd(env),
		},
		After: func(_ *cli.Context) error {
			return env.close()
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// withEnv opens the store before running action.
func withEnv(env *appEnv, action cli.ActionFunc) cli.ActionFunc {
	return func(c *cli.Context) error {
		baseDir := c.String("dir")
		if baseDir == "" {
			return outputError(errors.NewConfiguration("could not determine home directory; pass --dir"))
		}
		if err := env.open(baseDir); err != nil {
			return outputError(err)
		}
		return action(c)
	}
}

// serveCmd creates the serve command.
func serveCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web UI",
		Description: "The admin is identified by the user_header request header (default X-Forwarded-Email).\n" +
			"That header is trusted as sent, so serve must sit behind an auth proxy that sets it\n" +
			"and strips any client-supplied copy. Without one, any client that can reach the\n" +
			"listener can claim to be the admin.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Listen address (overrides config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (overrides config)"},
		},
		Action: withEnv(env, func(c *cli.Context) error {
			bind, port := env.cfg.Bind, env.cfg.Port
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			if c.IsSet("port") {
				port = c.Int("port")
			}

			logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, nil))
			logger.Warn("identity header is trusted as sent; run behind an auth proxy that sets it",
				"header", env.cfg.UserHeader)
			srv, err := web.NewServer(web.Deps{
				Store:      env.store,
				Authorizer: env.az,
				Resolver:   auth.HeaderResolver{Header: env.cfg.UserHeader},
				Logger:     logger,
				Version:    Version,
			}, bind, port)
			if err != nil {
				return outputError(err)
			}
			return web.Run(srv, logger)
		}),
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP tool server over stdio (tools act as the configured admin)",
		Action: withEnv(env, func(c *cli.Context) error {
			if unknown := mcp.ValidateDisabledTools(env.cfg.DisabledTools); len(unknown) > 0 {
				return outputError(errors.NewConfiguration("unknown disabled_tools: " + strings.Join(unknown, ", ")))
			}
			return mcp.Run(env.store, env.az, env.cfg, Version)
		}),
	}
}

// listCmd creates the list command.
func listCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List all posts",
		Action: withEnv(env, func(c *cli.Context) error {
			output, err := ops.List(c.Context, env.store)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		}),
	}
}

// getCmd creates the get command.
func getCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print a post by slug",
		ArgsUsage: "<slug>",
		Action: withEnv(env, func(c *cli.Context) error {
			output, err := ops.Fetch(c.Context, env.store, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		}),
	}
}

// createCmd creates the create command.
func createCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a post (reads markdown from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Required: true, Usage: "Post title"},
			&cli.StringFlag{Name: "slug", Aliases: []string{"s"}, Usage: "Post slug (derived from the title if omitted)"},
		},
		Action: withEnv(env, func(c *cli.Context) error {
			if !stdinHasData(c.App.Reader) {
				return outputError(errors.NewInvalidRequest("markdown must be piped via stdin"))
			}
			markdown, err := readAll(c.App.Reader)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			slug := c.String("slug")
			if slug == "" {
				slug = post.MakeSlug(c.String("title"))
			}

			return submit(c, env, ops.SubmitInput{
				Target:   post.NewSlug,
				Intent:   string(ops.IntentCreate),
				Title:    c.String("title"),
				Slug:     slug,
				Markdown: markdown,
			})
		}),
	}
}

// updateCmd creates the update command.
func updateCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Update a post (optionally reads new markdown from stdin)",
		ArgsUsage: "<slug>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title"},
			&cli.StringFlag{Name: "slug", Aliases: []string{"s"}, Usage: "New slug (renames the post)"},
		},
		Action: withEnv(env, func(c *cli.Context) error {
			target := c.Args().First()
			if target == "" || ops.IsNewTarget(target) {
				return outputError(errors.NewInvalidRequest("slug of an existing post is required"))
			}

			current, err := ops.Fetch(c.Context, env.store, target)
			if err != nil {
				return outputError(err)
			}
			fields := current.Fields()

			if c.IsSet("title") {
				fields.Title = c.String("title")
			}
			if c.IsSet("slug") {
				fields.Slug = c.String("slug")
			}
			if stdinHasData(c.App.Reader) {
				markdown, err := readAll(c.App.Reader)
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				if strings.TrimSpace(markdown) != "" {
					fields.Markdown = markdown
				}
			}

			return submit(c, env, ops.SubmitInput{
				Target:   target,
				Intent:   string(ops.IntentUpdate),
				Title:    fields.Title,
				Slug:     fields.Slug,
				Markdown: fields.Markdown,
			})
		}),
	}
}

// deleteCmd creates the delete command.
func deleteCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Permanently delete a post",
		ArgsUsage: "<slug>",
		Action: withEnv(env, func(c *cli.Context) error {
			slug := c.Args().First()
			output, err := ops.Submit(c.Context, env.store, env.az, env.az.Admin(), ops.SubmitInput{
				Target: slug,
				Intent: string(ops.IntentDelete),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, map[string]any{"slug": slug, "deleted": output.Deleted})
		}),
	}
}

// exportCmd creates the export command.
func exportCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export all posts to <path>/<slug>.md files",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Required: true, Usage: "Destination directory"},
		},
		Action: withEnv(env, func(c *cli.Context) error {
			output, err := ops.Export(c.Context, env.store, ops.ExportInput{Dir: c.String("path")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		}),
	}
}

// importCmd creates the import command.
func importCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import posts from <path>/*.md files",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Required: true, Usage: "Source directory"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|skip"},
		},
		Action: withEnv(env, func(c *cli.Context) error {
			output, err := ops.Import(c.Context, env.store, env.az, env.az.Admin(), ops.ImportInput{
				Dir:  c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		}),
	}
}

// Helper functions

// submit runs a create or update as the admin and prints the stored post.
func submit(c *cli.Context, env *appEnv, input ops.SubmitInput) error {
	output, err := ops.Submit(c.Context, env.store, env.az, env.az.Admin(), input)
	if err != nil {
		return outputError(err)
	}
	if output.Failed() {
		return outputError(errors.NewValidationFailed(output.Errors.Map()))
	}
	return outputJSON(c.App.Writer, output.Post)
}

// outputJSON marshals result to w as JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var sErr *errors.ScribeError
	if !stderrors.As(err, &sErr) {
		return cli.Exit(err.Error(), 1)
	}
	msg := fmt.Sprintf("[%s] %s", sErr.Code, sErr.Message)
	if sErr.Code == errors.ErrValidationFailed {
		for _, field := range []string{"title", "slug", "markdown"} {
			if m, ok := sErr.Details[field]; ok {
				msg += fmt.Sprintf("\n  %s: %v", field, m)
			}
		}
	}
	return cli.Exit(msg, 1)
}

// stdinHasData reports whether r has piped data. Non-file readers always count.
func stdinHasData(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return true
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readAll reads all content from r.
func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
