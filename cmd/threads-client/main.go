package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/pribylovaa/webthreads/internal/client"
	"github.com/pribylovaa/webthreads/internal/config"
	"github.com/pribylovaa/webthreads/internal/failover"
	"github.com/pribylovaa/webthreads/internal/models"
	"github.com/pribylovaa/webthreads/internal/reaction"
	"github.com/pribylovaa/webthreads/internal/registry"
	"github.com/pribylovaa/webthreads/internal/replytree"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := &cli.Command{
		Name:  "threads-client",
		Usage: "comment threads client with local/cloud failover",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to client config file",
				Sources: cli.EnvVars("CONFIG_PATH"),
			},
			&cli.StringFlag{
				Name:    "name",
				Usage:   "author display name",
				Sources: cli.EnvVars("WEBTHREADS_USER_NAME"),
			},
			&cli.StringFlag{
				Name:    "email",
				Usage:   "author email (identity for edits and reactions)",
				Sources: cli.EnvVars("WEBTHREADS_USER_EMAIL"),
			},
		},
		Commands: []*cli.Command{
			serverCommands(),
			commentCommands(),
			replyCommands(),
			reactCommand(),
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// session — собранный стек клиента на время одной команды.
type session struct {
	api   *client.Client
	fo    *failover.Client
	close func()
}

func connect(ctx context.Context, cmd *cli.Command) (*session, error) {
	cfg, err := config.LoadClient(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	log := setupLogger(cfg.Env)

	var (
		prefs   registry.PreferenceStore = registry.NewMemoryPreferences()
		closeFn                          = func() {}
	)
	if cfg.Preferences.RedisURL != "" {
		rp, err := registry.NewRedisPreferences(ctx, cfg.Preferences.RedisURL, cfg.Preferences.Key)
		if err != nil {
			log.Warn("redis_preferences_unavailable", slog.String("err", err.Error()))
		} else {
			prefs = rp
			closeFn = func() { _ = rp.Close() }
		}
	}

	reg := registry.FromConfig(cfg.Servers, prefs)
	fo := failover.New(reg, failover.Options{
		Timeout:       cfg.Timeouts.Request,
		HealthTimeout: cfg.Timeouts.Health,
		Logger:        log,
	})

	return &session{api: client.New(fo), fo: fo, close: closeFn}, nil
}

// withSession подключается, выбирает сервер и выполняет fn.
func withSession(fn func(ctx context.Context, cmd *cli.Command, s *session) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		s, err := connect(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.close()

		if _, err := s.fo.Init(ctx); err != nil {
			return err
		}
		return fn(ctx, cmd, s)
	}
}

func serverCommands() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "server selection",
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "probe every enabled server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s, err := connect(ctx, cmd)
					if err != nil {
						return err
					}
					defer s.close()

					type status struct {
						Key         string `json:"key"`
						DisplayName string `json:"displayName"`
						BaseURL     string `json:"baseUrl"`
						Healthy     bool   `json:"healthy"`
					}

					var out []status
					for _, d := range s.fo.Registry().Candidates() {
						out = append(out, status{
							Key:         d.Key,
							DisplayName: d.DisplayName,
							BaseURL:     d.BaseURL,
							Healthy:     s.fo.HealthCheck(ctx, d),
						})
					}
					return printJSON(out)
				},
			},
			{
				Name:  "select",
				Usage: "pick the first healthy server and remember it",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s, err := connect(ctx, cmd)
					if err != nil {
						return err
					}
					defer s.close()

					d, err := s.fo.SelectWorkingServer(ctx)
					if err != nil {
						return err
					}
					return printJSON(d)
				},
			},
			{
				Name:      "use",
				Usage:     "switch to a server explicitly",
				ArgsUsage: "<local|cloud>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() < 1 {
						return fmt.Errorf("usage: threads-client server use <local|cloud>")
					}

					s, err := connect(ctx, cmd)
					if err != nil {
						return err
					}
					defer s.close()

					key := cmd.Args().Get(0)
					if err := s.fo.Registry().SetCurrent(ctx, key); err != nil {
						return err
					}

					d, _ := s.fo.Registry().Get(key)
					return printJSON(d)
				},
			},
		},
	}
}

func commentCommands() *cli.Command {
	return &cli.Command{
		Name:    "comment",
		Aliases: []string{"c"},
		Usage:   "comment operations",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "list comments for a page",
				ArgsUsage: "<url>",
				Action: withSession(func(ctx context.Context, cmd *cli.Command, s *session) error {
					if cmd.Args().Len() < 1 {
						return fmt.Errorf("usage: threads-client comment list <url>")
					}
					out, err := s.api.ListComments(ctx, cmd.Args().Get(0))
					if err != nil {
						return err
					}
					return printJSON(out)
				}),
			},
			{
				Name:      "get",
				Usage:     "get comment by id",
				ArgsUsage: "<id>",
				Action: withSession(func(ctx context.Context, cmd *cli.Command, s *session) error {
					if cmd.Args().Len() < 1 {
						return fmt.Errorf("usage: threads-client comment get <id>")
					}
					out, err := s.api.Comment(ctx, cmd.Args().Get(0))
					if err != nil {
						return err
					}
					return printJSON(out)
				}),
			},
			{
				Name:      "post",
				Usage:     "post a comment on a page",
				ArgsUsage: "<url> <text>",
				Action: withSession(func(ctx context.Context, cmd *cli.Command, s *session) error {
					if cmd.Args().Len() < 2 {
						return fmt.Errorf("usage: threads-client comment post <url> <text>")
					}
					out, err := s.api.CreateComment(ctx, models.CreateCommentRequest{
						URL:  cmd.Args().Get(0),
						Text: cmd.Args().Get(1),
						User: currentUser(cmd),
					})
					if err != nil {
						return err
					}
					return printJSON(out)
				}),
			},
			{
				Name:      "edit",
				Usage:     "edit own comment",
				ArgsUsage: "<id> <text>",
				Action: withSession(func(ctx context.Context, cmd *cli.Command, s *session) error {
					if cmd.Args().Len() < 2 {
						return fmt.Errorf("usage: threads-client comment edit <id> <text>")
					}
					out, err := s.api.EditComment(ctx, cmd.Args().Get(0), cmd.Args().Get(1), cmd.String("email"))
					if err != nil {
						return err
					}
					return printJSON(out)
				}),
			},
			{
				Name:      "delete",
				Usage:     "delete own comment with its replies",
				ArgsUsage: "<id>",
				Action: withSession(func(ctx context.Context, cmd *cli.Command, s *session) error {
					if cmd.Args().Len() < 1 {
						return fmt.Errorf("usage: threads-client comment delete <id>")
					}
					msg, err := s.api.DeleteComment(ctx, cmd.Args().Get(0), cmd.String("email"))
					if err != nil {
						return err
					}
					return printJSON(models.MessageResponse{Message: msg})
				}),
			},
		},
	}
}

func replyCommands() *cli.Command {
	return &cli.Command{
		Name:    "reply",
		Aliases: []string{"r"},
		Usage:   "reply operations",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "reply to a comment or to another reply",
				ArgsUsage: "<commentId> <text>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "parent", Usage: "parent reply id; empty replies to the comment"},
				},
				Action: withSession(func(ctx context.Context, cmd *cli.Command, s *session) error {
					if cmd.Args().Len() < 2 {
						return fmt.Errorf("usage: threads-client reply add [--parent id] <commentId> <text>")
					}
					out, err := s.api.AddReply(ctx, cmd.Args().Get(0), models.CreateReplyRequest{
						Text:          cmd.Args().Get(1),
						User:          currentUser(cmd),
						ParentReplyID: cmd.String("parent"),
					})
					if err != nil {
						return err
					}
					return printJSON(out)
				}),
			},
			{
				Name:      "edit",
				Usage:     "edit own reply",
				ArgsUsage: "<commentId> <replyId> <text>",
				Action: withSession(func(ctx context.Context, cmd *cli.Command, s *session) error {
					if cmd.Args().Len() < 3 {
						return fmt.Errorf("usage: threads-client reply edit <commentId> <replyId> <text>")
					}
					out, err := s.api.EditReply(ctx, cmd.Args().Get(0), cmd.Args().Get(1), cmd.Args().Get(2), cmd.String("email"))
					if err != nil {
						return err
					}
					return printJSON(out)
				}),
			},
			{
				Name:      "delete",
				Usage:     "delete own reply with its subtree",
				ArgsUsage: "<commentId> <replyId>",
				Action: withSession(func(ctx context.Context, cmd *cli.Command, s *session) error {
					if cmd.Args().Len() < 2 {
						return fmt.Errorf("usage: threads-client reply delete <commentId> <replyId>")
					}
					out, err := s.api.DeleteReply(ctx, cmd.Args().Get(0), cmd.Args().Get(1), cmd.String("email"))
					if err != nil {
						return err
					}
					return printJSON(out)
				}),
			},
		},
	}
}

func reactCommand() *cli.Command {
	return &cli.Command{
		Name:      "react",
		Usage:     "toggle a reaction on a comment or reply",
		ArgsUsage: "<commentId> <like|dislike|trust|distrust>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "reply", Usage: "reply id; empty reacts to the comment"},
		},
		Action: withSession(func(ctx context.Context, cmd *cli.Command, s *session) error {
			if cmd.Args().Len() < 2 {
				return fmt.Errorf("usage: threads-client react [--reply id] <commentId> <type>")
			}
			action, err := reaction.ParseAction(cmd.Args().Get(1))
			if err != nil {
				return err
			}

			email, replyID := cmd.String("email"), cmd.String("reply")
			out, err := s.api.React(ctx, cmd.Args().Get(0), replyID, string(action), email)
			if err != nil {
				return err
			}

			target := out.Reactions
			if replyID != "" {
				r, ok := replytree.Find(out.Replies, replyID)
				if !ok {
					return fmt.Errorf("reply %s not found in response", replyID)
				}
				target = r.Reactions
			}

			// Реакция — переключатель: после повторного вызова состояние пустое.
			return printJSON(struct {
				State   reaction.Action `json:"state"`
				Comment *models.Comment `json:"comment"`
			}{
				State:   reaction.State(target, action.Axis(), email),
				Comment: out,
			})
		}),
	}
}

func currentUser(cmd *cli.Command) models.User {
	return models.User{Name: cmd.String("name"), Email: cmd.String("email")}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// setupLogger пишет в stderr: stdout занят JSON-выводом команд.
func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	default:
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}
