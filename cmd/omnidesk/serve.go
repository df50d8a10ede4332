package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/omnidesk/omnidesk/internal/automation"
	"github.com/omnidesk/omnidesk/internal/config"
	"github.com/omnidesk/omnidesk/internal/customer"
	"github.com/omnidesk/omnidesk/internal/db"
	dbsqlc "github.com/omnidesk/omnidesk/internal/db/sqlc"
	"github.com/omnidesk/omnidesk/internal/handlers"
	"github.com/omnidesk/omnidesk/internal/inbound"
	"github.com/omnidesk/omnidesk/internal/logger"
	"github.com/omnidesk/omnidesk/internal/message"
	messageevent "github.com/omnidesk/omnidesk/internal/message/event"
	"github.com/omnidesk/omnidesk/internal/notify"
	"github.com/omnidesk/omnidesk/internal/outbound"
	"github.com/omnidesk/omnidesk/internal/provider"
	"github.com/omnidesk/omnidesk/internal/server"
	"github.com/omnidesk/omnidesk/internal/thread"
	"github.com/omnidesk/omnidesk/internal/version"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the engine: webhooks, operator API, and notification dispatch",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath(cmd))
		},
	}
}

func runServe(cfgPath string) error {
	fx.New(
		fx.Provide(
			func() (config.Config, error) {
				cfg, err := config.Load(cfgPath)
				if err != nil {
					return config.Config{}, fmt.Errorf("load config: %w", err)
				}
				return cfg, nil
			},
			provideLogger,
			provideDBConn,
			provideDBQueries,

			messageevent.NewHub,
			customer.NewService,
			thread.NewService,
			provideMessageService,
			provideRegistry,
			provideNotifier,
			provideRuleEngine,
			provideOutboundService,
			provideInboundPipeline,

			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(provideWebhookHandler),
			provideServerHandler(provideThreadHandler),
			provideServerHandler(handlers.NewCustomerHandler),

			provideServer,
		),
		fx.Invoke(startServer),
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log.With(slog.String("component", "fx"))}
		}),
	).Run()
	return nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			conn.Close()
			return nil
		},
	})
	return conn, nil
}

func provideDBQueries(conn *pgxpool.Pool) *dbsqlc.Queries {
	return dbsqlc.New(conn)
}

func provideMessageService(log *slog.Logger, queries *dbsqlc.Queries, hub *messageevent.Hub) *message.DBService {
	return message.NewService(log, queries, hub)
}

// provideRegistry wires one sender per configured provider. Unconfigured
// providers leave their channels unroutable; outbound sends on those channels
// fail with an unknown channel result.
func provideRegistry(log *slog.Logger, cfg config.Config) *provider.Registry {
	var conversations, socialGraph, professional, email provider.Sender
	if strings.TrimSpace(cfg.Providers.Twilio.AccountSID) != "" {
		conversations = provider.NewTwilioSender(log, cfg.Providers.Twilio)
	}
	if strings.TrimSpace(cfg.Providers.Meta.PageAccessToken) != "" {
		socialGraph = provider.NewMetaSender(log, cfg.Providers.Meta)
	}
	if strings.TrimSpace(cfg.Providers.LinkedIn.AccessToken) != "" {
		professional = provider.NewLinkedInSender(log, cfg.Providers.LinkedIn)
	}
	if strings.TrimSpace(cfg.Providers.Email.Provider) != "" {
		email = provider.NewEmailSender(log, cfg.Providers.Email)
	}
	return provider.NewRegistry(conversations, socialGraph, professional, email)
}

func provideNotifier(log *slog.Logger, cfg config.Config, threadService *thread.Service) notify.Gateway {
	if strings.TrimSpace(cfg.Slack.BotToken) == "" {
		log.Info("no workspace token configured, notifications disabled")
		return notify.NoopGateway{}
	}
	return notify.NewSlackGateway(log, cfg.Slack, threadService)
}

func provideRuleEngine(log *slog.Logger, cfg config.Config) (*automation.Engine, error) {
	return automation.LoadRules(log, cfg.Engine.RulesPath)
}

func provideOutboundService(log *slog.Logger, cfg config.Config, threadService *thread.Service, messageService *message.DBService, registry *provider.Registry, notifier notify.Gateway) *outbound.Service {
	return outbound.NewService(log, threadService, messageService, registry, notifier, cfg.Engine.SendTimeout(), cfg.Engine.PreviewLength)
}

func provideInboundPipeline(log *slog.Logger, cfg config.Config, customerService *customer.Service, threadService *thread.Service, messageService *message.DBService, engine *automation.Engine, replyService *outbound.Service, notifier notify.Gateway) *inbound.Pipeline {
	return inbound.NewPipeline(log, customerService, threadService, messageService, engine, replyService, notifier, cfg.Engine.PreviewLength)
}

func provideWebhookHandler(log *slog.Logger, pipeline *inbound.Pipeline) *handlers.WebhookHandler {
	return handlers.NewWebhookHandler(log, pipeline)
}

func provideThreadHandler(log *slog.Logger, threadService *thread.Service, messageService *message.DBService, replyService *outbound.Service, hub *messageevent.Hub) *handlers.ThreadHandler {
	return handlers.NewThreadHandler(log, threadService, messageService, replyService, hub)
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.Config.Server.Addr, params.Config.Auth.JWTSecret, params.ServerHandlers...)
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	fmt.Printf("Starting omnidesk %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && err != http.ErrServerClosed {
					log.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Stop(ctx)
		},
	})
}
