// Package app assembles the survey bot: infrastructure bootstrap, service
// wiring, and the Telegram runtime options.
package app

import (
	"context"
	"fmt"

	"github.com/m3rciful/surveybot/core/bootstrap"
	tg "github.com/m3rciful/surveybot/core/telegram"
	"github.com/m3rciful/surveybot/core/telegram/router"
	"github.com/m3rciful/surveybot/core/telegram/sender"
	"github.com/m3rciful/surveybot/core/telegram/state"
	"github.com/m3rciful/surveybot/core/telegram/ui"
	"github.com/m3rciful/surveybot/internal/bot"
	"github.com/m3rciful/surveybot/internal/feedback"
	"github.com/m3rciful/surveybot/internal/storage"
	"github.com/m3rciful/surveybot/internal/survey"
)

// services groups the wired domain services.
type services struct {
	presenter *bot.Presenter
	surveys   *survey.Engine
	feedback  *feedback.Router
	states    state.Manager
	handlers  *bot.Handlers
}

// serviceProvider wires services from configuration and storage. The outbound
// dispatcher is created separately because its lifetime is owned by the
// Telegram runtime.
func serviceProvider(dispatcher *sender.Dispatcher) bootstrap.TypedServiceProviderFunc[*services] {
	return func(_ context.Context, cfgAny interface{}, st bootstrap.Storage) (*services, error) {
		cfg, ok := cfgAny.(*Config)
		if !ok {
			return nil, fmt.Errorf("app: unexpected config type %T", cfgAny)
		}
		store, ok := st.(*storage.Store)
		if !ok {
			return nil, fmt.Errorf("app: unexpected storage type %T", st)
		}

		presenter := bot.NewPresenter(dispatcher, store)
		surveys := survey.New(store, presenter)
		fb := feedback.NewRouter(store, presenter, cfg.Telegram.AdminID)
		states := state.NewMemoryManager()
		handlers := bot.NewHandlers(store, surveys, fb, states)

		return &services{
			presenter: presenter,
			surveys:   surveys,
			feedback:  fb,
			states:    states,
			handlers:  handlers,
		}, nil
	}
}

// App is the assembled bot, ready to produce Telegram run options.
type App struct {
	cfg        *Config
	dispatcher *sender.Dispatcher
	svc        *services
}

// Bootstrap initializes the logger, the database (with migrations), and the
// domain services.
func Bootstrap(cfg *Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	store := storage.New(res.DB)
	dispatcher := sender.NewDispatcher(sender.Options{})

	svc, err := serviceProvider(dispatcher).ProvideTyped(context.Background(), cfg, store)
	if err != nil {
		return nil, err
	}

	return &App{cfg: cfg, dispatcher: dispatcher, svc: svc}, nil
}

// TelegramRunOptions builds the registry, routes, and middleware chain for
// the Telegram runtime.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := tg.NewRegistry()
	a.svc.handlers.Register(reg)

	texts := bot.NewTextDispatcher(a.svc.surveys, a.svc.feedback, a.svc.states, reg)

	var fallbacks ui.FallbackProvider = a.svc.handlers

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID:       a.cfg.Telegram.AdminID,
		OnAdminReject: a.svc.handlers.AdminReject(),
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{
		NotFound: fallbacks.UnknownCallback(),
	}))
	routes = append(routes, router.TextRoutes(texts, reg, router.TextOptions{
		UnknownText:     fallbacks.UnknownText(),
		UnknownDocument: fallbacks.UnknownDocument(),
	})...)

	mws := tg.DefaultMiddlewares(a.cfg.CoreConfig(), nil)
	mws = append(mws, tg.Middleware{Name: "session", Use: state.WithSession(a.svc.states)})

	return tg.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Dispatcher:  a.dispatcher,
		Middlewares: mws,
		Routes:      routes,
		OnStart: func(_ context.Context, rt tg.Runtime) error {
			// Direct sends to arbitrary users (questions, moderator
			// notifications) need the bot instance.
			a.svc.presenter.Bind(rt.Bot)
			return nil
		},
	}, nil
}
