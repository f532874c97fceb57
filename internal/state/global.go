package state

import (
	"context"
	"fmt"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/devsim/internal/mirror"
	"github.com/temoto/devsim/log2"
	"github.com/temoto/devsim/tele"
)

type Global struct {
	Alive  *alive.Alive
	Config *Config
	Files  FullReader
	Log    *log2.Log
	Mirror tele.Mirror
}

const ContextKey = "run/state-global"

func GetGlobal(ctx context.Context) *Global {
	v := ctx.Value(ContextKey)
	if v == nil {
		panic(fmt.Sprintf("context['%s'] is nil", ContextKey))
	}
	if g, ok := v.(*Global); ok {
		return g
	}
	panic(fmt.Sprintf("context['%s'] expected type *Global actual=%#v", ContextKey, v))
}

func NewContext(log *log2.Log, fs FullReader) (context.Context, *Global) {
	g := &Global{
		Alive:  alive.NewAlive(),
		Files:  fs,
		Log:    log,
		Mirror: tele.Noop{},
	}
	ctx := context.Background()
	ctx = context.WithValue(ctx, log2.ContextKey, log)
	ctx = context.WithValue(ctx, ContextKey, g)
	return ctx, g
}

// If `Init` fails, consider `Global` is in broken state.
func (g *Global) Init(ctx context.Context, cfg *Config) error {
	g.Config = cfg
	if err := cfg.Finalize(g.Log); err != nil {
		return errors.Annotate(err, "config")
	}
	level, _ := log2.ParseLevel(cfg.Log.Level)
	g.Log.SetLevel(level)
	g.Log.Debugf("config: device id=%s class=%s logic=%s", cfg.Device.ID, cfg.Device.Class, cfg.Logic.Kind)

	m, err := mirror.New(g.Log.Clone(level), cfg.Device.ID, cfg.Mirror)
	if err != nil {
		// mirror is optional, device works without it
		g.Log.Errorf("config: mirror err=%v", err)
		m = tele.Noop{}
	}
	g.Mirror = m
	return nil
}

func (g *Global) MustInit(ctx context.Context, cfg *Config) {
	if err := g.Init(ctx, cfg); err != nil {
		g.Log.Fatal(errors.ErrorStack(err))
	}
}

// Stop closes process-wide resources after every Alive subtask is done.
func (g *Global) Stop() {
	g.Alive.Stop()
	g.Alive.Wait()
	g.Mirror.Close()
}
