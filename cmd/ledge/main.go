package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Versifine/ledge/internal/config"
	"github.com/Versifine/ledge/internal/controller"
	"github.com/Versifine/ledge/internal/debug"
	"github.com/Versifine/ledge/internal/event"
	"github.com/Versifine/ledge/internal/feed"
	"github.com/Versifine/ledge/internal/level"
	"github.com/Versifine/ledge/internal/logger"
	"github.com/Versifine/ledge/internal/physics"
	"github.com/Versifine/ledge/internal/sim"
	"github.com/Versifine/ledge/internal/store"
)

type idleInput struct{}

func (idleInput) Gather() controller.FrameInput { return controller.FrameInput{} }

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the config file")
	headless := flag.Bool("headless", false, "run without the keyboard console")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		File:        cfg.Logging.File,
		RawTerminal: !*headless,
	}); err != nil {
		slog.Error("Failed to init logger", "error", err)
		os.Exit(1)
	}
	defer logger.Close()
	cfg.LogNotes()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *headless); err != nil {
		slog.Error("Ledge stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, headless bool) error {
	space, err := physics.NewSpace(cfg.Physics)
	if err != nil {
		return fmt.Errorf("physics space: %w", err)
	}
	lvl, err := level.Load(cfg.Level.Path)
	if err != nil {
		return err
	}

	sched, err := sim.NewScheduler(sim.Config{
		FixedRate:     cfg.Simulation.FixedRate,
		FrameRate:     cfg.Simulation.FrameRate,
		MaxFixedSteps: cfg.Simulation.MaxFixedSteps,
	})
	if err != nil {
		return err
	}
	defer sched.Close()

	world, err := lvl.Build(space, sched)
	if err != nil {
		return err
	}
	sched.SetPhysics(world.Movers)

	var saves *store.Store
	if cfg.Store.Path != "" {
		saves, err = store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer saves.Close()
	}

	bus := event.NewBus()
	body := space.NewBody(lvl.Spawn, physics.Shape{}, 0)
	body.SetRotation(lvl.Rotation)

	var console *debug.Console
	var input controller.InputSource = idleInput{}
	ctrl, err := controller.New(controller.Options{
		Name:    "player",
		Stats:   cfg.Character,
		Body:    body,
		Queries: space,
		Input:   controller.InputFunc(func() controller.FrameInput { return input.Gather() }),
		Events:  bus,
	})
	if err != nil {
		return err
	}
	if !headless {
		console = debug.NewConsole(ctrl, sched, slotStore(saves))
		console.Observe(bus)
		input = console
	}
	if err := sched.Register(sim.GroupCharacters, ctrl); err != nil {
		return err
	}

	if saves != nil {
		restore(ctx, saves, cfg.Store.Slot, ctrl)
	}

	if cfg.Feed.Listen != "" {
		hub := feed.NewHub()
		hub.Attach(bus)
		go func() {
			if err := hub.Serve(ctx, cfg.Feed.Listen); err != nil {
				slog.Error("Feed server failed", "error", err)
			}
		}()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if console != nil {
		go func() {
			if err := console.Start(runCtx); err != nil {
				slog.Warn("Debug console unavailable, running headless", "error", err)
			}
		}()
	}

	if err := sched.Run(runCtx); err != nil {
		return err
	}

	if saves != nil {
		saveCtx, cancelSave := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancelSave()
		if err := saves.Save(saveCtx, cfg.Store.Slot, ctrl.State()); err != nil {
			return fmt.Errorf("save on exit: %w", err)
		}
		slog.Info("Saved state", "slot", cfg.Store.Slot, "position", ctrl.State().Position)
	}
	return nil
}

func restore(ctx context.Context, saves *store.Store, slot string, ctrl *controller.Controller) {
	state, err := saves.Load(ctx, slot)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		slog.Warn("Failed to restore save slot", "slot", slot, "error", err)
		return
	}
	ctrl.LoadState(state)
	slog.Info("Restored state", "slot", slot, "position", state.Position)
}

// slotStore keeps a nil *store.Store from becoming a non-nil interface.
func slotStore(s *store.Store) debug.SlotStore {
	if s == nil {
		return nil
	}
	return s
}
