package cli

import (
	"context"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	tea "github.com/charmbracelet/bubbletea"

	"docgrip/internal/eventbus"
	"docgrip/internal/log"
	"docgrip/internal/ui"
)

// uiEvents are the bus events the window reacts to
var uiEvents = []eventbus.EventType{
	eventbus.EventSearchCompleted,
	eventbus.EventDocsetAdded,
	eventbus.EventDocsetRemoved,
	eventbus.EventScanStarted,
	eventbus.EventScanCompleted,
	eventbus.EventError,
}

func runTUI(ctx context.Context, opts *options) error {
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := log.Logger.Named("tui")
	model := ui.NewModel(a.bus, a.cfg, a.registry)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	model.SetProgram(p)

	// Set up event forwarding to UI
	eventChan := make(chan eventbus.DomainEvent, 1000)
	for _, t := range uiEvents {
		a.bus.Subscribe(t, func(e eventbus.DomainEvent) {
			forward(ctx, eventChan, e, logger)
		})
	}

	// Start forwarding events to UI in background
	go func() {
		for {
			select {
			case e := <-eventChan:
				p.Send(ui.EventMsg{Event: e})
			case <-ctx.Done():
				return
			}
		}
	}()

	// Start initial scan
	if err := a.discovery.StartScan(ctx, a.cfg.DocsetPaths); err != nil {
		logger.Warn("start scan", zap.Error(err))
	}
	if a.cfg.Watch {
		if err := a.discovery.Watch(ctx, a.cfg.DocsetPaths); err != nil {
			logger.Warn("watch docset directories", zap.Error(err))
		}
	}

	// Run the UI
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "run program")
	}
	logger.Info("ui exited normally")
	return nil
}

// forward hands e to the UI goroutine. Catalog events wait for room, the
// rest are dropped when the UI falls behind.
func forward(ctx context.Context, ch chan<- eventbus.DomainEvent, e eventbus.DomainEvent, logger *zap.Logger) {
	if eventbus.IsCatalogEvent(e.Type()) {
		select {
		case ch <- e:
		case <-ctx.Done():
		}
		return
	}

	select {
	case ch <- e:
	default:
		logger.Warn("event channel full, dropping event", zap.String("type", string(e.Type())))
	}
}
