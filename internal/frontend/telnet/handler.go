package telnet

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/cory-johannsen/treasurehunt/internal/game/session"
	"github.com/cory-johannsen/treasurehunt/internal/gateway"
)

// Banner greets every new Telnet client.
const Banner = "Welcome to Treasure Hunt! Type 'help' for commands."

// GameHandler plays one Telnet client through a gateway.Dispatcher.
type GameHandler struct {
	dispatcher *gateway.Dispatcher
	logger     *zap.Logger
}

// NewGameHandler creates a GameHandler.
//
// Precondition: dispatcher and logger must be non-nil.
func NewGameHandler(dispatcher *gateway.Dispatcher, logger *zap.Logger) *GameHandler {
	return &GameHandler{dispatcher: dispatcher, logger: logger}
}

// HandleSession admits the client into a game, streams rendered events to it,
// and forwards its commands until it quits, disconnects, or ctx ends.
func (h *GameHandler) HandleSession(ctx context.Context, conn *Conn) error {
	if err := conn.WriteLine(Colorize(Bold, Banner)); err != nil {
		return err
	}

	id, ent, err := h.dispatcher.Connect(ctx)
	if err != nil {
		_ = conn.WriteLine(Colorize(Red, "The server cannot take new players right now."))
		return err
	}
	log := h.logger.With(zap.String("conn", id), zap.String("remote_addr", conn.RemoteAddr().String()))

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(id, conn, ent, log)
	}()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	err = h.readLoop(id, conn, log)

	h.dispatcher.Disconnect(id)
	<-writerDone
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (h *GameHandler) readLoop(id string, conn *Conn, log *zap.Logger) error {
	for {
		line, err := conn.ReadLine()
		if err != nil {
			return err
		}
		cmd, err := ParseCommand(line)
		if err != nil {
			_ = h.dispatcher.Reject(id, err)
			continue
		}
		switch cmd.Kind {
		case CommandQuit:
			_ = conn.WriteLine(Colorize(Yellow, "Goodbye."))
			return nil
		case CommandHelp:
			_ = conn.WriteLine(HelpText)
		case CommandIntent:
			if err := h.dispatcher.Handle(id, cmd.Intent); err != nil {
				log.Debug("intent failed", zap.String("intent", cmd.Intent.Name), zap.Error(err))
			}
		}
	}
}

// writeLoop drains ent until the dispatcher closes it. Events are still
// consumed after a write error so the queue never backs up.
func (h *GameHandler) writeLoop(id string, conn *Conn, ent *session.BridgeEntity, log *zap.Logger) {
	broken := false
	for evt := range ent.Events() {
		if broken {
			continue
		}
		text, ok := RenderEvent(id, evt)
		if !ok {
			continue
		}
		if err := conn.WriteLine(text); err != nil {
			log.Debug("telnet write failed", zap.Error(err))
			broken = true
		}
	}
}
