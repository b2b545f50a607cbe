package telnet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cory-johannsen/treasurehunt/internal/game/board"
	"github.com/cory-johannsen/treasurehunt/internal/game/command"
	"github.com/cory-johannsen/treasurehunt/internal/gateway"
)

// CommandKind classifies one line of Telnet input.
type CommandKind int

const (
	// CommandNone is a blank line.
	CommandNone CommandKind = iota
	// CommandIntent carries a game intent.
	CommandIntent
	// CommandHelp asks for the command list.
	CommandHelp
	// CommandQuit ends the session.
	CommandQuit
)

// Command is one parsed input line.
type Command struct {
	Kind   CommandKind
	Intent gateway.Intent
}

var commands = command.DefaultRegistry()

// HelpText lists the commands the Telnet transport accepts.
var HelpText = commands.HelpText()

// ParseCommand interprets a line of input. Lines beginning with "{" are
// decoded as JSON intents.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{Kind: CommandNone}, nil
	}
	if strings.HasPrefix(line, "{") {
		in, err := gateway.DecodeIntent([]byte(line))
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: CommandIntent, Intent: in}, nil
	}

	parsed := command.Parse(line)
	cmd, ok := commands.Resolve(parsed.Command)
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", gateway.ErrUnknownIntent, parsed.Command)
	}
	switch cmd.Handler {
	case command.HandlerHelp:
		return Command{Kind: CommandHelp}, nil
	case command.HandlerQuit:
		return Command{Kind: CommandQuit}, nil
	}
	if len(parsed.Args) != cmd.Arity {
		return Command{}, fmt.Errorf("%w: %s takes %s", gateway.ErrMalformedIntent, cmd.Name, cmd.Usage)
	}
	return coordinateCommand(cmd.Handler, parsed.Args)
}

func coordinateCommand(name string, args []string) (Command, error) {
	row, err := strconv.Atoi(args[0])
	if err != nil {
		return Command{}, fmt.Errorf("%w: row %q", gateway.ErrMalformedIntent, args[0])
	}
	col, err := strconv.Atoi(args[1])
	if err != nil {
		return Command{}, fmt.Errorf("%w: col %q", gateway.ErrMalformedIntent, args[1])
	}
	return Command{
		Kind:   CommandIntent,
		Intent: gateway.Intent{Name: name, Target: board.Coordinate{Row: row, Col: col}},
	}, nil
}
