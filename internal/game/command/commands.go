// Package command provides the command registry, parser, and built-in
// command definitions for line-oriented transports.
package command

// Categories for organizing commands.
const (
	CategoryGame   = "game"
	CategorySystem = "system"
)

// Handler identifiers mapping commands to gateway intents or local actions.
const (
	HandlerStart = "startPos"
	HandlerDig   = "clientDig"
	HandlerHelp  = "help"
	HandlerQuit  = "quit"
)

// Command defines a player-invocable command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage lists the arguments after the name, if any.
	Usage string
	// Help is the short help text displayed to players.
	Help string
	// Category groups the command.
	Category string
	// Handler maps to the gateway intent name or a local action.
	Handler string
	// Arity is the number of arguments the command requires.
	Arity int
}

// BuiltinCommands returns all built-in commands for the hunt.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "start", Aliases: []string{"s", "place"}, Usage: "<row> <col>", Help: "choose your starting cell", Category: CategoryGame, Handler: HandlerStart, Arity: 2},
		{Name: "dig", Aliases: []string{"d", "move"}, Usage: "<row> <col>", Help: "move in a straight line and dig", Category: CategoryGame, Handler: HandlerDig, Arity: 2},
		{Name: "help", Aliases: []string{"?", "h"}, Help: "show this list", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"exit", "q"}, Help: "leave the game", Category: CategorySystem, Handler: HandlerQuit},
	}
}
