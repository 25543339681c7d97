package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/scanner"
)

// CommandKind is one text command understood by the console, the termui frontend and
// the admin debug endpoint.
//
//go:generate stringer -type=CommandKind
type CommandKind int

const (
	CmdNone CommandKind = iota

	// Turn commands
	CmdPlay
	CmdDraw
	CmdNext
	CmdAI
	CmdColor

	// Game commands
	CmdUndo
	CmdRedo
	CmdSave
	CmdLoad
	CmdNew
	CmdRound

	// Presentation commands
	CmdDark
	CmdLight
	CmdHand
	CmdHelp
	CmdQuit
)

func (k CommandKind) String() string {
	switch k {
	case CmdPlay:
		return "play"
	case CmdDraw:
		return "draw"
	case CmdNext:
		return "next"
	case CmdAI:
		return "ai"
	case CmdColor:
		return "color"
	case CmdUndo:
		return "undo"
	case CmdRedo:
		return "redo"
	case CmdSave:
		return "save"
	case CmdLoad:
		return "load"
	case CmdNew:
		return "new"
	case CmdRound:
		return "round"
	case CmdDark:
		return "dark"
	case CmdLight:
		return "light"
	case CmdHand:
		return "hand"
	case CmdHelp:
		return "help"
	case CmdQuit:
		return "quit"
	default:
		return "none"
	}
}

// IsEngineCommand reports whether the command changes or persists game state.
func (k CommandKind) IsEngineCommand() bool {
	return CmdPlay <= k && k <= CmdRound
}

// Command is a parsed line. CardIndex is only valid for CmdPlay and Color only for CmdColor.
type Command struct {
	Kind      CommandKind
	CardIndex int
	ColorName string
}

var simpleCommands = map[string]CommandKind{
	"draw":  CmdDraw,
	"d":     CmdDraw,
	"next":  CmdNext,
	"n":     CmdNext,
	"pass":  CmdNext,
	"ai":    CmdAI,
	"undo":  CmdUndo,
	"u":     CmdUndo,
	"redo":  CmdRedo,
	"r":     CmdRedo,
	"save":  CmdSave,
	"load":  CmdLoad,
	"new":   CmdNew,
	"round": CmdRound,
	"dark":  CmdDark,
	"light": CmdLight,
	"hand":  CmdHand,
	"help":  CmdHelp,
	"quit":  CmdQuit,
	"q":     CmdQuit,
}

const HelpText = `play N        play card N of the hand (also: p N)
draw          draw one card (d)
next          end the turn (n, pass)
ai            let the AI play the current turn
color C       choose the color of a wild
undo, redo    step through history (u, r)
save, load    use the save slot
new           start a new game
round         start the next round
dark, light   switch the color theme
hand          show the table again
quit          leave (q)`

var ErrEmptyCommand = errors.New("empty command")

// Syntax:
//
//	play NUMBER      (NUMBER is the index shown next to the card)
//	color NAME       (NAME is a color name of the current theme)
//	draw | next | ai | undo | redo | save | load | new | round | dark | light | hand | help | quit
func ParseCommandFromInput(input string) (*Command, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyCommand
	}

	var s scanner.Scanner
	s.Init(strings.NewReader(input))
	s.Filename = "cmd"
	s.Mode = scanner.ScanIdents | scanner.ScanInts

	tok := s.Scan()
	tok, command, err := parseCommand(&s, tok)
	if err != nil {
		return nil, err
	}

	if tok != scanner.EOF {
		return nil, fmt.Errorf("unexpected '%s' after %s command", s.TokenText(), command.Kind)
	}
	return command, nil
}

func parseCommand(s *scanner.Scanner, tok rune) (rune, *Command, error) {
	command := &Command{Kind: CmdNone}

	if tok != scanner.Ident {
		return tok, command, fmt.Errorf("expected a command (try help), found: '%s'", s.TokenText())
	}

	word := strings.ToLower(s.TokenText())
	if kind, ok := simpleCommands[word]; ok {
		command.Kind = kind
		return s.Scan(), command, nil
	}

	switch word {
	case "play", "p":
		command.Kind = CmdPlay
		tok := s.Scan()
		if tok != scanner.Int {
			return tok, command, fmt.Errorf("expected the index of a card to play, found: '%s'", s.TokenText())
		}
		index, err := strconv.Atoi(s.TokenText())
		if err != nil {
			return tok, command, fmt.Errorf("invalid card index '%s': %w", s.TokenText(), err)
		}
		command.CardIndex = index
		return s.Scan(), command, nil

	case "color", "c":
		command.Kind = CmdColor
		tok := s.Scan()
		if tok != scanner.Ident {
			return tok, command, fmt.Errorf("expected a color name as argument of color command, found: '%s'", s.TokenText())
		}
		command.ColorName = strings.ToLower(s.TokenText())
		return s.Scan(), command, nil

	default:
		return tok, command, fmt.Errorf("unknown command '%s' (try help)", s.TokenText())
	}
}
