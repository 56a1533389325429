// Package tui holds the interactive terminal views used by gantry commands.
//
// Models in this package are plain BubbleTea models fed by tea.Program.Send
// from the command layer; they never run pipeline work themselves. Styling
// flows through the iostreams package so color handling stays in one place.
package tui
