// Package ui holds the terminal styling shared by hoststats commands: the
// color palette, status symbols, percentage meters and sparklines, and the
// daemon status table.
//
// Colors are ANSI codes so they follow the terminal theme. Call
// DisableColors for --no-color or when output is not a terminal.
package ui
