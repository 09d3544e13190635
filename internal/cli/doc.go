// Package cli renders backup progress on the terminal.
//
// Output is line oriented so it stays readable when redirected to a file or
// a CI log. [Lipgloss] styles the status words; it drops the colors on its
// own when the writer is not a terminal.
//
// [Lipgloss]: https://github.com/charmbracelet/lipgloss
package cli
