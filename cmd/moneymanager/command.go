package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// Command represents a CLI command with common functionality
type Command struct {
	Name        string
	Description string
	Usage       string
	Examples    []string
	Run         func(args []string) error
}

// NewFlagSet creates a standardized flag set for a command
func (c *Command) NewFlagSet(w io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(c.Name, flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() {
		c.PrintUsage(w)
		fmt.Fprintln(w, "\nFLAGS:")
		fs.PrintDefaults()
	}
	return fs
}

// PrintUsage prints standardized usage information
func (c *Command) PrintUsage(w io.Writer) {
	fmt.Fprintf(w, "%s\n\n", c.Description)
	fmt.Fprintf(w, "USAGE:\n    %s\n", c.Usage)
	if len(c.Examples) > 0 {
		fmt.Fprintf(w, "\nEXAMPLES:\n")
		for _, example := range c.Examples {
			fmt.Fprintf(w, "    %s\n", example)
		}
	}
}

// CommandRegistry manages all CLI commands
type CommandRegistry struct {
	commands map[string]*Command
	order    []string
	version  VersionInfo
}

// VersionInfo holds build-time version information
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry(v VersionInfo) *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[string]*Command),
		version:  v,
	}
}

// Register adds a command to the registry. Help lists commands in
// registration order.
func (r *CommandRegistry) Register(cmd *Command) {
	if _, exists := r.commands[cmd.Name]; !exists {
		r.order = append(r.order, cmd.Name)
	}
	r.commands[cmd.Name] = cmd
}

// Lookup returns a registered command
func (r *CommandRegistry) Lookup(name string) (*Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Execute runs the appropriate command based on args
func (r *CommandRegistry) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		r.PrintHelp(stderr)
		return fmt.Errorf("no command specified")
	}

	cmdName := args[0]

	switch cmdName {
	case "help", "-h", "--help":
		if len(args) > 1 {
			if cmd, ok := r.commands[args[1]]; ok {
				cmd.PrintUsage(stdout)
				return nil
			}
		}
		r.PrintHelp(stdout)
		return nil
	}

	cmd, ok := r.commands[cmdName]
	if !ok {
		r.PrintHelp(stderr)
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	err := cmd.Run(args[1:])
	if err == flag.ErrHelp {
		return nil
	}
	return err
}

// PrintHelp prints overall CLI help
func (r *CommandRegistry) PrintHelp(w io.Writer) {
	fmt.Fprintln(w, "moneymanager - track expenses from the terminal")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "    moneymanager <command> [arguments]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "COMMANDS:")
	for _, name := range r.order {
		fmt.Fprintf(w, "    %-12s %s\n", name, r.commands[name].Description)
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'moneymanager help <command>' for more information on a command.")
}

// TableWriter provides simple table formatting
type TableWriter struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTableWriter creates a new table writer
func NewTableWriter(headers ...string) *TableWriter {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = displayWidth(h)
	}
	return &TableWriter{
		headers: headers,
		widths:  widths,
	}
}

// AddRow adds a row to the table
func (t *TableWriter) AddRow(row ...string) {
	t.rows = append(t.rows, row)
	for i, cell := range row {
		if i < len(t.widths) && displayWidth(cell) > t.widths[i] {
			t.widths[i] = displayWidth(cell)
		}
	}
}

// Print writes the table with borders. style colors the header row.
func (t *TableWriter) Print(w io.Writer, style func(string) string) {
	t.printSeparator(w, "┌", "┬", "┐")
	t.printRow(w, t.headers, style)
	t.printSeparator(w, "├", "┼", "┤")
	for _, row := range t.rows {
		t.printRow(w, row, nil)
	}
	t.printSeparator(w, "└", "┴", "┘")
}

func (t *TableWriter) printSeparator(w io.Writer, left, mid, right string) {
	fmt.Fprint(w, left)
	for i, width := range t.widths {
		fmt.Fprint(w, strings.Repeat("─", width+2))
		if i < len(t.widths)-1 {
			fmt.Fprint(w, mid)
		}
	}
	fmt.Fprintln(w, right)
}

func (t *TableWriter) printRow(w io.Writer, row []string, style func(string) string) {
	fmt.Fprint(w, "│")
	for i, cell := range row {
		if i >= len(t.widths) {
			break
		}
		padded := cell + strings.Repeat(" ", t.widths[i]-displayWidth(cell))
		if style != nil {
			padded = style(padded)
		}
		fmt.Fprintf(w, " %s │", padded)
	}
	fmt.Fprintln(w)
}

func displayWidth(s string) int {
	return len([]rune(s))
}
