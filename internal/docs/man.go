package docs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cpuguy83/go-md2man/v2/md2man"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// GenManHeader contains man page metadata.
type GenManHeader struct {
	Title   string
	Section string
	Date    *time.Time
	Source  string
	Manual  string
}

// GenManTree generates section 1 man pages for cmd and all visible
// subcommands into dir.
func GenManTree(cmd *cobra.Command, dir string) error {
	header := &GenManHeader{
		Section: "1",
		Source:  "Gantry",
		Manual:  "Gantry Manual",
	}
	return genManTree(cmd, dir, header)
}

func genManTree(cmd *cobra.Command, dir string, header *GenManHeader) error {
	for _, c := range cmd.Commands() {
		if c.Hidden {
			continue
		}
		if err := genManTree(c, dir, header); err != nil {
			return err
		}
	}

	filename := filepath.Join(dir, manFilename(cmd, header.Section))
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", filename, err)
	}
	defer f.Close()

	return GenMan(cmd, header, f)
}

// GenMan generates a man page for a single command.
func GenMan(cmd *cobra.Command, header *GenManHeader, w io.Writer) error {
	if header == nil {
		header = &GenManHeader{}
	}
	if header.Section == "" {
		header.Section = "1"
	}

	manPage := md2man.Render(genMan(cmd, header))
	_, err := w.Write(manPage)
	return err
}

func genMan(cmd *cobra.Command, header *GenManHeader) []byte {
	cmd.InitDefaultHelpCmd()
	cmd.InitDefaultHelpFlag()

	buf := new(bytes.Buffer)
	name := cmd.CommandPath()

	manPreamble(buf, header, name)

	buf.WriteString("# NAME\n")
	short := cmd.Short
	if short == "" {
		short = "manual page for " + name
	}
	fmt.Fprintf(buf, "%s \\- %s\n\n", name, short)

	buf.WriteString("# SYNOPSIS\n")
	buf.WriteString("**" + name + "**")
	if flags := cmd.NonInheritedFlags(); flags.HasAvailableFlags() {
		buf.WriteString(" [OPTIONS]")
	}
	if cmd.HasAvailableSubCommands() {
		buf.WriteString(" COMMAND")
	}
	buf.WriteString("\n\n")

	if cmd.Long != "" {
		buf.WriteString("# DESCRIPTION\n")
		buf.WriteString(cmd.Long + "\n\n")
	}

	if subcommands := visibleCommands(cmd); len(subcommands) > 0 {
		buf.WriteString("# COMMANDS\n")
		for _, c := range subcommands {
			fmt.Fprintf(buf, "**%s**\n: %s\n\n", c.Name(), c.Short)
		}
	}

	manPrintOptions(buf, cmd)

	if cmd.Example != "" {
		buf.WriteString("# EXAMPLES\n")
		buf.WriteString("```\n" + cmd.Example + "\n```\n\n")
	}

	manPrintSeeAlso(buf, cmd, header.Section)

	return buf.Bytes()
}

func manPreamble(buf *bytes.Buffer, header *GenManHeader, name string) {
	dateStr := ""
	if header.Date != nil {
		dateStr = header.Date.Format("Jan 2006")
	}

	title := header.Title
	if title == "" {
		title = strings.ToUpper(strings.ReplaceAll(name, " ", "-"))
	}

	fmt.Fprintf(buf, "%% %s(%s) %s | %s\n\n", title, header.Section, dateStr, header.Manual)
}

func manPrintOptions(buf *bytes.Buffer, cmd *cobra.Command) {
	flags := cmd.NonInheritedFlags()
	parentFlags := cmd.InheritedFlags()

	if !flags.HasAvailableFlags() && !parentFlags.HasAvailableFlags() {
		return
	}

	buf.WriteString("# OPTIONS\n")
	if flags.HasAvailableFlags() {
		manPrintFlags(buf, flags)
	}
	if parentFlags.HasAvailableFlags() {
		manPrintFlags(buf, parentFlags)
	}
	buf.WriteString("\n")
}

func manPrintFlags(buf *bytes.Buffer, flags *pflag.FlagSet) {
	type flagInfo struct {
		name      string
		shorthand string
		defValue  string
		usage     string
		flagType  string
	}
	var flagList []flagInfo

	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		flagList = append(flagList, flagInfo{
			name:      f.Name,
			shorthand: f.Shorthand,
			defValue:  f.DefValue,
			usage:     f.Usage,
			flagType:  f.Value.Type(),
		})
	})

	sort.Slice(flagList, func(i, j int) bool {
		return flagList[i].name < flagList[j].name
	})

	for _, f := range flagList {
		var format string
		if f.shorthand != "" {
			format = fmt.Sprintf("**-%s**, **--%s**", f.shorthand, f.name)
		} else {
			format = fmt.Sprintf("**--%s**", f.name)
		}
		if f.flagType != "bool" {
			format += fmt.Sprintf(" <%s>", f.flagType)
		}

		buf.WriteString(format + "\n")
		buf.WriteString(": " + f.usage)
		if f.defValue != "" && f.defValue != "false" && f.defValue != "0" && f.defValue != "[]" {
			fmt.Fprintf(buf, " (default: %s)", f.defValue)
		}
		buf.WriteString("\n\n")
	}
}

func manPrintSeeAlso(buf *bytes.Buffer, cmd *cobra.Command, section string) {
	buf.WriteString("# SEE ALSO\n")

	if cmd.HasParent() {
		parent := cmd.Parent()
		parentName := strings.ReplaceAll(parent.CommandPath(), " ", "-")
		fmt.Fprintf(buf, "**%s(%s)**", parentName, section)

		for _, s := range visibleCommands(parent) {
			if s.Name() != cmd.Name() {
				siblingName := strings.ReplaceAll(s.CommandPath(), " ", "-")
				fmt.Fprintf(buf, ", **%s(%s)**", siblingName, section)
			}
		}
	}

	subcommands := visibleCommands(cmd)
	if len(subcommands) > 0 && cmd.HasParent() {
		buf.WriteString(", ")
	}
	for i, c := range subcommands {
		if i > 0 {
			buf.WriteString(", ")
		}
		subName := strings.ReplaceAll(c.CommandPath(), " ", "-")
		fmt.Fprintf(buf, "**%s(%s)**", subName, section)
	}

	buf.WriteString("\n")
}

func manFilename(cmd *cobra.Command, section string) string {
	return strings.ReplaceAll(cmd.CommandPath(), " ", "-") + "." + section
}
