package output

import (
	"fmt"
	"strings"
)

// CommandHints maps command names to related commands users might want to run next
var CommandHints = map[string][]string{
	"login":              {"whoami", "dashboard"},
	"logout":             {"login"},
	"register":           {"whoami", "profile update"},
	"whoami":             {"profile update", "logout"},
	"password reset":     {"password update"},
	"password update":    {"login"},
	"tenants list":       {"tenants get <id>", "payments list --tenant <id>"},
	"properties list":    {"payments list --property <id>"},
	"payments list":      {"dashboard"},
	"notifications list": {"notifications read <id>"},
	"dashboard":          {"payments list --status atrasado", "notifications list"},
}

// PrintHints prints "See also" hints for a command. No-op in quiet or JSON mode.
func (p *Printer) PrintHints(command string) {
	if p.quiet || p.json {
		return
	}
	hints, ok := CommandHints[command]
	if !ok || len(hints) == 0 {
		return
	}

	cmds := make([]string, len(hints))
	for i, h := range hints {
		cmds[i] = "rentixctl " + h
	}
	fmt.Fprintf(p.out, "\nSee also: %s\n", strings.Join(cmds, ", "))
}
