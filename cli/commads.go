package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// RunCommands is the line-oriented menu: add, list, show, copy, delete,
// save, reload and quit. It returns when the user quits or input ends.
func RunCommands(s *Session, p *Prompter, out io.Writer) {
	for {
		fmt.Fprintln(out, "\nCommands: a=add, l=list, s N=show, c N=copy, d N=delete, w=save, r=reload, q=quit")

		line, err := p.Line("> ")
		if err != nil {
			fmt.Fprintln(out, "Exiting.")
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "a":
			handleAdd(s, p, out)
		case "l":
			handleList(s, out)
		case "s", "c", "d":
			if len(parts) < 2 {
				fmt.Fprintln(out, "Specify item number")
				continue
			}
			num, err := strconv.Atoi(parts[1])
			if err != nil || num < 1 || num > s.Vault.Store().Len() {
				fmt.Fprintln(out, "Invalid item number")
				continue
			}
			switch cmd {
			case "s":
				handleShow(s, num-1, out)
			case "c":
				handleCopy(s, num-1, out)
			case "d":
				handleDelete(s, num-1, out)
			}
		case "w":
			if err := s.Save(); err != nil {
				fmt.Fprintln(out, "Error saving vault:", Describe(err))
			} else {
				fmt.Fprintln(out, "Accounts saved to file.")
			}
		case "r":
			if err := s.Load(); err != nil {
				fmt.Fprintln(out, "Error loading vault:", Describe(err))
			} else {
				fmt.Fprintln(out, "Accounts loaded from file.")
			}
		case "q":
			fmt.Fprintln(out, "Exiting.")
			return
		default:
			fmt.Fprintln(out, "Unknown command")
		}
	}
}

// --- Individual command handlers ---

func handleAdd(s *Session, p *Prompter, out io.Writer) {
	site, err := p.Line("Site: ")
	if err != nil {
		return
	}
	username, err := p.Line("Username: ")
	if err != nil {
		return
	}
	password, err := p.Secret("Password: ")
	if err != nil {
		return
	}

	if err := AddEntry(s, site, username, password); err != nil {
		fmt.Fprintln(out, Describe(err))
		return
	}
	fmt.Fprintln(out, "Account added successfully.")
}

func handleList(s *Session, out io.Writer) {
	records := s.Vault.ListAccounts()
	if len(records) == 0 {
		fmt.Fprintln(out, "No accounts found.")
		return
	}
	fmt.Fprintln(out, "Accounts:")
	for i, r := range records {
		fmt.Fprintf(out, "%d) Site: %s | Username: %s\n", i+1, r.Site, r.Username)
	}
}

func handleShow(s *Session, i int, out io.Writer) {
	r, ok := s.Vault.Store().Get(i)
	if !ok {
		fmt.Fprintln(out, "Entry not found")
		return
	}
	fmt.Fprintf(out, "Site: %s\nUsername: %s\nPassword: %s\n", r.Site, r.Username, r.Password)
}

func handleCopy(s *Session, i int, out io.Writer) {
	if _, err := s.CopyPassword(i); err != nil {
		fmt.Fprintln(out, "Cannot copy password:", err)
		return
	}
	if s.ClearAfter > 0 {
		fmt.Fprintf(out, "Password copied to clipboard. Clearing in %s...\n", s.ClearAfter)
	} else {
		fmt.Fprintln(out, "Password copied to clipboard.")
	}
}

func handleDelete(s *Session, i int, out io.Writer) {
	err := DeleteEntry(s, i)
	switch {
	case errors.Is(err, errNoEntry):
		fmt.Fprintln(out, "Entry not found")
	case err != nil:
		fmt.Fprintln(out, "Error saving vault:", Describe(err))
	default:
		fmt.Fprintln(out, "Entry deleted!")
	}
}
