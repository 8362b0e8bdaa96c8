// Package ui implements the modal capability on a plain terminal: blocking
// prompts that collect typed fields and return them, or nil when the user
// cancels with an empty line.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/gestor-eventos/eventctl/internal/models"
	"github.com/gestor-eventos/eventctl/internal/service"
)

// Terminal prompts over an input/output pair, normally stdin/stdout.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer

	// Validate vets a completed draft before the form returns it, so the
	// user is re-prompted instead of the flow failing later.
	Validate func(models.EventDraft) error
}

// NewTerminal creates a terminal prompter.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

// EventForm collects the four event fields. Pressing enter on an empty title
// with no initial value cancels; with an initial value, enter keeps it.
func (t *Terminal) EventForm(title string, initial *models.EventDraft) (*models.EventDraft, error) {
	fmt.Fprintf(t.out, "\n== %s ==\n", title)
	if initial == nil {
		fmt.Fprintln(t.out, "(línea vacía para cancelar)")
	} else {
		fmt.Fprintln(t.out, "(enter para conservar el valor actual)")
	}

	for {
		draft := models.EventDraft{}
		var err error
		if draft.Title, err = t.field("Título", initial, func(d *models.EventDraft) string { return d.Title }); err != nil {
			return nil, err
		}
		if initial == nil && draft.Title == "" {
			return nil, nil
		}
		if draft.Description, err = t.field("Descripción", initial, func(d *models.EventDraft) string { return d.Description }); err != nil {
			return nil, err
		}
		if draft.Location, err = t.field("Ubicación", initial, func(d *models.EventDraft) string { return d.Location }); err != nil {
			return nil, err
		}
		if draft.Date, err = t.field("Fecha (2006-01-02T15:04)", initial, func(d *models.EventDraft) string { return d.Date }); err != nil {
			return nil, err
		}

		if t.Validate != nil {
			if err := t.Validate(draft); err != nil {
				fmt.Fprintf(t.out, "  %s\n", err.Error())
				continue
			}
		}
		return &draft, nil
	}
}

func (t *Terminal) field(label string, initial *models.EventDraft, pick func(*models.EventDraft) string) (string, error) {
	current := ""
	if initial != nil {
		current = pick(initial)
	}
	if current != "" {
		fmt.Fprintf(t.out, "%s [%s]: ", label, current)
	} else {
		fmt.Fprintf(t.out, "%s: ", label)
	}

	line, err := t.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return current, nil
	}
	return line, nil
}

// Confirm asks a yes/no question; anything but "s"/"si" declines.
func (t *Terminal) Confirm(title, text string) (bool, error) {
	fmt.Fprintf(t.out, "\n%s\n%s (s/n): ", title, text)
	line, err := t.readLine()
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(line)
	return answer == "s" || answer == "si" || answer == "sí", nil
}

// Notify prints a dismissible one-line notification.
func (t *Terminal) Notify(kind service.NotifyKind, title, text string) {
	mark := "✔"
	if kind == service.NotifyError {
		mark = "✖"
	}
	if text == "" {
		fmt.Fprintf(t.out, "\n%s %s\n", mark, title)
		return
	}
	fmt.Fprintf(t.out, "\n%s %s: %s\n", mark, title, text)
}

// Details renders the full event the way the list's detail view does.
func (t *Terminal) Details(event models.Event) {
	fmt.Fprintf(t.out, "\n== %s ==\n", event.Title)
	fmt.Fprintf(t.out, "Fecha:       %s\n", event.Date.Local().Format("02 Jan 2006 15:04"))
	fmt.Fprintf(t.out, "Ubicación:   %s\n", event.Location)
	fmt.Fprintf(t.out, "Descripción: %s\n", event.Description)
}

// ReadLine exposes raw line input for the menus in cmd.
func (t *Terminal) ReadLine(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)
	return t.readLine()
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
