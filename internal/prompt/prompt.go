package prompt

import (
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/pkg/errors"
)

const doneLabel = "Done"

// Prompter asks questions on a terminal
type Prompter struct {
	Stdin  io.ReadCloser
	Stdout io.WriteCloser
}

// New returns a prompter bound to the given streams; nil means the process
// stdin/stdout
func New(in io.ReadCloser, out io.WriteCloser) *Prompter {
	return &Prompter{Stdin: in, Stdout: out}
}

// Select asks for exactly one of items and returns its index
func (p *Prompter) Select(label string, items []string) (int, error) {
	s := promptui.Select{
		Label:  label,
		Items:  items,
		Stdin:  p.Stdin,
		Stdout: p.Stdout,
	}
	i, _, err := s.Run()
	if err != nil {
		return -1, errors.Wrap(err, "selection failed")
	}
	return i, nil
}

// MultiSelect lets the user toggle any number of items and finish with Done.
// The returned indexes follow the order in which items were picked.
func (p *Prompter) MultiSelect(label string, items []string) ([]int, error) {
	var picked []int
	cursor := 0

	for {
		s := promptui.Select{
			Label:     fmt.Sprintf("%s ([ENTER] to toggle, choose %q to finish, [Ctrl + C] to abort)", label, doneLabel),
			Items:     renderItems(items, picked),
			Size:      min(len(items)+1, 15),
			CursorPos: cursor,
			Stdin:     p.Stdin,
			Stdout:    p.Stdout,
		}

		i, _, err := s.Run()
		if err != nil {
			return nil, errors.Wrap(err, "selection failed")
		}
		if i == len(items) {
			return picked, nil
		}

		picked = toggle(picked, i)
		cursor = i
	}
}

// Confirm asks a yes/no question; anything but y/yes counts as no
func (p *Prompter) Confirm(label string) (bool, error) {
	pr := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdin:     p.Stdin,
		Stdout:    p.Stdout,
	}
	_, err := pr.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, errors.Wrap(err, "confirmation failed")
	}
	return true, nil
}

// Password reads a secret without echoing it, re-asking until validate passes
func (p *Prompter) Password(label string, validate func(string) error) (string, error) {
	pr := promptui.Prompt{
		Label:    label,
		Mask:     '*',
		Validate: promptui.ValidateFunc(validate),
		Stdin:    p.Stdin,
		Stdout:   p.Stdout,
	}
	value, err := pr.Run()
	if err != nil {
		return "", errors.Wrap(err, "input failed")
	}
	return strings.TrimSpace(value), nil
}

// renderItems marks picked items and appends the Done entry
func renderItems(items []string, picked []int) []string {
	chosen := make(map[int]bool, len(picked))
	for _, i := range picked {
		chosen[i] = true
	}

	rendered := make([]string, 0, len(items)+1)
	for i, item := range items {
		mark := "[ ]"
		if chosen[i] {
			mark = "[x]"
		}
		rendered = append(rendered, mark+" "+item)
	}
	return append(rendered, doneLabel)
}

// toggle adds i to the end of picked or removes it if already present
func toggle(picked []int, i int) []int {
	for pos, p := range picked {
		if p == i {
			return append(picked[:pos:pos], picked[pos+1:]...)
		}
	}
	return append(picked, i)
}
