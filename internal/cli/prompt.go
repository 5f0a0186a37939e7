package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"itask-cli/internal/form"
)

var errCancelled = errors.New("cancelled")

// prompter reads answers line by line from the command's stdin.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{in: bufio.NewReader(cmd.InOrStdin()), out: cmd.ErrOrStderr()}
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	s, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

// confirm asks a y/N question. Anything but y/yes declines.
func (p *prompter) confirm(title, message string) (bool, error) {
	fmt.Fprintf(p.out, "%s\n%s [y/N] ", title, message)
	s, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// fillForm sets flag values on f and prompts for every field still empty.
func fillForm(cmd *cobra.Command, f *form.Form, given map[string]string) error {
	var p *prompter
	for _, fd := range f.Fields() {
		v := given[fd.Name]
		if v == "" {
			if p == nil {
				p = newPrompter(cmd)
			}
			s, err := p.line(fd.Label)
			if err != nil {
				return fmt.Errorf("read %s: %w", strings.ToLower(fd.Label), err)
			}
			v = s
		}
		f.Set(fd.Name, v)
	}
	return nil
}

// submitForm validates f and runs fn with its values. On invalid input the
// field errors go to stderr followed by the form-level message.
func submitForm(cmd *cobra.Command, f *form.Form, fn func(form.Values)) error {
	err := f.Submit(false, fn)
	if errors.Is(err, form.ErrInvalid) {
		errs := f.Errors()
		names := make([]string, 0, len(errs))
		for name := range errs {
			names = append(names, name)
		}
		sort.Strings(names)
		w := cmd.ErrOrStderr()
		for _, name := range names {
			fmt.Fprintf(w, "%s: %s\n", name, errs[name])
		}
		return writeErr(cmd, errors.New(f.FormError()))
	}
	return err
}
