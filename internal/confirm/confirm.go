// Package confirm holds a single pending confirmation request, the terminal
// counterpart of a blocking "are you sure?" modal.
package confirm

import "errors"

const (
	DefaultTitle   = "Are you sure?"
	DefaultMessage = "Do you really want to perform this action?"
)

var ErrBusy = errors.New("confirm: another confirmation is pending")

type Request[T any] struct {
	Title   string
	Message string
	Action  T
}

// Dialog holds at most one Request at a time.
type Dialog[T any] struct {
	req  Request[T]
	open bool
}

// Ask opens the dialog. It fails while another request is pending.
func (d *Dialog[T]) Ask(title, message string, action T) error {
	if d.open {
		return ErrBusy
	}
	if title == "" {
		title = DefaultTitle
	}
	if message == "" {
		message = DefaultMessage
	}
	d.req = Request[T]{Title: title, Message: message, Action: action}
	d.open = true
	return nil
}

func (d *Dialog[T]) Open() bool { return d.open }

// Pending returns the open request without consuming it.
func (d *Dialog[T]) Pending() (Request[T], bool) {
	return d.req, d.open
}

// Confirm consumes the pending request and returns its action.
func (d *Dialog[T]) Confirm() (T, bool) {
	if !d.open {
		var zero T
		return zero, false
	}
	action := d.req.Action
	d.clear()
	return action, true
}

// Cancel discards the pending request without running it.
func (d *Dialog[T]) Cancel() { d.clear() }

func (d *Dialog[T]) clear() {
	d.req = Request[T]{}
	d.open = false
}
