// Package notify renders the single user-visible notification every
// operation outcome produces: a short title plus a message, the message
// taken from the backend when it sent one and from a role-appropriate
// fallback otherwise.
package notify

import (
	"fmt"
	"io"

	"github.com/citamed/citamed/internal/platform/rest"
)

type Notifier interface {
	Success(title, message string)
	// Failure reports err with the backend's message when present, else the
	// fallback.
	Failure(title string, err error, fallback string)
}

// Console writes notifications to a terminal.
type Console struct {
	Out io.Writer
	Err io.Writer
}

func NewConsole(out, errOut io.Writer) *Console {
	return &Console{Out: out, Err: errOut}
}

func (c *Console) Success(title, message string) {
	fmt.Fprintf(c.Out, "✔ %s: %s\n", title, message)
}

func (c *Console) Failure(title string, err error, fallback string) {
	fmt.Fprintf(c.Err, "✖ %s: %s\n", title, rest.UserMessage(err, fallback))
}
