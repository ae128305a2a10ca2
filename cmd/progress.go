package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// progress shows a spinner on stderr while the reasoning engine works. In CI
// it prints plain begin/end lines instead.
type progress struct {
	spinner *spinner.Spinner
	out     io.Writer
}

func isCI() bool {
	return os.Getenv("CI") == "true"
}

func newProgress(out io.Writer) *progress {
	p := &progress{out: out}
	if !isCI() {
		p.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
		p.spinner.Prefix = "Progress: "
		_ = p.spinner.Color("cyan", "bold")
	}
	return p
}

func (p *progress) Begin(msg string) {
	if p.spinner == nil {
		fmt.Fprintf(p.out, "[BEGIN] %s\n", msg)
		return
	}
	p.spinner.Suffix = " " + msg
	p.spinner.Start()
}

func (p *progress) Done(msg string) {
	if p.spinner == nil {
		fmt.Fprintf(p.out, "[DONE] %s\n", msg)
		return
	}
	p.spinner.Stop()
}
