/*
Package runner drives a form session from a terminal or a pipe.

It sits between the stateless engine and the outside world: the Runner asks the
engine for the current view, prompts for the next pending input through an
IOHandler, applies the answer and submits once nothing is left to ask. Sessions are
persisted through a session.Manager when one is configured, so an interrupted run
resumes where it stopped.

# Key Components

  - Runner: the prompt loop.
  - IOHandler: a NodeRenderer that can also read answers (TextHandler, JSONHandler).
  - Dispatch and RenderView: the exhaustive switch from node kind to renderer method.
  - RichResponse: state, view and diff in one value, used by the HTTP and MCP adapters.

# Usage

	r := runner.NewRunner(
		runner.WithSessions(session.NewManager(store)),
		runner.WithSessionID("user-1"),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	state, err := r.Run(ctx, engine, "signup", nil)
*/
package runner
