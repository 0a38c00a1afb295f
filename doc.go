/*
Package fluxo is an interpreter for user-authored conversational flows.

A flow is a graph of typed nodes (start, message, input, condition, action,
escalation, integration, delay, end) joined by directed edges. A Run walks the
graph one node at a time, interpolating variables into outgoing text,
suspending at input and condition nodes until the caller supplies a reply, and
calling outside systems through a mock or real External Effect Gateway.
Everything a run produces is kept in one RunState: status, current node,
variables, a transcript of bot/user/system messages and a per-node execution log.

# Usage

	def, err := file.Load("flows/lead.yaml")
	if err != nil {
		log.Fatal(err)
	}

	run := fluxo.New(def, domain.RunConfig{ContactName: "Maria"})
	if err := run.Start(ctx); err != nil {
		log.Fatal(err)
	}

	for run.Status() == domain.StatusWaitingInput {
		if err := run.SendInput(ctx, nextReply()); err != nil {
			log.Fatal(err)
		}
	}

	for _, m := range run.Messages() {
		fmt.Println(m.Type, m.Content)
	}

# Concurrency

One Run serves one conversation and processes one step at a time; a second
Start or SendInput arriving mid-step returns domain.ErrBusy. Reset may be
called at any time and always leaves the run idle. Hosts with many
conversations keep one Run each (see pkg/session).
*/
package fluxo
