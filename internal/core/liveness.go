package core

// Liveness protocol tokens.
const (
	ProbeServe = "serve"
	ProbePing  = "ping"
	ProbePong  = "pong"
)

// ProbeState is the state of a liveness session.
type ProbeState int

const (
	// ProbeNotStarted ignores pings until the client sends "serve".
	ProbeNotStarted ProbeState = iota
	// ProbeStarted answers every ping with a pong.
	ProbeStarted
)

// Probe is the per-connection liveness state machine. It never initiates traffic.
type Probe struct {
	state ProbeState
}

// State returns the current state.
func (p *Probe) State() ProbeState {
	return p.state
}

// Handle applies one client token and returns the reply to send, if any.
func (p *Probe) Handle(token string) (string, bool) {
	switch token {
	case ProbeServe:
		p.state = ProbeStarted
	case ProbePing:
		if p.state == ProbeStarted {
			return ProbePong, true
		}
	}
	return "", false
}
