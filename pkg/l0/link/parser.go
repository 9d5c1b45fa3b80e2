package link

// State is the synchronisation state of a link.
type State int

const (
	// StateSyncing means the peers are not synchronised.
	StateSyncing State = 0
	// StateReady means frames can be exchanged.
	StateReady State = 0x01
	// StateBusy means a handshake or frame is partially received.
	StateBusy State = 0x02
)

// IsReady reports whether frames can be exchanged.
func (s State) IsReady() bool {
	return s&StateReady != 0
}

// IsBusy reports whether a handshake or frame is in flight.
func (s State) IsBusy() bool {
	return s&StateBusy != 0
}

func (s State) String() string {
	switch {
	case s.IsReady() && s.IsBusy():
		return "receiving"
	case s.IsReady():
		return "ready"
	case s.IsBusy():
		return "syncing*"
	default:
		return "syncing"
	}
}

// Step is the outcome of feeding the parser.
type Step struct {
	// Reply is a sync control byte to send back, followed by the local
	// sequence number. Zero means nothing to send.
	Reply byte
	State State
	Frame *Frame
}

// ArmTimer reports whether the sync timer should (re)start after s.
func (s Step) ArmTimer() bool {
	return s.State.IsBusy() || s.Reply == syncREQ
}

const (
	syncREQ byte = 0xff
	syncACK byte = 0xfe
)

type parseState int

const (
	stateSyncing    parseState = iota // request sent, waiting for a control byte
	stateReqSeq                       // got syncREQ, waiting for peer seq
	stateAckSeq                       // got syncACK, waiting for peer seq
	stateIdle                         // synchronised, waiting for frame seq
	stateIdleAckSeq                   // ack while idle, validate seq
	stateKind
	stateLen
	statePayload
)

// Parser is the receive state machine of a link.
type Parser struct {
	peer   Seq
	state  parseState
	frame  *Frame
	filled int
}

// State returns the current synchronisation state.
func (p *Parser) State() State {
	switch {
	case p.state == stateSyncing:
		return StateSyncing
	case p.state == stateIdle:
		return StateReady
	case p.state > stateIdle:
		return StateReady | StateBusy
	default:
		return StateSyncing | StateBusy
	}
}

// Reset drops everything and requests a sync.
func (p *Parser) Reset() Step {
	p.frame = nil
	return p.step(p.resync())
}

// Feed consumes one byte.
func (p *Parser) Feed(b byte) Step {
	return p.step(p.feed(b))
}

// Expire tells the parser the sync timer fired.
func (p *Parser) Expire() Step {
	if p.state == stateIdle {
		return p.step(0, nil)
	}
	return p.step(p.resync())
}

func (p *Parser) step(reply byte, f *Frame) Step {
	return Step{Reply: reply, State: p.State(), Frame: f}
}

func (p *Parser) feed(b byte) (byte, *Frame) {
	switch p.state {
	case stateSyncing:
		if b == syncREQ {
			p.state = stateReqSeq
		} else if b == syncACK {
			p.state = stateAckSeq
		}
	case stateReqSeq, stateAckSeq:
		seq := Seq(b)
		if !seq.IsValid() {
			return p.resync()
		}
		acked := p.state == stateReqSeq
		p.peer, p.state = seq, stateIdle
		if acked {
			return syncACK, nil
		}
	case stateIdle:
		switch b {
		case syncREQ:
			p.state = stateReqSeq
		case syncACK:
			p.state = stateIdleAckSeq
		case byte(p.peer):
			p.frame = &Frame{Seq: p.peer}
			p.peer = p.peer.Next()
			p.state = stateKind
		default:
			return p.resync()
		}
	case stateIdleAckSeq:
		if b != byte(p.peer) {
			return p.resync()
		}
		p.state = stateIdle
	case stateKind:
		p.frame.Kind = b
		p.state = stateLen
	case stateLen:
		if b > MaxPayload {
			return p.resync()
		}
		if b == 0 {
			return p.complete()
		}
		p.frame.Payload, p.filled = make([]byte, b), 0
		p.state = statePayload
	case statePayload:
		p.frame.Payload[p.filled] = b
		if p.filled++; p.filled >= len(p.frame.Payload) {
			return p.complete()
		}
	}
	return 0, nil
}

func (p *Parser) resync() (byte, *Frame) {
	p.state, p.frame = stateSyncing, nil
	return syncREQ, nil
}

func (p *Parser) complete() (byte, *Frame) {
	f := p.frame
	p.state, p.frame = stateIdle, nil
	return 0, f
}
