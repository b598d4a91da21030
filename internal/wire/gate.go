package wire

// Gate enforces that the first decoded message on a connection is an
// Authentication frame. Once Authorize is called the gate is permanently
// open; no further authentication is required or possible on the connection.
type Gate struct {
	authorized bool
}

// NewGate returns a closed gate.
func NewGate() *Gate {
	return &Gate{}
}

// Admit returns ErrAuthRequired for any non-authentication message arriving
// while the gate is closed. Authentication frames always pass so the
// handshake handler can evaluate the credential.
func (g *Gate) Admit(msg Message) error {
	if g.authorized {
		return nil
	}
	if msg.WireType() == TypeAuthentication {
		return nil
	}
	return ErrAuthRequired
}

// Authorize removes the gate after a valid credential was presented.
func (g *Gate) Authorize() {
	g.authorized = true
}

// Authorized reports whether the handshake has completed.
func (g *Gate) Authorized() bool {
	return g.authorized
}
