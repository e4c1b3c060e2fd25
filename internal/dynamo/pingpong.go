package dynamo

// PingPong holds the two buffers of a double-buffered update. Src is the frozen
// snapshot read during a sub-step and Dst the buffer written; Swap hands Dst over
// as the next source. Src and Dst never alias.
type PingPong struct {
	Src, Dst *Field
}

// NewPingPong allocates both buffers.
func NewPingPong(w, h int) (*PingPong, error) {
	src, err := NewField(w, h)
	if err != nil {
		return nil, err
	}
	dst, _ := NewField(w, h)
	return &PingPong{Src: src, Dst: dst}, nil
}

// Swap exchanges source and destination.
func (p *PingPong) Swap() {
	p.Src, p.Dst = p.Dst, p.Src
}

// Load copies f into the source buffer, reallocating both buffers when the
// dimensions differ.
func (p *PingPong) Load(f *Field) error {
	if !p.Src.SameSize(f) {
		next, err := NewPingPong(f.W, f.H)
		if err != nil {
			return err
		}
		*p = *next
	}
	return p.Src.CopyFrom(f)
}
