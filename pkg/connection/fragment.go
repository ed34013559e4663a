package connection

// handleLongFragmentLocked folds one RELIABLE_MESSAGE_LONG part into the
// seq-keyed reassembly buffer, delivering (and ACKing, via
// deliverReliableLocked) once every part has arrived. Duplicate parts
// (from a retransmit racing a not-yet-acked assembly) are idempotent.
func (c *Connection) handleLongFragmentLocked(seq, partIndex, partCount uint16, data []byte) {
	if seqLess(seq, c.nextExpected) {
		// Already fully delivered in an earlier round; nothing to do.
		return
	}

	r, ok := c.longRecv[seq]
	if !ok {
		r = &reassembly{parts: make([][]byte, partCount), partCount: partCount}
		c.longRecv[seq] = r
	}
	if int(partIndex) >= len(r.parts) {
		return
	}
	if r.parts[partIndex] == nil {
		r.parts[partIndex] = data
		r.got++
	}
	if r.got < int(r.partCount) {
		return
	}

	total := 0
	for _, p := range r.parts {
		total += len(p)
	}
	full := make([]byte, 0, total)
	for _, p := range r.parts {
		full = append(full, p...)
	}
	delete(c.longRecv, seq)
	c.deliverReliableLocked(seq, full)
}
