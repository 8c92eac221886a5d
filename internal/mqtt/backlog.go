package mqtt

import log "github.com/sirupsen/logrus"

// pendingMsg is a serialized message held until the broker is reachable.
type pendingMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog keeps the newest messages published while disconnected. When full
// the oldest message is overwritten.
// Not safe for concurrent use; the caller holds the publisher mutex.
type backlog struct {
	msgs  []pendingMsg
	next  int // slot the next push writes
	count int
	lost  int // overwritten since the last take
}

func newBacklog(size int) *backlog {
	if size < 1 {
		size = 1
	}
	return &backlog{msgs: make([]pendingMsg, size)}
}

func (b *backlog) push(m pendingMsg) {
	if b.count == len(b.msgs) {
		if b.lost == 0 {
			log.WithField("size", len(b.msgs)).Warn("mqtt: backlog full, dropping oldest")
		}
		b.lost++
	} else {
		b.count++
	}
	b.msgs[b.next] = m
	b.next = (b.next + 1) % len(b.msgs)
}

// take empties the backlog and returns its messages oldest first, plus how
// many were overwritten.
func (b *backlog) take() ([]pendingMsg, int) {
	if b.count == 0 {
		return nil, 0
	}
	out := make([]pendingMsg, 0, b.count)
	first := (b.next - b.count + len(b.msgs)) % len(b.msgs)
	for i := 0; i < b.count; i++ {
		out = append(out, b.msgs[(first+i)%len(b.msgs)])
	}
	lost := b.lost
	b.next, b.count, b.lost = 0, 0, 0
	return out, lost
}

func (b *backlog) len() int {
	return b.count
}
