package logic

import "testing"

func TestEventCountsAdd(t *testing.T) {
	var c EventCounts
	events := []Event{
		{Type: EventPressAccepted, Channel: ChannelR},
		{Type: EventLEDBlinking, Channel: ChannelR, State: StateBlinking},
		{Type: EventPressRejected, Channel: ChannelR},
		{Type: EventPressAccepted, Channel: ChannelY},
		{Type: EventLEDBlinking, Channel: ChannelY, State: StateBlinking},
		{Type: EventPressAccepted, Channel: ChannelY},
		{Type: EventLEDIdle, Channel: ChannelY, State: StateIdle},
		{Type: EventPressAccepted, Channel: Channel("G")},
	}
	for _, e := range events {
		c.Add(e)
	}

	if got := c.For(ChannelR); got != (ChannelCounts{Accepted: 1, Rejected: 1, Transitions: 1}) {
		t.Errorf("R counts: got %+v", got)
	}
	if got := c.For(ChannelY); got != (ChannelCounts{Accepted: 2, Transitions: 2}) {
		t.Errorf("Y counts: got %+v", got)
	}
}

func TestChannels(t *testing.T) {
	chs := Channels()
	if len(chs) != 2 || chs[0] != ChannelR || chs[1] != ChannelY {
		t.Errorf("Channels: got %v", chs)
	}
}
