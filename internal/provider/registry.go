package provider

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownChannel = errors.New("no provider for channel")

// Registry maps channel tags to provider senders. The table is fixed at
// construction; there is no dynamic registration.
type Registry struct {
	byChannel map[string]Sender
}

// NewRegistry wires the static channel table. Nil senders leave their
// channels unroutable, which surfaces as ErrUnknownChannel at send time.
func NewRegistry(conversations, socialGraph, professional, email Sender) *Registry {
	byChannel := map[string]Sender{}
	assign := func(sender Sender, channels ...string) {
		if sender == nil {
			return
		}
		for _, channel := range channels {
			byChannel[channel] = sender
		}
	}
	assign(conversations, ChannelSMS, ChannelLine, ChannelWhatsApp)
	assign(socialGraph, ChannelFacebook, ChannelInstagram)
	assign(professional, ChannelLinkedIn)
	assign(email, ChannelEmail)
	return &Registry{byChannel: byChannel}
}

// ForChannel resolves the provider for a channel tag.
func (r *Registry) ForChannel(channel string) (Sender, error) {
	sender, ok := r.byChannel[strings.ToLower(strings.TrimSpace(channel))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, channel)
	}
	return sender, nil
}

// Channels lists the routable channel tags.
func (r *Registry) Channels() []string {
	channels := make([]string, 0, len(r.byChannel))
	for channel := range r.byChannel {
		channels = append(channels, channel)
	}
	return channels
}
