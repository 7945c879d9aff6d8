package notify

import "context"

// NopGateway drops every notification. Used when no gateway is configured
// and in tests.
type NopGateway struct{}

// Broadcast implements the gateway contract.
func (NopGateway) Broadcast(context.Context, string, Broadcast) error { return nil }

// NotifyClaimed implements the gateway contract.
func (NopGateway) NotifyClaimed(context.Context, []string, string) error { return nil }

// NotifyFailed implements the gateway contract.
func (NopGateway) NotifyFailed(context.Context, string, string, string) error { return nil }

// NotifyAdmins implements the gateway contract.
func (NopGateway) NotifyAdmins(context.Context, string, any) error { return nil }
