package auth

import (
	"context"

	"github.com/godbus/dbus/v5"

	"github.com/Letdown2491/waypoint/pkg/waypointerr"
)

// flagAllowUserInteraction is polkit's CheckAuthorizationFlags bit allowing
// an interactive prompt (e.g. a password dialog) during the check.
const flagAllowUserInteraction = 1

const (
	dbusDestination    = "org.freedesktop.DBus"
	dbusPath           = dbus.ObjectPath("/org/freedesktop/DBus")
	polkitDestination  = "org.freedesktop.PolicyKit1"
	polkitPath         = dbus.ObjectPath("/org/freedesktop/PolicyKit1/Authority")
	polkitAuthorityIfc = "org.freedesktop.PolicyKit1.Authority"
)

// BusPIDResolver resolves a D-Bus unique name to its owning process id via
// the bus daemon itself.
type BusPIDResolver struct {
	conn *dbus.Conn
}

// NewBusPIDResolver wraps conn.
func NewBusPIDResolver(conn *dbus.Conn) *BusPIDResolver {
	return &BusPIDResolver{conn: conn}
}

func (r *BusPIDResolver) ResolvePID(ctx context.Context, sender string) (uint32, error) {
	obj := r.conn.Object(dbusDestination, dbusPath)
	var pid uint32
	call := obj.CallWithContext(ctx, dbusDestination+".GetConnectionUnixProcessID", 0, sender)
	if call.Err != nil {
		return 0, waypointerr.Wrap(waypointerr.ExternalFailure, "GetConnectionUnixProcessID", call.Err)
	}
	if err := call.Store(&pid); err != nil {
		return 0, waypointerr.Wrap(waypointerr.ExternalFailure, "decode caller pid", err)
	}
	return pid, nil
}

// unixProcessSubject is polkit's "unix-process" subject kind, shaped as the
// "(sa{sv})" the Authority interface expects.
type unixProcessSubject struct {
	Kind    string
	Details map[string]dbus.Variant
}

// PolkitAgent calls org.freedesktop.PolicyKit1.Authority.CheckAuthorization
// over the system bus.
type PolkitAgent struct {
	conn *dbus.Conn
}

// NewPolkitAgent wraps conn.
func NewPolkitAgent(conn *dbus.Conn) *PolkitAgent {
	return &PolkitAgent{conn: conn}
}

func (a *PolkitAgent) CheckAuthorization(ctx context.Context, pid uint32, startTime uint64, action string) (bool, error) {
	subject := unixProcessSubject{
		Kind: "unix-process",
		Details: map[string]dbus.Variant{
			"pid":        dbus.MakeVariant(pid),
			"start-time": dbus.MakeVariant(startTime),
		},
	}
	details := map[string]string{}

	obj := a.conn.Object(polkitDestination, polkitPath)
	call := obj.CallWithContext(ctx, polkitAuthorityIfc+".CheckAuthorization", 0,
		subject, action, details, uint32(flagAllowUserInteraction), "")
	if call.Err != nil {
		return false, waypointerr.Wrap(waypointerr.ExternalFailure, "CheckAuthorization", call.Err)
	}

	var isAuthorized, isChallenge bool
	var authDetails map[string]string
	if err := call.Store(&isAuthorized, &isChallenge, &authDetails); err != nil {
		return false, waypointerr.Wrap(waypointerr.ExternalFailure, "decode CheckAuthorization response", err)
	}
	return isAuthorized, nil
}
