// Package auth gates every privileged, state-changing operation behind the
// host's polkit-style authorization agent: it resolves the IPC caller's
// process id and start time, then asks the agent whether that process may
// perform the named action.
package auth
