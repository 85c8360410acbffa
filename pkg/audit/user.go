package audit

import (
	"fmt"
	"os"
	"os/user"
	"strings"
)

// ResolveUser best-effort resolves pid's owning uid and username by
// reading /proc/<pid>/status. Any failure at any step yields empty
// strings rather than an error: a missing audit identity is not cause to
// fail the operation being audited.
func ResolveUser(pid uint32) (userID, userName string) {
	raw, err := os.ReadFile(fmt.Sprintf("/proc/%d/status", pid))
	if err != nil {
		return "", ""
	}
	for _, line := range strings.Split(string(raw), "\n") {
		if !strings.HasPrefix(line, "Uid:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return "", ""
		}
		uid := fields[1]
		name := ""
		if u, err := user.LookupId(uid); err == nil {
			name = u.Username
		}
		return uid, name
	}
	return "", ""
}
