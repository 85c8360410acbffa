package ipc

import (
	"context"

	"github.com/godbus/dbus/v5"

	"github.com/Letdown2491/waypoint/pkg/auth"
	"github.com/Letdown2491/waypoint/pkg/config"
)

// EnableQuotas turns on qgroup accounting for the configured quota root,
// using the simple single-level qgroup scheme when simple is true.
func (s *Service) EnableQuotas(simple bool, sender dbus.Sender) (bool, string, *dbus.Error) {
	ctx := context.Background()
	ok, msg := s.gated(ctx, sender, "EnableQuotas", auth.ActionQuota, s.paths.QuotaRoot, func() (string, error) {
		kind := "simple"
		if !simple {
			kind = "full"
		}
		if err := s.quota.EnableQuota(ctx, s.paths.QuotaRoot, kind); err != nil {
			return "", err
		}
		return "quotas enabled", nil
	})
	return ok, msg, nil
}

// DisableQuotas turns off qgroup accounting for the configured quota root.
func (s *Service) DisableQuotas(sender dbus.Sender) (bool, string, *dbus.Error) {
	ctx := context.Background()
	ok, msg := s.gated(ctx, sender, "DisableQuotas", auth.ActionQuota, s.paths.QuotaRoot, func() (string, error) {
		if err := s.quota.DisableQuota(ctx, s.paths.QuotaRoot); err != nil {
			return "", err
		}
		return "quotas disabled", nil
	})
	return ok, msg, nil
}

// GetQuotaUsage returns a JSON report of current quota consumption. Not on
// the read-only carve-out list (it is not list/scan/status/verify/sizes),
// so it is gated and audited like the rest of the quota group.
func (s *Service) GetQuotaUsage(sender dbus.Sender) (bool, string, *dbus.Error) {
	ctx := context.Background()
	ok, msg := s.gated(ctx, sender, "GetQuotaUsage", auth.ActionQuota, s.paths.QuotaRoot, func() (string, error) {
		usage, err := s.quota.QuotaUsage(ctx, s.paths.QuotaRoot)
		if err != nil {
			return "", err
		}
		return toJSON(usage), nil
	})
	return ok, msg, nil
}

// SetQuotaLimit sets the qgroup byte limit on the configured quota root.
func (s *Service) SetQuotaLimit(bytes int64, sender dbus.Sender) (bool, string, *dbus.Error) {
	ctx := context.Background()
	ok, msg := s.gated(ctx, sender, "SetQuotaLimit", auth.ActionQuota, s.paths.QuotaRoot, func() (string, error) {
		if err := s.quota.SetQuotaLimit(ctx, s.paths.QuotaRoot, bytes); err != nil {
			return "", err
		}
		return "quota limit set", nil
	})
	return ok, msg, nil
}

// SaveQuotaConfig persists content, the UI's already-serialized quota
// config document.
func (s *Service) SaveQuotaConfig(content string, sender dbus.Sender) (bool, string, *dbus.Error) {
	ctx := context.Background()
	ok, msg := s.gated(ctx, sender, "SaveQuotaConfig", auth.ActionQuota, s.paths.QuotaConfig, func() (string, error) {
		if err := config.SaveRaw(s.paths.QuotaConfig, []byte(content)); err != nil {
			return "", err
		}
		return "quota config saved", nil
	})
	return ok, msg, nil
}
