package services

import (
	"gym_club_backend/pkg/utils"
)

// NotificationKind identifies the member notification templates.
type NotificationKind string

const (
	NotificationTierUpgrade            NotificationKind = "tier_upgrade"
	NotificationRedemptionConfirmation NotificationKind = "redemption_confirmation"
	NotificationRewardsAvailable       NotificationKind = "rewards_available"
)

// Notifier sends fire-and-forget member notifications. A failed notification
// must never roll back the mutation that triggered it; callers log and move on.
type Notifier interface {
	Notify(memberID int64, kind NotificationKind, vars map[string]string) error
}

type logNotifier struct{}

// NewLogNotifier creates a Notifier that records notifications in the
// application log. The real delivery channel (email/SMS) hangs off the same
// interface in deployments that have one configured.
func NewLogNotifier() Notifier {
	return &logNotifier{}
}

func (n *logNotifier) Notify(memberID int64, kind NotificationKind, vars map[string]string) error {
	fields := map[string]interface{}{
		"member_id": memberID,
		"kind":      string(kind),
	}
	for k, v := range vars {
		fields[k] = v
	}
	utils.LogInfo("Member notification", fields)
	return nil
}

// notifyBestEffort fires a notification and logs a failure without propagating it.
func notifyBestEffort(n Notifier, memberID int64, kind NotificationKind, vars map[string]string) {
	if n == nil {
		return
	}
	if err := n.Notify(memberID, kind, vars); err != nil {
		utils.LogError(err, "Failed to send member notification")
	}
}
