package superadmin

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"prosektor-api/internal/asyncx"
	"prosektor-api/internal/observability/logger"
	"prosektor-api/internal/provider"

	"go.uber.org/zap"
)

const listPageSize = 50

// SyncReport summarizes one pass over the provider's accounts
type SyncReport struct {
	Scanned  int
	Promoted int
	Missing  []string
}

// Service grants the privileged application-level role to accounts whose
// email is on the configured allow-list, through the identity provider's
// administrative update API. Two entry points share the one effect: a
// process-wide startup sync and a per-request lazy bootstrap.
type Service struct {
	gateway   provider.SessionGateway
	allowlist map[string]struct{}
	log       *logger.Logger

	once    sync.Once
	startup *asyncx.Future[SyncReport]
}

// NewService builds a Service. Allow-list emails are matched
// case-insensitively and de-duplicated.
func NewService(gateway provider.SessionGateway, allowedEmails []string, log *logger.Logger) *Service {
	allowlist := make(map[string]struct{}, len(allowedEmails))
	for _, email := range allowedEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			allowlist[email] = struct{}{}
		}
	}
	return &Service{
		gateway:   gateway,
		allowlist: allowlist,
		log:       log,
	}
}

// Allowlisted reports whether an email is on the allow-list
func (s *Service) Allowlisted(email string) bool {
	_, ok := s.allowlist[strings.ToLower(email)]
	return ok
}

// StartupSync runs the full reconciliation exactly once per process. Every
// caller, however many arrive concurrently before the first pass finishes,
// awaits the same single-flight future and observes its one outcome.
func (s *Service) StartupSync(ctx context.Context) (SyncReport, error) {
	s.once.Do(func() {
		// The sync outlives any one request, so it runs detached from
		// caller cancellation.
		s.startup = asyncx.Run(func() (SyncReport, error) {
			return s.syncAll(context.WithoutCancel(ctx))
		})
	})
	return s.startup.Await()
}

// syncAll pages through every provider account and patches any allow-listed
// account lacking the privileged claim. Allow-listed emails never seen are
// logged, not failed: startup sync must never keep the process from serving.
func (s *Service) syncAll(ctx context.Context) (SyncReport, error) {
	report := SyncReport{}
	if len(s.allowlist) == 0 {
		return report, nil
	}

	found := make(map[string]struct{}, len(s.allowlist))

	for page := 1; ; page++ {
		users, err := s.gateway.AdminListUsers(ctx, page, listPageSize)
		if err != nil {
			return report, fmt.Errorf("list users page %d: %w", page, err)
		}
		if len(users) == 0 {
			break
		}
		report.Scanned += len(users)

		for i := range users {
			user := &users[i]
			if !s.Allowlisted(user.Email) {
				continue
			}
			found[strings.ToLower(user.Email)] = struct{}{}

			if user.IsSuperAdmin() {
				continue
			}
			if err := s.promote(ctx, user); err != nil {
				return report, err
			}
			report.Promoted++
		}
	}

	for email := range s.allowlist {
		if _, ok := found[email]; !ok {
			report.Missing = append(report.Missing, email)
			s.log.Warn(ctx, "allow-listed account not found during sync",
				logger.Module("superadmin"),
				logger.Action("startup_sync"),
				zap.String("email_hash", fmt.Sprintf("%x", []byte(email))[:12]),
			)
		}
	}

	s.log.Info(ctx, "super admin sync completed",
		logger.Module("superadmin"),
		logger.Action("startup_sync"),
		zap.Int("scanned", report.Scanned),
		zap.Int("promoted", report.Promoted),
		zap.Int("missing", len(report.Missing)),
	)

	return report, nil
}

// EnsureElevated is the per-request lazy bootstrap. Given an authenticated
// account, it patches the privileged claim when the email is allow-listed
// and the claim is absent. A failed patch degrades to "continue as the
// unprivileged account"; privilege escalation is best-effort and must never
// surface a hard failure to the end user.
func (s *Service) EnsureElevated(ctx context.Context, user *provider.User) bool {
	if user.IsSuperAdmin() {
		return true
	}
	if !s.Allowlisted(user.Email) {
		return false
	}

	if err := s.promote(ctx, user); err != nil {
		s.log.Warn(ctx, "super admin bootstrap failed, continuing unprivileged",
			logger.Module("superadmin"),
			logger.Action("bootstrap"),
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		return false
	}
	return true
}

// promote patches the privileged claim onto the account, preserving any
// other app_metadata keys.
func (s *Service) promote(ctx context.Context, user *provider.User) error {
	metadata := make(map[string]any, len(user.AppMetadata)+1)
	for k, v := range user.AppMetadata {
		metadata[k] = v
	}
	metadata["is_super_admin"] = true

	if err := s.gateway.AdminUpdateUser(ctx, user.ID, metadata); err != nil {
		return fmt.Errorf("promote user %s: %w", user.ID, err)
	}

	user.AppMetadata = metadata
	return nil
}
