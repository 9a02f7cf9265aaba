package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cygnusgroup/backoffice/core"
)

// Repair describes what Reconcile had to do to produce a consistent profile.
type Repair string

const (
	RepairNone      Repair = "none"      // fast path, no writes
	RepairCreated   Repair = "created"   // first-ever login
	RepairMigrated  Repair = "migrated"  // stranded identity moved to the new principal id
	RepairConverged Repair = "converged" // lost an insert race and re-read the winner
)

const DefaultCallTimeout = 8 * time.Second

// Reconciler makes the profile store agree with a verified principal.
//
// After Reconcile returns successfully there is exactly one profile for the
// principal's email and its id is the principal id. When that cannot be
// reached the principal's provider session is revoked before returning.
type Reconciler struct {
	profiles core.ProfileStore
	revoker  core.SessionRevoker
	timeout  time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewReconciler(profiles core.ProfileStore, revoker core.SessionRevoker, timeout time.Duration, logger *zap.Logger) *Reconciler {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		profiles: profiles,
		revoker:  revoker,
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
	}
}

// Reconcile returns the profile for p, creating or migrating it when needed.
// Errors wrap core.ErrIntegrityViolation or core.ErrStoreUnavailable.
func (r *Reconciler) Reconcile(ctx context.Context, p *core.Principal) (*core.Profile, error) {
	profile, repair, err := r.reconcile(ctx, p)
	if err != nil {
		r.logger.Error("profile reconciliation failed",
			zap.String("principal_id", p.ID),
			zap.Error(err),
		)
		r.Revoke(ctx, p)
		return nil, err
	}

	if repair != RepairNone {
		r.logger.Info("profile repaired",
			zap.String("principal_id", p.ID),
			zap.String("profile_id", profile.ID),
			zap.String("repair", string(repair)),
		)
	}
	return profile, nil
}

func (r *Reconciler) reconcile(ctx context.Context, p *core.Principal) (*core.Profile, Repair, error) {
	email := core.NormalizeEmail(p.Email)

	found, err := r.findByPrincipalID(ctx, p.ID)
	if err == nil {
		return found, RepairNone, nil
	}
	if !errors.Is(err, core.ErrProfileNotFound) {
		return nil, "", storeFault("find profile by principal id", err)
	}

	zombie, err := r.findByEmail(ctx, email)
	if err != nil && !errors.Is(err, core.ErrProfileNotFound) {
		return nil, "", storeFault("find profile by email", err)
	}

	var (
		profile *core.Profile
		repair  Repair
	)
	switch {
	case zombie == nil:
		repair = RepairCreated
		profile, err = r.create(ctx, p, email)
	case zombie.ID == p.ID:
		// inserted concurrently between the two reads
		return zombie, RepairConverged, nil
	default:
		repair = RepairMigrated
		profile, err = r.migrate(ctx, zombie, p, email)
	}

	if errors.Is(err, core.ErrStoreConflict) {
		winner, rerr := r.findByPrincipalID(ctx, p.ID)
		if rerr != nil {
			return nil, "", storeFault("re-read profile after conflict", fmt.Errorf("%w (after %v)", rerr, err))
		}
		return winner, RepairConverged, nil
	}
	if err != nil {
		return nil, "", storeFault(string(repair)+" profile", err)
	}
	return profile, repair, nil
}

func (r *Reconciler) create(ctx context.Context, p *core.Principal, email string) (*core.Profile, error) {
	now := r.now().UTC()
	profile := &core.Profile{
		ID:          p.ID,
		Email:       email,
		DisplayName: displayName(p.Name, email),
		Role:        core.DefaultRole,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.profiles.Insert(ctx, profile)
}

// migrate moves a stranded profile and its listings to the principal id.
// Order: reassign listings, delete the stale row, insert the replacement.
func (r *Reconciler) migrate(ctx context.Context, zombie *core.Profile, p *core.Principal, email string) (*core.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var migrated *core.Profile
	err := r.profiles.Atomically(ctx, func(tx core.ProfileStore) error {
		moved, err := tx.ReassignOwnedResources(ctx, zombie.ID, p.ID)
		if err != nil {
			return fmt.Errorf("reassign listings: %w", err)
		}

		if err := tx.Delete(ctx, zombie.ID); err != nil {
			return fmt.Errorf("delete stale profile: %w", err)
		}

		clone := *zombie
		clone.ID = p.ID
		clone.Email = email
		clone.UpdatedAt = r.now().UTC()

		migrated, err = tx.Insert(ctx, &clone)
		if err != nil {
			return fmt.Errorf("insert migrated profile: %w", err)
		}

		r.logger.Debug("listings reassigned",
			zap.String("from", zombie.ID),
			zap.String("to", p.ID),
			zap.Int("count", moved),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return migrated, nil
}

// Revoke invalidates the provider session of p. Failures are logged only.
func (r *Reconciler) Revoke(ctx context.Context, p *core.Principal) {
	if r.revoker == nil || p == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	if err := r.revoker.Revoke(ctx, p); err != nil {
		r.logger.Error("provider session revoke failed",
			zap.String("principal_id", p.ID),
			zap.Error(err),
		)
	}
}

func (r *Reconciler) findByPrincipalID(ctx context.Context, id string) (*core.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.profiles.FindByPrincipalID(ctx, id)
}

func (r *Reconciler) findByEmail(ctx context.Context, email string) (*core.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.profiles.FindByEmail(ctx, email)
}

// storeFault maps a store error onto the two failures callers may see.
func storeFault(op string, err error) error {
	switch {
	case errors.Is(err, core.ErrStoreUnavailable):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w: %w", op, core.ErrStoreUnavailable, err)
	case errors.Is(err, core.ErrIntegrityViolation):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, core.ErrIntegrityViolation, err)
	}
}

func displayName(name, email string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
		return local
	}
	return email
}
