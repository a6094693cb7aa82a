package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devingeorge/devbot-ai-assistant/internal/store"
)

// ErrMonitorLimit is returned when a team already has the maximum number of
// monitored channels.
var ErrMonitorLimit = errors.New("monitored channel limit reached")

// ErrNotFound is returned by lookups for records that do not exist.
var ErrNotFound = errors.New("record not found")

// Service manages configuration records on top of the key-value store.
//
// Administrative methods (Create/Save/Delete/List) surface store errors to
// the caller. Turn-path lookups (MatchCanned, FindMonitor, Profile,
// Credential, TokenPair) degrade store failures to "not configured" so an
// unreachable store never fails a turn.
type Service struct {
	kv  store.KV
	now func() time.Time
}

// NewService creates a record service backed by kv.
func NewService(kv store.KV) *Service {
	return &Service{kv: kv, now: time.Now}
}

func key(parts ...string) string { return strings.Join(parts, ":") }

func (s *Service) put(ctx context.Context, k string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", k, err)
	}
	return s.kv.Set(ctx, k, string(data), 0)
}

func (s *Service) get(ctx context.Context, k string, v any) error {
	data, ok, err := s.kv.Get(ctx, k)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("parse record %s: %w", k, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Canned responses
// ---------------------------------------------------------------------------

// CreateCannedResponse stores a new enabled canned response for the team.
func (s *Service) CreateCannedResponse(ctx context.Context, teamID, trigger, responseText string) (*CannedResponse, error) {
	trigger = strings.TrimSpace(trigger)
	if trigger == "" {
		return nil, errors.New("trigger phrase required")
	}
	now := s.now().UTC()
	rec := &CannedResponse{
		ID:            uuid.NewString(),
		TriggerPhrase: trigger,
		ResponseText:  responseText,
		Enabled:       true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.put(ctx, key(KeyCanned, teamID, rec.ID), rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// GetCannedResponse loads one canned response by id.
func (s *Service) GetCannedResponse(ctx context.Context, teamID, id string) (*CannedResponse, error) {
	var rec CannedResponse
	if err := s.get(ctx, key(KeyCanned, teamID, id), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListCannedResponses returns all canned responses for the team in key order.
func (s *Service) ListCannedResponses(ctx context.Context, teamID string) ([]*CannedResponse, error) {
	keys, err := s.kv.ListKeysByPrefix(ctx, key(KeyCanned, teamID)+":")
	if err != nil {
		return nil, err
	}
	out := make([]*CannedResponse, 0, len(keys))
	for _, k := range keys {
		var rec CannedResponse
		if err := s.get(ctx, k, &rec); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, nil
}

// SetCannedEnabled flips the enabled flag without deleting the record.
func (s *Service) SetCannedEnabled(ctx context.Context, teamID, id string, enabled bool) error {
	rec, err := s.GetCannedResponse(ctx, teamID, id)
	if err != nil {
		return err
	}
	rec.Enabled = enabled
	rec.UpdatedAt = s.now().UTC()
	return s.put(ctx, key(KeyCanned, teamID, id), rec)
}

// DeleteCannedResponse removes the record.
func (s *Service) DeleteCannedResponse(ctx context.Context, teamID, id string) error {
	return s.kv.Delete(ctx, key(KeyCanned, teamID, id))
}

// MatchCanned returns the enabled canned response matching text, or nil.
// Exact matches beat wildcard matches, longer triggers beat shorter ones,
// and remaining ties go to the lower record ID so matching is deterministic.
// Workspace records win over seeded global records. Store failures degrade
// to no match.
func (s *Service) MatchCanned(ctx context.Context, teamID, text string) *CannedResponse {
	if rec := s.matchCannedIn(ctx, teamID, text); rec != nil {
		return rec
	}
	if teamID != GlobalTeamID {
		return s.matchCannedIn(ctx, GlobalTeamID, text)
	}
	return nil
}

func (s *Service) matchCannedIn(ctx context.Context, teamID, text string) *CannedResponse {
	all, err := s.ListCannedResponses(ctx, teamID)
	if err != nil {
		slog.Warn("Canned response lookup degraded", "team", teamID, "error", err)
		return nil
	}
	var best *CannedResponse
	bestExact := false
	for _, rec := range all {
		if !rec.Enabled || !rec.Matches(text) {
			continue
		}
		exact := !strings.HasSuffix(rec.TriggerPhrase, "*")
		switch {
		case best == nil:
		case exact && !bestExact:
		case exact == bestExact && len(rec.TriggerPhrase) > len(best.TriggerPhrase):
		default:
			continue
		}
		best = rec
		bestExact = exact
	}
	return best
}

// ---------------------------------------------------------------------------
// Monitored channels
// ---------------------------------------------------------------------------

// AddMonitoredChannel registers a channel monitor, enforcing the per-team cap.
func (s *Service) AddMonitoredChannel(ctx context.Context, teamID string, cfg ChannelMonitorConfig) (*ChannelMonitorConfig, error) {
	if strings.TrimSpace(cfg.ChannelID) == "" {
		return nil, errors.New("channel id required")
	}
	if !ValidResponseType(cfg.ResponseType) {
		return nil, fmt.Errorf("unknown response type: %s", cfg.ResponseType)
	}
	existing, err := s.ListMonitoredChannels(ctx, teamID)
	if err != nil {
		return nil, err
	}
	for _, m := range existing {
		if m.ChannelID == cfg.ChannelID {
			return nil, fmt.Errorf("channel %s already monitored", cfg.ChannelID)
		}
	}
	if len(existing) >= MaxMonitoredChannels {
		return nil, ErrMonitorLimit
	}
	cfg.AddedAt = s.now().UTC()
	if err := s.put(ctx, key(KeyMonitor, teamID, cfg.ChannelID), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ListMonitoredChannels returns all monitor entries for the team.
func (s *Service) ListMonitoredChannels(ctx context.Context, teamID string) ([]*ChannelMonitorConfig, error) {
	keys, err := s.kv.ListKeysByPrefix(ctx, key(KeyMonitor, teamID)+":")
	if err != nil {
		return nil, err
	}
	out := make([]*ChannelMonitorConfig, 0, len(keys))
	for _, k := range keys {
		var rec ChannelMonitorConfig
		if err := s.get(ctx, k, &rec); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, nil
}

// DeleteMonitoredChannel removes a monitor entry.
func (s *Service) DeleteMonitoredChannel(ctx context.Context, teamID, channelID string) error {
	return s.kv.Delete(ctx, key(KeyMonitor, teamID, channelID))
}

// FindMonitor returns the enabled monitor for a channel, or nil. Store
// failures degrade to nil.
func (s *Service) FindMonitor(ctx context.Context, teamID, channelID string) *ChannelMonitorConfig {
	var rec ChannelMonitorConfig
	if err := s.get(ctx, key(KeyMonitor, teamID, channelID), &rec); err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Warn("Monitor lookup degraded", "team", teamID, "channel", channelID, "error", err)
		}
		return nil
	}
	if !rec.Enabled {
		return nil
	}
	return &rec
}

// ---------------------------------------------------------------------------
// User behavior profiles
// ---------------------------------------------------------------------------

// SaveUserProfile stores the profile for a (team, user) pair.
func (s *Service) SaveUserProfile(ctx context.Context, teamID, userID string, p UserBehaviorProfile) error {
	return s.put(ctx, key(KeyProfile, teamID, userID), &p)
}

// UserProfile returns the profile for a (team, user) pair, or nil when none
// exists or the store is unreachable.
func (s *Service) UserProfile(ctx context.Context, teamID, userID string) *UserBehaviorProfile {
	var rec UserBehaviorProfile
	if err := s.get(ctx, key(KeyProfile, teamID, userID), &rec); err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Warn("Profile lookup degraded", "team", teamID, "user", userID, "error", err)
		}
		return nil
	}
	return &rec
}

// DeleteUserProfile removes the profile record.
func (s *Service) DeleteUserProfile(ctx context.Context, teamID, userID string) error {
	return s.kv.Delete(ctx, key(KeyProfile, teamID, userID))
}

// ---------------------------------------------------------------------------
// Integration credentials
// ---------------------------------------------------------------------------

// SaveIntegrationCredential stores the credential for (team, type).
func (s *Service) SaveIntegrationCredential(ctx context.Context, teamID string, cred IntegrationCredential) error {
	if strings.TrimSpace(cred.Type) == "" {
		return errors.New("integration type required")
	}
	return s.put(ctx, key(KeyCredential, teamID, cred.Type), &cred)
}

// IntegrationCredential returns the credential for (team, type), or nil.
func (s *Service) IntegrationCredential(ctx context.Context, teamID, credType string) *IntegrationCredential {
	var rec IntegrationCredential
	if err := s.get(ctx, key(KeyCredential, teamID, credType), &rec); err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Warn("Credential lookup degraded", "team", teamID, "type", credType, "error", err)
		}
		return nil
	}
	return &rec
}

// DeleteIntegrationCredential removes the credential record.
func (s *Service) DeleteIntegrationCredential(ctx context.Context, teamID, credType string) error {
	return s.kv.Delete(ctx, key(KeyCredential, teamID, credType))
}

// EnabledIntegrations returns the names of integrations configured for the
// team, in key order. Store failures degrade to none.
func (s *Service) EnabledIntegrations(ctx context.Context, teamID string) []string {
	prefix := key(KeyCredential, teamID) + ":"
	keys, err := s.kv.ListKeysByPrefix(ctx, prefix)
	if err != nil {
		slog.Warn("Integration list degraded", "team", teamID, "error", err)
		return nil
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, strings.TrimPrefix(k, prefix))
	}
	return names
}

// ---------------------------------------------------------------------------
// CRM token pairs
// ---------------------------------------------------------------------------

// SaveTokenPair stores CRM OAuth tokens for a (team, user) pair.
func (s *Service) SaveTokenPair(ctx context.Context, teamID, userID string, t TokenPair) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now().UTC()
	}
	return s.put(ctx, key(KeyTokens, teamID, userID), &t)
}

// TokenPair returns the CRM tokens for a (team, user) pair, or nil.
func (s *Service) TokenPair(ctx context.Context, teamID, userID string) *TokenPair {
	var rec TokenPair
	if err := s.get(ctx, key(KeyTokens, teamID, userID), &rec); err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Warn("Token lookup degraded", "team", teamID, "user", userID, "error", err)
		}
		return nil
	}
	return &rec
}

// DeleteTokenPair removes the token record.
func (s *Service) DeleteTokenPair(ctx context.Context, teamID, userID string) error {
	return s.kv.Delete(ctx, key(KeyTokens, teamID, userID))
}

// ---------------------------------------------------------------------------
// Turn counters
// ---------------------------------------------------------------------------

// IncrementTurnCount bumps and returns the per-(team, channel) turn counter.
// Read-increment-write without locking; a rapid double-send can race, which
// is accepted. Store failures degrade to zero.
func (s *Service) IncrementTurnCount(ctx context.Context, teamID, channelID string) int64 {
	k := key(KeyCounter, teamID, channelID)
	var n int64
	if raw, ok, err := s.kv.Get(ctx, k); err != nil {
		slog.Warn("Turn counter read degraded", "team", teamID, "error", err)
		return 0
	} else if ok {
		n, _ = strconv.ParseInt(raw, 10, 64)
	}
	n++
	if err := s.kv.Set(ctx, k, strconv.FormatInt(n, 10), 0); err != nil {
		slog.Warn("Turn counter write degraded", "team", teamID, "error", err)
	}
	return n
}
