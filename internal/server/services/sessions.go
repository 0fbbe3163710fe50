package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/handover/internal/common"
	"github.com/dmitrijs2005/handover/internal/logging"
	"github.com/dmitrijs2005/handover/internal/server/kvstore"
	"github.com/dmitrijs2005/handover/internal/server/models"
	"github.com/dmitrijs2005/handover/internal/server/repositories/repomanager"
)

// Rejection reasons shown to users.
const (
	reasonSessionNotFound    = "Oturum bulunamadı"
	reasonAlreadyParticipant = "Bu oturuma zaten katılıyorsunuz"
	reasonNotAllowed         = "Bu oturuma giriş izniniz yok"
	reasonOnlyCreatorEnds    = "Sadece oturumu oluşturan kişi oturumu sonlandırabilir"
	reasonOnlyCreatorAdds    = "Sadece oturumu oluşturan kişi kullanıcı ekleyebilir"
	reasonOnlyCreatorRemoves = "Sadece oturumu oluşturan kişi kullanıcı çıkarabilir"
	reasonCreatorNotRemoved  = "Oturumu oluşturan kişi çıkarılamaz"
)

// CreateSessionInput describes a new session. NewUserNames are registered
// when unknown and merged into the allow-list.
type CreateSessionInput struct {
	Name           string
	CreatorID      string
	AllowedUserIDs []string
	NewUserNames   []string
}

// JoinResult is a membership created by Join. Left lists the sessions the
// user was moved out of.
type JoinResult struct {
	Participant *models.SessionParticipant `json:"participant"`
	Left        []string                   `json:"left"`
}

type SessionService struct {
	repomanager repomanager.RepositoryManager
	users       *UserService
	logger      logging.Logger
	now         func() time.Time
}

func NewSessionService(m repomanager.RepositoryManager, us *UserService, l logging.Logger) *SessionService {
	return &SessionService{
		repomanager: m,
		users:       us,
		logger:      l.With("module", "session_service"),
		now:         time.Now,
	}
}

// Create stores a new session and makes its creator a participant, moving
// them out of any other session.
func (s *SessionService) Create(ctx context.Context, in CreateSessionInput) (*models.Session, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, common.Validation("Oturum adı gereklidir")
	}
	if utf8.RuneCountInString(name) < minNameLength {
		return nil, common.Validation("Oturum adı en az 2 karakter olmalıdır")
	}
	if in.CreatorID == "" {
		return nil, common.Validation("Oturumu oluşturan kullanıcı gereklidir")
	}

	allowed := make([]string, 0, len(in.AllowedUserIDs)+len(in.NewUserNames))
	for _, id := range in.AllowedUserIDs {
		if id = strings.TrimSpace(id); id != "" {
			allowed = append(allowed, id)
		}
	}
	for _, userName := range in.NewUserNames {
		if utf8.RuneCountInString(strings.TrimSpace(userName)) < minNameLength {
			continue
		}
		u, err := s.users.GetOrCreate(ctx, userName)
		if err != nil {
			return nil, err
		}
		allowed = append(allowed, u.ID)
	}

	now := s.now()
	session := &models.Session{
		ID:             common.NewID(common.PrefixSession, now),
		Name:           name,
		CreatedAt:      now,
		UpdatedAt:      now,
		CreatedByID:    in.CreatorID,
		AllowedUserIDs: uniq(allowed),
	}

	if _, err := s.repomanager.Sessions().Create(ctx, session); err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	if _, err := s.addParticipant(ctx, in.CreatorID, session.ID); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "session created", "session_id", session.ID, "creator_id", in.CreatorID)
	return session, nil
}

// CanJoin reports, as a *common.ReasonError, why userID may not join the
// session. A nil result means Join would succeed. Being a participant of a
// different session is not a reason: Join moves the user.
func (s *SessionService) CanJoin(ctx context.Context, userID, sessionID string) error {
	_, err := s.checkJoin(ctx, userID, sessionID)
	return err
}

func (s *SessionService) checkJoin(ctx context.Context, userID, sessionID string) (*models.Session, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, common.Missing(reasonSessionNotFound)
	}

	member, err := s.IsParticipant(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if member {
		return nil, common.Conflict(reasonAlreadyParticipant)
	}

	if session.CreatedByID != userID && !session.Allows(userID) {
		return nil, common.Permission(reasonNotAllowed)
	}

	return session, nil
}

// Join makes userID a participant of sessionID. Any membership the user
// holds in another session is removed in the same store transaction.
func (s *SessionService) Join(ctx context.Context, userID, sessionID string) (*JoinResult, error) {
	if _, err := s.checkJoin(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	res, err := s.addParticipant(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "session joined", "session_id", sessionID, "user_id", userID, "left", res.Left)
	return res, nil
}

func (s *SessionService) addParticipant(ctx context.Context, userID, sessionID string) (*JoinResult, error) {
	now := s.now()
	p := &models.SessionParticipant{
		ID:        common.NewID(common.PrefixParticipant, now),
		UserID:    userID,
		SessionID: sessionID,
		JoinedAt:  now,
	}

	left, err := s.repomanager.Participants().Add(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("error adding participant: %w", err)
	}
	return &JoinResult{Participant: p, Left: left}, nil
}

// Leave removes the membership of userID in sessionID, if any.
func (s *SessionService) Leave(ctx context.Context, userID, sessionID string) error {
	if err := s.repomanager.Participants().Remove(ctx, userID, sessionID); err != nil {
		return fmt.Errorf("error removing participant: %w", err)
	}
	s.logger.Info(ctx, "session left", "session_id", sessionID, "user_id", userID)
	return nil
}

func (s *SessionService) IsParticipant(ctx context.Context, userID, sessionID string) (bool, error) {
	ok, err := s.repomanager.Participants().Exists(ctx, userID, sessionID)
	if err != nil {
		return false, fmt.Errorf("error checking participant: %w", err)
	}
	return ok, nil
}

// End destroys the session. Only its creator may end it. Memberships go
// first, then the session record with its index keys, then every patient
// with its tasks. A failure on one child is logged and the cascade goes on;
// whatever is left behind expires with its TTL.
func (s *SessionService) End(ctx context.Context, sessionID, requesterID string) error {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return common.Missing(reasonSessionNotFound)
	}
	if session.CreatedByID != requesterID {
		return common.Permission(reasonOnlyCreatorEnds)
	}

	// the patient index is deleted together with the session record
	patientIDs, err := s.repomanager.Patients().ListIDsBySession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("error listing session patients: %w", err)
	}

	members, err := s.repomanager.Participants().ListBySession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("error listing participants: %w", err)
	}
	for _, m := range members {
		if err := s.repomanager.Participants().Remove(ctx, m.UserID, sessionID); err != nil {
			s.logger.Warn(ctx, "participant removal failed", "session_id", sessionID, "user_id", m.UserID, "error", err)
		}
	}

	if err := s.repomanager.Sessions().Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}

	failed := 0
	for _, id := range patientIDs {
		if err := s.deletePatient(ctx, id); err != nil {
			failed++
			s.logger.Warn(ctx, "patient removal failed", "session_id", sessionID, "patient_id", id, "error", err)
		}
	}

	s.logger.Info(ctx, "session ended", "session_id", sessionID,
		"participants", len(members), "patients", len(patientIDs), "failed", failed)
	return nil
}

func (s *SessionService) deletePatient(ctx context.Context, patientID string) error {
	if err := s.repomanager.Tasks().DeleteByPatient(ctx, patientID); err != nil {
		return err
	}
	return s.repomanager.Patients().Delete(ctx, patientID)
}

// AddAllowedUser puts userID on the session's allow-list. Creator only.
func (s *SessionService) AddAllowedUser(ctx context.Context, sessionID, userID, requesterID string) (*models.Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, common.Validation("Kullanıcı ID gereklidir")
	}

	session, err := s.repomanager.Sessions().Update(ctx, sessionID, func(sess *models.Session) error {
		if sess.CreatedByID != requesterID {
			return common.Permission(reasonOnlyCreatorAdds)
		}
		if slices.Contains(sess.AllowedUserIDs, userID) {
			return kvstore.ErrUnchanged
		}
		sess.AllowedUserIDs = append(sess.AllowedUserIDs, userID)
		sess.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, s.updateError(err)
	}
	if session == nil {
		return nil, common.Missing(reasonSessionNotFound)
	}

	s.logger.Info(ctx, "allowed user added", "session_id", sessionID, "user_id", userID)
	return session, nil
}

// RemoveAllowedUser takes userID off the allow-list and evicts their
// membership. Creator only; the creator cannot be removed. Removing the last
// entry leaves the session unrestricted. A user who was not on the list keeps
// their membership.
func (s *SessionService) RemoveAllowedUser(ctx context.Context, sessionID, userID, requesterID string) (*models.Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, common.Validation("Kullanıcı ID gereklidir")
	}

	var removed bool

	session, err := s.repomanager.Sessions().Update(ctx, sessionID, func(sess *models.Session) error {
		removed = false
		if sess.CreatedByID != requesterID {
			return common.Permission(reasonOnlyCreatorRemoves)
		}
		if userID == sess.CreatedByID {
			return common.Conflict(reasonCreatorNotRemoved)
		}
		if !slices.Contains(sess.AllowedUserIDs, userID) {
			return kvstore.ErrUnchanged
		}
		sess.AllowedUserIDs = slices.DeleteFunc(sess.AllowedUserIDs, func(id string) bool { return id == userID })
		if len(sess.AllowedUserIDs) == 0 {
			sess.AllowedUserIDs = nil
		}
		sess.UpdatedAt = s.now()
		removed = true
		return nil
	})
	if err != nil {
		return nil, s.updateError(err)
	}
	if session == nil {
		return nil, common.Missing(reasonSessionNotFound)
	}
	if !removed {
		return session, nil
	}

	member, err := s.IsParticipant(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if member {
		if err := s.repomanager.Participants().Remove(ctx, userID, sessionID); err != nil {
			return nil, fmt.Errorf("error evicting participant: %w", err)
		}
	}

	s.logger.Info(ctx, "allowed user removed", "session_id", sessionID, "user_id", userID, "evicted", member)
	return session, nil
}

// CreateUserAndAllow registers userName if needed and allows it into the
// session. Creator only.
func (s *SessionService) CreateUserAndAllow(ctx context.Context, sessionID, userName, requesterID string) (*models.User, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, common.Missing(reasonSessionNotFound)
	}
	if session.CreatedByID != requesterID {
		return nil, common.Permission(reasonOnlyCreatorAdds)
	}

	u, err := s.users.GetOrCreate(ctx, userName)
	if err != nil {
		return nil, err
	}

	if _, err := s.AddAllowedUser(ctx, sessionID, u.ID, requesterID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.repomanager.Sessions().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error reading session: %w", err)
	}
	return session, nil
}

// List returns every live session, newest first.
func (s *SessionService) List(ctx context.Context) ([]*models.Session, error) {
	list, err := s.repomanager.Sessions().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}
	return list, nil
}

// Latest returns the most recently created live session.
func (s *SessionService) Latest(ctx context.Context) (*models.Session, error) {
	list, err := s.List(ctx)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

// ListForUser returns the sessions in the user's slot, newest first.
func (s *SessionService) ListForUser(ctx context.Context, userID string) ([]*models.Session, error) {
	ids, err := s.repomanager.Participants().SessionIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error reading user sessions: %w", err)
	}

	list, err := s.repomanager.Sessions().GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error reading sessions: %w", err)
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

// ActiveForUser returns the session the user currently participates in,
// or nil.
func (s *SessionService) ActiveForUser(ctx context.Context, userID string) (*models.Session, error) {
	list, err := s.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, session := range list {
		member, err := s.IsParticipant(ctx, userID, session.ID)
		if err != nil {
			return nil, err
		}
		if member {
			return session, nil
		}
	}
	return nil, nil
}

func (s *SessionService) updateError(err error) error {
	var re *common.ReasonError
	if errors.As(err, &re) {
		return err
	}
	return fmt.Errorf("error updating session: %w", err)
}

// uniq drops repeated ids, keeping the first occurrence. An empty result
// is nil so the record omits the allow-list.
func uniq(ids []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
