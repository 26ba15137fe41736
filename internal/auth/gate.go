package auth

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/MANROEJR/ifs24027-pbo-p11/internal/api/dto"
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/domain"
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/repository"
)

// Rejection messages written by the gate.
const (
	MsgTokenMissing       = "token missing"
	MsgTokenInvalid       = "token invalid"
	MsgTokenFormatInvalid = "token format invalid"
	MsgTokenRevoked       = "token expired/revoked"
	MsgIdentityNotFound   = "identity not found"
	MsgStoreUnavailable   = "authentication store unavailable"
)

// Decision outcomes reported to the DecisionRecorder.
const (
	OutcomePublic             = "public"
	OutcomeAdmitted           = "admitted"
	OutcomeTokenMissing       = "token_missing"
	OutcomeTokenInvalid       = "token_invalid"
	OutcomeTokenFormatInvalid = "token_format_invalid"
	OutcomeTokenRevoked       = "token_revoked"
	OutcomeIdentityMissing    = "identity_missing"
	OutcomeStoreUnavailable   = "store_unavailable"
	OutcomeInternalError      = "internal_error"
)

const bearerScheme = "Bearer"

// DecisionRecorder counts gate decisions.
type DecisionRecorder interface {
	RecordAuthDecision(outcome string)
}

// GateConfig bundles the collaborators of the gate.
type GateConfig struct {
	Codec          *TokenCodec
	Registry       TokenRegistry
	Users          IdentityLookup
	PublicPrefixes []string
	PublicPaths    []string
	StoreTimeout   time.Duration
	Logger         *zap.Logger
	Recorder       DecisionRecorder
}

// Gate admits or rejects every inbound request based on its bearer token.
type Gate struct {
	codec        *TokenCodec
	registry     TokenRegistry
	users        IdentityLookup
	prefixes     []string
	exact        map[string]struct{}
	storeTimeout time.Duration
	logger       *zap.Logger
	recorder     DecisionRecorder
}

type rejection struct {
	status  int
	message string
	outcome string
}

// NewGate constructs the gate.
func NewGate(cfg GateConfig) *Gate {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.StoreTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	prefixes := make([]string, 0, len(cfg.PublicPrefixes))
	for _, p := range cfg.PublicPrefixes {
		if p = strings.TrimRight(strings.TrimSpace(p), "/"); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	exact := make(map[string]struct{}, len(cfg.PublicPaths))
	for _, p := range cfg.PublicPaths {
		if p = strings.TrimSpace(p); p != "" {
			exact[p] = struct{}{}
		}
	}

	return &Gate{
		codec:        cfg.Codec,
		registry:     cfg.Registry,
		users:        cfg.Users,
		prefixes:     prefixes,
		exact:        exact,
		storeTimeout: timeout,
		logger:       logger,
		recorder:     cfg.Recorder,
	}
}

// Handle is the Fiber middleware. It binds a fresh RequestIdentity to every request and
// only calls the next handler once the request is either exempt or fully authenticated.
func (g *Gate) Handle(c *fiber.Ctx) error {
	ri := bindIdentity(c)

	if g.IsPublic(c.Path()) {
		g.record(OutcomePublic)
		return c.Next()
	}

	token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return g.reject(c, rejection{http.StatusUnauthorized, MsgTokenMissing, OutcomeTokenMissing})
	}

	user, rej := g.resolve(c.UserContext(), token)
	if rej != nil {
		return g.reject(c, *rej)
	}

	if err := ri.SetIdentity(user); err != nil {
		g.logger.Error("binding request identity", zap.Error(err))
		return g.reject(c, rejection{http.StatusInternalServerError, "internal server error", OutcomeInternalError})
	}
	g.record(OutcomeAdmitted)
	return c.Next()
}

// resolve runs the verification, registry and identity steps in order.
func (g *Gate) resolve(parent context.Context, token string) (*domain.User, *rejection) {
	claims, err := g.codec.Verify(token, true)
	if err != nil {
		g.logger.Debug("token verification failed", zap.Error(err))
		return nil, &rejection{http.StatusUnauthorized, MsgTokenInvalid, OutcomeTokenInvalid}
	}

	identityRef, ok := claims.IdentityRef()
	if !ok {
		return nil, &rejection{http.StatusUnauthorized, MsgTokenFormatInvalid, OutcomeTokenFormatInvalid}
	}
	userID := identityRef.String()

	ctx, cancel := context.WithTimeout(parent, g.storeTimeout)
	defer cancel()

	if _, err := g.registry.Find(ctx, userID, token); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &rejection{http.StatusUnauthorized, MsgTokenRevoked, OutcomeTokenRevoked}
		}
		g.logger.Error("token registry lookup failed", zap.String("user_id", userID), zap.Error(err))
		return nil, &rejection{http.StatusServiceUnavailable, MsgStoreUnavailable, OutcomeStoreUnavailable}
	}

	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &rejection{http.StatusNotFound, MsgIdentityNotFound, OutcomeIdentityMissing}
		}
		g.logger.Error("identity lookup failed", zap.String("user_id", userID), zap.Error(err))
		return nil, &rejection{http.StatusServiceUnavailable, MsgStoreUnavailable, OutcomeStoreUnavailable}
	}
	if user == nil {
		return nil, &rejection{http.StatusNotFound, MsgIdentityNotFound, OutcomeIdentityMissing}
	}
	return user, nil
}

// IsPublic reports whether p is exempt from authentication. Prefixes match whole path
// segments, so "/css" covers "/css/app.css" but not "/cssx".
func (g *Gate) IsPublic(p string) bool {
	if p == "" {
		p = "/"
	}
	p = path.Clean(p)
	if _, ok := g.exact[p]; ok {
		return true
	}
	for _, prefix := range g.prefixes {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

func (g *Gate) reject(c *fiber.Ctx, r rejection) error {
	g.record(r.outcome)
	body := dto.Fail(r.message)
	if r.status >= http.StatusInternalServerError {
		body = dto.Error(r.message)
	}
	if err := c.Status(r.status).JSON(body); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return nil
}

func (g *Gate) record(outcome string) {
	if g.recorder != nil {
		g.recorder.RecordAuthDecision(outcome)
	}
}

// bearerToken extracts the credential from an Authorization header value.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
