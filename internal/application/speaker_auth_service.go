package application

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/example/conference-portal/internal/persistence"
)

const (
	developerSpeakerID = "test"
	developerPhone     = "123"
	developerName      = "Developer Mode"
	speakerTokenIssuer = "conference-portal"
)

// SpeakerClaims is the payload of a speaker token.
type SpeakerClaims struct {
	Name string `json:"name"`
	// Credential fingerprints the speaker id and phone the token was issued
	// for, so editing either one retires outstanding tokens.
	Credential string `json:"cred"`
	jwt.RegisteredClaims
}

// SpeakerAuthOptions configures SpeakerAuthService.
type SpeakerAuthOptions struct {
	// Secret signs tokens with HS256.
	Secret []byte
	// TTL bounds token lifetime. Defaults to 72 hours.
	TTL time.Duration
	// DeveloperLogin accepts the fixed test/123 pair without a lookup.
	DeveloperLogin bool
	Now            func() time.Time
	Logger         *slog.Logger
}

// SpeakerAuthService checks speaker credentials and issues signed tokens.
type SpeakerAuthService struct {
	speakers persistence.SpeakerRepository
	secret   []byte
	ttl      time.Duration
	devLogin bool
	now      func() time.Time
	logger   *slog.Logger
}

// NewSpeakerAuthService wires the speaker login flow.
func NewSpeakerAuthService(speakers persistence.SpeakerRepository, opts SpeakerAuthOptions) *SpeakerAuthService {
	if opts.TTL <= 0 {
		opts.TTL = 72 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SpeakerAuthService{
		speakers: speakers,
		secret:   opts.Secret,
		ttl:      opts.TTL,
		devLogin: opts.DeveloperLogin,
		now:      opts.Now,
		logger:   defaultLogger(opts.Logger),
	}
}

func (s *SpeakerAuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SpeakerAuthService", operation, attrs...)
}

// Login verifies that both fields are present and match one speaker exactly.
// Missing fields fail validation before any lookup.
func (s *SpeakerAuthService) Login(ctx context.Context, params SpeakerLoginParams) (result SpeakerLoginResult, err error) {
	if s == nil {
		return SpeakerLoginResult{}, fmt.Errorf("SpeakerAuthService is nil")
	}
	speakerID := strings.TrimSpace(params.SpeakerID)
	phone := strings.TrimSpace(params.Phone)

	started := time.Now()
	logger := s.loggerWith(ctx, "Login", "speaker_id", speakerID)
	defer func() { logOutcome(ctx, logger, started, "speaker login", err) }()

	if speakerID == "" || phone == "" {
		vErr := &ValidationError{Message: MissingCredentialsMessage}
		if speakerID == "" {
			vErr.add("speaker_id", "speaker_id is required")
		}
		if phone == "" {
			vErr.add("phone", "phone is required")
		}
		return SpeakerLoginResult{}, vErr
	}

	var speaker Speaker
	if s.devLogin && speakerID == developerSpeakerID && phone == developerPhone {
		speaker = Speaker{SpeakerID: developerSpeakerID, Name: developerName, Phone: developerPhone}
	} else {
		record, lookupErr := s.speakers.FindSpeakerByCredentials(ctx, speakerID, phone)
		if lookupErr != nil {
			if isNotFoundError(lookupErr) {
				return SpeakerLoginResult{}, ErrInvalidCredentials
			}
			return SpeakerLoginResult{}, lookupErr
		}
		speaker = speakerFromRecord(record)
	}

	token, expiresAt, err := s.issue(speaker)
	if err != nil {
		return SpeakerLoginResult{}, err
	}
	return SpeakerLoginResult{Speaker: speaker, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *SpeakerAuthService) issue(speaker Speaker) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("speaker token secret not configured")
	}
	now := s.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(s.ttl)
	claims := SpeakerClaims{
		Name:       speaker.Name,
		Credential: s.credential(speaker.SpeakerID, speaker.Phone),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   speaker.SpeakerID,
			Issuer:    speakerTokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign speaker token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks a speaker token and returns the speaker principal it names.
func (s *SpeakerAuthService) Verify(ctx context.Context, token string) (Principal, error) {
	if s == nil {
		return Principal{}, fmt.Errorf("SpeakerAuthService is nil")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Principal{}, ErrUnauthorized
	}

	claims := &SpeakerClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		s.loggerWith(ctx, "Verify").DebugContext(ctx, "speaker token rejected", "error", err)
		return Principal{}, ErrUnauthorized
	}
	if claims.Subject == "" || claims.Issuer != speakerTokenIssuer {
		return Principal{}, ErrUnauthorized
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(s.now()) {
		return Principal{}, ErrSessionExpired
	}
	if err := s.checkCredential(ctx, claims); err != nil {
		return Principal{}, err
	}
	return Principal{SpeakerID: claims.Subject}, nil
}

// checkCredential rejects tokens whose speaker was deleted or whose phone
// changed after the token was issued.
func (s *SpeakerAuthService) checkCredential(ctx context.Context, claims *SpeakerClaims) error {
	phone := developerPhone
	if !s.devLogin || claims.Subject != developerSpeakerID {
		if s.speakers == nil {
			return ErrUnauthorized
		}
		record, err := s.speakers.FindSpeakerBySpeakerID(ctx, claims.Subject)
		if err != nil {
			if isNotFoundError(err) {
				s.loggerWith(ctx, "Verify").DebugContext(ctx, "speaker token for removed speaker", "speaker_id", claims.Subject)
				return ErrUnauthorized
			}
			return err
		}
		phone = record.Phone
	}
	if !hmac.Equal([]byte(claims.Credential), []byte(s.credential(claims.Subject, phone))) {
		s.loggerWith(ctx, "Verify").DebugContext(ctx, "speaker token credentials changed", "speaker_id", claims.Subject)
		return ErrUnauthorized
	}
	return nil
}

func (s *SpeakerAuthService) credential(speakerID, phone string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(speakerID))
	mac.Write([]byte{0})
	mac.Write([]byte(phone))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)[:16])
}

// IsTokenError reports whether err came from Verify rejecting a token.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrSessionExpired)
}
