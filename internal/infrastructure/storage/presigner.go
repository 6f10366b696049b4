package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/garyjia/merchant-onboarding/internal/application/port"
)

var (
	// ErrUploadTokenInvalid is returned for a missing, forged or mismatched upload token
	ErrUploadTokenInvalid = errors.New("invalid upload token")
	// ErrUploadTokenExpired is returned once the presigned URL has lapsed
	ErrUploadTokenExpired = errors.New("upload token expired")
)

// TokenParam is the query parameter carrying the upload token
const TokenParam = "token"

// uploadClaims binds a token to one key and content type
type uploadClaims struct {
	ContentType string `json:"ct"`
	jwt.RegisteredClaims
}

// PresignerConfig configures LocalPresigner
type PresignerConfig struct {
	// PublicBaseURL is where the upload routes are reachable, without trailing slash
	PublicBaseURL string
	// RoutePrefix is the path the object routes are mounted on
	RoutePrefix string
	Secret      string
	Expiry      time.Duration
}

// LocalPresigner issues signed PUT URLs served by this process's upload routes
type LocalPresigner struct {
	cfg    PresignerConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewLocalPresigner creates a presigner
func NewLocalPresigner(cfg PresignerConfig, logger *zap.Logger) (*LocalPresigner, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("upload signing secret is required")
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = 5 * time.Minute
	}
	if cfg.RoutePrefix == "" {
		cfg.RoutePrefix = "/uploads"
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	return &LocalPresigner{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Presign implements port.UploadPresigner
func (p *LocalPresigner) Presign(ctx context.Context, req port.PresignRequest) (*port.PresignedUpload, error) {
	now := p.now()
	key := ObjectKey(req.Prefix, req.FileName, now)

	claims := uploadClaims{
		ContentType: req.FileType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   key,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.cfg.Expiry)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign upload token: %w", err)
	}

	objectURL := p.ObjectURL(key)
	p.logger.Debug("Presigned upload", zap.String("key", key), zap.Time("expires_at", now.Add(p.cfg.Expiry)))

	return &port.PresignedUpload{
		UploadURL: objectURL + "?" + url.Values{TokenParam: {token}}.Encode(),
		Key:       key,
		URL:       objectURL,
	}, nil
}

// ObjectURL returns the public URL of key
func (p *LocalPresigner) ObjectURL(key string) string {
	escaped := make([]string, 0, strings.Count(key, "/")+1)
	for _, seg := range strings.Split(key, "/") {
		escaped = append(escaped, url.PathEscape(seg))
	}
	return p.cfg.PublicBaseURL + p.cfg.RoutePrefix + "/" + strings.Join(escaped, "/")
}

// Verify checks that token authorizes a PUT of contentType to key
func (p *LocalPresigner) Verify(token, key, contentType string) error {
	var claims uploadClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(p.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
		jwt.WithExpirationRequired(),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrUploadTokenExpired
	}
	if err != nil {
		return ErrUploadTokenInvalid
	}
	if claims.Subject != key || !sameMediaType(claims.ContentType, contentType) {
		return ErrUploadTokenInvalid
	}
	return nil
}

func sameMediaType(a, b string) bool {
	base := func(v string) string {
		if i := strings.IndexByte(v, ';'); i >= 0 {
			v = v[:i]
		}
		return strings.ToLower(strings.TrimSpace(v))
	}
	return base(a) == base(b)
}

// Verify interface compliance
var _ port.UploadPresigner = (*LocalPresigner)(nil)
