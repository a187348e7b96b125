package services

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"

	"bandlink/internal/platforms"
)

// appleMusicService is the supplementary catalog lookup used when the
// aggregation service has no Apple Music link for a track with an ISRC.
type appleMusicService struct {
	client      *resty.Client
	keyID       string
	teamID      string
	keyFile     string
	privateKey  *ecdsa.PrivateKey
	jwtToken    string
	tokenExpiry time.Time
	mu          sync.RWMutex
}

const appleMusicAPIURL = "https://api.music.apple.com/v1"

// ISRCLookup finds a platform's own catalog entry for an ISRC.
type ISRCLookup interface {
	LookupISRC(ctx context.Context, isrc string) (*TrackInfo, error)
}

// NewAppleMusicService creates the supplementary Apple Music lookup. The
// key file must hold the ES256 private key issued with the developer token.
func NewAppleMusicService(keyID, teamID, keyFile string) (ISRCLookup, error) {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second)

	service := &appleMusicService{
		client:  client,
		keyID:   keyID,
		teamID:  teamID,
		keyFile: keyFile,
	}

	if err := service.loadPrivateKey(); err != nil {
		return nil, fmt.Errorf("apple music key: %w", err)
	}

	return service, nil
}

// LookupISRC queries the catalog by ISRC. Returns ErrNotFound when Apple has
// no entry for the recording.
func (s *appleMusicService) LookupISRC(ctx context.Context, isrc string) (*TrackInfo, error) {
	if err := s.ensureValidToken(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	token := s.jwtToken
	s.mu.RUnlock()

	var result appleMusicSongs
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("filter[isrc]", isrc).
		SetResult(&result).
		Get(fmt.Sprintf("%s/catalog/us/songs", appleMusicAPIURL))

	if err != nil {
		return nil, &PlatformError{
			Platform:  "apple_music",
			Operation: "lookup_isrc",
			Message:   "request failed",
			Err:       ErrUpstream,
		}
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, &PlatformError{
			Platform:  "apple_music",
			Operation: "lookup_isrc",
			Message:   fmt.Sprintf("API returned status %d", resp.StatusCode()),
			Err:       ErrUpstream,
		}
	}

	if len(result.Data) == 0 {
		return nil, &PlatformError{
			Platform:  "apple_music",
			Operation: "lookup_isrc",
			Message:   "no songs with ISRC " + isrc,
			Err:       ErrNotFound,
		}
	}

	song := result.Data[0]
	return &TrackInfo{
		Platform:   platforms.AppleMusic,
		ExternalID: song.ID,
		URL:        platforms.Normalize(platforms.AppleMusic, song.Attributes.URL),
		Title:      song.Attributes.Name,
		Artist:     song.Attributes.ArtistName,
		Album:      song.Attributes.AlbumName,
		ISRC:       song.Attributes.ISRC,
		DurationMs: song.Attributes.DurationInMillis,
	}, nil
}

func (s *appleMusicService) loadPrivateKey() error {
	keyData, err := os.ReadFile(s.keyFile)
	if err != nil {
		return fmt.Errorf("failed to read key file: %w", err)
	}

	block, _ := pem.Decode(keyData)
	if block == nil {
		return fmt.Errorf("failed to decode PEM block from key file")
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return fmt.Errorf("failed to parse private key: %w", err)
	}

	ecdsaKey, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return fmt.Errorf("key is not an ECDSA private key")
	}

	s.privateKey = ecdsaKey
	return nil
}

// ensureValidToken mints a developer token when missing or near expiry.
func (s *appleMusicService) ensureValidToken() error {
	s.mu.RLock()
	valid := s.jwtToken != "" && time.Until(s.tokenExpiry) > tokenRefreshWindow
	s.mu.RUnlock()
	if valid {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.jwtToken != "" && time.Until(s.tokenExpiry) > tokenRefreshWindow {
		return nil
	}

	now := time.Now()
	expiry := now.Add(12 * time.Hour)

	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": s.teamID,
		"iat": now.Unix(),
		"exp": expiry.Unix(),
	})
	token.Header["kid"] = s.keyID

	signed, err := token.SignedString(s.privateKey)
	if err != nil {
		return &PlatformError{
			Platform:  "apple_music",
			Operation: "auth",
			Message:   "failed to sign developer token",
			Err:       err,
		}
	}

	s.jwtToken = signed
	s.tokenExpiry = expiry
	return nil
}

// Apple Music API response structures
type appleMusicSongs struct {
	Data []appleMusicSong `json:"data"`
}

type appleMusicSong struct {
	ID         string                    `json:"id"`
	Attributes appleMusicSongAttributes `json:"attributes"`
}

type appleMusicSongAttributes struct {
	Name             string `json:"name"`
	ArtistName       string `json:"artistName"`
	AlbumName        string `json:"albumName"`
	URL              string `json:"url"`
	ISRC             string `json:"isrc"`
	DurationInMillis int    `json:"durationInMillis"`
}
