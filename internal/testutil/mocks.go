package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"bandlink/internal/models"
	"bandlink/internal/platforms"
	"bandlink/internal/services"
)

// MockTrackRepository is a mock implementation of TrackRepository for testing
type MockTrackRepository struct {
	mock.Mock
}

func (m *MockTrackRepository) Save(ctx context.Context, track *models.Track) error {
	args := m.Called(ctx, track)
	return args.Error(0)
}

func (m *MockTrackRepository) Update(ctx context.Context, track *models.Track) error {
	args := m.Called(ctx, track)
	return args.Error(0)
}

func (m *MockTrackRepository) FindByID(ctx context.Context, id string) (*models.Track, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Track), args.Error(1)
}

func (m *MockTrackRepository) FindBySource(ctx context.Context, platform platforms.Platform, sourceID string) (*models.Track, error) {
	args := m.Called(ctx, platform, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Track), args.Error(1)
}

func (m *MockTrackRepository) FindByISRC(ctx context.Context, isrc string) (*models.Track, error) {
	args := m.Called(ctx, isrc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Track), args.Error(1)
}

func (m *MockTrackRepository) FindStalest(ctx context.Context, limit int) ([]*models.Track, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Track), args.Error(1)
}

func (m *MockTrackRepository) UpdateLink(ctx context.Context, trackID primitive.ObjectID, link models.PlatformLink) error {
	args := m.Called(ctx, trackID, link)
	return args.Error(0)
}

func (m *MockTrackRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockSmartLinkRepository is a mock implementation of SmartLinkRepository for testing
type MockSmartLinkRepository struct {
	mock.Mock
}

func (m *MockSmartLinkRepository) Save(ctx context.Context, link *models.SmartLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockSmartLinkRepository) FindBySlug(ctx context.Context, slug string) (*models.SmartLink, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SmartLink), args.Error(1)
}

func (m *MockSmartLinkRepository) IncrementClicks(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockIdentityResolver is a mock implementation of IdentityResolver for testing
type MockIdentityResolver struct {
	mock.Mock
}

func (m *MockIdentityResolver) Resolve(ctx context.Context, input string) (*services.TrackInfo, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TrackInfo), args.Error(1)
}

func (m *MockIdentityResolver) ResolveISRC(ctx context.Context, isrc string) (*services.TrackInfo, error) {
	args := m.Called(ctx, isrc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TrackInfo), args.Error(1)
}

func (m *MockIdentityResolver) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockLinkExpander is a mock implementation of LinkExpander for testing
type MockLinkExpander struct {
	mock.Mock
}

func (m *MockLinkExpander) Expand(ctx context.Context, query services.ExpandQuery) (map[platforms.Platform]string, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[platforms.Platform]string), args.Error(1)
}

// MockISRCLookup is a mock implementation of ISRCLookup for testing
type MockISRCLookup struct {
	mock.Mock
}

func (m *MockISRCLookup) LookupISRC(ctx context.Context, isrc string) (*services.TrackInfo, error) {
	args := m.Called(ctx, isrc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TrackInfo), args.Error(1)
}

// MockProber is a mock implementation of verify.Prober for testing
type MockProber struct {
	mock.Mock
}

func (m *MockProber) Probe(ctx context.Context, url string) int {
	args := m.Called(ctx, url)
	return args.Int(0)
}

// MockReResolver is a mock implementation of verify.ReResolver for testing
type MockReResolver struct {
	mock.Mock
}

func (m *MockReResolver) ReResolveLink(ctx context.Context, track *models.Track, platform platforms.Platform) (string, bool) {
	args := m.Called(ctx, track, platform)
	return args.String(0), args.Bool(1)
}
