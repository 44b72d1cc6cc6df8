package webhook

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"identity_sync_backend/internal/identity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	svix "github.com/svix/svix-webhooks/go"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testSecret = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"

const userCreatedBody = `{"type":"user.created","timestamp":1700000000000,"data":{` +
	`"id":"user_29w83sxmDNGwOuEthce5gg56FcC",` +
	`"email_addresses":[{"id":"idn_1","email_address":"example@example.org"}],` +
	`"primary_email_address_id":"idn_1",` +
	`"phone_numbers":[],"primary_phone_number_id":null,` +
	`"first_name":"Example","last_name":"Example",` +
	`"image_url":"https://img.example.com/u.png","updated_at":1654012591835}}`

// signedHeaders signs body the way the provider does, at the given time.
func signedHeaders(t *testing.T, body []byte, msgID string, at time.Time) http.Header {
	t.Helper()
	wh, err := svix.NewWebhook(testSecret)
	require.NoError(t, err)
	sig, err := wh.Sign(msgID, at, body)
	require.NoError(t, err)

	h := http.Header{}
	h.Set("svix-id", msgID)
	h.Set("svix-timestamp", strconv.FormatInt(at.Unix(), 10))
	h.Set("svix-signature", sig)
	return h
}

func newTestVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(testSecret, DefaultHeaderNames())
	require.NoError(t, err)
	return v
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&identity.User{}, &FailedEvent{}))
	return db
}

// MockProjector is a mock type for identity.Service
type MockProjector struct {
	mock.Mock
}

func (m *MockProjector) Apply(ctx context.Context, ev identity.InboundEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

// failingDeadLetters refuses every write.
type failingDeadLetters struct{}

func (failingDeadLetters) Record(context.Context, *FailedEvent) error {
	return fmt.Errorf("disk full")
}

func (failingDeadLetters) List(context.Context, int) ([]FailedEvent, error) { return nil, nil }

func (failingDeadLetters) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }
