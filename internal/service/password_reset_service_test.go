package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/uniportal/portal-api/internal/models"
	appErrors "github.com/uniportal/portal-api/pkg/errors"
)

type resetUsersMock struct {
	user        *models.User
	updatedID   int64
	updatedHash string
}

func (m *resetUsersMock) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.user == nil || m.user.Email != email {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func (m *resetUsersMock) UpdatePassword(ctx context.Context, id int64, hash string) error {
	m.updatedID = id
	m.updatedHash = hash
	return nil
}

type mailerMock struct {
	to      []string
	subject string
	body    string
	err     error
}

func (m *mailerMock) Send(to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.to = append(m.to, to)
	m.subject = subject
	m.body = body
	return nil
}

func newResetFixture() (*PasswordResetService, *resetUsersMock, *memoryCache, *mailerMock) {
	users := &resetUsersMock{user: &models.User{ID: 20231001, Email: "sara@uni.edu"}}
	cache := &memoryCache{}
	mail := &mailerMock{}
	return NewPasswordResetService(users, cache, mail, nil, nil), users, cache, mail
}

func storedEntry(t *testing.T, cache *memoryCache, email string) resetEntry {
	t.Helper()
	raw, ok := cache.values["password_reset:"+email]
	require.True(t, ok, "expected a stored reset entry for %s", email)
	var entry resetEntry
	require.NoError(t, json.Unmarshal(raw, &entry))
	return entry
}

func TestSendCodeStoresAndMails(t *testing.T) {
	svc, _, cache, mail := newResetFixture()

	require.NoError(t, svc.SendCode(context.Background(), "sara@uni.edu"))

	entry := storedEntry(t, cache, "sara@uni.edu")
	assert.Len(t, entry.Code, 6)
	assert.Equal(t, int64(20231001), entry.UserID)
	require.Equal(t, []string{"sara@uni.edu"}, mail.to)
	assert.Contains(t, mail.body, entry.Code)
}

func TestSendCodeUnknownEmail(t *testing.T) {
	svc, _, _, mail := newResetFixture()

	err := svc.SendCode(context.Background(), "nobody@uni.edu")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
	assert.Empty(t, mail.to)
}

func TestSendCodeRespectsCooldown(t *testing.T) {
	svc, _, _, mail := newResetFixture()

	require.NoError(t, svc.SendCode(context.Background(), "sara@uni.edu"))
	err := svc.SendCode(context.Background(), "sara@uni.edu")
	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, appErrors.FromError(err).Status)
	assert.Len(t, mail.to, 1)
}

func TestSendCodeRejectsMalformedEmail(t *testing.T) {
	svc, _, _, _ := newResetFixture()

	err := svc.SendCode(context.Background(), "not-an-email")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
	assert.Contains(t, appErr.Fields, "email")
}

func TestVerifyCodeWrongCodeCountsAttempts(t *testing.T) {
	svc, _, cache, _ := newResetFixture()
	require.NoError(t, svc.SendCode(context.Background(), "sara@uni.edu"))

	err := svc.VerifyCode(context.Background(), "sara@uni.edu", "000000")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
	assert.Contains(t, appErr.Fields, "code")
	assert.Equal(t, 1, storedEntry(t, cache, "sara@uni.edu").Attempts)
}

func TestVerifyCodeLocksAfterTooManyAttempts(t *testing.T) {
	svc, _, _, _ := newResetFixture()
	require.NoError(t, svc.SendCode(context.Background(), "sara@uni.edu"))

	for i := 0; i < resetMaxAttempts; i++ {
		require.Error(t, svc.VerifyCode(context.Background(), "sara@uni.edu", "000000"))
	}

	err := svc.VerifyCode(context.Background(), "sara@uni.edu", "000000")
	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, appErrors.FromError(err).Status)
}

func TestVerifyCodeMarksEntryVerified(t *testing.T) {
	svc, _, cache, _ := newResetFixture()
	require.NoError(t, svc.SendCode(context.Background(), "sara@uni.edu"))
	code := storedEntry(t, cache, "sara@uni.edu").Code

	require.NoError(t, svc.VerifyCode(context.Background(), "sara@uni.edu", code))
	assert.True(t, storedEntry(t, cache, "sara@uni.edu").Verified)
}

func TestResetUpdatesPasswordAndClearsCode(t *testing.T) {
	svc, users, cache, _ := newResetFixture()
	require.NoError(t, svc.SendCode(context.Background(), "sara@uni.edu"))
	code := storedEntry(t, cache, "sara@uni.edu").Code

	require.NoError(t, svc.Reset(context.Background(), "sara@uni.edu", code, "fresh-secret"))

	assert.Equal(t, int64(20231001), users.updatedID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users.updatedHash), []byte("fresh-secret")))

	_, stillThere := cache.values["password_reset:sara@uni.edu"]
	assert.False(t, stillThere)

	err := svc.Reset(context.Background(), "sara@uni.edu", code, "another-secret")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, appErrors.FromError(err).Status)
}

func TestResetRejectsShortPassword(t *testing.T) {
	svc, _, _, _ := newResetFixture()

	err := svc.Reset(context.Background(), "sara@uni.edu", "123456", "abc")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
	assert.Contains(t, appErr.Fields, "password")
}
