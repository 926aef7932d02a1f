package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/accessgate/internal/webhook/domain"
)

const testSigningSecret = "whsec_test_secret"

func signPayload(t *testing.T, payload []byte, secret string) string {
	t.Helper()

	timestamp := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", timestamp, payload)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func TestSignatureAuthenticator_Verify(t *testing.T) {
	authenticator, err := NewSignatureAuthenticator(testSigningSecret)
	require.NoError(t, err)

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`)

	t.Run("ValidSignature", func(t *testing.T) {
		event, err := authenticator.Verify(payload, signPayload(t, payload, testSigningSecret))
		require.NoError(t, err)
		assert.Equal(t, "evt_1", event.ID)
		assert.Equal(t, "checkout.session.completed", string(event.Type))
	})

	t.Run("MissingSignature", func(t *testing.T) {
		_, err := authenticator.Verify(payload, "")
		assert.ErrorIs(t, err, domain.ErrMissingSignature)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		_, err := authenticator.Verify(payload, signPayload(t, payload, "whsec_other"))
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	})

	t.Run("TamperedPayload", func(t *testing.T) {
		header := signPayload(t, payload, testSigningSecret)
		tampered := []byte(`{"id":"evt_2","type":"checkout.session.completed","data":{"object":{}}}`)

		_, err := authenticator.Verify(tampered, header)
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	})

	t.Run("GarbageHeader", func(t *testing.T) {
		_, err := authenticator.Verify(payload, "not-a-signature")
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	})
}

func TestNewSignatureAuthenticator_RequiresSecret(t *testing.T) {
	_, err := NewSignatureAuthenticator("")
	assert.Error(t, err)
}
