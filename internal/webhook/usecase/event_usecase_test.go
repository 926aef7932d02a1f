package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	apperrors "github.com/allisson/accessgate/internal/errors"
	"github.com/allisson/accessgate/internal/testutil"
	"github.com/allisson/accessgate/internal/webhook/domain"
	"github.com/allisson/accessgate/internal/webhook/repository"
	"github.com/allisson/accessgate/internal/webhook/service"
	serviceMocks "github.com/allisson/accessgate/internal/webhook/service/mocks"
	usecaseMocks "github.com/allisson/accessgate/internal/webhook/usecase/mocks"
)

// pipelineFixture wires the pipeline over an in-memory store with mocked
// provider and fulfillment collaborators.
type pipelineFixture struct {
	store         *testutil.MemStore
	authenticator *serviceMocks.MockAuthenticator
	directory     *serviceMocks.MockProviderDirectory
	fulfillment   *usecaseMocks.MockFulfillmentClient
	ledger        *usecaseMocks.MockLedgerClient
	records       *repository.CustomerRecordRepository
	markers       *repository.OnboardMarkerRepository
	useCase       WebhookUseCase
}

func newPipelineFixture() *pipelineFixture {
	store := testutil.NewMemStore()
	logger := discardLogger()

	fixture := &pipelineFixture{
		store:         store,
		authenticator: &serviceMocks.MockAuthenticator{},
		directory:     &serviceMocks.MockProviderDirectory{},
		fulfillment:   &usecaseMocks.MockFulfillmentClient{},
		ledger:        &usecaseMocks.MockLedgerClient{},
		records:       repository.NewCustomerRecordRepository(store),
		markers:       repository.NewOnboardMarkerRepository(store),
	}

	locks := repository.NewEventLockRepository(store, 15*time.Minute, 720*time.Hour)
	dispatcher := NewOnboardingDispatcher(fixture.markers, fixture.fulfillment, true, logger)
	plans := domain.NewPlanTable("price_individual", "price_pair")

	fixture.useCase = NewWebhookUseCase(
		fixture.authenticator,
		NewClassifier(fixture.directory, logger),
		locks,
		fixture.records,
		dispatcher,
		fixture.ledger,
		plans,
		logger,
	)
	return fixture
}

// deliver stubs authentication for one envelope and runs the pipeline.
func (f *pipelineFixture) deliver(ctx context.Context, t *testing.T, envelope *stripe.Event) (Outcome, error) {
	t.Helper()
	payload := []byte("payload-" + envelope.ID)
	f.authenticator.On("Verify", payload, "sig").Return(envelope, nil).Once()
	return f.useCase.Process(ctx, payload, "sig")
}

func checkoutEnvelope(eventID string) *stripe.Event {
	return makeEnvelope(eventID, "checkout.session.completed", map[string]any{
		"id":               "cs_1",
		"customer":         "cus_1",
		"customer_details": map[string]any{"email": "a@x.com"},
		"subscription":     "sub_1",
		"mode":             "subscription",
		"payment_status":   "paid",
		"amount_total":     2900,
		"currency":         "usd",
	})
}

func activeSubscriptionInfo() *service.SubscriptionInfo {
	return &service.SubscriptionInfo{Status: "active", PriceID: "price_pair"}
}

func TestWebhookUseCase_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("CheckoutGrantsAccessAndOnboardsOnce", func(t *testing.T) {
		fixture := newPipelineFixture()
		fixture.directory.On("Subscription", mock.Anything, "sub_1").Return(activeSubscriptionInfo(), nil).Once()
		fixture.ledger.On("RecordOrder", mock.Anything, mock.Anything).Return(nil).Once()
		fixture.fulfillment.On("CreateAlias", mock.Anything, mock.Anything).Return("alias_abc", nil).Once()
		fixture.fulfillment.On("NotifyOnboarding", mock.Anything, mock.Anything).Return(true, nil).Once()

		outcome, err := fixture.deliver(ctx, t, checkoutEnvelope("evt_1"))
		require.NoError(t, err)
		assert.Equal(t, OutcomeProcessed, outcome)

		record, err := fixture.records.Get(ctx, "cus_1")
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", record.Email)
		assert.Equal(t, "sub_1", record.SubscriptionID)
		assert.Equal(t, "active", record.SubscriptionStatus)
		assert.Equal(t, "firstflame", record.Tier)
		assert.Equal(t, "firstflame_pair", record.PlanKey)
		assert.Equal(t, domain.AccessActive, record.Access)
		assert.Equal(t, "evt_1", record.LastEventID)

		onboarded, err := fixture.markers.Exists(ctx, "cus_1", "a@x.com")
		require.NoError(t, err)
		assert.True(t, onboarded)

		fixture.ledger.AssertExpectations(t)
		fixture.fulfillment.AssertExpectations(t)
	})

	t.Run("ReplayAfterDoneIsDuplicate", func(t *testing.T) {
		fixture := newPipelineFixture()
		fixture.directory.On("Subscription", mock.Anything, "sub_1").Return(activeSubscriptionInfo(), nil).Once()
		fixture.ledger.On("RecordOrder", mock.Anything, mock.Anything).Return(nil).Once()
		fixture.fulfillment.On("CreateAlias", mock.Anything, mock.Anything).Return("alias_abc", nil).Once()
		fixture.fulfillment.On("NotifyOnboarding", mock.Anything, mock.Anything).Return(true, nil).Once()

		_, err := fixture.deliver(ctx, t, checkoutEnvelope("evt_1"))
		require.NoError(t, err)
		recordAfterFirst, err := fixture.records.Get(ctx, "cus_1")
		require.NoError(t, err)

		outcome, err := fixture.deliver(ctx, t, checkoutEnvelope("evt_1"))
		require.NoError(t, err)
		assert.Equal(t, OutcomeDuplicate, outcome)

		// No additional record mutation, no additional fulfillment calls.
		recordAfterReplay, err := fixture.records.Get(ctx, "cus_1")
		require.NoError(t, err)
		assert.Equal(t, recordAfterFirst, recordAfterReplay)
		fixture.ledger.AssertExpectations(t)
		fixture.fulfillment.AssertExpectations(t)
	})

	t.Run("StrictLedgerFailureAbortsAndReprocesses", func(t *testing.T) {
		fixture := newPipelineFixture()
		fixture.directory.On("Subscription", mock.Anything, "sub_1").Return(activeSubscriptionInfo(), nil).Twice()
		fixture.ledger.On("RecordOrder", mock.Anything, mock.Anything).Return(apperrors.New("ledger down")).Once()

		outcome, err := fixture.deliver(ctx, t, checkoutEnvelope("evt_1"))
		assert.Equal(t, OutcomeAborted, outcome)
		assert.ErrorIs(t, err, domain.ErrLedgerUnavailable)

		// The record was never written and the gate entry is gone.
		_, err = fixture.records.Get(ctx, "cus_1")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		// The redelivery is reprocessed from scratch, not skipped.
		fixture.ledger.On("RecordOrder", mock.Anything, mock.Anything).Return(nil).Once()
		fixture.fulfillment.On("CreateAlias", mock.Anything, mock.Anything).Return("alias_abc", nil).Once()
		fixture.fulfillment.On("NotifyOnboarding", mock.Anything, mock.Anything).Return(true, nil).Once()

		outcome, err = fixture.deliver(ctx, t, checkoutEnvelope("evt_1"))
		require.NoError(t, err)
		assert.Equal(t, OutcomeProcessed, outcome)
	})

	t.Run("SecondCheckoutDoesNotOnboardAgain", func(t *testing.T) {
		fixture := newPipelineFixture()
		fixture.directory.On("Subscription", mock.Anything, "sub_1").Return(activeSubscriptionInfo(), nil).Twice()
		fixture.ledger.On("RecordOrder", mock.Anything, mock.Anything).Return(nil).Twice()
		fixture.fulfillment.On("CreateAlias", mock.Anything, mock.Anything).Return("alias_abc", nil).Once()
		fixture.fulfillment.On("NotifyOnboarding", mock.Anything, mock.Anything).Return(true, nil).Once()

		_, err := fixture.deliver(ctx, t, checkoutEnvelope("evt_1"))
		require.NoError(t, err)

		outcome, err := fixture.deliver(ctx, t, checkoutEnvelope("evt_1b"))
		require.NoError(t, err)
		assert.Equal(t, OutcomeProcessed, outcome)

		// Exactly one onboarding dispatch across both checkouts.
		fixture.fulfillment.AssertExpectations(t)
	})

	t.Run("CancellationLocksAccessKeepingPlan", func(t *testing.T) {
		fixture := newPipelineFixture()
		fixture.directory.On("Subscription", mock.Anything, "sub_1").Return(activeSubscriptionInfo(), nil).Once()
		fixture.ledger.On("RecordOrder", mock.Anything, mock.Anything).Return(nil).Twice()
		fixture.fulfillment.On("CreateAlias", mock.Anything, mock.Anything).Return("alias_abc", nil).Once()
		fixture.fulfillment.On("NotifyOnboarding", mock.Anything, mock.Anything).Return(true, nil).Once()

		_, err := fixture.deliver(ctx, t, checkoutEnvelope("evt_1"))
		require.NoError(t, err)

		outcome, err := fixture.deliver(ctx, t, makeEnvelope("evt_2", "customer.subscription.deleted", map[string]any{
			"id":       "sub_1",
			"customer": "cus_1",
			"status":   "canceled",
		}))
		require.NoError(t, err)
		assert.Equal(t, OutcomeProcessed, outcome)

		record, err := fixture.records.Get(ctx, "cus_1")
		require.NoError(t, err)
		assert.Equal(t, domain.AccessLocked, record.Access)
		assert.Equal(t, "canceled", record.SubscriptionStatus)
		assert.Equal(t, "firstflame", record.Tier)
		assert.Equal(t, "firstflame_pair", record.PlanKey)
	})

	t.Run("BestEffortLedgerFailureStillCompletes", func(t *testing.T) {
		fixture := newPipelineFixture()
		fixture.ledger.On("RecordOrder", mock.Anything, mock.Anything).Return(apperrors.New("ledger down")).Once()

		outcome, err := fixture.deliver(ctx, t, makeEnvelope("evt_2", "customer.subscription.deleted", map[string]any{
			"id":       "sub_1",
			"customer": "cus_1",
			"status":   "canceled",
		}))
		require.NoError(t, err)
		assert.Equal(t, OutcomeProcessed, outcome)

		record, err := fixture.records.Get(ctx, "cus_1")
		require.NoError(t, err)
		assert.Equal(t, domain.AccessLocked, record.Access)
	})

	t.Run("OnboardingFailureLeavesMarkerUnset", func(t *testing.T) {
		fixture := newPipelineFixture()
		fixture.directory.On("Subscription", mock.Anything, "sub_1").Return(activeSubscriptionInfo(), nil).Once()
		fixture.ledger.On("RecordOrder", mock.Anything, mock.Anything).Return(nil).Once()
		fixture.fulfillment.On("CreateAlias", mock.Anything, mock.Anything).Return("", apperrors.New("fulfillment down")).Once()

		outcome, err := fixture.deliver(ctx, t, checkoutEnvelope("evt_1"))
		require.NoError(t, err)
		assert.Equal(t, OutcomeProcessed, outcome)

		onboarded, err := fixture.markers.Exists(ctx, "cus_1", "a@x.com")
		require.NoError(t, err)
		assert.False(t, onboarded)
	})

	t.Run("UnhandledTypeIsAcknowledgedAndDeduplicated", func(t *testing.T) {
		fixture := newPipelineFixture()

		outcome, err := fixture.deliver(ctx, t, makeEnvelope("evt_9", "payout.created", map[string]any{}))
		require.NoError(t, err)
		assert.Equal(t, OutcomeUnhandled, outcome)

		outcome, err = fixture.deliver(ctx, t, makeEnvelope("evt_9", "payout.created", map[string]any{}))
		require.NoError(t, err)
		assert.Equal(t, OutcomeDuplicate, outcome)
	})

	t.Run("NoCustomerIdentityIsSkipped", func(t *testing.T) {
		fixture := newPipelineFixture()
		fixture.directory.On("SessionPriceID", mock.Anything, "cs_1").Return("", nil).Once()

		outcome, err := fixture.deliver(ctx, t, makeEnvelope("evt_9", "checkout.session.completed", map[string]any{
			"id":   "cs_1",
			"mode": "payment",
		}))
		require.NoError(t, err)
		assert.Equal(t, OutcomeSkipped, outcome)
	})

	t.Run("RejectedSignature", func(t *testing.T) {
		fixture := newPipelineFixture()
		payload := []byte("payload")
		fixture.authenticator.On("Verify", payload, "bad").Return(nil, domain.ErrInvalidSignature).Once()

		outcome, err := fixture.useCase.Process(ctx, payload, "bad")
		assert.Equal(t, OutcomeRejected, outcome)
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	})

	t.Run("MalformedPayloadReleasesLock", func(t *testing.T) {
		fixture := newPipelineFixture()
		envelope := &stripe.Event{
			ID:   "evt_bad",
			Type: "checkout.session.completed",
			Data: &stripe.EventData{Raw: []byte("{not json")},
		}

		outcome, err := fixture.deliver(ctx, t, envelope)
		assert.Equal(t, OutcomeRejected, outcome)
		assert.ErrorIs(t, err, domain.ErrMalformedPayload)

		// The lock was released, so nothing lingers under the event key.
		_, err = fixture.store.Get(ctx, "evt:evt_bad")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("EmailOnlyCheckoutIsRecorded", func(t *testing.T) {
		fixture := newPipelineFixture()
		fixture.directory.On("SessionPriceID", mock.Anything, "cs_1").Return("price_individual", nil).Once()
		fixture.directory.On("CustomerIDByEmail", mock.Anything, "a@x.com").Return("", nil).Once()
		fixture.ledger.On("RecordOrder", mock.Anything, mock.Anything).Return(nil).Once()

		outcome, err := fixture.deliver(ctx, t, makeEnvelope("evt_1", "checkout.session.completed", map[string]any{
			"id":             "cs_1",
			"customer_email": "a@x.com",
			"mode":           "payment",
			"payment_status": "paid",
		}))
		require.NoError(t, err)
		assert.Equal(t, OutcomeProcessed, outcome)

		record, err := fixture.records.GetByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, domain.AccessActive, record.Access)
		assert.Equal(t, "firstflame_individual", record.PlanKey)
	})
}
