package controller

import (
	"net/http"
	"testing"

	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/internal/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRFQController_Submit(t *testing.T) {
	f := setupControllerTest(t, nil)

	view := f.submitRFQ(t)
	assert.NotZero(t, view.ID)
	assert.Equal(t, model.RFQStatusNew, view.Status)
	assert.Len(t, view.AccessToken, 32)
	assert.Equal(t, "80.00", view.Pricing.GrandTotal)
	assert.Equal(t, "Red", view.Layers[f.lycraID].Name)
	assert.Equal(t, 1, view.Version)

	events := f.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notification.EventCreated, events[0].Type)
}

func TestRFQController_SubmitErrors(t *testing.T) {
	f := setupControllerTest(t, nil)

	tests := []struct {
		name     string
		quantity int
		customer map[string]string
		status   int
		code     string
	}{
		{
			name:     "quantity below minimum",
			quantity: 2,
			customer: map[string]string{"name": "Ada", "email": "ada@example.com"},
			status:   http.StatusBadRequest,
			code:     "CONFIG_QUANTITY_TOO_LOW",
		},
		{
			name:     "bad email",
			quantity: 4,
			customer: map[string]string{"name": "Ada", "email": "not-an-email"},
			status:   http.StatusBadRequest,
			code:     "RFQ_INVALID_CUSTOMER",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/v1/rfq", map[string]interface{}{
				"product_id":    f.product.ID,
				"configuration": f.jerseyConfiguration(tt.quantity),
				"customer_info": tt.customer,
			}, "")
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
	assert.Empty(t, f.notifier.Events())
}

func TestRFQController_GetWithToken(t *testing.T) {
	f := setupControllerTest(t, nil)
	created := f.submitRFQ(t)

	w := f.do(t, http.MethodGet, "/api/v1/rfq/"+uintKey(created.ID)+"?token="+created.AccessToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var view RFQView
	decodeBody(t, w, &view)
	assert.Equal(t, created.ID, view.ID)
	assert.Empty(t, view.AccessToken)

	w = f.do(t, http.MethodGet, "/api/v1/rfq/"+uintKey(created.ID)+"?token=wrong", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRFQController_Transition(t *testing.T) {
	f := setupControllerTest(t, nil)
	created := f.submitRFQ(t)
	path := "/api/v1/rfq/" + uintKey(created.ID) + "/status"

	// customers cannot move a new request
	w := f.do(t, http.MethodPost, path, map[string]interface{}{
		"status": "approved", "access_token": created.AccessToken,
	}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "RFQ_INVALID_TRANSITION", errorCode(t, w))

	w = f.do(t, http.MethodPost, path, map[string]interface{}{"status": "processing"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, path, map[string]interface{}{"status": "shipped"}, f.staffToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "RFQ_INVALID_STATUS", errorCode(t, w))

	w = f.do(t, http.MethodPost, path, map[string]interface{}{"status": "processing", "version": 1}, f.staffToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// stale version
	w = f.do(t, http.MethodPost, path, map[string]interface{}{"status": "quoted", "version": 1}, f.staffToken)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "RFQ_CONFLICT", errorCode(t, w))

	w = f.do(t, http.MethodPost, path, map[string]interface{}{"status": "quoted", "version": 2}, f.staffToken)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, path, map[string]interface{}{
		"status": "approved", "access_token": "not-the-token",
	}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPost, path+"?token="+created.AccessToken, map[string]interface{}{"status": "approved"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var view RFQView
	decodeBody(t, w, &view)
	assert.Equal(t, model.RFQStatusApproved, view.Status)
	assert.Equal(t, 4, view.Version)

	w = f.do(t, http.MethodPost, path, map[string]interface{}{"status": "cancelled"}, f.staffToken)
	assert.Equal(t, http.StatusConflict, w.Code)
}
