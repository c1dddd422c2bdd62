package action

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promofarm/core-go/internal/gameclient"
	"github.com/promofarm/core-go/internal/model"
)

func TestClassifyResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		outcome model.Outcome
	}{
		{"json success", `{"result":"success","message":"reward granted"}`, model.OutcomeSuccess},
		{"json already claimed", `{"result":"fail","message":"Already claimed today"}`, model.OutcomeSuccess},
		{"json inactive", `{"result":"fail","message":"Event has ended"}`, model.OutcomeSkipped},
		{"json unknown", `{"result":"fail","message":"error 0x19"}`, model.OutcomeRecoverable},
		{"plain text success", `OK`, model.OutcomeSuccess},
		{"plain text portuguese already claimed", `Já resgatado hoje`, model.OutcomeSuccess},
		{"plain text spanish inactive", `Evento no disponible`, model.OutcomeSkipped},
		{"garbage", `<html>502 bad gateway</html>`, model.OutcomeRecoverable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ClassifyResponse([]byte(tt.body))
			assert.Equal(t, tt.outcome, res.Outcome)
			assert.NotEmpty(t, res.Message)
		})
	}
}

func TestAttendanceAction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/event/attendance/check", r.URL.Path)
		fmt.Fprint(w, `{"result":"success","message":"stamp added"}`)
	}))
	defer srv.Close()

	sess, err := gameclient.NewSession("owner1", model.Account{UID: "100"}, srv.URL)
	require.NoError(t, err)

	a := NewAttendanceAction()
	assert.Equal(t, "attendance", a.EventID())

	res, err := a.Execute(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeSuccess, res.Outcome)
}

func TestPromoAction(t *testing.T) {
	t.Run("posts the code", func(t *testing.T) {
		var gotCode string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			gotCode = r.PostFormValue("code")
			fmt.Fprint(w, `{"result":"success"}`)
		}))
		defer srv.Close()

		sess, err := gameclient.NewSession("owner1", model.Account{UID: "100"}, srv.URL)
		require.NoError(t, err)

		res, err := NewPromoAction("SUMMER2025").Execute(context.Background(), sess)
		require.NoError(t, err)
		assert.Equal(t, model.OutcomeSuccess, res.Outcome)
		assert.Equal(t, "SUMMER2025", gotCode)
	})

	t.Run("transport failure surfaces as error", func(t *testing.T) {
		sess, err := gameclient.NewSession("owner1", model.Account{UID: "100"}, "http://127.0.0.1:1")
		require.NoError(t, err)

		_, err = NewPromoAction("SUMMER2025").Execute(context.Background(), sess)
		assert.Error(t, err)
	})
}
