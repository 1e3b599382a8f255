package httphelper_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charlesshaw3/SimpleServers/internal/httphelper"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

var errHidden = errors.New("hidden detail")

func TestAPIErrorTitleUsesLastJoinedError(t *testing.T) {
	apiErr := httphelper.NewAPIError(http.StatusNotFound, errors.Join(errHidden, httphelper.ErrNotFound))
	require.Equal(t, httphelper.ErrNotFound.Error(), apiErr.Title)
	require.ErrorIs(t, apiErr, httphelper.ErrNotFound)
}

func TestErrorHandlerProblemJSON(t *testing.T) {
	router := httphelper.CreateRouter(httphelper.RouterOpts{Mode: gin.TestMode})
	router.GET("/thing/:thing_id", func(ctx *gin.Context) {
		if _, ok := httphelper.GetUUIDParam(ctx, "thing_id"); !ok {
			return
		}

		httphelper.SetError(ctx, httphelper.NewAPIErrorf(http.StatusNotFound, httphelper.ErrNotFound, "no such thing"))
	})
	router.GET("/boom", func(ctx *gin.Context) {
		_ = ctx.Error(errHidden)
	})

	for _, testCase := range []struct {
		path   string
		status int
		title  string
	}{
		{"/thing/not-a-uuid", http.StatusBadRequest, httphelper.ErrParamParse.Error()},
		{"/thing/2f1d6a5e-3c2b-4f7e-9a57-0c2f0f4f8f11", http.StatusNotFound, httphelper.ErrNotFound.Error()},
		{"/boom", http.StatusInternalServerError, httphelper.ErrInternal.Error()},
	} {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequestWithContext(t.Context(), http.MethodGet, testCase.path, nil)
		router.ServeHTTP(recorder, request)

		require.Equal(t, testCase.status, recorder.Code, testCase.path)
		require.Equal(t, "application/problem+json", recorder.Header().Get("Content-Type"))

		var apiErr httphelper.APIError
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&apiErr))
		require.Equal(t, testCase.title, apiErr.Title)
		require.Equal(t, testCase.path, apiErr.Instance)
	}
}

func TestBindQueryIgnoresUnknownKeys(t *testing.T) {
	type query struct {
		Limit int `schema:"limit"`
	}

	router := httphelper.CreateRouter(httphelper.RouterOpts{Mode: gin.TestMode})
	router.GET("/q", func(ctx *gin.Context) {
		var req query
		if !httphelper.BindQuery(ctx, &req) {
			return
		}

		ctx.JSON(http.StatusOK, req.Limit)
	})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/q?limit=5&other=x", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "5", recorder.Body.String())

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/q?limit=abc", nil))
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}
