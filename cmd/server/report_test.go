package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/models"
)

func (s *ServerTestSuite) Test_CreateReport() {
	tests := []struct {
		name           string
		auth           *clientAuth
		bodyTester     func(t *testing.T, body map[string]any)
		submissionID   string
		payload        string
		expectedStatus int
	}{
		{
			name:           "Valid",
			auth:           &clientAuth{userJudge.Username, authToken},
			submissionID:   submissionPending.ID.String(),
			payload:        `{"reason": "inappropriate", "description": "this is not a punch"}`,
			expectedStatus: http.StatusCreated,
			bodyTester: func(t *testing.T, body map[string]any) {
				assert.Contains(t, body, "id", "contains id key")
				assert.Equal(t, submissionPending.ID.String(), body["submission_id"])
				assert.Equal(t, userJudge.Username, body["reporter_username"])
				assert.Equal(t, "inappropriate", body["reason"])
				assert.Equal(t, "this is not a punch", body["description"])
				assert.Equal(t, false, body["is_resolved"])
			},
		},
		{
			name:           "ValidNoDescription",
			auth:           &clientAuth{userAlice.Username, authToken},
			submissionID:   submissionPending.ID.String(),
			payload:        `{"reason": "spam"}`,
			expectedStatus: http.StatusCreated,
			bodyTester: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "spam", body["reason"])
				assert.Equal(t, "", body["description"])
			},
		},
		{
			name:           "InvalidReason",
			auth:           &clientAuth{userAlice.Username, authToken},
			submissionID:   submissionPending.ID.String(),
			payload:        `{"reason": "ugly"}`,
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:           "InvalidMissingReason",
			auth:           &clientAuth{userAlice.Username, authToken},
			submissionID:   submissionPending.ID.String(),
			payload:        `{"description": "no reason given"}`,
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:           "InvalidGuest",
			submissionID:   submissionPending.ID.String(),
			payload:        `{"reason": "spam"}`,
			expectedStatus: http.StatusUnauthorized,
			bodyTester:     unauthorizedBodyTester,
		},
		{
			name:           "InvalidUnknownSubmission",
			auth:           &clientAuth{userAlice.Username, authToken},
			submissionID:   uuid.New().String(),
			payload:        `{"reason": "spam"}`,
			expectedStatus: http.StatusNotFound,
			bodyTester:     notFoundBodyTester,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req, err := http.NewRequest(
				http.MethodPost,
				fmt.Sprintf("%s/v1/submissions/%s/report/", s.server.URL, tt.submissionID),
				strings.NewReader(tt.payload),
			)
			s.Require().NoError(err, "failed to construct http request")

			req.Header.Add("Content-Type", "application/json")

			if tt.auth != nil {
				req.SetBasicAuth(tt.auth.username, tt.auth.token)
			}

			resp, err := doRequest(s.T(), req)
			s.Require().NoError(err)

			s.Equal(tt.expectedStatus, resp.code, "incorrect status code")
			body := make(map[string]any)
			s.Require().NoError(json.Unmarshal([]byte(resp.body), &body))

			tt.bodyTester(s.T(), body)
		})
	}

	var count int64
	s.Require().NoError(s.tx.Model(&models.Report{}).
		Where("submission_id = ?", submissionPending.ID).Count(&count).Error)
	s.Equal(int64(2), count, "both valid reports were stored")
}

func (s *ServerTestSuite) Test_AdminListReports() {
	tests := []struct {
		name           string
		auth           *clientAuth
		listTester     func(t *testing.T, list []map[string]any)
		expectedStatus int
	}{
		{
			name:           "ValidJudge",
			auth:           &clientAuth{userJudge.Username, authToken},
			expectedStatus: http.StatusOK,
			listTester: func(t *testing.T, list []map[string]any) {
				assert.Len(t, list, 1)
				assert.Equal(t, reportOpen.ID.String(), list[0]["id"])
				assert.Equal(t, userAlice.Username, list[0]["reporter_username"])
				assert.Equal(t, false, list[0]["is_resolved"])
			},
		},
		{
			name:           "InvalidPlainUser",
			auth:           &clientAuth{userAlice.Username, authToken},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "InvalidGuest",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req, err := http.NewRequest(
				http.MethodGet,
				fmt.Sprintf("%s/v1/admin/reports/", s.server.URL),
				nil,
			)
			s.Require().NoError(err, "failed to construct http request")

			if tt.auth != nil {
				req.SetBasicAuth(tt.auth.username, tt.auth.token)
			}

			resp, err := doRequest(s.T(), req)
			s.Require().NoError(err)

			s.Equal(tt.expectedStatus, resp.code, "incorrect status code")

			if tt.listTester == nil {
				return
			}

			var list []map[string]any
			s.Require().NoError(json.Unmarshal([]byte(resp.body), &list))
			tt.listTester(s.T(), list)
		})
	}
}
