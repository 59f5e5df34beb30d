package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/models"
	"github.com/Alex1-1-1/world-fastest-punch/internal/validator"
)

func (s *ServerTestSuite) Test_CreateSubmission() {
	tests := []struct {
		name           string
		auth           *clientAuth
		bodyTester     func(t *testing.T, body map[string]any)
		filename       string
		data           func(t *testing.T) []byte
		description    string
		expectedStatus int
	}{
		{
			name:           "Valid",
			auth:           &clientAuth{userAlice.Username, authToken},
			filename:       "punch.jpg",
			data:           func(t *testing.T) []byte { return jpegBytes(t, 800, 600) },
			description:    "my fastest punch yet",
			expectedStatus: http.StatusCreated,
			bodyTester: func(t *testing.T, body map[string]any) {
				assert.Contains(t, body, "id", "contains id key")
				assert.Equal(t, userAlice.Username, body["user_username"])
				assert.Equal(t, "my fastest punch yet", body["description"])
				assert.Equal(t, false, body["is_judged"])

				// the thumbnail and watermark are separate stored files
				assert.Contains(t, body, "image")
				assert.Contains(t, body, "thumbnail")
				assert.Contains(t, body, "watermarked_image")
				assert.NotEqual(t, body["image"], body["thumbnail"])
				assert.NotEqual(t, body["image"], body["watermarked_image"])
				assert.Contains(t, body["thumbnail"], "thumbnails/thumb_")
				assert.Contains(t, body["watermarked_image"], "watermarked/watermark_")
			},
		},
		{
			name:           "ValidNoDescription",
			auth:           &clientAuth{userAlice.Username, authToken},
			filename:       "punch.jpg",
			data:           func(t *testing.T) []byte { return jpegBytes(t, 100, 100) },
			expectedStatus: http.StatusCreated,
			bodyTester: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "", body["description"])
			},
		},
		{
			name:           "InvalidGuest",
			auth:           nil,
			filename:       "punch.jpg",
			data:           func(t *testing.T) []byte { return jpegBytes(t, 100, 100) },
			expectedStatus: http.StatusUnauthorized,
			bodyTester:     unauthorizedBodyTester,
		},
		{
			name:           "InvalidInactiveUser",
			auth:           &clientAuth{userInactive.Username, authToken},
			filename:       "punch.jpg",
			data:           func(t *testing.T) []byte { return jpegBytes(t, 100, 100) },
			expectedStatus: http.StatusUnauthorized,
			bodyTester:     unauthorizedBodyTester,
		},
		{
			name:     "InvalidTooLarge",
			auth:     &clientAuth{userAlice.Username, authToken},
			filename: "punch.jpg",
			data: func(t *testing.T) []byte {
				return bytes.Repeat([]byte{'a'}, validator.MaxImageBytes+1)
			},
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:           "InvalidFormat",
			auth:           &clientAuth{userAlice.Username, authToken},
			filename:       "punch.txt",
			data:           func(t *testing.T) []byte { return []byte("not an image") },
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			body, contentType := multipartImage(s.T(), tt.filename, tt.data(s.T()), tt.description)

			req, err := http.NewRequest(
				http.MethodPost,
				fmt.Sprintf("%s/v1/submissions/", s.server.URL),
				body,
			)
			s.Require().NoError(err, "failed to construct http request")

			req.Header.Add("Content-Type", contentType)

			if tt.auth != nil {
				req.SetBasicAuth(tt.auth.username, tt.auth.token)
			}

			resp, err := doRequest(s.T(), req)
			s.Require().NoError(err)

			s.Equal(tt.expectedStatus, resp.code, "incorrect status code")
			respBody := make(map[string]any)
			s.Require().NoError(json.Unmarshal([]byte(resp.body), &respBody))

			tt.bodyTester(s.T(), respBody)
		})
	}
}

func (s *ServerTestSuite) Test_CreateSubmissionPersistsDerivativeRefs() {
	body, contentType := multipartImage(s.T(), "punch.jpg", jpegBytes(s.T(), 640, 480), "refs")

	req, err := http.NewRequest(
		http.MethodPost,
		fmt.Sprintf("%s/v1/submissions/", s.server.URL),
		body,
	)
	s.Require().NoError(err, "failed to construct http request")

	req.Header.Add("Content-Type", contentType)
	req.SetBasicAuth(userAlice.Username, authToken)

	resp, err := doRequest(s.T(), req)
	s.Require().NoError(err)
	s.Require().Equal(http.StatusCreated, resp.code)

	respBody := make(map[string]any)
	s.Require().NoError(json.Unmarshal([]byte(resp.body), &respBody))

	id, err := uuid.Parse(respBody["id"].(string))
	s.Require().NoError(err, "response id is not a uuid")

	var stored models.Submission
	s.Require().NoError(s.tx.First(&stored, "id = ?", id).Error)
	s.Equal(fmt.Sprintf("thumbnails/thumb_%s.jpg", id), stored.ThumbnailRef.V)
	s.Equal(fmt.Sprintf("watermarked/watermark_%s.jpg", id), stored.WatermarkedRef.V)
}

func (s *ServerTestSuite) Test_GetSubmission() {
	tests := []struct {
		name           string
		auth           *clientAuth
		bodyTester     func(t *testing.T, body map[string]any)
		submissionID   string
		expectedStatus int
	}{
		{
			name:           "ValidGuest",
			submissionID:   submissionPending.ID.String(),
			expectedStatus: http.StatusOK,
			bodyTester: func(t *testing.T, body map[string]any) {
				assert.Equal(t, submissionPending.ID.String(), body["id"])
				assert.Equal(t, false, body["is_judged"])
				assert.NotContains(t, body, "judgment")
			},
		},
		{
			name:           "ValidJudgedWithJudgment",
			auth:           &clientAuth{userAlice.Username, authToken},
			submissionID:   submissionJudged.ID.String(),
			expectedStatus: http.StatusOK,
			bodyTester: func(t *testing.T, body map[string]any) {
				assert.Equal(t, submissionJudged.ID.String(), body["id"])
				assert.Equal(t, true, body["is_judged"])

				judgment, ok := body["judgment"].(map[string]any)
				assert.True(t, ok, "judgment is embedded")
				assert.Equal(t, "APPROVED", judgment["judgment"])
				assert.Equal(t, 950.0, judgment["speed_kmh"])
				assert.Equal(t, userJudge.DisplayName, judgment["judge_name"])
			},
		},
		{
			name:           "InvalidNotUUID",
			submissionID:   "not-a-uuid",
			expectedStatus: http.StatusNotFound,
			bodyTester:     notFoundBodyTester,
		},
		{
			name:           "InvalidUnknownID",
			submissionID:   uuid.New().String(),
			expectedStatus: http.StatusNotFound,
			bodyTester:     notFoundBodyTester,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req, err := http.NewRequest(
				http.MethodGet,
				fmt.Sprintf("%s/v1/submissions/%s/", s.server.URL, tt.submissionID),
				nil,
			)
			s.Require().NoError(err, "failed to construct http request")

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
}

func (s *ServerTestSuite) Test_ListSubmissions() {
	tests := []struct {
		name           string
		query          string
		expectedStatus int
		listTester     func(t *testing.T, list []map[string]any)
	}{
		{
			name:           "ValidAll",
			expectedStatus: http.StatusOK,
			listTester: func(t *testing.T, list []map[string]any) {
				assert.Len(t, list, 2)
				// newest first
				assert.Equal(t, submissionJudged.ID.String(), list[0]["id"])
				assert.Equal(t, submissionPending.ID.String(), list[1]["id"])
			},
		},
		{
			name:           "ValidJudgedOnly",
			query:          "?judged=true",
			expectedStatus: http.StatusOK,
			listTester: func(t *testing.T, list []map[string]any) {
				assert.Len(t, list, 1)
				assert.Equal(t, submissionJudged.ID.String(), list[0]["id"])
			},
		},
		{
			name:           "ValidPendingOnly",
			query:          "?judged=false",
			expectedStatus: http.StatusOK,
			listTester: func(t *testing.T, list []map[string]any) {
				assert.Len(t, list, 1)
				assert.Equal(t, submissionPending.ID.String(), list[0]["id"])
			},
		},
		{
			name:           "InvalidFilter",
			query:          "?judged=maybe",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req, err := http.NewRequest(
				http.MethodGet,
				fmt.Sprintf("%s/v1/submissions/%s", s.server.URL, tt.query),
				nil,
			)
			s.Require().NoError(err, "failed to construct http request")

			resp, err := doRequest(s.T(), req)
			s.Require().NoError(err)

			s.Equal(tt.expectedStatus, resp.code, "incorrect status code")

			if tt.listTester == nil {
				body := make(map[string]any)
				s.Require().NoError(json.Unmarshal([]byte(resp.body), &body))
				assertErrorBodyWithFields(s.T(), body)
				return
			}

			var list []map[string]any
			s.Require().NoError(json.Unmarshal([]byte(resp.body), &list))
			tt.listTester(s.T(), list)
		})
	}
}

func (s *ServerTestSuite) Test_AdminListSubmissions() {
	tests := []struct {
		name           string
		auth           *clientAuth
		expectedStatus int
	}{
		{
			name:           "ValidJudge",
			auth:           &clientAuth{userJudge.Username, authToken},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "ValidAdmin",
			auth:           &clientAuth{userAdmin.Username, authToken},
			expectedStatus: http.StatusOK,
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
				fmt.Sprintf("%s/v1/admin/submissions/", s.server.URL),
				nil,
			)
			s.Require().NoError(err, "failed to construct http request")

			if tt.auth != nil {
				req.SetBasicAuth(tt.auth.username, tt.auth.token)
			}

			resp, err := doRequest(s.T(), req)
			s.Require().NoError(err)

			s.Equal(tt.expectedStatus, resp.code, "incorrect status code")

			if tt.expectedStatus == http.StatusOK {
				var list []map[string]any
				s.Require().NoError(json.Unmarshal([]byte(resp.body), &list))
				s.Len(list, 2)
			}
		})
	}
}

func (s *ServerTestSuite) Test_Ping() {
	tests := []struct {
		name string
		auth *clientAuth
	}{
		{name: "Guest"},
		{name: "Authenticated", auth: &clientAuth{userAlice.Username, authToken}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req, err := http.NewRequest(
				http.MethodGet,
				fmt.Sprintf("%s/v1/ping/", s.server.URL),
				nil,
			)
			s.Require().NoError(err, "failed to construct http request")

			if tt.auth != nil {
				req.SetBasicAuth(tt.auth.username, tt.auth.token)
			}

			resp, err := doRequest(s.T(), req)
			s.Require().NoError(err)

			s.Equal(http.StatusOK, resp.code, "incorrect status code")
			s.True(strings.Contains(resp.body, "ready"))
		})
	}
}
