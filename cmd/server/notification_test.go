package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/models"
)

func (s *ServerTestSuite) Test_ListNotifications() {
	tests := []struct {
		name           string
		auth           *clientAuth
		listTester     func(t *testing.T, list []map[string]any)
		expectedStatus int
	}{
		{
			name:           "ValidOwnInboxNewestFirst",
			auth:           &clientAuth{userAlice.Username, authToken},
			expectedStatus: http.StatusOK,
			listTester: func(t *testing.T, list []map[string]any) {
				assert.Len(t, list, 2, "only the caller's notifications")
				assert.Equal(t, notificationUnread.ID.String(), list[0]["id"])
				assert.Equal(t, false, list[0]["is_read"])
				assert.Equal(t, notificationRead.ID.String(), list[1]["id"])
				assert.Equal(t, true, list[1]["is_read"])
			},
		},
		{
			name:           "ValidOtherInboxIsScoped",
			auth:           &clientAuth{userJudge.Username, authToken},
			expectedStatus: http.StatusOK,
			listTester: func(t *testing.T, list []map[string]any) {
				assert.Len(t, list, 1)
				assert.Equal(t, notificationJudge.ID.String(), list[0]["id"])
			},
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
				fmt.Sprintf("%s/v1/notifications/", s.server.URL),
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
				body := make(map[string]any)
				s.Require().NoError(json.Unmarshal([]byte(resp.body), &body))
				unauthorizedBodyTester(s.T(), body)
				return
			}

			var list []map[string]any
			s.Require().NoError(json.Unmarshal([]byte(resp.body), &list))
			tt.listTester(s.T(), list)
		})
	}
}

func (s *ServerTestSuite) Test_MarkNotificationRead() {
	tests := []struct {
		name           string
		auth           *clientAuth
		notificationID string
		expectedStatus int
	}{
		{
			name:           "Valid",
			auth:           &clientAuth{userAlice.Username, authToken},
			notificationID: notificationUnread.ID.String(),
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "InvalidForeignNotification",
			auth:           &clientAuth{userAlice.Username, authToken},
			notificationID: notificationJudge.ID.String(),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "InvalidNotUUID",
			auth:           &clientAuth{userAlice.Username, authToken},
			notificationID: "not-a-uuid",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "InvalidUnknownID",
			auth:           &clientAuth{userAlice.Username, authToken},
			notificationID: uuid.New().String(),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "InvalidGuest",
			notificationID: notificationUnread.ID.String(),
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req, err := http.NewRequest(
				http.MethodPatch,
				fmt.Sprintf("%s/v1/notifications/%s/read/", s.server.URL, tt.notificationID),
				nil,
			)
			s.Require().NoError(err, "failed to construct http request")

			if tt.auth != nil {
				req.SetBasicAuth(tt.auth.username, tt.auth.token)
			}

			resp, err := doRequest(s.T(), req)
			s.Require().NoError(err)

			s.Equal(tt.expectedStatus, resp.code, "incorrect status code")
		})
	}

	var stored models.Notification
	s.Require().NoError(s.tx.First(&stored, "id = ?", notificationUnread.ID).Error)
	s.True(stored.IsRead, "read flag was persisted")

	s.Require().NoError(s.tx.First(&stored, "id = ?", notificationJudge.ID).Error)
	s.False(stored.IsRead, "foreign notification untouched")
}
