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
	"github.com/Alex1-1-1/world-fastest-punch/internal/types"
)

func (s *ServerTestSuite) Test_SubmitVerdict() {
	tests := []struct {
		name           string
		auth           *clientAuth
		bodyTester     func(t *testing.T, body map[string]any)
		submissionID   string
		payload        string
		expectedStatus int
	}{
		{
			name:         "ValidApproval",
			auth:         &clientAuth{userJudge.Username, authToken},
			submissionID: submissionPending.ID.String(),
			payload: `{
				"judgment": "APPROVED",
				"speed_kmh": 812.5,
				"metaphor_comment": "like a freight train",
				"detailed_comment": "great rotation"
			}`,
			expectedStatus: http.StatusOK,
			bodyTester: func(t *testing.T, body map[string]any) {
				assert.Equal(t, true, body["is_judged"])

				judgment, ok := body["judgment"].(map[string]any)
				assert.True(t, ok, "judgment is embedded")
				assert.Equal(t, "APPROVED", judgment["judgment"])
				assert.Equal(t, 812.5, judgment["speed_kmh"])
				assert.Equal(t, "like a freight train", judgment["metaphor_comment"])
				assert.Equal(t, userJudge.DisplayName, judgment["judge_name"])
			},
		},
		{
			name:         "ValidApprovalByAdmin",
			auth:         &clientAuth{userAdmin.Username, authToken},
			submissionID: submissionPending.ID.String(),
			payload: `{
				"judgment": "APPROVED",
				"speed_kmh": 400,
				"metaphor_comment": "a firm knock"
			}`,
			expectedStatus: http.StatusOK,
			bodyTester: func(t *testing.T, body map[string]any) {
				assert.Equal(t, true, body["is_judged"])
			},
		},
		{
			name:         "InvalidMissingComment",
			auth:         &clientAuth{userJudge.Username, authToken},
			submissionID: submissionPending.ID.String(),
			payload: `{
				"judgment": "APPROVED",
				"speed_kmh": 500
			}`,
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:         "InvalidMissingSpeedOnApproval",
			auth:         &clientAuth{userJudge.Username, authToken},
			submissionID: submissionPending.ID.String(),
			payload: `{
				"judgment": "APPROVED",
				"metaphor_comment": "fast"
			}`,
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:         "InvalidMissingReasonOnRejection",
			auth:         &clientAuth{userJudge.Username, authToken},
			submissionID: submissionPending.ID.String(),
			payload: `{
				"judgment": "REJECTED",
				"metaphor_comment": "not a punch"
			}`,
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:         "InvalidVerdictValue",
			auth:         &clientAuth{userJudge.Username, authToken},
			submissionID: submissionPending.ID.String(),
			payload: `{
				"judgment": "MAYBE",
				"metaphor_comment": "hmm"
			}`,
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:         "InvalidPlainUser",
			auth:         &clientAuth{userAlice.Username, authToken},
			submissionID: submissionPending.ID.String(),
			payload: `{
				"judgment": "APPROVED",
				"speed_kmh": 500,
				"metaphor_comment": "fast"
			}`,
			expectedStatus: http.StatusForbidden,
			bodyTester:     forbiddenBodyTester,
		},
		{
			name:         "InvalidGuest",
			submissionID: submissionPending.ID.String(),
			payload: `{
				"judgment": "APPROVED",
				"speed_kmh": 500,
				"metaphor_comment": "fast"
			}`,
			expectedStatus: http.StatusUnauthorized,
			bodyTester:     unauthorizedBodyTester,
		},
		{
			name:         "InvalidUnknownSubmission",
			auth:         &clientAuth{userJudge.Username, authToken},
			submissionID: uuid.New().String(),
			payload: `{
				"judgment": "APPROVED",
				"speed_kmh": 500,
				"metaphor_comment": "fast"
			}`,
			expectedStatus: http.StatusNotFound,
			bodyTester:     notFoundBodyTester,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req, err := http.NewRequest(
				http.MethodPost,
				fmt.Sprintf("%s/v1/submissions/%s/judgment/", s.server.URL, tt.submissionID),
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
}

func (s *ServerTestSuite) Test_SubmitVerdictApprovalSideEffects() {
	payload := `{
		"judgment": "APPROVED",
		"speed_kmh": 812.5,
		"metaphor_comment": "like a freight train"
	}`

	req, err := http.NewRequest(
		http.MethodPost,
		fmt.Sprintf("%s/v1/submissions/%s/judgment/", s.server.URL, submissionPending.ID),
		strings.NewReader(payload),
	)
	s.Require().NoError(err, "failed to construct http request")

	req.Header.Add("Content-Type", "application/json")
	req.SetBasicAuth(userJudge.Username, authToken)

	resp, err := doRequest(s.T(), req)
	s.Require().NoError(err)
	s.Require().Equal(http.StatusOK, resp.code)

	var stored models.Submission
	s.Require().NoError(s.tx.First(&stored, "id = ?", submissionPending.ID).Error)
	s.True(stored.IsJudged, "submission is marked judged")

	var judgment models.Judgment
	s.Require().
		NoError(s.tx.First(&judgment, "submission_id = ?", submissionPending.ID).Error)
	s.Equal(types.VerdictApproved, judgment.Verdict)
	s.Equal(812.5, judgment.SpeedKMH.V)
	s.Equal(userJudge.ID, judgment.JudgeID)

	var notifications []models.Notification
	s.Require().NoError(s.tx.
		Where("user_id = ? AND type = ?", userAlice.ID, types.NotificationApproval).
		Where("message LIKE ?", "%812.5%").
		Find(&notifications).Error)
	s.Len(notifications, 1, "owner got an approval notification")
}

func (s *ServerTestSuite) Test_SubmitVerdictReApprovalAmends() {
	approve := func(payload string) {
		req, err := http.NewRequest(
			http.MethodPost,
			fmt.Sprintf("%s/v1/submissions/%s/judgment/", s.server.URL, submissionPending.ID),
			strings.NewReader(payload),
		)
		s.Require().NoError(err, "failed to construct http request")

		req.Header.Add("Content-Type", "application/json")
		req.SetBasicAuth(userJudge.Username, authToken)

		resp, err := doRequest(s.T(), req)
		s.Require().NoError(err)
		s.Require().Equal(http.StatusOK, resp.code)
	}

	approve(`{"judgment": "APPROVED", "speed_kmh": 500, "metaphor_comment": "first pass"}`)
	approve(`{"judgment": "APPROVED", "speed_kmh": 700, "metaphor_comment": "second look"}`)

	var judgments []models.Judgment
	s.Require().
		NoError(s.tx.Where("submission_id = ?", submissionPending.ID).Find(&judgments).Error)
	s.Require().Len(judgments, 1, "re-approval amends instead of duplicating")
	s.Equal(700.0, judgments[0].SpeedKMH.V)
	s.Equal("second look", judgments[0].Comment)
}

func (s *ServerTestSuite) Test_SubmitVerdictRejectionErases() {
	payload := `{
		"judgment": "REJECTED",
		"metaphor_comment": "not a punch",
		"rejection_reason": "video shows a kick"
	}`

	req, err := http.NewRequest(
		http.MethodPost,
		fmt.Sprintf("%s/v1/submissions/%s/judgment/", s.server.URL, submissionJudged.ID),
		strings.NewReader(payload),
	)
	s.Require().NoError(err, "failed to construct http request")

	req.Header.Add("Content-Type", "application/json")
	req.SetBasicAuth(userJudge.Username, authToken)

	resp, err := doRequest(s.T(), req)
	s.Require().NoError(err)
	s.Require().Equal(http.StatusOK, resp.code)

	body := make(map[string]any)
	s.Require().NoError(json.Unmarshal([]byte(resp.body), &body))
	s.Equal(submissionJudged.ID.String(), body["submission_id"])
	s.Equal("REJECTED", body["judgment"])
	s.Equal(true, body["deleted"])

	// the submission and everything hanging off it is gone
	var count int64
	s.Require().NoError(s.tx.Model(&models.Submission{}).
		Where("id = ?", submissionJudged.ID).Count(&count).Error)
	s.Zero(count, "submission row deleted")

	s.Require().NoError(s.tx.Model(&models.Judgment{}).
		Where("submission_id = ?", submissionJudged.ID).Count(&count).Error)
	s.Zero(count, "judgment row deleted")

	s.Require().NoError(s.tx.Model(&models.Ranking{}).
		Where("submission_id = ?", submissionJudged.ID).Count(&count).Error)
	s.Zero(count, "ranking rows deleted")

	s.Require().NoError(s.tx.Model(&models.Report{}).
		Where("submission_id = ?", submissionJudged.ID).Count(&count).Error)
	s.Zero(count, "report rows deleted")

	// the owner was notified before the erase
	var notifications []models.Notification
	s.Require().NoError(s.tx.
		Where("user_id = ? AND type = ?", userAlice.ID, types.NotificationRejection).
		Where("message LIKE ?", "%video shows a kick%").
		Find(&notifications).Error)
	s.Len(notifications, 1, "owner got a rejection notification")

	// and a follow up read now misses
	getReq, err := http.NewRequest(
		http.MethodGet,
		fmt.Sprintf("%s/v1/submissions/%s/", s.server.URL, submissionJudged.ID),
		nil,
	)
	s.Require().NoError(err, "failed to construct http request")

	getResp, err := doRequest(s.T(), getReq)
	s.Require().NoError(err)
	s.Equal(http.StatusNotFound, getResp.code)
}
