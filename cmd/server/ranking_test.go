package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func (s *ServerTestSuite) Test_ListRankings() {
	tests := []struct {
		name           string
		query          string
		listTester     func(t *testing.T, list []map[string]any)
		expectedStatus int
	}{
		{
			name:           "ValidAll",
			expectedStatus: http.StatusOK,
			listTester: func(t *testing.T, list []map[string]any) {
				assert.Len(t, list, 1)
				assert.Equal(t, rankingWeekly.ID.String(), list[0]["id"])
				assert.Equal(t, "weekly", list[0]["ranking_type"])
				assert.Equal(t, 1.0, list[0]["rank"])
				assert.Equal(t, 950.0, list[0]["speed_kmh"])

				submission, ok := list[0]["submission"].(map[string]any)
				assert.True(t, ok, "submission is embedded")
				assert.Equal(t, submissionJudged.ID.String(), submission["id"])
				assert.Equal(t, userAlice.Username, submission["user_username"])
			},
		},
		{
			name:           "ValidWeeklyFilter",
			query:          "?period=weekly",
			expectedStatus: http.StatusOK,
			listTester: func(t *testing.T, list []map[string]any) {
				assert.Len(t, list, 1)
			},
		},
		{
			name:           "ValidMonthlyFilterEmpty",
			query:          "?period=monthly",
			expectedStatus: http.StatusOK,
			listTester: func(t *testing.T, list []map[string]any) {
				assert.Empty(t, list)
			},
		},
		{
			name:           "InvalidPeriod",
			query:          "?period=fortnightly",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req, err := http.NewRequest(
				http.MethodGet,
				fmt.Sprintf("%s/v1/rankings/%s", s.server.URL, tt.query),
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
