package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectBuildURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "manual",
			env:  map[string]string{},
			want: "https://litmus_manual",
		},
		{
			name: "travis",
			env:  map[string]string{"CI": "true", "TRAVIS": "true", "TRAVIS_JOB_WEB_URL": "https://travis-ci.com/org/repo/jobs/1"},
			want: "https://travis-ci.com/org/repo/jobs/1",
		},
		{
			name: "appveyor",
			env: map[string]string{
				"CI": "True", "APPVEYOR": "True",
				"APPVEYOR_REPO_NAME": "org/repo", "APPVEYOR_BUILD_ID": "77", "APPVEYOR_JOB_ID": "abc",
			},
			want: "https://ci.appveyor.com/project/org/repo/builds/77/job/abc",
		},
		{
			name: "github actions",
			env: map[string]string{
				"CI": "true", "GITHUB_ACTIONS": "true",
				"GITHUB_SERVER_URL": "https://github.com", "GITHUB_REPOSITORY": "org/repo", "GITHUB_RUN_ID": "42",
			},
			want: "https://github.com/org/repo/actions/runs/42",
		},
		{
			name: "travis wins over github actions",
			env: map[string]string{
				"CI": "true", "TRAVIS": "true", "TRAVIS_JOB_WEB_URL": "https://travis/1",
				"GITHUB_ACTIONS": "true",
			},
			want: "https://travis/1",
		},
		{
			name: "appveyor needs capitalised values",
			env:  map[string]string{"CI": "true", "APPVEYOR": "true"},
			want: "https://litmus_manual",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DetectBuildURL(mapLookup(tt.env)))
		})
	}
}
