package config

import "fmt"

// ManualBuildURL tags jobs that were not started by a recognised CI system.
const ManualBuildURL = "https://litmus_manual"

// DetectBuildURL returns a link to the CI build running this process.
// Systems are checked in a fixed order: Travis, AppVeyor, GitHub Actions.
func DetectBuildURL(lookup Lookup) string {
	env := func(key string) string {
		v, _ := lookup(key)
		return v
	}

	switch {
	case env("CI") == "true" && env("TRAVIS") == "true":
		return env("TRAVIS_JOB_WEB_URL")
	case env("CI") == "True" && env("APPVEYOR") == "True":
		return fmt.Sprintf("https://ci.appveyor.com/project/%s/builds/%s/job/%s",
			env("APPVEYOR_REPO_NAME"), env("APPVEYOR_BUILD_ID"), env("APPVEYOR_JOB_ID"))
	case env("GITHUB_ACTIONS") == "true":
		return fmt.Sprintf("%s/%s/actions/runs/%s",
			env("GITHUB_SERVER_URL"), env("GITHUB_REPOSITORY"), env("GITHUB_RUN_ID"))
	default:
		return ManualBuildURL
	}
}
