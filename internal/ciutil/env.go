// Package ciutil detects CI environments and collects the identifying
// variables they expose, so log output from CI runs can be correlated with
// the pipeline that produced it.
package ciutil

import "os"

// CI provider environment variables.
const (
	EnvCI            = "CI"
	EnvGitHubActions = "GITHUB_ACTIONS"
	EnvGitLabCI      = "GITLAB_CI"
	EnvCircleCI      = "CIRCLECI"
	EnvJenkinsURL    = "JENKINS_URL"
)

// IsCI reports whether any known CI provider variable is set.
func IsCI() bool {
	for _, name := range []string{EnvCI, EnvGitHubActions, EnvGitLabCI, EnvCircleCI, EnvJenkinsURL} {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// provider maps a provider's variables onto the common metadata keys.
type provider struct {
	name   string
	detect string
	vars   map[string]string
}

var providers = []provider{
	{
		name:   "github",
		detect: EnvGitHubActions,
		vars: map[string]string{
			"GITHUB_RUN_ID":   "ci_run_id",
			"GITHUB_SHA":      "ci_commit",
			"GITHUB_REF_NAME": "ci_branch",
			"GITHUB_JOB":      "ci_job",
		},
	},
	{
		name:   "gitlab",
		detect: EnvGitLabCI,
		vars: map[string]string{
			"CI_PIPELINE_ID":     "ci_run_id",
			"CI_COMMIT_SHA":      "ci_commit",
			"CI_COMMIT_REF_NAME": "ci_branch",
			"CI_JOB_NAME":        "ci_job",
		},
	},
}

// Metadata returns the CI attributes to attach to log records. It returns
// nil outside CI.
func Metadata() map[string]string {
	if !IsCI() {
		return nil
	}

	md := map[string]string{"ci": "true"}
	for _, p := range providers {
		if os.Getenv(p.detect) == "" {
			continue
		}
		md["ci_provider"] = p.name
		for env, key := range p.vars {
			if v := os.Getenv(env); v != "" {
				md[key] = v
			}
		}
		break
	}
	return md
}
