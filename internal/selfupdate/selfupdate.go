// Package selfupdate checks whether the running nimph binary is the latest
// released one by listing the canonical repository's tags over git.
package selfupdate

import (
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver"
	"github.com/pkg/errors"

	"github.com/saem/nimph/internal/git"
)

// RemoteURL is the canonical nimph repository.
const RemoteURL = "https://github.com/saem/nimph"

// VersionInfo describes how the running version relates to the newest
// released one.
type VersionInfo struct {
	IsLatest      bool
	LatestVersion string
}

// IsLatestVersion calls ls-remote on the nimph repository to find the
// latest semver tag and compares it with the version passed in.
func IsLatestVersion(version string, exec git.ExecutorInterface) (VersionInfo, error) {
	cur, err := semver.NewVersion(version)
	if err != nil {
		return VersionInfo{}, err
	}
	latest, err := latestReleased(exec)
	if err != nil {
		return VersionInfo{}, err
	}
	if cur.LessThan(latest) {
		return VersionInfo{LatestVersion: latest.String()}, nil
	} else if cur.GreaterThan(latest) {
		return VersionInfo{IsLatest: true, LatestVersion: cur.String()},
			fmt.Errorf("current version %v later than latest %v", cur, latest)
	}
	return VersionInfo{IsLatest: true, LatestVersion: latest.String()}, nil
}

func latestReleased(exec git.ExecutorInterface) (*semver.Version, error) {
	stdout, stderr, err := exec.ExecCommand("git", 30*time.Second, false, nil,
		"ls-remote", "--tags", RemoteURL)
	if err != nil {
		return nil, errors.Wrap(err, stderr)
	}

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) == 1 && len(lines[0]) == 0 {
		return nil, errors.New("no data returned from ls-remote")
	}

	var latest *semver.Version
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) != 2 || !strings.HasPrefix(fields[1], "refs/tags/") {
			continue
		}
		tag := strings.TrimSuffix(strings.TrimPrefix(fields[1], "refs/tags/"), "^{}")
		v, err := semver.NewVersion(tag)
		// skip tags that are not semantic versions
		if err != nil {
			continue
		}
		if latest == nil || v.GreaterThan(latest) {
			latest = v
		}
	}
	if latest == nil {
		return nil, errors.New("no latest version found")
	}
	return latest, nil
}
