package domain

import "path/filepath"

// CheckWorkspaceCollisions returns a configuration error when two requests
// would share a workspace directory. Build dirs are resolved against cwd.
func CheckWorkspaceCollisions(reqs []ReleaseRequest, cwd string) error {
	seen := make(map[string]string, len(reqs))
	for _, r := range reqs {
		if !r.Deploy {
			continue
		}
		key := filepath.Join(ResolveBuildDir(r.BuildDir, cwd), r.ReleaseDirName())
		if prev, ok := seen[key]; ok {
			return ConfigError("releases %q and %q share workspace %s", prev, r.Release, key)
		}
		seen[key] = r.Release
	}
	return nil
}

// NeedsWorkdir reports whether any deployable request has a build dir
// that depends on the working directory.
func NeedsWorkdir(reqs []ReleaseRequest) bool {
	for _, r := range reqs {
		if r.Deploy && !filepath.IsAbs(r.BuildDir) {
			return true
		}
	}
	return false
}
