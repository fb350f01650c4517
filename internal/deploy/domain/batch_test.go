package domain

import "testing"

func TestCheckWorkspaceCollisions(t *testing.T) {
	withNS := func(release, ns string) ReleaseRequest {
		r := NewReleaseRequest(release)
		r.Namespace = ns
		return r
	}
	skipped := NewReleaseRequest("a")
	skipped.Deploy = false
	otherDir := NewReleaseRequest("a")
	otherDir.BuildDir = "/other"
	withDir := func(release, dir string) ReleaseRequest {
		r := NewReleaseRequest(release)
		r.BuildDir = dir
		return r
	}

	tests := []struct {
		name    string
		reqs    []ReleaseRequest
		wantErr bool
	}{
		{name: "distinct releases", reqs: []ReleaseRequest{NewReleaseRequest("a"), NewReleaseRequest("b")}},
		{name: "same release different namespaces", reqs: []ReleaseRequest{withNS("a", "x"), withNS("a", "y")}},
		{name: "same release different build dirs", reqs: []ReleaseRequest{NewReleaseRequest("a"), otherDir}},
		{name: "duplicate release", reqs: []ReleaseRequest{NewReleaseRequest("a"), NewReleaseRequest("a")}, wantErr: true},
		{name: "release-ns clashes with namespaced release", reqs: []ReleaseRequest{NewReleaseRequest("a-x"), withNS("a", "x")}, wantErr: true},
		{name: "skipped releases are ignored", reqs: []ReleaseRequest{NewReleaseRequest("a"), skipped}},
		{name: "relative build dir is not rooted at slash", reqs: []ReleaseRequest{withDir("a", "build"), withDir("a", "/build")}},
		{name: "default build dir equals relative build", reqs: []ReleaseRequest{NewReleaseRequest("a"), withDir("a", "build")}, wantErr: true},
		{name: "relative and absolute forms of one dir", reqs: []ReleaseRequest{withDir("a", "out/../build"), withDir("a", "/work/build")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckWorkspaceCollisions(tt.reqs, "/work")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsKind(err, KindConfig) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestNeedsWorkdir(t *testing.T) {
	abs := NewReleaseRequest("a")
	abs.BuildDir = "/srv/build"
	rel := NewReleaseRequest("b")
	rel.BuildDir = "build"
	skipped := NewReleaseRequest("c")
	skipped.Deploy = false

	if NeedsWorkdir([]ReleaseRequest{abs, skipped}) {
		t.Error("absolute build dirs should not need the working directory")
	}
	if !NeedsWorkdir([]ReleaseRequest{abs, rel}) {
		t.Error("relative build dir should need the working directory")
	}
	if !NeedsWorkdir([]ReleaseRequest{NewReleaseRequest("d")}) {
		t.Error("empty build dir should need the working directory")
	}
}
