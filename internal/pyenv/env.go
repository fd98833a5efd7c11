package pyenv

// Env describes the Python environment the checked code is assumed to run
// under. It backs the static evaluation of version and platform guards.
// Read-only after construction; safe to share across concurrent analyses.
type Env struct {
	// Platform is the value of sys.platform, e.g. "linux", "darwin", "win32".
	Platform string
	// Version is sys.version_info, e.g. {3, 13, 0}.
	Version []int
}

func Default() Env {
	return Env{
		Platform: "linux",
		Version:  []int{3, 13, 0},
	}
}

// versionAt returns the version component at index i, zero-padded.
func (e Env) versionAt(i int) int {
	if i < 0 || i >= len(e.Version) {
		return 0
	}
	return e.Version[i]
}
